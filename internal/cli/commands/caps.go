package commands

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapsieve/internal/cli/output"
	"github.com/leapstack-labs/leapsieve/pkg/capability"
)

// NewCapsCommand creates the caps command.
func NewCapsCommand() *cobra.Command {
	var offeredOnly bool
	cmd := &cobra.Command{
		Use:     "caps",
		Aliases: []string{"capabilities"},
		Short:   "List known extensions",
		Long: `List the extensions leapsieve knows and the commands, tests and
tags each one unlocks.

When server capabilities are configured, extensions the server does not
advertise are marked as not offered.`,
		Example: `  leapsieve caps
  leapsieve caps --capabilities "fileinto vacation" --offered`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCaps(cmd, offeredOnly)
		},
	}

	cmd.Flags().BoolVar(&offeredOnly, "offered", false, "Only list extensions the server offers")

	return cmd
}

func runCaps(cmd *cobra.Command, offeredOnly bool) error {
	cmdCtx := NewCommandContext(cmd)
	r := cmdCtx.Renderer

	opts := cmdCtx.Engine.Options()
	infos := capabilityInfos(opts.Registry, opts.ServerCapabilities, offeredOnly)

	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(infos)
	}

	r.Header("Extensions")

	t := table.NewWriter()
	t.SetOutputMirror(r.Writer())
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Extension", "RFC", "Offered", "Unlocks"})
	for _, info := range infos {
		offered := "yes"
		if !info.Offered {
			offered = "no"
		}
		t.AppendRow(table.Row{info.Name, info.RFC, offered, strings.Join(info.Unlocks, " ")})
	}

	if r.EffectiveMode() == output.ModeMarkdown {
		t.RenderMarkdown()
		r.Println("")
	} else {
		t.Render()
	}
	r.Muted(fmt.Sprintf("%d extensions", len(infos)))
	return nil
}

// capabilityInfos describes the extensions of reg, marking those outside
// server as not offered. An empty server list offers everything.
func capabilityInfos(reg *capability.Registry, server []string, offeredOnly bool) []output.CapabilityInfo {
	if reg == nil {
		reg = capability.Default()
	}
	if len(server) > 0 {
		reg = reg.Restrict(server...)
	}

	exts := reg.Extensions()
	infos := make([]output.CapabilityInfo, 0, len(exts))
	for _, e := range exts {
		offered := reg.Offers(e.Name)
		if offeredOnly && !offered {
			continue
		}
		unlocks := reg.Unlocks(e.Name)
		if unlocks == nil {
			unlocks = []string{}
		}
		infos = append(infos, output.CapabilityInfo{
			Name:        e.Name,
			RFC:         e.RFC,
			Description: e.Description,
			Offered:     offered,
			Unlocks:     unlocks,
		})
	}
	return infos
}
