package commands

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/leapstack-labs/leapsieve/internal/cli/config"
	"github.com/leapstack-labs/leapsieve/internal/cli/output"
	"github.com/leapstack-labs/leapsieve/internal/engine"
	"github.com/leapstack-labs/leapsieve/pkg/capability"
	"github.com/leapstack-labs/leapsieve/pkg/validate"
)

// DoctorOptions holds options for the doctor command.
type DoctorOptions struct {
	Format string // Output format: text, json
}

// NewDoctorCommand creates the doctor command.
func NewDoctorCommand() *cobra.Command {
	opts := &DoctorOptions{}
	cmd := &cobra.Command{
		Use:   "doctor [path...]",
		Short: "Run a project health check",
		Long: `Analyze a filter project for problems before deploying it.

The doctor command checks the configuration and every script and reports:
- Project summary (scripts, valid scripts, extensions in use)
- Health checks grouped by category (Configuration, Scripts, Server)
- Health score (0-100)
- Actionable recommendations

Output adapts to environment:
  - Terminal: Styled output with colors
  - Piped/Scripted: Markdown format
  - JSON: Machine-readable format`,
		Example: `  # Run health check
  leapsieve doctor

  # Output as JSON
  leapsieve doctor --format json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDoctor(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "Output format: text, json")

	return cmd
}

// DoctorOutput is the JSON output for the doctor command.
type DoctorOutput struct {
	Summary         ProjectSummary `json:"summary"`
	HealthChecks    []HealthCheck  `json:"health_checks"`
	Score           int            `json:"score"`
	Recommendations []string       `json:"recommendations"`
	IssueCount      int            `json:"issue_count"`
}

// ProjectSummary contains project-level statistics.
type ProjectSummary struct {
	Scripts    int      `json:"scripts"`
	Valid      int      `json:"valid"`
	Invalid    int      `json:"invalid"`
	Extensions []string `json:"extensions"`
	ConfigFile string   `json:"config_file,omitempty"`
}

// HealthCheck represents a single health check result.
type HealthCheck struct {
	RuleID     string   `json:"rule_id"`
	Name       string   `json:"name"`
	Group      string   `json:"group"`
	Status     string   `json:"status"` // "pass", "warn", "error"
	IssueCount int      `json:"issue_count"`
	Details    []string `json:"details,omitempty"`
}

// healthRule describes one check the doctor runs.
type healthRule struct {
	ID       string
	Name     string
	Group    string
	Severity string // "warn" or "error"
}

var healthRules = []healthRule{
	{ID: "CF01", Name: "config-file", Group: "configuration", Severity: "warn"},
	{ID: "CF02", Name: "known-server-capabilities", Group: "configuration", Severity: "warn"},
	{ID: "SC01", Name: "syntax", Group: "scripts", Severity: "error"},
	{ID: "SC02", Name: "valid-commands", Group: "scripts", Severity: "error"},
	{ID: "SC03", Name: "canonical-form", Group: "scripts", Severity: "warn"},
	{ID: "SV01", Name: "declared-extensions", Group: "server", Severity: "error"},
	{ID: "SV02", Name: "offered-extensions", Group: "server", Severity: "error"},
}

func runDoctor(cmd *cobra.Command, args []string, opts *DoctorOptions) error {
	cmdCtx := NewCommandContext(cmd)
	eng := cmdCtx.Engine
	r := cmdCtx.Renderer

	// Override renderer if format flag is set
	if opts.Format != "" {
		r = output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(opts.Format))
	}

	discovered := eng.Discover(defaultPaths(cmdCtx.Cfg, args))
	for _, de := range discovered.Errors {
		r.Error(de.Error())
	}
	if len(discovered.Files) == 0 {
		r.Warning("No scripts found in project")
		return nil
	}

	results, err := eng.Check(cmd.Context(), discovered.Files)
	if err != nil {
		return err
	}

	findings := collectFindings(eng, cmdCtx.Cfg, config.GetConfigFileUsed(), results)
	doctorOutput := buildDoctorOutput(results, findings)
	doctorOutput.Summary.ConfigFile = config.GetConfigFileUsed()

	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(doctorOutput)
	case output.ModeMarkdown:
		return renderDoctorMarkdown(r, doctorOutput)
	default:
		return renderDoctorText(r, doctorOutput)
	}
}

// collectFindings runs every health rule and returns the details per rule ID.
func collectFindings(eng *engine.Engine, cfg *config.Config, configFile string, results []engine.FileResult) map[string][]string {
	findings := make(map[string][]string)
	add := func(id, format string, a ...any) {
		findings[id] = append(findings[id], fmt.Sprintf(format, a...))
	}

	if configFile == "" {
		add("CF01", "no leapsieve.yaml found, using defaults")
	}
	reg := eng.Options().Registry
	if reg == nil {
		reg = capability.Default()
	}
	for _, name := range cfg.Server.Capabilities {
		if !reg.Knows(name) {
			add("CF02", "server capability %q is not a known extension", name)
		}
	}

	for i := range results {
		res := &results[i]
		switch {
		case res.Err != nil:
			add("SC01", "%s: %v", res.Path, res.Err)
			continue
		case res.SyntaxErr != nil:
			add("SC01", "%s: %v", res.Path, res.SyntaxErr)
			continue
		}

		for _, d := range res.Diagnostics {
			switch d.Kind {
			case validate.MissingCapability:
				add("SV01", "%s:%s: %s", res.Path, d.Pos, d.Detail)
			case validate.UnsupportedCapability:
				add("SV02", "%s:%s: %s", res.Path, d.Pos, d.Detail)
			default:
				add("SC02", "%s:%s: %s", res.Path, d.Pos, d.Detail)
			}
		}

		if formatted, err := eng.FormatFile(res.Path, false); err == nil && formatted.Changed {
			add("SC03", "%s is not in canonical form", res.Path)
		}
	}
	return findings
}

func buildDoctorOutput(results []engine.FileResult, findings map[string][]string) *DoctorOutput {
	summary := buildProjectSummary(results)

	healthChecks := make([]HealthCheck, 0, len(healthRules))
	issueCount := 0
	for _, rule := range healthRules {
		details := findings[rule.ID]
		status := "pass"
		if len(details) > 0 {
			status = rule.Severity
		}
		issueCount += len(details)

		healthChecks = append(healthChecks, HealthCheck{
			RuleID:     rule.ID,
			Name:       rule.Name,
			Group:      rule.Group,
			Status:     status,
			IssueCount: len(details),
			Details:    details,
		})
	}

	// Sort health checks by group then by rule ID
	sort.SliceStable(healthChecks, func(i, j int) bool {
		if healthChecks[i].Group != healthChecks[j].Group {
			return healthChecks[i].Group < healthChecks[j].Group
		}
		return healthChecks[i].RuleID < healthChecks[j].RuleID
	})

	return &DoctorOutput{
		Summary:         summary,
		HealthChecks:    healthChecks,
		Score:           calculateHealthScore(healthChecks, summary.Scripts),
		Recommendations: generateRecommendations(healthChecks),
		IssueCount:      issueCount,
	}
}

func buildProjectSummary(results []engine.FileResult) ProjectSummary {
	s := engine.Summarize(results)
	summary := ProjectSummary{
		Scripts: s.Files,
		Valid:   s.Valid,
		Invalid: s.Invalid,
	}

	seen := make(map[string]bool)
	for i := range results {
		if results[i].Script == nil {
			continue
		}
		for _, ext := range results[i].Script.Capabilities() {
			if !seen[ext] {
				seen[ext] = true
				summary.Extensions = append(summary.Extensions, ext)
			}
		}
	}
	sort.Strings(summary.Extensions)
	return summary
}

// calculateHealthScore computes a health score from 0-100.
// The scoring weights:
// - Each issue reduces points
// - Errors count double
// - More scripts means issues have less individual impact
func calculateHealthScore(checks []HealthCheck, scriptCount int) int {
	if len(checks) == 0 {
		return 100
	}

	score := 100.0

	// With more scripts, each individual issue has less impact
	basePenalty := 5.0
	if scriptCount > 10 {
		basePenalty = 3.0
	}
	if scriptCount > 50 {
		basePenalty = 2.0
	}
	if scriptCount > 100 {
		basePenalty = 1.0
	}

	for _, check := range checks {
		switch check.Status {
		case "error":
			score -= float64(check.IssueCount) * basePenalty * 2
		case "warn":
			score -= float64(check.IssueCount) * basePenalty
		}
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	return int(score)
}

// generateRecommendations creates actionable recommendations based on findings.
func generateRecommendations(checks []HealthCheck) []string {
	var recommendations []string
	seen := make(map[string]bool)

	for _, check := range checks {
		if check.IssueCount == 0 {
			continue
		}

		rec := getRecommendation(check.RuleID)
		if rec != "" && !seen[rec] {
			recommendations = append(recommendations, rec)
			seen[rec] = true
		}
	}

	// Limit to top 5 recommendations
	if len(recommendations) > 5 {
		recommendations = recommendations[:5]
	}

	return recommendations
}

// getRecommendation returns a recommendation for a specific rule.
func getRecommendation(ruleID string) string {
	switch ruleID {
	case "CF01":
		return "Run 'leapsieve init' to pin formatting and server settings"
	case "CF02":
		return "Remove unknown names from server.capabilities or check their spelling"
	case "SC01":
		return "Fix syntax errors; run 'leapsieve check' for exact positions"
	case "SC02":
		return "Replace unknown commands and fix invalid arguments"
	case "SC03":
		return "Run 'leapsieve fmt --write' to normalize layout"
	case "SV01":
		return "Add the missing extensions to each script's require list"
	case "SV02":
		return "Avoid extensions the server does not advertise"
	default:
		return ""
	}
}

func renderDoctorText(r *output.Renderer, out *DoctorOutput) error {
	styles := r.Styles()

	r.Println("")
	r.Println(styles.Header.Render("leapsieve Project Health Report"))
	r.Println(styles.Muted.Render(strings.Repeat("=", 55)))
	r.Println("")

	r.Println(styles.Bold.Render("Project Summary"))
	r.Printf("   Scripts: %d | Valid: %d | Invalid: %d\n", out.Summary.Scripts, out.Summary.Valid, out.Summary.Invalid)
	if len(out.Summary.Extensions) > 0 {
		r.Printf("   Extensions: %s\n", strings.Join(out.Summary.Extensions, ", "))
	}
	r.Println("")

	r.Println(styles.Bold.Render("Health Checks"))
	r.Println("")

	currentGroup := ""
	titleCaser := cases.Title(language.English)
	for _, check := range out.HealthChecks {
		if check.Group != currentGroup {
			currentGroup = check.Group
			r.Println(styles.Bold.Render("   " + titleCaser.String(currentGroup)))
			r.Println(styles.Muted.Render("   " + strings.Repeat("-", 40)))
		}

		icon := styles.Success.Render("✓")
		switch check.Status {
		case "warn":
			icon = styles.Warning.Render("!")
		case "error":
			icon = styles.Error.Render("✗")
		}

		status := fmt.Sprintf("%s %s: %s", icon, check.RuleID, check.Name)
		if check.IssueCount > 0 {
			status += fmt.Sprintf(" (%d issues)", check.IssueCount)
		}
		r.Println("   " + status)

		// Show first 3 details for issues
		for i, detail := range check.Details {
			if i >= 3 {
				r.Println(styles.Muted.Render(fmt.Sprintf("       ... and %d more", len(check.Details)-3)))
				break
			}
			r.Println(styles.Muted.Render("       - " + detail))
		}
	}
	r.Println("")

	r.Println(styles.Muted.Render(strings.Repeat("=", 55)))
	scoreStyle := styles.Success
	if out.Score < 70 {
		scoreStyle = styles.Warning
	}
	if out.Score < 50 {
		scoreStyle = styles.Error
	}
	r.Printf("   Health Score: %s\n", scoreStyle.Render(fmt.Sprintf("%d/100", out.Score)))
	r.Println("")

	if len(out.Recommendations) > 0 {
		r.Println(styles.Bold.Render("Recommendations"))
		for i, rec := range out.Recommendations {
			r.Printf("   %d. %s\n", i+1, rec)
		}
		r.Println("")
	}

	return nil
}

func renderDoctorMarkdown(r *output.Renderer, out *DoctorOutput) error {
	r.Println("# leapsieve Project Health Report")
	r.Println("")

	r.Println("## Project Summary")
	r.Println("")
	r.Printf("- **Scripts**: %d\n", out.Summary.Scripts)
	r.Printf("- **Valid**: %d\n", out.Summary.Valid)
	r.Printf("- **Invalid**: %d\n", out.Summary.Invalid)
	if len(out.Summary.Extensions) > 0 {
		r.Printf("- **Extensions**: %s\n", strings.Join(out.Summary.Extensions, ", "))
	}
	r.Println("")

	r.Println("## Health Checks")
	r.Println("")

	currentGroup := ""
	titleCaser := cases.Title(language.English)
	for _, check := range out.HealthChecks {
		if check.Group != currentGroup {
			currentGroup = check.Group
			r.Println("### " + titleCaser.String(currentGroup))
			r.Println("")
		}

		status := "PASS"
		switch check.Status {
		case "warn":
			status = "WARN"
		case "error":
			status = "ERROR"
		}

		r.Printf("- **[%s]** %s: %s", status, check.RuleID, check.Name)
		if check.IssueCount > 0 {
			r.Printf(" (%d issues)", check.IssueCount)
		}
		r.Println("")

		for _, detail := range check.Details {
			r.Printf("  - %s\n", detail)
		}
	}
	r.Println("")

	r.Println("## Health Score")
	r.Println("")
	r.Printf("**%d/100**\n", out.Score)
	r.Println("")

	if len(out.Recommendations) > 0 {
		r.Println("## Recommendations")
		r.Println("")
		for i, rec := range out.Recommendations {
			r.Printf("%d. %s\n", i+1, rec)
		}
		r.Println("")
	}

	return nil
}
