// Package config provides the project configuration shared by the CLI and
// any other tool that formats or checks scripts on behalf of a project.
package config

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/leapsieve/pkg/format"
	"github.com/leapstack-labs/leapsieve/pkg/sieve"
)

// LineEnding is a configured line terminator. Configuration files spell it
// "lf" or "crlf".
type LineEnding string

// ParseLineEnding accepts lf, crlf or the literal terminators.
func ParseLineEnding(s string) (LineEnding, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "lf", "\n":
		return LineEnding(format.LF), nil
	case "crlf", "\r\n":
		return LineEnding(format.CRLF), nil
	}
	return "", fmt.Errorf("invalid line ending %q (want lf or crlf)", s)
}

// String returns the configuration spelling.
func (l LineEnding) String() string {
	if l == LineEnding(format.CRLF) {
		return "crlf"
	}
	return "lf"
}

// FormatConfig controls canonical output.
type FormatConfig struct {
	LineEnding         LineEnding `koanf:"line_ending"`
	Indent             string     `koanf:"indent"`
	MultilineThreshold int        `koanf:"multiline_threshold"`
	Charset            string     `koanf:"charset"`
}

// Options converts the section to printer options.
func (f FormatConfig) Options() format.Options {
	return format.Options{
		LineEnding:         string(f.LineEnding),
		Indent:             f.Indent,
		MultilineThreshold: f.MultilineThreshold,
		Charset:            f.Charset,
	}
}

// ParseConfig controls the parser.
type ParseConfig struct {
	MaxDepth int `koanf:"max_depth"`
}

// ServerConfig describes the target ManageSieve server.
type ServerConfig struct {
	// Capabilities is the SIEVE capability list the server advertises.
	Capabilities []string `koanf:"capabilities"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `koanf:"level"`  // debug, info, warn, error
	Format string `koanf:"format"` // text, json
}

// ProjectConfig holds the settings a project file may carry.
type ProjectConfig struct {
	Format FormatConfig `koanf:"format"`
	Parse  ParseConfig  `koanf:"parse"`
	Server ServerConfig `koanf:"server"`
}

// SieveOptions converts the project settings to library options.
func (c *ProjectConfig) SieveOptions() sieve.Options {
	return sieve.Options{
		MaxDepth:           c.Parse.MaxDepth,
		ServerCapabilities: c.Server.Capabilities,
		Format:             c.Format.Options(),
	}
}

// Validate checks values the decoder cannot.
func (c *ProjectConfig) Validate() error {
	if c.Parse.MaxDepth < 0 {
		return fmt.Errorf("parse.max_depth must not be negative")
	}
	if c.Format.MultilineThreshold < 0 {
		return fmt.Errorf("format.multiline_threshold must not be negative")
	}
	if strings.Trim(c.Format.Indent, " \t") != "" {
		return fmt.Errorf("format.indent may only contain spaces and tabs")
	}
	if !format.ValidCharset(c.Format.Charset) {
		return fmt.Errorf("format.charset: unknown charset %q", c.Format.Charset)
	}
	return nil
}
