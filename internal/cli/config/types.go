// Package config provides configuration management for the leapsieve CLI.
//
// This package extends the shared project configuration from
// internal/config with CLI-specific fields.
package config

import (
	sharedcfg "github.com/leapstack-labs/leapsieve/internal/config"
)

// ProjectConfig is an alias for the shared project configuration.
type ProjectConfig = sharedcfg.ProjectConfig

// LogConfig is an alias for the shared logging configuration.
type LogConfig = sharedcfg.LogConfig

// Config holds all CLI configuration options.
type Config struct {
	ProjectConfig `koanf:",squash"`

	Verbose      bool      `koanf:"verbose"`
	OutputFormat string    `koanf:"output"`
	Log          LogConfig `koanf:"log"`

	// ProjectRoot is the directory the config file was found in, or the
	// working directory.
	ProjectRoot string `koanf:"-"`
}

// Default configuration values.
const (
	DefaultOutput    = "auto" // Auto-detect: TTY=text, non-TTY=markdown
	DefaultLogLevel  = sharedcfg.DefaultLogLevel
	DefaultLogFormat = sharedcfg.DefaultLogFormat
)
