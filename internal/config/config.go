package config

import (
	"time"

	"github.com/sonarlens/sonarlens/internal/pplx"
)

// Config represents the complete application configuration, merged from
// defaults, an optional YAML config file, and SONARLENS_* environment
// variables.
type Config struct {
	API     pplx.Config   `mapstructure:"api"`
	Server  ServerConfig  `mapstructure:"server"`
	History HistoryConfig `mapstructure:"history"`
	Prompts PromptConfig  `mapstructure:"prompts"`
	Logging LoggingConfig `mapstructure:"logging"`
	Output  OutputConfig  `mapstructure:"output"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// HistoryConfig contains database configuration for libsql/Turso.
type HistoryConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Driver    string `mapstructure:"driver"`
	Path      string `mapstructure:"path"`
	URL       string `mapstructure:"url"`
	AuthToken string `mapstructure:"auth_token"`
}

// PromptConfig points at the directory of prompt preset files.
type PromptConfig struct {
	Dir string `mapstructure:"dir"`
}

// LoggingConfig contains logging configuration.
// Supports progressive logging profiles:
// - SIMPLE: Console output only, minimal configuration (CLI use)
// - STRUCTURED: Structured sinks, correlation IDs (server mode)
type LoggingConfig struct {
	// Level controls the minimum log level
	// Valid values: trace, debug, info, warn, error
	Level string `mapstructure:"level"`

	// Profile selects the logging complexity level
	// Valid values: SIMPLE, STRUCTURED
	Profile string `mapstructure:"profile"`
}

// OutputConfig controls CLI rendering.
type OutputConfig struct {
	// Format selects the renderer: table or json.
	Format string `mapstructure:"format"`
}
