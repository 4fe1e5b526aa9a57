// Package config provides the leishu configuration value.
//
// Configuration is loaded once at startup, validated, and then passed by
// value to the components that need it. Nothing reads it from global state.
package config

import (
	"time"

	"github.com/leapstack-labs/leishu/pkg/core"
)

// TargetConfig holds corpus database configuration.
type TargetConfig struct {
	Type string `koanf:"type"` // mysql, sqlite, postgres, duckdb

	// File-based databases (SQLite, DuckDB)
	Path string `koanf:"path"`

	// Network databases
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	Database string `koanf:"database"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`

	// Additional driver-specific options
	Options map[string]string `koanf:"options"`

	// Params holds adapter-specific configuration (e.g., DuckDB extensions, settings)
	Params map[string]any `koanf:"params"`
}

// AdapterConfig converts the target into the adapter connection config.
func (t TargetConfig) AdapterConfig() core.AdapterConfig {
	return core.AdapterConfig{
		Type:     t.Type,
		Path:     t.Path,
		Host:     t.Host,
		Port:     t.Port,
		Database: t.Database,
		Username: t.User,
		Password: t.Password,
		Options:  t.Options,
		Params:   t.Params,
	}
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr              string        `koanf:"addr"`
	ReadHeaderTimeout time.Duration `koanf:"read_header_timeout"`
	ShutdownTimeout   time.Duration `koanf:"shutdown_timeout"`
	MaxBodyBytes      int64         `koanf:"max_body_bytes"`
}

// SearchConfig tunes query compilation, fan-out and enrichment.
type SearchConfig struct {
	ResultLimit       int    `koanf:"result_limit"`
	FanoutLimit       int    `koanf:"fanout_limit"`
	FanoutConcurrent  bool   `koanf:"fanout_concurrent"`
	PreviewRunes      int    `koanf:"preview_runes"`
	Ellipsis          string `koanf:"ellipsis"`
	VariantLimit      int    `koanf:"variant_limit"`
	VariantCandidates int    `koanf:"variant_candidates"`
	StrictFields      bool   `koanf:"strict_fields"`
	MaxTitleDepth     int    `koanf:"max_title_depth"`
}

// LogConfig selects the log level and handler format.
type LogConfig struct {
	Level  string `koanf:"level"`  // debug, info, warn, error
	Format string `koanf:"format"` // text, json
}

// Config holds all leishu configuration.
type Config struct {
	Target  TargetConfig `koanf:"target"`
	Server  ServerConfig `koanf:"server"`
	Search  SearchConfig `koanf:"search"`
	Log     LogConfig    `koanf:"log"`
	Verbose bool         `koanf:"verbose"`
}
