package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/leapstack-labs/leishu/pkg/adapter"
)

// Validate checks that the configuration can be used to start leishu.
func (c *Config) Validate() error {
	var errs []error
	if err := c.Target.Validate(); err != nil {
		errs = append(errs, err)
	}

	for _, v := range []struct {
		key string
		n   int
	}{
		{"search.result_limit", c.Search.ResultLimit},
		{"search.fanout_limit", c.Search.FanoutLimit},
		{"search.preview_runes", c.Search.PreviewRunes},
		{"search.variant_limit", c.Search.VariantLimit},
		{"search.variant_candidates", c.Search.VariantCandidates},
		{"search.max_title_depth", c.Search.MaxTitleDepth},
	} {
		if v.n <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %d", v.key, v.n))
		}
	}
	if c.Search.VariantCandidates < c.Search.VariantLimit {
		errs = append(errs, fmt.Errorf("search.variant_candidates (%d) must not be below search.variant_limit (%d)",
			c.Search.VariantCandidates, c.Search.VariantLimit))
	}
	if c.Server.MaxBodyBytes <= 0 {
		errs = append(errs, fmt.Errorf("server.max_body_bytes must be positive"))
	}

	if _, err := c.Log.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be text or json, got %q", c.Log.Format))
	}
	return errors.Join(errs...)
}

// Validate checks if the target configuration is valid.
// It uses the adapter registry to determine which adapter types are available.
func (t *TargetConfig) Validate() error {
	if t.Type == "" {
		return fmt.Errorf("target type is required")
	}

	// Use adapter registry as single source of truth
	if !adapter.IsRegistered(strings.ToLower(t.Type)) {
		return &adapter.UnknownAdapterError{
			Type:      t.Type,
			Available: adapter.ListAdapters(),
		}
	}

	switch t.Type {
	case "mysql", "postgres":
		if t.Database == "" {
			return fmt.Errorf("target.database is required for %s", t.Type)
		}
	}
	return nil
}

// SlogLevel parses the configured level.
func (l LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return slog.LevelInfo, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}
