package config

// Default configuration values.
const (
	DefaultTargetType        = "sqlite"
	DefaultTargetPath        = "leishu.db"
	DefaultAddr              = ":8080"
	DefaultReadHeaderTimeout = "5s"
	DefaultShutdownTimeout   = "10s"
	DefaultMaxBodyBytes      = 1 << 20
	DefaultResultLimit       = 100
	DefaultFanoutLimit       = 5
	DefaultPreviewRunes      = 100
	DefaultEllipsis          = "···"
	DefaultVariantLimit      = 10
	DefaultVariantCandidates = 50
	DefaultMaxTitleDepth     = 64
	DefaultLogLevel          = "info"
	DefaultLogFormat         = "text"
)

// defaults is the lowest-precedence configuration layer.
func defaults() map[string]any {
	return map[string]any{
		"target.type":                DefaultTargetType,
		"target.path":                DefaultTargetPath,
		"server.addr":                DefaultAddr,
		"server.read_header_timeout": DefaultReadHeaderTimeout,
		"server.shutdown_timeout":    DefaultShutdownTimeout,
		"server.max_body_bytes":      DefaultMaxBodyBytes,
		"search.result_limit":        DefaultResultLimit,
		"search.fanout_limit":        DefaultFanoutLimit,
		"search.fanout_concurrent":   true,
		"search.preview_runes":       DefaultPreviewRunes,
		"search.ellipsis":            DefaultEllipsis,
		"search.variant_limit":       DefaultVariantLimit,
		"search.variant_candidates":  DefaultVariantCandidates,
		"search.strict_fields":       false,
		"search.max_title_depth":     DefaultMaxTitleDepth,
		"log.level":                  DefaultLogLevel,
		"log.format":                 DefaultLogFormat,
		"verbose":                    false,
	}
}

// ApplyTargetDefaults fills in type-specific target defaults.
func ApplyTargetDefaults(t *TargetConfig) {
	if t == nil {
		return
	}
	switch t.Type {
	case "postgres":
		if t.Port == 0 {
			t.Port = 5432
		}
	case "mysql":
		if t.Port == 0 {
			t.Port = 3306
		}
	}
}
