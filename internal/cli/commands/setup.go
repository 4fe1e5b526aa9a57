package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leishu/internal/cli/output"
	"github.com/leapstack-labs/leishu/internal/config"
	"github.com/leapstack-labs/leishu/internal/search"
	"github.com/leapstack-labs/leishu/pkg/adapter"
	"github.com/leapstack-labs/leishu/pkg/dialect"

	// Register every corpus store the CLI can open.
	_ "github.com/leapstack-labs/leishu/pkg/adapters/duckdb"
	_ "github.com/leapstack-labs/leishu/pkg/adapters/mysql"
	_ "github.com/leapstack-labs/leishu/pkg/adapters/postgres"
	_ "github.com/leapstack-labs/leishu/pkg/adapters/sqlite"
)

type (
	configKey   struct{}
	loggerKey   struct{}
	rendererKey struct{}
)

// WithRuntime stores the loaded configuration, logger and renderer in ctx.
// The root command calls it once before any subcommand runs.
func WithRuntime(ctx context.Context, cfg *config.Config, logger *slog.Logger, r *output.Renderer) context.Context {
	ctx = context.WithValue(ctx, configKey{}, cfg)
	ctx = context.WithValue(ctx, loggerKey{}, logger)
	return context.WithValue(ctx, rendererKey{}, r)
}

// GetConfig retrieves the configuration from ctx, or the defaults.
func GetConfig(ctx context.Context) *config.Config {
	if c, ok := ctx.Value(configKey{}).(*config.Config); ok {
		return c
	}
	cfg := config.Default()
	return &cfg
}

// GetLogger retrieves the logger from ctx.
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.New(slog.DiscardHandler)
}

// GetRenderer retrieves the renderer from ctx.
func GetRenderer(ctx context.Context) *output.Renderer {
	if r, ok := ctx.Value(rendererKey{}).(*output.Renderer); ok {
		return r
	}
	return output.NewRenderer(os.Stdout, os.Stderr, output.ModeAuto)
}

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Store    adapter.Adapter
	Search   *search.Service
	Renderer *output.Renderer
}

// NewCommandContext opens the configured corpus store and builds a search
// service over it. The cleanup function closes the store and must be
// called (typically via defer).
func NewCommandContext(cmd *cobra.Command) (*CommandContext, func(), error) {
	ctx := cmd.Context()
	cfg := GetConfig(ctx)
	logger := GetLogger(ctx)

	store, err := adapter.Open(ctx, cfg.Target.AdapterConfig(), logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open corpus store: %w", err)
	}

	svc := search.New(store, store.Dialect(), search.OptionsFromConfig(cfg.Search), logger)
	cleanup := func() {
		_ = store.Close()
	}

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Store:    store,
		Search:   svc,
		Renderer: GetRenderer(ctx),
	}, cleanup, nil
}

// NewCommandContextWithoutStore creates a CommandContext whose search
// service can compile queries but not run them.
func NewCommandContextWithoutStore(cmd *cobra.Command) (*CommandContext, error) {
	ctx := cmd.Context()
	cfg := GetConfig(ctx)
	logger := GetLogger(ctx)

	if strings.TrimSpace(cfg.Target.Type) == "" {
		return nil, fmt.Errorf("target.type is not set: %w", dialect.ErrDialectRequired)
	}
	d, ok := dialect.Get(cfg.Target.Type)
	if !ok {
		return nil, fmt.Errorf("unknown dialect %q (available: %s)", cfg.Target.Type, strings.Join(dialect.List(), ", "))
	}

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Search:   search.New(nil, d, search.OptionsFromConfig(cfg.Search), logger),
		Renderer: GetRenderer(ctx),
	}, nil
}
