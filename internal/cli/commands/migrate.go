package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leishu/internal/schema"
)

// NewMigrateCommand creates the migrate command.
func NewMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the corpus schema",
		Long: `Apply pending schema migrations to the configured corpus store.

Migrations are embedded in the binary and tracked in the goose version table,
so running the command again is a no-op.`,
		Example: `  leishu migrate
  leishu migrate --target-type sqlite --target-path ./corpus.db`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMigrate(cmd)
		},
	}
}

func runMigrate(cmd *cobra.Command) error {
	ctx := cmd.Context()

	cc, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	dialect := cc.Cfg.Target.Type
	if err := schema.Migrate(ctx, cc.Store.Database(), dialect, cc.Logger); err != nil {
		return err
	}
	version, err := schema.Version(ctx, cc.Store.Database(), dialect)
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Corpus schema at version %d (%s)\n", version, dialect)
	return nil
}
