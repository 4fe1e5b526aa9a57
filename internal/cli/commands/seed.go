package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leishu/internal/schema"
)

// SeedOptions holds options for the seed command.
type SeedOptions struct {
	Migrate bool
}

// NewSeedCommand creates the seed command.
func NewSeedCommand() *cobra.Command {
	opts := &SeedOptions{}

	cmd := &cobra.Command{
		Use:   "seed [fixture.yaml]",
		Short: "Load a corpus fixture",
		Long: `Load documents, authors, titles, segments and pages from a YAML fixture
into the corpus store in one transaction.

Without an argument the built-in sample corpus is loaded.`,
		Example: `  # Create a local development corpus
  leishu seed --migrate --target-path ./corpus.db

  # Load a fixture file
  leishu seed ./testdata/corpus.yaml`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd, opts, args)
		},
	}

	cmd.Flags().BoolVar(&opts.Migrate, "migrate", false, "Apply schema migrations before loading")

	return cmd
}

func runSeed(cmd *cobra.Command, opts *SeedOptions, args []string) error {
	ctx := cmd.Context()

	fx := schema.Sample()
	source := "sample corpus"
	if len(args) == 1 {
		var err error
		if fx, err = schema.LoadFixture(args[0]); err != nil {
			return err
		}
		source = args[0]
	}

	cc, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	if opts.Migrate {
		if err := schema.Migrate(ctx, cc.Store.Database(), cc.Cfg.Target.Type, cc.Logger); err != nil {
			return err
		}
	}
	if err := schema.Seed(ctx, cc.Store.Database(), cc.Store.Dialect(), fx); err != nil {
		return err
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Loaded %s: %d documents, %d segments\n", source, len(fx.Documents), len(fx.Segments))
	return nil
}
