package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/leapstack-labs/leishu/internal/schema"
	"github.com/leapstack-labs/leishu/pkg/adapter"
	"github.com/leapstack-labs/leishu/pkg/adapters/sqlite"
)

// NewSQLiteCorpus opens a SQLite corpus in a temporary directory, runs the
// corpus migrations and seeds fx. A nil fixture seeds the sample corpus.
// The adapter is closed when the test ends.
func NewSQLiteCorpus(t testing.TB, fx *schema.Fixture) adapter.Adapter {
	t.Helper()
	ctx := context.Background()
	logger := NewTestLogger(t)

	a := sqlite.New(logger)
	cfg := adapter.Config{Type: "sqlite", Path: filepath.Join(t.TempDir(), "corpus.db")}
	if err := a.Connect(ctx, cfg); err != nil {
		t.Fatalf("failed to open corpus: %v", err)
	}
	t.Cleanup(func() { _ = a.Close() })

	if err := schema.Migrate(ctx, a.Database(), "sqlite", logger); err != nil {
		t.Fatalf("failed to migrate corpus: %v", err)
	}
	if fx == nil {
		fx = schema.Sample()
	}
	if err := schema.Seed(ctx, a.Database(), a.Dialect(), fx); err != nil {
		t.Fatalf("failed to seed corpus: %v", err)
	}
	return a
}
