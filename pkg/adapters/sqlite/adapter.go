// Package sqlite provides a SQLite corpus store adapter built on the pure Go
// modernc.org/sqlite driver. It serves development corpora and tests; full
// text predicates are emulated by the sqlite dialect.
package sqlite

import (
	"context"
	"log/slog"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/leapstack-labs/leishu/pkg/adapter"
	"github.com/leapstack-labs/leishu/pkg/dialect"
	sqlitedialect "github.com/leapstack-labs/leishu/pkg/dialects/sqlite"
)

// Adapter implements the adapter.Adapter interface for SQLite.
type Adapter struct {
	adapter.BaseSQLAdapter
}

// New creates a new SQLite adapter instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Adapter{
		BaseSQLAdapter: adapter.BaseSQLAdapter{Logger: logger},
	}
}

// DialectName returns the SQL dialect for this adapter.
func (a *Adapter) DialectName() string {
	return "sqlite"
}

// Dialect returns the SQLite dialect.
func (a *Adapter) Dialect() *dialect.Dialect {
	return sqlitedialect.SQLite
}

// Connect opens the database file at cfg.Path.
// Use ":memory:" for an in-memory database; it is pinned to a single
// connection because every new connection would see an empty database.
func (a *Adapter) Connect(ctx context.Context, cfg adapter.Config) error {
	path := cfg.Path
	if path == "" {
		path = ":memory:"
	}

	a.Logger.Debug("opening sqlite database", slog.String("path", path))
	if err := a.OpenPool(ctx, "sqlite", buildSQLiteDSN(path), cfg); err != nil {
		return err
	}
	if path == ":memory:" {
		a.DB.SetMaxOpenConns(1)
	}
	return nil
}

// buildSQLiteDSN appends the connection pragmas to path.
func buildSQLiteDSN(path string) string {
	pragmas := "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	if path != ":memory:" {
		pragmas += "&_pragma=journal_mode(WAL)"
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + pragmas
}

// Ensure Adapter implements adapter.Adapter interface
var _ adapter.Adapter = (*Adapter)(nil)
