// Package schema owns the corpus database schema: embedded goose migrations
// per dialect and a YAML fixture format for seeding development corpora.
package schema

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"sync"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*/*.sql
var migrations embed.FS

// goose keeps its filesystem and dialect in package state.
var gooseMu sync.Mutex

// gooseDialects maps leishu dialect names to goose dialect names.
var gooseDialects = map[string]string{
	"sqlite":   "sqlite3",
	"mysql":    "mysql",
	"postgres": "postgres",
}

// Supported reports whether migrations exist for a dialect.
func Supported(dialect string) bool {
	_, ok := gooseDialects[dialect]
	return ok
}

// Migrate runs all pending corpus migrations for dialect.
func Migrate(ctx context.Context, db *sql.DB, dialect string, logger *slog.Logger) error {
	return withGoose(dialect, logger, func(dir string) error {
		if err := goose.UpContext(ctx, db, dir); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		return nil
	})
}

// Version returns the current migration version of the corpus database.
func Version(ctx context.Context, db *sql.DB, dialect string) (int64, error) {
	var v int64
	err := withGoose(dialect, nil, func(string) error {
		var err error
		v, err = goose.GetDBVersionContext(ctx, db)
		return err
	})
	return v, err
}

func withGoose(dialect string, logger *slog.Logger, fn func(dir string) error) error {
	name, ok := gooseDialects[dialect]
	if !ok {
		return fmt.Errorf("no corpus migrations for dialect %q", dialect)
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(migrations)
	goose.SetLogger(gooseLogger{logger})
	if err := goose.SetDialect(name); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}
	return fn("migrations/" + dialect)
}

// gooseLogger routes goose output through slog.
type gooseLogger struct {
	l *slog.Logger
}

func (g gooseLogger) Printf(format string, v ...interface{}) {
	g.l.Info(fmt.Sprintf(format, v...), "component", "migrate")
}

func (g gooseLogger) Fatalf(format string, v ...interface{}) {
	g.l.Error(fmt.Sprintf(format, v...), "component", "migrate")
}
