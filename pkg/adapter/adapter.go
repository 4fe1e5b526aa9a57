// Package adapter provides the database adapter contract for the leishu
// corpus store.
//
// Concrete adapter implementations are in pkg/adapters/ subdirectories and
// register themselves from init().
package adapter

import (
	"context"
	"database/sql"

	"github.com/leapstack-labs/leishu/pkg/core"
	"github.com/leapstack-labs/leishu/pkg/dialect"
)

// Config is an alias for core.AdapterConfig.
type Config = core.AdapterConfig

// Adapter defines the interface that all corpus store adapters implement.
type Adapter interface {
	// Connect establishes a connection pool using the provided config.
	Connect(ctx context.Context, cfg Config) error

	// Close closes the pool and releases resources.
	Close() error

	// Exec executes a statement that doesn't return rows.
	Exec(ctx context.Context, sql string, args ...any) error

	// Acquire checks a single connection out of the pool. The returned
	// session must be closed on every path.
	Acquire(ctx context.Context) (core.Session, error)

	// Database returns the underlying pool, e.g. for migrations.
	Database() *sql.DB

	// Dialect returns the SQL dialect used to render queries for this store.
	Dialect() *dialect.Dialect
}
