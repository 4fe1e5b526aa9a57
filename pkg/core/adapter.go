package core

import (
	"context"
	"database/sql"
)

// Querier runs parameterized read queries. *sql.DB, *sql.Conn and *sql.Tx
// all satisfy it.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Session is a Querier bound to one pooled connection.
// Close returns the connection to the pool and must be called on every path.
type Session interface {
	Querier
	Close() error
}

// AdapterConfig holds configuration for connecting to a corpus database.
type AdapterConfig struct {
	Type     string
	Path     string
	Host     string
	Port     int
	Database string
	Username string
	Password string
	Options  map[string]string
	Params   map[string]any
}
