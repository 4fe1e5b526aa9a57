// Package mysql provides the MySQL corpus store adapter. MySQL is the
// production store: its FULLTEXT indexes back native MATCH ... AGAINST
// predicates.
package mysql

import (
	"context"
	"log/slog"
	"net"
	"strconv"

	driver "github.com/go-sql-driver/mysql"

	"github.com/leapstack-labs/leishu/pkg/adapter"
	"github.com/leapstack-labs/leishu/pkg/dialect"
	mysqldialect "github.com/leapstack-labs/leishu/pkg/dialects/mysql"
)

// Adapter implements the adapter.Adapter interface for MySQL.
type Adapter struct {
	adapter.BaseSQLAdapter
}

// New creates a new MySQL adapter instance.
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
	return "mysql"
}

// Dialect returns the MySQL dialect.
func (a *Adapter) Dialect() *dialect.Dialect {
	return mysqldialect.MySQL
}

// Connect establishes a connection pool to MySQL.
func (a *Adapter) Connect(ctx context.Context, cfg adapter.Config) error {
	a.Logger.Debug("connecting to mysql", slog.String("host", cfg.Host), slog.String("database", cfg.Database))
	return a.OpenPool(ctx, "mysql", buildMySQLDSN(cfg), cfg)
}

// buildMySQLDSN constructs a go-sql-driver DSN. The corpus is CJK text, so
// the connection charset defaults to utf8mb4.
func buildMySQLDSN(cfg adapter.Config) string {
	host := cfg.Host
	if host == "" {
		host = "127.0.0.1"
	}
	port := cfg.Port
	if port == 0 {
		port = 3306
	}

	dc := driver.NewConfig()
	dc.User = cfg.Username
	dc.Passwd = cfg.Password
	dc.Net = "tcp"
	dc.Addr = net.JoinHostPort(host, strconv.Itoa(port))
	dc.DBName = cfg.Database
	dc.Params = map[string]string{"charset": "utf8mb4"}

	for k, v := range cfg.Options {
		switch k {
		case "tls":
			dc.TLSConfig = v
		default:
			dc.Params[k] = v
		}
	}

	return dc.FormatDSN()
}

// Ensure Adapter implements adapter.Adapter interface
var _ adapter.Adapter = (*Adapter)(nil)
