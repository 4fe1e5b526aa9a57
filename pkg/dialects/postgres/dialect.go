package postgres

import (
	"github.com/leapstack-labs/leishu/pkg/dialect"
)

func init() {
	dialect.Register(Postgres)
}

// Postgres is the postgres dialect.
var Postgres = dialect.New(Config).Build()
