package duckdb

import (
	"github.com/leapstack-labs/leishu/pkg/dialect"
)

func init() {
	dialect.Register(DuckDB)
}

// DuckDB is the duckdb dialect.
var DuckDB = dialect.New(Config).Build()
