package sqlite

import (
	"github.com/leapstack-labs/leishu/pkg/dialect"
)

func init() {
	dialect.Register(SQLite)
}

// SQLite is the sqlite dialect.
var SQLite = dialect.New(Config).Build()
