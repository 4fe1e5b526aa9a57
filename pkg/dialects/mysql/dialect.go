package mysql

import (
	"github.com/leapstack-labs/leishu/pkg/dialect"
)

func init() {
	dialect.Register(MySQL)
}

// MySQL is the mysql dialect.
var MySQL = dialect.New(Config).Build()
