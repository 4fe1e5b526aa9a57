package plan

import (
	"github.com/leapstack-labs/leishu/pkg/core"
	"github.com/leapstack-labs/leishu/pkg/keyword"
)

// Predicate is a node of a WHERE-clause tree.
type Predicate interface {
	predicate()
}

// And is a conjunction. An empty And is true.
type And []Predicate

// Or is a disjunction. An empty Or is false.
type Or []Predicate

// Match is a full-text predicate over one column.
type Match struct {
	Column string
	Expr   keyword.Expression
	Mode   core.MatchMode
}

// Equals is an exact equality test against a bound value.
type Equals struct {
	Column string
	Value  string
}

// ColumnsEqual ties two columns together.
type ColumnsEqual struct {
	Left, Right string
}

// True is the constant true predicate.
type True struct{}

func (And) predicate()          {}
func (Or) predicate()           {}
func (Match) predicate()        {}
func (Equals) predicate()       {}
func (ColumnsEqual) predicate() {}
func (True) predicate()         {}
