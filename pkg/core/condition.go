package core

import (
	"fmt"
	"strings"
)

// MatchMode selects boolean or natural-language full-text matching.
type MatchMode int

const (
	// MatchExact compiles keywords to required/excluded boolean terms.
	MatchExact MatchMode = iota
	// MatchFuzzy compiles keywords to a natural-language predicate.
	MatchFuzzy
)

// String returns the canonical name of the mode.
func (m MatchMode) String() string {
	if m == MatchFuzzy {
		return "fuzzy"
	}
	return "exact"
}

// ParseMatchMode accepts "exact"/"fuzzy" and the legacy 精确/模糊 labels.
// An empty string means exact.
func ParseMatchMode(s string) (MatchMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "exact", "精确":
		return MatchExact, nil
	case "fuzzy", "模糊":
		return MatchFuzzy, nil
	default:
		return MatchExact, fmt.Errorf("unknown match mode %q", s)
	}
}

// Logic joins a condition to its predecessor.
type Logic int

const (
	// LogicNone is used for the first condition.
	LogicNone Logic = iota
	// LogicAnd extends the current AND-block.
	LogicAnd
	// LogicOr starts a new AND-block.
	LogicOr
)

// String returns the SQL keyword for l, or "" for LogicNone.
func (l Logic) String() string {
	switch l {
	case LogicAnd:
		return "AND"
	case LogicOr:
		return "OR"
	default:
		return ""
	}
}

// ParseLogic accepts "", "AND" and "OR" in any case.
func ParseLogic(s string) (Logic, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "":
		return LogicNone, nil
	case "AND":
		return LogicAnd, nil
	case "OR":
		return LogicOr, nil
	default:
		return LogicNone, fmt.Errorf("unknown logic operator %q", s)
	}
}

// Condition is one search clause of a request.
// The Logic of the first condition in a list is ignored.
type Condition struct {
	Field   Field
	Keyword string
	Logic   Logic
	Mode    MatchMode
}

// Filter is an exact-match scoping constraint on a tag field.
type Filter struct {
	Field Field
	Value string
}

// Query is a validated search request.
type Query struct {
	Conditions []Condition
	Filters    []Filter
}

// HasWildcard reports whether any condition targets all fields.
func (q Query) HasWildcard() bool {
	for _, c := range q.Conditions {
		if c.Field == FieldAll {
			return true
		}
	}
	return false
}
