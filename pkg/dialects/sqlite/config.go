// Package sqlite provides the SQLite SQL dialect definition.
// This package is pure Go with no database driver dependencies.
package sqlite

import "github.com/leapstack-labs/leishu/pkg/core"

// Config is the SQLite dialect configuration.
// Full-text predicates are emulated with instr().
var Config = &core.DialectConfig{
	Name:        "sqlite",
	Placeholder: core.PlaceholderQuestion,
	Identifiers: core.IdentifierConfig{
		Quote:    `"`,
		QuoteEnd: `"`,
		Escape:   `""`,
	},
	FullText:      core.FullTextSubstring,
	SubstringFunc: "instr",
}
