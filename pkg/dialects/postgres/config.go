// Package postgres provides the PostgreSQL SQL dialect definition.
// This package is pure Go with no database driver dependencies.
package postgres

import "github.com/leapstack-labs/leishu/pkg/core"

// Config is the PostgreSQL dialect configuration.
// Full-text predicates are emulated with strpos().
var Config = &core.DialectConfig{
	Name:        "postgres",
	Placeholder: core.PlaceholderDollar,
	Identifiers: core.IdentifierConfig{
		Quote:    `"`,
		QuoteEnd: `"`,
		Escape:   `""`,
	},
	FullText:      core.FullTextSubstring,
	SubstringFunc: "strpos",
}
