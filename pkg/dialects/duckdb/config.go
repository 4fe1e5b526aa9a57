// Package duckdb provides the DuckDB SQL dialect definition.
// This package is pure Go with no database driver dependencies.
package duckdb

import "github.com/leapstack-labs/leishu/pkg/core"

// Config is the DuckDB dialect configuration.
// Full-text predicates are emulated with instr().
var Config = &core.DialectConfig{
	Name:        "duckdb",
	Placeholder: core.PlaceholderQuestion,
	Identifiers: core.IdentifierConfig{
		Quote:    `"`,
		QuoteEnd: `"`,
		Escape:   `""`,
	},
	FullText:      core.FullTextSubstring,
	SubstringFunc: "instr",
}
