// Package mysql provides the MySQL SQL dialect definition.
// This package is pure Go with no database driver dependencies.
package mysql

import "github.com/leapstack-labs/leishu/pkg/core"

// Config is the MySQL dialect configuration.
// MySQL has native FULLTEXT indexes queried with MATCH ... AGAINST.
var Config = &core.DialectConfig{
	Name:        "mysql",
	Placeholder: core.PlaceholderQuestion,
	Identifiers: core.IdentifierConfig{
		Quote:    "`",
		QuoteEnd: "`",
		Escape:   "``",
	},
	FullText: core.FullTextNative,
}
