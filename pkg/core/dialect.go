package core

// PlaceholderStyle defines how query parameters are formatted.
type PlaceholderStyle int

const (
	// PlaceholderQuestion uses ? for all parameters (MySQL, DuckDB, SQLite).
	PlaceholderQuestion PlaceholderStyle = iota
	// PlaceholderDollar uses $1, $2, etc. for parameters (PostgreSQL).
	PlaceholderDollar
)

// FullTextStyle defines how a dialect evaluates full-text predicates.
type FullTextStyle int

const (
	// FullTextNative uses MATCH(...) AGAINST(...) with boolean and
	// natural-language modes.
	FullTextNative FullTextStyle = iota
	// FullTextSubstring emulates term matching with a substring function.
	FullTextSubstring
)

// IdentifierConfig defines how identifiers are quoted.
type IdentifierConfig struct {
	Quote    string // Opening quote character
	QuoteEnd string // Closing quote character
	Escape   string // Escape sequence for a closing quote inside a name
}

// DialectConfig is the pure-data description of a SQL dialect.
// It is shared by adapters and the query renderer.
type DialectConfig struct {
	Name        string
	Placeholder PlaceholderStyle
	Identifiers IdentifierConfig

	// FullText selects native MATCH ... AGAINST or substring emulation.
	FullText FullTextStyle
	// SubstringFunc is the position function used by emulation,
	// called as fn(haystack, needle) and returning 0 when absent.
	SubstringFunc string
}
