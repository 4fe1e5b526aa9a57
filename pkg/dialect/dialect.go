// Package dialect provides the SQL dialect contract used to render query plans.
//
// A dialect decides placeholder syntax, identifier quoting and how full-text
// predicates are expressed. Concrete dialects are registered from
// pkg/dialects/*/ packages.
package dialect

import (
	"strconv"
	"strings"

	"github.com/leapstack-labs/leishu/pkg/core"
)

// Dialect represents a SQL dialect configuration.
type Dialect struct {
	Name          string
	Identifiers   core.IdentifierConfig
	Placeholder   core.PlaceholderStyle
	FullText      core.FullTextStyle
	SubstringFunc string
}

// Config returns the pure data configuration for this dialect.
func (d *Dialect) Config() *core.DialectConfig {
	return &core.DialectConfig{
		Name:          d.Name,
		Placeholder:   d.Placeholder,
		Identifiers:   d.Identifiers,
		FullText:      d.FullText,
		SubstringFunc: d.SubstringFunc,
	}
}

// GetName returns the dialect name.
func (d *Dialect) GetName() string {
	return d.Name
}

// NativeFullText reports whether the dialect supports MATCH ... AGAINST.
func (d *Dialect) NativeFullText() bool {
	return d.FullText == core.FullTextNative
}

// FormatPlaceholder returns a placeholder for the given parameter index (1-based).
// Returns "?" for PlaceholderQuestion style, "$1", "$2" etc. for PlaceholderDollar style.
func (d *Dialect) FormatPlaceholder(index int) string {
	switch d.Placeholder {
	case core.PlaceholderDollar:
		return "$" + strconv.Itoa(index)
	default: // PlaceholderQuestion
		return "?"
	}
}

// Rebind rewrites the ? placeholders of query into the dialect's style.
// Question marks inside single-quoted literals are left alone.
func (d *Dialect) Rebind(query string) string {
	if d.Placeholder == core.PlaceholderQuestion {
		return query
	}
	var (
		b       strings.Builder
		n       int
		inQuote bool
	)
	b.Grow(len(query) + 8)
	for _, r := range query {
		switch {
		case r == '\'':
			inQuote = !inQuote
			b.WriteRune(r)
		case r == '?' && !inQuote:
			n++
			b.WriteString(d.FormatPlaceholder(n))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// QuoteIdentifier quotes an identifier using the dialect's quote characters.
func (d *Dialect) QuoteIdentifier(name string) string {
	escaped := strings.ReplaceAll(name, d.Identifiers.QuoteEnd, d.Identifiers.Escape)
	return d.Identifiers.Quote + escaped + d.Identifiers.QuoteEnd
}

// Contains renders a predicate that is true when needle occurs in column.
func (d *Dialect) Contains(column, needle string) string {
	return d.SubstringFunc + "(" + column + ", " + needle + ") > 0"
}

// NotContains renders a predicate that is true when needle is absent from column.
func (d *Dialect) NotContains(column, needle string) string {
	return d.SubstringFunc + "(" + column + ", " + needle + ") = 0"
}

// Builder provides a fluent API for constructing dialects.
type Builder struct {
	dialect *Dialect
}

// NewDialect creates a new dialect builder with the given name.
// Defaults: ? placeholders, double-quoted identifiers, native full text.
func NewDialect(name string) *Builder {
	return &Builder{
		dialect: &Dialect{
			Name: name,
			Identifiers: core.IdentifierConfig{
				Quote:    `"`,
				QuoteEnd: `"`,
				Escape:   `""`,
			},
			SubstringFunc: "instr",
		},
	}
}

// New creates a dialect builder from a DialectConfig.
func New(cfg *core.DialectConfig) *Builder {
	return &Builder{
		dialect: &Dialect{
			Name:          cfg.Name,
			Identifiers:   cfg.Identifiers,
			Placeholder:   cfg.Placeholder,
			FullText:      cfg.FullText,
			SubstringFunc: cfg.SubstringFunc,
		},
	}
}

// Identifiers configures identifier quoting.
func (b *Builder) Identifiers(quote, quoteEnd, escape string) *Builder {
	b.dialect.Identifiers = core.IdentifierConfig{
		Quote:    quote,
		QuoteEnd: quoteEnd,
		Escape:   escape,
	}
	return b
}

// PlaceholderStyle sets how query parameters are formatted.
func (b *Builder) PlaceholderStyle(style core.PlaceholderStyle) *Builder {
	b.dialect.Placeholder = style
	return b
}

// SubstringEmulation switches full-text predicates to substring matching
// using fn(haystack, needle).
func (b *Builder) SubstringEmulation(fn string) *Builder {
	b.dialect.FullText = core.FullTextSubstring
	b.dialect.SubstringFunc = fn
	return b
}

// Build returns the constructed dialect.
func (b *Builder) Build() *Dialect {
	return b.dialect
}
