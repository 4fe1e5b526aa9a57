// Package keyword normalizes user keyword strings and parses them into
// boolean term groups.
//
// A keyword is a whitespace separated list of terms with optional AND, OR
// and NOT operators (case-insensitive). OR splits the keyword into groups
// that are combined disjunctively. Inside a group every term is required
// unless the token immediately before it is NOT. AND is accepted but has no
// effect since terms within a group are already conjunctive.
//
//	永乐 NOT 大典 OR 类书   =>   (+永乐 -大典) OR (+类书)
//
// Nested grouping is not supported: parentheses are removed before parsing.
package keyword

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/width"
)

var (
	operatorPattern   = regexp.MustCompile(`(?i)\b(AND|OR|NOT)\b`)
	whitespacePattern = regexp.MustCompile(`[\s\p{Zs}]+`)
)

// Characters that carry meaning in MySQL boolean mode. They are stripped so
// that a user term is always matched literally.
const booleanOperators = `+-<>~*"@`

// Normalize canonicalizes a raw keyword string: full-width forms are folded to
// their ASCII equivalents, the ideographic full stop becomes a separator,
// parentheses and boolean-mode operator characters are removed, operators are
// padded with spaces, and runs of whitespace collapse to one space.
func Normalize(raw string) string {
	s := width.Fold.String(raw)
	s = strings.ReplaceAll(s, "。", " ")
	s = strings.Map(func(r rune) rune {
		if r == '(' || r == ')' {
			return -1
		}
		if strings.ContainsRune(booleanOperators, r) {
			return ' '
		}
		return r
	}, s)
	s = operatorPattern.ReplaceAllString(s, " $1 ")
	s = whitespacePattern.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Term is one keyword term with its polarity.
type Term struct {
	Text     string
	Excluded bool
}

// String renders the term in boolean-mode syntax.
func (t Term) String() string {
	if t.Excluded {
		return "-" + t.Text
	}
	return "+" + t.Text
}

// Group is a conjunction of terms.
type Group []Term

// Boolean renders the group as a boolean-mode search string, e.g. "+a -b".
func (g Group) Boolean() string {
	parts := make([]string, len(g))
	for i, t := range g {
		parts[i] = t.String()
	}
	return strings.Join(parts, " ")
}

// Natural renders the group as a natural-language search string.
// Excluded terms are dropped because natural-language matching has no
// exclusion operator.
func (g Group) Natural() string {
	return strings.Join(g.Required(), " ")
}

// Required returns the text of the non-excluded terms in order.
func (g Group) Required() []string {
	var out []string
	for _, t := range g {
		if !t.Excluded {
			out = append(out, t.Text)
		}
	}
	return out
}

// Excluded returns the text of the excluded terms in order.
func (g Group) Excluded() []string {
	var out []string
	for _, t := range g {
		if t.Excluded {
			out = append(out, t.Text)
		}
	}
	return out
}

// Expression is a disjunction of term groups.
type Expression struct {
	Groups []Group
}

// Empty reports whether the expression has no terms at all. An empty
// expression compiles to a predicate that matches nothing.
func (e Expression) Empty() bool {
	return len(e.Groups) == 0
}

// Required returns the non-excluded term texts of every group, in order.
func (e Expression) Required() []string {
	var out []string
	for _, g := range e.Groups {
		out = append(out, g.Required()...)
	}
	return out
}

// String renders the expression for logs and explain output.
func (e Expression) String() string {
	if e.Empty() {
		return "()"
	}
	parts := make([]string, len(e.Groups))
	for i, g := range e.Groups {
		parts[i] = "(" + g.Boolean() + ")"
	}
	return strings.Join(parts, " OR ")
}

// Parse normalizes raw and parses it into an Expression.
// Groups left without terms (stray operators, pure punctuation) are dropped.
func Parse(raw string) Expression {
	var (
		expr    Expression
		current Group
		negate  bool
	)
	flush := func() {
		if len(current) > 0 {
			expr.Groups = append(expr.Groups, current)
		}
		current = nil
		negate = false
	}

	for _, tok := range strings.Fields(Normalize(raw)) {
		switch strings.ToUpper(tok) {
		case "OR":
			flush()
		case "AND":
			negate = false
		case "NOT":
			negate = true
		default:
			if !hasWordRune(tok) {
				negate = false
				continue
			}
			current = append(current, Term{Text: tok, Excluded: negate})
			negate = false
		}
	}
	flush()
	return expr
}

// Fragments splits a passage into its clause fragments on the ideographic
// full stop, dropping empty fragments and ideographic spaces.
func Fragments(text string) []string {
	var out []string
	for _, frag := range strings.Split(text, "。") {
		frag = strings.TrimSpace(strings.ReplaceAll(frag, "　", ""))
		if frag != "" {
			out = append(out, frag)
		}
	}
	return out
}

// RequiredAll renders fragments as a boolean-mode string requiring every one.
func RequiredAll(fragments []string) string {
	g := make(Group, len(fragments))
	for i, f := range fragments {
		g[i] = Term{Text: f}
	}
	return g.Boolean()
}

func hasWordRune(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			return true
		}
	}
	return false
}
