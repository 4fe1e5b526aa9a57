// Package highlight marks matched CJK characters in result text.
//
// There is no tokenizer for classical Chinese, so a keyword is reduced to
// the set of Han characters it contains and every maximal run of those
// characters in a field is wrapped in one marker span.
package highlight

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/leapstack-labs/leishu/pkg/core"
)

// Default marker span.
const (
	DefaultOpen  = `<span class="highlight">`
	DefaultClose = `</span>`
)

// Set is an ordered set of distinct Han characters.
type Set []rune

// Chars returns the distinct Han characters of the given strings in order
// of first appearance.
func Chars(texts ...string) Set {
	var (
		out  Set
		seen = make(map[rune]bool)
	)
	for _, text := range texts {
		for _, r := range text {
			if unicode.Is(unicode.Han, r) && !seen[r] {
				seen[r] = true
				out = append(out, r)
			}
		}
	}
	return out
}

// Union returns the characters of s followed by those of o not in s.
func (s Set) Union(o Set) Set {
	return Chars(string(s), string(o))
}

// Sets maps result fields to the characters highlighted in them.
type Sets map[core.Field]Set

// ForQuery derives highlight sets from a query's conditions. Each text
// field gets the characters of the conditions that target it. When any
// condition targets all fields, the characters of every condition are
// merged and applied to all highlightable fields.
func ForQuery(conds []core.Condition) Sets {
	sets := make(Sets)
	wildcard := false
	for _, c := range conds {
		if c.Field == core.FieldAll {
			wildcard = true
		}
	}
	if wildcard {
		var all Set
		for _, c := range conds {
			all = all.Union(Chars(c.Keyword))
		}
		if len(all) == 0 {
			return sets
		}
		for _, f := range core.HighlightFields {
			sets[f] = all
		}
		return sets
	}

	for _, c := range conds {
		if c.Field.Kind() != core.KindText {
			continue
		}
		chars := Chars(c.Keyword)
		if len(chars) == 0 {
			continue
		}
		sets[c.Field] = sets[c.Field].Union(chars)
	}
	return sets
}

// Highlighter wraps character runs in a marker span.
type Highlighter struct {
	open, close string
	existing    string
}

// New creates a Highlighter using the given marker. Empty strings select
// the default span.
func New(openTag, closeTag string) *Highlighter {
	if openTag == "" || closeTag == "" {
		openTag, closeTag = DefaultOpen, DefaultClose
	}
	return &Highlighter{
		open:     openTag,
		close:    closeTag,
		existing: regexp.QuoteMeta(openTag) + `.*?` + regexp.QuoteMeta(closeTag),
	}
}

// Text wraps each maximal run of characters from set in one marker span.
// Text already inside a marker is copied unchanged, so highlighting twice
// with the same set gives the same output as highlighting once.
func (h *Highlighter) Text(text string, set Set) string {
	if text == "" || len(set) == 0 {
		return text
	}
	re := regexp.MustCompile(`(?s)(` + h.existing + `)|[` + charClass(set) + `]+`)

	var b strings.Builder
	last := 0
	for _, m := range re.FindAllStringSubmatchIndex(text, -1) {
		b.WriteString(text[last:m[0]])
		if m[2] >= 0 {
			b.WriteString(text[m[0]:m[1]])
		} else {
			b.WriteString(h.open)
			b.WriteString(text[m[0]:m[1]])
			b.WriteString(h.close)
		}
		last = m[1]
	}
	b.WriteString(text[last:])
	return b.String()
}

// Result highlights the text fields of r that have a set.
func (h *Highlighter) Result(r *core.Result, sets Sets) {
	for _, f := range core.HighlightFields {
		set, ok := sets[f]
		if !ok {
			continue
		}
		field := r.Text(f)
		if v, ok := field.Get(); ok && v != "" {
			*field = core.Some(h.Text(v, set))
		}
	}
}

func charClass(set Set) string {
	var b strings.Builder
	for _, r := range set {
		b.WriteString(regexp.QuoteMeta(string(r)))
	}
	return b.String()
}
