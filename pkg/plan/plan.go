package plan

import (
	"errors"
	"strings"

	"github.com/leapstack-labs/leishu/pkg/core"
	"github.com/leapstack-labs/leishu/pkg/keyword"
)

// DefaultLimit caps the rows of a direct search.
const DefaultLimit = 100

// ErrWildcard is returned by Build for queries that target all fields.
// Those queries are answered by a fan-out of two narrower plans instead.
var ErrWildcard = errors.New("all_fields query must be fanned out")

// JoinKind identifies a relation joined onto the base documents table.
type JoinKind int

const (
	// JoinAuthor joins document_author_links and authors.
	JoinAuthor JoinKind = iota + 1
	// JoinTitle joins titles.
	JoinTitle
	// JoinSegment joins full_text_1.
	JoinSegment
)

// String returns the name of the join.
func (k JoinKind) String() string {
	switch k {
	case JoinAuthor:
		return "author"
	case JoinTitle:
		return "title"
	case JoinSegment:
		return "segment"
	default:
		return "unknown"
	}
}

// joinFor maps searchable fields to the join they require. Fields on the
// documents table need none.
var joinFor = map[core.Field]JoinKind{
	core.FieldAuthorName: JoinAuthor,
	core.FieldAuthorOrg:  JoinAuthor,
	core.FieldTitleName:  JoinTitle,
	core.FieldFullText:   JoinSegment,
}

var columnFor = map[core.Field]string{
	core.FieldTitle:            "d.doc_title",
	core.FieldAuthorName:       "a.author_name",
	core.FieldAuthorOrg:        "a.author_org",
	core.FieldTitleName:        "t.title_name",
	core.FieldFullText:         "f.full_text",
	core.FieldCategoryType:     "d.category_type",
	core.FieldSpecificCategory: "d.doc_specific_category",
	core.FieldStyle:            "d.doc_style",
	core.FieldDynasty:          "d.dynasty",
	core.FieldTheme:            "d.doc_theme",
}

// Column returns the qualified column a field is matched against.
func Column(f core.Field) (string, bool) {
	c, ok := columnFor[f]
	return c, ok
}

// Options tune plan construction.
type Options struct {
	// Limit caps returned rows. Zero means DefaultLimit.
	Limit int
}

// Plan is a compiled search query.
type Plan struct {
	Joins []JoinKind
	Where Predicate
	Limit int

	// Blocks is the number of AND-blocks that survived compilation.
	Blocks int
	// Dropped holds conditions and filters on unrecognised fields.
	// They take no part in the query.
	Dropped []core.Condition
}

// Has reports whether the plan joins k.
func (p *Plan) Has(k JoinKind) bool {
	for _, j := range p.Joins {
		if j == k {
			return true
		}
	}
	return false
}

// Build compiles q. Queries that contain an all_fields condition return
// ErrWildcard.
func Build(q core.Query, opts Options) (*Plan, error) {
	if q.HasWildcard() {
		return nil, ErrWildcard
	}

	p := &Plan{Limit: opts.Limit}
	if p.Limit <= 0 {
		p.Limit = DefaultLimit
	}
	used := make(map[JoinKind]bool)

	clusters := FieldClusters(q.Conditions)
	var blocks Or
	for i, block := range Group(q.Conditions) {
		var conj And
		for _, c := range block {
			pred, ok := conditionPredicate(c)
			if !ok {
				p.Dropped = append(p.Dropped, c)
				continue
			}
			if j, ok := joinFor[c.Field]; ok {
				used[j] = true
			}
			conj = append(conj, pred)
		}
		if len(conj) == 0 {
			continue
		}
		if needsTitleSegmentLink(clusters[i]) {
			conj = append(conj, ColumnsEqual{Left: "f.title_id", Right: "t.title_id"})
		}
		blocks = append(blocks, conj)
	}
	p.Blocks = len(blocks)

	var where And
	if len(blocks) > 0 {
		where = append(where, blocks)
	}
	for _, f := range q.Filters {
		col, ok := columnFor[f.Field]
		if !ok || f.Field.Kind() != core.KindTag {
			p.Dropped = append(p.Dropped, core.Condition{Field: f.Field, Keyword: f.Value, Logic: core.LogicAnd})
			continue
		}
		where = append(where, Equals{Column: col, Value: strings.TrimSpace(f.Value)})
	}
	if len(where) == 0 {
		p.Where = True{}
	} else {
		p.Where = where
	}

	for _, k := range []JoinKind{JoinAuthor, JoinTitle, JoinSegment} {
		if used[k] {
			p.Joins = append(p.Joins, k)
		}
	}
	return p, nil
}

func conditionPredicate(c core.Condition) (Predicate, bool) {
	col, ok := columnFor[c.Field]
	if !ok {
		return nil, false
	}
	if c.Field.Kind() == core.KindTag {
		return Equals{Column: col, Value: strings.TrimSpace(c.Keyword)}, true
	}
	return Match{Column: col, Expr: keyword.Parse(c.Keyword), Mode: c.Mode}, true
}
