package plan

import (
	"strconv"
	"strings"

	"github.com/leapstack-labs/leishu/pkg/core"
	"github.com/leapstack-labs/leishu/pkg/dialect"
)

// Query is rendered SQL with its bound arguments.
type Query struct {
	SQL  string
	Args []any
}

// ProjectedColumn is one column of the search projection.
type ProjectedColumn struct {
	Expr string
	Name string
}

var baseColumns = []ProjectedColumn{
	{"d.doc_id", "doc_id"},
	{"d.doc_title", "doc_title"},
	{"d.dynasty", "dynasty"},
	{"d.category_type", "category_type"},
	{"d.doc_specific_category", "doc_specific_category"},
	{"d.doc_style", "doc_style"},
	{"d.doc_theme", "doc_theme"},
	{"d.compilation_time", "compilation_time"},
}

var joinColumns = map[JoinKind][]ProjectedColumn{
	JoinTitle: {
		{"t.title_id", "title_id"},
		{"t.title_name", "title_name"},
	},
	JoinSegment: {
		{"f.full_text_id", "full_text_id"},
		{"f.title_id", "segment_title_id"},
		{"f.full_text", "full_text"},
		{"f.page_number", "page_number"},
		{"f.page_type", "page_type"},
		{"pg.page_id", "page_id"},
	},
}

// joinClauses are outer joins: a document without authors or titles can
// still match through another condition of an OR.
var joinClauses = map[JoinKind]string{
	JoinAuthor: "LEFT JOIN document_author_links dal ON dal.doc_id = d.doc_id " +
		"LEFT JOIN authors a ON a.author_id = dal.author_id",
	JoinTitle:   "LEFT JOIN titles t ON t.doc_id = d.doc_id",
	JoinSegment: "LEFT JOIN full_text_1 f ON f.doc_id = d.doc_id",
}

const pageJoin = "LEFT JOIN pages pg ON pg.doc_id = f.doc_id AND pg.page_number = f.page_number AND pg.page_type = f.page_type"

// Projection returns the selected columns in order: document columns first,
// then the anchor columns of the title and segment joins. Author columns are
// never projected; enrichment loads them per document.
func (p *Plan) Projection() []ProjectedColumn {
	cols := append([]ProjectedColumn(nil), baseColumns...)
	for _, j := range p.Joins {
		cols = append(cols, joinColumns[j]...)
	}
	return cols
}

// Render produces the SQL for p in dialect d. Every matching document yields
// exactly one row. A plan without joins filters documents directly. A plan
// with joins matches inside a derived table grouped by document that keeps
// one anchor per document: the lowest matching segment when segments are
// joined, otherwise the lowest matching title. The outer query loads the
// anchor's columns.
func (p *Plan) Render(d *dialect.Dialect) Query {
	r := &renderer{d: d}
	where := r.render(p.Where, ctxTop)

	var b strings.Builder
	b.WriteString("SELECT ")
	writeColumns(&b, p.Projection())

	if len(p.Joins) == 0 {
		b.WriteString(" FROM documents d WHERE ")
		b.WriteString(where)
		b.WriteString(" LIMIT ")
		b.WriteString(strconv.Itoa(p.Limit))
		return Query{SQL: d.Rebind(b.String()), Args: r.args}
	}

	segment, title := p.Has(JoinSegment), p.Has(JoinTitle)

	b.WriteString(" FROM (SELECT d.doc_id")
	switch {
	case segment:
		b.WriteString(", MIN(f.full_text_id) AS full_text_id")
	case title:
		b.WriteString(", MIN(t.title_id) AS title_id")
	}
	b.WriteString(" FROM documents d")
	for _, j := range p.Joins {
		b.WriteString(" ")
		b.WriteString(joinClauses[j])
	}
	b.WriteString(" WHERE ")
	b.WriteString(where)
	b.WriteString(" GROUP BY d.doc_id LIMIT ")
	b.WriteString(strconv.Itoa(p.Limit))
	b.WriteString(") m INNER JOIN documents d ON d.doc_id = m.doc_id")

	switch {
	case segment:
		b.WriteString(" LEFT JOIN full_text_1 f ON f.full_text_id = m.full_text_id ")
		b.WriteString(pageJoin)
		if title {
			b.WriteString(" LEFT JOIN titles t ON t.title_id = f.title_id")
		}
	case title:
		b.WriteString(" LEFT JOIN titles t ON t.title_id = m.title_id")
	}

	return Query{SQL: d.Rebind(b.String()), Args: r.args}
}

func writeColumns(b *strings.Builder, cols []ProjectedColumn) {
	for i, c := range cols {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(c.Expr)
		if !strings.HasSuffix(c.Expr, "."+c.Name) {
			b.WriteString(" AS ")
			b.WriteString(c.Name)
		}
	}
}

// RenderPredicate renders a standalone predicate with ? placeholders
// rebound for d. It is used for explain output and tests.
func RenderPredicate(pred Predicate, d *dialect.Dialect) Query {
	r := &renderer{d: d}
	s := r.render(pred, ctxTop)
	return Query{SQL: d.Rebind(s), Args: r.args}
}

type renderCtx int

const (
	ctxTop renderCtx = iota
	ctxAnd
	ctxOr
)

// raw is a rendered fragment produced while lowering Match predicates.
type raw struct {
	sql  string
	args []any
}

func (raw) predicate() {}

type renderer struct {
	d    *dialect.Dialect
	args []any
}

func (r *renderer) render(pred Predicate, ctx renderCtx) string {
	switch p := pred.(type) {
	case And:
		return r.compound(p, " AND ", "1 = 1", ctxAnd, ctx)
	case Or:
		return r.compound(p, " OR ", "1 = 0", ctxOr, ctx)
	case Match:
		return r.render(r.lower(p), ctx)
	case Equals:
		r.args = append(r.args, p.Value)
		return p.Column + " = ?"
	case ColumnsEqual:
		return p.Left + " = " + p.Right
	case True:
		return "1 = 1"
	case raw:
		r.args = append(r.args, p.args...)
		return p.sql
	default:
		return "1 = 0"
	}
}

// compound renders an And or Or. A single child collapses into the outer
// context; several children are parenthesized when nested under the other
// operator.
func (r *renderer) compound(children []Predicate, sep, empty string, self, outer renderCtx) string {
	kept := make([]Predicate, 0, len(children))
	for _, c := range children {
		if _, ok := c.(True); ok && self == ctxAnd {
			continue
		}
		kept = append(kept, c)
	}
	switch len(kept) {
	case 0:
		return empty
	case 1:
		return r.render(kept[0], outer)
	}

	parts := make([]string, len(kept))
	for i, c := range kept {
		parts[i] = r.render(c, self)
	}
	s := strings.Join(parts, sep)
	if outer != ctxTop && outer != self {
		return "(" + s + ")"
	}
	return s
}

// lower expands a Match into dialect-specific fragments.
func (r *renderer) lower(m Match) Predicate {
	if r.d.NativeFullText() {
		return r.lowerNative(m)
	}
	return r.lowerSubstring(m)
}

func (r *renderer) lowerNative(m Match) Predicate {
	mode := "IN BOOLEAN MODE"
	if m.Mode == core.MatchFuzzy {
		mode = "IN NATURAL LANGUAGE MODE"
	}
	sql := "MATCH(" + m.Column + ") AGAINST(? " + mode + ")"

	if m.Expr.Empty() {
		return raw{sql: sql, args: []any{""}}
	}
	var or Or
	for _, g := range m.Expr.Groups {
		text := g.Boolean()
		if m.Mode == core.MatchFuzzy {
			text = g.Natural()
		}
		or = append(or, raw{sql: sql, args: []any{text}})
	}
	return or
}

func (r *renderer) lowerSubstring(m Match) Predicate {
	never := raw{sql: "1 = 0"}
	if m.Expr.Empty() {
		return never
	}
	var or Or
	for _, g := range m.Expr.Groups {
		required := g.Required()
		if len(required) == 0 {
			or = append(or, never)
			continue
		}
		if m.Mode == core.MatchFuzzy {
			var either Or
			for _, t := range required {
				either = append(either, raw{sql: r.d.Contains(m.Column, "?"), args: []any{t}})
			}
			or = append(or, either)
			continue
		}
		var all And
		for _, t := range required {
			all = append(all, raw{sql: r.d.Contains(m.Column, "?"), args: []any{t}})
		}
		for _, t := range g.Excluded() {
			all = append(all, raw{sql: r.d.NotContains(m.Column, "?"), args: []any{t}})
		}
		or = append(or, all)
	}
	return or
}
