// Package corpus reads the normalized text corpus: documents, authors,
// titles, text segments and pages.
//
// Every method takes the core.Querier to run on, so a caller can keep all
// lookups of one request on a single checked-out session. SQL is written
// with ? placeholders and rebound for the repository's dialect.
package corpus

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/leapstack-labs/leishu/pkg/core"
	"github.com/leapstack-labs/leishu/pkg/dialect"
	"github.com/leapstack-labs/leishu/pkg/plan"
)

// QueryError wraps a store failure with the statement that caused it.
type QueryError struct {
	SQL  string
	Args []any
	Err  error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("query failed: %v", e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }

// Repository runs corpus queries in one dialect.
type Repository struct {
	d *dialect.Dialect
}

// New creates a repository rendering SQL for d.
func New(d *dialect.Dialect) *Repository {
	return &Repository{d: d}
}

// Dialect returns the dialect queries are rendered in.
func (r *Repository) Dialect() *dialect.Dialect {
	return r.d
}

// Search renders p, runs it and scans the projection into results in the
// order the store returned them.
func (r *Repository) Search(ctx context.Context, q core.Querier, p *plan.Plan) ([]core.Result, error) {
	rendered := p.Render(r.d)
	rows, err := q.QueryContext(ctx, rendered.SQL, rendered.Args...)
	if err != nil {
		return nil, &QueryError{SQL: rendered.SQL, Args: rendered.Args, Err: err}
	}
	defer func() { _ = rows.Close() }()

	cols := p.Projection()
	var results []core.Result
	for rows.Next() {
		var (
			res          core.Result
			segmentTitle core.Optional[int64]
		)
		dest := make([]any, len(cols))
		for i, c := range cols {
			dest[i] = resultTarget(&res, &segmentTitle, c.Name)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, &QueryError{SQL: rendered.SQL, Args: rendered.Args, Err: err}
		}
		if !res.TitleID.IsSet() {
			res.TitleID = segmentTitle
		}
		results = append(results, res)
	}
	if err := rows.Err(); err != nil {
		return nil, &QueryError{SQL: rendered.SQL, Args: rendered.Args, Err: err}
	}
	return results, nil
}

func resultTarget(res *core.Result, segmentTitle *core.Optional[int64], name string) any {
	switch name {
	case "doc_id":
		return &res.DocID
	case "doc_title":
		return into(&res.DocTitle)
	case "dynasty":
		return into(&res.Dynasty)
	case "category_type":
		return into(&res.CategoryType)
	case "doc_specific_category":
		return into(&res.SpecificCategory)
	case "doc_style":
		return into(&res.Style)
	case "doc_theme":
		return into(&res.Theme)
	case "compilation_time":
		return into(&res.CompilationTime)
	case "author_name":
		return into(&res.AuthorName)
	case "author_org":
		return into(&res.AuthorOrg)
	case "title_id":
		return into(&res.TitleID)
	case "segment_title_id":
		return into(segmentTitle)
	case "title_name":
		return into(&res.TitleName)
	case "full_text_id":
		return into(&res.FullTextID)
	case "full_text":
		return into(&res.FullText)
	case "page_number":
		return into(&res.PageNumber)
	case "page_type":
		return into(&res.PageSide)
	case "page_id":
		return into(&res.PageID)
	default:
		return new(any)
	}
}

// nullable scans a possibly NULL column into a core.Optional.
type nullable[T any] struct {
	dst *core.Optional[T]
}

func (n nullable[T]) Scan(src any) error {
	var v sql.Null[T]
	if err := v.Scan(src); err != nil {
		return err
	}
	if v.Valid {
		*n.dst = core.Some(v.V)
	} else {
		*n.dst = core.None[T]()
	}
	return nil
}

func into[T any](dst *core.Optional[T]) sql.Scanner {
	return nullable[T]{dst: dst}
}

// queryRow runs a single-row query. A missing row reports found=false.
func (r *Repository) queryRow(ctx context.Context, q core.Querier, query string, args []any, dest ...any) (bool, error) {
	query = r.d.Rebind(query)
	err := q.QueryRowContext(ctx, query, args...).Scan(dest...)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, &QueryError{SQL: query, Args: args, Err: err}
	}
	return true, nil
}

// query runs a multi-row query and calls scan for each row.
func (r *Repository) query(ctx context.Context, q core.Querier, query string, args []any, scan func(*sql.Rows) error) error {
	query = r.d.Rebind(query)
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return &QueryError{SQL: query, Args: args, Err: err}
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		if err := scan(rows); err != nil {
			return &QueryError{SQL: query, Args: args, Err: err}
		}
	}
	if err := rows.Err(); err != nil {
		return &QueryError{SQL: query, Args: args, Err: err}
	}
	return nil
}

func limit(n int) string {
	return " LIMIT " + strconv.Itoa(n)
}
