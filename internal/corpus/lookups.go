package corpus

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/leapstack-labs/leishu/pkg/core"
)

// Authors returns up to n authors linked to a document in link order.
func (r *Repository) Authors(ctx context.Context, q core.Querier, docID int64, n int) ([]core.Author, error) {
	const stmt = "SELECT a.author_id, a.author_name, a.author_org FROM document_author_links dal " +
		"INNER JOIN authors a ON a.author_id = dal.author_id WHERE dal.doc_id = ? ORDER BY dal.da_id"

	var authors []core.Author
	err := r.query(ctx, q, stmt+limit(n), []any{docID}, func(rows *sql.Rows) error {
		var (
			a   core.Author
			org sql.NullString
		)
		if err := rows.Scan(&a.ID, &a.Name, &org); err != nil {
			return err
		}
		a.Org = org.String
		authors = append(authors, a)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load authors of document %d: %w", docID, err)
	}
	return authors, nil
}

// TitleNames returns up to n title names of a document in tree order.
func (r *Repository) TitleNames(ctx context.Context, q core.Querier, docID int64, n int) ([]string, error) {
	const stmt = "SELECT t.title_name FROM titles t WHERE t.doc_id = ? ORDER BY t.title_order, t.title_id"

	var names []string
	err := r.query(ctx, q, stmt+limit(n), []any{docID}, func(rows *sql.Rows) error {
		var name string
		if err := rows.Scan(&name); err != nil {
			return err
		}
		names = append(names, name)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load titles of document %d: %w", docID, err)
	}
	return names, nil
}

// Titles returns every title of a document ordered by sibling order.
func (r *Repository) Titles(ctx context.Context, q core.Querier, docID int64) ([]core.Title, error) {
	const stmt = "SELECT t.title_id, t.title_name, t.title_level, t.parent_id, t.title_order, t.doc_id " +
		"FROM titles t WHERE t.doc_id = ? ORDER BY t.title_order, t.title_id"

	var titles []core.Title
	err := r.query(ctx, q, stmt, []any{docID}, func(rows *sql.Rows) error {
		var (
			t      core.Title
			level  sql.NullString
			parent sql.NullInt64
		)
		if err := rows.Scan(&t.ID, &t.Name, &level, &parent, &t.Order, &t.DocID); err != nil {
			return err
		}
		t.Level = core.TitleLevel(level.String)
		t.ParentID = parent.Int64
		titles = append(titles, t)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load title tree of document %d: %w", docID, err)
	}
	return titles, nil
}

const segmentColumns = "f.full_text_id, f.full_text, f.full_text_order, f.title_id, f.text_type, " +
	"f.related_id, f.doc_id, f.page_number, f.page_type"

func scanSegment(s interface{ Scan(...any) error }, seg *core.TextSegment, extra ...any) error {
	var (
		title, related sql.NullInt64
		textType, side sql.NullString
	)
	dest := append([]any{&seg.ID, &seg.Text, &seg.Order, &title, &textType, &related, &seg.DocID, &seg.PageNumber, &side}, extra...)
	if err := s.Scan(dest...); err != nil {
		return err
	}
	seg.TitleID = title.Int64
	seg.RelatedID = related.Int64
	seg.Type = core.TextType(textType.String)
	seg.PageSide = core.PageSide(side.String)
	return nil
}

// FirstSegmentOfTitle returns the earliest non-empty segment owned directly
// by a title.
func (r *Repository) FirstSegmentOfTitle(ctx context.Context, q core.Querier, titleID int64) (core.TextSegment, bool, error) {
	stmt := "SELECT " + segmentColumns + " FROM full_text_1 f " +
		"WHERE f.title_id = ? AND f.full_text <> '' ORDER BY f.full_text_order, f.full_text_id LIMIT 1"
	return r.firstSegment(ctx, q, stmt, titleID)
}

// FirstSegmentOfDocument returns the earliest non-empty segment of a document.
func (r *Repository) FirstSegmentOfDocument(ctx context.Context, q core.Querier, docID int64) (core.TextSegment, bool, error) {
	stmt := "SELECT " + segmentColumns + " FROM full_text_1 f " +
		"WHERE f.doc_id = ? AND f.full_text <> '' ORDER BY f.full_text_order, f.full_text_id LIMIT 1"
	return r.firstSegment(ctx, q, stmt, docID)
}

func (r *Repository) firstSegment(ctx context.Context, q core.Querier, stmt string, id int64) (core.TextSegment, bool, error) {
	stmt = r.d.Rebind(stmt)
	var seg core.TextSegment
	err := scanSegment(q.QueryRowContext(ctx, stmt, id), &seg)
	if errors.Is(err, sql.ErrNoRows) {
		return core.TextSegment{}, false, nil
	}
	if err != nil {
		return core.TextSegment{}, false, &QueryError{SQL: stmt, Args: []any{id}, Err: err}
	}
	return seg, true, nil
}

// PageID resolves the page holding a (document, page number, side) position.
func (r *Repository) PageID(ctx context.Context, q core.Querier, docID, number int64, side core.PageSide) (int64, bool, error) {
	if side == "" {
		return 0, false, nil
	}
	const stmt = "SELECT pg.page_id FROM pages pg WHERE pg.doc_id = ? AND pg.page_number = ? AND pg.page_type = ? " +
		"ORDER BY pg.page_id LIMIT 1"

	var id int64
	found, err := r.queryRow(ctx, q, stmt, []any{docID, number, string(side)}, &id)
	if err != nil {
		return 0, false, fmt.Errorf("failed to resolve page of document %d: %w", docID, err)
	}
	return id, found, nil
}

// Document loads the metadata row of a document.
func (r *Repository) Document(ctx context.Context, q core.Querier, docID int64) (core.Document, bool, error) {
	const stmt = "SELECT d.doc_id, d.doc_title, d.category_type, d.doc_specific_category, d.doc_style, d.doc_theme, " +
		"d.dynasty, d.compilation_time, d.printing_time, d.publication_time, d.doc_type, d.doc_origin_id " +
		"FROM documents d WHERE d.doc_id = ?"

	var (
		doc                                      core.Document
		category, specific, style, theme, dyn    sql.NullString
		compiled, printed, published, originList sql.NullString
		primary                                  sql.NullBool
	)
	found, err := r.queryRow(ctx, q, stmt, []any{docID},
		&doc.ID, &doc.Title, &category, &specific, &style, &theme,
		&dyn, &compiled, &printed, &published, &primary, &originList)
	if err != nil {
		return core.Document{}, false, fmt.Errorf("failed to load document %d: %w", docID, err)
	}
	if !found {
		return core.Document{}, false, nil
	}

	doc.CategoryType = category.String
	doc.SpecificCategory = specific.String
	doc.Style = style.String
	doc.Theme = theme.String
	doc.Dynasty = dyn.String
	doc.CompilationTime = compiled.String
	doc.PrintingTime = printed.String
	doc.PublicationTime = published.String
	doc.Primary = !primary.Valid || primary.Bool
	doc.Origins, err = ParseIDList(originList.String)
	if err != nil {
		return core.Document{}, false, fmt.Errorf("failed to parse origins of document %d: %w", docID, err)
	}
	return doc, true, nil
}

// ParseIDList parses a comma-separated list of ids such as a page manifest.
// Blank entries are skipped.
func ParseIDList(s string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid id %q: %w", part, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
