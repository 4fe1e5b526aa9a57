package corpus

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/leapstack-labs/leishu/pkg/core"
	"github.com/leapstack-labs/leishu/pkg/keyword"
	"github.com/leapstack-labs/leishu/pkg/plan"
)

// Candidate is a segment proposed as a variant of a queried passage.
type Candidate struct {
	SegmentID int64
	Text      string
	Score     float64
}

// SegmentDetail is a segment resolved to its document, title and page.
type SegmentDetail struct {
	Segment   core.TextSegment
	DocTitle  string
	TitleName string
	PageID    core.Optional[int64]
}

// FindSegment returns the first segment containing every fragment.
func (r *Repository) FindSegment(ctx context.Context, q core.Querier, fragments []string) (int64, bool, error) {
	if len(fragments) == 0 {
		return 0, false, nil
	}
	group := make(keyword.Group, len(fragments))
	for i, f := range fragments {
		group[i] = keyword.Term{Text: f}
	}
	pred := plan.Match{
		Column: "f.full_text",
		Expr:   keyword.Expression{Groups: []keyword.Group{group}},
		Mode:   core.MatchExact,
	}
	where := plan.RenderPredicate(pred, r.d)

	stmt := "SELECT f.full_text_id FROM full_text_1 f WHERE " + where.SQL + " ORDER BY f.full_text_id LIMIT 1"
	var id int64
	err := q.QueryRowContext(ctx, stmt, where.Args...).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, &QueryError{SQL: stmt, Args: where.Args, Err: err}
	}
	return id, true, nil
}

// SimilarSegments ranks up to n segments by likeness to text.
//
// Dialects with native full text score with natural-language relevance.
// Other dialects count how many probes each segment contains.
func (r *Repository) SimilarSegments(ctx context.Context, q core.Querier, text string, probes []string, n int) ([]Candidate, error) {
	var (
		stmt string
		args []any
	)
	if r.d.NativeFullText() {
		if strings.TrimSpace(text) == "" {
			return nil, nil
		}
		const match = "MATCH(f.full_text) AGAINST(? IN NATURAL LANGUAGE MODE)"
		stmt = "SELECT f.full_text_id, f.full_text, " + match + " AS score FROM full_text_1 f WHERE " + match +
			" ORDER BY score DESC, f.full_text_id" + limit(n)
		args = []any{text, text}
	} else {
		if len(probes) == 0 {
			return nil, nil
		}
		hits := make([]string, len(probes))
		either := make([]string, len(probes))
		for i := range probes {
			hits[i] = "CASE WHEN " + r.d.Contains("f.full_text", "?") + " THEN 1 ELSE 0 END"
			either[i] = r.d.Contains("f.full_text", "?")
		}
		stmt = "SELECT f.full_text_id, f.full_text, " + strings.Join(hits, " + ") + " AS score FROM full_text_1 f WHERE " +
			strings.Join(either, " OR ") + " ORDER BY score DESC, f.full_text_id" + limit(n)
		for range 2 {
			for _, p := range probes {
				args = append(args, p)
			}
		}
	}

	var out []Candidate
	err := r.query(ctx, q, stmt, args, func(rows *sql.Rows) error {
		var c Candidate
		if err := rows.Scan(&c.SegmentID, &c.Text, &c.Score); err != nil {
			return err
		}
		out = append(out, c)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to rank similar segments: %w", err)
	}
	return out, nil
}

// Segment resolves a segment with its document title, title name and page.
func (r *Repository) Segment(ctx context.Context, q core.Querier, id int64) (SegmentDetail, bool, error) {
	stmt := "SELECT " + segmentColumns + ", d.doc_title, t.title_name, pg.page_id FROM full_text_1 f " +
		"INNER JOIN documents d ON d.doc_id = f.doc_id " +
		"LEFT JOIN titles t ON t.title_id = f.title_id " +
		"LEFT JOIN pages pg ON pg.doc_id = f.doc_id AND pg.page_number = f.page_number AND pg.page_type = f.page_type " +
		"WHERE f.full_text_id = ? ORDER BY pg.page_id LIMIT 1"
	stmt = r.d.Rebind(stmt)

	var (
		detail    SegmentDetail
		titleName sql.NullString
	)
	err := scanSegment(q.QueryRowContext(ctx, stmt, id), &detail.Segment, &detail.DocTitle, &titleName, into(&detail.PageID))
	if errors.Is(err, sql.ErrNoRows) {
		return SegmentDetail{}, false, nil
	}
	if err != nil {
		return SegmentDetail{}, false, fmt.Errorf("failed to load segment %d: %w", id, &QueryError{SQL: stmt, Args: []any{id}, Err: err})
	}
	detail.TitleName = titleName.String
	return detail, true, nil
}
