package corpus

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/leapstack-labs/leishu/pkg/core"
)

// PageView is a page with the document and title context shown beside it.
type PageView struct {
	Page             core.Page
	DocTitle         string
	Dynasty          string
	SpecificCategory string
	Theme            string
	TitleName        string
}

// SegmentView is a segment with the name of its owning title.
type SegmentView struct {
	Segment   core.TextSegment
	TitleName string
}

const pageSelect = "SELECT pg.page_id, pg.doc_id, pg.full_text_id_list, pg.page_number, pg.page_type, pg.title_id, " +
	"d.doc_title, d.dynasty, d.doc_specific_category, d.doc_theme, t.title_name FROM pages pg " +
	"INNER JOIN documents d ON d.doc_id = pg.doc_id " +
	"LEFT JOIN titles t ON t.title_id = pg.title_id "

// PageByTitle locates a page by its owning title and position.
func (r *Repository) PageByTitle(ctx context.Context, q core.Querier, titleID, number int64, side core.PageSide) (PageView, bool, error) {
	stmt := pageSelect + "WHERE pg.title_id = ? AND pg.page_number = ? AND pg.page_type = ? ORDER BY pg.page_id LIMIT 1"
	return r.page(ctx, q, stmt, titleID, number, string(side))
}

// PageBySegment locates the page a segment is printed on.
func (r *Repository) PageBySegment(ctx context.Context, q core.Querier, segmentID int64) (PageView, bool, error) {
	stmt := pageSelect +
		"INNER JOIN full_text_1 f ON f.doc_id = pg.doc_id AND f.page_number = pg.page_number AND f.page_type = pg.page_type " +
		"WHERE f.full_text_id = ? ORDER BY pg.page_id LIMIT 1"
	return r.page(ctx, q, stmt, segmentID)
}

func (r *Repository) page(ctx context.Context, q core.Querier, stmt string, args ...any) (PageView, bool, error) {
	var (
		v                                   PageView
		manifest, side                      string
		title                               sql.NullInt64
		dynasty, specific, theme, titleName sql.NullString
	)
	found, err := r.queryRow(ctx, q, stmt, args,
		&v.Page.ID, &v.Page.DocID, &manifest, &v.Page.Number, &side, &title,
		&v.DocTitle, &dynasty, &specific, &theme, &titleName)
	if err != nil {
		return PageView{}, false, fmt.Errorf("failed to locate page: %w", err)
	}
	if !found {
		return PageView{}, false, nil
	}

	v.Page.Side = core.PageSide(side)
	v.Page.TitleID = title.Int64
	v.Dynasty = dynasty.String
	v.SpecificCategory = specific.String
	v.Theme = theme.String
	v.TitleName = titleName.String
	v.Page.SegmentIDs, err = ParseIDList(manifest)
	if err != nil {
		return PageView{}, false, fmt.Errorf("failed to parse manifest of page %d: %w", v.Page.ID, err)
	}
	return v, true, nil
}

// Segments loads segments by id and returns them in the order of ids.
// Ids without a stored segment are skipped.
func (r *Repository) Segments(ctx context.Context, q core.Querier, ids []int64) ([]SegmentView, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	marks := strings.TrimSuffix(strings.Repeat("?, ", len(ids)), ", ")
	stmt := "SELECT " + segmentColumns + ", t.title_name FROM full_text_1 f " +
		"LEFT JOIN titles t ON t.title_id = f.title_id WHERE f.full_text_id IN (" + marks + ")"
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	byID := make(map[int64]SegmentView, len(ids))
	err := r.query(ctx, q, stmt, args, func(rows *sql.Rows) error {
		var (
			v    SegmentView
			name sql.NullString
		)
		if err := scanSegment(rows, &v.Segment, &name); err != nil {
			return err
		}
		v.TitleName = name.String
		byID[v.Segment.ID] = v
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load segments: %w", err)
	}

	out := make([]SegmentView, 0, len(byID))
	for _, id := range ids {
		if v, ok := byID[id]; ok {
			out = append(out, v)
		}
	}
	return out, nil
}
