package search

import (
	"context"
	"fmt"

	"github.com/leapstack-labs/leishu/internal/corpus"
	"github.com/leapstack-labs/leishu/pkg/core"
)

// CompareItem points at one page, either by title and page position or by
// a segment printed on it.
type CompareItem struct {
	DocID      int64  `json:"docId"`
	TitleID    int64  `json:"titleId"`
	PageNumber int64  `json:"pageNumber"`
	PageSide   string `json:"pageSide"`
	FulltextID int64  `json:"fulltextId"`
}

// CompareRequest lists the pages to show side by side.
type CompareRequest struct {
	Items []CompareItem `json:"items"`
}

// CompareSegment is one passage of a compared page.
type CompareSegment struct {
	ID        int64                `json:"id"`
	Text      string               `json:"text"`
	TextType  string               `json:"textType"`
	RelatedID core.Optional[int64] `json:"relatedId"`
	TitleName string               `json:"titleName"`
}

// CompareText is a page with its document context and passages in
// manifest order.
type CompareText struct {
	PageID           int64            `json:"pageId"`
	DocID            int64            `json:"docId"`
	TitleID          int64            `json:"titleId"`
	PageNumber       int64            `json:"pageNumber"`
	PageSide         string           `json:"pageSide"`
	DocTitle         string           `json:"docTitle"`
	Dynasty          string           `json:"dynasty"`
	AuthorName       string           `json:"authorName"`
	SpecificCategory string           `json:"specificCategory"`
	DocTheme         string           `json:"docTheme"`
	TitleName        string           `json:"titleName"`
	Segments         []CompareSegment `json:"segments"`
}

// CompareResponse holds the located pages in request order.
type CompareResponse struct {
	Texts []CompareText `json:"texts"`
}

// Compare loads the pages named by req. Items that cannot be located are
// skipped.
func (s *Service) Compare(ctx context.Context, req CompareRequest) (*CompareResponse, error) {
	if len(req.Items) == 0 {
		return nil, core.NewRequestError("items", "at least one item is required")
	}

	sess, err := s.store.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire session: %w", err)
	}
	defer func() { _ = sess.Close() }()

	resp := &CompareResponse{Texts: []CompareText{}}
	for i, item := range req.Items {
		view, ok, err := s.locate(ctx, sess, item)
		if err != nil {
			logStoreError(s.logger, err, nil)
			return nil, fmt.Errorf("failed to locate item %d: %w", i, err)
		}
		if !ok || (item.DocID != 0 && item.DocID != view.Page.DocID) {
			s.logger.Debug("compare item not found", "index", i, "doc_id", item.DocID, "title_id", item.TitleID,
				"fulltext_id", item.FulltextID)
			continue
		}

		text, err := s.compareText(ctx, sess, view)
		if err != nil {
			logStoreError(s.logger, err, nil)
			return nil, err
		}
		resp.Texts = append(resp.Texts, text)
	}
	return resp, nil
}

func (s *Service) locate(ctx context.Context, q core.Querier, item CompareItem) (corpus.PageView, bool, error) {
	if item.TitleID != 0 && item.PageNumber != 0 && item.PageSide != "" {
		v, ok, err := s.repo.PageByTitle(ctx, q, item.TitleID, item.PageNumber, core.PageSide(item.PageSide))
		if err != nil || ok {
			return v, ok, err
		}
	}
	if item.FulltextID != 0 {
		return s.repo.PageBySegment(ctx, q, item.FulltextID)
	}
	return corpus.PageView{}, false, nil
}

func (s *Service) compareText(ctx context.Context, q core.Querier, view corpus.PageView) (CompareText, error) {
	p := view.Page
	text := CompareText{
		PageID:           p.ID,
		DocID:            p.DocID,
		TitleID:          p.TitleID,
		PageNumber:       p.Number,
		PageSide:         string(p.Side),
		DocTitle:         view.DocTitle,
		Dynasty:          view.Dynasty,
		SpecificCategory: view.SpecificCategory,
		DocTheme:         view.Theme,
		TitleName:        view.TitleName,
		Segments:         []CompareSegment{},
	}

	// Only the author fields are missing, so enrichment looks up nothing else.
	row, err := s.enricher.Row(ctx, q, core.Result{
		DocID:     p.DocID,
		TitleName: core.Some(view.TitleName),
		FullText:  core.Some(""),
	})
	if err != nil {
		return CompareText{}, fmt.Errorf("failed to load authors of document %d: %w", p.DocID, err)
	}
	text.AuthorName = row.AuthorName.OrZero()

	segs, err := s.repo.Segments(ctx, q, p.SegmentIDs)
	if err != nil {
		return CompareText{}, err
	}
	for _, sv := range segs {
		cs := CompareSegment{
			ID:        sv.Segment.ID,
			Text:      sv.Segment.Text,
			TextType:  string(sv.Segment.Type),
			TitleName: sv.TitleName,
		}
		if sv.Segment.RelatedID != 0 {
			cs.RelatedID = core.Some(sv.Segment.RelatedID)
		}
		text.Segments = append(text.Segments, cs)
	}
	return text, nil
}
