package search

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/leapstack-labs/leishu/internal/corpus"
	"github.com/leapstack-labs/leishu/internal/highlight"
	"github.com/leapstack-labs/leishu/pkg/core"
	"github.com/leapstack-labs/leishu/pkg/keyword"
)

// VariantSource proposes passages that may be variants of a text.
type VariantSource interface {
	Candidates(ctx context.Context, q core.Querier, text string, n int) ([]corpus.Candidate, error)
}

// StoreSource ranks corpus segments with the store's own text matching.
type StoreSource struct {
	repo *corpus.Repository
}

// NewStoreSource creates a source over repo.
func NewStoreSource(repo *corpus.Repository) *StoreSource {
	return &StoreSource{repo: repo}
}

// Candidates implements VariantSource.
func (s *StoreSource) Candidates(ctx context.Context, q core.Querier, text string, n int) ([]corpus.Candidate, error) {
	return s.repo.SimilarSegments(ctx, q, text, Probes(text), n)
}

// VariantRequest asks for passages similar to Query.
type VariantRequest struct {
	Query   string         `json:"query"`
	Filters map[string]any `json:"filters"`
}

// Variant is one passage similar to the queried text.
type Variant struct {
	PageID      core.Optional[int64] `json:"pageId"`
	TitleID     core.Optional[int64] `json:"titleId"`
	FulltextID  int64                `json:"fulltextId"`
	VariantText string               `json:"variantText"`
	Similarity  float64              `json:"similarity"`
	DocID       int64                `json:"docId"`
	DocTitle    string               `json:"docTitle"`
	TitleName   string               `json:"titleName"`
	TextType    string               `json:"textType"`
}

// VariantResponse lists variants, most similar first.
type VariantResponse struct {
	SearchID string    `json:"search_id"`
	Total    int       `json:"total"`
	Query    string    `json:"query"`
	Results  []Variant `json:"results"`
}

// docFilter restricts variants by document metadata.
type docFilter struct {
	categoryType     string
	specificCategory string
	style            string
	compilationTime  string
}

func (f docFilter) match(d core.Document) bool {
	if f.categoryType != "" && d.CategoryType != f.categoryType {
		return false
	}
	if f.specificCategory != "" && d.SpecificCategory != f.specificCategory {
		return false
	}
	if f.style != "" && d.Style != f.style {
		return false
	}
	return f.compilationTime == "" || strings.Contains(d.CompilationTime, f.compilationTime)
}

func parseDocFilter(raw map[string]any, strict bool) (docFilter, error) {
	values, err := decodeFilters(raw)
	if err != nil {
		return docFilter{}, err
	}
	var f docFilter
	for key, v := range values {
		if key == "compilation_time" {
			f.compilationTime = v
			continue
		}
		field, _ := core.ParseField(key)
		switch field {
		case core.FieldCategoryType:
			f.categoryType = v
		case core.FieldSpecificCategory:
			f.specificCategory = v
		case core.FieldStyle:
			f.style = v
		default:
			if strict {
				return docFilter{}, core.NewRequestError("filters."+key, "unknown variant filter")
			}
		}
	}
	return f, nil
}

// Variants finds passages similar to req.Query. The segment the query was
// taken from is left out.
func (s *Service) Variants(ctx context.Context, req VariantRequest) (*VariantResponse, error) {
	text := strings.TrimSpace(req.Query)
	if text == "" {
		return nil, core.NewRequestError("query", "query is required")
	}
	filter, err := parseDocFilter(req.Filters, s.opts.StrictFields)
	if err != nil {
		return nil, err
	}

	resp := &VariantResponse{SearchID: uuid.NewString(), Query: text, Results: []Variant{}}
	logger := s.logger.With("search_id", resp.SearchID)

	sess, err := s.store.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire session: %w", err)
	}
	defer func() { _ = sess.Close() }()

	own, hasOwn, err := s.repo.FindSegment(ctx, sess, keyword.Fragments(text))
	if err != nil {
		logger.Error("store query failed", "error", err, "query", text)
		return nil, fmt.Errorf("failed to locate queried segment: %w", err)
	}
	candidates, err := s.variants.Candidates(ctx, sess, text, s.opts.VariantCandidates)
	if err != nil {
		logStoreError(logger, err, nil)
		return nil, fmt.Errorf("failed to find variant candidates: %w", err)
	}

	chars := highlight.Chars(text)
	docs := make(map[int64]core.Document)
	for _, c := range candidates {
		if hasOwn && c.SegmentID == own {
			continue
		}
		detail, ok, err := s.repo.Segment(ctx, sess, c.SegmentID)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		doc, ok := docs[detail.Segment.DocID]
		if !ok {
			if doc, _, err = s.repo.Document(ctx, sess, detail.Segment.DocID); err != nil {
				return nil, err
			}
			docs[detail.Segment.DocID] = doc
		}
		if !filter.match(doc) {
			continue
		}

		v := Variant{
			PageID:      detail.PageID,
			FulltextID:  detail.Segment.ID,
			VariantText: s.marker.Text(detail.Segment.Text, chars),
			Similarity:  Similarity(text, detail.Segment.Text),
			DocID:       detail.Segment.DocID,
			DocTitle:    detail.DocTitle,
			TitleName:   detail.TitleName,
			TextType:    string(detail.Segment.Type),
		}
		if detail.Segment.TitleID != 0 {
			v.TitleID = core.Some(detail.Segment.TitleID)
		}
		resp.Results = append(resp.Results, v)
	}

	sort.SliceStable(resp.Results, func(i, j int) bool {
		return resp.Results[i].Similarity > resp.Results[j].Similarity
	})
	if len(resp.Results) > s.opts.VariantLimit {
		resp.Results = resp.Results[:s.opts.VariantLimit]
	}
	resp.Total = len(resp.Results)
	logger.Debug("variant search finished", "candidates", len(candidates), "total", resp.Total)
	return resp, nil
}
