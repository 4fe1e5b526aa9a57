// Package enrich completes search results whose projection left descriptive
// fields empty: authors, title names and a full-text preview.
package enrich

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/leapstack-labs/leishu/internal/corpus"
	"github.com/leapstack-labs/leishu/pkg/core"
)

// Store is the read access enrichment needs. *corpus.Repository implements it.
type Store interface {
	Authors(ctx context.Context, q core.Querier, docID int64, n int) ([]core.Author, error)
	TitleNames(ctx context.Context, q core.Querier, docID int64, n int) ([]string, error)
	Titles(ctx context.Context, q core.Querier, docID int64) ([]core.Title, error)
	FirstSegmentOfTitle(ctx context.Context, q core.Querier, titleID int64) (core.TextSegment, bool, error)
	FirstSegmentOfDocument(ctx context.Context, q core.Querier, docID int64) (core.TextSegment, bool, error)
	PageID(ctx context.Context, q core.Querier, docID, number int64, side core.PageSide) (int64, bool, error)
}

// EtAl is appended to a joined list that had more entries than shown.
const EtAl = " 等"

// Options tune enrichment.
type Options struct {
	// Shown is how many authors or title names are joined. Default 2.
	Shown int
	// PreviewRunes caps the full-text preview. Default 100.
	PreviewRunes int
	// Ellipsis is appended to every preview. Default "···".
	Ellipsis string
	// MaxDepth bounds the title subtree walk. Default 64.
	MaxDepth int
}

func (o Options) withDefaults() Options {
	if o.Shown <= 0 {
		o.Shown = 2
	}
	if o.PreviewRunes <= 0 {
		o.PreviewRunes = 100
	}
	if o.Ellipsis == "" {
		o.Ellipsis = "···"
	}
	if o.MaxDepth <= 0 {
		o.MaxDepth = 64
	}
	return o
}

// Enricher fills missing result fields from the corpus.
type Enricher struct {
	store  Store
	opts   Options
	logger *slog.Logger
}

// New creates an Enricher. A nil logger discards output.
func New(store Store, opts Options, logger *slog.Logger) *Enricher {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Enricher{store: store, opts: opts.withDefaults(), logger: logger}
}

// Complete reports whether r already carries every enrichable field.
func Complete(r core.Result) bool {
	return r.AuthorName.IsSet() && r.AuthorOrg.IsSet() && r.TitleName.IsSet() && r.FullText.IsSet()
}

// Enrich completes rows in place and returns them in the same order.
// A failure on one row is logged and leaves that row's unresolved fields
// absent; the remaining rows are still enriched.
func (e *Enricher) Enrich(ctx context.Context, q core.Querier, rows []core.Result) []core.Result {
	b := &batch{Enricher: e, q: q, arenas: make(map[int64]*arena)}
	for i := range rows {
		if err := b.row(ctx, &rows[i]); err != nil {
			e.logFailure(rows[i], err)
		}
	}
	return rows
}

// logFailure records a row that could not be completed, with the failed
// statement when the store reported one.
func (e *Enricher) logFailure(r core.Result, err error) {
	attrs := []any{"doc_id", r.DocID, "title_id", r.TitleID.OrZero(), "error", err}
	var qe *corpus.QueryError
	if errors.As(err, &qe) {
		attrs = append(attrs, "sql", qe.SQL, "args", qe.Args)
	}
	e.logger.Warn("enrichment incomplete", attrs...)
}

// Row completes a single result.
func (e *Enricher) Row(ctx context.Context, q core.Querier, r core.Result) (core.Result, error) {
	b := &batch{Enricher: e, q: q, arenas: make(map[int64]*arena)}
	err := b.row(ctx, &r)
	return r, err
}

// batch shares title arenas between rows of one result list.
type batch struct {
	*Enricher
	q      core.Querier
	arenas map[int64]*arena
}

func (b *batch) row(ctx context.Context, r *core.Result) error {
	if Complete(*r) {
		return nil
	}
	var errs []error
	if !r.AuthorName.IsSet() || !r.AuthorOrg.IsSet() {
		errs = append(errs, b.authors(ctx, r))
	}
	if !r.TitleName.IsSet() {
		errs = append(errs, b.titleNames(ctx, r))
	}
	if !r.FullText.IsSet() {
		errs = append(errs, b.preview(ctx, r))
	}
	return errors.Join(errs...)
}

func (b *batch) authors(ctx context.Context, r *core.Result) error {
	authors, err := b.store.Authors(ctx, b.q, r.DocID, b.opts.Shown+1)
	if err != nil {
		return err
	}
	if len(authors) == 0 {
		return nil
	}
	names := make([]string, len(authors))
	for i, a := range authors {
		names[i] = a.Name
	}
	if !r.AuthorName.IsSet() {
		r.AuthorName = core.Some(b.joinShown(names))
	}
	if !r.AuthorOrg.IsSet() && authors[0].Org != "" {
		r.AuthorOrg = core.Some(authors[0].Org)
	}
	return nil
}

func (b *batch) titleNames(ctx context.Context, r *core.Result) error {
	names, err := b.store.TitleNames(ctx, b.q, r.DocID, b.opts.Shown+1)
	if err != nil {
		return err
	}
	if len(names) > 0 {
		r.TitleName = core.Some(b.joinShown(names))
	}
	return nil
}

// joinShown joins the first Shown names and marks the list when more exist.
func (b *batch) joinShown(names []string) string {
	if len(names) <= b.opts.Shown {
		return strings.Join(names, ", ")
	}
	return strings.Join(names[:b.opts.Shown], ", ") + EtAl
}

func (b *batch) preview(ctx context.Context, r *core.Result) error {
	var (
		seg   core.TextSegment
		found bool
		err   error
	)
	if id, ok := r.TitleID.Get(); ok && id != 0 {
		seg, found, err = b.nearestUnderTitle(ctx, r.DocID, id)
		if err != nil {
			return err
		}
	}
	if !found {
		seg, found, err = b.store.FirstSegmentOfDocument(ctx, b.q, r.DocID)
		if err != nil {
			return err
		}
	}
	if !found {
		return nil
	}

	r.FullText = core.Some(truncate(seg.Text, b.opts.PreviewRunes) + b.opts.Ellipsis)
	if r.PageID.IsSet() || seg.PageNumber == 0 {
		return nil
	}
	pageID, ok, err := b.store.PageID(ctx, b.q, r.DocID, seg.PageNumber, seg.PageSide)
	if err != nil {
		return err
	}
	if ok {
		r.PageID = core.Some(pageID)
	}
	return nil
}

type frame struct {
	id    int64
	depth int
}

// nearestUnderTitle walks the subtree rooted at titleID depth first: a
// title's own earliest segment is checked before its children, children in
// sibling order.
func (b *batch) nearestUnderTitle(ctx context.Context, docID, titleID int64) (core.TextSegment, bool, error) {
	a, err := b.arena(ctx, docID)
	if err != nil {
		return core.TextSegment{}, false, err
	}

	visited := make(map[int64]bool)
	stack := []frame{{id: titleID}}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[top.id] {
			b.logger.Warn("title cycle detected", "doc_id", docID, "title_id", top.id)
			continue
		}
		visited[top.id] = true

		seg, found, err := b.store.FirstSegmentOfTitle(ctx, b.q, top.id)
		if err != nil {
			return core.TextSegment{}, false, err
		}
		if found {
			return seg, true, nil
		}

		if top.depth >= b.opts.MaxDepth {
			b.logger.Debug("title walk depth limit reached", "doc_id", docID, "title_id", top.id)
			continue
		}
		kids := a.children[top.id]
		for i := len(kids) - 1; i >= 0; i-- {
			stack = append(stack, frame{id: kids[i], depth: top.depth + 1})
		}
	}
	return core.TextSegment{}, false, nil
}

func (b *batch) arena(ctx context.Context, docID int64) (*arena, error) {
	if a, ok := b.arenas[docID]; ok {
		return a, nil
	}
	titles, err := b.store.Titles(ctx, b.q, docID)
	if err != nil {
		return nil, fmt.Errorf("failed to build title tree: %w", err)
	}
	a := newArena(titles)
	b.arenas[docID] = a
	return a, nil
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
