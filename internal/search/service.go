// Package search answers search requests against the corpus: it validates
// requests, compiles and runs query plans, fans out all-fields searches,
// enriches and highlights results, and serves variant and compare lookups.
package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/leishu/internal/config"
	"github.com/leapstack-labs/leishu/internal/corpus"
	"github.com/leapstack-labs/leishu/internal/enrich"
	"github.com/leapstack-labs/leishu/internal/highlight"
	"github.com/leapstack-labs/leishu/pkg/core"
	"github.com/leapstack-labs/leishu/pkg/dialect"
	"github.com/leapstack-labs/leishu/pkg/plan"
)

// DefaultFanoutLimit caps each half of an all-fields search.
const DefaultFanoutLimit = 5

// Store hands out per-request sessions. adapter.Adapter implements it.
type Store interface {
	Acquire(ctx context.Context) (core.Session, error)
}

// Options tune the service.
type Options struct {
	Limit             int
	FanoutLimit       int
	FanoutConcurrent  bool
	StrictFields      bool
	VariantLimit      int
	VariantCandidates int
	Enrich            enrich.Options
}

// OptionsFromConfig maps the search section of the configuration.
func OptionsFromConfig(c config.SearchConfig) Options {
	return Options{
		Limit:             c.ResultLimit,
		FanoutLimit:       c.FanoutLimit,
		FanoutConcurrent:  c.FanoutConcurrent,
		StrictFields:      c.StrictFields,
		VariantLimit:      c.VariantLimit,
		VariantCandidates: c.VariantCandidates,
		Enrich: enrich.Options{
			PreviewRunes: c.PreviewRunes,
			Ellipsis:     c.Ellipsis,
			MaxDepth:     c.MaxTitleDepth,
		},
	}
}

func (o Options) withDefaults() Options {
	if o.Limit <= 0 {
		o.Limit = plan.DefaultLimit
	}
	if o.FanoutLimit <= 0 {
		o.FanoutLimit = DefaultFanoutLimit
	}
	if o.VariantLimit <= 0 {
		o.VariantLimit = 10
	}
	if o.VariantCandidates < o.VariantLimit {
		o.VariantCandidates = 5 * o.VariantLimit
	}
	return o
}

// Response is the result list of one search.
type Response struct {
	SearchID string        `json:"search_id"`
	Total    int           `json:"total"`
	Results  []core.Result `json:"results"`
}

// Service runs searches. It holds no per-request state and is safe for
// concurrent use.
type Service struct {
	store    Store
	repo     *corpus.Repository
	enricher *enrich.Enricher
	marker   *highlight.Highlighter
	variants VariantSource
	opts     Options
	logger   *slog.Logger
}

// New creates a Service over store, rendering SQL for d.
// A nil logger discards output.
func New(store Store, d *dialect.Dialect, opts Options, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	repo := corpus.New(d)
	return &Service{
		store:    store,
		repo:     repo,
		enricher: enrich.New(repo, opts.Enrich, logger),
		marker:   highlight.New("", ""),
		variants: NewStoreSource(repo),
		opts:     opts.withDefaults(),
		logger:   logger,
	}
}

// WithVariantSource replaces the source of variant candidates.
func (s *Service) WithVariantSource(src VariantSource) *Service {
	s.variants = src
	return s
}

// Parse validates req using the service's field strictness.
func (s *Service) Parse(req Request) (core.Query, error) {
	return Parse(req, s.opts.StrictFields)
}

// Search validates and runs req.
func (s *Service) Search(ctx context.Context, req Request) (*Response, error) {
	q, err := s.Parse(req)
	if err != nil {
		return nil, err
	}
	return s.Run(ctx, q)
}

// Run executes a validated query.
func (s *Service) Run(ctx context.Context, q core.Query) (*Response, error) {
	resp := &Response{SearchID: uuid.NewString()}
	logger := s.logger.With("search_id", resp.SearchID)

	var (
		results []core.Result
		err     error
	)
	if q.HasWildcard() {
		results, err = s.fanout(ctx, logger, q)
	} else {
		results, err = s.direct(ctx, logger, q)
	}
	if err != nil {
		return nil, err
	}

	sets := highlight.ForQuery(q.Conditions)
	for i := range results {
		s.marker.Result(&results[i], sets)
	}
	if results == nil {
		results = []core.Result{}
	}
	resp.Results = results
	resp.Total = len(results)
	logger.Debug("search finished", "total", resp.Total)
	return resp, nil
}

func (s *Service) direct(ctx context.Context, logger *slog.Logger, q core.Query) ([]core.Result, error) {
	p, err := plan.Build(q, plan.Options{Limit: s.opts.Limit})
	if err != nil {
		return nil, fmt.Errorf("failed to build plan: %w", err)
	}
	logDropped(logger, p)
	if p.Blocks == 0 {
		logger.Warn("no searchable condition left after compilation")
		return nil, nil
	}
	return s.execute(ctx, logger, q, p, "")
}

// execute runs one plan on its own session and enriches the rows on that
// same session. The session is released before returning.
func (s *Service) execute(ctx context.Context, logger *slog.Logger, q core.Query, p *plan.Plan, source core.MatchSource) ([]core.Result, error) {
	sess, err := s.store.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire session: %w", err)
	}
	defer func() { _ = sess.Close() }()

	results, err := s.repo.Search(ctx, sess, p)
	if err != nil {
		logStoreError(logger, err, q.Conditions)
		return nil, fmt.Errorf("failed to run search: %w", err)
	}
	for i := range results {
		results[i].Source = source
	}
	return s.enricher.Enrich(ctx, sess, results), nil
}

// fanout splits an all-fields query into a metadata search and a full-text
// search and returns metadata hits before full-text hits. A document may
// appear in both lists.
func (s *Service) fanout(ctx context.Context, logger *slog.Logger, q core.Query) ([]core.Result, error) {
	halves := fanoutQueries(q)
	plans := make([]*plan.Plan, len(halves))
	for i, h := range halves {
		p, err := plan.Build(h.query, plan.Options{Limit: s.opts.FanoutLimit})
		if err != nil {
			return nil, fmt.Errorf("failed to build %s plan: %w", h.source, err)
		}
		logDropped(logger, p)
		plans[i] = p
	}

	out := make([][]core.Result, len(halves))
	if s.opts.FanoutConcurrent {
		g, gctx := errgroup.WithContext(ctx)
		for i, h := range halves {
			g.Go(func() error {
				var err error
				out[i], err = s.execute(gctx, logger, h.query, plans[i], h.source)
				return err
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	} else {
		for i, h := range halves {
			var err error
			if out[i], err = s.execute(ctx, logger, h.query, plans[i], h.source); err != nil {
				return nil, err
			}
		}
	}

	var merged []core.Result
	for _, rows := range out {
		merged = append(merged, rows...)
	}
	return merged, nil
}

type half struct {
	source core.MatchSource
	query  core.Query
}

// fanoutQueries builds the two halves of an all-fields query. The metadata
// half ORs the keyword over every metadata field; the full-text half
// searches the body text alone. Filters are ANDed onto both.
func fanoutQueries(q core.Query) []half {
	var w core.Condition
	for _, c := range q.Conditions {
		if c.Field == core.FieldAll {
			w = c
			break
		}
	}

	meta := core.Query{Filters: q.Filters}
	for i, f := range core.MetadataFields {
		logic := core.LogicOr
		if i == 0 {
			logic = core.LogicNone
		}
		meta.Conditions = append(meta.Conditions, core.Condition{Field: f, Keyword: w.Keyword, Logic: logic, Mode: w.Mode})
	}
	text := core.Query{
		Conditions: []core.Condition{{Field: core.FieldFullText, Keyword: w.Keyword, Mode: w.Mode}},
		Filters:    q.Filters,
	}
	return []half{
		{source: core.SourceMetadata, query: meta},
		{source: core.SourceFullText, query: text},
	}
}

// Explained is the compiled SQL of one query a search would run.
type Explained struct {
	Name    string           `json:"name"`
	SQL     string           `json:"sql"`
	Args    []any            `json:"args"`
	Joins   []string         `json:"joins"`
	Dropped []core.Condition `json:"dropped,omitempty"`
}

// Explain compiles q without running it.
func (s *Service) Explain(q core.Query) ([]Explained, error) {
	halves := []half{{source: "search", query: q}}
	limit := s.opts.Limit
	if q.HasWildcard() {
		halves = fanoutQueries(q)
		limit = s.opts.FanoutLimit
	}

	out := make([]Explained, 0, len(halves))
	for _, h := range halves {
		p, err := plan.Build(h.query, plan.Options{Limit: limit})
		if err != nil {
			return nil, fmt.Errorf("failed to build plan: %w", err)
		}
		rendered := p.Render(s.repo.Dialect())
		e := Explained{Name: string(h.source), SQL: rendered.SQL, Args: rendered.Args, Dropped: p.Dropped}
		for _, j := range p.Joins {
			e.Joins = append(e.Joins, j.String())
		}
		out = append(out, e)
	}
	return out, nil
}

func logDropped(logger *slog.Logger, p *plan.Plan) {
	for _, c := range p.Dropped {
		logger.Debug("dropped condition on unknown field", "field", c.Field, "keyword", c.Keyword)
	}
}

// logStoreError records a failed statement with the conditions that
// produced it.
func logStoreError(logger *slog.Logger, err error, conds []core.Condition) {
	attrs := []any{"error", err, "conditions", conds}
	var qe *corpus.QueryError
	if errors.As(err, &qe) {
		attrs = append(attrs, "sql", qe.SQL, "args", qe.Args)
	}
	logger.Error("store query failed", attrs...)
}
