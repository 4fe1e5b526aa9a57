package search

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leishu/internal/corpus"
	"github.com/leapstack-labs/leishu/internal/highlight"
	"github.com/leapstack-labs/leishu/internal/testutil"
	"github.com/leapstack-labs/leishu/pkg/core"
	"github.com/leapstack-labs/leishu/pkg/dialects/mysql"
	"github.com/leapstack-labs/leishu/pkg/dialects/sqlite"
)

func span(s string) string { return highlight.DefaultOpen + s + highlight.DefaultClose }

func newSampleService(t *testing.T, opts Options) *Service {
	t.Helper()
	a := testutil.NewSQLiteCorpus(t, nil)
	return New(a, a.Dialect(), opts, testutil.NewTestLogger(t))
}

func cond(field, kw string) ConditionRequest {
	return ConditionRequest{Field: field, Keyword: kw}
}

func TestSearch_DocumentTitle(t *testing.T) {
	svc := newSampleService(t, Options{})

	resp, err := svc.Search(context.Background(), Request{Conditions: []ConditionRequest{cond("title", "永乐")}})
	require.NoError(t, err)
	require.Equal(t, 1, resp.Total)
	assert.NotEmpty(t, resp.SearchID)

	r := resp.Results[0]
	assert.Equal(t, int64(1), r.DocID)
	assert.Equal(t, core.Some(span("永乐")+"大典"), r.DocTitle)
	assert.Equal(t, core.Some("明"), r.Dynasty)
	assert.Equal(t, core.Some("1"), r.CategoryType)
	assert.Equal(t, core.Some("解缙, 姚广孝 等"), r.AuthorName)
	assert.Equal(t, core.Some("翰林院"), r.AuthorOrg)
	assert.Equal(t, core.Some("卷一, 天部 等"), r.TitleName)
	assert.Equal(t, core.Some("日者，太阳之精也。永乐大典载之。···"), r.FullText)
	assert.Equal(t, core.Some(int64(1)), r.PageID)
	assert.Empty(t, r.Source)
}

func TestSearch_TitleAndTextInOneBlockShareTheTitle(t *testing.T) {
	svc := newSampleService(t, Options{})
	ctx := context.Background()

	// 地部 and 日者 both occur in document 1, but never under the same title.
	resp, err := svc.Search(ctx, Request{Conditions: []ConditionRequest{
		cond("title_name", "地部"),
		{Field: "full_text", Keyword: "日者", Logic: "AND"},
	}})
	require.NoError(t, err)
	assert.Zero(t, resp.Total)

	resp, err = svc.Search(ctx, Request{Conditions: []ConditionRequest{
		cond("title_name", "日"),
		{Field: "full_text", Keyword: "日者", Logic: "AND"},
	}})
	require.NoError(t, err)
	require.Equal(t, 1, resp.Total)

	r := resp.Results[0]
	assert.Equal(t, core.Some(int64(12)), r.TitleID)
	assert.Equal(t, core.Some(int64(100)), r.FullTextID)
	assert.Equal(t, core.Some(int64(1)), r.PageID)
	assert.Equal(t, core.Some(span("日")), r.TitleName)
	assert.Equal(t, core.Some(span("日者")+"，太阳之精也。永乐大典载之。"), r.FullText)
}

func TestSearch_FullTextWithFilterAndExclusion(t *testing.T) {
	svc := newSampleService(t, Options{})
	ctx := context.Background()

	resp, err := svc.Search(ctx, Request{
		Conditions: []ConditionRequest{cond("full_text", "元气")},
		Filters:    map[string]any{"dynasty": "宋"},
	})
	require.NoError(t, err)
	require.Equal(t, 1, resp.Total)
	assert.Equal(t, core.Some(int64(200)), resp.Results[0].FullTextID)
	assert.Equal(t, core.Some(int64(3)), resp.Results[0].PageID)

	resp, err = svc.Search(ctx, Request{Conditions: []ConditionRequest{cond("full_text", "元气 NOT 初分")}})
	require.NoError(t, err)
	var ids []int64
	for _, r := range resp.Results {
		ids = append(ids, r.FullTextID.OrZero())
	}
	assert.ElementsMatch(t, []int64{101, 300}, ids)
}

func TestSearch_AllFields(t *testing.T) {
	for _, concurrent := range []bool{true, false} {
		svc := newSampleService(t, Options{FanoutConcurrent: concurrent})

		resp, err := svc.Search(context.Background(), Request{Conditions: []ConditionRequest{cond("all_fields", "永乐大典")}})
		require.NoError(t, err)
		require.Equal(t, 2, resp.Total, "concurrent=%v", concurrent)

		seen := map[core.MatchSource]map[int64]bool{}
		for _, r := range resp.Results {
			if seen[r.Source] == nil {
				seen[r.Source] = map[int64]bool{}
			}
			assert.False(t, seen[r.Source][r.DocID], "document %d repeated in %s", r.DocID, r.Source)
			seen[r.Source][r.DocID] = true
		}

		first := resp.Results[0]
		assert.Equal(t, core.SourceMetadata, first.Source)
		assert.Equal(t, int64(1), first.DocID)
		assert.Equal(t, core.Some(span("永乐大典")), first.DocTitle)
		assert.Equal(t, core.Some(int64(10)), first.TitleID)

		last := resp.Results[1]
		assert.Equal(t, core.SourceFullText, last.Source)
		assert.Equal(t, core.Some(int64(100)), last.FullTextID)
		assert.Equal(t, core.Some("日者，太阳之精也。"+span("永乐大典")+"载之。"), last.FullText)
	}
}

func TestSearch_OneRowPerDocument(t *testing.T) {
	svc := newSampleService(t, Options{})
	ctx := context.Background()

	tests := []struct {
		name  string
		conds []ConditionRequest
		docs  []int64
	}{
		{
			name:  "several matching authors",
			conds: []ConditionRequest{cond("author", "解缙"), {Field: "author", Keyword: "姚广孝", Logic: "OR"}},
			docs:  []int64{1},
		},
		{
			name:  "document without authors still matches by title",
			conds: []ConditionRequest{cond("literature", "艺文"), {Field: "author", Keyword: "解缙", Logic: "OR"}},
			docs:  []int64{1, 3},
		},
		{
			name:  "one document through several titles",
			conds: []ConditionRequest{cond("title_name", "卷一 OR 天部 OR 地部")},
			docs:  []int64{1, 2},
		},
		{
			name:  "several matching titles",
			conds: []ConditionRequest{cond("title_name", "部")},
			docs:  []int64{1, 2},
		},
		{
			name:  "several matching segments",
			conds: []ConditionRequest{cond("full_text", "元气")},
			docs:  []int64{1, 2, 3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := svc.Search(ctx, Request{Conditions: tt.conds})
			require.NoError(t, err)
			var docs []int64
			for _, r := range resp.Results {
				docs = append(docs, r.DocID)
			}
			assert.ElementsMatch(t, tt.docs, docs)
		})
	}
}

func TestSearch_AllFieldsWithUnknownField(t *testing.T) {
	req := Request{Conditions: []ConditionRequest{
		cond("all_fields", "永乐大典"),
		{Field: "publisher", Keyword: "中华书局", Logic: "AND"},
	}}

	svc := newSampleService(t, Options{})
	resp, err := svc.Search(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Total)

	q, err := svc.Parse(req)
	require.NoError(t, err)
	out, err := svc.Explain(q)
	require.NoError(t, err)
	require.Len(t, out, 2)
	for _, e := range out {
		require.Len(t, e.Dropped, 1, e.Name)
		assert.Equal(t, core.Field("publisher"), e.Dropped[0].Field)
	}

	strict := newSampleService(t, Options{StrictFields: true})
	_, err = strict.Search(context.Background(), req)
	assert.ErrorIs(t, err, core.ErrInvalidRequest)
}

func TestSearch_UnknownFields(t *testing.T) {
	svc := newSampleService(t, Options{})
	req := Request{Conditions: []ConditionRequest{cond("isbn", "123")}}

	resp, err := svc.Search(context.Background(), req)
	require.NoError(t, err)
	assert.Zero(t, resp.Total)
	assert.NotNil(t, resp.Results)

	strict := newSampleService(t, Options{StrictFields: true})
	_, err = strict.Search(context.Background(), req)
	assert.ErrorIs(t, err, core.ErrInvalidRequest)
}

// countingStore hands out sqlmock connections and counts releases.
type countingStore struct {
	db *sql.DB

	mu       sync.Mutex
	acquired int
	released int
}

type countedSession struct {
	*sql.Conn
	store *countingStore
}

func (s countedSession) Close() error {
	s.store.mu.Lock()
	s.store.released++
	s.store.mu.Unlock()
	return s.Conn.Close()
}

func (c *countingStore) Acquire(ctx context.Context) (core.Session, error) {
	conn, err := c.db.Conn(ctx)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.acquired++
	c.mu.Unlock()
	return countedSession{Conn: conn, store: c}, nil
}

func TestSearch_StoreErrorReleasesSession(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	store := &countingStore{db: db}
	svc := New(store, sqlite.SQLite, Options{}, testutil.NewTestLogger(t))

	mock.ExpectQuery("SELECT d.doc_id").WithArgs("永乐").WillReturnError(errors.New("connection reset"))

	_, err = svc.Search(context.Background(), Request{Conditions: []ConditionRequest{cond("title", "永乐")}})
	require.Error(t, err)
	assert.NotErrorIs(t, err, core.ErrInvalidRequest)

	var qe *corpus.QueryError
	require.ErrorAs(t, err, &qe)
	assert.Contains(t, qe.SQL, "instr(d.doc_title, ?) > 0")
	assert.Equal(t, []any{"永乐"}, qe.Args)

	assert.Equal(t, 1, store.acquired)
	assert.Equal(t, store.acquired, store.released)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSearch_FanoutErrorReleasesSessions(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()
	mock.MatchExpectationsInOrder(false)

	store := &countingStore{db: db}
	svc := New(store, sqlite.SQLite, Options{FanoutConcurrent: true}, nil)

	mock.ExpectQuery("SELECT d.doc_id").WillReturnError(errors.New("connection reset"))
	mock.ExpectQuery("SELECT d.doc_id").WillReturnError(errors.New("connection reset"))

	_, err = svc.Search(context.Background(), Request{Conditions: []ConditionRequest{cond("all_fields", "永乐")}})
	require.Error(t, err)
	assert.Equal(t, store.acquired, store.released)
}

func TestExplain(t *testing.T) {
	svc := New(nil, mysql.MySQL, Options{}, nil)

	q, err := svc.Parse(Request{Conditions: []ConditionRequest{cond("title", "永乐")}})
	require.NoError(t, err)
	out, err := svc.Explain(q)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "search", out[0].Name)
	assert.Contains(t, out[0].SQL, "WHERE MATCH(d.doc_title) AGAINST(? IN BOOLEAN MODE) LIMIT 100")
	assert.NotContains(t, out[0].SQL, "JOIN")
	assert.Equal(t, []any{"+永乐"}, out[0].Args)
	assert.Empty(t, out[0].Joins)

	q, err = svc.Parse(Request{Conditions: []ConditionRequest{cond("all_fields", "永乐大典")}})
	require.NoError(t, err)
	out, err = svc.Explain(q)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "metadata", out[0].Name)
	assert.Equal(t, []string{"author", "title"}, out[0].Joins)
	assert.Len(t, out[0].Args, 4)
	assert.Equal(t, "full_text", out[1].Name)
	assert.Equal(t, []string{"segment"}, out[1].Joins)
	for _, e := range out {
		assert.Contains(t, e.SQL, "LIMIT 5")
	}
}

func TestVariants(t *testing.T) {
	svc := newSampleService(t, Options{})
	ctx := context.Background()

	resp, err := svc.Variants(ctx, VariantRequest{Query: "日者，太阳之精也。"})
	require.NoError(t, err)
	require.Equal(t, 1, resp.Total)

	v := resp.Results[0]
	assert.Equal(t, int64(201), v.FulltextID)
	assert.Equal(t, int64(2), v.DocID)
	assert.Equal(t, "太平御览", v.DocTitle)
	assert.Equal(t, "天部一", v.TitleName)
	assert.Equal(t, "引文", v.TextType)
	assert.Equal(t, core.Some(int64(3)), v.PageID)
	assert.Equal(t, core.Some(int64(20)), v.TitleID)
	assert.InDelta(t, 1.0, v.Similarity, 1e-9)
	assert.Equal(t, span("日者")+"，"+span("太阳之精也")+"。", v.VariantText)

	resp, err = svc.Variants(ctx, VariantRequest{Query: "日者，太阳之精也。", Filters: map[string]any{"category_type": false}})
	require.NoError(t, err)
	assert.Zero(t, resp.Total)

	resp, err = svc.Variants(ctx, VariantRequest{Query: "日者，太阳之精也。", Filters: map[string]any{"compilation_time": "太平"}})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Total)

	_, err = svc.Variants(ctx, VariantRequest{Query: "  "})
	assert.ErrorIs(t, err, core.ErrInvalidRequest)
}

type staticSource []corpus.Candidate

func (s staticSource) Candidates(context.Context, core.Querier, string, int) ([]corpus.Candidate, error) {
	return s, nil
}

func TestVariants_SortedAndCapped(t *testing.T) {
	svc := newSampleService(t, Options{VariantLimit: 2}).
		WithVariantSource(staticSource{{SegmentID: 300}, {SegmentID: 101}, {SegmentID: 100}, {SegmentID: 999}})

	// 101 is the queried passage itself and 999 does not exist.
	resp, err := svc.Variants(context.Background(), VariantRequest{Query: "地者，元气之所生。"})
	require.NoError(t, err)
	require.Equal(t, 2, resp.Total)
	assert.Equal(t, int64(300), resp.Results[0].FulltextID)
	assert.False(t, resp.Results[0].TitleID.IsSet())
	assert.Equal(t, int64(100), resp.Results[1].FulltextID)
	assert.Greater(t, resp.Results[0].Similarity, resp.Results[1].Similarity)
}

func TestCompare(t *testing.T) {
	svc := newSampleService(t, Options{})
	ctx := context.Background()

	resp, err := svc.Compare(ctx, CompareRequest{Items: []CompareItem{
		{DocID: 2, TitleID: 20, PageNumber: 1, PageSide: "A"},
		{FulltextID: 101},
		{DocID: 9, FulltextID: 100},
		{FulltextID: 999},
	}})
	require.NoError(t, err)
	require.Len(t, resp.Texts, 2)

	first := resp.Texts[0]
	assert.Equal(t, int64(3), first.PageID)
	assert.Equal(t, "太平御览", first.DocTitle)
	assert.Equal(t, "宋", first.Dynasty)
	assert.Equal(t, "李昉, 扈蒙", first.AuthorName)
	assert.Equal(t, "类书", first.SpecificCategory)
	assert.Equal(t, "天部一", first.TitleName)
	require.Len(t, first.Segments, 2)
	assert.Equal(t, int64(200), first.Segments[0].ID)
	assert.False(t, first.Segments[0].RelatedID.IsSet())
	assert.Equal(t, "引文", first.Segments[1].TextType)
	assert.Equal(t, core.Some(int64(200)), first.Segments[1].RelatedID)

	second := resp.Texts[1]
	assert.Equal(t, int64(2), second.PageID)
	assert.Equal(t, "B", second.PageSide)
	assert.Equal(t, "解缙, 姚广孝 等", second.AuthorName)
	require.Len(t, second.Segments, 1)
	assert.Equal(t, "地部", second.Segments[0].TitleName)

	_, err = svc.Compare(ctx, CompareRequest{})
	assert.ErrorIs(t, err, core.ErrInvalidRequest)
}
