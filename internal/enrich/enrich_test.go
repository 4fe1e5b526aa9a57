package enrich

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leishu/internal/corpus"
	"github.com/leapstack-labs/leishu/internal/testutil"
	"github.com/leapstack-labs/leishu/pkg/core"
)

type fakeStore struct {
	authors   map[int64][]core.Author
	titles    map[int64][]core.Title
	byTitle   map[int64]core.TextSegment
	byDoc     map[int64]core.TextSegment
	pages     map[int64]int64
	authorErr error
	calls     []string
}

func (f *fakeStore) Authors(_ context.Context, _ core.Querier, docID int64, n int) ([]core.Author, error) {
	f.calls = append(f.calls, "authors")
	if f.authorErr != nil {
		return nil, f.authorErr
	}
	a := f.authors[docID]
	if len(a) > n {
		a = a[:n]
	}
	return a, nil
}

func (f *fakeStore) TitleNames(_ context.Context, _ core.Querier, docID int64, n int) ([]string, error) {
	f.calls = append(f.calls, "title_names")
	var names []string
	for _, t := range f.titles[docID] {
		names = append(names, t.Name)
	}
	if len(names) > n {
		names = names[:n]
	}
	return names, nil
}

func (f *fakeStore) Titles(_ context.Context, _ core.Querier, docID int64) ([]core.Title, error) {
	f.calls = append(f.calls, "titles")
	return f.titles[docID], nil
}

func (f *fakeStore) FirstSegmentOfTitle(_ context.Context, _ core.Querier, titleID int64) (core.TextSegment, bool, error) {
	f.calls = append(f.calls, "segment_of_title")
	s, ok := f.byTitle[titleID]
	return s, ok, nil
}

func (f *fakeStore) FirstSegmentOfDocument(_ context.Context, _ core.Querier, docID int64) (core.TextSegment, bool, error) {
	f.calls = append(f.calls, "segment_of_document")
	s, ok := f.byDoc[docID]
	return s, ok, nil
}

func (f *fakeStore) PageID(_ context.Context, _ core.Querier, _ int64, number int64, _ core.PageSide) (int64, bool, error) {
	f.calls = append(f.calls, "page_id")
	id, ok := f.pages[number]
	return id, ok, nil
}

func TestEnrich_CompleteRowIsUntouched(t *testing.T) {
	store := &fakeStore{}
	e := New(store, Options{}, testutil.NewTestLogger(t))

	in := core.Result{
		DocID:      1,
		AuthorName: core.Some("解缙"),
		AuthorOrg:  core.Some(""),
		TitleName:  core.Some("卷一"),
		FullText:   core.Some("永乐"),
	}
	out := e.Enrich(context.Background(), nil, []core.Result{in})

	require.Len(t, out, 1)
	assert.Equal(t, in, out[0])
	assert.Empty(t, store.calls)
}

func TestEnrich_AuthorsAndTitles(t *testing.T) {
	store := &fakeStore{
		authors: map[int64][]core.Author{
			1: {{Name: "解缙", Org: "翰林院"}, {Name: "姚广孝"}, {Name: "王景"}},
			2: {{Name: "李昉", Org: "翰林"}, {Name: "扈蒙"}},
		},
		titles: map[int64][]core.Title{
			1: {{ID: 10, Name: "卷一"}},
			2: {{ID: 20, Name: "天部"}, {ID: 21, Name: "地部"}, {ID: 22, Name: "人部"}},
		},
	}
	e := New(store, Options{}, testutil.NewTestLogger(t))

	rows := []core.Result{
		{DocID: 1, FullText: core.Some("x")},
		{DocID: 2, FullText: core.Some("y")},
	}
	out := e.Enrich(context.Background(), nil, rows)

	assert.Equal(t, core.Some("解缙, 姚广孝 等"), out[0].AuthorName)
	assert.Equal(t, core.Some("翰林院"), out[0].AuthorOrg)
	assert.Equal(t, core.Some("卷一"), out[0].TitleName)

	assert.Equal(t, core.Some("李昉, 扈蒙"), out[1].AuthorName)
	assert.Equal(t, core.Some("天部, 地部 等"), out[1].TitleName)
}

func TestEnrich_KeepsPresentAuthorName(t *testing.T) {
	store := &fakeStore{authors: map[int64][]core.Author{1: {{Name: "解缙", Org: "翰林院"}}}}
	e := New(store, Options{}, nil)

	r, err := e.Row(context.Background(), nil, core.Result{
		DocID:      1,
		AuthorName: core.Some("<span>解</span>缙"),
		TitleName:  core.Some("卷一"),
		FullText:   core.Some("x"),
	})
	require.NoError(t, err)
	assert.Equal(t, core.Some("<span>解</span>缙"), r.AuthorName)
	assert.Equal(t, core.Some("翰林院"), r.AuthorOrg)
}

func TestEnrich_PreviewFromChildTitle(t *testing.T) {
	store := &fakeStore{
		titles: map[int64][]core.Title{1: {
			{ID: 10, Name: "卷一", Order: 1},
			{ID: 12, Name: "地部", ParentID: 10, Order: 2},
			{ID: 11, Name: "天部", ParentID: 10, Order: 1},
			{ID: 13, Name: "日", ParentID: 11, Order: 1},
		}},
		byTitle: map[int64]core.TextSegment{
			13: {ID: 300, Text: "日者太阳之精", PageNumber: 4, PageSide: core.PageSideB},
			12: {ID: 200, Text: "地者"},
		},
		pages: map[int64]int64{4: 77},
	}
	e := New(store, Options{}, testutil.NewTestLogger(t))

	r, err := e.Row(context.Background(), nil, core.Result{
		DocID:      1,
		TitleID:    core.Some(int64(10)),
		AuthorName: core.Some("a"),
		AuthorOrg:  core.Some("b"),
		TitleName:  core.Some("卷一"),
	})
	require.NoError(t, err)
	assert.Equal(t, core.Some("日者太阳之精···"), r.FullText)
	assert.Equal(t, core.Some(int64(77)), r.PageID)
	assert.NotContains(t, store.calls, "segment_of_document")
}

func TestEnrich_PreviewFallsBackToDocument(t *testing.T) {
	long := strings.Repeat("永", 150)
	store := &fakeStore{
		titles: map[int64][]core.Title{1: {{ID: 10, Name: "卷一"}}},
		byDoc:  map[int64]core.TextSegment{1: {ID: 1, Text: long}},
	}
	e := New(store, Options{}, nil)

	r, err := e.Row(context.Background(), nil, core.Result{
		DocID:      1,
		TitleID:    core.Some(int64(10)),
		AuthorName: core.Some("a"),
		AuthorOrg:  core.Some("b"),
		TitleName:  core.Some("卷一"),
	})
	require.NoError(t, err)
	assert.Equal(t, core.Some(strings.Repeat("永", 100)+"···"), r.FullText)
	assert.False(t, r.PageID.IsSet())
	assert.NotContains(t, store.calls, "page_id")
}

func TestEnrich_TitleCycleTerminates(t *testing.T) {
	store := &fakeStore{
		titles: map[int64][]core.Title{1: {
			{ID: 10, ParentID: 11},
			{ID: 11, ParentID: 10},
		}},
	}
	e := New(store, Options{}, testutil.NewTestLogger(t))

	r, err := e.Row(context.Background(), nil, core.Result{DocID: 1, TitleID: core.Some(int64(10))})
	require.NoError(t, err)
	assert.False(t, r.FullText.IsSet())
}

func TestEnrich_DepthLimit(t *testing.T) {
	store := &fakeStore{
		titles: map[int64][]core.Title{1: {
			{ID: 1},
			{ID: 2, ParentID: 1},
			{ID: 3, ParentID: 2},
		}},
		byTitle: map[int64]core.TextSegment{3: {Text: "deep"}},
	}
	e := New(store, Options{MaxDepth: 1}, nil)

	r, err := e.Row(context.Background(), nil, core.Result{
		DocID: 1, TitleID: core.Some(int64(1)),
		AuthorName: core.Some(""), AuthorOrg: core.Some(""), TitleName: core.Some(""),
	})
	require.NoError(t, err)
	assert.False(t, r.FullText.IsSet())
}

func TestEnrich_RowFailureDoesNotAbortBatch(t *testing.T) {
	store := &fakeStore{
		authorErr: errors.New("lost connection"),
		titles:    map[int64][]core.Title{1: {{ID: 10, Name: "卷一"}}, 2: {{ID: 20, Name: "卷二"}}},
		byDoc:     map[int64]core.TextSegment{1: {Text: "甲"}, 2: {Text: "乙"}},
	}
	e := New(store, Options{}, testutil.NewTestLogger(t))

	out := e.Enrich(context.Background(), nil, []core.Result{{DocID: 1}, {DocID: 2}})
	require.Len(t, out, 2)
	for i, r := range out {
		assert.False(t, r.AuthorName.IsSet(), "row %d", i)
		assert.False(t, r.AuthorOrg.IsSet(), "row %d", i)
		assert.True(t, r.TitleName.IsSet(), "row %d", i)
		assert.True(t, r.FullText.IsSet(), "row %d", i)
	}
	assert.Equal(t, core.Some("乙···"), out[1].FullText)

	_, err := e.Row(context.Background(), nil, core.Result{DocID: 1})
	assert.ErrorIs(t, err, store.authorErr)
}

func TestEnrich_FailureLogCarriesStatement(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	tests := []struct {
		name    string
		err     error
		present []string
		absent  []string
	}{
		{
			name: "query error",
			err: &corpus.QueryError{
				SQL:  "SELECT a.author_id FROM document_author_links dal WHERE dal.doc_id = ?",
				Args: []any{int64(1)},
				Err:  errors.New("lost connection"),
			},
			present: []string{`"sql":"SELECT a.author_id FROM document_author_links dal WHERE dal.doc_id = ?"`, `"args":[1]`},
		},
		{
			name:    "plain error",
			err:     errors.New("lost connection"),
			present: []string{`"error":"lost connection"`},
			absent:  []string{`"sql"`, `"args"`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf.Reset()
			store := &fakeStore{authorErr: tt.err}
			e := New(store, Options{}, logger)

			e.Enrich(context.Background(), nil, []core.Result{{DocID: 1, TitleName: core.Some("卷一"), FullText: core.Some("x")}})

			out := buf.String()
			assert.Contains(t, out, `"msg":"enrichment incomplete"`)
			assert.Contains(t, out, `"doc_id":1`)
			for _, s := range tt.present {
				assert.Contains(t, out, s)
			}
			for _, s := range tt.absent {
				assert.NotContains(t, out, s)
			}
		})
	}
}

func TestEnrich_MissingOrganizationStaysAbsent(t *testing.T) {
	tests := []struct {
		name    string
		authors []core.Author
		org     core.Optional[string]
	}{
		{"first author without organization", []core.Author{{Name: "王景"}, {Name: "解缙", Org: "翰林院"}}, core.None[string]()},
		{"first author with organization", []core.Author{{Name: "解缙", Org: "翰林院"}}, core.Some("翰林院")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeStore{authors: map[int64][]core.Author{1: tt.authors}}
			e := New(store, Options{}, testutil.NewTestLogger(t))

			r, err := e.Row(context.Background(), nil, core.Result{DocID: 1, TitleName: core.Some("卷一"), FullText: core.Some("x")})
			require.NoError(t, err)
			assert.True(t, r.AuthorName.IsSet())
			assert.Equal(t, tt.org, r.AuthorOrg)
		})
	}
}

func TestArenaOrdersChildren(t *testing.T) {
	a := newArena([]core.Title{
		{ID: 5, ParentID: 1, Order: 2},
		{ID: 4, ParentID: 1, Order: 1},
		{ID: 3, ParentID: 1, Order: 1},
		{ID: 1},
	})
	assert.Equal(t, []int64{3, 4, 5}, a.children[1])
	assert.Empty(t, a.children[0])
}
