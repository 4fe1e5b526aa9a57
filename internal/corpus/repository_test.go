package corpus

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leishu/pkg/core"
	"github.com/leapstack-labs/leishu/pkg/dialects/postgres"
	"github.com/leapstack-labs/leishu/pkg/dialects/sqlite"
	"github.com/leapstack-labs/leishu/pkg/plan"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func projectionNames(p *plan.Plan) []string {
	var names []string
	for _, c := range p.Projection() {
		names = append(names, c.Name)
	}
	return names
}

func TestSearch_ScansProjection(t *testing.T) {
	db, mock := newMock(t)
	repo := New(sqlite.SQLite)

	p, err := plan.Build(core.Query{Conditions: []core.Condition{
		{Field: core.FieldTitleName, Keyword: "卷一"},
		{Field: core.FieldFullText, Keyword: "永乐", Logic: core.LogicAnd},
	}}, plan.Options{})
	require.NoError(t, err)
	rendered := p.Render(sqlite.SQLite)

	rows := sqlmock.NewRows(projectionNames(p)).
		AddRow(int64(1), "永乐大典", "明", int64(1), "类书", "类事", nil, "永乐年间",
			int64(10), "卷一", int64(100), int64(10), "永乐元年", int64(3), "A", int64(7)).
		AddRow(int64(2), "太平御览", nil, nil, nil, nil, nil, nil,
			int64(20), "卷一", int64(200), nil, "永乐", int64(1), nil, nil)
	mock.ExpectQuery(rendered.SQL).WithArgs("卷一", "永乐").WillReturnRows(rows)

	results, err := repo.Search(context.Background(), db, p)
	require.NoError(t, err)
	require.Len(t, results, 2)

	first := results[0]
	assert.Equal(t, int64(1), first.DocID)
	assert.Equal(t, core.Some("永乐大典"), first.DocTitle)
	assert.Equal(t, core.Some("1"), first.CategoryType)
	assert.False(t, first.Theme.IsSet())
	assert.Equal(t, core.Some(int64(10)), first.TitleID)
	assert.Equal(t, core.Some(int64(100)), first.FullTextID)
	assert.Equal(t, core.Some("A"), first.PageSide)
	assert.Equal(t, core.Some(int64(7)), first.PageID)

	second := results[1]
	assert.False(t, second.Dynasty.IsSet())
	assert.False(t, second.PageSide.IsSet())
	assert.False(t, second.PageID.IsSet())
	assert.False(t, second.AuthorName.IsSet())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSearch_SegmentTitleFillsTitleID(t *testing.T) {
	db, mock := newMock(t)
	repo := New(sqlite.SQLite)

	p, err := plan.Build(core.Query{Conditions: []core.Condition{
		{Field: core.FieldFullText, Keyword: "大典"},
	}}, plan.Options{Limit: 5})
	require.NoError(t, err)

	rows := sqlmock.NewRows(projectionNames(p)).
		AddRow(int64(1), "永乐大典", nil, nil, nil, nil, nil, nil,
			int64(100), int64(12), "大典", int64(1), "B", nil)
	mock.ExpectQuery(p.Render(sqlite.SQLite).SQL).WithArgs("大典").WillReturnRows(rows)

	results, err := repo.Search(context.Background(), db, p)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, core.Some(int64(12)), results[0].TitleID)
	assert.False(t, results[0].TitleName.IsSet())
}

func TestSearch_QueryErrorCarriesStatement(t *testing.T) {
	db, mock := newMock(t)
	repo := New(sqlite.SQLite)

	p, err := plan.Build(core.Query{Conditions: []core.Condition{{Field: core.FieldTitle, Keyword: "永乐"}}}, plan.Options{})
	require.NoError(t, err)
	rendered := p.Render(sqlite.SQLite)

	boom := errors.New("connection reset")
	mock.ExpectQuery(rendered.SQL).WillReturnError(boom)

	_, err = repo.Search(context.Background(), db, p)
	require.Error(t, err)

	var qe *QueryError
	require.ErrorAs(t, err, &qe)
	assert.Equal(t, rendered.SQL, qe.SQL)
	assert.Equal(t, []any{"永乐"}, qe.Args)
	assert.ErrorIs(t, err, boom)
}

func TestAuthors(t *testing.T) {
	db, mock := newMock(t)
	repo := New(postgres.Postgres)

	mock.ExpectQuery("SELECT a.author_id, a.author_name, a.author_org FROM document_author_links dal "+
		"INNER JOIN authors a ON a.author_id = dal.author_id WHERE dal.doc_id = $1 ORDER BY dal.da_id LIMIT 3").
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"author_id", "author_name", "author_org"}).
			AddRow(int64(1), "解缙", "翰林院").
			AddRow(int64(2), "姚广孝", nil))

	authors, err := repo.Authors(context.Background(), db, 5, 3)
	require.NoError(t, err)
	assert.Equal(t, []core.Author{{ID: 1, Name: "解缙", Org: "翰林院"}, {ID: 2, Name: "姚广孝"}}, authors)
}

func TestTitles(t *testing.T) {
	db, mock := newMock(t)
	repo := New(sqlite.SQLite)

	mock.ExpectQuery("SELECT t.title_id, t.title_name, t.title_level, t.parent_id, t.title_order, t.doc_id "+
		"FROM titles t WHERE t.doc_id = ? ORDER BY t.title_order, t.title_id").
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"title_id", "title_name", "title_level", "parent_id", "title_order", "doc_id"}).
			AddRow(int64(10), "卷一", "h1", nil, int64(1), int64(1)).
			AddRow(int64(11), "天部", "h2", int64(10), int64(1), int64(1)))

	titles, err := repo.Titles(context.Background(), db, 1)
	require.NoError(t, err)
	require.Len(t, titles, 2)
	assert.Equal(t, int64(0), titles[0].ParentID)
	assert.Equal(t, int64(10), titles[1].ParentID)
	assert.Equal(t, core.TitleLevelH2, titles[1].Level)
}

func TestFirstSegmentOfTitle(t *testing.T) {
	db, mock := newMock(t)
	repo := New(sqlite.SQLite)
	cols := []string{"full_text_id", "full_text", "full_text_order", "title_id", "text_type", "related_id", "doc_id", "page_number", "page_type"}

	stmt := "SELECT " + segmentColumns + " FROM full_text_1 f " +
		"WHERE f.title_id = ? AND f.full_text <> '' ORDER BY f.full_text_order, f.full_text_id LIMIT 1"
	mock.ExpectQuery(stmt).WithArgs(int64(11)).
		WillReturnRows(sqlmock.NewRows(cols).AddRow(int64(100), "天者", int64(1), int64(11), "正文", nil, int64(1), int64(2), "A"))
	mock.ExpectQuery(stmt).WithArgs(int64(12)).WillReturnRows(sqlmock.NewRows(cols))

	seg, found, err := repo.FirstSegmentOfTitle(context.Background(), db, 11)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, core.TextSegment{
		ID: 100, Text: "天者", Order: 1, TitleID: 11, Type: core.TextTypeMain, DocID: 1, PageNumber: 2, PageSide: core.PageSideA,
	}, seg)

	_, found, err = repo.FirstSegmentOfTitle(context.Background(), db, 12)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestPageID(t *testing.T) {
	db, mock := newMock(t)
	repo := New(sqlite.SQLite)

	_, found, err := repo.PageID(context.Background(), db, 1, 2, "")
	require.NoError(t, err)
	assert.False(t, found)

	mock.ExpectQuery("SELECT pg.page_id FROM pages pg WHERE pg.doc_id = ? AND pg.page_number = ? AND pg.page_type = ? ORDER BY pg.page_id LIMIT 1").
		WithArgs(int64(1), int64(2), "B").
		WillReturnRows(sqlmock.NewRows([]string{"page_id"}).AddRow(int64(42)))

	id, found, err := repo.PageID(context.Background(), db, 1, 2, core.PageSideB)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, int64(42), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSegments_KeepsManifestOrder(t *testing.T) {
	db, mock := newMock(t)
	repo := New(sqlite.SQLite)

	cols := []string{"full_text_id", "full_text", "full_text_order", "title_id", "text_type", "related_id", "doc_id", "page_number", "page_type", "title_name"}
	mock.ExpectQuery("SELECT "+segmentColumns+", t.title_name FROM full_text_1 f "+
		"LEFT JOIN titles t ON t.title_id = f.title_id WHERE f.full_text_id IN (?, ?, ?)").
		WithArgs(int64(3), int64(1), int64(9)).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(int64(1), "甲", int64(1), int64(10), "正文", nil, int64(1), int64(1), "A", "卷一").
			AddRow(int64(3), "乙", int64(2), nil, "引文", int64(1), int64(1), int64(1), "A", nil))

	segs, err := repo.Segments(context.Background(), db, []int64{3, 1, 9})
	require.NoError(t, err)
	require.Len(t, segs, 2)
	assert.Equal(t, int64(3), segs[0].Segment.ID)
	assert.Equal(t, int64(1), segs[0].Segment.RelatedID)
	assert.Equal(t, "", segs[0].TitleName)
	assert.Equal(t, "卷一", segs[1].TitleName)
}

func TestSimilarSegments_Emulated(t *testing.T) {
	db, mock := newMock(t)
	repo := New(sqlite.SQLite)

	mock.ExpectQuery("SELECT f.full_text_id, f.full_text, "+
		"CASE WHEN instr(f.full_text, ?) > 0 THEN 1 ELSE 0 END + CASE WHEN instr(f.full_text, ?) > 0 THEN 1 ELSE 0 END AS score "+
		"FROM full_text_1 f WHERE instr(f.full_text, ?) > 0 OR instr(f.full_text, ?) > 0 "+
		"ORDER BY score DESC, f.full_text_id LIMIT 50").
		WithArgs("永乐", "乐大", "永乐", "乐大").
		WillReturnRows(sqlmock.NewRows([]string{"full_text_id", "full_text", "score"}).
			AddRow(int64(7), "永乐大典", int64(2)))

	got, err := repo.SimilarSegments(context.Background(), db, "永乐大", []string{"永乐", "乐大"}, 50)
	require.NoError(t, err)
	assert.Equal(t, []Candidate{{SegmentID: 7, Text: "永乐大典", Score: 2}}, got)

	none, err := repo.SimilarSegments(context.Background(), db, "永乐大", nil, 50)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestParseIDList(t *testing.T) {
	tests := []struct {
		in      string
		want    []int64
		wantErr bool
	}{
		{in: "", want: nil},
		{in: "1,2,3", want: []int64{1, 2, 3}},
		{in: " 4 , ,5,", want: []int64{4, 5}},
		{in: "1,x", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseIDList(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
