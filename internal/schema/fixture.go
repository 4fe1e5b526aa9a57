package schema

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/leapstack-labs/leishu/pkg/core"
	"github.com/leapstack-labs/leishu/pkg/dialect"
)

//go:embed fixtures/sample.yaml
var sampleFixture []byte

// Fixture is a corpus described in YAML.
type Fixture struct {
	Documents []DocumentRow `yaml:"documents"`
	Authors   []AuthorRow   `yaml:"authors"`
	Links     []LinkRow     `yaml:"links"`
	Titles    []TitleRow    `yaml:"titles"`
	Segments  []SegmentRow  `yaml:"segments"`
	Pages     []PageRow     `yaml:"pages"`
}

// DocumentRow is a fixture document.
type DocumentRow struct {
	ID               int64   `yaml:"id"`
	Title            string  `yaml:"title"`
	CategoryType     bool    `yaml:"category_type"`
	SpecificCategory string  `yaml:"specific_category"`
	Style            string  `yaml:"style"`
	Theme            string  `yaml:"theme"`
	Dynasty          string  `yaml:"dynasty"`
	CompilationTime  string  `yaml:"compilation_time"`
	PrintingTime     string  `yaml:"printing_time"`
	PublicationTime  string  `yaml:"publication_time"`
	Primary          *bool   `yaml:"primary"`
	Origins          []int64 `yaml:"origins"`
}

// AuthorRow is a fixture author.
type AuthorRow struct {
	ID   int64  `yaml:"id"`
	Name string `yaml:"name"`
	Org  string `yaml:"org"`
}

// LinkRow ties a fixture author to a document.
type LinkRow struct {
	DocID    int64  `yaml:"doc_id"`
	AuthorID int64  `yaml:"author_id"`
	Role     string `yaml:"role"`
}

// TitleRow is a fixture title. Parents must be listed before children.
type TitleRow struct {
	ID       int64  `yaml:"id"`
	DocID    int64  `yaml:"doc_id"`
	Name     string `yaml:"name"`
	Level    string `yaml:"level"`
	ParentID int64  `yaml:"parent_id"`
	Order    int    `yaml:"order"`
}

// SegmentRow is a fixture text segment.
type SegmentRow struct {
	ID         int64  `yaml:"id"`
	DocID      int64  `yaml:"doc_id"`
	TitleID    int64  `yaml:"title_id"`
	Order      int    `yaml:"order"`
	Type       string `yaml:"type"`
	RelatedID  int64  `yaml:"related_id"`
	Text       string `yaml:"text"`
	PageNumber int64  `yaml:"page_number"`
	PageSide   string `yaml:"page_side"`
}

// PageRow is a fixture page with its segment manifest.
type PageRow struct {
	ID       int64   `yaml:"id"`
	DocID    int64   `yaml:"doc_id"`
	Segments []int64 `yaml:"segments"`
	Number   int64   `yaml:"number"`
	Side     string  `yaml:"side"`
	TitleID  int64   `yaml:"title_id"`
}

// ParseFixture decodes a YAML fixture.
func ParseFixture(data []byte) (*Fixture, error) {
	var fx Fixture
	if err := yaml.Unmarshal(data, &fx); err != nil {
		return nil, fmt.Errorf("failed to parse fixture: %w", err)
	}
	return &fx, nil
}

// LoadFixture reads a YAML fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is supplied by the operator
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture: %w", err)
	}
	return ParseFixture(data)
}

// Sample returns the built-in sample corpus.
func Sample() *Fixture {
	fx, err := ParseFixture(sampleFixture)
	if err != nil {
		panic(err)
	}
	return fx
}

// Core converts the fixture documents into domain values.
func (d DocumentRow) Core() core.Document {
	return core.Document{
		ID:               d.ID,
		Title:            d.Title,
		Origins:          d.Origins,
		CategoryType:     boolFlag(d.CategoryType),
		SpecificCategory: d.SpecificCategory,
		Style:            d.Style,
		Theme:            d.Theme,
		Dynasty:          d.Dynasty,
		CompilationTime:  d.CompilationTime,
		PrintingTime:     d.PrintingTime,
		PublicationTime:  d.PublicationTime,
		Primary:          d.Primary == nil || *d.Primary,
	}
}

// Seed inserts fx inside one transaction. Nothing is written on error.
func Seed(ctx context.Context, db *sql.DB, d *dialect.Dialect, fx *Fixture) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin seed transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	exec := func(stmt string, args ...any) error {
		if _, err := tx.ExecContext(ctx, d.Rebind(stmt), args...); err != nil {
			return fmt.Errorf("failed to seed: %w", err)
		}
		return nil
	}

	for _, row := range fx.Documents {
		doc := row.Core()
		if err = exec("INSERT INTO documents (doc_id, doc_title, category_type, doc_specific_category, doc_style, doc_theme, "+
			"dynasty, compilation_time, printing_time, publication_time, doc_type, doc_origin_id) "+
			"VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
			doc.ID, doc.Title, boolInt(row.CategoryType), nullString(doc.SpecificCategory), nullString(doc.Style), nullString(doc.Theme),
			nullString(doc.Dynasty), nullString(doc.CompilationTime), nullString(doc.PrintingTime),
			nullString(doc.PublicationTime), doc.Primary, nullString(joinIDs(doc.Origins))); err != nil {
			return err
		}
	}
	for _, a := range fx.Authors {
		if err = exec("INSERT INTO authors (author_id, author_name, author_org) VALUES (?, ?, ?)",
			a.ID, a.Name, nullString(a.Org)); err != nil {
			return err
		}
	}
	for _, l := range fx.Links {
		if err = exec("INSERT INTO document_author_links (doc_id, author_id, role) VALUES (?, ?, ?)",
			l.DocID, l.AuthorID, nullString(l.Role)); err != nil {
			return err
		}
	}
	for _, t := range fx.Titles {
		if err = exec("INSERT INTO titles (title_id, title_name, title_level, parent_id, title_order, doc_id) VALUES (?, ?, ?, ?, ?, ?)",
			t.ID, t.Name, nullString(t.Level), nullID(t.ParentID), t.Order, t.DocID); err != nil {
			return err
		}
	}
	for _, s := range fx.Segments {
		if err = exec("INSERT INTO full_text_1 (full_text_id, full_text, full_text_order, title_id, text_type, related_id, "+
			"doc_id, page_number, page_type) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
			s.ID, s.Text, s.Order, nullID(s.TitleID), nullString(s.Type), nullID(s.RelatedID),
			s.DocID, s.PageNumber, nullString(s.PageSide)); err != nil {
			return err
		}
	}
	for _, p := range fx.Pages {
		if err = exec("INSERT INTO pages (page_id, doc_id, full_text_id_list, page_number, page_type, title_id) VALUES (?, ?, ?, ?, ?, ?)",
			p.ID, p.DocID, joinIDs(p.Segments), p.Number, p.Side, nullID(p.TitleID)); err != nil {
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit seed: %w", err)
	}
	return nil
}

func joinIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ",")
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullID(id int64) sql.NullInt64 {
	return sql.NullInt64{Int64: id, Valid: id != 0}
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func boolFlag(b bool) string {
	return strconv.Itoa(boolInt(b))
}
