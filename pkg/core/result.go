package core

// MatchSource records which fan-out sub-search produced a result.
type MatchSource string

// Match sources. Direct searches leave the source empty.
const (
	SourceMetadata MatchSource = "metadata"
	SourceFullText MatchSource = "full_text"
)

// Result is one enriched search hit. Absent fields encode as null.
type Result struct {
	DocID            int64            `json:"doc_id"`
	DocTitle         Optional[string] `json:"doc_title"`
	Dynasty          Optional[string] `json:"dynasty"`
	CategoryType     Optional[string] `json:"category_type"`
	SpecificCategory Optional[string] `json:"doc_specific_category"`
	Style            Optional[string] `json:"doc_style"`
	Theme            Optional[string] `json:"doc_theme"`
	CompilationTime  Optional[string] `json:"compilation_time"`
	AuthorName       Optional[string] `json:"author_name"`
	AuthorOrg        Optional[string] `json:"author_org"`
	TitleID          Optional[int64]  `json:"title_id"`
	TitleName        Optional[string] `json:"title_name"`
	FullTextID       Optional[int64]  `json:"full_text_id"`
	FullText         Optional[string] `json:"full_text"`
	PageNumber       Optional[int64]  `json:"page_number"`
	PageSide         Optional[string] `json:"page_type"`
	PageID           Optional[int64]  `json:"page_id"`
	Source           MatchSource      `json:"match_source,omitempty"`
}

// Text returns a pointer to the highlightable text field for f, or nil.
func (r *Result) Text(f Field) *Optional[string] {
	switch f {
	case FieldTitle:
		return &r.DocTitle
	case FieldAuthorName:
		return &r.AuthorName
	case FieldAuthorOrg:
		return &r.AuthorOrg
	case FieldTitleName:
		return &r.TitleName
	case FieldFullText:
		return &r.FullText
	default:
		return nil
	}
}
