package core

import "strings"

// Field names a searchable or filterable attribute of a document.
type Field string

// Searchable fields.
const (
	FieldAll        Field = "all_fields"
	FieldTitle      Field = "title"
	FieldAuthorName Field = "author_name"
	FieldAuthorOrg  Field = "author_org"
	FieldTitleName  Field = "title_name"
	FieldFullText   Field = "full_text"
)

// Tag fields, matched by exact equality.
const (
	FieldCategoryType     Field = "category_type"
	FieldSpecificCategory Field = "doc_specific_category"
	FieldStyle            Field = "doc_style"
	FieldDynasty          Field = "dynasty"
	FieldTheme            Field = "doc_theme"
)

// FieldKind classifies how a field participates in a query.
type FieldKind int

const (
	// KindUnknown is a field name the compiler does not recognise.
	KindUnknown FieldKind = iota
	// KindWildcard is the "all fields" target that triggers fan-out.
	KindWildcard
	// KindText is matched with a full-text predicate.
	KindText
	// KindTag is matched by exact equality on a document column.
	KindTag
)

var fieldAliases = map[string]Field{
	"all_fields":            FieldAll,
	"title":                 FieldTitle,
	"doc_title":             FieldTitle,
	"literature":            FieldTitle,
	"author_name":           FieldAuthorName,
	"author":                FieldAuthorName,
	"author_org":            FieldAuthorOrg,
	"title_name":            FieldTitleName,
	"full_text":             FieldFullText,
	"category_type":         FieldCategoryType,
	"doc_specific_category": FieldSpecificCategory,
	"specific_category":     FieldSpecificCategory,
	"doc_style":             FieldStyle,
	"document_type":         FieldStyle,
	"dynasty":               FieldDynasty,
	"doc_theme":             FieldTheme,
	"theme":                 FieldTheme,
}

// ParseField resolves a field name or alias. Unknown names are returned
// unchanged with ok=false so callers can choose to drop or reject them.
func ParseField(name string) (f Field, ok bool) {
	key := strings.ToLower(strings.TrimSpace(name))
	if f, ok := fieldAliases[key]; ok {
		return f, true
	}
	return Field(key), false
}

// Kind returns the classification of f.
func (f Field) Kind() FieldKind {
	switch f {
	case FieldAll:
		return KindWildcard
	case FieldTitle, FieldAuthorName, FieldAuthorOrg, FieldTitleName, FieldFullText:
		return KindText
	case FieldCategoryType, FieldSpecificCategory, FieldStyle, FieldDynasty, FieldTheme:
		return KindTag
	default:
		return KindUnknown
	}
}

// Known reports whether f is recognised by the compiler.
func (f Field) Known() bool { return f.Kind() != KindUnknown }

// MetadataFields are the fields searched by the metadata half of a fan-out.
var MetadataFields = []Field{FieldTitle, FieldAuthorName, FieldAuthorOrg, FieldTitleName}

// HighlightFields are the result fields that receive highlight markup.
var HighlightFields = []Field{FieldTitle, FieldAuthorName, FieldAuthorOrg, FieldTitleName, FieldFullText}

// FieldNames returns the canonical field names, search fields first.
func FieldNames() []string {
	return []string{
		string(FieldAll), string(FieldTitle), string(FieldAuthorName), string(FieldAuthorOrg),
		string(FieldTitleName), string(FieldFullText), string(FieldCategoryType),
		string(FieldSpecificCategory), string(FieldStyle), string(FieldDynasty), string(FieldTheme),
	}
}
