package core

// TitleLevel is the depth label of a Title node.
type TitleLevel string

// Title levels.
const (
	TitleLevelDocument TitleLevel = "document"
	TitleLevelH1       TitleLevel = "h1"
	TitleLevelH2       TitleLevel = "h2"
	TitleLevelH3       TitleLevel = "h3"
	TitleLevelH4       TitleLevel = "h4"
)

// TextType classifies a TextSegment.
type TextType string

// Text segment types as stored in the corpus.
const (
	TextTypeMain       TextType = "正文"
	TextTypeQuote      TextType = "引文"
	TextTypeAnnotation TextType = "注疏"
	TextTypeReference  TextType = "引书"
)

// PageSide is the recto/verso marker of a page.
type PageSide string

// Page sides.
const (
	PageSideA PageSide = "A"
	PageSideB PageSide = "B"
)

// Document is a primary compendium or an excerpted document.
type Document struct {
	ID               int64
	Title            string
	Origins          []int64 // ids of the compendia this document was excerpted from
	CategoryType     string
	SpecificCategory string
	Style            string
	Theme            string
	Dynasty          string
	CompilationTime  string
	PrintingTime     string
	PublicationTime  string
	Primary          bool
}

// Title is a node of a document's heading tree.
// ParentID is zero for root titles.
type Title struct {
	ID       int64
	Name     string
	Level    TitleLevel
	ParentID int64
	Order    int
	DocID    int64
}

// TextSegment is one ordered passage of body text.
// TitleID and RelatedID are zero when absent.
type TextSegment struct {
	ID         int64
	Text       string
	Order      int
	TitleID    int64
	Type       TextType
	RelatedID  int64
	DocID      int64
	PageNumber int64
	PageSide   PageSide
}

// Page is a physical page of a document with its ordered segment manifest.
type Page struct {
	ID         int64
	DocID      int64
	SegmentIDs []int64
	Number     int64
	Side       PageSide
	TitleID    int64
}

// Author is a compiler, translator or proofreader.
type Author struct {
	ID   int64
	Name string
	Org  string
}

// DocumentAuthorLink ties an author to a document with a role.
type DocumentAuthorLink struct {
	DocID    int64
	AuthorID int64
	Role     string
}
