// Package document holds the data model shared by the normalizer, classifiers,
// layout annotator and assembler: normalized lines, classified lines, table
// blocks, sections and the structured document returned to callers.
package document

// Kind tags a ClassifiedLine.
type Kind string

const (
	KindBullet    Kind = "bullet"
	KindKeyValue  Kind = "key_value"
	KindTableRow  Kind = "table_row"
	KindParagraph Kind = "paragraph"
	KindOther     Kind = "other"
)

// String returns the kind's wire name.
func (k Kind) String() string { return string(k) }

// Geometry is the optional vertical placement of a line on its page.
type Geometry struct {
	Top    float64 `json:"top" yaml:"top"`
	Height float64 `json:"height" yaml:"height"`
}

// Line is a normalized, non-empty line of recognized text.
type Line struct {
	Text     string    `json:"text" yaml:"text"`
	Number   int       `json:"number" yaml:"number"` // 1-based
	Geometry *Geometry `json:"geometry,omitempty" yaml:"geometry,omitempty"`
}

// ClassifiedLine is one line after classification. Which payload fields are
// set depends on Kind: Key and Value for key_value, Words for table_row,
// Text for everything else.
type ClassifiedLine struct {
	Kind   Kind     `json:"type" yaml:"type"`
	Line   int      `json:"line" yaml:"line"`
	Text   string   `json:"text,omitempty" yaml:"text,omitempty"`
	Key    string   `json:"key,omitempty" yaml:"key,omitempty"`
	Value  string   `json:"value,omitempty" yaml:"value,omitempty"`
	Words  []string `json:"words,omitempty" yaml:"words,omitempty"`
	Top    *float64 `json:"top,omitempty" yaml:"top,omitempty"`
	Height *float64 `json:"height,omitempty" yaml:"height,omitempty"`
}

// Table is a block of consecutive table rows, each row a word list.
type Table [][]string

// Section groups classified lines under an optional title.
type Section struct {
	Title   *string          `json:"title" yaml:"title"`
	Content []ClassifiedLine `json:"content" yaml:"content"`
}

// Metadata describes the analysis run. Pointer fields are nil when the
// upstream layout did not provide the information.
type Metadata struct {
	TotalLines       int       `json:"total_lines" yaml:"total_lines"`
	AvgFontSize      *float64  `json:"avg_font_size" yaml:"avg_font_size"`
	PageHeight       *float64  `json:"page_height" yaml:"page_height"`
	ProfileName      string    `json:"profile_name" yaml:"profile_name"`
	ParagraphOffsets []float64 `json:"paragraph_offsets,omitempty" yaml:"paragraph_offsets,omitempty"`
}

// StructuredDocument is the result of one analysis. It is owned by the caller.
type StructuredDocument struct {
	Headers      []string   `json:"headers" yaml:"headers"`
	Sections     []Section  `json:"sections" yaml:"sections"`
	KeyValues    *KeyValues `json:"key_values" yaml:"key_values"`
	BulletPoints []string   `json:"bullet_points" yaml:"bullet_points"`
	Tables       []Table    `json:"tables" yaml:"tables"`
	Paragraphs   []string   `json:"paragraphs" yaml:"paragraphs"`
	Metadata     Metadata   `json:"metadata" yaml:"metadata"`
}

// New returns an empty document whose collections are non-nil, so they
// serialize as empty lists rather than null.
func New(profileName string) *StructuredDocument {
	return &StructuredDocument{
		Headers:      []string{},
		Sections:     []Section{},
		KeyValues:    NewKeyValues(),
		BulletPoints: []string{},
		Tables:       []Table{},
		Paragraphs:   []string{},
		Metadata:     Metadata{ProfileName: profileName},
	}
}

// ContentCount returns the number of classified lines across all sections.
func (d *StructuredDocument) ContentCount() int {
	n := 0
	for _, s := range d.Sections {
		n += len(s.Content)
	}
	return n
}

// CountByKind tallies classified lines by kind across all sections.
func (d *StructuredDocument) CountByKind() map[Kind]int {
	counts := make(map[Kind]int)
	for _, s := range d.Sections {
		for _, c := range s.Content {
			counts[c.Kind]++
		}
	}
	return counts
}
