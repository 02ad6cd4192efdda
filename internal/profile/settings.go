//nolint:lll
package profile

import "slices"

// Registry names.
const (
	Default       = "default"
	AcademicPaper = "academic-paper"
	MeetingNotes  = "meeting-notes"
	LectureNotes  = "lecture-notes"
)

// Settings is the plain, copyable description of a detection profile. It is
// what configuration files and genre builders work with; New turns it into an
// immutable Profile.
type Settings struct {
	Name string `mapstructure:"name" yaml:"name" json:"name"`

	// Bullet detection
	BulletPatterns []string `mapstructure:"bullet_patterns" yaml:"bullet_patterns" json:"bullet_patterns"`

	// Table detection
	MinTableColumns       int      `mapstructure:"min_table_columns" yaml:"min_table_columns" json:"min_table_columns"`
	TableDelimiters       []string `mapstructure:"table_delimiters" yaml:"table_delimiters" json:"table_delimiters"`
	TableNumericThreshold float64  `mapstructure:"table_numeric_threshold" yaml:"table_numeric_threshold" json:"table_numeric_threshold"`

	// Key-value detection
	MaxKeyWords   int      `mapstructure:"max_key_words" yaml:"max_key_words" json:"max_key_words"`
	MinValueWords int      `mapstructure:"min_value_words" yaml:"min_value_words" json:"min_value_words"`
	KeyPrefixes   []string `mapstructure:"key_prefixes" yaml:"key_prefixes" json:"key_prefixes"`

	// Paragraph detection
	MinParagraphWords int `mapstructure:"min_paragraph_words" yaml:"min_paragraph_words" json:"min_paragraph_words"`
	MaxParagraphWords int `mapstructure:"max_paragraph_words" yaml:"max_paragraph_words" json:"max_paragraph_words"`
	MinParagraphChars int `mapstructure:"min_paragraph_chars" yaml:"min_paragraph_chars" json:"min_paragraph_chars"`

	// Sections
	SectionGrouping bool `mapstructure:"section_grouping" yaml:"section_grouping" json:"section_grouping"`
	MaxSectionGap   int  `mapstructure:"max_section_gap" yaml:"max_section_gap" json:"max_section_gap"`

	// Text clean-up
	Artifacts  []string `mapstructure:"artifacts" yaml:"artifacts" json:"artifacts"`
	StripChars string   `mapstructure:"strip_chars" yaml:"strip_chars" json:"strip_chars"`

	// Layout
	UseFontSize   bool    `mapstructure:"use_font_size" yaml:"use_font_size" json:"use_font_size"`
	UseSpatial    bool    `mapstructure:"use_spatial" yaml:"use_spatial" json:"use_spatial"`
	MinConfidence float64 `mapstructure:"min_confidence" yaml:"min_confidence" json:"min_confidence"`

	Debug bool `mapstructure:"debug" yaml:"debug" json:"debug"`
}

// DefaultSettings returns the base profile every genre builds on. Each call
// returns fresh slices, so callers may append to them freely.
func DefaultSettings() Settings {
	return Settings{
		Name: Default,
		BulletPatterns: []string{
			`^[•\-\*\+]\s+`,    // •, -, *, +
			`^\d+\.\s+`,        // 1.
			`^[a-z]\)\s+`,      // a)
			`^[ivxIVX]+\.\s+`,  // iv.
			`^\([a-z]\)\s+`,    // (a)
			`^\(\d+\)\s+`,      // (1)
			`^○\s+`,
			`^◦\s+`,
			`^▪\s+`,
			`^→\s+`,
		},
		MinTableColumns:       3,
		TableDelimiters:       []string{"|", "/", `\`, "\t"},
		TableNumericThreshold: 0.3,
		MaxKeyWords:           4,
		MinValueWords:         1,
		KeyPrefixes: []string{
			"name", "date", "author", "title", "subject",
			"email", "phone", "address", "location",
			"price", "cost", "total", "amount",
			"status", "type", "category", "description",
		},
		MinParagraphWords: 5,
		MaxParagraphWords: 20,
		MinParagraphChars: 20,
		SectionGrouping:   true,
		MaxSectionGap:     2,
		Artifacts:         []string{"\x00", "\ufeff"},
		StripChars:        " \t\n\r",
		UseFontSize:       true,
		UseSpatial:        true,
		MinConfidence:     0.5,
		Debug:             true,
	}
}

// AcademicPaperSettings extends the base key prefixes with bibliographic labels.
func AcademicPaperSettings() Settings {
	s := DefaultSettings()
	s.Name = AcademicPaper
	s.KeyPrefixes = append(s.KeyPrefixes,
		"doi", "issn", "journal", "volume", "issue",
		"keywords", "citations", "funding",
	)
	return s
}

// MeetingNotesSettings adds checkbox and action-item markers and accepts
// two-column tables.
func MeetingNotesSettings() Settings {
	s := DefaultSettings()
	s.Name = MeetingNotes
	s.BulletPatterns = append(s.BulletPatterns,
		`^\[ \]\s+`,
		`^\[x\]\s+`,
		`^TODO:\s+`,
		`^Action:\s+`,
	)
	s.MinTableColumns = 2
	return s
}

// LectureNotesSettings adds emphasis and exclamation markers.
func LectureNotesSettings() Settings {
	s := DefaultSettings()
	s.Name = LectureNotes
	s.BulletPatterns = append(s.BulletPatterns,
		`^\*\*\s+`,
		`^⭐\s+`,
		`^!\s+`,
	)
	return s
}

// clone deep-copies the slices of s.
func (s Settings) clone() Settings {
	s.BulletPatterns = slices.Clone(s.BulletPatterns)
	s.TableDelimiters = slices.Clone(s.TableDelimiters)
	s.KeyPrefixes = slices.Clone(s.KeyPrefixes)
	s.Artifacts = slices.Clone(s.Artifacts)
	return s
}
