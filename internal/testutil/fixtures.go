package testutil

// DocumentFixture pairs an input text with the structure expected from it.
type DocumentFixture struct {
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Profile     string           `json:"profile"`
	Input       string           `json:"input"`
	Expected    ExpectedDocument `json:"expected"`
}

// ExpectedDocument is the subset of a structured document a fixture checks.
type ExpectedDocument struct {
	BulletPoints []string          `json:"bullet_points"`
	KeyValues    map[string]string `json:"key_values"`
	Tables       [][][]string      `json:"tables"`
	Paragraphs   []string          `json:"paragraphs"`
	TotalLines   int               `json:"total_lines"`
}

// SampleFixtures returns the reference scenarios every surface is checked against.
func SampleFixtures() []DocumentFixture {
	return []DocumentFixture{
		{
			Name:        "key_value",
			Description: "A labelled field becomes a key-value pair",
			Profile:     "default",
			Input:       "Name: John Smith",
			Expected: ExpectedDocument{
				KeyValues:  map[string]string{"Name": "John Smith"},
				TotalLines: 1,
			},
		},
		{
			Name:        "numbered_bullet",
			Description: "A numbered item is a bullet, not a paragraph",
			Profile:     "default",
			Input:       "1. Buy milk",
			Expected: ExpectedDocument{
				BulletPoints: []string{"1. Buy milk"},
				TotalLines:   1,
			},
		},
		{
			Name:        "table_block",
			Description: "Consecutive numeric rows form one table",
			Profile:     "default",
			Input:       "A1 10 5\nB2 20 7\nC3 30 9\nEnd",
			Expected: ExpectedDocument{
				Tables:     [][][]string{{{"A1", "10", "5"}, {"B2", "20", "7"}, {"C3", "30", "9"}}},
				TotalLines: 4,
			},
		},
		{
			Name:        "artifacts_only",
			Description: "Input reduced to nothing yields an empty document",
			Profile:     "default",
			Input:       "\x00\n\ufeff\n   ",
			Expected:    ExpectedDocument{},
		},
		{
			Name:        "todo_meeting_notes",
			Description: "TODO lines are bullets in meeting notes",
			Profile:     "meeting-notes",
			Input:       "TODO: call Bob",
			Expected: ExpectedDocument{
				BulletPoints: []string{"TODO: call Bob"},
				TotalLines:   1,
			},
		},
		{
			Name:        "todo_default",
			Description: "TODO lines are key-value pairs by default",
			Profile:     "default",
			Input:       "TODO: call Bob",
			Expected: ExpectedDocument{
				KeyValues:  map[string]string{"TODO": "call Bob"},
				TotalLines: 1,
			},
		},
		{
			Name:        "paragraph",
			Description: "A six-word sentence is a paragraph",
			Profile:     "default",
			Input:       "The quick brown fox jumps high",
			Expected: ExpectedDocument{
				Paragraphs: []string{"The quick brown fox jumps high"},
				TotalLines: 1,
			},
		},
	}
}
