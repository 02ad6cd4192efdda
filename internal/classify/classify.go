package classify

import (
	"strings"

	"github.com/MeKo-Tech/notepeel/internal/document"
	"github.com/MeKo-Tech/notepeel/internal/profile"
)

// Result is the outcome of classifying one line on its own.
type Result struct {
	Kind    document.Kind `json:"type" yaml:"type"`
	Text    string        `json:"text" yaml:"text"`
	Key     string        `json:"key,omitempty" yaml:"key,omitempty"`
	Value   string        `json:"value,omitempty" yaml:"value,omitempty"`
	Words   []string      `json:"words,omitempty" yaml:"words,omitempty"`
	Pattern string        `json:"pattern,omitempty" yaml:"pattern,omitempty"`
	Row     RowStats      `json:"row" yaml:"row"`
}

// Classify applies the detectors in priority order: bullet, key-value,
// table row, paragraph. A line no detector accepts is KindOther.
func Classify(line string, p *profile.Profile) Result {
	r := Result{Kind: document.KindOther, Text: line}

	if pattern, ok := MatchBullet(line, p); ok {
		r.Kind, r.Pattern = document.KindBullet, pattern
		return r
	}
	if k, v, ok := KeyValue(line, p); ok {
		r.Kind, r.Key, r.Value = document.KindKeyValue, k, v
		return r
	}

	words := strings.Fields(line)
	r.Row = AnalyzeRow(words, p)
	if r.Row.Accepted {
		r.Kind, r.Words = document.KindTableRow, words
		return r
	}
	if IsParagraph(line, p) {
		r.Kind = document.KindParagraph
	}
	return r
}
