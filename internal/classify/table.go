package classify

import (
	"strings"
	"unicode"

	"github.com/MeKo-Tech/notepeel/internal/profile"
)

// RowStats explains a table-row decision.
type RowStats struct {
	Columns      int     `json:"columns" yaml:"columns"`
	NumericWords int     `json:"numeric_words" yaml:"numeric_words"`
	NumericRatio float64 `json:"numeric_ratio" yaml:"numeric_ratio"`
	HasDelimiter bool    `json:"has_delimiter" yaml:"has_delimiter"`
	Accepted     bool    `json:"accepted" yaml:"accepted"`
}

// AnalyzeRow measures words against the profile's table rules. Rows shorter
// than MinTableColumns are rejected before any other measurement.
func AnalyzeRow(words []string, p *profile.Profile) RowStats {
	st := RowStats{Columns: len(words)}
	if len(words) < p.MinTableColumns() {
		return st
	}

	for _, w := range words {
		if strings.IndexFunc(w, unicode.IsDigit) >= 0 {
			st.NumericWords++
		}
		if !st.HasDelimiter && containsDelimiter(w, p) {
			st.HasDelimiter = true
		}
	}
	st.NumericRatio = float64(st.NumericWords) / float64(len(words))
	st.Accepted = st.NumericRatio > p.TableNumericThreshold() || st.HasDelimiter
	return st
}

// IsTableRow reports whether words form a table row.
func IsTableRow(words []string, p *profile.Profile) bool {
	return AnalyzeRow(words, p).Accepted
}

func containsDelimiter(word string, p *profile.Profile) bool {
	for d := range p.Delimiters() {
		if strings.Contains(word, d) {
			return true
		}
	}
	return false
}
