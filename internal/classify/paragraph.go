package classify

import (
	"strings"
	"unicode/utf8"

	"github.com/MeKo-Tech/notepeel/internal/profile"
)

// IsParagraph reports whether line has a prose-like word count and is long
// enough in characters.
func IsParagraph(line string, p *profile.Profile) bool {
	minWords, maxWords, minChars := p.ParagraphBounds()
	n := len(strings.Fields(line))
	return n >= minWords && n <= maxWords && utf8.RuneCountInString(line) >= minChars
}
