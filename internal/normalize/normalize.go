// Package normalize turns raw recognized text into numbered, non-empty lines.
package normalize

import (
	"strings"

	"github.com/MeKo-Tech/notepeel/internal/document"
	"github.com/MeKo-Tech/notepeel/internal/profile"
	"golang.org/x/text/unicode/norm"
)

var lineBreaks = strings.NewReplacer("\r\n", "\n", "\r", "\n")

// Lines normalizes raw into the ordered lines the classifiers see. The text is
// NFC-composed, every profile artifact becomes a single space, and each line
// is trimmed of the profile's strip characters. Lines that end up empty are
// dropped; the rest are numbered from 1.
func Lines(raw string, p *profile.Profile) []document.Line {
	if raw == "" {
		return []document.Line{}
	}

	s := norm.NFC.String(raw)
	s = stripArtifacts(s, p.Artifacts())
	s = lineBreaks.Replace(s)

	cutset := p.StripChars()
	lines := make([]document.Line, 0, strings.Count(s, "\n")+1)
	for part := range strings.SplitSeq(s, "\n") {
		text := strings.Trim(part, cutset)
		if text == "" {
			continue
		}
		lines = append(lines, document.Line{Text: text, Number: len(lines) + 1})
	}
	return lines
}

// Text joins line texts with newlines, the inverse Lines is idempotent over.
func Text(lines []document.Line) string {
	var b strings.Builder
	for i, l := range lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(l.Text)
	}
	return b.String()
}

func stripArtifacts(s string, artifacts []string) string {
	if len(artifacts) == 0 {
		return s
	}
	pairs := make([]string, 0, 2*len(artifacts))
	for _, a := range artifacts {
		pairs = append(pairs, a, " ")
	}
	return strings.NewReplacer(pairs...).Replace(s)
}
