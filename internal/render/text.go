package render

import (
	"fmt"
	"strings"

	"github.com/MeKo-Tech/notepeel/internal/document"
)

// PlainText renders doc as an indented human-readable summary.
func PlainText(doc *document.StructuredDocument) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Profile: %s\n", doc.Metadata.ProfileName)
	fmt.Fprintf(&b, "Lines: %d\n", doc.Metadata.TotalLines)
	if v := doc.Metadata.AvgFontSize; v != nil {
		fmt.Fprintf(&b, "Average font size: %.1f\n", *v)
	}
	if v := doc.Metadata.PageHeight; v != nil {
		fmt.Fprintf(&b, "Page height: %.0f\n", *v)
	}

	if doc.KeyValues.Len() > 0 {
		b.WriteString("\nKey-value pairs:\n")
		for _, k := range doc.KeyValues.Keys() {
			v, _ := doc.KeyValues.Get(k)
			fmt.Fprintf(&b, "  %s: %s\n", k, v)
		}
	}
	if len(doc.BulletPoints) > 0 {
		b.WriteString("\nBullet points:\n")
		for _, bp := range doc.BulletPoints {
			fmt.Fprintf(&b, "  %s\n", bp)
		}
	}
	if len(doc.Tables) > 0 {
		b.WriteString("\nTables:\n")
		for i, table := range doc.Tables {
			fmt.Fprintf(&b, "  Table %d:\n", i+1)
			for _, row := range table {
				fmt.Fprintf(&b, "    %s\n", strings.Join(row, " | "))
			}
		}
	}
	if len(doc.Paragraphs) > 0 {
		b.WriteString("\nParagraphs:\n")
		for _, p := range doc.Paragraphs {
			fmt.Fprintf(&b, "  %s\n", p)
		}
	}
	return b.String()
}
