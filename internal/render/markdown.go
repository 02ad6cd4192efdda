package render

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/MeKo-Tech/notepeel/internal/document"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`, "`", "\\`", "*", `\*`, "_", `\_`, "[", `\[`, "]", `\]`,
	"<", `\<`, ">", `\>`, "#", `\#`, "+", `\+`, "-", `\-`, ".", `\.`,
	"!", `\!`, "|", `\|`, "~", `\~`,
)

func escapeMarkdown(s string) string { return markdownEscaper.Replace(s) }

// MarkdownText renders doc as GitHub-flavoured Markdown. Tables get numbered
// column headers because table blocks carry no header row.
func MarkdownText(doc *document.StructuredDocument) string {
	var b strings.Builder
	b.WriteString("# Document\n\n")
	fmt.Fprintf(&b, "- **Profile:** %s\n", escapeMarkdown(doc.Metadata.ProfileName))
	fmt.Fprintf(&b, "- **Lines:** %d\n", doc.Metadata.TotalLines)
	if v := doc.Metadata.AvgFontSize; v != nil {
		fmt.Fprintf(&b, "- **Average font size:** %.1f\n", *v)
	}
	if v := doc.Metadata.PageHeight; v != nil {
		fmt.Fprintf(&b, "- **Page height:** %.0f\n", *v)
	}

	if doc.KeyValues.Len() > 0 {
		b.WriteString("\n## Key-value pairs\n\n| Key | Value |\n| --- | --- |\n")
		for _, k := range doc.KeyValues.Keys() {
			v, _ := doc.KeyValues.Get(k)
			fmt.Fprintf(&b, "| %s | %s |\n", escapeMarkdown(k), escapeMarkdown(v))
		}
	}
	if len(doc.BulletPoints) > 0 {
		b.WriteString("\n## Bullet points\n\n")
		for _, bp := range doc.BulletPoints {
			fmt.Fprintf(&b, "- %s\n", escapeMarkdown(bp))
		}
	}
	for i, table := range doc.Tables {
		if i == 0 {
			b.WriteString("\n## Tables\n")
		}
		fmt.Fprintf(&b, "\n### Table %d\n\n", i+1)
		writeMarkdownTable(&b, table)
	}
	if len(doc.Paragraphs) > 0 {
		b.WriteString("\n## Paragraphs\n")
		for _, p := range doc.Paragraphs {
			fmt.Fprintf(&b, "\n%s\n", escapeMarkdown(p))
		}
	}
	return b.String()
}

func writeMarkdownTable(b *strings.Builder, table document.Table) {
	cols := 0
	for _, row := range table {
		cols = max(cols, len(row))
	}
	header := make([]string, cols)
	rule := make([]string, cols)
	for i := range cols {
		header[i] = fmt.Sprintf("Col %d", i+1)
		rule[i] = "---"
	}
	fmt.Fprintf(b, "| %s |\n| %s |\n", strings.Join(header, " | "), strings.Join(rule, " | "))
	for _, row := range table {
		cells := make([]string, cols)
		for i, w := range row {
			cells[i] = escapeMarkdown(w)
		}
		fmt.Fprintf(b, "| %s |\n", strings.Join(cells, " | "))
	}
}

// WriteHTML converts the Markdown view of doc to an HTML fragment.
func WriteHTML(w io.Writer, doc *document.StructuredDocument) error {
	var buf bytes.Buffer
	buf.WriteString("<article class=\"notepeel-document\">\n")
	md := goldmark.New(goldmark.WithExtensions(extension.Table))
	if err := md.Convert([]byte(MarkdownText(doc)), &buf); err != nil {
		return fmt.Errorf("failed to convert markdown: %w", err)
	}
	buf.WriteString("</article>\n")
	_, err := w.Write(buf.Bytes())
	return err
}
