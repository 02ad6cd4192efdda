// Package analyzer assembles classified lines into a StructuredDocument in a
// single forward pass.
package analyzer

import (
	"log/slog"
	"strings"

	"github.com/MeKo-Tech/notepeel/internal/classify"
	"github.com/MeKo-Tech/notepeel/internal/document"
	"github.com/MeKo-Tech/notepeel/internal/layout"
	"github.com/MeKo-Tech/notepeel/internal/normalize"
	"github.com/MeKo-Tech/notepeel/internal/profile"
)

// Input is the recognized text of one document plus its optional layout.
type Input struct {
	Text   string           `json:"text"`
	Layout *layout.Document `json:"layout,omitempty"`
}

// AnalyzeText analyzes plain text with no layout.
func AnalyzeText(text string, p *profile.Profile) *document.StructuredDocument {
	return Analyze(Input{Text: text}, p)
}

// Analyze builds a structured document from in. Lines are classified with the
// priority bullet, key-value, table row, paragraph, other. Consecutive table
// rows form one table, which stays open across bullets and key-value lines
// and is closed by the first paragraph or other line. The result is freshly
// allocated and owned by the caller.
func Analyze(in Input, p *profile.Profile) *document.StructuredDocument {
	doc := document.New(p.Name())

	ann := layout.Annotate(in.Layout, normalize.Lines(in.Text, p), p)
	lines := ann.Lines

	a := assembler{doc: doc, debug: p.Debug()}
	for _, line := range lines {
		a.add(line, p)
	}
	a.flushTable()

	if p.SectionGrouping() && len(a.content) > 0 {
		doc.Sections = append(doc.Sections, document.Section{Content: a.content})
	}

	doc.Metadata.TotalLines = len(lines)
	doc.Metadata.AvgFontSize = ann.AvgFontSize
	doc.Metadata.PageHeight = ann.PageHeight
	doc.Metadata.ParagraphOffsets = ann.ParagraphOffsets
	return doc
}

// assembler holds the transient state of one Analyze call.
type assembler struct {
	doc     *document.StructuredDocument
	table   document.Table
	content []document.ClassifiedLine
	debug   bool
}

func (a *assembler) add(line document.Line, p *profile.Profile) {
	entry := document.ClassifiedLine{Line: line.Number}
	if g := line.Geometry; g != nil {
		top, height := g.Top, g.Height
		entry.Top, entry.Height = &top, &height
	}

	pattern, isBullet := classify.MatchBullet(line.Text, p)
	if isBullet {
		entry.Kind, entry.Text = document.KindBullet, line.Text
		a.doc.BulletPoints = append(a.doc.BulletPoints, line.Text)
	} else if k, v, ok := classify.KeyValue(line.Text, p); ok {
		entry.Kind, entry.Key, entry.Value = document.KindKeyValue, k, v
		a.doc.KeyValues.Set(k, v)
	} else if words := strings.Fields(line.Text); classify.IsTableRow(words, p) {
		entry.Kind, entry.Words = document.KindTableRow, words
		a.table = append(a.table, words)
	} else {
		a.flushTable()
		entry.Kind, entry.Text = document.KindOther, line.Text
		if classify.IsParagraph(line.Text, p) {
			entry.Kind = document.KindParagraph
			a.doc.Paragraphs = append(a.doc.Paragraphs, line.Text)
		}
	}

	a.content = append(a.content, entry)
	if a.debug {
		slog.Debug("Classified line",
			"line", line.Number,
			"kind", entry.Kind.String(),
			"pattern", pattern,
			"open_table_rows", len(a.table))
	}
}

func (a *assembler) flushTable() {
	if len(a.table) == 0 {
		return
	}
	a.doc.Tables = append(a.doc.Tables, a.table)
	a.table = nil
}
