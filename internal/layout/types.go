// Package layout reads per-word OCR geometry and derives the layout metadata
// the analyzer reports. The contract types mirror the fullTextAnnotation
// shape of Google Cloud Vision responses.
package layout

import (
	"math"
	"strings"
)

// Vertex is one corner of a bounding polygon, in pixels.
type Vertex struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// BoundingPoly is a polygon around a layout element.
type BoundingPoly struct {
	Vertices []Vertex `json:"vertices"`
}

// Bounds returns the minimum and maximum Y of the polygon. ok is false when the
// polygon has no vertices.
func (b *BoundingPoly) Bounds() (minY, maxY float64, ok bool) {
	if b == nil || len(b.Vertices) == 0 {
		return 0, 0, false
	}
	minY, maxY = math.Inf(1), math.Inf(-1)
	for _, v := range b.Vertices {
		minY = math.Min(minY, v.Y)
		maxY = math.Max(maxY, v.Y)
	}
	return minY, maxY, true
}

// Height returns the vertical extent of the polygon, or 0 without vertices.
func (b *BoundingPoly) Height() float64 {
	lo, hi, ok := b.Bounds()
	if !ok {
		return 0
	}
	return hi - lo
}

// Symbol is a single recognized glyph.
type Symbol struct {
	Text        string        `json:"text"`
	BoundingBox *BoundingPoly `json:"boundingBox,omitempty"`
	Confidence  *float64      `json:"confidence,omitempty"`
}

// Word is a run of symbols.
type Word struct {
	BoundingBox *BoundingPoly `json:"boundingBox,omitempty"`
	Symbols     []Symbol      `json:"symbols"`
	Confidence  *float64      `json:"confidence,omitempty"`
}

// Text concatenates the word's symbols.
func (w Word) Text() string {
	var b strings.Builder
	for _, s := range w.Symbols {
		b.WriteString(s.Text)
	}
	return b.String()
}

// Paragraph groups words.
type Paragraph struct {
	BoundingBox *BoundingPoly `json:"boundingBox,omitempty"`
	Words       []Word        `json:"words"`
}

// Block groups paragraphs.
type Block struct {
	BoundingBox *BoundingPoly `json:"boundingBox,omitempty"`
	Paragraphs  []Paragraph   `json:"paragraphs"`
}

// Page is one recognized page.
type Page struct {
	Width      float64  `json:"width"`
	Height     float64  `json:"height"`
	Confidence *float64 `json:"confidence,omitempty"`
	Blocks     []Block  `json:"blocks"`
}

// Document is the full OCR result: recognized text plus page layout.
type Document struct {
	Text  string `json:"text"`
	Pages []Page `json:"pages"`
}

// Words returns every word in reading order.
func (d *Document) Words() []Word {
	if d == nil {
		return nil
	}
	var words []Word
	for _, page := range d.Pages {
		for _, block := range page.Blocks {
			for _, para := range block.Paragraphs {
				words = append(words, para.Words...)
			}
		}
	}
	return words
}

// PlainText rebuilds text from the word stream when the OCR result carries no
// full text: words are joined by spaces and each paragraph becomes a line.
func (d *Document) PlainText() string {
	if d == nil {
		return ""
	}
	var b strings.Builder
	for _, page := range d.Pages {
		for _, block := range page.Blocks {
			for _, para := range block.Paragraphs {
				if len(para.Words) == 0 {
					continue
				}
				for i, w := range para.Words {
					if i > 0 {
						b.WriteByte(' ')
					}
					b.WriteString(w.Text())
				}
				b.WriteByte('\n')
			}
		}
	}
	return b.String()
}
