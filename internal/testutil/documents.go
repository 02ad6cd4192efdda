package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strings"

	"github.com/MeKo-Tech/notepeel/internal/layout"
)

// Geometry used by VisionResponse.
const (
	VisionPageHeight = 1000
	VisionFirstTop   = 100
	VisionLineStep   = 40
	VisionWordHeight = 20
)

// VisionDocument lays lines out one paragraph per line. Line i sits at
// VisionFirstTop + i*VisionLineStep and every word is VisionWordHeight tall.
func VisionDocument(lines ...string) *layout.Document {
	conf := 0.95
	para := make([]layout.Paragraph, 0, len(lines))
	for i, line := range lines {
		top := float64(VisionFirstTop + i*VisionLineStep)
		bottom := top + VisionWordHeight
		var words []layout.Word
		x := 10.0
		for _, w := range strings.Fields(line) {
			symbols := make([]layout.Symbol, 0, len(w))
			for _, r := range w {
				symbols = append(symbols, layout.Symbol{Text: string(r)})
			}
			width := float64(10 * len(symbols))
			words = append(words, layout.Word{
				BoundingBox: rect(x, top, x+width, bottom),
				Symbols:     symbols,
				Confidence:  &conf,
			})
			x += width + 10
		}
		para = append(para, layout.Paragraph{BoundingBox: rect(10, top, x, bottom), Words: words})
	}

	return &layout.Document{
		Text: strings.Join(lines, "\n") + "\n",
		Pages: []layout.Page{{
			Width:  800,
			Height: VisionPageHeight,
			Blocks: []layout.Block{{Paragraphs: para}},
		}},
	}
}

// VisionResponse wraps VisionDocument in a batch annotate response.
func VisionResponse(lines ...string) []byte {
	resp := map[string]any{
		"responses": []map[string]any{{"fullTextAnnotation": VisionDocument(lines...)}},
	}
	data, err := json.Marshal(resp)
	if err != nil {
		panic(err)
	}
	return data
}

func rect(x0, y0, x1, y1 float64) *layout.BoundingPoly {
	return &layout.BoundingPoly{Vertices: []layout.Vertex{{X: x0, Y: y0}, {X: x1, Y: y0}, {X: x1, Y: y1}, {X: x0, Y: y1}}}
}

// TextPDF builds a one-page PDF whose text layer holds one line per row.
func TextPDF(lines ...string) []byte {
	var content strings.Builder
	content.WriteString("BT /F1 12 Tf 72 720 Td\n")
	for _, l := range lines {
		fmt.Fprintf(&content, "(%s) Tj 0 -14 Td\n", escapePDF(l))
	}
	content.WriteString("ET")

	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] " +
			"/Resources << /Font << /F1 5 0 R >> >> /Contents 4 0 R >>",
		fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", content.Len(), content.String()),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>",
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

func escapePDF(s string) string {
	return strings.NewReplacer(`\`, `\\`, "(", `\(`, ")", `\)`).Replace(s)
}

// PNG returns a small encoded PNG image.
func PNG(width, height int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := range height {
		for x := range width {
			img.Set(x, y, color.White)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic(err)
	}
	return buf.Bytes()
}
