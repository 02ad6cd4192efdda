package layout

import (
	"strings"
	"unicode"

	"github.com/MeKo-Tech/notepeel/internal/document"
	"github.com/MeKo-Tech/notepeel/internal/profile"
	"golang.org/x/text/unicode/norm"
)

// lookAhead bounds how many words past the cursor a line may start at.
const lookAhead = 32

// Annotation is the layout metadata derived for one analysis.
type Annotation struct {
	Lines            []document.Line
	AvgFontSize      *float64
	PageHeight       *float64
	ParagraphOffsets []float64
}

// Annotate derives geometry for lines from doc. It never fails: a nil or
// page-less document yields the lines unchanged and no metadata. The returned
// lines are copies; lines is not modified.
func Annotate(doc *Document, lines []document.Line, p *profile.Profile) Annotation {
	ann := Annotation{Lines: lines}
	if doc == nil || len(doc.Pages) == 0 {
		return ann
	}

	if p.UseSpatial() || p.SectionGrouping() {
		ann.ParagraphOffsets = paragraphOffsets(doc)
		ann.PageHeight = pageHeight(doc)
		ann.Lines = align(doc.Words(), lines)
	}
	if p.UseFontSize() {
		ann.AvgFontSize = averageWordHeight(doc.Words(), p.MinConfidence())
	}
	return ann
}

func paragraphOffsets(doc *Document) []float64 {
	var offsets []float64
	for _, page := range doc.Pages {
		for _, block := range page.Blocks {
			for _, para := range block.Paragraphs {
				if top, _, ok := para.BoundingBox.Bounds(); ok {
					offsets = append(offsets, top)
				}
			}
		}
	}
	return offsets
}

func pageHeight(doc *Document) *float64 {
	for _, page := range doc.Pages {
		if page.Height > 0 {
			h := page.Height
			return &h
		}
	}
	return nil
}

func averageWordHeight(words []Word, minConfidence float64) *float64 {
	var sum float64
	var n int
	for _, w := range words {
		if w.Confidence != nil && *w.Confidence < minConfidence {
			continue
		}
		if _, _, ok := w.BoundingBox.Bounds(); !ok {
			continue
		}
		sum += w.BoundingBox.Height()
		n++
	}
	if n == 0 {
		return nil
	}
	avg := sum / float64(n)
	return &avg
}

type placedWord struct {
	text     string
	top, bot float64
	hasBox   bool
}

// align walks lines and words together. Each line is matched by concatenating
// whitespace-free word texts from some start within the look-ahead window;
// matched words are consumed.
func align(words []Word, lines []document.Line) []document.Line {
	placed := make([]placedWord, len(words))
	for i, w := range words {
		pw := placedWord{text: compact(w.Text())}
		pw.top, pw.bot, pw.hasBox = w.BoundingBox.Bounds()
		placed[i] = pw
	}

	out := make([]document.Line, len(lines))
	cursor := 0
	for i, line := range lines {
		out[i] = line
		target := compact(line.Text)
		end := min(cursor+lookAhead, len(placed))
		for start := cursor; start < end; start++ {
			stop, ok := matchAt(placed, start, target)
			if !ok {
				continue
			}
			out[i].Geometry = geometry(placed[start:stop])
			cursor = stop
			break
		}
	}
	return out
}

// matchAt reports whether words starting at start spell target exactly, and
// the index one past the last word used.
func matchAt(words []placedWord, start int, target string) (int, bool) {
	if target == "" || words[start].text == "" {
		return 0, false
	}
	var acc strings.Builder
	j := start
	for j < len(words) && acc.Len() < len(target) {
		acc.WriteString(words[j].text)
		j++
		if !strings.HasPrefix(target, acc.String()) {
			return 0, false
		}
	}
	return j, acc.String() == target
}

func geometry(words []placedWord) *document.Geometry {
	var g *document.Geometry
	for _, w := range words {
		if !w.hasBox {
			continue
		}
		if g == nil {
			g = &document.Geometry{Top: w.top, Height: w.bot - w.top}
			continue
		}
		bot := max(g.Top+g.Height, w.bot)
		g.Top = min(g.Top, w.top)
		g.Height = bot - g.Top
	}
	return g
}

func compact(s string) string {
	s = norm.NFC.String(s)
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}
