package layout

import (
	"strings"
	"testing"

	"github.com/MeKo-Tech/notepeel/internal/document"
	"github.com/MeKo-Tech/notepeel/internal/profile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func box(top, bottom float64) *BoundingPoly {
	return &BoundingPoly{Vertices: []Vertex{{X: 0, Y: top}, {X: 10, Y: top}, {X: 10, Y: bottom}, {X: 0, Y: bottom}}}
}

func word(text string, top, bottom float64, conf *float64) Word {
	symbols := make([]Symbol, 0, len(text))
	for _, r := range text {
		symbols = append(symbols, Symbol{Text: string(r)})
	}
	return Word{BoundingBox: box(top, bottom), Symbols: symbols, Confidence: conf}
}

func ptr(f float64) *float64 { return &f }

func sampleDocument() *Document {
	return &Document{
		Text: "Name: John Smith\n1. Buy milk\n",
		Pages: []Page{{
			Width:  800,
			Height: 1000,
			Blocks: []Block{{
				Paragraphs: []Paragraph{
					{
						BoundingBox: box(100, 130),
						Words: []Word{
							word("Name:", 100, 120, ptr(0.9)),
							word("John", 100, 122, nil),
							word("Smith", 101, 121, ptr(0.95)),
						},
					},
					{
						BoundingBox: box(200, 230),
						Words: []Word{
							word("1.", 200, 220, nil),
							word("Buy", 202, 222, nil),
							word("milk", 200, 220, nil),
							word("smudge", 200, 300, ptr(0.2)),
						},
					},
				},
			}},
		}},
	}
}

func sampleLines() []document.Line {
	return []document.Line{
		{Text: "Name: John Smith", Number: 1},
		{Text: "1. Buy milk", Number: 2},
		{Text: "not in the layout", Number: 3},
	}
}

func TestAnnotate_NilDocument(t *testing.T) {
	p := profile.MustLookup(profile.Default)
	lines := sampleLines()

	ann := Annotate(nil, lines, p)
	assert.Equal(t, lines, ann.Lines)
	assert.Nil(t, ann.AvgFontSize)
	assert.Nil(t, ann.PageHeight)
	assert.Nil(t, ann.ParagraphOffsets)

	ann = Annotate(&Document{Text: "x"}, lines, p)
	assert.Nil(t, ann.PageHeight)
}

func TestAnnotate_Metadata(t *testing.T) {
	p := profile.MustLookup(profile.Default)

	ann := Annotate(sampleDocument(), sampleLines(), p)

	require.NotNil(t, ann.PageHeight)
	assert.InDelta(t, 1000, *ann.PageHeight, 1e-9)
	assert.Equal(t, []float64{100, 200}, ann.ParagraphOffsets)

	// The low-confidence word is excluded from the average.
	require.NotNil(t, ann.AvgFontSize)
	assert.InDelta(t, (20.0+22+20+20+20+20)/6, *ann.AvgFontSize, 1e-9)
}

func TestAnnotate_AlignsLines(t *testing.T) {
	p := profile.MustLookup(profile.Default)
	lines := sampleLines()

	ann := Annotate(sampleDocument(), lines, p)
	require.Len(t, ann.Lines, 3)

	require.NotNil(t, ann.Lines[0].Geometry)
	assert.Equal(t, document.Geometry{Top: 100, Height: 22}, *ann.Lines[0].Geometry)
	require.NotNil(t, ann.Lines[1].Geometry)
	assert.Equal(t, document.Geometry{Top: 200, Height: 22}, *ann.Lines[1].Geometry)
	assert.Nil(t, ann.Lines[2].Geometry)

	assert.Nil(t, lines[0].Geometry, "input lines are not modified")
}

func TestAnnotate_Toggles(t *testing.T) {
	s := profile.DefaultSettings()
	s.UseFontSize = false
	s.UseSpatial = false
	s.SectionGrouping = false
	p := profile.MustNew(s)

	ann := Annotate(sampleDocument(), sampleLines(), p)
	assert.Nil(t, ann.AvgFontSize)
	assert.Nil(t, ann.PageHeight)
	assert.Nil(t, ann.ParagraphOffsets)
	assert.Nil(t, ann.Lines[0].Geometry)
}

func TestAnnotate_NoEligibleWords(t *testing.T) {
	p := profile.MustLookup(profile.Default)
	doc := &Document{Pages: []Page{{Blocks: []Block{{Paragraphs: []Paragraph{{
		Words: []Word{word("faint", 0, 10, ptr(0.1))},
	}}}}}}}

	ann := Annotate(doc, nil, p)
	assert.Nil(t, ann.AvgFontSize)
	assert.Nil(t, ann.PageHeight, "zero page height is treated as absent")
}

func TestAnnotate_PageHeightFromFirstPositivePage(t *testing.T) {
	p := profile.MustLookup(profile.Default)
	doc := &Document{Pages: []Page{{Height: 0}, {Height: 640}, {Height: 900}}}

	ann := Annotate(doc, nil, p)
	require.NotNil(t, ann.PageHeight)
	assert.InDelta(t, 640, *ann.PageHeight, 1e-9)
}

func TestBoundingPoly(t *testing.T) {
	var nilPoly *BoundingPoly
	_, _, ok := nilPoly.Bounds()
	assert.False(t, ok)
	assert.Zero(t, nilPoly.Height())
	assert.InDelta(t, 30, box(10, 40).Height(), 1e-9)
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name string
		json string
		text string
	}{
		{"bare document", `{"text":"hello","pages":[{"width":10,"height":20}]}`, "hello"},
		{"annotate response", `{"fullTextAnnotation":{"text":"hi","pages":[]}}`, "hi"},
		{"batch response", `{"responses":[{"fullTextAnnotation":{"text":"batched"}}]}`, "batched"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Decode([]byte(tt.json))
			require.NoError(t, err)
			assert.Equal(t, tt.text, doc.Text)
		})
	}
}

func TestDecode_Errors(t *testing.T) {
	_, err := Decode([]byte(`{"unrelated":true}`))
	require.ErrorIs(t, err, ErrNoAnnotation)

	_, err = Decode([]byte(`{"responses":[{}]}`))
	require.ErrorIs(t, err, ErrNoAnnotation)

	_, err = Decode([]byte(`{"text":`))
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "OCR JSON"))
}

func TestDecode_VisionGeometry(t *testing.T) {
	doc, err := Decode([]byte(`{"fullTextAnnotation":{"text":"Hi","pages":[{"height":50,"blocks":[{"paragraphs":[
		{"boundingBox":{"vertices":[{"x":1,"y":5},{"x":9,"y":5},{"x":9,"y":15},{"x":1,"y":15}]},
		 "words":[{"confidence":0.98,"boundingBox":{"vertices":[{"x":1,"y":5},{"x":9,"y":15}]},
		           "symbols":[{"text":"H"},{"text":"i"}]}]}]}]}]}}`))
	require.NoError(t, err)

	words := doc.Words()
	require.Len(t, words, 1)
	assert.Equal(t, "Hi", words[0].Text())
	require.NotNil(t, words[0].Confidence)
	assert.InDelta(t, 10, words[0].BoundingBox.Height(), 1e-9)
}

func TestDocument_PlainText(t *testing.T) {
	assert.Equal(t, "Name: John Smith\n1. Buy milk smudge\n", sampleDocument().PlainText())

	var nilDoc *Document
	assert.Empty(t, nilDoc.PlainText())
	assert.Empty(t, nilDoc.Words())
}
