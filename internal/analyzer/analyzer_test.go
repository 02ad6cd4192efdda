package analyzer

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/MeKo-Tech/notepeel/internal/document"
	"github.com/MeKo-Tech/notepeel/internal/layout"
	"github.com/MeKo-Tech/notepeel/internal/profile"
	"github.com/MeKo-Tech/notepeel/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultProfile() *profile.Profile { return profile.MustLookup(profile.Default) }

func TestAnalyze_KeyValue(t *testing.T) {
	doc := AnalyzeText("Name: John Smith", defaultProfile())

	assert.Equal(t, map[string]string{"Name": "John Smith"}, doc.KeyValues.Map())
	assert.Empty(t, doc.BulletPoints)
	assert.Empty(t, doc.Paragraphs)
}

func TestAnalyze_Bullet(t *testing.T) {
	doc := AnalyzeText("1. Buy milk", defaultProfile())

	assert.Equal(t, []string{"1. Buy milk"}, doc.BulletPoints)
	assert.Empty(t, doc.Paragraphs)
	assert.Zero(t, doc.KeyValues.Len())
}

func TestAnalyze_TableBlock(t *testing.T) {
	doc := AnalyzeText("A1 10 5\nB2 20 7\nC3 30 9\nSummary follows", defaultProfile())

	require.Len(t, doc.Tables, 1)
	assert.Equal(t, document.Table{{"A1", "10", "5"}, {"B2", "20", "7"}, {"C3", "30", "9"}}, doc.Tables[0])
	assert.Equal(t, 4, doc.Metadata.TotalLines)

	counts := doc.CountByKind()
	assert.Equal(t, 3, counts[document.KindTableRow])
	assert.Equal(t, 1, counts[document.KindOther])
}

func TestAnalyze_TableFlushedAtEnd(t *testing.T) {
	doc := AnalyzeText("Intro\nA1 10 5\nB2 20 7", defaultProfile())
	require.Len(t, doc.Tables, 1)
	assert.Len(t, doc.Tables[0], 2)
}

func TestAnalyze_TableSurvivesBulletsAndKeyValues(t *testing.T) {
	text := strings.Join([]string{
		"A1 10 5",
		"- interjected bullet",
		"Total: 45",
		"B2 20 7",
		"plain",
		"C3 30 9",
	}, "\n")

	doc := AnalyzeText(text, defaultProfile())

	require.Len(t, doc.Tables, 2)
	assert.Equal(t, document.Table{{"A1", "10", "5"}, {"B2", "20", "7"}}, doc.Tables[0])
	assert.Equal(t, document.Table{{"C3", "30", "9"}}, doc.Tables[1])
	assert.Equal(t, []string{"- interjected bullet"}, doc.BulletPoints)
}

func TestAnalyze_EmptyInput(t *testing.T) {
	for _, raw := range []string{"", "   \n\t\n", "\x00\n\ufeff"} {
		doc := AnalyzeText(raw, defaultProfile())

		assert.Zero(t, doc.Metadata.TotalLines)
		assert.Empty(t, doc.Sections)
		assert.Empty(t, doc.BulletPoints)
		assert.Empty(t, doc.Tables)
		assert.Empty(t, doc.Paragraphs)
		assert.Zero(t, doc.KeyValues.Len())
		assert.Nil(t, doc.Metadata.AvgFontSize)
		assert.Nil(t, doc.Metadata.PageHeight)
	}
}

func TestAnalyze_TodoDependsOnProfile(t *testing.T) {
	meeting := AnalyzeText("TODO: call Bob", profile.MustLookup(profile.MeetingNotes))
	assert.Equal(t, []string{"TODO: call Bob"}, meeting.BulletPoints)
	assert.Zero(t, meeting.KeyValues.Len())
	assert.Equal(t, profile.MeetingNotes, meeting.Metadata.ProfileName)

	def := AnalyzeText("TODO: call Bob", defaultProfile())
	assert.Empty(t, def.BulletPoints)
	value, ok := def.KeyValues.Get("TODO")
	require.True(t, ok)
	assert.Equal(t, "call Bob", value)
}

func TestAnalyze_Paragraph(t *testing.T) {
	doc := AnalyzeText("The quick brown fox jumps high", defaultProfile())
	assert.Equal(t, []string{"The quick brown fox jumps high"}, doc.Paragraphs)
}

func TestAnalyze_KeyValuesLastWriteWinsInPlace(t *testing.T) {
	doc := AnalyzeText("Name: Ann\nDate: today\nName: Bob", defaultProfile())

	assert.Equal(t, []string{"Name", "Date"}, doc.KeyValues.Keys())
	v, _ := doc.KeyValues.Get("Name")
	assert.Equal(t, "Bob", v)
}

func TestAnalyze_Sections(t *testing.T) {
	doc := AnalyzeText("Name: Ann\n- item\nclosing", defaultProfile())

	require.Len(t, doc.Sections, 1)
	assert.Nil(t, doc.Sections[0].Title)
	content := doc.Sections[0].Content
	require.Len(t, content, 3)
	assert.Equal(t, document.ClassifiedLine{Kind: document.KindKeyValue, Line: 1, Key: "Name", Value: "Ann"}, content[0])
	assert.Equal(t, document.KindBullet, content[1].Kind)
	assert.Equal(t, 3, content[2].Line)

	s := profile.DefaultSettings()
	s.SectionGrouping = false
	doc = AnalyzeText("Name: Ann", profile.MustNew(s))
	assert.Empty(t, doc.Sections)
	assert.Equal(t, 1, doc.KeyValues.Len())
}

func TestAnalyze_WithLayout(t *testing.T) {
	box := func(top, bottom float64) *layout.BoundingPoly {
		return &layout.BoundingPoly{Vertices: []layout.Vertex{{Y: top}, {Y: bottom}}}
	}
	word := func(s string, top, bottom float64) layout.Word {
		return layout.Word{BoundingBox: box(top, bottom), Symbols: []layout.Symbol{{Text: s}}}
	}
	in := Input{
		Text: "Name: John",
		Layout: &layout.Document{Pages: []layout.Page{{
			Height: 1200,
			Blocks: []layout.Block{{Paragraphs: []layout.Paragraph{{
				BoundingBox: box(40, 60),
				Words:       []layout.Word{word("Name:", 40, 58), word("John", 42, 60)},
			}}}},
		}}},
	}

	doc := Analyze(in, defaultProfile())

	require.NotNil(t, doc.Metadata.PageHeight)
	assert.InDelta(t, 1200, *doc.Metadata.PageHeight, 1e-9)
	require.NotNil(t, doc.Metadata.AvgFontSize)
	assert.InDelta(t, 18, *doc.Metadata.AvgFontSize, 1e-9)
	assert.Equal(t, []float64{40}, doc.Metadata.ParagraphOffsets)

	entry := doc.Sections[0].Content[0]
	require.NotNil(t, entry.Top)
	require.NotNil(t, entry.Height)
	assert.InDelta(t, 40, *entry.Top, 1e-9)
	assert.InDelta(t, 20, *entry.Height, 1e-9)
}

func TestAnalyze_JSONShape(t *testing.T) {
	data, err := json.Marshal(AnalyzeText("", defaultProfile()))
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"headers": [],
		"sections": [],
		"key_values": {},
		"bullet_points": [],
		"tables": [],
		"paragraphs": [],
		"metadata": {"total_lines": 0, "avg_font_size": null, "page_height": null, "profile_name": "default"}
	}`, string(data))

	data, err = json.Marshal(AnalyzeText("Name: Ann\nA1 10 5", defaultProfile()))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"title":null`)
	assert.Contains(t, string(data), `{"type":"table_row","line":2,"words":["A1","10","5"]}`)
}

func TestAnalyze_DebugLogging(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { slog.SetDefault(prev) })

	AnalyzeText("1. Buy milk", defaultProfile())
	assert.Contains(t, buf.String(), `"kind":"bullet"`)
	assert.Contains(t, buf.String(), `"line":1`)

	buf.Reset()
	s := profile.DefaultSettings()
	s.Debug = false
	AnalyzeText("1. Buy milk", profile.MustNew(s))
	assert.Empty(t, buf.String())
}

func TestAnalyze_ConcurrentCallsShareProfile(t *testing.T) {
	p := profile.MustLookup(profile.MeetingNotes)
	text := "TODO: call Bob\nName: Ann\nA1 10 5\nB2 20 7\nThe quick brown fox jumps high"
	want := AnalyzeText(text, p)

	var wg sync.WaitGroup
	results := make([]*document.StructuredDocument, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = AnalyzeText(text, p)
		}(i)
	}
	wg.Wait()

	for _, got := range results {
		assert.Equal(t, want, got)
	}
}

func TestAnalyze_SampleFixtures(t *testing.T) {
	for _, fixture := range testutil.SampleFixtures() {
		t.Run(fixture.Name, func(t *testing.T) {
			doc := AnalyzeText(fixture.Input, profile.MustLookup(fixture.Profile))
			want := fixture.Expected

			assert.ElementsMatch(t, want.BulletPoints, doc.BulletPoints)
			assert.ElementsMatch(t, want.Paragraphs, doc.Paragraphs)
			assert.Equal(t, len(want.KeyValues), doc.KeyValues.Len())
			for k, v := range want.KeyValues {
				assert.Equal(t, v, doc.KeyValues.Map()[k])
			}
			assert.Len(t, doc.Tables, len(want.Tables))
			for i := range want.Tables {
				assert.Equal(t, want.Tables[i], [][]string(doc.Tables[i]))
			}
			assert.Equal(t, want.TotalLines, doc.Metadata.TotalLines)
		})
	}
}
