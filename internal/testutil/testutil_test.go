package testutil

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"testing"

	"github.com/MeKo-Tech/notepeel/internal/layout"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureDir(t *testing.T) {
	testDir := t.TempDir() + "/test/nested/dir"

	err := EnsureDir(testDir)
	require.NoError(t, err)
	assert.True(t, DirExists(testDir))
}

func TestFileExists(t *testing.T) {
	assert.False(t, FileExists("/non/existent/file"))

	path := WriteFile(t, t.TempDir(), "nested/note.txt", []byte("hello"))
	assert.True(t, FileExists(path))
	assert.False(t, DirExists(path))
}

func TestSampleFixtures_NamesAndProfiles(t *testing.T) {
	seen := make(map[string]bool)
	for _, fixture := range SampleFixtures() {
		assert.False(t, seen[fixture.Name], "duplicate fixture %s", fixture.Name)
		seen[fixture.Name] = true
		assert.NotEmpty(t, fixture.Profile, fixture.Name)
	}
}

func TestVisionResponse(t *testing.T) {
	doc, err := layout.Decode(VisionResponse("Name: Ann", "A1 10 5"))
	require.NoError(t, err)

	assert.Equal(t, "Name: Ann\nA1 10 5\n", doc.Text)
	require.Len(t, doc.Pages, 1)
	words := doc.Words()
	require.Len(t, words, 5)
	assert.Equal(t, "Name:", words[0].Text())
	assert.InDelta(t, VisionWordHeight, words[4].BoundingBox.Height(), 1e-9)
}

func TestTextPDF_XrefOffsets(t *testing.T) {
	data := TextPDF("Name: Ann (temp)", `C:\notes`)
	require.True(t, bytes.HasPrefix(data, []byte("%PDF-1.4")))
	assert.Contains(t, string(data), `(Name: Ann \(temp\)) Tj`)
	assert.Contains(t, string(data), `(C:\\notes) Tj`)

	entries := regexp.MustCompile(`(\d{10}) 00000 n `).FindAllStringSubmatch(string(data), -1)
	require.Len(t, entries, 5)
	for i, e := range entries {
		off, err := strconv.Atoi(e[1])
		require.NoError(t, err)
		assert.True(t, bytes.HasPrefix(data[off:], fmt.Appendf(nil, "%d 0 obj", i+1)), "object %d", i+1)
	}
}

func TestPNG(t *testing.T) {
	assert.True(t, bytes.HasPrefix(PNG(4, 4), []byte("\x89PNG\r\n\x1a\n")))
}
