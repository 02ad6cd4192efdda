// Package source sniffs uploaded or on-disk documents and decodes them into
// analyzer input. Plain text, OCR JSON and PDFs with a text layer are
// accepted; raster images are rejected because they need an OCR engine first.
package source

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/MeKo-Tech/notepeel/internal/analyzer"
	"github.com/MeKo-Tech/notepeel/internal/layout"
)

var (
	// ErrEmptyInput is returned for input with no content or no text.
	ErrEmptyInput = errors.New("empty input")
	// ErrUnsupported is returned for input the analyzer cannot read.
	ErrUnsupported = errors.New("unsupported input")
)

// Kind is a detected input format.
type Kind string

const (
	KindText    Kind = "text"
	KindOCRJSON Kind = "ocr-json"
	KindPDF     Kind = "pdf"
	KindImage   Kind = "image"
)

var imageMagic = [][]byte{
	[]byte("\x89PNG\r\n\x1a\n"),
	[]byte("\xff\xd8\xff"),
	[]byte("GIF87a"),
	[]byte("GIF89a"),
	[]byte("II*\x00"),
	[]byte("MM\x00*"),
}

// Sniff detects the format of data. filename and contentType are hints and
// may be empty.
func Sniff(data []byte, filename, contentType string) (Kind, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return "", ErrEmptyInput
	}
	if bytes.HasPrefix(data, []byte("%PDF")) {
		return KindPDF, nil
	}
	if isImage(data) {
		return KindImage, fmt.Errorf("%w: %s is an image, run OCR on it first", ErrUnsupported, describe(filename))
	}

	trimmed := bytes.TrimLeft(data, " \t\r\n\ufeff")
	if len(trimmed) > 0 && trimmed[0] == '{' && json.Valid(trimmed) {
		return KindOCRJSON, nil
	}
	if isTextHint(filename, contentType) || utf8.Valid(data) {
		return KindText, nil
	}
	return "", fmt.Errorf("%w: %s is neither text, OCR JSON nor PDF", ErrUnsupported, describe(filename))
}

// Decode sniffs data and converts it into analyzer input.
func Decode(data []byte, filename, contentType string) (*analyzer.Input, error) {
	kind, err := Sniff(data, filename, contentType)
	if err != nil {
		return nil, err
	}

	var in *analyzer.Input
	switch kind {
	case KindPDF:
		in, err = decodePDF(data)
	case KindOCRJSON:
		in, err = decodeOCRJSON(data)
	default:
		in = &analyzer.Input{Text: strings.ToValidUTF8(string(data), "\uFFFD")}
	}
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(in.Text) == "" {
		return nil, fmt.Errorf("%w: %s contains no text", ErrEmptyInput, describe(filename))
	}
	return in, nil
}

// ReadFile reads and decodes the document at path.
func ReadFile(path string) (*analyzer.Input, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	in, err := Decode(data, path, "")
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return in, nil
}

func decodeOCRJSON(data []byte) (*analyzer.Input, error) {
	doc, err := layout.Decode(bytes.TrimLeft(data, "\ufeff"))
	if err != nil {
		if errors.Is(err, layout.ErrNoAnnotation) {
			return nil, fmt.Errorf("%w: %w", ErrUnsupported, err)
		}
		return nil, err
	}
	return FromParts("", doc)
}

// FromParts builds analyzer input from text that arrived separately from its
// layout, as in API requests. Blank text falls back to the layout's own text
// and then to its words.
func FromParts(text string, doc *layout.Document) (*analyzer.Input, error) {
	if strings.TrimSpace(text) == "" && doc != nil {
		text = doc.Text
		if strings.TrimSpace(text) == "" {
			text = doc.PlainText()
		}
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: no text provided", ErrEmptyInput)
	}
	return &analyzer.Input{Text: text, Layout: doc}, nil
}

func isImage(data []byte) bool {
	for _, magic := range imageMagic {
		if bytes.HasPrefix(data, magic) {
			return true
		}
	}
	// BMP: "BM" followed by the file size and four reserved zero bytes.
	return len(data) >= 14 && bytes.HasPrefix(data, []byte("BM")) && bytes.Equal(data[6:10], []byte{0, 0, 0, 0})
}

func isTextHint(filename, contentType string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".txt", ".text", ".md":
		return true
	}
	if contentType == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	return err == nil && strings.HasPrefix(mediaType, "text/")
}

func describe(filename string) string {
	if filename == "" {
		return "input"
	}
	return filepath.Base(filename)
}
