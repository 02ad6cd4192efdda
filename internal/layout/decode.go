package layout

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNoAnnotation is returned when JSON carries no recognizable OCR result.
var ErrNoAnnotation = errors.New("no OCR annotation found")

// visionResponse covers the wrappers OCR JSON arrives in: a bare document, an
// annotate response, or a batch of responses.
type visionResponse struct {
	Text               *string     `json:"text"`
	Pages              []Page      `json:"pages"`
	FullTextAnnotation *Document   `json:"fullTextAnnotation"`
	Responses          []visionRes `json:"responses"`
}

type visionRes struct {
	FullTextAnnotation *Document `json:"fullTextAnnotation"`
}

// Decode parses OCR JSON. It accepts {"text", "pages"}, an object holding
// "fullTextAnnotation", or a batch response whose first entry holds one.
func Decode(data []byte) (*Document, error) {
	var resp visionResponse
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&resp); err != nil {
		return nil, fmt.Errorf("failed to parse OCR JSON: %w", err)
	}

	switch {
	case resp.FullTextAnnotation != nil:
		return resp.FullTextAnnotation, nil
	case len(resp.Responses) > 0:
		if resp.Responses[0].FullTextAnnotation == nil {
			return nil, fmt.Errorf("%w: first response has no fullTextAnnotation", ErrNoAnnotation)
		}
		return resp.Responses[0].FullTextAnnotation, nil
	case resp.Text != nil || resp.Pages != nil:
		doc := &Document{Pages: resp.Pages}
		if resp.Text != nil {
			doc.Text = *resp.Text
		}
		return doc, nil
	}
	return nil, ErrNoAnnotation
}
