// Package render writes structured documents in the supported output formats.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/MeKo-Tech/notepeel/internal/document"
	"gopkg.in/yaml.v3"
)

// Format is an output format name.
type Format string

const (
	JSON     Format = "json"
	YAML     Format = "yaml"
	Text     Format = "text"
	Markdown Format = "markdown"
	HTML     Format = "html"
)

var formats = []Format{JSON, YAML, Text, Markdown, HTML}

// Formats lists the supported format names.
func Formats() []string {
	names := make([]string, 0, len(formats))
	for _, f := range formats {
		names = append(names, string(f))
	}
	return names
}

// ParseFormat resolves a format name. "yml", "md" and "txt" are accepted as
// aliases and an empty name means JSON.
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(name))); f {
	case "":
		return JSON, nil
	case "yml":
		return YAML, nil
	case "md":
		return Markdown, nil
	case "txt":
		return Text, nil
	default:
		if slices.Contains(formats, f) {
			return f, nil
		}
	}
	return "", fmt.Errorf("unsupported output format %q (supported: %s)", name, strings.Join(Formats(), ", "))
}

// ContentType returns the HTTP media type for f.
func ContentType(f Format) string {
	switch f {
	case YAML:
		return "application/yaml"
	case Text:
		return "text/plain; charset=utf-8"
	case Markdown:
		return "text/markdown; charset=utf-8"
	case HTML:
		return "text/html; charset=utf-8"
	default:
		return "application/json"
	}
}

// Extension returns the file extension, with dot, used for f.
func Extension(f Format) string {
	switch f {
	case YAML:
		return ".yaml"
	case Text:
		return ".txt"
	case Markdown:
		return ".md"
	case HTML:
		return ".html"
	default:
		return ".json"
	}
}

// Render writes doc to w in format f.
func Render(w io.Writer, doc *document.StructuredDocument, f Format) error {
	switch f {
	case JSON:
		return WriteJSON(w, doc)
	case YAML:
		return WriteYAML(w, doc)
	case Text:
		_, err := io.WriteString(w, PlainText(doc))
		return err
	case Markdown:
		_, err := io.WriteString(w, MarkdownText(doc))
		return err
	case HTML:
		return WriteHTML(w, doc)
	}
	return fmt.Errorf("unsupported output format %q", f)
}

// WriteJSON writes v as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteYAML writes v as YAML with two-space indentation.
func WriteYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}
