package source

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/MeKo-Tech/notepeel/internal/analyzer"
	"github.com/dslipak/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// decodePDF validates the document and reads its text layer row by row.
func decodePDF(data []byte) (*analyzer.Input, error) {
	pages, err := api.PageCount(bytes.NewReader(data), model.NewDefaultConfiguration())
	if err != nil {
		return nil, fmt.Errorf("%w: invalid PDF: %w", ErrUnsupported, err)
	}
	if pages == 0 {
		return nil, fmt.Errorf("%w: PDF has no pages", ErrEmptyInput)
	}

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}

	var text strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			return nil, fmt.Errorf("failed to extract text from page %d: %w", i, err)
		}
		for _, row := range rows {
			words := make([]string, 0, len(row.Content))
			for _, t := range row.Content {
				words = append(words, t.S)
			}
			text.WriteString(strings.Join(words, " "))
			text.WriteByte('\n')
		}
	}
	return &analyzer.Input{Text: text.String()}, nil
}
