package ingest

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// wordGapRatio is the horizontal gap, as a fraction of the font size, above
// which two text fragments on one row are separated by a space.
const wordGapRatio = 0.15

// ExtractPDFText reconstructs the text of a PDF, one line per visual row and
// pages in order.
func ExtractPDFText(data []byte) (text string, err error) {
	// The reader panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("corrupt pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			return "", fmt.Errorf("page %d: %w", i, err)
		}
		for _, row := range rows {
			b.WriteString(joinRow(row.Content))
			b.WriteByte('\n')
		}
	}
	return b.String(), nil
}

func joinRow(fragments pdf.TextHorizontal) string {
	var b strings.Builder
	for i, t := range fragments {
		if i > 0 {
			prev := fragments[i-1]
			if t.X-(prev.X+prev.W) > t.FontSize*wordGapRatio && !strings.HasSuffix(prev.S, " ") {
				b.WriteByte(' ')
			}
		}
		b.WriteString(t.S)
	}
	return b.String()
}
