package ingest

import (
	"bytes"
	"errors"
	"strings"

	"github.com/xuri/excelize/v2"
)

var errNoWorksheet = errors.New("workbook has no worksheets")

// ReadWorkbookRows returns the non-blank rows of the first worksheet.
func ReadWorkbookRows(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errNoWorksheet
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, err
	}

	out := make([][]string, 0, len(rows))
	for _, row := range rows {
		if strings.TrimSpace(strings.Join(row, "")) == "" {
			continue
		}
		out = append(out, row)
	}
	return out, nil
}
