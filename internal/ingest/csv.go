package ingest

import (
	"strings"
)

const utf8BOM = "\ufeff"

// SplitLine splits one delimited line into columns. A double quote toggles
// quoted mode, a doubled quote inside quotes is a literal quote, and commas
// only separate columns outside quotes. An unterminated quote runs to the end
// of the line.
func SplitLine(line string) []string {
	var (
		columns  []string
		current  strings.Builder
		inQuotes bool
	)
	for i := 0; i < len(line); i++ {
		ch := line[i]
		switch {
		case ch == '"':
			if inQuotes && i+1 < len(line) && line[i+1] == '"' {
				current.WriteByte('"')
				i++
				continue
			}
			inQuotes = !inQuotes
		case ch == ',' && !inQuotes:
			columns = append(columns, current.String())
			current.Reset()
		default:
			current.WriteByte(ch)
		}
	}
	return append(columns, current.String())
}

// ReadRows splits delimited text into rows of columns. Blank lines are
// skipped; \n, \r\n and bare \r all end a line.
func ReadRows(data []byte) [][]string {
	text := strings.TrimPrefix(string(data), utf8BOM)
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	var rows [][]string
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		rows = append(rows, SplitLine(line))
	}
	return rows
}
