package statement

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// Row is one CSV data row keyed by header column name.
type Row map[string]string

// Delimiter used by all supported exports.
const delimiter = ';'

// ReadRows parses a semicolon-delimited CSV with a header row into Rows.
// Rows may be ragged; missing trailing cells read as "".
func ReadRows(r io.Reader) (header []string, rows []Row, err error) {
	cr := csv.NewReader(r)
	cr.Comma = delimiter
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err = cr.Read()
	if err == io.EOF {
		return nil, nil, &InputFormatError{Reason: "file is empty"}
	}
	if err != nil {
		return nil, nil, fmt.Errorf("ReadRows: reading header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("ReadRows: reading row %d: %w", len(rows)+1, err)
		}
		if isBlank(rec) {
			continue
		}
		row := make(Row, len(header))
		for i, name := range header {
			if i < len(rec) {
				row[name] = rec[i]
			} else {
				row[name] = ""
			}
		}
		rows = append(rows, row)
	}

	return header, rows, nil
}

func isBlank(rec []string) bool {
	for _, cell := range rec {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
