package extract

import (
	"bytes"
	"encoding/csv"
	"io"
	"strings"
)

// extractCSV renders CSV rows as tab-joined lines, matching the spreadsheet
// extractor's output shape. Rows may have varying field counts.
func extractCSV(content []byte) (string, error) {
	r := csv.NewReader(bytes.NewReader(content))
	r.FieldsPerRecord = -1
	var buf strings.Builder
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", &ExtractionError{Format: FormatCSV, Err: err}
		}
		buf.WriteString(strings.Join(record, "\t"))
		buf.WriteByte('\n')
	}
	return strings.TrimSpace(buf.String()), nil
}
