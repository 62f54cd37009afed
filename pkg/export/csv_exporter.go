package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// GroupColumn is prepended to every CSV record so grouped rows survive flattening.
const GroupColumn = "group"

// CSVExporter renders Dataset records into CSV bytes.
type CSVExporter struct{}

// NewCSVExporter builds a CSV exporter.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// Render produces CSV encoded bytes for the dataset.
func (e *CSVExporter) Render(data Dataset) ([]byte, error) {
	if err := data.validate(); err != nil {
		return nil, err
	}
	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)
	headers := append([]string{GroupColumn}, data.Headers...)
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("write csv headers: %w", err)
	}
	for _, group := range data.Groups {
		for _, row := range group.Rows {
			record := make([]string, 0, len(headers))
			record = append(record, group.Heading)
			for i := range data.Headers {
				record = append(record, cell(row, i))
			}
			if err := writer.Write(record); err != nil {
				return nil, fmt.Errorf("write csv row: %w", err)
			}
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
