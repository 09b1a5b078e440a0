// internal/output/csv.go
package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// CSVWriter writes records as comma-separated values
type CSVWriter struct {
	filename string
	file     *os.File
	encoder  io.WriteCloser
	writer   *csv.Writer
}

// NewCSVWriter creates a new CSV writer. With bom set the file starts with
// a UTF-8 byte order mark.
func NewCSVWriter(filename string, bom bool) (*CSVWriter, error) {
	file, err := os.Create(filename)
	if err != nil {
		return nil, err
	}

	w := &CSVWriter{filename: filename, file: file}
	var dst io.Writer = file
	if bom {
		w.encoder = transform.NewWriter(file, unicode.UTF8BOM.NewEncoder())
		dst = w.encoder
	}
	w.writer = csv.NewWriter(dst)
	return w, nil
}

// Write writes the header row and one row per record. Missing values are
// written as empty fields.
func (w *CSVWriter) Write(columns []string, records []Record) error {
	if err := w.writer.Write(columns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	row := make([]string, len(columns))
	for _, r := range records {
		for i, col := range columns {
			row[i], _ = r.Get(col)
		}
		if err := w.writer.Write(row); err != nil {
			return fmt.Errorf("failed to write record: %w", err)
		}
	}

	w.writer.Flush()
	return w.writer.Error()
}

// Close flushes and closes the CSV file
func (w *CSVWriter) Close() error {
	var firstErr error
	if w.writer != nil {
		w.writer.Flush()
		firstErr = w.writer.Error()
		w.writer = nil
	}
	if w.encoder != nil {
		if err := w.encoder.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		w.encoder = nil
	}
	if w.file != nil {
		if err := w.file.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		w.file = nil
	}
	return firstErr
}
