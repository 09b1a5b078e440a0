// internal/output/manager.go
package output

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/Dst88/kaspi-parser/internal/utils"
)

// Manager writes record sets in any supported format
type Manager struct {
	opts   Options
	logger utils.Logger
}

// NewManager creates a new output manager
func NewManager(opts Options, logger utils.Logger) *Manager {
	if logger == nil {
		logger = utils.NewNopLogger()
	}
	return &Manager{opts: opts.withDefaults(), logger: logger}
}

// Export writes records to path in format. Columns are the union of record
// keys in first-seen order. An empty record set is rejected.
func Export(path string, format Format, records []Record) error {
	return NewManager(DefaultOptions(), nil).Export(path, format, records)
}

// GetWriter returns the writer for format, creating its file at path
func (m *Manager) GetWriter(path string, format Format) (Writer, error) {
	switch format {
	case FormatXLSX:
		return NewExcelWriter(path, m.opts.SheetName)
	case FormatCSV:
		return NewCSVWriter(path, m.opts.CSVBOM)
	case FormatJSON:
		return NewJSONWriter(path)
	case FormatYAML:
		return NewYAMLWriter(path)
	case FormatSQLite:
		return NewSQLiteWriter(path, m.opts.Table)
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

// Export writes records to path in format
func (m *Manager) Export(path string, format Format, records []Record) error {
	if len(records) == 0 {
		return utils.NewError(utils.ErrCodeOutputFailed, "no records to export").Build()
	}
	if path == "" {
		return utils.NewError(utils.ErrCodeOutputFailed, "output path is required").Build()
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return utils.WrapError(err, utils.ErrCodeOutputFailed, "failed to create output directory")
		}
	}

	writer, err := m.GetWriter(path, format)
	if err != nil {
		return utils.WrapError(err, utils.ErrCodeOutputFailed, "failed to get writer")
	}

	columns := Columns(records)
	if err := writer.Write(columns, records); err != nil {
		writer.Close()
		return utils.NewError(utils.ErrCodeOutputFailed, "failed to write output").
			WithCause(err).WithContext("path", path).WithContext("format", string(format)).Build()
	}
	if err := writer.Close(); err != nil {
		return utils.WrapError(err, utils.ErrCodeOutputFailed, "failed to close output")
	}

	m.logger.WithFields(map[string]interface{}{
		"path":    path,
		"format":  string(format),
		"records": len(records),
		"columns": len(columns),
	}).Info("export written")
	return nil
}
