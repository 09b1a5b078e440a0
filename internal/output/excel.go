// internal/output/excel.go
package output

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// DefaultExcelMaxCellLength is the maximum number of characters in one cell.
const DefaultExcelMaxCellLength = 32767

// ExcelWriter writes records to a single worksheet
type ExcelWriter struct {
	file      *excelize.File
	path      string
	sheetName string
}

// NewExcelWriter creates a new Excel writer
func NewExcelWriter(path, sheetName string) (*ExcelWriter, error) {
	if path == "" {
		return nil, fmt.Errorf("Excel file path is required")
	}
	if sheetName == "" {
		sheetName = DefaultOptions().SheetName
	}

	file := excelize.NewFile()

	// Rename the default sheet
	defaultSheet := file.GetSheetName(0)
	if defaultSheet != sheetName {
		if err := file.SetSheetName(defaultSheet, sheetName); err != nil {
			file.Close()
			return nil, fmt.Errorf("invalid sheet name %q: %w", sheetName, err)
		}
	}

	return &ExcelWriter{file: file, path: path, sheetName: sheetName}, nil
}

// Write fills the sheet: a bold header row, one row per record, a frozen
// header and an autofilter over the whole range. It saves the workbook.
func (w *ExcelWriter) Write(columns []string, records []Record) error {
	if len(columns) == 0 {
		return fmt.Errorf("no columns to write")
	}

	header := make([]interface{}, len(columns))
	for i, col := range columns {
		header[i] = col
	}
	if err := w.file.SetSheetRow(w.sheetName, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for n, r := range records {
		row := make([]interface{}, len(columns))
		for i, col := range columns {
			if v, ok := r.Get(col); ok {
				row[i] = truncateCell(v)
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, n+2)
		if err != nil {
			return err
		}
		if err := w.file.SetSheetRow(w.sheetName, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", n+2, err)
		}
	}

	if err := w.applyFinalFormatting(len(columns), len(records)+1); err != nil {
		return err
	}

	if err := w.file.SaveAs(w.path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

func (w *ExcelWriter) applyFinalFormatting(cols, rows int) error {
	lastCol, err := excelize.ColumnNumberToName(cols)
	if err != nil {
		return err
	}

	style, err := w.file.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E0E0E0"},
			Pattern: 1,
		},
	})
	if err != nil {
		return err
	}
	if err := w.file.SetCellStyle(w.sheetName, "A1", lastCol+"1", style); err != nil {
		return err
	}

	if err := w.file.SetColWidth(w.sheetName, "A", lastCol, 20); err != nil {
		return err
	}

	if err := w.file.AutoFilter(w.sheetName, fmt.Sprintf("A1:%s%d", lastCol, rows), nil); err != nil {
		return err
	}

	return w.file.SetPanes(w.sheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

func truncateCell(v string) string {
	r := []rune(v)
	if len(r) > DefaultExcelMaxCellLength {
		return string(r[:DefaultExcelMaxCellLength])
	}
	return v
}

// Close releases the workbook
func (w *ExcelWriter) Close() error {
	return w.file.Close()
}
