// internal/output/types.go
package output

import (
	"fmt"
	"strings"
)

// Format represents supported output formats
type Format string

const (
	FormatXLSX   Format = "xlsx"
	FormatCSV    Format = "csv"
	FormatJSON   Format = "json"
	FormatYAML   Format = "yaml"
	FormatSQLite Format = "sqlite"
)

// formatAliases maps descriptive format names to concrete formats.
var formatAliases = map[string]Format{
	"spreadsheet": FormatXLSX,
	"excel":       FormatXLSX,
	"delimited":   FormatCSV,
	"structured":  FormatJSON,
	"yml":         FormatYAML,
	"sqlite3":     FormatSQLite,
	"db":          FormatSQLite,
}

// ValidFormats returns all valid output format values
func ValidFormats() []Format {
	return []Format{FormatXLSX, FormatCSV, FormatJSON, FormatYAML, FormatSQLite}
}

// ParseFormat resolves a format name or alias, ignoring case.
func ParseFormat(name string) (Format, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	if f := Format(n); f.IsValid() {
		return f, nil
	}
	if f, ok := formatAliases[n]; ok {
		return f, nil
	}
	return "", fmt.Errorf("unsupported output format: %q", name)
}

// IsValid checks if the output format is valid
func (f Format) IsValid() bool {
	for _, valid := range ValidFormats() {
		if f == valid {
			return true
		}
	}
	return false
}

// Extension returns the file extension for the format, dot included.
func (f Format) Extension() string {
	switch f {
	case FormatXLSX:
		return ".xlsx"
	case FormatCSV:
		return ".csv"
	case FormatJSON:
		return ".json"
	case FormatYAML:
		return ".yaml"
	case FormatSQLite:
		return ".db"
	default:
		return ".dat"
	}
}

// MimeType returns the MIME type served for files of the format.
func (f Format) MimeType() string {
	switch f {
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatCSV:
		return "text/csv"
	case FormatJSON:
		return "application/json"
	case FormatYAML:
		return "application/yaml"
	case FormatSQLite:
		return "application/vnd.sqlite3"
	default:
		return "application/octet-stream"
	}
}

// Record is one exported row: string values under ordered keys.
type Record interface {
	Keys() []string
	Get(key string) (string, bool)
}

// Columns returns the union of record keys in first-seen order.
func Columns(records []Record) []string {
	seen := make(map[string]bool)
	var columns []string
	for _, r := range records {
		for _, k := range r.Keys() {
			if !seen[k] {
				seen[k] = true
				columns = append(columns, k)
			}
		}
	}
	return columns
}

// Writer writes a complete set of records with the given columns.
type Writer interface {
	Write(columns []string, records []Record) error
	Close() error
}

// Options tune individual writers.
type Options struct {
	// CSVBOM prefixes CSV output with a UTF-8 byte order mark so that
	// spreadsheet applications detect the encoding.
	CSVBOM    bool   `yaml:"csv_bom" json:"csv_bom"`
	SheetName string `yaml:"sheet_name" json:"sheet_name"`
	Table     string `yaml:"table" json:"table"`
}

// DefaultOptions returns the writer defaults.
func DefaultOptions() Options {
	return Options{
		CSVBOM:    true,
		SheetName: "Products",
		Table:     "products",
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.SheetName == "" {
		o.SheetName = d.SheetName
	}
	if o.Table == "" {
		o.Table = d.Table
	}
	return o
}
