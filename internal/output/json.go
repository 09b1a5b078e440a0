// internal/output/json.go
package output

import (
	"bytes"
	"encoding/json"
	"os"
)

// JSONWriter writes records as a JSON array of objects
type JSONWriter struct {
	filename string
	file     *os.File
}

// NewJSONWriter creates a new JSON writer
func NewJSONWriter(filename string) (*JSONWriter, error) {
	file, err := os.Create(filename)
	if err != nil {
		return nil, err
	}

	return &JSONWriter{
		filename: filename,
		file:     file,
	}, nil
}

// orderedObject marshals its entries in column order. A nil value is
// written as null.
type orderedObject struct {
	keys   []string
	values []*string
}

func (o orderedObject) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range o.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := marshalRaw(k)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := marshalRaw(o.values[i])
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// marshalRaw encodes v without escaping HTML characters.
func marshalRaw(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Write writes all records. Every object carries every column; missing
// values are null.
func (w *JSONWriter) Write(columns []string, records []Record) error {
	rows := make([]orderedObject, 0, len(records))
	for _, r := range records {
		obj := orderedObject{keys: columns, values: make([]*string, len(columns))}
		for i, col := range columns {
			if v, ok := r.Get(col); ok {
				obj.values[i] = &v
			}
		}
		rows = append(rows, obj)
	}

	encoder := json.NewEncoder(w.file)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)
	return encoder.Encode(rows)
}

// Close closes the JSON writer
func (w *JSONWriter) Close() error {
	if w.file != nil {
		err := w.file.Close()
		w.file = nil
		return err
	}
	return nil
}
