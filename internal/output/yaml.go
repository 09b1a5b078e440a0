// internal/output/yaml.go
package output

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// YAMLWriter writes records as a YAML sequence of mappings
type YAMLWriter struct {
	file    *os.File
	encoder *yaml.Encoder
}

// NewYAMLWriter creates a new YAML writer
func NewYAMLWriter(filename string) (*YAMLWriter, error) {
	if filename == "" {
		return nil, fmt.Errorf("YAML file path is required")
	}
	file, err := os.Create(filename)
	if err != nil {
		return nil, err
	}

	encoder := yaml.NewEncoder(file)
	encoder.SetIndent(2)

	return &YAMLWriter{file: file, encoder: encoder}, nil
}

// Write encodes all records as one document. Keys follow column order and
// missing values are omitted.
func (w *YAMLWriter) Write(columns []string, records []Record) error {
	doc := &yaml.Node{Kind: yaml.SequenceNode}
	for _, r := range records {
		mapping := &yaml.Node{Kind: yaml.MappingNode}
		for _, col := range columns {
			v, ok := r.Get(col)
			if !ok {
				continue
			}
			mapping.Content = append(mapping.Content, stringNode(col), stringNode(v))
		}
		doc.Content = append(doc.Content, mapping)
	}

	if err := w.encoder.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}
	return nil
}

// stringNode keeps values such as "4.8" or "нет" typed as strings.
func stringNode(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
}

// Close flushes the encoder and closes the file
func (w *YAMLWriter) Close() error {
	var firstErr error
	if w.encoder != nil {
		firstErr = w.encoder.Close()
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
