// internal/output/json_test.go
package output

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestJSONWriter_Write(t *testing.T) {
	filePath := filepath.Join(t.TempDir(), "products.json")

	writer, err := NewJSONWriter(filePath)
	if err != nil {
		t.Fatalf("Failed to create JSON writer: %v", err)
	}
	records := sampleRecords()
	if err := writer.Write(Columns(records), records); err != nil {
		t.Fatalf("Failed to write data: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Failed to close writer: %v", err)
	}

	raw, err := os.ReadFile(filePath)
	if err != nil {
		t.Fatalf("Failed to read file: %v", err)
	}

	var result []map[string]*string
	if err := json.Unmarshal(raw, &result); err != nil {
		t.Fatalf("Output is not valid JSON: %v", err)
	}
	if len(result) != 2 {
		t.Fatalf("Expected 2 objects, got %d", len(result))
	}

	if v, ok := result[0]["Память"]; !ok || v != nil {
		t.Errorf("Expected null for missing column, got %v (present=%v)", v, ok)
	}
	if v := result[1]["Память"]; v == nil || *v != "128 ГБ" {
		t.Errorf("Expected Память=128 ГБ, got %v", v)
	}
	if v := result[1]["Seller_1"]; v != nil {
		t.Errorf("Expected null Seller_1 in second object, got %v", *v)
	}
}

func TestJSONWriter_KeepsColumnOrder(t *testing.T) {
	filePath := filepath.Join(t.TempDir(), "ordered.json")

	writer, err := NewJSONWriter(filePath)
	if err != nil {
		t.Fatalf("Failed to create JSON writer: %v", err)
	}
	records := []Record{rec("z", "1", "a", "2", "m", "<3>")}
	if err := writer.Write(Columns(records), records); err != nil {
		t.Fatalf("Failed to write data: %v", err)
	}
	writer.Close()

	raw, _ := os.ReadFile(filePath)
	out := string(raw)
	if !(strings.Index(out, `"z"`) < strings.Index(out, `"a"`) && strings.Index(out, `"a"`) < strings.Index(out, `"m"`)) {
		t.Errorf("Expected keys in column order, got %s", out)
	}
	if !strings.Contains(out, "<3>") {
		t.Errorf("Expected HTML characters to be written unescaped, got %s", out)
	}
}
