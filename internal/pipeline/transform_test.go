// internal/pipeline/transform_test.go
package pipeline

import (
	"testing"
)

func TestTransformRule_Apply(t *testing.T) {
	tests := []struct {
		name        string
		rule        TransformRule
		input       string
		expected    string
		expectError bool
	}{
		{
			name:     "trim spaces",
			rule:     TransformRule{Type: "trim"},
			input:    "  Apple iPhone 15  ",
			expected: "Apple iPhone 15",
		},
		{
			name:     "normalize spaces",
			rule:     TransformRule{Type: "normalize_spaces"},
			input:    "Apple   iPhone\n\t15",
			expected: "Apple iPhone 15",
		},
		{
			name:     "lowercase",
			rule:     TransformRule{Type: "lowercase"},
			input:    "Смартфон APPLE",
			expected: "смартфон apple",
		},
		{
			name:     "uppercase",
			rule:     TransformRule{Type: "uppercase"},
			input:    "gb",
			expected: "GB",
		},
		{
			name:     "extract number with decimal comma",
			rule:     TransformRule{Type: "extract_number"},
			input:    "4,8 (12 отзывов)",
			expected: "4.8",
		},
		{
			name:     "extract number from text without digits",
			rule:     TransformRule{Type: "extract_number"},
			input:    "нет отзывов",
			expected: "",
		},
		{
			name:     "clean price",
			rule:     TransformRule{Type: "clean_price"},
			input:    "129 990 ₸",
			expected: "129990",
		},
		{
			name:     "parse int",
			rule:     TransformRule{Type: "parse_int"},
			input:    " 042 ",
			expected: "42",
		},
		{
			name:        "parse int rejects text",
			rule:        TransformRule{Type: "parse_int"},
			input:       "12 шт",
			expectError: true,
		},
		{
			name:     "parse float with comma",
			rule:     TransformRule{Type: "parse_float"},
			input:    "6,1",
			expected: "6.1",
		},
		{
			name:     "regex replace",
			rule:     TransformRule{Type: "regex", Pattern: `(\d+)\s*ГБ`, Replacement: "${1} GB"},
			input:    "256 ГБ",
			expected: "256 GB",
		},
		{
			name:     "replace",
			rule:     TransformRule{Type: "replace", Pattern: "Да", Replacement: "yes"},
			input:    "Да",
			expected: "yes",
		},
		{
			name:     "prefix",
			rule:     TransformRule{Type: "prefix", Value: "https://kaspi.kz"},
			input:    "/shop/p/1/",
			expected: "https://kaspi.kz/shop/p/1/",
		},
		{
			name:     "suffix",
			rule:     TransformRule{Type: "suffix", Value: " ₸"},
			input:    "1000",
			expected: "1000 ₸",
		},
		{
			name:        "unknown transform",
			rule:        TransformRule{Type: "title"},
			input:       "x",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := tt.rule.Apply(tt.input)
			if tt.expectError {
				if err == nil {
					t.Errorf("expected error but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, result)
			}
		})
	}
}

func TestTransformList_Apply(t *testing.T) {
	rules := TransformList{
		{Type: "normalize_spaces"},
		{Type: "clean_price"},
		{Type: "parse_int"},
	}
	result, err := rules.Apply("  1 299   990 ₸ ")
	if err != nil {
		t.Fatalf("Failed to apply rules: %v", err)
	}
	if result != "1299990" {
		t.Errorf("expected 1299990, got %q", result)
	}

	failing := TransformList{{Type: "trim"}, {Type: "parse_float"}}
	if _, err := failing.Apply("n/a"); err == nil {
		t.Error("expected error from parse_float")
	}
}

func TestValidateTransformRules(t *testing.T) {
	tests := []struct {
		name    string
		rules   TransformList
		wantErr bool
	}{
		{name: "valid rules", rules: TransformList{{Type: "trim"}, {Type: "regex", Pattern: `\s+`}}},
		{name: "empty list", rules: nil},
		{name: "unknown type", rules: TransformList{{Type: "reverse"}}, wantErr: true},
		{name: "regex without pattern", rules: TransformList{{Type: "regex"}}, wantErr: true},
		{name: "invalid regex", rules: TransformList{{Type: "regex", Pattern: "("}}, wantErr: true},
		{name: "replace without pattern", rules: TransformList{{Type: "replace"}}, wantErr: true},
		{name: "prefix without value", rules: TransformList{{Type: "prefix"}}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTransformRules(tt.rules)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateTransformRules() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
