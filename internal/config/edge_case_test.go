// internal/config/edge_case_test.go
package config

import (
	"strings"
	"testing"

	"github.com/Dst88/kaspi-parser/internal/utils"
)

func TestLoadFromBytesEdgeCases(t *testing.T) {
	tests := []struct {
		name        string
		content     string
		expectError bool
		errorMsg    string
	}{
		{
			name:        "empty bytes",
			content:     "",
			expectError: true,
			errorMsg:    "cannot be empty",
		},
		{
			name:    "comments only",
			content: "# nothing configured\n",
		},
		{
			name:    "unicode sheet name",
			content: "output:\n  sheet_name: Товары\n",
		},
		{
			name:        "unknown key",
			content:     "max_page: 3\n",
			expectError: true,
			errorMsg:    "max_page",
		},
		{
			name:        "malformed yaml",
			content:     "output: [unclosed\n",
			expectError: true,
			errorMsg:    "failed to parse",
		},
		{
			name:        "relative start url",
			content:     "start_url: kaspi.kz/shop/c/smartphones\n",
			expectError: true,
			errorMsg:    "start_url",
		},
		{
			name:        "unsupported locale",
			content:     "locale: kk\n",
			expectError: true,
			errorMsg:    "locale",
		},
		{
			name:        "unsupported format",
			content:     "output:\n  format: pdf\n",
			expectError: true,
			errorMsg:    "supported formats",
		},
		{
			name:        "negative pages",
			content:     "max_pages: -1\n",
			expectError: true,
			errorMsg:    "max_pages",
		},
		{
			name:        "too many retries",
			content:     "load_retries: 50\n",
			expectError: true,
			errorMsg:    "load_retries",
		},
		{
			name:        "broken css selector",
			content:     "selectors:\n  card: \"div[\"\n",
			expectError: true,
			errorMsg:    "selectors.card",
		},
		{
			name:        "relative xpath",
			content:     "selectors:\n  next_page_xpath: \"li[@class='next']\"\n",
			expectError: true,
			errorMsg:    "next_page_xpath",
		},
		{
			name:        "prefix with separator",
			content:     "output:\n  prefix: a/b\n",
			expectError: true,
			errorMsg:    "output.prefix",
		},
		{
			name:        "unknown log level",
			content:     "log:\n  level: loud\n",
			expectError: true,
			errorMsg:    "log.level",
		},
		{
			name:    "rate limiting disabled",
			content: "server:\n  rate_limit: 0\n",
		},
		{
			name:    "column transforms",
			content: "transforms:\n  dedup_by: Ссылка\n  columns:\n    - column: Цена\n      rules:\n        - type: clean_price\n",
		},
		{
			name:        "unknown transform type",
			content:     "transforms:\n  columns:\n    - column: Цена\n      rules:\n        - type: reverse\n",
			expectError: true,
			errorMsg:    "unknown transform type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config, err := LoadFromBytes([]byte(tt.content))

			if tt.expectError {
				if err == nil {
					t.Error("expected error but got none")
				} else if !strings.Contains(strings.ToLower(err.Error()), strings.ToLower(tt.errorMsg)) {
					t.Errorf("expected error to contain %q, got: %v", tt.errorMsg, err)
				}
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			} else if config == nil {
				t.Error("config should not be nil when no error")
			}
		})
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	config := Default()
	config.Locale = "fr"
	config.MaxPages = -2
	config.Output.Format = "xml"

	result := config.Check()
	if result.Valid || len(result.Errors) != 3 {
		t.Fatalf("expected 3 errors, got %+v", result.Errors)
	}

	err := config.Validate()
	if !utils.HasCode(err, utils.ErrCodeInvalidConfig) {
		t.Errorf("expected INVALID_CONFIG, got %v", err)
	}
	if !strings.Contains(err.Error(), "3. ") {
		t.Errorf("expected numbered error list, got %v", err)
	}
}

func TestValidate_Warnings(t *testing.T) {
	config := Default()
	config.StartURL = "http://kaspi.kz/shop/c/smartphones/"
	config.Browser.Headless = false

	result := config.Check()
	if !result.Valid {
		t.Fatalf("expected valid config, got %+v", result.Errors)
	}
	if len(result.Warnings) != 2 {
		t.Errorf("expected 2 warnings, got %v", result.Warnings)
	}
}
