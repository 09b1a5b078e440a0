// internal/config/validation.go - validation with detailed error messages
package config

import (
	"fmt"
	"strings"

	"github.com/andybalholm/cascadia"
	"github.com/rs/zerolog"

	"github.com/Dst88/kaspi-parser/internal/catalog"
	"github.com/Dst88/kaspi-parser/internal/output"
	"github.com/Dst88/kaspi-parser/internal/utils"
)

// ValidationError represents a detailed validation error
type ValidationError struct {
	Field   string `json:"field"`
	Value   string `json:"value"`
	Message string `json:"message"`
}

func (ve ValidationError) Error() string {
	if ve.Value == "" {
		return fmt.Sprintf("%s: %s", ve.Field, ve.Message)
	}
	return fmt.Sprintf("%s: %s (value: %s)", ve.Field, ve.Message, ve.Value)
}

// ValidationResult holds validation results
type ValidationResult struct {
	Valid    bool              `json:"valid"`
	Errors   []ValidationError `json:"errors"`
	Warnings []string          `json:"warnings"`
}

func (r *ValidationResult) addError(field, value, format string, args ...interface{}) {
	r.Valid = false
	r.Errors = append(r.Errors, ValidationError{
		Field:   field,
		Value:   value,
		Message: fmt.Sprintf(format, args...),
	})
}

// Validate checks the configuration and returns an INVALID_CONFIG error
// listing every problem found.
func (c *Config) Validate() error {
	result := c.Check()
	if result.Valid {
		return nil
	}
	return utils.NewError(utils.ErrCodeInvalidConfig, formatValidationErrors(result)).
		WithContext("errors", len(result.Errors)).
		Build()
}

// Check runs every validation and collects errors and warnings.
func (c *Config) Check() *ValidationResult {
	result := &ValidationResult{
		Valid:    true,
		Errors:   make([]ValidationError, 0),
		Warnings: make([]string, 0),
	}

	c.validateTarget(result)
	c.validateLimits(result)
	c.validateBrowser(result)
	c.validateSelectors(result)
	c.validateOutput(result)
	c.validateTransforms(result)
	c.validateServer(result)
	c.validateLog(result)

	return result
}

func (c *Config) validateTransforms(result *ValidationResult) {
	if err := c.Transforms.Validate(); err != nil {
		result.addError("transforms", "", "%s", err.Error())
	}
}

func (c *Config) validateTarget(result *ValidationResult) {
	if c.StartURL != "" && !utils.IsHTTPURL(c.StartURL) {
		result.addError("start_url", c.StartURL, "URL must be absolute and use http:// or https://")
	}
	if c.Origin != "" && !utils.IsHTTPURL(c.Origin) {
		result.addError("origin", c.Origin, "origin must be an absolute http(s) URL")
	}
	if strings.HasPrefix(strings.ToLower(c.StartURL), "http://") {
		result.Warnings = append(result.Warnings, "Using HTTP instead of HTTPS for start_url")
	}
	if _, err := catalog.LabelsFor(c.Locale); err != nil {
		result.addError("locale", c.Locale, "locale must be ru or en")
	}
}

func (c *Config) validateLimits(result *ValidationResult) {
	if c.MaxSellers < 0 {
		result.addError("max_sellers", fmt.Sprint(c.MaxSellers), "must not be negative")
	}
	if c.MaxPages < 0 {
		result.addError("max_pages", fmt.Sprint(c.MaxPages), "must not be negative (0 means unlimited)")
	}
	if c.LoadRetries < 0 || c.LoadRetries > 10 {
		result.addError("load_retries", fmt.Sprint(c.LoadRetries), "must be between 0 and 10")
	}
	if c.RetryDelay < 0 {
		result.addError("retry_delay", c.RetryDelay.String(), "must not be negative")
	}
}

func (c *Config) validateBrowser(result *ValidationResult) {
	b := c.Browser
	if b.Timeout < 0 {
		result.addError("browser.timeout", b.Timeout.String(), "must not be negative")
	}
	if b.ViewportWidth < 0 || b.ViewportHeight < 0 {
		result.addError("browser.viewport", fmt.Sprintf("%dx%d", b.ViewportWidth, b.ViewportHeight), "dimensions must not be negative")
	}
	if b.PageDelay < 0 || b.WaitDelay < 0 {
		result.addError("browser.page_delay", b.PageDelay.String(), "delays must not be negative")
	}
	if !b.Headless {
		result.Warnings = append(result.Warnings, "Browser runs with a visible window")
	}
}

// validateSelectors compiles CSS selectors the way goquery does and checks
// that XPath expressions are rooted.
func (c *Config) validateSelectors(result *ValidationResult) {
	s := c.Selectors
	css := []struct {
		field, value string
	}{
		{"card", s.Card},
		{"name", s.Name},
		{"link", s.Link},
		{"price", s.Price},
		{"rating", s.Rating},
		{"short_spec", s.ShortSpec},
		{"spec_entry", s.SpecEntry},
		{"spec_term", s.SpecTerm},
		{"spec_definition", s.SpecDefinition},
		{"seller_table", s.SellerTable},
		{"seller_row", s.SellerRow},
		{"seller_link", s.SellerLink},
		{"seller_price", s.SellerPrice},
	}
	for _, sel := range css {
		if sel.value == "" {
			continue
		}
		if _, err := cascadia.ParseGroup(sel.value); err != nil {
			result.addError("selectors."+sel.field, sel.value, "invalid CSS selector: %v", err)
		}
	}

	xpaths := []struct {
		field, value string
	}{
		{"spec_tab_xpath", s.SpecTab},
		{"next_page_xpath", s.NextPage},
	}
	for _, xp := range xpaths {
		v := strings.TrimSpace(xp.value)
		if v != "" && !strings.HasPrefix(v, "/") && !strings.HasPrefix(v, "(") {
			result.addError("selectors."+xp.field, xp.value, "XPath expression must start with / or (")
		}
	}
}

func (c *Config) validateOutput(result *ValidationResult) {
	if _, err := output.ParseFormat(c.Output.Format); err != nil {
		names := make([]string, 0, len(output.ValidFormats()))
		for _, f := range output.ValidFormats() {
			names = append(names, string(f))
		}
		result.addError("output.format", c.Output.Format, "supported formats: %s", strings.Join(names, ", "))
	}
	if strings.ContainsAny(c.Output.Prefix, `/\`) {
		result.addError("output.prefix", c.Output.Prefix, "prefix must not contain path separators")
	}
	if c.Output.SheetName != "" && len([]rune(c.Output.SheetName)) > 31 {
		result.addError("output.sheet_name", c.Output.SheetName, "sheet names are limited to 31 characters")
	}
}

func (c *Config) validateServer(result *ValidationResult) {
	if c.Server.RateLimit < 0 {
		result.addError("server.rate_limit", fmt.Sprint(c.Server.RateLimit), "must not be negative (0 disables limiting)")
	}
	if c.Server.Burst < 0 {
		result.addError("server.burst", fmt.Sprint(c.Server.Burst), "must not be negative")
	}
	if c.Server.LogBuffer < 0 {
		result.addError("server.log_buffer", fmt.Sprint(c.Server.LogBuffer), "must not be negative")
	}
}

func (c *Config) validateLog(result *ValidationResult) {
	if c.Log.Level == "" {
		return
	}
	if _, err := zerolog.ParseLevel(strings.ToLower(c.Log.Level)); err != nil {
		result.addError("log.level", c.Log.Level, "unknown log level")
	}
}

// formatValidationErrors creates a comprehensive error message
func formatValidationErrors(result *ValidationResult) string {
	var msg strings.Builder

	msg.WriteString("configuration validation failed:")
	for i, err := range result.Errors {
		msg.WriteString(fmt.Sprintf("\n  %d. %s", i+1, err.Error()))
	}

	return msg.String()
}
