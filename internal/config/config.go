// internal/config/config.go
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Dst88/kaspi-parser/internal/browser"
	"github.com/Dst88/kaspi-parser/internal/catalog"
	"github.com/Dst88/kaspi-parser/internal/monitoring"
	"github.com/Dst88/kaspi-parser/internal/pipeline"
	"github.com/Dst88/kaspi-parser/internal/runner"
	"github.com/Dst88/kaspi-parser/internal/utils"
)

// Default returns the configuration used when no file is given
func Default() *Config {
	return &Config{
		Locale:     DefaultLocale,
		MaxSellers: catalog.DefaultMaxSellers,
		RetryDelay: DefaultRetryDelay,
		Browser:    *browser.DefaultBrowserConfig(),
		Selectors:  catalog.DefaultSelectors(),
		Output: OutputConfig{
			Format: DefaultFormat,
			Dir:    DefaultOutputDir,
			Prefix: DefaultOutputPrefix,
			CSVBOM: true,
		},
		Server: ServerConfig{
			Listen:    DefaultListen,
			RateLimit: DefaultRateLimit,
			Burst:     DefaultBurst,
			LogBuffer: runner.DefaultLogBuffer,
		},
		Log:     utils.DefaultLogConfig(),
		Metrics: monitoring.MetricsConfig{Namespace: "kaspi_parser"},
	}
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(filename string) (*Config, error) {
	if filename == "" {
		return nil, fmt.Errorf("configuration filename cannot be empty")
	}

	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s", filename)
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file: %w", err)
	}

	return LoadFromBytes(data)
}

// LoadFromBytes loads configuration from YAML bytes. Keys absent from the
// document keep their default values.
func LoadFromBytes(data []byte) (*Config, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("configuration data cannot be empty")
	}

	expanded := expandEnvironmentVariables(string(data))

	config := Default()
	decoder := yaml.NewDecoder(strings.NewReader(expanded))
	decoder.KnownFields(true)
	if err := decoder.Decode(config); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse YAML configuration: %w", err)
	}

	applyDefaults(config)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// LoadFromReader loads configuration from an io.Reader
func LoadFromReader(reader io.Reader) (*Config, error) {
	if reader == nil {
		return nil, fmt.Errorf("reader cannot be nil")
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read from reader: %w", err)
	}

	return LoadFromBytes(data)
}

// SaveToFile saves configuration to a YAML file
func SaveToFile(config *Config, filename string) error {
	if filename == "" {
		return fmt.Errorf("filename cannot be empty")
	}

	var buf bytes.Buffer
	if err := SaveToWriter(config, &buf); err != nil {
		return err
	}

	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	if err := os.WriteFile(filename, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write configuration file: %w", err)
	}

	return nil
}

// SaveToWriter saves configuration to an io.Writer
func SaveToWriter(config *Config, writer io.Writer) error {
	if config == nil {
		return fmt.Errorf("configuration cannot be nil")
	}

	if writer == nil {
		return fmt.Errorf("writer cannot be nil")
	}

	if err := config.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	encoder := yaml.NewEncoder(writer)
	encoder.SetIndent(2)
	if err := encoder.Encode(config); err != nil {
		return fmt.Errorf("failed to marshal configuration to YAML: %w", err)
	}

	return encoder.Close()
}

// GenerateTemplate returns a complete configuration for the given locale
// that can be edited and passed back with --config.
func GenerateTemplate(locale string) Config {
	config := Default()
	config.StartURL = "https://kaspi.kz/shop/c/smartphones/"
	config.Origin = "https://kaspi.kz"
	if strings.EqualFold(strings.TrimSpace(locale), "en") {
		config.Locale = "en"
	}
	if labels, err := catalog.LabelsFor(config.Locale); err == nil {
		config.Transforms = pipeline.Config{
			Columns: []pipeline.ColumnTransform{
				{Column: labels.Price, Rules: pipeline.TransformList{{Type: "clean_price"}}},
			},
			DedupBy: labels.Link,
		}
	}
	return *config
}

func expandEnvironmentVariables(content string) string {
	return os.ExpandEnv(content)
}

// applyDefaults restores values that a document cleared explicitly.
func applyDefaults(config *Config) {
	if config.Locale == "" {
		config.Locale = DefaultLocale
	}

	if config.MaxSellers == 0 {
		config.MaxSellers = catalog.DefaultMaxSellers
	}

	if config.RetryDelay == 0 {
		config.RetryDelay = DefaultRetryDelay
	}

	config.Selectors = config.Selectors.WithDefaults()

	// Browser
	defaults := browser.DefaultBrowserConfig()
	if config.Browser.Timeout == 0 {
		config.Browser.Timeout = defaults.Timeout
	}
	if config.Browser.ViewportWidth == 0 {
		config.Browser.ViewportWidth = defaults.ViewportWidth
	}
	if config.Browser.ViewportHeight == 0 {
		config.Browser.ViewportHeight = defaults.ViewportHeight
	}
	if config.Browser.UserAgent == "" {
		config.Browser.UserAgent = defaults.UserAgent
	}

	// Output
	if config.Output.Format == "" {
		config.Output.Format = DefaultFormat
	}
	if config.Output.Dir == "" {
		config.Output.Dir = DefaultOutputDir
	}
	if config.Output.Prefix == "" {
		config.Output.Prefix = DefaultOutputPrefix
	}

	// Server
	if config.Server.Listen == "" {
		config.Server.Listen = DefaultListen
	}
	if config.Server.Burst == 0 {
		config.Server.Burst = DefaultBurst
	}
	if config.Server.LogBuffer == 0 {
		config.Server.LogBuffer = runner.DefaultLogBuffer
	}

	if config.Log.Level == "" {
		config.Log.Level = "info"
	}
	if config.Metrics.Namespace == "" {
		config.Metrics.Namespace = "kaspi_parser"
	}
}
