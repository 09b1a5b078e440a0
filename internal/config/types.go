// internal/config/types.go
package config

import (
	"time"

	"github.com/Dst88/kaspi-parser/internal/browser"
	"github.com/Dst88/kaspi-parser/internal/catalog"
	"github.com/Dst88/kaspi-parser/internal/monitoring"
	"github.com/Dst88/kaspi-parser/internal/output"
	"github.com/Dst88/kaspi-parser/internal/pipeline"
	"github.com/Dst88/kaspi-parser/internal/utils"
)

// Config is the complete configuration of the parser
type Config struct {
	// StartURL is the first catalog page; the --url flag overrides it.
	StartURL string `yaml:"start_url,omitempty" json:"start_url,omitempty"`
	Origin   string `yaml:"origin,omitempty" json:"origin,omitempty"`
	Locale   string `yaml:"locale" json:"locale"`

	MaxSellers  int           `yaml:"max_sellers" json:"max_sellers"`
	MaxPages    int           `yaml:"max_pages" json:"max_pages"`
	LoadRetries int           `yaml:"load_retries" json:"load_retries"`
	RetryDelay  time.Duration `yaml:"retry_delay" json:"retry_delay"`

	Browser   browser.BrowserConfig `yaml:"browser" json:"browser"`
	Selectors catalog.Selectors     `yaml:"selectors" json:"selectors"`
	Output    OutputConfig          `yaml:"output" json:"output"`

	// Transforms rewrite collected records before export.
	Transforms pipeline.Config `yaml:"transforms,omitempty" json:"transforms,omitempty"`

	Server  ServerConfig             `yaml:"server" json:"server"`
	Log     utils.LogConfig          `yaml:"log" json:"log"`
	Metrics monitoring.MetricsConfig `yaml:"metrics" json:"metrics"`
}

// OutputConfig defines where and how records are exported
type OutputConfig struct {
	Format string `yaml:"format" json:"format"`
	// File is a fixed output path. When empty each run writes
	// <dir>/<prefix>-<run id><ext>.
	File      string `yaml:"file,omitempty" json:"file,omitempty"`
	Dir       string `yaml:"dir" json:"dir"`
	Prefix    string `yaml:"prefix" json:"prefix"`
	CSVBOM    bool   `yaml:"csv_bom" json:"csv_bom"`
	SheetName string `yaml:"sheet_name" json:"sheet_name"`
	Table     string `yaml:"table" json:"table"`
}

// ServerConfig configures the HTTP API of the serve command
type ServerConfig struct {
	Listen string `yaml:"listen" json:"listen"`
	// RateLimit is the sustained request rate per second; 0 disables limiting.
	RateLimit    float64       `yaml:"rate_limit" json:"rate_limit"`
	Burst        int           `yaml:"burst" json:"burst"`
	LogBuffer    int           `yaml:"log_buffer" json:"log_buffer"`
	ReadTimeout  time.Duration `yaml:"read_timeout" json:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" json:"write_timeout"`
}

// Default configuration values
const (
	DefaultLocale       = "ru"
	DefaultFormat       = "xlsx"
	DefaultOutputDir    = "output"
	DefaultOutputPrefix = "kaspi"
	DefaultListen       = ":8080"
	DefaultRateLimit    = 5.0
	DefaultBurst        = 10
	DefaultRetryDelay   = 2 * time.Second
)

// CatalogOptions converts the configuration into walker options.
func (c *Config) CatalogOptions() (catalog.Options, error) {
	labels, err := catalog.LabelsFor(c.Locale)
	if err != nil {
		return catalog.Options{}, err
	}
	return catalog.Options{
		Selectors:   c.Selectors,
		Labels:      labels,
		Origin:      c.Origin,
		MaxSellers:  c.MaxSellers,
		MaxPages:    c.MaxPages,
		LoadRetries: c.LoadRetries,
		RetryDelay:  c.RetryDelay,
		PageDelay:   c.Browser.PageDelay,
		TabDelay:    c.Browser.WaitDelay,
	}, nil
}

// OutputOptions converts the output section into writer options.
func (c *Config) OutputOptions() output.Options {
	opts := output.DefaultOptions()
	opts.CSVBOM = c.Output.CSVBOM
	if c.Output.SheetName != "" {
		opts.SheetName = c.Output.SheetName
	}
	if c.Output.Table != "" {
		opts.Table = c.Output.Table
	}
	return opts
}

// Pipeline compiles the transforms section. It returns nil when no
// transforms are configured.
func (c *Config) Pipeline(logger utils.Logger) (*pipeline.Pipeline, error) {
	if c.Transforms.Empty() {
		return nil, nil
	}
	return pipeline.New(c.Transforms, logger)
}
