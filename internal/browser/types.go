// internal/browser/types.go
package browser

import (
	"context"
	"time"
)

// BrowserConfig defines browser automation configuration
type BrowserConfig struct {
	Headless       bool          `yaml:"headless" json:"headless"`
	UserDataDir    string        `yaml:"user_data_dir,omitempty" json:"user_data_dir,omitempty"`
	ExecPath       string        `yaml:"exec_path,omitempty" json:"exec_path,omitempty"`
	Timeout        time.Duration `yaml:"timeout" json:"timeout"`
	ViewportWidth  int           `yaml:"viewport_width" json:"viewport_width"`
	ViewportHeight int           `yaml:"viewport_height" json:"viewport_height"`
	WaitDelay      time.Duration `yaml:"wait_delay,omitempty" json:"wait_delay,omitempty"`
	PageDelay      time.Duration `yaml:"page_delay,omitempty" json:"page_delay,omitempty"`
	UserAgent      string        `yaml:"user_agent,omitempty" json:"user_agent,omitempty"`
	DisableImages  bool          `yaml:"disable_images" json:"disable_images"`
}

// DefaultBrowserConfig returns default browser configuration
func DefaultBrowserConfig() *BrowserConfig {
	return &BrowserConfig{
		Headless:       true,
		Timeout:        30 * time.Second,
		ViewportWidth:  1920,
		ViewportHeight: 1080,
		WaitDelay:      1 * time.Second,
		PageDelay:      2 * time.Second,
		UserAgent:      "Mozilla/5.0",
		DisableImages:  true,
	}
}

// ControlState is the result of looking up a clickable page control.
type ControlState int

const (
	// ControlAbsent means no element matched the query.
	ControlAbsent ControlState = iota
	// ControlDisabled means the element exists but is marked disabled.
	ControlDisabled
	// ControlReady means the element can be activated.
	ControlReady
)

func (s ControlState) String() string {
	switch s {
	case ControlDisabled:
		return "disabled"
	case ControlReady:
		return "ready"
	default:
		return "absent"
	}
}

// Page is one browsing context: the listing window or a detail tab.
type Page interface {
	// Navigate loads url and waits for the page to settle.
	Navigate(ctx context.Context, url string) error

	// HTML returns the currently rendered document.
	HTML(ctx context.Context) (string, error)

	// Control reports whether the element matched by xpath exists and
	// whether it is disabled.
	Control(ctx context.Context, xpath string) (ControlState, error)

	// Activate clicks the element matched by xpath and waits settle.
	Activate(ctx context.Context, xpath string, settle time.Duration) error
}

// Tab is an isolated browsing context opened from a Session.
type Tab interface {
	Page

	// Close closes the tab. It is safe to call more than once.
	Close() error
}

// Session is a single automation session shared by a run. The session
// itself acts as the listing page.
type Session interface {
	Page

	// NewTab opens an isolated browsing context. The session's own page
	// state is left untouched.
	NewTab(ctx context.Context) (Tab, error)

	// Close tears the browser down.
	Close() error
}

// BrowserStats contains browser automation statistics
type BrowserStats struct {
	PagesLoaded      int           `json:"pages_loaded"`
	AverageLoadTime  time.Duration `json:"average_load_time"`
	TabsOpened       int           `json:"tabs_opened"`
	Errors           int           `json:"errors"`
	JavaScriptErrors int           `json:"javascript_errors"`
}
