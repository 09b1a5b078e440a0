// internal/browser/chromedp.go
package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/device"
)

// controlStateJS resolves an XPath and reports absent, disabled or ready.
// A control counts as disabled when its class list mentions "disabled".
const controlStateJS = `(function(xp) {
	var n = document.evaluate(xp, document, null, XPathResult.FIRST_ORDERED_NODE_TYPE, null).singleNodeValue;
	if (!n) { return "absent"; }
	var cls = n.getAttribute("class") || "";
	if (n.hasAttribute("disabled") || cls.indexOf("disabled") >= 0) { return "disabled"; }
	return "ready";
})(%s)`

const activateJS = `(function(xp) {
	var n = document.evaluate(xp, document, null, XPathResult.FIRST_ORDERED_NODE_TYPE, null).singleNodeValue;
	if (!n) { return false; }
	n.click();
	return true;
})(%s)`

// ChromeClient implements Session using chromedp. The browser's first
// target serves as the listing page; detail pages get their own targets.
type ChromeClient struct {
	chromePage

	allocCancel context.CancelFunc
	config      *BrowserConfig
	stats       BrowserStats
	statsMu     sync.Mutex
	closeOnce   sync.Once
}

// NewChromeClient starts Chrome and returns a ready session. Cancelling
// parent tears the browser down as well.
func NewChromeClient(parent context.Context, config *BrowserConfig) (*ChromeClient, error) {
	if config == nil {
		config = DefaultBrowserConfig()
	}

	opts := []chromedp.ExecAllocatorOption{
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.DisableGPU,
		chromedp.NoSandbox, // Required for Docker environments
	}

	if config.Headless {
		opts = append(opts, chromedp.Headless)
	}
	if config.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(config.ExecPath))
	}
	if config.UserDataDir != "" {
		opts = append(opts, chromedp.UserDataDir(config.UserDataDir))
	}
	if config.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(config.UserAgent))
	}
	if config.DisableImages {
		opts = append(opts, chromedp.Flag("blink-settings", "imagesEnabled=false"))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(parent, opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	client := &ChromeClient{
		allocCancel: allocCancel,
		config:      config,
	}
	client.chromePage.ctx = browserCtx
	client.chromePage.cancel = browserCancel
	client.chromePage.client = client

	if err := client.initialize(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to initialize browser: %w", err)
	}

	return client, nil
}

// initialize starts the browser. It must run on the un-derived context so
// the browser lifetime is not bound to a timeout.
func (c *ChromeClient) initialize() error {
	tasks := []chromedp.Action{
		chromedp.EmulateViewport(int64(c.config.ViewportWidth), int64(c.config.ViewportHeight)),
	}

	if c.config.ViewportWidth > 0 && c.config.ViewportWidth < 768 {
		tasks = append(tasks, chromedp.Emulate(device.IPhone8))
	}

	return chromedp.Run(c.ctx, tasks...)
}

// NewTab opens a new browser target for isolated detail extraction.
func (c *ChromeClient) NewTab(ctx context.Context) (Tab, error) {
	tabCtx, cancel := chromedp.NewContext(c.ctx)
	// An empty Run allocates the target without binding it to a timeout.
	if err := chromedp.Run(tabCtx); err != nil {
		cancel()
		c.recordError()
		return nil, fmt.Errorf("failed to open tab: %w", err)
	}

	c.statsMu.Lock()
	c.stats.TabsOpened++
	c.statsMu.Unlock()

	return &chromePage{ctx: tabCtx, cancel: cancel, client: c}, nil
}

// GetStats returns a copy of the browser statistics
func (c *ChromeClient) GetStats() BrowserStats {
	c.statsMu.Lock()
	defer c.statsMu.Unlock()
	return c.stats
}

// Close closes the browser
func (c *ChromeClient) Close() error {
	c.closeOnce.Do(func() {
		c.chromePage.Close()
		if c.allocCancel != nil {
			c.allocCancel()
		}
	})
	return nil
}

func (c *ChromeClient) recordError() {
	c.statsMu.Lock()
	c.stats.Errors++
	c.statsMu.Unlock()
}

func (c *ChromeClient) recordLoad(loadTime time.Duration) {
	c.statsMu.Lock()
	defer c.statsMu.Unlock()
	c.stats.PagesLoaded++
	if c.stats.PagesLoaded == 1 {
		c.stats.AverageLoadTime = loadTime
	} else {
		c.stats.AverageLoadTime = (c.stats.AverageLoadTime + loadTime) / 2
	}
}

// chromePage is one chromedp target.
type chromePage struct {
	ctx    context.Context
	cancel context.CancelFunc
	client *ChromeClient

	navigationSuccess bool
	navMu             sync.RWMutex
	closeOnce         sync.Once
}

// run executes actions on the page target, bounded by the configured
// timeout and by the caller's ctx.
func (p *chromePage) run(ctx context.Context, actions ...chromedp.Action) error {
	var (
		runCtx context.Context
		cancel context.CancelFunc
	)
	if p.client.config.Timeout > 0 {
		runCtx, cancel = context.WithTimeout(p.ctx, p.client.config.Timeout)
	} else {
		runCtx, cancel = context.WithCancel(p.ctx)
	}
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	return chromedp.Run(runCtx, actions...)
}

// Navigate navigates to a URL and waits for page load
func (p *chromePage) Navigate(ctx context.Context, url string) error {
	start := time.Now()

	tasks := []chromedp.Action{
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	}
	if p.client.config.WaitDelay > 0 {
		tasks = append(tasks, chromedp.Sleep(p.client.config.WaitDelay))
	}

	err := p.run(ctx, tasks...)

	p.navMu.Lock()
	p.navigationSuccess = err == nil
	p.navMu.Unlock()

	if err != nil {
		p.client.recordError()
		return fmt.Errorf("navigation failed: %w", err)
	}

	p.client.recordLoad(time.Since(start))
	return nil
}

// HTML returns the current page HTML
func (p *chromePage) HTML(ctx context.Context) (string, error) {
	p.navMu.RLock()
	navSuccess := p.navigationSuccess
	p.navMu.RUnlock()

	if !navSuccess {
		return "", fmt.Errorf("cannot extract HTML: navigation has not completed successfully")
	}

	var html string
	if err := p.run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		p.client.recordError()
		return "", fmt.Errorf("failed to get HTML: %w", err)
	}
	return html, nil
}

// Control looks up the element matched by xpath.
func (p *chromePage) Control(ctx context.Context, xpath string) (ControlState, error) {
	arg, err := json.Marshal(xpath)
	if err != nil {
		return ControlAbsent, err
	}

	var state string
	if err := p.run(ctx, chromedp.Evaluate(fmt.Sprintf(controlStateJS, arg), &state)); err != nil {
		p.client.statsMu.Lock()
		p.client.stats.JavaScriptErrors++
		p.client.statsMu.Unlock()
		return ControlAbsent, fmt.Errorf("control query failed: %w", err)
	}

	switch state {
	case "ready":
		return ControlReady, nil
	case "disabled":
		return ControlDisabled, nil
	default:
		return ControlAbsent, nil
	}
}

// Activate clicks the element matched by xpath through the DOM, which also
// works for elements hidden behind overlays, then waits settle.
func (p *chromePage) Activate(ctx context.Context, xpath string, settle time.Duration) error {
	arg, err := json.Marshal(xpath)
	if err != nil {
		return err
	}

	var clicked bool
	tasks := []chromedp.Action{chromedp.Evaluate(fmt.Sprintf(activateJS, arg), &clicked)}
	if err := p.run(ctx, tasks...); err != nil {
		p.client.recordError()
		return fmt.Errorf("activation failed: %w", err)
	}
	if !clicked {
		return fmt.Errorf("activation failed: no element matches %s", xpath)
	}

	if settle > 0 {
		if err := p.run(ctx, chromedp.Sleep(settle)); err != nil {
			return fmt.Errorf("waiting after activation: %w", err)
		}
	}
	return nil
}

// Close closes the target.
func (p *chromePage) Close() error {
	p.closeOnce.Do(func() {
		if p.cancel != nil {
			p.cancel()
		}
	})
	return nil
}
