// Package browsertest provides an in-memory browser.Session for tests.
package browsertest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Dst88/kaspi-parser/internal/browser"
)

// Control describes a clickable element on a fake document.
type Control struct {
	State browser.ControlState
	// Target is the key of the document shown after activation.
	Target string
	// QueryErr and ActivateErr force failures.
	QueryErr    error
	ActivateErr error
}

// Doc is a rendered document plus its controls keyed by XPath.
type Doc struct {
	HTML     string
	Controls map[string]Control
}

// Session serves Docs keyed by URL. It is safe for concurrent use.
type Session struct {
	Docs map[string]*Doc
	// NavigateErr fails navigation to the given URLs.
	NavigateErr map[string]error
	// TabErr, when set, fails every NewTab call.
	TabErr error
	// OnNavigate runs after every successful navigation, tabs included.
	OnNavigate func(url string)

	mu          sync.Mutex
	navigations []string
	tabsOpened  int
	tabsClosed  int
	closed      int
	page        *page
}

// NewSession returns an empty fake session.
func NewSession() *Session {
	s := &Session{
		Docs:        make(map[string]*Doc),
		NavigateErr: make(map[string]error),
	}
	s.page = &page{s: s}
	return s
}

// Add registers html under url and returns the Doc for adding controls.
func (s *Session) Add(url, html string) *Doc {
	d := &Doc{HTML: html, Controls: make(map[string]Control)}
	s.Docs[url] = d
	return d
}

func (s *Session) Navigate(ctx context.Context, url string) error {
	return s.page.Navigate(ctx, url)
}

func (s *Session) HTML(ctx context.Context) (string, error) {
	return s.page.HTML(ctx)
}

func (s *Session) Control(ctx context.Context, xpath string) (browser.ControlState, error) {
	return s.page.Control(ctx, xpath)
}

func (s *Session) Activate(ctx context.Context, xpath string, settle time.Duration) error {
	return s.page.Activate(ctx, xpath, settle)
}

// NewTab opens a fake tab.
func (s *Session) NewTab(ctx context.Context) (browser.Tab, error) {
	if s.TabErr != nil {
		return nil, s.TabErr
	}
	s.mu.Lock()
	s.tabsOpened++
	s.mu.Unlock()
	return &tab{page: page{s: s}}, nil
}

// Close records the teardown.
func (s *Session) Close() error {
	s.mu.Lock()
	s.closed++
	s.mu.Unlock()
	return nil
}

// Navigations returns every URL navigated to, in order.
func (s *Session) Navigations() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.navigations...)
}

// TabsOpened returns the number of NewTab calls that succeeded.
func (s *Session) TabsOpened() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tabsOpened
}

// TabsClosed returns the number of tabs closed.
func (s *Session) TabsClosed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tabsClosed
}

// Closed returns how many times Close was called.
func (s *Session) Closed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

type page struct {
	s       *Session
	mu      sync.Mutex
	current *Doc
}

func (p *page) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p.s.mu.Lock()
	err := p.s.NavigateErr[url]
	doc, ok := p.s.Docs[url]
	p.s.navigations = append(p.s.navigations, url)
	hook := p.s.OnNavigate
	p.s.mu.Unlock()

	if err != nil {
		return fmt.Errorf("navigation failed: %w", err)
	}
	if !ok {
		return fmt.Errorf("navigation failed: no document for %s", url)
	}

	p.mu.Lock()
	p.current = doc
	p.mu.Unlock()

	if hook != nil {
		hook(url)
	}
	return nil
}

func (p *page) HTML(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil {
		return "", fmt.Errorf("cannot extract HTML: navigation has not completed successfully")
	}
	return p.current.HTML, nil
}

func (p *page) Control(ctx context.Context, xpath string) (browser.ControlState, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil {
		return browser.ControlAbsent, nil
	}
	c, ok := p.current.Controls[xpath]
	if !ok {
		return browser.ControlAbsent, nil
	}
	if c.QueryErr != nil {
		return browser.ControlAbsent, c.QueryErr
	}
	return c.State, nil
}

func (p *page) Activate(ctx context.Context, xpath string, settle time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil {
		return fmt.Errorf("activation failed: nothing loaded")
	}
	c, ok := p.current.Controls[xpath]
	if !ok {
		return fmt.Errorf("activation failed: no element matches %s", xpath)
	}
	if c.ActivateErr != nil {
		return c.ActivateErr
	}

	p.s.mu.Lock()
	next, ok := p.s.Docs[c.Target]
	p.s.mu.Unlock()
	if !ok {
		return fmt.Errorf("activation failed: no document %s", c.Target)
	}
	p.current = next
	return nil
}

type tab struct {
	page
	closeOnce sync.Once
}

func (t *tab) Close() error {
	t.closeOnce.Do(func() {
		t.s.mu.Lock()
		t.s.tabsClosed++
		t.s.mu.Unlock()
	})
	return nil
}
