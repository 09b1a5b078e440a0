// Package runner owns the lifecycle of catalog runs: at most one run at a
// time, executed on a background goroutine, with cooperative cancellation
// and export of whatever was collected.
package runner

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Dst88/kaspi-parser/internal/browser"
	"github.com/Dst88/kaspi-parser/internal/catalog"
	"github.com/Dst88/kaspi-parser/internal/monitoring"
	"github.com/Dst88/kaspi-parser/internal/output"
	"github.com/Dst88/kaspi-parser/internal/pipeline"
	"github.com/Dst88/kaspi-parser/internal/utils"
)

var (
	ErrInvalidURL        = errors.New("start URL must be an absolute http(s) URL")
	ErrUnsupportedFormat = errors.New("unsupported output format")
	ErrRunActive         = errors.New("a run is already in progress")
	ErrNoRun             = errors.New("no run has been started")
)

// Terminal status lines.
const (
	StatusSaved    = "completed and saved"
	StatusNotSaved = "completed (not saved)"
	StatusStopped  = "stopped by user"
	StatusNoData   = "no data collected"
)

// SessionFactory starts the browser session of a run.
type SessionFactory func(ctx context.Context) (browser.Session, error)

// Destination names the output file of a run.
type Destination func(runID string, format output.Format) string

// FixedDestination always writes to path.
func FixedDestination(path string) Destination {
	return func(string, output.Format) string { return path }
}

// DirDestination writes to <dir>/<prefix>-<first 8 characters of run ID><ext>.
func DirDestination(dir, prefix string) Destination {
	return func(runID string, format output.Format) string {
		short := runID
		if len(short) > 8 {
			short = short[:8]
		}
		return filepath.Join(dir, fmt.Sprintf("%s-%s%s", prefix, short, format.Extension()))
	}
}

// Exporter writes collected records.
type Exporter interface {
	Export(path string, format output.Format, records []output.Record) error
}

// Options configures a Controller.
type Options struct {
	// Catalog configures the walker; its Sink and Observer are replaced.
	Catalog     catalog.Options
	Sessions    SessionFactory
	Destination Destination
	Exporter    Exporter
	// Transform, when set, rewrites records before they are exported.
	Transform *pipeline.Pipeline
	Metrics   *monitoring.MetricsManager
	Logger    utils.Logger
	// Sink additionally receives every progress line.
	Sink      catalog.Sink
	LogBuffer int
}

// Result describes a finished run.
type Result struct {
	RunID      string             `json:"id"`
	URL        string             `json:"url"`
	Format     output.Format      `json:"format"`
	Path       string             `json:"path,omitempty"`
	Records    int                `json:"records"`
	Pages      int                `json:"pages"`
	Reason     catalog.StopReason `json:"reason,omitempty"`
	Cancelled  bool               `json:"cancelled"`
	Saved      bool               `json:"saved"`
	Status     string             `json:"status"`
	StartedAt  time.Time          `json:"started_at"`
	FinishedAt time.Time          `json:"finished_at"`
	SaveError  string             `json:"save_error,omitempty"`
	Error      string             `json:"error,omitempty"`

	// SaveErr is the export failure; Err ends the walk early.
	SaveErr error `json:"-"`
	Err     error `json:"-"`
}

// Snapshot is the observable state of the controller.
type Snapshot struct {
	Active    bool          `json:"active"`
	RunID     string        `json:"id,omitempty"`
	URL       string        `json:"url,omitempty"`
	Format    output.Format `json:"format,omitempty"`
	StartedAt *time.Time    `json:"started_at,omitempty"`
	Records   int           `json:"records"`
	Stopping  bool          `json:"stopping"`
	Last      *Result       `json:"last,omitempty"`
	Log       []string      `json:"log"`
}

// Controller runs at most one catalog walk at a time.
type Controller struct {
	opts   Options
	logger utils.Logger
	log    *logRing

	mu      sync.Mutex
	active  bool
	runID   string
	url     string
	format  output.Format
	started time.Time
	state   *catalog.RunState
	abort   context.CancelFunc
	done    chan struct{}
	last    *Result
}

// New creates a controller.
func New(opts Options) (*Controller, error) {
	if opts.Sessions == nil {
		return nil, fmt.Errorf("session factory is required")
	}
	if opts.Destination == nil {
		return nil, fmt.Errorf("output destination is required")
	}
	if opts.Logger == nil {
		opts.Logger = utils.NewNopLogger()
	}
	if opts.Exporter == nil {
		opts.Exporter = output.NewManager(output.DefaultOptions(), opts.Logger)
	}
	return &Controller{
		opts:   opts,
		logger: opts.Logger,
		log:    newLogRing(opts.LogBuffer),
	}, nil
}

// Start validates the request and launches a run. It returns the run ID.
func (c *Controller) Start(url, format string) (string, error) {
	url = strings.TrimSpace(url)
	if !utils.IsHTTPURL(url) {
		return "", fmt.Errorf("%w: %q", ErrInvalidURL, url)
	}
	f, err := output.ParseFormat(format)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	c.mu.Lock()
	if c.active {
		c.mu.Unlock()
		return "", ErrRunActive
	}
	ctx, abort := context.WithCancel(context.Background())
	c.active = true
	c.runID = uuid.NewString()
	c.url = url
	c.format = f
	c.started = time.Now()
	c.state = catalog.NewRunState()
	c.abort = abort
	c.done = make(chan struct{})
	c.log.reset()
	runID, state, done := c.runID, c.state, c.done
	opts, transform := c.opts.Catalog, c.opts.Transform
	c.mu.Unlock()

	c.opts.Metrics.RecordRunStart()
	c.report("run %s started: %s (%s)", runID[:8], url, f)

	go c.run(ctx, opts, transform, runID, url, f, state, done)
	return runID, nil
}

// Reconfigure replaces the catalog options and record pipeline of
// subsequent runs. A run in progress keeps the options it started with.
func (c *Controller) Reconfigure(opts catalog.Options, transform *pipeline.Pipeline) {
	c.mu.Lock()
	c.opts.Catalog = opts
	c.opts.Transform = transform
	c.mu.Unlock()
}

// Stop asks the active run to halt before its next product. It reports
// false when there is nothing to stop.
func (c *Controller) Stop() bool {
	c.mu.Lock()
	state := c.state
	active := c.active
	c.mu.Unlock()

	if !active || state == nil || !state.Cancel() {
		return false
	}
	c.report("stop requested")
	return true
}

// Abort stops the active run and cancels in-flight browser operations.
// Records collected so far are still exported.
func (c *Controller) Abort() {
	c.mu.Lock()
	state, abort := c.state, c.abort
	c.mu.Unlock()

	if state != nil {
		state.Cancel()
	}
	if abort != nil {
		abort()
	}
}

// Wait blocks until the current or most recent run has finished.
func (c *Controller) Wait(ctx context.Context) (*Result, error) {
	c.mu.Lock()
	done := c.done
	c.mu.Unlock()

	if done == nil {
		return nil, ErrNoRun
	}
	select {
	case <-done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last, nil
}

// Status returns a snapshot of the controller.
func (c *Controller) Status() Snapshot {
	c.mu.Lock()
	snap := Snapshot{Active: c.active, Last: c.last}
	if c.active {
		started := c.started
		snap.RunID = c.runID
		snap.URL = c.url
		snap.Format = c.format
		snap.StartedAt = &started
		snap.Records = c.state.Len()
		snap.Stopping = c.state.Cancelled()
	}
	c.mu.Unlock()

	snap.Log = c.log.snapshot()
	return snap
}

func (c *Controller) run(ctx context.Context, opts catalog.Options, transform *pipeline.Pipeline, runID, url string, format output.Format, state *catalog.RunState, done chan struct{}) {
	defer close(done)

	result := &Result{RunID: runID, URL: url, Format: format, StartedAt: time.Now()}
	logger := c.logger.WithField("run_id", runID[:8])

	opts.Logger = logger
	opts.Sink = c.sink
	if c.opts.Metrics != nil {
		opts.Observer = c.opts.Metrics
	}

	session, err := c.opts.Sessions(ctx)
	if err != nil {
		result.Err = utils.WrapError(err, utils.ErrCodeBrowserFailed, "failed to start browser")
		c.report("browser failed to start: %v", err)
	} else {
		walk, walkErr := catalog.NewWalker(opts).Walk(ctx, session, url, state)
		result.Pages = walk.Pages
		result.Reason = walk.Reason
		result.Err = walkErr
	}

	// No cancellation after this point; the session is released once.
	state.Finish()
	if session != nil {
		if err := session.Close(); err != nil {
			logger.Warnf("failed to close browser session: %v", err)
		}
	}

	records := state.Records()
	result.Records = len(records)
	result.Cancelled = state.Cancelled() || ctx.Err() != nil
	if result.Err != nil {
		result.Error = result.Err.Error()
	}

	if len(records) > 0 {
		result.Path = c.opts.Destination(runID, format)
		c.export(result, transform, records)
	}

	status := monitoring.RunCompleted
	switch {
	case len(records) == 0:
		result.Status = StatusNoData
		status = monitoring.RunEmpty
		if result.Err != nil {
			status = monitoring.RunFailed
		}
	case result.Cancelled:
		result.Status = StatusStopped
		status = monitoring.RunStopped
	case result.Saved:
		result.Status = StatusSaved
	default:
		result.Status = StatusNotSaved
		status = monitoring.RunFailed
	}
	result.FinishedAt = time.Now()

	c.report("%s", result.Status)
	c.opts.Metrics.RecordRunFinished(status, result.FinishedAt.Sub(result.StartedAt))

	c.mu.Lock()
	c.last = result
	c.active = false
	c.state = nil
	c.abort()
	c.abort = nil
	c.mu.Unlock()
}

func (c *Controller) export(result *Result, transform *pipeline.Pipeline, records []*catalog.ProductRecord) {
	rows := make([]output.Record, len(records))
	for i, r := range records {
		rows[i] = r
	}

	if transform != nil {
		transformed, stats, err := transform.Process(context.Background(), rows)
		switch {
		case err != nil:
			c.reportError("record transforms skipped: %v", err)
		default:
			rows = transformed
			if stats.Dropped > 0 || stats.Failed > 0 {
				c.report("transforms: %d duplicates dropped, %d values kept unchanged", stats.Dropped, stats.Failed)
			}
		}
	}

	start := time.Now()
	err := c.opts.Exporter.Export(result.Path, result.Format, rows)
	c.opts.Metrics.RecordExport(string(result.Format), time.Since(start), len(rows), err)

	if err != nil {
		result.SaveErr = err
		result.SaveError = err.Error()
		c.reportError("save failed: %v", err)
		return
	}
	result.Saved = true
	c.report("saved %d records to %s", len(rows), result.Path)
}

// sink records a progress line and forwards it.
func (c *Controller) sink(line string) {
	c.log.add(line)
	if c.opts.Sink != nil {
		c.opts.Sink(line)
	}
}

func (c *Controller) report(format string, args ...interface{}) {
	line := fmt.Sprintf(format, args...)
	c.logger.Info(line)
	c.sink(line)
}

func (c *Controller) reportError(format string, args ...interface{}) {
	line := fmt.Sprintf(format, args...)
	c.logger.Error(line)
	c.sink(line)
}
