// internal/catalog/walker.go
package catalog

import (
	"context"
	"fmt"

	"github.com/PuerkitoBio/goquery"

	"github.com/Dst88/kaspi-parser/internal/browser"
	"github.com/Dst88/kaspi-parser/internal/errors"
	"github.com/Dst88/kaspi-parser/internal/utils"
)

// StopReason tells why a walk ended.
type StopReason string

const (
	ReasonEndOfCatalog StopReason = "reached end of catalog"
	ReasonLastPage     StopReason = "last page reached"
	ReasonPageLimit    StopReason = "page limit reached"
	ReasonCancelled    StopReason = "stopped by user"
	ReasonLoadFailed   StopReason = "page failed to load"
)

// WalkResult summarizes a finished walk. Records are kept in the RunState.
type WalkResult struct {
	Pages  int
	Reason StopReason
}

// Walker traverses paginated listing pages and collects product records.
type Walker struct {
	opts   Options
	merger *DetailMerger
	report reporter
	retry  *errors.Service
}

// NewWalker creates a walker from opts.
func NewWalker(opts Options) *Walker {
	opts = opts.withDefaults()
	retry := errors.DefaultRetryConfig()
	retry.MaxRetries = opts.LoadRetries
	if opts.RetryDelay > 0 {
		retry.BaseDelay = opts.RetryDelay
	}
	return &Walker{
		opts:   opts,
		merger: NewDetailMerger(opts),
		report: newReporter(opts),
		retry:  errors.NewService().WithRetry(retry),
	}
}

// Walk loads startURL in session and scans page after page until the
// catalog ends, the last page is reached or state is cancelled. Only a
// failure to load or read a listing page is returned as an error; records
// collected before it remain in state.
func (w *Walker) Walk(ctx context.Context, session browser.Session, startURL string, state *RunState) (WalkResult, error) {
	origin := w.opts.Origin
	if origin == "" {
		origin = utils.Origin(startURL)
	}
	extractor, err := NewFieldExtractor(w.opts.Selectors, w.opts.Labels, origin)
	if err != nil {
		return WalkResult{Reason: ReasonLoadFailed}, utils.WrapError(err, utils.ErrCodeValidation, "cannot resolve product links")
	}

	err = w.retry.ExecuteWithRetry(ctx, func() error {
		return session.Navigate(ctx, startURL)
	}, "load catalog")
	if err != nil {
		w.report.errorf("failed to load %s: %v", startURL, err)
		return WalkResult{Reason: ReasonLoadFailed}, utils.NewError(utils.ErrCodePageLoadFailed, "start page failed to load").
			WithCause(err).WithContext("url", startURL).Build()
	}

	var result WalkResult
	for {
		if err := ctx.Err(); err != nil {
			result.Reason = ReasonCancelled
			return result, err
		}
		if state.Cancelled() {
			result.Reason = ReasonCancelled
			return result, nil
		}

		doc, err := snapshot(ctx, session)
		if err != nil {
			w.report.errorf("failed to read listing page %d: %v", result.Pages+1, err)
			result.Reason = ReasonLoadFailed
			return result, utils.NewError(utils.ErrCodePageLoadFailed, "listing page could not be read").
				WithCause(err).WithContext("page", result.Pages+1).Build()
		}

		cards := extractor.Cards(doc)
		if cards.Length() == 0 {
			w.report.infof("%s", ReasonEndOfCatalog)
			result.Reason = ReasonEndOfCatalog
			return result, nil
		}
		result.Pages++
		w.opts.Observer.PageScanned()
		w.report.logger.WithField("page", result.Pages).Infof("scanning %d products", cards.Length())

		cards.EachWithBreak(func(_ int, card *goquery.Selection) bool {
			if state.Cancelled() {
				return false
			}
			w.collect(ctx, session, extractor, card, state)
			return true
		})

		if state.Cancelled() {
			result.Reason = ReasonCancelled
			return result, nil
		}
		if w.opts.MaxPages > 0 && result.Pages >= w.opts.MaxPages {
			w.report.infof("%s", ReasonPageLimit)
			result.Reason = ReasonPageLimit
			return result, nil
		}
		if !w.advance(ctx, session) {
			w.report.infof("%s", ReasonLastPage)
			result.Reason = ReasonLastPage
			return result, nil
		}
	}
}

// collect turns one card into a record. Any failure skips the card.
func (w *Walker) collect(ctx context.Context, session browser.Session, extractor *FieldExtractor, card *goquery.Selection, state *RunState) {
	defer func() {
		if r := recover(); r != nil {
			w.opts.Observer.ProductSkipped()
			w.report.errorf("skipping product: %v", fmt.Errorf("panic during extraction: %v", r))
		}
	}()

	c, err := extractor.Extract(card)
	if err != nil {
		w.opts.Observer.ProductSkipped()
		w.report.warnf("skipping product: %v", err)
		return
	}

	details := w.merger.Enrich(ctx, session, c.Link)

	labels := w.opts.Labels
	record := &ProductRecord{}
	record.Set(labels.Name, c.Name)
	record.Set(labels.Link, c.Link)
	record.Set(labels.Price, c.Price)
	record.Set(labels.Rating, c.Rating)
	for _, key := range details.Keys() {
		if _, taken := record.Get(key); taken {
			continue
		}
		value, _ := details.Get(key)
		record.Set(key, value)
	}

	state.Append(record)
	w.opts.Observer.ProductCollected()
	w.report.infof("collected product: %s", c.Name)
}

// advance activates the next-page control. It reports false when there is
// no usable control, which ends pagination.
func (w *Walker) advance(ctx context.Context, page browser.Page) bool {
	control, err := page.Control(ctx, w.opts.Selectors.NextPage)
	if err != nil {
		w.report.debugf("next page control lookup failed: %v", err)
		return false
	}
	if control != browser.ControlReady {
		w.report.debugf("next page control is %s", control)
		return false
	}
	if err := page.Activate(ctx, w.opts.Selectors.NextPage, w.opts.PageDelay); err != nil {
		w.report.debugf("next page control not activated: %v", err)
		return false
	}
	return true
}
