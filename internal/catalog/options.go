// internal/catalog/options.go
package catalog

import (
	"fmt"
	"time"

	"github.com/Dst88/kaspi-parser/internal/utils"
)

// Options configures the walker and the detail merger.
type Options struct {
	Selectors Selectors
	Labels    Labels
	// Origin resolves relative product links. Empty means the scheme and
	// host of the start URL.
	Origin     string
	MaxSellers int
	// MaxPages stops the walk after that many listing pages; 0 is unlimited.
	MaxPages    int
	LoadRetries int
	// RetryDelay is the first pause between load attempts; it doubles on
	// every further attempt.
	RetryDelay time.Duration
	// PageDelay is waited after activating the next-page control.
	PageDelay time.Duration
	// TabDelay is waited after activating the characteristics tab.
	TabDelay time.Duration

	Logger   utils.Logger
	Sink     Sink
	Observer Observer
}

func (o Options) withDefaults() Options {
	o.Selectors = o.Selectors.WithDefaults()
	if o.Labels == (Labels{}) {
		o.Labels, _ = LabelsFor("ru")
	}
	if o.MaxSellers <= 0 {
		o.MaxSellers = DefaultMaxSellers
	}
	if o.Logger == nil {
		o.Logger = utils.NewNopLogger()
	}
	if o.Observer == nil {
		o.Observer = nopObserver{}
	}
	return o
}

// Sink receives human-readable progress lines, one per noteworthy event.
type Sink func(line string)

// Observer is notified of pipeline events, typically to update metrics.
type Observer interface {
	PageScanned()
	ProductCollected()
	ProductSkipped()
	DetailFailed()
}

type nopObserver struct{}

func (nopObserver) PageScanned()      {}
func (nopObserver) ProductCollected() {}
func (nopObserver) ProductSkipped()   {}
func (nopObserver) DetailFailed()     {}

// reporter writes a line both to the structured log and to the sink.
type reporter struct {
	logger utils.Logger
	sink   Sink
}

func newReporter(opts Options) reporter {
	return reporter{logger: opts.Logger, sink: opts.Sink}
}

func (r reporter) emit(line string) {
	if r.sink != nil {
		r.sink(line)
	}
}

func (r reporter) infof(format string, args ...interface{}) {
	line := fmt.Sprintf(format, args...)
	r.logger.Info(line)
	r.emit(line)
}

func (r reporter) warnf(format string, args ...interface{}) {
	line := fmt.Sprintf(format, args...)
	r.logger.Warn(line)
	r.emit(line)
}

func (r reporter) errorf(format string, args ...interface{}) {
	line := fmt.Sprintf(format, args...)
	r.logger.Error(line)
	r.emit(line)
}

// debugf only logs; debug details never reach the sink.
func (r reporter) debugf(format string, args ...interface{}) {
	r.logger.Debugf(format, args...)
}
