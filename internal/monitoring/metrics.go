// internal/monitoring/metrics.go
package monitoring

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Run outcomes used as the status label of runs_total.
const (
	RunCompleted = "completed"
	RunStopped   = "stopped"
	RunEmpty     = "empty"
	RunFailed    = "failed"
)

// MetricsManager manages Prometheus metrics for catalog runs. Every method
// is safe to call on a nil manager, which records nothing.
type MetricsManager struct {
	registry *prometheus.Registry

	// Run metrics
	runsTotal   *prometheus.CounterVec
	runActive   prometheus.Gauge
	runDuration prometheus.Histogram

	// Catalog metrics
	pagesScanned      prometheus.Counter
	productsCollected prometheus.Counter
	productsSkipped   prometheus.Counter
	detailFailures    prometheus.Counter

	// Output metrics
	exportDuration  *prometheus.HistogramVec
	exportErrors    *prometheus.CounterVec
	recordsExported *prometheus.CounterVec

	// API metrics
	apiRequests   *prometheus.CounterVec
	rateLimitHits prometheus.Counter
}

// MetricsConfig configuration for metrics
type MetricsConfig struct {
	Namespace       string `yaml:"namespace" json:"namespace"`
	Subsystem       string `yaml:"subsystem" json:"subsystem"`
	EnableGoMetrics bool   `yaml:"enable_go_metrics" json:"enable_go_metrics"`
}

// NewMetricsManager creates a metrics manager with its own registry
func NewMetricsManager(config MetricsConfig) *MetricsManager {
	if config.Namespace == "" {
		config.Namespace = "kaspi_parser"
	}

	mm := &MetricsManager{registry: prometheus.NewRegistry()}
	if config.EnableGoMetrics {
		mm.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	mm.initializeMetrics(config.Namespace, config.Subsystem)
	return mm
}

func (mm *MetricsManager) initializeMetrics(namespace, subsystem string) {
	factory := promauto.With(mm.registry)

	mm.runsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "runs_total",
			Help:      "Total number of finished runs by outcome",
		},
		[]string{"status"},
	)
	mm.runActive = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "run_active",
		Help:      "1 while a run is in progress",
	})
	mm.runDuration = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "run_duration_seconds",
		Help:      "Run duration in seconds",
		Buckets:   []float64{10, 30, 60, 300, 900, 1800, 3600, 7200},
	})

	mm.pagesScanned = factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "pages_scanned_total",
		Help:      "Listing pages scanned",
	})
	mm.productsCollected = factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "products_collected_total",
		Help:      "Product records collected",
	})
	mm.productsSkipped = factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "products_skipped_total",
		Help:      "Product cards skipped because a required field was missing",
	})
	mm.detailFailures = factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "detail_failures_total",
		Help:      "Product detail pages that could not be read",
	})

	mm.exportDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "export_duration_seconds",
			Help:      "Export duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1.0, 5.0, 10.0},
		},
		[]string{"format"},
	)
	mm.exportErrors = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "export_errors_total",
			Help:      "Failed exports",
		},
		[]string{"format"},
	)
	mm.recordsExported = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "records_exported_total",
			Help:      "Records written to output files",
		},
		[]string{"format"},
	)

	mm.apiRequests = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "api_requests_total",
			Help:      "HTTP API requests by route and status code",
		},
		[]string{"route", "status_code"},
	)
	mm.rateLimitHits = factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "rate_limit_hits_total",
		Help:      "HTTP API requests rejected by the rate limiter",
	})
}

// Catalog events

func (mm *MetricsManager) PageScanned() {
	if mm != nil {
		mm.pagesScanned.Inc()
	}
}

func (mm *MetricsManager) ProductCollected() {
	if mm != nil {
		mm.productsCollected.Inc()
	}
}

func (mm *MetricsManager) ProductSkipped() {
	if mm != nil {
		mm.productsSkipped.Inc()
	}
}

func (mm *MetricsManager) DetailFailed() {
	if mm != nil {
		mm.detailFailures.Inc()
	}
}

// Run metrics

func (mm *MetricsManager) RecordRunStart() {
	if mm != nil {
		mm.runActive.Set(1)
	}
}

func (mm *MetricsManager) RecordRunFinished(status string, duration time.Duration) {
	if mm == nil {
		return
	}
	mm.runActive.Set(0)
	mm.runsTotal.WithLabelValues(status).Inc()
	mm.runDuration.Observe(duration.Seconds())
}

// Output metrics

func (mm *MetricsManager) RecordExport(format string, duration time.Duration, records int, err error) {
	if mm == nil {
		return
	}
	mm.exportDuration.WithLabelValues(format).Observe(duration.Seconds())
	if err != nil {
		mm.exportErrors.WithLabelValues(format).Inc()
		return
	}
	mm.recordsExported.WithLabelValues(format).Add(float64(records))
}

// API metrics

func (mm *MetricsManager) RecordRequest(route string, statusCode int) {
	if mm != nil {
		mm.apiRequests.WithLabelValues(route, strconv.Itoa(statusCode)).Inc()
	}
}

func (mm *MetricsManager) RecordRateLimitHit() {
	if mm != nil {
		mm.rateLimitHits.Inc()
	}
}

// Registry returns the registry holding every metric of the manager.
func (mm *MetricsManager) Registry() *prometheus.Registry {
	return mm.registry
}

// MetricsHandler returns an HTTP handler for metrics endpoint
func (mm *MetricsManager) MetricsHandler() http.Handler {
	return promhttp.HandlerFor(mm.registry, promhttp.HandlerOpts{})
}
