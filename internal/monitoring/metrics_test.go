// internal/monitoring/metrics_test.go
package monitoring

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsManager_CatalogEvents(t *testing.T) {
	mm := NewMetricsManager(MetricsConfig{})

	mm.PageScanned()
	mm.ProductCollected()
	mm.ProductCollected()
	mm.ProductSkipped()
	mm.DetailFailed()

	if v := testutil.ToFloat64(mm.productsCollected); v != 2 {
		t.Errorf("Expected 2 collected products, got %v", v)
	}
	if v := testutil.ToFloat64(mm.detailFailures); v != 1 {
		t.Errorf("Expected 1 detail failure, got %v", v)
	}
}

func TestMetricsManager_RunLifecycle(t *testing.T) {
	mm := NewMetricsManager(MetricsConfig{})

	mm.RecordRunStart()
	if v := testutil.ToFloat64(mm.runActive); v != 1 {
		t.Errorf("Expected active run, got %v", v)
	}
	mm.RecordRunFinished(RunStopped, time.Second)
	if v := testutil.ToFloat64(mm.runActive); v != 0 {
		t.Errorf("Expected no active run, got %v", v)
	}
	if v := testutil.ToFloat64(mm.runsTotal.WithLabelValues(RunStopped)); v != 1 {
		t.Errorf("Expected 1 stopped run, got %v", v)
	}

	mm.RecordExport("csv", time.Millisecond, 10, nil)
	mm.RecordExport("csv", time.Millisecond, 0, errors.New("disk full"))
	if v := testutil.ToFloat64(mm.recordsExported.WithLabelValues("csv")); v != 10 {
		t.Errorf("Expected 10 exported records, got %v", v)
	}
	if v := testutil.ToFloat64(mm.exportErrors.WithLabelValues("csv")); v != 1 {
		t.Errorf("Expected 1 export error, got %v", v)
	}
}

func TestMetricsManager_NilSafe(t *testing.T) {
	var mm *MetricsManager
	mm.PageScanned()
	mm.RecordRunStart()
	mm.RecordRunFinished(RunCompleted, time.Second)
	mm.RecordExport("json", time.Second, 1, nil)
	mm.RecordRequest("/health", 200)
	mm.RecordRateLimitHit()
}

func TestMetricsManager_Handler(t *testing.T) {
	mm := NewMetricsManager(MetricsConfig{})
	mm.DetailFailed()

	rec := httptest.NewRecorder()
	mm.MetricsHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "kaspi_parser_detail_failures_total 1") {
		t.Errorf("Expected detail failure counter in exposition, got:\n%s", body)
	}
}

func TestMetricsManager_SeparateRegistries(t *testing.T) {
	// Two managers must not collide on registration.
	a := NewMetricsManager(MetricsConfig{EnableGoMetrics: true})
	b := NewMetricsManager(MetricsConfig{EnableGoMetrics: true})
	if a.Registry() == b.Registry() {
		t.Error("Expected separate registries")
	}
}

func TestHealthManager_Status(t *testing.T) {
	hm := NewHealthManager(time.Second)
	hm.RegisterCheck(OutputDirHealthCheck(filepath.Join(t.TempDir(), "out")))
	hm.RegisterCheck(&HealthCheck{
		Name: "flaky",
		CheckFunc: func(ctx context.Context) HealthCheckResult {
			return HealthCheckResult{Status: HealthStatusUnhealthy}
		},
	})

	health := hm.GetHealth(context.Background())
	if health.Status != HealthStatusDegraded {
		t.Errorf("Expected degraded for failing non-critical check, got %s", health.Status)
	}
	if health.Checks["output_dir"].Status != HealthStatusHealthy {
		t.Errorf("Expected writable output dir, got %+v", health.Checks["output_dir"])
	}

	hm.RegisterCheck(&HealthCheck{
		Name:     "flaky",
		Critical: true,
		CheckFunc: func(ctx context.Context) HealthCheckResult {
			return HealthCheckResult{Status: HealthStatusUnhealthy}
		},
	})
	rec := httptest.NewRecorder()
	hm.HealthHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected 503 for failing critical check, got %d", rec.Code)
	}
}
