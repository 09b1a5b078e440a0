// internal/monitoring/health.go
package monitoring

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"runtime"
	"sort"
	"sync"
	"time"
)

// HealthStatus represents the health status of a component
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
	HealthStatusDegraded  HealthStatus = "degraded"
)

// HealthCheck represents a single health check
type HealthCheck struct {
	Name      string
	Critical  bool
	CheckFunc func(ctx context.Context) HealthCheckResult
}

// HealthCheckResult represents the result of a health check
type HealthCheckResult struct {
	Status  HealthStatus `json:"status"`
	Message string       `json:"message,omitempty"`
}

// SystemHealth represents overall service health
type SystemHealth struct {
	Status     HealthStatus                 `json:"status"`
	Timestamp  time.Time                    `json:"timestamp"`
	Uptime     string                       `json:"uptime"`
	Goroutines int                          `json:"goroutines"`
	Checks     map[string]HealthCheckResult `json:"checks,omitempty"`
}

// HealthManager runs registered checks on demand
type HealthManager struct {
	mu      sync.RWMutex
	checks  map[string]*HealthCheck
	timeout time.Duration
	started time.Time
}

// NewHealthManager creates a health manager; each check gets timeout.
func NewHealthManager(timeout time.Duration) *HealthManager {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HealthManager{
		checks:  make(map[string]*HealthCheck),
		timeout: timeout,
		started: time.Now(),
	}
}

// RegisterCheck adds or replaces a check
func (hm *HealthManager) RegisterCheck(check *HealthCheck) {
	hm.mu.Lock()
	hm.checks[check.Name] = check
	hm.mu.Unlock()
}

// GetHealth runs every check and combines the results. A failing critical
// check makes the service unhealthy; any other failure degrades it.
func (hm *HealthManager) GetHealth(ctx context.Context) SystemHealth {
	hm.mu.RLock()
	names := make([]string, 0, len(hm.checks))
	for name := range hm.checks {
		names = append(names, name)
	}
	checks := make(map[string]*HealthCheck, len(hm.checks))
	for k, v := range hm.checks {
		checks[k] = v
	}
	hm.mu.RUnlock()
	sort.Strings(names)

	health := SystemHealth{
		Status:     HealthStatusHealthy,
		Timestamp:  time.Now(),
		Uptime:     time.Since(hm.started).Round(time.Second).String(),
		Goroutines: runtime.NumGoroutine(),
		Checks:     make(map[string]HealthCheckResult, len(names)),
	}

	for _, name := range names {
		check := checks[name]
		result := hm.runCheck(ctx, check)
		health.Checks[name] = result

		switch result.Status {
		case HealthStatusUnhealthy:
			if check.Critical {
				health.Status = HealthStatusUnhealthy
			} else if health.Status == HealthStatusHealthy {
				health.Status = HealthStatusDegraded
			}
		case HealthStatusDegraded:
			if health.Status == HealthStatusHealthy {
				health.Status = HealthStatusDegraded
			}
		}
	}
	return health
}

func (hm *HealthManager) runCheck(ctx context.Context, check *HealthCheck) HealthCheckResult {
	if check.CheckFunc == nil {
		return HealthCheckResult{Status: HealthStatusDegraded, Message: "no check function defined"}
	}
	checkCtx, cancel := context.WithTimeout(ctx, hm.timeout)
	defer cancel()
	return check.CheckFunc(checkCtx)
}

// HealthHandler serves GetHealth as JSON; unhealthy maps to 503.
func (hm *HealthManager) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		health := hm.GetHealth(r.Context())

		w.Header().Set("Content-Type", "application/json")
		if health.Status == HealthStatusUnhealthy {
			w.WriteHeader(http.StatusServiceUnavailable)
		} else {
			w.WriteHeader(http.StatusOK)
		}
		json.NewEncoder(w).Encode(health)
	}
}

// OutputDirHealthCheck verifies that export files can be created in dir
func OutputDirHealthCheck(dir string) *HealthCheck {
	return &HealthCheck{
		Name:     "output_dir",
		Critical: true,
		CheckFunc: func(ctx context.Context) HealthCheckResult {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return HealthCheckResult{Status: HealthStatusUnhealthy, Message: err.Error()}
			}
			f, err := os.CreateTemp(dir, ".health-*")
			if err != nil {
				return HealthCheckResult{Status: HealthStatusUnhealthy, Message: err.Error()}
			}
			name := f.Name()
			f.Close()
			os.Remove(name)
			return HealthCheckResult{Status: HealthStatusHealthy, Message: dir + " is writable"}
		},
	}
}

// chromeNames are the executables chromedp looks for on PATH.
var chromeNames = []string{
	"headless_shell",
	"headless-shell",
	"chromium",
	"chromium-browser",
	"google-chrome",
	"google-chrome-stable",
	"chrome",
}

// BrowserHealthCheck reports whether a Chrome executable can be found. An
// explicit execPath is checked instead of PATH.
func BrowserHealthCheck(execPath string) *HealthCheck {
	return &HealthCheck{
		Name:     "browser",
		Critical: false,
		CheckFunc: func(ctx context.Context) HealthCheckResult {
			if execPath != "" {
				if _, err := os.Stat(execPath); err != nil {
					return HealthCheckResult{Status: HealthStatusUnhealthy, Message: err.Error()}
				}
				return HealthCheckResult{Status: HealthStatusHealthy, Message: execPath}
			}
			for _, name := range chromeNames {
				if path, err := exec.LookPath(name); err == nil {
					return HealthCheckResult{Status: HealthStatusHealthy, Message: path}
				}
			}
			return HealthCheckResult{Status: HealthStatusUnhealthy, Message: "no Chrome executable found on PATH"}
		},
	}
}

// GoroutineHealthCheck degrades the service above maxGoroutines
func GoroutineHealthCheck(maxGoroutines int) *HealthCheck {
	return &HealthCheck{
		Name: "goroutines",
		CheckFunc: func(ctx context.Context) HealthCheckResult {
			count := runtime.NumGoroutine()
			if count > maxGoroutines {
				return HealthCheckResult{
					Status:  HealthStatusDegraded,
					Message: fmt.Sprintf("high goroutine count: %d > %d", count, maxGoroutines),
				}
			}
			return HealthCheckResult{Status: HealthStatusHealthy, Message: fmt.Sprintf("%d goroutines", count)}
		},
	}
}
