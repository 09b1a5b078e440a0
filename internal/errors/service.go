// internal/errors/service.go - retry and CLI error presentation
package errors

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Dst88/kaspi-parser/internal/utils"
)

// Service retries operations and turns errors into CLI output and exit codes.
type Service struct {
	retryConfig   RetryConfig
	showTechnical bool
}

// RetryConfig defines retry behavior
type RetryConfig struct {
	MaxRetries    int           `yaml:"max_retries" json:"max_retries"`
	BaseDelay     time.Duration `yaml:"base_delay" json:"base_delay"`
	BackoffFactor float64       `yaml:"backoff_factor" json:"backoff_factor"`
	MaxDelay      time.Duration `yaml:"max_delay" json:"max_delay"`
}

// DefaultRetryConfig makes a single attempt.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:    0,
		BaseDelay:     2 * time.Second,
		BackoffFactor: 2.0,
		MaxDelay:      30 * time.Second,
	}
}

// NewService creates a service with the default retry configuration.
func NewService() *Service {
	return &Service{retryConfig: DefaultRetryConfig()}
}

// WithRetry returns a copy using cfg.
func (s *Service) WithRetry(cfg RetryConfig) *Service {
	cp := *s
	cp.retryConfig = cfg
	return &cp
}

// WithVerbose returns a copy that includes technical details in CLI output.
func (s *Service) WithVerbose(verbose bool) *Service {
	cp := *s
	cp.showTechnical = verbose
	return &cp
}

// ExecuteWithRetry runs operation up to MaxRetries+1 times with exponential
// backoff. It stops early when ctx is done.
func (s *Service) ExecuteWithRetry(ctx context.Context, operation func() error, operationName string) error {
	var lastErr error

	for attempt := 0; attempt <= s.retryConfig.MaxRetries; attempt++ {
		err := operation()
		if err == nil {
			return nil
		}
		lastErr = err

		if attempt == s.retryConfig.MaxRetries {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.calculateDelay(attempt)):
		}
	}

	if s.retryConfig.MaxRetries == 0 {
		return lastErr
	}
	return fmt.Errorf("operation %s failed after %d attempts: %w", operationName, s.retryConfig.MaxRetries+1, lastErr)
}

func (s *Service) calculateDelay(attempt int) time.Duration {
	delay := float64(s.retryConfig.BaseDelay)
	for i := 0; i < attempt; i++ {
		delay *= s.retryConfig.BackoffFactor
	}
	if s.retryConfig.MaxDelay > 0 && time.Duration(delay) > s.retryConfig.MaxDelay {
		return s.retryConfig.MaxDelay
	}
	return time.Duration(delay)
}

// GetExitCode maps an error to a process exit code.
func (s *Service) GetExitCode(err error) int {
	if err == nil {
		return 0
	}

	if code, ok := utils.CodeOf(err); ok {
		switch code {
		case utils.ErrCodeInvalidConfig:
			return 2
		case utils.ErrCodePageLoadFailed, utils.ErrCodeBrowserFailed:
			return 3
		case utils.ErrCodeExtractionFailed:
			return 4
		case utils.ErrCodeOutputFailed:
			return 5
		case utils.ErrCodeValidation:
			return 6
		}
	}

	errStr := strings.ToLower(err.Error())
	switch {
	case strings.Contains(errStr, "config") || strings.Contains(errStr, "yaml"):
		return 2
	case strings.Contains(errStr, "timeout") || strings.Contains(errStr, "connection"):
		return 3
	default:
		return 1
	}
}

// GetUserFriendlyError returns a title, message and suggestions for err.
func (s *Service) GetUserFriendlyError(err error) (title, message string, suggestions []string) {
	code, _ := utils.CodeOf(err)
	switch code {
	case utils.ErrCodeInvalidConfig:
		return "Configuration error", "The configuration file could not be used.",
			[]string{"Run 'kaspi-parser validate <config.yaml>'", "Print a fresh one with 'kaspi-parser template'"}
	case utils.ErrCodePageLoadFailed:
		return "Catalog unreachable", "The start page could not be loaded.",
			[]string{"Check the catalog URL in a regular browser", "Increase browser.timeout or load_retries"}
	case utils.ErrCodeBrowserFailed:
		return "Browser error", "Chrome could not be started.",
			[]string{"Make sure Chrome or Chromium is installed and on PATH"}
	case utils.ErrCodeOutputFailed:
		return "Save failed", "The collected records could not be written.",
			[]string{"Check that the output directory exists and is writable"}
	case utils.ErrCodeValidation:
		return "Invalid input", err.Error(), nil
	}
	return "Error", err.Error(), nil
}

// FormatErrorForCLI renders err for terminal output.
func (s *Service) FormatErrorForCLI(err error) string {
	title, message, suggestions := s.GetUserFriendlyError(err)

	output := fmt.Sprintf("%s\n%s\n", title, message)

	if s.showTechnical {
		output += fmt.Sprintf("\nTechnical details: %s\n", err.Error())
	}

	if len(suggestions) > 0 {
		output += "\nSuggestions:\n"
		for _, suggestion := range suggestions {
			output += fmt.Sprintf("  - %s\n", suggestion)
		}
	}

	return output
}
