package utils

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestStructuredError_CodeMatching(t *testing.T) {
	cause := errors.New("net::ERR_NAME_NOT_RESOLVED")
	err := WrapError(cause, ErrCodePageLoadFailed, "failed to load listing page")
	wrapped := fmt.Errorf("walk: %w", err)

	if !HasCode(wrapped, ErrCodePageLoadFailed) {
		t.Error("expected PAGE_LOAD_FAILED through wrapping")
	}
	if HasCode(wrapped, ErrCodeOutputFailed) {
		t.Error("expected no OUTPUT_FAILED match")
	}
	if !errors.Is(wrapped, cause) {
		t.Error("expected the cause to stay reachable")
	}
	if code, ok := CodeOf(wrapped); !ok || code != ErrCodePageLoadFailed {
		t.Errorf("CodeOf = %q, %v", code, ok)
	}
	if _, ok := CodeOf(cause); ok {
		t.Error("plain errors carry no code")
	}
	if !strings.Contains(err.Error(), "caused by") {
		t.Errorf("expected cause in message, got %q", err.Error())
	}
}

func TestErrorBuilder(t *testing.T) {
	err := NewError(ErrCodeBrowserFailed, "chrome exited").
		WithContext("attempt", 2).
		WithRetryable(true).
		Build()

	if err.Context["attempt"] != 2 {
		t.Errorf("expected context, got %v", err.Context)
	}
	if !IsRetryableError(fmt.Errorf("outer: %w", err)) {
		t.Error("expected retryable error")
	}
	if IsRetryableError(errors.New("plain")) {
		t.Error("plain errors are not retryable")
	}
}
