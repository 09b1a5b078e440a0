// internal/catalog/state.go
package catalog

import (
	"sync"
	"sync/atomic"
)

// RunState is the cancellation flag and record accumulator of one run.
// The flag may be set from any goroutine; records are appended only by the
// goroutine performing the walk.
type RunState struct {
	cancelled atomic.Bool
	finished  atomic.Bool

	mu      sync.RWMutex
	records []*ProductRecord
}

// NewRunState returns a fresh, uncancelled state.
func NewRunState() *RunState {
	return &RunState{}
}

// Cancel requests a cooperative stop. It reports false once the run has
// finished, when cancellation no longer has any effect.
func (s *RunState) Cancel() bool {
	if s.finished.Load() {
		return false
	}
	s.cancelled.Store(true)
	return true
}

// Cancelled reports whether a stop was requested.
func (s *RunState) Cancelled() bool {
	return s.cancelled.Load()
}

// Finish disables further cancellation.
func (s *RunState) Finish() {
	s.finished.Store(true)
}

// Finished reports whether Finish was called.
func (s *RunState) Finished() bool {
	return s.finished.Load()
}

// Append adds a completed record.
func (s *RunState) Append(r *ProductRecord) {
	s.mu.Lock()
	s.records = append(s.records, r)
	s.mu.Unlock()
}

// Records returns the records collected so far, in collection order.
func (s *RunState) Records() []*ProductRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*ProductRecord(nil), s.records...)
}

// Len returns the number of collected records.
func (s *RunState) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
