// internal/runner/logring.go
package runner

import (
	"fmt"
	"sync"
	"time"
)

// DefaultLogBuffer is the number of progress lines kept for status queries.
const DefaultLogBuffer = 500

// logRing keeps the most recent progress lines.
type logRing struct {
	mu    sync.Mutex
	lines []string
	next  int
	full  bool
}

func newLogRing(size int) *logRing {
	if size <= 0 {
		size = DefaultLogBuffer
	}
	return &logRing{lines: make([]string, size)}
}

func (r *logRing) add(line string) {
	stamped := fmt.Sprintf("%s %s", time.Now().Format("15:04:05"), line)
	r.mu.Lock()
	r.lines[r.next] = stamped
	r.next = (r.next + 1) % len(r.lines)
	if r.next == 0 {
		r.full = true
	}
	r.mu.Unlock()
}

// snapshot returns the lines oldest first.
func (r *logRing) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.full {
		return append([]string(nil), r.lines[:r.next]...)
	}
	out := make([]string, 0, len(r.lines))
	out = append(out, r.lines[r.next:]...)
	return append(out, r.lines[:r.next]...)
}

func (r *logRing) reset() {
	r.mu.Lock()
	for i := range r.lines {
		r.lines[i] = ""
	}
	r.next = 0
	r.full = false
	r.mu.Unlock()
}
