package logging

import (
	"strings"
	"sync"
)

// Recorder is an io.Writer that keeps every line written to it.
// It is intended for tests and for in-process inspection of the log.
type Recorder struct {
	mu      sync.Mutex
	partial strings.Builder
	lines   []string
}

// Write implements io.Writer.
func (r *Recorder) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, c := range string(p) {
		if c == '\n' {
			r.lines = append(r.lines, r.partial.String())
			r.partial.Reset()
			continue
		}
		r.partial.WriteRune(c)
	}
	return len(p), nil
}

// Lines returns a copy of the complete lines recorded so far.
func (r *Recorder) Lines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.lines))
	copy(out, r.lines)
	return out
}

// Contains reports whether any recorded line contains substr.
func (r *Recorder) Contains(substr string) bool {
	for _, line := range r.Lines() {
		if strings.Contains(line, substr) {
			return true
		}
	}
	return false
}

// Count returns the number of recorded lines containing substr.
func (r *Recorder) Count(substr string) int {
	n := 0
	for _, line := range r.Lines() {
		if strings.Contains(line, substr) {
			n++
		}
	}
	return n
}

// NewRecorded returns a logger without timestamps writing into a fresh
// Recorder, at debug level.
func NewRecorded() (*Logger, *Recorder) {
	rec := &Recorder{}
	return New(Config{Level: LevelDebug, Output: rec}), rec
}
