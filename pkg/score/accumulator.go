// Package score accumulates the session score and persists session
// history to SQLite.
package score

import (
	"log/slog"
	"sync"

	"github.com/teslashibe/go-dancepad/internal/log"
)

// Accumulator holds the running score. It is safe for concurrent use.
type Accumulator struct {
	mu     sync.Mutex
	value  int
	logger *slog.Logger
}

// NewAccumulator creates a zero score.
func NewAccumulator() *Accumulator {
	return &Accumulator{logger: log.Component("score")}
}

// AddScore adds delta. Negative deltas are ignored; zero is a no-op.
func (a *Accumulator) AddScore(delta int) {
	if delta < 0 {
		a.logger.Warn("negative score delta ignored", "delta", delta)
		return
	}
	a.mu.Lock()
	a.value += delta
	a.mu.Unlock()
}

// Value returns the current score.
func (a *Accumulator) Value() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.value
}

// Reset zeroes the score and returns the previous value.
func (a *Accumulator) Reset() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	v := a.value
	a.value = 0
	return v
}
