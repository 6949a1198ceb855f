// Package tracker provides body-tracking sources: a synthetic gait
// generator, a recorded-session replay, and a WebSocket bridge to an
// external tracker.
package tracker

import (
	"github.com/teslashibe/go-dancepad/pkg/skeleton"
)

// Status is the outcome of a sample query.
type Status int

const (
	// StatusOK means samples are fresh for the requested display time.
	StatusOK Status = iota
	// StatusNoData means nothing new is available; callers keep the last pose.
	StatusNoData
)

// String returns the status name.
func (s Status) String() string {
	if s == StatusOK {
		return "ok"
	}
	return "no_data"
}

// Source yields joint samples for a display time in nanoseconds.
type Source interface {
	GetSamples(displayTime int64) (Status, []skeleton.JointSample)
}
