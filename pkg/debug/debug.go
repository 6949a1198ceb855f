// Package debug provides global debug logging flags
package debug

import "github.com/teslashibe/go-dancepad/internal/log"

// Enabled controls whether debug logging is active
var Enabled bool

// Frames controls whether verbose per-frame logs are shown (contacts, step
// events, occupancy). Use --debug-frames to enable these very verbose logs
var Frames bool

// Log logs a message only if debug mode is enabled
func Log(msg string, args ...any) {
	if Enabled {
		log.Info(msg, args...)
	}
}

// FrameLog logs a message only if frame debug mode is enabled
func FrameLog(msg string, args ...any) {
	if Frames {
		log.Info(msg, args...)
	}
}
