// Package session wires a complete dance pad session: tracker source,
// pipeline, effect and sound sinks, score history and the dashboard.
package session

import (
	"fmt"
	"time"

	"github.com/teslashibe/go-dancepad/internal/config"
	"github.com/teslashibe/go-dancepad/pkg/step"
)

// Tracker source names.
const (
	SourceSynthetic = "synthetic"
	SourceReplay    = "replay"
	SourceBridge    = "bridge"
)

// Config holds all configuration for a session.
// Flag parsing is done in cmd/dancepad/main.go; this struct is data only.
type Config struct {
	// Debug enables verbose debug logging.
	Debug bool

	// DebugFrames also logs every step event.
	DebugFrames bool

	// Player and detection settings.
	PlayerHeight float64 // centimeters
	Sensitivity  float64 // 0-1
	EffectMode   string  // off, heel, toe, heel-toe

	// Source selects the tracker: synthetic, replay or bridge.
	Source     string
	TrackerURL string // bridge websocket URL
	ReplayPath string // recorded session for the replay source
	Loop       bool   // loop the replay
	RecordPath string // record live frames here when set

	// Rate is the pipeline tick interval.
	Rate time.Duration

	// AutoSchedule pops targets up automatically.
	AutoSchedule bool

	// Audio enables the sound sink.
	Audio bool

	// WebPort is the dashboard port. Empty disables the dashboard.
	WebPort   string
	StaticDir string

	// DBPath is the session history database. Empty disables history.
	DBPath string
}

// DefaultConfig returns sensible defaults for a session.
func DefaultConfig() Config {
	return Config{
		PlayerHeight: config.DefaultPlayerHeight,
		Sensitivity:  config.DefaultSensitivity,
		EffectMode:   config.DefaultEffectMode,
		Source:       SourceSynthetic,
		Rate:         11 * time.Millisecond,
		AutoSchedule: true,
		Audio:        true,
		WebPort:      config.DefaultWebPort,
		DBPath:       config.DefaultDBPath,
	}
}

// LoadEnvConfig applies environment overrides. Call it before flag
// parsing so flags win.
func (c *Config) LoadEnvConfig() {
	c.PlayerHeight = config.PlayerHeight(c.PlayerHeight)
	c.Sensitivity = config.Sensitivity(c.Sensitivity)
	c.EffectMode = config.EffectMode(c.EffectMode)
	c.WebPort = config.WebPort(c.WebPort)
	c.DBPath = config.DBPath(c.DBPath)
	if url := config.TrackerURL(); url != "" {
		c.TrackerURL = url
		c.Source = SourceBridge
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Sensitivity < 0 || c.Sensitivity > 1 {
		return &ConfigError{Field: "Sensitivity", Message: fmt.Sprintf("sensitivity %v outside [0, 1]", c.Sensitivity)}
	}
	if _, err := step.ParseEffectMode(c.EffectMode); err != nil {
		return &ConfigError{Field: "EffectMode", Message: err.Error()}
	}
	switch c.Source {
	case SourceSynthetic:
	case SourceReplay:
		if c.ReplayPath == "" {
			return &ConfigError{Field: "ReplayPath", Message: "replay source needs a recording path"}
		}
	case SourceBridge:
		if c.TrackerURL == "" {
			return &ConfigError{Field: "TrackerURL", Message: "bridge source needs TRACKER_URL"}
		}
	default:
		return &ConfigError{Field: "Source", Message: fmt.Sprintf("unknown tracker source %q", c.Source)}
	}
	if c.Rate <= 0 {
		return &ConfigError{Field: "Rate", Message: "tick rate must be positive"}
	}
	return nil
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Message
}
