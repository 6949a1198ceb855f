// Package config provides environment configuration helpers for go-dancepad commands.
package config

import (
	"os"
	"strconv"
)

// Default session configuration.
const (
	DefaultPlayerHeight = 175.0
	DefaultSensitivity  = 0.3
	DefaultEffectMode   = "heel-toe"
	DefaultWebPort      = "8181"
	DefaultDBPath       = "dancepad.db"
)

// PlayerHeight returns the player height in centimeters from PLAYER_HEIGHT.
// Falls back to the provided default if unset or unparsable.
func PlayerHeight(def float64) float64 {
	return floatEnv("PLAYER_HEIGHT", def)
}

// Sensitivity returns the contact sensitivity threshold (0-1) from CONTACT_SENSITIVITY.
// Values outside [0, 1] fall back to the default.
func Sensitivity(def float64) float64 {
	v := floatEnv("CONTACT_SENSITIVITY", def)
	if v < 0 || v > 1 {
		return def
	}
	return v
}

// EffectMode returns the step effect mode name from EFFECT_MODE.
func EffectMode(def string) string {
	return stringEnv("EFFECT_MODE", def)
}

// WebPort returns the dashboard port from WEB_PORT.
func WebPort(def string) string {
	return stringEnv("WEB_PORT", def)
}

// DBPath returns the session database path from DANCEPAD_DB.
func DBPath(def string) string {
	return stringEnv("DANCEPAD_DB", def)
}

// TrackerURL returns the websocket URL of the tracker bridge from TRACKER_URL.
// An empty result means no bridge is configured.
func TrackerURL() string {
	return os.Getenv("TRACKER_URL")
}

func stringEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func floatEnv(key string, def float64) float64 {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return def
	}
	return v
}
