// Package step turns per-frame foot contact bitmasks into discrete step
// events by rising-edge detection.
package step

import (
	"fmt"
	"strings"

	"github.com/teslashibe/go-dancepad/pkg/skeleton"
)

// Part is the part of the foot an event refers to.
type Part int

const (
	Heel Part = iota
	Toe
)

// String returns the part name.
func (p Part) String() string {
	if p == Toe {
		return "toe"
	}
	return "heel"
}

// Flag returns the contact bit monitored for this part.
func (p Part) Flag() int {
	if p == Toe {
		return skeleton.ContactToe
	}
	return skeleton.ContactGround
}

// ConfidenceScale converts raw per-mille confidence to the 0-1 range.
const ConfidenceScale = 0.001

// Confidence is a named contact-confidence level.
type Confidence int

const (
	ConfidenceNone  Confidence = iota // no contact reported
	ConfidenceLight                   // grazing contact
	ConfidenceFirm                    // normal footfall
	ConfidenceFull                    // full weight on the foot
)

// Level thresholds on the normalized 0-1 scale.
const (
	lightAt = 0.05
	firmAt  = 0.35
	fullAt  = 0.75
)

// String returns the level name.
func (c Confidence) String() string {
	switch c {
	case ConfidenceLight:
		return "light"
	case ConfidenceFirm:
		return "firm"
	case ConfidenceFull:
		return "full"
	default:
		return "none"
	}
}

// Normalize converts raw per-mille confidence to [0, 1].
func Normalize(raw int) float64 {
	v := float64(raw) * ConfidenceScale
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// LevelOf classifies a raw per-mille confidence.
func LevelOf(raw int) Confidence {
	v := Normalize(raw)
	switch {
	case v >= fullAt:
		return ConfidenceFull
	case v >= firmAt:
		return ConfidenceFirm
	case v >= lightAt:
		return ConfidenceLight
	default:
		return ConfidenceNone
	}
}

// ExceedsSensitivity reports whether raw confidence, scaled by
// ConfidenceScale, is strictly above the 0-1 sensitivity threshold.
func ExceedsSensitivity(raw int, threshold float64) bool {
	return float64(raw)*ConfidenceScale > threshold
}

// EffectMode selects which step events produce step effects.
type EffectMode int

const (
	EffectsOff EffectMode = iota
	HeelOnly
	ToeOnly
	HeelAndToe
)

// Allows reports whether events for part are enabled.
func (m EffectMode) Allows(p Part) bool {
	switch m {
	case HeelAndToe:
		return true
	case HeelOnly:
		return p == Heel
	case ToeOnly:
		return p == Toe
	default:
		return false
	}
}

// String returns the mode name accepted by ParseEffectMode.
func (m EffectMode) String() string {
	switch m {
	case HeelOnly:
		return "heel"
	case ToeOnly:
		return "toe"
	case HeelAndToe:
		return "heel-toe"
	default:
		return "off"
	}
}

// ParseEffectMode parses a mode name or its integer selector.
func ParseEffectMode(s string) (EffectMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "off", "none", "0":
		return EffectsOff, nil
	case "heel", "1":
		return HeelOnly, nil
	case "toe", "2":
		return ToeOnly, nil
	case "heel-toe", "both", "3":
		return HeelAndToe, nil
	}
	return EffectsOff, fmt.Errorf("step: unknown effect mode %q", s)
}
