// Package calibrate derives the avatar scale from the player's height and
// pushes matching bone lengths to the tracking source.
package calibrate

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/teslashibe/go-dancepad/internal/log"
)

// Height limits in centimeters.
const (
	// DefaultHeight is the reference rig height. Scale 1.0 at this height.
	DefaultHeight = 175.0

	// HeightFloor is the sanity floor. Heights at or below it are replaced
	// by DefaultHeight.
	HeightFloor = 50.0
)

// BoneCount is the number of bone lengths the tracking source calibrates.
const BoneCount = 11

// Bone length slots, in the order the tracking source expects them.
const (
	BoneHipWidth = iota
	BoneUpperLeg
	BoneLowerLeg
	BoneFootHeight
	BoneSpine
	BoneChest
	BoneNeck
	BoneShoulderWidth
	BoneUpperArm
	BoneForearm
	BoneHand
)

// ReferenceBoneLengths are the bone lengths of the 175 cm reference rig, in meters.
var ReferenceBoneLengths = [BoneCount]float64{
	0.180, // hip width
	0.440, // upper leg
	0.420, // lower leg
	0.080, // ankle to sole
	0.240, // hips to chest
	0.220, // chest to neck
	0.110, // neck
	0.360, // shoulder width
	0.290, // upper arm
	0.250, // forearm
	0.180, // hand
}

// ErrInvalidHeight is reported when a height at or below HeightFloor is
// replaced by DefaultHeight.
var ErrInvalidHeight = errors.New("calibrate: height below sanity floor")

// AvatarScale is the uniform avatar scale derived from the player's height.
type AvatarScale struct {
	ScaleFactor float64
	BoneLengths [BoneCount]float64
	HeightCm    float64 // height actually used, after clamping
}

// Unit returns the scale of the reference rig.
func Unit() AvatarScale {
	return AvatarScale{ScaleFactor: 1, BoneLengths: ReferenceBoneLengths, HeightCm: DefaultHeight}
}

// BoneLengthSink receives calibrated bone lengths.
// A non-zero result code means the sink rejected the push.
type BoneLengthSink interface {
	SetBoneLengths(lengths [BoneCount]float64) int
}

// PushError records a rejected bone-length push.
type PushError struct {
	Code int
}

func (e *PushError) Error() string {
	return fmt.Sprintf("calibrate: bone length push rejected (code %d)", e.Code)
}

// Calibrator computes AvatarScale values. It is the only writer of the
// current scale.
type Calibrator struct {
	sink   BoneLengthSink
	logger *slog.Logger

	mu       sync.RWMutex
	current  AvatarScale
	lastPush error
}

// NewCalibrator creates a Calibrator. sink may be nil when no tracking
// source accepts calibration.
func NewCalibrator(sink BoneLengthSink) *Calibrator {
	return &Calibrator{
		sink:    sink,
		logger:  log.Component("calibrate"),
		current: Unit(),
	}
}

// ScaleFor computes the scale for a height without side effects.
// The second result is ErrInvalidHeight when the height was clamped.
func ScaleFor(heightCm float64) (AvatarScale, error) {
	var err error
	if !(heightCm > HeightFloor) { // also catches NaN
		err = fmt.Errorf("%w: %v <= %v, using %v", ErrInvalidHeight, heightCm, HeightFloor, DefaultHeight)
		heightCm = DefaultHeight
	}

	s := AvatarScale{
		ScaleFactor: heightCm / DefaultHeight,
		HeightCm:    heightCm,
	}
	for i, ref := range ReferenceBoneLengths {
		s.BoneLengths[i] = ref * s.ScaleFactor
	}
	return s, err
}

// Calibrate derives the avatar scale from the player's height, stores it
// as current, and pushes the bone lengths to the sink. Invalid heights are
// clamped with a warning. A rejected push is logged and otherwise ignored.
func (c *Calibrator) Calibrate(heightCm float64) AvatarScale {
	s, err := ScaleFor(heightCm)
	if err != nil {
		c.logger.Warn("invalid player height", "height", heightCm, "err", err)
	}

	var pushErr error
	if c.sink != nil {
		if code := c.sink.SetBoneLengths(s.BoneLengths); code != 0 {
			pushErr = &PushError{Code: code}
			c.logger.Warn("tracker calibration push failed", "err", pushErr)
		}
	}

	c.mu.Lock()
	c.current = s
	c.lastPush = pushErr
	c.mu.Unlock()

	c.logger.Info("avatar calibrated", "height", s.HeightCm, "scale", s.ScaleFactor)
	return s
}

// Current returns the most recent scale.
func (c *Calibrator) Current() AvatarScale {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

// LastPushError returns the error from the most recent push, if any.
func (c *Calibrator) LastPushError() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastPush
}
