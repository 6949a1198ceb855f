package tracker

import (
	"math"
	"sync"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/teslashibe/go-dancepad/pkg/calibrate"
	"github.com/teslashibe/go-dancepad/pkg/skeleton"
)

// SyntheticConfig shapes the generated gait.
type SyntheticConfig struct {
	Cadence     float64 // full gait cycles per second
	StanceWidth float64 // half distance between the feet, meters
	StepLift    float64 // swing foot height, meters
	Sway        float64 // side-to-side drift amplitude, meters
	SwayPeriod  float64 // seconds per drift cycle
	Confidence  int     // per-mille confidence while a foot is planted
}

// DefaultSyntheticConfig returns a slow march in place that drifts across
// the pad.
func DefaultSyntheticConfig() SyntheticConfig {
	return SyntheticConfig{
		Cadence:     0.8,
		StanceWidth: 0.1,
		StepLift:    0.12,
		Sway:        0.45,
		SwayPeriod:  8,
		Confidence:  900,
	}
}

// Foot-cycle windows, as fractions of one gait cycle.
const (
	heelStrikeAt = 0.0
	heelOffAt    = 0.35
	toeStrikeAt  = 0.1
	toeOffAt     = 0.45
)

// Synthetic generates a marching skeleton. It also accepts bone lengths so
// it can stand in for a tracker during calibration.
type Synthetic struct {
	config SyntheticConfig

	mu      sync.Mutex
	lengths [calibrate.BoneCount]float64
}

// NewSynthetic creates a generator at the reference body size.
func NewSynthetic(config SyntheticConfig) *Synthetic {
	return &Synthetic{config: config, lengths: calibrate.ReferenceBoneLengths}
}

// SetBoneLengths stores lengths for the generated body. It always succeeds.
func (s *Synthetic) SetBoneLengths(lengths [calibrate.BoneCount]float64) int {
	s.mu.Lock()
	s.lengths = lengths
	s.mu.Unlock()
	return 0
}

// GetSamples returns the pose at displayTime. Every call yields data.
func (s *Synthetic) GetSamples(displayTime int64) (Status, []skeleton.JointSample) {
	s.mu.Lock()
	lengths := s.lengths
	s.mu.Unlock()

	t := float64(displayTime) / 1e9
	cfg := s.config

	sway := 0.0
	if cfg.SwayPeriod > 0 {
		sway = cfg.Sway * math.Sin(2*math.Pi*t/cfg.SwayPeriod)
	}

	legLength := lengths[calibrate.BoneUpperLeg] + lengths[calibrate.BoneLowerLeg] + lengths[calibrate.BoneFootHeight]
	hipY := legLength
	frame := skeleton.NeutralFrame()
	frame[skeleton.Hips].Position = r3.Vec{X: sway, Y: hipY}

	chest := hipY + lengths[calibrate.BoneSpine] + lengths[calibrate.BoneChest]
	frame[skeleton.Spine2].Position = r3.Vec{X: sway, Y: chest}
	frame[skeleton.Head].Position = r3.Vec{X: sway, Y: chest + lengths[calibrate.BoneNeck] + 0.1}

	cycle := t * cfg.Cadence
	s.foot(frame, skeleton.Left, frac(cycle), sway-cfg.StanceWidth, lengths)
	s.foot(frame, skeleton.Right, frac(cycle+0.5), sway+cfg.StanceWidth, lengths)
	return StatusOK, frame
}

func (s *Synthetic) foot(frame []skeleton.JointSample, side skeleton.Side, phase, x float64, lengths [calibrate.BoneCount]float64) {
	ankle, _ := skeleton.FootJoint(side)
	toe, _ := skeleton.ToeJoint(side)
	sole := lengths[calibrate.BoneFootHeight]

	mask := 0
	if phase >= heelStrikeAt && phase < heelOffAt {
		mask |= skeleton.ContactGround
	}
	if phase >= toeStrikeAt && phase < toeOffAt {
		mask |= skeleton.ContactToe
	}

	lift := 0.0
	if phase >= toeOffAt {
		swing := (phase - toeOffAt) / (1 - toeOffAt)
		lift = s.config.StepLift * math.Sin(math.Pi*swing)
	}

	confidence := 0
	if mask != 0 {
		confidence = s.config.Confidence
	}

	frame[ankle].Position = r3.Vec{X: x, Y: sole + lift}
	frame[ankle].ContactMask = mask
	frame[ankle].Confidence = confidence
	frame[toe].Position = r3.Vec{X: x, Y: lift, Z: 0.12}
	frame[toe].ContactMask = mask & skeleton.ContactToe
	frame[toe].Confidence = confidence
}

func frac(x float64) float64 {
	return x - math.Floor(x)
}
