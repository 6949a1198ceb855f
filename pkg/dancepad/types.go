// Package dancepad runs the dance pad minigame: a set of spatial holes,
// each a small state machine, that score when a qualifying foot lands in
// an active hole.
//
// Hole lifecycle:
//
//	Inactive --Activate--> Active --qualifying contact--> Triggered
//	Triggered --zone empties--> Cooldown --timer--> Inactive
//	Active --window expires--> Inactive
package dancepad

import (
	"errors"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/teslashibe/go-dancepad/pkg/pool"
	"github.com/teslashibe/go-dancepad/pkg/skeleton"
)

// State is a hole's lifecycle state.
type State int

const (
	Inactive State = iota
	Active
	Triggered
	Cooldown
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Inactive:
		return "inactive"
	case Active:
		return "active"
	case Triggered:
		return "triggered"
	case Cooldown:
		return "cooldown"
	default:
		return "unknown"
	}
}

// Direction gates which foot may trigger a hole.
type Direction int

const (
	// DirectionLeft accepts the left ankle and toe.
	DirectionLeft Direction = iota
	// DirectionRight accepts the right ankle and toe.
	DirectionRight
	// DirectionAny accepts either foot.
	DirectionAny
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case DirectionLeft:
		return "left"
	case DirectionRight:
		return "right"
	default:
		return "any"
	}
}

// Accepts reports whether joint j has the foot role this direction gates on.
func (d Direction) Accepts(j skeleton.Joint) bool {
	if !skeleton.IsFootRole(j) {
		return false
	}
	switch d {
	case DirectionLeft:
		return skeleton.SideOf(j) == skeleton.Left
	case DirectionRight:
		return skeleton.SideOf(j) == skeleton.Right
	default:
		return true
	}
}

// Target is the pop-up a hole shows while Active.
type Target struct {
	Value    int  // score awarded when struck
	Kickable bool // false for decoys, which award nothing
}

// Award returns the score delta for striking the target.
func (t Target) Award() int {
	if !t.Kickable {
		return 0
	}
	return t.Value
}

// FootContact is one tracked foot point for the current frame.
type FootContact struct {
	Joint      skeleton.Joint
	Position   r3.Vec // world position after retargeting
	Confidence int    // raw per-mille contact confidence
}

// Effect and sound kinds spawned by the engine.
const (
	EffectHoleHit  pool.Kind = "hole_hit"
	EffectHeelStep pool.Kind = "heel_step"
	EffectToeStep  pool.Kind = "toe_step"

	SoundHoleHit pool.Kind = "hole_hit"
	SoundDecoy   pool.Kind = "decoy"
	SoundStep    pool.Kind = "step"
)

// EffectSpawner spawns pooled visual effects.
type EffectSpawner interface {
	SpawnEffect(kind pool.Kind, position r3.Vec, rotation quat.Number, scale float64) pool.Handle
}

// SoundPlayer plays pooled sound effects.
type SoundPlayer interface {
	PlaySound(kind pool.Kind, position r3.Vec)
}

// ScoreSink accumulates score.
type ScoreSink interface {
	AddScore(delta int)
}

// Sinks groups the engine's output collaborators. Nil members are skipped.
type Sinks struct {
	Effects EffectSpawner
	Sounds  SoundPlayer
	Score   ScoreSink
}

var (
	// ErrNotInactive is returned when activating a hole that is not Inactive.
	ErrNotInactive = errors.New("dancepad: hole is not inactive")

	// ErrUnknownHole is returned for a hole id the engine does not own.
	ErrUnknownHole = errors.New("dancepad: unknown hole")

	// ErrNoInactiveHole is returned when every hole is busy.
	ErrNoInactiveHole = errors.New("dancepad: no inactive hole")
)
