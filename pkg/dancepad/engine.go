package dancepad

import (
	"log/slog"
	"time"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/teslashibe/go-dancepad/internal/log"
	"github.com/teslashibe/go-dancepad/pkg/skeleton"
	"github.com/teslashibe/go-dancepad/pkg/step"
)

// Config holds engine parameters.
type Config struct {
	// Sensitivity is the 0-1 threshold a foot's normalized contact
	// confidence must strictly exceed to trigger a hole.
	Sensitivity float64

	// Cooldown is how long a hole rests after its zone empties.
	Cooldown time.Duration

	// ActiveWindow is how long a target stays up unstruck. Zero disables expiry.
	ActiveWindow time.Duration

	// EffectLift raises spawned effects above the zone centre, in meters.
	EffectLift float64

	// EffectScale is the uniform scale of spawned effects.
	EffectScale float64

	// ColorFade is the duration of hole colour transitions.
	ColorFade time.Duration

	// StepEffects selects which step events spawn step effects.
	StepEffects step.EffectMode
}

// DefaultConfig returns sensible engine defaults.
func DefaultConfig() Config {
	return Config{
		Sensitivity:  0.3,
		Cooldown:     500 * time.Millisecond,
		ActiveWindow: 3 * time.Second,
		EffectLift:   0.05,
		EffectScale:  1,
		ColorFade:    150 * time.Millisecond,
		StepEffects:  step.HeelAndToe,
	}
}

// Trigger records one hole firing.
type Trigger struct {
	HoleID int
	Joint  skeleton.Joint
	Target Target
	Delta  int
	Level  step.Confidence // contact level that fired the hole
}

// Stats summarizes engine activity.
type Stats struct {
	Triggers    int `json:"triggers"`
	Misses      int `json:"misses"`
	Decoys      int `json:"decoys"`
	StepEffects int `json:"step_effects"`
}

// Engine evaluates holes against foot contacts each frame.
type Engine struct {
	config Config
	holes  []*Hole
	sinks  Sinks
	stats  Stats
	logger *slog.Logger
}

// NewEngine creates an engine over holes.
func NewEngine(config Config, holes []*Hole, sinks Sinks) *Engine {
	return &Engine{
		config: config,
		holes:  holes,
		sinks:  sinks,
		logger: log.Component("dancepad"),
	}
}

// Config returns the current configuration.
func (e *Engine) Config() Config { return e.config }

// SetConfig replaces the configuration. Callers apply it between frames.
func (e *Engine) SetConfig(c Config) { e.config = c }

// Holes returns the engine's holes.
func (e *Engine) Holes() []*Hole { return e.holes }

// Hole returns the hole with the given id.
func (e *Engine) Hole(id int) (*Hole, bool) {
	for _, h := range e.holes {
		if h.ID == id {
			return h, true
		}
	}
	return nil, false
}

// Stats returns activity counters.
func (e *Engine) Stats() Stats { return e.stats }

// Activate pops a target up in hole id with the configured window.
func (e *Engine) Activate(id int, t Target) error {
	h, ok := e.Hole(id)
	if !ok {
		return ErrUnknownHole
	}
	if err := h.Activate(t, e.config.ActiveWindow, e.config.ColorFade); err != nil {
		return err
	}
	e.logger.Debug("hole activated", "hole", id, "value", t.Value, "kickable", t.Kickable)
	return nil
}

// Update runs one frame: timers advance, occupancy is recomputed from
// contacts, qualifying contacts fire Active holes, and step events spawn
// step effects. It returns the holes that fired this frame.
func (e *Engine) Update(contacts []FootContact, events []step.Event, dt time.Duration) []Trigger {
	var fired []Trigger

	for _, h := range e.holes {
		if h.advance(dt, e.config.ColorFade) {
			e.stats.Misses++
			e.logger.Debug("target expired", "hole", h.ID)
		}

		e.updateOccupancy(h, contacts)

		if h.state != Active || h.latched {
			continue
		}
		for _, c := range contacts {
			if !h.Occupied(c.Joint) || !h.Direction.Accepts(c.Joint) {
				continue
			}
			if !step.ExceedsSensitivity(c.Confidence, e.config.Sensitivity) {
				continue
			}
			fired = append(fired, e.fire(h, c))
			break
		}
	}

	e.spawnSteps(contacts, events)
	return fired
}

func (e *Engine) updateOccupancy(h *Hole, contacts []FootContact) {
	inside := make(map[skeleton.Joint]bool, len(contacts))
	for _, c := range contacts {
		if h.Contains(c.Position) {
			inside[c.Joint] = true
			h.enter(c.Joint)
		}
	}
	for _, j := range h.Occupants() {
		if inside[j] {
			continue
		}
		if h.exit(j) {
			h.cleared(e.config.Cooldown)
			e.logger.Debug("zone cleared", "hole", h.ID, "state", h.state)
		}
	}
}

func (e *Engine) fire(h *Hole, c FootContact) Trigger {
	t := Trigger{
		HoleID: h.ID,
		Joint:  c.Joint,
		Target: h.target,
		Delta:  h.target.Award(),
		Level:  step.LevelOf(c.Confidence),
	}
	h.fire(e.config.ColorFade)
	e.stats.Triggers++
	if !t.Target.Kickable {
		e.stats.Decoys++
	}

	if e.sinks.Score != nil {
		e.sinks.Score.AddScore(t.Delta)
	}

	pos := r3.Add(h.Center(), r3.Vec{Y: e.config.EffectLift})
	if e.sinks.Effects != nil {
		e.sinks.Effects.SpawnEffect(EffectHoleHit, pos, skeleton.Identity(), e.config.EffectScale)
	}
	if e.sinks.Sounds != nil {
		kind := SoundHoleHit
		if !t.Target.Kickable {
			kind = SoundDecoy
		}
		e.sinks.Sounds.PlaySound(kind, pos)
	}

	e.logger.Info("hole triggered", "hole", h.ID, "joint", c.Joint, "level", t.Level, "delta", t.Delta)
	return t
}

func (e *Engine) spawnSteps(contacts []FootContact, events []step.Event) {
	for _, ev := range events {
		if !e.config.StepEffects.Allows(ev.Part) {
			continue
		}
		pos, ok := contactPosition(contacts, ev)
		if !ok {
			continue
		}
		kind := EffectHeelStep
		if ev.Part == step.Toe {
			kind = EffectToeStep
		}
		if e.sinks.Effects != nil {
			e.sinks.Effects.SpawnEffect(kind, pos, skeleton.Identity(), e.config.EffectScale*ev.Strength)
		}
		if e.sinks.Sounds != nil {
			e.sinks.Sounds.PlaySound(SoundStep, pos)
		}
		e.stats.StepEffects++
	}
}

// contactPosition finds where a step landed: the toe for toe strikes when
// tracked, otherwise the ankle.
func contactPosition(contacts []FootContact, ev step.Event) (r3.Vec, bool) {
	want := ev.Joint
	if ev.Part == step.Toe {
		if toe, ok := skeleton.ToeJoint(ev.Side); ok {
			for _, c := range contacts {
				if c.Joint == toe {
					return c.Position, true
				}
			}
		}
	}
	for _, c := range contacts {
		if c.Joint == want {
			return c.Position, true
		}
	}
	return r3.Vec{}, false
}
