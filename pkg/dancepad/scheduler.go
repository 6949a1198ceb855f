package dancepad

import (
	"math/rand/v2"
	"time"

	"gonum.org/v1/gonum/spatial/r3"
)

// SchedulerConfig controls target pop-ups.
type SchedulerConfig struct {
	// Interval is the pause between a hole going idle and the next pop-up.
	Interval time.Duration

	// Value is the score of a kickable target.
	Value int

	// DecoyChance is the probability (0-1) that a pop-up is a decoy.
	DecoyChance float64

	Seed uint64
}

// DefaultSchedulerConfig returns scheduler defaults.
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		Interval:    time.Second,
		Value:       10,
		DecoyChance: 0.15,
		Seed:        1,
	}
}

// Scheduler activates one random Inactive hole at a time.
type Scheduler struct {
	config  SchedulerConfig
	engine  *Engine
	rng     *rand.Rand
	elapsed time.Duration
}

// NewScheduler creates a scheduler driving engine.
func NewScheduler(config SchedulerConfig, engine *Engine) *Scheduler {
	return &Scheduler{
		config: config,
		engine: engine,
		rng:    rand.New(rand.NewPCG(config.Seed, config.Seed^0x9e3779b97f4a7c15)),
	}
}

// Update advances the scheduler clock and pops a target up when the pad
// has been idle for Interval. It returns the activated hole id, or -1.
func (s *Scheduler) Update(dt time.Duration) int {
	if s.busy() {
		s.elapsed = 0
		return -1
	}
	s.elapsed += dt
	if s.elapsed < s.config.Interval {
		return -1
	}

	id, err := s.Next()
	if err != nil {
		return -1
	}
	s.elapsed = 0
	return id
}

// Next activates a random Inactive hole immediately.
func (s *Scheduler) Next() (int, error) {
	var idle []*Hole
	for _, h := range s.engine.holes {
		if h.state == Inactive {
			idle = append(idle, h)
		}
	}
	if len(idle) == 0 {
		return -1, ErrNoInactiveHole
	}

	h := idle[s.rng.IntN(len(idle))]
	t := Target{Value: s.config.Value, Kickable: s.rng.Float64() >= s.config.DecoyChance}
	if err := s.engine.Activate(h.ID, t); err != nil {
		return -1, err
	}
	return h.ID, nil
}

func (s *Scheduler) busy() bool {
	for _, h := range s.engine.holes {
		if h.state == Active || h.state == Triggered {
			return true
		}
	}
	return false
}

// GridLayout builds rows*cols square holes of side size, spaced pitch apart
// on the floor plane and centred on center. Holes left of centre take the
// left foot, right of centre the right foot, and the centre column either.
func GridLayout(center r3.Vec, rows, cols int, pitch, size, height float64) []*Hole {
	holes := make([]*Hole, 0, rows*cols)
	half := size / 2
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			dx := (float64(c) - float64(cols-1)/2) * pitch
			dz := (float64(r) - float64(rows-1)/2) * pitch
			mid := r3.Add(center, r3.Vec{X: dx, Z: dz})

			dir := DirectionAny
			switch {
			case dx < 0:
				dir = DirectionLeft
			case dx > 0:
				dir = DirectionRight
			}

			zone := r3.Box{
				Min: r3.Vec{X: mid.X - half, Y: mid.Y, Z: mid.Z - half},
				Max: r3.Vec{X: mid.X + half, Y: mid.Y + height, Z: mid.Z + half},
			}
			holes = append(holes, NewHole(len(holes), zone, dir))
		}
	}
	return holes
}

// DefaultLayout is a 3x3 pad of 30 cm holes, 10 cm tall, at the origin.
func DefaultLayout() []*Hole {
	return GridLayout(r3.Vec{}, 3, 3, 0.4, 0.3, 0.1)
}
