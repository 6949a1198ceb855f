package dancepad

import (
	"slices"
	"time"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/teslashibe/go-dancepad/pkg/skeleton"
)

// Hole is one spatial trigger zone.
type Hole struct {
	ID        int
	Zone      r3.Box
	Direction Direction

	state     State
	target    Target
	occupants map[skeleton.Joint]struct{}

	// latched is set when the hole fires and cleared only when its zone
	// empties, so a foot parked in the zone scores once.
	latched bool

	remaining time.Duration // active window or cooldown left
	color     Color
	tween     *colorTween
	triggers  int
}

// NewHole creates an Inactive hole.
func NewHole(id int, zone r3.Box, dir Direction) *Hole {
	return &Hole{
		ID:        id,
		Zone:      zone,
		Direction: dir,
		occupants: make(map[skeleton.Joint]struct{}),
		color:     ColorIdle,
	}
}

// State returns the lifecycle state.
func (h *Hole) State() State { return h.state }

// Target returns the current target. Meaningful while Active or Triggered.
func (h *Hole) Target() Target { return h.target }

// Latched reports whether the hole has fired since its zone last emptied.
func (h *Hole) Latched() bool { return h.latched }

// Color returns the current display colour.
func (h *Hole) Color() Color { return h.color }

// Triggers returns how many times the hole has fired.
func (h *Hole) Triggers() int { return h.triggers }

// Contains reports whether p is inside the zone, boundaries included.
func (h *Hole) Contains(p r3.Vec) bool {
	return h.Zone.Contains(p)
}

// Center returns the middle of the zone.
func (h *Hole) Center() r3.Vec {
	return h.Zone.Center()
}

// Occupants returns the joints currently inside the zone, in joint order.
func (h *Hole) Occupants() []skeleton.Joint {
	out := make([]skeleton.Joint, 0, len(h.occupants))
	for j := range h.occupants {
		out = append(out, j)
	}
	slices.Sort(out)
	return out
}

// Occupied reports whether j is inside the zone.
func (h *Hole) Occupied(j skeleton.Joint) bool {
	_, ok := h.occupants[j]
	return ok
}

// Activate pops a target up. window bounds how long the target stays up;
// zero means until struck.
func (h *Hole) Activate(t Target, window time.Duration, fade time.Duration) error {
	if h.state != Inactive {
		return ErrNotInactive
	}
	h.state = Active
	h.target = t
	h.remaining = window
	to := ColorActive
	if !t.Kickable {
		to = ColorDecoy
	}
	h.fadeTo(to, fade)
	return nil
}

func (h *Hole) fadeTo(c Color, d time.Duration) {
	if d <= 0 {
		h.color = c
		h.tween = nil
		return
	}
	h.tween = newColorTween(h.color, c, float32(d.Seconds()))
}

// fire latches the hole and moves it to Triggered.
func (h *Hole) fire(fade time.Duration) {
	h.latched = true
	h.state = Triggered
	h.triggers++
	h.fadeTo(ColorSuccess, fade)
}

// enter adds j to the occupant set.
func (h *Hole) enter(j skeleton.Joint) {
	h.occupants[j] = struct{}{}
}

// exit removes j. It returns true when the zone became empty.
func (h *Hole) exit(j skeleton.Joint) bool {
	if _, ok := h.occupants[j]; !ok {
		return false
	}
	delete(h.occupants, j)
	return len(h.occupants) == 0
}

// cleared handles the zone emptying: the latch and colour reset, and a
// Triggered hole starts its cooldown.
func (h *Hole) cleared(cooldown time.Duration) {
	h.latched = false
	h.color = ColorIdle
	h.tween = nil
	if h.state == Triggered {
		h.state = Cooldown
		h.remaining = cooldown
		if cooldown <= 0 {
			h.state = Inactive
		}
	}
}

// advance runs the timers and colour tween. It returns true if an Active
// target expired unstruck.
func (h *Hole) advance(dt time.Duration, fade time.Duration) bool {
	if h.tween != nil {
		h.tween.update(&h.color, float32(dt.Seconds()))
		if h.tween.done {
			h.tween = nil
		}
	}

	switch h.state {
	case Cooldown:
		h.remaining -= dt
		if h.remaining <= 0 {
			h.state = Inactive
			h.remaining = 0
		}
	case Active:
		if h.remaining <= 0 {
			return false
		}
		h.remaining -= dt
		if h.remaining <= 0 {
			h.state = Inactive
			h.remaining = 0
			h.target = Target{}
			h.fadeTo(ColorIdle, fade)
			return true
		}
	}
	return false
}
