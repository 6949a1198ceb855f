package dancepad

import (
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// Color is an RGBA colour with components in [0, 1].
type Color struct {
	R, G, B, A float64
}

// Hole palette.
var (
	ColorIdle    = Color{R: 0.25, G: 0.25, B: 0.3, A: 1}
	ColorActive  = Color{R: 1, G: 0.8, B: 0.1, A: 1}
	ColorSuccess = Color{R: 0.1, G: 0.9, B: 0.3, A: 1}
	ColorDecoy   = Color{R: 0.9, G: 0.2, B: 0.2, A: 1}
)

// colorTween fades a Color towards a target over time.
type colorTween struct {
	tweens [4]*gween.Tween
	to     Color
	done   bool
}

func newColorTween(from, to Color, seconds float32) *colorTween {
	fn := ease.OutQuad
	return &colorTween{
		tweens: [4]*gween.Tween{
			gween.New(float32(from.R), float32(to.R), seconds, fn),
			gween.New(float32(from.G), float32(to.G), seconds, fn),
			gween.New(float32(from.B), float32(to.B), seconds, fn),
			gween.New(float32(from.A), float32(to.A), seconds, fn),
		},
		to: to,
	}
}

// update advances the tween by dt seconds and writes the result to c.
func (t *colorTween) update(c *Color, dt float32) {
	if t.done {
		return
	}
	fields := [4]*float64{&c.R, &c.G, &c.B, &c.A}
	finished := true
	for i, tw := range t.tweens {
		v, ok := tw.Update(dt)
		*fields[i] = float64(v)
		if !ok {
			finished = false
		}
	}
	if finished {
		*c = t.to
		t.done = true
	}
}
