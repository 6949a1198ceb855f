package ground

import (
	"errors"
	"math"
	"testing"
)

// avatar models feet whose world height follows the origin.
type avatar struct {
	space       *PlaySpace
	leftLocalY  float64
	rightLocalY float64
}

func (a *avatar) feet() (float64, float64) {
	y := a.space.OriginY()
	return y + a.leftLocalY, y + a.rightLocalY
}

func TestOffset(t *testing.T) {
	tests := []struct {
		name              string
		prev, left, right float64
		sole, want        float64
	}{
		{"already aligned", 0, 0.08, 0.2, 0.08, 0},
		{"sunk into floor", 0, -0.12, 0.1, 0.08, 0.2},
		{"floating", 0.5, 0.9, 0.7, 0.08, -0.12},
		{"uses lower foot", 0, 0.3, 0.18, 0.08, -0.1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Offset(tc.prev, tc.left, tc.right, tc.sole)
			if math.Abs(got-tc.want) > 1e-12 {
				t.Errorf("Offset = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestAlignGround_Converges(t *testing.T) {
	space := &PlaySpace{}
	av := &avatar{space: space, leftLocalY: -0.35, rightLocalY: -0.2}

	a := NewAligner()
	a.Attach(space)

	l, r := av.feet()
	first, err := a.AlignGround(l, r, DefaultSoleHeight)
	if err != nil {
		t.Fatalf("AlignGround: %v", err)
	}

	l, r = av.feet()
	if math.Abs(math.Min(l, r)-DefaultSoleHeight) > 1e-12 {
		t.Fatalf("after first alignment lower foot at %v, want %v", math.Min(l, r), DefaultSoleHeight)
	}

	for i := 0; i < 5; i++ {
		l, r = av.feet()
		next, err := a.AlignGround(l, r, DefaultSoleHeight)
		if err != nil {
			t.Fatalf("AlignGround #%d: %v", i+2, err)
		}
		if math.Abs(next-first) > 1e-12 {
			t.Errorf("call %d drifted: %v vs %v", i+2, next, first)
		}
	}
}

func TestAlignGround_NoAvatar(t *testing.T) {
	a := NewAligner()
	if _, err := a.AlignGround(0, 0, DefaultSoleHeight); !errors.Is(err, ErrNoAvatar) {
		t.Errorf("err = %v, want ErrNoAvatar", err)
	}

	space := &PlaySpace{}
	a.Attach(space)
	a.Detach()
	if _, err := a.AlignGround(1, 1, DefaultSoleHeight); !errors.Is(err, ErrNoAvatar) {
		t.Errorf("after Detach err = %v, want ErrNoAvatar", err)
	}
	if space.OriginY() != 0 {
		t.Errorf("detached origin moved to %v", space.OriginY())
	}
}
