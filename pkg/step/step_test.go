package step

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/teslashibe/go-dancepad/pkg/skeleton"
)

func frameWith(left, right int) []skeleton.JointSample {
	f := skeleton.NeutralFrame()
	f[skeleton.LeftFoot].ContactMask = left
	f[skeleton.RightFoot].ContactMask = right
	return f
}

func TestDetect_RisingEdgeOnly(t *testing.T) {
	tests := []struct {
		mask, prev int
		part       Part
		want       bool
	}{
		{skeleton.ContactGround, 0, Heel, true},
		{skeleton.ContactGround, skeleton.ContactGround, Heel, false},
		{0, skeleton.ContactGround, Heel, false},
		{0, 0, Heel, false},
		{skeleton.ContactToe, 0, Heel, false},
		{skeleton.ContactToe, skeleton.ContactGround, Toe, true},
		{skeleton.ContactGround | skeleton.ContactToe, skeleton.ContactToe, Heel, true},
		{skeleton.ContactGround | skeleton.ContactToe, skeleton.ContactToe, Toe, false},
	}

	for _, tc := range tests {
		_, got := Detect(tc.mask, tc.prev, skeleton.Left, tc.part)
		if got != tc.want {
			t.Errorf("Detect(%b, %b, %s) = %v, want %v", tc.mask, tc.prev, tc.part, got, tc.want)
		}
	}
}

func TestDetector_BasicStep(t *testing.T) {
	// Heel flag sequence [0,0,1,1,0]: one event, on the third frame.
	seq := []int{0, 0, 1, 1, 0}
	d := NewDetector()

	var fired []uint64
	for _, m := range seq {
		for _, ev := range d.Update(frameWith(m, 0)) {
			if ev.Side == skeleton.Left && ev.Part == Heel {
				fired = append(fired, ev.Frame)
			}
		}
	}

	if len(fired) != 1 || fired[0] != 3 {
		t.Errorf("heel events at frames %v, want [3]", fired)
	}
}

func TestDetector_DualFlagStride(t *testing.T) {
	g, toe := skeleton.ContactGround, skeleton.ContactToe
	seq := []int{0, 0, g, g, g | toe, g | toe, 0}
	d := NewDetector()

	type hit struct {
		frame uint64
		part  Part
	}
	var hits []hit
	for _, m := range seq {
		for _, ev := range d.Update(frameWith(m, 0)) {
			hits = append(hits, hit{ev.Frame, ev.Part})
		}
	}

	want := []hit{{3, Heel}, {5, Toe}}
	if len(hits) != len(want) {
		t.Fatalf("hits = %v, want %v", hits, want)
	}
	for i := range want {
		if hits[i] != want[i] {
			t.Errorf("hit %d = %v, want %v", i, hits[i], want[i])
		}
	}
}

func TestDetector_EventCountEqualsRisingEdges(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))

	for trial := 0; trial < 50; trial++ {
		n := 20 + rng.IntN(200)
		masks := make([]int, n)
		for i := range masks {
			// Long runs so bits stay high for many frames.
			if i > 0 && rng.IntN(4) != 0 {
				masks[i] = masks[i-1]
				continue
			}
			masks[i] = rng.IntN(4)
		}

		wantHeel, wantToe := 0, 0
		prev := 0
		for _, m := range masks {
			if m&skeleton.ContactGround != 0 && prev&skeleton.ContactGround == 0 {
				wantHeel++
			}
			if m&skeleton.ContactToe != 0 && prev&skeleton.ContactToe == 0 {
				wantToe++
			}
			prev = m
		}

		d := NewDetector()
		gotHeel, gotToe := 0, 0
		for _, m := range masks {
			for _, ev := range d.Update(frameWith(0, m)) {
				if ev.Side != skeleton.Right {
					t.Fatalf("unexpected left event %+v", ev)
				}
				if ev.Part == Heel {
					gotHeel++
				} else {
					gotToe++
				}
			}
		}

		if gotHeel != wantHeel || gotToe != wantToe {
			t.Fatalf("trial %d: heel %d/%d toe %d/%d", trial, gotHeel, wantHeel, gotToe, wantToe)
		}
	}
}

func TestDetector_PreviousTracksLastFrame(t *testing.T) {
	d := NewDetector()
	masks := []int{1, 0, 1, 1}
	for i, m := range masks {
		d.Update(frameWith(m, 0))
		st := d.State(skeleton.Left, Heel)
		if st.Current != m {
			t.Errorf("frame %d: current = %d, want %d", i, st.Current, m)
		}
		wantPrev := 0
		if i > 0 {
			wantPrev = masks[i-1]
		}
		if st.Previous != wantPrev {
			t.Errorf("frame %d: previous = %d, want %d", i, st.Previous, wantPrev)
		}
	}
}

func TestDetector_MissingFootCountsAsLifted(t *testing.T) {
	d := NewDetector()
	d.Update(frameWith(skeleton.ContactGround, 0))

	// A frame without the left foot.
	d.Update([]skeleton.JointSample{{Index: int(skeleton.Hips)}})

	events := d.Update(frameWith(skeleton.ContactGround, 0))
	if len(events) != 1 || events[0].Side != skeleton.Left {
		t.Errorf("events = %+v, want one left heel event", events)
	}
}

func TestDetector_StrengthFromConfidence(t *testing.T) {
	d := NewDetector()
	f := frameWith(skeleton.ContactGround, 0)
	f[skeleton.LeftFoot].Confidence = 640

	events := d.Update(f)
	if len(events) != 1 {
		t.Fatalf("events = %d, want 1", len(events))
	}
	if math.Abs(events[0].Strength-0.64) > 1e-9 {
		t.Errorf("strength = %v, want 0.64", events[0].Strength)
	}
}

func TestConfidenceLevels(t *testing.T) {
	tests := []struct {
		raw  int
		want Confidence
	}{
		{0, ConfidenceNone},
		{-5, ConfidenceNone},
		{49, ConfidenceNone},
		{50, ConfidenceLight},
		{349, ConfidenceLight},
		{350, ConfidenceFirm},
		{750, ConfidenceFull},
		{5000, ConfidenceFull},
	}
	for _, tc := range tests {
		if got := LevelOf(tc.raw); got != tc.want {
			t.Errorf("LevelOf(%d) = %s, want %s", tc.raw, got, tc.want)
		}
	}
}

func TestExceedsSensitivity(t *testing.T) {
	if ExceedsSensitivity(300, 0.3) {
		t.Error("equal to threshold must not exceed")
	}
	if !ExceedsSensitivity(301, 0.3) {
		t.Error("301 per-mille should exceed 0.3")
	}
	if ExceedsSensitivity(1000, 1) {
		t.Error("nothing exceeds a threshold of 1")
	}
	if !ExceedsSensitivity(1, 0) {
		t.Error("any contact exceeds a threshold of 0")
	}
}

func TestEffectMode(t *testing.T) {
	tests := []struct {
		in        string
		heel, toe bool
	}{
		{"off", false, false},
		{"heel", true, false},
		{"toe", false, true},
		{"heel-toe", true, true},
		{"3", true, true},
	}
	for _, tc := range tests {
		m, err := ParseEffectMode(tc.in)
		if err != nil {
			t.Fatalf("ParseEffectMode(%q): %v", tc.in, err)
		}
		if m.Allows(Heel) != tc.heel || m.Allows(Toe) != tc.toe {
			t.Errorf("%q: heel=%v toe=%v", tc.in, m.Allows(Heel), m.Allows(Toe))
		}
		if again, _ := ParseEffectMode(m.String()); again != m {
			t.Errorf("%q: String() does not parse back", tc.in)
		}
	}

	if _, err := ParseEffectMode("stomp"); err == nil {
		t.Error("expected error for unknown mode")
	}
}
