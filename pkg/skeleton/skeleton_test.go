package skeleton

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func TestJointNames(t *testing.T) {
	if JointCount != len(jointNames) {
		t.Fatalf("JointCount=%d but %d names", JointCount, len(jointNames))
	}
	if RightHandIndex != JointCount-1 {
		t.Errorf("last joint index = %d, want %d", RightHandIndex, JointCount-1)
	}
	if Hips.String() != "hips" || LeftToe.String() != "left_toe" {
		t.Errorf("unexpected names: %s %s", Hips, LeftToe)
	}
	if Joint(99).String() != "unknown" {
		t.Errorf("out of range joint should be unknown")
	}
}

func TestSideOf(t *testing.T) {
	tests := []struct {
		j    Joint
		want Side
	}{
		{LeftFoot, Left},
		{LeftToe, Left},
		{RightFoot, Right},
		{RightToe, Right},
		{Hips, Center},
		{Head, Center},
	}
	for _, tc := range tests {
		if got := SideOf(tc.j); got != tc.want {
			t.Errorf("SideOf(%s) = %s, want %s", tc.j, got, tc.want)
		}
	}
}

func TestBind_RecordsBindRotation(t *testing.T) {
	rig := NewRig()
	rot := AxisAngle(r3.Vec{Y: 1}, math.Pi/2)
	rig[LeftArm].SetRotation(rot)

	b := NewBinder().Bind(Bones(rig))

	if b.Count() != JointCount {
		t.Fatalf("Count = %d, want %d", b.Count(), JointCount)
	}
	bb, ok := b.Get(LeftArm)
	if !ok {
		t.Fatal("LeftArm not bound")
	}
	if !ApproxEqual(bb.BindRotation, rot, 1e-12) {
		t.Errorf("bind rotation = %v, want %v", bb.BindRotation, rot)
	}
	if bb.Target != Bone(rig[LeftArm]) {
		t.Error("binding target does not point at the rig bone")
	}
}

func TestBind_MissingBoneSkipped(t *testing.T) {
	rig := NewRig()
	rig[RightHand] = nil

	b := NewBinder().Bind(Bones(rig))

	if _, ok := b.Get(RightHand); ok {
		t.Error("RightHand should not be bound")
	}
	if b.Count() != JointCount-1 {
		t.Errorf("Count = %d, want %d", b.Count(), JointCount-1)
	}

	missing := b.Missing()
	if len(missing) != 1 {
		t.Fatalf("Missing = %d entries, want 1", len(missing))
	}
	var mbe *MissingBindingError
	if !errors.As(error(missing[0]), &mbe) || mbe.Joint != RightHand {
		t.Errorf("missing[0] = %v, want RightHand", missing[0])
	}
}

func TestBind_ShortBoneList(t *testing.T) {
	rig := NewRig()[:5]
	b := NewBinder().Bind(Bones(rig))
	if b.Count() != 5 {
		t.Errorf("Count = %d, want 5", b.Count())
	}
	if len(b.Missing()) != JointCount-5 {
		t.Errorf("Missing = %d, want %d", len(b.Missing()), JointCount-5)
	}
}

func TestRotate(t *testing.T) {
	q := AxisAngle(r3.Vec{Z: 1}, math.Pi/2)
	got := Rotate(q, r3.Vec{X: 1})
	if math.Abs(got.X) > 1e-9 || math.Abs(got.Y-1) > 1e-9 || math.Abs(got.Z) > 1e-9 {
		t.Errorf("Rotate(90° about Z, X) = %v, want (0,1,0)", got)
	}
}

func TestSampleFor(t *testing.T) {
	frame := NeutralFrame()
	frame[LeftFoot].ContactMask = ContactGround | ContactToe

	s, ok := SampleFor(frame, LeftFoot)
	if !ok || !s.HasContact(ContactToe) {
		t.Errorf("SampleFor(LeftFoot) = %+v, %v", s, ok)
	}

	sparse := []JointSample{{Index: int(RightToe)}}
	if _, ok := SampleFor(sparse, RightToe); !ok {
		t.Error("sparse lookup failed")
	}
	if _, ok := SampleFor(sparse, Head); ok {
		t.Error("Head should be absent")
	}
}
