package skeleton

import (
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Contact bits carried in JointSample.ContactMask.
const (
	// ContactGround is set while the heel/sole is on the ground.
	ContactGround = 1 << 0
	// ContactToe is set while the toe is on the ground.
	ContactToe = 1 << 1
)

// JointSample is one frame of tracker data for a single joint.
// It is produced by the tracker and read-only to the pipeline.
type JointSample struct {
	Index    int
	Position r3.Vec      // local position in the tracker's head-centered frame
	Rotation quat.Number // local rotation

	// ContactMask holds the Contact* bits for this joint.
	ContactMask int

	// Confidence is the raw contact confidence in per-mille (0-1000).
	Confidence int
}

// Joint returns the joint this sample describes.
func (s JointSample) Joint() Joint {
	return Joint(s.Index)
}

// HasContact reports whether all bits of flag are set in the mask.
func (s JointSample) HasContact(flag int) bool {
	return s.ContactMask&flag == flag
}

// GetPosition returns the sample's local position.
func GetPosition(s JointSample) r3.Vec {
	return s.Position
}

// NeutralFrame returns a full frame of identity rotations at the origin.
func NeutralFrame() []JointSample {
	frame := make([]JointSample, JointCount)
	for i := range frame {
		frame[i] = JointSample{Index: i, Rotation: Identity()}
	}
	return frame
}

// SampleFor looks up the sample for joint j. Frames are expected in
// index order, but a frame with gaps is searched linearly.
func SampleFor(samples []JointSample, j Joint) (JointSample, bool) {
	i := int(j)
	if i >= 0 && i < len(samples) && samples[i].Index == i {
		return samples[i], true
	}
	for _, s := range samples {
		if s.Index == i {
			return s, true
		}
	}
	return JointSample{}, false
}
