// Package retarget applies tracker joint samples to a bound avatar rig and
// computes the scaled world positions of the feet.
package retarget

import (
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/teslashibe/go-dancepad/pkg/calibrate"
	"github.com/teslashibe/go-dancepad/pkg/skeleton"
)

// Config holds retargeting parameters.
type Config struct {
	// HeadOffsetCorrection is added to every scaled world position. It
	// compensates for the gap between the tracker's head origin and the
	// rig's head anchor.
	HeadOffsetCorrection r3.Vec

	// WorldJoints are the joints whose world positions are computed each
	// frame for downstream consumers.
	WorldJoints []skeleton.Joint
}

// DefaultConfig returns the configuration used by the session binary.
func DefaultConfig() Config {
	return Config{
		WorldJoints: []skeleton.Joint{
			skeleton.LeftFoot, skeleton.RightFoot,
			skeleton.LeftToe, skeleton.RightToe,
		},
	}
}

// Pose is the retargeting result for one frame.
type Pose struct {
	RootPosition r3.Vec
	Rotations    map[skeleton.Joint]quat.Number
	World        map[skeleton.Joint]r3.Vec
	Skipped      []skeleton.Joint // bound joints with no sample this frame
}

// WorldPosition returns the scaled world position of a joint, if computed.
func (p Pose) WorldPosition(j skeleton.Joint) (r3.Vec, bool) {
	v, ok := p.World[j]
	return v, ok
}

// Foot returns the world position of the ankle on the given side.
func (p Pose) Foot(side skeleton.Side) (r3.Vec, bool) {
	j, ok := skeleton.FootJoint(side)
	if !ok {
		return r3.Vec{}, false
	}
	return p.WorldPosition(j)
}

// Retargeter writes tracker samples onto bound bones. It has no state
// beyond its configuration, so a frame may be retargeted repeatedly with
// identical results.
type Retargeter struct {
	config Config
}

// New creates a Retargeter.
func New(config Config) *Retargeter {
	return &Retargeter{config: config}
}

// FootWorldPosition maps a raw tracker position to world space, scaling
// about the head anchor rather than the world origin:
//
//	world = scale*(raw - headAnchor) + headAnchor + correction
func FootWorldPosition(raw r3.Vec, scale float64, headAnchor, correction r3.Vec) r3.Vec {
	return r3.Add(r3.Add(r3.Scale(scale, r3.Sub(raw, headAnchor)), headAnchor), correction)
}

// Retarget applies one frame of samples.
//
// The root bone takes the hip sample's position directly. Every other bound
// joint takes samples[i].Rotation composed with its bind rotation (tracker
// delta on the left of the bind pose). Joints with no sample in the frame
// are skipped.
func (r *Retargeter) Retarget(samples []skeleton.JointSample, bindings *skeleton.Bindings, scale calibrate.AvatarScale, headAnchor r3.Vec) Pose {
	pose := Pose{
		Rotations: make(map[skeleton.Joint]quat.Number, skeleton.JointCount),
		World:     make(map[skeleton.Joint]r3.Vec, len(r.config.WorldJoints)),
	}

	bindings.Each(func(bb *skeleton.BoneBinding) {
		s, ok := skeleton.SampleFor(samples, bb.Index)
		if !ok {
			pose.Skipped = append(pose.Skipped, bb.Index)
			return
		}

		if bb.Index == skeleton.Root {
			pose.RootPosition = skeleton.GetPosition(s)
			bb.Target.SetLocalPosition(pose.RootPosition)
			return
		}

		rot := skeleton.Compose(s.Rotation, bb.BindRotation)
		pose.Rotations[bb.Index] = rot
		bb.Target.SetRotation(rot)
	})

	for _, j := range r.config.WorldJoints {
		s, ok := skeleton.SampleFor(samples, j)
		if !ok {
			continue
		}
		pose.World[j] = FootWorldPosition(s.Position, scale.ScaleFactor, headAnchor, r.config.HeadOffsetCorrection)
	}

	return pose
}
