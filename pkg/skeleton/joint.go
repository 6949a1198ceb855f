// Package skeleton defines the tracked humanoid joint set, the per-frame
// joint samples reported by the tracker, and the one-time binding of
// those joints to an avatar rig.
//
// Positions are gonum r3 vectors and rotations are gonum quaternions.
// The rig itself (rendering, IK) is external and is reached through the
// Bone interface.
package skeleton

// Joint identifies one of the 24 tracked body points.
// The numeric value is the index into a tracker frame.
type Joint int

// Tracked joints in tracker frame order.
const (
	Hips Joint = iota
	LeftUpLeg
	RightUpLeg
	Spine
	LeftLeg
	RightLeg
	Spine1
	LeftFoot
	RightFoot
	Spine2
	LeftToe
	RightToe
	Neck
	LeftShoulder
	RightShoulder
	Head
	LeftArm
	RightArm
	LeftForeArm
	RightForeArm
	LeftHand
	RightHand
	LeftHandIndex
	RightHandIndex
)

// JointCount is the number of joints in a full tracker frame.
const JointCount = 24

// Root is the joint whose position drives the avatar root.
const Root = Hips

var jointNames = [JointCount]string{
	"hips", "left_up_leg", "right_up_leg", "spine",
	"left_leg", "right_leg", "spine1", "left_foot",
	"right_foot", "spine2", "left_toe", "right_toe",
	"neck", "left_shoulder", "right_shoulder", "head",
	"left_arm", "right_arm", "left_fore_arm", "right_fore_arm",
	"left_hand", "right_hand", "left_hand_index", "right_hand_index",
}

// String returns the snake_case joint name.
func (j Joint) String() string {
	if !j.Valid() {
		return "unknown"
	}
	return jointNames[j]
}

// Valid reports whether j is inside the tracked range.
func (j Joint) Valid() bool {
	return j >= 0 && j < JointCount
}

// Side is the body side a joint belongs to.
type Side int

const (
	// Center joints (spine, head) have no side.
	Center Side = iota
	Left
	Right
)

// String returns a human-readable side name.
func (s Side) String() string {
	switch s {
	case Left:
		return "left"
	case Right:
		return "right"
	default:
		return "center"
	}
}

// SideOf returns the body side of a joint.
func SideOf(j Joint) Side {
	switch j {
	case LeftUpLeg, LeftLeg, LeftFoot, LeftToe, LeftShoulder, LeftArm, LeftForeArm, LeftHand, LeftHandIndex:
		return Left
	case RightUpLeg, RightLeg, RightFoot, RightToe, RightShoulder, RightArm, RightForeArm, RightHand, RightHandIndex:
		return Right
	default:
		return Center
	}
}

// FootJoint returns the ankle joint for a side.
func FootJoint(s Side) (Joint, bool) {
	switch s {
	case Left:
		return LeftFoot, true
	case Right:
		return RightFoot, true
	}
	return 0, false
}

// ToeJoint returns the toe joint for a side.
func ToeJoint(s Side) (Joint, bool) {
	switch s {
	case Left:
		return LeftToe, true
	case Right:
		return RightToe, true
	}
	return 0, false
}

// IsFootRole reports whether the joint can stand on a dance pad
// (ankle or toe of either foot).
func IsFootRole(j Joint) bool {
	switch j {
	case LeftFoot, RightFoot, LeftToe, RightToe:
		return true
	}
	return false
}
