package skeleton

import (
	"sync"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Bone is an avatar rig bone driven by the retargeter.
// The rendering/IK layer owns the implementation.
type Bone interface {
	// WorldRotation returns the bone's current world rotation.
	WorldRotation() quat.Number
	// SetRotation sets the bone's rotation.
	SetRotation(q quat.Number)
	// SetLocalPosition sets the bone's position relative to its parent.
	SetLocalPosition(p r3.Vec)
}

// Transform is an in-memory Bone used by headless sessions and tests.
type Transform struct {
	Name string

	mu       sync.RWMutex
	rotation quat.Number
	position r3.Vec
}

// NewTransform creates a bone at the origin with the given rotation.
func NewTransform(name string, rotation quat.Number) *Transform {
	return &Transform{Name: name, rotation: rotation}
}

// WorldRotation implements Bone.
func (t *Transform) WorldRotation() quat.Number {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.rotation
}

// SetRotation implements Bone.
func (t *Transform) SetRotation(q quat.Number) {
	t.mu.Lock()
	t.rotation = q
	t.mu.Unlock()
}

// SetLocalPosition implements Bone.
func (t *Transform) SetLocalPosition(p r3.Vec) {
	t.mu.Lock()
	t.position = p
	t.mu.Unlock()
}

// LocalPosition returns the last position written by SetLocalPosition.
func (t *Transform) LocalPosition() r3.Vec {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.position
}

// NewRig returns one Transform per joint, all in the identity bind pose.
func NewRig() []*Transform {
	rig := make([]*Transform, JointCount)
	for i := range rig {
		rig[i] = NewTransform(Joint(i).String(), Identity())
	}
	return rig
}

// Bones converts a rig to the Bone slice expected by Binder.Bind.
func Bones(rig []*Transform) []Bone {
	bones := make([]Bone, len(rig))
	for i, t := range rig {
		if t != nil {
			bones[i] = t
		}
	}
	return bones
}
