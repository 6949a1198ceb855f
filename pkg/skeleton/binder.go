package skeleton

import (
	"fmt"
	"log/slog"

	"gonum.org/v1/gonum/num/quat"

	"github.com/teslashibe/go-dancepad/internal/log"
)

// MissingBindingError reports a joint whose bone reference was nil at bind time.
// Retargeting for that joint is disabled for the session.
type MissingBindingError struct {
	Joint Joint
}

func (e *MissingBindingError) Error() string {
	return fmt.Sprintf("skeleton: no bone bound for joint %s (%d)", e.Joint, int(e.Joint))
}

// BoneBinding captures a bone's bind-pose rotation. Immutable after Bind.
type BoneBinding struct {
	Index        Joint
	BindRotation quat.Number
	Target       Bone
}

// Bindings is the joint-indexed result of Binder.Bind.
// There is at most one binding per joint.
type Bindings struct {
	bones   [JointCount]*BoneBinding
	missing []*MissingBindingError
}

// Get returns the binding for joint j.
func (b *Bindings) Get(j Joint) (*BoneBinding, bool) {
	if b == nil || !j.Valid() {
		return nil, false
	}
	bb := b.bones[j]
	return bb, bb != nil
}

// Count returns the number of bound joints.
func (b *Bindings) Count() int {
	if b == nil {
		return 0
	}
	n := 0
	for _, bb := range b.bones {
		if bb != nil {
			n++
		}
	}
	return n
}

// Missing returns the bind errors for joints that were skipped.
func (b *Bindings) Missing() []*MissingBindingError {
	if b == nil {
		return nil
	}
	return b.missing
}

// Each calls fn for every bound joint in index order.
func (b *Bindings) Each(fn func(*BoneBinding)) {
	if b == nil {
		return
	}
	for _, bb := range b.bones {
		if bb != nil {
			fn(bb)
		}
	}
}

// Binder records the avatar's bind pose once at startup.
// Rebinding while tracking is live is not supported.
type Binder struct {
	logger *slog.Logger
}

// NewBinder creates a Binder.
func NewBinder() *Binder {
	return &Binder{logger: log.Component("skeleton")}
}

// Bind records the current world rotation of each bone as its bind rotation.
// bones is indexed by joint. Nil entries are logged once and skipped.
func (b *Binder) Bind(bones []Bone) *Bindings {
	out := &Bindings{}

	if len(bones) > JointCount {
		b.logger.Warn("extra bones ignored", "bones", len(bones), "joints", JointCount)
		bones = bones[:JointCount]
	}

	for i := 0; i < JointCount; i++ {
		j := Joint(i)
		if i >= len(bones) || bones[i] == nil {
			err := &MissingBindingError{Joint: j}
			out.missing = append(out.missing, err)
			b.logger.Warn("retargeting disabled for joint", "joint", j.String(), "err", err)
			continue
		}
		out.bones[i] = &BoneBinding{
			Index:        j,
			BindRotation: bones[i].WorldRotation(),
			Target:       bones[i],
		}
	}

	b.logger.Info("skeleton bound", "bound", out.Count(), "missing", len(out.missing))
	return out
}
