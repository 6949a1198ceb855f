// Package ground shifts the play-space origin so the avatar's lower foot
// rests at the configured sole height.
package ground

import (
	"errors"
	"log/slog"
	"math"
	"sync"

	"github.com/teslashibe/go-dancepad/internal/log"
)

// DefaultSoleHeight is the distance from the tracked ankle point to the
// floor, in meters.
const DefaultSoleHeight = 0.08

// ErrNoAvatar is returned when alignment runs with no avatar attached.
var ErrNoAvatar = errors.New("ground: no avatar loaded")

// Origin is the play-space/rig origin the aligner moves vertically.
type Origin interface {
	OriginY() float64
	SetOriginY(y float64)
}

// PlaySpace is an in-memory Origin.
type PlaySpace struct {
	mu sync.RWMutex
	y  float64
}

// OriginY implements Origin.
func (p *PlaySpace) OriginY() float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.y
}

// SetOriginY implements Origin.
func (p *PlaySpace) SetOriginY(y float64) {
	p.mu.Lock()
	p.y = y
	p.mu.Unlock()
}

// Offset computes the origin height that puts the lower foot's sole at
// soleHeight. It uses the absolute foot heights, so repeated calls with
// steady readings converge instead of accumulating.
func Offset(previousOriginY, leftFootY, rightFootY, soleHeight float64) float64 {
	return previousOriginY - (math.Min(leftFootY, rightFootY) - soleHeight)
}

// Aligner applies Offset to an attached origin.
type Aligner struct {
	logger *slog.Logger

	mu     sync.Mutex
	origin Origin
}

// NewAligner creates an Aligner with no avatar attached.
func NewAligner() *Aligner {
	return &Aligner{logger: log.Component("ground")}
}

// Attach sets the origin of the loaded avatar.
func (a *Aligner) Attach(origin Origin) {
	a.mu.Lock()
	a.origin = origin
	a.mu.Unlock()
}

// Detach clears the avatar. Later alignments return ErrNoAvatar.
func (a *Aligner) Detach() {
	a.Attach(nil)
}

// AlignGround moves the origin so the lower foot sits at soleHeight and
// returns the new origin height. With no avatar it logs and returns
// ErrNoAvatar; callers treat that as non-fatal.
func (a *Aligner) AlignGround(leftFootWorldY, rightFootWorldY, soleHeight float64) (float64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.origin == nil {
		a.logger.Error("ground alignment skipped", "err", ErrNoAvatar)
		return 0, ErrNoAvatar
	}

	prev := a.origin.OriginY()
	offset := Offset(prev, leftFootWorldY, rightFootWorldY, soleHeight)
	a.origin.SetOriginY(offset)

	a.logger.Info("ground aligned",
		"origin_y", offset,
		"correction", offset-prev,
		"left_y", leftFootWorldY,
		"right_y", rightFootWorldY)
	return offset, nil
}
