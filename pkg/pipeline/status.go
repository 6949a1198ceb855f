package pipeline

import (
	"github.com/teslashibe/go-dancepad/pkg/dancepad"
	"github.com/teslashibe/go-dancepad/pkg/protocol"
)

// Status is a snapshot of the session for the dashboard.
type Status struct {
	Enabled      bool           `json:"enabled"`
	AvatarLoaded bool           `json:"avatar_loaded"`
	Frame        uint64         `json:"frame"`
	Score        int            `json:"score"`
	PlayerHeight float64        `json:"player_height"`
	ScaleFactor  float64        `json:"scale_factor"`
	OriginY      float64        `json:"origin_y"`
	Sensitivity  float64        `json:"sensitivity"`
	EffectMode   string         `json:"effect_mode"`
	SessionID    string         `json:"session_id,omitempty"`
	Stats        dancepad.Stats `json:"stats"`
}

// Status returns the current session snapshot.
func (p *Pipeline) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Status{
		Enabled:      p.enabled,
		AvatarLoaded: p.bindings != nil,
		Frame:        p.frame,
		Score:        p.score.Value(),
		PlayerHeight: p.config.PlayerHeight,
		ScaleFactor:  p.scale.ScaleFactor,
		OriginY:      p.origin.OriginY(),
		Sensitivity:  p.config.Engine.Sensitivity,
		EffectMode:   p.config.Engine.StepEffects.String(),
		SessionID:    p.sessionID,
		Stats:        p.engine.Stats(),
	}
}

// StateData converts the snapshot to its wire form.
func (s Status) StateData() protocol.StateData {
	return protocol.StateData{
		Enabled:     s.Enabled,
		Frame:       s.Frame,
		Score:       s.Score,
		ScaleFactor: s.ScaleFactor,
		OriginY:     s.OriginY,
		SessionID:   s.SessionID,
	}
}

// Holes returns the status of every hole.
func (p *Pipeline) Holes() []dancepad.HoleStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.engine.Status()
}

// Activate pops a target up in hole id, bypassing the scheduler.
func (p *Pipeline) Activate(id int, t dancepad.Target) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.engine.Activate(id, t)
}

// Frame returns the number of frames processed.
func (p *Pipeline) Frame() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.frame
}
