package protocol

import (
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/teslashibe/go-dancepad/pkg/skeleton"
)

// =============================================================================
// Conversions between wire and domain types
// =============================================================================

// FrameFromSamples encodes a frame of samples.
func FrameFromSamples(displayTime int64, samples []skeleton.JointSample) FrameData {
	f := FrameData{Status: StatusOK, DisplayTime: displayTime}
	if len(samples) == 0 {
		f.Status = StatusNoData
		return f
	}
	f.Joints = make([]JointData, len(samples))
	for i, s := range samples {
		f.Joints[i] = JointData{
			Index:      s.Index,
			Position:   [3]float64{s.Position.X, s.Position.Y, s.Position.Z},
			Rotation:   [4]float64{s.Rotation.Real, s.Rotation.Imag, s.Rotation.Jmag, s.Rotation.Kmag},
			Contact:    s.ContactMask,
			Confidence: s.Confidence,
		}
	}
	return f
}

// Samples decodes the frame's joints. An all-zero rotation decodes as the
// identity.
func (f *FrameData) Samples() []skeleton.JointSample {
	out := make([]skeleton.JointSample, len(f.Joints))
	for i, j := range f.Joints {
		rot := quat.Number{Real: j.Rotation[0], Imag: j.Rotation[1], Jmag: j.Rotation[2], Kmag: j.Rotation[3]}
		if rot == (quat.Number{}) {
			rot = skeleton.Identity()
		}
		out[i] = skeleton.JointSample{
			Index:       j.Index,
			Position:    r3.Vec{X: j.Position[0], Y: j.Position[1], Z: j.Position[2]},
			Rotation:    rot,
			ContactMask: j.Contact,
			Confidence:  j.Confidence,
		}
	}
	return out
}

// OK reports whether the frame carries data.
func (f *FrameData) OK() bool {
	return f.Status == StatusOK
}

// =============================================================================
// Helper functions for creating messages
// =============================================================================

// NewFrameMessage creates a frame message from samples
func NewFrameMessage(displayTime int64, samples []skeleton.JointSample) (*Message, error) {
	return NewMessage(TypeFrame, FrameFromSamples(displayTime, samples))
}

// NewBoneLengthsMessage creates a bone-length push
func NewBoneLengthsMessage(lengths []float64) (*Message, error) {
	return NewMessage(TypeBoneLengths, BoneLengthsData{Lengths: lengths})
}

// NewBoneLengthAckMessage creates a bone-length push result
func NewBoneLengthAckMessage(code int) (*Message, error) {
	return NewMessage(TypeBoneLengthAck, BoneLengthAckData{Code: code})
}

// NewStateMessage creates a state message
func NewStateMessage(state StateData) (*Message, error) {
	return NewMessage(TypeState, state)
}

// NewTriggerMessage creates a trigger message
func NewTriggerMessage(hole int, joint string, delta int, kickable bool, level string) (*Message, error) {
	return NewMessage(TypeTrigger, TriggerData{
		Hole:     hole,
		Joint:    joint,
		Delta:    delta,
		Kickable: kickable,
		Level:    level,
	})
}

// NewStepMessage creates a step message
func NewStepMessage(side, part string, strength float64, frame uint64) (*Message, error) {
	return NewMessage(TypeStep, StepData{
		Side:     side,
		Part:     part,
		Strength: strength,
		Frame:    frame,
	})
}

// NewScoreMessage creates a score message
func NewScoreMessage(score, delta int) (*Message, error) {
	return NewMessage(TypeScore, ScoreData{Score: score, Delta: delta})
}

// NewConfigMessage creates a configuration update message
func NewConfigMessage(update ConfigUpdate) (*Message, error) {
	return NewMessage(TypeConfig, update)
}

// NewPingMessage creates a ping message
func NewPingMessage(id string) (*Message, error) {
	return NewMessage(TypePing, PingData{
		ID:        id,
		Timestamp: 0, // Will be set by NewMessage
	})
}

// NewPongMessage creates a pong response message
func NewPongMessage(id string, pingTS, pongTS int64) (*Message, error) {
	return NewMessage(TypePong, PongData{
		ID:        id,
		PingTS:    pingTS,
		PongTS:    pongTS,
		LatencyMs: pongTS - pingTS,
	})
}

// =============================================================================
// Helper functions for parsing messages
// =============================================================================

// GetFrameData extracts frame data from a message
func (m *Message) GetFrameData() (*FrameData, error) {
	var data FrameData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetBoneLengths extracts a bone-length push from a message
func (m *Message) GetBoneLengths() (*BoneLengthsData, error) {
	var data BoneLengthsData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetBoneLengthAck extracts a bone-length push result from a message
func (m *Message) GetBoneLengthAck() (*BoneLengthAckData, error) {
	var data BoneLengthAckData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetStateData extracts state data from a message
func (m *Message) GetStateData() (*StateData, error) {
	var data StateData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetTriggerData extracts trigger data from a message
func (m *Message) GetTriggerData() (*TriggerData, error) {
	var data TriggerData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetConfigUpdate extracts config update from a message
func (m *Message) GetConfigUpdate() (*ConfigUpdate, error) {
	var data ConfigUpdate
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetPingData extracts ping data from a message
func (m *Message) GetPingData() (*PingData, error) {
	var data PingData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetPongData extracts pong data from a message
func (m *Message) GetPongData() (*PongData, error) {
	var data PongData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}
