// Package protocol defines the WebSocket message types exchanged with the
// body tracker and the dashboard.
package protocol

import (
	"encoding/json"
	"fmt"
	"time"
)

// MessageType identifies the type of WebSocket message
type MessageType string

const (
	// Tracker → Pad messages
	TypeFrame         MessageType = "frame"          // One frame of joint samples
	TypeBoneLengthAck MessageType = "bone_lengths_ok" // Result of a bone-length push

	// Pad → Tracker messages
	TypeBoneLengths MessageType = "bone_lengths" // Calibrated bone lengths

	// Pad → Dashboard messages
	TypeState   MessageType = "state"   // Session state snapshot
	TypeTrigger MessageType = "trigger" // A hole fired
	TypeStep    MessageType = "step"    // A foot strike
	TypeScore   MessageType = "score"   // Score changed

	// Dashboard → Pad messages
	TypeConfig MessageType = "config" // Configuration update

	// Bidirectional
	TypePing MessageType = "ping" // Health check
	TypePong MessageType = "pong" // Health check response
)

// Message is the base wrapper for all WebSocket messages
type Message struct {
	Type      MessageType     `json:"type"`
	Timestamp int64           `json:"ts,omitempty"` // Unix milliseconds
	Data      json.RawMessage `json:"data,omitempty"`
}

// NewMessage creates a new message with the current timestamp
func NewMessage(msgType MessageType, data interface{}) (*Message, error) {
	var rawData json.RawMessage
	if data != nil {
		var err error
		rawData, err = json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal message data: %w", err)
		}
	}

	return &Message{
		Type:      msgType,
		Timestamp: time.Now().UnixMilli(),
		Data:      rawData,
	}, nil
}

// ParseData unmarshals the message data into the provided struct
func (m *Message) ParseData(v interface{}) error {
	if m.Data == nil {
		return nil
	}
	return json.Unmarshal(m.Data, v)
}

// Bytes returns the JSON-encoded message
func (m *Message) Bytes() ([]byte, error) {
	return json.Marshal(m)
}

// ParseMessage parses a JSON message from bytes
func ParseMessage(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to parse message: %w", err)
	}
	return &msg, nil
}

// =============================================================================
// Tracker Message Types
// =============================================================================

// Frame status values reported by the tracker.
const (
	StatusOK     = "ok"
	StatusNoData = "no_data"
)

// FrameData is one tracker frame.
type FrameData struct {
	Status      string      `json:"status"`
	DisplayTime int64       `json:"display_time"` // tracker clock, nanoseconds
	Joints      []JointData `json:"joints,omitempty"`
}

// JointData is one joint sample on the wire.
type JointData struct {
	Index      int        `json:"i"`
	Position   [3]float64 `json:"p"` // x, y, z in meters
	Rotation   [4]float64 `json:"r"` // w, x, y, z
	Contact    int        `json:"c,omitempty"`
	Confidence int        `json:"conf,omitempty"` // per-mille
}

// BoneLengthsData carries calibrated bone lengths to the tracker.
type BoneLengthsData struct {
	Lengths []float64 `json:"lengths"` // meters, tracker slot order
}

// BoneLengthAckData is the tracker's answer to a bone-length push.
type BoneLengthAckData struct {
	Code int `json:"code"` // zero on success
}

// =============================================================================
// Dashboard Message Types
// =============================================================================

// StateData is a session snapshot.
type StateData struct {
	Enabled     bool    `json:"enabled"`
	Frame       uint64  `json:"frame"`
	Score       int     `json:"score"`
	ScaleFactor float64 `json:"scale_factor"`
	OriginY     float64 `json:"origin_y"`
	SessionID   string  `json:"session_id,omitempty"`
}

// TriggerData reports a hole firing.
type TriggerData struct {
	Hole     int    `json:"hole"`
	Joint    string `json:"joint"`
	Delta    int    `json:"delta"`
	Kickable bool   `json:"kickable"`
	Level    string `json:"level"`
}

// StepData reports a foot strike.
type StepData struct {
	Side     string  `json:"side"`
	Part     string  `json:"part"`
	Strength float64 `json:"strength"`
	Frame    uint64  `json:"frame"`
}

// ScoreData reports the running score.
type ScoreData struct {
	Score int `json:"score"`
	Delta int `json:"delta"`
}

// ConfigUpdate contains configuration changes. Nil fields are unchanged.
type ConfigUpdate struct {
	Enabled      *bool    `json:"enabled,omitempty"`
	Sensitivity  *float64 `json:"sensitivity,omitempty"`
	EffectMode   *string  `json:"effect_mode,omitempty"`
	PlayerHeight *float64 `json:"player_height,omitempty"`
}

// =============================================================================
// Bidirectional Message Types
// =============================================================================

// PingData contains ping information
type PingData struct {
	ID        string `json:"id"`
	Timestamp int64  `json:"ts"`
}

// PongData contains pong response
type PongData struct {
	ID        string `json:"id"`
	PingTS    int64  `json:"ping_ts"`
	PongTS    int64  `json:"pong_ts"`
	LatencyMs int64  `json:"latency_ms"`
}
