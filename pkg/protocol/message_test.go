package protocol

import (
	"encoding/json"
	"testing"
	"time"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/teslashibe/go-dancepad/pkg/skeleton"
)

func TestNewMessage(t *testing.T) {
	tests := []struct {
		name    string
		msgType MessageType
		data    interface{}
		wantErr bool
	}{
		{
			name:    "frame message",
			msgType: TypeFrame,
			data:    FrameData{Status: StatusOK},
			wantErr: false,
		},
		{
			name:    "trigger message",
			msgType: TypeTrigger,
			data:    TriggerData{Hole: 2, Delta: 10, Kickable: true},
			wantErr: false,
		},
		{
			name:    "nil data",
			msgType: TypePing,
			data:    nil,
			wantErr: false,
		},
		{
			name:    "unmarshalable data",
			msgType: TypeState,
			data:    make(chan int),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := NewMessage(tt.msgType, tt.data)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewMessage() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr {
				return
			}
			if msg.Type != tt.msgType {
				t.Errorf("NewMessage() type = %v, want %v", msg.Type, tt.msgType)
			}
			if msg.Timestamp == 0 {
				t.Error("NewMessage() timestamp should be set")
			}
		})
	}
}

func TestFrameMessage(t *testing.T) {
	samples := skeleton.NeutralFrame()
	samples[skeleton.LeftFoot].Position = r3.Vec{X: -0.1, Y: 0.08, Z: 0.02}
	samples[skeleton.LeftFoot].ContactMask = skeleton.ContactGround
	samples[skeleton.LeftFoot].Confidence = 720
	samples[skeleton.Spine].Rotation = skeleton.AxisAngle(r3.Vec{Y: 1}, 0.5)

	msg, err := NewFrameMessage(123456, samples)
	if err != nil {
		t.Fatalf("NewFrameMessage() error = %v", err)
	}
	raw, err := msg.Bytes()
	if err != nil {
		t.Fatalf("Bytes() error = %v", err)
	}

	parsed, err := ParseMessage(raw)
	if err != nil {
		t.Fatalf("ParseMessage() error = %v", err)
	}
	if parsed.Type != TypeFrame {
		t.Fatalf("Type = %v, want %v", parsed.Type, TypeFrame)
	}
	frame, err := parsed.GetFrameData()
	if err != nil {
		t.Fatalf("GetFrameData() error = %v", err)
	}
	if !frame.OK() || frame.DisplayTime != 123456 {
		t.Errorf("frame = %+v", frame)
	}

	got := frame.Samples()
	if len(got) != skeleton.JointCount {
		t.Fatalf("len(samples) = %d, want %d", len(got), skeleton.JointCount)
	}
	foot := got[skeleton.LeftFoot]
	if foot.Position != samples[skeleton.LeftFoot].Position {
		t.Errorf("foot position = %v", foot.Position)
	}
	if foot.ContactMask != skeleton.ContactGround || foot.Confidence != 720 {
		t.Errorf("foot contact = %d/%d", foot.ContactMask, foot.Confidence)
	}
	if !skeleton.ApproxEqual(got[skeleton.Spine].Rotation, samples[skeleton.Spine].Rotation, 1e-12) {
		t.Errorf("spine rotation = %v", got[skeleton.Spine].Rotation)
	}
}

func TestFrameFromSamples_Empty(t *testing.T) {
	f := FrameFromSamples(1, nil)
	if f.OK() || f.Status != StatusNoData {
		t.Errorf("status = %q, want %q", f.Status, StatusNoData)
	}
}

func TestSamples_ZeroRotationIsIdentity(t *testing.T) {
	f := FrameData{Status: StatusOK, Joints: []JointData{{Index: 3}}}
	s := f.Samples()
	if s[0].Rotation != skeleton.Identity() {
		t.Errorf("rotation = %v, want identity", s[0].Rotation)
	}
}

func TestBoneLengthsMessage(t *testing.T) {
	msg, err := NewBoneLengthsMessage([]float64{0.18, 0.44})
	if err != nil {
		t.Fatalf("NewBoneLengthsMessage() error = %v", err)
	}
	data, err := msg.GetBoneLengths()
	if err != nil {
		t.Fatalf("GetBoneLengths() error = %v", err)
	}
	if len(data.Lengths) != 2 || data.Lengths[1] != 0.44 {
		t.Errorf("Lengths = %v", data.Lengths)
	}

	ack, _ := NewBoneLengthAckMessage(3)
	ackData, err := ack.GetBoneLengthAck()
	if err != nil {
		t.Fatalf("GetBoneLengthAck() error = %v", err)
	}
	if ackData.Code != 3 {
		t.Errorf("Code = %d, want 3", ackData.Code)
	}
}

func TestConfigMessage(t *testing.T) {
	sens := 0.45
	mode := "toe"
	msg, err := NewConfigMessage(ConfigUpdate{Sensitivity: &sens, EffectMode: &mode})
	if err != nil {
		t.Fatalf("NewConfigMessage() error = %v", err)
	}

	update, err := msg.GetConfigUpdate()
	if err != nil {
		t.Fatalf("GetConfigUpdate() error = %v", err)
	}
	if update.Sensitivity == nil || *update.Sensitivity != 0.45 {
		t.Errorf("Sensitivity = %v", update.Sensitivity)
	}
	if update.EffectMode == nil || *update.EffectMode != "toe" {
		t.Errorf("EffectMode = %v", update.EffectMode)
	}
	if update.Enabled != nil || update.PlayerHeight != nil {
		t.Error("unset fields should stay nil")
	}
}

func TestPingPongMessage(t *testing.T) {
	pingMsg, err := NewPingMessage("test-123")
	if err != nil {
		t.Fatalf("NewPingMessage() error = %v", err)
	}

	pingData, err := pingMsg.GetPingData()
	if err != nil {
		t.Fatalf("GetPingData() error = %v", err)
	}
	if pingData.ID != "test-123" {
		t.Errorf("ID = %v, want test-123", pingData.ID)
	}

	now := time.Now().UnixMilli()
	pongMsg, err := NewPongMessage("test-123", pingMsg.Timestamp, now)
	if err != nil {
		t.Fatalf("NewPongMessage() error = %v", err)
	}

	pongData, err := pongMsg.GetPongData()
	if err != nil {
		t.Fatalf("GetPongData() error = %v", err)
	}
	if pongData.LatencyMs < 0 {
		t.Errorf("LatencyMs = %v, should be >= 0", pongData.LatencyMs)
	}
}

func TestStateAndTriggerMessages(t *testing.T) {
	msg, err := NewStateMessage(StateData{Enabled: true, Frame: 9, Score: 40})
	if err != nil {
		t.Fatalf("NewStateMessage() error = %v", err)
	}
	state, err := msg.GetStateData()
	if err != nil {
		t.Fatalf("GetStateData() error = %v", err)
	}
	if !state.Enabled || state.Frame != 9 || state.Score != 40 {
		t.Errorf("state = %+v", state)
	}

	msg, _ = NewTriggerMessage(4, "right_toe", 0, false, "firm")
	trig, err := msg.GetTriggerData()
	if err != nil {
		t.Fatalf("GetTriggerData() error = %v", err)
	}
	if trig.Hole != 4 || trig.Joint != "right_toe" || trig.Kickable || trig.Level != "firm" {
		t.Errorf("trigger = %+v", trig)
	}
}

func TestParseInvalidMessage(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{
			name:    "invalid json",
			input:   "not json",
			wantErr: true,
		},
		{
			name:    "empty json",
			input:   "{}",
			wantErr: false, // Empty is valid, just no type
		},
		{
			name:    "valid message",
			input:   `{"type":"ping","ts":1234567890}`,
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseMessage([]byte(tt.input))
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseMessage() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestMessageJSON(t *testing.T) {
	msg, _ := NewStepMessage("left", "heel", 0.8, 12)

	bytes, _ := msg.Bytes()

	var parsed map[string]interface{}
	if err := json.Unmarshal(bytes, &parsed); err != nil {
		t.Fatalf("Failed to unmarshal as map: %v", err)
	}

	if parsed["type"] != "step" {
		t.Errorf("type = %v, want step", parsed["type"])
	}
	if _, ok := parsed["ts"]; !ok {
		t.Error("ts field should be present")
	}
	data, ok := parsed["data"].(map[string]interface{})
	if !ok {
		t.Fatal("data field should be an object")
	}
	if data["part"] != "heel" {
		t.Errorf("data.part = %v, want heel", data["part"])
	}
}

func BenchmarkNewFrameMessage(b *testing.B) {
	samples := skeleton.NeutralFrame()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		NewFrameMessage(int64(i), samples)
	}
}

func BenchmarkParseMessage(b *testing.B) {
	msg, _ := NewFrameMessage(1, skeleton.NeutralFrame())
	bytes, _ := msg.Bytes()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ParseMessage(bytes)
	}
}
