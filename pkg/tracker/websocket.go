package tracker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/teslashibe/go-dancepad/internal/log"
	"github.com/teslashibe/go-dancepad/pkg/calibrate"
	"github.com/teslashibe/go-dancepad/pkg/protocol"
	"github.com/teslashibe/go-dancepad/pkg/skeleton"
)

// Bone-length push result codes reported by WSSource besides the
// tracker's own codes.
// writeWait bounds a single write to the tracker.
const writeWait = time.Second

const (
	CodeNotConnected = -1
	CodeSendFailed   = -2
	CodeTimeout      = -3
)

// WSSource receives frames from an external tracker over WebSocket.
type WSSource struct {
	url        string
	ackTimeout time.Duration

	ws   *websocket.Conn
	wsMu sync.Mutex // serializes writes

	mu       sync.Mutex
	latest   []skeleton.JointSample
	fresh    bool
	received uint64
	closed   bool
	acks     chan int

	done   chan struct{}
	logger *slog.Logger
}

// DialWS connects to the tracker at url and starts reading frames.
func DialWS(ctx context.Context, url string) (*WSSource, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}
	ws, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("tracker: dial %s: %w", url, err)
	}

	s := &WSSource{
		url:        url,
		ackTimeout: time.Second,
		ws:         ws,
		acks:       make(chan int, 1),
		done:       make(chan struct{}),
		logger:     log.Component("tracker").With("url", url),
	}
	go s.readLoop()
	s.logger.Info("tracker connected")
	return s, nil
}

func (s *WSSource) readLoop() {
	defer close(s.done)
	for {
		_, data, err := s.ws.ReadMessage()
		if err != nil {
			s.mu.Lock()
			closed := s.closed
			s.closed = true
			s.mu.Unlock()
			if !closed {
				s.logger.Warn("tracker read failed", "error", err)
			}
			return
		}
		s.handle(data)
	}
}

func (s *WSSource) handle(data []byte) {
	msg, err := protocol.ParseMessage(data)
	if err != nil {
		s.logger.Debug("bad tracker message", "error", err)
		return
	}

	switch msg.Type {
	case protocol.TypeFrame:
		frame, err := msg.GetFrameData()
		if err != nil {
			s.logger.Debug("bad frame", "error", err)
			return
		}
		if !frame.OK() {
			return
		}
		samples := frame.Samples()
		s.mu.Lock()
		s.latest = samples
		s.fresh = true
		s.received++
		s.mu.Unlock()

	case protocol.TypeBoneLengthAck:
		ack, err := msg.GetBoneLengthAck()
		if err != nil {
			return
		}
		select {
		case s.acks <- ack.Code:
		default:
		}

	case protocol.TypePing:
		ping, err := msg.GetPingData()
		if err != nil {
			return
		}
		pong, err := protocol.NewPongMessage(ping.ID, msg.Timestamp, time.Now().UnixMilli())
		if err == nil {
			s.send(pong)
		}
	}
}

func (s *WSSource) send(msg *protocol.Message) error {
	data, err := msg.Bytes()
	if err != nil {
		return err
	}
	s.wsMu.Lock()
	defer s.wsMu.Unlock()
	s.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return s.ws.WriteMessage(websocket.TextMessage, data)
}

// GetSamples returns the newest frame received since the last call, or
// StatusNoData if none arrived.
func (s *WSSource) GetSamples(int64) (Status, []skeleton.JointSample) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.fresh {
		return StatusNoData, nil
	}
	s.fresh = false
	return StatusOK, s.latest
}

// SetBoneLengths pushes calibrated bone lengths and waits for the tracker
// to acknowledge them. It returns the tracker's code, or one of the Code
// constants when the push could not complete.
func (s *WSSource) SetBoneLengths(lengths [calibrate.BoneCount]float64) int {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return CodeNotConnected
	}

	// Drop a stale ack from an earlier timed-out push.
	select {
	case <-s.acks:
	default:
	}

	msg, err := protocol.NewBoneLengthsMessage(lengths[:])
	if err != nil {
		return CodeSendFailed
	}
	if err := s.send(msg); err != nil {
		s.logger.Warn("bone length push failed", "error", err)
		return CodeSendFailed
	}

	select {
	case code := <-s.acks:
		return code
	case <-s.done:
		return CodeNotConnected
	case <-time.After(s.ackTimeout):
		return CodeTimeout
	}
}

// Received returns the number of frames received.
func (s *WSSource) Received() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.received
}

// Close closes the connection and waits for the reader to stop.
func (s *WSSource) Close() error {
	s.mu.Lock()
	wasClosed := s.closed
	s.closed = true
	s.mu.Unlock()

	if !wasClosed {
		s.wsMu.Lock()
		s.ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		s.wsMu.Unlock()
	}

	err := s.ws.Close()
	<-s.done
	return err
}
