package tracker

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/teslashibe/go-dancepad/pkg/protocol"
	"github.com/teslashibe/go-dancepad/pkg/skeleton"
)

// Replay plays back a recording of protocol.FrameData values, one JSON
// object per line. Each call returns the next frame regardless of the
// requested display time.
type Replay struct {
	mu     sync.Mutex
	frames []protocol.FrameData
	next   int
	loop   bool
}

// NewReplay reads every frame from r.
func NewReplay(r io.Reader, loop bool) (*Replay, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)

	var frames []protocol.FrameData
	line := 0
	for sc.Scan() {
		line++
		if len(sc.Bytes()) == 0 {
			continue
		}
		var f protocol.FrameData
		if err := json.Unmarshal(sc.Bytes(), &f); err != nil {
			return nil, fmt.Errorf("tracker: replay line %d: %w", line, err)
		}
		frames = append(frames, f)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("tracker: replay read: %w", err)
	}
	return &Replay{frames: frames, loop: loop}, nil
}

// OpenReplay loads a recording from a file.
func OpenReplay(path string, loop bool) (*Replay, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("tracker: open replay: %w", err)
	}
	defer f.Close()
	return NewReplay(f, loop)
}

// Len returns the number of recorded frames.
func (r *Replay) Len() int {
	return len(r.frames)
}

// GetSamples returns the next recorded frame. Frames recorded without data
// and the end of a non-looping recording report StatusNoData.
func (r *Replay) GetSamples(int64) (Status, []skeleton.JointSample) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.next >= len(r.frames) {
		if !r.loop || len(r.frames) == 0 {
			return StatusNoData, nil
		}
		r.next = 0
	}
	f := r.frames[r.next]
	r.next++

	if !f.OK() {
		return StatusNoData, nil
	}
	return StatusOK, f.Samples()
}

// Recorder writes frames in the format Replay reads.
type Recorder struct {
	mu  sync.Mutex
	enc *json.Encoder
}

// NewRecorder creates a Recorder writing to w.
func NewRecorder(w io.Writer) *Recorder {
	return &Recorder{enc: json.NewEncoder(w)}
}

// Record appends one frame.
func (r *Recorder) Record(displayTime int64, samples []skeleton.JointSample) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.enc.Encode(protocol.FrameFromSamples(displayTime, samples))
}
