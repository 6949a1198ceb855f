package effects

import (
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/gopxl/beep"
	fx "github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/generators"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/teslashibe/go-dancepad/internal/log"
	"github.com/teslashibe/go-dancepad/pkg/pool"
)

// SampleRate is the output sample rate of the audio sink.
const SampleRate = beep.SampleRate(44100)

var format = beep.Format{SampleRate: SampleRate, NumChannels: 2, Precision: 2}

// Tone describes a pre-rendered sound as a sequence of sine notes.
type Tone struct {
	Notes    []float64 // frequencies in Hz, played back to back
	Note     time.Duration
	Volume   float64 // linear gain, 1 is unity
	Capacity int     // concurrent voices
}

// AudioConfig maps sound kinds to tones.
type AudioConfig struct {
	Tones map[pool.Kind]Tone

	// PanWidth is the world x distance, in meters, mapped to a full pan.
	PanWidth float64
}

type voice struct {
	kind pool.Kind
	pan  float64
}

// AudioSink plays pooled sound effects through a beep mixer. The sink is
// itself a beep.Streamer, so any output device can stream from it; Advance
// drains it headlessly. It is safe for concurrent use.
type AudioSink struct {
	mu       sync.Mutex
	buffers  map[pool.Kind]*beep.Buffer
	volumes  map[pool.Kind]float64
	voices   *pool.Pool[voice]
	mixer    *beep.Mixer
	finished []pool.Handle
	panWidth float64
	played   int
	dropped  int
	scratch  [][2]float64
	logger   *slog.Logger
}

// NewAudioSink renders every tone into a buffer.
func NewAudioSink(cfg AudioConfig) (*AudioSink, error) {
	a := &AudioSink{
		buffers:  make(map[pool.Kind]*beep.Buffer, len(cfg.Tones)),
		volumes:  make(map[pool.Kind]float64, len(cfg.Tones)),
		voices:   pool.New[voice](nil),
		mixer:    &beep.Mixer{},
		panWidth: cfg.PanWidth,
		logger:   log.Component("audio"),
	}
	if a.panWidth <= 0 {
		a.panWidth = 1
	}

	for kind, tone := range cfg.Tones {
		buf, err := render(tone)
		if err != nil {
			return nil, fmt.Errorf("effects: render %q: %w", kind, err)
		}
		a.buffers[kind] = buf
		a.volumes[kind] = tone.Volume
		a.voices.Register(kind, tone.Capacity)
	}
	return a, nil
}

func render(t Tone) (*beep.Buffer, error) {
	buf := beep.NewBuffer(format)
	n := SampleRate.N(t.Note)
	for _, freq := range t.Notes {
		sine, err := generators.SineTone(SampleRate, freq)
		if err != nil {
			return nil, err
		}
		buf.Append(beep.Take(n, sine))
	}
	return buf, nil
}

// Pan maps a world x coordinate to a stereo pan in [-1, 1].
func (a *AudioSink) Pan(x float64) float64 {
	return math.Max(-1, math.Min(1, x/a.panWidth))
}

// PlaySound starts a voice of kind panned by position. When no voice is
// free the sound is dropped.
func (a *AudioSink) PlaySound(kind pool.Kind, position r3.Vec) {
	a.mu.Lock()
	defer a.mu.Unlock()

	buf, ok := a.buffers[kind]
	if !ok {
		a.dropped++
		a.logger.Warn("unknown sound", "kind", kind)
		return
	}

	h, v, err := a.voices.Acquire(kind)
	if err != nil {
		a.dropped++
		a.logger.Debug("sound dropped", "kind", kind, "error", err)
		return
	}
	v.kind = kind
	v.pan = a.Pan(position.X)

	var s beep.Streamer = buf.Streamer(0, buf.Len())
	s = newVolume(s, a.volumes[kind])
	s = &fx.Pan{Streamer: s, Pan: v.pan}
	a.mixer.Add(beep.Seq(s, beep.Callback(func() {
		// Runs inside Stream, which holds mu.
		a.finished = append(a.finished, h)
	})))
	a.played++
}

func newVolume(s beep.Streamer, vol float64) beep.Streamer {
	if vol <= 0 {
		return &fx.Volume{Streamer: s, Base: 2, Silent: true}
	}
	return &fx.Volume{Streamer: s, Base: 2, Volume: math.Log2(vol)}
}

// Stream mixes the playing voices into samples.
func (a *AudioSink) Stream(samples [][2]float64) (int, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stream(samples)
}

func (a *AudioSink) stream(samples [][2]float64) (int, bool) {
	n, ok := a.mixer.Stream(samples)
	for _, h := range a.finished {
		if err := a.voices.Release(h); err != nil {
			a.logger.Warn("voice release failed", "handle", h.String(), "error", err)
		}
	}
	a.finished = a.finished[:0]
	return n, ok
}

// Err always returns nil.
func (a *AudioSink) Err() error { return nil }

// Advance drains dt worth of audio without an output device, so voices
// finish and return to the pool on the session clock.
func (a *AudioSink) Advance(dt time.Duration) {
	a.mu.Lock()
	defer a.mu.Unlock()

	n := SampleRate.N(dt)
	if cap(a.scratch) < n {
		a.scratch = make([][2]float64, n)
	}
	buf := a.scratch[:n]
	for len(buf) > 0 {
		chunk := min(len(buf), 512)
		a.stream(buf[:chunk])
		buf = buf[chunk:]
	}
}

// Playing returns the number of voices in use.
func (a *AudioSink) Playing() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	n := 0
	for kind := range a.buffers {
		n += a.voices.Stats(kind).Active
	}
	return n
}

// Counts returns the number of sounds played and dropped so far.
func (a *AudioSink) Counts() (played, dropped int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.played, a.dropped
}

// Voices returns voice pool usage for one kind.
func (a *AudioSink) Voices(kind pool.Kind) pool.Stats {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.voices.Stats(kind)
}
