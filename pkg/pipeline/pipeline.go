// Package pipeline runs one dance pad session: every tick it ingests a
// tracker frame, retargets it onto the avatar, detects foot strikes,
// evaluates the dance pad and flushes the effect and score sinks, always in
// that order.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/teslashibe/go-dancepad/internal/log"
	"github.com/teslashibe/go-dancepad/pkg/calibrate"
	"github.com/teslashibe/go-dancepad/pkg/dancepad"
	"github.com/teslashibe/go-dancepad/pkg/debug"
	"github.com/teslashibe/go-dancepad/pkg/ground"
	"github.com/teslashibe/go-dancepad/pkg/protocol"
	"github.com/teslashibe/go-dancepad/pkg/retarget"
	"github.com/teslashibe/go-dancepad/pkg/score"
	"github.com/teslashibe/go-dancepad/pkg/skeleton"
	"github.com/teslashibe/go-dancepad/pkg/step"
	"github.com/teslashibe/go-dancepad/pkg/tracker"
)

var (
	// ErrNoAvatar is returned by Tick before an avatar is loaded.
	ErrNoAvatar = errors.New("pipeline: no avatar loaded")

	// ErrNoSource is returned by New without a tracker source.
	ErrNoSource = errors.New("pipeline: no tracker source")

	// ErrInvalidConfig is returned for a rejected configuration update.
	ErrInvalidConfig = errors.New("pipeline: invalid config")
)

// Stage is one step of a tick.
type Stage int

const (
	StageIngest Stage = iota
	StageRetarget
	StageDetect
	StageTrigger
	StageSinks
)

// String returns the stage name.
func (s Stage) String() string {
	switch s {
	case StageIngest:
		return "ingest"
	case StageRetarget:
		return "retarget"
	case StageDetect:
		return "detect"
	case StageTrigger:
		return "trigger"
	case StageSinks:
		return "sinks"
	default:
		return "unknown"
	}
}

// Config holds session parameters.
type Config struct {
	Rate         time.Duration // tick interval for Run
	PlayerHeight float64       // centimeters
	SoleHeight   float64       // meters, ankle to floor
	Retarget     retarget.Config
	Engine       dancepad.Config
	Scheduler    dancepad.SchedulerConfig
	AutoSchedule bool // pop targets up automatically
}

// DefaultConfig returns a 90 Hz session for a reference-height player.
func DefaultConfig() Config {
	return Config{
		Rate:         11 * time.Millisecond,
		PlayerHeight: calibrate.DefaultHeight,
		SoleHeight:   ground.DefaultSoleHeight,
		Retarget:     retarget.DefaultConfig(),
		Engine:       dancepad.DefaultConfig(),
		Scheduler:    dancepad.DefaultSchedulerConfig(),
		AutoSchedule: true,
	}
}

// EffectSink spawns and ages visual effects.
type EffectSink interface {
	dancepad.EffectSpawner
	Update(dt time.Duration) int
}

// SoundSink plays sounds on the session clock.
type SoundSink interface {
	dancepad.SoundPlayer
	Advance(dt time.Duration)
}

// Deps are the pipeline's collaborators. Source is required; the rest
// are optional.
type Deps struct {
	Source tracker.Source

	// Calibration receives bone lengths. Defaults to Source when it
	// implements calibrate.BoneLengthSink.
	Calibration calibrate.BoneLengthSink

	Effects EffectSink
	Sounds  SoundSink
	Score   *score.Accumulator
	Store   *score.Store
	Origin  ground.Origin
	Holes   []*dancepad.Hole
}

// Report summarizes one tick.
type Report struct {
	Frame     uint64
	Enabled   bool
	Status    tracker.Status
	Stale     bool
	Events    []step.Event
	Triggers  []dancepad.Trigger
	Activated int // hole popped up this tick, or -1
	Contacts  []dancepad.FootContact
	Score     int
	OriginY   float64
	Aligned   bool
}

// Pipeline owns every per-frame component and runs them in order.
type Pipeline struct {
	config Config

	source     tracker.Source
	calibrator *calibrate.Calibrator
	binder     *skeleton.Binder
	retargeter *retarget.Retargeter
	aligner    *ground.Aligner
	origin     ground.Origin
	detector   *step.Detector
	engine     *dancepad.Engine
	scheduler  *dancepad.Scheduler
	effects    EffectSink
	sounds     SoundSink
	score      *score.Accumulator
	store      *score.Store

	mu           sync.Mutex
	enabled      bool
	pending      []protocol.ConfigUpdate
	bindings     *skeleton.Bindings
	scale        calibrate.AvatarScale
	alignPending bool
	samples      []skeleton.JointSample
	contacts     []dancepad.FootContact
	headAnchor   r3.Vec
	frame        uint64
	sessionID    string
	observer     func(Report)
	trace        func(Stage)

	logger     *slog.Logger
	errorCount uint64
}

// New wires a pipeline. The session starts enabled with no avatar.
func New(config Config, deps Deps) (*Pipeline, error) {
	if deps.Source == nil {
		return nil, ErrNoSource
	}

	sink := deps.Calibration
	if sink == nil {
		if s, ok := deps.Source.(calibrate.BoneLengthSink); ok {
			sink = s
		}
	}
	origin := deps.Origin
	if origin == nil {
		origin = &ground.PlaySpace{}
	}
	holes := deps.Holes
	if holes == nil {
		holes = dancepad.DefaultLayout()
	}
	acc := deps.Score
	if acc == nil {
		acc = score.NewAccumulator()
	}

	p := &Pipeline{
		config:     config,
		source:     deps.Source,
		calibrator: calibrate.NewCalibrator(sink),
		binder:     skeleton.NewBinder(),
		retargeter: retarget.New(config.Retarget),
		aligner:    ground.NewAligner(),
		origin:     origin,
		detector:   step.NewDetector(),
		effects:    deps.Effects,
		sounds:     deps.Sounds,
		score:      acc,
		store:      deps.Store,
		enabled:    true,
		scale:      calibrate.Unit(),
		logger:     log.Component("pipeline"),
	}

	sinks := dancepad.Sinks{Score: acc}
	if deps.Effects != nil {
		sinks.Effects = deps.Effects
	}
	if deps.Sounds != nil {
		sinks.Sounds = deps.Sounds
	}
	p.engine = dancepad.NewEngine(config.Engine, holes, sinks)
	p.scheduler = dancepad.NewScheduler(config.Scheduler, p.engine)
	return p, nil
}

// LoadAvatar binds the rig, attaches it to the play space, calibrates for
// the configured height and schedules a ground alignment. It returns the
// joints that could not be bound; those are skipped every frame.
func (p *Pipeline) LoadAvatar(bones []skeleton.Bone) []*skeleton.MissingBindingError {
	bindings := p.binder.Bind(bones)
	p.aligner.Attach(p.origin)

	p.mu.Lock()
	height := p.config.PlayerHeight
	p.mu.Unlock()
	scale := p.calibrator.Calibrate(height)

	p.mu.Lock()
	p.bindings = bindings
	p.scale = scale
	p.alignPending = true
	p.detector.Reset()
	p.mu.Unlock()

	p.logger.Info("avatar loaded", "bound", bindings.Count(), "missing", len(bindings.Missing()), "scale", scale.ScaleFactor)
	return bindings.Missing()
}

// UnloadAvatar detaches the avatar. Ticks return ErrNoAvatar until the
// next LoadAvatar.
func (p *Pipeline) UnloadAvatar() {
	p.aligner.Detach()
	p.mu.Lock()
	p.bindings = nil
	p.alignPending = false
	p.mu.Unlock()
}

// RequestGroundAlign aligns the floor on the next frame with both feet.
func (p *Pipeline) RequestGroundAlign() {
	p.mu.Lock()
	p.alignPending = true
	p.mu.Unlock()
}

// Apply validates a configuration update and queues it for the start of
// the next tick.
func (p *Pipeline) Apply(update protocol.ConfigUpdate) error {
	if update.Sensitivity != nil {
		if v := *update.Sensitivity; v < 0 || v > 1 {
			return fmt.Errorf("%w: sensitivity %v outside [0, 1]", ErrInvalidConfig, v)
		}
	}
	if update.EffectMode != nil {
		if _, err := step.ParseEffectMode(*update.EffectMode); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
	}

	p.mu.Lock()
	p.pending = append(p.pending, update)
	p.mu.Unlock()
	return nil
}

// SetEnabled queues an enable or disable.
func (p *Pipeline) SetEnabled(enabled bool) {
	p.Apply(protocol.ConfigUpdate{Enabled: &enabled})
}

// SetObserver registers a function called after every tick. It runs on
// the tick goroutine and must not block.
func (p *Pipeline) SetObserver(fn func(Report)) {
	p.mu.Lock()
	p.observer = fn
	p.mu.Unlock()
}

// SetTrace registers a function called as each stage starts.
func (p *Pipeline) SetTrace(fn func(Stage)) {
	p.mu.Lock()
	p.trace = fn
	p.mu.Unlock()
}

// applyPending applies queued updates. Called with mu held.
func (p *Pipeline) applyPending() {
	for _, u := range p.pending {
		if u.Enabled != nil && *u.Enabled != p.enabled {
			p.enabled = *u.Enabled
			p.logger.Info("session toggled", "enabled", p.enabled)
		}
		if u.Sensitivity != nil {
			p.config.Engine.Sensitivity = *u.Sensitivity
		}
		if u.EffectMode != nil {
			mode, _ := step.ParseEffectMode(*u.EffectMode)
			p.config.Engine.StepEffects = mode
		}
		if u.Sensitivity != nil || u.EffectMode != nil {
			p.engine.SetConfig(p.config.Engine)
		}
		if u.PlayerHeight != nil {
			p.config.PlayerHeight = *u.PlayerHeight
			p.scale = p.calibrator.Calibrate(*u.PlayerHeight)
			p.alignPending = p.bindings != nil
		}
	}
	p.pending = p.pending[:0]
}

func (p *Pipeline) enter(s Stage) {
	if p.trace != nil {
		p.trace(s)
	}
}

// Tick runs one frame. displayTime is the tracker clock in nanoseconds
// and dt the time since the previous tick.
func (p *Pipeline) Tick(ctx context.Context, displayTime int64, dt time.Duration) (Report, error) {
	p.mu.Lock()
	report, err := p.tick(ctx, displayTime, dt)
	observer := p.observer
	p.mu.Unlock()

	if observer != nil && err == nil {
		observer(report)
	}
	return report, err
}

func (p *Pipeline) tick(ctx context.Context, displayTime int64, dt time.Duration) (Report, error) {
	p.applyPending()

	report := Report{Enabled: p.enabled, Activated: -1, OriginY: p.origin.OriginY()}
	if !p.enabled {
		return report, nil
	}
	if p.bindings == nil {
		return report, ErrNoAvatar
	}
	p.frame++
	report.Frame = p.frame

	// 1. Ingest.
	p.enter(StageIngest)
	status, samples := p.source.GetSamples(displayTime)
	report.Status = status
	if status != tracker.StatusOK || len(samples) == 0 {
		report.Stale = true
		samples = p.samples
	} else {
		p.samples = samples
	}

	if !report.Stale {
		// 2. Retarget.
		p.enter(StageRetarget)
		// The anchor follows the live head sample, so head jitter reaches
		// the feet. TODO: evaluate a calibrated head-to-hip offset instead.
		if head, ok := skeleton.SampleFor(samples, skeleton.Head); ok {
			p.headAnchor = head.Position
		}
		pose := p.retargeter.Retarget(samples, p.bindings, p.scale, p.headAnchor)

		if p.alignPending {
			report.Aligned = p.alignGround(pose)
		}
		report.OriginY = p.origin.OriginY()
		p.contacts = p.footContacts(pose, samples, report.OriginY)

		// 3. Detect.
		p.enter(StageDetect)
		report.Events = p.detector.Update(samples)
	}
	report.Contacts = p.contacts

	// 4. Trigger. A stale frame holds the last contacts so timers and
	// occupancy carry on without new strikes.
	p.enter(StageTrigger)
	report.Triggers = p.engine.Update(p.contacts, report.Events, dt)
	if p.config.AutoSchedule {
		report.Activated = p.scheduler.Update(dt)
	}

	// 5. Sinks.
	p.enter(StageSinks)
	if p.effects != nil {
		p.effects.Update(dt)
	}
	if p.sounds != nil {
		p.sounds.Advance(dt)
	}
	p.persist(ctx, report.Triggers)
	report.Score = p.score.Value()

	for _, ev := range report.Events {
		debug.FrameLog("step", "frame", ev.Frame, "side", ev.Side, "part", ev.Part, "strength", ev.Strength)
	}
	return report, nil
}

// alignGround runs a pending alignment once both feet are tracked.
func (p *Pipeline) alignGround(pose retarget.Pose) bool {
	left, okL := pose.Foot(skeleton.Left)
	right, okR := pose.Foot(skeleton.Right)
	if !okL || !okR {
		return false
	}
	originY := p.origin.OriginY()
	if _, err := p.aligner.AlignGround(left.Y+originY, right.Y+originY, p.config.SoleHeight); err != nil {
		return false
	}
	p.alignPending = false
	return true
}

// footContacts lifts the retargeted foot points into play space.
func (p *Pipeline) footContacts(pose retarget.Pose, samples []skeleton.JointSample, originY float64) []dancepad.FootContact {
	contacts := make([]dancepad.FootContact, 0, len(p.config.Retarget.WorldJoints))
	for _, j := range p.config.Retarget.WorldJoints {
		if !skeleton.IsFootRole(j) {
			continue
		}
		pos, ok := pose.WorldPosition(j)
		if !ok {
			continue
		}
		s, _ := skeleton.SampleFor(samples, j)
		contacts = append(contacts, dancepad.FootContact{
			Joint:      j,
			Position:   r3.Add(pos, r3.Vec{Y: originY}),
			Confidence: ContactConfidence(s),
		})
	}
	return contacts
}

// ContactConfidence returns a sample's per-mille contact confidence. A
// tracker that flags contact without reporting confidence is treated as
// fully confident.
func ContactConfidence(s skeleton.JointSample) int {
	if s.Confidence > 0 {
		return s.Confidence
	}
	if s.ContactMask != 0 {
		return 1000
	}
	return 0
}

func (p *Pipeline) persist(ctx context.Context, triggers []dancepad.Trigger) {
	if p.store == nil || p.sessionID == "" {
		return
	}
	for _, t := range triggers {
		err := p.store.RecordTrigger(ctx, p.sessionID, score.TriggerRecord{
			HoleID:   t.HoleID,
			Joint:    t.Joint.String(),
			Delta:    t.Delta,
			Kickable: t.Target.Kickable,
		})
		if err != nil {
			p.logger.Warn("trigger not recorded", "error", err)
		}
	}
}

// BeginSession starts a stored session and resets the score. Without a
// store it only resets the score.
func (p *Pipeline) BeginSession(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.score.Reset()
	if p.store == nil {
		return "", nil
	}
	sess, err := p.store.BeginSession(ctx, p.scale.HeightCm)
	if err != nil {
		return "", err
	}
	p.sessionID = sess.ID
	p.logger.Info("session started", "session", sess.ID)
	return sess.ID, nil
}

// EndSession closes the stored session with the current score.
func (p *Pipeline) EndSession(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.store == nil || p.sessionID == "" {
		return nil
	}
	id := p.sessionID
	p.sessionID = ""
	if err := p.store.EndSession(ctx, id, p.score.Value()); err != nil {
		return err
	}
	p.logger.Info("session ended", "session", id, "score", p.score.Value())
	return nil
}

// Run ticks at the configured rate until ctx is cancelled.
func (p *Pipeline) Run(ctx context.Context) error {
	rate := p.config.Rate
	if rate <= 0 {
		rate = DefaultConfig().Rate
	}
	ticker := time.NewTicker(rate)
	defer ticker.Stop()

	p.logger.Info("pipeline started", "hz", 1/rate.Seconds())
	start := time.Now()
	last := start

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("pipeline stopped", "frames", p.Frame())
			return ctx.Err()
		case now := <-ticker.C:
			dt := now.Sub(last)
			last = now
			if _, err := p.Tick(ctx, int64(now.Sub(start)), dt); err != nil {
				p.errorCount++
				if p.errorCount%100 == 1 {
					p.logger.Warn("tick failed", "error", err, "count", p.errorCount)
				}
			}
		}
	}
}
