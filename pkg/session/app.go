package session

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/teslashibe/go-dancepad/internal/log"
	"github.com/teslashibe/go-dancepad/pkg/calibrate"
	"github.com/teslashibe/go-dancepad/pkg/debug"
	"github.com/teslashibe/go-dancepad/pkg/effects"
	"github.com/teslashibe/go-dancepad/pkg/pipeline"
	"github.com/teslashibe/go-dancepad/pkg/score"
	"github.com/teslashibe/go-dancepad/pkg/skeleton"
	"github.com/teslashibe/go-dancepad/pkg/step"
	"github.com/teslashibe/go-dancepad/pkg/tracker"
	"github.com/teslashibe/go-dancepad/pkg/web"
)

// App is the session orchestrator.
// It manages all components and their lifecycle.
type App struct {
	config Config
	logger *slog.Logger

	source   tracker.Source
	bridge   *tracker.WSSource
	closers  []io.Closer
	pipeline *pipeline.Pipeline
	effects  *effects.Spawner
	audio    *effects.AudioSink
	score    *score.Accumulator
	store    *score.Store
	web      *web.Server

	shutdownOnce sync.Once
}

// New creates a session with the given configuration.
func New(cfg Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	debug.Enabled = cfg.Debug
	debug.Frames = cfg.DebugFrames

	return &App{
		config: cfg,
		logger: log.Component("session"),
	}, nil
}

// Init builds every component and loads the avatar.
// Call this after New() and before Run().
func (a *App) Init(ctx context.Context) error {
	if err := a.initSource(ctx); err != nil {
		return fmt.Errorf("tracker: %w", err)
	}

	if a.config.DBPath != "" {
		store, err := score.Open(ctx, a.config.DBPath)
		if err != nil {
			return fmt.Errorf("session store: %w", err)
		}
		a.store = store
	}

	a.score = score.NewAccumulator()
	a.effects = effects.NewSpawner(effects.DefaultSpawnerConfig())
	if a.config.Audio {
		sink, err := effects.NewAudioSink(effects.DefaultAudioConfig())
		if err != nil {
			a.logger.Warn("sound disabled", "error", err)
		} else {
			a.audio = sink
		}
	}

	if err := a.initPipeline(); err != nil {
		return fmt.Errorf("pipeline: %w", err)
	}

	if missing := a.pipeline.LoadAvatar(skeleton.Bones(skeleton.NewRig())); len(missing) > 0 {
		a.logger.Warn("avatar loaded with unbound joints", "missing", len(missing))
	}

	if a.config.WebPort != "" {
		a.initWeb()
	}
	return nil
}

func (a *App) initSource(ctx context.Context) error {
	var src tracker.Source
	switch a.config.Source {
	case SourceReplay:
		replay, err := tracker.OpenReplay(a.config.ReplayPath, a.config.Loop)
		if err != nil {
			return err
		}
		a.logger.Info("replaying session", "path", a.config.ReplayPath, "frames", replay.Len())
		src = replay
	case SourceBridge:
		ws, err := tracker.DialWS(ctx, a.config.TrackerURL)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, ws)
		a.bridge = ws
		a.logger.Info("tracker bridge connected", "url", a.config.TrackerURL)
		src = ws
	default:
		src = tracker.NewSynthetic(tracker.DefaultSyntheticConfig())
	}

	if a.config.RecordPath != "" {
		f, err := os.Create(a.config.RecordPath)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, f)
		src = &recording{Source: src, rec: tracker.NewRecorder(f), logger: a.logger}
		a.logger.Info("recording frames", "path", a.config.RecordPath)
	}

	a.source = src
	debug.Log("tracker source ready", "source", a.config.Source, "record", a.config.RecordPath != "")
	return nil
}

func (a *App) initPipeline() error {
	cfg := pipeline.DefaultConfig()
	cfg.Rate = a.config.Rate
	cfg.PlayerHeight = a.config.PlayerHeight
	cfg.AutoSchedule = a.config.AutoSchedule
	cfg.Engine.Sensitivity = a.config.Sensitivity
	mode, _ := step.ParseEffectMode(a.config.EffectMode)
	cfg.Engine.StepEffects = mode

	deps := pipeline.Deps{
		Source:  a.source,
		Effects: a.effects,
		Score:   a.score,
		Store:   a.store,
	}
	if rec, ok := a.source.(*recording); ok {
		if sink, ok := rec.Source.(calibrate.BoneLengthSink); ok {
			deps.Calibration = sink
		}
	}
	if a.audio != nil {
		deps.Sounds = a.audio
	}

	p, err := pipeline.New(cfg, deps)
	if err != nil {
		return err
	}
	debug.Log("pipeline configured",
		"rate", cfg.Rate,
		"sensitivity", cfg.Engine.Sensitivity,
		"effects", cfg.Engine.StepEffects,
		"auto", cfg.AutoSchedule,
		"sound", deps.Sounds != nil)
	a.pipeline = p
	return nil
}

func (a *App) initWeb() {
	cfg := web.DefaultConfig()
	cfg.Port = a.config.WebPort
	cfg.StaticDir = a.config.StaticDir
	cfg.Debug = a.config.Debug

	if a.store != nil {
		a.web = web.NewServer(cfg, a.pipeline, a.store)
	} else {
		a.web = web.NewServer(cfg, a.pipeline, nil)
	}
	a.pipeline.SetObserver(a.web.Publish)
}

// Pipeline returns the session pipeline.
func (a *App) Pipeline() *pipeline.Pipeline {
	return a.pipeline
}

// Run starts a stored session and ticks until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	id, err := a.pipeline.BeginSession(ctx)
	if err != nil {
		return fmt.Errorf("begin session: %w", err)
	}
	a.logger.Info("dance pad running", "session", id, "source", a.config.Source, "height", a.config.PlayerHeight)

	if a.web != nil {
		go func() {
			if err := a.web.Start(ctx); err != nil {
				a.logger.Error("dashboard stopped", "error", err)
			}
		}()
	}

	if err := a.pipeline.Run(ctx); ctx.Err() == nil {
		return err
	}
	return nil
}

// Shutdown ends the stored session and releases every resource.
func (a *App) Shutdown() {
	a.shutdownOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if a.pipeline != nil {
			if err := a.pipeline.EndSession(ctx); err != nil {
				a.logger.Warn("session not closed", "error", err)
			}
			st := a.pipeline.Status()
			a.logger.Info("session finished", "score", st.Score, "triggers", st.Stats.Triggers, "misses", st.Stats.Misses)
		}
		if a.bridge != nil {
			a.logger.Info("tracker bridge closed", "frames", a.bridge.Received())
		}
		if a.web != nil {
			if err := a.web.Shutdown(ctx); err != nil {
				a.logger.Warn("dashboard shutdown", "error", err)
			}
		}
		for i := len(a.closers) - 1; i >= 0; i-- {
			a.closers[i].Close()
		}
		if a.store != nil {
			a.store.Close()
		}
	})
}

// recording tees fresh frames from a source into a recorder.
type recording struct {
	tracker.Source
	rec    *tracker.Recorder
	logger *slog.Logger
	failed bool
}

func (r *recording) GetSamples(displayTime int64) (tracker.Status, []skeleton.JointSample) {
	status, samples := r.Source.GetSamples(displayTime)
	if status == tracker.StatusOK && !r.failed {
		if err := r.rec.Record(displayTime, samples); err != nil {
			r.failed = true
			r.logger.Warn("recording stopped", "error", err)
		}
	}
	return status, samples
}
