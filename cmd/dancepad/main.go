// Dance Pad - VR dance pad session runner
// Tracks the player's feet, pops up targets and scores every hit.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/teslashibe/go-dancepad/internal/log"
	"github.com/teslashibe/go-dancepad/pkg/session"
)

func main() {
	cfg := parseFlags()

	level := "info"
	if cfg.Debug {
		level = "debug"
	}
	log.Init(level)

	app, err := session.New(cfg)
	if err != nil {
		log.Error("configuration error", "error", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := app.Init(ctx); err != nil {
		log.Error("initialization failed", "error", err)
		os.Exit(1)
	}
	defer app.Shutdown()

	if err := app.Run(ctx); err != nil {
		log.Error("runtime error", "error", err)
		app.Shutdown()
		os.Exit(1)
	}
}

// parseFlags parses command line flags and returns configuration.
// Environment variables set the defaults; flags override them.
func parseFlags() session.Config {
	cfg := session.DefaultConfig()
	cfg.LoadEnvConfig()

	flag.BoolVar(&cfg.Debug, "debug", false, "Enable verbose debug logging")
	flag.BoolVar(&cfg.DebugFrames, "debug-frames", false, "Log every step event")
	flag.Float64Var(&cfg.PlayerHeight, "height", cfg.PlayerHeight, "Player height in centimeters (PLAYER_HEIGHT)")
	flag.Float64Var(&cfg.Sensitivity, "sensitivity", cfg.Sensitivity, "Contact sensitivity 0-1 (CONTACT_SENSITIVITY)")
	flag.StringVar(&cfg.EffectMode, "effects", cfg.EffectMode, "Step effects: off, heel, toe, heel-toe (EFFECT_MODE)")
	flag.StringVar(&cfg.Source, "source", cfg.Source, "Tracker source: synthetic, replay, bridge")
	flag.StringVar(&cfg.TrackerURL, "tracker-url", cfg.TrackerURL, "Tracker bridge websocket URL (TRACKER_URL)")
	flag.StringVar(&cfg.ReplayPath, "replay", "", "Recorded session to replay")
	flag.BoolVar(&cfg.Loop, "loop", false, "Loop the replay")
	flag.StringVar(&cfg.RecordPath, "record", "", "Record tracker frames to this file")
	flag.DurationVar(&cfg.Rate, "rate", cfg.Rate, "Pipeline tick interval")
	flag.BoolVar(&cfg.AutoSchedule, "auto", cfg.AutoSchedule, "Pop targets up automatically")
	flag.BoolVar(&cfg.Audio, "audio", cfg.Audio, "Enable the sound sink")
	flag.StringVar(&cfg.WebPort, "port", cfg.WebPort, "Dashboard port, empty to disable (WEB_PORT)")
	flag.StringVar(&cfg.StaticDir, "static", "", "Serve dashboard files from this directory")
	flag.StringVar(&cfg.DBPath, "db", cfg.DBPath, "Session history database, empty to disable (DANCEPAD_DB)")
	flag.Parse()

	if cfg.ReplayPath != "" && cfg.Source == session.SourceSynthetic {
		cfg.Source = session.SourceReplay
	}
	return cfg
}
