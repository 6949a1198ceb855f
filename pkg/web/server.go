// Package web provides the real-time dashboard for a dance pad session: a
// JSON API over the running pipeline and session history, and a websocket
// feed of live state.
package web

import (
	"context"
	"log/slog"
	"net"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-dancepad/internal/log"
	"github.com/teslashibe/go-dancepad/pkg/dancepad"
	"github.com/teslashibe/go-dancepad/pkg/hub"
	"github.com/teslashibe/go-dancepad/pkg/pipeline"
	"github.com/teslashibe/go-dancepad/pkg/protocol"
	"github.com/teslashibe/go-dancepad/pkg/score"
)

// Session is the running pipeline as seen by the dashboard.
type Session interface {
	Status() pipeline.Status
	Holes() []dancepad.HoleStatus
	Apply(update protocol.ConfigUpdate) error
	RequestGroundAlign()
	Activate(id int, t dancepad.Target) error
}

// History is the stored session log.
type History interface {
	ListSessions(ctx context.Context, limit int) ([]score.Session, error)
	Triggers(ctx context.Context, sessionID string) ([]score.TriggerRecord, error)
}

// Config holds dashboard settings.
type Config struct {
	Port       string
	StaticDir  string // served at / when set
	Debug      bool   // request logging
	StateEvery uint64 // frames between state broadcasts
}

// DefaultConfig returns the dashboard defaults.
func DefaultConfig() Config {
	return Config{
		Port:       "8181",
		StateEvery: 30,
	}
}

// Server is the web dashboard server
type Server struct {
	app     *fiber.App
	config  Config
	session Session
	history History
	hub     *hub.Hub
	logger  *slog.Logger
}

// NewServer creates a dashboard over session. history may be nil when
// sessions are not stored.
func NewServer(config Config, session Session, history History) *Server {
	if config.StateEvery == 0 {
		config.StateEvery = DefaultConfig().StateEvery
	}
	s := &Server{
		config:  config,
		session: session,
		history: history,
		hub:     hub.New("state"),
		logger:  log.Component("web"),
	}
	s.hub.SetHandler(s.handleInbound)

	app := fiber.New(fiber.Config{
		AppName:               "Dance Pad Dashboard",
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Content-Type",
	}))
	if config.Debug {
		app.Use(logger.New())
	}

	if config.StaticDir != "" {
		app.Static("/", config.StaticDir)
	}

	app.Get("/health", s.handleHealth)
	app.Get("/metrics", s.handleMetrics)

	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Get("/holes", s.handleHoles)
	api.Post("/holes/:id/activate", s.handleActivate)
	api.Post("/config", s.handleConfig)
	api.Post("/align", s.handleAlign)
	api.Get("/sessions", s.handleSessions)
	api.Get("/sessions/:id/triggers", s.handleSessionTriggers)

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/frames", websocket.New(s.handleStateWS))

	s.app = app
	return s
}

// App returns the underlying fiber app.
func (s *Server) App() *fiber.App {
	return s.app
}

// Hub returns the state broadcast hub.
func (s *Server) Hub() *hub.Hub {
	return s.hub
}

// Start runs the hub and serves on the configured port until ctx is
// cancelled or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", ":"+s.config.Port)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is Start on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	go s.hub.Run(ctx)
	s.logger.Info("dashboard listening", "addr", ln.Addr().String())
	return s.app.Listener(ln)
}

// Shutdown gracefully stops the web server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

// Publish broadcasts one tick's triggers, steps and score, plus a state
// snapshot every StateEvery frames while enabled. It never blocks, so it
// is safe as a pipeline observer.
func (s *Server) Publish(r pipeline.Report) {
	delta := 0
	for _, t := range r.Triggers {
		delta += t.Delta
		if msg, err := protocol.NewTriggerMessage(t.HoleID, t.Joint.String(), t.Delta, t.Target.Kickable, t.Level.String()); err == nil {
			s.hub.BroadcastMessage(msg)
		}
	}
	for _, ev := range r.Events {
		if msg, err := protocol.NewStepMessage(ev.Side.String(), ev.Part.String(), ev.Strength, ev.Frame); err == nil {
			s.hub.BroadcastMessage(msg)
		}
	}
	if len(r.Triggers) > 0 {
		if msg, err := protocol.NewScoreMessage(r.Score, delta); err == nil {
			s.hub.BroadcastMessage(msg)
		}
	}
	// Paused ticks carry no frame; clients get state from config replies.
	if r.Enabled && r.Frame > 0 && r.Frame%s.config.StateEvery == 0 {
		s.broadcastState()
	}
}

func (s *Server) broadcastState() {
	msg, err := s.stateMessage()
	if err != nil {
		return
	}
	s.hub.BroadcastMessage(msg)
}

func (s *Server) stateMessage() (*protocol.Message, error) {
	return protocol.NewStateMessage(s.session.Status().StateData())
}

// handleInbound applies configuration sent over the websocket and answers
// with the resulting state.
func (s *Server) handleInbound(msg *protocol.Message) *protocol.Message {
	if msg.Type != protocol.TypeConfig {
		return nil
	}
	update, err := msg.GetConfigUpdate()
	if err != nil {
		s.logger.Warn("bad config message", "error", err)
		return nil
	}
	if err := s.session.Apply(*update); err != nil {
		s.logger.Warn("config rejected", "error", err)
		return nil
	}
	reply, err := s.stateMessage()
	if err != nil {
		return nil
	}
	return reply
}
