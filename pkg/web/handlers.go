package web

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-dancepad/pkg/dancepad"
	"github.com/teslashibe/go-dancepad/pkg/hub"
	"github.com/teslashibe/go-dancepad/pkg/pipeline"
	"github.com/teslashibe/go-dancepad/pkg/protocol"
)

// maxSessions caps the sessions listed per request.
const maxSessions = 200

func (s *Server) handleHealth(c *fiber.Ctx) error {
	st := s.session.Status()
	return c.JSON(fiber.Map{
		"status":  "ok",
		"enabled": st.Enabled,
		"frame":   st.Frame,
		"clients": s.hub.ClientCount(),
	})
}

// handleMetrics exposes counters in the Prometheus text format.
func (s *Server) handleMetrics(c *fiber.Ctx) error {
	st := s.session.Status()
	c.Set(fiber.HeaderContentType, "text/plain; version=0.0.4")
	return c.SendString(fmt.Sprintf(`# HELP dancepad_frames Frames processed
# TYPE dancepad_frames counter
dancepad_frames %d

# HELP dancepad_score Current session score
# TYPE dancepad_score gauge
dancepad_score %d

# HELP dancepad_triggers Holes triggered
# TYPE dancepad_triggers counter
dancepad_triggers %d

# HELP dancepad_misses Targets that expired unstruck
# TYPE dancepad_misses counter
dancepad_misses %d

# HELP dancepad_dashboard_clients Connected dashboard clients
# TYPE dancepad_dashboard_clients gauge
dancepad_dashboard_clients %d
`, st.Frame, st.Score, st.Stats.Triggers, st.Stats.Misses, s.hub.ClientCount()))
}

// handleStatus returns the session snapshot
func (s *Server) handleStatus(c *fiber.Ctx) error {
	return c.JSON(s.session.Status())
}

func (s *Server) handleHoles(c *fiber.Ctx) error {
	return c.JSON(s.session.Holes())
}

// ActivateRequest is the request body for popping up a target
type ActivateRequest struct {
	Value    int   `json:"value"`
	Kickable *bool `json:"kickable"`
}

func (s *Server) handleActivate(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "hole id must be an integer"})
	}

	req := ActivateRequest{Value: 10}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
	}
	target := dancepad.Target{Value: req.Value, Kickable: true}
	if req.Kickable != nil {
		target.Kickable = *req.Kickable
	}

	switch err := s.session.Activate(id, target); {
	case errors.Is(err, dancepad.ErrUnknownHole):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, dancepad.ErrNotInactive):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case err != nil:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"hole": id, "value": target.Value, "kickable": target.Kickable})
}

// handleConfig queues a configuration update for the next frame
func (s *Server) handleConfig(c *fiber.Ctx) error {
	var update protocol.ConfigUpdate
	if err := c.BodyParser(&update); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if err := s.session.Apply(update); err != nil {
		status := fiber.StatusInternalServerError
		if errors.Is(err, pipeline.ErrInvalidConfig) {
			status = fiber.StatusBadRequest
		}
		return c.Status(status).JSON(fiber.Map{"error": err.Error()})
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"status": "queued"})
}

func (s *Server) handleAlign(c *fiber.Ctx) error {
	s.session.RequestGroundAlign()
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"status": "queued"})
}

func (s *Server) handleSessions(c *fiber.Ctx) error {
	if s.history == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "session history disabled"})
	}
	limit := c.QueryInt("limit", 20)
	if limit <= 0 || limit > maxSessions {
		limit = maxSessions
	}
	sessions, err := s.history.ListSessions(c.UserContext(), limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"sessions": sessions, "count": len(sessions)})
}

func (s *Server) handleSessionTriggers(c *fiber.Ctx) error {
	if s.history == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "session history disabled"})
	}
	triggers, err := s.history.Triggers(c.UserContext(), c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"triggers": triggers, "count": len(triggers)})
}

// handleStateWS sends the current state, then streams broadcasts until the
// client disconnects.
func (s *Server) handleStateWS(c *websocket.Conn) {
	if msg, err := s.stateMessage(); err == nil {
		if data, err := msg.Bytes(); err == nil {
			c.WriteMessage(websocket.TextMessage, data)
		}
	}
	hub.NewClient(s.hub, c).Run()
}
