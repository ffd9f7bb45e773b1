package web

import (
	"encoding/json"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/teslashibe/go-mimic/pkg/camera"
	"github.com/teslashibe/go-mimic/pkg/hub"
	"github.com/teslashibe/go-mimic/pkg/mode"
	"github.com/teslashibe/go-mimic/pkg/pipeline"
	"github.com/teslashibe/go-mimic/pkg/pose"
	"github.com/teslashibe/go-mimic/pkg/render"
	"github.com/teslashibe/go-mimic/pkg/tracking/detection"
)

// Status is the dashboard's view of the latest tick.
type Status struct {
	RunID          string               `json:"run_id"`
	Uptime         string               `json:"uptime"`
	Mode           mode.RenderMode      `json:"mode"`
	Tick           uint64               `json:"tick"`
	SubjectPresent bool                 `json:"subject_present"`
	Subject        *detection.Detection `json:"subject,omitempty"`
	Pose           pose.State           `json:"pose"`
	Objects        []string             `json:"objects"`
	FrameWidth     int                  `json:"frame_width"`
	FrameHeight    int                  `json:"frame_height"`
	Stats          *pipeline.Stats      `json:"stats,omitempty"`
	Clients        map[string]int       `json:"clients"`
	Dropped        map[string]uint64    `json:"dropped"`
}

func (s *Server) status() Status {
	st := Status{
		RunID:   s.opts.RunID.String(),
		Uptime:  time.Since(s.started).Round(time.Second).String(),
		Mode:    s.opts.Modes.Mode(),
		Objects: []string{},
		Clients: map[string]int{
			s.monitorHub.Name(): s.monitorHub.ClientCount(),
			s.avatarHub.Name():  s.avatarHub.ClientCount(),
			s.statusHub.Name():  s.statusHub.ClientCount(),
		},
		Dropped: map[string]uint64{
			s.monitorHub.Name(): s.monitorHub.Dropped(),
			s.avatarHub.Name():  s.avatarHub.Dropped(),
			s.statusHub.Name():  s.statusHub.Dropped(),
		},
	}
	if snap := s.opts.Source.Latest(); snap != nil {
		st.Tick = snap.Tick
		st.SubjectPresent = snap.Subject.Present()
		st.Subject = snap.Subject.Current
		st.Pose = snap.Pose.Rounded()
		if snap.Objects != nil {
			st.Objects = snap.Objects
		}
		st.FrameWidth, st.FrameHeight = snap.FrameSize.X, snap.FrameSize.Y
	}
	if s.opts.Stats != nil {
		stats := s.opts.Stats()
		st.Stats = &stats
	}
	return st
}

// handleStatus returns the latest tick summary
func (s *Server) handleStatus(c *fiber.Ctx) error {
	return c.JSON(s.status())
}

// handlePose returns the current pose and the ranges it is clamped to
func (s *Server) handlePose(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"pose":   s.opts.Source.Pose(),
		"ranges": pose.Ranges,
	})
}

func (s *Server) handleGetMode(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"mode": s.opts.Modes.Mode()})
}

// SetModeRequest is the request body for PUT /api/mode
type SetModeRequest struct {
	Mode *mode.RenderMode `json:"mode"`
}

// handleSetMode switches to an explicit mode
func (s *Server) handleSetMode(c *fiber.Ctx) error {
	var req SetModeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	if req.Mode == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "mode is required",
		})
	}
	s.opts.Modes.Set(*req.Mode)
	return c.JSON(fiber.Map{"mode": s.opts.Modes.Mode()})
}

// handleToggleMode flips between avatar and detection-only
func (s *Server) handleToggleMode(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"mode": s.opts.Modes.Toggle()})
}

// handleGetCamera returns the camera config and presets
func (s *Server) handleGetCamera(c *fiber.Ctx) error {
	if s.opts.Camera == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "camera control not configured",
		})
	}
	return c.JSON(fiber.Map{
		"config":  s.opts.Camera.GetConfigJSON(),
		"presets": camera.PresetNames(),
	})
}

// handleUpdateCamera applies a partial config update or a preset
func (s *Server) handleUpdateCamera(c *fiber.Ctx) error {
	if s.opts.Camera == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "camera control not configured",
		})
	}

	var params map[string]interface{}
	if err := c.BodyParser(&params); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	if err := s.opts.Camera.UpdateConfig(params); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	cfg := s.opts.Camera.GetConfig()
	s.logger.Info("camera reconfigured", "device", cfg.Device, "width", cfg.Width, "height", cfg.Height)
	return c.JSON(fiber.Map{"config": s.opts.Camera.GetConfigJSON()})
}

// handleStreamWS serves one surface stream, starting with the latest frame.
func (s *Server) handleStreamWS(h *hub.Hub, surface func(*render.Snapshot) []byte) func(*websocket.Conn) {
	return func(conn *websocket.Conn) {
		client := hub.NewClient(h, conn)
		if snap := s.opts.Source.Latest(); snap != nil {
			if data := surface(snap); len(data) > 0 {
				client.Queue(hub.NewBinaryMessage(data))
			}
		}
		client.Run()
	}
}

// handleStatusWS streams status updates, starting with the current one.
func (s *Server) handleStatusWS(conn *websocket.Conn) {
	client := hub.NewClient(s.statusHub, conn)
	if data, err := json.Marshal(s.status()); err == nil {
		client.Queue(hub.NewJSONMessage(data))
	}
	client.Run()
}
