// Package web serves the mimic dashboard: a JSON API over the latest
// snapshot and mode, and websocket streams of both surfaces.
package web

import (
	"context"
	"embed"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"github.com/teslashibe/go-mimic/internal/log"
	"github.com/teslashibe/go-mimic/pkg/camera"
	"github.com/teslashibe/go-mimic/pkg/hub"
	"github.com/teslashibe/go-mimic/pkg/mode"
	"github.com/teslashibe/go-mimic/pkg/pipeline"
	"github.com/teslashibe/go-mimic/pkg/pose"
	"github.com/teslashibe/go-mimic/pkg/render"
)

//go:embed static
var staticFiles embed.FS

// SnapshotSource is what the dashboard reads each request.
type SnapshotSource interface {
	Latest() *render.Snapshot
	Pose() pose.State
}

// Options wires the dashboard to the running pipeline.
type Options struct {
	Port    string
	RunID   uuid.UUID
	Modes   *mode.Controller
	Source  SnapshotSource
	Camera  *camera.Manager // nil disables the camera API
	Stats   func() pipeline.Stats
	LogHTTP bool // request logging middleware
}

// Server is the web dashboard server
type Server struct {
	app     *fiber.App
	opts    Options
	logger  *slog.Logger
	started time.Time

	// Hubs for websocket broadcast
	monitorHub *hub.Hub
	avatarHub  *hub.Hub
	statusHub  *hub.Hub
}

// NewServer creates the dashboard server. Start it with Run.
func NewServer(opts Options) *Server {
	if opts.RunID == uuid.Nil {
		opts.RunID = uuid.New()
	}
	s := &Server{
		opts:       opts,
		logger:     log.Component("web"),
		started:    time.Now(),
		monitorHub: hub.New("monitor"),
		avatarHub:  hub.New("avatar"),
		statusHub:  hub.New("status"),
	}

	app := fiber.New(fiber.Config{
		AppName:               "Mimic Dashboard",
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	app.Use(cors.New())
	if opts.LogHTTP {
		app.Use(logger.New())
	}

	// API routes
	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Get("/pose", s.handlePose)
	api.Get("/mode", s.handleGetMode)
	api.Put("/mode", s.handleSetMode)
	api.Post("/mode/toggle", s.handleToggleMode)
	api.Get("/camera", s.handleGetCamera)
	api.Post("/camera", s.handleUpdateCamera)

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	// WebSocket routes
	app.Get("/ws/monitor", websocket.New(s.handleStreamWS(s.monitorHub, func(snap *render.Snapshot) []byte { return snap.Monitor })))
	app.Get("/ws/avatar", websocket.New(s.handleStreamWS(s.avatarHub, func(snap *render.Snapshot) []byte { return snap.Avatar })))
	app.Get("/ws/status", websocket.New(s.handleStatusWS))

	// Dashboard page
	app.Use("/", filesystem.New(filesystem.Config{
		Root:       http.FS(staticFiles),
		PathPrefix: "static",
		Index:      "index.html",
	}))

	s.app = app
	return s
}

// Run starts the hubs and serves until ctx is cancelled, then shuts the
// server down.
func (s *Server) Run(ctx context.Context) error {
	go s.monitorHub.Run(ctx)
	go s.avatarHub.Run(ctx)
	go s.statusHub.Run(ctx)

	errc := make(chan error, 1)
	go func() {
		fmt.Printf("🌐 Web dashboard: http://localhost:%s\n", s.opts.Port)
		errc <- s.app.Listen(":" + s.opts.Port)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		return s.app.ShutdownWithTimeout(5 * time.Second)
	}
}

// Publish broadcasts a completed tick to every connected client.
func (s *Server) Publish(snap *render.Snapshot) {
	if snap == nil {
		return
	}
	if len(snap.Monitor) > 0 {
		s.monitorHub.BroadcastBinary(snap.Monitor)
	}
	if len(snap.Avatar) > 0 {
		s.avatarHub.BroadcastBinary(snap.Avatar)
	}
	if s.statusHub.ClientCount() > 0 {
		if err := s.statusHub.BroadcastJSON(s.status()); err != nil {
			s.logger.Warn("status encode failed", "error", err)
		}
	}
}

// App exposes the fiber app for tests.
func (s *Server) App() *fiber.App {
	return s.app
}
