package mimic

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/teslashibe/go-mimic/internal/log"
	"github.com/teslashibe/go-mimic/pkg/camera"
	"github.com/teslashibe/go-mimic/pkg/debug"
	"github.com/teslashibe/go-mimic/pkg/mode"
	"github.com/teslashibe/go-mimic/pkg/pipeline"
	"github.com/teslashibe/go-mimic/pkg/render"
	"github.com/teslashibe/go-mimic/pkg/tracking"
	"github.com/teslashibe/go-mimic/pkg/tracking/detection"
	"github.com/teslashibe/go-mimic/pkg/web"
)

// App is the main mimic application orchestrator.
// It manages all components and their lifecycle.
type App struct {
	config Config
	runID  uuid.UUID

	// Core
	tracker     *tracking.Tracker
	modes       *mode.Controller
	coordinator *render.Coordinator
	scheduler   *pipeline.Scheduler

	// Video
	capture       *camera.Capture
	cameraManager *camera.Manager

	// Web dashboard
	webServer *web.Server

	// Overridable for tests
	loadDetector pipeline.DetectorLoader

	shutdownOnce sync.Once
}

// New creates a new mimic application with the given configuration.
func New(cfg Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	debug.Enabled = cfg.Debug
	debug.Ticks = cfg.DebugTicks

	return &App{
		config:       cfg,
		runID:        uuid.New(),
		loadDetector: loadYOLO,
	}, nil
}

// loadYOLO opens the ONNX model at path.
func loadYOLO(path string) (detection.Detector, error) {
	cfg := detection.DefaultYOLOConfig()
	cfg.ModelPath = path
	return detection.NewYOLO(cfg)
}

// Init builds all components. The capture device and the model are not
// touched until Run.
func (a *App) Init() error {
	level := a.config.LogLevel
	if a.config.Debug {
		level = "debug"
	}
	log.Init(level)

	fmt.Println("🎭 Mimic - pose-mirroring avatar")
	fmt.Println("================================")
	if debug.Enabled {
		fmt.Println("🐛 Debug mode enabled")
	}

	// Tracking and pose
	trackCfg := tracking.DefaultConfig()
	trackCfg.ResetBaselineAfter = a.config.ResetBaselineAfter
	a.tracker = tracking.New(trackCfg)

	initial := mode.Avatar
	if a.config.DetectionOnly {
		initial = mode.DetectionOnly
	}
	a.modes = mode.NewController(initial)
	a.modes.OnChange(func(m mode.RenderMode) {
		log.Info("render mode changed", "mode", m)
	})

	opts := render.DefaultOptions()
	opts.Quality = a.config.Camera.Quality
	// Nobody looks at the JPEGs without the dashboard
	opts.Encode = a.config.Dashboard
	a.coordinator = render.NewCoordinator(a.tracker, a.modes, opts)

	// Video
	a.capture = camera.NewCapture(a.config.Camera)
	a.cameraManager = camera.NewManager(a.config.Camera)
	a.cameraManager.OnConfigChange = a.applyCameraConfig
	fmt.Printf("📷 Camera %s: requesting %dx%d @ %dfps\n",
		a.config.Camera.Device, a.config.Camera.Width, a.config.Camera.Height, a.config.Camera.Framerate)

	a.scheduler = pipeline.New(pipeline.Config{
		Tick:      a.config.Tick,
		ModelPath: a.config.ModelPath,
	}, a.capture, a.loadDetector, a.coordinator)

	// Web dashboard
	if a.config.Dashboard {
		a.webServer = web.NewServer(web.Options{
			Port:    a.config.Port,
			RunID:   a.runID,
			Modes:   a.modes,
			Source:  a.coordinator,
			Camera:  a.cameraManager,
			Stats:   a.scheduler.Stats,
			LogHTTP: a.config.Debug,
		})
		a.scheduler.OnSnapshot = a.webServer.Publish
	}

	log.Info("initialized", "run_id", a.runID, "mode", initial, "tick", a.config.Tick)
	return nil
}

// applyCameraConfig reacquires the capture when the stream changes. The
// tracker is reset so the first box at the new size is not differenced
// against one from the old size.
func (a *App) applyCameraConfig(previous, next camera.Config) error {
	a.coordinator.SetQuality(next.Quality)
	if previous.SameStream(next) {
		return nil
	}

	fmt.Printf("📷 Reconfiguring camera: %dx%d → %dx%d\n",
		previous.Width, previous.Height, next.Width, next.Height)
	if err := a.capture.Reconfigure(next); err != nil {
		// Put the old stream back so the pipeline keeps running
		if rerr := a.capture.Reconfigure(previous); rerr != nil {
			log.Error("camera restore failed", "error", rerr)
		}
		return err
	}
	a.tracker.Reset()
	return nil
}

// Run starts the pipeline and the dashboard.
// Blocks until ctx is cancelled or the capture cannot be acquired.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	if a.webServer != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := a.webServer.Run(ctx); err != nil {
				fmt.Printf("⚠️  Web server error: %v\n", err)
			}
		}()
	}

	fmt.Println("\n👀 Watching for a subject... (Ctrl+C to exit)")
	err := a.scheduler.Run(ctx)

	cancel()
	wg.Wait()

	if err != nil {
		return fmt.Errorf("pipeline: %w", err)
	}

	stats := a.scheduler.Stats()
	log.Info("pipeline stopped",
		"ticks", stats.Ticks,
		"completed", stats.Completed,
		"dropped", stats.Dropped,
		"skipped", stats.Skipped,
		"failed", stats.Failed,
		"detect_mean_ms", stats.DetectMeanMS)
	return nil
}

// Modes returns the render mode controller.
func (a *App) Modes() *mode.Controller {
	return a.modes
}

// Stats returns the scheduler counters.
func (a *App) Stats() pipeline.Stats {
	return a.scheduler.Stats()
}

// Shutdown releases everything Run did not already release.
func (a *App) Shutdown() {
	a.shutdownOnce.Do(func() {
		fmt.Println("\n👋 Goodbye!")
		if a.capture != nil {
			a.capture.Close()
		}
		if a.coordinator != nil {
			if err := a.coordinator.Close(); err != nil {
				log.Warn("render close", "error", err)
			}
		}
	})
}
