// Mimic - mirrors a person's movement onto a cartoon avatar
// Detects the subject with YOLOv8 and derives a pose from box motion
package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"github.com/teslashibe/go-mimic/pkg/mimic"
)

func main() {
	cfg := parseFlags()

	app, err := mimic.New(cfg)
	if err != nil {
		log.Fatalf("❌ Configuration error: %v", err)
	}

	if err := app.Init(); err != nil {
		log.Fatalf("❌ Initialization failed: %v", err)
	}
	defer app.Shutdown()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := app.Run(ctx); err != nil {
		app.Shutdown()
		log.Fatalf("❌ Runtime error: %v", err)
	}
}

// parseFlags parses command line flags and returns configuration.
// Environment variables set the defaults; flags override them.
func parseFlags() mimic.Config {
	cfg := mimic.DefaultConfig()
	cfg.LoadEnvConfig()

	flag.StringVar(&cfg.Camera.Device, "camera", cfg.Camera.Device, "Capture device index or video file")
	flag.IntVar(&cfg.Camera.Width, "width", cfg.Camera.Width, "Requested frame width")
	flag.IntVar(&cfg.Camera.Height, "height", cfg.Camera.Height, "Requested frame height")
	flag.StringVar(&cfg.ModelPath, "model", cfg.ModelPath, "YOLOv8 ONNX model path")
	flag.StringVar(&cfg.Port, "port", cfg.Port, "Dashboard port")
	flag.DurationVar(&cfg.Tick, "tick", cfg.Tick, "Detection interval")
	flag.BoolVar(&cfg.Debug, "debug", false, "Enable verbose debug logging")
	flag.BoolVar(&cfg.DebugTicks, "debug-ticks", false, "Print one trace line per tick")
	noDashboard := flag.Bool("no-dashboard", false, "Run without the web dashboard")
	flag.BoolVar(&cfg.DetectionOnly, "detection-only", false, "Start with the avatar off")
	flag.IntVar(&cfg.ResetBaselineAfter, "reset-baseline-after", cfg.ResetBaselineAfter,
		"Forget the last subject position after this many empty ticks (0 = never)")

	flag.Parse()

	cfg.Dashboard = !*noDashboard
	return cfg
}
