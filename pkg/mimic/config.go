// Package mimic wires the capture, detector, tracker, pose synthesizer,
// renderers and dashboard into one application.
package mimic

import (
	"fmt"
	"time"

	"github.com/teslashibe/go-mimic/internal/config"
	"github.com/teslashibe/go-mimic/pkg/camera"
	"github.com/teslashibe/go-mimic/pkg/pipeline"
)

// Config holds all configuration for the mimic application.
// Flag parsing is done in cmd/mimic/main.go; this struct is data only.
type Config struct {
	// Debug enables verbose debug logging.
	Debug bool

	// DebugTicks prints one trace line per tick.
	DebugTicks bool

	// LogLevel is debug, info, warn or error.
	LogLevel string

	// Camera is the initial capture configuration.
	Camera camera.Config

	// ModelPath is the YOLOv8 ONNX model.
	ModelPath string

	// Tick is the detection interval.
	Tick time.Duration

	// Dashboard serves the web dashboard on Port.
	Dashboard bool
	Port      string

	// DetectionOnly starts with the avatar off.
	DetectionOnly bool

	// ResetBaselineAfter clears the motion baseline after this many ticks
	// without a subject. 0 keeps it forever.
	ResetBaselineAfter int
}

// DefaultConfig returns sensible defaults for mimic configuration.
func DefaultConfig() Config {
	return Config{
		LogLevel:  config.DefaultLogLevel,
		Camera:    camera.DefaultConfig(),
		ModelPath: config.DefaultModelPath,
		Tick:      pipeline.DefaultTick,
		Dashboard: true,
		Port:      config.DefaultDashboardPort,
	}
}

// LoadEnvConfig loads configuration values from environment variables.
// Call this before flag parsing so flags take precedence.
func (c *Config) LoadEnvConfig() {
	c.Camera.Device = config.CameraDevice()
	c.ModelPath = config.ModelPath()
	c.Port = config.DashboardPort()
	c.LogLevel = config.LogLevel()
	c.Camera.Width = config.IntEnv("MIMIC_WIDTH", c.Camera.Width)
	c.Camera.Height = config.IntEnv("MIMIC_HEIGHT", c.Camera.Height)
	c.ResetBaselineAfter = config.IntEnv("MIMIC_RESET_BASELINE_AFTER", c.ResetBaselineAfter)
}

// Validate checks that the configuration can run.
func (c *Config) Validate() error {
	if errs := c.Camera.Validate(); len(errs) > 0 {
		return &ConfigError{Field: "Camera", Message: fmt.Sprintf("invalid camera config: %v", errs)}
	}
	if c.Tick < 10*time.Millisecond {
		return &ConfigError{Field: "Tick", Message: "tick must be at least 10ms"}
	}
	if c.ModelPath == "" {
		return &ConfigError{Field: "ModelPath", Message: "model path is required"}
	}
	if c.Dashboard && c.Port == "" {
		return &ConfigError{Field: "Port", Message: "dashboard port is required"}
	}
	if c.ResetBaselineAfter < 0 {
		return &ConfigError{Field: "ResetBaselineAfter", Message: "reset-baseline-after must not be negative"}
	}
	return nil
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Message
}
