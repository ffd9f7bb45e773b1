// Package config provides environment helpers for go-mimic commands.
package config

import (
	"os"
	"strconv"
)

// Defaults used when the environment does not override them.
const (
	DefaultCameraDevice  = "0"
	DefaultModelPath     = "models/yolov8n.onnx"
	DefaultDashboardPort = "8181"
	DefaultLogLevel      = "info"
)

// CameraDevice returns the capture device from MIMIC_CAMERA.
// It may be a device index ("0") or a file/stream path.
func CameraDevice() string {
	return envOr("MIMIC_CAMERA", DefaultCameraDevice)
}

// ModelPath returns the detector model path from MIMIC_MODEL.
func ModelPath() string {
	return envOr("MIMIC_MODEL", DefaultModelPath)
}

// DashboardPort returns the dashboard port from MIMIC_PORT.
func DashboardPort() string {
	return envOr("MIMIC_PORT", DefaultDashboardPort)
}

// LogLevel returns the log level from MIMIC_LOG_LEVEL.
func LogLevel() string {
	return envOr("MIMIC_LOG_LEVEL", DefaultLogLevel)
}

// IntEnv returns an integer from the environment, or def when unset or malformed.
func IntEnv(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
