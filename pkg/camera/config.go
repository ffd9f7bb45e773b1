// Package camera provides the local video capture device and its
// runtime-configurable settings.
package camera

// Config holds the capture settings.
// These can be modified via the camera API at runtime.
type Config struct {
	// Device is a capture index ("0") or a file/stream path.
	Device string `json:"device"`

	// === Resolution ===
	Width     int `json:"width"`     // Requested frame width in pixels
	Height    int `json:"height"`    // Requested frame height in pixels
	Framerate int `json:"framerate"` // Target FPS

	// Quality is the JPEG quality of the dashboard streams, 1-100.
	Quality int `json:"quality"`
}

// Limits accepted by Validate
const (
	MinWidth     = 160
	MinHeight    = 120
	MaxWidth     = 3840
	MaxHeight    = 2160
	MaxFramerate = 120
)

// DefaultConfig requests 640x480 from the first capture device.
func DefaultConfig() Config {
	return Config{
		Device:    "0",
		Width:     640,
		Height:    480,
		Framerate: 30,
		Quality:   80,
	}
}

// Validate checks if the config values are within valid ranges.
// Returns a list of validation errors, or nil if valid.
func (c *Config) Validate() []string {
	var errors []string

	if c.Device == "" {
		errors = append(errors, "device must not be empty")
	}
	if c.Width < MinWidth || c.Width > MaxWidth {
		errors = append(errors, "width must be between 160 and 3840")
	}
	if c.Height < MinHeight || c.Height > MaxHeight {
		errors = append(errors, "height must be between 120 and 2160")
	}
	if c.Framerate < 1 || c.Framerate > MaxFramerate {
		errors = append(errors, "framerate must be between 1 and 120")
	}
	if c.Quality < 1 || c.Quality > 100 {
		errors = append(errors, "quality must be between 1 and 100")
	}

	return errors
}

// SameStream reports whether two configs describe the same capture
// stream, so switching between them needs no device reacquisition.
func (c Config) SameStream(other Config) bool {
	return c.Device == other.Device &&
		c.Width == other.Width &&
		c.Height == other.Height &&
		c.Framerate == other.Framerate
}
