package camera

// Preset names for common configurations
const (
	PresetVGA    = "vga"
	PresetHD     = "hd"
	PresetFullHD = "fullhd"
	PresetLow    = "low"
)

// Presets returns all available preset configurations.
func Presets() map[string]Config {
	return map[string]Config{
		PresetVGA:    DefaultConfig(),
		PresetHD:     HDConfig(),
		PresetFullHD: FullHDConfig(),
		PresetLow:    LowConfig(),
	}
}

// PresetNames returns the list of available preset names.
func PresetNames() []string {
	return []string{
		PresetVGA,
		PresetHD,
		PresetFullHD,
		PresetLow,
	}
}

// GetPreset returns a preset config by name, or nil if not found.
func GetPreset(name string) *Config {
	presets := Presets()
	if cfg, ok := presets[name]; ok {
		return &cfg
	}
	return nil
}

// HDConfig returns 720p.
func HDConfig() Config {
	cfg := DefaultConfig()
	cfg.Width = 1280
	cfg.Height = 720
	return cfg
}

// FullHDConfig returns 1080p. Detection cost grows with the frame, so
// expect dropped ticks on slower machines.
func FullHDConfig() Config {
	cfg := DefaultConfig()
	cfg.Width = 1920
	cfg.Height = 1080
	return cfg
}

// LowConfig returns 320x240 at 15 FPS for weak CPUs.
func LowConfig() Config {
	cfg := DefaultConfig()
	cfg.Width = 320
	cfg.Height = 240
	cfg.Framerate = 15
	cfg.Quality = 70
	return cfg
}
