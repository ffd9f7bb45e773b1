package camera

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 640, cfg.Width)
	assert.Equal(t, 480, cfg.Height)
	assert.Empty(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errors int
	}{
		{"valid", func(c *Config) {}, 0},
		{"no device", func(c *Config) { c.Device = "" }, 1},
		{"too narrow", func(c *Config) { c.Width = 100 }, 1},
		{"too tall", func(c *Config) { c.Height = 5000 }, 1},
		{"zero fps", func(c *Config) { c.Framerate = 0 }, 1},
		{"quality over 100", func(c *Config) { c.Quality = 101 }, 1},
		{"everything wrong", func(c *Config) { *c = Config{} }, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			if got := len(cfg.Validate()); got != tt.errors {
				t.Errorf("Validate() returned %d errors, want %d: %v", got, tt.errors, cfg.Validate())
			}
		})
	}
}

func TestPresetsAreValid(t *testing.T) {
	for _, name := range PresetNames() {
		cfg := GetPreset(name)
		require.NotNil(t, cfg, name)
		assert.Empty(t, cfg.Validate(), name)
	}
	assert.Nil(t, GetPreset("8k"))
	assert.Len(t, Presets(), len(PresetNames()))
}

func TestSameStream(t *testing.T) {
	a := DefaultConfig()
	b := a
	b.Quality = 50
	assert.True(t, a.SameStream(b), "quality is not a stream parameter")

	b.Width = 1280
	assert.False(t, a.SameStream(b))
}

func TestManagerUpdateConfig(t *testing.T) {
	m := NewManager(DefaultConfig())

	var calls int
	var got Config
	m.OnConfigChange = func(prev, next Config) error {
		calls++
		got = next
		assert.Equal(t, 640, prev.Width)
		return nil
	}

	require.NoError(t, m.UpdateConfig(map[string]interface{}{"width": float64(1280), "height": float64(720)}))
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1280, got.Width)
	assert.Equal(t, 720, m.GetConfig().Height)
}

func TestManagerPresetKeepsDevice(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Device = "/dev/video2"
	m := NewManager(cfg)

	require.NoError(t, m.UpdateConfig(map[string]interface{}{"preset": PresetHD, "quality": float64(60)}))

	got := m.GetConfig()
	assert.Equal(t, "/dev/video2", got.Device)
	assert.Equal(t, 1280, got.Width)
	assert.Equal(t, 60, got.Quality)
}

func TestManagerRejectsInvalid(t *testing.T) {
	m := NewManager(DefaultConfig())
	m.OnConfigChange = func(prev, next Config) error {
		t.Fatal("callback must not run for an invalid config")
		return nil
	}

	assert.Error(t, m.UpdateConfig(map[string]interface{}{"width": 10}))
	assert.Error(t, m.UpdateConfig(map[string]interface{}{"preset": "8k"}))
	assert.Equal(t, DefaultConfig(), m.GetConfig())
}

func TestManagerRestoresOnCallbackError(t *testing.T) {
	m := NewManager(DefaultConfig())
	boom := errors.New("device busy")
	m.OnConfigChange = func(prev, next Config) error { return boom }

	err := m.UpdateConfig(map[string]interface{}{"preset": PresetLow})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, DefaultConfig(), m.GetConfig())
}

func TestManagerConfigJSON(t *testing.T) {
	m := NewManager(DefaultConfig())
	got := m.GetConfigJSON()
	assert.Equal(t, "0", got["device"])
	assert.Equal(t, float64(640), got["width"])
}

func TestCaptureOpenMissingFile(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Device = filepath.Join(t.TempDir(), "missing.mp4")
	c := NewCapture(cfg)
	defer c.Close()

	err := c.Open()
	assert.ErrorIs(t, err, ErrOpen)
	assert.Equal(t, cfg.Device, c.Device())
}

func TestCaptureReadWhenClosed(t *testing.T) {
	c := NewCapture(DefaultConfig())

	dst := gocv.NewMat()
	defer dst.Close()

	assert.ErrorIs(t, c.Read(&dst), ErrClosed)
	assert.Zero(t, c.Size())
	assert.NoError(t, c.Close())
}
