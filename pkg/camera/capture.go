package camera

import (
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/teslashibe/go-mimic/internal/log"
	"gocv.io/x/gocv"
)

var (
	// ErrOpen is returned when the device cannot be opened.
	ErrOpen = errors.New("camera: device unavailable")
	// ErrClosed is returned by Read when no device is open.
	ErrClosed = errors.New("camera: capture not open")
	// ErrNoFrame is returned when the device produced no frame.
	ErrNoFrame = errors.New("camera: no frame available")
)

// Capture reads frames from a local device or video file. The device is
// held from Open until Close.
type Capture struct {
	mu     sync.Mutex
	config Config
	vc     *gocv.VideoCapture
	size   image.Point
}

// NewCapture creates a closed capture for cfg.
func NewCapture(cfg Config) *Capture {
	return &Capture{config: cfg}
}

// Open acquires the device and requests the configured resolution and
// framerate. The device may deliver a different size; Size reports what
// it actually produces.
func (c *Capture) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open()
}

func (c *Capture) open() error {
	if c.vc != nil {
		return nil
	}

	vc, err := gocv.OpenVideoCapture(c.config.Device)
	if err != nil {
		if vc != nil {
			vc.Close()
		}
		return fmt.Errorf("%w: %s: %v", ErrOpen, c.config.Device, err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return fmt.Errorf("%w: %s", ErrOpen, c.config.Device)
	}

	vc.Set(gocv.VideoCaptureFrameWidth, float64(c.config.Width))
	vc.Set(gocv.VideoCaptureFrameHeight, float64(c.config.Height))
	vc.Set(gocv.VideoCaptureFPS, float64(c.config.Framerate))

	c.vc = vc
	c.size = image.Pt(
		int(vc.Get(gocv.VideoCaptureFrameWidth)),
		int(vc.Get(gocv.VideoCaptureFrameHeight)),
	)

	log.Info("camera opened",
		"device", c.config.Device,
		"requested", fmt.Sprintf("%dx%d", c.config.Width, c.config.Height),
		"actual", fmt.Sprintf("%dx%d", c.size.X, c.size.Y))
	return nil
}

// Read grabs the next frame into dst.
func (c *Capture) Read(dst *gocv.Mat) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.vc == nil {
		return ErrClosed
	}
	if ok := c.vc.Read(dst); !ok || dst.Empty() {
		return ErrNoFrame
	}
	c.size = image.Pt(dst.Cols(), dst.Rows())
	return nil
}

// Size returns the frame size the device is producing, or zero when closed.
func (c *Capture) Size() image.Point {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.size
}

// Device returns the configured device.
func (c *Capture) Device() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.config.Device
}

// Reconfigure releases the device and reacquires it with cfg. When the
// stream parameters are unchanged the device is kept open. On failure the
// capture is left closed.
func (c *Capture) Reconfigure(cfg Config) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.vc != nil && c.config.SameStream(cfg) {
		c.config = cfg
		return nil
	}

	c.close()
	c.config = cfg
	return c.open()
}

// Close stops the device. Safe to call more than once.
func (c *Capture) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.close()
}

func (c *Capture) close() error {
	if c.vc == nil {
		return nil
	}
	err := c.vc.Close()
	c.vc = nil
	c.size = image.Point{}
	return err
}
