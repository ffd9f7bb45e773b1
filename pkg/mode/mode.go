// Package mode holds the process-wide render mode toggle.
package mode

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// RenderMode selects whether the avatar follows the subject's pose.
type RenderMode int32

const (
	// Avatar synthesizes a pose each tick and draws the figure.
	Avatar RenderMode = iota
	// DetectionOnly keeps tracking and overlays running but freezes the pose.
	DetectionOnly
)

// String returns the wire name of the mode
func (m RenderMode) String() string {
	switch m {
	case Avatar:
		return "avatar"
	case DetectionOnly:
		return "detection_only"
	default:
		return fmt.Sprintf("mode(%d)", int32(m))
	}
}

// Parse maps a wire name back to a mode.
func Parse(s string) (RenderMode, error) {
	switch s {
	case "avatar":
		return Avatar, nil
	case "detection_only":
		return DetectionOnly, nil
	}
	return Avatar, fmt.Errorf("unknown render mode %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (m RenderMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *RenderMode) UnmarshalText(b []byte) error {
	v, err := Parse(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// Controller is the single writer of the render mode. Switching modes
// never touches the tracker or the pose; those keep their last values.
type Controller struct {
	mode atomic.Int32

	mu       sync.Mutex
	onChange []func(RenderMode)
}

// NewController creates a controller in the given mode.
func NewController(initial RenderMode) *Controller {
	c := &Controller{}
	c.mode.Store(int32(initial))
	return c
}

// Mode returns the current mode.
func (c *Controller) Mode() RenderMode {
	return RenderMode(c.mode.Load())
}

// Avatar reports whether the avatar follows the pose.
func (c *Controller) Avatar() bool {
	return c.Mode() == Avatar
}

// Set switches to m and notifies observers if the mode changed.
func (c *Controller) Set(m RenderMode) {
	old := RenderMode(c.mode.Swap(int32(m)))
	if old != m {
		c.notify(m)
	}
}

// Toggle flips the mode and returns the new one.
func (c *Controller) Toggle() RenderMode {
	for {
		old := c.mode.Load()
		next := Avatar
		if RenderMode(old) == Avatar {
			next = DetectionOnly
		}
		if c.mode.CompareAndSwap(old, int32(next)) {
			c.notify(next)
			return next
		}
	}
}

// OnChange registers an observer called after every mode change.
func (c *Controller) OnChange(fn func(RenderMode)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onChange = append(c.onChange, fn)
}

func (c *Controller) notify(m RenderMode) {
	c.mu.Lock()
	observers := append([]func(RenderMode){}, c.onChange...)
	c.mu.Unlock()

	for _, fn := range observers {
		fn(m)
	}
}
