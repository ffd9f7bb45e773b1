package render

import (
	"errors"
	"fmt"
	"image"
	"sync"
	"sync/atomic"
	"time"

	"github.com/teslashibe/go-mimic/internal/log"
	"github.com/teslashibe/go-mimic/pkg/debug"
	"github.com/teslashibe/go-mimic/pkg/mode"
	"github.com/teslashibe/go-mimic/pkg/pose"
	"github.com/teslashibe/go-mimic/pkg/tracking"
	"github.com/teslashibe/go-mimic/pkg/tracking/detection"
	"gocv.io/x/gocv"
)

// ErrClosed is returned by Apply after Close.
var ErrClosed = errors.New("render: coordinator closed")

// Options control surface encoding.
type Options struct {
	// Encode JPEG copies of both surfaces into each Snapshot.
	Encode bool
	// JPEG quality, 1-100.
	Quality int
}

// DefaultOptions encodes both surfaces at quality 80.
func DefaultOptions() Options {
	return Options{Encode: true, Quality: 80}
}

// Snapshot is the published result of one tick. It is immutable once
// published and safe to share between goroutines.
type Snapshot struct {
	Tick       uint64                `json:"tick"`
	Time       time.Time             `json:"time"`
	Mode       mode.RenderMode       `json:"mode"`
	Subject    tracking.Subject      `json:"subject"`
	Pose       pose.State            `json:"pose"`
	Objects    []string              `json:"objects"`
	Detections []detection.Detection `json:"detections"`
	FrameSize  image.Point           `json:"frame_size"`

	// JPEG encodings, nil when encoding is off or failed
	Monitor []byte `json:"-"`
	Avatar  []byte `json:"-"`
}

// Coordinator runs the per-tick update: tracker, pose synthesis in avatar
// mode, then both renderers. Apply must not be called concurrently; the
// scheduler guarantees a single tick in flight.
type Coordinator struct {
	tracker *tracking.Tracker
	modes   *mode.Controller
	monitor *MonitorRenderer
	avatar  *AvatarRenderer
	options Options

	mu        sync.Mutex
	pose      pose.State
	tick      uint64
	composite gocv.Mat
	closed    bool

	latest atomic.Pointer[Snapshot]
}

// NewCoordinator creates a coordinator with fresh renderers.
func NewCoordinator(tracker *tracking.Tracker, modes *mode.Controller, opts Options) *Coordinator {
	if opts.Quality <= 0 || opts.Quality > 100 {
		opts.Quality = DefaultOptions().Quality
	}
	return &Coordinator{
		tracker:   tracker,
		modes:     modes,
		monitor:   NewMonitorRenderer(),
		avatar:    NewAvatarRenderer(),
		options:   opts,
		composite: gocv.NewMat(),
	}
}

// Apply processes one tick's frame and detections.
//
// The tracker always updates. The pose is recomputed only in avatar mode
// with a subject present and otherwise holds its last value. Both surfaces
// are redrawn every tick.
func (c *Coordinator) Apply(frame gocv.Mat, dets []detection.Detection) (*Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrClosed
	}

	m := c.modes.Mode()
	subject := c.tracker.Update(dets)

	if m == mode.Avatar && subject.Present() {
		c.pose = pose.Synthesize(subject.Previous, *subject.Current)
	}

	size := image.Pt(frame.Cols(), frame.Rows())
	c.monitor.Render(size, dets, m)
	c.avatar.Render(c.pose, subject.Present(), m)

	c.tick++
	snap := &Snapshot{
		Tick:       c.tick,
		Time:       time.Now(),
		Mode:       m,
		Subject:    subject,
		Pose:       c.pose,
		Objects:    detection.VisibleObjects(dets),
		Detections: append([]detection.Detection(nil), dets...),
		FrameSize:  size,
	}

	if c.options.Encode {
		c.encode(frame, snap)
	}

	debug.TickLog("🎭 tick %d mode=%s subject=%v pose=%+v\n", snap.Tick, m, subject.Present(), snap.Pose.Rounded())

	c.latest.Store(snap)
	return snap, nil
}

func (c *Coordinator) encode(frame gocv.Mat, snap *Snapshot) {
	Composite(frame, *c.monitor.Surface(), &c.composite)

	var err error
	if snap.Monitor, err = encodeJPEG(c.composite, c.options.Quality); err != nil {
		log.Warn("monitor encode failed", "tick", snap.Tick, "error", err)
	}
	if snap.Avatar, err = encodeJPEG(*c.avatar.Surface(), c.options.Quality); err != nil {
		log.Warn("avatar encode failed", "tick", snap.Tick, "error", err)
	}
}

// SetQuality changes the JPEG quality used from the next tick on.
func (c *Coordinator) SetQuality(q int) {
	if q <= 0 || q > 100 {
		return
	}
	c.mu.Lock()
	c.options.Quality = q
	c.mu.Unlock()
}

// Latest returns the most recent snapshot, or nil before the first tick.
func (c *Coordinator) Latest() *Snapshot {
	return c.latest.Load()
}

// Pose returns the current pose.
func (c *Coordinator) Pose() pose.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pose
}

// Close releases all surfaces. Further Apply calls return ErrClosed.
func (c *Coordinator) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true

	var errs []error
	if err := c.monitor.Close(); err != nil {
		errs = append(errs, fmt.Errorf("monitor: %w", err))
	}
	if err := c.avatar.Close(); err != nil {
		errs = append(errs, fmt.Errorf("avatar: %w", err))
	}
	if err := c.composite.Close(); err != nil {
		errs = append(errs, fmt.Errorf("composite: %w", err))
	}
	return errors.Join(errs...)
}
