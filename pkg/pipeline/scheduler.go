// Package pipeline drives the periodic detect, track, synthesize and render
// loop over a video source.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/teslashibe/go-mimic/internal/log"
	"github.com/teslashibe/go-mimic/pkg/debug"
	"github.com/teslashibe/go-mimic/pkg/render"
	"github.com/teslashibe/go-mimic/pkg/tracking/detection"
	"gocv.io/x/gocv"
)

// FrameSource is the video input. Open acquires the device and Close
// releases it.
type FrameSource interface {
	Open() error
	Read(dst *gocv.Mat) error
	Size() image.Point
	Device() string
	Close() error
}

// DetectorLoader loads the detection model at path.
type DetectorLoader func(path string) (detection.Detector, error)

// Config holds scheduler settings.
type Config struct {
	Tick      time.Duration // detection interval
	ModelPath string
}

// DefaultTick is the detection interval.
const DefaultTick = 100 * time.Millisecond

// DefaultConfig returns a 100 ms tick.
func DefaultConfig() Config {
	return Config{Tick: DefaultTick}
}

// Scheduler runs one tick per interval with at most one tick in flight.
type Scheduler struct {
	config Config
	source FrameSource
	load   DetectorLoader
	coord  *render.Coordinator
	logger *slog.Logger

	busy  atomic.Bool
	stats recorder
	frame gocv.Mat

	// Callback after each completed tick
	OnSnapshot func(*render.Snapshot)
}

type loadResult struct {
	detector detection.Detector
	err      error
}

// New creates a scheduler. A nil load runs without detection.
func New(config Config, source FrameSource, load DetectorLoader, coord *render.Coordinator) *Scheduler {
	if config.Tick <= 0 {
		config.Tick = DefaultTick
	}
	return &Scheduler{
		config: config,
		source: source,
		load:   load,
		coord:  coord,
		logger: log.Component("pipeline"),
		frame:  gocv.NewMat(),
	}
}

// Run acquires the source, loads the detector and ticks until ctx is
// done. It returns an *AcquisitionError if the source cannot be opened;
// a failed model load is logged and the run continues without detection.
// The source is released on every return path.
func (s *Scheduler) Run(ctx context.Context) error {
	defer s.frame.Close()

	models := make(chan loadResult, 1)
	go func() {
		models <- s.loadDetector()
	}()

	if err := s.source.Open(); err != nil {
		go discard(models)
		return &AcquisitionError{Device: s.source.Device(), Err: err}
	}
	defer s.source.Close()

	var res loadResult
	select {
	case res = <-models:
	case <-ctx.Done():
		go discard(models)
		return nil
	}

	det := res.detector
	if res.err != nil {
		s.logger.Error("detection disabled", "error", res.err)
		det = detection.NullDetector{}
	} else {
		s.stats.update(func(st *Stats) { st.DetectorReady = true })
	}
	defer det.Close()

	size := s.source.Size()
	s.logger.Info("pipeline running",
		"device", s.source.Device(),
		"frame", fmt.Sprintf("%dx%d", size.X, size.Y),
		"tick", s.config.Tick,
		"detector", s.Stats().DetectorReady)

	ticker := time.NewTicker(s.config.Tick)
	defer ticker.Stop()

	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.stats.update(func(st *Stats) { st.Ticks++ })
			if !s.busy.CompareAndSwap(false, true) {
				s.stats.update(func(st *Stats) { st.Dropped++ })
				debug.TickLog("⏭️  tick dropped, previous still running\n")
				continue
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				defer s.busy.Store(false)
				s.tick(ctx, det)
			}()
		}
	}
}

func (s *Scheduler) loadDetector() loadResult {
	if s.load == nil {
		return loadResult{err: &ModelInitError{Path: s.config.ModelPath, Err: errors.New("no detector configured")}}
	}
	d, err := s.load(s.config.ModelPath)
	if err != nil {
		return loadResult{err: &ModelInitError{Path: s.config.ModelPath, Err: err}}
	}
	return loadResult{detector: d}
}

// discard closes a detector that finished loading after Run gave up on it.
func discard(models <-chan loadResult) {
	if res := <-models; res.detector != nil {
		res.detector.Close()
	}
}

// tick runs one detect, track, synthesize and render pass. Errors are
// recorded and returned; none of them stops the run.
func (s *Scheduler) tick(ctx context.Context, det detection.Detector) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrTickPanic, r)
			s.stats.update(func(st *Stats) { st.Failed++ })
			s.logger.Error("tick panicked", "panic", r)
		}
	}()

	if err := s.source.Read(&s.frame); err != nil {
		s.stats.update(func(st *Stats) { st.Skipped++ })
		s.logger.Debug("frame not ready", "error", err)
		return fmt.Errorf("%w: %v", ErrFrameNotReady, err)
	}

	start := time.Now()
	dets, err := det.Detect(ctx, s.frame)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.stats.update(func(st *Stats) { st.Failed++ })
		s.logger.Warn("detect failed, tick skipped", "error", err)
		return fmt.Errorf("%w: %v", ErrDetect, err)
	}
	s.stats.observeDetect(time.Since(start))

	snap, err := s.coord.Apply(s.frame, dets)
	if err != nil {
		s.stats.update(func(st *Stats) { st.Failed++ })
		return err
	}

	s.stats.update(func(st *Stats) { st.Completed++ })
	if s.OnSnapshot != nil {
		s.OnSnapshot(snap)
	}
	return nil
}

// Stats returns a copy of the run counters.
func (s *Scheduler) Stats() Stats {
	return s.stats.snapshot()
}
