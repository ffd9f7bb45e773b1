package pipeline

import (
	"errors"
	"fmt"
)

// Sentinel errors for the failure classes of a run.
var (
	// ErrAcquisition is returned when the video source cannot be opened.
	// It is fatal: Run returns it and nothing is retried.
	ErrAcquisition = errors.New("pipeline: video acquisition failed")

	// ErrModelInit is logged when the detector cannot be loaded. The run
	// continues with detection disabled.
	ErrModelInit = errors.New("pipeline: detection model init failed")

	// ErrDetect marks a per-tick detector failure. The tick is skipped.
	ErrDetect = errors.New("pipeline: detection failed")

	// ErrFrameNotReady marks a tick with no usable frame. The tick is skipped.
	ErrFrameNotReady = errors.New("pipeline: frame not ready")

	// ErrTickPanic marks a tick that panicked and was recovered.
	ErrTickPanic = errors.New("pipeline: tick panicked")
)

// AcquisitionError wraps a source open failure with the device name.
type AcquisitionError struct {
	Device string
	Err    error
}

// Error implements the error interface.
func (e *AcquisitionError) Error() string {
	return fmt.Sprintf("pipeline [%s]: video acquisition failed: %v", e.Device, e.Err)
}

// Unwrap returns the underlying error.
func (e *AcquisitionError) Unwrap() error {
	return e.Err
}

// Is matches ErrAcquisition.
func (e *AcquisitionError) Is(target error) bool {
	return target == ErrAcquisition
}

// ModelInitError wraps a detector load failure with the model path.
type ModelInitError struct {
	Path string
	Err  error
}

// Error implements the error interface.
func (e *ModelInitError) Error() string {
	return fmt.Sprintf("pipeline [%s]: detection model init failed: %v", e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *ModelInitError) Unwrap() error {
	return e.Err
}

// Is matches ErrModelInit.
func (e *ModelInitError) Is(target error) bool {
	return target == ErrModelInit
}
