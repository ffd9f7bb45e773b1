// Package detection provides object detection for the mimic pipeline.
package detection

import (
	"context"
	"fmt"
	"math"

	"gocv.io/x/gocv"
)

// MinScore is the confidence a detection must exceed to be drawn or tracked.
const MinScore = 0.5

// PersonClass is the COCO label of the tracked subject class.
const PersonClass = "person"

// BBox is an axis-aligned box in frame pixel coordinates.
type BBox struct {
	X, Y float64 // Top-left corner
	W, H float64 // Width and height
}

// Center returns the center point of the box
func (b BBox) Center() (x, y float64) {
	return b.X + b.W/2, b.Y + b.H/2
}

// Detection is one object-detection result for a frame.
// Detections are values and are never modified after Detect returns them.
type Detection struct {
	Class string  `json:"class"`
	Score float64 `json:"score"` // 0-1
	BBox  BBox    `json:"bbox"`
}

// Center returns the center point of the detection's box
func (d Detection) Center() (x, y float64) {
	return d.BBox.Center()
}

// Qualifies reports whether the detection clears the display threshold.
func (d Detection) Qualifies() bool {
	return d.Score > MinScore
}

// IsPerson reports whether the detection is a person.
func (d Detection) IsPerson() bool {
	return IsPerson(d.Class)
}

// Label returns the overlay label, e.g. "cup (87%)".
func (d Detection) Label() string {
	return fmt.Sprintf("%s (%d%%)", d.Class, int(math.Round(d.Score*100)))
}

// Detector is the interface for object detection backends
type Detector interface {
	// Detect finds objects in the frame. The result may be empty.
	Detect(ctx context.Context, frame gocv.Mat) ([]Detection, error)

	// Close releases resources
	Close() error
}

// NullDetector never detects anything. It stands in when the model
// failed to load so the pipeline can keep rendering.
type NullDetector struct{}

// Detect always returns an empty list.
func (NullDetector) Detect(ctx context.Context, frame gocv.Mat) ([]Detection, error) {
	return nil, ctx.Err()
}

// Close is a no-op.
func (NullDetector) Close() error { return nil }

// VisibleObjects returns the labels of qualifying non-person detections,
// in detection order.
func VisibleObjects(dets []Detection) []string {
	var names []string
	for _, d := range dets {
		if !d.IsPerson() && d.Qualifies() {
			names = append(names, d.Class)
		}
	}
	return names
}

// IsPerson returns true if the class is a person
func IsPerson(className string) bool {
	return className == PersonClass
}
