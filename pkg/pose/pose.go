// Package pose converts two consecutive subject detections into a simple
// six-angle skeletal pose by differencing their bounding boxes.
package pose

import (
	"math"

	"github.com/teslashibe/go-mimic/pkg/tracking/detection"
)

// Sensitivity converts pixel displacement into degrees.
const Sensitivity = 8.0

// State is a pose in degrees. Every field lies within its Ranges entry.
type State struct {
	LeftArm  float64 `json:"left_arm"`
	RightArm float64 `json:"right_arm"`
	LeftLeg  float64 `json:"left_leg"`
	RightLeg float64 `json:"right_leg"`
	HeadTilt float64 `json:"head_tilt"`
	BodyLean float64 `json:"body_lean"`
}

// Zero returns the neutral pose.
func Zero() State {
	return State{}
}

// Range is a closed interval in degrees.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Clamp limits v to the range.
func (r Range) Clamp(v float64) float64 {
	return clamp(v, r.Min, r.Max)
}

// Contains reports whether v lies within the range.
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// Limits holds the clamp range of every output and intermediate term.
type Limits struct {
	Arm         Range `json:"arm"`
	Leg         Range `json:"leg"`
	HeadTilt    Range `json:"head_tilt"`
	BodyLean    Range `json:"body_lean"`
	SideArm     Range `json:"side_arm"`
	VerticalArm Range `json:"vertical_arm"`
	SizeArm     Range `json:"size_arm"`
}

// Ranges are the fixed clamp ranges.
var Ranges = Limits{
	Arm:         Range{-75, 75},
	Leg:         Range{-50, 20},
	HeadTilt:    Range{-45, 45},
	BodyLean:    Range{-60, 60},
	SideArm:     Range{-45, 45},
	VerticalArm: Range{-60, 30},
	SizeArm:     Range{-30, 30},
}

// Within reports whether every field lies within its range.
func (s State) Within(l Limits) bool {
	return l.Arm.Contains(s.LeftArm) &&
		l.Arm.Contains(s.RightArm) &&
		l.Leg.Contains(s.LeftLeg) &&
		l.Leg.Contains(s.RightLeg) &&
		l.HeadTilt.Contains(s.HeadTilt) &&
		l.BodyLean.Contains(s.BodyLean)
}

// Delta is the frame-to-frame change of a subject's box.
type Delta struct {
	DX, DY float64 // center displacement
	DW, DH float64 // size change
}

// Diff computes the box change from previous to current.
func Diff(previous, current detection.Detection) Delta {
	pcx, pcy := previous.Center()
	ccx, ccy := current.Center()
	return Delta{
		DX: ccx - pcx,
		DY: ccy - pcy,
		DW: current.BBox.W - previous.BBox.W,
		DH: current.BBox.H - previous.BBox.H,
	}
}

// Components are the clamped intermediate terms a pose is built from.
type Components struct {
	BodyLean    float64
	SideArm     float64
	LegMovement float64
	VerticalArm float64
	SizeArm     float64
	HeadTilt    float64
}

// Decompose maps a box change onto the clamped intermediate terms.
//
// Horizontal motion leans the body and swings the arms in opposition,
// vertical motion bends the legs and raises the arms, width change spreads
// the arms and height change tilts the head.
func Decompose(d Delta) Components {
	k := Sensitivity
	return Components{
		BodyLean:    Ranges.BodyLean.Clamp(d.DX * k),
		SideArm:     Ranges.SideArm.Clamp(d.DX * k * 0.7),
		LegMovement: Ranges.Leg.Clamp(-d.DY * k),
		VerticalArm: Ranges.VerticalArm.Clamp(-d.DY * k * 0.8),
		SizeArm:     Ranges.SizeArm.Clamp(d.DW * k * 2),
		HeadTilt:    Ranges.HeadTilt.Clamp(d.DH * k),
	}
}

// Compose combines intermediate terms into a pose. Both legs always take
// the same value.
func Compose(c Components) State {
	return State{
		LeftArm:  Ranges.Arm.Clamp(c.VerticalArm + c.SideArm + c.SizeArm),
		RightArm: Ranges.Arm.Clamp(c.VerticalArm - c.SideArm + c.SizeArm),
		LeftLeg:  c.LegMovement,
		RightLeg: c.LegMovement,
		HeadTilt: c.HeadTilt,
		BodyLean: c.BodyLean,
	}
}

// Synthesize derives the pose for the current detection. Without a
// previous detection it returns the zero pose, which becomes the motion
// baseline for the next tick. The result does not depend on any earlier
// pose: consecutive-detection jitter passes straight through.
func Synthesize(previous *detection.Detection, current detection.Detection) State {
	if previous == nil {
		return Zero()
	}
	return Compose(Decompose(Diff(*previous, current)))
}

// Rounded returns the pose with every angle rounded to whole degrees.
func (s State) Rounded() State {
	return State{
		LeftArm:  math.Round(s.LeftArm),
		RightArm: math.Round(s.RightArm),
		LeftLeg:  math.Round(s.LeftLeg),
		RightLeg: math.Round(s.RightLeg),
		HeadTilt: math.Round(s.HeadTilt),
		BodyLean: math.Round(s.BodyLean),
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
