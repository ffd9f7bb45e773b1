package render

import (
	"image"
	"strings"

	"github.com/teslashibe/go-mimic/pkg/mode"
	"github.com/teslashibe/go-mimic/pkg/tracking/detection"
	"gocv.io/x/gocv"
)

// TrackingLabel is drawn above every qualifying person box.
const TrackingLabel = "tracking"

// MonitorRenderer draws detection boxes on a transparent BGRA overlay the
// size of the source video.
type MonitorRenderer struct {
	surface gocv.Mat
}

// NewMonitorRenderer creates a monitor renderer. The surface is allocated
// on the first Render call, once the frame size is known.
func NewMonitorRenderer() *MonitorRenderer {
	return &MonitorRenderer{surface: gocv.NewMat()}
}

// Render clears the overlay and redraws it for this tick's detections.
//
// Every qualifying non-person detection gets a solid box and a
// "class (NN%)" label. In avatar mode every qualifying person also gets a
// dashed box and a tracking label, whichever of them the tracker picked.
// The returned Mat is owned by the renderer and valid until the next call.
func (r *MonitorRenderer) Render(size image.Point, dets []detection.Detection, m mode.RenderMode) *gocv.Mat {
	r.resize(size)
	r.surface.SetTo(gocv.NewScalar(0, 0, 0, 0))

	for _, d := range dets {
		if d.IsPerson() || !d.Qualifies() {
			continue
		}
		box := rect(d.BBox.X, d.BBox.Y, d.BBox.W, d.BBox.H)
		gocv.Rectangle(&r.surface, box, objectRed, 2)

		band := image.Rect(box.Min.X, box.Min.Y-20, box.Max.X, box.Min.Y)
		gocv.Rectangle(&r.surface, band, objectRed, -1)
		gocv.PutText(&r.surface, d.Label(), image.Pt(box.Min.X+2, box.Min.Y-5),
			labelFont, 0.4, labelWhite, 1)
	}

	if m == mode.Avatar {
		for _, d := range dets {
			if !d.IsPerson() || !d.Qualifies() {
				continue
			}
			box := rect(d.BBox.X, d.BBox.Y, d.BBox.W, d.BBox.H)
			drawDashedRect(&r.surface, box, trackGreen, 2)
			gocv.PutText(&r.surface, TrackingLabel, image.Pt(box.Min.X, box.Min.Y-5),
				labelFont, 0.4, trackGreen, 1)
		}
	}

	if objects := detection.VisibleObjects(dets); len(objects) > 0 {
		drawBadge(&r.surface, "detected: "+strings.Join(objects, ", "), image.Pt(8, 8), objectRed)
	}

	return &r.surface
}

// Surface returns the overlay drawn by the last Render call.
func (r *MonitorRenderer) Surface() *gocv.Mat {
	return &r.surface
}

// Close releases the surface.
func (r *MonitorRenderer) Close() error {
	return r.surface.Close()
}

func (r *MonitorRenderer) resize(size image.Point) {
	if size.X <= 0 || size.Y <= 0 {
		size = image.Pt(1, 1)
	}
	if !r.surface.Empty() && r.surface.Cols() == size.X && r.surface.Rows() == size.Y {
		return
	}
	r.surface.Close()
	r.surface = gocv.NewMatWithSize(size.Y, size.X, gocv.MatTypeCV8UC4)
}

// Composite lays the overlay over the video frame into dst (BGR). When the
// frame is missing or its size differs from the overlay, a black frame is
// used underneath.
func Composite(frame gocv.Mat, overlay gocv.Mat, dst *gocv.Mat) {
	if !frame.Empty() && frame.Channels() == 3 &&
		frame.Cols() == overlay.Cols() && frame.Rows() == overlay.Rows() {
		frame.CopyTo(dst)
	} else {
		black := gocv.NewMatWithSize(overlay.Rows(), overlay.Cols(), gocv.MatTypeCV8UC3)
		black.SetTo(gocv.NewScalar(0, 0, 0, 0))
		black.CopyTo(dst)
		black.Close()
	}

	bgr := gocv.NewMat()
	defer bgr.Close()
	gocv.CvtColor(overlay, &bgr, gocv.ColorBGRAToBGR)

	alpha := gocv.NewMat()
	defer alpha.Close()
	gocv.ExtractChannel(overlay, &alpha, 3)

	bgr.CopyToWithMask(dst, alpha)
}
