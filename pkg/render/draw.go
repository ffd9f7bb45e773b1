// Package render draws the monitor overlay and the avatar, and coordinates
// the per-tick update of tracker, pose and both surfaces.
package render

import (
	"image"
	"image/color"
	"math"

	"gocv.io/x/gocv"
)

// Palette
var (
	objectRed    = color.RGBA{R: 0xff, G: 0x00, B: 0x00, A: 0xff}
	trackGreen   = color.RGBA{R: 0x00, G: 0xff, B: 0x00, A: 0xff}
	labelWhite   = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	badgeGreen   = color.RGBA{R: 0x22, G: 0xc5, B: 0x5e, A: 0xff}
	badgePurple  = color.RGBA{R: 0xa8, G: 0x55, B: 0xf7, A: 0xff}
	badgeGray    = color.RGBA{R: 0x6b, G: 0x72, B: 0x80, A: 0xff}
	skyBlue      = color.RGBA{R: 0x87, G: 0xce, B: 0xeb, A: 0xff}
	paleGreen    = color.RGBA{R: 0x98, G: 0xfb, B: 0x98, A: 0xff}
	headGold     = color.RGBA{R: 0xff, G: 0xd7, B: 0x00, A: 0xff}
	headOutline  = color.RGBA{R: 0xff, G: 0x8c, B: 0x00, A: 0xff}
	headShine    = color.RGBA{R: 0xff, G: 0xe8, B: 0x66, A: 0xff}
	featureBlack = color.RGBA{A: 0xff}
	torsoBlue    = color.RGBA{R: 0x00, G: 0x66, B: 0xcc, A: 0xff}
	armCoral     = color.RGBA{R: 0xff, G: 0x6b, B: 0x6b, A: 0xff}
	legTeal      = color.RGBA{R: 0x4e, G: 0xcd, B: 0xc4, A: 0xff}
	shadowTone   = color.RGBA{R: 0x5f, G: 0x8f, B: 0x86, A: 0xff}
)

const (
	labelFont  = gocv.FontHersheySimplex
	labelScale = 0.45
	dashLength = 5.0
	gapLength  = 5.0
)

// rect converts a float box to pixel bounds.
func rect(x, y, w, h float64) image.Rectangle {
	return image.Rect(int(math.Round(x)), int(math.Round(y)), int(math.Round(x+w)), int(math.Round(y+h)))
}

// drawDashedLine draws a dashed line between two points
func drawDashedLine(img *gocv.Mat, start, end image.Point, c color.RGBA, thickness int) {
	dx := float64(end.X - start.X)
	dy := float64(end.Y - start.Y)
	length := math.Hypot(dx, dy)
	if length == 0 {
		return
	}
	angle := math.Atan2(dy, dx)

	for pos := 0.0; pos < length; pos += dashLength + gapLength {
		dashStart := image.Point{
			X: start.X + int(math.Round(pos*math.Cos(angle))),
			Y: start.Y + int(math.Round(pos*math.Sin(angle))),
		}
		stop := math.Min(pos+dashLength, length)
		dashEnd := image.Point{
			X: start.X + int(math.Round(stop*math.Cos(angle))),
			Y: start.Y + int(math.Round(stop*math.Sin(angle))),
		}
		gocv.Line(img, dashStart, dashEnd, c, thickness)
	}
}

// drawDashedRect draws the four edges of r as dashed lines.
func drawDashedRect(img *gocv.Mat, r image.Rectangle, c color.RGBA, thickness int) {
	tl, tr := r.Min, image.Pt(r.Max.X, r.Min.Y)
	br, bl := r.Max, image.Pt(r.Min.X, r.Max.Y)
	drawDashedLine(img, tl, tr, c, thickness)
	drawDashedLine(img, tr, br, c, thickness)
	drawDashedLine(img, br, bl, c, thickness)
	drawDashedLine(img, bl, tl, c, thickness)
}

// drawBadge draws text on a filled rounded-off box anchored at its top-left.
func drawBadge(img *gocv.Mat, text string, at image.Point, bg color.RGBA) image.Rectangle {
	size := gocv.GetTextSize(text, labelFont, labelScale, 1)
	box := image.Rect(at.X, at.Y, at.X+size.X+12, at.Y+size.Y+12)
	gocv.Rectangle(img, box, bg, -1)
	gocv.PutText(img, text, image.Pt(at.X+6, at.Y+size.Y+5), labelFont, labelScale, labelWhite, 1)
	return box
}

// verticalGradient fills img top to bottom from one color to another.
func verticalGradient(img *gocv.Mat, from, to color.RGBA) {
	rows, cols := img.Rows(), img.Cols()
	for y := 0; y < rows; y++ {
		t := 0.0
		if rows > 1 {
			t = float64(y) / float64(rows-1)
		}
		c := color.RGBA{
			R: lerp8(from.R, to.R, t),
			G: lerp8(from.G, to.G, t),
			B: lerp8(from.B, to.B, t),
			A: 0xff,
		}
		gocv.Line(img, image.Pt(0, y), image.Pt(cols-1, y), c, 1)
	}
}

func lerp8(a, b uint8, t float64) uint8 {
	return uint8(math.Round(float64(a) + (float64(b)-float64(a))*t))
}

// encodeJPEG encodes a BGR surface. The returned slice is owned by the caller.
func encodeJPEG(img gocv.Mat, quality int) ([]byte, error) {
	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, img, []int{gocv.IMWriteJpegQuality, quality})
	if err != nil {
		return nil, err
	}
	defer buf.Close()
	return append([]byte(nil), buf.GetBytes()...), nil
}
