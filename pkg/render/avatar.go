package render

import (
	"fmt"
	"image"
	"math"

	"github.com/teslashibe/go-mimic/pkg/mode"
	"github.com/teslashibe/go-mimic/pkg/pose"
	"gocv.io/x/gocv"
)

// Avatar surface size in pixels.
const (
	AvatarWidth  = 800
	AvatarHeight = 600
)

// Facial expression switches to the big smile when either arm is raised
// past this angle.
const smileArmAngle = -20.0

// Figure is the resolved 2D geometry of the stick figure for one pose.
type Figure struct {
	Head        image.Point
	HeadRadius  int
	LeftEye     image.Point
	RightEye    image.Point
	Mouth       image.Point
	MouthRadius int
	Smiling     bool
	Tilt        float64 // degrees, applied to the mouth arc
	Shine       image.Point

	Neck     image.Point // torso top
	Hip      image.Point // torso bottom, shifted by the lean
	Shoulder image.Point // both arms start here

	LeftHand  image.Point
	RightHand image.Point

	LeftHip   image.Point
	RightHip  image.Point
	LeftFoot  image.Point
	RightFoot image.Point
}

// Layout places the figure for p around center with the given overall size.
//
// The hip is offset by twice the lean so small leans read clearly. Arms
// hang at 45° plus their pose angle, the left one mirrored. Legs hang from
// vertical, rotated by their pose angle. Eyes and mouth rotate with the
// head tilt.
func Layout(p pose.State, center image.Point, size float64) Figure {
	cx, cy := float64(center.X), float64(center.Y)

	headR := size * 0.15
	armLen := size * 0.4
	legLen := size * 0.5

	headC := image.Pt(center.X, round(cy-size*0.3))

	tilt := p.HeadTilt * math.Pi / 180
	face := func(dx, dy float64) image.Point {
		// Offsets are relative to the head center
		sin, cos := math.Sincos(tilt)
		return image.Pt(
			headC.X+round(dx*cos-dy*sin),
			headC.Y+round(dx*sin+dy*cos),
		)
	}

	smiling := p.LeftArm < smileArmAngle || p.RightArm < smileArmAngle
	mouthDY, mouthR := size*0.03, 5
	if smiling {
		mouthDY, mouthR = size*0.05, 8
	}

	base := math.Pi / 4
	la := base + p.LeftArm*math.Pi/180
	ra := base + p.RightArm*math.Pi/180
	ll := p.LeftLeg * math.Pi / 180
	rl := p.RightLeg * math.Pi / 180

	hipY := cy + size*0.3
	leftHip := image.Pt(round(cx-10), round(hipY))
	rightHip := image.Pt(round(cx+10), round(hipY))

	return Figure{
		Head:        headC,
		HeadRadius:  round(headR),
		LeftEye:     face(-headR*0.4, -size*0.05),
		RightEye:    face(headR*0.4, -size*0.05),
		Mouth:       face(0, mouthDY),
		MouthRadius: mouthR,
		Smiling:     smiling,
		Tilt:        p.HeadTilt,
		Shine:       face(-headR*0.3, -size*0.1),

		Neck:     image.Pt(center.X, round(cy-size*0.1)),
		Hip:      image.Pt(round(cx+p.BodyLean*2), round(hipY)),
		Shoulder: center,

		LeftHand:  image.Pt(round(cx-armLen*math.Cos(la)), round(cy+armLen*math.Sin(la))),
		RightHand: image.Pt(round(cx+armLen*math.Cos(ra)), round(cy+armLen*math.Sin(ra))),

		LeftHip:   leftHip,
		RightHip:  rightHip,
		LeftFoot:  image.Pt(round(float64(leftHip.X)-legLen*math.Sin(ll)), round(hipY+legLen*math.Cos(ll))),
		RightFoot: image.Pt(round(float64(rightHip.X)-legLen*math.Sin(rl)), round(hipY+legLen*math.Cos(rl))),
	}
}

func round(v float64) int {
	return int(math.Round(v))
}

// AvatarRenderer draws the stylized figure on a fixed 800x600 surface over
// a static gradient background.
type AvatarRenderer struct {
	background gocv.Mat
	surface    gocv.Mat
	center     image.Point
	size       float64
}

// NewAvatarRenderer builds the background once.
func NewAvatarRenderer() *AvatarRenderer {
	bg := gocv.NewMatWithSize(AvatarHeight, AvatarWidth, gocv.MatTypeCV8UC3)
	verticalGradient(&bg, skyBlue, paleGreen)

	return &AvatarRenderer{
		background: bg,
		surface:    gocv.NewMat(),
		center:     image.Pt(AvatarWidth/2, AvatarHeight/2),
		size:       300,
	}
}

// Render redraws the avatar surface.
//
// In avatar mode with a subject present the figure is drawn in pose p.
// In detection-only mode only the background, the mode marker and a
// subject presence badge are drawn. With no subject the background is
// drawn alone. The returned Mat is owned by the renderer.
func (r *AvatarRenderer) Render(p pose.State, present bool, m mode.RenderMode) *gocv.Mat {
	r.background.CopyTo(&r.surface)

	switch {
	case m == mode.Avatar && present:
		r.drawFigure(Layout(p, r.center, r.size))
		r.drawReadout(p)
		drawBadge(&r.surface, "tracking live", image.Pt(16, 32), badgeGreen)
	case m == mode.DetectionOnly:
		if present {
			drawBadge(&r.surface, "subject present", image.Pt(16, 32), badgeGreen)
		} else {
			drawBadge(&r.surface, "no subject", image.Pt(16, 32), badgeGray)
		}
	}

	r.drawModeMarker(m)
	return &r.surface
}

// Surface returns the image drawn by the last Render call.
func (r *AvatarRenderer) Surface() *gocv.Mat {
	return &r.surface
}

// Close releases both Mats.
func (r *AvatarRenderer) Close() error {
	r.background.Close()
	return r.surface.Close()
}

func (r *AvatarRenderer) drawFigure(f Figure) {
	img := &r.surface

	// Drop shadow under the limbs and torso
	off := image.Pt(5, 5)
	gocv.Line(img, f.Neck.Add(off), f.Hip.Add(off), shadowTone, 8)
	gocv.Line(img, f.Shoulder.Add(off), f.LeftHand.Add(off), shadowTone, 6)
	gocv.Line(img, f.Shoulder.Add(off), f.RightHand.Add(off), shadowTone, 6)
	gocv.Line(img, f.LeftHip.Add(off), f.LeftFoot.Add(off), shadowTone, 6)
	gocv.Line(img, f.RightHip.Add(off), f.RightFoot.Add(off), shadowTone, 6)
	gocv.Circle(img, f.Head.Add(off), f.HeadRadius, shadowTone, -1)

	// Head
	gocv.Circle(img, f.Head, f.HeadRadius, headGold, -1)
	gocv.Circle(img, f.Head, f.HeadRadius, headOutline, 3)
	gocv.Circle(img, f.Shine, max(f.HeadRadius/5, 1), headShine, -1)

	// Face
	gocv.Circle(img, f.LeftEye, 3, featureBlack, -1)
	gocv.Circle(img, f.RightEye, 3, featureBlack, -1)
	gocv.Ellipse(img, f.Mouth, image.Pt(f.MouthRadius, f.MouthRadius), f.Tilt, 0, 180, featureBlack, 2)

	// Torso
	gocv.Line(img, f.Neck, f.Hip, torsoBlue, 8)

	// Arms
	gocv.Line(img, f.Shoulder, f.LeftHand, armCoral, 6)
	gocv.Line(img, f.Shoulder, f.RightHand, armCoral, 6)

	// Legs
	gocv.Line(img, f.LeftHip, f.LeftFoot, legTeal, 6)
	gocv.Line(img, f.RightHip, f.RightFoot, legTeal, 6)
}

// drawReadout prints the rounded pose angles in the bottom-left corner.
func (r *AvatarRenderer) drawReadout(p pose.State) {
	for i, line := range Readout(p) {
		drawBadge(&r.surface, line, image.Pt(16, AvatarHeight-110+i*32), badgeGray)
	}
}

func (r *AvatarRenderer) drawModeMarker(m mode.RenderMode) {
	text, bg := "AVATAR ON", badgeGreen
	if m != mode.Avatar {
		text, bg = "AVATAR OFF", badgePurple
	}
	size := gocv.GetTextSize(text, labelFont, labelScale, 1)
	drawBadge(&r.surface, text, image.Pt(AvatarWidth-size.X-28, 32), bg)
}

// Readout formats the pose as three short lines of whole degrees.
func Readout(p pose.State) []string {
	p = p.Rounded()
	return []string{
		fmt.Sprintf("arms L%.0f R%.0f", deg(p.LeftArm), deg(p.RightArm)),
		fmt.Sprintf("legs L%.0f R%.0f", deg(p.LeftLeg), deg(p.RightLeg)),
		fmt.Sprintf("head %.0f body %.0f", deg(p.HeadTilt), deg(p.BodyLean)),
	}
}

// deg folds negative zero so it prints as "0".
func deg(v float64) float64 {
	if v == 0 {
		return 0
	}
	return v
}
