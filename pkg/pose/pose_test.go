package pose

import (
	"math"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/teslashibe/go-mimic/pkg/tracking/detection"
)

func box(x, y, w, h float64) detection.Detection {
	return detection.Detection{Class: "person", Score: 0.9, BBox: detection.BBox{X: x, Y: y, W: w, H: h}}
}

var approx = cmpopts.EquateApprox(0, 1e-9)

func TestSynthesize_Scenarios(t *testing.T) {
	tests := []struct {
		name     string
		previous detection.Detection
		current  detection.Detection
		want     State
	}{
		{
			name:     "step right saturates lean and side arms",
			previous: box(100, 100, 50, 150),
			current:  box(150, 100, 50, 150),
			want:     State{LeftArm: 45, RightArm: -45, BodyLean: 60},
		},
		{
			name:     "no motion",
			previous: box(100, 100, 50, 150),
			current:  box(100, 100, 50, 150),
			want:     Zero(),
		},
		{
			name:     "small step left",
			previous: box(100, 100, 50, 150),
			current:  box(98, 100, 50, 150),
			// dx=-2: lean -16, side -11.2
			want: State{LeftArm: -11.2, RightArm: 11.2, BodyLean: -16},
		},
		{
			name:     "rise raises arms and lifts legs",
			previous: box(100, 100, 50, 150),
			current:  box(100, 98, 50, 150),
			// dy=-2: legs 16, vertical arm 12.8
			want: State{LeftArm: 12.8, RightArm: 12.8, LeftLeg: 16, RightLeg: 16},
		},
		{
			name:     "drop saturates legs and vertical arm",
			previous: box(100, 100, 50, 150),
			current:  box(100, 120, 50, 150),
			// dy=20: legs -160 -> -50, vertical -128 -> -60
			want: State{LeftArm: -60, RightArm: -60, LeftLeg: -50, RightLeg: -50},
		},
		{
			name:     "widening spreads arms",
			previous: box(100, 100, 50, 150),
			current:  box(99, 100, 52, 150),
			// center unchanged, dw=2: size arm 32 -> 30
			want: State{LeftArm: 30, RightArm: 30},
		},
		{
			name:     "growing taller tilts head",
			previous: box(100, 100, 50, 150),
			current:  box(100, 99, 50, 152),
			// center unchanged, dh=2: head 16
			want: State{HeadTilt: 16},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			prev := tc.previous
			got := Synthesize(&prev, tc.current)
			if diff := cmp.Diff(tc.want, got, approx); diff != "" {
				t.Errorf("Synthesize mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSynthesize_EndToEndComponents(t *testing.T) {
	d := Diff(box(100, 100, 50, 150), box(150, 100, 50, 150))
	if d != (Delta{DX: 50}) {
		t.Fatalf("Diff = %+v, want dx=50 only", d)
	}

	c := Decompose(d)
	want := Components{BodyLean: 60, SideArm: 45}
	if c != want {
		t.Errorf("Decompose = %+v, want %+v", c, want)
	}
}

func TestSynthesize_FirstDetectionIsZero(t *testing.T) {
	boxes := []detection.Detection{
		box(0, 0, 1, 1),
		box(100, 100, 50, 150),
		box(-40, 900, 640, 480),
	}
	for _, b := range boxes {
		if got := Synthesize(nil, b); got != Zero() {
			t.Errorf("Synthesize(nil, %+v) = %+v, want zero pose", b.BBox, got)
		}
	}
}

func TestSynthesize_RangesAndLegs(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 5000; i++ {
		prev := box(rng.Float64()*640, rng.Float64()*480, rng.Float64()*300, rng.Float64()*400)
		cur := box(rng.Float64()*640, rng.Float64()*480, rng.Float64()*300, rng.Float64()*400)

		// Most pairs are far apart; also exercise small, unclamped moves.
		if i%2 == 0 {
			cur = box(prev.BBox.X+rng.NormFloat64(), prev.BBox.Y+rng.NormFloat64(),
				prev.BBox.W+rng.NormFloat64()/4, prev.BBox.H+rng.NormFloat64())
		}

		got := Synthesize(&prev, cur)
		if !got.Within(Ranges) {
			t.Fatalf("pose out of range for %+v -> %+v: %+v", prev.BBox, cur.BBox, got)
		}
		if got.LeftLeg != got.RightLeg {
			t.Fatalf("legs differ: %+v", got)
		}
	}
}

func FuzzSynthesize(f *testing.F) {
	f.Add(100.0, 100.0, 50.0, 150.0, 150.0, 100.0, 50.0, 150.0)
	f.Add(0.0, 0.0, 0.0, 0.0, 0.0, 0.0, 0.0, 0.0)
	f.Add(-1e9, 1e9, 3.0, 4.0, 1e9, -1e9, 5.0, 6.0)

	f.Fuzz(func(t *testing.T, px, py, pw, ph, cx, cy, cw, ch float64) {
		for _, v := range []float64{px, py, pw, ph, cx, cy, cw, ch} {
			// Pixel coordinates; overflow to Inf is not a valid box.
			if math.IsNaN(v) || math.Abs(v) > 1e12 {
				t.Skip()
			}
		}
		prev := box(px, py, pw, ph)
		got := Synthesize(&prev, box(cx, cy, cw, ch))
		if !got.Within(Ranges) {
			t.Errorf("pose out of range: %+v", got)
		}
		if got.LeftLeg != got.RightLeg {
			t.Errorf("legs differ: %+v", got)
		}
	})
}

func TestSynthesize_ArmSymmetry(t *testing.T) {
	tests := []struct {
		name      string
		dx, dy    float64
		symmetric bool
	}{
		{name: "unclamped", dx: 2, dy: 1, symmetric: true},
		{name: "side saturated, sum still inside", dx: 50, dy: -4, symmetric: true},
		{name: "upper boundary touched exactly", dx: 50, dy: -10, symmetric: true},
		{name: "lower boundary clamps right arm", dx: 50, dy: 10, symmetric: false},
		{name: "lower boundary clamps left arm", dx: -50, dy: 10, symmetric: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			prev := box(100, 100, 50, 150)
			cur := box(100+tc.dx, 100+tc.dy, 50, 150)

			c := Decompose(Diff(prev, cur))
			got := Synthesize(&prev, cur)

			sum := got.LeftArm + got.RightArm
			holds := math.Abs(sum-2*c.VerticalArm) < 1e-9
			if holds != tc.symmetric {
				t.Errorf("leftArm+rightArm=%v, 2*verticalArm=%v; symmetric=%v, want %v",
					sum, 2*c.VerticalArm, holds, tc.symmetric)
			}
		})
	}
}

func TestSynthesize_NoSmoothing(t *testing.T) {
	a := box(100, 100, 50, 150)
	b := box(150, 100, 50, 150)

	// Jitter back and forth flips the pose completely each tick
	first := Synthesize(&a, b)
	second := Synthesize(&b, a)

	if first.BodyLean != 60 || second.BodyLean != -60 {
		t.Errorf("expected full lean reversal, got %v then %v", first.BodyLean, second.BodyLean)
	}
}

func TestRange(t *testing.T) {
	r := Range{-50, 20}
	if r.Clamp(-160) != -50 || r.Clamp(160) != 20 || r.Clamp(3) != 3 {
		t.Error("Range.Clamp mismatch")
	}
	if !r.Contains(-50) || !r.Contains(20) || r.Contains(20.0001) {
		t.Error("Range.Contains should be inclusive")
	}
}

func TestState_Rounded(t *testing.T) {
	s := State{LeftArm: 44.6, RightArm: -44.6, LeftLeg: 0.4, RightLeg: 0.4, HeadTilt: 12.5, BodyLean: -0.5}
	want := State{LeftArm: 45, RightArm: -45, HeadTilt: 13, BodyLean: -1}
	if diff := cmp.Diff(want, s.Rounded()); diff != "" {
		t.Errorf("Rounded mismatch (-want +got):\n%s", diff)
	}
}
