package fractal

import (
	"image/color"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestEscape_Interior(t *testing.T) {
	tests := []struct {
		name string
		c    mgl64.Vec2
	}{
		{"origin", mgl64.Vec2{0, 0}},
		{"cardioid left", mgl64.Vec2{-0.5, 0}},
		{"cardioid upper", mgl64.Vec2{0, 0.5}},
		{"cardioid near cusp", mgl64.Vec2{0.2, 0}},
		{"bulb centre", mgl64.Vec2{-1, 0}},
		{"bulb edge", mgl64.Vec2{-1.2, 0.1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !Interior(tt.c) {
				t.Fatalf("Interior(%v) = false, want true", tt.c)
			}
			for _, maxIter := range []int{1, 100, 5000} {
				got := Escape(tt.c, maxIter)
				if got.Iterations != maxIter {
					t.Errorf("Escape(%v, %d).Iterations = %d, want %d", tt.c, maxIter, got.Iterations, maxIter)
				}
				if got.Z != (mgl64.Vec2{}) {
					t.Errorf("Escape(%v, %d).Z = %v, want zero", tt.c, maxIter, got.Z)
				}
			}
		})
	}
}

func TestEscape_OriginNeverEscapes(t *testing.T) {
	for maxIter := 1; maxIter <= 2048; maxIter *= 2 {
		if got := Escape(mgl64.Vec2{}, maxIter).Iterations; got != maxIter {
			t.Errorf("Escape(0, %d) = %d, want %d", maxIter, got, maxIter)
		}
	}
}

func TestEscape_FarPointsEscapeImmediately(t *testing.T) {
	points := []mgl64.Vec2{
		{2, 2},
		{-3, 0},
		{0, 2.5},
		{10, -10},
	}

	for _, c := range points {
		got := Escape(c, 100)
		if got.Iterations > 1 {
			t.Errorf("Escape(%v).Iterations = %d, want 0 or 1", c, got.Iterations)
		}
		if m := got.Z.Dot(got.Z); m < EscapeRadiusSq {
			t.Errorf("Escape(%v).Z = %v with |z|^2 = %v, want >= %v", c, got.Z, m, EscapeRadiusSq)
		}
	}
}

func TestEscape_OutsideShortCircuit(t *testing.T) {
	// -0.75+0.1i is outside both tests and escapes after a few dozen iterations.
	c := mgl64.Vec2{-0.75, 0.1}
	if Interior(c) {
		t.Fatalf("Interior(%v) = true, want false", c)
	}

	got := Escape(c, 1000)
	if got.Iterations <= 1 || got.Iterations >= 1000 {
		t.Errorf("Escape(%v).Iterations = %d, want escape within (1, 1000)", c, got.Iterations)
	}
}

func TestEscape_NonPositiveCap(t *testing.T) {
	for _, maxIter := range []int{0, -5} {
		got := Escape(mgl64.Vec2{0.5, 0.5}, maxIter)
		if got.Iterations != 0 {
			t.Errorf("Escape(cap %d).Iterations = %d, want 0", maxIter, got.Iterations)
		}
	}
}

func TestColor_Interior(t *testing.T) {
	results := []Result{
		{Iterations: 100},
		{Iterations: 100, Z: mgl64.Vec2{1e300, -1e300}},
		{Iterations: 100, Z: mgl64.Vec2{math.NaN(), math.Inf(1)}},
		{Iterations: 150},
	}

	for _, r := range results {
		if got := Color(r, 100); got != InteriorColour {
			t.Errorf("Color(%+v, 100) = %v, want %v", r, got, InteriorColour)
		}
	}
}

func TestColor_Exterior(t *testing.T) {
	r := Escape(mgl64.Vec2{-0.75, 0.1}, 1000)
	got := Color(r, 1000)

	if got.A != 0xff {
		t.Errorf("alpha = %d, want 255", got.A)
	}
	if got == InteriorColour {
		t.Errorf("escaped point coloured as interior")
	}

	// Value 0.75 bounds every channel, saturation 0.85 bounds the minimum.
	maxC := max(got.R, got.G, got.B)
	minC := min(got.R, got.G, got.B)
	if maxC != unit8(Value) {
		t.Errorf("max channel = %d, want %d", maxC, unit8(Value))
	}
	if minC != unit8(Value*(1-Saturation)) {
		t.Errorf("min channel = %d, want %d", minC, unit8(Value*(1-Saturation)))
	}
}

func TestColor_DegenerateOrbit(t *testing.T) {
	// Orbits with |z| <= 1 make the smoothing logarithm's argument non-positive.
	results := []Result{
		{Iterations: 3, Z: mgl64.Vec2{0, 0}},
		{Iterations: 3, Z: mgl64.Vec2{1, 0}},
		{Iterations: 3, Z: mgl64.Vec2{0.5, 0.5}},
		{Iterations: 3, Z: mgl64.Vec2{math.NaN(), 0}},
	}

	for _, r := range results {
		h := Hue(SmoothIterations(r))
		if math.IsNaN(h) || h < 0 || h >= 360 {
			t.Errorf("Hue for %+v = %v, want a value in [0, 360)", r, h)
		}
		if got := Color(r, 10); got.A != 0xff {
			t.Errorf("Color(%+v) = %v, want an opaque colour", r, got)
		}
	}
}

func TestSmoothIterations_Continuous(t *testing.T) {
	// Exactly at the escape radius the correction term is zero.
	r := Result{Iterations: 5, Z: mgl64.Vec2{2, 0}}
	if got := SmoothIterations(r); math.Abs(got-6) > 1e-12 {
		t.Errorf("SmoothIterations(|z|=2) = %v, want 6", got)
	}

	// At |z| = 4 one whole iteration is subtracted.
	r = Result{Iterations: 5, Z: mgl64.Vec2{0, 4}}
	if got := SmoothIterations(r); math.Abs(got-5) > 1e-12 {
		t.Errorf("SmoothIterations(|z|=4) = %v, want 5", got)
	}
}

func TestHue_Wraps(t *testing.T) {
	tests := []struct {
		smooth float64
		want   float64
	}{
		{0, 0},
		{10, 108},
		{0.5 / HueCycle, 180},
		{-0.25 / HueCycle, 270},
		{math.NaN(), 0},
		{math.Inf(-1), 0},
	}

	for _, tt := range tests {
		if got := Hue(tt.smooth); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("Hue(%v) = %v, want %v", tt.smooth, got, tt.want)
		}
	}
}

func TestHSV(t *testing.T) {
	tests := []struct {
		name    string
		h, s, v float64
		want    color.RGBA
	}{
		{"red", 0, 1, 1, color.RGBA{255, 0, 0, 255}},
		{"yellow", 60, 1, 1, color.RGBA{255, 255, 0, 255}},
		{"green", 120, 1, 1, color.RGBA{0, 255, 0, 255}},
		{"cyan", 180, 1, 1, color.RGBA{0, 255, 255, 255}},
		{"blue", 240, 1, 1, color.RGBA{0, 0, 255, 255}},
		{"magenta", 300, 1, 1, color.RGBA{255, 0, 255, 255}},
		{"wrapped red", 360, 1, 1, color.RGBA{255, 0, 0, 255}},
		{"negative hue", -120, 1, 1, color.RGBA{0, 0, 255, 255}},
		{"grey", 42, 0, 0.5, color.RGBA{128, 128, 128, 255}},
		{"black", 200, 1, 0, color.RGBA{0, 0, 0, 255}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HSV(tt.h, tt.s, tt.v); got != tt.want {
				t.Errorf("HSV(%v, %v, %v) = %v, want %v", tt.h, tt.s, tt.v, got, tt.want)
			}
		})
	}
}

func BenchmarkEscape_Boundary(b *testing.B) {
	c := mgl64.Vec2{-0.7435, 0.1314}
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		Escape(c, 1000)
	}
}

func BenchmarkColor(b *testing.B) {
	r := Escape(mgl64.Vec2{-0.75, 0.1}, 1000)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		Color(r, 1000)
	}
}
