package fractal

import (
	"image/color"
	"math"
)

const (
	// Saturation and Value of every exterior colour.
	Saturation = 0.85
	Value      = 0.75

	// HueCycle is how far round the colour wheel one smoothed iteration moves.
	HueCycle = 0.03

	// LogFloor bounds the argument of the second logarithm in the smoothing
	// formula. Orbits that stopped at |z| close to 1 or below would otherwise
	// produce NaN or -Inf there.
	LogFloor = 1e-10
)

var (
	// InteriorColour is used for points that did not escape.
	InteriorColour = color.RGBA{A: 0xff}

	ln2 = math.Log(2)
)

// SmoothIterations returns the continuous iteration count of an escaped orbit.
func SmoothIterations(r Result) float64 {
	logZn := math.Log(r.Z[0]*r.Z[0]+r.Z[1]*r.Z[1]) / 2
	nu := math.Log(math.Max(logZn/ln2, LogFloor)) / ln2
	return float64(r.Iterations) + 1 - nu
}

// Hue maps a smoothed iteration count to a hue in degrees in [0, 360).
func Hue(smooth float64) float64 {
	h := math.Mod(smooth*HueCycle, 1)
	if h < 0 {
		h++
	}
	if math.IsNaN(h) || math.IsInf(h, 0) {
		return 0
	}
	return h * 360
}

// Color colours a result produced with the given iteration cap.
func Color(r Result, maxIter int) color.RGBA {
	if r.Iterations >= maxIter {
		return InteriorColour
	}

	return HSV(Hue(SmoothIterations(r)), Saturation, Value)
}

// HSV converts hue (degrees), saturation and value (both [0, 1]) to an opaque colour.
func HSV(h, s, v float64) color.RGBA {
	h = math.Mod(h/60, 6)
	if h < 0 {
		h += 6
	}
	i := int(h)
	f := h - float64(i)
	p := v * (1 - s)
	q := v * (1 - f*s)
	t := v * (1 - (1-f)*s)

	var r, g, b float64
	switch i {
	case 0:
		r, g, b = v, t, p
	case 1:
		r, g, b = q, v, p
	case 2:
		r, g, b = p, v, t
	case 3:
		r, g, b = p, q, v
	case 4:
		r, g, b = t, p, v
	default:
		r, g, b = v, p, q
	}

	return color.RGBA{
		R: unit8(r),
		G: unit8(g),
		B: unit8(b),
		A: 0xff,
	}
}

// unit8 clamps a [0, 1] component and rounds it to a byte.
func unit8(v float64) uint8 {
	if !(v > 0) {
		return 0
	}
	if v >= 1 {
		return 0xff
	}
	return uint8(v*255 + 0.5)
}
