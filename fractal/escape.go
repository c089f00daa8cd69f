// Package fractal evaluates and colours points of the Mandelbrot set.
package fractal

import "github.com/go-gl/mathgl/mgl64"

// EscapeRadiusSq is the squared magnitude at which an orbit is considered escaped.
const EscapeRadiusSq = 4.0

// Result is the outcome of iterating a single point.
type Result struct {
	// Iterations is in [0, cap]. It equals the cap for points that never escaped.
	Iterations int
	// Z is the orbit value when iteration stopped, or zero for points
	// classified as interior without iterating.
	Z mgl64.Vec2
}

// Interior reports whether the point lies in the main cardioid or the period-2 bulb.
func Interior(c mgl64.Vec2) bool {
	x, y := c[0], c[1]

	xq := x - 0.25
	q := xq*xq + y*y
	if q*(q+xq) < 0.25*y*y {
		return true
	}

	return (x+1)*(x+1)+y*y < 0.0625
}

// Escape iterates z = z*z + c from z = 0 until |z| >= 2 or maxIter iterations.
func Escape(c mgl64.Vec2, maxIter int) Result {
	if maxIter <= 0 {
		return Result{}
	}

	if Interior(c) {
		return Result{Iterations: maxIter}
	}

	cx, cy := c[0], c[1]
	var zx, zy, zx2, zy2 float64
	iter := 0
	for zx2+zy2 < EscapeRadiusSq && iter < maxIter {
		zy = 2*zx*zy + cy
		zx = zx2 - zy2 + cx
		zx2 = zx * zx
		zy2 = zy * zy
		iter++
	}

	return Result{
		Iterations: iter,
		Z:          mgl64.Vec2{zx, zy},
	}
}
