package view

import "github.com/go-gl/mathgl/mgl64"

// Mapper converts between pixel coordinates (origin top left, y down) and the
// complex plane (y up). The complex width spans PixelWidth pixels and pixels
// are square.
type Mapper struct {
	Center      mgl64.Vec2
	Width       float64
	PixelWidth  int
	PixelHeight int
}

// Scale is the complex-plane size of one pixel.
func (m Mapper) Scale() float64 {
	return m.Width / float64(m.PixelWidth)
}

// ToComplex maps a pixel position to the complex plane.
func (m Mapper) ToComplex(px, py float64) mgl64.Vec2 {
	scale := m.Scale()
	return mgl64.Vec2{
		m.Center[0] + (px-float64(m.PixelWidth)/2)*scale,
		m.Center[1] - (py-float64(m.PixelHeight)/2)*scale,
	}
}

// ToPixel maps a complex-plane point to a pixel position.
func (m Mapper) ToPixel(c mgl64.Vec2) (px, py float64) {
	scale := m.Scale()
	px = (c[0]-m.Center[0])/scale + float64(m.PixelWidth)/2
	py = float64(m.PixelHeight)/2 - (c[1]-m.Center[1])/scale
	return px, py
}

// Height is the complex-plane height of the grid.
func (m Mapper) Height() float64 {
	return m.Scale() * float64(m.PixelHeight)
}
