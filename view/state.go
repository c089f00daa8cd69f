// Package view holds the visible window of the complex plane and the
// interaction rules that move it.
package view

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

// State is the visible window of the complex plane.
type State struct {
	Center     mgl64.Vec2
	Width      float64
	Iterations int
}

// Mapper returns the coordinate mapping of the state onto a pixel grid.
func (s State) Mapper(pixelWidth, pixelHeight int) Mapper {
	return Mapper{
		Center:      s.Center,
		Width:       s.Width,
		PixelWidth:  pixelWidth,
		PixelHeight: pixelHeight,
	}
}

// Status returns the on-screen text for the state.
func (s State) Status() Status {
	return Status{
		Center:     fmt.Sprintf("Center: (%.5f, %.5f)", s.Center[0], s.Center[1]),
		Width:      fmt.Sprintf("Width: %.3e", s.Width),
		Iterations: fmt.Sprintf("Iterations: %d", s.Iterations),
	}
}

func (s State) String() string {
	st := s.Status()
	return st.Center + " " + st.Width + " " + st.Iterations
}

// Status is the human readable description of a State.
type Status struct {
	Center     string
	Width      string
	Iterations string
}

// Lines returns the status in display order.
func (s Status) Lines() []string {
	return []string{s.Center, s.Width, s.Iterations}
}
