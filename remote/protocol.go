// Package remote carries view commands to a running viewer and status back
// out, as gob messages over any net.Conn.
package remote

import (
	"encoding/gob"
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stewi1014/glmandel/view"
)

func init() {
	gob.Register(&Command{})
	gob.Register(&Status{})
}

// Op selects what a Command does.
type Op int

const (
	OpGoto Op = iota + 1
	OpZoom
	OpReset
)

func (o Op) String() string {
	switch o {
	case OpGoto:
		return "goto"
	case OpZoom:
		return "zoom"
	case OpReset:
		return "reset"
	}
	return fmt.Sprintf("Op(%d)", int(o))
}

// Command asks the viewer to change its view.
type Command struct {
	Op Op

	// Center and Width are used by OpGoto.
	Center mgl64.Vec2
	Width  float64

	// Steps is used by OpZoom; positive zooms in, about the view centre.
	Steps float64
}

func Goto(center mgl64.Vec2, width float64) Command {
	return Command{Op: OpGoto, Center: center, Width: width}
}

func Zoom(steps float64) Command {
	return Command{Op: OpZoom, Steps: steps}
}

func Reset() Command {
	return Command{Op: OpReset}
}

// Status describes the viewer after a change or a published frame.
type Status struct {
	View       view.State
	Generation uint64
	Rendering  bool
	FPS        float64
}

// Lines returns the status as on-screen text.
func (s Status) Lines() []string {
	lines := s.View.Status().Lines()
	if s.Rendering {
		lines = append(lines, "Rendering...")
	}
	return lines
}
