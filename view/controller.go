package view

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Mode is the pointer interaction state.
type Mode int

const (
	Idle Mode = iota
	Panning
)

func (m Mode) String() string {
	switch m {
	case Idle:
		return "idle"
	case Panning:
		return "panning"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// Tier is the resolution a render should use.
type Tier int

const (
	// Full renders one buffer pixel per screen pixel.
	Full Tier = iota
	// Preview renders a grid reduced by Params.PreviewDivisor, used while dragging.
	Preview
)

func (t Tier) String() string {
	switch t {
	case Full:
		return "full"
	case Preview:
		return "preview"
	}
	return fmt.Sprintf("Tier(%d)", int(t))
}

// Params configures a Controller.
type Params struct {
	// ScreenWidth and ScreenHeight are the pointer coordinate space and the full tier size.
	ScreenWidth, ScreenHeight int

	InitialCenter mgl64.Vec2
	InitialWidth  float64

	// MinWidth and MaxWidth clamp zooming. MinWidth is near the limit where
	// float64 pixel spacing collapses.
	MinWidth, MaxWidth float64

	// ZoomFactor is the width ratio of one scroll step.
	ZoomFactor float64

	// The iteration cap is max(MinIterations, BaseIterations + IterationGain*ln(InitialWidth/Width)).
	BaseIterations float64
	IterationGain  float64
	MinIterations  int

	// PreviewDivisor shrinks the render grid while panning. Values <= 1 disable the preview tier.
	PreviewDivisor int
}

// Validate reports the first invalid parameter.
func (p Params) Validate() error {
	switch {
	case p.ScreenWidth <= 0 || p.ScreenHeight <= 0:
		return fmt.Errorf("screen size %dx%d must be positive", p.ScreenWidth, p.ScreenHeight)
	case !(p.InitialWidth > 0):
		return fmt.Errorf("initial width %v must be positive", p.InitialWidth)
	case !(p.MinWidth > 0) || p.MinWidth > p.InitialWidth:
		return fmt.Errorf("min width %v must be in (0, %v]", p.MinWidth, p.InitialWidth)
	case p.MaxWidth < p.InitialWidth:
		return fmt.Errorf("max width %v must be at least %v", p.MaxWidth, p.InitialWidth)
	case !(p.ZoomFactor > 1):
		return fmt.Errorf("zoom factor %v must be greater than 1", p.ZoomFactor)
	case p.MinIterations <= 0:
		return errors.New("min iterations must be positive")
	case p.IterationGain < 0:
		return fmt.Errorf("iteration gain %v must not be negative", p.IterationGain)
	}
	return nil
}

// Controller owns the view state and turns pointer input into view changes.
//
// Every method that returns true changed something a render depends on; the
// caller must treat any in-flight render as stale.
// Controller is not safe for concurrent use.
type Controller struct {
	params Params
	state  State

	mode         Mode
	tier         Tier
	anchorPixel  mgl64.Vec2
	anchorCenter mgl64.Vec2

	pending bool
}

// NewController returns a controller showing the initial view, with a render pending.
func NewController(params Params) (*Controller, error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("view params: %w", err)
	}

	c := &Controller{params: params}
	c.reset()
	return c, nil
}

func (c *Controller) reset() {
	c.state = State{
		Center: c.params.InitialCenter,
		Width:  c.params.InitialWidth,
	}
	c.state.Iterations = c.IterationsFor(c.state.Width)
	c.mode = Idle
	c.tier = Full
	c.pending = true
}

// State returns the current view.
func (c *Controller) State() State { return c.state }

func (c *Controller) Mode() Mode { return c.mode }

func (c *Controller) Tier() Tier { return c.tier }

func (c *Controller) Params() Params { return c.params }

// Pending reports whether the view changed since the last MarkDispatched.
func (c *Controller) Pending() bool { return c.pending }

// MarkDispatched records that a render of the current state has been started.
func (c *Controller) MarkDispatched() { c.pending = false }

// RenderSize returns the pixel grid for the current tier.
func (c *Controller) RenderSize() (width, height int) {
	width, height = c.params.ScreenWidth, c.params.ScreenHeight
	if c.tier == Preview && c.params.PreviewDivisor > 1 {
		width = max(1, width/c.params.PreviewDivisor)
		height = max(1, height/c.params.PreviewDivisor)
	}
	return width, height
}

// Mapper returns the screen mapping of the current state.
func (c *Controller) Mapper() Mapper {
	return c.state.Mapper(c.params.ScreenWidth, c.params.ScreenHeight)
}

// IterationsFor returns the iteration cap for a complex width.
func (c *Controller) IterationsFor(width float64) int {
	n := c.params.BaseIterations + c.params.IterationGain*math.Log(c.params.InitialWidth/width)
	if math.IsNaN(n) || n < float64(c.params.MinIterations) {
		return c.params.MinIterations
	}
	if n > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(n)
}

// Press starts a drag at screen position p.
func (c *Controller) Press(p mgl64.Vec2) bool {
	if c.mode == Panning {
		return false
	}

	c.mode = Panning
	c.anchorPixel = p
	c.anchorCenter = c.state.Center
	if c.params.PreviewDivisor > 1 {
		c.tier = Preview
	}
	return false
}

// Move drags the view so the complex point under the anchor follows the pointer.
func (c *Controller) Move(p mgl64.Vec2) bool {
	if c.mode != Panning {
		return false
	}

	scale := c.Mapper().Scale()
	d := p.Sub(c.anchorPixel)
	center := mgl64.Vec2{
		c.anchorCenter[0] - d[0]*scale,
		c.anchorCenter[1] + d[1]*scale,
	}
	if center == c.state.Center {
		return false
	}

	c.state.Center = center
	c.pending = true
	return true
}

// Release ends a drag and returns to the full tier.
func (c *Controller) Release() bool {
	if c.mode != Panning {
		return false
	}

	c.mode = Idle
	c.tier = Full
	c.pending = true
	return true
}

// Scroll zooms by steps wheel notches about screen position p. Positive
// steps zoom in. The complex point under p does not move.
func (c *Controller) Scroll(p mgl64.Vec2, steps float64) bool {
	if steps == 0 || math.IsNaN(steps) || math.IsInf(steps, 0) {
		return false
	}

	before := c.Mapper().ToComplex(p[0], p[1])

	width := c.state.Width * math.Pow(c.params.ZoomFactor, -steps)
	width = mgl64.Clamp(width, c.params.MinWidth, c.params.MaxWidth)
	if width == c.state.Width {
		return false
	}
	c.state.Width = width
	c.state.Iterations = c.IterationsFor(width)

	after := c.Mapper().ToComplex(p[0], p[1])
	c.state.Center = c.state.Center.Add(before.Sub(after))

	if c.mode == Panning {
		c.anchorPixel = p
		c.anchorCenter = c.state.Center
	}
	c.tier = Full
	c.pending = true
	return true
}

// Goto shows the window of the given width centred on center.
func (c *Controller) Goto(center mgl64.Vec2, width float64) bool {
	if math.IsNaN(center[0]) || math.IsNaN(center[1]) || math.IsInf(center[0], 0) || math.IsInf(center[1], 0) {
		return false
	}
	if !(width > 0) || math.IsInf(width, 0) {
		return false
	}

	width = mgl64.Clamp(width, c.params.MinWidth, c.params.MaxWidth)
	if center == c.state.Center && width == c.state.Width {
		return false
	}

	c.state.Center = center
	c.state.Width = width
	c.state.Iterations = c.IterationsFor(width)
	c.mode = Idle
	c.tier = Full
	c.pending = true
	return true
}

// ZoomCentre zooms by steps about the centre of the screen.
func (c *Controller) ZoomCentre(steps float64) bool {
	return c.Scroll(mgl64.Vec2{
		float64(c.params.ScreenWidth) / 2,
		float64(c.params.ScreenHeight) / 2,
	}, steps)
}

// Reset returns to the initial view.
func (c *Controller) Reset() bool {
	c.reset()
	return true
}
