package viewer

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stewi1014/glmandel/view"
)

// Zoom limits. MaxWidthFactor is relative to the initial width.
const (
	MinWidth       = 1e-13
	MaxWidthFactor = 64
)

// Config holds everything needed to start a viewer.
type Config struct {
	// Window size in pixels; also the full-resolution render grid.
	Width, Height int

	Center    mgl64.Vec2
	ViewWidth float64

	ZoomFactor     float64
	BaseIterations float64
	IterationGain  float64
	MinIterations  int

	// PreviewDivisor shrinks the grid while dragging. 1 disables previews.
	PreviewDivisor int

	// FPS is the display refresh the window backends aim for.
	FPS int

	// Workers is the number of bands per pass. 0 uses every available CPU.
	Workers int
}

func DefaultConfig() Config {
	return Config{
		Width:          1280,
		Height:         720,
		Center:         mgl64.Vec2{-0.7, 0},
		ViewWidth:      3.5,
		ZoomFactor:     1.1,
		BaseIterations: 100,
		IterationGain:  150,
		MinIterations:  100,
		PreviewDivisor: 4,
		FPS:            30,
	}
}

// Params returns the controller parameters for c.
func (c Config) Params() view.Params {
	return view.Params{
		ScreenWidth:    c.Width,
		ScreenHeight:   c.Height,
		InitialCenter:  c.Center,
		InitialWidth:   c.ViewWidth,
		MinWidth:       min(MinWidth, c.ViewWidth),
		MaxWidth:       c.ViewWidth * MaxWidthFactor,
		ZoomFactor:     c.ZoomFactor,
		BaseIterations: c.BaseIterations,
		IterationGain:  c.IterationGain,
		MinIterations:  c.MinIterations,
		PreviewDivisor: c.PreviewDivisor,
	}
}

func (c Config) Validate() error {
	switch {
	case c.FPS <= 0:
		return fmt.Errorf("fps %d must be positive", c.FPS)
	case c.Workers < 0:
		return fmt.Errorf("workers %d must not be negative", c.Workers)
	case c.PreviewDivisor < 1:
		return errors.New("preview divisor must be at least 1")
	}
	return c.Params().Validate()
}
