// Package viewer is the application context of the interactive viewer. It
// connects input to the view controller, runs render passes in the
// background and hands finished frames to the window.
package viewer

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stewi1014/glmandel/logging"
	"github.com/stewi1014/glmandel/remote"
	"github.com/stewi1014/glmandel/render"
	"github.com/stewi1014/glmandel/view"
)

// Frame is a finished render pass.
type Frame struct {
	Image      *image.RGBA
	View       view.State
	Generation uint64
	Tier       view.Tier
}

type result struct {
	img  *image.RGBA
	req  render.Request
	tier view.Tier
	err  error
}

// Viewer owns the view state, the generation counter and at most one
// in-flight render pass.
//
// Viewer is driven from a single goroutine, normally the window thread:
// input methods and Tick must not be called concurrently.
type Viewer struct {
	ctx    context.Context
	cfg    Config
	ctrl   *view.Controller
	raster *render.Rasterizer
	gen    render.Generation

	results  chan result
	inflight bool
	frame    *Frame

	fps fpsMeter
	now func() time.Time
}

// New returns a viewer for cfg. Passes stop early once ctx is done.
// opts are applied after the worker count from cfg.
func New(ctx context.Context, cfg Config, opts ...render.Option) (*Viewer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	ctrl, err := view.NewController(cfg.Params())
	if err != nil {
		return nil, err
	}

	opts = append([]render.Option{render.WithWorkers(cfg.Workers)}, opts...)
	v := &Viewer{
		ctx:     ctx,
		cfg:     cfg,
		ctrl:    ctrl,
		raster:  render.NewRasterizer(opts...),
		results: make(chan result, 1),
		now:     time.Now,
	}

	logging.Logger().Info("viewer created",
		"size", fmt.Sprintf("%dx%d", cfg.Width, cfg.Height),
		"workers", v.raster.Workers(),
		"view", ctrl.State())
	return v, nil
}

func (v *Viewer) Config() Config { return v.cfg }

func (v *Viewer) State() view.State { return v.ctrl.State() }

func (v *Viewer) Mode() view.Mode { return v.ctrl.Mode() }

// Generation returns the current generation id.
func (v *Viewer) Generation() uint64 { return v.gen.Current() }

// Frame returns the last published frame, or nil before the first one.
func (v *Viewer) Frame() *Frame { return v.frame }

// Rendering reports whether the displayed frame is behind the view.
func (v *Viewer) Rendering() bool {
	return v.inflight || v.ctrl.Pending()
}

func (v *Viewer) FPS() float64 { return v.fps.Rate() }

// Status describes the viewer for the overlay and remote clients.
func (v *Viewer) Status() remote.Status {
	return remote.Status{
		View:       v.ctrl.State(),
		Generation: v.gen.Current(),
		Rendering:  v.Rendering(),
		FPS:        v.fps.Rate(),
	}
}

func (v *Viewer) changed(ok bool) bool {
	if ok {
		v.gen.Advance()
	}
	return ok
}

// PointerPress starts a drag at window position (x, y).
func (v *Viewer) PointerPress(x, y float64) bool {
	return v.changed(v.ctrl.Press(mgl64.Vec2{x, y}))
}

func (v *Viewer) PointerMove(x, y float64) bool {
	return v.changed(v.ctrl.Move(mgl64.Vec2{x, y}))
}

func (v *Viewer) PointerRelease() bool {
	return v.changed(v.ctrl.Release())
}

// Scroll zooms about window position (x, y). Positive steps zoom in.
func (v *Viewer) Scroll(x, y, steps float64) bool {
	return v.changed(v.ctrl.Scroll(mgl64.Vec2{x, y}, steps))
}

func (v *Viewer) Goto(center mgl64.Vec2, width float64) bool {
	return v.changed(v.ctrl.Goto(center, width))
}

// Zoom zooms about the window centre.
func (v *Viewer) Zoom(steps float64) bool {
	return v.changed(v.ctrl.ZoomCentre(steps))
}

func (v *Viewer) Reset() bool {
	return v.changed(v.ctrl.Reset())
}

// Apply performs a remote command.
func (v *Viewer) Apply(cmd remote.Command) bool {
	switch cmd.Op {
	case remote.OpGoto:
		return v.Goto(cmd.Center, cmd.Width)
	case remote.OpZoom:
		return v.Zoom(cmd.Steps)
	case remote.OpReset:
		return v.Reset()
	}
	logging.Logger().Warn("unknown remote command", "op", cmd.Op)
	return false
}

// Tick is called once per displayed frame. It collects a finished pass
// without blocking and starts the next one when the view has changed and no
// pass is running. It returns the newly published frame, or nil.
//
// Stale passes are dropped. Any other render error is fatal.
func (v *Viewer) Tick() (*Frame, error) {
	v.fps.tick(v.now())

	var published *Frame
	select {
	case res := <-v.results:
		f, err := v.receive(res)
		if err != nil {
			return nil, err
		}
		published = f
	default:
	}

	if !v.inflight && v.ctrl.Pending() {
		v.dispatch()
	}
	return published, nil
}

// Flush blocks until the published frame matches the current view.
func (v *Viewer) Flush(ctx context.Context) (*Frame, error) {
	for {
		if !v.inflight {
			if !v.ctrl.Pending() {
				return v.frame, nil
			}
			v.dispatch()
		}

		select {
		case res := <-v.results:
			if _, err := v.receive(res); err != nil {
				return nil, err
			}
		case <-ctx.Done():
			return nil, context.Cause(ctx)
		}
	}
}

func (v *Viewer) dispatch() {
	width, height := v.ctrl.RenderSize()
	req := render.Request{
		View:   v.ctrl.State(),
		Width:  width,
		Height: height,
		Token:  v.gen.Token(),
	}
	tier := v.ctrl.Tier()

	v.ctrl.MarkDispatched()
	v.inflight = true
	go func() {
		img, err := v.raster.Render(v.ctx, req)
		v.results <- result{img: img, req: req, tier: tier, err: err}
	}()
}

func (v *Viewer) receive(res result) (*Frame, error) {
	v.inflight = false

	switch {
	case errors.Is(res.err, render.ErrStale):
		return nil, nil
	case res.err != nil:
		return nil, fmt.Errorf("render failed: %w", res.err)
	case !res.req.Token.Current():
		logging.Logger().Debug("render pass finished stale", "generation", res.req.Token.ID())
		return nil, nil
	}

	v.frame = &Frame{
		Image:      res.img,
		View:       res.req.View,
		Generation: res.req.Token.ID(),
		Tier:       res.tier,
	}
	return v.frame, nil
}
