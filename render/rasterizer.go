// Package render rasterizes views of the Mandelbrot set in parallel.
package render

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"runtime"
	"runtime/debug"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stewi1014/glmandel/fractal"
	"github.com/stewi1014/glmandel/logging"
	"github.com/stewi1014/glmandel/view"
)

var (
	// ErrStale is returned when the generation advanced before the pass finished.
	// The pass is discarded; it is not a failure.
	ErrStale = errors.New("render pass superseded by a newer view")

	// ErrWorkerPanic wraps a panic raised while filling a band.
	ErrWorkerPanic = errors.New("render worker panicked")

	ErrInvalidSize = errors.New("invalid render size")
)

// PixelFunc colours the complex point c with the given iteration cap.
// It is called concurrently from every worker.
type PixelFunc func(c mgl64.Vec2, maxIter int) color.RGBA

// Mandelbrot is the default PixelFunc: escape time with smooth colouring.
func Mandelbrot(c mgl64.Vec2, maxIter int) color.RGBA {
	return fractal.Color(fractal.Escape(c, maxIter), maxIter)
}

// Request is an immutable description of one render pass.
type Request struct {
	View          view.State
	Width, Height int
	Token         Token
}

// Option configures a Rasterizer.
type Option func(*Rasterizer)

// WithWorkers sets the number of bands a pass is split into.
// Values below 1 select runtime.GOMAXPROCS(0).
func WithWorkers(n int) Option {
	return func(r *Rasterizer) {
		r.workers = n
	}
}

// WithPixelFunc replaces the Mandelbrot colouring.
func WithPixelFunc(f PixelFunc) Option {
	return func(r *Rasterizer) {
		r.pixel = f
	}
}

// Rasterizer fills pixel buffers. Each pass forks one goroutine per band and
// joins them before returning, so no goroutines outlive Render.
//
// Thread safety: Render may be called concurrently; passes share nothing.
type Rasterizer struct {
	workers int
	pixel   PixelFunc
}

// NewRasterizer returns a rasterizer using GOMAXPROCS workers unless configured otherwise.
func NewRasterizer(opts ...Option) *Rasterizer {
	r := &Rasterizer{}
	for _, opt := range opts {
		opt(r)
	}

	if r.workers < 1 {
		r.workers = max(1, runtime.GOMAXPROCS(0))
	}
	if r.pixel == nil {
		r.pixel = Mandelbrot
	}
	return r
}

// Workers returns the number of bands per pass.
func (r *Rasterizer) Workers() int {
	return r.workers
}

// Render fills a Width x Height buffer for req.View.
//
// Workers check req.Token before every row and stop as soon as it is stale,
// so a superseded pass costs at most one more row per worker. If the token
// is stale once all workers have returned, Render returns ErrStale and no
// image. A cancelled ctx stops the pass the same way and returns its cause.
func (r *Rasterizer) Render(ctx context.Context, req Request) (*image.RGBA, error) {
	if req.Width <= 0 || req.Height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, req.Width, req.Height)
	}

	start := time.Now()
	img := image.NewRGBA(image.Rect(0, 0, req.Width, req.Height))
	mapper := req.View.Mapper(req.Width, req.Height)

	bands := Bands(req.Height, r.workers)
	errs := make([]error, len(bands))

	var wg sync.WaitGroup
	wg.Add(len(bands))
	for i, band := range bands {
		i, band := i, band
		go func() {
			defer wg.Done()
			defer recoverWorker(&errs[i])
			r.fillBand(ctx, img, mapper, req, band)
		}()
	}
	wg.Wait()

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	if ctx.Err() != nil {
		return nil, context.Cause(ctx)
	}
	if !req.Token.Current() {
		logging.Logger().Debug("render pass discarded",
			"generation", req.Token.ID(),
			"elapsed", time.Since(start))
		return nil, ErrStale
	}

	logging.Logger().Debug("render pass finished",
		"generation", req.Token.ID(),
		"size", img.Rect.Size(),
		"iterations", req.View.Iterations,
		"bands", len(bands),
		"elapsed", time.Since(start))
	return img, nil
}

func (r *Rasterizer) fillBand(ctx context.Context, img *image.RGBA, mapper view.Mapper, req Request, band Band) {
	maxIter := req.View.Iterations
	for y := band.Start; y < band.End; y++ {
		if !req.Token.Current() || ctx.Err() != nil {
			return
		}

		row := img.Pix[y*img.Stride : y*img.Stride+req.Width*4]
		for x := 0; x < req.Width; x++ {
			c := r.pixel(mapper.ToComplex(float64(x), float64(y)), maxIter)
			row[x*4+0] = c.R
			row[x*4+1] = c.G
			row[x*4+2] = c.B
			row[x*4+3] = c.A
		}
	}
}

func recoverWorker(errp *error) {
	if v := recover(); v != nil {
		err, ok := v.(error)
		if !ok {
			err = fmt.Errorf("panic: %v", v)
		}
		*errp = fmt.Errorf("%w: %w\n%s", ErrWorkerPanic, err, debug.Stack())
	}
}
