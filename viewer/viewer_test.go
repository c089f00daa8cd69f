package viewer

import (
	"context"
	"errors"
	"image/color"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stewi1014/glmandel/remote"
	"github.com/stewi1014/glmandel/render"
	"github.com/stewi1014/glmandel/view"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Width, cfg.Height = 64, 36
	cfg.Workers = 3
	return cfg
}

func newViewer(t *testing.T, cfg Config, opts ...render.Option) *Viewer {
	t.Helper()
	v, err := New(context.Background(), cfg, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return v
}

func flush(t *testing.T, v *Viewer) *Frame {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	f, err := v.Flush(ctx)
	if err != nil {
		t.Fatalf("Flush: %v", err)
	}
	return f
}

// =============================================================================
// Config
// =============================================================================

func TestConfig_Validate(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("DefaultConfig().Validate() = %v", err)
	}

	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"zero width", func(c *Config) { c.Width = 0 }},
		{"negative height", func(c *Config) { c.Height = -1 }},
		{"zero fps", func(c *Config) { c.FPS = 0 }},
		{"negative workers", func(c *Config) { c.Workers = -1 }},
		{"zero preview", func(c *Config) { c.PreviewDivisor = 0 }},
		{"zoom factor", func(c *Config) { c.ZoomFactor = 1 }},
		{"view width", func(c *Config) { c.ViewWidth = 0 }},
		{"min iterations", func(c *Config) { c.MinIterations = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() = nil, want error")
			}
			if _, err := New(context.Background(), cfg); err == nil {
				t.Error("New accepted an invalid config")
			}
		})
	}
}

func TestConfig_Params(t *testing.T) {
	p := DefaultConfig().Params()
	if p.MinWidth != MinWidth {
		t.Errorf("MinWidth = %v, want %v", p.MinWidth, MinWidth)
	}
	if p.MaxWidth != 3.5*MaxWidthFactor {
		t.Errorf("MaxWidth = %v, want %v", p.MaxWidth, 3.5*MaxWidthFactor)
	}
	if p.ScreenWidth != 1280 || p.ScreenHeight != 720 {
		t.Errorf("screen = %dx%d", p.ScreenWidth, p.ScreenHeight)
	}
}

// =============================================================================
// Viewer
// =============================================================================

func TestViewer_FirstFrame(t *testing.T) {
	cfg := testConfig()
	v := newViewer(t, cfg)

	if !v.Rendering() {
		t.Error("new viewer should have a render pending")
	}

	f := flush(t, v)
	if f == nil {
		t.Fatal("no frame published")
	}
	if got := f.Image.Rect.Size(); got.X != cfg.Width || got.Y != cfg.Height {
		t.Errorf("frame size = %v, want %dx%d", got, cfg.Width, cfg.Height)
	}
	if f.View != v.State() || f.Tier != view.Full || f.Generation != 0 {
		t.Errorf("frame = %+v", f)
	}
	if v.Rendering() {
		t.Error("Rendering() after flush")
	}
	if v.Frame() != f {
		t.Error("Frame() does not return the published frame")
	}

	// Centre of the initial view is interior.
	if got := f.Image.RGBAAt(cfg.Width/2, cfg.Height/2); got != (color.RGBA{A: 0xff}) {
		t.Errorf("centre pixel = %v", got)
	}
}

func TestViewer_TickPublishesOnce(t *testing.T) {
	v := newViewer(t, testConfig())

	deadline := time.Now().Add(10 * time.Second)
	var frames int
	for v.Rendering() {
		if time.Now().After(deadline) {
			t.Fatal("timed out")
		}
		f, err := v.Tick()
		if err != nil {
			t.Fatal(err)
		}
		if f != nil {
			frames++
		}
		time.Sleep(time.Millisecond)
	}

	if frames != 1 {
		t.Errorf("published %d frames, want 1", frames)
	}
	for i := 0; i < 5; i++ {
		if f, _ := v.Tick(); f != nil {
			t.Fatal("idle viewer published another frame")
		}
	}
}

func TestViewer_StaleFrameDiscarded(t *testing.T) {
	gate := make(chan struct{})
	var gated atomic.Bool
	gated.Store(true)

	v := newViewer(t, testConfig(), render.WithPixelFunc(func(c mgl64.Vec2, maxIter int) color.RGBA {
		if gated.Load() {
			<-gate
		}
		return render.Mandelbrot(c, maxIter)
	}))

	// Start the first pass, then change the view while it is blocked.
	if f, err := v.Tick(); f != nil || err != nil {
		t.Fatalf("Tick() = %v, %v", f, err)
	}
	if !v.Scroll(32, 18, 3) {
		t.Fatal("Scroll reported no change")
	}
	if v.Generation() != 1 {
		t.Fatalf("Generation() = %d, want 1", v.Generation())
	}

	gated.Store(false)
	close(gate)

	f := flush(t, v)
	if f.Generation != 1 {
		t.Errorf("published generation %d, want 1", f.Generation)
	}
	if f.View != v.State() {
		t.Errorf("published view %+v, want %+v", f.View, v.State())
	}
}

func TestViewer_PreviewWhilePanning(t *testing.T) {
	cfg := testConfig()
	v := newViewer(t, cfg)
	flush(t, v)

	if v.PointerPress(10, 10) {
		t.Error("press should not change the view")
	}
	if !v.PointerMove(20, 15) {
		t.Fatal("move reported no change")
	}
	if v.Mode() != view.Panning {
		t.Fatalf("Mode() = %v", v.Mode())
	}

	f := flush(t, v)
	want := [2]int{cfg.Width / cfg.PreviewDivisor, cfg.Height / cfg.PreviewDivisor}
	if got := f.Image.Rect.Size(); got.X != want[0] || got.Y != want[1] {
		t.Errorf("preview size = %v, want %v", got, want)
	}
	if f.Tier != view.Preview {
		t.Errorf("Tier = %v, want Preview", f.Tier)
	}

	if !v.PointerRelease() {
		t.Fatal("release reported no change")
	}
	f = flush(t, v)
	if got := f.Image.Rect.Size(); got.X != cfg.Width || got.Y != cfg.Height || f.Tier != view.Full {
		t.Errorf("after release size = %v tier = %v", got, f.Tier)
	}
	if v.Generation() != 2 {
		t.Errorf("Generation() = %d, want 2", v.Generation())
	}
}

func TestViewer_Apply(t *testing.T) {
	v := newViewer(t, testConfig())
	initial := v.State()

	center := mgl64.Vec2{-0.743643, 0.131825}
	if !v.Apply(remote.Goto(center, 0.01)) {
		t.Fatal("goto reported no change")
	}
	if s := v.State(); s.Center != center || s.Width != 0.01 || s.Iterations <= initial.Iterations {
		t.Errorf("after goto state = %+v", s)
	}

	before := v.State()
	if !v.Apply(remote.Zoom(2)) {
		t.Fatal("zoom reported no change")
	}
	s := v.State()
	if !(s.Width < before.Width) {
		t.Errorf("zoom in width %v, want below %v", s.Width, before.Width)
	}
	if !s.Center.ApproxEqualThreshold(before.Center, 1e-12) {
		t.Errorf("zoom moved the centre from %v to %v", before.Center, s.Center)
	}

	if !v.Apply(remote.Reset()) {
		t.Fatal("reset reported no change")
	}
	if v.State() != initial {
		t.Errorf("after reset state = %+v, want %+v", v.State(), initial)
	}
	if v.Apply(remote.Command{Op: 42}) {
		t.Error("unknown op reported a change")
	}
	if v.Generation() != 3 {
		t.Errorf("Generation() = %d, want 3", v.Generation())
	}

	f := flush(t, v)
	if f.View != initial {
		t.Errorf("frame view = %+v", f.View)
	}
}

func TestViewer_Status(t *testing.T) {
	v := newViewer(t, testConfig())

	st := v.Status()
	if !st.Rendering || st.Generation != 0 || st.View != v.State() {
		t.Errorf("Status() = %+v", st)
	}

	flush(t, v)
	v.Zoom(1)
	flush(t, v)
	st = v.Status()
	if st.Rendering || st.Generation != 1 {
		t.Errorf("Status() = %+v", st)
	}
}

func TestViewer_WorkerPanicIsFatal(t *testing.T) {
	v := newViewer(t, testConfig(), render.WithPixelFunc(func(mgl64.Vec2, int) color.RGBA {
		panic("boom")
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_, err := v.Flush(ctx)
	if !errors.Is(err, render.ErrWorkerPanic) {
		t.Errorf("Flush() = %v, want ErrWorkerPanic", err)
	}
}

func TestViewer_Cancelled(t *testing.T) {
	cause := errors.New("window closed")
	ctx, cancel := context.WithCancelCause(context.Background())
	cancel(cause)

	v, err := New(ctx, testConfig())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := v.Flush(context.Background()); !errors.Is(err, cause) {
		t.Errorf("Flush() = %v, want %v", err, cause)
	}
}

func TestFPSMeter(t *testing.T) {
	var m fpsMeter
	start := time.Unix(1000, 0)

	m.tick(start)
	for i := 1; i <= 30; i++ {
		m.tick(start.Add(time.Duration(i) * time.Second / 30))
	}
	if got := m.Rate(); got < 29.9 || got > 30.1 {
		t.Errorf("Rate() = %v, want 30", got)
	}

	// Half the rate over the next second.
	next := start.Add(time.Second)
	for i := 1; i <= 15; i++ {
		m.tick(next.Add(time.Duration(i) * time.Second / 15))
	}
	if got := m.Rate(); got < 14.9 || got > 15.1 {
		t.Errorf("Rate() = %v, want 15", got)
	}
}

func TestViewer_FPS(t *testing.T) {
	v := newViewer(t, testConfig())
	clock := time.Unix(0, 0)
	v.now = func() time.Time { return clock }

	for i := 0; i <= 61; i++ {
		if _, err := v.Tick(); err != nil {
			t.Fatal(err)
		}
		clock = clock.Add(time.Second / 60)
	}
	if got := v.FPS(); got < 59 || got > 61 {
		t.Errorf("FPS() = %v, want 60", got)
	}
}
