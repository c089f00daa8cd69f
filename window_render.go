package main

import (
	"context"
	"fmt"

	"github.com/go-gl/gl/v4.6-core/gl"
	"github.com/gotk3/gotk3/gdk"
	"github.com/gotk3/gotk3/glib"
	"github.com/gotk3/gotk3/gtk"
	"github.com/stewi1014/glmandel/logging"
)

func NewRenderWindow(
	app *gtk.Application,
	sess *session,
	ctx context.Context,
	quit context.CancelCauseFunc,
	fps int,
) (*RenderWindow, error) {
	var err error
	w := &RenderWindow{
		sess: sess,
		ctx:  ctx,
		quit: quit,
		fps:  fps,
	}

	w.ApplicationWindow, err = gtk.ApplicationWindowNew(app)
	if err != nil {
		return nil, fmt.Errorf("gtk.ApplicationWindowNew: %w", err)
	}
	w.SetResizable(false)

	w.gla, err = gtk.GLAreaNew()
	if err != nil {
		return nil, fmt.Errorf("gtk.GLAreaNew: %w", err)
	}

	w.gla.SetSizeRequest(sess.overlay.Image().Rect.Dx(), sess.overlay.Image().Rect.Dy())
	w.gla.SetRequiredVersion(4, 6)
	w.gla.Connect("realize", w.glaRealize)
	w.gla.Connect("render", w.glaRender)
	w.gla.Connect("unrealize", w.glaUnrealize)

	w.gla.SetEvents(
		int(gdk.BUTTON_PRESS_MASK) |
			int(gdk.BUTTON_RELEASE_MASK) |
			int(gdk.POINTER_MOTION_MASK) |
			int(gdk.SCROLL_MASK),
	)
	w.gla.Connect("scroll-event", w.scroll)
	w.gla.Connect("button-press-event", w.button)
	w.gla.Connect("button-release-event", w.button)
	w.gla.Connect("motion-notify-event", w.motion)

	w.Add(w.gla)
	w.ShowAll()

	return w, nil
}

// RenderWindow shows the fractal in a GtkGLArea. Frames are driven by a
// GLib timeout on the GTK main loop.
type RenderWindow struct {
	*gtk.ApplicationWindow
	gla *gtk.GLArea

	sess *session
	ctx  context.Context
	quit context.CancelCauseFunc
	fps  int

	// ticking is cleared to stop the frame timeout.
	ticking bool
}

func (w *RenderWindow) glaRealize(gla *gtk.GLArea) {
	defer CatchPanicToContext(w.quit)
	gla.MakeCurrent()

	if err := gl.Init(); err != nil {
		w.fail(fmt.Errorf("gl.Init: %w", err))
		return
	}
	if err := w.sess.initGL(); err != nil {
		w.fail(err)
		return
	}

	w.ticking = true
	glib.TimeoutAdd(max(uint(1000/w.fps), 1), w.tick)
}

func (w *RenderWindow) glaRender(gla *gtk.GLArea) bool {
	if w.sess.blitter == nil {
		return false
	}
	gla.AttachBuffers()
	w.sess.draw()
	return true
}

func (w *RenderWindow) glaUnrealize(gla *gtk.GLArea) {
	w.ticking = false
	gla.MakeCurrent()
	w.sess.releaseGL()
}

// tick runs on the GTK main loop once per frame.
func (w *RenderWindow) tick() bool {
	defer CatchPanicToContext(w.quit)
	if !w.ticking || w.ctx.Err() != nil {
		return false
	}

	w.gla.MakeCurrent()
	if err := w.sess.tick(); err != nil {
		w.ticking = false
		w.fail(err)
		return false
	}
	if title, changed := w.sess.windowTitle(); changed {
		w.SetTitle(title)
	}

	w.gla.QueueRender()
	return true
}

// fail shows err and quits once the dialog is dismissed.
func (w *RenderWindow) fail(err error) {
	logging.Logger().Error("render window failed", "err", err)
	NewErrorDialog(w.ApplicationWindow, "The viewer stopped", err)
	w.quit(err)
}

func (w *RenderWindow) button(gla *gtk.GLArea, event *gdk.Event) {
	button := gdk.EventButtonNewFromEvent(event)
	if button.Button() != gdk.BUTTON_PRIMARY {
		return
	}

	switch button.Type() {
	case gdk.EVENT_BUTTON_PRESS:
		w.sess.viewer.PointerPress(button.X(), button.Y())
	case gdk.EVENT_BUTTON_RELEASE:
		w.sess.viewer.PointerRelease()
	}
}

func (w *RenderWindow) motion(gla *gtk.GLArea, event *gdk.Event) {
	x, y := gdk.EventMotionNewFromEvent(event).MotionVal()
	w.sess.viewer.PointerMove(x, y)
}

func (w *RenderWindow) scroll(gla *gtk.GLArea, event *gdk.Event) {
	scroll := gdk.EventScrollNewFromEvent(event)

	var steps float64
	switch scroll.Direction() {
	case gdk.SCROLL_UP:
		steps = 1
	case gdk.SCROLL_DOWN:
		steps = -1
	case gdk.SCROLL_SMOOTH:
		steps = -scroll.DeltaY()
	default:
		return
	}

	w.sess.viewer.Scroll(scroll.X(), scroll.Y(), steps)
}
