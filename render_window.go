package main

import (
	"context"
	"fmt"
	"image"
	"time"

	"github.com/go-gl/gl/v4.6-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/stewi1014/glmandel/logging"
	"github.com/stewi1014/glmandel/overlay"
	"github.com/stewi1014/glmandel/remote"
)

func glfwMain(ctx context.Context, opts options, server *remote.Server) error {
	if err := glfw.Init(); err != nil {
		return fmt.Errorf("glfw.Init failed: %w", err)
	}
	defer glfw.Terminate()

	sess, err := newSession(ctx, opts, server)
	if err != nil {
		return err
	}

	w, err := NewGLFWWindow(opts.config.Width, opts.config.Height, sess)
	if err != nil {
		return err
	}
	defer w.Destroy()
	defer sess.releaseGL()

	return w.run(ctx, opts.config.FPS)
}

func NewGLFWWindow(width, height int, sess *session) (*GLFWWindow, error) {
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 6)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.Resizable, glfw.False)
	window, err := glfw.CreateWindow(
		width,
		height,
		overlay.Title,
		nil,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("glfw.CreateWindow failed: %w", err)
	}

	w := &GLFWWindow{
		Window: window,
		sess:   sess,
	}

	w.MakeContextCurrent()
	if err := gl.Init(); err != nil {
		w.Destroy()
		return nil, fmt.Errorf("gl.Init failed: %w", err)
	}
	glfw.SwapInterval(1)

	if err := sess.initGL(); err != nil {
		w.Destroy()
		return nil, err
	}
	fbWidth, fbHeight := w.GetFramebufferSize()
	gl.Viewport(0, 0, int32(fbWidth), int32(fbHeight))

	if icon, err := appIcon(iconSize); err != nil {
		logging.Logger().Warn("window icon", "err", err)
	} else {
		w.SetIcon([]image.Image{icon})
	}

	w.SetFramebufferSizeCallback(w.resize)
	w.SetMouseButtonCallback(w.button)
	w.SetCursorPosCallback(w.cursor)
	w.SetScrollCallback(w.scroll)
	w.SetKeyCallback(w.key)

	return w, nil
}

// GLFWWindow is the default backend: one window, input from GLFW callbacks,
// frames paced by a ticker at the configured rate.
type GLFWWindow struct {
	*glfw.Window
	sess *session
}

func (w *GLFWWindow) run(ctx context.Context, fps int) error {
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	for !w.ShouldClose() {
		glfw.PollEvents()
		if ctx.Err() != nil {
			return context.Cause(ctx)
		}

		if err := w.sess.tick(); err != nil {
			return err
		}
		if title, changed := w.sess.windowTitle(); changed {
			w.SetTitle(title)
		}

		w.sess.draw()
		w.SwapBuffers()

		select {
		case <-ticker.C:
		case <-ctx.Done():
		}
	}
	return nil
}

func (w *GLFWWindow) resize(_ *glfw.Window, width, height int) {
	gl.Viewport(0, 0, int32(width), int32(height))
}

func (w *GLFWWindow) button(_ *glfw.Window, button glfw.MouseButton, action glfw.Action, _ glfw.ModifierKey) {
	if button != glfw.MouseButtonLeft {
		return
	}

	switch action {
	case glfw.Press:
		x, y := w.GetCursorPos()
		w.sess.viewer.PointerPress(x, y)
	case glfw.Release:
		w.sess.viewer.PointerRelease()
	}
}

func (w *GLFWWindow) cursor(_ *glfw.Window, x, y float64) {
	w.sess.viewer.PointerMove(x, y)
}

func (w *GLFWWindow) scroll(_ *glfw.Window, _, yoff float64) {
	x, y := w.GetCursorPos()
	w.sess.viewer.Scroll(x, y, yoff)
}

func (w *GLFWWindow) key(_ *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
	if action != glfw.Press {
		return
	}

	switch key {
	case glfw.KeyEscape:
		w.SetShouldClose(true)
	case glfw.KeyR:
		w.sess.viewer.Reset()
	}
}
