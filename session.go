package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/stewi1014/glmandel/overlay"
	"github.com/stewi1014/glmandel/remote"
	"github.com/stewi1014/glmandel/viewer"
)

// session is the state shared by both window backends: the viewer, the
// remote server it answers to, the status overlay and, once the window has
// a GL context, the blitter.
type session struct {
	viewer  *viewer.Viewer
	server  *remote.Server
	overlay *overlay.Overlay
	blitter *blitter
	debug   bool

	status remote.Status
	title  string
}

func newSession(ctx context.Context, opts options, server *remote.Server) (*session, error) {
	v, err := viewer.New(ctx, opts.config)
	if err != nil {
		return nil, err
	}

	o, err := overlay.New(opts.config.Width, opts.config.Height)
	if err != nil {
		return nil, err
	}

	return &session{
		viewer:  v,
		server:  server,
		overlay: o,
		debug:   opts.debug,
	}, nil
}

// initGL creates the blitter. The window's GL context must be current.
func (s *session) initGL() error {
	b, err := newBlitter(s.debug)
	if err != nil {
		return fmt.Errorf("blitter setup failed: %w", err)
	}
	s.blitter = b
	return nil
}

func (s *session) releaseGL() {
	if s.blitter != nil {
		s.blitter.delete()
		s.blitter = nil
	}
}

// tick advances one display frame and uploads anything new. It returns a
// non-nil error only when rendering failed.
func (s *session) tick() error {
	s.applyCommands()

	frame, err := s.viewer.Tick()
	if err != nil {
		return err
	}
	if frame != nil {
		s.blitter.uploadFrame(frame.Image)
	}

	status := s.viewer.Status()
	if status != s.status {
		s.status = status
		s.server.Publish(status)
	}
	if s.overlay.Draw(status.Lines(), status.FPS) {
		s.blitter.uploadOverlay(s.overlay.Image())
	}
	return nil
}

func (s *session) applyCommands() {
	for {
		select {
		case cmd := <-s.server.Commands():
			s.viewer.Apply(cmd)
		default:
			return
		}
	}
}

func (s *session) draw() {
	s.blitter.draw()
}

// windowTitle returns the title for the current view, and whether it changed
// since the last call.
func (s *session) windowTitle() (string, bool) {
	title := overlay.Title + " - " + strings.Join(s.viewer.State().Status().Lines(), "  ")
	if title == s.title {
		return title, false
	}
	s.title = title
	return title, true
}
