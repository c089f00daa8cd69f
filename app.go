package main

import (
	"context"
	"fmt"
	"os"

	"github.com/gotk3/gotk3/gdk"
	"github.com/gotk3/gotk3/glib"
	"github.com/gotk3/gotk3/gtk"
	"github.com/stewi1014/glmandel/logging"
	"github.com/stewi1014/glmandel/overlay"
	"github.com/stewi1014/glmandel/remote"
)

const applicationID = "com.github.stewi1014.glmandel"

func NewApplication() (*Application, error) {
	app, err := gtk.ApplicationNew(applicationID, glib.APPLICATION_FLAGS_NONE)
	if err != nil {
		return nil, fmt.Errorf("gtk.ApplicationNew failed: %w", err)
	}

	a := &Application{
		Application: app,
	}

	if img, err := appIcon(iconSize); err != nil {
		logging.Logger().Warn("window icon", "err", err)
	} else if a.icon, err = PixbufFromImage(img); err != nil {
		logging.Logger().Warn("window icon", "err", err)
	}

	return a, nil
}

type Application struct {
	*gtk.Application
	icon *gdk.Pixbuf
}

// gtkMain runs the GTK backend: a GLArea render window plus a control
// panel window, until either window is closed or ctx is done.
func gtkMain(ctx context.Context, opts options, server *remote.Server) error {
	gtk.Init(&os.Args)
	app, err := NewApplication()
	if err != nil {
		return err
	}

	appContext, appQuit := context.WithCancelCause(ctx)
	app.Connect("activate", func() {
		defer CatchPanicToContext(appQuit)

		sess, err := newSession(appContext, opts, server)
		if err != nil {
			appQuit(err)
			return
		}

		renderWindow, err := NewRenderWindow(app.Application, sess, appContext, appQuit, opts.config.FPS)
		if err != nil {
			appQuit(err)
			return
		}
		renderWindow.Connect("destroy", func() {
			appQuit(nil)
		})
		renderWindow.SetTitle(overlay.Title)

		configWindow, err := NewConfigWindow(app.Application, servePanel(appContext, server, appQuit), appContext, appQuit)
		if err != nil {
			appQuit(err)
			return
		}
		configWindow.Connect("destroy", func() {
			appQuit(nil)
		})
		configWindow.SetTitle(overlay.Title + " Controls")

		if app.icon != nil {
			renderWindow.SetIcon(app.icon)
			configWindow.SetIcon(app.icon)
		}
	})

	go func() {
		<-appContext.Done()
		glib.IdleAdd(app.Quit)
	}()
	app.Run(nil)
	return context.Cause(appContext)
}
