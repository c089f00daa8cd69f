package main

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"runtime/debug"

	"github.com/gotk3/gotk3/glib"
	"github.com/gotk3/gotk3/gtk"
	"github.com/stewi1014/glmandel/logging"
)

// CatchPanicToContext turns a panic in the calling goroutine into a cancel
// cause carrying the stack. Use it deferred.
func CatchPanicToContext(ctxCancel context.CancelCauseFunc) {
	if v := recover(); v != nil {
		err, ok := v.(error)
		if !ok {
			err = fmt.Errorf("panic: %v", v)
		}
		err = fmt.Errorf("%w\n%v", err, string(debug.Stack()))
		if ctxCancel != nil {
			ctxCancel(err)
		}
	}
}

// WrapErrorDialog returns a signal handler that reports failures in a dialog
// instead of quitting.
func WrapErrorDialog(parent *gtk.ApplicationWindow, heading string, failable func() error) func() {
	return func() {
		if err := failable(); err != nil {
			logging.Logger().Warn("action failed", "err", err)
			glib.IdleAdd(func() {
				NewErrorDialog(parent, heading, err)
			})
		}
	}
}

// NewErrorDialog blocks in a modal dialog showing err. The text is
// selectable so stack traces can be copied out.
func NewErrorDialog(parent *gtk.ApplicationWindow, heading string, err error) {
	where := "unknown caller"
	if _, file, line, ok := runtime.Caller(1); ok {
		where = fmt.Sprintf("%s:%d", filepath.Base(file), line)
	}

	dialog := gtk.MessageDialogNew(
		parent,
		gtk.DIALOG_DESTROY_WITH_PARENT|gtk.DIALOG_MODAL,
		gtk.MESSAGE_ERROR,
		gtk.BUTTONS_CLOSE,
		"%s", heading,
	)
	dialog.FormatSecondaryText("%s\n\n(%s)", err.Error(), where)
	dialog.Connect("response", dialog.Destroy)

	if messageArea, err := dialog.GetMessageArea(); err == nil {
		messageArea.GetChildren().Foreach(func(item interface{}) {
			if widget, ok := item.(*gtk.Widget); ok {
				if l, err := gtk.WidgetToLabel(widget); err == nil {
					l.SetSelectable(true)
				}
			}
		})
	}

	dialog.SetKeepAbove(true)
	dialog.Run()
}
