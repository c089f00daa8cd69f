package main

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/gotk3/gotk3/glib"
	"github.com/gotk3/gotk3/gtk"
	"github.com/stewi1014/glmandel/logging"
	"github.com/stewi1014/glmandel/remote"
)

func NewConfigWindow(
	app *gtk.Application,
	conn net.Conn,
	ctx context.Context,
	quit context.CancelCauseFunc,
) (*ConfigWindow, error) {
	var err error
	w := &ConfigWindow{
		client:      remote.NewClient(conn),
		ctx:         ctx,
		quit:        quit,
		sendMessage: make(chan remote.Command, 16),
	}

	w.ApplicationWindow, err = gtk.ApplicationWindowNew(app)
	if err != nil {
		return nil, fmt.Errorf("gtk.ApplicationWindowNew: %w", err)
	}
	w.SetDefaultSize(280, 0)

	grid, err := gtk.GridNew()
	if err != nil {
		return nil, fmt.Errorf("gtk.GridNew: %w", err)
	}
	grid.SetRowSpacing(6)
	grid.SetColumnSpacing(6)
	grid.SetBorderWidth(10)

	row := 0
	for _, l := range []**gtk.Label{&w.center, &w.width, &w.iterations, &w.state} {
		*l, _ = gtk.LabelNew("")
		(*l).SetHAlign(gtk.ALIGN_START)
		(*l).SetSelectable(true)
		grid.Attach(*l, 0, row, 2, 1)
		row++
	}

	for _, field := range []struct {
		name  string
		entry **gtk.Entry
	}{
		{"Real", &w.realEntry},
		{"Imaginary", &w.imagEntry},
		{"Width", &w.widthEntry},
	} {
		label, _ := gtk.LabelNew(field.name)
		label.SetHAlign(gtk.ALIGN_START)
		*field.entry, _ = gtk.EntryNew()
		(*field.entry).SetHExpand(true)
		(*field.entry).Connect("activate", WrapErrorDialog(w.ApplicationWindow, "Invalid view", w.gotoEntered))
		grid.Attach(label, 0, row, 1, 1)
		grid.Attach(*field.entry, 1, row, 1, 1)
		row++
	}

	goButton, _ := gtk.ButtonNewWithLabel("Go")
	goButton.Connect("clicked", WrapErrorDialog(w.ApplicationWindow, "Invalid view", w.gotoEntered))
	grid.Attach(goButton, 0, row, 2, 1)
	row++

	zoomIn, _ := gtk.ButtonNewWithLabel("Zoom In")
	zoomIn.Connect("clicked", func() { w.send(remote.Zoom(zoomButtonSteps)) })
	zoomOut, _ := gtk.ButtonNewWithLabel("Zoom Out")
	zoomOut.Connect("clicked", func() { w.send(remote.Zoom(-zoomButtonSteps)) })
	grid.Attach(zoomIn, 0, row, 1, 1)
	grid.Attach(zoomOut, 1, row, 1, 1)
	row++

	reset, _ := gtk.ButtonNewWithLabel("Reset")
	reset.Connect("clicked", func() { w.send(remote.Reset()) })
	grid.Attach(reset, 0, row, 2, 1)

	w.Add(grid)
	w.ShowAll()

	go w.handleSend()
	go w.handleReceive()
	context.AfterFunc(ctx, func() {
		w.client.Close()
	})

	return w, nil
}

// zoomButtonSteps is how many wheel notches one zoom button press is worth.
const zoomButtonSteps = 5

// ConfigWindow is the GTK control panel. It is a remote client like any
// other, connected through an in-process pipe.
type ConfigWindow struct {
	*gtk.ApplicationWindow

	center, width, iterations, state *gtk.Label
	realEntry, imagEntry, widthEntry *gtk.Entry

	client      *remote.Client
	ctx         context.Context
	quit        context.CancelCauseFunc
	sendMessage chan remote.Command
	view        remote.Status
}

func (w *ConfigWindow) gotoEntered() error {
	var values [3]float64
	for i, entry := range []*gtk.Entry{w.realEntry, w.imagEntry, w.widthEntry} {
		text, err := entry.GetText()
		if err != nil {
			return err
		}
		values[i], err = strconv.ParseFloat(strings.TrimSpace(text), 64)
		if err != nil {
			return fmt.Errorf("%q is not a number", text)
		}
	}
	if !(values[2] > 0) {
		return fmt.Errorf("width %v must be positive", values[2])
	}

	w.send(remote.Goto(mgl64.Vec2{values[0], values[1]}, values[2]))
	return nil
}

// send queues cmd without blocking the GTK main loop.
func (w *ConfigWindow) send(cmd remote.Command) {
	select {
	case w.sendMessage <- cmd:
	default:
		logging.Logger().Warn("control panel command dropped", "op", cmd.Op)
	}
}

func (w *ConfigWindow) handleSend() {
	defer CatchPanicToContext(w.quit)

	for {
		select {
		case cmd := <-w.sendMessage:
			if err := w.client.Send(cmd); err != nil {
				w.disconnected(err)
				return
			}
		case <-w.ctx.Done():
			return
		}
	}
}

func (w *ConfigWindow) handleReceive() {
	defer CatchPanicToContext(w.quit)

	for {
		st, err := w.client.Receive()
		if err != nil {
			w.disconnected(err)
			return
		}

		glib.IdleAdd(func() {
			w.update(st)
		})
	}
}

func (w *ConfigWindow) disconnected(err error) {
	if w.ctx.Err() == nil {
		w.quit(fmt.Errorf("control panel disconnected: %w", err))
	}
}

func (w *ConfigWindow) update(st remote.Status) {
	lines := st.View.Status().Lines()
	w.center.SetText(lines[0])
	w.width.SetText(lines[1])
	w.iterations.SetText(lines[2])

	state := fmt.Sprintf("%.0f FPS", st.FPS)
	if st.Rendering {
		state += ", rendering"
	}
	w.state.SetText(state)

	if st.View == w.view.View {
		return
	}
	w.view = st
	for entry, v := range map[*gtk.Entry]float64{
		w.realEntry:  st.View.Center[0],
		w.imagEntry:  st.View.Center[1],
		w.widthEntry: st.View.Width,
	} {
		if !entry.HasFocus() {
			entry.SetText(strconv.FormatFloat(v, 'g', -1, 64))
		}
	}
}
