package main

import (
	"bytes"
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stewi1014/glmandel/remote"
	"github.com/stewi1014/glmandel/view"
)

func TestParseArgs(t *testing.T) {
	tests := []struct {
		args    []string
		action  action
		command remote.Command
	}{
		{[]string{"goto", "-0.75", "0.1", "0.01"}, actionSend, remote.Goto(mgl64.Vec2{-0.75, 0.1}, 0.01)},
		{[]string{"zoom", "-3"}, actionSend, remote.Zoom(-3)},
		{[]string{"RESET"}, actionSend, remote.Reset()},
		{[]string{"status"}, actionStatus, remote.Command{}},
		{[]string{"-addr", "ws://example:1/ws", "watch"}, actionWatch, remote.Command{}},
	}
	for _, tt := range tests {
		t.Run(strings.Join(tt.args, " "), func(t *testing.T) {
			inv, err := parseArgs(tt.args, io.Discard)
			if err != nil {
				t.Fatal(err)
			}
			if inv.action != tt.action || inv.command != tt.command {
				t.Errorf("parseArgs() = %+v, want action %v command %+v", inv, tt.action, tt.command)
			}
		})
	}
}

func TestParseArgs_Errors(t *testing.T) {
	tests := [][]string{
		{},
		{"goto", "1", "2"},
		{"goto", "1", "2", "0"},
		{"goto", "a", "2", "3"},
		{"zoom"},
		{"reset", "now"},
		{"spin"},
	}
	for _, args := range tests {
		if _, err := parseArgs(args, io.Discard); err == nil {
			t.Errorf("parseArgs(%q) succeeded", args)
		}
	}
}

// fakeViewer answers commands the way a viewer does: a rendering status
// followed by a finished one.
func fakeViewer(t *testing.T) string {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	l := remote.NewWebsocketListener(ctx, "test"+remote.WebsocketPath)
	ts := httptest.NewServer(remote.WebsocketHandler(l))
	t.Cleanup(ts.Close)

	s := remote.NewServer()
	t.Cleanup(func() { s.Close() })
	go s.Serve(ctx, l)

	st := remote.Status{View: view.State{Center: mgl64.Vec2{-0.7, 0}, Width: 3.5, Iterations: 100}}
	s.Publish(st)

	go func() {
		for {
			select {
			case cmd := <-s.Commands():
				if cmd.Op == remote.OpGoto {
					st.View.Center, st.View.Width = cmd.Center, cmd.Width
				}
				st.Generation++
				st.Rendering = true
				s.Publish(st)
				time.Sleep(10 * time.Millisecond)
				st.Rendering = false
				s.Publish(st)
			case <-ctx.Done():
				return
			}
		}
	}()

	return "ws" + strings.TrimPrefix(ts.URL, "http") + remote.WebsocketPath
}

func TestRun_Goto(t *testing.T) {
	addr := fakeViewer(t)

	var out bytes.Buffer
	if err := run([]string{"-addr", addr, "goto", "-0.5", "0.25", "0.01"}, &out); err != nil {
		t.Fatal(err)
	}

	got := out.String()
	for _, want := range []string{"[1]", "Center: (-0.50000, 0.25000)", "Width: 1.000e-02"} {
		if !strings.Contains(got, want) {
			t.Errorf("output %q does not contain %q", got, want)
		}
	}
}

func TestRun_Status(t *testing.T) {
	addr := fakeViewer(t)

	var out bytes.Buffer
	if err := run([]string{"-addr", addr, "status"}, &out); err != nil {
		t.Fatal(err)
	}
	if got := out.String(); !strings.HasPrefix(got, "[0] Center: (-0.70000, 0.00000)") {
		t.Errorf("output = %q", got)
	}
}

func TestRun_DialFailure(t *testing.T) {
	err := run([]string{"-addr", "ws://127.0.0.1:1/ws", "-timeout", "1s", "reset"}, io.Discard)
	if err == nil {
		t.Error("run succeeded without a viewer")
	}
}
