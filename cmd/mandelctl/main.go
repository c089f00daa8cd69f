// mandelctl drives a running glmandel viewer over its websocket remote control.
//
//	mandelctl [-addr ws://localhost:8080/ws] goto <real> <imag> <width>
//	mandelctl zoom <steps>
//	mandelctl reset
//	mandelctl status
//	mandelctl watch
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stewi1014/glmandel/remote"
)

func main() {
	log.SetFlags(0)
	if err := run(os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		log.Fatalf("mandelctl: %v", err)
	}
}

type action int

const (
	actionSend action = iota
	actionStatus
	actionWatch
)

type invocation struct {
	addr    string
	timeout time.Duration
	action  action
	command remote.Command
}

func parseArgs(args []string, output io.Writer) (invocation, error) {
	inv := invocation{}

	fs := flag.NewFlagSet("mandelctl", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.StringVar(&inv.addr, "addr", "ws://localhost:8080"+remote.WebsocketPath, "viewer remote control URL")
	fs.DurationVar(&inv.timeout, "timeout", 10*time.Second, "how long to wait for the viewer to finish rendering")
	fs.Usage = func() {
		fmt.Fprintln(output, "usage: mandelctl [flags] goto <real> <imag> <width> | zoom <steps> | reset | status | watch")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return invocation{}, err
	}

	args = fs.Args()
	if len(args) == 0 {
		fs.Usage()
		return invocation{}, errors.New("missing command")
	}

	numbers := func(want int) ([]float64, error) {
		if len(args)-1 != want {
			return nil, fmt.Errorf("%s takes %d arguments, got %d", args[0], want, len(args)-1)
		}
		values := make([]float64, want)
		for i, s := range args[1:] {
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, fmt.Errorf("%s: %q is not a number", args[0], s)
			}
			values[i] = v
		}
		return values, nil
	}

	switch strings.ToLower(args[0]) {
	case "goto":
		v, err := numbers(3)
		if err != nil {
			return invocation{}, err
		}
		if !(v[2] > 0) {
			return invocation{}, fmt.Errorf("goto: width %v must be positive", v[2])
		}
		inv.command = remote.Goto(mgl64.Vec2{v[0], v[1]}, v[2])
	case "zoom":
		v, err := numbers(1)
		if err != nil {
			return invocation{}, err
		}
		inv.command = remote.Zoom(v[0])
	case "reset":
		if _, err := numbers(0); err != nil {
			return invocation{}, err
		}
		inv.command = remote.Reset()
	case "status":
		if _, err := numbers(0); err != nil {
			return invocation{}, err
		}
		inv.action = actionStatus
	case "watch":
		if _, err := numbers(0); err != nil {
			return invocation{}, err
		}
		inv.action = actionWatch
	default:
		return invocation{}, fmt.Errorf("unknown command %q", args[0])
	}
	return inv, nil
}

func run(args []string, out io.Writer) error {
	inv, err := parseArgs(args, os.Stderr)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	dialContext, cancel := context.WithTimeout(ctx, inv.timeout)
	conn, err := remote.DialWebsocket(dialContext, inv.addr)
	cancel()
	if err != nil {
		return err
	}
	client := remote.NewClient(conn)
	defer client.Close()
	context.AfterFunc(ctx, func() {
		client.Close()
	})

	// The viewer sends its current status to every new client.
	current, err := client.Receive()
	if err != nil {
		return fmt.Errorf("waiting for status: %w", err)
	}

	switch inv.action {
	case actionStatus:
		printStatus(out, current)
		return nil

	case actionWatch:
		for {
			printStatus(out, current)
			current, err = client.Receive()
			if ctx.Err() != nil {
				return nil
			}
			if err != nil {
				return fmt.Errorf("receive: %w", err)
			}
		}
	}

	if err := client.Send(inv.command); err != nil {
		return err
	}
	return awaitRender(ctx, client, current, inv.timeout, out)
}

// awaitRender prints the first status that is newer than before and no longer rendering.
func awaitRender(ctx context.Context, client *remote.Client, before remote.Status, timeout time.Duration, out io.Writer) error {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	statuses := make(chan remote.Status)
	errc := make(chan error, 1)
	go func() {
		for {
			st, err := client.Receive()
			if err != nil {
				errc <- err
				return
			}
			select {
			case statuses <- st:
			case <-ctx.Done():
				return
			}
		}
	}()

	last := before
	for {
		select {
		case st := <-statuses:
			last = st
			if st.Generation > before.Generation && !st.Rendering {
				printStatus(out, st)
				return nil
			}
		case err := <-errc:
			return fmt.Errorf("receive: %w", err)
		case <-deadline.C:
			printStatus(out, last)
			if last.Generation == before.Generation {
				return errors.New("the view did not change")
			}
			return errors.New("timed out waiting for the render to finish")
		case <-ctx.Done():
			return context.Cause(ctx)
		}
	}
}

func printStatus(out io.Writer, st remote.Status) {
	fmt.Fprintf(out, "[%d] %s  (%.0f FPS)\n", st.Generation, strings.Join(st.Lines(), "  "), st.FPS)
}
