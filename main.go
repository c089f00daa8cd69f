package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/stewi1014/glmandel/logging"
	"github.com/stewi1014/glmandel/remote"
	"github.com/stewi1014/glmandel/viewer"
)

const (
	uiGLFW = "glfw"
	uiGTK  = "gtk"
)

func init() {
	// Window systems want all calls from the main thread.
	runtime.LockOSThread()
}

type options struct {
	config viewer.Config
	ui     string
	listen string
	debug  bool
}

func parseOptions(args []string, output io.Writer) (options, error) {
	opts := options{config: viewer.DefaultConfig()}

	fs := flag.NewFlagSet("glmandel", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.IntVar(&opts.config.Width, "width", opts.config.Width, "window width in pixels")
	fs.IntVar(&opts.config.Height, "height", opts.config.Height, "window height in pixels")
	fs.IntVar(&opts.config.Workers, "workers", opts.config.Workers, "render workers, 0 for one per CPU")
	fs.IntVar(&opts.config.PreviewDivisor, "preview", opts.config.PreviewDivisor, "resolution divisor while dragging, 1 to disable")
	fs.IntVar(&opts.config.FPS, "fps", opts.config.FPS, "display refresh rate")
	fs.StringVar(&opts.ui, "ui", uiGLFW, "window backend: glfw or gtk")
	fs.StringVar(&opts.listen, "listen", "", "serve remote control on this address, e.g. :8080")
	fs.BoolVar(&opts.debug, "debug", false, "debug logging and GL debug output")

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if fs.NArg() > 0 {
		return options{}, fmt.Errorf("unexpected arguments %q", fs.Args())
	}
	if opts.ui != uiGLFW && opts.ui != uiGTK {
		return options{}, fmt.Errorf("unknown ui %q, want %s or %s", opts.ui, uiGLFW, uiGTK)
	}
	if err := opts.config.Validate(); err != nil {
		return options{}, err
	}
	return opts, nil
}

func main() {
	opts, err := parseOptions(os.Args[1:], os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		log.Println(err)
		os.Exit(2)
	}

	level := slog.LevelInfo
	if opts.debug {
		level = slog.LevelDebug
	}
	logging.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	signalContext, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	mainContext, mainQuit := context.WithCancelCause(signalContext)

	server := remote.NewServer()
	defer server.Close()

	if opts.listen != "" {
		go func() {
			defer CatchPanicToContext(mainQuit)
			if err := serveWebsocket(mainContext, server, opts.listen); err != nil {
				mainQuit(err)
			}
		}()
	}

	switch opts.ui {
	case uiGTK:
		mainQuit(gtkMain(mainContext, opts, server))
	default:
		mainQuit(glfwMain(mainContext, opts, server))
	}

	if err := context.Cause(mainContext); err != nil && !errors.Is(err, context.Canceled) {
		log.Println(err)
		os.Exit(1)
	}
}
