package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/stewi1014/glmandel/remote"
)

// serveWebsocket serves the remote control on addr until ctx is done.
func serveWebsocket(ctx context.Context, server *remote.Server, addr string) error {
	l, srv := remote.NewWebServer(ctx, addr)
	defer l.Close()

	errc := make(chan error, 2)
	go func() {
		errc <- srv.ListenAndServe()
	}()
	go func() {
		errc <- server.Serve(ctx, l)
	}()

	var err error
	select {
	case err = <-errc:
	case <-ctx.Done():
	}

	shutdownContext, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
	defer cancel()
	srv.Shutdown(shutdownContext)

	if ctx.Err() != nil || err == nil ||
		errors.Is(err, http.ErrServerClosed) || errors.Is(err, remote.ErrServerClosed) {
		return nil
	}
	return fmt.Errorf("remote control on %s failed: %w", addr, err)
}

// servePanel connects an in-process client to server and returns its end.
// A failure other than shutdown is passed to quit.
func servePanel(ctx context.Context, server *remote.Server, quit context.CancelCauseFunc) net.Conn {
	client, listener := remote.NewPipeListener()
	go func() {
		defer CatchPanicToContext(quit)
		err := server.Serve(ctx, listener)
		if ctx.Err() == nil && !errors.Is(err, remote.ErrServerClosed) {
			quit(fmt.Errorf("control panel connection failed: %w", err))
		}
	}()
	return client
}
