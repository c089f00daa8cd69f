package remote

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/stewi1014/glmandel/logging"
)

// WebsocketPath is where NewWebServer accepts control connections.
const WebsocketPath = "/ws"

// NewWebServer returns an http.Server for addr that upgrades requests on
// WebsocketPath, and the listener those connections are accepted from.
// The caller runs srv.ListenAndServe and passes the listener to Server.Serve.
func NewWebServer(ctx context.Context, addr string) (*WebsocketListener, *http.Server) {
	l := NewWebsocketListener(ctx, addr+WebsocketPath)
	mux := http.NewServeMux()
	mux.HandleFunc(WebsocketPath, WebsocketHandler(l))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return l, srv
}

// WebsocketHandler upgrades the request and hands the connection to l.
func WebsocketHandler(l *WebsocketListener) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: []string{"localhost:*", "127.0.0.1:*"},
		})
		if err != nil {
			logging.Logger().Warn("websocket upgrade failed", "remote", r.RemoteAddr, "err", err)
			return
		}

		select {
		case l.ch <- c:
		case <-l.ctx.Done():
			c.Close(websocket.StatusGoingAway, "viewer shutting down")
		}
	}
}

// WebsocketListener is a net.Listener fed by WebsocketHandler.
type WebsocketListener struct {
	ch     chan *websocket.Conn
	ctx    context.Context
	cancel context.CancelFunc
	once   sync.Once
	addr   wsAddr
}

func NewWebsocketListener(ctx context.Context, addr string) *WebsocketListener {
	ctx, cancel := context.WithCancel(ctx)
	return &WebsocketListener{
		ch:     make(chan *websocket.Conn),
		ctx:    ctx,
		cancel: cancel,
		addr:   wsAddr{addr: addr},
	}
}

func (l *WebsocketListener) Accept() (net.Conn, error) {
	select {
	case c := <-l.ch:
		return websocket.NetConn(l.ctx, c, websocket.MessageBinary), nil
	case <-l.ctx.Done():
		return nil, net.ErrClosed
	}
}

func (l *WebsocketListener) Addr() net.Addr {
	return l.addr
}

func (l *WebsocketListener) Close() error {
	l.once.Do(l.cancel)
	return nil
}

type wsAddr struct {
	addr string
}

func (a wsAddr) Network() string {
	return "ws"
}

func (a wsAddr) String() string {
	return a.addr
}

// DialWebsocket connects to a viewer's control endpoint, e.g. ws://localhost:8080/ws.
func DialWebsocket(ctx context.Context, url string) (net.Conn, error) {
	c, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	return websocket.NetConn(context.WithoutCancel(ctx), c, websocket.MessageBinary), nil
}
