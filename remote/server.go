package remote

import (
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"net"
	"reflect"
	"sync"

	"github.com/stewi1014/glmandel/logging"
)

// ErrServerClosed is returned by Serve after Close.
var ErrServerClosed = errors.New("remote: server closed")

// Server accepts control connections. Commands from every client are merged
// into one channel for the viewer's control loop; statuses are fanned out to
// every client.
type Server struct {
	commands chan Command

	mu      sync.Mutex
	clients map[*serverConn]struct{}
	last    *Status
	closed  bool
	done    chan struct{}
}

func NewServer() *Server {
	return &Server{
		commands: make(chan Command, 64),
		clients:  make(map[*serverConn]struct{}),
		done:     make(chan struct{}),
	}
}

// Commands returns the merged command stream. It is never closed.
func (s *Server) Commands() <-chan Command {
	return s.commands
}

// Serve accepts connections on l until ctx is done, l fails, or the server is closed.
func (s *Server) Serve(ctx context.Context, l net.Listener) error {
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-s.done:
		case <-ctx.Done():
		case <-stop:
		}
		l.Close()
	}()

	logging.Logger().Info("remote control listening", "addr", l.Addr())
	for {
		conn, err := l.Accept()
		if err != nil {
			select {
			case <-s.done:
				return ErrServerClosed
			default:
			}
			if ctx.Err() != nil {
				return context.Cause(ctx)
			}
			return fmt.Errorf("accept: %w", err)
		}

		sc := s.add(conn)
		if sc == nil {
			conn.Close()
			return ErrServerClosed
		}
		go sc.handleSend(ctx)
		go sc.handleReceive(ctx)
	}
}

// Publish queues st for every connected client. A client that is not
// keeping up only receives the latest status.
func (s *Server) Publish(st Status) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.last = &st
	for sc := range s.clients {
		sc.offer(st)
	}
}

// Clients returns the number of connected clients.
func (s *Server) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// Close disconnects every client and stops Serve.
func (s *Server) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.done)
	clients := s.clients
	s.clients = make(map[*serverConn]struct{})
	s.mu.Unlock()

	for sc := range clients {
		sc.close()
	}
	return nil
}

func (s *Server) add(conn net.Conn) *serverConn {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}

	sc := &serverConn{
		server: s,
		conn:   conn,
		status: make(chan Status, 1),
		done:   make(chan struct{}),
	}
	if s.last != nil {
		sc.status <- *s.last
	}
	s.clients[sc] = struct{}{}
	logging.Logger().Info("remote client connected", "remote", conn.RemoteAddr(), "clients", len(s.clients))
	return sc
}

func (s *Server) remove(sc *serverConn, err error) {
	s.mu.Lock()
	_, ok := s.clients[sc]
	delete(s.clients, sc)
	n := len(s.clients)
	s.mu.Unlock()

	sc.close()
	if !ok {
		return
	}
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
		logging.Logger().Warn("remote client dropped", "remote", sc.conn.RemoteAddr(), "err", err, "clients", n)
		return
	}
	logging.Logger().Info("remote client disconnected", "remote", sc.conn.RemoteAddr(), "clients", n)
}

type serverConn struct {
	server *Server
	conn   net.Conn
	status chan Status

	once sync.Once
	done chan struct{}
}

// offer replaces any undelivered status with st. Callers hold server.mu.
func (sc *serverConn) offer(st Status) {
	select {
	case <-sc.status:
	default:
	}
	select {
	case sc.status <- st:
	default:
	}
}

func (sc *serverConn) close() {
	sc.once.Do(func() {
		close(sc.done)
		sc.conn.Close()
	})
}

func (sc *serverConn) handleSend(ctx context.Context) {
	enc := gob.NewEncoder(sc.conn)

	for {
		select {
		case st := <-sc.status:
			var msg interface{} = &st
			if err := enc.Encode(&msg); err != nil {
				sc.server.remove(sc, err)
				return
			}
		case <-sc.done:
			return
		case <-ctx.Done():
			sc.server.remove(sc, nil)
			return
		}
	}
}

func (sc *serverConn) handleReceive(ctx context.Context) {
	dec := gob.NewDecoder(sc.conn)

	for {
		var v interface{}
		if err := dec.Decode(&v); err != nil {
			sc.server.remove(sc, err)
			return
		}

		cmd, ok := v.(*Command)
		if !ok {
			logging.Logger().Warn("unknown message received", "type", reflect.TypeOf(v), "remote", sc.conn.RemoteAddr())
			continue
		}

		select {
		case sc.server.commands <- *cmd:
		case <-sc.done:
			return
		case <-ctx.Done():
			return
		}
	}
}
