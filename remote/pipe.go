package remote

import (
	"net"
	"sync"
)

// NewPipeListener returns a listener that accepts exactly one in-process
// connection, and the client end of that connection.
func NewPipeListener() (client net.Conn, listener net.Listener) {
	clientPipe, listenerPipe := net.Pipe()
	return clientPipe, &pipeListener{
		pipe: listenerPipe,
		done: make(chan struct{}),
	}
}

type pipeListener struct {
	mu       sync.Mutex
	pipe     net.Conn
	accepted bool

	once sync.Once
	done chan struct{}
}

func (p *pipeListener) Accept() (net.Conn, error) {
	p.mu.Lock()
	if !p.accepted {
		p.accepted = true
		p.mu.Unlock()
		return p.pipe, nil
	}
	p.mu.Unlock()

	<-p.done
	return nil, net.ErrClosed
}

// Close stops Accept. An accepted connection stays open until closed by its owner.
func (p *pipeListener) Close() error {
	p.once.Do(func() {
		close(p.done)
	})

	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.accepted {
		p.accepted = true
		return p.pipe.Close()
	}
	return nil
}

func (p *pipeListener) Addr() net.Addr {
	return p.pipe.LocalAddr()
}
