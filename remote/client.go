package remote

import (
	"encoding/gob"
	"fmt"
	"net"
	"reflect"
	"sync"
)

// Client sends commands to a Server and receives its status pushes.
// Send and Receive may be called from different goroutines.
type Client struct {
	conn net.Conn

	sendMu sync.Mutex
	enc    *gob.Encoder

	recvMu sync.Mutex
	dec    *gob.Decoder
}

func NewClient(conn net.Conn) *Client {
	return &Client{
		conn: conn,
		enc:  gob.NewEncoder(conn),
		dec:  gob.NewDecoder(conn),
	}
}

func (c *Client) Send(cmd Command) error {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	var msg interface{} = &cmd
	if err := c.enc.Encode(&msg); err != nil {
		return fmt.Errorf("send %v: %w", cmd.Op, err)
	}
	return nil
}

// Receive blocks until the next status arrives.
func (c *Client) Receive() (Status, error) {
	c.recvMu.Lock()
	defer c.recvMu.Unlock()

	var v interface{}
	if err := c.dec.Decode(&v); err != nil {
		return Status{}, err
	}
	st, ok := v.(*Status)
	if !ok {
		return Status{}, fmt.Errorf("unexpected message %v", reflect.TypeOf(v))
	}
	return *st, nil
}

func (c *Client) Close() error {
	return c.conn.Close()
}
