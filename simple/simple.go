// Package simple implements the Simple Client: a handle that owns a framed
// stream exclusively. Unlike the Shared Client's pipelining transport, at
// most one request is ever outstanding, so no inflight FIFO is needed — the
// same stream is reused, in the same goroutine, for request/response traffic
// and (once subscribed) for demultiplexed pub/sub push frames.
package simple

import (
	"bytes"
	"errors"
	"net"

	"go.uber.org/zap"

	"github.com/wegj/respclient/bufpool"
	"github.com/wegj/respclient/command"
	"github.com/wegj/respclient/resp"
)

// SimpleClient owns conn exclusively. It is not safe for concurrent Exec/Send
// calls from multiple goroutines — exactly one request is ever outstanding,
// so none is needed.
type SimpleClient struct {
	conn net.Conn
	log  *zap.SugaredLogger
	pool bufpool.Pool

	readBuf bytes.Buffer
	scratch []byte
}

// New wraps an already-connected stream. log may be nil. The scratch read
// buffer is a plain allocation; use NewWithPool to source it from a
// bufpool.Pool instead.
func New(conn net.Conn, log *zap.SugaredLogger) *SimpleClient {
	return NewWithPool(conn, log, nil)
}

// NewWithPool is New, but the scratch buffer used to read off the stream is
// borrowed from pool instead of allocated directly. A nil pool behaves
// exactly like New.
func NewWithPool(conn net.Conn, log *zap.SugaredLogger, pool bufpool.Pool) *SimpleClient {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	scratch := make([]byte, 16*1024)
	if pool != nil {
		scratch = pool.Get()
	}
	return &SimpleClient{conn: conn, log: log, pool: pool, scratch: scratch}
}

// Close releases any pooled resources and closes the underlying stream.
func (c *SimpleClient) Close() error {
	if c.pool != nil {
		c.pool.Put(c.scratch)
	}
	return c.conn.Close()
}

// Send writes req to the stream without waiting for a reply. Used for
// fire-and-forget subscribe/unsubscribe frames from a SubscriptionStream.
func (c *SimpleClient) Send(req resp.Request) error {
	var buf bytes.Buffer
	if err := resp.Encode(&buf, req); err != nil {
		return err
	}
	if _, err := c.conn.Write(buf.Bytes()); err != nil {
		return resp.NewPeerGone(err)
	}
	return nil
}

// readFrame blocks until exactly one RESP frame has been decoded from the
// stream, returning any bytes left over for the next call in readBuf.
func (c *SimpleClient) readFrame() (resp.Response, error) {
	for {
		frame, consumed, derr := resp.Decode(c.readBuf.Bytes())
		if derr == nil {
			c.readBuf.Next(consumed)
			return frame, nil
		}
		if !errors.Is(derr, resp.ErrNeedMore) {
			return nil, derr
		}
		n, err := c.conn.Read(c.scratch)
		if n > 0 {
			c.readBuf.Write(c.scratch[:n])
		}
		if err != nil {
			if n > 0 {
				continue
			}
			return nil, resp.NewPeerGone(err)
		}
	}
}

// Exec encodes cmd, writes it, awaits exactly one frame, and applies the
// Command contract to it. A free function, since Go methods cannot be
// generic (mirrors client.Exec and command.Resolve).
func Exec[O any](c *SimpleClient, cmd command.Command[O]) (O, error) {
	var zero O
	if err := c.Send(cmd.ToRequest()); err != nil {
		return zero, command.Protocol(err)
	}
	frame, err := c.readFrame()
	if err != nil {
		return zero, command.Protocol(err)
	}
	return command.Resolve(cmd, frame)
}
