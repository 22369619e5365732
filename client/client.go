// Package client implements the Shared Client: a cheaply cloneable handle
// over a pipelining transport/connection. Clones share the same inflight
// FIFO; each Exec call is independent and interleaves freely with Execs from
// sibling clones in submission order.
//
// Where a connection pool hands out exclusive borrowed connections, the
// Shared Client instead hands out reference-counted handles onto one
// always-shared connection.
package client

import (
	"context"

	"github.com/wegj/respclient/command"
	"github.com/wegj/respclient/transport"
)

// Client is a cloneable handle referencing shared transport state. The zero
// value is not usable; construct with New or Clone.
type Client struct {
	t *transport.Transport
}

// New wraps an already-started transport in a Client handle. The caller
// transfers its reference: the transport already carries a refcount of 1 on
// return from transport.New, and this Client becomes the owner of that
// count. Used by package connector once the handshake completes.
func New(t *transport.Transport) *Client {
	return &Client{t: t}
}

// Clone returns an independent handle sharing the same transport. The
// transport's reference count is incremented; Close must be called exactly
// once per handle (original and every clone) for the transport to shut down
// when the last one goes away.
func (c *Client) Clone() *Client {
	c.t.Retain()
	return &Client{t: c.t}
}

// Close releases this handle's reference. Once every handle sharing a
// transport has been closed, the transport drains and shuts down — this
// substitutes for the reference-dropping semantics a language with
// destructors would give for free.
func (c *Client) Close() {
	c.t.Release()
}

// IsConnected reports whether the underlying transport is still Open.
func (c *Client) IsConnected() bool {
	return c.t.IsConnected()
}

// Exec sends cmd, awaits exactly one response, and applies the Command
// contract to it. Go methods cannot be generic, so Exec is a free function
// taking the Client as its first argument (mirrors command.Resolve).
//
// Cancelling ctx does not retract the submission: the request has already
// been encoded and queued by the time Exec blocks on the response, so the
// caller simply stops waiting — the eventual reply (or PeerGone) is still
// consumed from the FIFO by whichever goroutine delivers it, preserving
// ordering for every other waiter.
func Exec[O any](ctx context.Context, c *Client, cmd command.Command[O]) (O, error) {
	var zero O
	ch, err := c.t.Submit(cmd.ToRequest())
	if err != nil {
		return zero, command.Protocol(err)
	}
	select {
	case res := <-ch:
		if res.Err != nil {
			return zero, command.Protocol(res.Err)
		}
		return command.Resolve(cmd, res.Response)
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}
