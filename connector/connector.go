// Package connector builds authenticated Client/SimpleClient handles from a
// bare address: dial, optionally bind a memory pool, and run the multi
// -candidate AUTH handshake before handing the stream to the requested
// client flavor.
package connector

import (
	"context"
	"errors"
	"net"
	"time"

	"go.uber.org/zap"

	"github.com/wegj/respclient/bufpool"
	"github.com/wegj/respclient/client"
	"github.com/wegj/respclient/command"
	"github.com/wegj/respclient/command/redcmd"
	"github.com/wegj/respclient/simple"
	"github.com/wegj/respclient/transport"
)

// Dialer maps an address to a connected byte stream. TLS, Unix sockets, and
// test doubles are all just other Dialer implementations; net.Dialer backs
// the default.
type Dialer interface {
	Dial(ctx context.Context, address string) (net.Conn, error)
}

// DialerFunc adapts a plain function to a Dialer.
type DialerFunc func(ctx context.Context, address string) (net.Conn, error)

func (f DialerFunc) Dial(ctx context.Context, address string) (net.Conn, error) {
	return f(ctx, address)
}

type netDialer struct {
	d net.Dialer
}

func (n netDialer) Dial(ctx context.Context, address string) (net.Conn, error) {
	return n.d.DialContext(ctx, "tcp", address)
}

// Connector is built once with Options and reused across connections.
type Connector struct {
	dialer            Dialer
	passwords         []string
	pool              bufpool.Pool
	log               *zap.SugaredLogger
	disconnectTimeout time.Duration
}

// Option configures a Connector.
type Option func(*Connector)

// WithPassword appends a candidate password to the ordered AUTH list. Call
// it multiple times to configure a fallback chain.
func WithPassword(password string) Option {
	return func(c *Connector) { c.passwords = append(c.passwords, password) }
}

// WithBufferPool selects the memory pool backing each connection's read
// scratch buffer. Write buffers are not drawn from the pool.
func WithBufferPool(pool bufpool.Pool) Option {
	return func(c *Connector) { c.pool = pool }
}

// WithDialer injects the address-to-stream capability (TLS, Unix sockets,
// test doubles). The default dials plain TCP.
func WithDialer(d Dialer) Option {
	return func(c *Connector) { c.dialer = d }
}

// WithLogger sets the structured logger passed down to the transport/simple
// layers.
func WithLogger(log *zap.SugaredLogger) Option {
	return func(c *Connector) { c.log = log }
}

// WithDisconnectTimeout records a disconnect timeout on the Connector. No
// connection built by this package reads it: shutdown closes the stream at
// once without waiting for pending writes, whatever value is set.
func WithDisconnectTimeout(d time.Duration) Option {
	return func(c *Connector) { c.disconnectTimeout = d }
}

// New builds a Connector from opts.
func New(opts ...Option) *Connector {
	c := &Connector{dialer: netDialer{}}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = zap.NewNop().Sugar()
	}
	return c
}

// Kind identifies which of ConnectError's shapes is populated.
type Kind int

const (
	// KindConnect: the dialer failed, or the connection dropped mid-handshake.
	KindConnect Kind = iota
	// KindUnauthorized: every configured password was rejected.
	KindUnauthorized
	// KindCommand: a non-AUTH command failed during connection setup.
	KindCommand
)

// ConnectError is returned by Connect/ConnectSimple. Exactly one of its
// fields is meaningful, selected by Kind.
type ConnectError struct {
	Kind    Kind
	Connect error
	Command *command.CommandError
}

func (e *ConnectError) Error() string {
	switch e.Kind {
	case KindConnect:
		return "connector: connect failed: " + e.Connect.Error()
	case KindUnauthorized:
		return "connector: unauthorized"
	case KindCommand:
		return "connector: " + e.Command.Error()
	default:
		return "connector: unknown error"
	}
}

func (e *ConnectError) Unwrap() error {
	switch e.Kind {
	case KindConnect:
		return e.Connect
	case KindCommand:
		return e.Command
	default:
		return nil
	}
}

func connectErr(err error) *ConnectError {
	return &ConnectError{Kind: KindConnect, Connect: err}
}

// ConnectSimple dials address and returns an authenticated, exclusive
// SimpleClient.
func (c *Connector) ConnectSimple(ctx context.Context, address string) (*simple.SimpleClient, error) {
	conn, err := c.dialer.Dial(ctx, address)
	if err != nil {
		return nil, connectErr(err)
	}
	sc := simple.NewWithPool(conn, c.log, c.pool)
	if err := c.authenticate(sc); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return sc, nil
}

// Connect dials address and returns an authenticated, pipelined Client.
func (c *Connector) Connect(ctx context.Context, address string) (*client.Client, error) {
	conn, err := c.dialer.Dial(ctx, address)
	if err != nil {
		return nil, connectErr(err)
	}
	if len(c.passwords) > 0 {
		sc := simple.NewWithPool(conn, c.log, c.pool)
		if err := c.authenticate(sc); err != nil {
			_ = conn.Close()
			return nil, err
		}
	}
	tr := transport.NewWithPool(conn, c.log, c.pool)
	return client.New(tr), nil
}

// authenticate runs the AUTH candidate loop over sc. A server error reply
// (wrong password) advances to the next candidate; a transport-level
// failure aborts the whole handshake with KindConnect instead.
func (c *Connector) authenticate(sc *simple.SimpleClient) error {
	if len(c.passwords) == 0 {
		return nil
	}
	for i, password := range c.passwords {
		ok, err := simple.Exec(sc, redcmd.Auth{Password: password})
		if err != nil {
			if isProtocolFailure(err) {
				return connectErr(err)
			}
			c.log.Debugw("auth candidate rejected", "candidate", i)
			continue
		}
		if ok {
			c.log.Debugw("auth candidate accepted", "candidate", i)
			return nil
		}
	}
	return &ConnectError{Kind: KindUnauthorized}
}

func isProtocolFailure(err error) bool {
	var ce *command.CommandError
	if errors.As(err, &ce) {
		return ce.Kind == command.KindProtocol
	}
	return true
}
