package connector

import (
	"bufio"
	"context"
	"errors"
	"net"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wegj/respclient/bufpool"
	"github.com/wegj/respclient/command/redcmd"
	"github.com/wegj/respclient/resp"
	"github.com/wegj/respclient/simple"
)

// countingPool wraps a bufpool.Pool and records how often each method is
// called, so a test can prove a Connector actually threaded its configured
// pool down to the connection it built instead of falling back to a plain
// allocation.
type countingPool struct {
	bufpool.Pool
	gets int
	puts int
}

func (p *countingPool) Get() []byte {
	p.gets++
	return p.Pool.Get()
}

func (p *countingPool) Put(b []byte) {
	p.puts++
	p.Pool.Put(b)
}

// fixedDialer returns the same conn (or err) for every Dial call — enough
// for tests where a connector only ever connects once.
type fixedDialer struct {
	conn net.Conn
	err  error
}

func (d fixedDialer) Dial(ctx context.Context, address string) (net.Conn, error) {
	return d.conn, d.err
}

func TestConnector_AuthFallbackSucceedsOnSecondCandidate(t *testing.T) {
	clientConn, server := net.Pipe()
	serverDone := make(chan struct{})
	go func() {
		defer close(serverDone)
		r := bufio.NewReader(server)
		readFrame(t, r) // AUTH bad
		server.Write([]byte("-ERR invalid password\r\n"))
		readFrame(t, r) // AUTH good
		server.Write([]byte("+OK\r\n"))
	}()

	c := New(WithDialer(fixedDialer{conn: clientConn}), WithPassword("bad"), WithPassword("good"))
	sc, err := c.ConnectSimple(context.Background(), "ignored:0")
	require.NoError(t, err)
	require.NotNil(t, sc)
	<-serverDone
}

func TestConnector_AuthFailsWithOnlyBadCandidate(t *testing.T) {
	clientConn, server := net.Pipe()
	serverDone := make(chan struct{})
	go func() {
		defer close(serverDone)
		r := bufio.NewReader(server)
		readFrame(t, r)
		server.Write([]byte("-ERR invalid password\r\n"))
	}()

	c := New(WithDialer(fixedDialer{conn: clientConn}), WithPassword("bad"))
	_, err := c.ConnectSimple(context.Background(), "ignored:0")
	require.Error(t, err)
	var ce *ConnectError
	require.True(t, errors.As(err, &ce))
	require.Equal(t, KindUnauthorized, ce.Kind)
	<-serverDone
}

func TestConnector_NoPasswordsSkipsHandshake(t *testing.T) {
	clientConn, _ := net.Pipe()
	c := New(WithDialer(fixedDialer{conn: clientConn}))
	cl, err := c.Connect(context.Background(), "ignored:0")
	require.NoError(t, err)
	require.NotNil(t, cl)
	t.Cleanup(cl.Close)
}

func TestConnector_DialFailureSurfacesAsConnect(t *testing.T) {
	dialErr := errors.New("boom")
	c := New(WithDialer(fixedDialer{err: dialErr}))
	_, err := c.ConnectSimple(context.Background(), "ignored:0")
	require.Error(t, err)
	var ce *ConnectError
	require.True(t, errors.As(err, &ce))
	require.Equal(t, KindConnect, ce.Kind)
	require.ErrorIs(t, err, dialErr)
}

func TestConnector_BufferPoolSourcesScratchBuffers(t *testing.T) {
	clientConn, server := net.Pipe()
	serverDone := make(chan struct{})
	go func() {
		defer close(serverDone)
		r := bufio.NewReader(server)
		readFrame(t, r) // SET
		server.Write([]byte("+OK\r\n"))
	}()

	pool := &countingPool{Pool: bufpool.NewDefault(4096)}
	c := New(WithDialer(fixedDialer{conn: clientConn}), WithBufferPool(pool))
	sc, err := c.ConnectSimple(context.Background(), "ignored:0")
	require.NoError(t, err)
	require.Equal(t, 1, pool.gets, "ConnectSimple should have borrowed its scratch buffer from the configured pool")

	ok, err := simple.Exec(sc, redcmd.Set{Key: "k", Value: []byte("v")})
	require.NoError(t, err)
	require.True(t, ok)
	<-serverDone

	require.NoError(t, sc.Close())
	require.Equal(t, 1, pool.puts, "Close should return the scratch buffer to the pool")
}

func readFrame(t *testing.T, r *bufio.Reader) {
	t.Helper()
	var buf []byte
	for {
		line, err := r.ReadBytes('\n')
		require.NoError(t, err)
		buf = append(buf, line...)
		_, _, derr := resp.Decode(buf)
		if errors.Is(derr, resp.ErrNeedMore) {
			continue
		}
		require.NoError(t, derr)
		return
	}
}
