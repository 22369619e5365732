package client

import (
	"bufio"
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/wegj/respclient/command"
	"github.com/wegj/respclient/command/redcmd"
	"github.com/wegj/respclient/resp"
	"github.com/wegj/respclient/transport"
)

func newTestClient(t *testing.T) (*Client, net.Conn) {
	t.Helper()
	conn, server := net.Pipe()
	tr := transport.New(conn, nil)
	c := New(tr)
	t.Cleanup(c.Close)
	return c, server
}

func TestClient_CloneSharesOrdering(t *testing.T) {
	c, server := newTestClient(t)
	clone := c.Clone()
	t.Cleanup(clone.Close)

	serverDone := make(chan struct{})
	firstRead := make(chan struct{})
	go func() {
		defer close(serverDone)
		r := bufio.NewReader(server)
		readRequest(t, r)
		close(firstRead)
		server.Write([]byte("+OK\r\n"))
		readRequest(t, r)
		server.Write([]byte("+PONG\r\n"))
	}()

	type setResult struct {
		ok  bool
		err error
	}
	setCh := make(chan setResult, 1)
	go func() {
		ok, err := Exec(context.Background(), c, redcmd.Set{Key: "k", Value: []byte("v")})
		setCh <- setResult{ok, err}
	}()

	// The SET must reach the wire first so that it owns the first reply; the
	// PING is then submitted while the SET is still awaiting its response.
	<-firstRead
	pong, err := Exec(context.Background(), clone, redcmd.Ping{})
	require.NoError(t, err)
	require.Equal(t, []byte("PONG"), pong)

	res := <-setCh
	require.NoError(t, res.err)
	require.True(t, res.ok)
	<-serverDone
}

func TestClient_ExecAfterCloseFailsFast(t *testing.T) {
	c, _ := newTestClient(t)
	c.Close()

	require.Eventually(t, func() bool { return !c.IsConnected() }, time.Second, time.Millisecond)
	_, err := Exec(context.Background(), c, redcmd.Ping{})
	require.Error(t, err)
}

func TestClient_ContextCancelDoesNotBlockCaller(t *testing.T) {
	c, server := newTestClient(t)
	t.Cleanup(func() { server.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Exec(ctx, c, redcmd.Ping{})
	require.ErrorIs(t, err, context.Canceled)
}

func TestClient_DisconnectIsReportedAsPeerGone(t *testing.T) {
	c, server := newTestClient(t)
	server.Close()

	_, err := Exec(context.Background(), c, redcmd.Ping{})
	require.Error(t, err)
	require.True(t, command.IsPeerGone(err), "expected a peer-gone error after disconnect, got %v", err)
}

func readRequest(t *testing.T, r *bufio.Reader) {
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
