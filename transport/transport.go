// Package transport implements the pipelining transport: it owns a single
// duplex byte stream and multiplexes many concurrent callers over it,
// matching the k-th response the server sends back to the k-th request that
// was actually written to the wire.
//
// Shaped after a pooled request/reply connection to another node: the same
// "write request, read exactly one reply, hand it back" contract, generalized
// from a small connection pool doing one blocking round trip at a time into
// a single connection multiplexing an unbounded number of concurrent
// round trips via a FIFO.
package transport

import (
	"bytes"
	"errors"
	"io"
	"net"
	"sync"
	"sync/atomic"

	"github.com/eapache/channels"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wegj/respclient/bufpool"
	"github.com/wegj/respclient/resp"
)

// State is the transport's lifecycle: Open while both the read and write
// loops are active, Draining once a decode error, peer close, or the last
// client handle going away has been observed, Closed once the stream has
// been shut down. Reaching Closed does not wait for the loops to exit.
type State int32

const (
	Open State = iota
	Draining
	Closed
)

func (s State) String() string {
	switch s {
	case Open:
		return "open"
	case Draining:
		return "draining"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}

// Result is what an inflight FIFO slot eventually receives: exactly one of
// a decoded response or an error, in FIFO order with the requests that were
// written to the socket.
type Result struct {
	Response resp.Response
	Err      error
}

// Transport owns the byte stream and the inflight FIFO. Submit
// (encode-and-enqueue) happens under a short, non-blocking critical
// section; the actual socket write is done by a dedicated writer goroutine
// so that a slow flush never blocks a concurrent caller's Submit call.
type Transport struct {
	id   uuid.UUID
	conn net.Conn
	log  *zap.SugaredLogger

	mu       sync.Mutex
	writeBuf bytes.Buffer
	fifo     []chan Result
	state    State
	pool     bufpool.Pool
	readTmp  []byte

	// wake carries one token per Submit call that appended to writeBuf; it is
	// the unbounded submission signal — backpressure is applied only where
	// the writer goroutine actually touches the socket, never on the sender.
	wake *channels.InfiniteChannel

	refCount   int32
	closeOnce  sync.Once
	writerDone chan struct{}
	readerDone chan struct{}
	closed     chan struct{}
}

// New takes ownership of conn and starts the writer and reader loops. The
// returned Transport has a reference count of 1; callers that want to share
// it across multiple client handles must Retain/Release accordingly (see
// package client). The read buffer is a plain allocation; use NewWithPool to
// source it from a bufpool.Pool instead.
func New(conn net.Conn, log *zap.SugaredLogger) *Transport {
	return NewWithPool(conn, log, nil)
}

// NewWithPool is New, but the per-connection scratch buffer used to read off
// the socket is borrowed from pool (returned on shutdown) instead of
// allocated directly. A nil pool behaves exactly like New.
func NewWithPool(conn net.Conn, log *zap.SugaredLogger, pool bufpool.Pool) *Transport {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	t := &Transport{
		id:         uuid.New(),
		conn:       conn,
		log:        log.With("conn", shortID(uuid.New())),
		wake:       channels.NewInfiniteChannel(),
		refCount:   1,
		writerDone: make(chan struct{}),
		readerDone: make(chan struct{}),
		closed:     make(chan struct{}),
		pool:       pool,
	}
	if pool != nil {
		t.readTmp = pool.Get()
	} else {
		t.readTmp = make([]byte, 16*1024)
	}
	go t.writeLoop()
	go t.readLoop()
	return t
}

func shortID(id uuid.UUID) string {
	s := id.String()
	if len(s) > 8 {
		return s[:8]
	}
	return s
}

// State reports the transport's current lifecycle state.
func (t *Transport) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// IsConnected reports whether the transport is still Open.
func (t *Transport) IsConnected() bool {
	return t.State() == Open
}

// Submit encodes req and appends a FIFO slot for its response, all under one
// short critical section. If the transport is not Open, it fails fast with
// a PeerGoneError and does not enqueue. If encode itself fails (a codec
// invariant violation), the caller is failed immediately and the failed
// encode does not consume an inflight slot or affect sibling submissions.
func (t *Transport) Submit(req resp.Request) (<-chan Result, error) {
	t.mu.Lock()
	if t.state != Open {
		t.mu.Unlock()
		return nil, resp.NewPeerGone(nil)
	}
	mark := t.writeBuf.Len()
	if err := resp.Encode(&t.writeBuf, req); err != nil {
		t.writeBuf.Truncate(mark)
		t.mu.Unlock()
		return nil, err
	}
	ch := make(chan Result, 1)
	t.fifo = append(t.fifo, ch)
	t.mu.Unlock()

	// Never blocks: InfiniteChannel absorbs any number of pending wakes.
	t.wake.In() <- struct{}{}
	return ch, nil
}

// Retain increments the transport's reference count. Used by Client.Clone.
func (t *Transport) Retain() {
	atomic.AddInt32(&t.refCount, 1)
}

// Release decrements the transport's reference count; at zero, it begins
// the same drain-and-close sequence as a detected failure, but with a nil
// cause (a clean, caller-initiated shutdown rather than an error). This
// stands in for "the last Client handle was dropped" in a language without
// destructors.
func (t *Transport) Release() {
	if atomic.AddInt32(&t.refCount, -1) == 0 {
		t.shutdown(nil)
	}
}

func (t *Transport) writeLoop() {
	defer close(t.writerDone)
	out := t.wake.Out()
	for {
		_, ok := <-out
		if !ok {
			return
		}
		drainPending(out)

		t.mu.Lock()
		if t.writeBuf.Len() == 0 {
			t.mu.Unlock()
			continue
		}
		data := make([]byte, t.writeBuf.Len())
		copy(data, t.writeBuf.Bytes())
		t.writeBuf.Reset()
		t.mu.Unlock()

		if _, err := t.conn.Write(data); err != nil {
			t.shutdown(resp.NewPeerGone(err))
			return
		}
	}
}

// drainPending coalesces any wake tokens that piled up while we were
// holding the lock and flushing, so one flush can serve many Submit calls.
func drainPending(out <-chan interface{}) {
	for {
		select {
		case _, ok := <-out:
			if !ok {
				return
			}
		default:
			return
		}
	}
}

func (t *Transport) readLoop() {
	defer close(t.readerDone)
	defer func() {
		if t.pool != nil {
			t.pool.Put(t.readTmp)
		}
	}()
	var buf bytes.Buffer
	for {
		n, err := t.conn.Read(t.readTmp)
		if n > 0 {
			buf.Write(t.readTmp[:n])
		}
		for {
			frame, consumed, derr := resp.Decode(buf.Bytes())
			if errors.Is(derr, resp.ErrNeedMore) {
				break
			}
			if derr != nil {
				t.shutdown(derr)
				return
			}
			buf.Next(consumed)
			t.deliver(frame)
		}
		if err != nil {
			var cause error
			if !errors.Is(err, io.EOF) {
				cause = err
			}
			t.shutdown(resp.NewPeerGone(cause))
			return
		}
	}
}

func (t *Transport) deliver(frame resp.Response) {
	ch, ok := t.popFIFO()
	if !ok {
		t.log.Warnw("dropped response: no inflight waiter", "frame", frame)
		return
	}
	ch <- Result{Response: frame}
}

func (t *Transport) popFIFO() (chan Result, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.fifo) == 0 {
		return nil, false
	}
	ch := t.fifo[0]
	t.fifo = t.fifo[1:]
	return ch, true
}

// shutdown runs the failure-propagation sequence exactly once: deliver
// cause to the head of the FIFO (if any), then drain the remainder with a
// PeerGoneError clone, then shut the stream down.
func (t *Transport) shutdown(cause error) {
	t.closeOnce.Do(func() {
		t.mu.Lock()
		t.state = Draining
		pending := t.fifo
		t.fifo = nil
		t.mu.Unlock()

		if len(pending) > 0 {
			head := pending[0]
			if cause != nil {
				head <- Result{Err: cause}
			} else {
				head <- Result{Err: resp.NewPeerGone(nil)}
			}
			peerGone := asPeerGone(cause).Clone()
			for _, ch := range pending[1:] {
				ch <- Result{Err: peerGone}
			}
		}

		if cause != nil {
			t.log.Infow("transport shutting down", "cause", cause)
		} else {
			t.log.Debugw("transport shutting down", "cause", "local close")
		}

		t.wake.Close()
		_ = t.conn.Close()

		t.mu.Lock()
		t.state = Closed
		t.mu.Unlock()
		close(t.closed)
	})
}

// Done returns a channel that closes once the transport has finished
// draining and shut down its stream. Useful for tests asserting the
// disconnection-drain property.
func (t *Transport) Done() <-chan struct{} {
	return t.closed
}

func asPeerGone(cause error) *resp.PeerGoneError {
	var pg *resp.PeerGoneError
	if errors.As(cause, &pg) {
		return pg
	}
	return resp.NewPeerGone(cause)
}
