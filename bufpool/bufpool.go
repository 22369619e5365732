// Package bufpool names the memory-pool capability a Connector can be
// configured with. Selecting a pool only changes which []byte allocator
// backs a connection's read scratch buffer; write buffers are not drawn from
// it. It carries no other behavior, so
// a minimal sync.Pool-backed default is all this module implements — wiring
// a custom allocator (e.g. a slab or arena pool) is left to the caller by
// satisfying this interface.
package bufpool

import "sync"

// Pool hands out and reclaims scratch buffers. Get may return a buffer with
// arbitrary leftover contents; callers use its full length as read space.
type Pool interface {
	Get() []byte
	Put([]byte)
}

// Default is a small sync.Pool-backed Pool returning buffers sized bufSize
// (0 reuses a reasonable default).
type Default struct {
	pool *sync.Pool
}

// NewDefault constructs a Default pool handing out buffers of bufSize bytes
// (16KiB if bufSize <= 0).
func NewDefault(bufSize int) *Default {
	if bufSize <= 0 {
		bufSize = 16 * 1024
	}
	return &Default{
		pool: &sync.Pool{
			New: func() any { return make([]byte, bufSize) },
		},
	}
}

func (d *Default) Get() []byte {
	return d.pool.Get().([]byte)
}

func (d *Default) Put(b []byte) {
	d.pool.Put(b)
}
