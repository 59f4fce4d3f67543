package optimize

import (
	"sync"
)

// BytePool is a pool for reusing byte buffers to reduce allocations on the
// media chunk path.
type BytePool struct {
	pool sync.Pool
	size int
}

// NewBytePool creates a byte pool with the given initial buffer capacity
func NewBytePool(size int) *BytePool {
	return &BytePool{
		size: size,
		pool: sync.Pool{
			New: func() interface{} {
				return make([]byte, 0, size)
			},
		},
	}
}

// Get gets a buffer from the pool
func (p *BytePool) Get() []byte {
	return p.pool.Get().([]byte)
}

// Put returns a buffer to the pool. Oversized buffers are dropped so a
// single large chunk does not pin memory.
func (p *BytePool) Put(b []byte) {
	if cap(b) <= p.size*2 {
		b = b[:0]
		p.pool.Put(b) //nolint:staticcheck
	}
}

// GrowSlice grows a slice to newLen, doubling capacity when reallocating
func GrowSlice[T any](s []T, newLen int) []T {
	if newLen <= cap(s) {
		return s[:newLen]
	}

	newCap := cap(s) * 2
	if newCap < newLen {
		newCap = newLen
	}

	grown := make([]T, newLen, newCap)
	copy(grown, s)
	return grown
}
