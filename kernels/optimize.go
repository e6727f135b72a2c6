package kernels

import "runtime"

// Pool recycles complex128 scratch buffers between kernel invocations.
type Pool struct {
	buffers chan []complex128
}

// NewPool creates a pool that retains at most size idle buffers.
func NewPool(size int) *Pool {
	if size < 1 {
		size = 1
	}
	return &Pool{buffers: make(chan []complex128, size)}
}

// Get returns a zeroed buffer of length n.
func (p *Pool) Get(n int) []complex128 {
	select {
	case buf := <-p.buffers:
		if cap(buf) >= n {
			buf = buf[:n]
			clear(buf)
			return buf
		}
		// too small, let GC handle it
	default:
	}
	return make([]complex128, n)
}

// Put returns a buffer to the pool.
func (p *Pool) Put(buf []complex128) {
	if buf == nil {
		return
	}
	select {
	case p.buffers <- buf[:0]:
	default:
		// Pool full, let GC handle it
	}
}

var scratch = NewPool(runtime.NumCPU() * 2)

// GetScratch gets a temporary buffer from the shared pool.
func GetScratch(n int) []complex128 {
	return scratch.Get(n)
}

// PutScratch returns a temporary buffer to the shared pool.
func PutScratch(buf []complex128) {
	scratch.Put(buf)
}
