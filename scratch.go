package recio

import "bytes"

// scratchPool is a bounded multi-producer/multi-consumer ring of reusable
// *bytes.Buffer values, implemented over a buffered channel used as a
// non-blocking ring: both get and put use select/default so a full or
// empty pool never blocks the caller. Dropping a returned buffer under
// contention (pool full) is acceptable; the caller falls back to
// allocating fresh.
type scratchPool struct {
	buffers chan *bytes.Buffer
}

func newScratchPool(capacity int) *scratchPool {
	return &scratchPool{buffers: make(chan *bytes.Buffer, capacity)}
}

// get returns a recycled buffer, or a freshly allocated one if the pool is
// currently empty.
func (p *scratchPool) get() *bytes.Buffer {
	select {
	case b := <-p.buffers:
		b.Reset()
		return b
	default:
		return new(bytes.Buffer)
	}
}

// put offers b back to the pool; if the pool is full, b is discarded.
func (p *scratchPool) put(b *bytes.Buffer) {
	select {
	case p.buffers <- b:
	default:
	}
}
