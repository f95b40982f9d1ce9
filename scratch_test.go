package recio

import (
	"bytes"
	"testing"
)

func TestScratchPoolReuse(t *testing.T) {
	p := newScratchPool(4)
	b := p.get()
	b.WriteString("hello")
	p.put(b)

	b2 := p.get()
	if b2.Len() != 0 {
		t.Errorf("recycled buffer should be reset, len=%d", b2.Len())
	}
}

func TestScratchPoolDropsOverCapacity(t *testing.T) {
	p := newScratchPool(2)
	for i := 0; i < 5; i++ {
		p.put(new(bytes.Buffer))
	}
	count := 0
	for {
		select {
		case <-p.buffers:
			count++
		default:
			if count > 2 {
				t.Fatalf("pool held %d buffers, capacity was 2", count)
			}
			return
		}
	}
}
