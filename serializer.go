package recio

import (
	"bytes"
	"fmt"
	"io"
)

// Serializer converts between a domain value of type A and its byte
// encoding. Deserialize must consume exactly size bytes from r.
type Serializer[A any] interface {
	Serialize(w io.Writer, v A) error
	Deserialize(r io.Reader, size int) (A, error)
}

// RawSerializer passes byte slices through unchanged; it is the
// serializer used by GetRaw/UpdateRaw and by tests and CLI tooling that
// operate directly on bytes.
type RawSerializer struct{}

func (RawSerializer) Serialize(w io.Writer, v []byte) error {
	_, err := w.Write(v)
	return err
}

func (RawSerializer) Deserialize(r io.Reader, size int) ([]byte, error) {
	buf := make([]byte, size)
	n, err := io.ReadFull(r, buf)
	if err != nil && err != io.EOF {
		return nil, err
	}
	if n != size {
		return nil, WrapError(ErrInternal, fmt.Errorf("serializer consumed %d bytes, want %d", n, size))
	}
	return buf, nil
}

// serializeWith runs s.Serialize into a recycled buffer and returns the
// buffer. The caller must return the buffer to the pool (via pool.put)
// once the bytes have been copied into phys.
func serializeWith[A any](pool *scratchPool, v A, s Serializer[A]) (*bytes.Buffer, error) {
	buf := pool.get()
	if err := s.Serialize(buf, v); err != nil {
		pool.put(buf)
		return nil, err
	}
	return buf, nil
}
