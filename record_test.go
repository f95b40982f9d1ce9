package recio

import (
	"bytes"
	"testing"
)

func TestPutGetRoundTrip(t *testing.T) {
	s := newTestStore(t, DefaultOptions())

	recid, err := Put(s, []byte("hello"), RawSerializer{})
	if err != nil {
		t.Fatal(err)
	}
	if recid != 1 {
		t.Errorf("first recid = %d, want 1 (S1 scenario)", recid)
	}

	got, err := Get(s, recid, RawSerializer{})
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, []byte("hello")) {
		t.Errorf("got %q, want %q", got, "hello")
	}
	if s.GetMaxRecid() != 1 {
		t.Errorf("GetMaxRecid() = %d, want 1", s.GetMaxRecid())
	}
}

func TestPutGetVariousSizes(t *testing.T) {
	s := newTestStore(t, DefaultOptions())
	sizes := []int{0, 1, 16, 65534, 65535, 65536, 100000}

	recids := make(map[int]uint64)
	payloads := make(map[int][]byte)
	for _, n := range sizes {
		p := make([]byte, n)
		for i := range p {
			p[i] = byte(i)
		}
		r, err := Put(s, p, RawSerializer{})
		if err != nil {
			t.Fatalf("Put(size=%d): %v", n, err)
		}
		recids[n] = r
		payloads[n] = p
	}
	for _, n := range sizes {
		got, err := Get(s, recids[n], RawSerializer{})
		if err != nil {
			t.Fatalf("Get(size=%d): %v", n, err)
		}
		if !bytes.Equal(got, payloads[n]) {
			t.Fatalf("size %d: payload mismatch", n)
		}
	}
}

func TestUpdateOverwrites(t *testing.T) {
	opts := DefaultOptions()
	opts.SpaceReclaimMode = SpaceReclaimTrackAndReuse
	s := newTestStore(t, opts)

	r, err := Put(s, []byte("original"), RawSerializer{})
	if err != nil {
		t.Fatal(err)
	}
	before := s.GetFreeSize()

	if err := Update(s, r, []byte("replacement value"), RawSerializer{}); err != nil {
		t.Fatal(err)
	}
	got, err := Get(s, r, RawSerializer{})
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, []byte("replacement value")) {
		t.Errorf("got %q after update", got)
	}
	if s.GetFreeSize() <= before {
		t.Errorf("expected GetFreeSize to increase after update frees old extent: before=%d after=%d", before, s.GetFreeSize())
	}
}

func TestDeleteVanishes(t *testing.T) {
	opts := DefaultOptions()
	opts.SpaceReclaimMode = SpaceReclaimTrackAndReuse
	s := newTestStore(t, opts)

	r, err := Put(s, []byte("gone soon"), RawSerializer{})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Delete(r); err != nil {
		t.Fatal(err)
	}
	_, err = Get(s, r, RawSerializer{})
	if !IsNotFound(err) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestRecidReuseWithTracking(t *testing.T) {
	opts := DefaultOptions()
	opts.SpaceReclaimMode = SpaceReclaimTrackAndReuse
	s := newTestStore(t, opts)

	r1, err := Put(s, []byte("a"), RawSerializer{})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Delete(r1); err != nil {
		t.Fatal(err)
	}
	r2, err := Put(s, []byte("b"), RawSerializer{})
	if err != nil {
		t.Fatal(err)
	}
	if r2 != r1 {
		t.Errorf("expected LIFO reuse: r1=%d r2=%d", r1, r2)
	}
}

func TestRecidStrictlyIncreasesWithoutTracking(t *testing.T) {
	opts := DefaultOptions()
	opts.SpaceReclaimMode = SpaceReclaimNone
	s := newTestStore(t, opts)

	r1, err := Put(s, []byte("a"), RawSerializer{})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Delete(r1); err != nil {
		t.Fatal(err)
	}
	r2, err := Put(s, []byte("b"), RawSerializer{})
	if err != nil {
		t.Fatal(err)
	}
	if r2 <= r1 {
		t.Errorf("expected strictly increasing recids without tracking: r1=%d r2=%d", r1, r2)
	}
}

func TestCompareAndSwap(t *testing.T) {
	s := newTestStore(t, DefaultOptions())

	r, err := Put(s, []byte("a"), RawSerializer{})
	if err != nil {
		t.Fatal(err)
	}

	ok, err := CompareAndSwap(s, r, []byte("b"), []byte("c"), RawSerializer{})
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("expected CAS(b,c) to fail against current value a")
	}
	got, _ := Get(s, r, RawSerializer{})
	if !bytes.Equal(got, []byte("a")) {
		t.Errorf("value changed after failed CAS: %q", got)
	}

	ok, err = CompareAndSwap(s, r, []byte("a"), []byte("c"), RawSerializer{})
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Error("expected CAS(a,c) to succeed")
	}
	got, _ = Get(s, r, RawSerializer{})
	if !bytes.Equal(got, []byte("c")) {
		t.Errorf("value = %q after successful CAS, want c", got)
	}
}

func TestGetOutOfRangeRecidInvalid(t *testing.T) {
	s := newTestStore(t, DefaultOptions())
	if _, err := Put(s, []byte("x"), RawSerializer{}); err != nil {
		t.Fatal(err)
	}
	_, err := Get(s, 999, RawSerializer{})
	if Code(err) != ErrInvalidRecid {
		t.Errorf("expected ErrInvalidRecid for out-of-range recid, got %v", err)
	}
}

func TestGetRecidZeroInvalid(t *testing.T) {
	s := newTestStore(t, DefaultOptions())
	_, err := Get(s, 0, RawSerializer{})
	if Code(err) != ErrInvalidRecid {
		t.Errorf("expected ErrInvalidRecid for recid 0, got %v", err)
	}
}

func TestGetRawUpdateRaw(t *testing.T) {
	s := newTestStore(t, DefaultOptions())
	r, err := Put(s, []byte("raw value"), RawSerializer{})
	if err != nil {
		t.Fatal(err)
	}
	raw, err := s.GetRaw(r)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(raw, []byte("raw value")) {
		t.Errorf("GetRaw = %q", raw)
	}
	if err := s.UpdateRaw(r, []byte("new raw")); err != nil {
		t.Fatal(err)
	}
	raw, err = s.GetRaw(r)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(raw, []byte("new raw")) {
		t.Errorf("GetRaw after UpdateRaw = %q", raw)
	}
}

func TestReadOnlyStoreRejectsMutation(t *testing.T) {
	opts := DefaultOptions()
	opts.ReadOnly = true
	s := newTestStore(t, opts)

	if _, err := Put(s, []byte("x"), RawSerializer{}); Code(err) != ErrReadOnly {
		t.Errorf("expected ErrReadOnly, got %v", err)
	}
}

func TestOperationsAfterCloseFail(t *testing.T) {
	s, err := Open(NewMemVolumeFactory(), DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	r, err := Put(s, []byte("x"), RawSerializer{})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := Get(s, r, RawSerializer{}); !IsClosed(err) {
		t.Errorf("expected ErrClosed after Close, got %v", err)
	}
}
