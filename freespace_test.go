package recio

import "testing"

func TestSize2ListIoRecidBucketing(t *testing.T) {
	if got, want := size2ListIoRecid(1), int64(ioFreeRecid)*8+8; got != want {
		t.Errorf("bucket(1) = %d, want %d", got, want)
	}
	if got, want := size2ListIoRecid(16), int64(ioFreeRecid)*8+8; got != want {
		t.Errorf("bucket(16) = %d, want %d", got, want)
	}
	if got, want := size2ListIoRecid(17), int64(ioFreeRecid)*8+8+8; got != want {
		t.Errorf("bucket(17) = %d, want %d", got, want)
	}
}

func TestFreePhysPutTakeRoundTrip(t *testing.T) {
	opts := DefaultOptions()
	opts.SpaceReclaimMode = SpaceReclaimTrackAndReuse
	s := newTestStore(t, opts)
	s.structuralLock.Lock()
	defer s.structuralLock.Unlock()

	offset, err := s.freePhysTake(100, true)
	if err != nil {
		t.Fatal(err)
	}
	pp, err := EncodePP(100, offset, false, false, false)
	if err != nil {
		t.Fatal(err)
	}

	beforeFree := s.freeSize
	if err := s.freePhysPut(pp); err != nil {
		t.Fatal(err)
	}
	if s.freeSize != beforeFree+int64(roundUp16(100)) {
		t.Errorf("freeSize = %d, want %d", s.freeSize, beforeFree+int64(roundUp16(100)))
	}

	reused, err := s.freePhysTake(100, true)
	if err != nil {
		t.Fatal(err)
	}
	if reused != offset {
		t.Errorf("reused offset = %d, want %d (exact-bucket reuse)", reused, offset)
	}
}

func TestFreePhysTakeNoReuseWhenModeTrackOnly(t *testing.T) {
	opts := DefaultOptions()
	opts.SpaceReclaimMode = SpaceReclaimTrackOnly
	s := newTestStore(t, opts)
	s.structuralLock.Lock()
	defer s.structuralLock.Unlock()

	offset, err := s.freePhysTake(100, true)
	if err != nil {
		t.Fatal(err)
	}
	pp, err := EncodePP(100, offset, false, false, false)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.freePhysPut(pp); err != nil {
		t.Fatal(err)
	}

	next, err := s.freePhysTake(100, true)
	if err != nil {
		t.Fatal(err)
	}
	if next == offset {
		t.Error("track-only mode must not reuse freed extents")
	}
}

func TestFreePhysPutNoopWhenReclaimDisabled(t *testing.T) {
	opts := DefaultOptions()
	opts.SpaceReclaimMode = SpaceReclaimNone
	s := newTestStore(t, opts)
	s.structuralLock.Lock()
	defer s.structuralLock.Unlock()

	offset, err := s.freePhysTake(100, true)
	if err != nil {
		t.Fatal(err)
	}
	pp, err := EncodePP(100, offset, false, false, false)
	if err != nil {
		t.Fatal(err)
	}
	beforeFree := s.freeSize
	if err := s.freePhysPut(pp); err != nil {
		t.Fatal(err)
	}
	if s.freeSize != beforeFree {
		t.Errorf("freeSize changed under SpaceReclaimNone: %d -> %d", beforeFree, s.freeSize)
	}
}

func TestFreeIoRecidTakeGrowsWhenEmpty(t *testing.T) {
	s := newTestStore(t, DefaultOptions())
	s.structuralLock.Lock()
	defer s.structuralLock.Unlock()

	before := s.indexSize
	slot, err := s.freeIoRecidTake(true)
	if err != nil {
		t.Fatal(err)
	}
	if slot != before {
		t.Errorf("slot = %d, want %d", slot, before)
	}
	if s.indexSize != before+8 {
		t.Errorf("indexSize = %d, want %d", s.indexSize, before+8)
	}
}

func TestFreeIoRecidPutTakeReuse(t *testing.T) {
	opts := DefaultOptions()
	opts.SpaceReclaimMode = SpaceReclaimTrackAndReuse
	s := newTestStore(t, opts)
	s.structuralLock.Lock()
	defer s.structuralLock.Unlock()

	slot, err := s.freeIoRecidTake(true)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.freeIoRecidPut(slot); err != nil {
		t.Fatal(err)
	}
	reused, err := s.freeIoRecidTake(true)
	if err != nil {
		t.Fatal(err)
	}
	if reused != slot {
		t.Errorf("reused = %d, want %d", reused, slot)
	}
}
