package recio

// size2ListIoRecid returns the index-file head slot for the free-extent
// LongStack holding extents of the given size's 16-byte-granularity
// bucket.
func size2ListIoRecid(size uint32) int64 {
	bucket := (int64(size) - 1) / 16
	return int64(ioFreeRecid)*8 + 8 + bucket*8
}

// freePhysPut returns a physical extent to the free pool. It is a no-op
// when space-reclaim tracking is disabled.
func (s *Store) freePhysPut(pp PhysPointer) error {
	if s.opts.SpaceReclaimMode == SpaceReclaimNone {
		return nil
	}
	if pp.Size() == 0 {
		// A zero-length record has no phys extent (offset 0 is the phys
		// header, never a real allocation) — nothing to return.
		return nil
	}
	size := pp.Size()
	roundedSize := roundUp16(uint32(size))
	if err := s.lsPush(size2ListIoRecid(uint32(size)), pp.Offset()); err != nil {
		return err
	}
	s.freeSize += int64(roundedSize)
	return nil
}

// freePhysTake reserves size bytes of phys space and returns its offset.
// When reuse is enabled (SpaceReclaimMode >= SpaceReclaimTrackAndReuse) it
// first tries the matching free-extent bucket; otherwise (or on a miss) it
// appends to the end of the phys file.
func (s *Store) freePhysTake(size uint32, ensureAvail bool) (uint64, error) {
	if s.opts.SpaceReclaimMode >= SpaceReclaimTrackAndReuse {
		offset, ok, err := s.lsPop(size2ListIoRecid(size))
		if err != nil {
			return 0, err
		}
		if ok {
			s.freeSize -= int64(roundUp16(size))
			return offset, nil
		}
	}

	// Appending at the current tail is only safe because the phys volume
	// is one flat, contiguously mmap'd region with no page/buffer boundary
	// a chained extent could straddle. A paged or buffered Volume would
	// need to reintroduce a boundary-straddle check here.
	offset := uint64(s.physSize)
	newPhysSize := s.physSize + int64(roundUp16(size))
	if s.opts.SizeLimit > 0 && newPhysSize > s.opts.SizeLimit {
		return 0, WrapError(ErrRecordTooLarge, nil)
	}
	if ensureAvail {
		if err := s.phys.EnsureAvailable(newPhysSize); err != nil {
			return 0, err
		}
	}
	s.physSize = newPhysSize
	return offset, nil
}

// freeIoRecidPut returns a freed index slot (byte offset) to the
// free-recid pool, when tracking is enabled.
func (s *Store) freeIoRecidPut(ioRecid int64) error {
	if s.opts.SpaceReclaimMode == SpaceReclaimNone {
		return nil
	}
	return s.lsPush(int64(ioFreeRecid)*8, uint64(ioRecid))
}

// freeIoRecidTake returns the next available ioRecid, reusing a freed one
// when reuse is enabled (SpaceReclaimMode >= SpaceReclaimTrackAndReuse)
// and one is available, or else growing the index file.
func (s *Store) freeIoRecidTake(ensureAvail bool) (int64, error) {
	if s.opts.SpaceReclaimMode >= SpaceReclaimTrackAndReuse {
		ioRecid, ok, err := s.lsPop(int64(ioFreeRecid) * 8)
		if err != nil {
			return 0, err
		}
		if ok {
			return int64(ioRecid), nil
		}
	}

	newSlot := s.indexSize
	s.indexSize += 8
	if ensureAvail {
		if err := s.index.EnsureAvailable(s.indexSize); err != nil {
			return 0, err
		}
	}
	return newSlot, nil
}

func roundUp16(n uint32) uint32 {
	return (n + 15) &^ 15
}
