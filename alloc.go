package recio

// physAllocate reserves one or more physical extents totaling size bytes
// and returns their PhysPointers in chain order (pps[0] is the head; each
// non-tail entry has LINKED set and its extent begins with an 8-byte
// pointer to the next entry).
func (s *Store) physAllocate(size uint32, ensureAvail bool) ([]PhysPointer, error) {
	if size == 0 {
		return []PhysPointer{0}, nil
	}

	if size < MaxRecSize {
		offset, err := s.freePhysTake(size, ensureAvail)
		if err != nil {
			return nil, err
		}
		pp, err := EncodePP(uint16(size), offset, false, false, false)
		if err != nil {
			return nil, err
		}
		return []PhysPointer{pp}, nil
	}

	var pps []PhysPointer
	remaining := size
	for remaining > 0 {
		last := remaining <= MaxRecSize
		headerCost := uint32(8)
		if last {
			headerCost = 0
		}
		allocSize := remaining
		if allocSize > MaxRecSize {
			allocSize = MaxRecSize
		}
		offset, err := s.freePhysTake(allocSize, ensureAvail)
		if err != nil {
			return nil, err
		}
		pp, err := EncodePP(uint16(allocSize), offset, !last, false, false)
		if err != nil {
			return nil, err
		}
		pps = append(pps, pp)
		remaining -= allocSize - headerCost
	}
	return pps, nil
}

// writePpChain writes payload across the extents described by pps, laying
// down the 8-byte next-PP headers between non-tail extents.
func (s *Store) writePpChain(pps []PhysPointer, payload []byte) error {
	if len(pps) == 1 && !pps[0].Linked() {
		return s.phys.WriteAt(int64(pps[0].Offset()), payload)
	}

	pos := 0
	for i, pp := range pps {
		c := 0
		if pp.Linked() {
			c = 8
		}
		chunkLen := int(pp.Size()) - c
		if err := s.phys.WriteAt(int64(pp.Offset())+int64(c), payload[pos:pos+chunkLen]); err != nil {
			return err
		}
		pos += chunkLen
		if c != 0 {
			if err := s.phys.WriteU64(int64(pp.Offset()), uint64(pps[i+1])); err != nil {
				return err
			}
		}
	}
	return nil
}

// readPpChain reads the full payload described by the chain starting at
// head, following LINKED next-PP headers.
func (s *Store) readPpChain(head PhysPointer) ([]byte, error) {
	if !head.Linked() {
		buf := make([]byte, head.Size())
		if err := s.phys.ReadAt(int64(head.Offset()), buf); err != nil {
			return nil, err
		}
		return buf, nil
	}

	var out []byte
	pp := head
	for {
		c := 0
		if pp.Linked() {
			c = 8
		}
		chunkLen := int(pp.Size()) - c
		chunk := make([]byte, chunkLen)
		if err := s.phys.ReadAt(int64(pp.Offset())+int64(c), chunk); err != nil {
			return nil, err
		}
		out = append(out, chunk...)
		if !pp.Linked() {
			break
		}
		nextWord, err := s.phys.ReadU64(int64(pp.Offset()))
		if err != nil {
			return nil, err
		}
		pp = PhysPointer(nextWord)
	}
	return out, nil
}

// getLinkedChain returns the PPs of every extent in pp's chain after the
// head itself (empty if pp is not linked).
func (s *Store) getLinkedChain(pp PhysPointer) ([]PhysPointer, error) {
	if !pp.Linked() {
		return nil, nil
	}
	var chain []PhysPointer
	cur := pp
	for cur.Linked() {
		nextWord, err := s.phys.ReadU64(int64(cur.Offset()))
		if err != nil {
			return nil, err
		}
		next := PhysPointer(nextWord)
		chain = append(chain, next)
		cur = next
	}
	return chain, nil
}
