package recio

import "fmt"

// A LongStack is an intrusive LIFO of 48-bit values, chained across
// physical pages. It is addressed by a single index-file head slot (byte
// offset headSlot) holding `(pos<<48)|pageOffset`, where pos is the byte
// offset within the head page of the next value to pop.
//
// lsPush and lsPop both require the caller to already hold structuralLock;
// neither acquires it, since both are called from within allocator paths
// (freePhysPut/freePhysTake) that are themselves invoked while the lock is
// held.

func packHeadWord(pos uint16, pageOffset uint64) uint64 {
	return uint64(pos)<<48 | (pageOffset & MaskOffset)
}

func unpackHeadWord(word uint64) (pos uint16, pageOffset uint64) {
	return uint16(word >> 48), word & MaskOffset
}

func packPageHeader(pageSize uint16, nextOffset uint64) uint64 {
	return uint64(pageSize)<<48 | (nextOffset & MaskOffset)
}

func unpackPageHeader(word uint64) (pageSize uint16, nextOffset uint64) {
	return uint16(word >> 48), word & MaskOffset
}

// lsPop removes and returns the top value of the stack at headSlot. ok is
// false when the stack is empty.
func (s *Store) lsPop(headSlot int64) (value uint64, ok bool, err error) {
	headWord, err := s.index.ReadU64(headSlot)
	if err != nil {
		return 0, false, err
	}
	pos, pageOffset := unpackHeadWord(headWord)
	if pageOffset == 0 {
		return 0, false, nil
	}

	ret, err := s.phys.Read48(int64(pageOffset) + int64(pos))
	if err != nil {
		return 0, false, err
	}

	if pos == longStackFirstPos {
		pageHeaderWord, err := s.phys.ReadU64(int64(pageOffset))
		if err != nil {
			return 0, false, err
		}
		thisPageSize, prevPageOffset := unpackPageHeader(pageHeaderWord)

		if prevPageOffset != 0 {
			prevHeaderWord, err := s.phys.ReadU64(int64(prevPageOffset))
			if err != nil {
				return 0, false, err
			}
			prevSize, _ := unpackPageHeader(prevHeaderWord)
			if (int(prevSize)-8)%longStackValueStride != 0 {
				return 0, false, WrapError(ErrInternal, fmt.Errorf("longstack: misaligned previous page size %d", prevSize))
			}
			newWord := packHeadWord(prevSize-longStackValueStride, prevPageOffset)
			if err := s.index.WriteU64(headSlot, newWord); err != nil {
				return 0, false, err
			}
		} else {
			if err := s.index.WriteU64(headSlot, 0); err != nil {
				return 0, false, err
			}
		}

		emptyPP, err := EncodePP(thisPageSize, pageOffset, false, false, false)
		if err != nil {
			return 0, false, err
		}
		if err := s.freePhysPut(emptyPP); err != nil {
			return 0, false, err
		}
	} else {
		newWord := packHeadWord(pos-longStackValueStride, pageOffset)
		if err := s.index.WriteU64(headSlot, newWord); err != nil {
			return 0, false, err
		}
	}

	return ret, true, nil
}

// lsPush pushes a 48-bit value onto the stack at headSlot.
func (s *Store) lsPush(headSlot int64, value uint64) error {
	headWord, err := s.index.ReadU64(headSlot)
	if err != nil {
		return err
	}
	pos, pageOffset := unpackHeadWord(headWord)

	if pageOffset == 0 {
		newPage, err := s.freePhysTake(LongStackPrefSize, true)
		if err != nil {
			return err
		}
		if err := s.phys.WriteU64(int64(newPage), packPageHeader(LongStackPrefSize, 0)); err != nil {
			return err
		}
		if err := s.phys.Write48(int64(newPage)+longStackFirstPos, value); err != nil {
			return err
		}
		return s.index.WriteU64(headSlot, packHeadWord(longStackFirstPos, newPage))
	}

	pageHeaderWord, err := s.phys.ReadU64(int64(pageOffset))
	if err != nil {
		return err
	}
	pageSize, _ := unpackPageHeader(pageHeaderWord)

	if int(pos)+longStackValueStride == int(pageSize) {
		newPage, err := s.freePhysTake(LongStackPrefSize, true)
		if err != nil {
			return err
		}
		if err := s.phys.WriteU64(int64(newPage), packPageHeader(LongStackPrefSize, pageOffset)); err != nil {
			return err
		}
		if err := s.phys.Write48(int64(newPage)+longStackFirstPos, value); err != nil {
			return err
		}
		return s.index.WriteU64(headSlot, packHeadWord(longStackFirstPos, newPage))
	}

	newPos := pos + longStackValueStride
	if err := s.phys.Write48(int64(pageOffset)+int64(newPos), value); err != nil {
		return err
	}
	return s.index.WriteU64(headSlot, packHeadWord(newPos, pageOffset))
}
