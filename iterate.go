package recio

import (
	"errors"
	"iter"
)

// walkLongStack visits every value in the stack at headSlot from top to
// bottom without mutating it (no pop, no page reclamation). fn's error,
// if any, stops the walk and is returned.
func (s *Store) walkLongStack(headSlot int64, fn func(uint64) error) error {
	headWord, err := s.index.ReadU64(headSlot)
	if err != nil {
		return err
	}
	pos, pageOffset := unpackHeadWord(headWord)
	for pageOffset != 0 {
		for p := pos; p >= longStackFirstPos; p -= longStackValueStride {
			val, err := s.phys.Read48(int64(pageOffset) + int64(p))
			if err != nil {
				return err
			}
			if err := fn(val); err != nil {
				return err
			}
			if p == longStackFirstPos {
				break
			}
		}
		pageHeaderWord, err := s.phys.ReadU64(int64(pageOffset))
		if err != nil {
			return err
		}
		prevSize, prevOffset := unpackPageHeader(pageHeaderWord)
		pageOffset = prevOffset
		if pageOffset != 0 {
			pos = prevSize - longStackValueStride
		}
	}
	return nil
}

// GetFreeRecids returns an iterator over every recid currently sitting in
// the free-recid pool, without disturbing it.
func (s *Store) GetFreeRecids() iter.Seq[uint64] {
	return func(yield func(uint64) bool) {
		s.structuralLock.Lock()
		defer s.structuralLock.Unlock()

		s.walkLongStack(int64(ioFreeRecid)*8, func(ioRecid uint64) error {
			if !yield(ioRecidToRecid(int64(ioRecid))) {
				return errStopIteration
			}
			return nil
		})
	}
}

// errStopIteration is a private sentinel used only to unwind walkLongStack
// when the consumer stops early; it never escapes GetFreeRecids.
var errStopIteration = errors.New("iteration stopped by consumer")
