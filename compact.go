package recio

import (
	"fmt"
	"os"
)

// Compact rewrites the store into a dense copy with no free-space
// fragmentation: every live record is reallocated contiguously (preserving
// its recid) and the free-recid stack is carried over verbatim. Free-phys
// stacks are not migrated, since the new store's physical layout starts
// dense. Compact refuses on a read-only store.
func (s *Store) Compact() error {
	if s.isClosed() {
		return WrapError(ErrClosed, nil)
	}
	if s.opts.ReadOnly {
		return WrapError(ErrUnsupported, fmt.Errorf("compact: store is read-only"))
	}

	s.structuralLock.Lock()
	for i := range s.locks {
		s.locks[i].Lock()
	}
	defer func() {
		for i := range s.locks {
			s.locks[i].Unlock()
		}
		s.structuralLock.Unlock()
	}()

	indexPath, physPath, ok := s.backingPaths()
	if !ok {
		return WrapError(ErrUnsupported, fmt.Errorf("compact: in-memory stores cannot be compacted"))
	}

	newFactory := NewFileVolumeFactory(indexPath+".compact", false)
	newStore, err := Open(newFactory, Options{SpaceReclaimMode: s.opts.SpaceReclaimMode})
	if err != nil {
		return err
	}

	if err := s.migrateFreeRecids(newStore); err != nil {
		newStore.Close()
		return err
	}

	if err := s.migrateLiveRecords(newStore); err != nil {
		newStore.Close()
		return err
	}

	newStore.indexSize = s.indexSize
	if err := newStore.index.EnsureAvailable(newStore.indexSize); err != nil {
		newStore.Close()
		return err
	}
	if err := newStore.writeHeaders(); err != nil {
		newStore.Close()
		return err
	}
	if err := newStore.index.Sync(); err != nil {
		newStore.Close()
		return err
	}
	if err := newStore.phys.Sync(); err != nil {
		newStore.Close()
		return err
	}
	if err := newStore.index.Close(); err != nil {
		return err
	}
	if err := newStore.phys.Close(); err != nil {
		return err
	}

	if err := s.index.Close(); err != nil {
		return err
	}
	if err := s.phys.Close(); err != nil {
		return err
	}

	suffix := "." + backupSuffix() + ".bak"
	if err := os.Rename(indexPath, indexPath+suffix); err != nil {
		return WrapError(ErrIO, err)
	}
	if err := os.Rename(physPath, physPath+suffix); err != nil {
		return WrapError(ErrIO, err)
	}
	if err := os.Rename(indexPath+".compact.idx", indexPath); err != nil {
		return WrapError(ErrIO, err)
	}
	if err := os.Rename(indexPath+".compact.phys", physPath); err != nil {
		return WrapError(ErrIO, err)
	}
	os.Remove(indexPath + suffix)
	os.Remove(physPath + suffix)

	idx, err := s.factory.CreateIndexVolume()
	if err != nil {
		return err
	}
	phy, err := s.factory.CreatePhysVolume()
	if err != nil {
		idx.Close()
		return err
	}
	s.index = idx
	s.phys = phy
	return s.loadHeaders()
}

// backingPaths returns the index/phys file paths if this store's factory
// is file-backed, and false otherwise.
func (s *Store) backingPaths() (indexPath, physPath string, ok bool) {
	ff, isFile := s.factory.(*FileVolumeFactory)
	if !isFile {
		return "", "", false
	}
	return ff.base + ".idx", ff.base + ".phys", true
}

// migrateFreeRecids pops every entry from this store's free-recid stack
// and pushes it onto dst's, so dst holds the same recids in reverse
// order. The source stack is left empty.
func (s *Store) migrateFreeRecids(dst *Store) error {
	headSlot := int64(ioFreeRecid) * 8
	for {
		ioRecid, ok, err := s.lsPop(headSlot)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if err := dst.lsPush(headSlot, ioRecid); err != nil {
			return err
		}
	}
}

// migrateLiveRecords copies every live ioRecid's raw bytes into dst,
// reallocating densely while preserving recid numbers.
func (s *Store) migrateLiveRecords(dst *Store) error {
	for ioRecid := int64(IoUserStart); ioRecid < s.indexSize; ioRecid += 8 {
		pp, err := s.readPP(ioRecid)
		if err != nil {
			return err
		}
		if pp.Absent() {
			continue
		}
		payload, err := s.readPpChain(pp)
		if err != nil {
			return err
		}
		pps, err := dst.physAllocate(uint32(len(payload)), true)
		if err != nil {
			return err
		}
		if err := dst.writePpChain(pps, payload); err != nil {
			return err
		}
		if err := dst.index.EnsureAvailable(ioRecid + 8); err != nil {
			return err
		}
		if err := dst.index.WriteU64(ioRecid, uint64(pps[0].withArchive(pp.Archive()))); err != nil {
			return err
		}
	}
	return nil
}
