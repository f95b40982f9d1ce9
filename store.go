package recio

import (
	"fmt"
	"sync"
	"time"
)

// Options configures a Store.
type Options struct {
	// ReadOnly opens the store for reads only; mutating calls and Compact
	// return ErrReadOnly/ErrUnsupported.
	ReadOnly bool
	// DeleteFilesAfterClose removes the backing files when Close returns.
	DeleteFilesAfterClose bool
	// SpaceReclaimMode selects whether deletes/updates track and/or reuse
	// freed space. See SpaceReclaimNone/TrackOnly/TrackAndReuse.
	SpaceReclaimMode int
	// SyncOnCommitDisabled skips the fsync normally performed by Commit
	// and Close.
	SyncOnCommitDisabled bool
	// SizeLimit caps physSize growth; 0 means unlimited.
	SizeLimit int64
}

// DefaultOptions returns the constructor defaults: reclaim mode 5
// (tracking and reuse enabled), sync on commit, no size limit.
func DefaultOptions() Options {
	return Options{SpaceReclaimMode: DefaultSpaceReclaimMode}
}

// Store is an open recid->bytes record store.
type Store struct {
	factory VolumeFactory
	opts    Options

	index Volume
	phys  Volume

	indexSize int64
	physSize  int64
	freeSize  int64

	locks          [numLockStripes]sync.RWMutex
	structuralLock sync.Mutex

	scratch *scratchPool

	closed bool
	mu     sync.Mutex // guards closed and the three header fields above
}

// Open opens (or creates) a store using the volumes produced by factory.
func Open(factory VolumeFactory, opts Options) (*Store, error) {
	idx, err := factory.CreateIndexVolume()
	if err != nil {
		return nil, err
	}
	phy, err := factory.CreatePhysVolume()
	if err != nil {
		idx.Close()
		return nil, err
	}

	s := &Store{
		factory: factory,
		opts:    opts,
		index:   idx,
		phys:    phy,
		scratch: newScratchPool(scratchPoolCapacity),
	}

	if idx.IsEmpty() {
		if err := s.initHeaders(); err != nil {
			idx.Close()
			phy.Close()
			return nil, err
		}
	} else {
		if err := s.loadHeaders(); err != nil {
			idx.Close()
			phy.Close()
			return nil, err
		}
	}

	return s, nil
}

func (s *Store) initHeaders() error {
	headerEnd := int64(IoUserStart) + int64(LastReservedRecid)*8
	if err := s.index.EnsureAvailable(headerEnd); err != nil {
		return err
	}
	if err := s.index.WriteU64(ioMagic*8, Magic); err != nil {
		return err
	}
	s.indexSize = headerEnd
	if err := s.index.WriteU64(ioIndexSize*8, uint64(s.indexSize)); err != nil {
		return err
	}

	if err := s.phys.EnsureAvailable(16); err != nil {
		return err
	}
	if err := s.phys.WriteU64(ioMagic*8, Magic); err != nil {
		return err
	}
	s.physSize = 16
	if err := s.index.WriteU64(ioPhysSize*8, uint64(s.physSize)); err != nil {
		return err
	}

	s.freeSize = 0
	if err := s.index.WriteU64(ioFreeSize*8, 0); err != nil {
		return err
	}
	return nil
}

func (s *Store) loadHeaders() error {
	magic, err := s.index.ReadU64(ioMagic * 8)
	if err != nil {
		return err
	}
	if magic != Magic {
		return WrapError(ErrCorrupted, fmt.Errorf("index file: bad magic %x", magic))
	}
	physMagic, err := s.phys.ReadU64(ioMagic * 8)
	if err != nil {
		return err
	}
	if physMagic != Magic {
		return WrapError(ErrCorrupted, fmt.Errorf("phys file: bad magic %x", physMagic))
	}

	indexSize, err := s.index.ReadU64(ioIndexSize * 8)
	if err != nil {
		return err
	}
	physSizeVal, err := s.index.ReadU64(ioPhysSize * 8)
	if err != nil {
		return err
	}
	freeSizeVal, err := s.index.ReadU64(ioFreeSize * 8)
	if err != nil {
		return err
	}

	if indexSize%8 != 0 || int64(indexSize) < IoUserStart {
		return WrapError(ErrCorrupted, fmt.Errorf("invalid indexSize %d", indexSize))
	}
	if physSizeVal%16 != 0 || physSizeVal < 16 {
		return WrapError(ErrCorrupted, fmt.Errorf("invalid physSize %d", physSizeVal))
	}

	s.indexSize = int64(indexSize)
	s.physSize = int64(physSizeVal)
	s.freeSize = int64(freeSizeVal)

	if err := s.index.EnsureAvailable(s.indexSize); err != nil {
		return err
	}
	if err := s.phys.EnsureAvailable(s.physSize); err != nil {
		return err
	}
	return nil
}

// Commit persists header fields and, unless sync is disabled, flushes both
// volumes to stable storage.
func (s *Store) Commit() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return WrapError(ErrClosed, nil)
	}
	if s.opts.ReadOnly {
		return nil
	}
	if err := s.writeHeaders(); err != nil {
		return err
	}
	if !s.opts.SyncOnCommitDisabled {
		if err := s.index.Sync(); err != nil {
			return err
		}
		if err := s.phys.Sync(); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) writeHeaders() error {
	if err := s.index.WriteU64(ioIndexSize*8, uint64(s.indexSize)); err != nil {
		return err
	}
	if err := s.index.WriteU64(ioPhysSize*8, uint64(s.physSize)); err != nil {
		return err
	}
	if err := s.index.WriteU64(ioFreeSize*8, uint64(s.freeSize)); err != nil {
		return err
	}
	return nil
}

// Rollback is never supported by this store.
func (s *Store) Rollback() error {
	return WrapError(ErrUnsupported, nil)
}

// CanRollback always reports false.
func (s *Store) CanRollback() bool { return false }

// ClearCache is a no-op: this store has no read cache to invalidate.
func (s *Store) ClearCache() {}

// IsReadOnly reports whether the store was opened read-only.
func (s *Store) IsReadOnly() bool { return s.opts.ReadOnly }

// GetSizeLimit returns the configured phys size limit, 0 meaning unlimited.
func (s *Store) GetSizeLimit() int64 { return s.opts.SizeLimit }

// GetCurrSize returns the current allocated phys file size.
func (s *Store) GetCurrSize() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.physSize
}

// GetFreeSize returns the tracked count of free phys bytes.
func (s *Store) GetFreeSize() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.freeSize
}

// GetMaxRecid returns the highest recid ever allocated (whether or not it
// is still live).
func (s *Store) GetMaxRecid() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return maxRecidFromIndexSize(s.indexSize)
}

func maxRecidFromIndexSize(indexSize int64) uint64 {
	if indexSize <= IoUserStart {
		return 0
	}
	return uint64((indexSize - IoUserStart) / 8)
}

func recidToIoRecid(recid uint64) int64 {
	return IoUserStart + int64(recid-1)*8
}

func ioRecidToRecid(ioRecid int64) uint64 {
	return uint64((ioRecid-IoUserStart)/8) + 1
}

// Close flushes header state, syncs and closes both volumes, and
// optionally deletes the backing files.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
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

	if !s.opts.ReadOnly {
		if err := s.writeHeaders(); err != nil {
			return err
		}
		if !s.opts.SyncOnCommitDisabled {
			s.index.Sync()
			s.phys.Sync()
		}
	}

	idxErr := s.index.Close()
	physErr := s.phys.Close()

	if s.opts.DeleteFilesAfterClose {
		s.index.DeleteFile()
		s.phys.DeleteFile()
	}

	s.closed = true
	if idxErr != nil {
		return idxErr
	}
	return physErr
}

func (s *Store) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// backupSuffix stamps a renamed-aside file during Compact; not a real
// clock dependency beyond producing a unique, human-legible name.
func backupSuffix() string {
	return time.Now().Format("20060102150405")
}
