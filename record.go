package recio

import (
	"bytes"
	"fmt"
	"reflect"
	"sync"
)

// lockFor returns the stripe lock guarding recid, chosen by a stable hash
// so the same recid always maps to the same stripe.
func (s *Store) lockFor(recid uint64) *sync.RWMutex {
	return &s.locks[fnv1a64(recid)&(numLockStripes-1)]
}

// Put serializes v and stores it under a freshly allocated recid.
func Put[A any](s *Store, v A, ser Serializer[A]) (uint64, error) {
	if s.isClosed() {
		return 0, WrapError(ErrClosed, nil)
	}
	if s.opts.ReadOnly {
		return 0, WrapError(ErrReadOnly, nil)
	}

	buf, err := serializeWith(s.scratch, v, ser)
	if err != nil {
		return 0, err
	}
	defer s.scratch.put(buf)
	payload := buf.Bytes()

	s.structuralLock.Lock()
	ioRecid, err := s.freeIoRecidTake(true)
	if err != nil {
		s.structuralLock.Unlock()
		return 0, err
	}
	pps, err := s.physAllocate(uint32(len(payload)), true)
	if err != nil {
		s.structuralLock.Unlock()
		return 0, err
	}
	s.structuralLock.Unlock()

	if err := s.writePpChain(pps, payload); err != nil {
		return 0, err
	}
	if err := s.index.WriteU64(ioRecid, uint64(pps[0].withArchive(true))); err != nil {
		return 0, err
	}

	return ioRecidToRecid(ioRecid), nil
}

// Get reads and deserializes the value stored at recid.
func Get[A any](s *Store, recid uint64, ser Serializer[A]) (A, error) {
	var zero A
	if s.isClosed() {
		return zero, WrapError(ErrClosed, nil)
	}
	ioRecid, err := s.checkRecid(recid)
	if err != nil {
		return zero, err
	}

	lock := s.lockFor(recid)
	lock.RLock()
	defer lock.RUnlock()

	pp, err := s.readPP(ioRecid)
	if err != nil {
		return zero, err
	}
	if pp.Absent() {
		return zero, WrapError(ErrNotFound, nil)
	}

	payload, err := s.readPpChain(pp)
	if err != nil {
		return zero, err
	}
	r := bytes.NewReader(payload)
	v, err := ser.Deserialize(r, len(payload))
	if err != nil {
		return zero, err
	}
	if r.Len() != 0 {
		return zero, WrapError(ErrInternal, fmt.Errorf("ioRecid %d: serializer consumed %d of %d bytes", ioRecid, len(payload)-r.Len(), len(payload)))
	}
	return v, nil
}

// Update replaces the value at recid with v.
func Update[A any](s *Store, recid uint64, v A, ser Serializer[A]) error {
	if s.isClosed() {
		return WrapError(ErrClosed, nil)
	}
	if s.opts.ReadOnly {
		return WrapError(ErrReadOnly, nil)
	}
	ioRecid, err := s.checkRecid(recid)
	if err != nil {
		return err
	}

	buf, err := serializeWith(s.scratch, v, ser)
	if err != nil {
		return err
	}
	defer s.scratch.put(buf)
	payload := buf.Bytes()

	lock := s.lockFor(recid)
	lock.Lock()
	defer lock.Unlock()

	return s.updateLocked(ioRecid, payload)
}

// updateLocked performs the reclaim-allocate-write-publish sequence for an
// update/CAS; caller must hold the per-recid write lock.
func (s *Store) updateLocked(ioRecid int64, payload []byte) error {
	oldPP, err := s.readPP(ioRecid)
	if err != nil {
		return err
	}

	var oldChain []PhysPointer
	tracking := s.opts.SpaceReclaimMode != SpaceReclaimNone
	if tracking && !oldPP.Absent() {
		oldChain, err = s.getLinkedChain(oldPP)
		if err != nil {
			return err
		}
	}

	s.structuralLock.Lock()
	if tracking && !oldPP.Absent() {
		if err := s.freePhysPut(oldPP); err != nil {
			s.structuralLock.Unlock()
			return err
		}
		for _, chainPP := range oldChain {
			if err := s.freePhysPut(chainPP); err != nil {
				s.structuralLock.Unlock()
				return err
			}
		}
	}
	pps, err := s.physAllocate(uint32(len(payload)), true)
	if err != nil {
		s.structuralLock.Unlock()
		return err
	}
	s.structuralLock.Unlock()

	if err := s.writePpChain(pps, payload); err != nil {
		return err
	}
	return s.index.WriteU64(ioRecid, uint64(pps[0].withArchive(true)))
}

// CompareAndSwap atomically replaces the value at recid with newV iff the
// current value equals expected (compared with reflect.DeepEqual).
func CompareAndSwap[A any](s *Store, recid uint64, expected, newV A, ser Serializer[A]) (bool, error) {
	if s.isClosed() {
		return false, WrapError(ErrClosed, nil)
	}
	if s.opts.ReadOnly {
		return false, WrapError(ErrReadOnly, nil)
	}
	ioRecid, err := s.checkRecid(recid)
	if err != nil {
		return false, err
	}

	lock := s.lockFor(recid)
	lock.Lock()
	defer lock.Unlock()

	pp, err := s.readPP(ioRecid)
	if err != nil {
		return false, err
	}
	var current A
	if !pp.Absent() {
		payload, err := s.readPpChain(pp)
		if err != nil {
			return false, err
		}
		r := bytes.NewReader(payload)
		current, err = ser.Deserialize(r, len(payload))
		if err != nil {
			return false, err
		}
		if r.Len() != 0 {
			return false, WrapError(ErrInternal, fmt.Errorf("ioRecid %d: serializer consumed %d of %d bytes", ioRecid, len(payload)-r.Len(), len(payload)))
		}
	}
	if !reflect.DeepEqual(current, expected) {
		return false, nil
	}

	buf, err := serializeWith(s.scratch, newV, ser)
	if err != nil {
		return false, err
	}
	defer s.scratch.put(buf)

	if err := s.updateLocked(ioRecid, buf.Bytes()); err != nil {
		return false, err
	}
	return true, nil
}

// Delete removes the record at recid, returning its space to the free
// pools when tracking is enabled.
func (s *Store) Delete(recid uint64) error {
	if s.isClosed() {
		return WrapError(ErrClosed, nil)
	}
	if s.opts.ReadOnly {
		return WrapError(ErrReadOnly, nil)
	}
	ioRecid, err := s.checkRecid(recid)
	if err != nil {
		return err
	}

	lock := s.lockFor(recid)
	lock.Lock()
	defer lock.Unlock()

	pp, err := s.readPP(ioRecid)
	if err != nil {
		return err
	}
	if pp.Absent() {
		return WrapError(ErrNotFound, nil)
	}
	// DISCARD alone marks the slot a tombstone. ARCHIVE (which a live,
	// zero-length record also carries with size/offset both 0) is not
	// reused here, so a deleted slot can never be mistaken for a stored
	// empty payload.
	if err := s.index.WriteU64(ioRecid, FlagDiscard); err != nil {
		return err
	}

	if s.opts.SpaceReclaimMode == SpaceReclaimNone {
		return nil
	}

	chain, err := s.getLinkedChain(pp)
	if err != nil {
		return err
	}

	s.structuralLock.Lock()
	defer s.structuralLock.Unlock()

	if err := s.freeIoRecidPut(ioRecid); err != nil {
		return err
	}
	if err := s.freePhysPut(pp); err != nil {
		return err
	}
	for _, chainPP := range chain {
		if err := s.freePhysPut(chainPP); err != nil {
			return err
		}
	}
	return nil
}

// PutRaw stores data under a freshly allocated recid.
func (s *Store) PutRaw(data []byte) (uint64, error) {
	return Put(s, data, RawSerializer{})
}

// GetRaw returns the raw stored bytes at recid, or ErrNotFound if absent.
func (s *Store) GetRaw(recid uint64) ([]byte, error) {
	return Get(s, recid, RawSerializer{})
}

// UpdateRaw replaces the raw stored bytes at recid.
func (s *Store) UpdateRaw(recid uint64, data []byte) error {
	return Update(s, recid, data, RawSerializer{})
}

func (s *Store) readPP(ioRecid int64) (PhysPointer, error) {
	word, err := s.index.ReadU64(ioRecid)
	if err != nil {
		return 0, err
	}
	return PhysPointer(word), nil
}

// checkRecid validates recid and returns its ioRecid byte offset.
func (s *Store) checkRecid(recid uint64) (int64, error) {
	if recid == 0 {
		return 0, WrapError(ErrInvalidRecid, nil)
	}
	s.mu.Lock()
	maxRecid := maxRecidFromIndexSize(s.indexSize)
	s.mu.Unlock()
	if recid > maxRecid {
		return 0, WrapError(ErrInvalidRecid, fmt.Errorf("recid %d exceeds max allocated recid %d", recid, maxRecid))
	}
	return recidToIoRecid(recid), nil
}

// fnv1a64 is the stable hash used to stripe per-recid locks.
func fnv1a64(x uint64) uint64 {
	const (
		offset = 14695981039346656037
		prime  = 1099511628211
	)
	h := uint64(offset)
	for i := 0; i < 8; i++ {
		h ^= x & 0xFF
		h *= prime
		x >>= 8
	}
	return h
}
