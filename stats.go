package recio

import (
	"fmt"
	"strings"
)

// Stat is the programmatic counterpart to CalculateStatistics: a snapshot
// of store-wide size and free-space bookkeeping.
type Stat struct {
	IndexSize      int64
	PhysSize       int64
	FreeSize       int64
	MaxRecid       uint64
	FreeRecidCount int64
	FreeExtentsByBucket map[int]int64 // bucket index -> count of free extents
}

// Stat returns a structured snapshot equivalent to CalculateStatistics.
func (s *Store) Stat() (Stat, error) {
	s.structuralLock.Lock()
	defer s.structuralLock.Unlock()

	st := Stat{
		IndexSize:           s.indexSize,
		PhysSize:            s.physSize,
		FreeSize:            s.freeSize,
		MaxRecid:            maxRecidFromIndexSize(s.indexSize),
		FreeExtentsByBucket: make(map[int]int64),
	}

	freeRecidCount, err := s.countLongStack(int64(ioFreeRecid) * 8)
	if err != nil {
		return Stat{}, err
	}
	st.FreeRecidCount = freeRecidCount

	for bucket := 0; bucket < PhysFreeSlotsCount; bucket++ {
		headSlot := int64(ioFreeRecid)*8 + 8 + int64(bucket)*8
		count, err := s.countLongStack(headSlot)
		if err != nil {
			return Stat{}, err
		}
		if count > 0 {
			st.FreeExtentsByBucket[bucket] = count
		}
	}

	return st, nil
}

// countLongStack walks a stack non-destructively (same traversal
// CalculateStatistics and GetFreeRecids use) and returns its length.
func (s *Store) countLongStack(headSlot int64) (int64, error) {
	var count int64
	err := s.walkLongStack(headSlot, func(uint64) error {
		count++
		return nil
	})
	return count, err
}

// CalculateStatistics renders a human-readable summary of store size and
// free-space bookkeeping.
func (s *Store) CalculateStatistics() (string, error) {
	st, err := s.Stat()
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "indexSize=%d physSize=%d freeSize=%d maxRecid=%d freeRecids=%d\n",
		st.IndexSize, st.PhysSize, st.FreeSize, st.MaxRecid, st.FreeRecidCount)
	if len(st.FreeExtentsByBucket) == 0 {
		b.WriteString("free extent buckets: none\n")
		return b.String(), nil
	}
	b.WriteString("free extent buckets (bucket*16+1..bucket*16+16 bytes -> count):\n")
	for bucket := 0; bucket < PhysFreeSlotsCount; bucket++ {
		if count, ok := st.FreeExtentsByBucket[bucket]; ok {
			fmt.Fprintf(&b, "  [%d, %d]: %d\n", bucket*16+1, bucket*16+16, count)
		}
	}
	return b.String(), nil
}
