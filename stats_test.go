package recio

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestStatReflectsPutsAndDeletes(t *testing.T) {
	opts := DefaultOptions()
	opts.SpaceReclaimMode = SpaceReclaimTrackAndReuse
	s := newTestStore(t, opts)

	r1, err := Put(s, []byte("a"), RawSerializer{})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Put(s, []byte("b"), RawSerializer{}); err != nil {
		t.Fatal(err)
	}

	before, err := s.Stat()
	if err != nil {
		t.Fatal(err)
	}
	if before.MaxRecid != 2 {
		t.Fatalf("MaxRecid = %d, want 2", before.MaxRecid)
	}
	if before.FreeRecidCount != 0 {
		t.Fatalf("FreeRecidCount = %d, want 0", before.FreeRecidCount)
	}

	if err := s.Delete(r1); err != nil {
		t.Fatal(err)
	}

	after, err := s.Stat()
	if err != nil {
		t.Fatal(err)
	}

	want := Stat{
		IndexSize:           before.IndexSize,
		PhysSize:            after.PhysSize,
		FreeSize:            after.FreeSize,
		MaxRecid:            2,
		FreeRecidCount:      1,
		FreeExtentsByBucket: after.FreeExtentsByBucket,
	}
	if diff := cmp.Diff(want, after); diff != "" {
		t.Errorf("Stat() mismatch (-want +got):\n%s", diff)
	}
}

func TestStatEmptyStoreHasNoFreeExtents(t *testing.T) {
	s := newTestStore(t, DefaultOptions())

	st, err := s.Stat()
	if err != nil {
		t.Fatal(err)
	}
	want := map[int]int64{}
	if diff := cmp.Diff(want, st.FreeExtentsByBucket); diff != "" {
		t.Errorf("FreeExtentsByBucket mismatch (-want +got):\n%s", diff)
	}
}
