// Package recio is an embedded record store that maps stable integer
// record identifiers (recids) to opaque variable-length byte payloads.
//
// A store is split across two files: an index file of fixed-width 64-bit
// slots (one per recid, plus a header and the free-list stack heads) and a
// phys file holding the actual payload bytes in variably sized extents.
// Both files are kept memory-mapped for the life of the store.
//
// Basic usage:
//
//	store, err := recio.Open(recio.NewFileVolumeFactory("/path/to/db", false), recio.DefaultOptions())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer store.Close()
//
//	recid, err := recio.Put(store, []byte("hello"), recio.RawSerializer{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	val, err := recio.Get(store, recid, recio.RawSerializer{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	if err := store.Commit(); err != nil {
//	    log.Fatal(err)
//	}
//
// recio does not provide write-ahead logging, crash recovery, checksums,
// multi-process sharing, or transactional isolation beyond per-recid
// locking. A process killed between mutations and Commit is not guaranteed
// to preserve the post-mutation state — Commit (or Close) is the only
// durability point when sync-on-commit is enabled.
package recio
