package recio

import (
	"os"

	"github.com/dgrecio/recio/internal/mmap"
)

// Volume is a resizable, random-access byte buffer: the storage substrate
// for both the index and phys files of a Store.
type Volume interface {
	// EnsureAvailable grows the volume, if necessary, so that at least n
	// bytes are addressable from offset 0.
	EnsureAvailable(n int64) error

	ReadU16(off int64) (uint16, error)
	ReadU64(off int64) (uint64, error)
	Read48(off int64) (uint64, error)
	WriteU64(off int64, v uint64) error
	Write48(off int64, v uint64) error
	ReadAt(off int64, buf []byte) error
	WriteAt(off int64, buf []byte) error

	Sync() error
	Close() error
	DeleteFile() error
	IsEmpty() bool
	File() string
}

// VolumeFactory creates the two volumes (index, phys) backing a Store.
type VolumeFactory interface {
	CreateIndexVolume() (Volume, error)
	CreatePhysVolume() (Volume, error)
}

// growthChunk is how far EnsureAvailable overshoots a requested size, to
// keep remaps infrequent under repeated small appends.
const growthChunk = 1 << 20 // 1 MiB

// fileVolume is a Volume backed by a growable memory-mapped file.
type fileVolume struct {
	path       string
	m          *mmap.Map
	wasCreated bool // true if this file did not exist before openFileVolume
}

func openFileVolume(path string, writable bool) (*fileVolume, error) {
	wasCreated := false
	if _, err := os.Stat(path); os.IsNotExist(err) {
		wasCreated = true
		f, cerr := os.Create(path)
		if cerr != nil {
			return nil, WrapError(ErrIO, cerr)
		}
		if terr := f.Truncate(growthChunk); terr != nil {
			f.Close()
			return nil, WrapError(ErrIO, terr)
		}
		f.Close()
	}
	m, err := mmap.OpenFile(path, writable)
	if err != nil {
		return nil, WrapError(ErrIO, err)
	}
	return &fileVolume{path: path, m: m, wasCreated: wasCreated}, nil
}

func (v *fileVolume) EnsureAvailable(n int64) error {
	if v.m.Size() >= n {
		return nil
	}
	newSize := v.m.Size()
	for newSize < n {
		newSize += growthChunk
	}
	if err := v.m.Truncate(newSize); err != nil {
		return WrapError(ErrIO, err)
	}
	return nil
}

func (v *fileVolume) ReadU16(off int64) (uint16, error) {
	data := v.m.Data()
	if off < 0 || off+2 > int64(len(data)) {
		return 0, WrapError(ErrIO, mmap.ErrInvalidRange)
	}
	return getUint16LE(data[off : off+2]), nil
}

func (v *fileVolume) ReadU64(off int64) (uint64, error) {
	data := v.m.Data()
	if off < 0 || off+8 > int64(len(data)) {
		return 0, WrapError(ErrIO, mmap.ErrInvalidRange)
	}
	return getUint64LE(data[off : off+8]), nil
}

func (v *fileVolume) Read48(off int64) (uint64, error) {
	data := v.m.Data()
	if off < 0 || off+6 > int64(len(data)) {
		return 0, WrapError(ErrIO, mmap.ErrInvalidRange)
	}
	return get48LE(data[off : off+6]), nil
}

func (v *fileVolume) WriteU64(off int64, val uint64) error {
	data := v.m.Data()
	if off < 0 || off+8 > int64(len(data)) {
		return WrapError(ErrIO, mmap.ErrInvalidRange)
	}
	putUint64LE(data[off:off+8], val)
	return nil
}

func (v *fileVolume) Write48(off int64, val uint64) error {
	data := v.m.Data()
	if off < 0 || off+6 > int64(len(data)) {
		return WrapError(ErrIO, mmap.ErrInvalidRange)
	}
	put48LE(data[off:off+6], val)
	return nil
}

func (v *fileVolume) ReadAt(off int64, buf []byte) error {
	data := v.m.Data()
	if off < 0 || off+int64(len(buf)) > int64(len(data)) {
		return WrapError(ErrIO, mmap.ErrInvalidRange)
	}
	copy(buf, data[off:off+int64(len(buf))])
	return nil
}

func (v *fileVolume) WriteAt(off int64, buf []byte) error {
	data := v.m.Data()
	if off < 0 || off+int64(len(buf)) > int64(len(data)) {
		return WrapError(ErrIO, mmap.ErrInvalidRange)
	}
	copy(data[off:off+int64(len(buf))], buf)
	return nil
}

func (v *fileVolume) Sync() error {
	if err := v.m.Sync(); err != nil {
		return WrapError(ErrIO, err)
	}
	return nil
}

func (v *fileVolume) Close() error {
	if err := v.m.Close(); err != nil {
		return WrapError(ErrIO, err)
	}
	return nil
}

func (v *fileVolume) DeleteFile() error {
	if err := os.Remove(v.path); err != nil && !os.IsNotExist(err) {
		return WrapError(ErrIO, err)
	}
	return nil
}

// IsEmpty reports whether this file had to be created by openFileVolume,
// i.e. whether it is logically uninitialized. The underlying mapped size
// is not a reliable signal: a freshly created file is pre-truncated to
// growthChunk so it can be mapped at all, so a zero-byte check would
// never fire.
func (v *fileVolume) IsEmpty() bool {
	return v.wasCreated
}

func (v *fileVolume) File() string {
	return v.path
}

// FileVolumeFactory creates file-backed volumes rooted at a base path:
// "<base>.idx" and "<base>.phys".
type FileVolumeFactory struct {
	base     string
	readOnly bool
}

// NewFileVolumeFactory returns a VolumeFactory whose two files are named
// base+".idx" and base+".phys".
func NewFileVolumeFactory(base string, readOnly bool) *FileVolumeFactory {
	return &FileVolumeFactory{base: base, readOnly: readOnly}
}

func (f *FileVolumeFactory) CreateIndexVolume() (Volume, error) {
	return openFileVolume(f.base+".idx", !f.readOnly)
}

func (f *FileVolumeFactory) CreatePhysVolume() (Volume, error) {
	return openFileVolume(f.base+".phys", !f.readOnly)
}

// memVolume is an in-process, non-persistent Volume useful for tests and
// ephemeral stores.
type memVolume struct {
	name string
	data []byte
}

func newMemVolume(name string) *memVolume {
	return &memVolume{name: name}
}

func (v *memVolume) EnsureAvailable(n int64) error {
	if int64(len(v.data)) >= n {
		return nil
	}
	grown := make([]byte, n)
	copy(grown, v.data)
	v.data = grown
	return nil
}

func (v *memVolume) ReadU16(off int64) (uint16, error) {
	if off < 0 || off+2 > int64(len(v.data)) {
		return 0, WrapError(ErrIO, mmap.ErrInvalidRange)
	}
	return getUint16LE(v.data[off : off+2]), nil
}

func (v *memVolume) ReadU64(off int64) (uint64, error) {
	if off < 0 || off+8 > int64(len(v.data)) {
		return 0, WrapError(ErrIO, mmap.ErrInvalidRange)
	}
	return getUint64LE(v.data[off : off+8]), nil
}

func (v *memVolume) Read48(off int64) (uint64, error) {
	if off < 0 || off+6 > int64(len(v.data)) {
		return 0, WrapError(ErrIO, mmap.ErrInvalidRange)
	}
	return get48LE(v.data[off : off+6]), nil
}

func (v *memVolume) WriteU64(off int64, val uint64) error {
	if off < 0 || off+8 > int64(len(v.data)) {
		return WrapError(ErrIO, mmap.ErrInvalidRange)
	}
	putUint64LE(v.data[off:off+8], val)
	return nil
}

func (v *memVolume) Write48(off int64, val uint64) error {
	if off < 0 || off+6 > int64(len(v.data)) {
		return WrapError(ErrIO, mmap.ErrInvalidRange)
	}
	put48LE(v.data[off:off+6], val)
	return nil
}

func (v *memVolume) ReadAt(off int64, buf []byte) error {
	if off < 0 || off+int64(len(buf)) > int64(len(v.data)) {
		return WrapError(ErrIO, mmap.ErrInvalidRange)
	}
	copy(buf, v.data[off:off+int64(len(buf))])
	return nil
}

func (v *memVolume) WriteAt(off int64, buf []byte) error {
	if off < 0 || off+int64(len(buf)) > int64(len(v.data)) {
		return WrapError(ErrIO, mmap.ErrInvalidRange)
	}
	copy(v.data[off:off+int64(len(buf))], buf)
	return nil
}

func (v *memVolume) Sync() error          { return nil }
func (v *memVolume) Close() error         { return nil }
func (v *memVolume) DeleteFile() error    { v.data = nil; return nil }
func (v *memVolume) IsEmpty() bool        { return len(v.data) == 0 }
func (v *memVolume) File() string         { return v.name }

// MemVolumeFactory creates in-memory, non-persistent volumes. Useful for
// tests and scratch stores that never need to survive process exit.
type MemVolumeFactory struct{}

// NewMemVolumeFactory returns a VolumeFactory backed entirely by RAM.
func NewMemVolumeFactory() *MemVolumeFactory { return &MemVolumeFactory{} }

func (MemVolumeFactory) CreateIndexVolume() (Volume, error) {
	return newMemVolume("index"), nil
}

func (MemVolumeFactory) CreatePhysVolume() (Volume, error) {
	return newMemVolume("phys"), nil
}
