package mmap

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestNewAndOpenFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.dat")

	data := []byte("hello world test data for mmap")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	m, err := OpenFile(path, false)
	if err != nil {
		t.Fatal(err)
	}
	defer m.Close()

	if !bytes.Equal(m.Data(), data) {
		t.Errorf("data mismatch: got %q, want %q", m.Data(), data)
	}
	if m.Size() != int64(len(data)) {
		t.Errorf("size mismatch: got %d, want %d", m.Size(), len(data))
	}
}

func TestWritableAndSync(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.dat")

	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	initial := make([]byte, 4096)
	copy(initial, []byte("initial"))
	if _, err := f.Write(initial); err != nil {
		f.Close()
		t.Fatal(err)
	}
	f.Sync()

	m, err := New(int(f.Fd()), 0, len(initial), true)
	if err != nil {
		f.Close()
		t.Fatal(err)
	}
	copy(m.Data(), []byte("modified"))
	if err := m.Sync(); err != nil {
		m.Close()
		f.Close()
		t.Fatal(err)
	}
	m.Close()
	f.Close()

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(got, []byte("modified")) {
		t.Errorf("expected modified data, got %q", got[:20])
	}
}

func TestRemapGrows(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.dat")

	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	if err := f.Truncate(4096); err != nil {
		t.Fatal(err)
	}

	m, err := New(int(f.Fd()), 0, 4096, true)
	if err != nil {
		t.Fatal(err)
	}
	defer m.Close()

	copy(m.Data(), []byte("test data"))

	if err := f.Truncate(8192); err != nil {
		t.Fatal(err)
	}
	if err := m.Remap(8192); err != nil {
		t.Fatal(err)
	}
	if m.Size() != 8192 {
		t.Errorf("size after remap: got %d, want 8192", m.Size())
	}
	if !bytes.HasPrefix(m.Data(), []byte("test data")) {
		t.Errorf("data corrupted after remap")
	}

	copy(m.Data()[4096:], []byte("new region"))
	if err := m.Sync(); err != nil {
		t.Fatal(err)
	}
}

func TestEmptyFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.dat")

	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := OpenFile(path, false); err != ErrEmptyFile {
		t.Errorf("expected ErrEmptyFile, got %v", err)
	}
}

func TestInvalidSize(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.dat")

	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	if _, err := New(int(f.Fd()), 0, 0, false); err != ErrInvalidSize {
		t.Errorf("expected ErrInvalidSize, got %v", err)
	}
}

func TestTruncateGrowsViaOpenFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "grow.dat")

	if err := os.WriteFile(path, []byte("seed data"), 0o644); err != nil {
		t.Fatal(err)
	}

	m, err := OpenFile(path, true)
	if err != nil {
		t.Fatal(err)
	}
	defer m.Close()

	if err := m.Truncate(4096); err != nil {
		t.Fatal(err)
	}
	if m.Size() != 4096 {
		t.Errorf("size after truncate: got %d, want 4096", m.Size())
	}
	if !bytes.HasPrefix(m.Data(), []byte("seed data")) {
		t.Errorf("data corrupted after truncate-remap")
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "close.dat")

	if err := os.WriteFile(path, []byte("close test"), 0o644); err != nil {
		t.Fatal(err)
	}

	m, err := OpenFile(path, false)
	if err != nil {
		t.Fatal(err)
	}
	if err := m.Close(); err != nil {
		t.Fatal(err)
	}
	if m.Data() != nil {
		t.Error("data should be nil after close")
	}
	if err := m.Close(); err != nil {
		t.Fatal(err)
	}
}
