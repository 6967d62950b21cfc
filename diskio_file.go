package jrnl

import (
	"os"
)

// FileDiskIO implements DiskIO over a flat image file, standing in for a
// wear-levelled partition. This is the domain-stack equivalent of the
// teacher's ExfatReader wrapping an io.ReadSeeker, generalized here to the
// three-operation capability of spec §6.1 (read/write/erase_range).
type FileDiskIO struct {
	f *os.File
}

// NewFileDiskIO wraps an already-open file. The caller owns the file's
// lifetime (open/close).
func NewFileDiskIO(f *os.File) *FileDiskIO {
	return &FileDiskIO{f: f}
}

// OpenFileDiskIO opens path for reading and writing and wraps it.
func OpenFileDiskIO(path string) (fd *FileDiskIO, err error) {
	defer recoverErr(&err)

	f, openErr := os.OpenFile(path, os.O_RDWR, 0o644)
	panicIf(openErr)

	return &FileDiskIO{f: f}, nil
}

// Close closes the underlying file.
func (fd *FileDiskIO) Close() error {
	return fd.f.Close()
}

// ReadAt implements DiskIO.
func (fd *FileDiskIO) ReadAt(addr int64, buf []byte) (err error) {
	defer recoverErr(&err)

	_, readErr := fd.f.ReadAt(buf, addr)
	panicIf(readErr)

	return nil
}

// WriteAt implements DiskIO.
func (fd *FileDiskIO) WriteAt(addr int64, buf []byte) (err error) {
	defer recoverErr(&err)

	_, writeErr := fd.f.WriteAt(buf, addr)
	panicIf(writeErr)

	return nil
}

// EraseRange implements DiskIO. A flat image file has no distinct erase
// step; zeroing the range keeps the fake deterministic between runs rather
// than leaving stale bytes that a bug could accidentally depend on.
func (fd *FileDiskIO) EraseRange(addr int64, size int64) (err error) {
	defer recoverErr(&err)

	zeroes := make([]byte, size)
	_, writeErr := fd.f.WriteAt(zeroes, addr)
	panicIf(writeErr)

	return nil
}

// CreateImage creates a new, zero-filled image file of the given size and
// wraps it. Convenience for tests and the jrnlfmt CLI tool.
func CreateImage(path string, size int64) (fd *FileDiskIO, err error) {
	defer recoverErr(&err)

	f, createErr := os.Create(path)
	panicIf(createErr)

	truncErr := f.Truncate(size)
	if truncErr != nil {
		f.Close()
		panicIf(truncErr)
	}

	return &FileDiskIO{f: f}, nil
}
