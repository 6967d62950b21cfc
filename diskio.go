package jrnl

// DiskIO is the capability the journal core needs from whatever sits below
// it (a wear-levelled flash partition in the original system). All addresses
// and sizes are byte offsets, but are always sector-aligned multiples of the
// sector size in use by the caller — the core never does sub-sector I/O.
//
// Implementations are synchronous: a call does not return until the
// operation has landed (or failed), since the replay/recovery argument in
// spec §4.4 depends on disk-I/O completion ordering being observable by the
// core.
type DiskIO interface {
	// ReadAt reads len(buf) bytes starting at addr into buf.
	ReadAt(addr int64, buf []byte) error

	// WriteAt writes buf starting at addr.
	WriteAt(addr int64, buf []byte) error

	// EraseRange prepares size bytes starting at addr for writing. On media
	// that doesn't distinguish erase from write this may be a no-op, but the
	// core always calls it before the corresponding WriteAt, matching the
	// erase-then-write pattern of the original wear-levelling driver.
	EraseRange(addr int64, size int64) error
}
