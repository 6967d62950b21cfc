package jrnl

import (
	"sync"
)

// InvalidHandle is the sentinel returned when no handle could be allocated.
const InvalidHandle = -1

// handleTable is the thin adapter of spec §4.5/§9 for FFI-style callers that
// want a small integer rather than an owned *Journal — a FAT DiskIO
// callback, say. In-process Go callers should prefer MountJournal/Unmount.
type handleTable struct {
	mu   sync.Mutex
	slot []*Journal
}

var instances = newHandleTable(defaultMaxHandles)

func newHandleTable(capacity int) *handleTable {
	return &handleTable{slot: make([]*Journal, capacity)}
}

// Mount mounts a journal over diskio and returns a handle into the
// package-level table, or InvalidHandle with a NoMem error if the table is
// full.
func Mount(diskio DiskIO, cfg Config) (handle int, err error) {
	instances.mu.Lock()
	defer instances.mu.Unlock()

	slotIdx := -1
	for i, s := range instances.slot {
		if s == nil {
			slotIdx = i
			break
		}
	}
	if slotIdx == -1 {
		return InvalidHandle, newErr(NoMem, "mount: handle table full (capacity %d)", len(instances.slot))
	}

	j, mountErr := MountJournal(diskio, cfg)
	if mountErr != nil {
		return InvalidHandle, mountErr
	}

	instances.slot[slotIdx] = j
	return slotIdx, nil
}

// Unmount releases handle. Every path releases the table lock, closing the
// gap where the original source returned early on an invalid handle while
// still holding it.
func Unmount(handle int) (err error) {
	instances.mu.Lock()
	defer instances.mu.Unlock()

	j, lookupErr := lookupLocked(handle)
	if lookupErr != nil {
		return lookupErr
	}

	instances.slot[handle] = nil
	return j.Unmount()
}

func lookupLocked(handle int) (*Journal, error) {
	if handle < 0 || handle >= len(instances.slot) {
		return nil, newErr(InvalidArg, "handle %d out of range [0,%d)", handle, len(instances.slot))
	}
	j := instances.slot[handle]
	if j == nil {
		return nil, newErr(NotFound, "handle %d is not mounted", handle)
	}
	return j, nil
}

func lookup(handle int) (*Journal, error) {
	instances.mu.Lock()
	defer instances.mu.Unlock()
	return lookupLocked(handle)
}

// Start, Stop, SetDirectIO, Write, Read, GetDiskioHandle, GetSectorCount and
// GetSectorSize below all forward to the handle's *Journal, so handle-table
// callers don't need to hold onto the *Journal returned by an internal Mount
// call (they never see one).

func Start(handle int) error {
	j, err := lookup(handle)
	if err != nil {
		return err
	}
	return j.Start()
}

func Stop(handle int, commit bool) error {
	j, err := lookup(handle)
	if err != nil {
		return err
	}
	return j.Stop(commit)
}

func SetDirectIO(handle int, on bool) error {
	j, err := lookup(handle)
	if err != nil {
		return err
	}
	return j.SetDirectIO(on)
}

func Write(handle int, sector uint64, buf []byte, count uint32) error {
	j, err := lookup(handle)
	if err != nil {
		return err
	}
	return j.Write(sector, buf, count)
}

func Read(handle int, sector uint64, buf []byte, count uint32) error {
	j, err := lookup(handle)
	if err != nil {
		return err
	}
	return j.Read(sector, buf, count)
}

func GetDiskioHandle(handle int) (DiskIO, error) {
	j, err := lookup(handle)
	if err != nil {
		return nil, err
	}
	return j.GetDiskioHandle(), nil
}

func GetSectorCount(handle int) (uint64, error) {
	j, err := lookup(handle)
	if err != nil {
		return 0, err
	}
	return j.GetSectorCount(), nil
}

func GetSectorSize(handle int) (uint32, error) {
	j, err := lookup(handle)
	if err != nil {
		return 0, err
	}
	return j.GetSectorSize(), nil
}
