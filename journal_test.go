package jrnl

import (
	"bytes"
	"testing"
)

const testSectorSize = 4096
const testStoreSizeSectors = 16

func pattern16() []byte {
	p := bytes.Repeat([]byte("ABCDEFGH"), testSectorSize/8)
	return p
}

func newTestVolume(t *testing.T) (*MemDiskIO, Config) {
	t.Helper()
	// Target region needs >= 32 sectors, plus the store.
	totalSectors := int64(32 + testStoreSizeSectors)
	disk := NewMemDiskIO(totalSectors * testSectorSize)
	cfg := Config{
		VolumeSize:              totalSectors * testSectorSize,
		SectorSize:              testSectorSize,
		StoreSizeSectors:        testStoreSizeSectors,
		OverwriteExisting:       true,
		ReplayJournalAfterMount: true,
	}
	return disk, cfg
}

func mustMount(t *testing.T, disk DiskIO, cfg Config) *Journal {
	t.Helper()
	j, err := MountJournal(disk, cfg)
	if err != nil {
		t.Fatalf("mount: %v", err)
	}
	return j
}

func readTargetSector(t *testing.T, j *Journal, sector uint64) []byte {
	t.Helper()
	buf := make([]byte, testSectorSize)
	if err := j.Read(sector, buf, 1); err != nil {
		t.Fatalf("read sector %d: %v", sector, err)
	}
	return buf
}

// S1 — basic commit.
func TestBasicCommit(t *testing.T) {
	disk, cfg := newTestVolume(t)
	j := mustMount(t, disk, cfg)

	if err := j.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := j.Write(20, pattern16(), 1); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := j.Stop(true); err != nil {
		t.Fatalf("stop(commit): %v", err)
	}

	got := readTargetSector(t, j, 20)
	if !bytes.Equal(got, pattern16()) {
		t.Fatalf("target sector 20 mismatch after commit")
	}
	if j.Status() != StatusReady {
		t.Fatalf("status = %s, want READY", j.Status())
	}
	if j.master.NextFreeSector != 0 {
		t.Fatalf("next_free_sector = %d, want 0", j.master.NextFreeSector)
	}
}

// S2 — cancel.
func TestCancel(t *testing.T) {
	disk, cfg := newTestVolume(t)
	j := mustMount(t, disk, cfg)

	before := readTargetSector(t, j, 8)

	if err := j.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := j.Write(8, pattern16(), 1); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := j.Stop(false); err != nil {
		t.Fatalf("stop(cancel): %v", err)
	}

	after := readTargetSector(t, j, 8)
	if !bytes.Equal(before, after) {
		t.Fatalf("target sector 8 changed after cancel")
	}
	if j.Status() != StatusReady {
		t.Fatalf("status = %s, want READY", j.Status())
	}
	if j.master.NextFreeSector != 0 {
		t.Fatalf("next_free_sector = %d, want 0", j.master.NextFreeSector)
	}
}

// S6 — log capacity.
func TestLogCapacity(t *testing.T) {
	disk, cfg := newTestVolume(t)
	j := mustMount(t, disk, cfg)

	if err := j.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}

	bigData := bytes.Repeat(pattern16(), 14)
	if err := j.Write(0, bigData, 14); err == nil {
		t.Fatalf("expected NoMem writing 14 sectors, got nil")
	} else if je, ok := err.(*Error); !ok || je.Kind != NoMem {
		t.Fatalf("expected NoMem, got %v", err)
	}

	if err := j.Stop(false); err != nil {
		t.Fatalf("stop(cancel) after failed write: %v", err)
	}

	if err := j.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	okData := bytes.Repeat(pattern16(), 12)
	if err := j.Write(0, okData, 12); err != nil {
		t.Fatalf("expected success writing 12 sectors, got %v", err)
	}
}

// S7 — geometry mismatch detection.
func TestGeometryMismatch(t *testing.T) {
	totalSectors := int64(32 + 32)
	disk := NewMemDiskIO(totalSectors * testSectorSize)

	cfg1 := Config{
		VolumeSize:        totalSectors * testSectorSize,
		SectorSize:        testSectorSize,
		StoreSizeSectors:  32,
		OverwriteExisting: true,
	}
	if _, err := MountJournal(disk, cfg1); err != nil {
		t.Fatalf("first mount: %v", err)
	}

	cfg2 := Config{
		VolumeSize:        totalSectors * testSectorSize,
		SectorSize:        testSectorSize,
		StoreSizeSectors:  16,
		OverwriteExisting: false,
	}
	_, err := MountJournal(disk, cfg2)
	if err == nil {
		t.Fatalf("expected InvalidState on geometry mismatch, got nil")
	}
	if je, ok := err.(*Error); !ok || je.Kind != InvalidState {
		t.Fatalf("expected InvalidState, got %v", err)
	}
}

// Round-trip: mount; unmount; mount is a no-op on target contents.
func TestMountUnmountMountNoOp(t *testing.T) {
	disk, cfg := newTestVolume(t)
	j1 := mustMount(t, disk, cfg)

	if err := j1.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := j1.Write(5, pattern16(), 1); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := j1.Stop(true); err != nil {
		t.Fatalf("stop: %v", err)
	}

	before := readTargetSector(t, j1, 5)
	if err := j1.Unmount(); err != nil {
		t.Fatalf("unmount: %v", err)
	}

	cfg.OverwriteExisting = false
	j2 := mustMount(t, disk, cfg)
	after := readTargetSector(t, j2, 5)

	if !bytes.Equal(before, after) {
		t.Fatalf("remount changed target contents")
	}
}

// Handle-table adapter smoke test.
func TestHandleTableAdapter(t *testing.T) {
	disk, cfg := newTestVolume(t)

	h, err := Mount(disk, cfg)
	if err != nil {
		t.Fatalf("mount: %v", err)
	}
	defer Unmount(h)

	if err := Start(h); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := Write(h, 3, pattern16(), 1); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := Stop(h, true); err != nil {
		t.Fatalf("stop: %v", err)
	}

	buf := make([]byte, testSectorSize)
	if err := Read(h, 3, buf, 1); err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.Equal(buf, pattern16()) {
		t.Fatalf("sector 3 mismatch via handle table")
	}

	if _, err := lookup(h + 100); err == nil {
		t.Fatalf("expected error looking up out-of-range handle")
	}
}
