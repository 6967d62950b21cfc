package fatdemo

import (
	"bytes"
	"testing"

	jrnl "github.com/espjrnl/go-jrnl"
)

func mustMountJournal(t *testing.T) *jrnl.Journal {
	t.Helper()

	totalSectors := int64(64 + 16)
	disk := jrnl.NewMemDiskIO(totalSectors * sectorSize)
	cfg := jrnl.Config{
		VolumeSize:        totalSectors * sectorSize,
		SectorSize:        sectorSize,
		StoreSizeSectors:  16,
		OverwriteExisting: true,
		ForceFSFormat:     true,
	}

	j, err := jrnl.MountJournal(disk, cfg)
	if err != nil {
		t.Fatalf("mount: %v", err)
	}
	return j
}

func TestFormatCreateReadFile(t *testing.T) {
	j := mustMountJournal(t)

	v, err := Format(j, 32, 4)
	if err != nil {
		t.Fatalf("format: %v", err)
	}

	if err := j.SetDirectIO(false); err != nil {
		t.Fatalf("set_direct_io(false): %v", err)
	}

	content := bytes.Repeat([]byte("hello-fatdemo-"), 500)
	if err := v.CreateFile("greeting.txt", content); err != nil {
		t.Fatalf("create file: %v", err)
	}

	got, err := v.ReadFile("greeting.txt")
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	if !bytes.Equal(got, content) {
		t.Fatalf("readback mismatch: got %d bytes, want %d bytes", len(got), len(content))
	}
}

func TestReadFileNotFound(t *testing.T) {
	j := mustMountJournal(t)

	v, err := Format(j, 32, 4)
	if err != nil {
		t.Fatalf("format: %v", err)
	}
	if err := j.SetDirectIO(false); err != nil {
		t.Fatalf("set_direct_io(false): %v", err)
	}

	if _, err := v.ReadFile("missing.txt"); err == nil {
		t.Fatalf("expected error reading missing file")
	}
}

func TestCreateFileSurvivesCancel(t *testing.T) {
	j := mustMountJournal(t)

	v, err := Format(j, 32, 4)
	if err != nil {
		t.Fatalf("format: %v", err)
	}
	if err := j.SetDirectIO(false); err != nil {
		t.Fatalf("set_direct_io(false): %v", err)
	}

	if err := v.CreateFile("a.txt", []byte("one")); err != nil {
		t.Fatalf("create a: %v", err)
	}

	if err := j.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := j.Stop(false); err != nil {
		t.Fatalf("stop(cancel): %v", err)
	}

	got, err := v.ReadFile("a.txt")
	if err != nil {
		t.Fatalf("read a after unrelated cancel: %v", err)
	}
	if string(got) != "one" {
		t.Fatalf("file a.txt corrupted: %q", got)
	}
}
