package jrnl

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestMemDiskIOReadWrite(t *testing.T) {
	d := NewMemDiskIO(4096)

	payload := bytes.Repeat([]byte{0x42}, 512)
	if err := d.WriteAt(100, payload); err != nil {
		t.Fatalf("write: %v", err)
	}

	got := make([]byte, 512)
	if err := d.ReadAt(100, got); err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("read back mismatch")
	}
}

func TestMemDiskIOBounds(t *testing.T) {
	d := NewMemDiskIO(1024)
	buf := make([]byte, 10)

	if err := d.ReadAt(1020, buf); err == nil {
		t.Fatalf("expected out-of-bounds read to fail")
	}
	if err := d.WriteAt(-1, buf); err == nil {
		t.Fatalf("expected negative-address write to fail")
	}
	if err := d.EraseRange(1000, 100); err == nil {
		t.Fatalf("expected out-of-bounds erase to fail")
	}
}

func TestMemDiskIOErase(t *testing.T) {
	d := NewMemDiskIO(1024)
	payload := bytes.Repeat([]byte{0xFF}, 100)
	if err := d.WriteAt(0, payload); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := d.EraseRange(0, 100); err != nil {
		t.Fatalf("erase: %v", err)
	}
	for _, b := range d.Bytes()[:100] {
		if b != 0 {
			t.Fatalf("erased range not zeroed")
		}
	}
}

func TestFileDiskIORoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "volume.img")

	fd, err := CreateImage(path, 8192)
	if err != nil {
		t.Fatalf("create image: %v", err)
	}
	defer fd.Close()

	payload := bytes.Repeat([]byte{0x7A}, 256)
	if err := fd.WriteAt(512, payload); err != nil {
		t.Fatalf("write: %v", err)
	}

	got := make([]byte, 256)
	if err := fd.ReadAt(512, got); err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("read back mismatch")
	}

	if err := fd.EraseRange(512, 256); err != nil {
		t.Fatalf("erase: %v", err)
	}
	if err := fd.ReadAt(512, got); err != nil {
		t.Fatalf("read after erase: %v", err)
	}
	for _, b := range got {
		if b != 0 {
			t.Fatalf("erased range not zeroed")
		}
	}
}

func TestOpenFileDiskIOMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "does-not-exist.img")
	if _, err := OpenFileDiskIO(path); err == nil {
		t.Fatalf("expected error opening nonexistent file")
	}
	if _, err := os.Stat(path); err == nil {
		t.Fatalf("OpenFileDiskIO should not have created the file")
	}
}
