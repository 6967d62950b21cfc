package jrnl

import (
	"bytes"
	"testing"
)

func TestOperHeaderRoundTrip(t *testing.T) {
	data := bytes.Repeat([]byte{0xAB}, 2*testSectorSize)
	h := newOperHeader(42, 2, data)

	if !h.verify() {
		t.Fatalf("freshly built header fails its own CRC check")
	}
	if !h.verifyData(data) {
		t.Fatalf("freshly built header fails data CRC check")
	}

	packed := h.pack()
	got, err := unpackOperHeader(packed)
	if err != nil {
		t.Fatalf("unpack: %v", err)
	}
	if got != h {
		t.Fatalf("round-trip mismatch: got %+v, want %+v", got, h)
	}
	if !got.verify() {
		t.Fatalf("round-tripped header fails CRC check")
	}
}

func TestOperHeaderDetectsCorruption(t *testing.T) {
	data := bytes.Repeat([]byte{0x11}, testSectorSize)
	h := newOperHeader(7, 1, data)

	data[0] ^= 0xFF
	if h.verifyData(data) {
		t.Fatalf("corrupted data incorrectly verified")
	}

	h.TargetSector++
	if h.verify() {
		t.Fatalf("corrupted header incorrectly verified")
	}
}

func TestMasterRecordRoundTrip(t *testing.T) {
	m := masterRecord{
		Magic:                   storeMarker,
		StoreSizeSectors:        16,
		StoreVolumeOffsetSector: 100,
		NextFreeSector:          3,
		Status:                  uint32(StatusOpen),
		VolumeSize:              116 * testSectorSize,
		SectorSize:              testSectorSize,
	}

	packed := m.pack(testSectorSize)
	if len(packed) != testSectorSize {
		t.Fatalf("packed master length = %d, want %d", len(packed), testSectorSize)
	}

	got, err := unpackMasterRecord(packed)
	if err != nil {
		t.Fatalf("unpack: %v", err)
	}
	if got != m {
		t.Fatalf("round-trip mismatch: got %+v, want %+v", got, m)
	}
	if !got.isValid() {
		t.Fatalf("round-tripped master reports invalid")
	}
}

func TestMasterRecordInvalidWithoutMagic(t *testing.T) {
	var m masterRecord
	if m.isValid() {
		t.Fatalf("zero-value master should not be valid")
	}
}
