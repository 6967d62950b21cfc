package jrnl

import (
	"encoding/binary"

	"github.com/go-restruct/restruct"
)

// defaultEncoding is the byte order used for every on-disk structure,
// matching the teacher's defaultEncoding use of binary.LittleEndian
// throughout structures.go.
var defaultEncoding = binary.LittleEndian

// storeMarker identifies a valid journal store (spec §3.2); fixed value per
// spec §6.2, unchanged from the original jrnl_magic_mark / JRNL_STORE_MARKER.
const storeMarker = uint32(0x6A6B6C6D)

// minStoreSizeSectors is the smallest store size MountJournal accepts: one
// master sector plus a two-sector log. appendLogRecord keeps the log tail
// strictly below StoreSizeSectors-1, so a store of this size accepts no log
// record; a count-sector write needs a store of at least count+3 sectors.
const minStoreSizeSectors = 3

// defaultStoreSizeSectors is Config's default StoreSizeSectors (spec §6.3).
const defaultStoreSizeSectors = 32

// defaultMaxHandles bounds the package-level handle table (spec §4.5).
const defaultMaxHandles = 8

// Status is the transaction state machine's current state (spec §4.1).
type Status uint8

const (
	// StatusFSInit (alias StatusFSDirect) bypasses the journal: writes pass
	// straight through to the target region. Used during FS format/mount
	// and for controlled maintenance.
	StatusFSInit Status = iota

	// StatusReady is an armed journal, no transaction in progress, empty
	// log.
	StatusReady

	// StatusOpen is a running transaction; writes are appended to the log.
	StatusOpen

	// StatusCommit is a commit in progress: log contents are being copied to
	// the target region.
	StatusCommit
)

// StatusFSDirect is an alias for StatusFSInit, kept distinct in name only
// for readability at call sites that mean "direct I/O mode" rather than
// "freshly initialized" — mirrors ESP_JRNL_STATUS_FS_DIRECT in the original.
const StatusFSDirect = StatusFSInit

func (s Status) String() string {
	switch s {
	case StatusFSInit:
		return "FS_INIT"
	case StatusReady:
		return "READY"
	case StatusOpen:
		return "OPEN"
	case StatusCommit:
		return "COMMIT"
	default:
		return "UNKNOWN"
	}
}

// masterRecord is the single on-disk structure holding journal identity,
// geometry, transaction status and log tail pointer (spec §3.2). It occupies
// the first bytes of the store's last sector; the remainder of that sector
// is explicitly zeroed before every write (closing the gap the Design Notes
// flag in the original C source).
type masterRecord struct {
	Magic                   uint32
	StoreSizeSectors        uint64
	StoreVolumeOffsetSector uint64
	NextFreeSector          uint32
	Status                  uint32
	VolumeSize              uint64
	SectorSize              uint64
}

func masterRecordSize() int {
	size, err := restruct.SizeOf(&masterRecord{})
	panicIf(err)
	return size
}

// pack encodes the master record into a zero-filled, sector-sized buffer
// (spec §6.2: "remainder of the sector MUST be zero-padded before write").
func (m *masterRecord) pack(sectorSize uint32) []byte {
	buf := make([]byte, sectorSize)

	encoded, err := restruct.Pack(defaultEncoding, m)
	panicIf(err)

	copy(buf, encoded)
	return buf
}

func unpackMasterRecord(buf []byte) (m masterRecord, err error) {
	defer recoverErr(&err)

	size := masterRecordSize()
	if len(buf) < size {
		panicKind(InvalidArg, "master record buffer too small: %d < %d", len(buf), size)
	}

	unpackErr := restruct.Unpack(buf[:size], defaultEncoding, &m)
	panicIf(unpackErr)

	return m, nil
}

// isValid reports whether the magic marker is present, i.e. whether the
// store has ever been initialized (spec §3.2 invariant).
func (m *masterRecord) isValid() bool {
	return m.Magic == storeMarker
}
