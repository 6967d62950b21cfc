package jrnl

import (
	"hash/crc32"

	"github.com/go-restruct/restruct"
)

// crc32Table is the reflected CRC32 (IEEE 802.3) polynomial used throughout
// this package, matching esp_crc32_le's use of the standard reflected
// CRC32 table seeded with all-ones.
var crc32Table = crc32.IEEETable

// crc32Seed is the initial register value, UINT32_MAX in the original
// esp_crc32_le(UINT32_MAX, ...) calls.
const crc32Seed = uint32(0xFFFFFFFF)

func crc32Of(buf []byte) uint32 {
	return crc32.Update(crc32Seed, crc32Table, buf)
}

// operHeader is the fixed-size portion of a log record that precedes its
// payload sectors (spec §3.3). Its own CRC32 is computed over
// {TargetSector, SectorCount, DataCRC} and stored in HeaderCRC.
type operHeader struct {
	TargetSector uint64
	SectorCount  uint32
	DataCRC      uint32
	HeaderCRC    uint32
}

func operHeaderSize() int {
	size, err := restruct.SizeOf(&operHeader{})
	panicIf(err)
	return size
}

// newOperHeader builds a header for a pending write of data to targetSector,
// computing both CRCs in the order the original source does: data first,
// then the header over {target, count, dataCRC}.
func newOperHeader(targetSector uint64, sectorCount uint32, data []byte) operHeader {
	h := operHeader{
		TargetSector: targetSector,
		SectorCount:  sectorCount,
		DataCRC:      crc32Of(data),
	}
	h.HeaderCRC = h.headerFieldsCRC()
	return h
}

// headerFieldsCRC computes the CRC over the header's own fields, excluding
// HeaderCRC itself, mirroring esp_jrnl_oper_header_t's crc32_data coverage.
func (h *operHeader) headerFieldsCRC() uint32 {
	tmp := *h
	tmp.HeaderCRC = 0

	encoded, err := restruct.Pack(defaultEncoding, &tmp)
	panicIf(err)

	return crc32Of(encoded[:operHeaderSize()-4])
}

// verify reports whether the header's own CRC matches its fields.
func (h *operHeader) verify() bool {
	return h.HeaderCRC == h.headerFieldsCRC()
}

// verifyData reports whether data matches the header's recorded DataCRC.
func (h *operHeader) verifyData(data []byte) bool {
	return h.DataCRC == crc32Of(data)
}

func (h *operHeader) pack() []byte {
	encoded, err := restruct.Pack(defaultEncoding, h)
	panicIf(err)
	return encoded
}

func unpackOperHeader(buf []byte) (h operHeader, err error) {
	defer recoverErr(&err)

	size := operHeaderSize()
	if len(buf) < size {
		panicKind(InvalidArg, "operation header buffer too small: %d < %d", len(buf), size)
	}

	unpackErr := restruct.Unpack(buf[:size], defaultEncoding, &h)
	panicIf(unpackErr)

	return h, nil
}
