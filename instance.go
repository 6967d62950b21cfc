package jrnl

import (
	"sync"
)

// Journal is one mounted journal instance: the master record cache, the
// transaction lock, and the disk-I/O capability it was mounted over (spec
// §3.4). Callers that want the handle-table adapter style should use Mount
// and Unmount at package level instead of constructing a Journal directly.
type Journal struct {
	mu sync.Mutex

	diskio DiskIO

	master masterRecord

	// testConfig is always present so the struct layout doesn't shift across
	// build tags; its bits are only ever set/consulted when built with the
	// jrnltest tag.
	testConfig testFlags
}

// MountJournal mounts (or creates) a journal store over diskio per cfg,
// returning an owned instance. This is the idiomatic entry point for
// in-process callers; see Mount for the handle-table adapter.
func MountJournal(diskio DiskIO, cfg Config) (j *Journal, err error) {
	defer recoverErr(&err)

	if diskio == nil {
		panicKind(InvalidArg, "mount: nil DiskIO")
	}
	if cfg.SectorSize == 0 {
		panicKind(InvalidArg, "mount: zero SectorSize")
	}
	storeSize := cfg.storeSizeSectors()
	if storeSize < minStoreSizeSectors {
		panicKind(InvalidArg, "mount: store_size_sectors %d < %d", storeSize, minStoreSizeSectors)
	}

	totalSectors := uint64(cfg.VolumeSize) / uint64(cfg.SectorSize)
	if storeSize >= totalSectors {
		panicKind(InvalidArg, "mount: store_size_sectors %d does not fit volume of %d sectors", storeSize, totalSectors)
	}
	storeVolumeOffset := totalSectors - storeSize

	j = &Journal{diskio: diskio}

	fresh := cfg.OverwriteExisting || cfg.ForceFSFormat

	if !fresh {
		existing, readErr := j.readMasterDirect(cfg.SectorSize, totalSectors)
		panicIf(readErr)

		if existing.isValid() {
			if existing.StoreSizeSectors != storeSize ||
				existing.StoreVolumeOffsetSector != storeVolumeOffset ||
				existing.VolumeSize != uint64(cfg.VolumeSize) ||
				existing.SectorSize != uint64(cfg.SectorSize) {
				panicKind(InvalidState, "mount: geometry mismatch against existing store")
			}

			j.master = existing

			if cfg.ReplayJournalAfterMount {
				j.replay()
			}

			return j, nil
		}
	}

	status := StatusReady
	if cfg.ForceFSFormat {
		status = StatusFSInit
	}

	j.master = masterRecord{
		Magic:                   storeMarker,
		StoreSizeSectors:        storeSize,
		StoreVolumeOffsetSector: storeVolumeOffset,
		NextFreeSector:          0,
		Status:                  uint32(status),
		VolumeSize:              uint64(cfg.VolumeSize),
		SectorSize:              uint64(cfg.SectorSize),
	}
	j.persistMaster()

	return j, nil
}

// readMasterDirect reads the master sector off disk without touching any
// in-memory state, used to probe for an existing store before committing to
// fresh-vs-restore.
func (j *Journal) readMasterDirect(sectorSize uint32, totalSectors uint64) (masterRecord, error) {
	buf := make([]byte, sectorSize)
	addr := int64(totalSectors-1) * int64(sectorSize)

	if err := j.diskio.ReadAt(addr, buf); err != nil {
		return masterRecord{}, err
	}

	m, err := unpackMasterRecord(buf)
	if err != nil {
		return masterRecord{}, err
	}
	return m, nil
}

func (j *Journal) status() Status {
	return Status(j.master.Status)
}

// masterAddr is the byte offset of the master sector: the last sector of
// the store, i.e. the last sector of the volume. Computed from the sector
// geometry (StoreVolumeOffsetSector + StoreSizeSectors - 1) rather than
// VolumeSize - SectorSize directly, so it agrees with readMasterDirect's
// (totalSectors-1)*SectorSize even when VolumeSize isn't an exact multiple
// of SectorSize.
func (j *Journal) masterAddr() int64 {
	lastSector := j.master.StoreVolumeOffsetSector + j.master.StoreSizeSectors - 1
	return int64(lastSector) * int64(j.master.SectorSize)
}

// persistMaster writes the cached master record to its sector, erasing the
// sector first per spec §4.3 (erase-then-write of the master sector is the
// atomic step for every state transition).
func (j *Journal) persistMaster() {
	sectorSize := uint32(j.master.SectorSize)
	addr := j.masterAddr()

	panicIf(j.diskio.EraseRange(addr, int64(sectorSize)))
	panicIf(j.diskio.WriteAt(addr, j.master.pack(sectorSize)))
}

// Unmount releases the instance. It does not flush or finalize any
// in-progress transaction; callers are expected to commit or cancel first.
func (j *Journal) Unmount() error {
	return nil
}

// Start begins a transaction. Requires status READY and an empty log.
func (j *Journal) Start() (err error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	defer recoverErr(&err)

	if j.testFlagSet(FlagSuspendTransaction) {
		return nil
	}

	if j.status() != StatusReady {
		panicKind(InvalidState, "start: status is %s, want READY", j.status())
	}
	if j.master.NextFreeSector != 0 {
		panicKind(InvalidState, "start: next_free_sector %d != 0", j.master.NextFreeSector)
	}

	j.master.Status = uint32(StatusOpen)
	j.persistMaster()
	return nil
}

// Stop ends the running transaction. With commit=false the log is discarded
// and the status returns to READY. With commit=true the transaction is
// marked COMMIT and replayed onto the target region.
func (j *Journal) Stop(commit bool) (err error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	defer recoverErr(&err)

	if j.testFlagSet(FlagSuspendTransaction) {
		return nil
	}

	if j.status() != StatusOpen {
		panicKind(InvalidState, "stop: status is %s, want OPEN", j.status())
	}

	if !commit {
		j.master.NextFreeSector = 0
		j.master.Status = uint32(StatusReady)
		j.persistMaster()
		return nil
	}

	j.injectCrash(FlagStopSkipCommit)

	j.master.Status = uint32(StatusCommit)
	j.persistMaster()

	j.injectCrash(FlagStopSetCommitAndExit)

	j.replay()
	return nil
}

// SetDirectIO toggles between FS_INIT (bypass) and READY (journaled) modes.
// Only valid when no transaction is in flight.
func (j *Journal) SetDirectIO(on bool) (err error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	defer recoverErr(&err)

	switch j.status() {
	case StatusFSInit, StatusReady:
	default:
		panicKind(InvalidState, "set_direct_io: status is %s, must be READY or FS_INIT", j.status())
	}

	if on {
		j.master.Status = uint32(StatusFSInit)
	} else {
		j.master.Status = uint32(StatusReady)
	}
	j.persistMaster()
	return nil
}

// Write is the write router (spec §4.2): direct pass-through in FS_INIT,
// append-to-log in OPEN, InvalidState otherwise.
func (j *Journal) Write(sector uint64, buf []byte, count uint32) (err error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	defer recoverErr(&err)

	if count == 0 {
		panicKind(InvalidArg, "write: count must be > 0")
	}
	wantLen := int(count) * int(j.master.SectorSize)
	if len(buf) != wantLen {
		panicKind(InvalidArg, "write: buf length %d != %d (count*sector_size)", len(buf), wantLen)
	}

	switch j.status() {
	case StatusFSInit:
		addr := int64(sector) * int64(j.master.SectorSize)
		panicIf(j.diskio.EraseRange(addr, int64(wantLen)))
		panicIf(j.diskio.WriteAt(addr, buf))
		return nil

	case StatusOpen:
		j.appendLogRecord(sector, buf, count)
		return nil

	default:
		panicKind(InvalidState, "write: status is %s, must be FS_INIT or OPEN", j.status())
		return nil
	}
}

// appendLogRecord implements the OPEN-status append procedure of spec §4.2.
func (j *Journal) appendLogRecord(targetSector uint64, data []byte, count uint32) {
	logCapacity := j.master.StoreSizeSectors - 1
	needed := uint64(j.master.NextFreeSector) + 1 + uint64(count)
	if needed >= logCapacity {
		panicKind(NoMem, "write: log full: next_free=%d need=%d capacity=%d", j.master.NextFreeSector, needed, logCapacity)
	}

	header := newOperHeader(targetSector, count, data)
	headerBuf := make([]byte, j.master.SectorSize)
	copy(headerBuf, header.pack())

	sectorSize := int64(j.master.SectorSize)
	logAddr := (int64(j.master.StoreVolumeOffsetSector) + int64(j.master.NextFreeSector)) * sectorSize

	panicIf(j.diskio.EraseRange(logAddr, (1+int64(count))*sectorSize))
	panicIf(j.diskio.WriteAt(logAddr, headerBuf))
	panicIf(j.diskio.WriteAt(logAddr+sectorSize, data))

	j.master.NextFreeSector += 1 + count
	j.persistMaster()
}

// Read is a pure read of the target region; it never consults the log.
func (j *Journal) Read(sector uint64, buf []byte, count uint32) (err error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	defer recoverErr(&err)

	if sector+uint64(count) > j.master.StoreVolumeOffsetSector {
		panicKind(InvalidArg, "read: sector %d + count %d exceeds target region (%d sectors)", sector, count, j.master.StoreVolumeOffsetSector)
	}

	wantLen := int(count) * int(j.master.SectorSize)
	if len(buf) != wantLen {
		panicKind(InvalidArg, "read: buf length %d != %d (count*sector_size)", len(buf), wantLen)
	}

	addr := int64(sector) * int64(j.master.SectorSize)
	panicIf(j.diskio.ReadAt(addr, buf))
	return nil
}

// GetDiskioHandle returns the underlying disk-I/O capability this instance
// was mounted over.
func (j *Journal) GetDiskioHandle() DiskIO {
	return j.diskio
}

// GetSectorCount returns the FS-visible sector count (the target region's
// size in sectors).
func (j *Journal) GetSectorCount() uint64 {
	return j.master.StoreVolumeOffsetSector
}

// GetSectorSize returns the device sector size this instance was mounted
// with.
func (j *Journal) GetSectorSize() uint32 {
	return uint32(j.master.SectorSize)
}

// Status returns the current transaction state from the cached master
// record, exported for introspection and tests.
func (j *Journal) Status() Status {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.status()
}
