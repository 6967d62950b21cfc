package jrnl

// replay implements the pre-flight dispatch and replay loop of spec §4.4. It
// assumes the caller already holds j.mu (Stop does; MountJournal calls it
// against a freshly constructed, not-yet-shared instance, so no lock is
// needed there either).
func (j *Journal) replay() {
	switch j.status() {
	case StatusReady, StatusFSInit:
		return

	case StatusOpen:
		// Rollback: an unfinished transaction is discarded wholesale, the
		// log contents are never consulted.
		j.master.NextFreeSector = 0
		j.master.Status = uint32(StatusReady)
		j.persistMaster()
		return

	case StatusCommit:
		j.replayCommitLoop()
		return

	default:
		panicKind(InvalidState, "replay: unexpected status %d", j.master.Status)
	}
}

// replayCommitLoop walks the log in order, verifying and re-applying each
// operation record to the target region, then resets the master.
func (j *Journal) replayCommitLoop() {
	sectorSize := int64(j.master.SectorSize)
	logBase := int64(j.master.StoreVolumeOffsetSector) * sectorSize

	cursor := uint32(0)
	first := true

	for cursor < j.master.NextFreeSector {
		headerBuf := make([]byte, j.master.SectorSize)
		headerAddr := logBase + int64(cursor)*sectorSize
		panicIf(j.diskio.ReadAt(headerAddr, headerBuf))

		header, unpackErr := unpackOperHeader(headerBuf)
		panicIf(unpackErr)

		if !header.verify() {
			panicKind(InvalidCRC, "replay: header CRC mismatch at log sector %d", cursor)
		}

		dataLen := int64(header.SectorCount) * sectorSize
		data := make([]byte, dataLen)
		dataAddr := headerAddr + sectorSize
		panicIf(j.diskio.ReadAt(dataAddr, data))

		if !header.verifyData(data) {
			panicKind(InvalidCRC, "replay: data CRC mismatch at log sector %d", cursor)
		}

		targetAddr := int64(header.TargetSector) * sectorSize

		panicIf(j.diskio.EraseRange(targetAddr, dataLen))
		if first {
			j.injectCrash(FlagReplayEraseAndExit)
		}

		panicIf(j.diskio.WriteAt(targetAddr, data))
		if first {
			j.injectCrash(FlagReplayWriteAndExit)
		}

		first = false
		cursor += 1 + header.SectorCount
	}

	j.injectCrash(FlagReplayExitBeforeClose)

	j.master.NextFreeSector = 0
	j.master.Status = uint32(StatusReady)
	j.persistMaster()
}
