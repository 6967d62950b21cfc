package jrnl

// Config is the caller-supplied mount configuration (spec §6.3).
type Config struct {
	// VolumeSize is the total number of bytes available on the underlying
	// device for this instance.
	VolumeSize int64

	// SectorSize is the device sector size; all I/O is a multiple of this.
	SectorSize uint32

	// StoreSizeSectors is the number of sectors reserved at the high end of
	// the volume for the journal. Must be >= 3. Defaults to 32 if zero.
	StoreSizeSectors uint64

	// OverwriteExisting ignores any existing master record and creates a
	// fresh store.
	OverwriteExisting bool

	// ReplayJournalAfterMount runs replay on mount when a valid master is
	// found and its status requires recovery. NewDefaultConfig sets it to
	// true; Mount applies no default of its own, so a Config that leaves it
	// at Go's zero value (false) does not replay on mount.
	ReplayJournalAfterMount bool

	// ForceFSFormat signals that the FS-layer collaborator is reformatting;
	// implies OverwriteExisting semantics for the journal itself.
	ForceFSFormat bool
}

// NewDefaultConfig returns a Config with the documented defaults applied:
// ReplayJournalAfterMount true, StoreSizeSectors defaultStoreSizeSectors,
// OverwriteExisting/ForceFSFormat false. Callers still must set VolumeSize
// and SectorSize.
func NewDefaultConfig() Config {
	return Config{
		StoreSizeSectors:        defaultStoreSizeSectors,
		ReplayJournalAfterMount: true,
	}
}

func (c *Config) storeSizeSectors() uint64 {
	if c.StoreSizeSectors == 0 {
		return defaultStoreSizeSectors
	}
	return c.StoreSizeSectors
}
