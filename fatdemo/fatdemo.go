// Package fatdemo is a minimal cluster-and-directory file layer that drives
// every mutation through a jrnl.Journal, the way the real FAT/VFS glue above
// the journal is expected to: every multi-sector change that must survive a
// crash goes through Start/Write.../Stop(true), never a bare Write in
// FS_INIT mode except during format.
//
// It is deliberately small next to a real FAT implementation; its purpose is
// to exercise the journal end-to-end with a caller that actually has
// multi-sector, multi-region transactions (directory entry + FAT chain +
// data sectors), not to be a complete file system.
package fatdemo

import (
	"bytes"

	"github.com/espjrnl/go-jrnl"
)

const sectorSize = 4096

// Layout (in sectors, within the journal's target region):
//
//	sector 0            - superblock
//	sector 1..fatSectors - the allocation table, one uint32 "next cluster"
//	                       entry per data cluster (0 = free, maxUint32 = EOF)
//	remaining sectors    - directory region (first) then data clusters
const (
	superblockSector = 0
	eofMarker        = 0xFFFFFFFF
	freeMarker       = 0
	dirEntrySize     = 64
	maxNameLen       = 48
)

// superblock occupies sector 0 and records the volume's static geometry.
type superblock struct {
	Magic        uint32
	FATSectors   uint32
	DirSectors   uint32
	DataStart    uint32
	ClusterCount uint32
}

const superblockMagic = 0xFA7DE0

// Volume is a mounted fatdemo instance layered over a journal.
type Volume struct {
	j *jrnl.Journal
	sb superblock
}

// Format lays out a fresh superblock, FAT and (empty) directory region atop
// an already-mounted, empty journal, and returns the usable Volume. The
// journal must be in FS_INIT (direct I/O) mode, matching how a real FS
// format pass bypasses journaling for the initial layout.
func Format(j *jrnl.Journal, clusterCount uint32, dirSectors uint32) (*Volume, error) {
	fatSectors := (clusterCount*4 + sectorSize - 1) / sectorSize
	if fatSectors == 0 {
		fatSectors = 1
	}

	sb := superblock{
		Magic:        superblockMagic,
		FATSectors:   fatSectors,
		DirSectors:   dirSectors,
		DataStart:    1 + fatSectors + dirSectors,
		ClusterCount: clusterCount,
	}

	v := &Volume{j: j, sb: sb}

	if err := v.writeDirect(superblockSector, v.packSuperblock()); err != nil {
		return nil, err
	}

	zeroFAT := make([]byte, sectorSize)
	for s := uint32(0); s < fatSectors; s++ {
		if err := v.writeDirect(uint64(1+s), zeroFAT); err != nil {
			return nil, err
		}
	}

	zeroDir := make([]byte, sectorSize)
	for s := uint32(0); s < dirSectors; s++ {
		if err := v.writeDirect(uint64(1+fatSectors+s), zeroDir); err != nil {
			return nil, err
		}
	}

	return v, nil
}

// Open reads back the superblock of an already-formatted volume.
func Open(j *jrnl.Journal) (*Volume, error) {
	buf := make([]byte, sectorSize)
	if err := j.Read(superblockSector, buf, 1); err != nil {
		return nil, err
	}

	sb := unpackSuperblock(buf)
	if sb.Magic != superblockMagic {
		return nil, jrnl.NewInvalidArgError("fatdemo: no superblock found (bad magic)")
	}

	return &Volume{j: j, sb: sb}, nil
}

func (v *Volume) writeDirect(sector uint64, buf []byte) error {
	return v.j.Write(sector, buf, 1)
}

func (v *Volume) packSuperblock() []byte {
	buf := make([]byte, sectorSize)
	putU32(buf[0:], v.sb.Magic)
	putU32(buf[4:], v.sb.FATSectors)
	putU32(buf[8:], v.sb.DirSectors)
	putU32(buf[12:], v.sb.DataStart)
	putU32(buf[16:], v.sb.ClusterCount)
	return buf
}

func unpackSuperblock(buf []byte) superblock {
	return superblock{
		Magic:        getU32(buf[0:]),
		FATSectors:   getU32(buf[4:]),
		DirSectors:   getU32(buf[8:]),
		DataStart:    getU32(buf[12:]),
		ClusterCount: getU32(buf[16:]),
	}
}

func putU32(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}

func getU32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

// dirEntry is one fixed-size slot in the directory region.
type dirEntry struct {
	Name         string
	Size         uint32
	StartCluster uint32
	Used         bool
}

func packDirEntry(e dirEntry) []byte {
	buf := make([]byte, dirEntrySize)
	nameBytes := []byte(e.Name)
	if len(nameBytes) > maxNameLen {
		nameBytes = nameBytes[:maxNameLen]
	}
	copy(buf[0:], nameBytes)
	if e.Used {
		buf[maxNameLen] = 1
	}
	putU32(buf[maxNameLen+4:], e.Size)
	putU32(buf[maxNameLen+8:], e.StartCluster)
	return buf
}

func unpackDirEntry(buf []byte) dirEntry {
	nameEnd := bytes.IndexByte(buf[0:maxNameLen], 0)
	if nameEnd < 0 {
		nameEnd = maxNameLen
	}
	return dirEntry{
		Name:         string(buf[0:nameEnd]),
		Used:         buf[maxNameLen] == 1,
		Size:         getU32(buf[maxNameLen+4:]),
		StartCluster: getU32(buf[maxNameLen+8:]),
	}
}

func (v *Volume) fatSector(cluster uint32) uint64 {
	entriesPerSector := uint32(sectorSize / 4)
	return uint64(1 + cluster/entriesPerSector)
}

func (v *Volume) fatOffset(cluster uint32) int {
	entriesPerSector := sectorSize / 4
	return int(cluster) % entriesPerSector * 4
}

func (v *Volume) dataSector(cluster uint32) uint64 {
	return uint64(v.sb.DataStart + cluster)
}

func (v *Volume) dirSectorCount() uint32 {
	return v.sb.DirSectors
}

func (v *Volume) dirBaseSector() uint64 {
	return uint64(1 + v.sb.FATSectors)
}

// readFATSector reads the FAT sector containing cluster's entry.
func (v *Volume) readFATSector(cluster uint32) ([]byte, error) {
	buf := make([]byte, sectorSize)
	if err := v.j.Read(v.fatSector(cluster), buf, 1); err != nil {
		return nil, err
	}
	return buf, nil
}

// allocateClusters finds n free clusters (does not chain them); the caller
// (CreateFile) links them in its fatUpdates sectors before writing.
func (v *Volume) allocateClusters(n int) ([]uint32, error) {
	var free []uint32
	entriesPerSector := uint32(sectorSize / 4)

	for s := uint32(0); s < v.sb.FATSectors && len(free) < n; s++ {
		buf := make([]byte, sectorSize)
		if err := v.j.Read(uint64(1+s), buf, 1); err != nil {
			return nil, err
		}
		for i := uint32(0); i < entriesPerSector && len(free) < n; i++ {
			cluster := s*entriesPerSector + i
			if cluster >= v.sb.ClusterCount {
				break
			}
			if getU32(buf[i*4:]) == freeMarker {
				free = append(free, cluster)
			}
		}
	}

	if len(free) < n {
		return nil, jrnl.NewNoMemError("fatdemo: not enough free clusters: want %d, found %d", n, len(free))
	}
	return free, nil
}

// CreateFile writes data into a fresh cluster chain and a directory entry,
// all inside a single journal transaction: either the whole file appears or
// none of it does.
func (v *Volume) CreateFile(name string, data []byte) error {
	clustersNeeded := (len(data) + sectorSize - 1) / sectorSize
	if clustersNeeded == 0 {
		clustersNeeded = 1
	}

	clusters, err := v.allocateClusters(clustersNeeded)
	if err != nil {
		return err
	}

	dirSector, dirOffset, err := v.findFreeDirSlot()
	if err != nil {
		return err
	}

	if err := v.j.Start(); err != nil {
		return err
	}

	fatUpdates := map[uint64][]byte{}
	for i, cluster := range clusters {
		next := uint32(eofMarker)
		if i+1 < len(clusters) {
			next = clusters[i+1]
		}
		sec := v.fatSector(cluster)
		buf, ok := fatUpdates[sec]
		if !ok {
			buf, err = v.readFATSector(cluster)
			if err != nil {
				v.j.Stop(false)
				return err
			}
			fatUpdates[sec] = buf
		}
		putU32(buf[v.fatOffset(cluster):], next)
	}
	for sec, buf := range fatUpdates {
		if err := v.j.Write(sec, buf, 1); err != nil {
			v.j.Stop(false)
			return err
		}
	}

	dirBuf := make([]byte, sectorSize)
	if err := v.j.Read(dirSector, dirBuf, 1); err != nil {
		v.j.Stop(false)
		return err
	}
	entry := dirEntry{Name: name, Size: uint32(len(data)), StartCluster: clusters[0], Used: true}
	copy(dirBuf[dirOffset:dirOffset+dirEntrySize], packDirEntry(entry))
	if err := v.j.Write(dirSector, dirBuf, 1); err != nil {
		v.j.Stop(false)
		return err
	}

	for i, cluster := range clusters {
		start := i * sectorSize
		end := start + sectorSize
		payload := make([]byte, sectorSize)
		if start < len(data) {
			copy(payload, data[start:min(end, len(data))])
		}
		if err := v.j.Write(v.dataSector(cluster), payload, 1); err != nil {
			v.j.Stop(false)
			return err
		}
	}

	return v.j.Stop(true)
}

// findFreeDirSlot returns the sector and the in-sector byte offset of the
// first unused directory entry slot.
func (v *Volume) findFreeDirSlot() (uint64, int, error) {
	entriesPerSector := sectorSize / dirEntrySize

	for s := uint32(0); s < v.dirSectorCount(); s++ {
		sector := v.dirBaseSector() + uint64(s)
		buf := make([]byte, sectorSize)
		if err := v.j.Read(sector, buf, 1); err != nil {
			return 0, 0, err
		}
		for i := 0; i < entriesPerSector; i++ {
			off := i * dirEntrySize
			if buf[off+maxNameLen] == 0 {
				return sector, off, nil
			}
		}
	}
	return 0, 0, jrnl.NewNoMemError("fatdemo: directory region full")
}

// ReadFile reassembles a file's contents by walking its cluster chain.
func (v *Volume) ReadFile(name string) ([]byte, error) {
	entry, found, err := v.lookup(name)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, jrnl.NewNotFoundError("fatdemo: file %q not found", name)
	}

	var out bytes.Buffer
	cluster := entry.StartCluster
	remaining := int(entry.Size)

	for remaining > 0 {
		buf := make([]byte, sectorSize)
		if err := v.j.Read(v.dataSector(cluster), buf, 1); err != nil {
			return nil, err
		}
		n := min(remaining, sectorSize)
		out.Write(buf[:n])
		remaining -= n

		fatBuf, err := v.readFATSector(cluster)
		if err != nil {
			return nil, err
		}
		cluster = getU32(fatBuf[v.fatOffset(cluster):])
	}

	return out.Bytes(), nil
}

func (v *Volume) lookup(name string) (dirEntry, bool, error) {
	entriesPerSector := sectorSize / dirEntrySize

	for s := uint32(0); s < v.dirSectorCount(); s++ {
		sector := v.dirBaseSector() + uint64(s)
		buf := make([]byte, sectorSize)
		if err := v.j.Read(sector, buf, 1); err != nil {
			return dirEntry{}, false, err
		}
		for i := 0; i < entriesPerSector; i++ {
			off := i * dirEntrySize
			e := unpackDirEntry(buf[off : off+dirEntrySize])
			if e.Used && e.Name == name {
				return e, true, nil
			}
		}
	}
	return dirEntry{}, false, nil
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
