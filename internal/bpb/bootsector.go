// Package bpb decodes the FAT12 BIOS Parameter Block and derives the
// volume geometry every other engine package depends on.
package bpb

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/faucetlabs/fat12vol/internal/fat12errors"
	"github.com/faucetlabs/fat12vol/internal/ioimage"
)

// RawBootSector is the on-disk layout of the first 62 bytes of a FAT12 boot
// sector: the common BPB followed by the FAT12/16 extended fields.
type RawBootSector struct {
	JmpBoot           [3]byte
	OEMName           [8]byte
	BytesPerSector    uint16
	SectorsPerCluster uint8
	ReservedSectors   uint16
	NumFATs           uint8
	RootEntryCount    uint16
	TotalSectors16    uint16
	Media             uint8
	SectorsPerFAT16   uint16
	SectorsPerTrack   uint16
	NumHeads          uint16
	HiddenSectors     uint32
	TotalSectors32    uint32
	DriveNumber       uint8
	NTReserved        uint8
	ExBootSignature   uint8
	VolumeID          uint32
	VolumeLabel       [11]byte
	FileSystemType    [8]byte
}

// Geometry holds the derived constants from spec.md §3, computed once per
// open.
type Geometry struct {
	BytesPerSector    uint
	SectorsPerCluster uint
	ReservedSectors   uint
	NumFATs           uint
	SectorsPerFAT     uint
	RootEntryCount    uint
	TotalSectors      uint

	RootSector      uint // first sector of the root directory
	RootDirBytes    uint
	RootSectors     uint
	DataSector      uint // first sector of the data (cluster) region
	ClusterSize     uint
	TotalClusters   uint // valid cluster numbers are [2, TotalClusters+1]
	FATSizeBytes    uint // size in bytes of a single FAT copy
	DirentsPerClust uint
}

// BootSector is a decoded boot sector plus its derived Geometry.
type BootSector struct {
	Raw      RawBootSector
	Geometry Geometry
}

// Decode parses the first 512 bytes of img into a BootSector, validating
// the BPB fields per spec.md §4.2.
func Decode(img *ioimage.Image) (*BootSector, error) {
	raw, err := img.ReadAt(0, 512)
	if err != nil {
		return nil, err
	}

	var bs RawBootSector
	if err := binary.Read(bytes.NewReader(raw), binary.LittleEndian, &bs); err != nil {
		return nil, fat12errors.ErrIOFailed.WrapError(err)
	}

	geom, err := deriveGeometry(&bs)
	if err != nil {
		return nil, err
	}

	return &BootSector{Raw: bs, Geometry: *geom}, nil
}

func deriveGeometry(bs *RawBootSector) (*Geometry, error) {
	switch bs.BytesPerSector {
	case 512, 1024, 2048, 4096:
	default:
		return nil, fat12errors.ErrBadGeometry.WithMessage(
			fmt.Sprintf("bytes per sector must be 512, 1024, 2048, or 4096, got %d", bs.BytesPerSector))
	}

	switch bs.SectorsPerCluster {
	case 1, 2, 4, 8, 16, 32, 64, 128:
	default:
		return nil, fat12errors.ErrBadGeometry.WithMessage(
			fmt.Sprintf("sectors per cluster must be a power of 2 in 1..128, got %d", bs.SectorsPerCluster))
	}

	if bs.NumFATs < 1 {
		return nil, fat12errors.ErrBadGeometry.WithMessage("number of FATs must be at least 1")
	}
	if bs.RootEntryCount == 0 {
		return nil, fat12errors.ErrBadGeometry.WithMessage("root directory entry count must be nonzero")
	}
	if bs.SectorsPerFAT16 == 0 {
		return nil, fat12errors.ErrBadGeometry.WithMessage("sectors per FAT must be nonzero")
	}

	bps := uint(bs.BytesPerSector)
	spc := uint(bs.SectorsPerCluster)
	rsvd := uint(bs.ReservedSectors)
	nfats := uint(bs.NumFATs)
	fatsz := uint(bs.SectorsPerFAT16)
	rde := uint(bs.RootEntryCount)

	totalSectors := uint(bs.TotalSectors16)
	if totalSectors == 0 {
		totalSectors = uint(bs.TotalSectors32)
	}

	rootSector := rsvd + nfats*fatsz
	rootDirBytes := rde * 32
	rootSectors := (rootDirBytes + bps - 1) / bps
	dataSector := rootSector + rootSectors

	if totalSectors <= dataSector {
		return nil, fat12errors.ErrBadGeometry.WithMessage(
			fmt.Sprintf("total sectors (%d) must exceed first data sector (%d)", totalSectors, dataSector))
	}

	clusterSize := spc * bps
	totalClusters := (totalSectors - dataSector) / spc

	return &Geometry{
		BytesPerSector:    bps,
		SectorsPerCluster: spc,
		ReservedSectors:   rsvd,
		NumFATs:           nfats,
		SectorsPerFAT:     fatsz,
		RootEntryCount:    rde,
		TotalSectors:      totalSectors,
		RootSector:        rootSector,
		RootDirBytes:      rootDirBytes,
		RootSectors:       rootSectors,
		DataSector:        dataSector,
		ClusterSize:       clusterSize,
		TotalClusters:     totalClusters,
		FATSizeBytes:      fatsz * bps,
		DirentsPerClust:   clusterSize / 32,
	}, nil
}

// OEMName returns the space-trimmed 8-byte OEM field.
func (bs *BootSector) OEMName() string {
	return strings.TrimRight(string(bs.Raw.OEMName[:]), " \x00")
}

// VolumeLabel returns the BPB extended volume label as stored (all 11
// bytes, trailing space padding included), or "" if the field is
// empty/unset. Callers fall back to a root-directory scan and
// finally "NO NAME    " per spec.md §4.2.
func (bs *BootSector) VolumeLabel() string {
	if bs.Raw.VolumeLabel[0] == 0x00 || bs.Raw.VolumeLabel[0] == ' ' {
		return ""
	}
	return string(bs.Raw.VolumeLabel[:])
}
