// Package fat12 implements the FAT12-specific layers of the volume engine:
// the packed 12-bit allocation table, cluster-chain walking and
// allocation, the directory iterator, path resolution, and directory
// entry encode/decode.
package fat12

import (
	"encoding/binary"

	"github.com/noxer/bytewriter"

	"github.com/faucetlabs/fat12vol/internal/bpb"
	"github.com/faucetlabs/fat12vol/internal/fat12errors"
	"github.com/faucetlabs/fat12vol/internal/ioimage"
)

// EntryClass classifies a 12-bit FAT entry value per spec.md §3.
type EntryClass int

const (
	ClassFree EntryClass = iota
	ClassReserved
	ClassData
	ClassBad
	ClassEOC
)

// Classify returns the class of a raw 12-bit FAT entry value.
func Classify(v uint16) EntryClass {
	switch {
	case v == 0x000:
		return ClassFree
	case v == 0x001:
		return ClassReserved
	case v >= 0x002 && v <= 0xFEF:
		return ClassData
	case v >= 0xFF0 && v <= 0xFF6:
		return ClassReserved
	case v == 0xFF7:
		return ClassBad
	default: // 0xFF8..0xFFF
		return ClassEOC
	}
}

// EOCValue is written to mark the last cluster in a chain.
const EOCValue = uint16(0xFFF)

// Table is the packed 12-bit cluster allocation table. Reads always hit the
// primary copy (copy index 0); writes are mirrored to every copy in
// img per spec.md §9's resolved Open Question 2.
type Table struct {
	img           *ioimage.Image
	fatStartBytes uint // byte offset of the primary FAT (reserved sectors * bps)
	fatSizeBytes  uint // size in bytes of a single FAT copy
	numFATs       uint
	bps           uint
	totalClusters uint
}

// NewTable builds a Table view over img using the geometry decoded from the
// boot sector.
func NewTable(img *ioimage.Image, geom bpb.Geometry) *Table {
	return &Table{
		img:           img,
		fatStartBytes: geom.ReservedSectors * geom.BytesPerSector,
		fatSizeBytes:  geom.FATSizeBytes,
		numFATs:       geom.NumFATs,
		bps:           geom.BytesPerSector,
		totalClusters: geom.TotalClusters,
	}
}

// TotalClusters is the number of data clusters on the volume. Valid cluster
// numbers are [2, TotalClusters+1].
func (t *Table) TotalClusters() uint { return t.totalClusters }

func (t *Table) entryWindowOffset(cluster uint) int64 {
	return int64(t.fatStartBytes) + int64(3*cluster/2)
}

// Get returns the 12-bit entry for cluster c from the primary FAT copy.
func (t *Table) Get(c uint) (uint16, error) {
	data, err := t.img.ReadAt(t.entryWindowOffset(c), 2)
	if err != nil {
		return 0, err
	}
	w := binary.LittleEndian.Uint16(data)
	if c%2 == 0 {
		return w & 0x0FFF, nil
	}
	return w >> 4, nil
}

// Put writes value v (12 bits significant) as the entry for cluster c,
// mirroring the write to every FAT copy on the volume.
func (t *Table) Put(c uint, v uint16) error {
	for copyIdx := uint(0); copyIdx < t.numFATs; copyIdx++ {
		offset := t.entryWindowOffset(c) + int64(copyIdx*t.fatSizeBytes)

		cur, err := t.img.ReadAt(offset, 2)
		if err != nil {
			return err
		}
		w := binary.LittleEndian.Uint16(cur)

		var newW uint16
		if c%2 == 0 {
			newW = (w & 0xF000) | (v & 0x0FFF)
		} else {
			newW = (w & 0x000F) | ((v & 0x0FFF) << 4)
		}

		buf := make([]byte, 2)
		bw := bytewriter.New(buf)
		if err := binary.Write(bw, binary.LittleEndian, newW); err != nil {
			return fat12errors.ErrIOFailed.WrapError(err)
		}

		if err := t.img.WriteAt(offset, buf); err != nil {
			return err
		}
	}
	return nil
}

// Classify returns the class of the raw entry value for cluster c.
func (t *Table) Classify(c uint) (EntryClass, uint16, error) {
	v, err := t.Get(c)
	if err != nil {
		return ClassFree, 0, err
	}
	return Classify(v), v, nil
}

// IsValidCluster reports whether c is a legal, addressable cluster number.
func (t *Table) IsValidCluster(c uint) bool {
	return c >= 2 && c <= t.totalClusters+1
}

// AllocateFree scans clusters [2, TotalClusters+1] and returns the lowest
// free one, or ErrNoFreeCluster if none exists.
func (t *Table) AllocateFree() (uint, error) {
	return t.AllocateFreeSkipping(nil)
}

// AllocateFreeSkipping is AllocateFree, but additionally skips any cluster
// present in skip. This lets a single WriteChain call hand out several
// clusters in a row before any of them is linked in the FAT (which would
// otherwise still read back as free).
func (t *Table) AllocateFreeSkipping(skip map[uint]bool) (uint, error) {
	for c := uint(2); c <= t.totalClusters+1; c++ {
		if skip[c] {
			continue
		}
		v, err := t.Get(c)
		if err != nil {
			return 0, err
		}
		if Classify(v) == ClassFree {
			return c, nil
		}
	}
	return 0, fat12errors.ErrNoFreeCluster
}

// CountFree returns the number of free clusters in [2, TotalClusters+1].
func (t *Table) CountFree() (uint, error) {
	var free uint
	for c := uint(2); c <= t.totalClusters+1; c++ {
		v, err := t.Get(c)
		if err != nil {
			return 0, err
		}
		if Classify(v) == ClassFree {
			free++
		}
	}
	return free, nil
}
