package volume

import (
	bitmap "github.com/boljen/go-bitmap"
	"github.com/hashicorp/go-multierror"

	"github.com/faucetlabs/fat12vol/internal/fat12"
	"github.com/faucetlabs/fat12vol/internal/geometry"
)

// Info is the result of the `info` operation, per spec.md §4.7.1/§6.
type Info struct {
	OEMName       string
	Label         string
	TotalBytes    uint64
	FreeBytes     uint64
	FileCount     uint
	NumFATs       uint
	SectorsPerFAT uint
}

// GetInfo computes the summary spec.md §4.7.1 describes: OEM name, volume
// label, total/free size, recursive file count, FAT copy count, and
// sectors per FAT.
func GetInfo(v *Volume) (Info, error) {
	geom := v.Boot.Geometry

	label, err := resolveLabel(v)
	if err != nil {
		return Info{}, err
	}

	freeClusters, err := v.Table.CountFree()
	if err != nil {
		return Info{}, err
	}

	fileCount, warnings := countFiles(v)
	if warnings != nil {
		Logger.Printf("info: continuing past malformed subtree(s): %s", warnings)
	}

	g, known := geometry.Identify(
		geom.BytesPerSector, geom.SectorsPerCluster, geom.ReservedSectors,
		geom.NumFATs, geom.RootEntryCount, geom.TotalSectors, geom.SectorsPerFAT)
	if known {
		Logger.Printf("info: recognized form factor %q", g)
	}

	return Info{
		OEMName:       v.Boot.OEMName(),
		Label:         label,
		TotalBytes:    uint64(geom.TotalSectors) * uint64(geom.BytesPerSector),
		FreeBytes:     uint64(freeClusters) * uint64(geom.ClusterSize),
		FileCount:     fileCount,
		NumFATs:       geom.NumFATs,
		SectorsPerFAT: geom.SectorsPerFAT,
	}, nil
}

// resolveLabel implements spec.md §4.2's volume-label lookup: the BPB
// extended label if present, else the first root-directory entry with the
// volume-label attribute, else "NO NAME    ".
func resolveLabel(v *Volume) (string, error) {
	if label := v.Boot.VolumeLabel(); label != "" {
		return label, nil
	}

	var found string
	err := v.Dir.Iterate(fat12.RootLocation(), func(s fat12.Slot) bool {
		if s.Kind == fat12.SlotLive && s.Entry.IsVolumeLabel() {
			found = fat12.JoinName(s.Entry.RawName, s.Entry.RawExt)
			return false
		}
		return true
	})
	if err != nil {
		return "", err
	}
	if found == "" {
		return "NO NAME    ", nil
	}
	return found, nil
}

// countFiles recursively traverses the directory tree from the root,
// counting regular files per spec.md §4.7.1. A malformed subtree
// (ErrBadChain) is skipped rather than aborting the whole count; every
// such skip is accumulated into the returned error so the caller can log
// it without disturbing the numeric result.
func countFiles(v *Volume) (uint, error) {
	totalClusters := v.Table.TotalClusters()
	visited := bitmap.New(int(totalClusters) + 2)
	var count uint
	var warnings error

	var walk func(loc fat12.DirLocation)
	walk = func(loc fat12.DirLocation) {
		err := v.Dir.Iterate(loc, func(s fat12.Slot) bool {
			if s.Kind != fat12.SlotLive {
				return true
			}
			entry := s.Entry
			if entry.IsVolumeLabel() {
				return true
			}
			if fat12.IsDotEntry(entry.RawName) {
				return true
			}
			if entry.FirstCluster == 0 || entry.FirstCluster == 1 {
				return true
			}

			if entry.IsDir() {
				c := int(entry.FirstCluster - 2)
				if c < 0 || c >= int(totalClusters) || visited.Get(c) {
					return true
				}
				visited.Set(c, true)
				walk(fat12.ChainLocation(entry.FirstCluster))
			} else {
				count++
			}
			return true
		})
		if err != nil {
			warnings = multierror.Append(warnings, err)
		}
	}

	walk(fat12.RootLocation())
	return count, warnings
}
