package volume

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/faucetlabs/fat12vol/internal/fat12"
	"github.com/faucetlabs/fat12vol/internal/fat12errors"
)

// Put implements spec.md §4.7.4: copies the host file at hostSrcPath into
// the directory named by targetDirPath (the portion of the CLI argument
// before the last "/"; "" means root) under baseName (the portion after
// the last "/").
func Put(v *Volume, targetDirPath, baseName, hostSrcPath string) error {
	loc, err := fat12.Resolve(v.Dir, targetDirPath)
	if err != nil {
		if errors.Is(err, fat12errors.ErrNotFound) {
			return fat12errors.ErrDirectoryNotFound
		}
		return err
	}

	data, err := os.ReadFile(hostSrcPath)
	if err != nil {
		return fat12errors.ErrNotFound
	}

	clusterSize := int64(v.Chain.ClusterSize())
	clustersNeeded := uint((int64(len(data)) + clusterSize - 1) / clusterSize)

	free, err := v.Table.CountFree()
	if err != nil {
		return err
	}
	if free < clustersNeeded {
		return fat12errors.ErrNotEnoughSpace
	}

	slotOffset, err := v.Dir.FindSlotForWrite(loc)
	if err != nil {
		return err
	}

	rawName, rawExt, err := fat12.SplitTo8Dot3(baseName)
	if err != nil {
		return err
	}

	// A zero-byte file occupies no cluster: FirstCluster stays 0 and
	// WriteChain is never called, per spec.md §8 invariant 3.
	var firstCluster uint
	if len(data) > 0 {
		clusters, err := v.Chain.WriteChain(data)
		if err != nil {
			return err
		}
		firstCluster = clusters[0]
	}

	date, timeVal := fat12.EncodeTimestamp(time.Now())
	entry := fat12.Dirent{
		RawName:       rawName,
		RawExt:        rawExt,
		Attr:          fat12.AttrArchive,
		FirstCluster:  firstCluster,
		FileSize:      uint32(len(data)),
		LastWriteDate: date,
		LastWriteTime: timeVal,
	}

	return v.Dir.WriteEntry(slotOffset, entry)
}

// SplitPutArgument splits a `put` CLI argument at its last "/" into a
// target directory path (possibly empty, meaning root) and a base name,
// per spec.md §4.7.4 step 1.
func SplitPutArgument(arg string) (dirPath, baseName string) {
	idx := strings.LastIndex(arg, "/")
	if idx < 0 {
		return "", arg
	}
	return arg[:idx], arg[idx+1:]
}
