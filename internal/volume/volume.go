// Package volume implements the four operation drivers (info, list, get,
// put) as thin orchestrators over the FAT12 engine packages.
package volume

import (
	"log"
	"os"

	"github.com/faucetlabs/fat12vol/internal/bpb"
	"github.com/faucetlabs/fat12vol/internal/fat12"
	"github.com/faucetlabs/fat12vol/internal/ioimage"
)

// Logger receives non-fatal diagnostics (skipped malformed subtrees, the
// recognized form factor in info) that must never reach stdout, since stdout is the
// user-visible contract described in spec.md §6.
var Logger = log.New(os.Stderr, "", 0)

// Volume is an opened FAT12 image with its decoded geometry and the
// engine layers built on top of it.
type Volume struct {
	Image *ioimage.Image
	Boot  *bpb.BootSector
	Table *fat12.Table
	Chain *fat12.Chain
	Dir   *fat12.Directory
}

// Open decodes the boot sector of dev (size bytes long) and wires up the
// FAT table, chain walker, and directory iterator on top of it.
func Open(dev ioimage.Device, size int64) (*Volume, error) {
	img := ioimage.Open(dev, size)

	boot, err := bpb.Decode(img)
	if err != nil {
		return nil, err
	}

	geom := boot.Geometry
	table := fat12.NewTable(img, geom)
	chain := fat12.NewChain(img, geom, table)
	dir := fat12.NewDirectory(img, chain, geom.RootSector, geom.BytesPerSector, geom.RootEntryCount)

	return &Volume{Image: img, Boot: boot, Table: table, Chain: chain, Dir: dir}, nil
}

// OpenFile opens the image file at path and wraps it as a Volume. write
// controls whether the file is opened for read-write (put) or read-only
// (info/list/get).
func OpenFile(path string, write bool) (*Volume, *os.File, error) {
	flag := os.O_RDONLY
	if write {
		flag = os.O_RDWR
	}

	f, err := os.OpenFile(path, flag, 0)
	if err != nil {
		return nil, nil, err
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, err
	}

	vol, err := Open(f, info.Size())
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	return vol, f, nil
}
