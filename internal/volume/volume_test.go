package volume_test

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/bytesextra"

	"github.com/faucetlabs/fat12vol/internal/bpb"
	"github.com/faucetlabs/fat12vol/internal/fat12"
	"github.com/faucetlabs/fat12vol/internal/fat12errors"
	"github.com/faucetlabs/fat12vol/internal/ioimage"
	"github.com/faucetlabs/fat12vol/internal/volume"
)

// newTestVolume builds a tiny, valid, empty FAT12 volume in memory: 1
// reserved sector, 2 FAT copies of 1 sector each, a 1-sector (16-entry)
// root directory, and a data region of totalClusters 512-byte clusters.
func newTestVolume(t *testing.T, totalClusters uint) *volume.Volume {
	t.Helper()

	geom := bpb.Geometry{
		BytesPerSector:    512,
		SectorsPerCluster: 1,
		ReservedSectors:   1,
		NumFATs:           2,
		SectorsPerFAT:     1,
		RootEntryCount:    16,
		TotalSectors:      4 + totalClusters,
		RootSector:        3,
		RootDirBytes:      16 * 32,
		RootSectors:       1,
		DataSector:        4,
		ClusterSize:       512,
		TotalClusters:     totalClusters,
		FATSizeBytes:      512,
		DirentsPerClust:   16,
	}

	size := int64(geom.TotalSectors) * int64(geom.BytesPerSector)
	buf := make([]byte, size)
	stream := bytesextra.NewReadWriteSeeker(buf)
	img := ioimage.Open(ioimage.NewSeekerDevice(stream), size)

	table := fat12.NewTable(img, geom)
	chain := fat12.NewChain(img, geom, table)
	dir := fat12.NewDirectory(img, chain, geom.RootSector, geom.BytesPerSector, geom.RootEntryCount)

	return &volume.Volume{
		Image: img,
		Boot:  &bpb.BootSector{Geometry: geom},
		Table: table,
		Chain: chain,
		Dir:   dir,
	}
}

func TestPutGetRoundTrip(t *testing.T) {
	vol := newTestVolume(t, 10)

	dir := t.TempDir()
	src := filepath.Join(dir, "hello.txt")
	require.NoError(t, os.WriteFile(src, []byte("hello\n"), 0o644))

	require.NoError(t, volume.Put(vol, "", "hello.txt", src))

	var out bytes.Buffer
	require.NoError(t, volume.Get(vol, "hello.txt", &out))
	require.Equal(t, "hello\n", out.String())
}

func TestPutLargeFileTwoClusters(t *testing.T) {
	vol := newTestVolume(t, 10)

	dir := t.TempDir()
	src := filepath.Join(dir, "large.bin")
	data := make([]byte, 1024)
	for i := range data {
		data[i] = byte(i % 251)
	}
	require.NoError(t, os.WriteFile(src, data, 0o644))

	require.NoError(t, volume.Put(vol, "", "large.bin", src))

	var out bytes.Buffer
	require.NoError(t, volume.Get(vol, "large.bin", &out))
	require.Equal(t, data, out.Bytes())
}

func TestPutMissingDirectory(t *testing.T) {
	vol := newTestVolume(t, 10)

	dir := t.TempDir()
	src := filepath.Join(dir, "file.bin")
	require.NoError(t, os.WriteFile(src, []byte("x"), 0o644))

	err := volume.Put(vol, "sub/missing", "file.bin", src)
	require.True(t, errors.Is(err, fat12errors.ErrDirectoryNotFound))
}

func TestPutPropagatesBadChainWithoutDisguisingIt(t *testing.T) {
	vol := newTestVolume(t, 10)

	// Link a root "SUB" entry to a cluster that cycles back on itself, so
	// resolving a path through it (looking for "missing" inside "sub")
	// hits ErrBadChain rather than ErrNotFound.
	require.NoError(t, vol.Table.Put(2, 2))

	name, ext, err := fat12.SplitTo8Dot3("SUB")
	require.NoError(t, err)
	offset, err := vol.Dir.FindSlotForWrite(fat12.RootLocation())
	require.NoError(t, err)
	require.NoError(t, vol.Dir.WriteEntry(offset, fat12.Dirent{
		RawName:      name,
		RawExt:       ext,
		Attr:         fat12.AttrDirectory,
		FirstCluster: 2,
	}))

	dir := t.TempDir()
	src := filepath.Join(dir, "file.bin")
	require.NoError(t, os.WriteFile(src, []byte("x"), 0o644))

	err = volume.Put(vol, "sub/missing", "file.bin", src)
	require.True(t, errors.Is(err, fat12errors.ErrBadChain))
	require.False(t, errors.Is(err, fat12errors.ErrDirectoryNotFound))
}

func TestPutZeroByteFileAllocatesNoCluster(t *testing.T) {
	vol := newTestVolume(t, 10)

	dir := t.TempDir()
	src := filepath.Join(dir, "empty.txt")
	require.NoError(t, os.WriteFile(src, nil, 0o644))

	freeBefore, err := vol.Table.CountFree()
	require.NoError(t, err)

	require.NoError(t, volume.Put(vol, "", "empty.txt", src))

	freeAfter, err := vol.Table.CountFree()
	require.NoError(t, err)
	require.Equal(t, freeBefore, freeAfter)

	var out bytes.Buffer
	require.NoError(t, volume.Get(vol, "empty.txt", &out))
	require.Empty(t, out.Bytes())
}

func TestPutNotEnoughSpace(t *testing.T) {
	vol := newTestVolume(t, 2)

	dir := t.TempDir()
	src := filepath.Join(dir, "big.bin")
	require.NoError(t, os.WriteFile(src, make([]byte, 4*512), 0o644))

	err := volume.Put(vol, "", "big.bin", src)
	require.True(t, errors.Is(err, fat12errors.ErrNotEnoughSpace))
}

func TestGetNotFound(t *testing.T) {
	vol := newTestVolume(t, 10)

	var out bytes.Buffer
	err := volume.Get(vol, "nope.txt", &out)
	require.True(t, errors.Is(err, fat12errors.ErrNotFound))
}

func TestPutDirectoryFull(t *testing.T) {
	// 20 clusters, so free space outlasts the 16 root slots and the 17th
	// put reaches the directory-slot search.
	vol := newTestVolume(t, 20)
	dir := t.TempDir()

	// The root holds 16 entries; "." and ".." aren't present here, so fill
	// all 16 with tiny 3-byte files, leaving none free for a 17th.
	for i := 0; i < 16; i++ {
		name := string(rune('A'+i)) + ".TXT"
		src := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(src, []byte("abc"), 0o644))
		require.NoError(t, volume.Put(vol, "", name, src))
	}

	extra := filepath.Join(dir, "overflow.txt")
	require.NoError(t, os.WriteFile(extra, []byte("abc"), 0o644))
	err := volume.Put(vol, "", "overflow.txt", extra)
	require.True(t, errors.Is(err, fat12errors.ErrDirFull))

	// The first file written is still readable.
	var out bytes.Buffer
	require.NoError(t, volume.Get(vol, "A.TXT", &out))
	require.Equal(t, "abc", out.String())
}

func TestGetInfoReportsFreeAndFileCount(t *testing.T) {
	vol := newTestVolume(t, 10)

	dir := t.TempDir()
	src := filepath.Join(dir, "hello.txt")
	require.NoError(t, os.WriteFile(src, []byte("hello\n"), 0o644))
	require.NoError(t, volume.Put(vol, "", "hello.txt", src))

	info, err := volume.GetInfo(vol)
	require.NoError(t, err)
	require.EqualValues(t, 1, info.FileCount)
	require.EqualValues(t, 9*512, info.FreeBytes)
}

func TestListSkipsDotAndVolumeLabelEntries(t *testing.T) {
	vol := newTestVolume(t, 10)

	dir := t.TempDir()
	src := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(src, []byte("a"), 0o644))
	require.NoError(t, volume.Put(vol, "", "a.txt", src))

	// A volume-label entry in the root, and a "SUB" subdirectory holding
	// its own "." and ".." entries.
	var label [8]byte
	var blankExt [3]byte
	copy(label[:], "FAUCET  ")
	copy(blankExt[:], "   ")
	offset, err := vol.Dir.FindSlotForWrite(fat12.RootLocation())
	require.NoError(t, err)
	require.NoError(t, vol.Dir.WriteEntry(offset, fat12.Dirent{
		RawName: label, RawExt: blankExt, Attr: fat12.AttrVolumeLabel,
	}))

	subCluster, err := vol.Table.AllocateFree()
	require.NoError(t, err)
	require.NoError(t, vol.Table.Put(subCluster, fat12.EOCValue))
	subName, subExt, err := fat12.SplitTo8Dot3("SUB")
	require.NoError(t, err)
	offset, err = vol.Dir.FindSlotForWrite(fat12.RootLocation())
	require.NoError(t, err)
	require.NoError(t, vol.Dir.WriteEntry(offset, fat12.Dirent{
		RawName: subName, RawExt: subExt, Attr: fat12.AttrDirectory, FirstCluster: subCluster,
	}))

	var dot, dotDot [8]byte
	copy(dot[:], ".       ")
	copy(dotDot[:], "..      ")
	subOffset := vol.Chain.ClusterOffset(subCluster)
	require.NoError(t, vol.Dir.WriteEntry(subOffset, fat12.Dirent{
		RawName: dot, RawExt: blankExt, Attr: fat12.AttrDirectory, FirstCluster: subCluster,
	}))
	require.NoError(t, vol.Dir.WriteEntry(subOffset+fat12.DirentSize, fat12.Dirent{
		RawName: dotDot, RawExt: blankExt, Attr: fat12.AttrDirectory,
	}))

	groups, err := volume.List(vol)
	require.NoError(t, err)
	require.Len(t, groups, 2)
	require.Equal(t, "/", groups[0].Path)
	require.Len(t, groups[0].Entries, 2)
	require.Equal(t, "A.TXT", groups[0].Entries[0].Name)
	require.Equal(t, "SUB", groups[0].Entries[1].Name)
	require.Equal(t, "/SUB", groups[1].Path)
	require.Empty(t, groups[1].Entries)
}
