package bpb_test

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/bytesextra"

	"github.com/faucetlabs/fat12vol/internal/bpb"
	"github.com/faucetlabs/fat12vol/internal/ioimage"
)

func buildBootSector(t *testing.T, raw bpb.RawBootSector, totalSectors int64) *ioimage.Image {
	t.Helper()

	var b bytes.Buffer
	require.NoError(t, binary.Write(&b, binary.LittleEndian, raw))

	size := totalSectors * int64(raw.BytesPerSector)
	buf := make([]byte, size)
	copy(buf, b.Bytes())

	stream := bytesextra.NewReadWriteSeeker(buf)
	return ioimage.Open(ioimage.NewSeekerDevice(stream), size)
}

func validRaw() bpb.RawBootSector {
	var raw bpb.RawBootSector
	copy(raw.OEMName[:], "FAUCET12")
	raw.BytesPerSector = 512
	raw.SectorsPerCluster = 1
	raw.ReservedSectors = 1
	raw.NumFATs = 2
	raw.RootEntryCount = 16
	raw.TotalSectors16 = 14
	raw.SectorsPerFAT16 = 1
	copy(raw.VolumeLabel[:], "NO NAME    ")
	return raw
}

func TestDecodeValidGeometry(t *testing.T) {
	raw := validRaw()
	img := buildBootSector(t, raw, 14)

	bs, err := bpb.Decode(img)
	require.NoError(t, err)
	require.EqualValues(t, 512, bs.Geometry.BytesPerSector)
	require.EqualValues(t, 3, bs.Geometry.RootSector)
	require.EqualValues(t, 4, bs.Geometry.DataSector)
	require.EqualValues(t, 10, bs.Geometry.TotalClusters)
	require.Equal(t, "FAUCET12", bs.OEMName())
}

func TestDecodeRejectsBadBytesPerSector(t *testing.T) {
	raw := validRaw()
	raw.BytesPerSector = 300
	img := buildBootSector(t, raw, 14)

	_, err := bpb.Decode(img)
	require.Error(t, err)
}

func TestDecodeRejectsBadSectorsPerCluster(t *testing.T) {
	raw := validRaw()
	raw.SectorsPerCluster = 3
	img := buildBootSector(t, raw, 14)

	_, err := bpb.Decode(img)
	require.Error(t, err)
}

func TestDecodeRejectsTotalSectorsTooSmall(t *testing.T) {
	raw := validRaw()
	raw.TotalSectors16 = 3 // smaller than the computed data sector (4)
	img := buildBootSector(t, raw, 14)

	_, err := bpb.Decode(img)
	require.Error(t, err)
}
