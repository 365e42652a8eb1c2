package fat12

import (
	"encoding/binary"
	"strings"
	"time"

	"github.com/noxer/bytewriter"

	"github.com/faucetlabs/fat12vol/internal/fat12errors"
	"github.com/faucetlabs/fat12vol/internal/ioimage"
)

// DirentSize is the size in bytes of a single packed directory entry.
const DirentSize = 32

// Attribute bits per spec.md §3.
const (
	AttrReadOnly    = 0x01
	AttrHidden      = 0x02
	AttrSystem      = 0x04
	AttrVolumeLabel = 0x08
	AttrDirectory   = 0x10
	AttrArchive     = 0x20
	AttrLongName    = 0x0F
)

// RawDirent is the on-disk 32-byte directory entry layout.
type RawDirent struct {
	Name            [8]byte
	Ext             [3]byte
	Attr            uint8
	Reserved        [10]byte
	LastWriteTime   uint16
	LastWriteDate   uint16
	FirstClusterLow uint16
	FileSize        uint32
}

// Dirent is the decoded form of a live directory entry.
type Dirent struct {
	Name          string // normalized "name.ext" or "name", uppercase as on disk
	RawName       [8]byte
	RawExt        [3]byte
	Attr          uint8
	FirstCluster  uint
	FileSize      uint32
	LastWriteTime uint16
	LastWriteDate uint16
}

// IsDir reports whether the entry has the directory attribute set.
func (d Dirent) IsDir() bool { return d.Attr&AttrDirectory != 0 }

// IsVolumeLabel reports whether the entry's attribute byte is exactly the
// volume-label attribute, per spec.md §4.2 ("whose attribute byte equals
// 0x08"); combinations like 0x18/0x28/0x38 are not volume-label entries.
func (d Dirent) IsVolumeLabel() bool { return d.Attr == AttrVolumeLabel }

// ModTime decodes LastWriteDate/LastWriteTime per spec.md §4.7.2.
func (d Dirent) ModTime() time.Time {
	return DecodeTimestamp(d.LastWriteDate, d.LastWriteTime)
}

// DecodeTimestamp converts a FAT date/time pair into a time.Time, per the
// decoding rule in spec.md §4.7.2.
func DecodeTimestamp(date, t uint16) time.Time {
	year := 1980 + int(date>>9&0x7F)
	month := int(date >> 5 & 0x0F)
	day := int(date & 0x1F)
	hour := int(t >> 11 & 0x1F)
	minute := int(t >> 5 & 0x3F)
	second := int(t&0x1F) * 2
	if month == 0 {
		month = 1
	}
	if day == 0 {
		day = 1
	}
	return time.Date(year, time.Month(month), day, hour, minute, second, 0, time.Local)
}

// EncodeTimestamp is the inverse of DecodeTimestamp, used by put to stamp
// the last-write fields with the current local time.
func EncodeTimestamp(t time.Time) (date, timeVal uint16) {
	year := t.Year() - 1980
	if year < 0 {
		year = 0
	}
	date = uint16(year&0x7F)<<9 | uint16(t.Month()&0x0F)<<5 | uint16(t.Day()&0x1F)
	timeVal = uint16(t.Hour()&0x1F)<<11 | uint16(t.Minute()&0x3F)<<5 | uint16((t.Second()/2)&0x1F)
	return date, timeVal
}

// SlotKind classifies a raw 32-byte slot as the directory iterator walks
// it, per spec.md §4.5.
type SlotKind int

const (
	SlotTerminator SlotKind = iota
	SlotDeleted
	SlotLongName
	SlotLive
)

// Slot is one yielded record from the directory iterator.
type Slot struct {
	Kind   SlotKind
	Offset int64 // byte offset of this slot in the image
	Entry  Dirent
}

func decodeRawDirent(data []byte) RawDirent {
	var raw RawDirent
	copy(raw.Name[:], data[0:8])
	copy(raw.Ext[:], data[8:11])
	raw.Attr = data[11]
	copy(raw.Reserved[:], data[12:22])
	raw.LastWriteTime = binary.LittleEndian.Uint16(data[22:24])
	raw.LastWriteDate = binary.LittleEndian.Uint16(data[24:26])
	raw.FirstClusterLow = binary.LittleEndian.Uint16(data[26:28])
	raw.FileSize = binary.LittleEndian.Uint32(data[28:32])
	return raw
}

func encodeRawDirent(raw RawDirent) []byte {
	buf := make([]byte, DirentSize)
	bw := bytewriter.New(buf)
	bw.Write(raw.Name[:])
	bw.Write(raw.Ext[:])
	bw.Write([]byte{raw.Attr})
	bw.Write(raw.Reserved[:])
	binary.Write(bw, binary.LittleEndian, raw.LastWriteTime)
	binary.Write(bw, binary.LittleEndian, raw.LastWriteDate)
	binary.Write(bw, binary.LittleEndian, raw.FirstClusterLow)
	binary.Write(bw, binary.LittleEndian, raw.FileSize)
	return buf
}

func classifySlot(data []byte) Slot {
	raw := decodeRawDirent(data)

	switch {
	case raw.Name[0] == 0x00:
		return Slot{Kind: SlotTerminator}
	case raw.Name[0] == 0xE5:
		return Slot{Kind: SlotDeleted}
	case raw.Attr == AttrLongName:
		return Slot{Kind: SlotLongName}
	}

	return Slot{
		Kind: SlotLive,
		Entry: Dirent{
			Name:          JoinName(raw.Name, raw.Ext),
			RawName:       raw.Name,
			RawExt:        raw.Ext,
			Attr:          raw.Attr,
			FirstCluster:  uint(raw.FirstClusterLow),
			FileSize:      raw.FileSize,
			LastWriteTime: raw.LastWriteTime,
			LastWriteDate: raw.LastWriteDate,
		},
	}
}

// IsDotEntry reports whether a name is the "." or ".." self/parent link,
// per the first-byte rule in spec.md §3 (name[0] == 0x2E).
func IsDotEntry(rawName [8]byte) bool {
	return rawName[0] == 0x2E
}

// JoinName reconstructs the "name.ext" (or bare "name") form of an on-disk
// 8.3 name for display, trimming trailing spaces from each part.
func JoinName(rawName [8]byte, rawExt [3]byte) string {
	name := strings.TrimRight(string(rawName[:]), " ")
	ext := strings.TrimRight(string(rawExt[:]), " ")
	if ext == "" {
		return name
	}
	return name + "." + ext
}

// NormalizeForCompare lower-cases an on-disk 8.3 name for case-insensitive
// comparison, per spec.md §4.5.
func NormalizeForCompare(name string) string {
	return strings.ToLower(name)
}

// SplitTo8Dot3 uppercases and space-pads a host filename into its on-disk
// 8-byte name and 3-byte extension fields, truncating each part. It
// rejects names that would collide with the reserved first-byte markers
// (0x00, 0xE5, 0x2E).
func SplitTo8Dot3(hostName string) (rawName [8]byte, rawExt [3]byte, err error) {
	upper := strings.ToUpper(hostName)
	name := upper
	ext := ""
	if idx := strings.LastIndex(upper, "."); idx >= 0 {
		name = upper[:idx]
		ext = upper[idx+1:]
	}

	if len(name) > 8 {
		name = name[:8]
	}
	if len(ext) > 3 {
		ext = ext[:3]
	}

	if len(name) == 0 || name[0] == 0x00 || name[0] == 0xE5 || name[0] == 0x2E {
		return rawName, rawExt, fat12errors.ErrNotFound.WithMessage("invalid or reserved base name")
	}

	for i := range rawName {
		rawName[i] = ' '
	}
	for i := range rawExt {
		rawExt[i] = ' '
	}
	copy(rawName[:], name)
	copy(rawExt[:], ext)
	return rawName, rawExt, nil
}

// DirLocation is the sum type from spec.md §9: the root directory is a
// fixed contiguous sector range, while a subdirectory is a cluster chain.
type DirLocation struct {
	isRoot  bool
	cluster uint // meaningful only when !isRoot
}

// RootLocation is the DirLocation for the root directory.
func RootLocation() DirLocation { return DirLocation{isRoot: true} }

// ChainLocation is the DirLocation for the subdirectory rooted at cluster.
func ChainLocation(cluster uint) DirLocation { return DirLocation{cluster: cluster} }

// IsRoot reports whether loc refers to the root directory.
func (loc DirLocation) IsRoot() bool { return loc.isRoot }

// Cluster returns the starting cluster of a chain location. Only valid
// when !IsRoot().
func (loc DirLocation) Cluster() uint { return loc.cluster }

// Directory gives read (and write-slot-discovery) access to one directory
// container, whether it's the fixed root region or a cluster chain.
type Directory struct {
	img        *ioimage.Image
	chain      *Chain
	rootOffset int64
	rootCount  uint
}

// NewDirectory builds a Directory helper. rootSector/bps/rde describe the
// fixed root region; chain gives access to subdirectory cluster chains.
func NewDirectory(img *ioimage.Image, chain *Chain, rootSector, bps, rde uint) *Directory {
	return &Directory{
		img:        img,
		chain:      chain,
		rootOffset: int64(rootSector) * int64(bps),
		rootCount:  rde,
	}
}

// Iterate reads every 32-byte slot in loc's container, in order, calling
// visit for each. It stops early if visit returns false, or as soon as a
// Terminator slot is produced (per spec.md §4.5, a caller must not consume
// further entries after Terminator).
func (d *Directory) Iterate(loc DirLocation, visit func(Slot) bool) error {
	if loc.IsRoot() {
		for i := uint(0); i < d.rootCount; i++ {
			offset := d.rootOffset + int64(i)*DirentSize
			data, err := d.img.ReadAt(offset, DirentSize)
			if err != nil {
				return err
			}
			slot := classifySlot(data)
			slot.Offset = offset
			if slot.Kind == SlotTerminator {
				visit(slot)
				return nil
			}
			if !visit(slot) {
				return nil
			}
		}
		return nil
	}

	clusters, err := d.chain.Walk(loc.Cluster())
	if err != nil {
		return err
	}

	for _, cluster := range clusters {
		data, err := d.chain.ReadCluster(cluster)
		if err != nil {
			return err
		}
		perCluster := int(d.chain.ClusterSize()) / DirentSize
		clusterOffset := d.chain.ClusterOffset(cluster)

		for i := 0; i < perCluster; i++ {
			entryOffset := i * DirentSize
			slot := classifySlot(data[entryOffset : entryOffset+DirentSize])
			slot.Offset = clusterOffset + int64(entryOffset)
			if slot.Kind == SlotTerminator {
				visit(slot)
				return nil
			}
			if !visit(slot) {
				return nil
			}
		}
	}
	return nil
}

// FindSlotForWrite returns the byte offset of the first Terminator or
// Deleted slot in loc's container, or ErrDirFull if the container is
// exhausted first.
func (d *Directory) FindSlotForWrite(loc DirLocation) (int64, error) {
	var found int64 = -1
	err := d.Iterate(loc, func(s Slot) bool {
		if s.Kind == SlotTerminator || s.Kind == SlotDeleted {
			found = s.Offset
			return false
		}
		return true
	})
	if err != nil {
		return 0, err
	}
	if found < 0 {
		return 0, fat12errors.ErrDirFull
	}
	return found, nil
}

// WriteEntry writes a directory entry's 32 bytes at offset.
func (d *Directory) WriteEntry(offset int64, entry Dirent) error {
	raw := RawDirent{
		Name:            entry.RawName,
		Ext:             entry.RawExt,
		Attr:            entry.Attr,
		LastWriteTime:   entry.LastWriteTime,
		LastWriteDate:   entry.LastWriteDate,
		FirstClusterLow: uint16(entry.FirstCluster),
		FileSize:        entry.FileSize,
	}
	return d.img.WriteAt(offset, encodeRawDirent(raw))
}
