// Package ioimage provides positioned byte access to a FAT12 volume image
// backed by an ordinary host file, with no FAT semantics of its own.
package ioimage

import (
	"io"

	"github.com/faucetlabs/fat12vol/internal/fat12errors"
)

// Device is the minimal positioned-I/O surface the rest of the engine needs.
// *os.File satisfies it directly; tests back it with an in-memory stream
// from github.com/xaionaro-go/bytesextra wrapped by SeekerDevice.
type Device interface {
	io.ReaderAt
	io.WriterAt
}

// SeekerDevice adapts an io.ReadWriteSeeker into a Device by seeking
// before each read/write. The engine is single-threaded and synchronous
// (spec.md §5), so this never needs to guard against concurrent access.
type SeekerDevice struct {
	rws io.ReadWriteSeeker
}

// NewSeekerDevice wraps rws as a Device, the way the teacher's block cache
// wraps an in-memory stream from bytesextra for test fixtures.
func NewSeekerDevice(rws io.ReadWriteSeeker) *SeekerDevice {
	return &SeekerDevice{rws: rws}
}

func (d *SeekerDevice) ReadAt(p []byte, off int64) (int, error) {
	if _, err := d.rws.Seek(off, io.SeekStart); err != nil {
		return 0, err
	}
	return io.ReadFull(d.rws, p)
}

func (d *SeekerDevice) WriteAt(p []byte, off int64) (int, error) {
	if _, err := d.rws.Seek(off, io.SeekStart); err != nil {
		return 0, err
	}
	return d.rws.Write(p)
}

// Image wraps a Device and a fixed size, failing fast on short reads/writes
// or accesses past the end of the backing store.
type Image struct {
	dev  Device
	size int64
}

// Open wraps dev, whose total addressable length is size bytes.
func Open(dev Device, size int64) *Image {
	return &Image{dev: dev, size: size}
}

// Len returns the size of the image in bytes.
func (img *Image) Len() int64 { return img.size }

// ReadAt reads exactly length bytes starting at offset.
func (img *Image) ReadAt(offset int64, length int) ([]byte, error) {
	if offset < 0 || length < 0 || offset+int64(length) > img.size {
		return nil, fat12errors.ErrIOFailed.WithMessage("read past end of image")
	}

	buf := make([]byte, length)
	n, err := img.dev.ReadAt(buf, offset)
	if err != nil && err != io.EOF {
		return nil, fat12errors.ErrIOFailed.WrapError(err)
	}
	if n < length {
		return nil, fat12errors.ErrIOFailed.WithMessage("short read against disk image")
	}
	return buf, nil
}

// WriteAt writes all of data starting at offset.
func (img *Image) WriteAt(offset int64, data []byte) error {
	if offset < 0 || offset+int64(len(data)) > img.size {
		return fat12errors.ErrIOFailed.WithMessage("write past end of image")
	}

	n, err := img.dev.WriteAt(data, offset)
	if err != nil {
		return fat12errors.ErrIOFailed.WrapError(err)
	}
	if n < len(data) {
		return fat12errors.ErrIOFailed.WithMessage("short write against disk image")
	}
	return nil
}
