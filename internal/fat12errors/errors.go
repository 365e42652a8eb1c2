// Package fat12errors defines the sentinel error kinds produced by the
// FAT12 volume engine and its operation drivers.
package fat12errors

import "fmt"

// DriverError is a sentinel error that can be wrapped with additional
// context without losing its identity: errors.Is/errors.As still see the
// original sentinel through Unwrap.
type DriverError interface {
	error
	WithMessage(message string) DriverError
	WrapError(err error) DriverError
	Unwrap() error
}

// FATError is a sentinel error kind, comparable with ==, that the
// operation drivers switch on to pick exactly one user-visible message.
type FATError string

func (e FATError) Error() string { return string(e) }

func (e FATError) WithMessage(message string) DriverError {
	return wrappedError{message: fmt.Sprintf("%s: %s", string(e), message), cause: e}
}

func (e FATError) WrapError(err error) DriverError {
	return wrappedError{message: fmt.Sprintf("%s: %s", string(e), err.Error()), cause: e}
}

const (
	// ErrIOFailed wraps a backing read/write/seek failure against the image.
	ErrIOFailed = FATError("i/o failure against disk image")
	// ErrBadGeometry means the BPB failed validation.
	ErrBadGeometry = FATError("boot sector geometry is invalid")
	// ErrBadChain means a cluster chain hit a cycle, or a free/reserved/bad
	// value where a link was expected.
	ErrBadChain = FATError("cluster chain is malformed")
	// ErrNoFreeCluster means the allocator found no free cluster.
	ErrNoFreeCluster = FATError("no free cluster available")
	// ErrNotEnoughSpace means there are fewer free clusters than a write needs.
	ErrNotEnoughSpace = FATError("not enough free space")
	// ErrDirFull means a directory container has no reusable slot.
	ErrDirFull = FATError("directory is full")
	// ErrNotFound means a path component or file name could not be resolved.
	ErrNotFound = FATError("not found")
	// ErrDirectoryNotFound is ErrNotFound specialized to a directory path.
	ErrDirectoryNotFound = FATError("directory not found")
	// ErrShortFile means a chain ended before file_size bytes were produced.
	ErrShortFile = FATError("chain ended before file size was reached")
)

type wrappedError struct {
	message string
	cause   error
}

func (e wrappedError) Error() string { return e.message }

func (e wrappedError) WithMessage(message string) DriverError {
	return wrappedError{message: fmt.Sprintf("%s: %s", e.message, message), cause: e.cause}
}

func (e wrappedError) WrapError(err error) DriverError {
	return wrappedError{message: fmt.Sprintf("%s: %s", e.message, err.Error()), cause: e.cause}
}

func (e wrappedError) Unwrap() error { return e.cause }
