package simplefs

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// StoreError is the interface implemented by every error a store returns. Use
// errors.Is against the exported sentinels to tell them apart; the message can
// be extended freely without breaking that.
type StoreError interface {
	error
	WithMessage(message string) StoreError
	Wrap(err error) StoreError
}

// Caller errors. These never indicate a broken store.
var ErrFileAlreadyExists = newStoreError("File exists")
var ErrFileNotFound = newStoreError("No such file")
var ErrNotEnoughSpace = newStoreError("Not enough free blocks")
var ErrInvalidArgument = newStoreError("Invalid argument")

// Allocator errors. The store checks for these itself and callers should never
// see them from Write, Read, or Delete.
var ErrAlreadyFree = newStoreError("Block already free")
var ErrNoContiguousRun = newStoreError("No contiguous run of free blocks")

var ErrFileSystemCorrupted = newStoreError("Structure needs cleaning")

type storeError struct {
	message string
	parent  error
}

func newStoreError(message string) StoreError {
	return storeError{message: message}
}

func (e storeError) Error() string {
	return e.message
}

// WithMessage returns a child of `e` with `message` appended to its own.
func (e storeError) WithMessage(message string) StoreError {
	return storeError{
		message: fmt.Sprintf("%s: %s", e.message, message),
		parent:  e,
	}
}

// Wrap returns a child of `e` that also matches `err` with errors.Is and
// errors.As.
func (e storeError) Wrap(err error) StoreError {
	return storeError{
		message: fmt.Sprintf("%s: %s", e.message, err.Error()),
		parent:  multierror.Append(e, err),
	}
}

func (e storeError) Unwrap() error {
	return e.parent
}
