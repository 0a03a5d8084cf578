package simplefs_test

import (
	"errors"
	"testing"

	"github.com/dargueta/simplefs"
	"github.com/stretchr/testify/assert"
)

func TestStoreErrorWithMessage(t *testing.T) {
	newErr := simplefs.ErrFileNotFound.WithMessage("asdfqwerty")
	assert.Equal(
		t, "No such file: asdfqwerty", newErr.Error(), "error message is wrong")
	assert.ErrorIs(t, newErr, simplefs.ErrFileNotFound)
	assert.NotErrorIs(t, newErr, simplefs.ErrFileAlreadyExists)
}

func TestStoreErrorWithMessage__Nested(t *testing.T) {
	newErr := simplefs.ErrNotEnoughSpace.WithMessage("a").WithMessage("b")
	assert.Equal(t, "Not enough free blocks: a: b", newErr.Error())
	assert.ErrorIs(t, newErr, simplefs.ErrNotEnoughSpace)
}

func TestStoreErrorWrap(t *testing.T) {
	originalErr := errors.New("original error")
	newErr := simplefs.ErrFileAlreadyExists.Wrap(originalErr)
	expectedMessage := "File exists: original error"

	assert.EqualValues(t, expectedMessage, newErr.Error(), "error message is wrong")
	assert.ErrorIs(t, newErr, originalErr, "original error not set as parent")
	assert.ErrorIs(t, newErr, simplefs.ErrFileAlreadyExists, "store error not set as parent")
}

// Sentinels never match each other, even through added context.
func TestStoreError__SentinelsDistinct(t *testing.T) {
	sentinels := []error{
		simplefs.ErrFileAlreadyExists,
		simplefs.ErrFileNotFound,
		simplefs.ErrNotEnoughSpace,
		simplefs.ErrInvalidArgument,
		simplefs.ErrAlreadyFree,
		simplefs.ErrNoContiguousRun,
		simplefs.ErrFileSystemCorrupted,
	}

	for i, sentinel := range sentinels {
		wrapped := sentinel.(simplefs.StoreError).
			WithMessage("context").
			Wrap(errors.New("cause"))

		for j, other := range sentinels {
			if i == j {
				assert.ErrorIs(t, wrapped, sentinel)
			} else {
				assert.NotErrorIsf(t, wrapped, other, "%q matched %q", wrapped, other)
			}
		}
	}
}
