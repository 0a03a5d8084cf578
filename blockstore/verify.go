package blockstore

import (
	"fmt"

	"github.com/boljen/go-bitmap"
	"github.com/dargueta/simplefs"
	c "github.com/dargueta/simplefs/common"
	"github.com/hashicorp/go-multierror"
)

// Verify checks the store's internal consistency and returns every problem it
// finds wrapped in ErrFileSystemCorrupted, or nil if there are none.
//
// A consistent store has every block either free or owned by exactly one file,
// free blocks are empty, and every file's blocks are full except for a
// non-empty last block.
func (store *Store) Verify() error {
	var problems *multierror.Error

	if uint(len(store.blocks)) != store.blockCount {
		problems = multierror.Append(
			problems,
			fmt.Errorf("store has %d blocks, expected %d", len(store.blocks), store.blockCount))
		return simplefs.ErrFileSystemCorrupted.Wrap(problems)
	}
	if store.freeList.TotalBlocks != store.blockCount {
		problems = multierror.Append(
			problems,
			fmt.Errorf(
				"free list covers %d blocks, expected %d",
				store.freeList.TotalBlocks,
				store.blockCount))
	}
	if len(store.files) != len(store.fileOrder) {
		problems = multierror.Append(
			problems,
			fmt.Errorf(
				"%d files exist but %d are in creation order",
				len(store.files),
				len(store.fileOrder)))
	}

	owned := bitmap.New(int(store.blockCount))

	for _, name := range store.fileOrder {
		file, exists := store.files[name]
		if !exists {
			problems = multierror.Append(
				problems, fmt.Errorf("file %q is in creation order but doesn't exist", name))
			continue
		}

		lastIndex := len(file.Blocks) - 1
		for i, block := range file.Blocks {
			if uint(block) >= store.blockCount {
				problems = multierror.Append(
					problems,
					fmt.Errorf(
						"file %q: block %d not in range [0, %d)",
						name,
						block,
						store.blockCount))
				continue
			}

			if owned.Get(int(block)) {
				problems = multierror.Append(
					problems, fmt.Errorf("file %q: block %d is owned twice", name, block))
			}
			owned.Set(int(block), true)

			if store.freeList.Has(block) {
				problems = multierror.Append(
					problems, fmt.Errorf("file %q: block %d is also free", name, block))
			}

			blockLength := uint(len(store.blocks[block]))
			switch {
			case blockLength > store.blockSize:
				problems = multierror.Append(
					problems,
					fmt.Errorf(
						"file %q: block %d holds %d bytes, max is %d",
						name,
						block,
						blockLength,
						store.blockSize))
			case i < lastIndex && blockLength != store.blockSize:
				problems = multierror.Append(
					problems,
					fmt.Errorf(
						"file %q: block %d is position %d of %d but only holds %d bytes",
						name,
						block,
						i,
						len(file.Blocks),
						blockLength))
			case i == lastIndex && blockLength == 0:
				problems = multierror.Append(
					problems, fmt.Errorf("file %q: last block %d is empty", name, block))
			}
		}
	}

	for i := 0; i < int(store.blockCount); i++ {
		if owned.Get(i) {
			continue
		}
		if !store.freeList.Has(c.BlockID(i)) {
			problems = multierror.Append(
				problems, fmt.Errorf("block %d is neither free nor owned by a file", i))
		} else if len(store.blocks[i]) != 0 {
			problems = multierror.Append(
				problems, fmt.Errorf("free block %d isn't empty", i))
		}
	}

	if problems.ErrorOrNil() != nil {
		return simplefs.ErrFileSystemCorrupted.Wrap(problems)
	}
	return nil
}
