// Free block allocator

package common

import (
	"fmt"

	"github.com/boljen/go-bitmap"
	"github.com/dargueta/simplefs"
	"github.com/google/btree"
)

const freeListDegree = 32

// FreeList is an ordered set of free block IDs. Iteration is always in
// ascending order and an ID can't be present twice, so position-based searches
// over the list line up with physical block order.
type FreeList struct {
	free        *btree.BTreeG[BlockID]
	TotalBlocks uint
}

// NewFreeList creates a free list where every block in [0, totalBlocks) is free.
func NewFreeList(totalBlocks uint) *FreeList {
	list := &FreeList{
		free:        btree.NewOrderedG[BlockID](freeListDegree),
		TotalBlocks: totalBlocks,
	}
	list.Reset(0)
	return list
}

// NewFreeListFromInUseBitmap creates a free list containing every block in
// [0, totalBlocks) whose bit is cleared in `inUse`.
func NewFreeListFromInUseBitmap(inUse bitmap.Bitmap, totalBlocks uint) *FreeList {
	list := &FreeList{
		free:        btree.NewOrderedG[BlockID](freeListDegree),
		TotalBlocks: totalBlocks,
	}
	for i := uint(0); i < totalBlocks; i++ {
		if !inUse.Get(int(i)) {
			list.free.ReplaceOrInsert(BlockID(i))
		}
	}
	return list
}

// Len returns the number of free blocks.
func (list *FreeList) Len() uint {
	return uint(list.free.Len())
}

// Has returns true if the block is free.
func (list *FreeList) Has(block BlockID) bool {
	return list.free.Has(block)
}

// IDs returns the free block IDs in ascending order.
func (list *FreeList) IDs() []BlockID {
	ids := make([]BlockID, 0, list.free.Len())
	list.free.Ascend(func(id BlockID) bool {
		ids = append(ids, id)
		return true
	})
	return ids
}

// Reset frees every block from `firstFree` to the end of the store and marks
// everything before it as in use.
func (list *FreeList) Reset(firstFree BlockID) {
	list.free.Clear(false)
	for i := uint(firstFree); i < list.TotalBlocks; i++ {
		list.free.ReplaceOrInsert(BlockID(i))
	}
}

// FreeSingle returns a block to the free list. Trying to free a block that's
// already free returns ErrAlreadyFree and leaves the list unmodified.
func (list *FreeList) FreeSingle(block BlockID) error {
	if uint(block) >= list.TotalBlocks {
		msg := fmt.Sprintf(
			"invalid block id: %d not in range [0, %d)",
			block,
			list.TotalBlocks)
		return simplefs.ErrInvalidArgument.WithMessage(msg)
	}
	if list.free.Has(block) {
		return simplefs.ErrAlreadyFree.WithMessage(fmt.Sprintf("block %d", block))
	}

	list.free.ReplaceOrInsert(block)
	return nil
}

// FindContiguous returns the first block of the lowest run of `count`
// consecutive free blocks. A request for zero blocks always succeeds and
// returns 0.
func (list *FreeList) FindContiguous(count uint) (BlockID, error) {
	if count == 0 {
		return 0, nil
	}

	runSize := uint(0)
	runStart := BlockID(0)
	found := false

	list.free.Ascend(func(id BlockID) bool {
		if runSize != 0 && id == runStart+BlockID(runSize) {
			runSize++
		} else {
			// Either this is the first free block or there's a gap between it
			// and the end of the current run. Either way, a new run starts here.
			runStart = id
			runSize = 1
		}

		if runSize == count {
			found = true
			return false
		}
		return true
	})

	if !found {
		return 0, simplefs.ErrNoContiguousRun.WithMessage(
			fmt.Sprintf("need %d blocks, longest run is %d", count, list.LargestRun()))
	}
	return runStart, nil
}

// AllocateContiguous removes a run of `count` consecutive blocks from the free
// list in a first-fit manner and returns their IDs in ascending order. If no
// such run exists, the list is not modified.
func (list *FreeList) AllocateContiguous(count uint) ([]BlockID, error) {
	runStart, err := list.FindContiguous(count)
	if err != nil {
		return nil, err
	}

	allocated := make([]BlockID, count)
	for i := uint(0); i < count; i++ {
		allocated[i] = runStart + BlockID(i)
		list.free.Delete(allocated[i])
	}
	return allocated, nil
}

// LargestRun returns the length of the longest run of consecutive free blocks.
func (list *FreeList) LargestRun() uint {
	longest := uint(0)
	runSize := uint(0)
	previous := BlockID(0)

	list.free.Ascend(func(id BlockID) bool {
		if runSize != 0 && id == previous+1 {
			runSize++
		} else {
			runSize = 1
		}
		previous = id
		if runSize > longest {
			longest = runSize
		}
		return true
	})
	return longest
}
