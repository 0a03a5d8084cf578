// Package blockstore implements an in-memory store of named files on top of a
// fixed number of fixed-size blocks.
//
// Files are written into a single run of physically contiguous blocks, chosen
// first-fit from the free list. If the free space is large enough but scattered,
// the store compacts every file toward block 0 and then allocates from the
// single free run left at the end. Deleting a file never compacts anything.
//
// A Store is not safe for concurrent use; wrap it with NewSynchronized if it
// must be shared between goroutines.
package blockstore

import (
	"errors"
	"fmt"
	"io"

	"github.com/dargueta/simplefs"
	c "github.com/dargueta/simplefs/common"
	"github.com/noxer/bytewriter"
	"github.com/sirupsen/logrus"
)

// File is a named, immutable sequence of blocks. The order of Blocks is the
// order of the content, not necessarily the physical order on the store.
type File struct {
	Name   string
	Blocks []c.BlockID
}

type Store struct {
	blockCount uint
	blockSize  uint
	blocks     []c.BlockData
	freeList   *c.FreeList
	files      map[string]*File
	// Names of all files in creation order. Compaction relocates files in
	// this order.
	fileOrder []string
	logger    logrus.FieldLogger
}

var _ simplefs.Store = (*Store)(nil)

// Option configures optional behavior of a Store.
type Option func(*Store)

// WithLogger sets the logger the store reports allocation and compaction
// events to. By default nothing is logged.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(store *Store) {
		store.logger = logger
	}
}

// New creates a store of `blockCount` empty blocks of `blockSize` bytes each.
// All blocks start out free.
func New(blockCount, blockSize uint, options ...Option) (*Store, error) {
	err := checkGeometry(blockCount, blockSize)
	if err != nil {
		return nil, err
	}
	return newStore(blockCount, blockSize, c.NewFreeList(blockCount), options), nil
}

func checkGeometry(blockCount, blockSize uint) error {
	if blockCount == 0 || blockSize == 0 {
		msg := fmt.Sprintf(
			"need at least one block of at least one byte, got %d blocks of %d bytes",
			blockCount,
			blockSize)
		return simplefs.ErrInvalidArgument.WithMessage(msg)
	}
	return nil
}

func newStore(
	blockCount, blockSize uint, freeList *c.FreeList, options []Option,
) *Store {
	store := &Store{
		blockCount: blockCount,
		blockSize:  blockSize,
		blocks:     make([]c.BlockData, blockCount),
		freeList:   freeList,
		files:      make(map[string]*File),
		logger:     discardLogger(),
	}
	for _, option := range options {
		option(store)
	}
	return store
}

func discardLogger() logrus.FieldLogger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// BlockCount returns the total number of blocks in the store.
func (store *Store) BlockCount() uint {
	return store.blockCount
}

// BlockSize returns the capacity of a single block, in bytes.
func (store *Store) BlockSize() uint {
	return store.blockSize
}

// sizeToNumBlocks rounds up without computing size + blockSize - 1, which
// wraps around for block sizes near the top of the uint range.
func (store *Store) sizeToNumBlocks(size uint) uint {
	numBlocks := size / store.blockSize
	if size%store.blockSize != 0 {
		numBlocks++
	}
	return numBlocks
}

// split cuts `data` into block-sized chunks. Every chunk but the last is
// exactly one block long. The chunks are copies, so the caller is free to
// reuse `data` afterwards.
func (store *Store) split(data []byte) []c.BlockData {
	dataLength := uint(len(data))
	chunks := make([]c.BlockData, store.sizeToNumBlocks(dataLength))

	for i := range chunks {
		start := uint(i) * store.blockSize
		end := dataLength
		if dataLength-start > store.blockSize {
			end = start + store.blockSize
		}

		chunks[i] = make(c.BlockData, end-start)
		copy(chunks[i], data[start:end])
	}
	return chunks
}

// Write creates a new file called `name` containing `data`.
//
// The file gets the first run of contiguous free blocks large enough to hold
// it. If there are enough free blocks but no such run, the store is compacted
// first. Empty files are allowed and occupy no blocks.
//
// Writing to a name that already exists fails with ErrFileAlreadyExists, and
// writing more data than there are free blocks for fails with
// ErrNotEnoughSpace. In both cases the store is not modified.
func (store *Store) Write(name string, data []byte) error {
	if _, exists := store.files[name]; exists {
		return simplefs.ErrFileAlreadyExists.WithMessage(fmt.Sprintf("%q", name))
	}

	chunks := store.split(data)
	blocksNeeded := uint(len(chunks))
	if blocksNeeded > store.freeList.Len() {
		msg := fmt.Sprintf(
			"%q needs %d blocks but only %d are free",
			name,
			blocksNeeded,
			store.freeList.Len())
		return simplefs.ErrNotEnoughSpace.WithMessage(msg)
	}

	allocated, err := store.freeList.AllocateContiguous(blocksNeeded)
	if errors.Is(err, simplefs.ErrNoContiguousRun) {
		store.logger.WithFields(logrus.Fields{
			"file":          name,
			"blocks_needed": blocksNeeded,
			"free_blocks":   store.freeList.Len(),
		}).Debug("no contiguous run large enough, compacting store")

		store.defragment()
		allocated, err = store.freeList.AllocateContiguous(blocksNeeded)
	}
	if err != nil {
		// After compaction all free blocks are in one run at the end of the
		// store, and we already know there are enough of them.
		return simplefs.ErrFileSystemCorrupted.Wrap(err)
	}

	for i, block := range allocated {
		store.blocks[block] = chunks[i]
	}
	store.files[name] = &File{Name: name, Blocks: allocated}
	store.fileOrder = append(store.fileOrder, name)
	return nil
}

// Read returns the contents of the file called `name`, or ErrFileNotFound if
// there's no such file.
func (store *Store) Read(name string) ([]byte, error) {
	file, exists := store.files[name]
	if !exists {
		return nil, simplefs.ErrFileNotFound.WithMessage(fmt.Sprintf("%q", name))
	}

	totalSize := 0
	for _, block := range file.Blocks {
		totalSize += len(store.blocks[block])
	}

	buffer := make([]byte, totalSize)
	writer := bytewriter.New(buffer)
	for _, block := range file.Blocks {
		_, err := writer.Write(store.blocks[block])
		if err != nil {
			return nil, simplefs.ErrFileSystemCorrupted.Wrap(err)
		}
	}
	return buffer, nil
}

// Delete removes the file called `name` and frees its blocks, or returns
// ErrFileNotFound if there's no such file.
func (store *Store) Delete(name string) error {
	file, exists := store.files[name]
	if !exists {
		return simplefs.ErrFileNotFound.WithMessage(fmt.Sprintf("%q", name))
	}

	// Check everything before touching the free list so a broken store is
	// reported without being made worse.
	for _, block := range file.Blocks {
		if store.freeList.Has(block) {
			msg := fmt.Sprintf("block %d of %q is already free", block, name)
			return simplefs.ErrFileSystemCorrupted.WithMessage(msg)
		}
	}

	for _, block := range file.Blocks {
		err := store.freeList.FreeSingle(block)
		if err != nil {
			return simplefs.ErrFileSystemCorrupted.Wrap(err)
		}
		store.blocks[block] = nil
	}

	delete(store.files, name)
	for i, orderedName := range store.fileOrder {
		if orderedName == name {
			store.fileOrder = append(store.fileOrder[:i], store.fileOrder[i+1:]...)
			break
		}
	}
	return nil
}

// Stat returns the geometry and current block usage of the store.
func (store *Store) Stat() simplefs.Stat {
	return simplefs.Stat{
		TotalBlocks:    store.blockCount,
		BlockSize:      store.blockSize,
		FreeBlocks:     store.freeList.Len(),
		Files:          uint(len(store.files)),
		LargestFreeRun: store.freeList.LargestRun(),
	}
}

// Files returns the names of all files in the order they were created.
func (store *Store) Files() []string {
	names := make([]string, len(store.fileOrder))
	copy(names, store.fileOrder)
	return names
}

// FileBlocks returns the IDs of the blocks holding the file's content, in
// content order.
func (store *Store) FileBlocks(name string) ([]c.BlockID, error) {
	file, exists := store.files[name]
	if !exists {
		return nil, simplefs.ErrFileNotFound.WithMessage(fmt.Sprintf("%q", name))
	}

	blocks := make([]c.BlockID, len(file.Blocks))
	copy(blocks, file.Blocks)
	return blocks, nil
}

// FreeBlocks returns the IDs of all free blocks in ascending order.
func (store *Store) FreeBlocks() []c.BlockID {
	return store.freeList.IDs()
}
