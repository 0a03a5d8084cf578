package simplefs

// ReadingStore is the interface for stores supporting read operations.
type ReadingStore interface {
	// Read returns the contents of the named file. The returned slice is a copy
	// and can be modified freely.
	Read(name string) ([]byte, error)
}

// WritingStore is the interface for stores supporting write operations.
//
// Files are immutable once written. To replace a file's contents, delete it
// first; writing to an existing name fails with ErrFileAlreadyExists.
type WritingStore interface {
	Write(name string, data []byte) error
	Delete(name string) error
}

// Store is the interface for stores implementing all capabilities.
type Store interface {
	ReadingStore
	WritingStore

	// Stat returns usage information about the store.
	Stat() Stat
}

// Stat gives a summary of a store's geometry and block usage.
type Stat struct {
	TotalBlocks uint
	BlockSize   uint
	FreeBlocks  uint
	Files       uint
	// LargestFreeRun is the length of the longest run of physically contiguous
	// free blocks. The largest file that can be written without compacting the
	// store is LargestFreeRun * BlockSize bytes.
	LargestFreeRun uint
}

// UsedBlocks returns the number of blocks owned by files.
func (s Stat) UsedBlocks() uint {
	return s.TotalBlocks - s.FreeBlocks
}

// Fragmented is true if the free blocks aren't all in one run, i.e. a write
// that fits in the free space might still need the store to compact itself.
func (s Stat) Fragmented() bool {
	return s.FreeBlocks > s.LargestFreeRun
}
