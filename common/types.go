// Package common contains definitions of fundamental types and the free-space
// allocator shared by the store implementation and its tools.
package common

// BlockID is the 0-based index of a block in a store.
type BlockID uint

// BlockData is the content of a single block. It is never longer than the
// store's block size, and the last block of a file may be shorter.
type BlockData []byte
