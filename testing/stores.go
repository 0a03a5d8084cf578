package testing

import (
	"testing"

	"github.com/dargueta/simplefs/blockstore"
	c "github.com/dargueta/simplefs/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// OneFileLayout is a 4-block store with 3-byte blocks holding a single file,
// "f1.txt", split across blocks 0 and 2. Blocks 1 and 3 are free.
func OneFileLayout() blockstore.Layout {
	return blockstore.Layout{
		BlockCount: 4,
		BlockSize:  3,
		Blocks:     []string{"abc", "", "d", ""},
		Files: []blockstore.FileLayout{
			{Name: "f1.txt", Blocks: []c.BlockID{0, 2}},
		},
	}
}

// TwoFilesLayout is a 6-block store with 4-byte blocks holding two interleaved
// files. Only block 3 is free.
func TwoFilesLayout() blockstore.Layout {
	return blockstore.Layout{
		BlockCount: 6,
		BlockSize:  4,
		Blocks:     []string{"1234", "abcd", "56", "", "efgh", "ijkl"},
		Files: []blockstore.FileLayout{
			{Name: "f1.txt", Blocks: []c.BlockID{0, 2}},
			{Name: "f2.txt", Blocks: []c.BlockID{1, 4, 5}},
		},
	}
}

// NewSeededStore creates a store with exactly the contents in `layout`. It is
// guaranteed to either return a valid store or fail the test and abort.
func NewSeededStore(t *testing.T, layout blockstore.Layout) *blockstore.Store {
	store, err := blockstore.FromLayout(layout)
	require.NoError(t, err, "failed to seed store from layout")
	return store
}

// RequireConsistent fails the test immediately if the store is inconsistent or
// if its free and owned blocks don't add up to the total.
func RequireConsistent(t *testing.T, store *blockstore.Store) {
	require.NoError(t, store.Verify(), "store is inconsistent")

	ownedBlocks := 0
	for _, name := range store.Files() {
		blocks, err := store.FileBlocks(name)
		require.NoErrorf(t, err, "file %q is listed but can't be looked up", name)
		ownedBlocks += len(blocks)
	}

	stat := store.Stat()
	require.EqualValues(
		t,
		stat.TotalBlocks,
		stat.FreeBlocks+uint(ownedBlocks),
		"free blocks plus owned blocks don't add up to the total")
	require.Len(t, store.FreeBlocks(), int(stat.FreeBlocks))
}

// AssertContents checks that every file in `expected` exists in the store with
// the given contents.
func AssertContents(t *testing.T, store *blockstore.Store, expected map[string]string) {
	for name, content := range expected {
		data, err := store.Read(name)
		if assert.NoErrorf(t, err, "failed to read %q", name) {
			assert.Equalf(t, content, string(data), "contents of %q are wrong", name)
		}
	}
}
