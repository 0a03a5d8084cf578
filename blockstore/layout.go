package blockstore

import (
	"fmt"

	"github.com/boljen/go-bitmap"
	"github.com/dargueta/simplefs"
	c "github.com/dargueta/simplefs/common"
)

// FileLayout gives the blocks a file occupies, in content order.
type FileLayout struct {
	Name   string
	Blocks []c.BlockID
}

// Layout is a complete, detached description of a store's contents. Blocks not
// owned by any file are free.
type Layout struct {
	BlockCount uint
	BlockSize  uint
	// Blocks gives the content of every block. It may be shorter than
	// BlockCount, in which case the missing blocks are empty.
	Blocks []string
	// Files lists every file in creation order.
	Files []FileLayout
}

// FromLayout creates a store with exactly the given contents. The layout must
// describe a consistent store (see Store.Verify); if it doesn't, FromLayout
// fails with an error describing every problem.
func FromLayout(layout Layout, options ...Option) (*Store, error) {
	err := checkGeometry(layout.BlockCount, layout.BlockSize)
	if err != nil {
		return nil, err
	}
	if uint(len(layout.Blocks)) > layout.BlockCount {
		msg := fmt.Sprintf(
			"layout has %d blocks of content but the store only has %d blocks",
			len(layout.Blocks),
			layout.BlockCount)
		return nil, simplefs.ErrInvalidArgument.WithMessage(msg)
	}

	inUse := bitmap.New(int(layout.BlockCount))
	files := make(map[string]*File, len(layout.Files))
	fileOrder := make([]string, 0, len(layout.Files))

	for _, fileLayout := range layout.Files {
		if _, exists := files[fileLayout.Name]; exists {
			return nil, simplefs.ErrFileAlreadyExists.WithMessage(
				fmt.Sprintf("%q appears twice in layout", fileLayout.Name))
		}

		blocks := make([]c.BlockID, len(fileLayout.Blocks))
		for i, block := range fileLayout.Blocks {
			if uint(block) >= layout.BlockCount {
				msg := fmt.Sprintf(
					"file %q: block %d not in range [0, %d)",
					fileLayout.Name,
					block,
					layout.BlockCount)
				return nil, simplefs.ErrInvalidArgument.WithMessage(msg)
			}
			blocks[i] = block
			inUse.Set(int(block), true)
		}

		files[fileLayout.Name] = &File{Name: fileLayout.Name, Blocks: blocks}
		fileOrder = append(fileOrder, fileLayout.Name)
	}

	store := newStore(
		layout.BlockCount,
		layout.BlockSize,
		c.NewFreeListFromInUseBitmap(inUse, layout.BlockCount),
		options)
	store.files = files
	store.fileOrder = fileOrder
	for i, content := range layout.Blocks {
		if content != "" {
			store.blocks[i] = c.BlockData(content)
		}
	}

	err = store.Verify()
	if err != nil {
		return nil, err
	}
	return store, nil
}

// Layout returns a copy of the store's contents.
func (store *Store) Layout() Layout {
	layout := Layout{
		BlockCount: store.blockCount,
		BlockSize:  store.blockSize,
		Blocks:     make([]string, store.blockCount),
		Files:      make([]FileLayout, 0, len(store.fileOrder)),
	}

	for i, block := range store.blocks {
		layout.Blocks[i] = string(block)
	}
	for _, name := range store.fileOrder {
		blocks := make([]c.BlockID, len(store.files[name].Blocks))
		copy(blocks, store.files[name].Blocks)
		layout.Files = append(layout.Files, FileLayout{Name: name, Blocks: blocks})
	}
	return layout
}
