package blockstore

import (
	c "github.com/dargueta/simplefs/common"
	"github.com/sirupsen/logrus"
)

// defragment moves every file's blocks to the lowest block IDs, keeping files
// in creation order and each file's blocks in content order. Afterwards the
// free list is the single run [used blocks, blockCount).
func (store *Store) defragment() {
	newBlocks := make([]c.BlockData, store.blockCount)
	cursor := c.BlockID(0)
	movedBlocks := 0

	for _, name := range store.fileOrder {
		file := store.files[name]
		newBlockIDs := make([]c.BlockID, len(file.Blocks))

		for i, block := range file.Blocks {
			newBlocks[cursor] = store.blocks[block]
			newBlockIDs[i] = cursor
			if block != cursor {
				movedBlocks++
			}
			cursor++
		}
		file.Blocks = newBlockIDs
	}

	store.blocks = newBlocks
	store.freeList.Reset(cursor)

	store.logger.WithFields(logrus.Fields{
		"files":        len(store.fileOrder),
		"used_blocks":  uint(cursor),
		"moved_blocks": movedBlocks,
	}).Debug("compacted store")
}
