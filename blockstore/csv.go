package blockstore

import (
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/dargueta/simplefs"
	c "github.com/dargueta/simplefs/common"
	"github.com/gocarina/gocsv"
)

// blockIndex is the index column of the block table. It's empty on the rows of
// files that own no blocks.
type blockIndex struct {
	block c.BlockID
	valid bool
}

func (index blockIndex) MarshalCSV() (string, error) {
	if !index.valid {
		return "", nil
	}
	return strconv.FormatUint(uint64(index.block), 10), nil
}

func (index *blockIndex) UnmarshalCSV(value string) error {
	if value == "" {
		*index = blockIndex{}
		return nil
	}

	block, err := strconv.ParseUint(value, 10, 0)
	if err != nil {
		return err
	}
	*index = blockIndex{block: c.BlockID(block), valid: true}
	return nil
}

// blockRecord is one row of the CSV block table. Free blocks have an empty
// File column. FileOrder is the file's place in creation order and is ignored
// on free blocks.
type blockRecord struct {
	Index     blockIndex `csv:"index"`
	File      string     `csv:"file"`
	FileOrder uint       `csv:"file_order"`
	Position  uint       `csv:"position"`
	Content   string     `csv:"content"`
}

// WriteLayoutCSV writes the store's block table to `output` as CSV, one row per
// block in block order, followed by one row with an empty index for every file
// that owns no blocks. The output can be loaded back with ReadLayoutCSV.
func (store *Store) WriteLayoutCSV(output io.Writer) error {
	records := make([]*blockRecord, store.blockCount)
	for i := range records {
		records[i] = &blockRecord{
			Index:   blockIndex{block: c.BlockID(i), valid: true},
			Content: string(store.blocks[i]),
		}
	}

	for order, name := range store.fileOrder {
		blocks := store.files[name].Blocks
		if len(blocks) == 0 {
			records = append(records, &blockRecord{File: name, FileOrder: uint(order)})
			continue
		}

		for position, block := range blocks {
			records[block].File = name
			records[block].FileOrder = uint(order)
			records[block].Position = uint(position)
		}
	}
	return gocsv.Marshal(&records, output)
}

// ReadLayoutCSV creates a store from a CSV block table as written by
// WriteLayoutCSV. Only blocks with content or an owning file need a row. Files
// are created in `file_order` order; files with the same order, or tables
// without that column, fall back to the order files first appear in.
func ReadLayoutCSV(
	input io.Reader, blockCount, blockSize uint, options ...Option,
) (*Store, error) {
	var records []*blockRecord
	err := gocsv.Unmarshal(input, &records)
	if err != nil {
		return nil, simplefs.ErrInvalidArgument.Wrap(err)
	}

	layout, err := recordsToLayout(records, blockCount, blockSize)
	if err != nil {
		return nil, err
	}
	return FromLayout(layout, options...)
}

type placedBlock struct {
	position uint
	block    c.BlockID
}

type fileRows struct {
	name   string
	order  uint
	empty  bool
	blocks []placedBlock
}

func recordsToLayout(records []*blockRecord, blockCount, blockSize uint) (Layout, error) {
	layout := Layout{
		BlockCount: blockCount,
		BlockSize:  blockSize,
		Blocks:     make([]string, blockCount),
	}

	filesByName := make(map[string]*fileRows)
	var files []*fileRows

	for row, record := range records {
		rowNumber := row + 1

		if !record.Index.valid {
			if record.File == "" || record.Content != "" {
				msg := fmt.Sprintf(
					"row %d: rows without an index must name an empty file", rowNumber)
				return Layout{}, simplefs.ErrInvalidArgument.WithMessage(msg)
			}
		} else if uint(record.Index.block) >= blockCount {
			msg := fmt.Sprintf(
				"row %d: block %d not in range [0, %d)",
				rowNumber,
				record.Index.block,
				blockCount)
			return Layout{}, simplefs.ErrInvalidArgument.WithMessage(msg)
		} else {
			layout.Blocks[record.Index.block] = record.Content
		}

		if record.File == "" {
			continue
		}

		file, seen := filesByName[record.File]
		if !seen {
			file = &fileRows{name: record.File, order: record.FileOrder}
			filesByName[record.File] = file
			files = append(files, file)
		} else if file.order != record.FileOrder {
			msg := fmt.Sprintf(
				"row %d: file %q has file_order %d here but %d earlier",
				rowNumber,
				record.File,
				record.FileOrder,
				file.order)
			return Layout{}, simplefs.ErrInvalidArgument.WithMessage(msg)
		}

		if record.Index.valid {
			file.blocks = append(
				file.blocks,
				placedBlock{position: record.Position, block: record.Index.block})
		} else {
			file.empty = true
		}
	}

	sort.SliceStable(files, func(i, j int) bool {
		return files[i].order < files[j].order
	})

	for _, file := range files {
		if file.empty && len(file.blocks) != 0 {
			msg := fmt.Sprintf("file %q is listed as empty but owns blocks", file.name)
			return Layout{}, simplefs.ErrInvalidArgument.WithMessage(msg)
		}

		placed := file.blocks
		sort.Slice(placed, func(i, j int) bool {
			return placed[i].position < placed[j].position
		})

		blocks := make([]c.BlockID, len(placed))
		for i, entry := range placed {
			if entry.position != uint(i) {
				msg := fmt.Sprintf(
					"file %q: block positions must be 0 through %d with no gaps or repeats",
					file.name,
					len(placed)-1)
				return Layout{}, simplefs.ErrInvalidArgument.WithMessage(msg)
			}
			blocks[i] = entry.block
		}
		layout.Files = append(layout.Files, FileLayout{Name: file.name, Blocks: blocks})
	}
	return layout, nil
}
