// Package geometries provides a table of predefined store geometries, so a
// store can be created from a short name instead of explicit block counts and
// sizes.
package geometries

import (
	_ "embed"
	"encoding/csv"
	"fmt"
	"sort"
	"strings"

	"github.com/dargueta/simplefs"
	"github.com/dargueta/simplefs/blockstore"
	"github.com/gocarina/gocsv"
)

type Geometry struct {
	Slug       string `csv:"slug"`
	Name       string `csv:"name"`
	BlockCount uint   `csv:"block_count"`
	BlockSize  uint   `csv:"block_size"`
	Notes      string `csv:"notes"`
}

// TotalSizeBytes gives the capacity of a store with this geometry.
func (g *Geometry) TotalSizeBytes() uint {
	return g.BlockCount * g.BlockSize
}

// NewStore creates an empty store with this geometry.
func (g *Geometry) NewStore(options ...blockstore.Option) (*blockstore.Store, error) {
	return blockstore.New(g.BlockCount, g.BlockSize, options...)
}

// Many of these are modeled on old floppy formats:
// https://en.wikipedia.org/wiki/List_of_floppy_disk_formats
//
//go:embed geometries.csv
var geometriesRawCSV string
var geometries map[string]Geometry

// Get returns the predefined geometry called `slug`.
func Get(slug string) (Geometry, error) {
	geometry, ok := geometries[slug]
	if ok {
		return geometry, nil
	}

	msg := fmt.Sprintf("no predefined geometry exists with slug %q", slug)
	return Geometry{}, simplefs.ErrInvalidArgument.WithMessage(msg)
}

// All returns every predefined geometry, sorted by slug.
func All() []Geometry {
	all := make([]Geometry, 0, len(geometries))
	for _, geometry := range geometries {
		all = append(all, geometry)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].Slug < all[j].Slug
	})
	return all
}

func init() {
	csvReader := csv.NewReader(strings.NewReader(geometriesRawCSV))
	csvReader.Comma = '|'

	var rows []*Geometry
	err := gocsv.UnmarshalCSV(csvReader, &rows)
	if err != nil {
		panic(fmt.Errorf("failed to decode geometry table: %w", err))
	}

	geometries = make(map[string]Geometry, len(rows))
	for i, row := range rows {
		if row.BlockCount == 0 || row.BlockSize == 0 {
			panic(fmt.Errorf("geometry %q on row %d has no capacity", row.Slug, i+1))
		}

		_, exists := geometries[row.Slug]
		if exists {
			message := fmt.Errorf(
				"duplicate definition for geometry %q found on row %d",
				row.Slug,
				i+1)
			panic(message)
		}
		geometries[row.Slug] = *row
	}
}
