package blockstore_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/dargueta/simplefs/blockstore"
	sfstest "github.com/dargueta/simplefs/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSynchronized__ConcurrentWriters(t *testing.T) {
	const writers = 8
	const filesPerWriter = 20

	store, err := blockstore.New(writers*filesPerWriter*2, 4)
	require.NoError(t, err)
	shared := blockstore.NewSynchronized(store)

	var group sync.WaitGroup
	for w := 0; w < writers; w++ {
		group.Add(1)
		go func(writer int) {
			defer group.Done()
			for i := 0; i < filesPerWriter; i++ {
				name := fmt.Sprintf("w%d-%d", writer, i)
				assert.NoError(t, shared.Write(name, []byte(name)))

				// Deleting every other file keeps the store fragmented so
				// later writes have to compact it.
				if i%2 == 1 {
					assert.NoError(t, shared.Delete(fmt.Sprintf("w%d-%d", writer, i-1)))
				}
			}
		}(w)
	}
	group.Wait()

	require.NoError(t, shared.Verify())
	assert.EqualValues(t, writers*filesPerWriter/2, shared.Stat().Files)

	for w := 0; w < writers; w++ {
		for i := 1; i < filesPerWriter; i += 2 {
			name := fmt.Sprintf("w%d-%d", w, i)
			data, err := shared.Read(name)
			if assert.NoError(t, err) {
				assert.Equal(t, name, string(data))
			}
		}
	}
	sfstest.RequireConsistent(t, store)
}
