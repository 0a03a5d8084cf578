package main

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/dargueta/simplefs"
	"github.com/dargueta/simplefs/blockstore"
	sfstest "github.com/dargueta/simplefs/testing"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRunner(t *testing.T, store *blockstore.Store, strict bool) (*scriptRunner, *bytes.Buffer) {
	t.Helper()
	logger, _ := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	output := &bytes.Buffer{}
	return &scriptRunner{
		store:  store,
		output: output,
		strict: strict,
		logger: logger,
	}, output
}

func TestScript__Basic(t *testing.T) {
	store, err := blockstore.New(4, 8)
	require.NoError(t, err)
	runner, output := newTestRunner(t, store, false)

	script := `
# Both files fill the store exactly.
write file.txt dataxyz123
read file.txt
write "with space.txt" 'hello world'
ls
stat
`
	require.NoError(t, runner.Run(strings.NewReader(script)))
	assert.Equal(
		t,
		"dataxyz123\n"+
			"file.txt\nwith space.txt\n"+
			"blocks=4 block_size=8 free=0 files=2 largest_free_run=0 fragmented=false\n",
		output.String())
	sfstest.RequireConsistent(t, store)
}

// Failed operations are reported and the script keeps going.
func TestScript__ErrorsReported(t *testing.T) {
	store := sfstest.NewSeededStore(t, sfstest.OneFileLayout())
	runner, output := newTestRunner(t, store, false)

	script := "write f1.txt x\nread missing\nwrite big abcdefghij\nread f1.txt\n"
	require.NoError(t, runner.Run(strings.NewReader(script)))

	lines := strings.Split(strings.TrimSuffix(output.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, `line 1: File exists: "f1.txt"`, lines[0])
	assert.Equal(t, `line 2: No such file: "missing"`, lines[1])
	assert.True(t, strings.HasPrefix(lines[2], "line 3: Not enough free blocks"), lines[2])
	assert.Equal(t, "abcd", lines[3])
}

func TestScript__Strict(t *testing.T) {
	store := sfstest.NewSeededStore(t, sfstest.OneFileLayout())
	runner, output := newTestRunner(t, store, true)

	err := runner.Run(strings.NewReader("delete nope\nread f1.txt\n"))
	assert.ErrorIs(t, err, simplefs.ErrFileNotFound)
	assert.Empty(t, output.String(), "script kept running after failure")
}

func TestScript__Malformed(t *testing.T) {
	testCases := map[string]string{
		"unknown command": "format everything\n",
		"missing content": "write onlyname\n",
		"extra argument":  "read a b\n",
		"open quote":      "write f 'abc\n",
	}

	for name, script := range testCases {
		t.Run(name, func(t *testing.T) {
			store, err := blockstore.New(4, 4)
			require.NoError(t, err)
			runner, _ := newTestRunner(t, store, false)

			err = runner.Run(strings.NewReader(script))
			assert.Error(t, err)
			assert.Contains(t, err.Error(), "line 1:")
		})
	}
}

func TestScript__Dump(t *testing.T) {
	store := sfstest.NewSeededStore(t, sfstest.OneFileLayout())
	runner, output := newTestRunner(t, store, false)

	require.NoError(t, runner.Run(strings.NewReader("dump\n")))

	reloaded, err := blockstore.ReadLayoutCSV(output, 4, 3)
	require.NoError(t, err)
	assert.Equal(t, store.Layout(), reloaded.Layout())
}

// Lines longer than bufio's default token limit are fine as long as the
// content could fit in the store.
func TestScript__LongLine(t *testing.T) {
	store, err := blockstore.New(3, 65536)
	require.NoError(t, err)
	runner, output := newTestRunner(t, store, true)

	content := strings.Repeat("0123456789", 15000)
	script := "write big " + content + "\nread big\n"
	require.NoError(t, runner.Run(strings.NewReader(script)))
	assert.Equal(t, content+"\n", output.String())
	assert.EqualValues(t, 0, store.Stat().FreeBlocks)
}

func TestScript__MaxLineLength(t *testing.T) {
	store, err := blockstore.New(4, 1024)
	require.NoError(t, err)
	runner, _ := newTestRunner(t, store, false)
	assert.Equal(t, 2*4*1024+4096, runner.maxLineLength())

	store, err = blockstore.New(2, math.MaxUint/2)
	require.NoError(t, err)
	runner, _ = newTestRunner(t, store, false)
	assert.Equal(t, math.MaxInt, runner.maxLineLength())
}
