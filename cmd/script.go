package main

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/dargueta/simplefs/blockstore"
	"github.com/kballard/go-shellquote"
	"github.com/sirupsen/logrus"
)

// scriptRunner executes store commands, one per line:
//
//	write NAME CONTENT
//	read NAME
//	delete NAME
//	ls
//	stat
//	dump
//
// Arguments are split with shell quoting rules, so content with spaces must be
// quoted. Blank lines and lines starting with # are ignored.
type scriptRunner struct {
	store  *blockstore.Store
	output io.Writer
	// strict makes the first failed store operation end the script. Otherwise
	// the failure is printed and the script continues.
	strict bool
	logger logrus.FieldLogger
}

type scriptCommand struct {
	arguments int
	run       func(runner *scriptRunner, args []string) error
}

var scriptCommands = map[string]scriptCommand{
	"write": {
		arguments: 2,
		run: func(runner *scriptRunner, args []string) error {
			return runner.store.Write(args[0], []byte(args[1]))
		},
	},
	"read": {
		arguments: 1,
		run: func(runner *scriptRunner, args []string) error {
			data, err := runner.store.Read(args[0])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(runner.output, "%s\n", data)
			return err
		},
	},
	"delete": {
		arguments: 1,
		run: func(runner *scriptRunner, args []string) error {
			return runner.store.Delete(args[0])
		},
	},
	"ls": {
		run: func(runner *scriptRunner, args []string) error {
			for _, name := range runner.store.Files() {
				_, err := fmt.Fprintln(runner.output, name)
				if err != nil {
					return err
				}
			}
			return nil
		},
	},
	"stat": {
		run: func(runner *scriptRunner, args []string) error {
			stat := runner.store.Stat()
			_, err := fmt.Fprintf(
				runner.output,
				"blocks=%d block_size=%d free=%d files=%d largest_free_run=%d fragmented=%t\n",
				stat.TotalBlocks,
				stat.BlockSize,
				stat.FreeBlocks,
				stat.Files,
				stat.LargestFreeRun,
				stat.Fragmented())
			return err
		},
	},
	"dump": {
		run: func(runner *scriptRunner, args []string) error {
			return runner.store.WriteLayoutCSV(runner.output)
		},
	},
}

// Run executes every command in `script`. Malformed lines always stop the
// script; failed store operations only do so in strict mode.
func (runner *scriptRunner) Run(script io.Reader) error {
	scanner := bufio.NewScanner(script)
	scanner.Buffer(make([]byte, 0, bufio.MaxScanTokenSize), runner.maxLineLength())
	lineNumber := 0

	for scanner.Scan() {
		lineNumber++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		words, err := shellquote.Split(line)
		if err != nil {
			return fmt.Errorf("line %d: %w", lineNumber, err)
		}

		command, ok := scriptCommands[words[0]]
		if !ok {
			return fmt.Errorf("line %d: unknown command %q", lineNumber, words[0])
		}
		if len(words)-1 != command.arguments {
			return fmt.Errorf(
				"line %d: %s takes %d arguments, got %d",
				lineNumber,
				words[0],
				command.arguments,
				len(words)-1)
		}

		err = command.run(runner, words[1:])
		if err == nil {
			continue
		}
		if runner.strict {
			return fmt.Errorf("line %d: %w", lineNumber, err)
		}

		runner.logger.WithField("line", lineNumber).Debug("command failed")
		_, err = fmt.Fprintf(runner.output, "line %d: %s\n", lineNumber, err)
		if err != nil {
			return err
		}
	}
	return scanner.Err()
}

// maxLineLength gives the longest script line Run accepts: a write filling the
// whole store with every byte escaped, plus room for the command and name.
func (runner *scriptRunner) maxLineLength() int {
	const overhead = 4096

	stat := runner.store.Stat()
	limit := uint64(math.MaxInt-overhead) / 2
	if uint64(stat.TotalBlocks) > limit/uint64(stat.BlockSize) {
		return math.MaxInt
	}
	return int(2*stat.TotalBlocks*stat.BlockSize) + overhead
}
