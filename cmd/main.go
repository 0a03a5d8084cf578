package main

import (
	"fmt"
	"io"
	"os"

	"github.com/dargueta/simplefs/blockstore"
	"github.com/dargueta/simplefs/geometries"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func main() {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)

	app := cli.App{
		Name:  "simplefs",
		Usage: "Run commands against an in-memory block store",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "log allocation and compaction details",
			},
		},
		Before: func(context *cli.Context) error {
			if context.Bool("verbose") {
				logger.SetLevel(logrus.DebugLevel)
			}
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:      "run",
				Usage:     "Execute a script of write/read/delete commands",
				ArgsUsage: "SCRIPT_FILE",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "geometry",
						Value: "small",
						Usage: "predefined geometry to use (see `geometries`)",
					},
					&cli.UintFlag{
						Name:  "blocks",
						Usage: "number of blocks, overriding the geometry",
					},
					&cli.UintFlag{
						Name:  "block-size",
						Usage: "bytes per block, overriding the geometry",
					},
					&cli.PathFlag{
						Name:  "seed",
						Usage: "CSV block table to load before running the script",
					},
					&cli.BoolFlag{
						Name:  "strict",
						Usage: "stop at the first command that fails",
					},
				},
				Action: func(context *cli.Context) error {
					return runScript(context, logger)
				},
			},
			{
				Name:   "geometries",
				Usage:  "List predefined store geometries",
				Action: listGeometries,
			},
		},
	}

	err := app.Run(os.Args)
	if err != nil {
		logger.Fatalf("fatal error: %s", err.Error())
	}
}

func runScript(context *cli.Context, logger *logrus.Logger) error {
	if context.NArg() != 1 {
		return cli.Exit("expected exactly one script file, use - for stdin", 2)
	}

	store, err := storeFromFlags(context, logger)
	if err != nil {
		return err
	}

	var script io.Reader = os.Stdin
	if path := context.Args().First(); path != "-" {
		file, err := os.Open(path)
		if err != nil {
			return err
		}
		defer file.Close()
		script = file
	}

	runner := scriptRunner{
		store:  store,
		output: context.App.Writer,
		strict: context.Bool("strict"),
		logger: logger,
	}
	return runner.Run(script)
}

func storeFromFlags(context *cli.Context, logger *logrus.Logger) (*blockstore.Store, error) {
	geometry, err := geometries.Get(context.String("geometry"))
	if err != nil {
		return nil, err
	}
	if context.IsSet("blocks") {
		geometry.BlockCount = context.Uint("blocks")
	}
	if context.IsSet("block-size") {
		geometry.BlockSize = context.Uint("block-size")
	}

	logger.WithFields(logrus.Fields{
		"blocks":     geometry.BlockCount,
		"block_size": geometry.BlockSize,
	}).Debug("creating store")

	seedPath := context.Path("seed")
	if seedPath == "" {
		return geometry.NewStore(blockstore.WithLogger(logger))
	}

	seedFile, err := os.Open(seedPath)
	if err != nil {
		return nil, err
	}
	defer seedFile.Close()

	return blockstore.ReadLayoutCSV(
		seedFile, geometry.BlockCount, geometry.BlockSize, blockstore.WithLogger(logger))
}

func listGeometries(context *cli.Context) error {
	for _, geometry := range geometries.All() {
		fmt.Fprintf(
			context.App.Writer,
			"%-16s %6d x %-5d %s\n",
			geometry.Slug,
			geometry.BlockCount,
			geometry.BlockSize,
			geometry.Name)
	}
	return nil
}
