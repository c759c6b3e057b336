// The rdb CLI decodes Raw Data Blocks extracted from forge archives,
// extracts texture maps to DDS and PNG, and packs decoded streams back
// into Raw Data Blocks.
package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var versionGitCommit string
var versionBuildTime string

func commonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "config", Usage: "TOML config file path", EnvVars: []string{"RDB_CONFIG"}},
		&cli.StringFlag{Name: "log-level", Value: "info", Usage: "Set log level (panic, fatal, error, warn, info, debug, trace)", EnvVars: []string{"LOG_LEVEL"}},
		&cli.StringFlag{Name: "checksum", Usage: "Chunk checksum algorithm to verify or write (none, crc32)", EnvVars: []string{"RDB_CHECKSUM"}},
	}
}

func newApp() *cli.App {
	app := &cli.App{
		Name:    "rdb",
		Usage:   "Raw Data Block decoder and texture extractor",
		Version: fmt.Sprintf("%s.%s", versionGitCommit, versionBuildTime),
	}

	app.Commands = []*cli.Command{
		{
			Name:      "decode",
			Usage:     "Decode raw entries and write <file>.dec next to each",
			ArgsUsage: "FILE...",
			Flags:     commonFlags(),
			Action:    decodeAction,
		},
		{
			Name:      "info",
			Usage:     "Print block and datafile headers of a raw entry",
			ArgsUsage: "FILE",
			Flags:     commonFlags(),
			Action:    infoAction,
		},
		{
			Name:      "texture",
			Usage:     "Extract texture maps from an archive directory to DDS and PNG",
			ArgsUsage: "ENTRY...",
			Flags: append(commonFlags(),
				&cli.StringFlag{Name: "archive", Usage: "Directory of raw forge entries", EnvVars: []string{"RDB_ARCHIVE"}},
				&cli.StringFlag{Name: "output", Value: "./out", Usage: "Output directory for DDS and PNG files", EnvVars: []string{"RDB_OUTPUT"}},
				&cli.IntFlag{Name: "workers", Value: 4, Usage: "Number of textures extracted in parallel", EnvVars: []string{"RDB_WORKERS"}},
				&cli.BoolFlag{Name: "skip-dds", Usage: "Do not keep the intermediate DDS files"},
			),
			Action: textureAction,
		},
		{
			Name:      "pack",
			Usage:     "Encode a decoded stream into a Raw Data Block",
			ArgsUsage: "INPUT OUTPUT",
			Flags: append(commonFlags(),
				&cli.StringFlag{Name: "compression", Value: "lz4", Usage: "Chunk compression (lz4, zstd)", EnvVars: []string{"RDB_COMPRESSION"}},
				&cli.IntFlag{Name: "chunk-size", Value: 256 * 1024, Usage: "Uncompressed chunk size in bytes"},
				&cli.BoolFlag{Name: "store", Usage: "Store chunks without compression"},
			),
			Action: packAction,
		},
	}

	return app
}

func main() {
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	if err := newApp().Run(os.Args); err != nil {
		logrus.Fatal(err)
	}
}
