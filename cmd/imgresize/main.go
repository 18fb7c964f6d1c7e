package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "imgresize",
		Usage: "Batch-resize raster images",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Directory holding imgresize.yaml",
				EnvVars: []string{"IMGRESIZE_CONFIG_PATH"},
				Value:   ".",
			},
		},
		Commands: []*cli.Command{
			resizeCommand(),
			probeCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
