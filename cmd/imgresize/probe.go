package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/leeforge/imgresize/json"
	"github.com/leeforge/imgresize/media/processor"
	"github.com/leeforge/imgresize/media/storage"
)

type probeResult struct {
	Path string `json:"path"`
	processor.ImageInfo
	Error string `json:"error,omitempty"`
}

func probeCommand() *cli.Command {
	return &cli.Command{
		Name:      "probe",
		Usage:     "List the pixel size of each supported image",
		ArgsUsage: "<file|dir>...",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "recursive", Aliases: []string{"r"}, Value: true, Usage: "Descend into subdirectories"},
			&cli.BoolFlag{Name: "json", Usage: "Print results as JSON"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return fmt.Errorf("no input files or directories provided")
			}

			files, err := storage.CollectSources(c.Args().Slice(), c.Bool("recursive"), processor.IsSupported)
			if err != nil {
				return err
			}

			results := make([]probeResult, 0, len(files))
			for _, path := range files {
				res := probeResult{Path: path}
				if info, err := processor.GetImageInfo(path); err != nil {
					res.Error = err.Error()
				} else {
					res.ImageInfo = info
				}
				results = append(results, res)
			}

			if c.Bool("json") {
				return json.NewEncoder(os.Stdout).Encode(results)
			}
			for _, res := range results {
				if res.Error != "" {
					fmt.Printf("%s\t?\n", res.Path)
					continue
				}
				fmt.Printf("%s\t%dx%d\t%s\n", res.Path, res.Width, res.Height, res.Format)
			}
			return nil
		},
	}
}
