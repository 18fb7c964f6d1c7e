package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/leeforge/imgresize/config"
	"github.com/leeforge/imgresize/json"
	"github.com/leeforge/imgresize/logging"
	"github.com/leeforge/imgresize/media/processor"
	"github.com/leeforge/imgresize/media/queue"
	"github.com/leeforge/imgresize/media/storage"
)

func resizeCommand() *cli.Command {
	return &cli.Command{
		Name:      "resize",
		Usage:     "Resize files and directories into the output directory",
		ArgsUsage: "<file|dir>...",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "mode", Aliases: []string{"m"}, Usage: "percent or pixel"},
			&cli.IntFlag{Name: "percent", Aliases: []string{"p"}, Usage: "Scale in percent (percent mode)"},
			&cli.IntFlag{Name: "width", Usage: "Target width, 0 keeps it free (pixel mode)"},
			&cli.IntFlag{Name: "height", Usage: "Target height, 0 keeps it free (pixel mode)"},
			&cli.BoolFlag{Name: "keep-aspect", Usage: "Preserve the source aspect ratio (pixel mode)"},
			&cli.IntFlag{Name: "dpi", Usage: "Output resolution, 72-300"},
			&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Usage: "original, jpeg, png, webp, tiff, bmp or gif"},
			&cli.IntFlag{Name: "quality", Aliases: []string{"q"}, Usage: "JPEG/WEBP quality, 1-100"},
			&cli.StringFlag{Name: "filter", Usage: "nearest, bilinear, bicubic or lanczos"},
			&cli.BoolFlag{Name: "keep-exif", Usage: "Carry EXIF metadata over to the output"},
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Output directory"},
			&cli.BoolFlag{Name: "recursive", Aliases: []string{"r"}, Usage: "Descend into subdirectories"},
			&cli.BoolFlag{Name: "json", Usage: "Print the batch outcome as JSON"},
			&cli.BoolFlag{Name: "quiet", Usage: "Hide the progress bar"},
		},
		Action: runResize,
	}
}

func runResize(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("no input files or directories provided")
	}

	settings, err := loadSettings(c)
	if err != nil {
		return err
	}
	applyFlags(c, settings)

	req, err := settings.Request()
	if err != nil {
		return err
	}

	logger := logging.Init(settings.Log)
	defer logging.CloseAllWriters()
	defer logger.Sync()

	files, err := storage.CollectSources(c.Args().Slice(), settings.Recursive, processor.IsSupported)
	if err != nil {
		return err
	}

	pipeline := processor.NewPipeline(processor.NewNativeCodec(logger), logger)
	runner := queue.NewRunner(pipeline, queue.WithLogger(logger))

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var obs queue.Observer
	if !c.Bool("quiet") && !c.Bool("json") {
		obs = newBarObserver(len(files))
	}

	job, err := runner.Start(ctx, files, req, obs)
	if err != nil {
		return err
	}
	outcome := job.Wait()

	if c.Bool("json") {
		if err := json.NewEncoder(os.Stdout).Encode(outcome); err != nil {
			return err
		}
	} else {
		fmt.Printf("%s. %s\n", outcome.State, outcome)
	}

	if outcome.Failed > 0 {
		return cli.Exit(outcome.Summary(), 2)
	}
	return nil
}

func loadSettings(c *cli.Context) (*config.Settings, error) {
	opts := config.DefaultConfigOptions()
	opts.BasePath = c.String("config")
	return config.Load(opts)
}

// applyFlags overrides file and environment settings with explicitly set flags.
func applyFlags(c *cli.Context, s *config.Settings) {
	if c.IsSet("mode") {
		s.Mode = c.String("mode")
	}
	if c.IsSet("percent") {
		s.Percent = c.Int("percent")
	}
	if c.IsSet("width") {
		s.Width = c.Int("width")
	}
	if c.IsSet("height") {
		s.Height = c.Int("height")
	}
	if c.IsSet("keep-aspect") {
		s.KeepAspect = c.Bool("keep-aspect")
	}
	if c.IsSet("dpi") {
		s.DPI = c.Int("dpi")
	}
	if c.IsSet("format") {
		s.Format = c.String("format")
	}
	if c.IsSet("quality") {
		s.Quality = c.Int("quality")
	}
	if c.IsSet("filter") {
		s.Filter = c.String("filter")
	}
	if c.IsSet("keep-exif") {
		s.KeepEXIF = c.Bool("keep-exif")
	}
	if c.IsSet("output") {
		s.OutputDir = c.String("output")
	}
	if c.IsSet("recursive") {
		s.Recursive = c.Bool("recursive")
	}
}
