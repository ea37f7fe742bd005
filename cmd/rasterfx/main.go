// Command rasterfx applies a chain of raster filters to image files.
//
// A single step can be described with flags:
//
//	rasterfx --input photo.jpg --filter upscale --scale 2 --output-dir out
//
// Longer chains come from a YAML/JSON/TOML file passed with --config. Flags that
// are set explicitly override the file, and RASTERFX_* environment variables
// override both file and flag defaults (e.g. RASTERFX_OUTPUT_FORMAT=webp).
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
)

const (
	// DefaultFilter is the step run when neither --config nor --filter is given.
	DefaultFilter = "restore"
	// DefaultStrength is the default restore strength.
	DefaultStrength = 0.5
	// DefaultIntensity is the default style/colorize intensity.
	DefaultIntensity = 0.5
)

// newFlagSet declares every command line flag. Keys in flagKeys map them onto
// configuration paths.
func newFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("rasterfx", pflag.ContinueOnError)
	fs.SortFlags = false

	fs.String("config", "", "Path to a pipeline configuration file")
	fs.StringSlice("input", nil, "Input image file(s); may be repeated or comma separated")
	fs.String("dir", "", "Directory of input images")

	fs.String("filter", DefaultFilter, "Single filter to run: score, restore, upscale, style, colorize")
	fs.Float64("strength", DefaultStrength, "Restore strength in [0,1]")
	fs.Int("scale", 2, "Upscale factor in [1,8]")
	fs.String("style", "vintage", "Style: vintage, cool, warm, vivid, monochrome")
	fs.String("scheme", "natural", "Colorize scheme: natural, cool, warm")
	fs.Float64("intensity", DefaultIntensity, "Style/colorize intensity in [0,1]")

	fs.Bool("parallel", false, "Split each filter across row bands")
	fs.Int("workers", 0, "Row bands when --parallel is set (0 = number of CPUs)")
	fs.String("edge", "skip", "Upscale border policy: skip, clamp, mirror")
	fs.Bool("independent-sepia", false, "Compute vintage G/B from the original red channel")
	fs.Int("concurrency", 2, "Images processed at once")
	fs.Bool("skip-score", false, "Do not compute before/after sharpness scores")

	fs.String("output-dir", "out", "Directory for processed images")
	fs.String("format", "", "Output format (png, jpeg, webp, bmp); empty keeps the input format")
	fs.Int("quality", 90, "JPEG/WebP quality in [1,100]")
	fs.Uint("preview", 0, "Also write a preview thumbnail bounded by this many pixels")
	fs.String("report", "", "Write a JSON run report to this path ('-' for stdout)")

	fs.String("log-level", "info", "Log level: debug, info, warn, error")
	fs.String("log-format", "console", "Log format: console, json")
	fs.String("log-file", "", "Also write JSON logs to this rotating file")
	return fs
}

// flagKeys maps flag names onto configuration keys.
var flagKeys = map[string]string{
	"parallel":          "parallel",
	"workers":           "workers",
	"edge":              "edge",
	"independent-sepia": "independent-sepia",
	"concurrency":       "concurrency",
	"skip-score":        "skip-score",
	"output-dir":        "output.dir",
	"format":            "output.format",
	"quality":           "output.quality",
	"preview":           "output.preview",
	"report":            "output.report",
	"log-level":         "log.level",
	"log-format":        "log.format",
	"log-file":          "log.file",
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "rasterfx: %v\n", err)
		stop()
		os.Exit(1)
	}
}
