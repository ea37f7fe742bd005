package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/nvr-ai/go-raster/images"
	"github.com/nvr-ai/go-raster/logging"
	"github.com/nvr-ai/go-raster/pipeline"
	"github.com/nvr-ai/go-raster/profiler"
	"github.com/nvr-ai/go-raster/raster"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// FileReport describes one processed input.
type FileReport struct {
	Input   string           `json:"input"`
	Output  string           `json:"output"`
	Preview string           `json:"preview,omitempty"`
	Result  *pipeline.Result `json:"result"`
}

// Report is the JSON document written by --report.
type Report struct {
	Generated time.Time         `json:"generated"`
	Config    pipeline.Config   `json:"config"`
	Files     []FileReport      `json:"files"`
	Stats     profiler.Snapshot `json:"stats"`
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	fs := newFlagSet()
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	cfg, err := loadConfig(fs)
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	inputs, err := collectInputs(fs)
	if err != nil {
		return err
	}
	logger.Info("processing images",
		zap.Int("count", len(inputs)),
		zap.Int("steps", len(cfg.Steps)),
		zap.Bool("parallel", cfg.Parallel),
	)

	p, err := pipeline.New(*cfg, logger)
	if err != nil {
		return err
	}

	plans, err := planOutputs(cfg, inputs)
	if err != nil {
		return err
	}
	for _, plan := range plans {
		if plan.Renamed {
			logger.Warn("output name taken, using suffix",
				zap.String("input", plan.Input.Path),
				zap.String("output", plan.Output),
			)
		}
	}

	// Each task decodes, processes and writes one file, so memory follows
	// cfg.Concurrency rather than the number of inputs.
	report := Report{Generated: time.Now().UTC(), Config: *cfg, Files: make([]FileReport, len(plans))}
	err = p.Stream(ctx, len(plans), cfg.Concurrency,
		func(_ context.Context, i int) (*raster.Buffer, error) {
			buf, _, err := images.DecodeFile(plans[i].Input.Path)
			return buf, err
		},
		func(_ context.Context, i int, res *pipeline.Result) error {
			file, err := writeOutputs(cfg, plans[i], res)
			if err != nil {
				return err
			}
			res.Buffer = nil
			report.Files[i] = file
			logger.Info("image written",
				zap.String("input", file.Input),
				zap.String("output", file.Output),
				zap.Float64("score_before", res.ScoreBefore),
				zap.Float64("score_after", res.ScoreAfter),
			)
			return nil
		},
	)
	if err != nil {
		return err
	}

	report.Stats = p.Stats()
	for _, op := range report.Stats.Operations {
		logger.Info("filter timing",
			zap.String("filter", op.Name),
			zap.Int64("count", op.Count),
			zap.Duration("avg", op.Avg),
			zap.Duration("max", op.Max),
		)
	}
	logger.Info("run finished",
		zap.Int("images", len(report.Files)),
		zap.String("heap", profiler.FormatBytes(report.Stats.Memory.Alloc)),
	)

	return writeReport(cfg.Output.Report, report, stdout)
}

// loadConfig merges flags, an optional configuration file and RASTERFX_*
// environment variables.
func loadConfig(fs *pflag.FlagSet) (*pipeline.Config, error) {
	v := pipeline.NewViper()
	for name, key := range flagKeys {
		if err := v.BindPFlag(key, fs.Lookup(name)); err != nil {
			return nil, errors.Wrapf(err, "bind flag %s", name)
		}
	}

	path, _ := fs.GetString("config")
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "read config %s", path)
		}
	}
	if !v.IsSet("steps") || fs.Changed("filter") {
		step, err := stepFromFlags(fs)
		if err != nil {
			return nil, err
		}
		v.Set("steps", []map[string]any{step})
	}

	return pipeline.FromViper(v)
}

func stepFromFlags(fs *pflag.FlagSet) (map[string]any, error) {
	filter, err := fs.GetString("filter")
	if err != nil {
		return nil, err
	}
	strength, _ := fs.GetFloat64("strength")
	scale, _ := fs.GetInt("scale")
	style, _ := fs.GetString("style")
	scheme, _ := fs.GetString("scheme")
	intensity, _ := fs.GetFloat64("intensity")

	return map[string]any{
		"filter":    strings.ToLower(filter),
		"strength":  strength,
		"scale":     scale,
		"style":     strings.ToLower(style),
		"scheme":    strings.ToLower(scheme),
		"intensity": intensity,
	}, nil
}

func collectInputs(fs *pflag.FlagSet) ([]images.ImageFile, error) {
	paths, _ := fs.GetStringSlice("input")
	dir, _ := fs.GetString("dir")

	var files []images.ImageFile
	for _, path := range paths {
		format, err := images.FormatFromPath(path)
		if err != nil {
			return nil, errors.Wrapf(err, "input %s", path)
		}
		files = append(files, images.ImageFile{Path: path, Format: format})
	}
	if dir != "" {
		found, err := images.LoadDirectory(dir)
		if err != nil {
			return nil, err
		}
		files = append(files, found...)
	}
	if len(files) == 0 {
		return nil, errors.New("no input images: use --input or --dir")
	}
	return files, nil
}

// outputFormat picks the configured format, falling back to the input's own
// format, or PNG when that cannot be encoded.
func outputFormat(cfg *pipeline.Config, in images.ImageFile) (images.ImageFormat, error) {
	format, err := cfg.OutputFormat()
	if err != nil {
		return "", err
	}
	if format == "" {
		format = in.Format
	}
	if !format.Encodable() {
		format = images.FormatPNG
	}
	return format, nil
}

// outputPlan is where one input's results are written.
type outputPlan struct {
	Input   images.ImageFile
	Format  images.ImageFormat
	Output  string
	Preview string
	// Renamed reports that a numeric suffix was added to avoid a collision.
	Renamed bool
}

// planOutputs assigns every input a distinct output (and preview) path. Inputs
// whose names collide, e.g. photo.png and photo.bmp written as PNG, get
// photo.png, photo_1.png and so on, in input order.
func planOutputs(cfg *pipeline.Config, inputs []images.ImageFile) ([]outputPlan, error) {
	used := make(map[string]bool)
	taken := func(path string) bool {
		return path != "" && used[strings.ToLower(filepath.Clean(path))]
	}

	plans := make([]outputPlan, len(inputs))
	for i, in := range inputs {
		format, err := outputFormat(cfg, in)
		if err != nil {
			return nil, err
		}
		base := strings.TrimSuffix(filepath.Base(in.Path), filepath.Ext(in.Path))

		for n := 0; ; n++ {
			name := base
			if n > 0 {
				name = fmt.Sprintf("%s_%d", base, n)
			}
			plan := outputPlan{
				Input:   in,
				Format:  format,
				Output:  filepath.Join(cfg.Output.Dir, name+format.Extension()),
				Renamed: n > 0,
			}
			if cfg.Output.Preview > 0 {
				plan.Preview = filepath.Join(cfg.Output.Dir, name+"_preview"+format.Extension())
			}
			if taken(plan.Output) || taken(plan.Preview) {
				continue
			}
			used[strings.ToLower(filepath.Clean(plan.Output))] = true
			if plan.Preview != "" {
				used[strings.ToLower(filepath.Clean(plan.Preview))] = true
			}
			plans[i] = plan
			break
		}
	}
	return plans, nil
}

func writeOutputs(cfg *pipeline.Config, plan outputPlan, res *pipeline.Result) (FileReport, error) {
	file := FileReport{
		Input:  plan.Input.Path,
		Output: plan.Output,
		Result: res,
	}
	if err := images.EncodeFile(plan.Output, res.Buffer, plan.Format, cfg.Output.Quality); err != nil {
		return FileReport{}, err
	}

	if plan.Preview != "" {
		thumb, err := images.Thumbnail(res.Buffer, cfg.Output.Preview, cfg.Output.Preview)
		if err != nil {
			return FileReport{}, err
		}
		if err := images.EncodeFile(plan.Preview, thumb, plan.Format, cfg.Output.Quality); err != nil {
			return FileReport{}, err
		}
		file.Preview = plan.Preview
	}
	return file, nil
}

func writeReport(path string, report Report, stdout io.Writer) error {
	if path == "" {
		return nil
	}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshal report")
	}
	data = append(data, '\n')

	if path == "-" {
		_, err = stdout.Write(data)
		return errors.Wrap(err, "write report")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrapf(err, "create report directory for %s", path)
	}
	return errors.Wrapf(os.WriteFile(path, data, 0o644), "write report %s", path)
}
