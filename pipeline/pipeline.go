package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/nvr-ai/go-raster/filters"
	"github.com/nvr-ai/go-raster/kernels"
	"github.com/nvr-ai/go-raster/profiler"
	"github.com/nvr-ai/go-raster/raster"
)

// StepTiming captures the outcome of a single step.
type StepTiming struct {
	Index    int           `json:"index"`
	Filter   string        `json:"filter"`
	Duration time.Duration `json:"duration"`
	Width    int           `json:"width"`  // Buffer width after the step
	Height   int           `json:"height"` // Buffer height after the step
	// Score is set for "score" steps only.
	Score *float64 `json:"score,omitempty"`
}

// Result is the output of one Run.
type Result struct {
	RunID  string         `json:"runId"`
	Buffer *raster.Buffer `json:"-"`
	Width  int            `json:"width"`
	Height int            `json:"height"`
	// ScoreBefore and ScoreAfter are zero when Config.SkipScore is set.
	ScoreBefore float64       `json:"scoreBefore"`
	ScoreAfter  float64       `json:"scoreAfter"`
	Steps       []StepTiming  `json:"steps"`
	TotalTime   time.Duration `json:"totalTime"`
}

// Pipeline applies a validated list of steps to buffers.
// It is safe for concurrent use on distinct buffers.
type Pipeline struct {
	cfg      Config
	filter   *filters.Filter
	logger   *zap.Logger
	profiler *profiler.Profiler
}

// New builds a pipeline from cfg. A nil logger disables logging.
//
// Arguments:
// - cfg: The pipeline configuration; defaults are applied before validation.
// - logger: Destination for per-step debug entries.
//
// Returns:
// - The pipeline.
// - error if cfg is invalid.
func New(cfg Config, logger *zap.Logger) (*Pipeline, error) {
	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	var pool *kernels.Pool
	for _, step := range cfg.Steps {
		if step.Filter == FilterUpscale {
			pool = &kernels.Pool{}
			break
		}
	}

	return &Pipeline{
		cfg: cfg,
		filter: filters.New(filters.Options{
			Parallel:         cfg.Parallel,
			Workers:          cfg.Workers,
			Edge:             cfg.EdgeMode(),
			Pool:             pool,
			IndependentSepia: cfg.IndependentSepia,
		}),
		logger:   logger,
		profiler: profiler.New(0),
	}, nil
}

// Config returns the effective configuration.
func (p *Pipeline) Config() Config {
	return p.cfg
}

// Stats returns per-filter timings accumulated over every run so far.
func (p *Pipeline) Stats() profiler.Snapshot {
	return p.profiler.Snapshot()
}

// Run applies every step to a copy of buf; buf itself is left untouched.
// The context is checked between steps.
//
// Arguments:
// - ctx: Cancels the run between steps.
// - buf: The input buffer.
//
// Returns:
// - The result holding the processed buffer and per-step timings.
// - error if buf is invalid, a step fails or ctx is done.
func (p *Pipeline) Run(ctx context.Context, buf *raster.Buffer) (*Result, error) {
	if err := buf.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	res := &Result{
		RunID: uuid.NewString(),
		Steps: make([]StepTiming, 0, len(p.cfg.Steps)),
	}
	logger := p.logger.With(zap.String("run_id", res.RunID))

	work := buf.Clone()
	if !p.cfg.SkipScore {
		score, err := p.filter.Score(work)
		if err != nil {
			return nil, errors.Wrap(err, "score input")
		}
		res.ScoreBefore = score
	}

	for i, step := range p.cfg.Steps {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrapf(err, "run cancelled before step %d", i)
		}

		stepStart := time.Now()
		next, score, err := p.apply(work, step)
		if err != nil {
			return nil, errors.Wrapf(err, "step %d (%s)", i, step.Filter)
		}
		work = next
		p.profiler.Record(step.Filter, time.Since(stepStart))

		timing := StepTiming{
			Index:    i,
			Filter:   step.Filter,
			Duration: time.Since(stepStart),
			Width:    work.Width,
			Height:   work.Height,
			Score:    score,
		}
		res.Steps = append(res.Steps, timing)
		logger.Debug("step finished",
			zap.Int("step", i),
			zap.String("filter", step.Filter),
			zap.Duration("duration", timing.Duration),
			zap.Int("width", work.Width),
			zap.Int("height", work.Height),
		)
	}

	if !p.cfg.SkipScore {
		score, err := p.filter.Score(work)
		if err != nil {
			return nil, errors.Wrap(err, "score output")
		}
		res.ScoreAfter = score
	}

	res.Buffer = work
	res.Width, res.Height = work.Width, work.Height
	res.TotalTime = time.Since(start)
	logger.Info("pipeline finished",
		zap.Int("steps", len(res.Steps)),
		zap.Float64("score_before", res.ScoreBefore),
		zap.Float64("score_after", res.ScoreAfter),
		zap.Duration("total", res.TotalTime),
	)
	return res, nil
}

func (p *Pipeline) apply(buf *raster.Buffer, step Step) (*raster.Buffer, *float64, error) {
	switch step.Filter {
	case FilterScore:
		score, err := p.filter.Score(buf)
		if err != nil {
			return nil, nil, err
		}
		return buf, &score, nil
	case FilterRestore:
		return buf, nil, p.filter.Restore(buf, step.Strength)
	case FilterUpscale:
		out, err := p.filter.Upscale(buf, step.Scale)
		return out, nil, err
	case FilterStyle:
		style, err := filters.ParseStyle(step.Style)
		if err != nil {
			return nil, nil, err
		}
		return buf, nil, p.filter.StyleTransfer(buf, style, step.Intensity)
	case FilterColorize:
		scheme, err := filters.ParseScheme(step.Scheme)
		if err != nil {
			return nil, nil, err
		}
		return buf, nil, p.filter.Colorize(buf, scheme, step.Intensity)
	default:
		return nil, nil, errors.Wrapf(raster.ErrInvalidArgument, "unknown filter %q", step.Filter)
	}
}

// Source loads the i-th buffer of a streamed batch.
type Source func(ctx context.Context, i int) (*raster.Buffer, error)

// Sink consumes the i-th result of a streamed batch.
type Sink func(ctx context.Context, i int, res *Result) error

// Stream runs n items with at most maxConcurrency in flight. Each task loads its
// buffer from src, runs the pipeline and hands the result to sink, so at most
// maxConcurrency inputs and results are held at once. The first failure cancels
// the remaining tasks.
//
// Arguments:
// - ctx: Cancels pending tasks.
// - n: Number of items.
// - maxConcurrency: Maximum number of items processed concurrently.
// - src: Loads item i.
// - sink: Receives the result of item i; may be called concurrently.
//
// Returns:
// - error from the first failing item, wrapped with its index.
func (p *Pipeline) Stream(ctx context.Context, n, maxConcurrency int, src Source, sink Sink) error {
	if maxConcurrency <= 0 {
		maxConcurrency = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrency)

	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			buf, err := src(gctx, i)
			if err != nil {
				return errors.Wrapf(err, "buffer %d", i)
			}
			res, err := p.Run(gctx, buf)
			if err != nil {
				return errors.Wrapf(err, "buffer %d", i)
			}
			if err := sink(gctx, i, res); err != nil {
				return errors.Wrapf(err, "buffer %d", i)
			}
			return nil
		})
	}
	return g.Wait()
}

// RunBatch runs the pipeline over bufs with at most maxConcurrency runs in flight.
// Results keep the order of bufs. The first failure cancels the remaining runs.
//
// @example
// results, err := p.RunBatch(ctx, bufs, 4)
func (p *Pipeline) RunBatch(ctx context.Context, bufs []*raster.Buffer, maxConcurrency int) ([]*Result, error) {
	results := make([]*Result, len(bufs))
	err := p.Stream(ctx, len(bufs), maxConcurrency,
		func(_ context.Context, i int) (*raster.Buffer, error) {
			return bufs[i], nil
		},
		func(_ context.Context, i int, res *Result) error {
			results[i] = res
			return nil
		},
	)
	if err != nil {
		return nil, err
	}
	return results, nil
}
