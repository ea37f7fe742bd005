// Package filters - deterministic image-to-image transforms over RGBA buffers.
//
// Every filter validates its buffer on entry and fails fast with
// raster.ErrInvalidArgument. Numeric parameters are clamped into their
// documented range instead of being rejected. The package-level functions
// are the single-threaded reference; a Filter built with Options.Parallel
// splits rows into bands and produces byte-identical output.
package filters

import (
	"github.com/nvr-ai/go-raster/kernels"
	"github.com/nvr-ai/go-raster/raster"
)

// Options configures a Filter.
type Options struct {
	// Parallel enables row-band parallelism.
	Parallel bool
	// Workers is the band count when Parallel is set; <= 0 uses runtime.NumCPU().
	Workers int
	// Edge selects how Upscale's sharpening pass treats the outer ring.
	// The zero value keeps the ring unsharpened.
	Edge kernels.EdgeMode
	// Pool is an optional scratch-buffer pool for Upscale.
	Pool *kernels.Pool
	// IndependentSepia computes the vintage G and B channels from the original R
	// instead of the already updated one.
	IndependentSepia bool
}

// Filter runs the filters with a fixed set of Options. It holds no per-call state
// and is safe for concurrent use on distinct buffers.
type Filter struct {
	opt Options
}

// New returns a Filter configured with opt.
func New(opt Options) *Filter {
	return &Filter{opt: opt}
}

// Options returns the options the filter was built with.
func (f *Filter) Options() Options {
	return f.opt
}

func (f *Filter) kernelOptions() kernels.Options {
	return kernels.Options{Edge: f.opt.Edge, Parallel: f.opt.Parallel, Workers: f.opt.Workers}
}

func (f *Filter) runner() raster.Runner {
	if !f.opt.Parallel {
		return raster.Serial
	}
	return raster.Bands(f.opt.Workers)
}

// perPixel applies fn to every pixel of buf. fn receives the pixel's R, G, B samples
// and must only touch those three.
func (f *Filter) perPixel(buf *raster.Buffer, fn func(p []uint8)) {
	stride := buf.Stride()
	f.runner()(buf.Height, func(start, end int) {
		for y := start; y < end; y++ {
			row := buf.Pix[y*stride : (y+1)*stride]
			for off := 0; off < len(row); off += raster.Channels {
				fn(row[off : off+3 : off+3])
			}
		}
	})
}

var reference = New(Options{})

// Score rates the sharpness of buf in [0, 10]. See (*Filter).Score.
func Score(buf *raster.Buffer) (float64, error) {
	return reference.Score(buf)
}

// Restore applies the contrast-and-denoise restoration in place. See (*Filter).Restore.
func Restore(buf *raster.Buffer, strength float64) error {
	return reference.Restore(buf, strength)
}

// Upscale enlarges buf by an integer factor and sharpens it. See (*Filter).Upscale.
func Upscale(buf *raster.Buffer, scale int) (*raster.Buffer, error) {
	return reference.Upscale(buf, scale)
}

// StyleTransfer tone-maps buf in place. See (*Filter).StyleTransfer.
func StyleTransfer(buf *raster.Buffer, style Style, intensity float64) error {
	return reference.StyleTransfer(buf, style, intensity)
}

// Colorize tints a grayscale buf in place. See (*Filter).Colorize.
func Colorize(buf *raster.Buffer, scheme Scheme, intensity float64) error {
	return reference.Colorize(buf, scheme, intensity)
}
