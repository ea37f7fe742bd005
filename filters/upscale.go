package filters

import (
	"math"

	"github.com/pkg/errors"

	"github.com/nvr-ai/go-raster/kernels"
	"github.com/nvr-ai/go-raster/raster"
)

// Upscale resamples buf to (width*scale, height*scale) with bilinear interpolation,
// then sharpens R, G and B with kernels.Sharpen. A scale below 1 is treated as 1;
// there is no upper bound, so callers limit it where memory matters.
//
// With the default edge mode the outer 1-pixel ring of the result is left exactly
// as resampled; Options.Edge can switch to clamped or mirrored border sharpening.
// buf itself is not modified.
//
// Arguments:
// - buf: The source buffer.
// - scale: Integer magnification factor.
//
// Returns:
// - A new buffer of the enlarged size.
// - ErrInvalidArgument if buf is invalid or the enlarged size overflows.
//
// @example
// big, err := filters.Upscale(buf, 2)
func (f *Filter) Upscale(buf *raster.Buffer, scale int) (*raster.Buffer, error) {
	if err := buf.Validate(); err != nil {
		return nil, err
	}
	if scale < 1 {
		scale = 1
	}
	if scale > math.MaxInt/raster.Channels/buf.Width/buf.Height/scale {
		return nil, errors.Wrapf(raster.ErrInvalidArgument, "upscale %dx%d by %d overflows", buf.Width, buf.Height, scale)
	}

	width, height := buf.Width*scale, buf.Height*scale
	out, err := raster.New(width, height)
	if err != nil {
		return nil, errors.Wrap(err, "upscale allocation")
	}

	// The resampled image stays read-only while sharpening writes into out.
	scratch := &raster.Buffer{
		Pix:    f.opt.Pool.Get(width * height * raster.Channels),
		Width:  width,
		Height: height,
	}
	defer f.opt.Pool.Put(scratch.Pix)

	raster.ResizeBilinearInto(buf, scratch, f.runner())
	if err := kernels.Convolve3x3(scratch, out, kernels.Sharpen, f.kernelOptions()); err != nil {
		return nil, errors.Wrap(err, "upscale sharpen")
	}
	return out, nil
}
