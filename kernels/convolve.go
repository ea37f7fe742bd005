package kernels

import (
	"github.com/pkg/errors"

	"github.com/nvr-ai/go-raster/raster"
)

// Kernel3x3 is an integer 3x3 convolution kernel in row-major order.
type Kernel3x3 [9]int

// Sharpen is the classic 5-point sharpening kernel.
var Sharpen = Kernel3x3{
	0, -1, 0,
	-1, 5, -1,
	0, -1, 0,
}

// Convolve3x3 applies k to the R, G and B channels of src and writes the result to dst.
// Alpha is copied unchanged. src is only read, dst is only written, so the two must not
// alias; each band writes a disjoint set of rows of dst.
//
// With EdgeSkip the outer 1-pixel ring is copied from src unsharpened. Other edge modes
// sample out-of-range neighbours through mapCoord.
//
// Arguments:
// - src: Source buffer (read-only).
// - dst: Destination buffer of the same dimensions.
// - k: The kernel.
// - opt: Edge policy and parallelism.
//
// Returns:
// - ErrInvalidArgument if either buffer is invalid or their dimensions differ.
//
// @example
// err := Convolve3x3(resampled, out, Sharpen, Options{Parallel: true})
func Convolve3x3(src, dst *raster.Buffer, k Kernel3x3, opt Options) error {
	if err := src.Validate(); err != nil {
		return errors.Wrap(err, "convolve source")
	}
	if err := dst.Validate(); err != nil {
		return errors.Wrap(err, "convolve destination")
	}
	if src.Width != dst.Width || src.Height != dst.Height {
		return errors.Wrapf(raster.ErrInvalidArgument, "convolve size mismatch: %dx%d vs %dx%d",
			src.Width, src.Height, dst.Width, dst.Height)
	}

	w, h := src.Width, src.Height
	stride := src.Stride()

	opt.runner()(h, func(start, end int) {
		for y := start; y < end; y++ {
			row := y * stride
			borderRow := y == 0 || y == h-1

			for x := 0; x < w; x++ {
				off := row + x*raster.Channels
				border := borderRow || x == 0 || x == w-1

				switch {
				case !border:
					for c := 0; c < 3; c++ {
						i := off + c
						sum := k[0]*int(src.Pix[i-stride-4]) + k[1]*int(src.Pix[i-stride]) + k[2]*int(src.Pix[i-stride+4]) +
							k[3]*int(src.Pix[i-4]) + k[4]*int(src.Pix[i]) + k[5]*int(src.Pix[i+4]) +
							k[6]*int(src.Pix[i+stride-4]) + k[7]*int(src.Pix[i+stride]) + k[8]*int(src.Pix[i+stride+4])
						dst.Pix[i] = raster.ClampInt(sum)
					}
				case opt.Edge == EdgeSkip:
					copy(dst.Pix[off:off+3], src.Pix[off:off+3])
				default:
					for c := 0; c < 3; c++ {
						sum := 0
						for ky := -1; ky <= 1; ky++ {
							sy := mapCoord(y+ky, h, opt.Edge)
							for kx := -1; kx <= 1; kx++ {
								sx := mapCoord(x+kx, w, opt.Edge)
								sum += k[(ky+1)*3+kx+1] * int(src.Pix[sy*stride+sx*raster.Channels+c])
							}
						}
						dst.Pix[off+c] = raster.ClampInt(sum)
					}
				}
				dst.Pix[off+3] = src.Pix[off+3]
			}
		}
	})
	return nil
}
