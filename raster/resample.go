package raster

import "math"

// tap is a precomputed pair of source indices and the weight of the second one.
type tap struct {
	i0, i1 int
	frac   float64
}

// bilinearTaps maps every destination coordinate back to a fractional source
// coordinate (pixel centres aligned) and records its two nearest neighbours.
func bilinearTaps(srcSize, dstSize int) []tap {
	taps := make([]tap, dstSize)
	ratio := float64(srcSize) / float64(dstSize)
	for d := 0; d < dstSize; d++ {
		s := Clamp((float64(d)+0.5)*ratio-0.5, 0, float64(srcSize-1))
		i0 := int(math.Floor(s))
		i1 := i0 + 1
		if i1 >= srcSize {
			i1 = srcSize - 1
		}
		taps[d] = tap{i0: i0, i1: i1, frac: s - float64(i0)}
	}
	return taps
}

// ResizeBilinear resamples src to width x height with bilinear interpolation.
//
// Arguments:
// - src: The source buffer.
// - width: Target width in pixels.
// - height: Target height in pixels.
//
// Returns:
// - A new buffer of the target size.
// - ErrInvalidArgument if src is invalid or a target dimension is not positive.
//
// @example
// big, err := ResizeBilinear(src, src.Width*2, src.Height*2)
func ResizeBilinear(src *Buffer, width, height int) (*Buffer, error) {
	if err := src.Validate(); err != nil {
		return nil, err
	}
	dst, err := New(width, height)
	if err != nil {
		return nil, err
	}
	ResizeBilinearInto(src, dst, Serial)
	return dst, nil
}

// ResizeBilinearInto resamples src into the already allocated dst.
// Each destination sample blends the four nearest source samples weighted by
// fractional distance; all four channels are interpolated. A nil run is serial.
func ResizeBilinearInto(src, dst *Buffer, run Runner) {
	if run == nil {
		run = Serial
	}

	xs := bilinearTaps(src.Width, dst.Width)
	ys := bilinearTaps(src.Height, dst.Height)
	srcStride := src.Stride()
	dstStride := dst.Stride()

	run(dst.Height, func(start, end int) {
		for y := start; y < end; y++ {
			ty := ys[y]
			row0 := ty.i0 * srcStride
			row1 := ty.i1 * srcStride
			out := y * dstStride

			for x := 0; x < dst.Width; x++ {
				tx := xs[x]
				c0 := tx.i0 * Channels
				c1 := tx.i1 * Channels

				for c := 0; c < Channels; c++ {
					top := float64(src.Pix[row0+c0+c])*(1-tx.frac) + float64(src.Pix[row0+c1+c])*tx.frac
					bottom := float64(src.Pix[row1+c0+c])*(1-tx.frac) + float64(src.Pix[row1+c1+c])*tx.frac
					dst.Pix[out+c] = ClampByte(top*(1-ty.frac) + bottom*ty.frac)
				}
				out += Channels
			}
		}
	})
}
