package kernels

import (
	"math"

	"github.com/nvr-ai/go-raster/raster"
)

// LumaPlane converts buf into a plane of per-pixel luma values in double precision.
func LumaPlane(buf *raster.Buffer, opt Options) []float64 {
	plane := make([]float64, buf.Width*buf.Height)
	stride := buf.Stride()

	opt.runner()(buf.Height, func(start, end int) {
		for y := start; y < end; y++ {
			off := y * stride
			for x := 0; x < buf.Width; x++ {
				p := buf.Pix[off : off+3 : off+3]
				plane[y*buf.Width+x] = raster.Luma(float64(p[0]), float64(p[1]), float64(p[2]))
				off += raster.Channels
			}
		}
	})
	return plane
}

// LaplacianMean returns the mean absolute 4-neighbour Laplacian response
// |4c - top - bottom - left - right| over the interior of a luma plane.
// Planes narrower or shorter than 3 have no interior and yield 0.
//
// Row sums are combined in row order, so the result does not depend on opt.Parallel.
func LaplacianMean(luma []float64, width, height int, opt Options) float64 {
	if width < 3 || height < 3 || len(luma) < width*height {
		return 0
	}

	rows := make([]float64, height)
	opt.runner()(height-2, func(start, end int) {
		for r := start; r < end; r++ {
			y := r + 1
			var sum float64
			for x := 1; x < width-1; x++ {
				i := y*width + x
				c := luma[i]
				// Pairwise differences keep a flat neighbourhood exactly zero.
				lap := (c - luma[i-width]) + (c - luma[i+width]) + (c - luma[i-1]) + (c - luma[i+1])
				sum += math.Abs(lap)
			}
			rows[y] = sum
		}
	})

	var total float64
	for _, s := range rows {
		total += s
	}
	return total / float64((width-2)*(height-2))
}
