package filters

import (
	"github.com/nvr-ai/go-raster/kernels"
	"github.com/nvr-ai/go-raster/raster"
)

const (
	// ScoreNormalization divides the mean Laplacian response.
	ScoreNormalization = 50.0
	// MaxScore is the upper bound of Score.
	MaxScore = 10.0
)

// Score returns a sharpness proxy in [0, MaxScore]: the mean absolute Laplacian
// of the luma plane over interior pixels, divided by ScoreNormalization.
// Buffers without interior pixels (width or height < 3) score 0.
//
// Arguments:
// - buf: The buffer to rate. It is not modified.
//
// Returns:
// - The score.
// - ErrInvalidArgument if buf is invalid.
//
// @example
// score, err := filters.Score(buf)
func (f *Filter) Score(buf *raster.Buffer) (float64, error) {
	if err := buf.Validate(); err != nil {
		return 0, err
	}
	if buf.Width < 3 || buf.Height < 3 {
		return 0, nil
	}

	opt := f.kernelOptions()
	plane := kernels.LumaPlane(buf, opt)
	mean := kernels.LaplacianMean(plane, buf.Width, buf.Height, opt)
	return raster.Clamp(mean/ScoreNormalization, 0, MaxScore), nil
}
