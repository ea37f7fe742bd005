package images

import (
	"github.com/nfnt/resize"

	"github.com/nvr-ai/go-raster/raster"
)

// PreviewSize describes the bounding box of a preview image.
type PreviewSize struct {
	Width  uint `json:"width"`
	Height uint `json:"height"`
}

// Standard preview sizes.
var (
	PreviewThumbnail = PreviewSize{Width: 245, Height: 156}
	PreviewSmall     = PreviewSize{Width: 500, Height: 500}
)

// Thumbnail downscales buf with Lanczos3 so it fits inside maxWidth x maxHeight,
// preserving aspect ratio. Buffers that already fit are returned as a copy.
//
// Arguments:
// - buf: The source buffer.
// - maxWidth: Bounding box width.
// - maxHeight: Bounding box height.
//
// Returns:
// - The preview buffer.
// - ErrInvalidArgument if buf is invalid.
//
// @example
// preview, err := images.Thumbnail(result, 245, 156)
func Thumbnail(buf *raster.Buffer, maxWidth, maxHeight uint) (*raster.Buffer, error) {
	if err := buf.Validate(); err != nil {
		return nil, err
	}
	if maxWidth == 0 || maxHeight == 0 {
		return buf.Clone(), nil
	}
	return FromImage(resize.Thumbnail(maxWidth, maxHeight, ToNRGBA(buf), resize.Lanczos3)), nil
}
