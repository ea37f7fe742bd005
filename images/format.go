// Package images - codec glue between encoded image files and raster buffers.
package images

import (
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// ImageFormat represents supported image formats
type ImageFormat string

// ImageFormat constants
const (
	// FormatJPEG is the JPEG image format.
	FormatJPEG ImageFormat = "jpeg"
	// FormatPNG is the PNG image format.
	FormatPNG ImageFormat = "png"
	// FormatWebP is the WebP image format.
	FormatWebP ImageFormat = "webp"
	// FormatBMP is the BMP image format.
	FormatBMP ImageFormat = "bmp"
	// FormatGIF is the GIF image format (decode only).
	FormatGIF ImageFormat = "gif"
)

// ErrUnsupportedFormat is returned for formats the package cannot handle.
var ErrUnsupportedFormat = errors.New("unsupported image format")

var extensions = map[string]ImageFormat{
	".jpg":  FormatJPEG,
	".jpeg": FormatJPEG,
	".png":  FormatPNG,
	".webp": FormatWebP,
	".bmp":  FormatBMP,
	".gif":  FormatGIF,
}

// ParseFormat converts a format name ("jpg", "PNG", ...) into an ImageFormat.
func ParseFormat(name string) (ImageFormat, error) {
	n := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(name), "."))
	if f, ok := extensions["."+n]; ok {
		return f, nil
	}
	return "", errors.Wrapf(ErrUnsupportedFormat, "%q", name)
}

// FormatFromPath infers the format from a file extension.
func FormatFromPath(path string) (ImageFormat, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if f, ok := extensions[ext]; ok {
		return f, nil
	}
	return "", errors.Wrapf(ErrUnsupportedFormat, "extension %q of %s", ext, path)
}

// Extension returns the canonical file extension including the dot.
func (f ImageFormat) Extension() string {
	if f == FormatJPEG {
		return ".jpg"
	}
	return "." + string(f)
}

// Encodable reports whether Encode supports the format.
func (f ImageFormat) Encodable() bool {
	switch f {
	case FormatJPEG, FormatPNG, FormatWebP, FormatBMP:
		return true
	default:
		return false
	}
}
