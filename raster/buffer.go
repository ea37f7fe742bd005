// Package raster - flat RGBA pixel buffers and the primitives shared by every filter.
package raster

import (
	"github.com/pkg/errors"
)

// Channels is the number of samples stored per pixel (R, G, B, A).
const Channels = 4

// ErrInvalidArgument is returned when a buffer or its dimensions violate a filter precondition.
var ErrInvalidArgument = errors.New("invalid argument")

// Buffer is a row-major, top-to-bottom RGBA raster with straight (non-premultiplied) alpha.
//
// A Buffer is owned by the caller for the duration of a filter call. Filters either
// mutate it in place or return a new Buffer when the dimensions change.
type Buffer struct {
	// Pix holds Width*Height*4 samples.
	Pix []uint8 `json:"-"`
	// Width is the number of pixels per row.
	Width int `json:"width"`
	// Height is the number of rows.
	Height int `json:"height"`
}

// New allocates a zeroed buffer of the given dimensions.
//
// Arguments:
// - width: Pixels per row, must be > 0.
// - height: Number of rows, must be > 0.
//
// Returns:
// - The allocated buffer.
// - ErrInvalidArgument if either dimension is not positive.
//
// @example
// buf, err := raster.New(640, 480)
func New(width, height int) (*Buffer, error) {
	if err := checkDimensions(width, height); err != nil {
		return nil, err
	}
	return &Buffer{
		Pix:    make([]uint8, width*height*Channels),
		Width:  width,
		Height: height,
	}, nil
}

// FromPix wraps an existing sample slice without copying it.
//
// Arguments:
// - pix: RGBA samples, row-major.
// - width: Pixels per row.
// - height: Number of rows.
//
// Returns:
// - A buffer sharing pix.
// - ErrInvalidArgument if len(pix) != width*height*4 or a dimension is not positive.
func FromPix(pix []uint8, width, height int) (*Buffer, error) {
	b := &Buffer{Pix: pix, Width: width, Height: height}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}

// Validate checks that the buffer is non-nil, non-empty and that its sample count matches its dimensions.
func (b *Buffer) Validate() error {
	if b == nil {
		return errors.Wrap(ErrInvalidArgument, "buffer is nil")
	}
	if err := checkDimensions(b.Width, b.Height); err != nil {
		return err
	}
	if want := b.Width * b.Height * Channels; len(b.Pix) != want {
		return errors.Wrapf(ErrInvalidArgument, "buffer holds %d samples, %dx%d needs %d",
			len(b.Pix), b.Width, b.Height, want)
	}
	return nil
}

// Stride returns the number of samples in one row.
func (b *Buffer) Stride() int {
	return b.Width * Channels
}

// Offset returns the index of the R sample of pixel (x, y).
func (b *Buffer) Offset(x, y int) int {
	return y*b.Stride() + x*Channels
}

// At returns the four samples of pixel (x, y).
func (b *Buffer) At(x, y int) [Channels]uint8 {
	i := b.Offset(x, y)
	return [Channels]uint8{b.Pix[i], b.Pix[i+1], b.Pix[i+2], b.Pix[i+3]}
}

// Set overwrites the four samples of pixel (x, y).
func (b *Buffer) Set(x, y int, px [Channels]uint8) {
	i := b.Offset(x, y)
	copy(b.Pix[i:i+Channels:i+Channels], px[:])
}

// Clone returns a deep copy of the buffer.
func (b *Buffer) Clone() *Buffer {
	pix := make([]uint8, len(b.Pix))
	copy(pix, b.Pix)
	return &Buffer{Pix: pix, Width: b.Width, Height: b.Height}
}

func checkDimensions(width, height int) error {
	if width <= 0 || height <= 0 {
		return errors.Wrapf(ErrInvalidArgument, "invalid buffer dimensions: %dx%d", width, height)
	}
	return nil
}
