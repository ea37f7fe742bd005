package images

import (
	"bufio"
	"bytes"
	"image"
	_ "image/gif" // Register GIF decoding.
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"

	"github.com/chai2010/webp"
	"github.com/pkg/errors"
	"golang.org/x/image/bmp"
	xdraw "golang.org/x/image/draw"

	"github.com/nvr-ai/go-raster/raster"
)

// DefaultQuality is used for lossy encoders when no quality is given.
const DefaultQuality = 90

func init() {
	image.RegisterFormat(string(FormatWebP), "RIFF????WEBP", webp.Decode, webp.DecodeConfig)
}

// FromImage copies any image.Image into a straight-alpha RGBA buffer anchored at (0, 0).
func FromImage(img image.Image) *raster.Buffer {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	if n, ok := img.(*image.NRGBA); ok && n.Stride == w*raster.Channels {
		pix := make([]uint8, w*h*raster.Channels)
		copy(pix, n.Pix[n.PixOffset(b.Min.X, b.Min.Y):])
		return &raster.Buffer{Pix: pix, Width: w, Height: h}
	}

	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	xdraw.Draw(dst, dst.Bounds(), img, b.Min, xdraw.Src)
	return &raster.Buffer{Pix: dst.Pix, Width: w, Height: h}
}

// ToNRGBA wraps buf as an *image.NRGBA sharing its samples.
func ToNRGBA(buf *raster.Buffer) *image.NRGBA {
	return &image.NRGBA{
		Pix:    buf.Pix,
		Stride: buf.Stride(),
		Rect:   image.Rect(0, 0, buf.Width, buf.Height),
	}
}

// Decode reads an encoded image of any registered format into a buffer.
//
// Arguments:
// - r: The encoded image stream.
//
// Returns:
// - The decoded buffer.
// - The detected format.
// - error if the stream cannot be decoded.
func Decode(r io.Reader) (*raster.Buffer, ImageFormat, error) {
	img, name, err := image.Decode(r)
	if err != nil {
		return nil, "", errors.Wrap(err, "decode image")
	}
	buf := FromImage(img)
	if err := buf.Validate(); err != nil {
		return nil, "", errors.Wrap(err, "decoded image")
	}
	return buf, ImageFormat(name), nil
}

// DecodeBytes decodes an in-memory image.
func DecodeBytes(data []byte) (*raster.Buffer, ImageFormat, error) {
	if len(data) == 0 {
		return nil, "", errors.New("empty image data")
	}
	return Decode(bytes.NewReader(data))
}

// DecodeFile opens and decodes the image at path.
func DecodeFile(path string) (*raster.Buffer, ImageFormat, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	buf, format, err := Decode(bufio.NewReader(f))
	if err != nil {
		return nil, "", errors.Wrapf(err, "%s", path)
	}
	return buf, format, nil
}

// Encode writes buf in the given format. quality applies to JPEG and lossy WebP;
// values outside 1..100 fall back to DefaultQuality.
func Encode(w io.Writer, buf *raster.Buffer, format ImageFormat, quality int) error {
	if err := buf.Validate(); err != nil {
		return err
	}
	if quality < 1 || quality > 100 {
		quality = DefaultQuality
	}
	img := ToNRGBA(buf)

	var err error
	switch format {
	case FormatPNG:
		err = png.Encode(w, img)
	case FormatJPEG:
		err = jpeg.Encode(w, img, &jpeg.Options{Quality: quality})
	case FormatWebP:
		err = webp.Encode(w, img, &webp.Options{Quality: float32(quality)})
	case FormatBMP:
		err = bmp.Encode(w, img)
	default:
		return errors.Wrapf(ErrUnsupportedFormat, "cannot encode %q", string(format))
	}
	return errors.Wrapf(err, "encode %s", format)
}

// EncodeFile writes buf to path, creating parent directories as needed.
// A file left incomplete by a failed encode is removed.
func EncodeFile(path string, buf *raster.Buffer, format ImageFormat, quality int) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrapf(err, "create directory for %s", path)
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create %s", path)
	}

	discard := func() {
		_ = f.Close()
		_ = os.Remove(path)
	}

	w := bufio.NewWriter(f)
	if err := Encode(w, buf, format, quality); err != nil {
		discard()
		return err
	}
	if err := w.Flush(); err != nil {
		discard()
		return errors.Wrapf(err, "flush %s", path)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return errors.Wrapf(err, "close %s", path)
	}
	return nil
}
