package filters

import (
	"math"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvr-ai/go-raster/kernels"
	"github.com/nvr-ai/go-raster/raster"
)

func uniform(t testing.TB, w, h int, px [raster.Channels]uint8) *raster.Buffer {
	buf, err := raster.New(w, h)
	require.NoError(t, err)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			buf.Set(x, y, px)
		}
	}
	return buf
}

func checkerboard(t testing.TB, w, h int) *raster.Buffer {
	buf, err := raster.New(w, h)
	require.NoError(t, err)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if (x+y)%2 == 0 {
				buf.Set(x, y, [raster.Channels]uint8{0, 0, 0, 255})
			} else {
				buf.Set(x, y, [raster.Channels]uint8{255, 255, 255, 255})
			}
		}
	}
	return buf
}

func gradient(t testing.TB, w, h int) *raster.Buffer {
	buf, err := raster.New(w, h)
	require.NoError(t, err)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := uint8(((x + y) * 255) / (w + h))
			buf.Set(x, y, [raster.Channels]uint8{v, 255 - v, uint8(x * 255 / w), 255})
		}
	}
	return buf
}

func TestScore(t *testing.T) {
	t.Run("flat buffer scores zero", func(t *testing.T) {
		score, err := Score(uniform(t, 16, 16, [raster.Channels]uint8{93, 41, 200, 255}))
		require.NoError(t, err)
		assert.Equal(t, 0.0, score)
	})

	t.Run("checkerboard saturates", func(t *testing.T) {
		score, err := Score(checkerboard(t, 8, 8))
		require.NoError(t, err)
		assert.Equal(t, MaxScore, score)
	})

	t.Run("single spike", func(t *testing.T) {
		buf := uniform(t, 3, 3, [raster.Channels]uint8{0, 0, 0, 255})
		buf.Set(1, 1, [raster.Channels]uint8{50, 50, 50, 255})
		score, err := Score(buf)
		require.NoError(t, err)
		assert.InDelta(t, 4.0, score, 1e-12)
	})

	t.Run("too small to have an interior", func(t *testing.T) {
		for _, dims := range [][2]int{{2, 10}, {10, 2}, {1, 1}} {
			score, err := Score(checkerboard(t, dims[0], dims[1]))
			require.NoError(t, err)
			assert.Equal(t, 0.0, score, "dims=%v", dims)
		}
	})

	t.Run("gradient is mild", func(t *testing.T) {
		score, err := Score(gradient(t, 32, 32))
		require.NoError(t, err)
		assert.GreaterOrEqual(t, score, 0.0)
		assert.Less(t, score, 1.0)
	})
}

func TestRestore(t *testing.T) {
	t.Run("strength zero is identity", func(t *testing.T) {
		buf := gradient(t, 9, 7)
		want := buf.Clone()
		require.NoError(t, Restore(buf, 0))
		assert.Equal(t, want.Pix, buf.Pix)
	})

	t.Run("negative strength clamps to identity", func(t *testing.T) {
		buf := gradient(t, 5, 5)
		want := buf.Clone()
		require.NoError(t, Restore(buf, -3))
		assert.Equal(t, want.Pix, buf.Pix)
	})

	t.Run("contrast stretch without denoise", func(t *testing.T) {
		buf := checkerboard(t, 2, 2)
		require.NoError(t, Restore(buf, 0.3))
		assert.Equal(t, [raster.Channels]uint8{0, 0, 0, 255}, buf.At(0, 0))
		assert.Equal(t, [raster.Channels]uint8{255, 255, 255, 255}, buf.At(1, 0))
	})

	t.Run("full strength blends toward mid gray", func(t *testing.T) {
		buf := checkerboard(t, 2, 2)
		require.NoError(t, Restore(buf, 1.0))
		// Stretch clamps to 0/255, then the 0.2 blend pulls toward 128.
		assert.Equal(t, [raster.Channels]uint8{26, 26, 26, 255}, buf.At(0, 0))
		assert.Equal(t, [raster.Channels]uint8{230, 230, 230, 255}, buf.At(1, 0))
	})

	t.Run("mid gray is a fixed point", func(t *testing.T) {
		buf := uniform(t, 3, 3, [raster.Channels]uint8{128, 128, 128, 255})
		require.NoError(t, Restore(buf, 0.8))
		assert.Equal(t, [raster.Channels]uint8{128, 128, 128, 255}, buf.At(2, 2))
	})
}

func TestUpscale(t *testing.T) {
	t.Run("output size", func(t *testing.T) {
		for _, scale := range []int{1, 2, 3, 4} {
			out, err := Upscale(gradient(t, 5, 3), scale)
			require.NoError(t, err)
			assert.Equal(t, 5*scale, out.Width)
			assert.Equal(t, 3*scale, out.Height)
			assert.Len(t, out.Pix, 5*scale*3*scale*raster.Channels)
		}
	})

	t.Run("scale below one is one", func(t *testing.T) {
		out, err := Upscale(gradient(t, 2, 2), 0)
		require.NoError(t, err)
		assert.Equal(t, 2, out.Width)
	})

	t.Run("large scale keeps exact size", func(t *testing.T) {
		out, err := Upscale(uniform(t, 2, 2, [raster.Channels]uint8{90, 90, 90, 255}), 10)
		require.NoError(t, err)
		assert.Equal(t, 20, out.Width)
		assert.Equal(t, 20, out.Height)
		assert.Len(t, out.Pix, 20*20*raster.Channels)
		assert.Equal(t, [raster.Channels]uint8{90, 90, 90, 255}, out.At(13, 7))
	})

	t.Run("overflowing scale is rejected", func(t *testing.T) {
		_, err := Upscale(gradient(t, 2, 2), math.MaxInt/4)
		assert.True(t, errors.Is(err, raster.ErrInvalidArgument))
	})

	t.Run("scale one sharpens interior only", func(t *testing.T) {
		src := gradient(t, 6, 5)
		src.Set(2, 2, [raster.Channels]uint8{250, 10, 10, 128})
		out, err := Upscale(src, 1)
		require.NoError(t, err)

		for y := 0; y < 5; y++ {
			for x := 0; x < 6; x++ {
				if x == 0 || y == 0 || x == 5 || y == 4 {
					assert.Equal(t, src.At(x, y), out.At(x, y), "border (%d,%d)", x, y)
					continue
				}
				for c := 0; c < 3; c++ {
					v := 5*int(src.At(x, y)[c]) - int(src.At(x-1, y)[c]) - int(src.At(x+1, y)[c]) -
						int(src.At(x, y-1)[c]) - int(src.At(x, y+1)[c])
					assert.Equal(t, raster.ClampInt(v), out.At(x, y)[c])
				}
				assert.Equal(t, src.At(x, y)[3], out.At(x, y)[3])
			}
		}
		assert.NotEqual(t, src.At(2, 2), out.At(2, 2))
	})

	t.Run("uniform stays uniform", func(t *testing.T) {
		px := [raster.Channels]uint8{60, 70, 80, 255}
		out, err := Upscale(uniform(t, 4, 4, px), 3)
		require.NoError(t, err)
		for y := 0; y < out.Height; y++ {
			for x := 0; x < out.Width; x++ {
				require.Equal(t, px, out.At(x, y))
			}
		}
	})

	t.Run("source untouched", func(t *testing.T) {
		src := gradient(t, 4, 4)
		want := src.Clone()
		_, err := Upscale(src, 2)
		require.NoError(t, err)
		assert.Equal(t, want.Pix, src.Pix)
	})

	t.Run("clamped edge sharpens border", func(t *testing.T) {
		src := uniform(t, 3, 3, [raster.Channels]uint8{100, 100, 100, 255})
		src.Set(0, 0, [raster.Channels]uint8{200, 200, 200, 255})
		out, err := New(Options{Edge: kernels.EdgeClamp}).Upscale(src, 1)
		require.NoError(t, err)
		assert.Equal(t, uint8(255), out.At(0, 0)[0])
	})
}

func TestStyleTransfer(t *testing.T) {
	t.Run("intensity zero is identity", func(t *testing.T) {
		for _, style := range Styles() {
			buf := gradient(t, 11, 7)
			want := buf.Clone()
			require.NoError(t, StyleTransfer(buf, style, 0))
			assert.Equal(t, want.Pix, buf.Pix, "style=%s", style)
		}
	})

	t.Run("vintage reuses updated red", func(t *testing.T) {
		buf := uniform(t, 1, 1, [raster.Channels]uint8{100, 150, 200, 255})
		require.NoError(t, StyleTransfer(buf, StyleVintage, 1))
		assert.Equal(t, [raster.Channels]uint8{192, 204, 159, 255}, buf.At(0, 0))
	})

	t.Run("independent sepia", func(t *testing.T) {
		buf := uniform(t, 1, 1, [raster.Channels]uint8{100, 150, 200, 255})
		require.NoError(t, New(Options{IndependentSepia: true}).StyleTransfer(buf, StyleVintage, 1))
		px := buf.At(0, 0)
		assert.Equal(t, uint8(192), px[0])
		assert.Equal(t, uint8(171), px[1])
	})

	t.Run("cool and warm shift balance", func(t *testing.T) {
		cool := uniform(t, 2, 2, [raster.Channels]uint8{100, 100, 100, 255})
		require.NoError(t, StyleTransfer(cool, StyleCool, 1))
		assert.Equal(t, [raster.Channels]uint8{80, 90, 130, 255}, cool.At(0, 0))

		warm := uniform(t, 2, 2, [raster.Channels]uint8{100, 100, 100, 255})
		require.NoError(t, StyleTransfer(warm, StyleWarm, 1))
		assert.Equal(t, [raster.Channels]uint8{130, 110, 80, 255}, warm.At(1, 1))
	})

	t.Run("monochrome full intensity is gray", func(t *testing.T) {
		buf := gradient(t, 6, 6)
		require.NoError(t, StyleTransfer(buf, StyleMonochrome, 1))
		for i := 0; i < len(buf.Pix); i += raster.Channels {
			require.Equal(t, buf.Pix[i], buf.Pix[i+1])
			require.Equal(t, buf.Pix[i], buf.Pix[i+2])
		}
	})

	t.Run("vivid leaves gray alone", func(t *testing.T) {
		buf := uniform(t, 2, 2, [raster.Channels]uint8{90, 90, 90, 255})
		require.NoError(t, StyleTransfer(buf, StyleVivid, 1))
		assert.Equal(t, [raster.Channels]uint8{90, 90, 90, 255}, buf.At(0, 0))
	})

	t.Run("saturates", func(t *testing.T) {
		buf := uniform(t, 1, 1, [raster.Channels]uint8{250, 250, 250, 255})
		require.NoError(t, StyleTransfer(buf, StyleWarm, 1))
		assert.Equal(t, uint8(255), buf.At(0, 0)[0])
	})

	t.Run("unknown style", func(t *testing.T) {
		err := StyleTransfer(gradient(t, 2, 2), Style("sepia"), 0.5)
		assert.True(t, errors.Is(err, raster.ErrInvalidArgument))
	})
}

func TestColorize(t *testing.T) {
	t.Run("warm on mid gray", func(t *testing.T) {
		buf := uniform(t, 4, 4, [raster.Channels]uint8{128, 128, 128, 255})
		require.NoError(t, Colorize(buf, SchemeWarm, 0.5))
		for y := 0; y < 4; y++ {
			for x := 0; x < 4; x++ {
				px := buf.At(x, y)
				require.Equal(t, [raster.Channels]uint8{141, 128, 115, 255}, px)
				require.Greater(t, px[0], uint8(128))
				require.Less(t, px[2], uint8(128))
			}
		}
	})

	t.Run("cool tips blue", func(t *testing.T) {
		buf := uniform(t, 2, 2, [raster.Channels]uint8{100, 100, 100, 255})
		require.NoError(t, Colorize(buf, SchemeCool, 1))
		px := buf.At(0, 0)
		assert.Less(t, px[0], px[2])
	})

	t.Run("intensity zero is neutral", func(t *testing.T) {
		buf := gradient(t, 5, 5)
		require.NoError(t, Colorize(buf, SchemeNatural, 0))
		for i := 0; i < len(buf.Pix); i += raster.Channels {
			require.Equal(t, buf.Pix[i], buf.Pix[i+1])
			require.Equal(t, buf.Pix[i], buf.Pix[i+2])
		}
	})

	t.Run("unknown scheme", func(t *testing.T) {
		err := Colorize(gradient(t, 2, 2), Scheme("neon"), 0.5)
		assert.True(t, errors.Is(err, raster.ErrInvalidArgument))
	})
}

func TestInvalidBuffers(t *testing.T) {
	bad := []*raster.Buffer{
		nil,
		{},
		{Pix: make([]uint8, 10), Width: 2, Height: 2},
		{Pix: make([]uint8, 0), Width: -1, Height: 4},
	}
	for _, buf := range bad {
		_, err := Score(buf)
		assert.True(t, errors.Is(err, raster.ErrInvalidArgument))
		assert.True(t, errors.Is(Restore(buf, 0.5), raster.ErrInvalidArgument))
		_, err = Upscale(buf, 2)
		assert.True(t, errors.Is(err, raster.ErrInvalidArgument))
		assert.True(t, errors.Is(StyleTransfer(buf, StyleCool, 0.5), raster.ErrInvalidArgument))
		assert.True(t, errors.Is(Colorize(buf, SchemeWarm, 0.5), raster.ErrInvalidArgument))
	}
}

func TestParseEnums(t *testing.T) {
	s, err := ParseStyle(" Vivid ")
	require.NoError(t, err)
	assert.Equal(t, StyleVivid, s)
	_, err = ParseStyle("oil")
	assert.True(t, errors.Is(err, raster.ErrInvalidArgument))

	sc, err := ParseScheme("WARM")
	require.NoError(t, err)
	assert.Equal(t, SchemeWarm, sc)
	_, err = ParseScheme("")
	assert.Error(t, err)
}
