package filters

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/nvr-ai/go-raster/raster"
)

// Style selects a StyleTransfer tone mapping.
type Style string

// Style constants.
const (
	StyleVintage    Style = "vintage"
	StyleCool       Style = "cool"
	StyleWarm       Style = "warm"
	StyleVivid      Style = "vivid"
	StyleMonochrome Style = "monochrome"
)

// Styles lists every supported style.
func Styles() []Style {
	return []Style{StyleVintage, StyleCool, StyleWarm, StyleVivid, StyleMonochrome}
}

// ParseStyle converts a case-insensitive name into a Style.
func ParseStyle(name string) (Style, error) {
	s := Style(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range Styles() {
		if s == known {
			return s, nil
		}
	}
	return "", errors.Wrapf(raster.ErrInvalidArgument, "unknown style %q", name)
}

// StyleTransfer recombines each pixel's R, G, B with a style-specific formula,
// i = intensity clamped to [0, 1]:
//
//	vintage     sepia matrix blended with the original by i
//	cool        R*(1-0.2i), G*(1-0.1i), B*(1+0.3i)
//	warm        R*(1+0.3i), G*(1+0.1i), B*(1-0.2i)
//	vivid       L + (c-L)*(1+i), L = luma
//	monochrome  c*(1-i) + L*i
//
// Vintage computes G and B from the already updated R, unless
// Options.IndependentSepia is set. Intensity 0 is the identity for every style.
// Alpha is untouched.
//
// Arguments:
// - buf: The buffer to tone-map in place.
// - style: One of Styles().
// - intensity: Effect strength.
//
// Returns:
// - ErrInvalidArgument if buf is invalid or style is unknown.
func (f *Filter) StyleTransfer(buf *raster.Buffer, style Style, intensity float64) error {
	if err := buf.Validate(); err != nil {
		return err
	}
	fn, err := f.styleFunc(style, raster.ClampUnit(intensity))
	if err != nil {
		return err
	}

	f.perPixel(buf, func(p []uint8) {
		r, g, b := fn(float64(p[0]), float64(p[1]), float64(p[2]))
		p[0] = raster.ClampByte(r)
		p[1] = raster.ClampByte(g)
		p[2] = raster.ClampByte(b)
	})
	return nil
}

type toneFunc func(r, g, b float64) (float64, float64, float64)

func (f *Filter) styleFunc(style Style, i float64) (toneFunc, error) {
	switch style {
	case StyleVintage:
		independent := f.opt.IndependentSepia
		return func(r, g, b float64) (float64, float64, float64) {
			nr := r*(1-0.607*i) + g*0.769*i + b*0.189*i
			// The G and B rows read the updated red sample.
			rr := nr
			if independent {
				rr = r
			}
			ng := rr*0.349*i + g*(1-0.314*i) + b*0.168*i
			nb := rr*0.272*i + g*0.534*i + b*(1-0.869*i)
			return nr, ng, nb
		}, nil
	case StyleCool:
		return multiply(1-0.2*i, 1-0.1*i, 1+0.3*i), nil
	case StyleWarm:
		return multiply(1+0.3*i, 1+0.1*i, 1-0.2*i), nil
	case StyleVivid:
		return func(r, g, b float64) (float64, float64, float64) {
			l := raster.Luma(r, g, b)
			k := 1 + i
			return l + (r-l)*k, l + (g-l)*k, l + (b-l)*k
		}, nil
	case StyleMonochrome:
		return func(r, g, b float64) (float64, float64, float64) {
			l := raster.Luma(r, g, b)
			return r*(1-i) + l*i, g*(1-i) + l*i, b*(1-i) + l*i
		}, nil
	default:
		return nil, errors.Wrapf(raster.ErrInvalidArgument, "unknown style %q", string(style))
	}
}

func multiply(kr, kg, kb float64) toneFunc {
	return func(r, g, b float64) (float64, float64, float64) {
		return r * kr, g * kg, b * kb
	}
}
