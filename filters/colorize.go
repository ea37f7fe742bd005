package filters

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/nvr-ai/go-raster/raster"
)

// Scheme selects a Colorize palette.
type Scheme string

// Scheme constants.
const (
	SchemeNatural Scheme = "natural"
	SchemeCool    Scheme = "cool"
	SchemeWarm    Scheme = "warm"
)

// Schemes lists every supported colorization scheme.
func Schemes() []Scheme {
	return []Scheme{SchemeNatural, SchemeCool, SchemeWarm}
}

// ParseScheme converts a case-insensitive name into a Scheme.
func ParseScheme(name string) (Scheme, error) {
	s := Scheme(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range Schemes() {
		if s == known {
			return s, nil
		}
	}
	return "", errors.Wrapf(raster.ErrInvalidArgument, "unknown colorization scheme %q", name)
}

// bias holds the per-channel multiplier slope; channel = luma * (1 + slope*intensity).
type bias struct{ r, g, b float64 }

var schemeBias = map[Scheme]bias{
	SchemeNatural: {r: 0.12, g: 0.04, b: -0.08},
	SchemeCool:    {r: -0.20, g: 0.05, b: 0.20},
	SchemeWarm:    {r: 0.20, g: 0, b: -0.20},
}

// Colorize replaces each pixel with its luma redistributed across R, G and B
// by the scheme's multiplicative bias scaled by intensity (clamped to [0, 1]).
// At intensity 0 every pixel becomes neutral gray. Alpha is untouched.
func (f *Filter) Colorize(buf *raster.Buffer, scheme Scheme, intensity float64) error {
	if err := buf.Validate(); err != nil {
		return err
	}
	bs, ok := schemeBias[scheme]
	if !ok {
		return errors.Wrapf(raster.ErrInvalidArgument, "unknown colorization scheme %q", string(scheme))
	}

	i := raster.ClampUnit(intensity)
	kr, kg, kb := 1+bs.r*i, 1+bs.g*i, 1+bs.b*i

	f.perPixel(buf, func(p []uint8) {
		l := raster.Luma(float64(p[0]), float64(p[1]), float64(p[2]))
		p[0] = raster.ClampByte(l * kr)
		p[1] = raster.ClampByte(l * kg)
		p[2] = raster.ClampByte(l * kb)
	})
	return nil
}
