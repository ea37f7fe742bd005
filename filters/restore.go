package filters

import "github.com/nvr-ai/go-raster/raster"

const (
	restoreMidpoint = 128.0
	// restoreDenoiseThreshold is the strength above which the flat denoise blend kicks in.
	restoreDenoiseThreshold = 0.3
)

// Restore stretches contrast around 128 and, for strength > 0.3, blends toward 128.
//
//	v'  = clamp((v-128)*(1+0.5*strength)+128, 0, 255)
//	v'' = v'*(1-blur) + 128*blur, blur = 0.2*strength
//
// Each of R, G, B is transformed independently; alpha is untouched. strength is
// clamped to [0, 1], so strength 0 is the identity.
//
// Arguments:
// - buf: The buffer to restore in place.
// - strength: Restoration strength.
//
// Returns:
// - ErrInvalidArgument if buf is invalid.
func (f *Filter) Restore(buf *raster.Buffer, strength float64) error {
	if err := buf.Validate(); err != nil {
		return err
	}

	strength = raster.ClampUnit(strength)
	contrast := 1 + 0.5*strength
	blur := 0.0
	if strength > restoreDenoiseThreshold {
		blur = 0.2 * strength
	}

	// 256-entry lookup: the transform depends on the sample value only.
	var lut [256]uint8
	for v := range lut {
		s := raster.Clamp((float64(v)-restoreMidpoint)*contrast+restoreMidpoint, 0, 255)
		if blur > 0 {
			s = s*(1-blur) + restoreMidpoint*blur
		}
		lut[v] = raster.ClampByte(s)
	}

	f.perPixel(buf, func(p []uint8) {
		p[0] = lut[p[0]]
		p[1] = lut[p[1]]
		p[2] = lut[p[2]]
	})
	return nil
}
