// Package kernels - fixed-size neighbourhood operators over flat RGBA and luma planes.
package kernels

import (
	"sync"

	"github.com/nvr-ai/go-raster/raster"
)

// EdgeMode defines how the outer 1-pixel ring is treated by 3x3 operators.
// - Skip: the ring is copied through untouched (legacy behaviour).
// - Clamp: out-of-range neighbours repeat the edge pixel.
// - Mirror: out-of-range neighbours reflect back into the image.
type EdgeMode int

const (
	EdgeSkip EdgeMode = iota
	EdgeClamp
	EdgeMirror
)

// String returns the mode name.
func (m EdgeMode) String() string {
	switch m {
	case EdgeSkip:
		return "skip"
	case EdgeClamp:
		return "clamp"
	case EdgeMirror:
		return "mirror"
	default:
		return "unknown"
	}
}

// Options configures a kernel call.
type Options struct {
	Edge     EdgeMode // Border policy.
	Parallel bool     // Split rows into bands across goroutines.
	Workers  int      // Band count when Parallel; <= 0 uses runtime.NumCPU().
}

func (o Options) runner() raster.Runner {
	if !o.Parallel {
		return raster.Serial
	}
	return raster.Bands(o.Workers)
}

// Pool lets callers reuse large sample slices between calls.
type Pool struct {
	pix sync.Pool // *[]uint8
}

// Get returns a slice of exactly n samples. Contents are unspecified.
func (p *Pool) Get(n int) []uint8 {
	if p == nil {
		return make([]uint8, n)
	}
	if v := p.pix.Get(); v != nil {
		s := *(v.(*[]uint8))
		if cap(s) >= n {
			return s[:n]
		}
	}
	return make([]uint8, n)
}

// Put hands a slice back to the pool.
func (p *Pool) Put(s []uint8) {
	if p == nil || s == nil {
		return
	}
	// The next user fully overwrites, so no clearing.
	p.pix.Put(&s)
}

// mapCoord maps an index i to [0, n) according to edge mode.
// EdgeSkip never samples outside, so it falls back to clamp.
func mapCoord(i, n int, mode EdgeMode) int {
	switch mode {
	case EdgeMirror:
		if n == 1 {
			return 0
		}
		for i < 0 || i >= n {
			if i < 0 {
				i = -i - 1
			} else {
				i = 2*n - i - 1
			}
		}
		return i
	default:
		if i < 0 {
			return 0
		}
		if i >= n {
			return n - 1
		}
		return i
	}
}
