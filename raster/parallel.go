package raster

import (
	"runtime"
	"sync"
)

// Parallel splits [0, n) into contiguous bands and runs fn on each band in its own goroutine.
// Every band is disjoint, so fn may write rows start..end-1 of a shared output without locking.
//
// Arguments:
// - n: The number of rows (or other units) to partition.
// - workers: Number of bands; <= 0 uses runtime.NumCPU().
// - fn: Function executed for each band (receives start and end indices).
//
// Returns:
// - None. Parallel returns once every band has finished.
//
// @example
//
//	Parallel(height, 0, func(start, end int) {
//	    for y := start; y < end; y++ {
//	        // Process row y
//	    }
//	})
func Parallel(n, workers int, fn func(start, end int)) {
	if n <= 0 {
		return
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	// Small inputs are not worth the goroutine overhead.
	if workers == 1 || n < workers*2 {
		fn(0, n)
		return
	}

	band := n / workers

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		start := i * band
		end := start + band
		// Last band absorbs the remainder.
		if i == workers-1 {
			end = n
		}
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(start, end)
	}
	wg.Wait()
}

// Runner executes fn over row bands covering [0, n).
type Runner func(n int, fn func(start, end int))

// Serial runs fn over the whole range on the calling goroutine.
func Serial(n int, fn func(start, end int)) {
	if n > 0 {
		fn(0, n)
	}
}

// Bands returns a Runner that fans out over the given number of workers.
func Bands(workers int) Runner {
	return func(n int, fn func(start, end int)) {
		Parallel(n, workers, fn)
	}
}
