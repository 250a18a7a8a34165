// Package parallel splits index ranges across CPU cores.
package parallel

import (
	"runtime"
	"sync"
)

// Parallelize splits [0, items) into one contiguous chunk per CPU core and
// runs fn on each chunk concurrently. It returns once every chunk is done.
func Parallelize(items int, fn func(start, end int)) {
	if items <= 0 {
		return
	}

	numWorkers := runtime.NumCPU()
	if numWorkers > items {
		numWorkers = items
	}
	chunkSize := (items + numWorkers - 1) / numWorkers

	var wg sync.WaitGroup
	for start := 0; start < items; start += chunkSize {
		end := min(start+chunkSize, items)
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(start, end)
	}
	wg.Wait()
}

// ParallelizeWithThreshold runs fn sequentially over the whole range when
// items does not exceed threshold, and calls Parallelize otherwise.
func ParallelizeWithThreshold(items int, threshold int, fn func(start, end int)) {
	if items <= threshold {
		fn(0, items)
		return
	}
	Parallelize(items, fn)
}
