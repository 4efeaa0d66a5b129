package utils

import (
	"runtime"
	"sync"
)

// MultiThread runs f for every integer in the range [start, end), spreading the work over
// goroutines.
//
// MultiThread should be run sequentially, not in a separate goroutine; it returns once every call
// to f has finished. It is designed for use by operators in their per-example calculations, where
// each index touches disjoint memory.
//
// 'opsPerThread' is the number of indexes each goroutine will handle before requesting another
// set. 'threadsPerCPU' is the number of goroutines created for each CPU. Values less than one are
// treated as one.
//
// If any call to f returns an error, no further sets are handed out and the first error is
// returned.
func MultiThread(start, end int, f func(int) error, opsPerThread, threadsPerCPU int) error {
	if end <= start {
		return nil
	}

	if opsPerThread < 1 {
		opsPerThread = 1
	}
	if threadsPerCPU < 1 {
		threadsPerCPU = 1
	}

	numThreads := runtime.NumCPU() * threadsPerCPU
	if sets := (end - start + opsPerThread - 1) / opsPerThread; sets < numThreads {
		numThreads = sets
	}

	var (
		indexMux sync.Mutex
		index    = start
		firstErr error
		wg       sync.WaitGroup
	)

	next := func() (int, int, bool) {
		indexMux.Lock()
		defer indexMux.Unlock()

		if index >= end || firstErr != nil {
			return 0, 0, false
		}

		i := index
		index += opsPerThread

		e := i + opsPerThread
		if e > end {
			e = end
		}

		return i, e, true
	}

	fail := func(err error) {
		indexMux.Lock()
		if firstErr == nil {
			firstErr = err
		}
		indexMux.Unlock()
	}

	wg.Add(numThreads)
	for thread := 0; thread < numThreads; thread++ {
		go func() {
			defer wg.Done()

			for {
				i, e, ok := next()
				if !ok {
					return
				}

				for ; i < e; i++ {
					if err := f(i); err != nil {
						fail(err)
						return
					}
				}
			}
		}()
	}

	wg.Wait()
	return firstErr
}
