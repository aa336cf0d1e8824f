package analyzer

import (
	"runtime"
	"sync"
)

// forEachRowStrip splits [0,height) into horizontal strips and runs fn on
// each strip concurrently. Strips never overlap, so workers write disjoint
// rows and no locking is needed.
func forEachRowStrip(height int, fn func(startY, endY int)) {
	workers := runtime.NumCPU()
	if height < workers {
		workers = height
	}
	if workers <= 1 {
		if height > 0 {
			fn(0, height)
		}
		return
	}

	rowsPerWorker := (height + workers - 1) / workers // ceil division
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		startY := i * rowsPerWorker
		endY := startY + rowsPerWorker
		if endY > height {
			endY = height
		}
		if startY >= endY {
			break
		}
		wg.Add(1)
		go func(startY, endY int) {
			defer wg.Done()
			fn(startY, endY)
		}(startY, endY)
	}

	wg.Wait()
}
