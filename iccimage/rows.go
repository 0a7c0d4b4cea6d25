package iccimage

import (
	"fmt"
	"sync"

	"github.com/mrjoshuak/go-iccimage/cms"
)

// applyRows runs xf over every row of in, writing to out. Rows are split
// into contiguous chunks across workers when xf allows concurrent use.
// The first error wins; rows already written stay in out, which the caller
// discards.
func applyRows(xf cms.Transform, in, out []byte, width, height, rowIn, rowOut, workers int) error {
	row := func(y int) error {
		if err := xf.Apply(in[y*rowIn:(y+1)*rowIn], out[y*rowOut:(y+1)*rowOut], width); err != nil {
			return fmt.Errorf("row %d: %w", y, err)
		}
		return nil
	}

	if workers > height {
		workers = height
	}
	if workers <= 1 || !cms.IsConcurrencySafe(xf) {
		for y := 0; y < height; y++ {
			if err := row(y); err != nil {
				return err
			}
		}
		return nil
	}

	var wg sync.WaitGroup
	var errOnce sync.Once
	var firstErr error
	chunkSize := (height + workers - 1) / workers

	for w := 0; w < workers; w++ {
		start := w * chunkSize
		end := min(start+chunkSize, height)
		if start >= end {
			break
		}

		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			for y := s; y < e; y++ {
				if err := row(y); err != nil {
					errOnce.Do(func() {
						firstErr = err
					})
					return
				}
			}
		}(start, end)
	}

	wg.Wait()
	return firstErr
}
