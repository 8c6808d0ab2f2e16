package optimizer

// pool.go — worker pool for the grid.
//
// Cells are fully independent: each worker builds its own simulator
// pair (own book, own matcher) over the shared read-only History, so
// no mutable state crosses goroutines.

import (
	"runtime"
	"sync"

	"github.com/alejandrodnm/polysim/internal/domain"
)

func runGrid(hist *domain.History, cfg Config, split domain.DateSplit, cells []domain.GridCell) []*domain.CellResult {
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(cells) {
		workers = len(cells)
	}

	workCh := make(chan int, len(cells))
	results := make([]*domain.CellResult, len(cells))

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range workCh {
				results[i] = runCell(hist, cfg.Base, cells[i], split)
			}
		}()
	}

	for i := range cells {
		workCh <- i
	}
	close(workCh)
	wg.Wait()

	return results
}

// runCell runs one cell on both periods. Config errors are impossible
// here (validated up front), so a simulator construction failure is a
// bug and the cell comes back empty rather than killing the sweep.
func runCell(hist *domain.History, base domain.SimConfig, cell domain.GridCell, split domain.DateSplit) *domain.CellResult {
	cr := &domain.CellResult{Cell: cell}

	if train, err := runOnce(hist, cellConfig(base, cell, split.TrainStart, split.TrainEnd)); err == nil {
		cr.Train = train
		cr.TrainStats = domain.ComputeStats(train)
	}
	if test, err := runOnce(hist, cellConfig(base, cell, split.TestStart, split.TestEnd)); err == nil {
		cr.Test = test
		cr.TestStats = domain.ComputeStats(test)
	}
	return cr
}
