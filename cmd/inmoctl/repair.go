package main

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"
)

type propertyLister interface {
	ListPropertyIDs(ctx context.Context) ([]string, error)
}

type mainImageRepairer interface {
	RepairMainImages(ctx context.Context, propertyID string) (bool, error)
}

type repairResult struct {
	Checked  int
	Repaired int
	Failed   int
}

// repairAll runs the repairer over every listing with at most workers in
// flight. Per-listing failures are counted and logged, not returned.
func repairAll(ctx context.Context, ids propertyLister, r mainImageRepairer, workers int) (repairResult, error) {
	var res repairResult
	list, err := ids.ListPropertyIDs(ctx)
	if err != nil {
		return res, fmt.Errorf("list properties: %w", err)
	}
	if workers <= 0 {
		workers = 1
	}

	sem := semaphore.NewWeighted(int64(workers))
	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)

	for _, id := range list {
		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			wg.Wait()
			return res, err
		}

		wg.Add(1)
		go func(propertyID string) {
			defer wg.Done()
			defer sem.Release(1)

			changed, err := r.RepairMainImages(ctx, propertyID)

			mu.Lock()
			defer mu.Unlock()
			res.Checked++
			switch {
			case err != nil:
				res.Failed++
				log.Warn().Str("property_id", propertyID).Err(err).Msg("repair failed")
			case changed:
				res.Repaired++
				log.Info().Str("property_id", propertyID).Msg("main image repaired")
			}
		}(id)
	}

	wg.Wait()
	return res, nil
}
