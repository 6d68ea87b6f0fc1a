// Package fetch implements the shared collection-loading pipeline: a
// concurrent paginated fetcher and a batched per-record detail joiner.
package fetch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/t3-tools/t3-cli/internal/api"
)

const (
	// DefaultPageSize is the collection page size the API accepts.
	DefaultPageSize = 500

	// DefaultWorkers is the fixed worker pool size per fetch phase.
	DefaultWorkers = 5

	// probePageSize keeps the initial total-count request cheap.
	probePageSize = 5
)

// PageFunc fetches a single page of a collection.
type PageFunc func(ctx context.Context, page, pageSize int) (*api.Page, error)

// Fetcher loads a full collection by probing the total count and fetching
// every page concurrently. Pages whose retries are exhausted are logged
// and dropped; the rest of the run proceeds.
type Fetcher struct {
	PageSize int
	Workers  int
	Logger   zerolog.Logger
}

// PageCount returns ceil(total/pageSize); zero for an empty collection.
func PageCount(total, pageSize int) int {
	if total <= 0 || pageSize <= 0 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}

// FetchAll returns every record of the collection. Record order follows
// worker completion, not page order; callers treat the result as a set.
func (f *Fetcher) FetchAll(ctx context.Context, fn PageFunc) ([]api.Record, error) {
	pageSize := f.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	workers := f.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}

	start := time.Now()

	probe, err := fn(ctx, 1, probePageSize)
	if err != nil {
		return nil, fmt.Errorf("probing collection size: %w", err)
	}

	maxPages := PageCount(probe.Total, pageSize)
	f.Logger.Info().
		Int("total", probe.Total).
		Int("pages", maxPages).
		Int("page_size", pageSize).
		Msg("starting collection fetch")

	if maxPages == 0 {
		return nil, nil
	}

	var (
		mu      sync.Mutex
		records []api.Record
		loaded  int
		dropped int
	)

	pageCh := make(chan int)
	go func() {
		defer close(pageCh)
		for page := 1; page <= maxPages; page++ {
			select {
			case pageCh <- page:
			case <-ctx.Done():
				return
			}
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for page := range pageCh {
				result, err := fn(ctx, page, pageSize)
				if err != nil {
					f.Logger.Error().Err(err).Int("page", page).Msg("page fetch failed, dropping page")
					mu.Lock()
					dropped++
					mu.Unlock()
					continue
				}
				mu.Lock()
				records = append(records, result.Data...)
				loaded += len(result.Data)
				total := loaded
				mu.Unlock()
				f.Logger.Info().
					Int("page", page).
					Int("page_records", len(result.Data)).
					Int("loaded", total).
					Msg("page loaded")
			}
		}()
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return records, err
	}

	f.Logger.Info().
		Int("records", loaded).
		Int("dropped_pages", dropped).
		Dur("duration", time.Since(start)).
		Msg("collection fetch complete")

	return records, nil
}
