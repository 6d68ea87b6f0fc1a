package fetch

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
	"github.com/t3-tools/t3-cli/internal/api"
)

// DefaultBatchSize is how many detail requests are grouped before the
// joiner waits for the group to finish. Batches never overlap, which
// bounds peak concurrency at Workers.
const DefaultBatchSize = 25

// Joined pairs a fetched record with its per-record detail resource.
// Detail is nil when the detail fetch failed or returned nothing; the
// record still reaches the report.
type Joined struct {
	Base   api.Record
	Detail []api.Record
}

// DetailFunc fetches the secondary resource for one record.
type DetailFunc func(ctx context.Context, rec api.Record) ([]api.Record, error)

// Joiner attaches a detail resource (history, lab results) to each parent
// record, batch by batch.
type Joiner struct {
	BatchSize int
	Workers   int
	Logger    zerolog.Logger
}

// Join fetches details for every record. A failed detail fetch is logged
// and leaves that record's Detail nil; it never aborts the batch. When ctx
// is canceled the partial result is returned together with ctx.Err(), so
// callers never mistake it for a complete join.
func (j *Joiner) Join(ctx context.Context, records []api.Record, fn DetailFunc) ([]Joined, error) {
	batchSize := j.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	workers := j.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}

	joined := make([]Joined, len(records))
	for i := range records {
		joined[i].Base = records[i]
	}

	for start := 0; start < len(records); start += batchSize {
		end := start + batchSize
		if end > len(records) {
			end = len(records)
		}

		indexCh := make(chan int)
		go func(start, end int) {
			defer close(indexCh)
			for i := start; i < end; i++ {
				select {
				case indexCh <- i:
				case <-ctx.Done():
					return
				}
			}
		}(start, end)

		var wg sync.WaitGroup
		for w := 0; w < workers; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := range indexCh {
					rec := joined[i].Base
					detail, err := fn(ctx, rec)
					if err != nil {
						j.Logger.Error().Err(err).Int64("id", rec.ID()).Msg("detail fetch failed, record kept without detail")
						continue
					}
					joined[i].Detail = detail
					j.Logger.Debug().Int64("id", rec.ID()).Int("detail_records", len(detail)).Msg("detail attached")
				}
			}()
		}
		wg.Wait()

		if err := ctx.Err(); err != nil {
			return joined, err
		}

		j.Logger.Info().
			Int("completed", end).
			Int("total", len(records)).
			Msg("detail batch complete")
	}

	return joined, nil
}
