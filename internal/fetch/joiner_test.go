package fetch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/t3-tools/t3-cli/internal/api"
)

func TestJoin(t *testing.T) {
	records := make([]api.Record, 60)
	for i := range records {
		records[i] = api.Record{"id": float64(i + 1)}
	}

	var mu sync.Mutex
	var inFlight, peak int

	j := &Joiner{BatchSize: 25, Workers: 5, Logger: zerolog.Nop()}
	joined, err := j.Join(context.Background(), records, func(_ context.Context, rec api.Record) ([]api.Record, error) {
		mu.Lock()
		inFlight++
		if inFlight > peak {
			peak = inFlight
		}
		mu.Unlock()
		defer func() {
			mu.Lock()
			inFlight--
			mu.Unlock()
		}()
		return []api.Record{{"parent": rec.ID()}}, nil
	})

	if err != nil {
		t.Fatalf("Join() error: %v", err)
	}
	if len(joined) != 60 {
		t.Fatalf("got %d joined records, want 60", len(joined))
	}
	for i, jr := range joined {
		if jr.Base.ID() != int64(i+1) {
			t.Fatalf("joined[%d] base id = %d, want %d", i, jr.Base.ID(), i+1)
		}
		if len(jr.Detail) != 1 || jr.Detail[0].Int("parent") != jr.Base.ID() {
			t.Errorf("joined[%d] detail does not match its base", i)
		}
	}
	if peak > 5 {
		t.Errorf("peak concurrency %d exceeds worker count", peak)
	}
}

func TestJoinDetailFailureKeepsRecord(t *testing.T) {
	records := []api.Record{
		{"id": float64(1)},
		{"id": float64(2)},
		{"id": float64(3)},
	}

	j := &Joiner{BatchSize: 2, Workers: 2, Logger: zerolog.Nop()}
	joined, err := j.Join(context.Background(), records, func(_ context.Context, rec api.Record) ([]api.Record, error) {
		if rec.ID() == 2 {
			return nil, fmt.Errorf("history unavailable")
		}
		return []api.Record{{"ok": true}}, nil
	})

	if err != nil {
		t.Fatalf("Join() error: %v", err)
	}
	if len(joined) != 3 {
		t.Fatalf("got %d joined records, want 3", len(joined))
	}
	if joined[1].Detail != nil {
		t.Error("failed detail fetch must leave Detail nil")
	}
	if joined[0].Detail == nil || joined[2].Detail == nil {
		t.Error("sibling records must keep their detail despite one failure")
	}
}

func TestJoinEmpty(t *testing.T) {
	j := &Joiner{Logger: zerolog.Nop()}
	joined, err := j.Join(context.Background(), nil, func(context.Context, api.Record) ([]api.Record, error) {
		t.Error("detail fn must not run for an empty collection")
		return nil, nil
	})
	if err != nil {
		t.Fatalf("Join() error: %v", err)
	}
	if len(joined) != 0 {
		t.Errorf("got %d joined records, want 0", len(joined))
	}
}

func TestJoinCanceledReturnsError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	records := []api.Record{
		{"id": float64(1)},
		{"id": float64(2)},
	}

	j := &Joiner{BatchSize: 1, Workers: 1, Logger: zerolog.Nop()}
	joined, err := j.Join(ctx, records, func(context.Context, api.Record) ([]api.Record, error) {
		return []api.Record{{"ok": true}}, nil
	})

	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Join() error = %v, want context.Canceled", err)
	}
	if len(joined) != 2 {
		t.Errorf("got %d joined records, want the partial slice of 2", len(joined))
	}
}
