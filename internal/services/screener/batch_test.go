package screener

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/amarcoder01/sift/internal/common"
	"github.com/amarcoder01/sift/internal/models"
)

func newTestOrchestrator(client *mockClient) *BatchOrchestrator {
	return NewBatchOrchestrator(newTestFetcher(client), common.NewSilentLogger())
}

func TestBatchFailuresAreIsolated(t *testing.T) {
	failing := map[string]bool{"BAD1": true, "BAD2": true, "BAD3": true}

	client := newMockClient()
	client.prevFn = func(_ context.Context, ticker string) (*models.AggBar, error) {
		if failing[ticker] {
			return nil, fmt.Errorf("no data for %s", ticker)
		}
		return &models.AggBar{Close: 10, Volume: 100}, nil
	}

	tickers := make([]string, 0, 20)
	for i := 0; i < 17; i++ {
		tickers = append(tickers, fmt.Sprintf("OK%d", i))
	}
	tickers = append(tickers, "BAD1", "BAD2", "BAD3")

	var mu sync.Mutex
	var events []models.BatchProgress

	quotes := newTestOrchestrator(client).Fetch(context.Background(), tickers, BatchOptions{
		BatchSize: 5,
		OnProgress: func(p models.BatchProgress) {
			mu.Lock()
			events = append(events, p)
			mu.Unlock()
		},
	})

	if len(quotes) != 17 {
		t.Errorf("got %d quotes, want 17 (failures silently omitted)", len(quotes))
	}
	for _, q := range quotes {
		if failing[q.Ticker] {
			t.Errorf("failed ticker %s present in results", q.Ticker)
		}
	}

	// Progress counts instruments attempted, not instruments that
	// succeeded: the final event must report 20 of 20.
	if len(events) == 0 {
		t.Fatal("no progress events emitted")
	}
	last := events[len(events)-1]
	if last.Current != 20 || last.Total != 20 {
		t.Errorf("final progress = %d/%d, want 20/20", last.Current, last.Total)
	}
	for i := 1; i < len(events); i++ {
		if events[i].Current <= events[i-1].Current {
			t.Errorf("progress not monotonic: %d then %d", events[i-1].Current, events[i].Current)
		}
	}
}

func TestBatchRetriesOnCheaperPath(t *testing.T) {
	// Day bar always fails; previous close succeeds. The full-chain
	// attempt already reaches previous close, so the quote survives
	// without needing the explicit retry.
	client := newMockClient()
	client.prevFn = func(_ context.Context, _ string) (*models.AggBar, error) {
		return &models.AggBar{Close: 7, Volume: 3}, nil
	}

	quotes := newTestOrchestrator(client).Fetch(context.Background(), []string{"AAA"}, BatchOptions{})
	if len(quotes) != 1 {
		t.Fatalf("got %d quotes, want 1", len(quotes))
	}
	if quotes[0].Price != 7 {
		t.Errorf("price = %v, want 7", quotes[0].Price)
	}
}

func TestBatchCancelledBetweenChunks(t *testing.T) {
	client := newMockClient()
	client.prevFn = func(_ context.Context, _ string) (*models.AggBar, error) {
		return &models.AggBar{Close: 5, Volume: 1}, nil
	}

	ctx, cancel := context.WithCancel(context.Background())

	tickers := []string{"A", "B", "C", "D"}
	quotes := newTestOrchestrator(client).Fetch(ctx, tickers, BatchOptions{
		BatchSize: 2,
		OnProgress: func(p models.BatchProgress) {
			// Cancel after the first chunk settles.
			if p.Current == 2 {
				cancel()
			}
		},
	})

	if len(quotes) != 2 {
		t.Errorf("got %d quotes after cancellation, want 2 (first chunk only)", len(quotes))
	}
}

func TestResolveCapsOmitsUnresolved(t *testing.T) {
	client := newMockClient()
	client.detailsFn = func(_ context.Context, ticker string) (*models.TickerDetails, error) {
		if ticker == "BAD" {
			return nil, fmt.Errorf("details unavailable for %s", ticker)
		}
		return &models.TickerDetails{Ticker: ticker, MarketCap: 1_000_000_000}, nil
	}

	reqs := []CapRequest{
		{Ticker: "OK1", Price: 10},
		{Ticker: "BAD", Price: 10},
		{Ticker: "OK2", Price: 20},
	}
	results := newTestOrchestrator(client).ResolveCaps(context.Background(), reqs, BatchOptions{BatchSize: 2})

	if len(results) != 2 {
		t.Fatalf("got %d results, want 2 (failures silently omitted)", len(results))
	}
	for _, res := range results {
		if res.Ticker == "BAD" {
			t.Errorf("failed ticker %s present in results", res.Ticker)
		}
		if res.MarketCap == nil || *res.MarketCap != 1_000_000_000 {
			t.Errorf("market cap for %s = %v, want 1e9", res.Ticker, res.MarketCap)
		}
	}
	if got := client.callCount("GetPreviousClose"); got != 0 {
		t.Errorf("cap resolution walked the quote chain: %d previous-close calls", got)
	}
}

func TestBatchEmptyInput(t *testing.T) {
	client := newMockClient()
	quotes := newTestOrchestrator(client).Fetch(context.Background(), nil, BatchOptions{})
	if len(quotes) != 0 {
		t.Errorf("got %d quotes for empty input", len(quotes))
	}
	if client.totalCalls() != 0 {
		t.Errorf("empty input made %d upstream calls", client.totalCalls())
	}
}
