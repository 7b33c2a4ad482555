package screener

import (
	"context"
	"fmt"
	"time"

	"github.com/amarcoder01/sift/internal/common"
	"github.com/amarcoder01/sift/internal/interfaces"
	"github.com/amarcoder01/sift/internal/models"
)

// BatchOptions tunes one orchestrated sweep.
type BatchOptions struct {
	BatchSize        int
	Delay            time.Duration // pause between chunks, not after the last
	IncludeMarketCap bool
	OnProgress       interfaces.ProgressFunc
}

// BatchOrchestrator drives the quote fetcher over a ticker list with
// bounded concurrency and inter-chunk pacing. The upstream enforces a
// requests-per-second ceiling: sequential calls would take hours over a
// full market, unbounded fan-out would trip rate-limit rejections.
type BatchOrchestrator struct {
	fetcher *QuoteFetcher
	logger  *common.Logger
}

// NewBatchOrchestrator creates a batch orchestrator.
func NewBatchOrchestrator(fetcher *QuoteFetcher, logger *common.Logger) *BatchOrchestrator {
	return &BatchOrchestrator{
		fetcher: fetcher,
		logger:  logger,
	}
}

// Fetch retrieves quotes for the given tickers. Individual failures never
// abort the sweep: a ticker that fails its primary fetch is retried once
// via the cheaper previous-close path, and a ticker failing both is
// silently omitted — absence in the result means "no data", not error.
// Result order follows network completion order, not input order.
func (o *BatchOrchestrator) Fetch(ctx context.Context, tickers []string, opts BatchOptions) []models.Quote {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 25
	}

	total := len(tickers)
	quotes := make([]models.Quote, 0, total)
	completed := 0

	for start := 0; start < total; start += opts.BatchSize {
		if ctx.Err() != nil {
			o.logger.Warn().Int("completed", completed).Int("total", total).Msg("Batch fetch cancelled")
			return quotes
		}

		end := start + opts.BatchSize
		if end > total {
			end = total
		}
		chunk := tickers[start:end]

		quotes = append(quotes, o.fetchChunk(ctx, chunk, opts.IncludeMarketCap)...)
		completed += len(chunk)

		if opts.OnProgress != nil {
			opts.OnProgress(models.BatchProgress{
				Current: completed,
				Total:   total,
				Message: fmt.Sprintf("Fetched %d of %d instruments", completed, total),
			})
		}

		// Pace between chunks to respect the upstream request budget.
		// The pause is cancellable, never a hard sleep.
		if end < total && opts.Delay > 0 {
			select {
			case <-ctx.Done():
				return quotes
			case <-time.After(opts.Delay):
			}
		}
	}

	o.logger.Debug().
		Int("requested", total).
		Int("fetched", len(quotes)).
		Msg("Batch fetch complete")

	return quotes
}

// CapRequest asks for a market-cap resolution for a ticker whose price is
// already known.
type CapRequest struct {
	Ticker string
	Price  float64
}

// CapResult couples a resolved market cap and attributes with its ticker.
type CapResult struct {
	Ticker string
	MarketCapResult
}

// ResolveCaps resolves market caps for tickers whose price is already
// known, going straight to the details endpoint instead of walking the
// per-ticker quote chain. Chunking, pacing, progress and cancellation
// follow Fetch; requests yielding neither a cap nor attributes are
// silently omitted.
func (o *BatchOrchestrator) ResolveCaps(ctx context.Context, reqs []CapRequest, opts BatchOptions) []CapResult {
	if o.fetcher.caps == nil {
		return nil
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 25
	}

	total := len(reqs)
	results := make([]CapResult, 0, total)
	completed := 0

	for start := 0; start < total; start += opts.BatchSize {
		if ctx.Err() != nil {
			o.logger.Warn().Int("completed", completed).Int("total", total).Msg("Cap resolution cancelled")
			return results
		}

		end := start + opts.BatchSize
		if end > total {
			end = total
		}
		chunk := reqs[start:end]

		results = append(results, o.resolveChunk(ctx, chunk)...)
		completed += len(chunk)

		if opts.OnProgress != nil {
			opts.OnProgress(models.BatchProgress{
				Current: completed,
				Total:   total,
				Message: fmt.Sprintf("Resolved %d of %d market caps", completed, total),
			})
		}

		if end < total && opts.Delay > 0 {
			select {
			case <-ctx.Done():
				return results
			case <-time.After(opts.Delay):
			}
		}
	}

	return results
}

// resolveChunk issues all resolutions in a chunk concurrently and waits
// for every one to settle.
func (o *BatchOrchestrator) resolveChunk(ctx context.Context, reqs []CapRequest) []CapResult {
	out := make(chan CapResult, len(reqs))

	for _, req := range reqs {
		go func(r CapRequest) {
			out <- CapResult{Ticker: r.Ticker, MarketCapResult: o.fetcher.caps.Resolve(ctx, r.Ticker, r.Price)}
		}(req)
	}

	results := make([]CapResult, 0, len(reqs))
	for range reqs {
		res := <-out
		if res.MarketCap == nil && res.Sector == "" && res.Exchange == "" {
			o.logger.Debug().Str("ticker", res.Ticker).Msg("Market cap unresolved")
			continue
		}
		results = append(results, res)
	}
	close(out)

	return results
}

// fetchChunk issues all fetches in a chunk concurrently and waits for
// every one to settle. Failed tickers get one retry on the cheaper path.
func (o *BatchOrchestrator) fetchChunk(ctx context.Context, tickers []string, includeMarketCap bool) []models.Quote {
	type fetchResult struct {
		ticker string
		quote  *models.Quote
		err    error
	}
	results := make(chan fetchResult, len(tickers))

	for _, ticker := range tickers {
		go func(t string) {
			quote, err := o.fetcher.fetch(ctx, t, includeMarketCap, richnessFull)
			if err != nil {
				// One retry via the previous-close-only path, which has
				// fewer failure points than the full chain.
				quote, err = o.fetcher.fetch(ctx, t, includeMarketCap, richnessPrevClose)
			}
			results <- fetchResult{ticker: t, quote: quote, err: err}
		}(ticker)
	}

	quotes := make([]models.Quote, 0, len(tickers))
	for range tickers {
		result := <-results
		if result.err != nil {
			o.logger.Debug().Str("ticker", result.ticker).Err(result.err).Msg("Ticker omitted from batch")
			continue
		}
		quotes = append(quotes, *result.quote)
	}
	close(results)

	return quotes
}
