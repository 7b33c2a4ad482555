package screener

import (
	"context"
	"math"
	"time"

	"github.com/amarcoder01/sift/internal/common"
	"github.com/amarcoder01/sift/internal/interfaces"
	"github.com/amarcoder01/sift/internal/models"
)

// fetchRichness selects how much of the fallback chain a fetch walks.
// The orchestrator's retry path is the same fetch at the cheaper level,
// which has fewer failure points.
type fetchRichness int

const (
	// richnessFull walks intraday, then daily aggregate, then previous close.
	richnessFull fetchRichness = iota
	// richnessPrevClose goes straight to the previous-close endpoint.
	richnessPrevClose
)

// QuoteFetcher retrieves a single instrument's current price, change and
// volume, preferring live intraday data while the market is open.
type QuoteFetcher struct {
	client interfaces.MarketDataClient
	caps   *MarketCapResolver
	logger *common.Logger
	now    func() time.Time // injectable clock for testing
}

// NewQuoteFetcher creates a quote fetcher.
func NewQuoteFetcher(client interfaces.MarketDataClient, caps *MarketCapResolver, logger *common.Logger) *QuoteFetcher {
	return &QuoteFetcher{
		client: client,
		caps:   caps,
		logger: logger,
		now:    time.Now,
	}
}

// Fetch retrieves a quote using the full fallback chain. The single hard
// failure mode is a missing usable price, reported as NoPriceDataError.
func (f *QuoteFetcher) Fetch(ctx context.Context, ticker string, includeMarketCap bool) (*models.Quote, error) {
	return f.fetch(ctx, ticker, includeMarketCap, richnessFull)
}

func (f *QuoteFetcher) fetch(ctx context.Context, ticker string, includeMarketCap bool, richness fetchRichness) (*models.Quote, error) {
	var (
		price       float64
		volume      int64
		change      float64
		changePct   float64
		changeKnown bool
	)

	now := f.now()
	today := common.TradingDate(now)

	if richness == richnessFull {
		// Step 1: live intraday bar, only while the market is open. A
		// closed market is expected absence, not a failure.
		if common.IsMarketOpen(now) {
			if bar, found := f.latestMinuteBar(ctx, ticker, today); found {
				price = bar.Close
				volume = bar.Volume
			}
		}

		// Step 2: today's daily aggregate. Carries the session open, so
		// change can be derived directly.
		if price <= 0 {
			if bar, found := f.dayBar(ctx, ticker, today); found {
				price = bar.Close
				volume = bar.Volume
				if bar.Open > 0 {
					change = bar.Close - bar.Open
					changePct = change / bar.Open * 100
					changeKnown = true
				}
			}
		}
	}

	// Step 3: previous completed session. With no more-recent reference
	// point, change and changePercent are reported as 0, not left unset —
	// UI consumers depend on the zero today.
	if price <= 0 {
		if bar, found := f.previousClose(ctx, ticker); found {
			price = bar.Close
			volume = bar.Volume
			change = 0
			changePct = 0
			changeKnown = true
		}
	}

	// Step 4: intraday price without a same-day open; compute change
	// against the previous close. A failure here defaults both to 0
	// rather than propagating.
	if price > 0 && !changeKnown {
		if bar, found := f.previousClose(ctx, ticker); found && bar.Close > 0 {
			change = price - bar.Close
			changePct = change / bar.Close * 100
		} else {
			change = 0
			changePct = 0
		}
	}

	if price <= 0 || math.IsInf(price, 0) || math.IsNaN(price) {
		return nil, &models.NoPriceDataError{Ticker: ticker}
	}

	quote := &models.Quote{
		Ticker:    ticker,
		Price:     price,
		Change:    change,
		ChangePct: changePct,
		Volume:    volume,
	}

	// Market cap failures are swallowed; the quote stands without one.
	if includeMarketCap && f.caps != nil {
		result := f.caps.Resolve(ctx, ticker, price)
		quote.MarketCap = result.MarketCap
		quote.Sector = result.Sector
		quote.Exchange = result.Exchange
	}

	return quote, nil
}

// latestMinuteBar returns (bar, true) only when usable intraday data
// exists. Upstream errors are logged and reported as absence so the
// fallback chain continues.
func (f *QuoteFetcher) latestMinuteBar(ctx context.Context, ticker, date string) (*models.AggBar, bool) {
	bar, err := f.client.GetLatestMinuteBar(ctx, ticker, date)
	if err != nil {
		f.logger.Debug().Str("ticker", ticker).Err(err).Msg("Intraday bar unavailable")
		return nil, false
	}
	if bar == nil || bar.Close <= 0 {
		return nil, false
	}
	return bar, true
}

func (f *QuoteFetcher) dayBar(ctx context.Context, ticker, date string) (*models.AggBar, bool) {
	bar, err := f.client.GetDayBar(ctx, ticker, date)
	if err != nil {
		f.logger.Debug().Str("ticker", ticker).Err(err).Msg("Day bar unavailable")
		return nil, false
	}
	if bar == nil || bar.Close <= 0 {
		return nil, false
	}
	return bar, true
}

func (f *QuoteFetcher) previousClose(ctx context.Context, ticker string) (*models.AggBar, bool) {
	bar, err := f.client.GetPreviousClose(ctx, ticker)
	if err != nil {
		f.logger.Debug().Str("ticker", ticker).Err(err).Msg("Previous close unavailable")
		return nil, false
	}
	if bar == nil || bar.Close <= 0 {
		return nil, false
	}
	return bar, true
}
