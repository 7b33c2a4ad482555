package screener

import (
	"context"
	"errors"
	"strings"

	"github.com/amarcoder01/sift/internal/common"
	"github.com/amarcoder01/sift/internal/interfaces"
	"github.com/amarcoder01/sift/internal/models"
)

var errAllFetchesFailed = errors.New("every quote fetch failed")

// FilterOutcome carries both the matched rows and the hydrated universe.
// Hydrated rows flow back into the daily baseline so later requests reuse
// the fetched values instead of hitting the vendor again.
type FilterOutcome struct {
	Matched  []models.ScreenerRow
	Hydrated []models.ScreenerRow
	Warning  string

	// Refreshed is true when at least one value was fetched, meaning
	// Hydrated carries values the input rows did not.
	Refreshed bool
}

// FilterEngine applies screening criteria progressively: attribute filters
// that cost nothing run first, then one lazy hydration pass per
// constrained numeric field, each bound applied before the next field is
// hydrated.
type FilterEngine struct {
	orchestrator *BatchOrchestrator
	logger       *common.Logger
	cfg          common.ScreenerConfig
}

// NewFilterEngine creates a filter engine backed by the given orchestrator.
func NewFilterEngine(orchestrator *BatchOrchestrator, logger *common.Logger, cfg common.ScreenerConfig) *FilterEngine {
	return &FilterEngine{
		orchestrator: orchestrator,
		logger:       logger,
		cfg:          cfg,
	}
}

// Apply runs criteria against the baseline rows. Stage order is volume,
// price, then market cap: each stage hydrates only the survivors still
// missing its field and applies its bound before the next stage runs, so
// rows eliminated by an earlier bound are never fetched for a later one.
// The returned Hydrated slice is the full input universe with freshly
// fetched values merged in; Matched is the subset passing every filter. A
// field whose hydration failed entirely has its bound skipped and reported
// via Warning rather than failing the screen.
func (e *FilterEngine) Apply(ctx context.Context, rows []models.ScreenerRow, criteria models.FilterCriteria, onProgress interfaces.ProgressFunc) (*FilterOutcome, error) {
	outcome := &FilterOutcome{Hydrated: rows}
	survivors := applyCheapFilters(rows, criteria)
	hydrated := rows

	stages := []struct {
		active  bool
		field   string
		missing func(models.ScreenerRow) bool
		bound   func([]models.ScreenerRow, models.FilterCriteria) []models.ScreenerRow
	}{
		{criteria.NeedsVolume(), "volume", func(r models.ScreenerRow) bool { return r.Volume == nil }, applyVolumeBound},
		{criteria.NeedsPrice(), "price", func(r models.ScreenerRow) bool { return r.Price == nil }, applyPriceBound},
	}

	for _, stage := range stages {
		if !stage.active {
			continue
		}
		missing := tickersMissing(survivors, stage.missing)
		if len(missing) > 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			// Market cap is excluded here: only its own stage pays the
			// details-endpoint cost, and only for rows still standing.
			quotes := e.orchestrator.Fetch(ctx, missing, e.batchOptions(false, onProgress))
			if len(quotes) == 0 {
				e.degrade(outcome, stage.field, len(missing))
				continue
			}
			hydrated = mergeQuotes(hydrated, quotes)
			outcome.Hydrated = hydrated
			outcome.Refreshed = true
			survivors = refreshRows(hydrated, survivors)
		}
		survivors = stage.bound(survivors, criteria)
	}

	if criteria.NeedsMarketCap() {
		var capReqs []CapRequest
		var priceless []string
		for _, row := range survivors {
			if row.MarketCap != nil {
				continue
			}
			if row.Price != nil {
				capReqs = append(capReqs, CapRequest{Ticker: row.Ticker, Price: *row.Price})
			} else {
				priceless = append(priceless, row.Ticker)
			}
		}

		skipBound := false
		if len(capReqs) > 0 || len(priceless) > 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			// Rows with a known price go straight to the details endpoint;
			// only rows missing a price too walk the full quote chain.
			caps := e.orchestrator.ResolveCaps(ctx, capReqs, e.batchOptions(false, onProgress))
			var quotes []models.Quote
			if len(priceless) > 0 {
				quotes = e.orchestrator.Fetch(ctx, priceless, e.batchOptions(true, onProgress))
			}
			if len(caps) == 0 && len(quotes) == 0 {
				e.degrade(outcome, "market_cap", len(capReqs)+len(priceless))
				skipBound = true
			} else {
				hydrated = mergeQuotes(hydrated, quotes)
				hydrated = mergeCaps(hydrated, caps)
				outcome.Hydrated = hydrated
				outcome.Refreshed = true
				survivors = refreshRows(hydrated, survivors)
			}
		}
		if !skipBound {
			survivors = applyMarketCapBound(survivors, criteria)
		}
	}

	outcome.Hydrated = hydrated
	outcome.Matched = survivors
	return outcome, nil
}

func (e *FilterEngine) batchOptions(includeMarketCap bool, onProgress interfaces.ProgressFunc) BatchOptions {
	return BatchOptions{
		BatchSize:        e.cfg.BatchSize,
		Delay:            e.cfg.GetBatchDelay(),
		IncludeMarketCap: includeMarketCap,
		OnProgress:       onProgress,
	}
}

// degrade records a field whose hydration produced no data at all. The
// field's bound is skipped so attribute matches still come back.
func (e *FilterEngine) degrade(outcome *FilterOutcome, field string, requested int) {
	ferr := &models.FilterExecutionError{Field: field, Err: errAllFetchesFailed}
	e.logger.Warn().Str("field", field).Int("requested", requested).Msg("Hydration produced no data, bound skipped")
	if outcome.Warning == "" {
		outcome.Warning = ferr.Error()
	} else {
		outcome.Warning += "; " + ferr.Error()
	}
}

// applyCheapFilters runs the filters answerable from the baseline alone.
func applyCheapFilters(rows []models.ScreenerRow, criteria models.FilterCriteria) []models.ScreenerRow {
	search := strings.ToUpper(strings.TrimSpace(criteria.Search))
	out := make([]models.ScreenerRow, 0, len(rows))

	for _, row := range rows {
		if search != "" &&
			!strings.Contains(strings.ToUpper(row.Ticker), search) &&
			!strings.Contains(strings.ToUpper(row.Name), search) {
			continue
		}
		if criteria.Sector != "" && !strings.EqualFold(row.Sector, criteria.Sector) {
			continue
		}
		if criteria.Exchange != "" && !strings.EqualFold(row.Exchange, criteria.Exchange) {
			continue
		}
		out = append(out, row)
	}

	return out
}

// tickersMissing returns the tickers among rows lacking the stage's value.
// Rows already carrying the value are never re-fetched.
func tickersMissing(rows []models.ScreenerRow, missing func(models.ScreenerRow) bool) []string {
	var out []string
	for _, row := range rows {
		if missing(row) {
			out = append(out, row.Ticker)
		}
	}
	return out
}

// refreshRows re-reads the subset's rows from the hydrated universe so
// bounds run against freshly merged values.
func refreshRows(universe, subset []models.ScreenerRow) []models.ScreenerRow {
	byTicker := make(map[string]models.ScreenerRow, len(universe))
	for _, row := range universe {
		byTicker[row.Ticker] = row
	}

	out := make([]models.ScreenerRow, 0, len(subset))
	for _, row := range subset {
		if fresh, ok := byTicker[row.Ticker]; ok {
			out = append(out, fresh)
			continue
		}
		out = append(out, row)
	}
	return out
}

// mergeQuotes overlays fetched quotes onto cloned rows. Values already
// present are only replaced by fresher quote data; nothing is ever reset
// to unknown.
func mergeQuotes(rows []models.ScreenerRow, quotes []models.Quote) []models.ScreenerRow {
	if len(quotes) == 0 {
		return rows
	}

	byTicker := make(map[string]models.Quote, len(quotes))
	for _, q := range quotes {
		byTicker[q.Ticker] = q
	}

	out := make([]models.ScreenerRow, 0, len(rows))
	for _, row := range rows {
		quote, ok := byTicker[row.Ticker]
		if !ok {
			out = append(out, row)
			continue
		}

		merged := row.Clone()
		merged.Price = models.Float64Ptr(quote.Price)
		merged.Change = models.Float64Ptr(quote.Change)
		merged.ChangePct = models.Float64Ptr(quote.ChangePct)
		merged.Volume = models.Int64Ptr(quote.Volume)
		if quote.MarketCap != nil {
			merged.MarketCap = models.Float64Ptr(*quote.MarketCap)
		}
		if quote.Sector != "" {
			merged.Sector = quote.Sector
		}
		if quote.Exchange != "" {
			merged.Exchange = quote.Exchange
		}
		out = append(out, merged)
	}

	return out
}

// mergeCaps overlays resolved market caps and attributes onto cloned rows.
func mergeCaps(rows []models.ScreenerRow, caps []CapResult) []models.ScreenerRow {
	if len(caps) == 0 {
		return rows
	}

	byTicker := make(map[string]CapResult, len(caps))
	for _, c := range caps {
		byTicker[c.Ticker] = c
	}

	out := make([]models.ScreenerRow, 0, len(rows))
	for _, row := range rows {
		res, ok := byTicker[row.Ticker]
		if !ok {
			out = append(out, row)
			continue
		}

		merged := row.Clone()
		if res.MarketCap != nil {
			merged.MarketCap = models.Float64Ptr(*res.MarketCap)
		}
		if res.Sector != "" {
			merged.Sector = res.Sector
		}
		if res.Exchange != "" {
			merged.Exchange = res.Exchange
		}
		out = append(out, merged)
	}

	return out
}

// applyVolumeBound keeps rows satisfying the volume bound. A row whose
// value for an active bound is still unknown after hydration does not
// match; unknown is never treated as zero.
func applyVolumeBound(rows []models.ScreenerRow, criteria models.FilterCriteria) []models.ScreenerRow {
	out := make([]models.ScreenerRow, 0, len(rows))
	for _, row := range rows {
		if row.Volume == nil {
			continue
		}
		if criteria.VolumeMin != nil && *row.Volume < *criteria.VolumeMin {
			continue
		}
		out = append(out, row)
	}
	return out
}

func applyPriceBound(rows []models.ScreenerRow, criteria models.FilterCriteria) []models.ScreenerRow {
	out := make([]models.ScreenerRow, 0, len(rows))
	for _, row := range rows {
		if row.Price == nil {
			continue
		}
		if criteria.PriceMin != nil && *row.Price < *criteria.PriceMin {
			continue
		}
		if criteria.PriceMax != nil && *row.Price > *criteria.PriceMax {
			continue
		}
		out = append(out, row)
	}
	return out
}

func applyMarketCapBound(rows []models.ScreenerRow, criteria models.FilterCriteria) []models.ScreenerRow {
	out := make([]models.ScreenerRow, 0, len(rows))
	for _, row := range rows {
		if row.MarketCap == nil {
			continue
		}
		// Criteria bounds are expressed in millions of dollars.
		capMillions := *row.MarketCap / 1_000_000
		if criteria.MarketCapMin != nil && capMillions < *criteria.MarketCapMin {
			continue
		}
		if criteria.MarketCapMax != nil && capMillions > *criteria.MarketCapMax {
			continue
		}
		out = append(out, row)
	}
	return out
}
