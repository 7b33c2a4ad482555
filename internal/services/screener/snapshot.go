package screener

import (
	"context"
	"sync"
	"time"

	"github.com/amarcoder01/sift/internal/common"
	"github.com/amarcoder01/sift/internal/interfaces"
	"github.com/amarcoder01/sift/internal/models"
)

// MemoryCache is a date-keyed, single-entry snapshot cache. At most one
// trading date's baseline needs to be resident; a Put for a new date
// replaces the previous day's entry wholesale.
type MemoryCache struct {
	mu   sync.RWMutex
	date string
	rows []models.ScreenerRow
}

// NewMemoryCache creates an empty snapshot cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{}
}

// Get returns the cached rows for the given date.
func (c *MemoryCache) Get(date string) ([]models.ScreenerRow, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.date != date || c.rows == nil {
		return nil, false
	}
	return c.rows, true
}

// Put replaces the cached rows. Rows are published as a whole slice, so
// concurrent readers see either the old or the new baseline, never a mix.
func (c *MemoryCache) Put(date string, rows []models.ScreenerRow) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.date = date
	c.rows = rows
}

var _ interfaces.SnapshotCache = (*MemoryCache)(nil)

// SnapshotBuilder builds and memoizes the full-market daily baseline.
// A per-ticker sweep over the whole market is too slow and too
// rate-limit-expensive to run per request; the grouped EOD endpoint
// delivers the entire market's bars in one call, with per-ticker live
// quotes reserved for requests that need intraday freshness.
type SnapshotBuilder struct {
	client        interfaces.MarketDataClient
	cache         interfaces.SnapshotCache
	store         interfaces.SnapshotStore // optional; nil disables persistence
	logger        *common.Logger
	maxPages      int
	defaultSector string
	now           func() time.Time // injectable clock for testing
}

// NewSnapshotBuilder creates a snapshot builder. store may be nil.
func NewSnapshotBuilder(
	client interfaces.MarketDataClient,
	cache interfaces.SnapshotCache,
	store interfaces.SnapshotStore,
	logger *common.Logger,
	cfg common.ScreenerConfig,
) *SnapshotBuilder {
	maxPages := cfg.MaxDirectoryPages
	if maxPages <= 0 {
		maxPages = 60
	}
	return &SnapshotBuilder{
		client:        client,
		cache:         cache,
		store:         store,
		logger:        logger,
		maxPages:      maxPages,
		defaultSector: cfg.DefaultSector,
		now:           time.Now,
	}
}

// GetOrBuild returns today's baseline rows, building them on first use.
// Cached rows are returned without upstream I/O. A crawl truncated by the
// page cap is served for this request but never cached as the day's
// baseline; a crawl stopped early by an upstream page failure is cached —
// a partial snapshot beats re-crawling on every request.
func (b *SnapshotBuilder) GetOrBuild(ctx context.Context) (string, []models.ScreenerRow, error) {
	date := common.TradingDate(b.now())

	if rows, ok := b.cache.Get(date); ok {
		return date, rows, nil
	}

	// Same-day restart: reuse the persisted baseline instead of re-crawling.
	if b.store != nil {
		if snapshot, err := b.store.Load(ctx, date); err == nil && snapshot != nil {
			b.logger.Info().Str("date", date).Int("rows", len(snapshot.Rows)).Msg("Snapshot restored from store")
			b.cache.Put(date, snapshot.Rows)
			return date, snapshot.Rows, nil
		}
	}

	start := time.Now()

	crawl, err := b.crawlDirectory(ctx)
	if err != nil {
		return "", nil, err
	}

	bars, err := b.groupedBars(ctx, date)
	if err != nil {
		return "", nil, err
	}

	rows := b.merge(crawl.Instruments, bars)

	b.logger.Info().
		Str("date", date).
		Int("instruments", len(crawl.Instruments)).
		Int("with_bars", len(bars)).
		Int("pages", crawl.Pages).
		Bool("truncated", crawl.Truncated).
		Dur("duration", time.Since(start)).
		Msg("Daily snapshot built")

	if !crawl.Truncated {
		b.cache.Put(date, rows)
		if b.store != nil {
			snapshot := &models.DailySnapshot{Date: date, BuiltAt: b.now(), Rows: rows}
			if err := b.store.Save(ctx, snapshot); err != nil {
				b.logger.Warn().Err(err).Msg("Failed to persist snapshot")
			}
		}
	}

	return date, rows, nil
}

// Replace publishes hydrated rows as the new baseline for date. Hydration
// builds new row values, so readers never observe a torn row.
func (b *SnapshotBuilder) Replace(ctx context.Context, date string, rows []models.ScreenerRow) {
	b.cache.Put(date, rows)
	if b.store != nil {
		snapshot := &models.DailySnapshot{Date: date, BuiltAt: b.now(), Rows: rows}
		if err := b.store.Save(ctx, snapshot); err != nil {
			b.logger.Warn().Err(err).Msg("Failed to persist hydrated snapshot")
		}
	}
}

// crawlDirectory follows the upstream cursor chain to enumerate the full
// instrument universe. The page cap guarantees termination even against a
// malformed cursor chain. A first-page failure fails the build; a later
// page failure stops the crawl with what was collected.
func (b *SnapshotBuilder) crawlDirectory(ctx context.Context) (*models.DirectoryCrawl, error) {
	crawl := &models.DirectoryCrawl{}
	cursor := ""

	for page := 0; page < b.maxPages; page++ {
		opts := []interfaces.ListOption{}
		if cursor != "" {
			opts = append(opts, interfaces.WithCursor(cursor))
		}

		dirPage, err := b.client.ListTickers(ctx, opts...)
		if err != nil {
			if page == 0 {
				return nil, &models.DirectoryEnumerationError{Page: page, Err: err}
			}
			b.logger.Warn().Int("page", page).Err(err).Msg("Directory crawl stopped early")
			crawl.Pages = page
			return crawl, nil
		}

		crawl.Instruments = append(crawl.Instruments, dirPage.Instruments...)
		crawl.Pages = page + 1

		if !dirPage.HasMore {
			return crawl, nil
		}
		cursor = dirPage.NextCursor
	}

	crawl.Truncated = true
	b.logger.Warn().
		Int("pages", crawl.Pages).
		Int("instruments", len(crawl.Instruments)).
		Msg("Directory crawl hit page cap")

	return crawl, nil
}

// groupedBars fetches the grouped EOD aggregate, stepping back over
// weekends and holidays until a session with bars is found.
func (b *SnapshotBuilder) groupedBars(ctx context.Context, date string) (map[string]models.AggBar, error) {
	queryDate := date
	var lastErr error

	for attempt := 0; attempt < 4; attempt++ {
		bars, err := b.client.GetGroupedDaily(ctx, queryDate)
		if err != nil {
			lastErr = err
		} else if len(bars) > 0 {
			return bars, nil
		}
		queryDate = common.PreviousTradingDate(mustParseDate(queryDate))
	}

	if lastErr != nil {
		return nil, lastErr
	}
	return map[string]models.AggBar{}, nil
}

func mustParseDate(date string) time.Time {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return time.Now().UTC()
	}
	// Noon UTC keeps the US/Eastern conversion on the same calendar day.
	return t.Add(12 * time.Hour)
}

// merge joins directory instruments with their EOD bars. Instruments
// without a bar (newly listed, illiquid) keep nil numeric fields.
func (b *SnapshotBuilder) merge(instruments []models.Instrument, bars map[string]models.AggBar) []models.ScreenerRow {
	rows := make([]models.ScreenerRow, 0, len(instruments))

	for _, inst := range instruments {
		row := models.ScreenerRow{
			Ticker:   inst.Ticker,
			Name:     inst.Name,
			Sector:   SectorOf(inst.SICDescription, b.defaultSector),
			Exchange: ExchangeOf(inst.PrimaryExchange),
		}

		if bar, ok := bars[inst.Ticker]; ok && bar.Close > 0 {
			row.Price = models.Float64Ptr(bar.Close)
			row.Volume = models.Int64Ptr(bar.Volume)
			if bar.Open > 0 {
				row.Change = models.Float64Ptr(bar.Close - bar.Open)
				row.ChangePct = models.Float64Ptr((bar.Close - bar.Open) / bar.Open * 100)
			}
		}

		rows = append(rows, row)
	}

	return rows
}
