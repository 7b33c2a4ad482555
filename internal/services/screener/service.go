// Package screener implements the market screening engine: daily baseline
// snapshots, progressive filtering with lazy quote hydration, full-text
// instrument search and single-quote lookups.
package screener

import (
	"context"
	"strings"
	"sync"

	"github.com/amarcoder01/sift/internal/common"
	"github.com/amarcoder01/sift/internal/interfaces"
	"github.com/amarcoder01/sift/internal/models"
)

const (
	defaultScreenLimit = 50
	maxScreenLimit     = 500
)

// Service is the screening facade. Per-ticker vendor failures never cross
// this boundary; callers see rows, warnings, or an error only when the
// baseline itself cannot be built.
type Service struct {
	client  interfaces.MarketDataClient
	builder *SnapshotBuilder
	engine  *FilterEngine
	fetcher *QuoteFetcher
	search  *SearchIndex
	logger  *common.Logger

	progressMu sync.RWMutex
	progress   interfaces.ProgressFunc

	indexMu     sync.Mutex
	indexedDate string
}

// NewService wires the screening facade from its collaborators.
func NewService(
	client interfaces.MarketDataClient,
	builder *SnapshotBuilder,
	engine *FilterEngine,
	fetcher *QuoteFetcher,
	search *SearchIndex,
	logger *common.Logger,
) *Service {
	return &Service{
		client:  client,
		builder: builder,
		engine:  engine,
		fetcher: fetcher,
		search:  search,
		logger:  logger,
	}
}

var _ interfaces.ScreenerService = (*Service)(nil)

// SetProgressFunc installs the sink for batch hydration progress events.
func (s *Service) SetProgressFunc(fn interfaces.ProgressFunc) {
	s.progressMu.Lock()
	s.progress = fn
	s.progressMu.Unlock()
}

func (s *Service) progressFunc() interfaces.ProgressFunc {
	s.progressMu.RLock()
	defer s.progressMu.RUnlock()
	return s.progress
}

// Screen applies criteria against today's baseline. An empty criteria set
// returns the first page of the baseline without any per-ticker fetches.
func (s *Service) Screen(ctx context.Context, criteria models.FilterCriteria, limit int) (*models.ScreenResult, error) {
	limit = clampLimit(limit)

	date, rows, err := s.builder.GetOrBuild(ctx)
	if err != nil {
		return nil, err
	}
	s.maybeRebuildIndex(date, rows)

	if criteria.IsEmpty() {
		return paginate(rows, limit, date, ""), nil
	}

	outcome, err := s.engine.Apply(ctx, rows, criteria, s.progressFunc())
	if err != nil {
		return nil, err
	}

	if outcome.Refreshed {
		s.builder.Replace(ctx, date, outcome.Hydrated)
	}

	return paginate(outcome.Matched, limit, date, outcome.Warning), nil
}

// LoadPage retrieves one raw directory page for cursor-driven browsing.
// Search and exchange filters are applied server-side by the vendor.
func (s *Service) LoadPage(ctx context.Context, opts ...interfaces.ListOption) (*models.DirectoryPage, error) {
	return s.client.ListTickers(ctx, opts...)
}

// Search finds instruments by ticker or name, ranked with exact symbol
// matches first. Results come from today's baseline, so known prices and
// sectors ride along for free.
func (s *Service) Search(ctx context.Context, query string) ([]models.ScreenerRow, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []models.ScreenerRow{}, nil
	}

	date, rows, err := s.builder.GetOrBuild(ctx)
	if err != nil {
		return nil, err
	}
	s.maybeRebuildIndex(date, rows)

	tickers, err := s.search.Search(query)
	if err != nil {
		s.logger.Warn().Err(err).Str("query", query).Msg("Index search failed, falling back to scan")
		return applyCheapFilters(rows, models.FilterCriteria{Search: query}), nil
	}

	byTicker := make(map[string]models.ScreenerRow, len(rows))
	for _, row := range rows {
		byTicker[row.Ticker] = row
	}

	results := make([]models.ScreenerRow, 0, len(tickers))
	for _, ticker := range tickers {
		if row, ok := byTicker[ticker]; ok {
			results = append(results, row)
		}
	}
	return results, nil
}

// Quote returns one fully hydrated quote including market cap.
func (s *Service) Quote(ctx context.Context, ticker string) (*models.Quote, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	return s.fetcher.Fetch(ctx, ticker, true)
}

// Close releases the search index.
func (s *Service) Close() error {
	return s.search.Close()
}

// maybeRebuildIndex rebuilds the search index when the baseline has rolled
// to a new trading date since the last rebuild.
func (s *Service) maybeRebuildIndex(date string, rows []models.ScreenerRow) {
	s.indexMu.Lock()
	defer s.indexMu.Unlock()
	if s.indexedDate == date {
		return
	}
	if err := s.search.Rebuild(rows); err != nil {
		s.logger.Warn().Err(err).Str("date", date).Msg("Search index rebuild failed")
		return
	}
	s.indexedDate = date
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return defaultScreenLimit
	case limit > maxScreenLimit:
		return maxScreenLimit
	default:
		return limit
	}
}

func paginate(rows []models.ScreenerRow, limit int, date, warning string) *models.ScreenResult {
	total := len(rows)
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return &models.ScreenResult{
		Rows:       rows,
		TotalCount: total,
		HasMore:    total > len(rows),
		Date:       date,
		Warning:    warning,
	}
}
