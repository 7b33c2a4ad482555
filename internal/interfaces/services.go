package interfaces

import (
	"context"

	"github.com/amarcoder01/sift/internal/models"
)

// ScreenerService is the public entry point for the screening engine.
type ScreenerService interface {
	// Screen applies filter criteria against today's snapshot, hydrating
	// only the fields the criteria constrain
	Screen(ctx context.Context, criteria models.FilterCriteria, limit int) (*models.ScreenResult, error)

	// LoadPage retrieves one directory page for cursor-driven browsing.
	// Accepts the same options as MarketDataClient.ListTickers (cursor,
	// page limit, server-side search and exchange filters)
	LoadPage(ctx context.Context, opts ...ListOption) (*models.DirectoryPage, error)

	// Search finds instruments by ticker or name
	Search(ctx context.Context, query string) ([]models.ScreenerRow, error)

	// Quote retrieves one fully hydrated quote including market cap
	Quote(ctx context.Context, ticker string) (*models.Quote, error)
}

// SnapshotCache owns the canonical daily baseline for "today". Rows are
// replaced wholesale; a Get never observes a partially hydrated row.
type SnapshotCache interface {
	// Get returns the cached rows for a trading date, if built
	Get(date string) ([]models.ScreenerRow, bool)

	// Put replaces the cached rows for a trading date
	Put(date string, rows []models.ScreenerRow)
}

// ProgressFunc receives batch progress events. Implementations must not
// block; slow consumers are the consumer's problem, not the batch's.
type ProgressFunc func(p models.BatchProgress)
