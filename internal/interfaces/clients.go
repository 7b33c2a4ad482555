// Package interfaces defines service contracts for sift
package interfaces

import (
	"context"

	"github.com/amarcoder01/sift/internal/models"
)

// MarketDataClient provides access to the upstream market-data provider.
// Single-bar lookups return (nil, nil) when the upstream has no data for
// the request; callers treat nil as "not available", not as failure.
type MarketDataClient interface {
	// ListTickers retrieves one page of the tradable-instrument directory
	ListTickers(ctx context.Context, opts ...ListOption) (*models.DirectoryPage, error)

	// GetTickerDetails retrieves static/financial attributes for a ticker
	GetTickerDetails(ctx context.Context, ticker string) (*models.TickerDetails, error)

	// GetLatestMinuteBar retrieves the most recent intraday minute bar
	GetLatestMinuteBar(ctx context.Context, ticker string, date string) (*models.AggBar, error)

	// GetDayBar retrieves the daily aggregate for one calendar date
	GetDayBar(ctx context.Context, ticker string, date string) (*models.AggBar, error)

	// GetPreviousClose retrieves the latest completed session's bar
	GetPreviousClose(ctx context.Context, ticker string) (*models.AggBar, error)

	// GetGroupedDaily retrieves EOD bars for the entire market in one call,
	// keyed by ticker
	GetGroupedDaily(ctx context.Context, date string) (map[string]models.AggBar, error)
}

// ListOption configures directory list requests
type ListOption func(*ListParams)

// ListParams holds directory query parameters
type ListParams struct {
	Search   string
	Exchange string
	Cursor   string
	Limit    int
}

// WithSearch sets a server-side free-text search filter
func WithSearch(search string) ListOption {
	return func(p *ListParams) {
		p.Search = search
	}
}

// WithExchange sets a server-side exchange code filter
func WithExchange(exchange string) ListOption {
	return func(p *ListParams) {
		p.Exchange = exchange
	}
}

// WithCursor resumes enumeration from an opaque upstream cursor
func WithCursor(cursor string) ListOption {
	return func(p *ListParams) {
		p.Cursor = cursor
	}
}

// WithPageLimit sets the requested page size (upstream may return fewer)
func WithPageLimit(limit int) ListOption {
	return func(p *ListParams) {
		p.Limit = limit
	}
}
