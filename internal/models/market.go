// Package models defines data structures for sift
package models

import (
	"time"
)

// Instrument is a single tradable security from the upstream directory.
type Instrument struct {
	Ticker          string `json:"ticker"`
	Name            string `json:"name"`
	Market          string `json:"market"`
	PrimaryExchange string `json:"primary_exchange"`
	Active          bool   `json:"active"`
	SICDescription  string `json:"sic_description,omitempty"`
}

// AggBar is one OHLCV bar from an aggregate endpoint.
type AggBar struct {
	Ticker    string    `json:"ticker,omitempty"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    int64     `json:"volume"`
	Timestamp time.Time `json:"timestamp"`
}

// TickerDetails holds per-ticker static and financial attributes.
type TickerDetails struct {
	Ticker            string  `json:"ticker"`
	Name              string  `json:"name"`
	MarketCap         float64 `json:"market_cap,omitempty"`
	WeightedShares    float64 `json:"weighted_shares_outstanding,omitempty"`
	ShareClassShares  float64 `json:"share_class_shares_outstanding,omitempty"`
	SICDescription    string  `json:"sic_description,omitempty"`
	PrimaryExchange   string  `json:"primary_exchange,omitempty"`
	TotalEmployees    int     `json:"total_employees,omitempty"`
	ListDate          string  `json:"list_date,omitempty"`
	HomepageURL       string  `json:"homepage_url,omitempty"`
	Description       string  `json:"description,omitempty"`
	CurrencyName      string  `json:"currency_name,omitempty"`
	CompositeFigi     string  `json:"composite_figi,omitempty"`
	ShareClassFigi    string  `json:"share_class_figi,omitempty"`
	RoundLot          int     `json:"round_lot,omitempty"`
	MarketCapResolved bool    `json:"-"`
}

// Quote holds the current price, change and volume for one instrument.
// Price is always a finite positive number; quotes that cannot satisfy
// that invariant are never constructed.
type Quote struct {
	Ticker    string   `json:"ticker"`
	Price     float64  `json:"price"`
	Change    float64  `json:"change"`
	ChangePct float64  `json:"change_percent"`
	Volume    int64    `json:"volume"`
	MarketCap *float64 `json:"market_cap,omitempty"`
	Sector    string   `json:"sector,omitempty"`
	Exchange  string   `json:"exchange,omitempty"`
}

// ScreenerRow is the flattened shape consumed by the UI. Nil numeric fields
// mean "not yet known", never zero.
type ScreenerRow struct {
	Ticker    string   `json:"ticker"`
	Name      string   `json:"name"`
	Price     *float64 `json:"price,omitempty"`
	Change    *float64 `json:"change,omitempty"`
	ChangePct *float64 `json:"change_percent,omitempty"`
	Volume    *int64   `json:"volume,omitempty"`
	MarketCap *float64 `json:"market_cap,omitempty"`
	Sector    string   `json:"sector,omitempty"`
	Exchange  string   `json:"exchange,omitempty"`
}

// Clone returns a copy of the row. Hydration merges into copies so cached
// rows are replaced wholesale, never mutated in place.
func (r ScreenerRow) Clone() ScreenerRow {
	out := r
	out.Price = clonePtr(r.Price)
	out.Change = clonePtr(r.Change)
	out.ChangePct = clonePtr(r.ChangePct)
	out.Volume = clonePtr(r.Volume)
	out.MarketCap = clonePtr(r.MarketCap)
	return out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Float64Ptr returns a pointer to v.
func Float64Ptr(v float64) *float64 { return &v }

// Int64Ptr returns a pointer to v.
func Int64Ptr(v int64) *int64 { return &v }

// DailySnapshot is a full-market baseline keyed by US/Eastern trading date.
type DailySnapshot struct {
	Date    string        `json:"date"`
	BuiltAt time.Time     `json:"built_at"`
	Rows    []ScreenerRow `json:"rows"`
}

// BatchProgress is emitted after each orchestrator chunk settles.
type BatchProgress struct {
	Current int    `json:"current"`
	Total   int    `json:"total"`
	Message string `json:"message"`
}

// DirectoryPage is one page of the instrument directory.
type DirectoryPage struct {
	Instruments []Instrument `json:"instruments"`
	NextCursor  string       `json:"next_cursor,omitempty"`
	HasMore     bool         `json:"has_more"`
}

// DirectoryCrawl is the result of a full directory enumeration. Truncated
// distinguishes a crawl stopped by the page cap from one that exhausted the
// cursor chain; truncated crawls must not be cached as a complete baseline.
type DirectoryCrawl struct {
	Instruments []Instrument
	Pages       int
	Truncated   bool
}
