package models

// FilterCriteria is a flat record of optional bounds. A nil or zero field
// means "no constraint on this dimension". Market cap bounds are expressed
// in millions of dollars, matching the UI's input units.
type FilterCriteria struct {
	Search       string   `json:"search,omitempty"`
	PriceMin     *float64 `json:"price_min,omitempty"`
	PriceMax     *float64 `json:"price_max,omitempty"`
	MarketCapMin *float64 `json:"market_cap_min,omitempty"` // millions
	MarketCapMax *float64 `json:"market_cap_max,omitempty"` // millions
	VolumeMin    *int64   `json:"volume_min,omitempty"`
	Sector       string   `json:"sector,omitempty"`
	Exchange     string   `json:"exchange,omitempty"`
}

// NeedsVolume reports whether the criteria constrain volume.
func (c FilterCriteria) NeedsVolume() bool { return c.VolumeMin != nil }

// NeedsPrice reports whether the criteria constrain price.
func (c FilterCriteria) NeedsPrice() bool { return c.PriceMin != nil || c.PriceMax != nil }

// NeedsMarketCap reports whether the criteria constrain market cap.
func (c FilterCriteria) NeedsMarketCap() bool {
	return c.MarketCapMin != nil || c.MarketCapMax != nil
}

// IsEmpty reports whether no dimension is constrained.
func (c FilterCriteria) IsEmpty() bool {
	return c.Search == "" && c.Sector == "" && c.Exchange == "" &&
		!c.NeedsVolume() && !c.NeedsPrice() && !c.NeedsMarketCap()
}

// ScreenResult is the outcome of one screening call. TotalCount is the
// pre-truncation candidate count. Warning carries a soft hydration-failure
// notice; rows are still valid for the fields that did hydrate.
type ScreenResult struct {
	Rows       []ScreenerRow `json:"rows"`
	TotalCount int           `json:"total_count"`
	HasMore    bool          `json:"has_more"`
	Date       string        `json:"date"`
	Warning    string        `json:"warning,omitempty"`
}
