// Package screener implements the market-data aggregation and progressive
// screening engine.
package screener

import "strings"

// DefaultSector is the fallback for SIC descriptions that match no keyword
// set. Upstream data has historically defaulted these to Technology; the
// value is configurable through ScreenerConfig.DefaultSector.
const DefaultSector = "Technology"

// sectorKeywords maps each sector to the SIC-description substrings that
// select it. Order matters: earlier entries win when descriptions mention
// several industries.
var sectorKeywords = []struct {
	sector   string
	keywords []string
}{
	{"Technology", []string{"software", "computer", "semiconductor", "electronic", "internet", "data processing", "information technology", "telecom equipment"}},
	{"Healthcare", []string{"pharmaceutical", "biological", "medical", "health", "hospital", "surgical", "diagnostic", "drug"}},
	{"Financial Services", []string{"bank", "insurance", "finance", "investment", "savings", "credit", "securities", "mortgage"}},
	{"Energy", []string{"oil", "gas", "petroleum", "coal", "energy", "drilling", "pipeline"}},
	{"Consumer Cyclical", []string{"retail", "apparel", "automobile", "restaurant", "hotel", "leisure", "entertainment", "casino"}},
	{"Industrials", []string{"machinery", "construction", "aerospace", "defense", "engineering", "transportation", "trucking", "railroad", "airline"}},
	{"Basic Materials", []string{"chemical", "mining", "metal", "steel", "paper", "forest", "gold", "aluminum"}},
	{"Utilities", []string{"electric service", "water supply", "utility", "utilities", "power generation", "natural gas distribution"}},
	{"Communication Services", []string{"broadcasting", "telephone", "communication", "media", "publishing", "cable"}},
	{"Consumer Defensive", []string{"food", "beverage", "grocery", "tobacco", "household", "personal care", "agriculture"}},
	{"Real Estate", []string{"real estate", "reit", "property"}},
}

// exchangeNames maps vendor MIC codes to display names. Unrecognized codes
// pass through unchanged.
var exchangeNames = map[string]string{
	"XNAS": "NASDAQ",
	"XNYS": "NYSE",
	"ARCX": "NYSE Arca",
	"XASE": "NYSE American",
	"AMEX": "NYSE American",
	"BATS": "Cboe BZX",
	"OTC":  "OTC Markets",
}

// SectorOf maps a SIC description to a human sector via case-insensitive
// substring matching. defaultSector is returned when nothing matches; pass
// "" to use the package default.
func SectorOf(sicDescription, defaultSector string) string {
	if defaultSector == "" {
		defaultSector = DefaultSector
	}
	desc := strings.ToLower(sicDescription)
	if desc == "" {
		return defaultSector
	}
	for _, entry := range sectorKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(desc, kw) {
				return entry.sector
			}
		}
	}
	return defaultSector
}

// ExchangeOf maps a vendor exchange code to its display name.
func ExchangeOf(rawCode string) string {
	if name, ok := exchangeNames[strings.ToUpper(rawCode)]; ok {
		return name
	}
	return rawCode
}
