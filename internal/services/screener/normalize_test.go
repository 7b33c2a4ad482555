package screener

import "testing"

func TestSectorOf(t *testing.T) {
	tests := []struct {
		desc     string
		expected string
	}{
		{"Services-Prepackaged Software", "Technology"},
		{"Semiconductors & Related Devices", "Technology"},
		{"Pharmaceutical Preparations", "Healthcare"},
		{"National Commercial Banks", "Financial Services"},
		{"Crude Petroleum & Natural Gas", "Energy"},
		{"Retail-Eating Places", "Consumer Cyclical"},
		{"Aircraft & Aerospace", "Industrials"},
		{"Gold Mining", "Basic Materials"},
		{"Electric Services", "Utilities"},
		{"Television Broadcasting Stations", "Communication Services"},
		{"Beverages", "Consumer Defensive"},
		{"Real Estate Investment Trusts", "Real Estate"},
	}

	for _, tt := range tests {
		if got := SectorOf(tt.desc, ""); got != tt.expected {
			t.Errorf("SectorOf(%q) = %q, want %q", tt.desc, got, tt.expected)
		}
	}
}

func TestSectorOfCaseInsensitive(t *testing.T) {
	if got := SectorOf("PHARMACEUTICAL PREPARATIONS", ""); got != "Healthcare" {
		t.Errorf("uppercase description not matched, got %q", got)
	}
}

func TestSectorOfDefault(t *testing.T) {
	if got := SectorOf("Blank Checks", ""); got != DefaultSector {
		t.Errorf("unmatched description = %q, want package default %q", got, DefaultSector)
	}
	if got := SectorOf("", ""); got != DefaultSector {
		t.Errorf("empty description = %q, want package default %q", got, DefaultSector)
	}
	if got := SectorOf("Blank Checks", "Unknown"); got != "Unknown" {
		t.Errorf("configured default not honored, got %q", got)
	}
}

func TestExchangeOf(t *testing.T) {
	tests := []struct {
		code     string
		expected string
	}{
		{"XNAS", "NASDAQ"},
		{"xnas", "NASDAQ"},
		{"XNYS", "NYSE"},
		{"ARCX", "NYSE Arca"},
		{"XASE", "NYSE American"},
		{"AMEX", "NYSE American"},
		{"BATS", "Cboe BZX"},
		{"OTC", "OTC Markets"},
		{"XTKS", "XTKS"}, // unrecognized codes pass through
		{"", ""},
	}

	for _, tt := range tests {
		if got := ExchangeOf(tt.code); got != tt.expected {
			t.Errorf("ExchangeOf(%q) = %q, want %q", tt.code, got, tt.expected)
		}
	}
}
