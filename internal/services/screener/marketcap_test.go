package screener

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/amarcoder01/sift/internal/common"
	"github.com/amarcoder01/sift/internal/models"
)

func TestResolveCapStrategyOrder(t *testing.T) {
	// Direct figure wins even when share counts are present.
	if got := resolveCap(5e9, 1e8, 2e8, 10); got != 5e9 {
		t.Errorf("direct cap not preferred, got %v", got)
	}

	// Weighted shares before share-class shares.
	if got := resolveCap(0, 1e8, 2e8, 10); got != 1e9 {
		t.Errorf("weighted shares cap = %v, want 1e9", got)
	}

	// Share-class shares as last resort.
	if got := resolveCap(0, 0, 2e8, 10); got != 2e9 {
		t.Errorf("share-class cap = %v, want 2e9", got)
	}

	// Nothing usable.
	if got := resolveCap(0, 0, 0, 10); got != 0 {
		t.Errorf("empty inputs should yield 0, got %v", got)
	}
}

func TestResolveCapRejectsBadValues(t *testing.T) {
	// Share counts without a price cannot be used.
	if got := resolveCap(0, 1e8, 2e8, 0); got != 0 {
		t.Errorf("zero price should disable share strategies, got %v", got)
	}
	if got := resolveCap(-5e9, 0, 0, 10); got != 0 {
		t.Errorf("negative direct cap accepted: %v", got)
	}
	if got := resolveCap(math.NaN(), math.Inf(1), 0, 10); got != 0 {
		t.Errorf("non-finite inputs accepted: %v", got)
	}
}

func TestMarketCapResolverNeverErrors(t *testing.T) {
	client := newMockClient()
	client.detailsFn = func(_ context.Context, _ string) (*models.TickerDetails, error) {
		return nil, errors.New("upstream down")
	}

	resolver := NewMarketCapResolver(client, common.NewSilentLogger(), "")
	result := resolver.Resolve(context.Background(), "AAPL", 150)

	if result.MarketCap != nil {
		t.Errorf("failed lookup should produce nil cap, got %v", *result.MarketCap)
	}
	if result.Sector != "" || result.Exchange != "" {
		t.Errorf("failed lookup should produce empty attributes, got %+v", result)
	}
}

func TestMarketCapResolverAttributes(t *testing.T) {
	client := newMockClient()
	client.detailsFn = func(_ context.Context, _ string) (*models.TickerDetails, error) {
		return &models.TickerDetails{
			Ticker:          "AAPL",
			MarketCap:       3e12,
			SICDescription:  "Electronic Computers",
			PrimaryExchange: "XNAS",
		}, nil
	}

	resolver := NewMarketCapResolver(client, common.NewSilentLogger(), "")
	result := resolver.Resolve(context.Background(), "AAPL", 150)

	if result.MarketCap == nil || *result.MarketCap != 3e12 {
		t.Fatalf("market cap = %v, want 3e12", result.MarketCap)
	}
	if result.Sector != "Technology" {
		t.Errorf("sector = %q, want Technology", result.Sector)
	}
	if result.Exchange != "NASDAQ" {
		t.Errorf("exchange = %q, want NASDAQ", result.Exchange)
	}
}
