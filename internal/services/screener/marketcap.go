package screener

import (
	"context"
	"math"

	"github.com/amarcoder01/sift/internal/common"
	"github.com/amarcoder01/sift/internal/interfaces"
)

// MarketCapResult carries whatever the resolver could determine. A nil
// MarketCap means no strategy produced a usable figure; callers proceed
// without one.
type MarketCapResult struct {
	MarketCap *float64
	Sector    string
	Exchange  string
}

// MarketCapResolver produces a market capitalization for a ticker using a
// prioritized chain of strategies against the instrument-details endpoint.
type MarketCapResolver struct {
	client        interfaces.MarketDataClient
	logger        *common.Logger
	defaultSector string
}

// NewMarketCapResolver creates a resolver. defaultSector may be "" to use
// the package default.
func NewMarketCapResolver(client interfaces.MarketDataClient, logger *common.Logger, defaultSector string) *MarketCapResolver {
	return &MarketCapResolver{
		client:        client,
		logger:        logger,
		defaultSector: defaultSector,
	}
}

// Resolve never returns an error: on any upstream failure it returns an
// empty result so quote assembly can continue without market cap.
//
// Strategy order:
//  1. direct market-cap figure from instrument details (most authoritative)
//  2. weighted shares outstanding x currentPrice
//  3. share-class shares outstanding x currentPrice
//  4. none
//
// The share-count computations are approximations and require a positive
// currentPrice; pass 0 when no fresh price is available.
func (r *MarketCapResolver) Resolve(ctx context.Context, ticker string, currentPrice float64) MarketCapResult {
	details, err := r.client.GetTickerDetails(ctx, ticker)
	if err != nil || details == nil {
		r.logger.Debug().Str("ticker", ticker).Err(err).Msg("Ticker details unavailable, no market cap")
		return MarketCapResult{}
	}

	result := MarketCapResult{
		Sector:   SectorOf(details.SICDescription, r.defaultSector),
		Exchange: ExchangeOf(details.PrimaryExchange),
	}

	if cap := resolveCap(details.MarketCap, details.WeightedShares, details.ShareClassShares, currentPrice); cap > 0 {
		result.MarketCap = &cap
	}

	return result
}

// resolveCap applies the strategy chain to raw figures. Returns 0 when no
// strategy yields a positive, finite value.
func resolveCap(direct, weightedShares, shareClassShares, currentPrice float64) float64 {
	if isPositiveFinite(direct) {
		return direct
	}
	if isPositiveFinite(weightedShares) && isPositiveFinite(currentPrice) {
		return weightedShares * currentPrice
	}
	if isPositiveFinite(shareClassShares) && isPositiveFinite(currentPrice) {
		return shareClassShares * currentPrice
	}
	return 0
}

func isPositiveFinite(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}
