package screener

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amarcoder01/sift/internal/common"
	"github.com/amarcoder01/sift/internal/interfaces"
	"github.com/amarcoder01/sift/internal/models"
)

func newTestBuilder(client *mockClient, maxPages int) *SnapshotBuilder {
	builder := NewSnapshotBuilder(client, NewMemoryCache(), nil, common.NewSilentLogger(), common.ScreenerConfig{
		MaxDirectoryPages: maxPages,
	})
	builder.now = marketOpenClock
	return builder
}

// directoryOf builds a two-page listFn fixture keyed by cursor.
func directoryOf(pages map[string]*models.DirectoryPage) func(context.Context, interfaces.ListParams) (*models.DirectoryPage, error) {
	return func(_ context.Context, params interfaces.ListParams) (*models.DirectoryPage, error) {
		page, ok := pages[params.Cursor]
		if !ok {
			return nil, fmt.Errorf("unexpected cursor %q", params.Cursor)
		}
		return page, nil
	}
}

func TestSnapshotBuildAndMerge(t *testing.T) {
	client := newMockClient()
	client.listFn = directoryOf(map[string]*models.DirectoryPage{
		"": {
			Instruments: []models.Instrument{
				{Ticker: "AAPL", Name: "Apple Inc.", SICDescription: "Electronic Computers", PrimaryExchange: "XNAS"},
				{Ticker: "NEWIPO", Name: "Fresh Listing Corp", PrimaryExchange: "XNYS"},
			},
			HasMore: false,
		},
	})
	client.groupedFn = func(_ context.Context, _ string) (map[string]models.AggBar, error) {
		return map[string]models.AggBar{
			"AAPL": {Open: 100, Close: 104, Volume: 9000},
		}, nil
	}

	builder := newTestBuilder(client, 10)
	date, rows, err := builder.GetOrBuild(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "2025-06-11", date)
	require.Len(t, rows, 2)

	aapl := rows[0]
	require.NotNil(t, aapl.Price)
	assert.Equal(t, 104.0, *aapl.Price)
	require.NotNil(t, aapl.Change)
	assert.Equal(t, 4.0, *aapl.Change)
	require.NotNil(t, aapl.ChangePct)
	assert.InDelta(t, 4.0, *aapl.ChangePct, 1e-9)
	assert.Equal(t, "Technology", aapl.Sector)
	assert.Equal(t, "NASDAQ", aapl.Exchange)

	// No bar for the new listing: numeric fields stay unknown, never zero.
	ipo := rows[1]
	assert.Nil(t, ipo.Price)
	assert.Nil(t, ipo.Change)
	assert.Nil(t, ipo.Volume)
	assert.Equal(t, "NYSE", ipo.Exchange)
}

func TestSnapshotZeroOpenLeavesChangeUnknown(t *testing.T) {
	client := newMockClient()
	client.listFn = directoryOf(map[string]*models.DirectoryPage{
		"": {Instruments: []models.Instrument{{Ticker: "HALT", Name: "Halted Co"}}},
	})
	client.groupedFn = func(_ context.Context, _ string) (map[string]models.AggBar, error) {
		return map[string]models.AggBar{"HALT": {Open: 0, Close: 10, Volume: 5}}, nil
	}

	_, rows, err := newTestBuilder(client, 10).GetOrBuild(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 1)

	require.NotNil(t, rows[0].Price)
	assert.Equal(t, 10.0, *rows[0].Price)
	assert.Nil(t, rows[0].Change, "zero open makes change uncomputable, not zero")
	assert.Nil(t, rows[0].ChangePct)
}

func TestSnapshotBuiltOnce(t *testing.T) {
	client := newMockClient()
	client.listFn = directoryOf(map[string]*models.DirectoryPage{
		"": {Instruments: []models.Instrument{{Ticker: "AAPL", Name: "Apple Inc."}}},
	})
	client.groupedFn = func(_ context.Context, _ string) (map[string]models.AggBar, error) {
		return map[string]models.AggBar{"AAPL": {Open: 1, Close: 2, Volume: 3}}, nil
	}

	builder := newTestBuilder(client, 10)
	_, _, err := builder.GetOrBuild(context.Background())
	require.NoError(t, err)

	callsAfterFirst := client.totalCalls()

	_, _, err = builder.GetOrBuild(context.Background())
	require.NoError(t, err)

	assert.Equal(t, callsAfterFirst, client.totalCalls(), "second build must be served from cache")
}

func TestSnapshotCrawlFollowsCursors(t *testing.T) {
	client := newMockClient()
	client.listFn = directoryOf(map[string]*models.DirectoryPage{
		"": {
			Instruments: []models.Instrument{{Ticker: "A", Name: "A Co"}},
			NextCursor:  "page2",
			HasMore:     true,
		},
		"page2": {
			Instruments: []models.Instrument{{Ticker: "B", Name: "B Co"}},
		},
	})

	_, rows, err := newTestBuilder(client, 10).GetOrBuild(context.Background())
	require.NoError(t, err)
	assert.Len(t, rows, 2)
	assert.Equal(t, 2, client.callCount("ListTickers"))
}

func TestSnapshotTruncatedCrawlNotCached(t *testing.T) {
	endless := &models.DirectoryPage{
		Instruments: []models.Instrument{{Ticker: "X", Name: "X Co"}},
		NextCursor:  "more",
		HasMore:     true,
	}
	client := newMockClient()
	client.listFn = func(_ context.Context, _ interfaces.ListParams) (*models.DirectoryPage, error) {
		return endless, nil
	}

	builder := newTestBuilder(client, 3)

	_, rows, err := builder.GetOrBuild(context.Background())
	require.NoError(t, err)
	assert.Len(t, rows, 3, "page cap should bound the crawl")

	listCalls := client.callCount("ListTickers")

	// A truncated crawl must not become the day's baseline; the next
	// request crawls again.
	_, _, err = builder.GetOrBuild(context.Background())
	require.NoError(t, err)
	assert.Greater(t, client.callCount("ListTickers"), listCalls)
}

func TestSnapshotFirstPageFailurePropagates(t *testing.T) {
	client := newMockClient()
	client.listFn = func(_ context.Context, _ interfaces.ListParams) (*models.DirectoryPage, error) {
		return nil, errors.New("503 service unavailable")
	}

	_, _, err := newTestBuilder(client, 10).GetOrBuild(context.Background())

	var dirErr *models.DirectoryEnumerationError
	require.ErrorAs(t, err, &dirErr)
	assert.Equal(t, 0, dirErr.Page)
}

func TestSnapshotLaterPageFailureKeepsPartial(t *testing.T) {
	client := newMockClient()
	client.listFn = func(_ context.Context, params interfaces.ListParams) (*models.DirectoryPage, error) {
		if params.Cursor == "" {
			return &models.DirectoryPage{
				Instruments: []models.Instrument{{Ticker: "A", Name: "A Co"}},
				NextCursor:  "page2",
				HasMore:     true,
			}, nil
		}
		return nil, errors.New("timeout")
	}

	_, rows, err := newTestBuilder(client, 10).GetOrBuild(context.Background())
	require.NoError(t, err, "mid-crawl failure should not fail the build")
	assert.Len(t, rows, 1)
}

func TestSnapshotGroupedSteppingBack(t *testing.T) {
	// Empty grouped response for the current date falls back to the
	// previous session until bars exist.
	client := newMockClient()
	client.listFn = directoryOf(map[string]*models.DirectoryPage{
		"": {Instruments: []models.Instrument{{Ticker: "A", Name: "A Co"}}},
	})
	client.groupedFn = func(_ context.Context, date string) (map[string]models.AggBar, error) {
		if date == "2025-06-11" {
			return map[string]models.AggBar{}, nil
		}
		return map[string]models.AggBar{"A": {Open: 1, Close: 2, Volume: 3}}, nil
	}

	_, rows, err := newTestBuilder(client, 10).GetOrBuild(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.NotNil(t, rows[0].Price)
	assert.Equal(t, 2.0, *rows[0].Price)
}

func TestMemoryCacheRollover(t *testing.T) {
	cache := NewMemoryCache()

	cache.Put("2025-06-10", []models.ScreenerRow{{Ticker: "OLD"}})
	cache.Put("2025-06-11", []models.ScreenerRow{{Ticker: "NEW"}})

	if _, ok := cache.Get("2025-06-10"); ok {
		t.Error("previous date should be evicted on rollover")
	}
	rows, ok := cache.Get("2025-06-11")
	if !ok || len(rows) != 1 || rows[0].Ticker != "NEW" {
		t.Errorf("current date rows = %v, ok=%v", rows, ok)
	}
}
