package screener

import (
	"context"
	"sync"

	"github.com/amarcoder01/sift/internal/interfaces"
	"github.com/amarcoder01/sift/internal/models"
)

// --- mocks ---

// mockClient is a hand-rolled MarketDataClient with injectable behavior
// and per-method call counters.
type mockClient struct {
	mu    sync.Mutex
	calls map[string]int

	listFn    func(ctx context.Context, params interfaces.ListParams) (*models.DirectoryPage, error)
	detailsFn func(ctx context.Context, ticker string) (*models.TickerDetails, error)
	minuteFn  func(ctx context.Context, ticker, date string) (*models.AggBar, error)
	dayFn     func(ctx context.Context, ticker, date string) (*models.AggBar, error)
	prevFn    func(ctx context.Context, ticker string) (*models.AggBar, error)
	groupedFn func(ctx context.Context, date string) (map[string]models.AggBar, error)
}

func newMockClient() *mockClient {
	return &mockClient{calls: make(map[string]int)}
}

func (m *mockClient) record(method string) {
	m.mu.Lock()
	m.calls[method]++
	m.mu.Unlock()
}

func (m *mockClient) callCount(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[method]
}

func (m *mockClient) totalCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0
	for _, n := range m.calls {
		total += n
	}
	return total
}

func (m *mockClient) ListTickers(ctx context.Context, opts ...interfaces.ListOption) (*models.DirectoryPage, error) {
	m.record("ListTickers")
	params := interfaces.ListParams{}
	for _, opt := range opts {
		opt(&params)
	}
	if m.listFn != nil {
		return m.listFn(ctx, params)
	}
	return &models.DirectoryPage{}, nil
}

func (m *mockClient) GetTickerDetails(ctx context.Context, ticker string) (*models.TickerDetails, error) {
	m.record("GetTickerDetails")
	if m.detailsFn != nil {
		return m.detailsFn(ctx, ticker)
	}
	return nil, nil
}

func (m *mockClient) GetLatestMinuteBar(ctx context.Context, ticker, date string) (*models.AggBar, error) {
	m.record("GetLatestMinuteBar")
	if m.minuteFn != nil {
		return m.minuteFn(ctx, ticker, date)
	}
	return nil, nil
}

func (m *mockClient) GetDayBar(ctx context.Context, ticker, date string) (*models.AggBar, error) {
	m.record("GetDayBar")
	if m.dayFn != nil {
		return m.dayFn(ctx, ticker, date)
	}
	return nil, nil
}

func (m *mockClient) GetPreviousClose(ctx context.Context, ticker string) (*models.AggBar, error) {
	m.record("GetPreviousClose")
	if m.prevFn != nil {
		return m.prevFn(ctx, ticker)
	}
	return nil, nil
}

func (m *mockClient) GetGroupedDaily(ctx context.Context, date string) (map[string]models.AggBar, error) {
	m.record("GetGroupedDaily")
	if m.groupedFn != nil {
		return m.groupedFn(ctx, date)
	}
	return map[string]models.AggBar{}, nil
}

var _ interfaces.MarketDataClient = (*mockClient)(nil)
