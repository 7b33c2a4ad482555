// Package polygon provides a client for the Polygon.io REST API
package polygon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/amarcoder01/sift/internal/common"
	"github.com/amarcoder01/sift/internal/interfaces"
	"github.com/amarcoder01/sift/internal/models"
)

const (
	DefaultBaseURL   = "https://api.polygon.io"
	DefaultTimeout   = 15 * time.Second
	DefaultRateLimit = 20 // requests per second

	// DefaultPageLimit is the directory page size requested from upstream.
	// The upstream may return fewer; callers follow the cursor regardless.
	DefaultPageLimit = 1000
)

// Client implements the MarketDataClient interface
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *common.Logger
	limiter    *rate.Limiter
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets the rate limit
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new Polygon client
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:  common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// APIError represents an API error
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("polygon API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// IsTransient reports whether the error is worth one retry: timeouts,
// rate-limit rejections and upstream 5xx.
func (e *APIError) IsTransient() bool {
	return e.StatusCode == http.StatusRequestTimeout ||
		e.StatusCode == http.StatusTooManyRequests ||
		e.StatusCode >= 500
}

// IsTransient classifies any error as retryable-once or not. Network
// timeouts and context deadlines count alongside transient API statuses.
func IsTransient(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.IsTransient()
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}

// get performs a rate-limited GET request. Transient upstream failures
// (timeouts, 429, 5xx) get one retry; the limiter is re-waited so the
// retry still honors the request budget.
func (c *Client) get(ctx context.Context, path string, params url.Values, result interface{}) error {
	err := c.doGet(ctx, path, params, result)
	if err != nil && IsTransient(err) && ctx.Err() == nil {
		c.logger.Debug().Str("endpoint", path).Err(err).Msg("Transient upstream error, retrying once")
		err = c.doGet(ctx, path, params, result)
	}
	return err
}

func (c *Client) doGet(ctx context.Context, path string, params url.Values, result interface{}) error {
	// Wait for rate limiter
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	// Add API key
	if params == nil {
		params = url.Values{}
	}
	params.Set("apiKey", c.apiKey)

	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	c.logger.Debug().Str("url", c.baseURL+path).Msg("Polygon API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(body),
			Endpoint:   path,
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// aggBarResponse is one bar in Polygon's compact aggregate format.
type aggBarResponse struct {
	Ticker    string  `json:"T,omitempty"`
	Open      float64 `json:"o"`
	High      float64 `json:"h"`
	Low       float64 `json:"l"`
	Close     float64 `json:"c"`
	Volume    float64 `json:"v"`
	Timestamp int64   `json:"t"` // epoch milliseconds
}

func (b aggBarResponse) toBar() models.AggBar {
	return models.AggBar{
		Ticker:    b.Ticker,
		Open:      b.Open,
		High:      b.High,
		Low:       b.Low,
		Close:     b.Close,
		Volume:    int64(b.Volume),
		Timestamp: time.UnixMilli(b.Timestamp).UTC(),
	}
}

// aggsResponse is the envelope for aggregate endpoints.
type aggsResponse struct {
	Status       string           `json:"status"`
	ResultsCount int              `json:"resultsCount"`
	Results      []aggBarResponse `json:"results"`
}

// ListTickers retrieves one page of the instrument directory.
// Paging is driven entirely by the opaque upstream cursor; page size is
// not assumed stable across calls.
func (c *Client) ListTickers(ctx context.Context, opts ...interfaces.ListOption) (*models.DirectoryPage, error) {
	p := &interfaces.ListParams{Limit: DefaultPageLimit}
	for _, opt := range opts {
		opt(p)
	}

	params := url.Values{}
	params.Set("market", "stocks")
	params.Set("active", "true")
	params.Set("limit", strconv.Itoa(p.Limit))
	if p.Search != "" {
		params.Set("search", p.Search)
	}
	if p.Exchange != "" {
		params.Set("exchange", p.Exchange)
	}
	if p.Cursor != "" {
		params.Set("cursor", p.Cursor)
	}

	var resp struct {
		Status  string `json:"status"`
		Count   int    `json:"count"`
		NextURL string `json:"next_url"`
		Results []struct {
			Ticker          string `json:"ticker"`
			Name            string `json:"name"`
			Market          string `json:"market"`
			PrimaryExchange string `json:"primary_exchange"`
			Active          bool   `json:"active"`
			SICDescription  string `json:"sic_description"`
		} `json:"results"`
	}
	if err := c.get(ctx, "/v3/reference/tickers", params, &resp); err != nil {
		return nil, err
	}

	page := &models.DirectoryPage{
		Instruments: make([]models.Instrument, 0, len(resp.Results)),
	}
	for _, r := range resp.Results {
		page.Instruments = append(page.Instruments, models.Instrument{
			Ticker:          r.Ticker,
			Name:            r.Name,
			Market:          r.Market,
			PrimaryExchange: r.PrimaryExchange,
			Active:          r.Active,
			SICDescription:  r.SICDescription,
		})
	}

	if resp.NextURL != "" {
		page.NextCursor = extractCursor(resp.NextURL)
		page.HasMore = page.NextCursor != ""
	}

	c.logger.Debug().
		Int("instruments", len(page.Instruments)).
		Bool("has_more", page.HasMore).
		Msg("Directory page retrieved")

	return page, nil
}

// extractCursor pulls the cursor parameter out of an upstream next_url.
func extractCursor(nextURL string) string {
	u, err := url.Parse(nextURL)
	if err != nil {
		return ""
	}
	return u.Query().Get("cursor")
}

// GetTickerDetails retrieves static and financial attributes for a ticker
func (c *Client) GetTickerDetails(ctx context.Context, ticker string) (*models.TickerDetails, error) {
	path := fmt.Sprintf("/v3/reference/tickers/%s", url.PathEscape(ticker))

	var resp struct {
		Status  string `json:"status"`
		Results struct {
			Ticker           string  `json:"ticker"`
			Name             string  `json:"name"`
			MarketCap        float64 `json:"market_cap"`
			WeightedShares   float64 `json:"weighted_shares_outstanding"`
			ShareClassShares float64 `json:"share_class_shares_outstanding"`
			SICDescription   string  `json:"sic_description"`
			PrimaryExchange  string  `json:"primary_exchange"`
			TotalEmployees   int     `json:"total_employees"`
			ListDate         string  `json:"list_date"`
			HomepageURL      string  `json:"homepage_url"`
			Description      string  `json:"description"`
			CurrencyName     string  `json:"currency_name"`
		} `json:"results"`
	}
	if err := c.get(ctx, path, nil, &resp); err != nil {
		return nil, err
	}

	return &models.TickerDetails{
		Ticker:           resp.Results.Ticker,
		Name:             resp.Results.Name,
		MarketCap:        resp.Results.MarketCap,
		WeightedShares:   resp.Results.WeightedShares,
		ShareClassShares: resp.Results.ShareClassShares,
		SICDescription:   resp.Results.SICDescription,
		PrimaryExchange:  resp.Results.PrimaryExchange,
		TotalEmployees:   resp.Results.TotalEmployees,
		ListDate:         resp.Results.ListDate,
		HomepageURL:      resp.Results.HomepageURL,
		Description:      resp.Results.Description,
		CurrencyName:     resp.Results.CurrencyName,
	}, nil
}

// GetLatestMinuteBar retrieves the most recent intraday minute bar for the
// given trading date. Returns (nil, nil) when no intraday data exists.
func (c *Client) GetLatestMinuteBar(ctx context.Context, ticker string, date string) (*models.AggBar, error) {
	path := fmt.Sprintf("/v2/aggs/ticker/%s/range/1/minute/%s/%s", url.PathEscape(ticker), date, date)

	params := url.Values{}
	params.Set("adjusted", "true")
	params.Set("sort", "desc")
	params.Set("limit", "1")

	var resp aggsResponse
	if err := c.get(ctx, path, params, &resp); err != nil {
		return nil, err
	}
	if resp.ResultsCount == 0 || len(resp.Results) == 0 {
		return nil, nil
	}

	bar := resp.Results[0].toBar()
	bar.Ticker = ticker
	return &bar, nil
}

// GetDayBar retrieves the daily aggregate for one calendar date.
// Returns (nil, nil) when the session has no bar (weekend, holiday).
func (c *Client) GetDayBar(ctx context.Context, ticker string, date string) (*models.AggBar, error) {
	path := fmt.Sprintf("/v2/aggs/ticker/%s/range/1/day/%s/%s", url.PathEscape(ticker), date, date)

	params := url.Values{}
	params.Set("adjusted", "true")

	var resp aggsResponse
	if err := c.get(ctx, path, params, &resp); err != nil {
		return nil, err
	}
	if resp.ResultsCount == 0 || len(resp.Results) == 0 {
		return nil, nil
	}

	bar := resp.Results[0].toBar()
	bar.Ticker = ticker
	return &bar, nil
}

// GetPreviousClose retrieves the latest completed session's OHLCV.
// Returns (nil, nil) when the upstream has no prior session for the ticker.
func (c *Client) GetPreviousClose(ctx context.Context, ticker string) (*models.AggBar, error) {
	path := fmt.Sprintf("/v2/aggs/ticker/%s/prev", url.PathEscape(ticker))

	params := url.Values{}
	params.Set("adjusted", "true")

	var resp aggsResponse
	if err := c.get(ctx, path, params, &resp); err != nil {
		return nil, err
	}
	if resp.ResultsCount == 0 || len(resp.Results) == 0 {
		return nil, nil
	}

	bar := resp.Results[0].toBar()
	bar.Ticker = ticker
	return &bar, nil
}

// GetGroupedDaily retrieves EOD bars for the entire market in a single
// call, keyed by ticker. An empty map means the date had no session.
func (c *Client) GetGroupedDaily(ctx context.Context, date string) (map[string]models.AggBar, error) {
	path := fmt.Sprintf("/v2/aggs/grouped/locale/us/market/stocks/%s", date)

	params := url.Values{}
	params.Set("adjusted", "true")

	var resp aggsResponse
	if err := c.get(ctx, path, params, &resp); err != nil {
		return nil, err
	}

	bars := make(map[string]models.AggBar, len(resp.Results))
	for _, r := range resp.Results {
		bars[r.Ticker] = r.toBar()
	}

	c.logger.Debug().Str("date", date).Int("tickers", len(bars)).Msg("Grouped daily retrieved")

	return bars, nil
}

// Ensure Client implements MarketDataClient
var _ interfaces.MarketDataClient = (*Client)(nil)
