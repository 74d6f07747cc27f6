// Package quote fetches spot prices for held assets from Yahoo Finance.
//
// Prices are cached per symbol for a short TTL and outgoing requests are
// rate limited. Quotes feed the dashboard valuation only and never enter a
// tax computation.
package quote

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/apperrors"
	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/model"
)

const (
	DefaultBaseURL   = "https://query1.finance.yahoo.com"
	DefaultTimeout   = 10 * time.Second
	DefaultCacheTTL  = 3 * time.Minute
	DefaultRateLimit = 5 // requests per second

	DefaultEquitySuffix = ".SA"
	DefaultCryptoSuffix = "-BRL"
)

// Provider returns the latest known price of a symbol.
type Provider interface {
	Price(ctx context.Context, symbol string, class model.AssetClass) (decimal.Decimal, error)
}

// Client is a cached, rate-limited Yahoo Finance chart client.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	cache      *cache.Cache

	equitySuffix string
	cryptoSuffix string
}

// Option configures the client.
type Option func(*Client)

// WithBaseURL overrides the Yahoo endpoint.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithCacheTTL sets how long a fetched price is reused.
func WithCacheTTL(ttl time.Duration) Option {
	return func(c *Client) {
		c.cache = cache.New(ttl, 2*ttl)
	}
}

// WithRateLimit sets the outgoing request rate.
func WithRateLimit(requestsPerSecond int) Option {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// WithSuffixes sets the ticker suffixes appended to equity/fund and crypto symbols.
func WithSuffixes(equity, crypto string) Option {
	return func(c *Client) {
		c.equitySuffix = equity
		c.cryptoSuffix = crypto
	}
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates a quote client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		cache:      cache.New(DefaultCacheTTL, 2*DefaultCacheTTL),

		equitySuffix: DefaultEquitySuffix,
		cryptoSuffix: DefaultCryptoSuffix,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Ticker maps a stored symbol to its Yahoo ticker. Symbols that already carry
// an exchange or quote-currency part are left alone.
func (c *Client) Ticker(symbol string, class model.AssetClass) string {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	switch class {
	case model.AssetClassCrypto:
		if strings.Contains(symbol, "-") {
			return symbol
		}
		return symbol + c.cryptoSuffix
	default:
		if strings.Contains(symbol, ".") {
			return symbol
		}
		return symbol + c.equitySuffix
	}
}

// Price returns the latest close of symbol. Errors wrap apperrors.ErrQuoteUnavailable.
func (c *Client) Price(ctx context.Context, symbol string, class model.AssetClass) (decimal.Decimal, error) {
	ticker := c.Ticker(symbol, class)

	if cached, ok := c.cache.Get(ticker); ok {
		if price, ok := cached.(decimal.Decimal); ok {
			return price, nil
		}
	}

	price, err := c.fetch(ctx, ticker)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s: %w", apperrors.ErrQuoteUnavailable, ticker, err)
	}

	c.cache.SetDefault(ticker, price)
	return price, nil
}

func (c *Client) fetch(ctx context.Context, ticker string) (decimal.Decimal, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return decimal.Zero, fmt.Errorf("rate limit wait: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?interval=1d&range=5d", c.baseURL, url.PathEscape(ticker))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return decimal.Zero, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return decimal.Zero, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return decimal.Zero, err
	}

	var parsed chartResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return decimal.Zero, fmt.Errorf("status %d: %w", resp.StatusCode, err)
	}
	if parsed.Chart.Error != nil {
		return decimal.Zero, fmt.Errorf("yahoo error: %s", parsed.Chart.Error.Description)
	}
	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	return latestClose(parsed)
}

// latestClose prefers the last non-null daily close and falls back to the
// regular market price from the metadata.
func latestClose(r chartResponse) (decimal.Decimal, error) {
	if len(r.Chart.Result) == 0 {
		return decimal.Zero, fmt.Errorf("no results returned")
	}
	result := r.Chart.Result[0]

	if len(result.Indicators.Quote) > 0 {
		closes := result.Indicators.Quote[0].Close
		for i := len(closes) - 1; i >= 0; i-- {
			if closes[i] != nil && *closes[i] > 0 {
				return decimal.NewFromFloat(*closes[i]).Round(8), nil
			}
		}
	}
	if result.Meta.RegularMarketPrice > 0 {
		return decimal.NewFromFloat(result.Meta.RegularMarketPrice).Round(8), nil
	}
	return decimal.Zero, fmt.Errorf("no close prices returned")
}
