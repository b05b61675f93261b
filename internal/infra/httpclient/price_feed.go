package httpclient

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/patrickmn/go-cache"

	"winloss_server/internal/domain"
)

// PriceFeed reads spot quotes from an HTTP endpoint of the form
// GET {baseURL}?symbol=EURUSD -> {"symbol":"EURUSD","price":1.0871}.
type PriceFeed struct {
	client  *resty.Client
	baseURL string
	cache   *cache.Cache
	now     func() time.Time
}

type rawQuote struct {
	Symbol string  `json:"symbol"`
	Price  float64 `json:"price"`
}

// NewPriceFeed builds the feed client. A cacheTTL of zero disables quote caching.
func NewPriceFeed(baseURL string, cacheTTL time.Duration, opts ...func(*resty.Client)) (*PriceFeed, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, fmt.Errorf("baseURL is required")
	}

	client := resty.New().
		SetHeader("Accept", "application/json").
		SetTimeout(5 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(100 * time.Millisecond)

	for _, opt := range opts {
		opt(client)
	}

	feed := &PriceFeed{
		client:  client,
		baseURL: baseURL,
		now:     func() time.Time { return time.Now().UTC() },
	}
	if cacheTTL > 0 {
		feed.cache = cache.New(cacheTTL, 2*cacheTTL)
	}
	return feed, nil
}

func (f *PriceFeed) Quote(ctx context.Context, symbol string) (domain.Quote, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return domain.Quote{}, fmt.Errorf("symbol is required")
	}

	if f.cache != nil {
		if cached, ok := f.cache.Get(symbol); ok {
			return cached.(domain.Quote), nil
		}
	}

	var payload rawQuote
	resp, err := f.client.R().
		SetContext(ctx).
		SetQueryParam("symbol", symbol).
		SetResult(&payload).
		Get(f.baseURL)
	if err != nil {
		return domain.Quote{}, fmt.Errorf("fetch quote: %w", err)
	}

	if resp.StatusCode() >= 400 {
		return domain.Quote{}, fmt.Errorf("price feed responded with status %d", resp.StatusCode())
	}
	if payload.Price <= 0 {
		return domain.Quote{}, fmt.Errorf("price feed returned no price for %s", symbol)
	}

	quote := domain.Quote{
		Symbol: symbol,
		Price:  payload.Price,
		At:     f.now(),
	}
	if f.cache != nil {
		f.cache.SetDefault(symbol, quote)
	}
	return quote, nil
}
