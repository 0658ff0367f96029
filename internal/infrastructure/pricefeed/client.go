package pricefeed

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	jsoniter "github.com/json-iterator/go"

	"tg_exchange/internal/domain/entity"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary //nolint:gochecknoglobals // skip

// ErrTooManyRequests — фид ответил 429, у кэша для этого отдельная ветка.
var ErrTooManyRequests = errors.New("price feed: too many requests")

// Client ходит в simple-price эндпоинт фида (coingecko-совместимый формат).
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
	}
}

type simplePriceResponse struct {
	Bitcoin  struct{ Rub float64 `json:"rub"` } `json:"bitcoin"`
	Litecoin struct{ Rub float64 `json:"rub"` } `json:"litecoin"`
}

// FetchRates возвращает курсы BTC и LTC к рублю одним запросом.
func (c *Client) FetchRates(ctx context.Context) (map[entity.Currency]float64, error) {
	query := url.Values{
		"ids":           {"bitcoin,litecoin"},
		"vs_currencies": {"rub"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+query.Encode(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("http.NewRequest: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("httpClient.Do: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, ErrTooManyRequests
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("price feed: unexpected status %d", resp.StatusCode)
	}

	var body simplePriceResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("json.Decode: %w", err)
	}

	if body.Bitcoin.Rub <= 0 || body.Litecoin.Rub <= 0 {
		return nil, fmt.Errorf("price feed: empty rates in response")
	}

	return map[entity.Currency]float64{
		entity.CurrencyBTC: body.Bitcoin.Rub,
		entity.CurrencyLTC: body.Litecoin.Rub,
	}, nil
}
