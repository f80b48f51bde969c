package rates

import (
	"context"
	"fmt"
	"time"

	"github.com/corray333/storefront/internal/errs"
	"github.com/go-resty/resty/v2"
	"github.com/spf13/viper"
)

// Client fetches currency exchange rates from the rates API. Rates are for
// display only; stored amounts are never converted.
type Client struct {
	http *resty.Client
}

// MustNewClient creates a new rates API client.
func MustNewClient() *Client {
	baseURL := viper.GetString("rates.base_url")
	if baseURL == "" {
		panic("rates.base_url is not set in config")
	}

	return &Client{
		http: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(10 * time.Second),
	}
}

type latestResponse struct {
	Base  string             `json:"base"`
	Rates map[string]float64 `json:"rates"`
}

// Latest returns the current rates for the given base currency.
func (c *Client) Latest(ctx context.Context, base string) (map[string]float64, error) {
	var out latestResponse

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("base", base).
		SetResult(&out).
		Get("/latest")
	if err != nil {
		return nil, &errs.ProviderError{Provider: "rates", Err: err}
	}
	if resp.IsError() {
		return nil, &errs.ProviderError{
			Provider:   "rates",
			StatusCode: resp.StatusCode(),
			Err:        fmt.Errorf("latest rates rejected: %s", resp.String()),
		}
	}
	if len(out.Rates) == 0 {
		return nil, &errs.ProviderError{
			Provider: "rates",
			Err:      fmt.Errorf("empty rates response for base %s", base),
		}
	}

	return out.Rates, nil
}
