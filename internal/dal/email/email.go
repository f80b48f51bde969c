package email

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/corray333/storefront/internal/errs"
	"github.com/go-resty/resty/v2"
	"github.com/spf13/viper"
)

// Client talks to the transactional email provider. Sending the same message
// twice is acceptable; delivery retries are owned by the callers.
type Client struct {
	http *resty.Client
	from string
}

// MustNewClient creates a new email provider client.
func MustNewClient() *Client {
	baseURL := viper.GetString("email.base_url")
	if baseURL == "" {
		panic("email.base_url is not set in config")
	}

	apiKey := os.Getenv("STOREFRONT_EMAIL_API_KEY")
	if apiKey == "" {
		panic("STOREFRONT_EMAIL_API_KEY is not set")
	}

	http := resty.New().
		SetBaseURL(baseURL).
		SetAuthToken(apiKey).
		SetTimeout(10 * time.Second)

	return &Client{
		http: http,
		from: viper.GetString("email.from"),
	}
}

// Message is a plain transactional email.
type Message struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Send delivers one message through the provider.
func (c *Client) Send(ctx context.Context, msg Message) error {
	if msg.From == "" {
		msg.From = c.from
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(msg).
		Post("/v1/messages")
	if err != nil {
		return &errs.ProviderError{Provider: "email", Err: err}
	}
	if resp.IsError() {
		return &errs.ProviderError{
			Provider:   "email",
			StatusCode: resp.StatusCode(),
			Err:        fmt.Errorf("send rejected: %s", resp.String()),
		}
	}

	return nil
}

// SellerNotification asks the provider to notify a seller about an order. The
// provider resolves the seller's address; the storefront never stores it.
type SellerNotification struct {
	SellerID int64  `json:"sellerId"`
	OrderID  int64  `json:"orderId"`
	Subject  string `json:"subject"`
	Body     string `json:"body"`
}

// NotifySeller delivers a seller notification through the provider.
func (c *Client) NotifySeller(ctx context.Context, n SellerNotification) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(n).
		Post("/v1/seller-notifications")
	if err != nil {
		return &errs.ProviderError{Provider: "email", Err: err}
	}
	if resp.IsError() {
		return &errs.ProviderError{
			Provider:   "email",
			StatusCode: resp.StatusCode(),
			Err:        fmt.Errorf("seller notification rejected: %s", resp.String()),
		}
	}

	return nil
}
