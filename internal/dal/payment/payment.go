package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/corray333/storefront/internal/errs"
	"github.com/go-resty/resty/v2"
	"github.com/spf13/viper"
)

// Client talks to the hosted-checkout payment provider. The provider renders
// the actual payment page; the storefront only creates sessions and consumes
// confirmation webhooks.
type Client struct {
	http          *resty.Client
	webhookSecret string
}

// MustNewClient creates a new payment provider client.
func MustNewClient() *Client {
	baseURL := viper.GetString("payment.base_url")
	if baseURL == "" {
		panic("payment.base_url is not set in config")
	}

	apiKey := os.Getenv("STOREFRONT_PAYMENT_API_KEY")
	if apiKey == "" {
		panic("STOREFRONT_PAYMENT_API_KEY is not set")
	}

	http := resty.New().
		SetBaseURL(baseURL).
		SetAuthToken(apiKey).
		SetTimeout(15 * time.Second)

	return &Client{
		http:          http,
		webhookSecret: os.Getenv("STOREFRONT_PAYMENT_WEBHOOK_SECRET"),
	}
}

// SessionLineItem is one priced line of a checkout session.
type SessionLineItem struct {
	ProductID  int64  `json:"productId"`
	Name       string `json:"name"`
	PriceCents int64  `json:"priceCents"`
	Quantity   int    `json:"quantity"`
}

// CreateSessionRequest describes a session to be hosted by the provider.
// Metadata must be sufficient to reconcile the eventual confirmation back to
// the customer and the requested lines.
type CreateSessionRequest struct {
	Currency   string            `json:"currency"`
	LineItems  []SessionLineItem `json:"lineItems"`
	SuccessURL string            `json:"successUrl"`
	CancelURL  string            `json:"cancelUrl"`
	Metadata   map[string]string `json:"metadata"`
}

// Session is the provider-hosted, time-limited payment page.
type Session struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// CreateSession creates a hosted checkout session. It has no local side
// effects: inventory and orders are untouched until the provider confirms the
// session out-of-band.
func (c *Client) CreateSession(ctx context.Context, req CreateSessionRequest) (*Session, error) {
	var session Session

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&session).
		Post("/v1/checkout/sessions")
	if err != nil {
		return nil, &errs.ProviderError{Provider: "payment", Err: err}
	}
	if resp.IsError() {
		return nil, &errs.ProviderError{
			Provider:   "payment",
			StatusCode: resp.StatusCode(),
			Err:        fmt.Errorf("create session rejected: %s", resp.String()),
		}
	}
	if session.ID == "" || session.URL == "" {
		return nil, &errs.ProviderError{
			Provider: "payment",
			Err:      fmt.Errorf("provider returned incomplete session"),
		}
	}

	return &session, nil
}

// WebhookEvent is a confirmation event pushed by the provider.
type WebhookEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		SessionID     string            `json:"sessionId"`
		PaymentIntent string            `json:"paymentIntent"`
		Metadata      map[string]string `json:"metadata"`
	} `json:"data"`
}

const EventSessionCompleted = "checkout.session.completed"

// VerifySignature checks the HMAC-SHA256 signature the provider attaches to
// webhook deliveries.
func (c *Client) VerifySignature(body []byte, signature string) bool {
	if c.webhookSecret == "" || signature == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(c.webhookSecret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(signature))
}

// ParseWebhook decodes a verified webhook body.
func ParseWebhook(body []byte) (*WebhookEvent, error) {
	var ev WebhookEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return nil, fmt.Errorf("failed to decode webhook event: %w", err)
	}

	return &ev, nil
}

// MetadataItem mirrors a checkout line inside session metadata so the webhook
// handler can rebuild the order exactly as it was paid.
type MetadataItem struct {
	ProductID  int64  `json:"productId"`
	Name       string `json:"name"`
	Quantity   int    `json:"quantity"`
	PriceCents int64  `json:"priceCents"`
}

// Metadata is the reconciliation payload carried through the provider.
type Metadata struct {
	CustomerID      int64
	CustomerEmail   string
	ShippingAddress string
	Currency        string
	Items           []MetadataItem
}

// Encode flattens Metadata into the string map the provider accepts.
func (m Metadata) Encode() (map[string]string, error) {
	items, err := json.Marshal(m.Items)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal metadata items: %w", err)
	}

	return map[string]string{
		"customerId":      strconv.FormatInt(m.CustomerID, 10),
		"customerEmail":   m.CustomerEmail,
		"shippingAddress": m.ShippingAddress,
		"currency":        m.Currency,
		"items":           string(items),
	}, nil
}

// DecodeMetadata parses the string map echoed back by the provider.
func DecodeMetadata(raw map[string]string) (Metadata, error) {
	customerID, err := strconv.ParseInt(raw["customerId"], 10, 64)
	if err != nil {
		return Metadata{}, fmt.Errorf("failed to parse customerId: %w", err)
	}

	var items []MetadataItem
	if err := json.Unmarshal([]byte(raw["items"]), &items); err != nil {
		return Metadata{}, fmt.Errorf("failed to parse metadata items: %w", err)
	}

	return Metadata{
		CustomerID:      customerID,
		CustomerEmail:   raw["customerEmail"],
		ShippingAddress: raw["shippingAddress"],
		Currency:        raw["currency"],
		Items:           items,
	}, nil
}
