package order

import (
	"time"

	"github.com/corray333/storefront/internal/service/models/currency"
	"github.com/corray333/storefront/internal/service/models/orderitem"
)

// Order represents a confirmed order. Orders are created only after the
// payment provider confirms a checkout session and are never deleted;
// cancellation is a status change.
type Order struct {
	ID                    int64                 `json:"id"`
	CustomerID            int64                 `json:"customerId"`
	Status                Status                `json:"status"`
	TotalPriceCents       int64                 `json:"totalPriceCents"`
	TotalPriceCurrency    currency.Currency     `json:"totalPriceCurrency"`
	ShippingAddress       string                `json:"shippingAddress"`
	ProviderSessionID     string                `json:"providerSessionId"`
	ProviderPaymentIntent string                `json:"providerPaymentIntent"`
	CreatedAt             time.Time             `json:"createdAt"`
	UpdatedAt             time.Time             `json:"updatedAt"`
	OrderItems            []orderitem.OrderItem `json:"orderItems"`
}
