package orderitem

import (
	"time"

	"github.com/corray333/storefront/internal/service/models/currency"
)

// OrderItem is a denormalized snapshot of a product at order time. Name and
// price are copied so historical orders stay immutable when the product record
// later changes.
type OrderItem struct {
	ID            int64             `json:"id"`
	OrderID       int64             `json:"orderId"`
	ProductID     int64             `json:"productId"`
	ProductName   string            `json:"productName"`
	Quantity      int               `json:"quantity"`
	PriceCents    int64             `json:"priceCents"`
	SubtotalCents int64             `json:"subtotalCents"`
	PriceCurrency currency.Currency `json:"priceCurrency"`
	CreatedAt     time.Time         `json:"createdAt"`
}
