package product

import (
	"time"

	"github.com/corray333/storefront/internal/service/models/currency"
)

// Product represents a sellable item. Stock is never negative and is
// decremented only when a payment is confirmed, never on session creation.
type Product struct {
	ID          int64             `json:"id"`
	SellerID    int64             `json:"sellerId"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	PriceCents  int64             `json:"priceCents"`
	Currency    currency.Currency `json:"currency"`
	Stock       int               `json:"stock"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}
