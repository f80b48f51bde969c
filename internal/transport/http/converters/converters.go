package converters

import (
	"time"

	"github.com/corray333/storefront/internal/service/models/order"
	"github.com/corray333/storefront/internal/service/models/orderitem"
	"github.com/corray333/storefront/internal/service/models/product"
)

// OrderItemResponse represents an order item in API responses.
type OrderItemResponse struct {
	ID            int64  `json:"id"`
	ProductID     int64  `json:"productId"`
	ProductName   string `json:"productName"`
	Quantity      int    `json:"quantity"`
	PriceCents    int64  `json:"priceCents"`
	SubtotalCents int64  `json:"subtotalCents"`
	PriceCurrency string `json:"priceCurrency"`
}

// OrderResponse represents an order in API responses.
type OrderResponse struct {
	ID                 int64               `json:"id"`
	Status             string              `json:"status"`
	TotalPriceCents    int64               `json:"totalPriceCents"`
	TotalPriceCurrency string              `json:"totalPriceCurrency"`
	ShippingAddress    string              `json:"shippingAddress"`
	CreatedAt          time.Time           `json:"createdAt"`
	OrderItems         []OrderItemResponse `json:"orderItems"`
}

// ToOrderItemResponse converts an order item model to its API representation.
func ToOrderItemResponse(item orderitem.OrderItem) OrderItemResponse {
	return OrderItemResponse{
		ID:            item.ID,
		ProductID:     item.ProductID,
		ProductName:   item.ProductName,
		Quantity:      item.Quantity,
		PriceCents:    item.PriceCents,
		SubtotalCents: item.SubtotalCents,
		PriceCurrency: item.PriceCurrency.String(),
	}
}

// ToOrderResponse converts an order model to its API representation.
func ToOrderResponse(o order.Order) OrderResponse {
	items := make([]OrderItemResponse, len(o.OrderItems))
	for i, item := range o.OrderItems {
		items[i] = ToOrderItemResponse(item)
	}

	return OrderResponse{
		ID:                 o.ID,
		Status:             o.Status.String(),
		TotalPriceCents:    o.TotalPriceCents,
		TotalPriceCurrency: o.TotalPriceCurrency.String(),
		ShippingAddress:    o.ShippingAddress,
		CreatedAt:          o.CreatedAt,
		OrderItems:         items,
	}
}

// ToOrderResponses converts a slice of order models.
func ToOrderResponses(orders []order.Order) []OrderResponse {
	out := make([]OrderResponse, len(orders))
	for i, o := range orders {
		out[i] = ToOrderResponse(o)
	}

	return out
}

// ProductResponse represents a product in the public listing.
type ProductResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	PriceCents  int64  `json:"priceCents"`
	Currency    string `json:"currency"`
	Stock       int    `json:"stock"`
}

// ToProductResponse converts a product model to its API representation.
func ToProductResponse(p product.Product) ProductResponse {
	return ProductResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		PriceCents:  p.PriceCents,
		Currency:    p.Currency.String(),
		Stock:       p.Stock,
	}
}

// ToProductResponses converts a slice of product models.
func ToProductResponses(products []product.Product) []ProductResponse {
	out := make([]ProductResponse, len(products))
	for i, p := range products {
		out[i] = ToProductResponse(p)
	}

	return out
}
