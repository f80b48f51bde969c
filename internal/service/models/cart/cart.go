package cart

import "time"

// LineRequest is a checkout input line: a product reference plus a requested
// quantity. It is ephemeral and never persisted as-is.
type LineRequest struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}

// Line is one row of a server-persisted cart, scoped to a customer. Browser
// state is treated purely as a cache of these rows.
type Line struct {
	CustomerID int64     `json:"customerId"`
	ProductID  int64     `json:"productId"`
	Quantity   int       `json:"quantity"`
	UpdatedAt  time.Time `json:"updatedAt"`
}
