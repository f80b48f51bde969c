package managecart

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/corray333/storefront/internal/errs"
	"github.com/corray333/storefront/internal/service/models/cart"
	"github.com/corray333/storefront/internal/transport/http/auth"
	"github.com/corray333/storefront/internal/transport/http/respond"
	"github.com/go-playground/validator/v10"
)

// service is an interface for the service layer.
type service interface {
	Get(ctx context.Context, customerID int64) ([]cart.Line, error)
	Replace(ctx context.Context, customerID int64, lines []cart.Line) error
	Clear(ctx context.Context, customerID int64) error
}

// lineInCartRequest represents one line in a cart replace request.
type lineInCartRequest struct {
	ProductID int64 `json:"productId" validate:"gt=0"`
	Quantity  int   `json:"quantity"  validate:"gt=0"`
}

// replaceCartRequest represents a cart replace request. An empty items slice
// clears the cart.
type replaceCartRequest struct {
	Items []lineInCartRequest `json:"items" validate:"dive"`
}

// Validate validates the cart replace request.
func (r *replaceCartRequest) Validate() error {
	return validator.New().Struct(r)
}

// lineInCartResponse represents one cart line in API responses.
type lineInCartResponse struct {
	ProductID int64     `json:"productId"`
	Quantity  int       `json:"quantity"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// cartResponse represents the customer's cart.
type cartResponse struct {
	Items []lineInCartResponse `json:"items"`
}

// GetCart handles the cart read request.
func GetCart(w http.ResponseWriter, r *http.Request, service service) {
	identity, ok := auth.Identity(r.Context())
	if !ok {
		respond.WriteError(w, errs.ErrUnauthorized)

		return
	}

	lines, err := service.Get(r.Context(), identity.UserID)
	if err != nil {
		respond.WriteError(w, err)

		return
	}

	items := make([]lineInCartResponse, len(lines))
	for i, line := range lines {
		items[i] = lineInCartResponse{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			UpdatedAt: line.UpdatedAt,
		}
	}

	respond.WriteJSON(w, http.StatusOK, cartResponse{Items: items})
}

// ReplaceCart handles the cart replace request.
func ReplaceCart(w http.ResponseWriter, r *http.Request, service service) {
	identity, ok := auth.Identity(r.Context())
	if !ok {
		respond.WriteError(w, errs.ErrUnauthorized)

		return
	}

	req := replaceCartRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Error decoding request body for replace cart", "error", err)
		respond.WriteError(w, errs.Validation("invalid request body"))

		return
	}

	if err := req.Validate(); err != nil {
		respond.WriteError(w, errs.Validation("%s", err.Error()))

		return
	}

	lines := make([]cart.Line, len(req.Items))
	for i, item := range req.Items {
		lines[i] = cart.Line{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		}
	}

	if err := service.Replace(r.Context(), identity.UserID, lines); err != nil {
		respond.WriteError(w, err)

		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ClearCart handles the cart clear request.
func ClearCart(w http.ResponseWriter, r *http.Request, service service) {
	identity, ok := auth.Identity(r.Context())
	if !ok {
		respond.WriteError(w, errs.ErrUnauthorized)

		return
	}

	if err := service.Clear(r.Context(), identity.UserID); err != nil {
		respond.WriteError(w, err)

		return
	}

	w.WriteHeader(http.StatusNoContent)
}
