package listorders

import (
	"context"
	"net/http"
	"strconv"

	"github.com/corray333/storefront/internal/errs"
	"github.com/corray333/storefront/internal/service/models/order"
	"github.com/corray333/storefront/internal/transport/http/auth"
	"github.com/corray333/storefront/internal/transport/http/converters"
	"github.com/corray333/storefront/internal/transport/http/respond"
)

// service is an interface for the service layer.
type service interface {
	GetOrders(ctx context.Context, customerID int64, limit, offset int) ([]order.Order, error)
}

// listOrdersResponse represents the customer's order listing.
type listOrdersResponse struct {
	Orders []converters.OrderResponse `json:"orders"`
}

// ListOrders handles the order listing request.
func ListOrders(w http.ResponseWriter, r *http.Request, service service) {
	identity, ok := auth.Identity(r.Context())
	if !ok {
		respond.WriteError(w, errs.ErrUnauthorized)

		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	orders, err := service.GetOrders(r.Context(), identity.UserID, limit, offset)
	if err != nil {
		respond.WriteError(w, err)

		return
	}

	respond.WriteJSON(w, http.StatusOK, listOrdersResponse{
		Orders: converters.ToOrderResponses(orders),
	})
}
