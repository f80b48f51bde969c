package getorder

import (
	"context"
	"net/http"
	"strconv"

	"github.com/corray333/storefront/internal/errs"
	"github.com/corray333/storefront/internal/service/models/order"
	"github.com/corray333/storefront/internal/transport/http/auth"
	"github.com/corray333/storefront/internal/transport/http/converters"
	"github.com/corray333/storefront/internal/transport/http/respond"
	"github.com/go-chi/chi/v5"
)

// service is an interface for the service layer.
type service interface {
	GetOrder(ctx context.Context, customerID int64, orderID int64) (*order.Order, error)
}

// GetOrder handles the single order request. Orders belonging to another
// customer are indistinguishable from missing ones.
func GetOrder(w http.ResponseWriter, r *http.Request, service service) {
	identity, ok := auth.Identity(r.Context())
	if !ok {
		respond.WriteError(w, errs.ErrUnauthorized)

		return
	}

	orderID, err := strconv.ParseInt(chi.URLParam(r, "orderID"), 10, 64)
	if err != nil || orderID <= 0 {
		respond.WriteError(w, errs.ErrOrderNotFound)

		return
	}

	found, err := service.GetOrder(r.Context(), identity.UserID, orderID)
	if err != nil {
		respond.WriteError(w, err)

		return
	}

	respond.WriteJSON(w, http.StatusOK, converters.ToOrderResponse(*found))
}
