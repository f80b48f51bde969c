package createcheckout

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/corray333/storefront/internal/dal/payment"
	"github.com/corray333/storefront/internal/errs"
	"github.com/corray333/storefront/internal/service/models/cart"
	"github.com/corray333/storefront/internal/service/models/session"
	"github.com/corray333/storefront/internal/service/services/checkoutsvc"
	"github.com/corray333/storefront/internal/transport/http/auth"
	"github.com/corray333/storefront/internal/transport/http/respond"
	"github.com/go-playground/validator/v10"
)

// service is an interface for the service layer.
type service interface {
	CreateSession(
		ctx context.Context,
		identity session.Identity,
		req checkoutsvc.CreateSessionRequest,
	) (*payment.Session, error)
}

// lineInCreateSessionRequest represents one cart line in a checkout request.
type lineInCreateSessionRequest struct {
	ProductID int64 `json:"productId" validate:"gt=0"`
	Quantity  int   `json:"quantity"  validate:"gt=0"`
}

// createSessionRequest represents a checkout session request.
type createSessionRequest struct {
	Items           []lineInCreateSessionRequest `json:"items" validate:"required,min=1,dive"`
	SuccessURL      string                       `json:"successUrl"`
	CancelURL       string                       `json:"cancelUrl"`
	ShippingAddress string                       `json:"shippingAddress"`
}

// Validate validates the checkout session request.
func (r *createSessionRequest) Validate() error {
	return validator.New().Struct(r)
}

func (r *createSessionRequest) toModel() checkoutsvc.CreateSessionRequest {
	items := make([]cart.LineRequest, len(r.Items))
	for i, line := range r.Items {
		items[i] = cart.LineRequest{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
		}
	}

	return checkoutsvc.CreateSessionRequest{
		Items:           items,
		SuccessURL:      r.SuccessURL,
		CancelURL:       r.CancelURL,
		ShippingAddress: r.ShippingAddress,
	}
}

// createSessionResponse represents a created checkout session.
type createSessionResponse struct {
	Success    bool   `json:"success"`
	SessionID  string `json:"sessionId"`
	SessionURL string `json:"sessionUrl"`
}

// CreateSession handles the checkout session request.
func CreateSession(w http.ResponseWriter, r *http.Request, service service) {
	identity, ok := auth.Identity(r.Context())
	if !ok {
		respond.WriteError(w, errs.ErrUnauthorized)

		return
	}

	req := createSessionRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Error decoding request body for create session", "error", err)
		respond.WriteError(w, errs.Validation("invalid request body"))

		return
	}

	if err := req.Validate(); err != nil {
		respond.WriteError(w, errs.Validation("%s", err.Error()))

		return
	}

	created, err := service.CreateSession(r.Context(), identity, req.toModel())
	if err != nil {
		respond.WriteError(w, err)

		return
	}

	respond.WriteJSON(w, http.StatusCreated, createSessionResponse{
		Success:    true,
		SessionID:  created.ID,
		SessionURL: created.URL,
	})
}
