package paymentwebhook

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/corray333/storefront/internal/dal/payment"
	"github.com/corray333/storefront/internal/errs"
	"github.com/corray333/storefront/internal/service/models/order"
	"github.com/corray333/storefront/internal/service/services/ordersvc"
	"github.com/corray333/storefront/internal/transport/http/respond"
)

// SignatureHeader carries the provider's HMAC over the raw body.
const SignatureHeader = "X-Webhook-Signature"

// service is an interface for the service layer.
type service interface {
	CreateFromPayment(ctx context.Context, conf ordersvc.PaymentConfirmation) (order.Order, bool, error)
}

// verifier checks webhook delivery signatures.
type verifier interface {
	VerifySignature(body []byte, signature string) bool
}

// webhookResponse acknowledges a processed delivery.
type webhookResponse struct {
	Received bool `json:"received"`
}

// HandleWebhook handles a payment provider confirmation delivery. Replays are
// acknowledged without side effects; processing failures return 5xx so the
// provider retries.
func HandleWebhook(w http.ResponseWriter, r *http.Request, service service, verifier verifier) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		respond.WriteError(w, errs.Validation("failed to read body"))

		return
	}

	if !verifier.VerifySignature(body, r.Header.Get(SignatureHeader)) {
		slog.Warn("rejected webhook with bad signature")
		respond.WriteError(w, errs.ErrUnauthorized)

		return
	}

	ev, err := payment.ParseWebhook(body)
	if err != nil {
		respond.WriteError(w, errs.Validation("%s", err.Error()))

		return
	}

	if ev.Type != payment.EventSessionCompleted {
		slog.Info("ignoring webhook event", "type", ev.Type)
		respond.WriteJSON(w, http.StatusOK, webhookResponse{Received: true})

		return
	}

	meta, err := payment.DecodeMetadata(ev.Data.Metadata)
	if err != nil {
		respond.WriteError(w, errs.Validation("%s", err.Error()))

		return
	}

	created, isNew, err := service.CreateFromPayment(r.Context(), ordersvc.PaymentConfirmation{
		SessionID:     ev.Data.SessionID,
		PaymentIntent: ev.Data.PaymentIntent,
		Meta:          meta,
	})
	if err != nil {
		respond.WriteError(w, err)

		return
	}

	if isNew {
		slog.Info("created order from payment",
			"order_id", created.ID,
			"status", created.Status,
			"session_id", ev.Data.SessionID,
		)
	} else {
		slog.Info("acknowledged replayed webhook", "session_id", ev.Data.SessionID)
	}

	respond.WriteJSON(w, http.StatusOK, webhookResponse{Received: true})
}
