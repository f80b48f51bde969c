package respond

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/corray333/storefront/internal/errs"
)

// errorResponse is the uniform error body for every API endpoint.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// WriteJSON writes a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// WriteError maps a service error to the API error taxonomy. Internal errors
// are logged with detail and returned with a generic message.
func WriteError(w http.ResponseWriter, err error) {
	var stockErr *errs.InsufficientStockError
	var providerErr *errs.ProviderError

	switch {
	case errors.Is(err, errs.ErrValidation):
		WriteJSON(w, http.StatusBadRequest, errorResponse{
			Error: err.Error(),
			Code:  "VALIDATION_ERROR",
		})
	case errors.As(err, &stockErr):
		WriteJSON(w, http.StatusBadRequest, errorResponse{
			Error: stockErr.Error(),
			Code:  "INSUFFICIENT_STOCK",
		})
	case errors.Is(err, errs.ErrProductNotFound):
		WriteJSON(w, http.StatusBadRequest, errorResponse{
			Error: err.Error(),
			Code:  "PRODUCT_NOT_FOUND",
		})
	case errors.Is(err, errs.ErrUnauthorized):
		WriteJSON(w, http.StatusUnauthorized, errorResponse{
			Error: "unauthorized",
			Code:  "UNAUTHORIZED",
		})
	case errors.Is(err, errs.ErrOrderNotFound):
		WriteJSON(w, http.StatusNotFound, errorResponse{
			Error: "not found",
			Code:  "NOT_FOUND",
		})
	case errors.As(err, &providerErr):
		slog.Error("payment provider error", "error", err)
		WriteJSON(w, http.StatusBadGateway, errorResponse{
			Error: "payment provider unavailable",
			Code:  "PAYMENT_PROVIDER_ERROR",
		})
	default:
		slog.Error("internal error", "error", err)
		WriteJSON(w, http.StatusInternalServerError, errorResponse{
			Error: "internal error",
			Code:  "INTERNAL_ERROR",
		})
	}
}
