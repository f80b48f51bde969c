package errs

import (
	"errors"
	"fmt"
)

var (
	ErrValidation      = errors.New("validation failed")
	ErrProductNotFound = errors.New("product not found")
	ErrOrderNotFound   = errors.New("order not found")
	ErrUnauthorized    = errors.New("unauthorized")
)

// Validation wraps ErrValidation with a human-readable reason.
func Validation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// InsufficientStockError reports a checkout line that asks for more units than
// the product has available. The whole checkout attempt is rejected when any
// line fails this way.
type InsufficientStockError struct {
	ProductID int64
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf(
		"insufficient stock for product %d: requested %d, available %d",
		e.ProductID, e.Requested, e.Available,
	)
}

// ProviderError reports a failed call to an upstream provider (payment, email,
// rates). StatusCode is the upstream HTTP status, zero when the call never
// reached the provider.
type ProviderError struct {
	Provider   string
	StatusCode int
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s provider error (status %d): %v", e.Provider, e.StatusCode, e.Err)
	}

	return fmt.Sprintf("%s provider error: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}
