package market

import (
	"errors"
	"fmt"
)

// Error taxonomy shared by every component. Transport adapters map these to
// protocol status codes; the core never retries on its own.
var (
	ErrNotFound           = errors.New("market: not found")
	ErrConflict           = errors.New("market: conflict")
	ErrUnauthorized       = errors.New("market: unauthorized")
	ErrEmptyCart          = errors.New("market: cart is empty")
	ErrPaymentDeclined    = errors.New("market: payment declined")
	ErrPaymentUnavailable = errors.New("market: payment service unavailable")
	ErrStoreUnavailable   = errors.New("market: store unavailable")
)

// ValidationError reports bad input shape or range. It is recovered at the
// boundary and never reaches storage.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Invalid builds a ValidationError.
func Invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// InsufficientStockError is returned when a reservation would oversubscribe
// an item. It carries the figures the buyer needs to adjust the request.
type InsufficientStockError struct {
	Item      ItemID
	Available int64
	Requested int64
	InCart    int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: available %d, in cart %d, requested %d",
		e.Item, e.Available, e.InCart, e.Requested)
}

// Is makes the error match ErrConflict, the taxonomy kind for oversold
// inventory.
func (e *InsufficientStockError) Is(target error) bool { return target == ErrConflict }
