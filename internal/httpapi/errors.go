package httpapi

import (
	"errors"
	"net/http"

	"tradepost.org/internal/audit"
	"tradepost.org/internal/market"
)

// handleError maps the shared error taxonomy onto HTTP status codes. Unknown
// errors are reported as 500 without leaking internals.
func handleError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		stockErr *market.InsufficientStockError
		valErr   *market.ValidationError
	)
	switch {
	case errors.As(err, &valErr):
		writeError(w, r, http.StatusBadRequest, valErr.Error())
	case errors.Is(err, market.ErrUnauthorized):
		writeError(w, r, http.StatusUnauthorized, "invalid or expired session")
	case errors.Is(err, market.ErrPaymentDeclined):
		writeError(w, r, http.StatusPaymentRequired, "payment declined")
	case errors.Is(err, market.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "resource not found")
	case errors.As(err, &stockErr):
		payload := map[string]any{
			"error":     stockErr.Error(),
			"item":      stockErr.Item.String(),
			"available": stockErr.Available,
			"in_cart":   stockErr.InCart,
			"requested": stockErr.Requested,
		}
		if rid := audit.RequestIDFromContext(r.Context()); rid != "" {
			payload["request_id"] = rid
		}
		writeJSON(w, http.StatusConflict, payload)
	case errors.Is(err, market.ErrEmptyCart):
		writeError(w, r, http.StatusConflict, "cart is empty")
	case errors.Is(err, market.ErrConflict):
		writeError(w, r, http.StatusConflict, err.Error())
	case errors.Is(err, market.ErrPaymentUnavailable):
		writeError(w, r, http.StatusServiceUnavailable, "payment service unavailable")
	case errors.Is(err, market.ErrStoreUnavailable):
		writeError(w, r, http.StatusServiceUnavailable, "store unavailable")
	default:
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}

func writeError(w http.ResponseWriter, r *http.Request, code int, msg string) {
	payload := map[string]any{
		"error": msg,
	}
	if rid := audit.RequestIDFromContext(r.Context()); rid != "" {
		payload["request_id"] = rid
	}
	writeJSON(w, code, payload)
}
