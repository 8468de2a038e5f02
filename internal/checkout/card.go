package checkout

import (
	"strconv"
	"strings"
	"time"

	"tradepost.org/internal/market"
)

// validateCard checks payment fields before any external call is made.
// Shape-level only: whether the card is real is the authorizer's problem.
func validateCard(card market.PaymentCard, now time.Time) error {
	if strings.TrimSpace(card.HolderName) == "" {
		return market.Invalid("holder_name", "must not be empty")
	}
	number := strings.ReplaceAll(card.Number, " ", "")
	if !isDigits(number) || len(number) < 13 || len(number) > 19 {
		return market.Invalid("card_number", "must be 13-19 digits")
	}
	if !isDigits(card.CVV) || len(card.CVV) < 3 || len(card.CVV) > 4 {
		return market.Invalid("cvv", "must be 3-4 digits")
	}
	if err := validateExpiry(card.Expiry, now); err != nil {
		return err
	}
	return nil
}

func validateExpiry(expiry string, now time.Time) error {
	mm, yy, ok := strings.Cut(expiry, "/")
	if !ok || len(mm) != 2 || len(yy) != 2 || !isDigits(mm) || !isDigits(yy) {
		return market.Invalid("expiry", "must be MM/YY")
	}
	month, _ := strconv.Atoi(mm)
	year, _ := strconv.Atoi(yy)
	if month < 1 || month > 12 {
		return market.Invalid("expiry", "month out of range")
	}
	// Card expires at the end of its month.
	expires := time.Date(2000+year, time.Month(month), 1, 0, 0, 0, 0, time.UTC).
		AddDate(0, 1, 0)
	if !now.Before(expires) {
		return market.Invalid("expiry", "card has expired")
	}
	return nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
