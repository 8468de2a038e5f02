package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"tradepost.org/internal/market"
)

const (
	authHeader = "Authorization"
	bearer     = "Bearer "
)

// authenticate resolves the request's bearer token to an account in the
// given realm and refreshes the session's last-active timestamp. Every
// failure mode is market.ErrUnauthorized.
func (a *API) authenticate(r *http.Request, realm market.Realm) (int64, error) {
	token, err := extractBearerToken(r.Header.Get(authHeader))
	if err != nil {
		return 0, market.ErrUnauthorized
	}
	accountID, err := a.sessions.Validate(r.Context(), token, realm)
	if err != nil {
		return 0, err
	}
	if err := a.sessions.Touch(r.Context(), token); err != nil {
		return 0, err
	}
	return accountID, nil
}

// bearerToken returns the raw token without validating it; logout needs it
// even when the session is already gone.
func bearerToken(r *http.Request) (string, error) {
	return extractBearerToken(r.Header.Get(authHeader))
}

func extractBearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", errors.New("missing bearer token")
	}
	if !strings.HasPrefix(strings.ToLower(header), strings.ToLower(bearer)) {
		return "", errors.New("invalid authorization scheme")
	}
	token := strings.TrimSpace(header[len(bearer):])
	if token == "" {
		return "", errors.New("missing bearer token")
	}
	return token, nil
}
