package httpapi

import (
	"net/http"
	"strconv"

	"tradepost.org/internal/audit"
	"tradepost.org/internal/market"
)

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

func (a *API) buyerRegister(w http.ResponseWriter, r *http.Request) {
	a.register(w, r, market.RealmBuyer)
}

func (a *API) sellerRegister(w http.ResponseWriter, r *http.Request) {
	a.register(w, r, market.RealmSeller)
}

func (a *API) register(w http.ResponseWriter, r *http.Request, realm market.Realm) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	acct, err := a.sessions.Register(r.Context(), realm, req.Username, req.Password)
	if err != nil {
		handleError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "account.register", map[string]any{
		"realm":      string(realm),
		"account_id": strconv.FormatInt(acct.ID, 10),
	})
	writeJSON(w, http.StatusCreated, acct)
}

func (a *API) buyerLogin(w http.ResponseWriter, r *http.Request) {
	a.login(w, r, market.RealmBuyer)
}

func (a *API) sellerLogin(w http.ResponseWriter, r *http.Request) {
	a.login(w, r, market.RealmSeller)
}

func (a *API) login(w http.ResponseWriter, r *http.Request, realm market.Realm) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	token, err := a.sessions.Login(r.Context(), realm, req.Username, req.Password)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{Token: token})
}

func (a *API) buyerLogout(w http.ResponseWriter, r *http.Request) {
	a.logout(w, r)
}

func (a *API) sellerLogout(w http.ResponseWriter, r *http.Request) {
	a.logout(w, r)
}

// logout revokes the presented session. Revoking an unknown or already
// expired token succeeds; logout is idempotent.
func (a *API) logout(w http.ResponseWriter, r *http.Request) {
	token, err := bearerToken(r)
	if err != nil {
		writeError(w, r, http.StatusUnauthorized, err.Error())
		return
	}
	if err := a.sessions.Revoke(r.Context(), token); err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "logged_out"})
}
