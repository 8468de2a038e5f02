// Package httpapi is the REST surface of the marketplace. Buyer and seller
// endpoints live under /v1 and authenticate with opaque bearer session
// tokens; ops endpoints (health, readiness, metrics, info) are public.
package httpapi

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"tradepost.org/internal/cart"
	"tradepost.org/internal/catalog"
	"tradepost.org/internal/checkout"
	"tradepost.org/internal/feedback"
	"tradepost.org/internal/inventory"
	"tradepost.org/internal/obs"
	"tradepost.org/internal/session"
	"tradepost.org/internal/stream"
)

// ReadyProbe checks backing-store readiness (DB ping when present).
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// Config collects the collaborators the API dispatches to.
type Config struct {
	Sessions  *session.Service
	Catalog   *catalog.Service
	Inventory *inventory.Ledger
	Carts     *cart.Coordinator
	Checkout  *checkout.Orchestrator
	Feedback  *feedback.Ledger
	Events    *stream.Stream
	Ready     ReadyProbe
	Version   string
}

// API is the HTTP layer.
type API struct {
	mux       *http.ServeMux
	sessions  *session.Service
	catalog   *catalog.Service
	inventory *inventory.Ledger
	carts     *cart.Coordinator
	checkout  *checkout.Orchestrator
	feedback  *feedback.Ledger
	events    *stream.Stream
	ready     ReadyProbe
	version   string
}

func New(cfg Config) *API {
	a := &API{
		mux:       http.NewServeMux(),
		sessions:  cfg.Sessions,
		catalog:   cfg.Catalog,
		inventory: cfg.Inventory,
		carts:     cfg.Carts,
		checkout:  cfg.Checkout,
		feedback:  cfg.Feedback,
		events:    cfg.Events,
		ready:     cfg.Ready,
		version:   cfg.Version,
	}

	// ops
	a.mux.HandleFunc("GET /healthz", a.Healthz)
	a.mux.HandleFunc("GET /readyz", a.Ready)
	a.mux.HandleFunc("GET /v1/info", a.Info)
	a.mux.Handle("GET /metrics", obs.Handler())
	a.mux.HandleFunc("GET /v1/stream/purchases", a.Stream)

	// account lifecycle, both realms
	a.mux.HandleFunc("POST /v1/buyers/register", a.buyerRegister)
	a.mux.HandleFunc("POST /v1/buyers/login", a.buyerLogin)
	a.mux.HandleFunc("POST /v1/buyers/logout", a.buyerLogout)
	a.mux.HandleFunc("POST /v1/sellers/register", a.sellerRegister)
	a.mux.HandleFunc("POST /v1/sellers/login", a.sellerLogin)
	a.mux.HandleFunc("POST /v1/sellers/logout", a.sellerLogout)

	// buyer surface
	a.mux.HandleFunc("GET /v1/items/search", a.searchItems)
	a.mux.HandleFunc("GET /v1/items/{category}/{number}", a.getItem)
	a.mux.HandleFunc("GET /v1/items/{category}/{number}/rating", a.getItemRating)
	a.mux.HandleFunc("POST /v1/items/{category}/{number}/feedback", a.postFeedback)
	a.mux.HandleFunc("GET /v1/cart", a.getCart)
	a.mux.HandleFunc("POST /v1/cart/items", a.addToCart)
	a.mux.HandleFunc("POST /v1/cart/items/remove", a.removeFromCart)
	a.mux.HandleFunc("POST /v1/cart/clear", a.clearCart)
	a.mux.HandleFunc("POST /v1/cart/save", a.saveCart)
	a.mux.HandleFunc("POST /v1/purchases", a.postCheckout)
	a.mux.HandleFunc("GET /v1/purchases", a.getPurchases)
	a.mux.HandleFunc("GET /v1/sellers/{id}/rating", a.getSellerRating)

	// seller surface
	a.mux.HandleFunc("POST /v1/items", a.registerItem)
	a.mux.HandleFunc("GET /v1/sellers/me/items", a.listOwnItems)
	a.mux.HandleFunc("GET /v1/sellers/me/rating", a.getOwnRating)
	a.mux.HandleFunc("PUT /v1/items/{category}/{number}/price", a.putPrice)
	a.mux.HandleFunc("PUT /v1/items/{category}/{number}/quantity", a.putQuantity)

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	return a
}

// Handler wraps the mux with the full middleware chain.
func (a *API) Handler() http.Handler {
	h := http.Handler(a.mux)
	h = Logging(h)
	h = RequestID(h)
	h = MaxBodyBytes(h, 1<<20)
	h = RateLimit(h, 50, 25)
	h = SecurityHeaders(h)
	return obs.Instrument(h)
}

// --- ops handlers ---

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "tradepost-api",
		"version": a.version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if err := a.ready.Check(r.Context()); err != nil {
		obs.SetReady(false)
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	obs.SetReady(true)
	writeJSON(w, http.StatusOK, map[string]any{"status": "ready"})
}

func (a *API) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    "tradepost-api",
		"time":    time.Now().UTC().Format(time.RFC3339),
		"version": a.version,
	})
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	reader := http.MaxBytesReader(w, r.Body, 1<<20)
	defer reader.Close()
	dec := json.NewDecoder(reader)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			return errors.New("unexpected data after JSON body")
		}
		return err
	}
	return nil
}
