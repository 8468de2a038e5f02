package httpapi

import (
	"net/http"
	"strconv"

	"tradepost.org/internal/audit"
	"tradepost.org/internal/market"
)

type registerItemRequest struct {
	Name       string   `json:"name"`
	Category   string   `json:"category"`
	Condition  string   `json:"condition"`
	PriceCents int64    `json:"price_cents"`
	Quantity   int64    `json:"quantity"`
	Keywords   []string `json:"keywords"`
}

type priceRequest struct {
	PriceCents int64 `json:"price_cents"`
}

type quantityRequest struct {
	Quantity int64 `json:"quantity"`
}

func (a *API) registerItem(w http.ResponseWriter, r *http.Request) {
	sellerID, err := a.authenticate(r, market.RealmSeller)
	if err != nil {
		handleError(w, r, err)
		return
	}
	var req registerItemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	item, err := a.catalog.RegisterItem(r.Context(), sellerID, req.Name, req.Category,
		market.Condition(req.Condition), req.PriceCents, req.Quantity, req.Keywords)
	if err != nil {
		handleError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "item.register", map[string]any{
		"seller_id": strconv.FormatInt(sellerID, 10),
		"item":      item.ID.String(),
	})
	w.Header().Set("Location", "/v1/items/"+item.ID.String())
	writeJSON(w, http.StatusCreated, item)
}

func (a *API) listOwnItems(w http.ResponseWriter, r *http.Request) {
	sellerID, err := a.authenticate(r, market.RealmSeller)
	if err != nil {
		handleError(w, r, err)
		return
	}
	items, err := a.catalog.SellerItems(r.Context(), sellerID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (a *API) putPrice(w http.ResponseWriter, r *http.Request) {
	sellerID, err := a.authenticate(r, market.RealmSeller)
	if err != nil {
		handleError(w, r, err)
		return
	}
	id, err := itemIDFromPath(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	var req priceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := a.inventory.SetPrice(r.Context(), sellerID, id, req.PriceCents); err != nil {
		handleError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "item.set_price", map[string]any{
		"seller_id":   strconv.FormatInt(sellerID, 10),
		"item":        id.String(),
		"price_cents": strconv.FormatInt(req.PriceCents, 10),
	})
	writeJSON(w, http.StatusOK, map[string]any{"status": "updated"})
}

func (a *API) putQuantity(w http.ResponseWriter, r *http.Request) {
	sellerID, err := a.authenticate(r, market.RealmSeller)
	if err != nil {
		handleError(w, r, err)
		return
	}
	id, err := itemIDFromPath(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	var req quantityRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := a.inventory.SetQuantity(r.Context(), sellerID, id, req.Quantity); err != nil {
		handleError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "item.set_quantity", map[string]any{
		"seller_id": strconv.FormatInt(sellerID, 10),
		"item":      id.String(),
		"quantity":  strconv.FormatInt(req.Quantity, 10),
	})
	writeJSON(w, http.StatusOK, map[string]any{"status": "updated"})
}

func (a *API) getOwnRating(w http.ResponseWriter, r *http.Request) {
	sellerID, err := a.authenticate(r, market.RealmSeller)
	if err != nil {
		handleError(w, r, err)
		return
	}
	rating, err := a.feedback.GetSellerRating(r.Context(), sellerID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rating)
}
