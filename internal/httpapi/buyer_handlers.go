package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"tradepost.org/internal/feedback"
	"tradepost.org/internal/market"
)

type cartLineRequest struct {
	Item string `json:"item"` // "category/number"
	Qty  int64  `json:"qty"`
}

type checkoutRequest struct {
	HolderName string `json:"holder_name"`
	CardNumber string `json:"card_number"`
	Expiry     string `json:"expiry"`
	CVV        string `json:"cvv"`
}

type feedbackRequest struct {
	Feedback string `json:"feedback"` // "up" or "down"
}

func itemIDFromPath(r *http.Request) (market.ItemID, error) {
	n, err := strconv.ParseInt(r.PathValue("number"), 10, 64)
	if err != nil || n <= 0 {
		return market.ItemID{}, market.Invalid("item", "malformed item id")
	}
	return market.ItemID{Category: r.PathValue("category"), Number: n}, nil
}

func (a *API) searchItems(w http.ResponseWriter, r *http.Request) {
	if _, err := a.authenticate(r, market.RealmBuyer); err != nil {
		handleError(w, r, err)
		return
	}
	q := r.URL.Query()
	items, err := a.catalog.SearchItems(r.Context(), q.Get("category"), q["keyword"])
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items": items,
		"as_of": time.Now().UTC(),
	})
}

func (a *API) getItem(w http.ResponseWriter, r *http.Request) {
	if _, err := a.authenticate(r, market.RealmBuyer); err != nil {
		handleError(w, r, err)
		return
	}
	id, err := itemIDFromPath(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	item, err := a.catalog.GetItem(r.Context(), id)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (a *API) getCart(w http.ResponseWriter, r *http.Request) {
	buyerID, err := a.authenticate(r, market.RealmBuyer)
	if err != nil {
		handleError(w, r, err)
		return
	}
	lines, err := a.carts.Cart(r.Context(), buyerID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"lines": lines})
}

func (a *API) addToCart(w http.ResponseWriter, r *http.Request) {
	buyerID, err := a.authenticate(r, market.RealmBuyer)
	if err != nil {
		handleError(w, r, err)
		return
	}
	var req cartLineRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	id, err := market.ParseItemID(req.Item)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := a.carts.Add(r.Context(), buyerID, id, req.Qty); err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "added"})
}

func (a *API) removeFromCart(w http.ResponseWriter, r *http.Request) {
	buyerID, err := a.authenticate(r, market.RealmBuyer)
	if err != nil {
		handleError(w, r, err)
		return
	}
	var req cartLineRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	id, err := market.ParseItemID(req.Item)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := a.carts.Remove(r.Context(), buyerID, id, req.Qty); err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "removed"})
}

func (a *API) clearCart(w http.ResponseWriter, r *http.Request) {
	buyerID, err := a.authenticate(r, market.RealmBuyer)
	if err != nil {
		handleError(w, r, err)
		return
	}
	if err := a.carts.Clear(r.Context(), buyerID); err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "cleared"})
}

func (a *API) saveCart(w http.ResponseWriter, r *http.Request) {
	buyerID, err := a.authenticate(r, market.RealmBuyer)
	if err != nil {
		handleError(w, r, err)
		return
	}
	saved, err := a.carts.Save(r.Context(), buyerID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"saved_lines": saved})
}

func (a *API) postCheckout(w http.ResponseWriter, r *http.Request) {
	buyerID, err := a.authenticate(r, market.RealmBuyer)
	if err != nil {
		handleError(w, r, err)
		return
	}
	var req checkoutRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	res, err := a.checkout.Checkout(r.Context(), buyerID, market.PaymentCard{
		HolderName: req.HolderName,
		Number:     req.CardNumber,
		Expiry:     req.Expiry,
		CVV:        req.CVV,
	})
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (a *API) getPurchases(w http.ResponseWriter, r *http.Request) {
	buyerID, err := a.authenticate(r, market.RealmBuyer)
	if err != nil {
		handleError(w, r, err)
		return
	}
	records, err := a.checkout.Purchases(r.Context(), buyerID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"purchases": records})
}

func (a *API) postFeedback(w http.ResponseWriter, r *http.Request) {
	if _, err := a.authenticate(r, market.RealmBuyer); err != nil {
		handleError(w, r, err)
		return
	}
	id, err := itemIDFromPath(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	var req feedbackRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := a.feedback.RecordFeedback(r.Context(), id, feedback.Kind(req.Feedback)); err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "recorded"})
}

func (a *API) getItemRating(w http.ResponseWriter, r *http.Request) {
	if _, err := a.authenticate(r, market.RealmBuyer); err != nil {
		handleError(w, r, err)
		return
	}
	id, err := itemIDFromPath(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	rating, err := a.feedback.GetItemRating(r.Context(), id)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rating)
}

func (a *API) getSellerRating(w http.ResponseWriter, r *http.Request) {
	if _, err := a.authenticate(r, market.RealmBuyer); err != nil {
		handleError(w, r, err)
		return
	}
	sellerID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || sellerID <= 0 {
		writeError(w, r, http.StatusBadRequest, "seller id must be a positive integer")
		return
	}
	rating, err := a.feedback.GetSellerRating(r.Context(), sellerID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rating)
}
