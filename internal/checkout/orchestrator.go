package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tradepost.org/internal/audit"
	"tradepost.org/internal/market"
	"tradepost.org/internal/obs"
	"tradepost.org/internal/stream"
)

// Authorizer is the external payment-authorization collaborator. A transport
// failure is returned as an error; a clean decline is (false, nil).
type Authorizer interface {
	Authorize(ctx context.Context, card market.PaymentCard) (bool, error)
}

// Store persists purchases. CommitPurchase must run as one failure-atomic
// unit: append every purchase record, permanently decrement stock for every
// line, and delete the buyer's whole cart (saved lines included). If any
// decrement fails the store rolls the whole thing back and returns
// market.ErrConflict.
type Store interface {
	CommitPurchase(ctx context.Context, buyerID int64, lines []market.CartLine) ([]market.PurchaseRecord, error)
	Purchases(ctx context.Context, buyerID int64) ([]market.PurchaseRecord, error)
}

// CartReader supplies the lines to purchase.
type CartReader interface {
	Cart(ctx context.Context, buyerID int64) ([]market.CartLine, error)
}

// Result summarises a successful checkout.
type Result struct {
	Records []market.PurchaseRecord `json:"records"`
	Items   int                     `json:"items"`
	Units   int64                   `json:"units"`
}

// Orchestrator drives one checkout end to end: cart load, card validation,
// external authorization, then the atomic purchase commit.
type Orchestrator struct {
	store      Store
	carts      CartReader
	authorizer Authorizer
	events     *stream.Stream
	now        func() time.Time
}

// Option configures the orchestrator.
type Option func(*Orchestrator)

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) Option {
	return func(o *Orchestrator) {
		if fn != nil {
			o.now = fn
		}
	}
}

// WithStream wires the purchase-event broadcast.
func WithStream(s *stream.Stream) Option {
	return func(o *Orchestrator) { o.events = s }
}

// NewOrchestrator constructs the purchase orchestrator.
func NewOrchestrator(store Store, carts CartReader, authorizer Authorizer, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		store:      store,
		carts:      carts,
		authorizer: authorizer,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Checkout purchases the buyer's entire cart. Declined payment, unreachable
// payment service, and mid-commit stock conflicts are all terminal for the
// call and leave cart and stock untouched.
func (o *Orchestrator) Checkout(ctx context.Context, buyerID int64, card market.PaymentCard) (*Result, error) {
	lines, err := o.carts.Cart(ctx, buyerID)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, market.ErrEmptyCart
	}

	if err := validateCard(card, o.now().UTC()); err != nil {
		return nil, err
	}

	approved, err := o.authorizer.Authorize(ctx, card)
	if err != nil {
		obs.ObserveCheckout("payment_unavailable")
		return nil, fmt.Errorf("%w: %v", market.ErrPaymentUnavailable, err)
	}
	if !approved {
		obs.ObserveCheckout("declined")
		return nil, market.ErrPaymentDeclined
	}

	records, err := o.store.CommitPurchase(ctx, buyerID, lines)
	if err != nil {
		if errors.Is(err, market.ErrConflict) {
			obs.ObserveCheckout("conflict")
		} else {
			obs.ObserveCheckout("error")
		}
		return nil, err
	}

	res := &Result{Records: records, Items: len(records)}
	for _, rec := range records {
		res.Units += rec.Qty
	}

	obs.ObserveCheckout("ok")
	_ = audit.LogEvent(ctx, "checkout.completed", map[string]any{
		"buyer_id": buyerID,
		"items":    res.Items,
		"units":    res.Units,
	})
	if o.events != nil {
		o.events.PublishPurchase(buyerID, records)
	}
	return res, nil
}

// Purchases returns the buyer's append-only purchase history.
func (o *Orchestrator) Purchases(ctx context.Context, buyerID int64) ([]market.PurchaseRecord, error) {
	return o.store.Purchases(ctx, buyerID)
}
