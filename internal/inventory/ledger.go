package inventory

import (
	"context"

	"tradepost.org/internal/market"
)

// Store describes the stock/reserved mutations the ledger needs. Every
// mutation is a single conditional update serialized by the persistent
// store; none of them is a read followed by a separate write.
type Store interface {
	// Reserve bumps the reserved count only while stock-reserved >= qty.
	// Returns market.ErrConflict when the condition fails and
	// market.ErrNotFound when the item does not exist.
	Reserve(ctx context.Context, id market.ItemID, qty int64) error
	// Release is the inverse of Reserve.
	Release(ctx context.Context, id market.ItemID, qty int64) error
	// CommitDecrement permanently reduces stock together with the matching
	// reservation. Fails with market.ErrConflict when qty exceeds stock.
	CommitDecrement(ctx context.Context, id market.ItemID, qty int64) error
	// SetQuantity overwrites stock, restricted to the owning seller.
	SetQuantity(ctx context.Context, sellerID int64, id market.ItemID, qty int64) error
	// SetPrice overwrites the unit price, restricted to the owning seller.
	SetPrice(ctx context.Context, sellerID int64, id market.ItemID, priceCents int64) error
}

// Ledger is the authoritative view of stock. It validates arguments and
// delegates the atomic check-and-update to the store.
type Ledger struct {
	store Store
}

// NewLedger constructs the inventory ledger.
func NewLedger(store Store) *Ledger {
	return &Ledger{store: store}
}

// TryReserve claims qty units of an item for a cart. The claim succeeds only
// if the store's conditional update finds enough unreserved stock.
func (l *Ledger) TryReserve(ctx context.Context, id market.ItemID, qty int64) error {
	if qty <= 0 {
		return market.Invalid("quantity", "must be a positive integer")
	}
	return l.store.Reserve(ctx, id, qty)
}

// Release returns qty previously reserved units to availability.
func (l *Ledger) Release(ctx context.Context, id market.ItemID, qty int64) error {
	if qty <= 0 {
		return market.Invalid("quantity", "must be a positive integer")
	}
	return l.store.Release(ctx, id, qty)
}

// CommitDecrement converts a reservation into a sale. Only the purchase
// orchestrator calls this.
func (l *Ledger) CommitDecrement(ctx context.Context, id market.ItemID, qty int64) error {
	if qty <= 0 {
		return market.Invalid("quantity", "must be a positive integer")
	}
	return l.store.CommitDecrement(ctx, id, qty)
}

// SetQuantity overwrites an item's stock. Rejects non-positive values and
// items not owned by sellerID.
func (l *Ledger) SetQuantity(ctx context.Context, sellerID int64, id market.ItemID, qty int64) error {
	if qty <= 0 {
		return market.Invalid("quantity", "must be a positive integer")
	}
	return l.store.SetQuantity(ctx, sellerID, id, qty)
}

// SetPrice overwrites an item's unit price. Rejects non-positive values and
// items not owned by sellerID.
func (l *Ledger) SetPrice(ctx context.Context, sellerID int64, id market.ItemID, priceCents int64) error {
	if priceCents <= 0 {
		return market.Invalid("price", "must be a positive amount")
	}
	return l.store.SetPrice(ctx, sellerID, id, priceCents)
}
