package cart

import (
	"context"
	"errors"
	"fmt"

	"tradepost.org/internal/market"
	"tradepost.org/internal/obs"
)

// Store persists cart lines. All quantity arguments are positive; the
// coordinator validates before calling.
type Store interface {
	// UpsertLine creates the line or adds qty to it, clearing the saved flag.
	UpsertLine(ctx context.Context, buyerID int64, id market.ItemID, qty int64) error
	// GetLine returns the line or market.ErrNotFound.
	GetLine(ctx context.Context, buyerID int64, id market.ItemID) (*market.CartLine, error)
	// DecrementLine subtracts qty, deleting the line when it reaches zero and
	// clearing the saved flag otherwise.
	DecrementLine(ctx context.Context, buyerID int64, id market.ItemID, qty int64) error
	DeleteLine(ctx context.Context, buyerID int64, id market.ItemID) error
	ListLines(ctx context.Context, buyerID int64) ([]market.CartLine, error)
	// MarkSaved flags every line of the buyer and reports how many.
	MarkSaved(ctx context.Context, buyerID int64) (int64, error)
	DeleteLines(ctx context.Context, buyerID int64) error
}

// ItemReader is the slice of the catalog the coordinator needs to build
// insufficient-stock errors with real figures.
type ItemReader interface {
	GetItem(ctx context.Context, id market.ItemID) (*market.Item, error)
}

// Ledger is the inventory surface the coordinator drives.
type Ledger interface {
	TryReserve(ctx context.Context, id market.ItemID, qty int64) error
	Release(ctx context.Context, id market.ItemID, qty int64) error
}

// Coordinator stages cart lines for buyers, reserving stock against the
// inventory ledger before any line is written.
type Coordinator struct {
	store  Store
	ledger Ledger
	items  ItemReader
}

// NewCoordinator constructs the cart coordinator.
func NewCoordinator(store Store, ledger Ledger, items ItemReader) *Coordinator {
	return &Coordinator{store: store, ledger: ledger, items: items}
}

// Add reserves qty units and upserts the cart line. New activity clears the
// line's saved flag. On insufficient stock the returned error reports
// available vs requested vs already-in-cart quantities.
func (c *Coordinator) Add(ctx context.Context, buyerID int64, id market.ItemID, qty int64) error {
	if qty <= 0 {
		return market.Invalid("quantity", "must be a positive integer")
	}
	if err := c.ledger.TryReserve(ctx, id, qty); err != nil {
		if errors.Is(err, market.ErrConflict) {
			obs.ObserveReservation("denied")
			return c.insufficientErr(ctx, buyerID, id, qty)
		}
		return err
	}
	obs.ObserveReservation("granted")
	if err := c.store.UpsertLine(ctx, buyerID, id, qty); err != nil {
		// Hand the reservation back so the claim does not leak.
		_ = c.ledger.Release(ctx, id, qty)
		return err
	}
	return nil
}

// Remove releases qty units and decrements the line, deleting it at zero.
func (c *Coordinator) Remove(ctx context.Context, buyerID int64, id market.ItemID, qty int64) error {
	if qty <= 0 {
		return market.Invalid("quantity", "must be a positive integer")
	}
	line, err := c.store.GetLine(ctx, buyerID, id)
	if err != nil {
		return err
	}
	if qty > line.Qty {
		return market.Invalid("quantity",
			fmt.Sprintf("cannot remove %d, only %d in cart", qty, line.Qty))
	}
	if err := c.ledger.Release(ctx, id, qty); err != nil {
		return err
	}
	return c.store.DecrementLine(ctx, buyerID, id, qty)
}

// Clear releases every reservation of the buyer and deletes all lines,
// saved ones included.
func (c *Coordinator) Clear(ctx context.Context, buyerID int64) error {
	lines, err := c.store.ListLines(ctx, buyerID)
	if err != nil {
		return err
	}
	for _, line := range lines {
		if err := c.ledger.Release(ctx, line.Item, line.Qty); err != nil {
			return err
		}
	}
	return c.store.DeleteLines(ctx, buyerID)
}

// Save marks every current line as checkout intent and returns the count.
// Saved lines survive logout-triggered cleanup.
func (c *Coordinator) Save(ctx context.Context, buyerID int64) (int64, error) {
	return c.store.MarkSaved(ctx, buyerID)
}

// Cart returns the buyer's current lines.
func (c *Coordinator) Cart(ctx context.Context, buyerID int64) ([]market.CartLine, error) {
	return c.store.ListLines(ctx, buyerID)
}

// ReleaseUnsaved implements the session janitor contract: unsaved lines are
// deleted and their reservations released when the buyer's session ends.
func (c *Coordinator) ReleaseUnsaved(ctx context.Context, buyerID int64) error {
	lines, err := c.store.ListLines(ctx, buyerID)
	if err != nil {
		return err
	}
	for _, line := range lines {
		if line.Saved {
			continue
		}
		if err := c.ledger.Release(ctx, line.Item, line.Qty); err != nil {
			return err
		}
		if err := c.store.DeleteLine(ctx, buyerID, line.Item); err != nil {
			return err
		}
	}
	return nil
}

func (c *Coordinator) insufficientErr(ctx context.Context, buyerID int64, id market.ItemID, qty int64) error {
	item, err := c.items.GetItem(ctx, id)
	if err != nil {
		if errors.Is(err, market.ErrNotFound) {
			return market.ErrNotFound
		}
		return err
	}
	var inCart int64
	if line, err := c.store.GetLine(ctx, buyerID, id); err == nil {
		inCart = line.Qty
	}
	return &market.InsufficientStockError{
		Item:      id,
		Available: item.Available(),
		Requested: qty,
		InCart:    inCart,
	}
}
