package feedback

import (
	"context"

	"tradepost.org/internal/market"
)

// Kind is a feedback direction.
type Kind string

const (
	ThumbsUp   Kind = "up"
	ThumbsDown Kind = "down"
)

// Store persists rating counters. RecordItemFeedback increments the item's
// counter and the owning seller's aggregate in one atomic unit, and returns
// market.ErrNotFound when the item does not exist.
type Store interface {
	RecordItemFeedback(ctx context.Context, id market.ItemID, up bool) error
	ItemRating(ctx context.Context, id market.ItemID) (market.Rating, error)
	SellerRating(ctx context.Context, sellerID int64) (market.Rating, error)
}

// Ledger keeps append-only thumbs-up/down tallies. There is no decrement.
type Ledger struct {
	store Store
}

// NewLedger constructs the feedback ledger.
func NewLedger(store Store) *Ledger {
	return &Ledger{store: store}
}

// RecordFeedback registers one thumbs-up or thumbs-down on an item.
func (l *Ledger) RecordFeedback(ctx context.Context, id market.ItemID, kind Kind) error {
	if kind != ThumbsUp && kind != ThumbsDown {
		return market.Invalid("feedback", "must be 'up' or 'down'")
	}
	return l.store.RecordItemFeedback(ctx, id, kind == ThumbsUp)
}

// GetItemRating returns an item's tallies.
func (l *Ledger) GetItemRating(ctx context.Context, id market.ItemID) (market.Rating, error) {
	return l.store.ItemRating(ctx, id)
}

// GetSellerRating returns a seller's aggregate tallies.
func (l *Ledger) GetSellerRating(ctx context.Context, sellerID int64) (market.Rating, error) {
	return l.store.SellerRating(ctx, sellerID)
}
