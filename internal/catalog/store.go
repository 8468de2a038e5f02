package catalog

import (
	"context"

	"tradepost.org/internal/market"
)

// Store persists catalog listings. CreateItem allocates item.ID.Number as
// max(existing number in category)+1 inside one transaction that holds the
// category's row lock, so concurrent registrations in the same category can
// never be handed the same number.
type Store interface {
	CreateItem(ctx context.Context, item *market.Item) error
	GetItem(ctx context.Context, id market.ItemID) (*market.Item, error)
	// SearchItems returns in-stock items of a category, optionally narrowed
	// to those tagged with at least one of the given keywords.
	SearchItems(ctx context.Context, category string, keywords []string) ([]market.Item, error)
	SellerItems(ctx context.Context, sellerID int64) ([]market.Item, error)
}
