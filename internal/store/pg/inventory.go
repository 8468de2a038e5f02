package pg

import (
	"context"

	"tradepost.org/internal/market"
)

// Stock mutations are single conditional updates. When zero rows match we
// probe for the item to tell "no such item" apart from "condition failed".

func (s *Store) Reserve(ctx context.Context, id market.ItemID, qty int64) error {
	return s.stockUpdate(ctx, id, `
		update items set reserved = reserved + $3
		where category=$1 and item_no=$2 and stock - reserved >= $3
	`, qty)
}

func (s *Store) Release(ctx context.Context, id market.ItemID, qty int64) error {
	return s.stockUpdate(ctx, id, `
		update items set reserved = reserved - $3
		where category=$1 and item_no=$2 and reserved >= $3
	`, qty)
}

func (s *Store) CommitDecrement(ctx context.Context, id market.ItemID, qty int64) error {
	return s.stockUpdate(ctx, id, `
		update items set stock = stock - $3, reserved = reserved - $3
		where category=$1 and item_no=$2 and stock >= $3 and reserved >= $3
	`, qty)
}

func (s *Store) stockUpdate(ctx context.Context, id market.ItemID, query string, qty int64) error {
	res, err := s.db.ExecContext(ctx, query, id.Category, id.Number, qty)
	if err != nil {
		return storeErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storeErr(err)
	}
	if n == 0 {
		return s.itemMissingOrConflict(ctx, id)
	}
	return nil
}

func (s *Store) SetQuantity(ctx context.Context, sellerID int64, id market.ItemID, qty int64) error {
	// Stock may never drop below what carts already hold.
	res, err := s.db.ExecContext(ctx, `
		update items set stock = $4
		where category=$1 and item_no=$2 and seller_id=$3 and reserved <= $4
	`, id.Category, id.Number, sellerID, qty)
	if err != nil {
		return storeErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storeErr(err)
	}
	if n == 0 {
		return s.ownedItemMissingOrConflict(ctx, sellerID, id)
	}
	return nil
}

func (s *Store) SetPrice(ctx context.Context, sellerID int64, id market.ItemID, priceCents int64) error {
	res, err := s.db.ExecContext(ctx, `
		update items set price_cents = $4
		where category=$1 and item_no=$2 and seller_id=$3
	`, id.Category, id.Number, sellerID, priceCents)
	if err != nil {
		return storeErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storeErr(err)
	}
	if n == 0 {
		return market.ErrNotFound
	}
	return nil
}

func (s *Store) itemMissingOrConflict(ctx context.Context, id market.ItemID) error {
	var one int
	err := s.db.QueryRowContext(ctx,
		`select 1 from items where category=$1 and item_no=$2`,
		id.Category, id.Number).Scan(&one)
	if err == nil {
		return market.ErrConflict
	}
	if isNoRows(err) {
		return market.ErrNotFound
	}
	return storeErr(err)
}

func (s *Store) ownedItemMissingOrConflict(ctx context.Context, sellerID int64, id market.ItemID) error {
	var one int
	err := s.db.QueryRowContext(ctx,
		`select 1 from items where category=$1 and item_no=$2 and seller_id=$3`,
		id.Category, id.Number, sellerID).Scan(&one)
	if err == nil {
		return market.ErrConflict
	}
	if isNoRows(err) {
		return market.ErrNotFound
	}
	return storeErr(err)
}
