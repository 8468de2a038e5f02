package pg

import (
	"context"
	"database/sql"
	"errors"

	"tradepost.org/internal/market"
)

// RecordItemFeedback bumps the item counter and the owning seller's aggregate
// in one transaction; the tallies only ever move up.
func (s *Store) RecordItemFeedback(ctx context.Context, id market.ItemID, up bool) error {
	col := "thumbs_down"
	if up {
		col = "thumbs_up"
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storeErr(err)
	}
	defer func() { _ = tx.Rollback() }()

	var sellerID int64
	err = tx.QueryRowContext(ctx, `
		update items set `+col+` = `+col+` + 1
		where category=$1 and item_no=$2
		returning seller_id
	`, id.Category, id.Number).Scan(&sellerID)
	if errors.Is(err, sql.ErrNoRows) {
		return market.ErrNotFound
	}
	if err != nil {
		return storeErr(err)
	}

	if _, err := tx.ExecContext(ctx, `
		update accounts set `+col+` = `+col+` + 1 where id=$1
	`, sellerID); err != nil {
		return storeErr(err)
	}

	return storeErr(tx.Commit())
}

func (s *Store) ItemRating(ctx context.Context, id market.ItemID) (market.Rating, error) {
	var r market.Rating
	err := s.db.QueryRowContext(ctx,
		`select thumbs_up, thumbs_down from items where category=$1 and item_no=$2`,
		id.Category, id.Number).Scan(&r.ThumbsUp, &r.ThumbsDown)
	if errors.Is(err, sql.ErrNoRows) {
		return market.Rating{}, market.ErrNotFound
	}
	if err != nil {
		return market.Rating{}, storeErr(err)
	}
	return r, nil
}

func (s *Store) SellerRating(ctx context.Context, sellerID int64) (market.Rating, error) {
	var r market.Rating
	err := s.db.QueryRowContext(ctx,
		`select thumbs_up, thumbs_down from accounts where id=$1 and realm=$2`,
		sellerID, string(market.RealmSeller)).Scan(&r.ThumbsUp, &r.ThumbsDown)
	if errors.Is(err, sql.ErrNoRows) {
		return market.Rating{}, market.ErrNotFound
	}
	if err != nil {
		return market.Rating{}, storeErr(err)
	}
	return r, nil
}
