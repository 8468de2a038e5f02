package pg

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"time"

	"tradepost.org/internal/ids"
	"tradepost.org/internal/market"
)

// CommitPurchase converts a cart into purchase rows inside one transaction:
// append a record per line, permanently decrement stock, then drop the whole
// cart. Any failed decrement rolls everything back with market.ErrConflict.
func (s *Store) CommitPurchase(ctx context.Context, buyerID int64, lines []market.CartLine) ([]market.PurchaseRecord, error) {
	// Fixed lock order so two concurrent checkouts cannot deadlock.
	sorted := make([]market.CartLine, len(lines))
	copy(sorted, lines)
	sort.Slice(sorted, func(i, j int) bool {
		a, b := sorted[i].Item, sorted[j].Item
		if a.Category != b.Category {
			return a.Category < b.Category
		}
		return a.Number < b.Number
	})

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, storeErr(err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC()
	records := make([]market.PurchaseRecord, 0, len(sorted))
	for _, line := range sorted {
		rec := market.PurchaseRecord{
			ID:          ids.New(),
			BuyerID:     buyerID,
			Item:        line.Item,
			Qty:         line.Qty,
			PurchasedAt: now,
		}
		// Price is captured from the live item row at commit time.
		err := tx.QueryRowContext(ctx, `
			insert into purchases(id, buyer_id, category, item_no, qty, price_cents, purchased_at)
			select $1, $2, category, item_no, $5, price_cents, $6
			from items where category=$3 and item_no=$4
			returning price_cents
		`, rec.ID, buyerID, line.Item.Category, line.Item.Number, line.Qty, now).Scan(&rec.PriceCents)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, market.ErrConflict
		}
		if err != nil {
			return nil, storeErr(err)
		}

		res, err := tx.ExecContext(ctx, `
			update items set stock = stock - $3, reserved = reserved - $3
			where category=$1 and item_no=$2 and stock >= $3 and reserved >= $3
		`, line.Item.Category, line.Item.Number, line.Qty)
		if err != nil {
			return nil, storeErr(err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return nil, storeErr(err)
		}
		if n == 0 {
			return nil, market.ErrConflict
		}
		records = append(records, rec)
	}

	// Purchase empties the cart entirely, saved lines included.
	if _, err := tx.ExecContext(ctx,
		`delete from cart_lines where buyer_id=$1`, buyerID); err != nil {
		return nil, storeErr(err)
	}

	if err := tx.Commit(); err != nil {
		return nil, storeErr(err)
	}
	return records, nil
}

func (s *Store) Purchases(ctx context.Context, buyerID int64) ([]market.PurchaseRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		select id, buyer_id, category, item_no, qty, price_cents, purchased_at
		from purchases where buyer_id=$1 order by purchased_at, id
	`, buyerID)
	if err != nil {
		return nil, storeErr(err)
	}
	defer rows.Close()

	var records []market.PurchaseRecord
	for rows.Next() {
		var rec market.PurchaseRecord
		if err := rows.Scan(&rec.ID, &rec.BuyerID, &rec.Item.Category, &rec.Item.Number,
			&rec.Qty, &rec.PriceCents, &rec.PurchasedAt); err != nil {
			return nil, storeErr(err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr(err)
	}
	return records, nil
}
