package pg

import (
	"context"
	"database/sql"
	"errors"

	"tradepost.org/internal/market"
)

func (s *Store) UpsertLine(ctx context.Context, buyerID int64, id market.ItemID, qty int64) error {
	_, err := s.db.ExecContext(ctx, `
		insert into cart_lines(buyer_id, category, item_no, qty, saved)
		values ($1,$2,$3,$4,false)
		on conflict (buyer_id, category, item_no)
		do update set qty = cart_lines.qty + excluded.qty, saved = false
	`, buyerID, id.Category, id.Number, qty)
	return storeErr(err)
}

func (s *Store) GetLine(ctx context.Context, buyerID int64, id market.ItemID) (*market.CartLine, error) {
	line := market.CartLine{BuyerID: buyerID, Item: id}
	err := s.db.QueryRowContext(ctx,
		`select qty, saved from cart_lines where buyer_id=$1 and category=$2 and item_no=$3`,
		buyerID, id.Category, id.Number).Scan(&line.Qty, &line.Saved)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, market.ErrNotFound
	}
	if err != nil {
		return nil, storeErr(err)
	}
	return &line, nil
}

func (s *Store) DecrementLine(ctx context.Context, buyerID int64, id market.ItemID, qty int64) error {
	res, err := s.db.ExecContext(ctx, `
		update cart_lines set qty = qty - $4, saved = false
		where buyer_id=$1 and category=$2 and item_no=$3 and qty > $4
	`, buyerID, id.Category, id.Number, qty)
	if err != nil {
		return storeErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storeErr(err)
	}
	if n > 0 {
		return nil
	}
	// qty <= line qty: the exact-match case deletes the line outright.
	res, err = s.db.ExecContext(ctx, `
		delete from cart_lines
		where buyer_id=$1 and category=$2 and item_no=$3 and qty = $4
	`, buyerID, id.Category, id.Number, qty)
	if err != nil {
		return storeErr(err)
	}
	if n, err = res.RowsAffected(); err != nil {
		return storeErr(err)
	}
	if n == 0 {
		return market.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteLine(ctx context.Context, buyerID int64, id market.ItemID) error {
	_, err := s.db.ExecContext(ctx,
		`delete from cart_lines where buyer_id=$1 and category=$2 and item_no=$3`,
		buyerID, id.Category, id.Number)
	return storeErr(err)
}

func (s *Store) ListLines(ctx context.Context, buyerID int64) ([]market.CartLine, error) {
	rows, err := s.db.QueryContext(ctx, `
		select category, item_no, qty, saved from cart_lines
		where buyer_id=$1 order by category, item_no
	`, buyerID)
	if err != nil {
		return nil, storeErr(err)
	}
	defer rows.Close()

	var lines []market.CartLine
	for rows.Next() {
		line := market.CartLine{BuyerID: buyerID}
		if err := rows.Scan(&line.Item.Category, &line.Item.Number, &line.Qty, &line.Saved); err != nil {
			return nil, storeErr(err)
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr(err)
	}
	return lines, nil
}

func (s *Store) MarkSaved(ctx context.Context, buyerID int64) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`update cart_lines set saved = true where buyer_id=$1`, buyerID)
	if err != nil {
		return 0, storeErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, storeErr(err)
	}
	return n, nil
}

func (s *Store) DeleteLines(ctx context.Context, buyerID int64) error {
	_, err := s.db.ExecContext(ctx,
		`delete from cart_lines where buyer_id=$1`, buyerID)
	return storeErr(err)
}
