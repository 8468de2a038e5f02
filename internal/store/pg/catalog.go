package pg

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"tradepost.org/internal/market"
)

// CreateItem allocates the next number in the item's category and inserts
// the listing plus its keywords. The whole sequence runs in one transaction
// holding the category's row lock, so two concurrent registrations in the
// same category cannot read the same max.
func (s *Store) CreateItem(ctx context.Context, item *market.Item) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storeErr(err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`insert into categories(name) values($1) on conflict do nothing`,
		item.ID.Category); err != nil {
		return storeErr(err)
	}

	// Lock anchor: serializes number allocation per category.
	var name string
	if err := tx.QueryRowContext(ctx,
		`select name from categories where name=$1 for update`,
		item.ID.Category).Scan(&name); err != nil {
		return storeErr(err)
	}

	if err := tx.QueryRowContext(ctx,
		`select coalesce(max(item_no), 0) + 1 from items where category=$1`,
		item.ID.Category).Scan(&item.ID.Number); err != nil {
		return storeErr(err)
	}

	now := time.Now().UTC()
	if _, err := tx.ExecContext(ctx, `
		insert into items(category, item_no, seller_id, name, condition, price_cents, stock, reserved, created_at)
		values ($1,$2,$3,$4,$5,$6,$7,0,$8)
	`, item.ID.Category, item.ID.Number, item.SellerID, item.Name,
		string(item.Condition), item.PriceCents, item.Stock, now); err != nil {
		return storeErr(err)
	}
	for _, kw := range item.Keywords {
		if _, err := tx.ExecContext(ctx,
			`insert into item_keywords(category, item_no, keyword) values($1,$2,$3)`,
			item.ID.Category, item.ID.Number, kw); err != nil {
			return storeErr(err)
		}
	}

	if err := tx.Commit(); err != nil {
		return storeErr(err)
	}
	item.CreatedAt = now
	return nil
}

func (s *Store) GetItem(ctx context.Context, id market.ItemID) (*market.Item, error) {
	row := s.db.QueryRowContext(ctx, `
		select category, item_no, seller_id, name, condition, price_cents, stock, reserved, thumbs_up, thumbs_down, created_at
		from items where category=$1 and item_no=$2
	`, id.Category, id.Number)
	item, err := scanItem(row)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`select keyword from item_keywords where category=$1 and item_no=$2 order by keyword`,
		id.Category, id.Number)
	if err != nil {
		return nil, storeErr(err)
	}
	defer rows.Close()
	for rows.Next() {
		var kw string
		if err := rows.Scan(&kw); err != nil {
			return nil, storeErr(err)
		}
		item.Keywords = append(item.Keywords, kw)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr(err)
	}
	return item, nil
}

func (s *Store) SearchItems(ctx context.Context, category string, keywords []string) ([]market.Item, error) {
	query := `
		select distinct i.category, i.item_no, i.seller_id, i.name, i.condition, i.price_cents, i.stock, i.reserved, i.thumbs_up, i.thumbs_down, i.created_at
		from items i
		left join item_keywords k on k.category = i.category and k.item_no = i.item_no
		where i.category = $1 and i.stock - i.reserved > 0
	`
	args := []any{category}
	if len(keywords) > 0 {
		query += ` and k.keyword = any($2)`
		// pgx binds Go string slices to text arrays directly.
		args = append(args, keywords)
	}
	query += ` order by i.item_no`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storeErr(err)
	}
	defer rows.Close()
	return collectItems(rows)
}

func (s *Store) SellerItems(ctx context.Context, sellerID int64) ([]market.Item, error) {
	rows, err := s.db.QueryContext(ctx, `
		select category, item_no, seller_id, name, condition, price_cents, stock, reserved, thumbs_up, thumbs_down, created_at
		from items where seller_id=$1 order by category, item_no
	`, sellerID)
	if err != nil {
		return nil, storeErr(err)
	}
	defer rows.Close()
	return collectItems(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*market.Item, error) {
	var (
		item market.Item
		cond string
	)
	err := row.Scan(&item.ID.Category, &item.ID.Number, &item.SellerID, &item.Name,
		&cond, &item.PriceCents, &item.Stock, &item.Reserved,
		&item.ThumbsUp, &item.ThumbsDown, &item.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, market.ErrNotFound
	}
	if err != nil {
		return nil, storeErr(err)
	}
	item.Condition = market.Condition(cond)
	return &item, nil
}

func collectItems(rows *sql.Rows) ([]market.Item, error) {
	var items []market.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr(err)
	}
	return items, nil
}
