// Package memory provides an in-process store with the same semantics as the
// Postgres store. It backs tests and the single-binary demo mode; one mutex
// stands in for the database as the serialization point.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"tradepost.org/internal/cart"
	"tradepost.org/internal/catalog"
	"tradepost.org/internal/checkout"
	"tradepost.org/internal/feedback"
	"tradepost.org/internal/ids"
	"tradepost.org/internal/inventory"
	"tradepost.org/internal/market"
	"tradepost.org/internal/session"
)

type lineKey struct {
	buyerID int64
	item    market.ItemID
}

// Store keeps every table in maps guarded by one mutex.
type Store struct {
	mu sync.Mutex

	nextAccountID int64
	accounts      map[int64]*market.Account
	sessions      map[string]*market.Session
	items         map[market.ItemID]*market.Item
	nextItemNo    map[string]int64
	cartLines     map[lineKey]*market.CartLine
	purchases     []market.PurchaseRecord
}

var (
	_ session.Store        = (*Store)(nil)
	_ session.AccountStore = (*Store)(nil)
	_ catalog.Store        = (*Store)(nil)
	_ inventory.Store      = (*Store)(nil)
	_ cart.Store           = (*Store)(nil)
	_ checkout.Store       = (*Store)(nil)
	_ feedback.Store       = (*Store)(nil)
)

// NewStore constructs an empty in-memory store.
func NewStore() *Store {
	return &Store{
		accounts:   make(map[int64]*market.Account),
		sessions:   make(map[string]*market.Session),
		items:      make(map[market.ItemID]*market.Item),
		nextItemNo: make(map[string]int64),
		cartLines:  make(map[lineKey]*market.CartLine),
	}
}

// Accounts ----------------------------------------------------------------

func (s *Store) CreateAccount(_ context.Context, a *market.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.accounts {
		if existing.Realm == a.Realm && existing.Username == a.Username {
			return market.ErrConflict
		}
	}
	s.nextAccountID++
	a.ID = s.nextAccountID
	cp := *a
	s.accounts[a.ID] = &cp
	return nil
}

func (s *Store) FindAccount(_ context.Context, id int64) (*market.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok {
		return nil, market.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (s *Store) FindAccountByUsername(_ context.Context, realm market.Realm, username string) (*market.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.accounts {
		if a.Realm == realm && a.Username == username {
			cp := *a
			return &cp, nil
		}
	}
	return nil, market.ErrNotFound
}

// Sessions ----------------------------------------------------------------

func (s *Store) InsertSession(_ context.Context, sess *market.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sess.Token]; ok {
		return market.ErrConflict
	}
	cp := *sess
	s.sessions[sess.Token] = &cp
	return nil
}

func (s *Store) FindSession(_ context.Context, token string) (*market.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[token]
	if !ok {
		return nil, market.ErrNotFound
	}
	cp := *sess
	return &cp, nil
}

func (s *Store) TouchSession(_ context.Context, token string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[token]; ok {
		sess.LastActive = at
	}
	return nil
}

func (s *Store) DeleteSession(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
	return nil
}

// Catalog -----------------------------------------------------------------

func (s *Store) CreateItem(_ context.Context, item *market.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextItemNo[item.ID.Category]++
	item.ID.Number = s.nextItemNo[item.ID.Category]
	item.CreatedAt = time.Now().UTC()
	cp := *item
	cp.Keywords = append([]string(nil), item.Keywords...)
	s.items[item.ID] = &cp
	return nil
}

func (s *Store) GetItem(_ context.Context, id market.ItemID) (*market.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getItemLocked(id)
}

func (s *Store) getItemLocked(id market.ItemID) (*market.Item, error) {
	item, ok := s.items[id]
	if !ok {
		return nil, market.ErrNotFound
	}
	cp := *item
	cp.Keywords = append([]string(nil), item.Keywords...)
	return &cp, nil
}

func (s *Store) SearchItems(_ context.Context, category string, keywords []string) ([]market.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []market.Item
	for _, item := range s.items {
		if item.ID.Category != category || item.Available() <= 0 {
			continue
		}
		if len(keywords) > 0 && !anyKeyword(item.Keywords, keywords) {
			continue
		}
		cp := *item
		cp.Keywords = append([]string(nil), item.Keywords...)
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.Number < out[j].ID.Number })
	return out, nil
}

func (s *Store) SellerItems(_ context.Context, sellerID int64) ([]market.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []market.Item
	for _, item := range s.items {
		if item.SellerID != sellerID {
			continue
		}
		cp := *item
		cp.Keywords = append([]string(nil), item.Keywords...)
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].ID, out[j].ID
		if a.Category != b.Category {
			return a.Category < b.Category
		}
		return a.Number < b.Number
	})
	return out, nil
}

func anyKeyword(have, want []string) bool {
	for _, w := range want {
		for _, h := range have {
			if h == w {
				return true
			}
		}
	}
	return false
}

// Inventory ---------------------------------------------------------------

func (s *Store) Reserve(_ context.Context, id market.ItemID, qty int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[id]
	if !ok {
		return market.ErrNotFound
	}
	if item.Stock-item.Reserved < qty {
		return market.ErrConflict
	}
	item.Reserved += qty
	return nil
}

func (s *Store) Release(_ context.Context, id market.ItemID, qty int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[id]
	if !ok {
		return market.ErrNotFound
	}
	if item.Reserved < qty {
		return market.ErrConflict
	}
	item.Reserved -= qty
	return nil
}

func (s *Store) CommitDecrement(_ context.Context, id market.ItemID, qty int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[id]
	if !ok {
		return market.ErrNotFound
	}
	if item.Stock < qty || item.Reserved < qty {
		return market.ErrConflict
	}
	item.Stock -= qty
	item.Reserved -= qty
	return nil
}

func (s *Store) SetQuantity(_ context.Context, sellerID int64, id market.ItemID, qty int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[id]
	if !ok || item.SellerID != sellerID {
		return market.ErrNotFound
	}
	if item.Reserved > qty {
		return market.ErrConflict
	}
	item.Stock = qty
	return nil
}

func (s *Store) SetPrice(_ context.Context, sellerID int64, id market.ItemID, priceCents int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[id]
	if !ok || item.SellerID != sellerID {
		return market.ErrNotFound
	}
	item.PriceCents = priceCents
	return nil
}

// Cart lines --------------------------------------------------------------

func (s *Store) UpsertLine(_ context.Context, buyerID int64, id market.ItemID, qty int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := lineKey{buyerID, id}
	if line, ok := s.cartLines[key]; ok {
		line.Qty += qty
		line.Saved = false
		return nil
	}
	s.cartLines[key] = &market.CartLine{BuyerID: buyerID, Item: id, Qty: qty}
	return nil
}

func (s *Store) GetLine(_ context.Context, buyerID int64, id market.ItemID) (*market.CartLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	line, ok := s.cartLines[lineKey{buyerID, id}]
	if !ok {
		return nil, market.ErrNotFound
	}
	cp := *line
	return &cp, nil
}

func (s *Store) DecrementLine(_ context.Context, buyerID int64, id market.ItemID, qty int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := lineKey{buyerID, id}
	line, ok := s.cartLines[key]
	if !ok || line.Qty < qty {
		return market.ErrNotFound
	}
	if line.Qty == qty {
		delete(s.cartLines, key)
		return nil
	}
	line.Qty -= qty
	line.Saved = false
	return nil
}

func (s *Store) DeleteLine(_ context.Context, buyerID int64, id market.ItemID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.cartLines, lineKey{buyerID, id})
	return nil
}

func (s *Store) ListLines(_ context.Context, buyerID int64) ([]market.CartLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listLinesLocked(buyerID), nil
}

func (s *Store) listLinesLocked(buyerID int64) []market.CartLine {
	var lines []market.CartLine
	for _, line := range s.cartLines {
		if line.BuyerID == buyerID {
			lines = append(lines, *line)
		}
	}
	sort.Slice(lines, func(i, j int) bool {
		a, b := lines[i].Item, lines[j].Item
		if a.Category != b.Category {
			return a.Category < b.Category
		}
		return a.Number < b.Number
	})
	return lines
}

func (s *Store) MarkSaved(_ context.Context, buyerID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, line := range s.cartLines {
		if line.BuyerID == buyerID {
			line.Saved = true
			n++
		}
	}
	return n, nil
}

func (s *Store) DeleteLines(_ context.Context, buyerID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, line := range s.cartLines {
		if line.BuyerID == buyerID {
			delete(s.cartLines, key)
		}
	}
	return nil
}

// Purchases ---------------------------------------------------------------

// CommitPurchase mirrors the transactional store: every decrement is checked
// before any state changes, so a conflict leaves stock, reservations, and the
// cart exactly as they were.
func (s *Store) CommitPurchase(_ context.Context, buyerID int64, lines []market.CartLine) ([]market.PurchaseRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, line := range lines {
		item, ok := s.items[line.Item]
		if !ok || item.Stock < line.Qty || item.Reserved < line.Qty {
			return nil, market.ErrConflict
		}
	}

	now := time.Now().UTC()
	records := make([]market.PurchaseRecord, 0, len(lines))
	for _, line := range lines {
		item := s.items[line.Item]
		item.Stock -= line.Qty
		item.Reserved -= line.Qty
		records = append(records, market.PurchaseRecord{
			ID:          ids.New(),
			BuyerID:     buyerID,
			Item:        line.Item,
			Qty:         line.Qty,
			PriceCents:  item.PriceCents,
			PurchasedAt: now,
		})
	}
	for key, line := range s.cartLines {
		if line.BuyerID == buyerID {
			delete(s.cartLines, key)
		}
	}
	s.purchases = append(s.purchases, records...)
	return records, nil
}

func (s *Store) Purchases(_ context.Context, buyerID int64) ([]market.PurchaseRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []market.PurchaseRecord
	for _, rec := range s.purchases {
		if rec.BuyerID == buyerID {
			out = append(out, rec)
		}
	}
	return out, nil
}

// Feedback ----------------------------------------------------------------

func (s *Store) RecordItemFeedback(_ context.Context, id market.ItemID, up bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[id]
	if !ok {
		return market.ErrNotFound
	}
	seller := s.accounts[item.SellerID]
	if up {
		item.ThumbsUp++
		if seller != nil {
			seller.ThumbsUp++
		}
	} else {
		item.ThumbsDown++
		if seller != nil {
			seller.ThumbsDown++
		}
	}
	return nil
}

func (s *Store) ItemRating(_ context.Context, id market.ItemID) (market.Rating, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[id]
	if !ok {
		return market.Rating{}, market.ErrNotFound
	}
	return market.Rating{ThumbsUp: item.ThumbsUp, ThumbsDown: item.ThumbsDown}, nil
}

func (s *Store) SellerRating(_ context.Context, sellerID int64) (market.Rating, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[sellerID]
	if !ok || a.Realm != market.RealmSeller {
		return market.Rating{}, market.ErrNotFound
	}
	return market.Rating{ThumbsUp: a.ThumbsUp, ThumbsDown: a.ThumbsDown}, nil
}
