package catalog

import (
	"context"
	"strings"

	"tradepost.org/internal/market"
)

const (
	maxNameLen     = 64
	maxCategoryLen = 32
	maxKeywords    = 5
	maxKeywordLen  = 8
)

// Service validates listings and delegates identity allocation to the store.
type Service struct {
	store Store
}

// NewService constructs the catalog service.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// RegisterItem lists a new item for the seller. The (category, number)
// identity is allocated by the store under the category lock.
func (s *Service) RegisterItem(ctx context.Context, sellerID int64, name, category string, cond market.Condition, priceCents, qty int64, keywords []string) (*market.Item, error) {
	name = strings.TrimSpace(name)
	category = strings.TrimSpace(category)
	if name == "" || len(name) > maxNameLen {
		return nil, market.Invalid("name", "must be 1-64 characters")
	}
	if category == "" || len(category) > maxCategoryLen {
		return nil, market.Invalid("category", "must be 1-32 characters")
	}
	if cond != market.ConditionNew && cond != market.ConditionUsed {
		return nil, market.Invalid("condition", "must be New or Used")
	}
	if priceCents <= 0 {
		return nil, market.Invalid("price", "must be a positive amount")
	}
	if qty <= 0 {
		return nil, market.Invalid("quantity", "must be a positive integer")
	}
	if len(keywords) > maxKeywords {
		return nil, market.Invalid("keywords", "at most 5 keywords")
	}
	cleaned := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		if len(kw) > maxKeywordLen {
			return nil, market.Invalid("keywords", "keyword length must be 8 characters or less")
		}
		cleaned = append(cleaned, kw)
	}

	item := &market.Item{
		ID:         market.ItemID{Category: category},
		SellerID:   sellerID,
		Name:       name,
		Condition:  cond,
		PriceCents: priceCents,
		Stock:      qty,
		Keywords:   cleaned,
	}
	if err := s.store.CreateItem(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// GetItem looks up a single listing.
func (s *Service) GetItem(ctx context.Context, id market.ItemID) (*market.Item, error) {
	if id.Category == "" || id.Number <= 0 {
		return nil, market.Invalid("item", "malformed item id")
	}
	return s.store.GetItem(ctx, id)
}

// SearchItems returns in-stock listings matching the category and, when
// given, at least one keyword.
func (s *Service) SearchItems(ctx context.Context, category string, keywords []string) ([]market.Item, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return nil, market.Invalid("category", "must not be empty")
	}
	return s.store.SearchItems(ctx, category, keywords)
}

// SellerItems lists everything a seller currently has on offer.
func (s *Service) SellerItems(ctx context.Context, sellerID int64) ([]market.Item, error) {
	return s.store.SellerItems(ctx, sellerID)
}
