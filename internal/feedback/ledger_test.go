package feedback_test

import (
	"context"
	"errors"
	"testing"

	"tradepost.org/internal/feedback"
	"tradepost.org/internal/market"
	"tradepost.org/internal/store/memory"
)

func TestFeedbackAggregatesToSeller(t *testing.T) {
	store := memory.NewStore()
	ledger := feedback.NewLedger(store)
	ctx := context.Background()

	seller := &market.Account{Realm: market.RealmSeller, Username: "s", PasswordHash: "x"}
	if err := store.CreateAccount(ctx, seller); err != nil {
		t.Fatal(err)
	}
	item := &market.Item{
		ID: market.ItemID{Category: "art"}, SellerID: seller.ID, Name: "Print",
		Condition: market.ConditionNew, PriceCents: 2000, Stock: 1,
	}
	if err := store.CreateItem(ctx, item); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 3; i++ {
		if err := ledger.RecordFeedback(ctx, item.ID, feedback.ThumbsUp); err != nil {
			t.Fatal(err)
		}
	}
	if err := ledger.RecordFeedback(ctx, item.ID, feedback.ThumbsDown); err != nil {
		t.Fatal(err)
	}

	itemRating, err := ledger.GetItemRating(ctx, item.ID)
	if err != nil {
		t.Fatal(err)
	}
	if itemRating.ThumbsUp != 3 || itemRating.ThumbsDown != 1 {
		t.Fatalf("item rating %+v", itemRating)
	}
	sellerRating, err := ledger.GetSellerRating(ctx, seller.ID)
	if err != nil {
		t.Fatal(err)
	}
	if sellerRating != itemRating {
		t.Fatalf("seller aggregate %+v != item rating %+v", sellerRating, itemRating)
	}
}

func TestFeedbackUnknownItem(t *testing.T) {
	ledger := feedback.NewLedger(memory.NewStore())
	ctx := context.Background()

	err := ledger.RecordFeedback(ctx, market.ItemID{Category: "art", Number: 1}, feedback.ThumbsUp)
	if !errors.Is(err, market.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := ledger.RecordFeedback(ctx, market.ItemID{Category: "art", Number: 1}, "sideways"); !market.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
