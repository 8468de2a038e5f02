package cart_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"tradepost.org/internal/cart"
	"tradepost.org/internal/inventory"
	"tradepost.org/internal/market"
	"tradepost.org/internal/store/memory"
)

func newCoordinator(t *testing.T) (*cart.Coordinator, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	return cart.NewCoordinator(store, inventory.NewLedger(store), store), store
}

func seedItem(t *testing.T, store *memory.Store, stock int64) market.ItemID {
	t.Helper()
	item := &market.Item{
		ID:         market.ItemID{Category: "books"},
		SellerID:   1,
		Name:       "Novel",
		Condition:  market.ConditionUsed,
		PriceCents: 900,
		Stock:      stock,
	}
	if err := store.CreateItem(context.Background(), item); err != nil {
		t.Fatal(err)
	}
	return item.ID
}

func TestAddReservesStock(t *testing.T) {
	carts, store := newCoordinator(t)
	ctx := context.Background()
	id := seedItem(t, store, 5)

	if err := carts.Add(ctx, 7, id, 3); err != nil {
		t.Fatal(err)
	}
	item, err := store.GetItem(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if item.Reserved != 3 || item.Available() != 2 {
		t.Fatalf("reserved=%d available=%d", item.Reserved, item.Available())
	}

	// Adding again accumulates onto the same line.
	if err := carts.Add(ctx, 7, id, 2); err != nil {
		t.Fatal(err)
	}
	lines, err := carts.Cart(ctx, 7)
	if err != nil {
		t.Fatal(err)
	}
	if len(lines) != 1 || lines[0].Qty != 5 {
		t.Fatalf("expected one line with qty 5, got %+v", lines)
	}
}

func TestAddInsufficientStockDetails(t *testing.T) {
	carts, store := newCoordinator(t)
	ctx := context.Background()
	id := seedItem(t, store, 4)

	if err := carts.Add(ctx, 7, id, 3); err != nil {
		t.Fatal(err)
	}
	err := carts.Add(ctx, 7, id, 2)
	var stockErr *market.InsufficientStockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("expected InsufficientStockError, got %v", err)
	}
	if stockErr.Available != 1 || stockErr.InCart != 3 || stockErr.Requested != 2 {
		t.Fatalf("wrong figures: %+v", stockErr)
	}
	if !errors.Is(err, market.ErrConflict) {
		t.Fatal("insufficient stock must match ErrConflict")
	}
}

func TestLastUnitGoesToOneBuyer(t *testing.T) {
	carts, store := newCoordinator(t)
	ctx := context.Background()
	id := seedItem(t, store, 1)

	const racers = 20
	var won atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(buyerID int64) {
			defer wg.Done()
			if err := carts.Add(ctx, buyerID, id, 1); err == nil {
				won.Add(1)
			}
		}(int64(i + 1))
	}
	wg.Wait()

	if won.Load() != 1 {
		t.Fatalf("exactly one buyer must win the last unit, got %d", won.Load())
	}
	item, err := store.GetItem(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if item.Reserved != 1 {
		t.Fatalf("reserved=%d, want 1", item.Reserved)
	}
}

func TestRemoveReleasesReservation(t *testing.T) {
	carts, store := newCoordinator(t)
	ctx := context.Background()
	id := seedItem(t, store, 5)

	if err := carts.Add(ctx, 7, id, 4); err != nil {
		t.Fatal(err)
	}
	if err := carts.Remove(ctx, 7, id, 5); !market.IsValidation(err) {
		t.Fatalf("removing more than in cart must be a validation error, got %v", err)
	}
	if err := carts.Remove(ctx, 7, id, 3); err != nil {
		t.Fatal(err)
	}
	item, _ := store.GetItem(ctx, id)
	if item.Reserved != 1 {
		t.Fatalf("reserved=%d, want 1", item.Reserved)
	}

	// Removing the rest deletes the line.
	if err := carts.Remove(ctx, 7, id, 1); err != nil {
		t.Fatal(err)
	}
	lines, _ := carts.Cart(ctx, 7)
	if len(lines) != 0 {
		t.Fatalf("expected empty cart, got %+v", lines)
	}
	item, _ = store.GetItem(ctx, id)
	if item.Reserved != 0 {
		t.Fatalf("reserved=%d, want 0", item.Reserved)
	}
}

func TestClearDropsSavedLinesToo(t *testing.T) {
	carts, store := newCoordinator(t)
	ctx := context.Background()
	id := seedItem(t, store, 5)

	if err := carts.Add(ctx, 7, id, 2); err != nil {
		t.Fatal(err)
	}
	if _, err := carts.Save(ctx, 7); err != nil {
		t.Fatal(err)
	}
	if err := carts.Clear(ctx, 7); err != nil {
		t.Fatal(err)
	}
	lines, _ := carts.Cart(ctx, 7)
	if len(lines) != 0 {
		t.Fatalf("expected empty cart, got %+v", lines)
	}
	item, _ := store.GetItem(ctx, id)
	if item.Reserved != 0 {
		t.Fatalf("reserved=%d, want 0", item.Reserved)
	}
}

func TestReleaseUnsavedKeepsSavedLines(t *testing.T) {
	carts, store := newCoordinator(t)
	ctx := context.Background()
	saved := seedItem(t, store, 5)
	unsavedItem := &market.Item{
		ID: market.ItemID{Category: "music"}, SellerID: 1, Name: "Record",
		Condition: market.ConditionUsed, PriceCents: 700, Stock: 5,
	}
	if err := store.CreateItem(ctx, unsavedItem); err != nil {
		t.Fatal(err)
	}

	if err := carts.Add(ctx, 7, saved, 2); err != nil {
		t.Fatal(err)
	}
	if _, err := carts.Save(ctx, 7); err != nil {
		t.Fatal(err)
	}
	if err := carts.Add(ctx, 7, unsavedItem.ID, 3); err != nil {
		t.Fatal(err)
	}

	if err := carts.ReleaseUnsaved(ctx, 7); err != nil {
		t.Fatal(err)
	}
	lines, _ := carts.Cart(ctx, 7)
	if len(lines) != 1 || lines[0].Item != saved {
		t.Fatalf("expected only the saved line, got %+v", lines)
	}
	rec, _ := store.GetItem(ctx, unsavedItem.ID)
	if rec.Reserved != 0 {
		t.Fatalf("unsaved reservation not released: %d", rec.Reserved)
	}
	kept, _ := store.GetItem(ctx, saved)
	if kept.Reserved != 2 {
		t.Fatalf("saved reservation must stay: %d", kept.Reserved)
	}
}
