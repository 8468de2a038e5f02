package session_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"tradepost.org/internal/cart"
	"tradepost.org/internal/inventory"
	"tradepost.org/internal/market"
	"tradepost.org/internal/session"
	"tradepost.org/internal/store/memory"
)

func newClock(start time.Time) (*time.Time, func() time.Time) {
	now := start
	return &now, func() time.Time { return now }
}

func TestRegisterAndLogin(t *testing.T) {
	store := memory.NewStore()
	svc := session.NewService(store, store)
	ctx := context.Background()

	acct, err := svc.Register(ctx, market.RealmBuyer, "alice", "secret")
	if err != nil {
		t.Fatal(err)
	}
	if acct.ID == 0 {
		t.Fatal("expected allocated account id")
	}

	token, err := svc.Login(ctx, market.RealmBuyer, "alice", "secret")
	if err != nil {
		t.Fatal(err)
	}
	got, err := svc.Validate(ctx, token, market.RealmBuyer)
	if err != nil {
		t.Fatal(err)
	}
	if got != acct.ID {
		t.Fatalf("validate returned account %d, want %d", got, acct.ID)
	}
}

func TestLoginBadCredentials(t *testing.T) {
	store := memory.NewStore()
	svc := session.NewService(store, store)
	ctx := context.Background()

	if _, err := svc.Register(ctx, market.RealmBuyer, "alice", "secret"); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Login(ctx, market.RealmBuyer, "alice", "wrong"); !errors.Is(err, market.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for bad password, got %v", err)
	}
	if _, err := svc.Login(ctx, market.RealmBuyer, "nobody", "secret"); !errors.Is(err, market.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for unknown user, got %v", err)
	}
}

func TestDuplicateUsernamePerRealm(t *testing.T) {
	store := memory.NewStore()
	svc := session.NewService(store, store)
	ctx := context.Background()

	if _, err := svc.Register(ctx, market.RealmBuyer, "alice", "secret"); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Register(ctx, market.RealmBuyer, "alice", "other"); !errors.Is(err, market.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	// Same username in the other realm is a different namespace.
	if _, err := svc.Register(ctx, market.RealmSeller, "alice", "secret"); err != nil {
		t.Fatal(err)
	}
}

func TestRealmMismatch(t *testing.T) {
	store := memory.NewStore()
	svc := session.NewService(store, store)
	ctx := context.Background()

	if _, err := svc.Register(ctx, market.RealmSeller, "bob", "secret"); err != nil {
		t.Fatal(err)
	}
	token, err := svc.Login(ctx, market.RealmSeller, "bob", "secret")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Validate(ctx, token, market.RealmBuyer); !errors.Is(err, market.ErrUnauthorized) {
		t.Fatalf("seller token must not authorize buyer calls, got %v", err)
	}
}

func TestExpiryRevokesAndCleansUnsavedCart(t *testing.T) {
	store := memory.NewStore()
	ledger := inventory.NewLedger(store)
	carts := cart.NewCoordinator(store, ledger, store)
	now, clock := newClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	svc := session.NewService(store, store,
		session.WithClock(clock),
		session.WithTimeout(5*time.Minute),
		session.WithJanitor(carts),
	)
	ctx := context.Background()

	seller, err := svc.Register(ctx, market.RealmSeller, "seller", "secret")
	if err != nil {
		t.Fatal(err)
	}
	buyer, err := svc.Register(ctx, market.RealmBuyer, "buyer", "secret")
	if err != nil {
		t.Fatal(err)
	}
	itemA := seedItem(t, store, seller.ID, "widget", 5)
	itemB := seedItem(t, store, seller.ID, "gadget", 5)

	token, err := svc.Login(ctx, market.RealmBuyer, "buyer", "secret")
	if err != nil {
		t.Fatal(err)
	}

	// Line A is saved, line B is not.
	if err := carts.Add(ctx, buyer.ID, itemA, 2); err != nil {
		t.Fatal(err)
	}
	if _, err := carts.Save(ctx, buyer.ID); err != nil {
		t.Fatal(err)
	}
	if err := carts.Add(ctx, buyer.ID, itemB, 3); err != nil {
		t.Fatal(err)
	}

	*now = now.Add(6 * time.Minute)
	if _, err := svc.Validate(ctx, token, market.RealmBuyer); !errors.Is(err, market.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for expired session, got %v", err)
	}
	svc.Drain()

	lines, err := carts.Cart(ctx, buyer.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(lines) != 1 || lines[0].Item != itemA || !lines[0].Saved {
		t.Fatalf("expected only the saved line to survive, got %+v", lines)
	}

	b, err := store.GetItem(ctx, itemB)
	if err != nil {
		t.Fatal(err)
	}
	if b.Reserved != 0 {
		t.Fatalf("unsaved reservation not released: reserved=%d", b.Reserved)
	}

	// The expired session is gone for good.
	if _, err := svc.Validate(ctx, token, market.RealmBuyer); !errors.Is(err, market.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized after revoke, got %v", err)
	}
}

func TestLogoutReleasesUnsavedCart(t *testing.T) {
	store := memory.NewStore()
	ledger := inventory.NewLedger(store)
	carts := cart.NewCoordinator(store, ledger, store)
	svc := session.NewService(store, store, session.WithJanitor(carts))
	ctx := context.Background()

	seller, err := svc.Register(ctx, market.RealmSeller, "seller", "secret")
	if err != nil {
		t.Fatal(err)
	}
	buyer, err := svc.Register(ctx, market.RealmBuyer, "buyer", "secret")
	if err != nil {
		t.Fatal(err)
	}
	item := seedItem(t, store, seller.ID, "widget", 5)

	token, err := svc.Login(ctx, market.RealmBuyer, "buyer", "secret")
	if err != nil {
		t.Fatal(err)
	}

	if err := carts.Add(ctx, buyer.ID, item, 2); err != nil {
		t.Fatal(err)
	}
	got, _ := store.GetItem(ctx, item)
	if got.Available() != 3 {
		t.Fatalf("available=%d after add, want 3", got.Available())
	}
	if err := carts.Remove(ctx, buyer.ID, item, 1); err != nil {
		t.Fatal(err)
	}
	got, _ = store.GetItem(ctx, item)
	if got.Available() != 4 {
		t.Fatalf("available=%d after remove, want 4", got.Available())
	}

	if err := svc.Revoke(ctx, token); err != nil {
		t.Fatal(err)
	}
	lines, err := carts.Cart(ctx, buyer.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(lines) != 0 {
		t.Fatalf("unsaved cart must not survive logout, got %+v", lines)
	}
	got, _ = store.GetItem(ctx, item)
	if got.Available() != 5 {
		t.Fatalf("available=%d after logout, want 5", got.Available())
	}
}

func TestTouchExtendsSession(t *testing.T) {
	store := memory.NewStore()
	now, clock := newClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	svc := session.NewService(store, store,
		session.WithClock(clock),
		session.WithTimeout(5*time.Minute),
	)
	ctx := context.Background()

	acct, err := svc.Register(ctx, market.RealmBuyer, "alice", "secret")
	if err != nil {
		t.Fatal(err)
	}
	token, err := svc.CreateSession(ctx, acct.ID, market.RealmBuyer)
	if err != nil {
		t.Fatal(err)
	}

	*now = now.Add(4 * time.Minute)
	if err := svc.Touch(ctx, token); err != nil {
		t.Fatal(err)
	}
	*now = now.Add(4 * time.Minute)
	if _, err := svc.Validate(ctx, token, market.RealmBuyer); err != nil {
		t.Fatalf("touched session must still be valid, got %v", err)
	}
}

func TestRevokeIdempotent(t *testing.T) {
	store := memory.NewStore()
	svc := session.NewService(store, store)
	ctx := context.Background()

	if err := svc.Revoke(ctx, "no-such-token"); err != nil {
		t.Fatalf("revoking an absent session must succeed, got %v", err)
	}
}

func seedItem(t *testing.T, store *memory.Store, sellerID int64, name string, stock int64) market.ItemID {
	t.Helper()
	item := &market.Item{
		ID:         market.ItemID{Category: "toys"},
		SellerID:   sellerID,
		Name:       name,
		Condition:  market.ConditionNew,
		PriceCents: 1000,
		Stock:      stock,
	}
	if err := store.CreateItem(context.Background(), item); err != nil {
		t.Fatal(err)
	}
	return item.ID
}
