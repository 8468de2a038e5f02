// Smoke drives one full buyer/seller flow against a running paymentd using
// the in-memory store: list an item, fill a cart, check out, leave feedback,
// and verify stock and history afterwards.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"tradepost.org/internal/cart"
	"tradepost.org/internal/catalog"
	"tradepost.org/internal/checkout"
	"tradepost.org/internal/feedback"
	"tradepost.org/internal/inventory"
	"tradepost.org/internal/market"
	"tradepost.org/internal/payment"
	"tradepost.org/internal/session"
	"tradepost.org/internal/store/memory"
)

func main() {
	addr := os.Getenv("TRADEPOST_PAYMENT_ADDR")
	if addr == "" {
		addr = "localhost:9631"
	}
	authorizer, err := payment.Dial(addr)
	if err != nil {
		log.Fatalf("dial paymentd at %s: %v", addr, err)
	}
	defer authorizer.Close()

	store := memory.NewStore()
	ledger := inventory.NewLedger(store)
	listings := catalog.NewService(store)
	carts := cart.NewCoordinator(store, ledger, store)
	orders := checkout.NewOrchestrator(store, carts, authorizer)
	ratings := feedback.NewLedger(store)
	sessions := session.NewService(store, store, session.WithJanitor(carts))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	seller, err := sessions.Register(ctx, market.RealmSeller, "smoke-seller", "hunter22")
	if err != nil {
		log.Fatalf("register seller: %v", err)
	}
	buyer, err := sessions.Register(ctx, market.RealmBuyer, "smoke-buyer", "hunter22")
	if err != nil {
		log.Fatalf("register buyer: %v", err)
	}
	token, err := sessions.Login(ctx, market.RealmBuyer, "smoke-buyer", "hunter22")
	if err != nil {
		log.Fatalf("login buyer: %v", err)
	}
	if _, err := sessions.Validate(ctx, token, market.RealmBuyer); err != nil {
		log.Fatalf("validate buyer session: %v", err)
	}

	item, err := listings.RegisterItem(ctx, seller.ID, "Mechanical Keyboard", "electronics",
		market.ConditionNew, 12_500, 10, []string{"keys", "usb"})
	if err != nil {
		log.Fatalf("register item: %v", err)
	}

	if err := carts.Add(ctx, buyer.ID, item.ID, 2); err != nil {
		log.Fatalf("add to cart: %v", err)
	}
	res, err := orders.Checkout(ctx, buyer.ID, market.PaymentCard{
		HolderName: "Smoke Tester",
		Number:     "4111111111111111",
		Expiry:     "12/30",
		CVV:        "123",
	})
	if err != nil {
		log.Fatalf("checkout: %v", err)
	}
	if res.Units != 2 {
		log.Fatalf("expected 2 units purchased, got %d", res.Units)
	}

	after, err := listings.GetItem(ctx, item.ID)
	if err != nil {
		log.Fatalf("get item: %v", err)
	}
	if after.Stock != 8 || after.Reserved != 0 {
		log.Fatalf("stock not settled: stock=%d reserved=%d", after.Stock, after.Reserved)
	}

	history, err := orders.Purchases(ctx, buyer.ID)
	if err != nil || len(history) != 1 {
		log.Fatalf("purchase history: %v (%d records)", err, len(history))
	}

	if err := ratings.RecordFeedback(ctx, item.ID, feedback.ThumbsUp); err != nil {
		log.Fatalf("record feedback: %v", err)
	}
	rating, err := ratings.GetSellerRating(ctx, seller.ID)
	if err != nil || rating.ThumbsUp != 1 {
		log.Fatalf("seller rating: %v (%+v)", err, rating)
	}

	if err := sessions.Revoke(ctx, token); err != nil {
		log.Fatalf("logout: %v", err)
	}

	fmt.Printf("smoke test passed: item=%s purchase=%s\n", item.ID, history[0].ID)
}
