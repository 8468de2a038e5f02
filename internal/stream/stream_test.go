package stream

import (
	"context"
	"testing"
	"time"

	"tradepost.org/internal/market"
)

func TestPublishReachesSubscribers(t *testing.T) {
	s := New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, unsub := s.Subscribe(ctx)
	defer unsub()

	s.PublishPurchase(7, []market.PurchaseRecord{
		{Item: market.ItemID{Category: "books", Number: 1}, Qty: 2, PriceCents: 900},
		{Item: market.ItemID{Category: "books", Number: 2}, Qty: 1, PriceCents: 1200},
	})

	select {
	case ev := <-ch:
		if ev.BuyerID != 7 || ev.Items != 2 || ev.Units != 3 || ev.TotalCents != 3000 {
			t.Fatalf("unexpected event %+v", ev)
		}
	case <-time.After(time.Second):
		t.Fatal("no event delivered")
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	s := New()
	ch, unsub := s.Subscribe(context.Background())
	unsub()

	// Publishing after unsubscribe must not panic or block.
	s.PublishPurchase(7, []market.PurchaseRecord{{Qty: 1}})

	if _, open := <-ch; open {
		t.Fatal("channel must be closed after unsubscribe")
	}
}

func TestSlowSubscriberDropsInsteadOfBlocking(t *testing.T) {
	s := New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_, unsub := s.Subscribe(ctx)
	defer unsub()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			s.PublishPurchase(int64(i), []market.PurchaseRecord{{Qty: 1}})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publisher blocked on a slow subscriber")
	}
}
