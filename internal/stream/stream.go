package stream

import (
	"context"
	"sync"
	"time"

	"tradepost.org/internal/market"
)

// PurchaseEvent describes one completed checkout for live subscribers.
type PurchaseEvent struct {
	BuyerID    int64     `json:"buyer_id"`
	Items      int       `json:"items"`
	Units      int64     `json:"units"`
	TotalCents int64     `json:"total_cents"`
	ItemIDs    []string  `json:"item_ids"`
	Timestamp  time.Time `json:"timestamp"`
}

// Stream fans purchase events out to all active subscribers (SSE clients).
// Slow subscribers drop events rather than block the publisher.
type Stream struct {
	mu   sync.RWMutex
	subs map[int]chan PurchaseEvent
	next int
}

// New initialises an empty stream.
func New() *Stream {
	return &Stream{subs: make(map[int]chan PurchaseEvent)}
}

// Subscribe registers a listener until ctx is done. The returned cancel
// function is idempotent.
func (s *Stream) Subscribe(ctx context.Context) (<-chan PurchaseEvent, func()) {
	ch := make(chan PurchaseEvent, 16)

	s.mu.Lock()
	id := s.next
	s.next++
	s.subs[id] = ch
	s.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
			close(ch)
		})
	}

	go func() {
		<-ctx.Done()
		cancel()
	}()

	return ch, cancel
}

// PublishPurchase broadcasts a completed checkout.
func (s *Stream) PublishPurchase(buyerID int64, records []market.PurchaseRecord) {
	ev := PurchaseEvent{
		BuyerID:   buyerID,
		Items:     len(records),
		Timestamp: time.Now().UTC(),
	}
	for _, rec := range records {
		ev.Units += rec.Qty
		ev.TotalCents += rec.PriceCents * rec.Qty
		ev.ItemIDs = append(ev.ItemIDs, rec.Item.String())
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
