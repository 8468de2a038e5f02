package catalog_test

import (
	"context"
	"sync"
	"testing"

	"tradepost.org/internal/catalog"
	"tradepost.org/internal/market"
	"tradepost.org/internal/store/memory"
)

func TestRegisterItemAllocatesPerCategoryNumbers(t *testing.T) {
	svc := catalog.NewService(memory.NewStore())
	ctx := context.Background()

	first, err := svc.RegisterItem(ctx, 1, "Lamp", "home", market.ConditionNew, 500, 3, nil)
	if err != nil {
		t.Fatal(err)
	}
	second, err := svc.RegisterItem(ctx, 1, "Chair", "home", market.ConditionUsed, 2500, 1, nil)
	if err != nil {
		t.Fatal(err)
	}
	other, err := svc.RegisterItem(ctx, 1, "Lamp", "office", market.ConditionNew, 500, 3, nil)
	if err != nil {
		t.Fatal(err)
	}

	if first.ID.Number != 1 || second.ID.Number != 2 {
		t.Fatalf("expected sequential numbers within category, got %d, %d", first.ID.Number, second.ID.Number)
	}
	if other.ID.Number != 1 {
		t.Fatalf("each category starts at 1, got %d", other.ID.Number)
	}
}

func TestRegisterItemValidation(t *testing.T) {
	svc := catalog.NewService(memory.NewStore())
	ctx := context.Background()

	cases := []struct {
		name     string
		itemName string
		category string
		cond     market.Condition
		price    int64
		qty      int64
		keywords []string
	}{
		{"empty name", "", "home", market.ConditionNew, 500, 1, nil},
		{"long name", string(make([]byte, 65)), "home", market.ConditionNew, 500, 1, nil},
		{"empty category", "Lamp", "", market.ConditionNew, 500, 1, nil},
		{"bad condition", "Lamp", "home", "Refurbished", 500, 1, nil},
		{"zero price", "Lamp", "home", market.ConditionNew, 0, 1, nil},
		{"negative stock", "Lamp", "home", market.ConditionNew, 500, -1, nil},
		{"zero stock", "Lamp", "home", market.ConditionNew, 500, 0, nil},
		{"too many keywords", "Lamp", "home", market.ConditionNew, 500, 1, []string{"a", "b", "c", "d", "e", "f"}},
		{"long keyword", "Lamp", "home", market.ConditionNew, 500, 1, []string{"oversized1"}},
	}
	for _, tc := range cases {
		_, err := svc.RegisterItem(ctx, 1, tc.itemName, tc.category, tc.cond, tc.price, tc.qty, tc.keywords)
		if !market.IsValidation(err) {
			t.Fatalf("%s: expected validation error, got %v", tc.name, err)
		}
	}
}

func TestConcurrentRegistrationNumbersAreContiguous(t *testing.T) {
	svc := catalog.NewService(memory.NewStore())
	ctx := context.Background()

	const n = 40
	var wg sync.WaitGroup
	numbers := make(chan int64, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			item, err := svc.RegisterItem(ctx, 1, "Lamp", "home", market.ConditionNew, 500, 1, nil)
			if err != nil {
				t.Error(err)
				return
			}
			numbers <- item.ID.Number
		}()
	}
	wg.Wait()
	close(numbers)

	seen := make(map[int64]bool)
	for num := range numbers {
		if seen[num] {
			t.Fatalf("number %d allocated twice", num)
		}
		seen[num] = true
	}
	for i := int64(1); i <= n; i++ {
		if !seen[i] {
			t.Fatalf("allocation not contiguous, missing %d", i)
		}
	}
}

func TestSearchFiltersByStockAndKeyword(t *testing.T) {
	store := memory.NewStore()
	svc := catalog.NewService(store)
	ctx := context.Background()

	inStock, err := svc.RegisterItem(ctx, 1, "Lamp", "home", market.ConditionNew, 500, 2, []string{"light"})
	if err != nil {
		t.Fatal(err)
	}
	soldOut, err := svc.RegisterItem(ctx, 1, "Chair", "home", market.ConditionNew, 500, 1, []string{"seat"})
	if err != nil {
		t.Fatal(err)
	}
	// A fully reserved item has no availability left to show.
	if err := store.Reserve(ctx, soldOut.ID, 1); err != nil {
		t.Fatal(err)
	}

	all, err := svc.SearchItems(ctx, "home", nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 1 || all[0].ID != inStock.ID {
		t.Fatalf("expected only the in-stock item, got %+v", all)
	}

	none, err := svc.SearchItems(ctx, "home", []string{"seat"})
	if err != nil {
		t.Fatal(err)
	}
	if len(none) != 0 {
		t.Fatalf("keyword of out-of-stock item must match nothing, got %+v", none)
	}
}
