package cart

import (
	"errors"
	"testing"

	"addon_engine/internal/model"
)

func TestCartInvariants(t *testing.T) {
	c := New(0)
	if c.Size() != 0 || c.TotalValue() != 0 {
		t.Fatalf("new cart should be empty")
	}
	if _, ok := c.Last(); ok {
		t.Fatal("Last on empty cart should return false")
	}

	adds := []model.CartEntry{{Category: 1, Price: 10}, {Category: 2, Price: 50}, {Category: 4, Price: 120.5}}
	var sum float64
	for i, e := range adds {
		if err := c.Add(e.Category, e.Price); err != nil {
			t.Fatalf("Add failed: %v", err)
		}
		sum += e.Price

		last, ok := c.Last()
		if !ok || last != e {
			t.Errorf("after add %d expected last %+v, got %+v", i, e, last)
		}
		if c.Size() != i+1 {
			t.Errorf("expected size %d, got %d", i+1, c.Size())
		}
		if c.TotalValue() != sum {
			t.Errorf("expected total %v, got %v", sum, c.TotalValue())
		}
	}
}

func TestCartMaxItems(t *testing.T) {
	c := New(2)
	_ = c.Add(1, 1)
	_ = c.Add(1, 2)
	if err := c.Add(1, 3); !errors.Is(err, ErrCartFull) {
		t.Fatalf("expected ErrCartFull, got %v", err)
	}
	if c.Size() != 2 {
		t.Errorf("full cart should not grow, size %d", c.Size())
	}
}

func TestSnapshotIsolation(t *testing.T) {
	c := New(0)
	_ = c.Add(1, 10)
	snap := c.Snapshot()
	_ = c.Add(2, 20)

	if snap.Size() != 1 {
		t.Errorf("snapshot should not see later adds, size %d", snap.Size())
	}
	entries := c.Entries()
	entries[0].Price = 999
	if last, _ := snap.Last(); last.Price != 10 {
		t.Errorf("snapshot mutated through Entries copy: %+v", last)
	}
}
