package tests

import (
	"context"
	"encoding/json"
	"testing"

	"cafepos/internal/domain"
	"cafepos/internal/repository"
	"cafepos/internal/service"
)

func TestCart_AddIncrementsExistingLine(t *testing.T) {
	t.Parallel()

	slots := NewMockSlotStore()
	ledger := service.NewCartLedger(slots)
	ctx := context.Background()
	latte := menuItem(t, "latte", "5.00")

	if _, err := ledger.Add(ctx, latte); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cart, err := ledger.Add(ctx, latte)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(cart.Lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(cart.Lines))
	}
	if cart.Lines[0].Quantity != 2 {
		t.Errorf("expected quantity 2, got %d", cart.Lines[0].Quantity)
	}
	if got := cart.TotalFiat().StringFixed(2); got != "10.00" {
		t.Errorf("expected total 10.00, got %s", got)
	}
}

func TestCart_SetQuantityZeroRemovesLine(t *testing.T) {
	t.Parallel()

	slots := NewMockSlotStore()
	ledger := service.NewCartLedger(slots)
	ctx := context.Background()

	if _, err := ledger.Add(ctx, menuItem(t, "latte", "5.00")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cart, err := ledger.SetQuantity(ctx, "latte", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cart.IsEmpty() {
		t.Errorf("expected empty cart, got %d lines", len(cart.Lines))
	}

	// The persisted mirror must never carry a quantity <= 0 either.
	raw, ok := slots.Value(repository.SlotCart)
	if !ok {
		t.Fatal("cart slot not persisted")
	}
	var persisted domain.Cart
	if err := json.Unmarshal([]byte(raw), &persisted); err != nil {
		t.Fatalf("persisted cart unparseable: %v", err)
	}
	for _, line := range persisted.Lines {
		if line.Quantity <= 0 {
			t.Errorf("persisted line %s has quantity %d", line.ItemID, line.Quantity)
		}
	}
}

func TestCart_MirroredOnEveryChange(t *testing.T) {
	t.Parallel()

	slots := NewMockSlotStore()
	ledger := service.NewCartLedger(slots)
	ctx := context.Background()

	if _, err := ledger.Add(ctx, menuItem(t, "latte", "5.00")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := ledger.SetQuantity(ctx, "latte", 3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	raw, ok := slots.Value(repository.SlotCart)
	if !ok {
		t.Fatal("cart slot not persisted")
	}
	var persisted domain.Cart
	if err := json.Unmarshal([]byte(raw), &persisted); err != nil {
		t.Fatalf("persisted cart unparseable: %v", err)
	}
	if len(persisted.Lines) != 1 || persisted.Lines[0].Quantity != 3 {
		t.Errorf("persisted cart does not mirror ledger: %+v", persisted)
	}
}

func TestCart_RestoreFromSlot(t *testing.T) {
	t.Parallel()

	slots := NewMockSlotStore()
	slots.Put(repository.SlotCart, `{"lines":[{"item_id":"latte","name":"latte","unit_price":"5","quantity":2}]}`)

	ledger := service.NewCartLedger(slots)
	if err := ledger.Restore(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cart := ledger.Snapshot()
	if len(cart.Lines) != 1 || cart.Lines[0].Quantity != 2 {
		t.Errorf("restored cart mismatch: %+v", cart)
	}
}

func TestCart_RestoreTreatsCorruptSlotAsAbsent(t *testing.T) {
	t.Parallel()

	slots := NewMockSlotStore()
	slots.Put(repository.SlotCart, "{not json")

	ledger := service.NewCartLedger(slots)
	if err := ledger.Restore(context.Background()); err != nil {
		t.Fatalf("corrupt slot must not fail restore: %v", err)
	}
	if !ledger.Snapshot().IsEmpty() {
		t.Error("expected empty cart after corrupt restore")
	}
	if _, ok := slots.Value(repository.SlotCart); ok {
		t.Error("corrupt cart slot should have been removed")
	}
}

func TestCart_RestoreDropsInvalidLines(t *testing.T) {
	t.Parallel()

	slots := NewMockSlotStore()
	slots.Put(repository.SlotCart, `{"lines":[{"item_id":"latte","unit_price":"5","quantity":0},{"item_id":"mocha","unit_price":"6","quantity":1}]}`)

	ledger := service.NewCartLedger(slots)
	if err := ledger.Restore(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cart := ledger.Snapshot()
	if len(cart.Lines) != 1 || cart.Lines[0].ItemID != "mocha" {
		t.Errorf("expected only the valid line to survive, got %+v", cart.Lines)
	}
}
