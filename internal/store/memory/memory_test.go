package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	"fintrack/internal/store"
)

func tx(name string, amount int64) core.Transaction {
	return core.Transaction{
		Name:   name,
		Amount: decimal.NewFromInt(amount),
		Type:   core.Expense,
		Date:   "2025-04-01",
	}
}

func TestCreateAndList(t *testing.T) {
	s := New()
	ctx := context.Background()

	id1, err := s.Create(ctx, "u1", tx("Coffee", 3))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	id2, _ := s.Create(ctx, "u1", tx("Rent", 800))
	if id1 == id2 {
		t.Fatalf("ids collide: %s", id1)
	}

	txs, err := s.List(ctx, "u1")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(txs) != 2 || txs[0].Name != "Coffee" || txs[1].Name != "Rent" {
		t.Fatalf("insertion order lost: %+v", txs)
	}
}

func TestUsersAreIsolated(t *testing.T) {
	s := New()
	ctx := context.Background()

	id, _ := s.Create(ctx, "u1", tx("Coffee", 3))
	if txs, _ := s.List(ctx, "u2"); len(txs) != 0 {
		t.Fatalf("u2 sees u1's rows: %+v", txs)
	}
	if _, err := s.Get(ctx, "u2", id); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("cross-user Get: err = %v", err)
	}
	if err := s.Delete(ctx, "u2", id); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("cross-user Delete: err = %v", err)
	}
}

func TestUpdate(t *testing.T) {
	s := New()
	ctx := context.Background()

	id, _ := s.Create(ctx, "u1", tx("Coffee", 3))

	updated := tx("Espresso", 4)
	updated.ID = id
	if err := s.Update(ctx, "u1", updated); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got, err := s.Get(ctx, "u1", id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Name != "Espresso" || !got.Amount.Equal(decimal.NewFromInt(4)) {
		t.Fatalf("got %+v", got)
	}

	missing := tx("Ghost", 1)
	missing.ID = "mem:999"
	if err := s.Update(ctx, "u1", missing); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("Update missing: err = %v", err)
	}
}

func TestDelete(t *testing.T) {
	s := New()
	ctx := context.Background()

	id, _ := s.Create(ctx, "u1", tx("Coffee", 3))
	s.Create(ctx, "u1", tx("Rent", 800))

	if err := s.Delete(ctx, "u1", id); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	txs, _ := s.List(ctx, "u1")
	if len(txs) != 1 || txs[0].Name != "Rent" {
		t.Fatalf("after delete: %+v", txs)
	}
}

func TestListReturnsCopy(t *testing.T) {
	s := New()
	ctx := context.Background()
	s.Create(ctx, "u1", tx("Coffee", 3))

	txs, _ := s.List(ctx, "u1")
	txs[0].Name = "tampered"

	fresh, _ := s.List(ctx, "u1")
	if fresh[0].Name != "Coffee" {
		t.Fatalf("store state mutated through List result: %+v", fresh[0])
	}
}
