package services

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/storage"
	"fintrack/internal/store"
)

func newTestService(t *testing.T) *TransactionService {
	t.Helper()
	logger := log.New(log.DefaultConfig())
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"), logger)
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	// nil AMQP client: publish is skipped, the sweep picks rows up later
	svc := NewTransactionService(repo, nil, logger)
	t.Cleanup(func() { svc.Close() })
	return svc
}

func sample(name string) core.Transaction {
	return core.Transaction{
		Name:   name,
		Type:   core.Expense,
		Date:   "2025-04-01",
		Amount: decimal.NewFromInt(10),
	}
}

func TestCreateWithoutBrokerStillSaves(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	id, err := svc.Create(ctx, "u1", sample("Coffee"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	got, err := svc.Get(ctx, "u1", id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Name != "Coffee" {
		t.Fatalf("got %+v", got)
	}
}

func TestUpdateThenList(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	id, _ := svc.Create(ctx, "u1", sample("Coffee"))

	updated := sample("Espresso")
	updated.ID = id
	if err := svc.Update(ctx, "u1", updated); err != nil {
		t.Fatalf("Update: %v", err)
	}

	txs, err := svc.List(ctx, "u1")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(txs) != 1 || txs[0].Name != "Espresso" {
		t.Fatalf("txs = %+v", txs)
	}
}

func TestDeleteMissing(t *testing.T) {
	svc := newTestService(t)
	if err := svc.Delete(context.Background(), "u1", "123"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("err = %v", err)
	}
}
