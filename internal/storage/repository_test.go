package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/store"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"), log.New(log.DefaultConfig()))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func sample(name string, amount string) core.Transaction {
	return core.Transaction{
		Name:   name,
		Type:   core.Expense,
		Tag:    "food",
		Date:   "01-04-2025",
		Amount: decimal.RequireFromString(amount),
	}
}

func TestCreateGetRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	id, err := repo.Create(ctx, "u1", sample("Coffee", "3.50"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := repo.Get(ctx, "u1", id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Name != "Coffee" || got.Tag != "food" || got.Date != "01-04-2025" {
		t.Fatalf("got %+v", got)
	}
	if !got.Amount.Equal(decimal.RequireFromString("3.50")) {
		t.Fatalf("amount = %s", got.Amount)
	}
}

func TestGetScopesByUser(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	id, _ := repo.Create(ctx, "u1", sample("Coffee", "3.50"))
	if _, err := repo.Get(ctx, "u2", id); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("cross-user Get: err = %v", err)
	}
	if err := repo.Delete(ctx, "u2", id); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("cross-user Delete: err = %v", err)
	}
}

func TestListOrdersByInsertion(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	repo.Create(ctx, "u1", sample("First", "1"))
	repo.Create(ctx, "u1", sample("Second", "2"))
	repo.Create(ctx, "u2", sample("Other", "9"))

	txs, err := repo.List(ctx, "u1")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(txs) != 2 || txs[0].Name != "First" || txs[1].Name != "Second" {
		t.Fatalf("txs = %+v", txs)
	}
}

func TestUpdateResetsSyncState(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	id, _ := repo.Create(ctx, "u1", sample("Coffee", "3.50"))
	pending, _ := repo.GetPendingSync(ctx, 10)
	if len(pending) != 1 || pending[0].Version != 1 {
		t.Fatalf("pending after create = %+v", pending)
	}

	if err := repo.MarkSynced(ctx, pending[0].ID); err != nil {
		t.Fatalf("MarkSynced: %v", err)
	}
	if pending, _ = repo.GetPendingSync(ctx, 10); len(pending) != 0 {
		t.Fatalf("pending after MarkSynced = %+v", pending)
	}

	updated := sample("Espresso", "4.00")
	updated.ID = id
	if err := repo.Update(ctx, "u1", updated); err != nil {
		t.Fatalf("Update: %v", err)
	}

	pending, _ = repo.GetPendingSync(ctx, 10)
	if len(pending) != 1 || pending[0].Version != 2 {
		t.Fatalf("pending after update = %+v", pending)
	}
}

func TestMarkSyncErrorExcludesFromPending(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	repo.Create(ctx, "u1", sample("Coffee", "3.50"))
	pending, _ := repo.GetPendingSync(ctx, 10)
	if err := repo.MarkSyncError(ctx, pending[0].ID); err != nil {
		t.Fatalf("MarkSyncError: %v", err)
	}
	if pending, _ = repo.GetPendingSync(ctx, 10); len(pending) != 0 {
		t.Fatalf("errored row still pending: %+v", pending)
	}
}

func TestGetByRowID(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	repo.Create(ctx, "u1", sample("Coffee", "3.50"))
	pending, _ := repo.GetPendingSync(ctx, 1)

	userID, tx, err := repo.GetByRowID(ctx, pending[0].ID)
	if err != nil {
		t.Fatalf("GetByRowID: %v", err)
	}
	if userID != "u1" || tx.Name != "Coffee" {
		t.Fatalf("userID = %q, tx = %+v", userID, tx)
	}

	if _, _, err := repo.GetByRowID(ctx, 9999); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("missing row: err = %v", err)
	}
}

func TestBogusIDIsNotFound(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if _, err := repo.Get(ctx, "u1", "not-a-number"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("err = %v", err)
	}
	if err := repo.Delete(ctx, "u1", "mem:1"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("err = %v", err)
	}
}
