package worker

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/storage"
)

func newTestWorker(t *testing.T) (*ArchiveWorker, *storage.SQLiteRepository, *CSVArchive) {
	t.Helper()
	logger := log.New(log.DefaultConfig())
	dir := t.TempDir()

	repo, err := storage.NewSQLiteRepository(filepath.Join(dir, "test.db"), logger)
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	archive, err := NewCSVArchive(filepath.Join(dir, "archive.csv"))
	if err != nil {
		t.Fatalf("NewCSVArchive: %v", err)
	}
	return NewArchiveWorker(repo, archive, 10, logger), repo, archive
}

func sample(name string) core.Transaction {
	return core.Transaction{
		Name:   name,
		Type:   core.Expense,
		Tag:    "food",
		Date:   "01-04-2025",
		Amount: decimal.RequireFromString("3.50"),
	}
}

func archiveLines(t *testing.T, a *CSVArchive) []string {
	t.Helper()
	data, err := os.ReadFile(a.Path())
	if err != nil {
		t.Fatalf("read archive: %v", err)
	}
	return strings.Split(strings.TrimSpace(string(data)), "\n")
}

func TestHandleSyncMessage(t *testing.T) {
	w, repo, archive := newTestWorker(t)
	ctx := context.Background()

	repo.Create(ctx, "u1", sample("Coffee"))
	pending, _ := repo.GetPendingSync(ctx, 10)
	if len(pending) != 1 {
		t.Fatalf("pending = %+v", pending)
	}

	msg := amqp.NewTransactionSyncMessage(pending[0].ID, pending[0].Version)
	if err := w.HandleSyncMessage(ctx, msg); err != nil {
		t.Fatalf("HandleSyncMessage: %v", err)
	}

	lines := archiveLines(t, archive)
	if len(lines) != 2 {
		t.Fatalf("archive lines = %v", lines)
	}
	if lines[0] != "user_id,name,type,tag,date,amount" {
		t.Fatalf("header = %q", lines[0])
	}
	if lines[1] != "u1,Coffee,expense,food,01-04-2025,3.5" {
		t.Fatalf("row = %q", lines[1])
	}

	if pending, _ = repo.GetPendingSync(ctx, 10); len(pending) != 0 {
		t.Fatalf("still pending after handle: %+v", pending)
	}
}

func TestHandleSyncMessageMissingRowErrors(t *testing.T) {
	w, _, _ := newTestWorker(t)
	msg := amqp.NewTransactionSyncMessage(9999, 1)
	if err := w.HandleSyncMessage(context.Background(), msg); err == nil {
		t.Fatal("expected error for missing row")
	}
}

func TestProcessPendingSweep(t *testing.T) {
	w, repo, archive := newTestWorker(t)
	ctx := context.Background()

	repo.Create(ctx, "u1", sample("Coffee"))
	repo.Create(ctx, "u2", sample("Rent"))

	if err := w.ProcessPending(ctx); err != nil {
		t.Fatalf("ProcessPending: %v", err)
	}

	lines := archiveLines(t, archive)
	if len(lines) != 3 {
		t.Fatalf("archive lines = %v", lines)
	}

	if pending, _ := repo.GetPendingSync(ctx, 10); len(pending) != 0 {
		t.Fatalf("still pending after sweep: %+v", pending)
	}

	// A second sweep finds nothing and leaves the archive alone
	if err := w.ProcessPending(ctx); err != nil {
		t.Fatalf("second ProcessPending: %v", err)
	}
	if lines := archiveLines(t, archive); len(lines) != 3 {
		t.Fatalf("sweep duplicated rows: %v", lines)
	}
}

func TestArchiveAppendQuotesFields(t *testing.T) {
	_, _, archive := newTestWorker(t)

	tx := sample(`Dinner, "La Pergola"`)
	if err := archive.Append("u1", tx); err != nil {
		t.Fatalf("Append: %v", err)
	}

	data, err := os.ReadFile(archive.Path())
	if err != nil {
		t.Fatalf("read archive: %v", err)
	}
	if !strings.Contains(string(data), `"Dinner, ""La Pergola"""`) {
		t.Fatalf("field not quoted: %q", string(data))
	}
}
