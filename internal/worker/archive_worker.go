package worker

import (
	"context"
	"fmt"

	"fintrack/internal/amqp"
	"fintrack/internal/log"
	"fintrack/internal/storage"
)

// ArchiveWorker resolves sync messages against SQLite and appends the rows
// to the CSV archive.
type ArchiveWorker struct {
	storage   *storage.SQLiteRepository
	archive   *CSVArchive
	batchSize int
	logger    *log.Logger
}

func NewArchiveWorker(storage *storage.SQLiteRepository, archive *CSVArchive, batchSize int, logger *log.Logger) *ArchiveWorker {
	return &ArchiveWorker{
		storage:   storage,
		archive:   archive,
		batchSize: batchSize,
		logger:    logger.WithComponent(log.ComponentWorker),
	}
}

// HandleSyncMessage processes one queue message. A returned error nacks the
// delivery back onto the queue.
func (w *ArchiveWorker) HandleSyncMessage(ctx context.Context, msg *amqp.TransactionSyncMessage) error {
	w.logger.InfoContext(ctx, "Processing sync message",
		log.FieldTxID, msg.ID,
		log.FieldVersion, msg.Version)

	userID, tx, err := w.storage.GetByRowID(ctx, msg.ID)
	if err != nil {
		return fmt.Errorf("get transaction from storage: %w", err)
	}

	if err := w.archive.Append(userID, tx); err != nil {
		return fmt.Errorf("append to archive: %w", err)
	}

	if err := w.storage.MarkSynced(ctx, msg.ID); err != nil {
		return fmt.Errorf("mark synced: %w", err)
	}
	return nil
}

// ProcessPending sweeps rows that never made it through the queue, archiving
// each one. Rows that fail are flagged so the sweep does not spin on them.
func (w *ArchiveWorker) ProcessPending(ctx context.Context) error {
	pending, err := w.storage.GetPendingSync(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("get pending sync transactions: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	w.logger.InfoContext(ctx, "Sweeping pending transactions", log.FieldCount, len(pending))

	for _, p := range pending {
		userID, tx, err := w.storage.GetByRowID(ctx, p.ID)
		if err != nil {
			w.logger.ErrorContext(ctx, "Failed to load pending transaction",
				log.FieldTxID, p.ID, log.FieldError, err)
			w.markError(ctx, p.ID)
			continue
		}
		if err := w.archive.Append(userID, tx); err != nil {
			w.logger.ErrorContext(ctx, "Failed to archive pending transaction",
				log.FieldTxID, p.ID, log.FieldError, err)
			w.markError(ctx, p.ID)
			continue
		}
		if err := w.storage.MarkSynced(ctx, p.ID); err != nil {
			w.logger.ErrorContext(ctx, "Failed to mark transaction synced",
				log.FieldTxID, p.ID, log.FieldError, err)
		}
	}
	return nil
}

func (w *ArchiveWorker) markError(ctx context.Context, id int64) {
	if err := w.storage.MarkSyncError(ctx, id); err != nil {
		w.logger.ErrorContext(ctx, "Failed to mark sync error",
			log.FieldTxID, id, log.FieldError, err)
	}
}
