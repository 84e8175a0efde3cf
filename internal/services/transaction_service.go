// Package services orchestrates writes across SQLite and AMQP. The local
// write always wins; a failed publish is logged and picked up later by the
// worker's pending-sync sweep.
package services

import (
	"context"
	"fmt"
	"strconv"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/storage"
)

// TransactionService implements store.TransactionStore over the SQLite
// repository, publishing a sync message after every create and update.
type TransactionService struct {
	storage    *storage.SQLiteRepository
	amqpClient *amqp.Client
	logger     *log.Logger
}

func NewTransactionService(storage *storage.SQLiteRepository, amqpClient *amqp.Client, logger *log.Logger) *TransactionService {
	return &TransactionService{
		storage:    storage,
		amqpClient: amqpClient,
		logger:     logger.WithComponent(log.ComponentLedger),
	}
}

// Create saves a transaction locally and publishes a sync message.
func (s *TransactionService) Create(ctx context.Context, userID string, t core.Transaction) (string, error) {
	ref, err := s.storage.Create(ctx, userID, t)
	if err != nil {
		return "", fmt.Errorf("save transaction: %w", err)
	}

	id, err := strconv.ParseInt(ref, 10, 64)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to parse transaction ID", "ref", ref, log.FieldError, err)
		return ref, nil // local save succeeded
	}

	if err := s.publishSyncMessage(ctx, id, 1); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish sync message",
			log.FieldTxID, id, log.FieldError, err)
		// Don't fail the request, the pending-sync sweep will retry
	}

	return ref, nil
}

// Update rewrites the row and publishes the bumped version.
func (s *TransactionService) Update(ctx context.Context, userID string, t core.Transaction) error {
	if err := s.storage.Update(ctx, userID, t); err != nil {
		return err
	}

	id, err := strconv.ParseInt(t.ID, 10, 64)
	if err != nil {
		return nil
	}
	version, err := s.storage.GetVersion(ctx, id)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to read transaction version",
			log.FieldTxID, id, log.FieldError, err)
		return nil
	}
	if err := s.publishSyncMessage(ctx, id, version); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish sync message",
			log.FieldTxID, id, log.FieldVersion, version, log.FieldError, err)
	}
	return nil
}

// Delete removes the row locally. Nothing is published: rows already written
// to the archive stay there as history.
func (s *TransactionService) Delete(ctx context.Context, userID, id string) error {
	return s.storage.Delete(ctx, userID, id)
}

func (s *TransactionService) Get(ctx context.Context, userID, id string) (core.Transaction, error) {
	return s.storage.Get(ctx, userID, id)
}

func (s *TransactionService) List(ctx context.Context, userID string) ([]core.Transaction, error) {
	return s.storage.List(ctx, userID)
}

func (s *TransactionService) publishSyncMessage(ctx context.Context, id, version int64) error {
	if s.amqpClient == nil {
		s.logger.WarnContext(ctx, "AMQP client not available, skipping sync message")
		return nil
	}
	return s.amqpClient.PublishTransactionSync(ctx, id, version)
}

// Close closes both storage and AMQP connections
func (s *TransactionService) Close() error {
	var errs []error

	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if s.amqpClient != nil {
		if err := s.amqpClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close transaction service: %v", errs)
	}

	return nil
}
