// Package store declares the persistence boundary the HTTP layer talks to.
// Implementations live one level down; callers only ever see this interface.
package store

import (
	"context"
	"errors"

	"fintrack/internal/core"
)

// ErrNotFound is returned when a transaction id does not exist for the user.
var ErrNotFound = errors.New("transaction not found")

// TransactionStore is the per-user ledger. Every call is scoped to a userID;
// implementations must never leak one user's rows to another.
type TransactionStore interface {
	Create(ctx context.Context, userID string, t core.Transaction) (string, error)
	Update(ctx context.Context, userID string, t core.Transaction) error
	Delete(ctx context.Context, userID, id string) error
	Get(ctx context.Context, userID, id string) (core.Transaction, error)
	List(ctx context.Context, userID string) ([]core.Transaction, error)
}
