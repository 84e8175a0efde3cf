// Package memory is the in-process TransactionStore used by the default
// backend and by tests. State lives for the life of the process.
package memory

import (
	"context"
	"fmt"
	"sync"

	"fintrack/internal/core"
	"fintrack/internal/store"
)

// Store keeps each user's transactions in insertion order.
type Store struct {
	mu     sync.RWMutex
	nextID int
	byUser map[string][]core.Transaction
}

func New() *Store {
	return &Store{byUser: make(map[string][]core.Transaction)}
}

func (s *Store) Create(ctx context.Context, userID string, t core.Transaction) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	t.ID = fmt.Sprintf("mem:%d", s.nextID)
	s.byUser[userID] = append(s.byUser[userID], t)
	return t.ID, nil
}

func (s *Store) Update(ctx context.Context, userID string, t core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	txs := s.byUser[userID]
	for i := range txs {
		if txs[i].ID == t.ID {
			txs[i] = t
			return nil
		}
	}
	return store.ErrNotFound
}

func (s *Store) Delete(ctx context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	txs := s.byUser[userID]
	for i := range txs {
		if txs[i].ID == id {
			s.byUser[userID] = append(txs[:i], txs[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

func (s *Store) Get(ctx context.Context, userID, id string) (core.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, t := range s.byUser[userID] {
		if t.ID == id {
			return t, nil
		}
	}
	return core.Transaction{}, store.ErrNotFound
}

// List returns a copy; callers sort and filter without affecting the store.
func (s *Store) List(ctx context.Context, userID string) ([]core.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	txs := s.byUser[userID]
	out := make([]core.Transaction, len(txs))
	copy(out, txs)
	return out, nil
}
