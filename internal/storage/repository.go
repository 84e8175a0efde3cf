// Package storage is the SQLite persistence layer. Rows carry sync-state
// columns so the archive worker can drain writes asynchronously.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/store"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db     *sql.DB
	logger *log.Logger
}

// PendingSyncTransaction is the minimal row shape queued for archiving.
type PendingSyncTransaction struct {
	ID        int64
	Version   int64
	CreatedAt time.Time
}

func NewSQLiteRepository(dbPath string, logger *log.Logger) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:     db,
		logger: logger.WithComponent(log.ComponentStorage),
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Create inserts a transaction and returns its id as the API-facing string.
func (r *SQLiteRepository) Create(ctx context.Context, userID string, t core.Transaction) (string, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (user_id, name, type, tag, date, amount)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		userID, t.Name, string(t.Type), t.Tag, t.Date, t.Amount.String())
	if err != nil {
		return "", fmt.Errorf("insert transaction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return "", fmt.Errorf("last insert id: %w", err)
	}

	r.logger.InfoContext(ctx, "Transaction saved",
		log.FieldOperation, log.OpCreate,
		log.FieldTxID, id,
		log.FieldUserID, userID,
		log.FieldTxName, t.Name,
		log.FieldAmount, t.Amount.String())

	return strconv.FormatInt(id, 10), nil
}

// Update rewrites the row, bumps its version and clears the synced flag so
// the archive worker picks the new state up again.
func (r *SQLiteRepository) Update(ctx context.Context, userID string, t core.Transaction) error {
	id, err := rowID(t.ID)
	if err != nil {
		return store.ErrNotFound
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE transactions
		 SET name = ?, type = ?, tag = ?, date = ?, amount = ?,
		     version = version + 1, synced = 0, sync_error = 0
		 WHERE id = ? AND user_id = ?`,
		t.Name, string(t.Type), t.Tag, t.Date, t.Amount.String(), id, userID)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	return requireRow(res)
}

func (r *SQLiteRepository) Delete(ctx context.Context, userID, txID string) error {
	id, err := rowID(txID)
	if err != nil {
		return store.ErrNotFound
	}

	res, err := r.db.ExecContext(ctx,
		`DELETE FROM transactions WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return requireRow(res)
}

func (r *SQLiteRepository) Get(ctx context.Context, userID, txID string) (core.Transaction, error) {
	id, err := rowID(txID)
	if err != nil {
		return core.Transaction{}, store.ErrNotFound
	}

	row := r.db.QueryRowContext(ctx,
		`SELECT id, name, type, tag, date, amount
		 FROM transactions WHERE id = ? AND user_id = ?`, id, userID)
	return scanTransaction(row)
}

func (r *SQLiteRepository) List(ctx context.Context, userID string) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, type, tag, date, amount
		 FROM transactions WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var txs []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, t)
	}
	return txs, rows.Err()
}

// GetByRowID loads a row by its numeric id regardless of owner. The archive
// worker resolves queue messages with it.
func (r *SQLiteRepository) GetByRowID(ctx context.Context, id int64) (string, core.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT user_id, id, name, type, tag, date, amount
		 FROM transactions WHERE id = ?`, id)

	var userID, rawID, name, typ, tag, date, amount string
	if err := row.Scan(&userID, &rawID, &name, &typ, &tag, &date, &amount); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", core.Transaction{}, store.ErrNotFound
		}
		return "", core.Transaction{}, fmt.Errorf("get transaction by row id: %w", err)
	}
	t, err := buildTransaction(rawID, name, typ, tag, date, amount)
	return userID, t, err
}

// GetPendingSync returns up to limit rows that still need archiving.
func (r *SQLiteRepository) GetPendingSync(ctx context.Context, limit int) ([]PendingSyncTransaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, version, created_at FROM transactions
		 WHERE synced = 0 AND sync_error = 0
		 ORDER BY id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("get pending sync transactions: %w", err)
	}
	defer rows.Close()

	var pending []PendingSyncTransaction
	for rows.Next() {
		var p PendingSyncTransaction
		if err := rows.Scan(&p.ID, &p.Version, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan pending sync row: %w", err)
		}
		pending = append(pending, p)
	}
	return pending, rows.Err()
}

// GetVersion returns the current version of a row.
func (r *SQLiteRepository) GetVersion(ctx context.Context, id int64) (int64, error) {
	var version int64
	err := r.db.QueryRowContext(ctx,
		`SELECT version FROM transactions WHERE id = ?`, id).Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, store.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("get transaction version: %w", err)
	}
	return version, nil
}

// MarkSynced marks a transaction as successfully archived.
func (r *SQLiteRepository) MarkSynced(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET synced = 1, sync_error = 0 WHERE id = ?`, id); err != nil {
		return fmt.Errorf("mark transaction synced: %w", err)
	}
	r.logger.InfoContext(ctx, "Transaction marked as synced", log.FieldTxID, id)
	return nil
}

// MarkSyncError flags a transaction so the sweep stops retrying it.
func (r *SQLiteRepository) MarkSyncError(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET sync_error = 1 WHERE id = ?`, id); err != nil {
		return fmt.Errorf("mark transaction sync error: %w", err)
	}
	r.logger.WarnContext(ctx, "Transaction marked with sync error", log.FieldTxID, id)
	return nil
}

func rowID(s string) (int64, error) {
	return strconv.ParseInt(s, 10, 64)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row scanner) (core.Transaction, error) {
	var id, name, typ, tag, date, amount string
	if err := row.Scan(&id, &name, &typ, &tag, &date, &amount); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Transaction{}, store.ErrNotFound
		}
		return core.Transaction{}, fmt.Errorf("scan transaction: %w", err)
	}
	return buildTransaction(id, name, typ, tag, date, amount)
}

func buildTransaction(id, name, typ, tag, date, amount string) (core.Transaction, error) {
	amt, err := decimal.NewFromString(amount)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse stored amount %q: %w", amount, err)
	}
	return core.Transaction{
		ID:     id,
		Name:   name,
		Type:   core.TxType(typ),
		Tag:    tag,
		Date:   date,
		Amount: amt,
	}, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
