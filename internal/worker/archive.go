// Package worker drains the sync queue into the CSV archive. The archive is
// append-only; updates land as new rows and deletes never touch it.
package worker

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"fintrack/internal/core"
	"fintrack/internal/csvio"
)

// CSVArchive appends transactions to a single CSV file on disk. Safe for use
// from the consumer goroutine and the periodic sweep at once.
type CSVArchive struct {
	mu   sync.Mutex
	path string
}

func NewCSVArchive(path string) (*CSVArchive, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create archive directory: %w", err)
	}
	return &CSVArchive{path: path}, nil
}

// Append writes one transaction row, adding the header first on an empty file.
func (a *CSVArchive) Append(userID string, t core.Transaction) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	f, err := os.OpenFile(a.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat archive: %w", err)
	}

	if info.Size() == 0 {
		header := append([]string{"user_id"}, csvio.Columns...)
		if err := writeRow(f, header); err != nil {
			return fmt.Errorf("write archive header: %w", err)
		}
	}

	row := append([]string{userID}, csvio.Record(t)...)
	if err := writeRow(f, row); err != nil {
		return fmt.Errorf("write archive row: %w", err)
	}
	return nil
}

// Path returns the archive file location.
func (a *CSVArchive) Path() string { return a.path }

func writeRow(f *os.File, fields []string) error {
	w := csv.NewWriter(f)
	if err := w.Write(fields); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}
