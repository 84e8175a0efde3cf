// Package csvio reads and writes the ledger's CSV interchange format. The
// column set is fixed; files written here round-trip through ImportRows
// without loss.
package csvio

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

// Columns is the canonical header row. Order matters: exported files and the
// archive both use it, and ImportRows keys rows by these names.
var Columns = []string{"name", "type", "tag", "date", "amount"}

// Record renders a transaction as one CSV row in Columns order. Dates are
// written as stored, not normalized.
func Record(t core.Transaction) []string {
	return []string{t.Name, string(t.Type), t.Tag, t.Date, t.Amount.String()}
}

// ExportRows writes the header followed by one row per transaction.
func ExportRows(w io.Writer, txs []core.Transaction) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, t := range txs {
		if err := cw.Write(Record(t)); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadRows parses a CSV stream into header-keyed maps. The first row is the
// header; rows shorter than it get empty strings for the missing fields, and
// extra fields are dropped. Ragged input is tolerated on purpose, hand-edited
// files are common.
func ReadRows(r io.Reader) ([]map[string]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	var rows []map[string]string
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		row := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(record) {
				row[col] = record[i]
			} else {
				row[col] = ""
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ImportRows converts header-keyed rows into transactions. A row whose amount
// does not parse as a number is skipped and counted; everything else passes
// through untouched, including dates and types the rest of the system may
// later reject or display as invalid.
func ImportRows(rows []map[string]string) (txs []core.Transaction, skipped int) {
	for _, row := range rows {
		amount, err := decimal.NewFromString(row["amount"])
		if err != nil {
			skipped++
			continue
		}
		txs = append(txs, core.Transaction{
			Name:   row["name"],
			Type:   core.TxType(row["type"]),
			Tag:    row["tag"],
			Date:   row["date"],
			Amount: amount,
		})
	}
	return txs, skipped
}
