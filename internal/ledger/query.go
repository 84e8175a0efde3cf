package ledger

import (
	"slices"
	"strings"

	"fintrack/internal/core"
)

// Sort keys accepted by FilterAndSort. The empty key leaves the filtered
// order untouched.
const (
	SortByDate   = "date"
	SortByAmount = "amount"
)

// FilterAndSort returns a filtered, optionally sorted copy of txs. nameQuery
// matches case-insensitively as a substring of the name; typeFilter must be
// contained in the transaction type, so the empty filter matches everything.
// Sorting is stable and ascending. txs itself is never reordered.
func FilterAndSort(txs []core.Transaction, nameQuery, typeFilter, sortKey string) []core.Transaction {
	q := strings.ToLower(nameQuery)
	out := make([]core.Transaction, 0, len(txs))
	for _, t := range txs {
		if !strings.Contains(strings.ToLower(t.Name), q) {
			continue
		}
		if !strings.Contains(string(t.Type), typeFilter) {
			continue
		}
		out = append(out, t)
	}

	switch sortKey {
	case SortByDate:
		slices.SortStableFunc(out, func(a, b core.Transaction) int {
			da, _ := core.NormalizeDate(a.Date)
			db, _ := core.NormalizeDate(b.Date)
			return da.Compare(db)
		})
	case SortByAmount:
		slices.SortStableFunc(out, func(a, b core.Transaction) int {
			return a.Amount.Cmp(b.Amount)
		})
	}
	return out
}
