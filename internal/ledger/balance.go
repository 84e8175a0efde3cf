// Package ledger turns an unordered transaction collection into derived,
// chart-ready views. Everything here is a pure function of its arguments:
// inputs are never modified and no state survives a call.
package ledger

import (
	"slices"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

// BalancePoint is one entry of the running-balance series.
type BalancePoint struct {
	DisplayDate string          `json:"display_date"`
	Balance     decimal.Decimal `json:"balance"`
}

// RunningBalance orders transactions chronologically and walks them with a
// running balance starting at zero: income adds, expense subtracts.
// Transactions whose date does not normalize are dropped from the series and
// contribute nothing to the balance. Ties on the same day keep their input
// order.
func RunningBalance(txs []core.Transaction) []BalancePoint {
	type dated struct {
		tx   core.Transaction
		date core.Date
	}

	valid := make([]dated, 0, len(txs))
	for _, t := range txs {
		d, ok := core.NormalizeDate(t.Date)
		if !ok {
			continue
		}
		valid = append(valid, dated{tx: t, date: d})
	}
	slices.SortStableFunc(valid, func(a, b dated) int {
		return a.date.Compare(b.date)
	})

	points := make([]BalancePoint, 0, len(valid))
	balance := decimal.Zero
	for _, v := range valid {
		balance = balance.Add(v.tx.SignedAmount())
		points = append(points, BalancePoint{
			DisplayDate: v.date.String(),
			Balance:     balance,
		})
	}
	return points
}
