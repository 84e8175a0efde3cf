package csvio

import (
	"bytes"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

func TestExportThenImportRoundTrip(t *testing.T) {
	in := []core.Transaction{
		{Name: "Coffee", Type: core.Expense, Tag: "", Date: "01-04-2025", Amount: decimal.NewFromInt(150)},
		{Name: "Salary", Type: core.Income, Tag: "work", Date: "2025-04-01", Amount: decimal.RequireFromString("2500.50")},
	}

	var buf bytes.Buffer
	if err := ExportRows(&buf, in); err != nil {
		t.Fatalf("ExportRows: %v", err)
	}

	rows, err := ReadRows(&buf)
	if err != nil {
		t.Fatalf("ReadRows: %v", err)
	}
	out, skipped := ImportRows(rows)
	if skipped != 0 {
		t.Fatalf("skipped = %d, want 0", skipped)
	}
	if len(out) != len(in) {
		t.Fatalf("len = %d, want %d", len(out), len(in))
	}
	for i := range in {
		if out[i].Name != in[i].Name || out[i].Type != in[i].Type ||
			out[i].Tag != in[i].Tag || out[i].Date != in[i].Date {
			t.Errorf("row %d: got %+v, want %+v", i, out[i], in[i])
		}
		if !out[i].Amount.Equal(in[i].Amount) {
			t.Errorf("row %d: amount = %s, want %s", i, out[i].Amount, in[i].Amount)
		}
	}
}

func TestImportRowsSkipsBadAmounts(t *testing.T) {
	input := strings.Join([]string{
		"name,type,tag,date,amount",
		"Rent,expense,home,2025-04-01,800",
		"Mystery,expense,,2025-04-02,not-a-number",
		"Empty,expense,,2025-04-03,",
		"Refund,income,,2025-04-04,12.30",
	}, "\n")

	rows, err := ReadRows(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadRows: %v", err)
	}
	txs, skipped := ImportRows(rows)
	if skipped != 2 {
		t.Fatalf("skipped = %d, want 2", skipped)
	}
	if len(txs) != 2 || txs[0].Name != "Rent" || txs[1].Name != "Refund" {
		t.Fatalf("unexpected survivors: %+v", txs)
	}
}

func TestReadRowsShortRows(t *testing.T) {
	input := "name,type,tag,date,amount\nSnack,expense\n"
	rows, err := ReadRows(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadRows: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("len = %d, want 1", len(rows))
	}
	if rows[0]["name"] != "Snack" || rows[0]["amount"] != "" {
		t.Fatalf("row = %+v", rows[0])
	}
}

func TestReadRowsEmptyInput(t *testing.T) {
	rows, err := ReadRows(strings.NewReader(""))
	if err != nil {
		t.Fatalf("ReadRows: %v", err)
	}
	if rows != nil {
		t.Fatalf("expected nil rows, got %+v", rows)
	}
}

func TestImportedRowsPassThroughUnvalidated(t *testing.T) {
	input := "name,type,tag,date,amount\n,weird-type,,garbage-date,42\n"
	rows, err := ReadRows(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadRows: %v", err)
	}
	txs, skipped := ImportRows(rows)
	if skipped != 0 || len(txs) != 1 {
		t.Fatalf("txs = %+v, skipped = %d", txs, skipped)
	}
	if txs[0].Type != "weird-type" || txs[0].Date != "garbage-date" {
		t.Fatalf("row was altered: %+v", txs[0])
	}
}
