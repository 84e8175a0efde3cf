package ledger

import (
	"testing"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

func sample() []core.Transaction {
	return []core.Transaction{
		tx("Coffee beans", 12, core.Expense, "02-04-2025"),
		tx("Salary", 1000, core.Income, "01-04-2025"),
		tx("COFFEE shop", 4, core.Expense, "05-04-2025"),
		tx("Decaf coffee", 6, core.Income, "03-04-2025"),
		tx("Rent", 500, core.Expense, "04-04-2025"),
	}
}

func TestFilterByNameAndType(t *testing.T) {
	got := FilterAndSort(sample(), "cof", "expense", "")
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	// Relative order preserved with the empty sort key.
	if got[0].Name != "Coffee beans" || got[1].Name != "COFFEE shop" {
		t.Fatalf("unexpected order: %s, %s", got[0].Name, got[1].Name)
	}
}

func TestEmptyFiltersMatchEverything(t *testing.T) {
	got := FilterAndSort(sample(), "", "", "")
	if len(got) != 5 {
		t.Fatalf("len = %d, want 5", len(got))
	}
}

func TestSortByAmount(t *testing.T) {
	got := FilterAndSort(sample(), "", "", SortByAmount)
	prev := decimal.NewFromInt(-1)
	for i, x := range got {
		if x.Amount.Cmp(prev) < 0 {
			t.Fatalf("not ascending at %d: %s < %s", i, x.Amount, prev)
		}
		prev = x.Amount
	}
}

func TestSortByDate(t *testing.T) {
	got := FilterAndSort(sample(), "", "", SortByDate)
	want := []string{"Salary", "Coffee beans", "Decaf coffee", "Rent", "COFFEE shop"}
	for i, name := range want {
		if got[i].Name != name {
			t.Fatalf("position %d = %s, want %s", i, got[i].Name, name)
		}
	}
}

func TestFilterDoesNotMutateInput(t *testing.T) {
	txs := sample()
	FilterAndSort(txs, "", "", SortByAmount)
	if txs[0].Name != "Coffee beans" || txs[4].Name != "Rent" {
		t.Fatal("input slice was reordered")
	}
}
