package core

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestTransactionValidate(t *testing.T) {
	good := Transaction{
		Name:   "Salary",
		Amount: decimal.NewFromInt(1200),
		Type:   Income,
		Date:   "01-04-2025",
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []struct {
		name string
		tx   Transaction
		want error
	}{
		{"empty name", Transaction{Name: "  ", Amount: decimal.NewFromInt(1), Type: Income}, ErrEmptyName},
		{"zero amount", Transaction{Name: "a", Amount: decimal.Zero, Type: Income}, ErrInvalidAmount},
		{"negative amount", Transaction{Name: "a", Amount: decimal.NewFromInt(-5), Type: Expense}, ErrInvalidAmount},
		{"bad type", Transaction{Name: "a", Amount: decimal.NewFromInt(1), Type: "transfer"}, ErrInvalidType},
	}
	for _, tc := range bads {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.tx.Validate(); err != tc.want {
				t.Fatalf("Validate() = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestSignedAmount(t *testing.T) {
	in := Transaction{Name: "a", Amount: decimal.NewFromInt(40), Type: Income}
	if got := in.SignedAmount(); !got.Equal(decimal.NewFromInt(40)) {
		t.Fatalf("income signed amount = %s", got)
	}
	out := Transaction{Name: "b", Amount: decimal.NewFromInt(40), Type: Expense}
	if got := out.SignedAmount(); !got.Equal(decimal.NewFromInt(-40)) {
		t.Fatalf("expense signed amount = %s", got)
	}
}
