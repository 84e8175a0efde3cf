package core

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	Income  TxType = "income"
	Expense TxType = "expense"
)

type (
	TxType string

	// Transaction is a single dated money movement. Amount is always
	// positive; direction is carried by Type, never by sign. Date keeps the
	// raw text exactly as it was entered and is normalized on use, so a
	// record is never rewritten in place.
	Transaction struct {
		ID     string          `json:"id,omitempty"`
		Name   string          `json:"name"`
		Amount decimal.Decimal `json:"amount"`
		Type   TxType          `json:"type"`
		Date   string          `json:"date"`
		Tag    string          `json:"tag"`
	}
)

var (
	ErrInvalidAmount = errors.New("amount must be positive")
	ErrEmptyName     = errors.New("empty name")
	ErrInvalidType   = errors.New("type must be income or expense")
)

func (t TxType) Valid() bool {
	return t == Income || t == Expense
}

func (t Transaction) Validate() error {
	if len(strings.TrimSpace(t.Name)) == 0 {
		return ErrEmptyName
	}
	if len(t.Name) > 200 {
		return errors.New("name too long (max 200 characters)")
	}
	if !t.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if !t.Type.Valid() {
		return ErrInvalidType
	}
	return nil
}

// SignedAmount is the amount with the direction applied: positive for
// income, negative for expense.
func (t Transaction) SignedAmount() decimal.Decimal {
	if t.Type == Expense {
		return t.Amount.Neg()
	}
	return t.Amount
}
