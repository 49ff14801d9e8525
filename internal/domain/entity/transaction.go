// Package entity defines the core business entities for the domain layer.
package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Transaction represents a dated, signed ledger entry.
//
// Amount follows the convention of its account: on debit accounts outflows are
// negative, on credit and loan accounts outflows are positive.
type Transaction struct {
	ID                   uuid.UUID
	Title                string
	Amount               decimal.Decimal
	Date                 time.Time
	Account              *Account  // Nil when the account was not loaded
	Category             *Category // Nil means uncategorized
	FactorInCalculations bool
	IsTransferOrigin     bool
	IsTransferDest       bool
	IsPaymentOrigin      bool
	IsPaymentDest        bool
	RelatedTransactionID *uuid.UUID // Links the two legs of a transfer or payment
	Active               bool
}

// IsPaired reports whether the transaction claims to be one leg of a transfer or payment.
func (t *Transaction) IsPaired() bool {
	return t.IsTransferOrigin || t.IsTransferDest || t.IsPaymentOrigin || t.IsPaymentDest
}

// CategoryOrNone returns the transaction category or the NoneCategory sentinel.
func (t *Transaction) CategoryOrNone() *Category {
	if t.Category == nil {
		return NoneCategory
	}
	return t.Category
}

// Budget is the planned amount for a category or a category group in one month.
// Exactly one of CategoryID and CategoryGroupID is set.
type Budget struct {
	ID              uuid.UUID
	CategoryID      *uuid.UUID
	CategoryGroupID *uuid.UUID
	Amount          decimal.Decimal
	Month           int
	Year            int
}

// Key returns the month the budget applies to.
func (b *Budget) Key() MonthKey {
	return MonthKey{Year: b.Year, Month: time.Month(b.Month)}
}
