// Package entity defines the core business entities for the domain layer.
package entity

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountType represents the kind of payment method an account models.
type AccountType string

const (
	AccountTypeCash            AccountType = "cash"
	AccountTypeChecking        AccountType = "checking"
	AccountTypeSavings         AccountType = "savings"
	AccountTypeCredit          AccountType = "credit"
	AccountTypeLoan            AccountType = "loan"
	AccountTypeUnifiedChecking AccountType = "unified_checking"
	AccountTypeUnifiedCredit   AccountType = "unified_credit"
	AccountTypeOther           AccountType = "other"
)

// Valid reports whether the account type is one of the known types.
func (t AccountType) Valid() bool {
	switch t {
	case AccountTypeCash, AccountTypeChecking, AccountTypeSavings, AccountTypeCredit,
		AccountTypeLoan, AccountTypeUnifiedChecking, AccountTypeUnifiedCredit, AccountTypeOther:
		return true
	}
	return false
}

// Account represents a payment method holding transactions.
// Unified accounts are virtual aggregates and never own transactions.
type Account struct {
	ID                     uuid.UUID
	Name                   string
	Type                   AccountType
	IsHidden               bool
	IsVisibleToCurrentUser bool
	OpeningBalance         decimal.Decimal // Balance before the first recorded transaction
}

// IsDebit reports whether spending from the account counts as debit spend.
// Savings accounts hold debit-signed balances but are not a spending source.
func (a *Account) IsDebit() bool {
	switch a.Type {
	case AccountTypeCash, AccountTypeChecking, AccountTypeUnifiedChecking:
		return true
	}
	return false
}

// IsSavings reports whether the account is a savings account.
func (a *Account) IsSavings() bool {
	return a.Type == AccountTypeSavings
}

// IsCreditOrLoan reports whether the account is a concrete credit card or loan.
func (a *Account) IsCreditOrLoan() bool {
	return a.Type == AccountTypeCredit || a.Type == AccountTypeLoan
}

// CarriesCreditSign reports whether amounts on the account follow the credit
// sign convention (outflows positive, inflows negative).
func (a *Account) CarriesCreditSign() bool {
	return a.IsCreditOrLoan() || a.Type == AccountTypeUnifiedCredit
}

// IsUnified reports whether the account is a virtual aggregate.
func (a *Account) IsUnified() bool {
	return a.Type == AccountTypeUnifiedChecking || a.Type == AccountTypeUnifiedCredit
}

// IsVisible reports whether the current user may see the account.
func (a *Account) IsVisible() bool {
	return a.IsVisibleToCurrentUser && !a.IsHidden
}
