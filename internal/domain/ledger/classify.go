// Package ledger turns a ledger snapshot into the derived figures reported by
// the insights views: income, spend, budget percentages, end-of-day balances
// and cumulative daily totals.
//
// Every function in this package is a pure reader of its inputs. Classification
// rules live here and nowhere else; callers compose them through Query and
// Predicate instead of filtering transactions themselves.
package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/finance-tracker/insights/internal/domain/entity"
)

// SignedAmount returns the amount from the user's point of view: negative for
// money leaving, positive for money arriving. Credit and loan amounts are
// stored with the opposite sign and are negated here. All aggregates go
// through this function.
func SignedAmount(t *entity.Transaction) decimal.Decimal {
	if t.Account != nil && t.Account.CarriesCreditSign() {
		return t.Amount.Neg()
	}
	return t.Amount
}

// IsIncome reports whether the transaction brings money in.
func IsIncome(t *entity.Transaction) bool {
	return SignedAmount(t).IsPositive()
}

// IsExpense reports whether the transaction takes money out.
func IsExpense(t *entity.Transaction) bool {
	return SignedAmount(t).IsNegative()
}

// CountsTowardCalculations reports whether the transaction may enter any total.
func CountsTowardCalculations(t *entity.Transaction) bool {
	return t.FactorInCalculations && t.Active && t.Account != nil && t.Account.IsVisible()
}

// IsRealSpend reports whether the transaction is spending that is not the
// internal leg of a transfer or credit payment.
func IsRealSpend(t *entity.Transaction) bool {
	return IsExpense(t) && !t.IsTransferOrigin && !t.IsPaymentOrigin && !t.IsPaymentDest
}

// IsCountedSpend reports whether the transaction counts as spend in every
// aggregate: real spend on a debit, credit or loan account. Savings and other
// accounts never count as spend.
func IsCountedSpend(t *entity.Transaction) bool {
	return IsRealSpend(t) && t.Account != nil && (t.Account.IsDebit() || t.Account.IsCreditOrLoan())
}

// IsRealIncome reports whether the transaction is income that is not the
// receiving leg of a transfer or credit payment.
func IsRealIncome(t *entity.Transaction) bool {
	return IsIncome(t) && !t.IsTransferDest && !t.IsPaymentDest
}

// IsCreditPayment reports whether the transaction is a payment received by a
// credit or loan account.
func IsCreditPayment(t *entity.Transaction) bool {
	return t.Account != nil && t.Account.IsCreditOrLoan() && IsIncome(t) && t.IsPaymentDest
}

// IsDebitPayment reports whether the transaction pays a credit account from a debit account.
func IsDebitPayment(t *entity.Transaction) bool {
	return t.Account != nil && t.Account.IsDebit() && IsExpense(t) && t.IsPaymentOrigin
}

// ResolveUnified returns the concrete accounts a unified account stands for:
// debit accounts for unified checking, credit and loan accounts for unified
// credit. A concrete account resolves to itself.
func ResolveUnified(accounts []*entity.Account, account *entity.Account) []*entity.Account {
	switch account.Type {
	case entity.AccountTypeUnifiedChecking:
		return filterAccounts(accounts, func(a *entity.Account) bool {
			return a.IsDebit() && !a.IsUnified()
		})
	case entity.AccountTypeUnifiedCredit:
		return filterAccounts(accounts, (*entity.Account).IsCreditOrLoan)
	default:
		return []*entity.Account{account}
	}
}

func filterAccounts(accounts []*entity.Account, keep func(*entity.Account) bool) []*entity.Account {
	out := make([]*entity.Account, 0, len(accounts))
	for _, a := range accounts {
		if keep(a) {
			out = append(out, a)
		}
	}
	return out
}
