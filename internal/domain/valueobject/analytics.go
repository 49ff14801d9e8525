// Package valueobject contains domain value objects for the insights service.
package valueobject

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/finance-tracker/insights/internal/domain/entity"
)

// Totals holds the signed sums of one selected transaction subset.
// Every spend figure is a positive magnitude of outflow.
type Totals struct {
	TransactionCount   int
	Income             decimal.Decimal
	DebitSpend         decimal.Decimal
	CreditSpend        decimal.Decimal
	TotalSpend         decimal.Decimal
	CreditPayments     decimal.Decimal
	SpendMinusPayments decimal.Decimal
	SpendMinusIncome   decimal.Decimal
	CashOut            decimal.Decimal
}

// ChartData is one bar of the budget chart, for a category or a group total.
//
// ChartPercent is clamped to [0, 100] for bar length; ActualPercent is the
// unclamped figure shown as a number and may exceed 100 or go negative.
type ChartData struct {
	Category            *entity.Category
	Group               *entity.CategoryGroup // Set on the group total row only
	BudgetAmount        decimal.Decimal
	Income              decimal.Decimal
	Expenses            decimal.Decimal // Signed, zero or negative
	ExpensesMinusIncome decimal.Decimal
	ChartPercent        decimal.Decimal
	ActualPercent       decimal.Decimal
}

// IsGroupTotal reports whether the row is the pseudo-row totalling a group.
func (c ChartData) IsGroupTotal() bool {
	return c.Group != nil
}

// Summary is the headline record of an analytics view.
type Summary struct {
	TransactionCount   int
	TotalBudget        decimal.Decimal
	Income             decimal.Decimal
	CashOut            decimal.Decimal
	TotalSpent         decimal.Decimal
	SpendMinusPayments decimal.Decimal
	SpendMinusIncome   decimal.Decimal
}

// DayBalance is the balance at the end of one day.
type DayBalance struct {
	Date  time.Time
	Total decimal.Decimal
}

// CumulativeTotal is the running total at the end of a day with activity.
type CumulativeTotal struct {
	Date         time.Time
	RunningTotal decimal.Decimal
}

// Insights bundles everything one recompute produces.
type Insights struct {
	Summary    Summary
	Chart      []ChartData
	Balances   []DayBalance
	Cumulative []CumulativeTotal
}
