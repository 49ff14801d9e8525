package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/finance-tracker/insights/internal/domain/entity"
	"github.com/finance-tracker/insights/internal/domain/valueobject"
)

// Metric selects what a cumulative total accumulates.
type Metric string

const (
	MetricSpend  Metric = "spend"  // Real spend, as a positive magnitude
	MetricIncome Metric = "income" // Real income
	MetricNet    Metric = "net"    // Signed sum of every transaction
)

// Valid reports whether the metric is known.
func (m Metric) Valid() bool {
	return m == MetricSpend || m == MetricIncome || m == MetricNet
}

// StepFunc observes progress of a day walk. It is called after each day with
// the number of days done and the total; returning false stops the walk.
type StepFunc func(done, total int) bool

// BalanceBook carries the accounts of a balance computation and the sign
// convention their balance is reported in.
type BalanceBook struct {
	accounts []*entity.Account
	covered  map[uuid.UUID]struct{}
	native   bool // Every account is credit-signed: report the amount owed
}

// NewBalanceBook resolves the scope to concrete accounts. Balances over credit
// accounts only are reported in the credit convention (amount owed); any
// other mix is reported from the user's point of view.
func NewBalanceBook(l *entity.Ledger, scope valueobject.AccountScope) BalanceBook {
	accounts, _ := ScopeAccounts(l, scope)
	book := BalanceBook{
		covered: make(map[uuid.UUID]struct{}, len(accounts)),
		native:  true,
	}
	for _, a := range accounts {
		if !a.IsVisible() {
			continue
		}
		book.accounts = append(book.accounts, a)
		book.covered[a.ID] = struct{}{}
		if !a.CarriesCreditSign() {
			book.native = false
		}
	}
	if len(book.accounts) == 0 {
		book.native = false
	}
	return book
}

// Covers reports whether the transaction moves a balance of the book.
// Inactive transactions never do; the factor-in-calculations flag does not
// apply to balances.
func (b BalanceBook) Covers(t *entity.Transaction) bool {
	if !t.Active || t.Account == nil {
		return false
	}
	_, ok := b.covered[t.Account.ID]
	return ok
}

// Amount returns the transaction amount in the book's sign convention.
func (b BalanceBook) Amount(t *entity.Transaction) decimal.Decimal {
	if b.native {
		return t.Amount
	}
	return SignedAmount(t)
}

// Opening returns the sum of the opening balances of the book's accounts.
func (b BalanceBook) Opening() decimal.Decimal {
	total := decimal.Zero
	for _, a := range b.accounts {
		if b.native || !a.CarriesCreditSign() {
			total = total.Add(a.OpeningBalance)
		} else {
			total = total.Sub(a.OpeningBalance)
		}
	}
	return total
}

// StartingBalance returns the balance of the scoped accounts at the start of
// the month: opening balances plus every covered transaction dated earlier.
func StartingBalance(l *entity.Ledger, book BalanceBook, month entity.MonthKey) decimal.Decimal {
	start := month.Start(l.Location)
	total := book.Opening()
	for _, t := range l.Transactions {
		if book.Covers(t) && t.Date.Before(start) {
			total = total.Add(book.Amount(t))
		}
	}
	return total
}

// EndOfDayTotals walks the month's days in ascending order once, carrying the
// balance forward from start, and records each day's closing balance both in
// the returned slice and on the month's days. step may be nil; when it returns
// false the walk stops and the balances computed so far are returned.
func EndOfDayTotals(month *entity.Month, book BalanceBook, start decimal.Decimal, step StepFunc) []valueobject.DayBalance {
	balances := make([]valueobject.DayBalance, 0, len(month.Days))
	running := start
	for i := range month.Days {
		day := &month.Days[i]
		for _, t := range day.Transactions {
			if book.Covers(t) {
				running = running.Add(book.Amount(t))
			}
		}
		day.EndOfDayTotal = running
		balances = append(balances, valueobject.DayBalance{Date: day.Date, Total: running})

		if step != nil && !step(i+1, len(month.Days)) {
			break
		}
	}
	return balances
}

// CumulativeTotals accumulates the metric over the month's days, emitting an
// entry only for days with at least one qualifying transaction. Days without
// activity have no entry; use TotalOnOrBefore to read the total on any day.
func CumulativeTotals(month *entity.Month, loc *time.Location, transactions []*entity.Transaction, metric Metric, step StepFunc) []valueobject.CumulativeTotal {
	perDay := make([]decimal.Decimal, len(month.Days))
	active := make([]bool, len(month.Days))
	for _, t := range transactions {
		d := t.Date.In(loc)
		if !month.Key.Contains(d) {
			continue
		}
		value, ok := metricValue(t, metric)
		if !ok {
			continue
		}
		idx := d.Day() - 1
		perDay[idx] = perDay[idx].Add(value)
		active[idx] = true
	}

	var totals []valueobject.CumulativeTotal
	running := decimal.Zero
	for i := range month.Days {
		if active[i] {
			running = running.Add(perDay[i])
			totals = append(totals, valueobject.CumulativeTotal{
				Date:         month.Days[i].Date,
				RunningTotal: running,
			})
		}
		if step != nil && !step(i+1, len(month.Days)) {
			break
		}
	}
	return totals
}

// TotalOnOrBefore returns the running total of the latest entry dated on or
// before date. It reports false when no such entry exists.
func TotalOnOrBefore(totals []valueobject.CumulativeTotal, date time.Time) (decimal.Decimal, bool) {
	found := false
	total := decimal.Zero
	for _, ct := range totals {
		if ct.Date.After(date) {
			break
		}
		total = ct.RunningTotal
		found = true
	}
	return total, found
}

func metricValue(t *entity.Transaction, metric Metric) (decimal.Decimal, bool) {
	switch metric {
	case MetricSpend:
		if IsCountedSpend(t) {
			return SignedAmount(t).Neg(), true
		}
	case MetricIncome:
		if IsRealIncome(t) {
			return SignedAmount(t), true
		}
	case MetricNet:
		return SignedAmount(t), true
	}
	return decimal.Zero, false
}
