// Package entity defines the core business entities for the domain layer.
package entity

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// MonthKey identifies a calendar month by its actual month number and year.
type MonthKey struct {
	Year  int
	Month time.Month
}

// MonthKeyOf returns the month containing t.
func MonthKeyOf(t time.Time) MonthKey {
	return MonthKey{Year: t.Year(), Month: t.Month()}
}

// ParseMonthKey parses a "YYYY-MM" string.
func ParseMonthKey(s string) (MonthKey, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return MonthKey{}, fmt.Errorf("parse month %q: %w", s, err)
	}
	return MonthKeyOf(t), nil
}

// String formats the key as "YYYY-MM".
func (k MonthKey) String() string {
	return fmt.Sprintf("%04d-%02d", k.Year, int(k.Month))
}

// Start returns midnight of the first day of the month in loc.
func (k MonthKey) Start(loc *time.Location) time.Time {
	return time.Date(k.Year, k.Month, 1, 0, 0, 0, 0, loc)
}

// End returns midnight of the first day of the following month in loc.
func (k MonthKey) End(loc *time.Location) time.Time {
	return k.Start(loc).AddDate(0, 1, 0)
}

// Next returns the following month, rolling into the next year after December.
func (k MonthKey) Next() MonthKey {
	if k.Month == time.December {
		return MonthKey{Year: k.Year + 1, Month: time.January}
	}
	return MonthKey{Year: k.Year, Month: k.Month + 1}
}

// Prev returns the preceding month, rolling into the previous year before January.
func (k MonthKey) Prev() MonthKey {
	if k.Month == time.January {
		return MonthKey{Year: k.Year - 1, Month: time.December}
	}
	return MonthKey{Year: k.Year, Month: k.Month - 1}
}

// Contains reports whether t falls in the month.
func (k MonthKey) Contains(t time.Time) bool {
	return t.Year() == k.Year && t.Month() == k.Month
}

// Before reports whether k is earlier than other.
func (k MonthKey) Before(other MonthKey) bool {
	if k.Year != other.Year {
		return k.Year < other.Year
	}
	return k.Month < other.Month
}

// DaysIn returns the number of days in the month.
func (k MonthKey) DaysIn() int {
	return k.End(time.UTC).AddDate(0, 0, -1).Day()
}

// Day is one calendar day of a month and the transactions dated to it.
type Day struct {
	Date          time.Time
	Transactions  []*Transaction
	EndOfDayTotal decimal.Decimal // Filled in by the running-total calculator
}

// Month is the ordered day sequence of one calendar month.
type Month struct {
	Key     MonthKey
	Days    []Day
	Budgets []*Budget
}

// BuildMonth lays out every day of the month in ascending order and assigns
// each transaction dated within the month to its day. Transactions inside a
// day keep a stable order (date, then ID) so that callers never depend on the
// order of the input slice.
func BuildMonth(key MonthKey, loc *time.Location, transactions []*Transaction, budgets []*Budget) *Month {
	n := key.DaysIn()
	m := &Month{
		Key:  key,
		Days: make([]Day, n),
	}
	start := key.Start(loc)
	for i := 0; i < n; i++ {
		m.Days[i].Date = start.AddDate(0, 0, i)
	}

	for _, tx := range transactions {
		d := tx.Date.In(loc)
		if !key.Contains(d) {
			continue
		}
		idx := d.Day() - 1
		m.Days[idx].Transactions = append(m.Days[idx].Transactions, tx)
	}
	for i := range m.Days {
		txs := m.Days[i].Transactions
		sort.SliceStable(txs, func(a, b int) bool {
			if !txs[a].Date.Equal(txs[b].Date) {
				return txs[a].Date.Before(txs[b].Date)
			}
			return txs[a].ID.String() < txs[b].ID.String()
		})
	}

	for _, b := range budgets {
		if b.Key() == key {
			m.Budgets = append(m.Budgets, b)
		}
	}
	return m
}

// DayOf returns the day with the given day-of-month number, or nil.
func (m *Month) DayOf(day int) *Day {
	if day < 1 || day > len(m.Days) {
		return nil
	}
	return &m.Days[day-1]
}
