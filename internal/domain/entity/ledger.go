// Package entity defines the core business entities for the domain layer.
package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Ledger is a read-only snapshot of everything the analytics engine reads.
// It is built once per computation and never mutated afterwards.
type Ledger struct {
	Accounts     []*Account
	Categories   []*Category
	Groups       []*CategoryGroup
	Budgets      []*Budget
	Transactions []*Transaction
	Location     *time.Location

	accountsByID     map[uuid.UUID]*Account
	categoriesByID   map[uuid.UUID]*Category
	groupsByID       map[uuid.UUID]*CategoryGroup
	transactionsByID map[uuid.UUID]*Transaction
}

// NewLedger builds a snapshot from the given collections. The slices are
// copied so later appends by the caller do not leak into the snapshot.
func NewLedger(
	accounts []*Account,
	categories []*Category,
	groups []*CategoryGroup,
	budgets []*Budget,
	transactions []*Transaction,
	loc *time.Location,
) *Ledger {
	if loc == nil {
		loc = time.UTC
	}

	l := &Ledger{
		Accounts:         append([]*Account(nil), accounts...),
		Categories:       append([]*Category(nil), categories...),
		Groups:           append([]*CategoryGroup(nil), groups...),
		Budgets:          append([]*Budget(nil), budgets...),
		Transactions:     append([]*Transaction(nil), transactions...),
		Location:         loc,
		accountsByID:     make(map[uuid.UUID]*Account, len(accounts)),
		categoriesByID:   make(map[uuid.UUID]*Category, len(categories)),
		groupsByID:       make(map[uuid.UUID]*CategoryGroup, len(groups)),
		transactionsByID: make(map[uuid.UUID]*Transaction, len(transactions)),
	}

	for _, a := range l.Accounts {
		l.accountsByID[a.ID] = a
	}
	for _, c := range l.Categories {
		l.categoriesByID[c.ID] = c
	}
	for _, g := range l.Groups {
		l.groupsByID[g.ID] = g
	}
	for _, t := range l.Transactions {
		l.transactionsByID[t.ID] = t
	}

	return l
}

// Account returns the account with the given ID.
func (l *Ledger) Account(id uuid.UUID) (*Account, bool) {
	a, ok := l.accountsByID[id]
	return a, ok
}

// Category returns the category with the given ID. uuid.Nil resolves to NoneCategory.
func (l *Ledger) Category(id uuid.UUID) (*Category, bool) {
	if id == uuid.Nil {
		return NoneCategory, true
	}
	c, ok := l.categoriesByID[id]
	return c, ok
}

// Group returns the category group with the given ID.
func (l *Ledger) Group(id uuid.UUID) (*CategoryGroup, bool) {
	g, ok := l.groupsByID[id]
	return g, ok
}

// Transaction returns the transaction with the given ID.
func (l *Ledger) Transaction(id uuid.UUID) (*Transaction, bool) {
	t, ok := l.transactionsByID[id]
	return t, ok
}

// Related returns the other leg of a transfer or payment. It reports false
// when the transaction has no link or the linked transaction is absent.
func (l *Ledger) Related(t *Transaction) (*Transaction, bool) {
	if t.RelatedTransactionID == nil {
		return nil, false
	}
	return l.Transaction(*t.RelatedTransactionID)
}

// VisibleCategories returns the categories offered for normal enumeration in
// display order. Hidden categories and the none sentinel are left out.
func (l *Ledger) VisibleCategories() []*Category {
	categories := make([]*Category, 0, len(l.Categories))
	for _, c := range l.Categories {
		if c.IsHidden || c.IsNil {
			continue
		}
		categories = append(categories, c)
	}
	SortCategories(categories)
	return categories
}

// CategoryBudget sums the category-level budget rows for the category over the months.
// Missing rows contribute zero.
func (l *Ledger) CategoryBudget(categoryID uuid.UUID, months []MonthKey) decimal.Decimal {
	total := decimal.Zero
	for _, b := range l.Budgets {
		if b.CategoryID == nil || *b.CategoryID != categoryID {
			continue
		}
		if containsMonth(months, b.Key()) {
			total = total.Add(b.Amount)
		}
	}
	return total
}

// GroupBudget sums the group-level budget rows for the group over the months.
// Missing rows contribute zero.
func (l *Ledger) GroupBudget(groupID uuid.UUID, months []MonthKey) decimal.Decimal {
	total := decimal.Zero
	for _, b := range l.Budgets {
		if b.CategoryGroupID == nil || *b.CategoryGroupID != groupID {
			continue
		}
		if containsMonth(months, b.Key()) {
			total = total.Add(b.Amount)
		}
	}
	return total
}

// Month lays out a month of the snapshot.
func (l *Ledger) Month(key MonthKey) *Month {
	return BuildMonth(key, l.Location, l.Transactions, l.Budgets)
}

func containsMonth(months []MonthKey, key MonthKey) bool {
	for _, m := range months {
		if m == key {
			return true
		}
	}
	return false
}
