package ledger

import (
	"iter"
	"time"

	"github.com/google/uuid"

	"github.com/finance-tracker/insights/internal/domain/entity"
	"github.com/finance-tracker/insights/internal/domain/valueobject"
)

// Predicate selects transactions.
type Predicate func(*entity.Transaction) bool

// All matches every transaction.
func All(*entity.Transaction) bool { return true }

// And matches when every predicate matches. Predicates run in order and stop at the first miss.
func And(preds ...Predicate) Predicate {
	return func(t *entity.Transaction) bool {
		for _, p := range preds {
			if !p(t) {
				return false
			}
		}
		return true
	}
}

// Or matches when any predicate matches.
func Or(preds ...Predicate) Predicate {
	return func(t *entity.Transaction) bool {
		for _, p := range preds {
			if p(t) {
				return true
			}
		}
		return false
	}
}

// Not inverts a predicate.
func Not(p Predicate) Predicate {
	return func(t *entity.Transaction) bool { return !p(t) }
}

// Query describes which part of the ledger an aggregation covers.
// A query without categories, groups or the uncategorized flag covers every category.
type Query struct {
	Months               []entity.MonthKey
	CategoryIDs          []uuid.UUID
	GroupIDs             []uuid.UUID
	IncludeUncategorized bool
	Scope                valueobject.AccountScope
	MultiSelectOnly      bool
	SelectedIDs          []uuid.UUID
}

// HasCategoryFilter reports whether the query narrows categories or groups.
func (q Query) HasCategoryFilter() bool {
	return len(q.CategoryIDs) > 0 || len(q.GroupIDs) > 0 || q.IncludeUncategorized
}

// Compile turns the query into a single predicate over the snapshot. The
// steps apply in this order: multi-select restriction, account visibility,
// factor-in-calculations, month membership, category or group membership,
// account scope.
func Compile(l *entity.Ledger, q Query) Predicate {
	steps := make([]Predicate, 0, 6)
	if q.MultiSelectOnly {
		steps = append(steps, InSet(q.SelectedIDs))
	}
	steps = append(steps,
		visible,
		factored,
		InMonths(q.Months, l.Location),
	)
	if q.HasCategoryFilter() {
		steps = append(steps, inCategories(l, q))
	}
	steps = append(steps, InScope(l, q.Scope))
	return And(steps...)
}

// Select yields the transactions of the snapshot matching the query. The
// sequence is lazy and may be ranged over any number of times.
func Select(l *entity.Ledger, q Query) iter.Seq[*entity.Transaction] {
	match := Compile(l, q)
	return Filter(l.Transactions, match)
}

// Filter yields the transactions matching p, in input order.
func Filter(transactions []*entity.Transaction, p Predicate) iter.Seq[*entity.Transaction] {
	return func(yield func(*entity.Transaction) bool) {
		for _, t := range transactions {
			if p(t) && !yield(t) {
				return
			}
		}
	}
}

// Collect materializes a sequence.
func Collect(seq iter.Seq[*entity.Transaction]) []*entity.Transaction {
	var out []*entity.Transaction
	for t := range seq {
		out = append(out, t)
	}
	return out
}

// InSet matches transactions whose ID is in ids.
func InSet(ids []uuid.UUID) Predicate {
	set := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return func(t *entity.Transaction) bool {
		_, ok := set[t.ID]
		return ok
	}
}

// InMonths matches transactions dated in one of the months. Months are
// compared by year and month number, so a range may cross a year boundary.
func InMonths(months []entity.MonthKey, loc *time.Location) Predicate {
	keys := make(map[entity.MonthKey]struct{}, len(months))
	for _, m := range months {
		keys[m] = struct{}{}
	}
	return func(t *entity.Transaction) bool {
		_, ok := keys[entity.MonthKeyOf(t.Date.In(loc))]
		return ok
	}
}

// InCategory matches transactions of one category. The none sentinel matches
// uncategorized transactions.
func InCategory(c *entity.Category) Predicate {
	return func(t *entity.Transaction) bool {
		tc := t.CategoryOrNone()
		if c.IsNil {
			return tc.IsNil
		}
		return tc.ID == c.ID
	}
}

// InScope matches transactions on the accounts covered by the scope.
// A scope naming an account missing from the snapshot matches nothing.
func InScope(l *entity.Ledger, scope valueobject.AccountScope) Predicate {
	accounts, all := ScopeAccounts(l, scope)
	if all {
		return All
	}
	ids := make(map[uuid.UUID]struct{}, len(accounts))
	for _, a := range accounts {
		ids[a.ID] = struct{}{}
	}
	return func(t *entity.Transaction) bool {
		if t.Account == nil {
			return false
		}
		_, ok := ids[t.Account.ID]
		return ok
	}
}

// ScopeAccounts returns the concrete accounts covered by the scope. The second
// result is true for the all-accounts scope, in which case the slice lists
// every concrete account of the snapshot.
func ScopeAccounts(l *entity.Ledger, scope valueobject.AccountScope) ([]*entity.Account, bool) {
	switch scope.Kind {
	case valueobject.ScopeUnifiedDebit:
		return ResolveUnified(l.Accounts, &entity.Account{Type: entity.AccountTypeUnifiedChecking}), false
	case valueobject.ScopeUnifiedCredit:
		return ResolveUnified(l.Accounts, &entity.Account{Type: entity.AccountTypeUnifiedCredit}), false
	case valueobject.ScopeAccount:
		a, ok := l.Account(scope.AccountID)
		if !ok {
			return nil, false
		}
		return ResolveUnified(l.Accounts, a), false
	default:
		return filterAccounts(l.Accounts, func(a *entity.Account) bool { return !a.IsUnified() }), true
	}
}

func visible(t *entity.Transaction) bool {
	return t.Account != nil && t.Account.IsVisible()
}

func factored(t *entity.Transaction) bool {
	return t.FactorInCalculations && t.Active
}

func inCategories(l *entity.Ledger, q Query) Predicate {
	ids := make(map[uuid.UUID]struct{}, len(q.CategoryIDs))
	for _, id := range q.CategoryIDs {
		ids[id] = struct{}{}
	}
	_, noneSelected := ids[uuid.Nil]
	includeNone := q.IncludeUncategorized || noneSelected
	groups := make([]*entity.CategoryGroup, 0, len(q.GroupIDs))
	for _, id := range q.GroupIDs {
		if g, ok := l.Group(id); ok {
			groups = append(groups, g)
		}
	}
	return func(t *entity.Transaction) bool {
		c := t.CategoryOrNone()
		if c.IsNil {
			return includeNone
		}
		if _, ok := ids[c.ID]; ok {
			return true
		}
		for _, g := range groups {
			if g.HasActiveMember(c.ID) {
				return true
			}
		}
		return false
	}
}
