// Package entity defines the core business entities for the domain layer.
package entity

import (
	"sort"

	"github.com/google/uuid"
)

// CategoryKind tags what a category tracks. The kinds are mutually exclusive.
type CategoryKind string

const (
	CategoryKindExpense CategoryKind = "expense"
	CategoryKindIncome  CategoryKind = "income"
	CategoryKindPayment CategoryKind = "payment"
	CategoryKindSavings CategoryKind = "savings"
)

// NoneCategoryTitle is the title of the sentinel category for uncategorized transactions.
const NoneCategoryTitle = "Uncategorized"

// Category represents a transaction category.
type Category struct {
	ID        uuid.UUID
	Title     string
	Kind      CategoryKind
	ListOrder *int
	IsHidden  bool
	IsNil     bool // Sentinel standing in for "no category"
}

// NoneCategory is the sentinel used for transactions without a category.
// It is never part of normal enumeration but can be selected explicitly.
var NoneCategory = &Category{
	ID:    uuid.Nil,
	Title: NoneCategoryTitle,
	Kind:  CategoryKindExpense,
	IsNil: true,
}

// IsIncome reports whether the category tracks income.
func (c *Category) IsIncome() bool { return c.Kind == CategoryKindIncome }

// IsExpense reports whether the category tracks expenses.
func (c *Category) IsExpense() bool { return c.Kind == CategoryKindExpense }

// IsPayment reports whether the category tracks credit payments.
func (c *Category) IsPayment() bool { return c.Kind == CategoryKindPayment }

// IsSavings reports whether the category tracks savings.
func (c *Category) IsSavings() bool { return c.Kind == CategoryKindSavings }

// SortCategories orders categories by list order, then title, then ID.
// Categories without a list order sort after ordered ones.
func SortCategories(categories []*Category) {
	sort.SliceStable(categories, func(i, j int) bool {
		a, b := categories[i], categories[j]
		switch {
		case a.ListOrder != nil && b.ListOrder != nil && *a.ListOrder != *b.ListOrder:
			return *a.ListOrder < *b.ListOrder
		case a.ListOrder != nil && b.ListOrder == nil:
			return true
		case a.ListOrder == nil && b.ListOrder != nil:
			return false
		case a.Title != b.Title:
			return a.Title < b.Title
		}
		return a.ID.String() < b.ID.String()
	})
}

// CategoryGroupMember is a category's membership in a group.
type CategoryGroupMember struct {
	Category *Category
	Active   bool
}

// CategoryGroup is an ordered set of categories analysed together.
type CategoryGroup struct {
	ID      uuid.UUID
	Title   string
	Members []CategoryGroupMember
}

// ActiveCategories returns the active member categories in group order.
func (g *CategoryGroup) ActiveCategories() []*Category {
	categories := make([]*Category, 0, len(g.Members))
	for _, m := range g.Members {
		if m.Active && m.Category != nil {
			categories = append(categories, m.Category)
		}
	}
	return categories
}

// HasActiveMember reports whether the category is an active member of the group.
func (g *CategoryGroup) HasActiveMember(categoryID uuid.UUID) bool {
	for _, m := range g.Members {
		if m.Active && m.Category != nil && m.Category.ID == categoryID {
			return true
		}
	}
	return false
}
