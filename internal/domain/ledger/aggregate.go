package ledger

import (
	"iter"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/finance-tracker/insights/internal/domain/entity"
	"github.com/finance-tracker/insights/internal/domain/valueobject"
)

var hundred = decimal.NewFromInt(100)

// Totals sums a selected transaction subset.
//
// Debit spend covers cash and checking accounts, credit spend covers credit
// and loan accounts; savings and other accounts contribute to income only.
// Cash out is debit spend plus the debit legs of credit payments.
func Totals(seq iter.Seq[*entity.Transaction]) valueobject.Totals {
	out := valueobject.Totals{
		Income:         decimal.Zero,
		DebitSpend:     decimal.Zero,
		CreditSpend:    decimal.Zero,
		CreditPayments: decimal.Zero,
	}
	debitPayments := decimal.Zero

	for t := range seq {
		out.TransactionCount++
		signed := SignedAmount(t)

		if IsRealIncome(t) {
			out.Income = out.Income.Add(signed)
		}
		if IsCountedSpend(t) {
			switch {
			case t.Account.IsDebit():
				out.DebitSpend = out.DebitSpend.Sub(signed)
			case t.Account.IsCreditOrLoan():
				out.CreditSpend = out.CreditSpend.Sub(signed)
			}
		}
		if IsCreditPayment(t) {
			out.CreditPayments = out.CreditPayments.Add(signed)
		}
		if IsDebitPayment(t) {
			debitPayments = debitPayments.Sub(signed)
		}
	}

	out.TotalSpend = out.DebitSpend.Add(out.CreditSpend)
	out.SpendMinusPayments = out.TotalSpend.Sub(out.CreditPayments)
	out.SpendMinusIncome = out.TotalSpend.Sub(out.Income)
	out.CashOut = out.DebitSpend.Add(debitPayments)
	return out
}

// Percent turns a net outflow and a budget into the actual and chart percentages.
// With a zero budget the percentage is undefined and the raw amount stands in.
// The chart percentage is the actual one clamped to [0, 100].
func Percent(expensesMinusIncome, budget decimal.Decimal) (actual, chart decimal.Decimal) {
	if budget.IsZero() {
		actual = expensesMinusIncome
	} else {
		actual = expensesMinusIncome.Mul(hundred).Div(budget)
	}
	return actual, Clamp(actual, decimal.Zero, hundred)
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi decimal.Decimal) decimal.Decimal {
	return decimal.Max(lo, decimal.Min(hi, v))
}

// ChartRow computes the chart entry of one category over the given transactions.
// Only transactions of the category are counted.
func ChartRow(category *entity.Category, budget decimal.Decimal, transactions []*entity.Transaction) valueobject.ChartData {
	income, expenses := incomeAndExpenses(Filter(transactions, InCategory(category)))
	return chartData(category, nil, budget, income, expenses)
}

// GroupChart computes one row per active member category, each against its
// own category budget, followed by the group total row. The group budget is
// the sum of the member category budgets and the group's own budget rows.
func GroupChart(l *entity.Ledger, group *entity.CategoryGroup, months []entity.MonthKey, transactions []*entity.Transaction) []valueobject.ChartData {
	members := group.ActiveCategories()
	rows := make([]valueobject.ChartData, 0, len(members)+1)

	budget := l.GroupBudget(group.ID, months)
	income, expenses := decimal.Zero, decimal.Zero
	for _, c := range members {
		row := ChartRow(c, l.CategoryBudget(c.ID, months), transactions)
		rows = append(rows, row)
		budget = budget.Add(row.BudgetAmount)
		income = income.Add(row.Income)
		expenses = expenses.Add(row.Expenses)
	}

	return append(rows, chartData(nil, group, budget, income, expenses))
}

// ChartCategories lists the categories a query charts individually: the
// selected ones in display order, or every visible category when the query
// has no category filter. The none sentinel is listed when selected, or when
// unfiltered and some transaction is uncategorized. Group members are charted
// by GroupChart and are not listed here.
func ChartCategories(l *entity.Ledger, q Query, transactions []*entity.Transaction) []*entity.Category {
	if !q.HasCategoryFilter() {
		categories := l.VisibleCategories()
		for _, t := range transactions {
			if t.CategoryOrNone().IsNil {
				categories = append(categories, entity.NoneCategory)
				break
			}
		}
		return categories
	}

	categories := make([]*entity.Category, 0, len(q.CategoryIDs)+1)
	includeNone := q.IncludeUncategorized
	seen := make(map[uuid.UUID]struct{}, len(q.CategoryIDs))
	for _, id := range q.CategoryIDs {
		if id == uuid.Nil {
			includeNone = true
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if c, ok := l.Category(id); ok {
			categories = append(categories, c)
		}
	}
	entity.SortCategories(categories)
	if includeNone {
		categories = append(categories, entity.NoneCategory)
	}
	return categories
}

// Chart computes the chart rows of a query: individual category rows first,
// then every selected group with its member rows and total row.
func Chart(l *entity.Ledger, q Query, transactions []*entity.Transaction) []valueobject.ChartData {
	var rows []valueobject.ChartData
	for _, c := range ChartCategories(l, q, transactions) {
		rows = append(rows, CategoryChartRow(l, c, q.Months, transactions))
	}
	for _, id := range q.GroupIDs {
		g, ok := l.Group(id)
		if !ok {
			continue
		}
		rows = append(rows, GroupChart(l, g, q.Months, transactions)...)
	}
	return rows
}

// Summarize combines the totals of a selection with its chart rows. The total
// budget counts each group once through its total row and each individually
// charted category once.
func Summarize(totals valueobject.Totals, chart []valueobject.ChartData) valueobject.Summary {
	budget := decimal.Zero
	inGroup := make(map[*entity.Category]struct{})
	for _, row := range chart {
		if row.IsGroupTotal() {
			budget = budget.Add(row.BudgetAmount)
			for _, c := range row.Group.ActiveCategories() {
				inGroup[c] = struct{}{}
			}
		}
	}
	for _, row := range chart {
		if row.IsGroupTotal() {
			continue
		}
		if _, ok := inGroup[row.Category]; ok {
			continue
		}
		budget = budget.Add(row.BudgetAmount)
	}

	return valueobject.Summary{
		TransactionCount:   totals.TransactionCount,
		TotalBudget:        budget,
		Income:             totals.Income,
		CashOut:            totals.CashOut,
		TotalSpent:         totals.TotalSpend,
		SpendMinusPayments: totals.SpendMinusPayments,
		SpendMinusIncome:   totals.SpendMinusIncome,
	}
}

// CategoryChartRow computes the chart entry of a category against its budget
// over the months. The none sentinel has no budget.
func CategoryChartRow(l *entity.Ledger, c *entity.Category, months []entity.MonthKey, transactions []*entity.Transaction) valueobject.ChartData {
	budget := decimal.Zero
	if !c.IsNil {
		budget = l.CategoryBudget(c.ID, months)
	}
	return ChartRow(c, budget, transactions)
}

func incomeAndExpenses(seq iter.Seq[*entity.Transaction]) (income, expenses decimal.Decimal) {
	income, expenses = decimal.Zero, decimal.Zero
	for t := range seq {
		switch {
		case IsRealIncome(t):
			income = income.Add(SignedAmount(t))
		case IsCountedSpend(t):
			expenses = expenses.Add(SignedAmount(t))
		}
	}
	return income, expenses
}

func chartData(category *entity.Category, group *entity.CategoryGroup, budget, income, expenses decimal.Decimal) valueobject.ChartData {
	net := expenses.Add(income).Neg()
	actual, chart := Percent(net, budget)
	return valueobject.ChartData{
		Category:            category,
		Group:               group,
		BudgetAmount:        budget,
		Income:              income,
		Expenses:            expenses,
		ExpensesMinusIncome: net,
		ChartPercent:        chart,
		ActualPercent:       actual,
	}
}
