package ledger

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/finance-tracker/insights/internal/domain/entity"
	"github.com/finance-tracker/insights/internal/domain/valueobject"
)

var may2024 = entity.MonthKey{Year: 2024, Month: time.May}

func TestTotals_TransferPairIsNetZero(t *testing.T) {
	checking := newAccount(entity.AccountTypeChecking, "0")
	other := newAccount(entity.AccountTypeChecking, "0")
	origin := newTx(checking, nil, "-50", day(2024, 5, 2))
	dest := newTx(other, nil, "50", day(2024, 5, 2))
	link(origin, dest, false)

	totals := Totals(Filter([]*entity.Transaction{origin, dest}, All))

	assertDecimal(t, "total spend", "0", totals.TotalSpend)
	assertDecimal(t, "income", "0", totals.Income)
	if totals.TransactionCount != 2 {
		t.Errorf("expected 2 transactions counted, got %d", totals.TransactionCount)
	}
}

func TestTotals_CreditCardPaidInFull(t *testing.T) {
	credit := newAccount(entity.AccountTypeCredit, "0")
	purchase := newTx(credit, nil, "40", day(2024, 5, 3))
	payment := newTx(credit, nil, "-40", day(2024, 5, 10))
	origin := newTx(newAccount(entity.AccountTypeChecking, "0"), nil, "-40", day(2024, 5, 10))
	link(origin, payment, true)

	totals := Totals(Filter([]*entity.Transaction{purchase, payment}, All))

	assertDecimal(t, "total spend", "40", totals.TotalSpend)
	assertDecimal(t, "credit spend", "40", totals.CreditSpend)
	assertDecimal(t, "credit payments", "40", totals.CreditPayments)
	assertDecimal(t, "spend minus payments", "0", totals.SpendMinusPayments)
	assertDecimal(t, "income", "0", totals.Income)
}

func TestTotals_BothPaymentLegs(t *testing.T) {
	checking := newAccount(entity.AccountTypeChecking, "0")
	credit := newAccount(entity.AccountTypeCredit, "0")
	groceries := newTx(credit, nil, "40", day(2024, 5, 3))
	salary := newTx(checking, nil, "1000", day(2024, 5, 1))
	payOrigin := newTx(checking, nil, "-40", day(2024, 5, 10))
	payDest := newTx(credit, nil, "-40", day(2024, 5, 10))
	link(payOrigin, payDest, true)
	refund := newTx(credit, nil, "-5", day(2024, 5, 12))

	totals := Totals(Filter([]*entity.Transaction{groceries, salary, payOrigin, payDest, refund}, All))

	assertDecimal(t, "debit spend", "0", totals.DebitSpend)
	assertDecimal(t, "total spend", "40", totals.TotalSpend)
	assertDecimal(t, "income", "1005", totals.Income)
	assertDecimal(t, "cash out", "40", totals.CashOut)
	assertDecimal(t, "spend minus payments", "0", totals.SpendMinusPayments)
	assertDecimal(t, "spend minus income", "-965", totals.SpendMinusIncome)
}

func TestTotals_SavingsIsNotDebitSpend(t *testing.T) {
	savings := newAccount(entity.AccountTypeSavings, "0")
	withdrawal := newTx(savings, nil, "-20", day(2024, 5, 3))

	totals := Totals(Filter([]*entity.Transaction{withdrawal}, All))

	assertDecimal(t, "total spend", "0", totals.TotalSpend)
}

func TestTotals_NeverNegative(t *testing.T) {
	accounts := []*entity.Account{
		newAccount(entity.AccountTypeCash, "0"),
		newAccount(entity.AccountTypeChecking, "0"),
		newAccount(entity.AccountTypeCredit, "0"),
		newAccount(entity.AccountTypeLoan, "0"),
		newAccount(entity.AccountTypeSavings, "0"),
	}
	amounts := []string{"-12.5", "30", "0", "7.25", "-100", "44"}

	var txs []*entity.Transaction
	for i, a := range accounts {
		for j, amount := range amounts {
			tx := newTx(a, nil, amount, day(2024, 5, 1+j))
			if (i+j)%4 == 0 {
				tx.IsTransferDest = true
			}
			txs = append(txs, tx)
		}
	}

	totals := Totals(Filter(txs, All))
	if totals.TotalSpend.IsNegative() {
		t.Errorf("expected non-negative total spend, got %s", totals.TotalSpend)
	}
	if totals.Income.IsNegative() {
		t.Errorf("expected non-negative income, got %s", totals.Income)
	}
}

func TestPercent(t *testing.T) {
	tests := []struct {
		name   string
		net    string
		budget string
		actual string
		chart  string
	}{
		{"under budget", "50", "200", "25", "25"},
		{"over budget", "250", "200", "125", "100"},
		{"net income", "-30", "100", "-30", "0"},
		{"zero budget uses raw amount", "42.5", "0", "42.5", "42.5"},
		{"zero budget large amount still clamps chart", "420", "0", "420", "100"},
		{"zero budget negative amount", "-7", "0", "-7", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			actual, chart := Percent(dec(tt.net), dec(tt.budget))
			assertDecimal(t, "actual percent", tt.actual, actual)
			assertDecimal(t, "chart percent", tt.chart, chart)

			clamped := decimal.Max(decimal.Zero, decimal.Min(decimal.NewFromInt(100), actual))
			if !chart.Equal(clamped) {
				t.Errorf("chart percent %s breaks the clamp law for %s", chart, actual)
			}
		})
	}
}

func TestChartRow_OverBudgetCategory(t *testing.T) {
	checking := newAccount(entity.AccountTypeChecking, "0")
	groceries := newCategory("Groceries")
	txs := []*entity.Transaction{
		newTx(checking, groceries, "-150", day(2024, 5, 4)),
		newTx(checking, groceries, "-100", day(2024, 5, 18)),
		newTx(checking, newCategory("Other"), "-999", day(2024, 5, 18)),
	}

	row := ChartRow(groceries, dec("200"), txs)

	assertDecimal(t, "expenses", "-250", row.Expenses)
	assertDecimal(t, "income", "0", row.Income)
	assertDecimal(t, "expenses minus income", "250", row.ExpensesMinusIncome)
	assertDecimal(t, "actual percent", "125", row.ActualPercent)
	assertDecimal(t, "chart percent", "100", row.ChartPercent)
}

func TestChartRow_ZeroBudgetLaw(t *testing.T) {
	checking := newAccount(entity.AccountTypeChecking, "0")
	fun := newCategory("Fun")
	txs := []*entity.Transaction{
		newTx(checking, fun, "-60", day(2024, 5, 4)),
		newTx(checking, fun, "15", day(2024, 5, 5)),
	}

	row := ChartRow(fun, decimal.Zero, txs)

	assertDecimal(t, "expenses minus income", "45", row.ExpensesMinusIncome)
	if !row.ActualPercent.Equal(row.ExpensesMinusIncome) {
		t.Errorf("expected actual percent to equal %s, got %s", row.ExpensesMinusIncome, row.ActualPercent)
	}
}

func TestGroupChart(t *testing.T) {
	checking := newAccount(entity.AccountTypeChecking, "0")
	a := newCategory("A")
	b := newCategory("B")
	group := &entity.CategoryGroup{
		ID:    uuid.New(),
		Title: "Household",
		Members: []entity.CategoryGroupMember{
			{Category: a, Active: true},
			{Category: b, Active: true},
		},
	}
	txs := []*entity.Transaction{
		newTx(checking, a, "-80", day(2024, 5, 6)),
		newTx(checking, b, "-60", day(2024, 5, 7)),
	}
	l := entity.NewLedger(
		[]*entity.Account{checking},
		[]*entity.Category{a, b},
		[]*entity.CategoryGroup{group},
		[]*entity.Budget{budgetFor(a.ID, "100", may2024), budgetFor(b.ID, "50", may2024)},
		txs, time.UTC,
	)

	rows := GroupChart(l, group, []entity.MonthKey{may2024}, txs)
	if len(rows) != 3 {
		t.Fatalf("expected 2 member rows and a total row, got %d", len(rows))
	}

	assertDecimal(t, "A budget", "100", rows[0].BudgetAmount)
	assertDecimal(t, "A net", "80", rows[0].ExpensesMinusIncome)
	assertDecimal(t, "B budget", "50", rows[1].BudgetAmount)
	assertDecimal(t, "B actual percent", "120", rows[1].ActualPercent)

	total := rows[2]
	if !total.IsGroupTotal() {
		t.Fatal("expected the last row to be the group total")
	}
	assertDecimal(t, "group budget", "150", total.BudgetAmount)
	assertDecimal(t, "group net", "140", total.ExpensesMinusIncome)
	assertDecimal(t, "group actual percent", "93.3", total.ActualPercent.Round(1))

	t.Run("group-level budget rows add to the member budgets", func(t *testing.T) {
		withGroupBudget := entity.NewLedger(l.Accounts, l.Categories, l.Groups,
			append(l.Budgets, groupBudgetFor(group.ID, "50", may2024)), txs, time.UTC)
		rows := GroupChart(withGroupBudget, group, []entity.MonthKey{may2024}, txs)
		assertDecimal(t, "group budget", "200", rows[2].BudgetAmount)
		assertDecimal(t, "group actual percent", "70", rows[2].ActualPercent)
	})

	t.Run("summary counts the group budget once", func(t *testing.T) {
		summary := Summarize(Totals(Filter(txs, All)), rows)
		assertDecimal(t, "total budget", "150", summary.TotalBudget)
		assertDecimal(t, "total spent", "140", summary.TotalSpent)
	})
}

func TestChart_MissingBudgetContributesZero(t *testing.T) {
	checking := newAccount(entity.AccountTypeChecking, "0")
	travel := newCategory("Travel")
	txs := []*entity.Transaction{newTx(checking, travel, "-10", day(2024, 5, 2))}
	l := entity.NewLedger([]*entity.Account{checking}, []*entity.Category{travel}, nil, nil, txs, time.UTC)
	q := Query{Months: []entity.MonthKey{may2024}, CategoryIDs: []uuid.UUID{travel.ID, uuid.New()}}

	rows := Chart(l, q, Collect(Select(l, q)))
	if len(rows) != 1 {
		t.Fatalf("expected a row for the known category only, got %d", len(rows))
	}
	assertDecimal(t, "budget", "0", rows[0].BudgetAmount)
	assertDecimal(t, "actual percent", "10", rows[0].ActualPercent)
}

func TestChart_Idempotent(t *testing.T) {
	checking := newAccount(entity.AccountTypeChecking, "0")
	credit := newAccount(entity.AccountTypeCredit, "0")
	groceries := newCategory("Groceries")
	txs := []*entity.Transaction{
		newTx(checking, groceries, "-12", day(2024, 5, 2)),
		newTx(credit, groceries, "30", day(2024, 5, 9)),
		newTx(checking, nil, "400", day(2024, 5, 15)),
	}
	l := entity.NewLedger([]*entity.Account{checking, credit}, []*entity.Category{groceries}, nil,
		[]*entity.Budget{budgetFor(groceries.ID, "100", may2024)}, txs, time.UTC)
	q := Query{Months: []entity.MonthKey{may2024}, Scope: valueobject.AllAccounts}

	first, _ := Compute(l, q, ComputeOptions{}, nil)
	second, _ := Compute(l, q, ComputeOptions{}, nil)
	if fmt.Sprintf("%+v", first) != fmt.Sprintf("%+v", second) {
		t.Error("expected identical results for the same snapshot and query")
	}
	if len(first.Chart) != 2 {
		t.Errorf("expected groceries and uncategorized rows, got %d", len(first.Chart))
	}
}
