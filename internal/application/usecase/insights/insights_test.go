package insights

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/finance-tracker/insights/internal/domain/entity"
	domainerror "github.com/finance-tracker/insights/internal/domain/error"
)

type stubLedgerRepository struct {
	ledger *entity.Ledger
	err    error
	months []entity.MonthKey
}

func (r *stubLedgerRepository) LoadLedger(_ context.Context, _ uuid.UUID, months []entity.MonthKey) (*entity.Ledger, error) {
	r.months = months
	return r.ledger, r.err
}

type fixture struct {
	checking  *entity.Account
	credit    *entity.Account
	groceries *entity.Category
	household *entity.CategoryGroup
	repo      *stubLedgerRepository
}

func newFixture() *fixture {
	f := &fixture{
		checking: &entity.Account{ID: uuid.New(), Name: "Checking", Type: entity.AccountTypeChecking,
			IsVisibleToCurrentUser: true, OpeningBalance: decimal.NewFromInt(100)},
		credit: &entity.Account{ID: uuid.New(), Name: "Visa", Type: entity.AccountTypeCredit,
			IsVisibleToCurrentUser: true, OpeningBalance: decimal.Zero},
		groceries: &entity.Category{ID: uuid.New(), Title: "Groceries", Kind: entity.CategoryKindExpense},
	}
	rent := &entity.Category{ID: uuid.New(), Title: "Rent", Kind: entity.CategoryKindExpense}
	f.household = &entity.CategoryGroup{
		ID:    uuid.New(),
		Title: "Household",
		Members: []entity.CategoryGroupMember{
			{Category: f.groceries, Active: true},
			{Category: rent, Active: true},
		},
	}

	tx := func(account *entity.Account, category *entity.Category, amount int64, d int) *entity.Transaction {
		return &entity.Transaction{
			ID:                   uuid.New(),
			Amount:               decimal.NewFromInt(amount),
			Date:                 time.Date(2024, time.May, d, 12, 0, 0, 0, time.UTC),
			Account:              account,
			Category:             category,
			FactorInCalculations: true,
			Active:               true,
		}
	}
	transactions := []*entity.Transaction{
		tx(f.checking, f.groceries, -150, 4),
		tx(f.credit, f.groceries, 100, 18),
		tx(f.checking, rent, -900, 1),
		tx(f.checking, nil, 2000, 1),
		tx(f.checking, nil, -30, 5),
	}
	gid, rid := f.groceries.ID, rent.ID
	budgets := []*entity.Budget{
		{ID: uuid.New(), CategoryID: &gid, Amount: decimal.NewFromInt(200), Month: 5, Year: 2024},
		{ID: uuid.New(), CategoryID: &rid, Amount: decimal.NewFromInt(1000), Month: 5, Year: 2024},
	}

	f.repo = &stubLedgerRepository{ledger: entity.NewLedger(
		[]*entity.Account{f.checking, f.credit},
		[]*entity.Category{f.groceries, rent},
		[]*entity.CategoryGroup{f.household},
		budgets, transactions, time.UTC,
	)}
	return f
}

func assertDecimal(t *testing.T, name, want string, got decimal.Decimal) {
	t.Helper()
	if !got.Equal(decimal.RequireFromString(want)) {
		t.Errorf("expected %s %s, got %s", name, want, got.String())
	}
}

func assertCode(t *testing.T, err error, code domainerror.AnalyticsErrorCode) {
	t.Helper()
	var analyticsErr *domainerror.AnalyticsError
	if !errors.As(err, &analyticsErr) {
		t.Fatalf("expected an AnalyticsError, got %v", err)
	}
	if analyticsErr.Code != code {
		t.Errorf("expected code %s, got %s", code, analyticsErr.Code)
	}
}

func TestParseMonths(t *testing.T) {
	months, err := ParseMonths([]string{"2025-01, 2024-12", "2025-01"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(months) != 2 || months[0].String() != "2024-12" || months[1].String() != "2025-01" {
		t.Errorf("expected sorted distinct months, got %v", months)
	}

	_, err = ParseMonths([]string{"2024/12"})
	assertCode(t, err, domainerror.ErrCodeInvalidMonthFormat)

	_, err = ParseMonths(nil)
	assertCode(t, err, domainerror.ErrCodeMissingMonths)
}

func TestBuildQuery(t *testing.T) {
	categoryID := uuid.New()
	q, err := BuildQuery(QueryInput{
		UserID:      uuid.New(),
		Months:      []string{"2024-05"},
		CategoryIDs: []string{categoryID.String() + ",none"},
		Scope:       "unified_credit",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(q.CategoryIDs) != 2 || q.CategoryIDs[0] != categoryID || q.CategoryIDs[1] != uuid.Nil {
		t.Errorf("expected the category and the none sentinel, got %v", q.CategoryIDs)
	}
	if q.MultiSelectOnly {
		t.Error("expected no multi-select without selected ids")
	}

	tests := []struct {
		name  string
		input QueryInput
		code  domainerror.AnalyticsErrorCode
	}{
		{"missing user", QueryInput{Months: []string{"2024-05"}}, domainerror.ErrCodeMissingUser},
		{"bad scope", QueryInput{UserID: uuid.New(), Months: []string{"2024-05"}, Scope: "savings"}, domainerror.ErrCodeInvalidAccountScope},
		{"bad group id", QueryInput{UserID: uuid.New(), Months: []string{"2024-05"}, GroupIDs: []string{"x"}}, domainerror.ErrCodeInvalidIdentifier},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildQuery(tt.input)
			assertCode(t, err, tt.code)
		})
	}
}

func TestGetSummaryUseCase(t *testing.T) {
	f := newFixture()
	uc := NewGetSummaryUseCase(f.repo)

	out, err := uc.Execute(context.Background(), GetSummaryInput{QueryInput{
		UserID: uuid.New(),
		Months: []string{"2024-05"},
	}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if out.Summary.TransactionCount != 5 {
		t.Errorf("expected 5 transactions, got %d", out.Summary.TransactionCount)
	}
	assertDecimal(t, "total spent", "1180", out.Summary.TotalSpent)
	assertDecimal(t, "income", "2000", out.Summary.Income)
	assertDecimal(t, "cash out", "1080", out.Summary.CashOut)
	assertDecimal(t, "total budget", "1200", out.Summary.TotalBudget)
	if len(f.repo.months) != 1 {
		t.Errorf("expected the repository to be asked for 1 month, got %d", len(f.repo.months))
	}
}

func TestGetSummaryUseCase_LedgerUnavailable(t *testing.T) {
	f := newFixture()
	f.repo.err = errors.New("database is down")

	_, err := NewGetSummaryUseCase(f.repo).Execute(context.Background(), GetSummaryInput{QueryInput{
		UserID: uuid.New(),
		Months: []string{"2024-05"},
	}})

	assertCode(t, err, domainerror.ErrCodeLedgerUnavailable)
	if !errors.Is(err, domainerror.ErrLedgerUnavailable) {
		t.Error("expected ErrLedgerUnavailable in the chain")
	}
}

func TestGetChartDataUseCase(t *testing.T) {
	f := newFixture()
	uc := NewGetChartDataUseCase(f.repo, 2)

	t.Run("groceries over budget", func(t *testing.T) {
		out, err := uc.Execute(context.Background(), GetChartDataInput{QueryInput{
			UserID:      uuid.New(),
			Months:      []string{"2024-05"},
			CategoryIDs: []string{f.groceries.ID.String()},
		}})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(out.Rows) != 1 {
			t.Fatalf("expected 1 row, got %d", len(out.Rows))
		}
		assertDecimal(t, "expenses minus income", "250", out.Rows[0].ExpensesMinusIncome)
		assertDecimal(t, "actual percent", "125", out.Rows[0].ActualPercent)
		assertDecimal(t, "chart percent", "100", out.Rows[0].ChartPercent)
	})

	t.Run("group rows keep their order", func(t *testing.T) {
		out, err := uc.Execute(context.Background(), GetChartDataInput{QueryInput{
			UserID:   uuid.New(),
			Months:   []string{"2024-05"},
			GroupIDs: []string{f.household.ID.String()},
		}})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(out.Rows) != 3 {
			t.Fatalf("expected 2 member rows and a total row, got %d", len(out.Rows))
		}
		if out.Rows[0].Category != f.groceries || !out.Rows[2].IsGroupTotal() {
			t.Error("expected member rows before the group total")
		}
		assertDecimal(t, "group budget", "1200", out.Rows[2].BudgetAmount)
		assertDecimal(t, "group net", "1150", out.Rows[2].ExpensesMinusIncome)
	})

	t.Run("unfiltered lists every visible category and uncategorized", func(t *testing.T) {
		out, err := uc.Execute(context.Background(), GetChartDataInput{QueryInput{
			UserID: uuid.New(),
			Months: []string{"2024-05"},
		}})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(out.Rows) != 3 {
			t.Fatalf("expected groceries, rent and uncategorized rows, got %d", len(out.Rows))
		}
		if !out.Rows[2].Category.IsNil {
			t.Error("expected the uncategorized row last")
		}
	})
}

func TestGetBalancesUseCase(t *testing.T) {
	f := newFixture()
	uc := NewGetBalancesUseCase(f.repo)

	out, err := uc.Execute(context.Background(), GetBalancesInput{
		UserID: uuid.New(),
		Month:  "2024-05",
		Scope:  "account:" + f.checking.ID.String(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertDecimal(t, "starting balance", "100", out.StartingBalance)
	assertDecimal(t, "day 1", "1200", out.Balances[0].Total)
	assertDecimal(t, "day 4", "1050", out.Balances[3].Total)
	assertDecimal(t, "day 5", "1020", out.Balances[4].Total)

	t.Run("unknown account", func(t *testing.T) {
		_, err := uc.Execute(context.Background(), GetBalancesInput{
			UserID: uuid.New(),
			Month:  "2024-05",
			Scope:  "account:" + uuid.NewString(),
		})
		assertCode(t, err, domainerror.ErrCodeAccountNotFound)
	})

	t.Run("several months", func(t *testing.T) {
		_, err := uc.Execute(context.Background(), GetBalancesInput{
			UserID: uuid.New(),
			Month:  "2024-05,2024-06",
		})
		assertCode(t, err, domainerror.ErrCodeSingleMonthRequired)
	})
}

func TestGetCumulativeTotalsUseCase(t *testing.T) {
	f := newFixture()
	uc := NewGetCumulativeTotalsUseCase(f.repo)

	out, err := uc.Execute(context.Background(), GetCumulativeTotalsInput{
		QueryInput: QueryInput{UserID: uuid.New(), Months: []string{"2024-05"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out.Totals) != 4 {
		t.Fatalf("expected entries on days 1, 4, 5 and 18, got %d", len(out.Totals))
	}
	assertDecimal(t, "day 1", "900", out.Totals[0].RunningTotal)
	assertDecimal(t, "day 18", "1180", out.Totals[3].RunningTotal)

	_, err = uc.Execute(context.Background(), GetCumulativeTotalsInput{
		QueryInput: QueryInput{UserID: uuid.New(), Months: []string{"2024-05"}},
		Metric:     "balance",
	})
	assertCode(t, err, domainerror.ErrCodeInvalidMetric)
}
