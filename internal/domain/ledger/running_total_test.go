package ledger

import (
	"testing"
	"time"

	"github.com/finance-tracker/insights/internal/domain/entity"
	"github.com/finance-tracker/insights/internal/domain/valueobject"
)

func TestEndOfDayTotals_CheckingAccount(t *testing.T) {
	checking := newAccount(entity.AccountTypeChecking, "100")
	groceries := newTx(checking, nil, "-30", day(2024, 5, 5))
	l := entity.NewLedger([]*entity.Account{checking}, nil, nil, nil, []*entity.Transaction{groceries}, time.UTC)

	book := NewBalanceBook(l, valueobject.AllAccounts)
	month := l.Month(may2024)
	balances := EndOfDayTotals(month, book, StartingBalance(l, book, may2024), nil)

	if len(balances) != 31 {
		t.Fatalf("expected a balance for each of the 31 days, got %d", len(balances))
	}
	assertDecimal(t, "day 4", "100", balances[3].Total)
	assertDecimal(t, "day 5", "70", balances[4].Total)
	assertDecimal(t, "day 31", "70", balances[30].Total)
	assertDecimal(t, "day 5 on the month", "70", month.DayOf(5).EndOfDayTotal)
}

func TestEndOfDayTotals_StartsFromEarlierMonths(t *testing.T) {
	checking := newAccount(entity.AccountTypeChecking, "100")
	april := newTx(checking, nil, "250", day(2024, 4, 28))
	excluded := newTx(checking, nil, "-20", day(2024, 4, 29))
	excluded.FactorInCalculations = false
	inactive := newTx(checking, nil, "-1000", day(2024, 4, 30))
	inactive.Active = false
	l := entity.NewLedger([]*entity.Account{checking}, nil, nil, nil,
		[]*entity.Transaction{april, excluded, inactive}, time.UTC)

	book := NewBalanceBook(l, valueobject.AllAccounts)

	assertDecimal(t, "starting balance", "330", StartingBalance(l, book, may2024))
}

func TestBalanceBook_SignConvention(t *testing.T) {
	checking := newAccount(entity.AccountTypeChecking, "500")
	credit := newAccount(entity.AccountTypeCredit, "200")
	purchase := newTx(credit, nil, "40", day(2024, 5, 3))
	l := entity.NewLedger([]*entity.Account{checking, credit}, nil, nil, nil, []*entity.Transaction{purchase}, time.UTC)

	t.Run("credit only reports the amount owed", func(t *testing.T) {
		book := NewBalanceBook(l, valueobject.AccountScope{Kind: valueobject.ScopeUnifiedCredit})
		balances := EndOfDayTotals(l.Month(may2024), book, StartingBalance(l, book, may2024), nil)
		assertDecimal(t, "day 2", "200", balances[1].Total)
		assertDecimal(t, "day 3", "240", balances[2].Total)
	})

	t.Run("mixed accounts report the user's net position", func(t *testing.T) {
		book := NewBalanceBook(l, valueobject.AllAccounts)
		balances := EndOfDayTotals(l.Month(may2024), book, StartingBalance(l, book, may2024), nil)
		assertDecimal(t, "day 2", "300", balances[1].Total)
		assertDecimal(t, "day 3", "260", balances[2].Total)
	})
}

func TestEndOfDayTotals_StopsWhenStepDeclines(t *testing.T) {
	checking := newAccount(entity.AccountTypeChecking, "0")
	l := entity.NewLedger([]*entity.Account{checking}, nil, nil, nil, nil, time.UTC)
	book := NewBalanceBook(l, valueobject.AllAccounts)

	balances := EndOfDayTotals(l.Month(may2024), book, StartingBalance(l, book, may2024), func(done, _ int) bool {
		return done < 3
	})

	if len(balances) != 3 {
		t.Errorf("expected the walk to stop after 3 days, got %d", len(balances))
	}
}

func TestCumulativeTotals(t *testing.T) {
	checking := newAccount(entity.AccountTypeChecking, "0")
	txs := []*entity.Transaction{
		newTx(checking, nil, "-10", day(2024, 5, 2)),
		newTx(checking, nil, "-5", day(2024, 5, 2)),
		newTx(checking, nil, "300", day(2024, 5, 6)),
		newTx(checking, nil, "-20", day(2024, 5, 9)),
		newTx(checking, nil, "-99", day(2024, 6, 1)),
	}
	month := entity.BuildMonth(may2024, time.UTC, txs, nil)

	totals := CumulativeTotals(month, time.UTC, txs, MetricSpend, nil)

	if len(totals) != 2 {
		t.Fatalf("expected entries for the two days with spend only, got %d", len(totals))
	}
	if totals[0].Date.Day() != 2 || totals[1].Date.Day() != 9 {
		t.Errorf("expected entries on days 2 and 9, got %d and %d", totals[0].Date.Day(), totals[1].Date.Day())
	}
	assertDecimal(t, "day 2", "15", totals[0].RunningTotal)
	assertDecimal(t, "day 9", "35", totals[1].RunningTotal)

	t.Run("days without activity read the previous entry", func(t *testing.T) {
		got, ok := TotalOnOrBefore(totals, day(2024, 5, 7))
		if !ok {
			t.Fatal("expected an entry on or before day 7")
		}
		assertDecimal(t, "day 7", "15", got)

		if _, ok := TotalOnOrBefore(totals, day(2024, 5, 1)); ok {
			t.Error("expected no entry before the first active day")
		}
	})

	t.Run("net metric counts every transaction", func(t *testing.T) {
		net := CumulativeTotals(month, time.UTC, txs, MetricNet, nil)
		if len(net) != 3 {
			t.Fatalf("expected 3 active days, got %d", len(net))
		}
		assertDecimal(t, "last day", "265", net[2].RunningTotal)
	})
}
