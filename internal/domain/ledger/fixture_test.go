package ledger

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/finance-tracker/insights/internal/domain/entity"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 12, 0, 0, 0, time.UTC)
}

func newAccount(t entity.AccountType, opening string) *entity.Account {
	return &entity.Account{
		ID:                     uuid.New(),
		Name:                   string(t),
		Type:                   t,
		IsVisibleToCurrentUser: true,
		OpeningBalance:         dec(opening),
	}
}

func newCategory(title string) *entity.Category {
	return &entity.Category{ID: uuid.New(), Title: title, Kind: entity.CategoryKindExpense}
}

func newTx(account *entity.Account, category *entity.Category, amount string, date time.Time) *entity.Transaction {
	return &entity.Transaction{
		ID:                   uuid.New(),
		Amount:               dec(amount),
		Date:                 date,
		Account:              account,
		Category:             category,
		FactorInCalculations: true,
		Active:               true,
	}
}

// link marks origin and dest as the two legs of a transfer, or of a credit
// payment when payment is true.
func link(origin, dest *entity.Transaction, payment bool) {
	originID, destID := origin.ID, dest.ID
	origin.RelatedTransactionID = &destID
	dest.RelatedTransactionID = &originID
	if payment {
		origin.IsPaymentOrigin = true
		dest.IsPaymentDest = true
		return
	}
	origin.IsTransferOrigin = true
	dest.IsTransferDest = true
}

func budgetFor(categoryID uuid.UUID, amount string, key entity.MonthKey) *entity.Budget {
	id := categoryID
	return &entity.Budget{ID: uuid.New(), CategoryID: &id, Amount: dec(amount), Month: int(key.Month), Year: key.Year}
}

func groupBudgetFor(groupID uuid.UUID, amount string, key entity.MonthKey) *entity.Budget {
	id := groupID
	return &entity.Budget{ID: uuid.New(), CategoryGroupID: &id, Amount: dec(amount), Month: int(key.Month), Year: key.Year}
}

func assertDecimal(t *testing.T, name string, want string, got decimal.Decimal) {
	t.Helper()
	if !got.Equal(dec(want)) {
		t.Errorf("expected %s %s, got %s", name, want, got.String())
	}
}
