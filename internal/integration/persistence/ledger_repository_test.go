package persistence

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/finance-tracker/insights/internal/domain/entity"
	"github.com/finance-tracker/insights/internal/integration/persistence/model"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := sql.Open("sqlite", "file:"+t.Name()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	conn.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = conn.Close() })

	db, err := gorm.Open(sqlite.Dialector{Conn: conn}, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(model.All()...))
	return db
}

type seed struct {
	userID     uuid.UUID
	checking   uuid.UUID
	credit     uuid.UUID
	shared     uuid.UUID
	foreign    uuid.UUID
	groceries  uuid.UUID
	dining     uuid.UUID
	group      uuid.UUID
	outbound   uuid.UUID
	foreignLeg uuid.UUID
	deleted    uuid.UUID
}

func seedLedger(t *testing.T, db *gorm.DB) seed {
	t.Helper()
	s := seed{
		userID:     uuid.New(),
		checking:   uuid.New(),
		credit:     uuid.New(),
		shared:     uuid.New(),
		foreign:    uuid.New(),
		groceries:  uuid.New(),
		dining:     uuid.New(),
		group:      uuid.New(),
		outbound:   uuid.New(),
		foreignLeg: uuid.New(),
		deleted:    uuid.New(),
	}
	partner := uuid.New()

	accounts := []model.AccountModel{
		{ID: s.checking, OwnerID: s.userID, Name: "Checking", Type: string(entity.AccountTypeChecking), OpeningBalance: decimal.NewFromInt(100)},
		{ID: s.credit, OwnerID: s.userID, Name: "Visa", Type: string(entity.AccountTypeCredit), OpeningBalance: decimal.Zero},
		{ID: s.shared, OwnerID: partner, Name: "Joint", Type: string(entity.AccountTypeChecking), OpeningBalance: decimal.Zero},
		{ID: s.foreign, OwnerID: partner, Name: "Partner savings", Type: string(entity.AccountTypeSavings), OpeningBalance: decimal.Zero},
	}
	require.NoError(t, db.Create(&accounts).Error)
	require.NoError(t, db.Create(&model.AccountShareModel{ID: uuid.New(), AccountID: s.shared, UserID: s.userID}).Error)

	categories := []model.CategoryModel{
		{ID: s.groceries, OwnerID: s.userID, Title: "Groceries", Kind: string(entity.CategoryKindExpense)},
		{ID: s.dining, OwnerID: s.userID, Title: "Dining", Kind: string(entity.CategoryKindExpense)},
		{ID: uuid.New(), OwnerID: partner, Title: "Partner only", Kind: string(entity.CategoryKindExpense)},
	}
	require.NoError(t, db.Create(&categories).Error)

	require.NoError(t, db.Create(&model.CategoryGroupModel{ID: s.group, OwnerID: s.userID, Title: "Food"}).Error)
	members := []model.CategoryGroupMemberModel{
		{ID: uuid.New(), GroupID: s.group, CategoryID: s.dining, Position: 2, Active: false},
		{ID: uuid.New(), GroupID: s.group, CategoryID: s.groceries, Position: 1, Active: true},
	}
	require.NoError(t, db.Create(&members).Error)

	groceries := s.groceries
	budgets := []model.BudgetModel{
		{ID: uuid.New(), OwnerID: s.userID, CategoryID: &groceries, Amount: decimal.NewFromInt(200), Month: 5, Year: 2024},
		{ID: uuid.New(), OwnerID: s.userID, CategoryID: &groceries, Amount: decimal.NewFromInt(999), Month: 6, Year: 2024},
	}
	require.NoError(t, db.Create(&budgets).Error)

	date := func(month time.Month, d int) time.Time {
		return time.Date(2024, month, d, 12, 0, 0, 0, time.UTC)
	}
	outbound, foreignLeg := s.outbound, s.foreignLeg
	transactions := []model.TransactionModel{
		{ID: uuid.New(), AccountID: s.checking, CategoryID: &groceries, Title: "Market", Amount: decimal.NewFromInt(-30), Date: date(time.May, 5), FactorInCalculations: true, Active: true},
		{ID: uuid.New(), AccountID: s.checking, Title: "Salary", Amount: decimal.NewFromInt(1000), Date: date(time.April, 30), FactorInCalculations: true, Active: true},
		{ID: uuid.New(), AccountID: s.credit, CategoryID: &groceries, Title: "Bakery", Amount: decimal.NewFromInt(12), Date: date(time.May, 6), FactorInCalculations: true, Active: false},
		{ID: uuid.New(), AccountID: s.shared, Title: "Utilities", Amount: decimal.NewFromInt(-80), Date: date(time.May, 7), FactorInCalculations: true, Active: true},
		{ID: uuid.New(), AccountID: s.checking, Title: "Next month", Amount: decimal.NewFromInt(-5), Date: date(time.June, 1), FactorInCalculations: true, Active: true},
		{ID: outbound, AccountID: s.checking, Title: "To partner", Amount: decimal.NewFromInt(-50), Date: date(time.May, 9), FactorInCalculations: true, Active: true, IsTransferOrigin: true, RelatedTransactionID: &foreignLeg},
		{ID: foreignLeg, AccountID: s.foreign, Title: "From partner", Amount: decimal.NewFromInt(50), Date: date(time.May, 9), FactorInCalculations: true, Active: true, IsTransferDest: true, RelatedTransactionID: &outbound},
		{ID: s.deleted, AccountID: s.checking, Title: "Deleted", Amount: decimal.NewFromInt(-7), Date: date(time.May, 10), FactorInCalculations: true, Active: true},
	}
	require.NoError(t, db.Create(&transactions).Error)
	require.NoError(t, db.Delete(&model.TransactionModel{}, "id = ?", s.deleted).Error)

	return s
}

func TestLedgerRepository_LoadLedger(t *testing.T) {
	db := openTestDB(t)
	s := seedLedger(t, db)
	repo := NewLedgerRepository(db, time.UTC)

	l, err := repo.LoadLedger(context.Background(), s.userID, []entity.MonthKey{{Year: 2024, Month: time.May}})
	require.NoError(t, err)

	t.Run("accounts owned, shared and referenced", func(t *testing.T) {
		require.Len(t, l.Accounts, 4)
		shared, ok := l.Account(s.shared)
		require.True(t, ok)
		assert.True(t, shared.IsVisible())

		foreign, ok := l.Account(s.foreign)
		require.True(t, ok)
		assert.False(t, foreign.IsVisibleToCurrentUser)
	})

	t.Run("categories and ordered group members", func(t *testing.T) {
		assert.Len(t, l.Categories, 2)
		group, ok := l.Group(s.group)
		require.True(t, ok)
		require.Len(t, group.Members, 2)
		assert.Equal(t, s.groceries, group.Members[0].Category.ID)
		assert.True(t, group.Members[0].Active)
		assert.False(t, group.Members[1].Active)
	})

	t.Run("budgets of the requested months only", func(t *testing.T) {
		require.Len(t, l.Budgets, 1)
		assert.True(t, l.Budgets[0].Amount.Equal(decimal.NewFromInt(200)))
	})

	t.Run("transactions up to the end of the window", func(t *testing.T) {
		assert.Len(t, l.Transactions, 6)
		_, deleted := l.Transaction(s.deleted)
		assert.False(t, deleted, "soft-deleted transactions are not loaded")

		leg, ok := l.Transaction(s.foreignLeg)
		require.True(t, ok, "related legs on foreign accounts are loaded")
		related, ok := l.Related(leg)
		require.True(t, ok)
		assert.Equal(t, s.outbound, related.ID)
	})
}

func TestLedgerRepository_UnknownUser(t *testing.T) {
	db := openTestDB(t)
	seedLedger(t, db)
	repo := NewLedgerRepository(db, nil)

	l, err := repo.LoadLedger(context.Background(), uuid.New(), []entity.MonthKey{{Year: 2024, Month: time.May}})
	require.NoError(t, err)
	assert.Empty(t, l.Accounts)
	assert.Empty(t, l.Transactions)
}
