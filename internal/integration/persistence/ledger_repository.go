// Package persistence implements repository interfaces for database operations.
package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/finance-tracker/insights/internal/application/adapter"
	"github.com/finance-tracker/insights/internal/domain/entity"
	"github.com/finance-tracker/insights/internal/integration/persistence/model"
)

// ledgerRepository implements the adapter.LedgerRepository interface.
type ledgerRepository struct {
	db  *gorm.DB
	loc *time.Location
}

// NewLedgerRepository creates a new ledger repository instance. Month
// boundaries are evaluated in loc; nil means UTC.
func NewLedgerRepository(db *gorm.DB, loc *time.Location) adapter.LedgerRepository {
	if loc == nil {
		loc = time.UTC
	}
	return &ledgerRepository{
		db:  db,
		loc: loc,
	}
}

// LoadLedger builds a snapshot of the user's ledger in a single read transaction.
func (r *ledgerRepository) LoadLedger(ctx context.Context, userID uuid.UUID, months []entity.MonthKey) (*entity.Ledger, error) {
	var snapshot *entity.Ledger
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		accounts, err := r.visibleAccounts(tx, userID)
		if err != nil {
			return err
		}

		categories, categoriesByID, err := r.categories(tx, userID)
		if err != nil {
			return err
		}

		groups, err := r.groups(tx, userID, categoriesByID)
		if err != nil {
			return err
		}

		budgets, err := r.budgets(tx, userID, months)
		if err != nil {
			return err
		}

		accountsByID := make(map[uuid.UUID]*entity.Account, len(accounts))
		accountIDs := make([]uuid.UUID, 0, len(accounts))
		for _, a := range accounts {
			accountsByID[a.ID] = a
			accountIDs = append(accountIDs, a.ID)
		}

		transactionModels, err := r.transactions(tx, accountIDs, r.loadUntil(months))
		if err != nil {
			return err
		}

		related, err := r.relatedLegs(tx, transactionModels)
		if err != nil {
			return err
		}
		foreign, err := r.foreignAccounts(tx, related, accountsByID)
		if err != nil {
			return err
		}
		for _, a := range foreign {
			accountsByID[a.ID] = a
		}
		accounts = append(accounts, foreign...)
		transactionModels = append(transactionModels, related...)

		transactions := make([]*entity.Transaction, 0, len(transactionModels))
		for i := range transactionModels {
			transactions = append(transactions, transactionModels[i].ToEntity(accountsByID, categoriesByID))
		}

		snapshot = entity.NewLedger(accounts, categories, groups, budgets, transactions, r.loc)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load ledger: %w", err)
	}
	return snapshot, nil
}

// visibleAccounts returns the accounts the user owns or has been shared.
func (r *ledgerRepository) visibleAccounts(tx *gorm.DB, userID uuid.UUID) ([]*entity.Account, error) {
	shared := tx.Model(&model.AccountShareModel{}).Select("account_id").Where("user_id = ?", userID)

	var accountModels []model.AccountModel
	result := tx.
		Where("owner_id = ? OR id IN (?)", userID, shared).
		Order("name ASC, id ASC").
		Find(&accountModels)
	if result.Error != nil {
		return nil, result.Error
	}

	accounts := make([]*entity.Account, len(accountModels))
	for i := range accountModels {
		accounts[i] = accountModels[i].ToEntity(true)
	}
	return accounts, nil
}

func (r *ledgerRepository) categories(tx *gorm.DB, userID uuid.UUID) ([]*entity.Category, map[uuid.UUID]*entity.Category, error) {
	var categoryModels []model.CategoryModel
	result := tx.
		Where("owner_id = ?", userID).
		Order("title ASC").
		Find(&categoryModels)
	if result.Error != nil {
		return nil, nil, result.Error
	}

	categories := make([]*entity.Category, len(categoryModels))
	byID := make(map[uuid.UUID]*entity.Category, len(categoryModels))
	for i := range categoryModels {
		c := categoryModels[i].ToEntity()
		categories[i] = c
		byID[c.ID] = c
	}
	return categories, byID, nil
}

func (r *ledgerRepository) groups(tx *gorm.DB, userID uuid.UUID, categories map[uuid.UUID]*entity.Category) ([]*entity.CategoryGroup, error) {
	var groupModels []model.CategoryGroupModel
	result := tx.
		Preload("Members", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where("owner_id = ?", userID).
		Order("title ASC").
		Find(&groupModels)
	if result.Error != nil {
		return nil, result.Error
	}

	groups := make([]*entity.CategoryGroup, len(groupModels))
	for i := range groupModels {
		groups[i] = groupModels[i].ToEntity(categories)
	}
	return groups, nil
}

// budgets returns the budget rows of the given months only.
func (r *ledgerRepository) budgets(tx *gorm.DB, userID uuid.UUID, months []entity.MonthKey) ([]*entity.Budget, error) {
	if len(months) == 0 {
		return nil, nil
	}
	keys := make([]int, len(months))
	for i, m := range months {
		keys[i] = m.Year*100 + int(m.Month)
	}

	var budgetModels []model.BudgetModel
	result := tx.
		Where("owner_id = ? AND (year * 100 + month) IN ?", userID, keys).
		Find(&budgetModels)
	if result.Error != nil {
		return nil, result.Error
	}

	budgets := make([]*entity.Budget, len(budgetModels))
	for i := range budgetModels {
		budgets[i] = budgetModels[i].ToEntity()
	}
	return budgets, nil
}

// transactions returns every transaction of the accounts dated before until,
// including inactive ones. Earlier months feed the starting balances.
func (r *ledgerRepository) transactions(tx *gorm.DB, accountIDs []uuid.UUID, until time.Time) ([]model.TransactionModel, error) {
	if len(accountIDs) == 0 {
		return nil, nil
	}

	var transactionModels []model.TransactionModel
	query := tx.Where("account_id IN ?", accountIDs)
	if !until.IsZero() {
		query = query.Where("date < ?", until.UTC())
	}
	result := query.Order("date ASC, id ASC").Find(&transactionModels)
	if result.Error != nil {
		return nil, result.Error
	}
	return transactionModels, nil
}

// relatedLegs loads the other legs of transfers and payments that are not
// part of the loaded set, such as legs dated after the window or booked on
// accounts the user cannot see.
func (r *ledgerRepository) relatedLegs(tx *gorm.DB, loaded []model.TransactionModel) ([]model.TransactionModel, error) {
	have := make(map[uuid.UUID]struct{}, len(loaded))
	for _, m := range loaded {
		have[m.ID] = struct{}{}
	}
	var missing []uuid.UUID
	for _, m := range loaded {
		if m.RelatedTransactionID == nil {
			continue
		}
		if _, ok := have[*m.RelatedTransactionID]; ok {
			continue
		}
		have[*m.RelatedTransactionID] = struct{}{}
		missing = append(missing, *m.RelatedTransactionID)
	}
	if len(missing) == 0 {
		return nil, nil
	}

	var related []model.TransactionModel
	if err := tx.Where("id IN ?", missing).Order("date ASC, id ASC").Find(&related).Error; err != nil {
		return nil, err
	}
	return related, nil
}

// foreignAccounts resolves the accounts of related legs the user cannot see.
// They enter the snapshot marked invisible.
func (r *ledgerRepository) foreignAccounts(tx *gorm.DB, related []model.TransactionModel, known map[uuid.UUID]*entity.Account) ([]*entity.Account, error) {
	seen := make(map[uuid.UUID]struct{})
	var ids []uuid.UUID
	for _, m := range related {
		if _, ok := known[m.AccountID]; ok {
			continue
		}
		if _, ok := seen[m.AccountID]; ok {
			continue
		}
		seen[m.AccountID] = struct{}{}
		ids = append(ids, m.AccountID)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	var accountModels []model.AccountModel
	if err := tx.Where("id IN ?", ids).Order("name ASC, id ASC").Find(&accountModels).Error; err != nil {
		return nil, err
	}
	accounts := make([]*entity.Account, len(accountModels))
	for i := range accountModels {
		accounts[i] = accountModels[i].ToEntity(false)
	}
	return accounts, nil
}

// loadUntil returns the end of the latest month, or the zero time when no
// month is given.
func (r *ledgerRepository) loadUntil(months []entity.MonthKey) time.Time {
	if len(months) == 0 {
		return time.Time{}
	}
	latest := months[0]
	for _, m := range months[1:] {
		if latest.Before(m) {
			latest = m
		}
	}
	return latest.End(r.loc)
}
