package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/finance-tracker/insights/internal/domain/entity"
)

// BudgetModel represents the budgets table in the database. A row targets
// either a category or a category group.
type BudgetModel struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey"`
	OwnerID         uuid.UUID       `gorm:"type:uuid;not null;index"`
	CategoryID      *uuid.UUID      `gorm:"type:uuid;index"`
	CategoryGroupID *uuid.UUID      `gorm:"type:uuid;index"`
	Amount          decimal.Decimal `gorm:"type:decimal(15,2);not null"`
	Month           int             `gorm:"not null"`
	Year            int             `gorm:"not null;index"`
	CreatedAt       time.Time       `gorm:"not null"`
	UpdatedAt       time.Time       `gorm:"not null"`
}

// TableName returns the table name for the BudgetModel.
func (BudgetModel) TableName() string {
	return "budgets"
}

// ToEntity converts a BudgetModel to a domain Budget entity.
func (m *BudgetModel) ToEntity() *entity.Budget {
	return &entity.Budget{
		ID:              m.ID,
		CategoryID:      m.CategoryID,
		CategoryGroupID: m.CategoryGroupID,
		Amount:          m.Amount,
		Month:           m.Month,
		Year:            m.Year,
	}
}

// BudgetFromEntity creates a BudgetModel owned by ownerID from a domain Budget entity.
func BudgetFromEntity(budget *entity.Budget, ownerID uuid.UUID) *BudgetModel {
	return &BudgetModel{
		ID:              budget.ID,
		OwnerID:         ownerID,
		CategoryID:      budget.CategoryID,
		CategoryGroupID: budget.CategoryGroupID,
		Amount:          budget.Amount,
		Month:           budget.Month,
		Year:            budget.Year,
	}
}
