// Package model defines database models for persistence layer.
package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/finance-tracker/insights/internal/domain/entity"
)

// AccountModel represents the accounts table in the database.
type AccountModel struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey"`
	OwnerID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	Name           string          `gorm:"type:varchar(100);not null"`
	Type           string          `gorm:"type:varchar(20);not null"`
	IsHidden       bool            `gorm:"not null"`
	OpeningBalance decimal.Decimal `gorm:"type:decimal(15,2);not null"`
	CreatedAt      time.Time       `gorm:"not null"`
	UpdatedAt      time.Time       `gorm:"not null"`
	DeletedAt      gorm.DeletedAt  `gorm:"index"` // Soft-delete support
}

// TableName returns the table name for the AccountModel.
func (AccountModel) TableName() string {
	return "accounts"
}

// ToEntity converts an AccountModel to a domain Account entity. visible tells
// whether the requesting user owns the account or has it shared with them.
func (m *AccountModel) ToEntity(visible bool) *entity.Account {
	return &entity.Account{
		ID:                     m.ID,
		Name:                   m.Name,
		Type:                   entity.AccountType(m.Type),
		IsHidden:               m.IsHidden,
		IsVisibleToCurrentUser: visible,
		OpeningBalance:         m.OpeningBalance,
	}
}

// AccountFromEntity creates an AccountModel owned by ownerID from a domain Account entity.
func AccountFromEntity(account *entity.Account, ownerID uuid.UUID) *AccountModel {
	return &AccountModel{
		ID:             account.ID,
		OwnerID:        ownerID,
		Name:           account.Name,
		Type:           string(account.Type),
		IsHidden:       account.IsHidden,
		OpeningBalance: account.OpeningBalance,
	}
}

// AccountShareModel represents the account_shares table: accounts another
// user made visible to UserID.
type AccountShareModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	AccountID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_account_shares_account_user"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_account_shares_account_user;index"`
	CreatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for the AccountShareModel.
func (AccountShareModel) TableName() string {
	return "account_shares"
}
