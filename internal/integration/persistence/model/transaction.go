package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/finance-tracker/insights/internal/domain/entity"
)

// TransactionModel represents the transactions table in the database.
// Amounts on credit and loan accounts are stored with the issuer's sign.
type TransactionModel struct {
	ID                   uuid.UUID       `gorm:"type:uuid;primaryKey"`
	AccountID            uuid.UUID       `gorm:"type:uuid;not null;index"`
	CategoryID           *uuid.UUID      `gorm:"type:uuid;index"`
	Title                string          `gorm:"type:varchar(255);not null"`
	Amount               decimal.Decimal `gorm:"type:decimal(15,2);not null"`
	Date                 time.Time       `gorm:"type:timestamp;not null;index"`
	FactorInCalculations bool            `gorm:"not null"`
	IsTransferOrigin     bool            `gorm:"not null"`
	IsTransferDest       bool            `gorm:"not null"`
	IsPaymentOrigin      bool            `gorm:"not null"`
	IsPaymentDest        bool            `gorm:"not null"`
	RelatedTransactionID *uuid.UUID      `gorm:"type:uuid;index"`
	Active               bool            `gorm:"not null;index"`
	CreatedAt            time.Time       `gorm:"not null"`
	UpdatedAt            time.Time       `gorm:"not null"`
	DeletedAt            gorm.DeletedAt  `gorm:"index"` // Soft-delete support
}

// TableName returns the table name for the TransactionModel.
func (TransactionModel) TableName() string {
	return "transactions"
}

// ToEntity converts a TransactionModel to a domain Transaction entity,
// resolving its account and category. An unknown category leaves the
// transaction uncategorized.
func (m *TransactionModel) ToEntity(accounts map[uuid.UUID]*entity.Account, categories map[uuid.UUID]*entity.Category) *entity.Transaction {
	var category *entity.Category
	if m.CategoryID != nil {
		category = categories[*m.CategoryID]
	}

	return &entity.Transaction{
		ID:                   m.ID,
		Title:                m.Title,
		Amount:               m.Amount,
		Date:                 m.Date,
		Account:              accounts[m.AccountID],
		Category:             category,
		FactorInCalculations: m.FactorInCalculations,
		IsTransferOrigin:     m.IsTransferOrigin,
		IsTransferDest:       m.IsTransferDest,
		IsPaymentOrigin:      m.IsPaymentOrigin,
		IsPaymentDest:        m.IsPaymentDest,
		RelatedTransactionID: m.RelatedTransactionID,
		Active:               m.Active,
	}
}

// TransactionFromEntity creates a TransactionModel from a domain Transaction entity.
func TransactionFromEntity(transaction *entity.Transaction) *TransactionModel {
	m := &TransactionModel{
		ID:                   transaction.ID,
		Title:                transaction.Title,
		Amount:               transaction.Amount,
		Date:                 transaction.Date,
		FactorInCalculations: transaction.FactorInCalculations,
		IsTransferOrigin:     transaction.IsTransferOrigin,
		IsTransferDest:       transaction.IsTransferDest,
		IsPaymentOrigin:      transaction.IsPaymentOrigin,
		IsPaymentDest:        transaction.IsPaymentDest,
		RelatedTransactionID: transaction.RelatedTransactionID,
		Active:               transaction.Active,
	}
	if transaction.Account != nil {
		m.AccountID = transaction.Account.ID
	}
	if transaction.Category != nil && !transaction.Category.IsNil {
		id := transaction.Category.ID
		m.CategoryID = &id
	}
	return m
}

// All returns every model of the ledger schema, in migration order.
func All() []any {
	return []any{
		&AccountModel{},
		&AccountShareModel{},
		&CategoryModel{},
		&CategoryGroupModel{},
		&CategoryGroupMemberModel{},
		&BudgetModel{},
		&TransactionModel{},
	}
}
