package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/finance-tracker/insights/internal/domain/entity"
)

// CategoryModel represents the categories table in the database.
type CategoryModel struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey"`
	OwnerID   uuid.UUID      `gorm:"type:uuid;not null;index"`
	Title     string         `gorm:"type:varchar(50);not null"`
	Kind      string         `gorm:"type:varchar(10);not null"`
	ListOrder *int           `gorm:"type:integer"`
	IsHidden  bool           `gorm:"not null"`
	CreatedAt time.Time      `gorm:"not null"`
	UpdatedAt time.Time      `gorm:"not null"`
	DeletedAt gorm.DeletedAt `gorm:"index"` // Soft-delete support
}

// TableName returns the table name for the CategoryModel.
func (CategoryModel) TableName() string {
	return "categories"
}

// ToEntity converts a CategoryModel to a domain Category entity.
func (m *CategoryModel) ToEntity() *entity.Category {
	return &entity.Category{
		ID:        m.ID,
		Title:     m.Title,
		Kind:      entity.CategoryKind(m.Kind),
		ListOrder: m.ListOrder,
		IsHidden:  m.IsHidden,
	}
}

// CategoryFromEntity creates a CategoryModel owned by ownerID from a domain Category entity.
func CategoryFromEntity(category *entity.Category, ownerID uuid.UUID) *CategoryModel {
	return &CategoryModel{
		ID:        category.ID,
		OwnerID:   ownerID,
		Title:     category.Title,
		Kind:      string(category.Kind),
		ListOrder: category.ListOrder,
		IsHidden:  category.IsHidden,
	}
}

// CategoryGroupModel represents the category_groups table in the database.
type CategoryGroupModel struct {
	ID        uuid.UUID                  `gorm:"type:uuid;primaryKey"`
	OwnerID   uuid.UUID                  `gorm:"type:uuid;not null;index"`
	Title     string                     `gorm:"type:varchar(50);not null"`
	CreatedAt time.Time                  `gorm:"not null"`
	UpdatedAt time.Time                  `gorm:"not null"`
	DeletedAt gorm.DeletedAt             `gorm:"index"` // Soft-delete support
	Members   []CategoryGroupMemberModel `gorm:"foreignKey:GroupID;references:ID"`
}

// TableName returns the table name for the CategoryGroupModel.
func (CategoryGroupModel) TableName() string {
	return "category_groups"
}

// ToEntity converts a CategoryGroupModel to a domain CategoryGroup entity.
// Members whose category is not in categories are skipped. Members must be
// loaded in position order.
func (m *CategoryGroupModel) ToEntity(categories map[uuid.UUID]*entity.Category) *entity.CategoryGroup {
	group := &entity.CategoryGroup{
		ID:      m.ID,
		Title:   m.Title,
		Members: make([]entity.CategoryGroupMember, 0, len(m.Members)),
	}
	for _, member := range m.Members {
		c, ok := categories[member.CategoryID]
		if !ok {
			continue
		}
		group.Members = append(group.Members, entity.CategoryGroupMember{Category: c, Active: member.Active})
	}
	return group
}

// CategoryGroupMemberModel represents the category_group_members table in the database.
type CategoryGroupMemberModel struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	GroupID    uuid.UUID `gorm:"type:uuid;not null;index"`
	CategoryID uuid.UUID `gorm:"type:uuid;not null;index"`
	Position   int       `gorm:"not null"`
	Active     bool      `gorm:"not null"`
}

// TableName returns the table name for the CategoryGroupMemberModel.
func (CategoryGroupMemberModel) TableName() string {
	return "category_group_members"
}
