package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Branch is a church location. BranchCollectedAmount caches the sum of its projects'
// collected amounts and is written only by the aggregate recompute.
type Branch struct {
	BranchID   uuid.UUID `gorm:"column:branch_id;type:uuid;primaryKey" json:"branch_id"`
	BranchName string    `gorm:"column:branch_name;type:varchar(120);not null" json:"branch_name"`
	BranchSlug string    `gorm:"column:branch_slug;type:varchar(120);not null;uniqueIndex:uq_branches_slug" json:"branch_slug"`
	BranchCity *string   `gorm:"column:branch_city;type:varchar(120)" json:"branch_city,omitempty"`

	BranchCollectedAmount decimal.Decimal `gorm:"column:branch_collected_amount;type:numeric(14,2);not null;default:0" json:"branch_collected_amount"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Branch) TableName() string { return "branches" }

func (b *Branch) BeforeCreate(tx *gorm.DB) error {
	if b.BranchID == uuid.Nil {
		b.BranchID = uuid.New()
	}
	return nil
}
