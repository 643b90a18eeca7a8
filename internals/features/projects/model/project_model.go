package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	branchModel "churchhub_backend/internals/features/branches/model"
)

// Project is a fundraising target owned by a branch. ProjectCollectedAmount is derived
// from SUCCESS donations and is written only by the aggregate recompute.
type Project struct {
	ProjectID          uuid.UUID `gorm:"column:project_id;type:uuid;primaryKey" json:"project_id"`
	ProjectTitle       string    `gorm:"column:project_title;type:varchar(160);not null" json:"project_title"`
	ProjectDescription *string   `gorm:"column:project_description;type:text" json:"project_description,omitempty"`
	ProjectBranchID    uuid.UUID `gorm:"column:project_branch_id;type:uuid;not null;index:idx_projects_branch" json:"project_branch_id"`

	ProjectTargetAmount    decimal.Decimal `gorm:"column:project_target_amount;type:numeric(14,2);not null;default:0" json:"project_target_amount"`
	ProjectCollectedAmount decimal.Decimal `gorm:"column:project_collected_amount;type:numeric(14,2);not null;default:0" json:"project_collected_amount"`
	ProjectIsActive        bool            `gorm:"column:project_is_active;not null" json:"project_is_active"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`

	Branch *branchModel.Branch `gorm:"foreignKey:ProjectBranchID;references:BranchID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
}

func (Project) TableName() string { return "projects" }

func (p *Project) BeforeCreate(tx *gorm.DB) error {
	if p.ProjectID == uuid.Nil {
		p.ProjectID = uuid.New()
	}
	return nil
}
