package dto

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"churchhub_backend/internals/features/branches/model"
)

type CreateBranchRequest struct {
	Name string  `json:"name" validate:"required,max=120"`
	Slug *string `json:"slug" validate:"omitempty,max=120"`
	City *string `json:"city" validate:"omitempty,max=120"`
}

func (r *CreateBranchRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Slug = trimPtr(r.Slug)
	r.City = trimPtr(r.City)
}

// PUT /api/admin/branches/:id. Nil fields are left unchanged.
type UpdateBranchRequest struct {
	Name *string `json:"name" validate:"omitempty,min=1,max=120"`
	Slug *string `json:"slug" validate:"omitempty,max=120"`
	City *string `json:"city" validate:"omitempty,max=120"`
}

func (r *UpdateBranchRequest) Normalize() {
	if r.Name != nil {
		v := strings.TrimSpace(*r.Name)
		r.Name = &v
	}
	r.Slug = trimPtr(r.Slug)
	if r.City != nil {
		v := strings.TrimSpace(*r.City)
		r.City = &v
	}
}

type BranchResponse struct {
	BranchID        uuid.UUID       `json:"branch_id"`
	BranchName      string          `json:"branch_name"`
	BranchSlug      string          `json:"branch_slug"`
	BranchCity      *string         `json:"branch_city,omitempty"`
	CollectedAmount decimal.Decimal `json:"branch_collected_amount"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func FromModel(b *model.Branch) BranchResponse {
	return BranchResponse{
		BranchID:        b.BranchID,
		BranchName:      b.BranchName,
		BranchSlug:      b.BranchSlug,
		BranchCity:      b.BranchCity,
		CollectedAmount: b.BranchCollectedAmount,
		CreatedAt:       b.CreatedAt,
		UpdatedAt:       b.UpdatedAt,
	}
}

func FromModels(list []model.Branch) []BranchResponse {
	out := make([]BranchResponse, 0, len(list))
	for i := range list {
		out = append(out, FromModel(&list[i]))
	}
	return out
}

// BranchStatsRow is a branch with its donation count and SUCCESS donation total.
type BranchStatsRow struct {
	model.Branch
	DonationsCount int64           `gorm:"column:donations_count"`
	DonationsTotal decimal.Decimal `gorm:"column:donations_total"`
}

type BranchStatsResponse struct {
	BranchResponse
	DonationsCount int64           `json:"donations_count"`
	DonationsTotal decimal.Decimal `json:"donations_total"`
}

func FromStatsRows(rows []BranchStatsRow) []BranchStatsResponse {
	out := make([]BranchStatsResponse, 0, len(rows))
	for i := range rows {
		out = append(out, BranchStatsResponse{
			BranchResponse: FromModel(&rows[i].Branch),
			DonationsCount: rows[i].DonationsCount,
			DonationsTotal: rows[i].DonationsTotal,
		})
	}
	return out
}

func trimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
