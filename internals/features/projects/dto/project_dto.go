package dto

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"churchhub_backend/internals/features/projects/model"
)

type CreateProjectRequest struct {
	Title        string          `json:"title" validate:"required,max=160"`
	Description  *string         `json:"description" validate:"omitempty,max=5000"`
	BranchID     string          `json:"branch_id" validate:"required,uuid"`
	TargetAmount decimal.Decimal `json:"target_amount"`
	IsActive     *bool           `json:"is_active"`
}

func (r *CreateProjectRequest) Normalize() {
	r.Title = strings.TrimSpace(r.Title)
	r.BranchID = strings.TrimSpace(r.BranchID)
	r.Description = trimPtr(r.Description)
}

// PUT /api/admin/projects/:id. Nil fields are left unchanged.
type UpdateProjectRequest struct {
	Title        *string          `json:"title" validate:"omitempty,min=1,max=160"`
	Description  *string          `json:"description" validate:"omitempty,max=5000"`
	BranchID     *string          `json:"branch_id" validate:"omitempty,uuid"`
	TargetAmount *decimal.Decimal `json:"target_amount"`
	IsActive     *bool            `json:"is_active"`
}

func (r *UpdateProjectRequest) Normalize() {
	if r.Title != nil {
		v := strings.TrimSpace(*r.Title)
		r.Title = &v
	}
	r.BranchID = trimPtr(r.BranchID)
	if r.Description != nil {
		v := strings.TrimSpace(*r.Description)
		r.Description = &v
	}
}

type ProjectResponse struct {
	ProjectID       uuid.UUID       `json:"project_id"`
	Title           string          `json:"project_title"`
	Description     *string         `json:"project_description,omitempty"`
	BranchID        uuid.UUID       `json:"project_branch_id"`
	TargetAmount    decimal.Decimal `json:"project_target_amount"`
	CollectedAmount decimal.Decimal `json:"project_collected_amount"`
	IsActive        bool            `json:"project_is_active"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func FromModel(p *model.Project) ProjectResponse {
	return ProjectResponse{
		ProjectID:       p.ProjectID,
		Title:           p.ProjectTitle,
		Description:     p.ProjectDescription,
		BranchID:        p.ProjectBranchID,
		TargetAmount:    p.ProjectTargetAmount,
		CollectedAmount: p.ProjectCollectedAmount,
		IsActive:        p.ProjectIsActive,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}

func FromModels(list []model.Project) []ProjectResponse {
	out := make([]ProjectResponse, 0, len(list))
	for i := range list {
		out = append(out, FromModel(&list[i]))
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
