package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	branchModel "churchhub_backend/internals/features/branches/model"
	donationModel "churchhub_backend/internals/features/donations/donations/model"
	donationService "churchhub_backend/internals/features/donations/donations/service"
	"churchhub_backend/internals/features/projects/dto"
	"churchhub_backend/internals/features/projects/model"
	helper "churchhub_backend/internals/helpers"
)

// ProjectService keeps project writes and the derived totals in one transaction.
type ProjectService struct {
	DB *gorm.DB
}

func NewProjectService(db *gorm.DB) *ProjectService {
	return &ProjectService{DB: db}
}

// List returns projects newest first, optionally for one branch or only active ones.
func (s *ProjectService) List(ctx context.Context, branchID *uuid.UUID, activeOnly bool) ([]model.Project, error) {
	q := s.DB.WithContext(ctx).Model(&model.Project{})
	if branchID != nil {
		q = q.Where("project_branch_id = ?", *branchID)
	}
	if activeOnly {
		q = q.Where("project_is_active = ?", true)
	}
	var list []model.Project
	if err := q.Order("created_at DESC").Find(&list).Error; err != nil {
		return nil, helper.NewInternal("list projects", err)
	}
	return list, nil
}

func (s *ProjectService) Create(ctx context.Context, req dto.CreateProjectRequest) (*model.Project, error) {
	req.Normalize()
	if err := helper.Validate.Struct(req); err != nil {
		return nil, err
	}
	if req.TargetAmount.IsNegative() {
		return nil, helper.NewValidationError("target_amount", "must not be negative")
	}
	branchID, _ := uuid.Parse(req.BranchID)

	p := model.Project{
		ProjectTitle:        req.Title,
		ProjectDescription:  req.Description,
		ProjectBranchID:     branchID,
		ProjectTargetAmount: req.TargetAmount,
		ProjectIsActive:     req.IsActive == nil || *req.IsActive,
	}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := branchExists(ctx, tx, branchID); err != nil {
			return err
		}
		if err := tx.Create(&p).Error; err != nil {
			return fmt.Errorf("create project: %w", err)
		}
		return donationService.RecomputeProjectAndBranches(ctx, tx, p.ProjectID, branchID)
	})
	if err != nil {
		return nil, wrap(err)
	}
	return &p, nil
}

// Update applies the non-nil fields. Moving a project to another branch
// recomputes the project and both branches.
func (s *ProjectService) Update(ctx context.Context, id uuid.UUID, req dto.UpdateProjectRequest) (*model.Project, error) {
	req.Normalize()
	if err := helper.Validate.Struct(req); err != nil {
		return nil, err
	}
	if req.TargetAmount != nil && req.TargetAmount.IsNegative() {
		return nil, helper.NewValidationError("target_amount", "must not be negative")
	}

	var p model.Project
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&p, "project_id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return helper.NewNotFound("project not found")
			}
			return fmt.Errorf("load project: %w", err)
		}
		oldBranch := p.ProjectBranchID

		if req.Title != nil {
			if *req.Title == "" {
				return helper.NewValidationError("title", "is required")
			}
			p.ProjectTitle = *req.Title
		}
		if req.Description != nil {
			if *req.Description == "" {
				p.ProjectDescription = nil
			} else {
				p.ProjectDescription = req.Description
			}
		}
		if req.TargetAmount != nil {
			p.ProjectTargetAmount = *req.TargetAmount
		}
		if req.IsActive != nil {
			p.ProjectIsActive = *req.IsActive
		}
		if req.BranchID != nil {
			newBranch, _ := uuid.Parse(*req.BranchID)
			if newBranch != oldBranch {
				if err := branchExists(ctx, tx, newBranch); err != nil {
					return err
				}
				p.ProjectBranchID = newBranch
			}
		}

		if err := tx.Model(&p).
			Select("project_title", "project_description", "project_branch_id",
				"project_target_amount", "project_is_active", "updated_at").
			Updates(&p).Error; err != nil {
			return fmt.Errorf("update project: %w", err)
		}
		if err := donationService.RecomputeProjectAndBranches(ctx, tx, p.ProjectID, oldBranch, p.ProjectBranchID); err != nil {
			return err
		}
		return tx.First(&p, "project_id = ?", id).Error
	})
	if err != nil {
		return nil, wrap(err)
	}
	return &p, nil
}

// Delete removes a project nobody donated to. When donations still reference it,
// totals are refreshed and committed before the conflict is reported. The
// foreign key on donations.donation_project_id catches donations that land
// between the count and the delete.
func (s *ProjectService) Delete(ctx context.Context, id uuid.UUID) error {
	var p model.Project
	if err := s.DB.WithContext(ctx).First(&p, "project_id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return helper.NewNotFound("project not found")
		}
		return helper.NewInternal("load project", err)
	}

	var referenced int64
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&donationModel.Donation{}).
			Where("donation_project_id = ?", id).
			Count(&referenced).Error; err != nil {
			return fmt.Errorf("count project donations: %w", err)
		}
		if referenced > 0 {
			return donationService.RecomputeProjectAndBranches(ctx, tx, id, p.ProjectBranchID)
		}
		if err := tx.Delete(&model.Project{}, "project_id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrForeignKeyViolated) {
				return errProjectReferenced
			}
			return fmt.Errorf("delete project: %w", err)
		}
		branchID := p.ProjectBranchID
		_, err := donationService.RecomputeBranchTotal(ctx, tx, &branchID)
		return err
	})
	refused := referenced > 0
	if errors.Is(err, errProjectReferenced) {
		// the failed delete aborted its transaction, refresh totals in a new one
		refused = true
		err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return donationService.RecomputeProjectAndBranches(ctx, tx, id, p.ProjectBranchID)
		})
	}
	if err != nil {
		return wrap(err)
	}
	if refused {
		zap.L().Info("project delete refused",
			zap.String("project_id", id.String()),
			zap.Int64("donations_counted", referenced))
		return helper.NewConflict("project has donations and cannot be deleted")
	}
	return nil
}

var errProjectReferenced = errors.New("project is referenced by donations")

func branchExists(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	var n int64
	if err := tx.WithContext(ctx).Model(&branchModel.Branch{}).Where("branch_id = ?", id).Count(&n).Error; err != nil {
		return fmt.Errorf("check branch: %w", err)
	}
	if n == 0 {
		return helper.NewValidationError("branch_id", "branch not found")
	}
	return nil
}

// wrap passes AppErrors through and turns anything else into an internal error.
func wrap(err error) error {
	var ae *helper.AppError
	if errors.As(err, &ae) {
		return ae
	}
	return helper.NewInternal("project write failed", err)
}
