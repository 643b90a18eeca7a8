package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	branchModel "churchhub_backend/internals/features/branches/model"
	"churchhub_backend/internals/features/donations/donations/model"
	projectModel "churchhub_backend/internals/features/projects/model"
)

/*
  Project and branch collected amounts are caches. They are always rebuilt
  from SUCCESS donations, never incremented, so every call is safe to repeat.
  Callers pass the transaction that changed the underlying rows.
*/

type sumRow struct {
	Total decimal.Decimal
}

// RecomputeProjectTotal writes SUM(amount) of the project's SUCCESS donations.
func RecomputeProjectTotal(ctx context.Context, tx *gorm.DB, projectID uuid.UUID) (decimal.Decimal, error) {
	var row sumRow
	if err := tx.WithContext(ctx).
		Model(&model.Donation{}).
		Select("COALESCE(SUM(donation_amount), 0) AS total").
		Where("donation_project_id = ? AND donation_status = ?", projectID, model.StatusSuccess).
		Scan(&row).Error; err != nil {
		return decimal.Zero, fmt.Errorf("sum project donations: %w", err)
	}

	if err := tx.WithContext(ctx).
		Model(&projectModel.Project{}).
		Where("project_id = ?", projectID).
		Update("project_collected_amount", row.Total).Error; err != nil {
		return decimal.Zero, fmt.Errorf("update project total: %w", err)
	}
	return row.Total, nil
}

// RecomputeBranchTotal writes SUM(project_collected_amount) over the branch's projects.
// A nil branch is a no-op returning zero.
func RecomputeBranchTotal(ctx context.Context, tx *gorm.DB, branchID *uuid.UUID) (decimal.Decimal, error) {
	if branchID == nil || *branchID == uuid.Nil {
		return decimal.Zero, nil
	}

	var row sumRow
	if err := tx.WithContext(ctx).
		Model(&projectModel.Project{}).
		Select("COALESCE(SUM(project_collected_amount), 0) AS total").
		Where("project_branch_id = ?", *branchID).
		Scan(&row).Error; err != nil {
		return decimal.Zero, fmt.Errorf("sum branch projects: %w", err)
	}

	if err := tx.WithContext(ctx).
		Model(&branchModel.Branch{}).
		Where("branch_id = ?", *branchID).
		Update("branch_collected_amount", row.Total).Error; err != nil {
		return decimal.Zero, fmt.Errorf("update branch total: %w", err)
	}
	return row.Total, nil
}

// RecomputeForDonation refreshes the donation's project and the branch that owns it.
// The project's current branch wins over the branch recorded on the donation.
func RecomputeForDonation(ctx context.Context, tx *gorm.DB, d *model.Donation) error {
	branchID := d.DonationBranchID

	if d.DonationProjectID != nil {
		if _, err := RecomputeProjectTotal(ctx, tx, *d.DonationProjectID); err != nil {
			return err
		}
		var p projectModel.Project
		err := tx.WithContext(ctx).
			Select("project_id", "project_branch_id").
			First(&p, "project_id = ?", *d.DonationProjectID).Error
		switch {
		case err == nil:
			branchID = p.ProjectBranchID
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return fmt.Errorf("load donation project: %w", err)
		}
	}

	_, err := RecomputeBranchTotal(ctx, tx, &branchID)
	return err
}

// RecomputeProjectAndBranches refreshes a project and every branch it touched.
// Used after a project is created, edited, reassigned or before it is deleted.
func RecomputeProjectAndBranches(ctx context.Context, tx *gorm.DB, projectID uuid.UUID, branchIDs ...uuid.UUID) error {
	if _, err := RecomputeProjectTotal(ctx, tx, projectID); err != nil {
		return err
	}
	seen := make(map[uuid.UUID]struct{}, len(branchIDs))
	for _, id := range branchIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		id := id
		if _, err := RecomputeBranchTotal(ctx, tx, &id); err != nil {
			return err
		}
	}
	return nil
}
