package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"churchhub_backend/internals/databases/dbtest"
	branchModel "churchhub_backend/internals/features/branches/model"
	donationModel "churchhub_backend/internals/features/donations/donations/model"
	"churchhub_backend/internals/features/projects/model"
	helper "churchhub_backend/internals/helpers"
)

func seedProject(t *testing.T, db *gorm.DB) (branchModel.Branch, model.Project) {
	t.Helper()
	b := branchModel.Branch{BranchName: "Lekki", BranchSlug: "lekki"}
	if err := db.Create(&b).Error; err != nil {
		t.Fatalf("seed branch: %v", err)
	}
	p := model.Project{
		ProjectTitle:        "New Roof",
		ProjectBranchID:     b.BranchID,
		ProjectTargetAmount: decimal.NewFromInt(100000),
		ProjectIsActive:     true,
	}
	if err := db.Create(&p).Error; err != nil {
		t.Fatalf("seed project: %v", err)
	}
	return b, p
}

func donationFor(b branchModel.Branch, p model.Project, ref string, status donationModel.DonationStatus) donationModel.Donation {
	return donationModel.Donation{
		DonationReference:  ref,
		DonationDonorEmail: "ada@example.com",
		DonationBranchID:   b.BranchID,
		DonationProjectID:  &p.ProjectID,
		DonationPurpose:    "building fund",
		DonationAmount:     decimal.NewFromInt(2500),
		DonationCurrency:   "NGN",
		DonationStatus:     status,
		DonationProvider:   "paystack",
	}
}

func TestDeleteUnreferencedProject(t *testing.T) {
	db := dbtest.Open(t)
	b, p := seedProject(t, db)

	if err := NewProjectService(db).Delete(context.Background(), p.ProjectID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	var n int64
	db.Model(&model.Project{}).Where("project_id = ?", p.ProjectID).Count(&n)
	if n != 0 {
		t.Fatal("project still present")
	}
	var branch branchModel.Branch
	if err := db.First(&branch, "branch_id = ?", b.BranchID).Error; err != nil {
		t.Fatal(err)
	}
	if !branch.BranchCollectedAmount.IsZero() {
		t.Fatalf("branch total = %s", branch.BranchCollectedAmount)
	}
}

func TestDeleteReferencedProjectConflicts(t *testing.T) {
	db := dbtest.Open(t)
	b, p := seedProject(t, db)
	d := donationFor(b, p, "don_paid", donationModel.StatusSuccess)
	if err := db.Create(&d).Error; err != nil {
		t.Fatal(err)
	}

	err := NewProjectService(db).Delete(context.Background(), p.ProjectID)
	if !helper.IsKind(err, helper.KindConflict) {
		t.Fatalf("err = %v, want conflict", err)
	}
	var stored model.Project
	if err := db.First(&stored, "project_id = ?", p.ProjectID).Error; err != nil {
		t.Fatalf("project gone: %v", err)
	}
	if !stored.ProjectCollectedAmount.Equal(decimal.NewFromInt(2500)) {
		t.Fatalf("collected = %s, totals were not refreshed", stored.ProjectCollectedAmount)
	}
}

// A donation committed after the reference count must still block the delete.
func TestDeleteRefusesDonationArrivingAfterCount(t *testing.T) {
	db := dbtest.Open(t)
	b, p := seedProject(t, db)

	var once sync.Once
	err := db.Callback().Delete().Before("gorm:delete").Register("test:late_donation", func(tx *gorm.DB) {
		if tx.Statement.Table != "projects" {
			return
		}
		once.Do(func() {
			late := donationFor(b, p, "don_late", donationModel.StatusPending)
			if err := tx.Session(&gorm.Session{NewDB: true}).Create(&late).Error; err != nil {
				tx.AddError(err)
			}
		})
	})
	if err != nil {
		t.Fatal(err)
	}

	err = NewProjectService(db).Delete(context.Background(), p.ProjectID)
	if !helper.IsKind(err, helper.KindConflict) {
		t.Fatalf("err = %v, want conflict", err)
	}

	var n int64
	db.Model(&model.Project{}).Where("project_id = ?", p.ProjectID).Count(&n)
	if n != 1 {
		t.Fatal("project was deleted")
	}
	var orphans int64
	db.Table("donations AS d").
		Joins("LEFT JOIN projects p ON p.project_id = d.donation_project_id").
		Where("d.donation_project_id IS NOT NULL AND p.project_id IS NULL").
		Count(&orphans)
	if orphans != 0 {
		t.Fatalf("%d donations reference a missing project", orphans)
	}
}

func TestForeignKeysRejectOrphanDonation(t *testing.T) {
	db := dbtest.Open(t)
	b, p := seedProject(t, db)
	if err := db.Delete(&model.Project{}, "project_id = ?", p.ProjectID).Error; err != nil {
		t.Fatal(err)
	}

	d := donationFor(b, p, "don_orphan", donationModel.StatusPending)
	if err := db.Create(&d).Error; !errors.Is(err, gorm.ErrForeignKeyViolated) {
		t.Fatalf("err = %v, want foreign key violation", err)
	}
}
