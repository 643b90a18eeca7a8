package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	branchModel "churchhub_backend/internals/features/branches/model"
	"churchhub_backend/internals/features/donations/donations/dto"
	"churchhub_backend/internals/features/donations/donations/model"
	projectModel "churchhub_backend/internals/features/projects/model"
	"churchhub_backend/internals/helpers/dbtime"
)

const (
	recentDonationLimit = 5
	recentProjectLimit  = 3
	recentActivityLimit = 8
)

type recentDonationRow struct {
	DonationDonorName  *string
	DonationDonorEmail string
	DonationPurpose    string
	DonationAmount     decimal.Decimal
	BranchName         string
	ProjectTitle       *string
	CreatedAt          time.Time
}

type recentProjectRow struct {
	ProjectTitle        string
	ProjectTargetAmount decimal.Decimal
	BranchName          string
	CreatedAt           time.Time
}

// Dashboard gathers admin overview numbers. The current month is taken in loc.
func Dashboard(ctx context.Context, db *gorm.DB, now time.Time, loc *time.Location) (*dto.DashboardResponse, error) {
	monthStart := dbtime.MonthStart(now, loc)

	var (
		total, monthly sumRow
		branches       int64
		projects       int64
		donations      []recentDonationRow
		recentProjects []recentProjectRow
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return db.WithContext(gctx).Model(&model.Donation{}).
			Select("COALESCE(SUM(donation_amount), 0) AS total").
			Where("donation_status = ?", model.StatusSuccess).
			Scan(&total).Error
	})
	g.Go(func() error {
		return db.WithContext(gctx).Model(&model.Donation{}).
			Select("COALESCE(SUM(donation_amount), 0) AS total").
			Where("donation_status = ? AND created_at >= ?", model.StatusSuccess, monthStart).
			Scan(&monthly).Error
	})
	g.Go(func() error {
		return db.WithContext(gctx).Model(&branchModel.Branch{}).Count(&branches).Error
	})
	g.Go(func() error {
		return db.WithContext(gctx).Model(&projectModel.Project{}).Count(&projects).Error
	})
	g.Go(func() error {
		return db.WithContext(gctx).Table("donations AS d").
			Select(`d.donation_donor_name, d.donation_donor_email, d.donation_purpose,
				d.donation_amount, d.created_at, b.branch_name, p.project_title`).
			Joins("JOIN branches b ON b.branch_id = d.donation_branch_id").
			Joins("LEFT JOIN projects p ON p.project_id = d.donation_project_id").
			Where("d.donation_status = ?", model.StatusSuccess).
			Order("d.created_at DESC").
			Limit(recentDonationLimit).
			Scan(&donations).Error
	})
	g.Go(func() error {
		return db.WithContext(gctx).Table("projects AS p").
			Select("p.project_title, p.project_target_amount, p.created_at, b.branch_name").
			Joins("JOIN branches b ON b.branch_id = p.project_branch_id").
			Order("p.created_at DESC").
			Limit(recentProjectLimit).
			Scan(&recentProjects).Error
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("dashboard: %w", err)
	}

	activities := make([]dto.DashboardActivity, 0, len(donations)+len(recentProjects))
	for _, d := range donations {
		actor := d.DonationDonorEmail
		if d.DonationDonorName != nil && *d.DonationDonorName != "" {
			actor = *d.DonationDonorName
		}
		title := d.DonationPurpose
		if d.ProjectTitle != nil {
			title = *d.ProjectTitle
		}
		activities = append(activities, dto.DashboardActivity{
			Kind:      "donation",
			Title:     title,
			Actor:     actor,
			Amount:    d.DonationAmount,
			Branch:    d.BranchName,
			CreatedAt: d.CreatedAt,
		})
	}
	for _, p := range recentProjects {
		activities = append(activities, dto.DashboardActivity{
			Kind:      "project",
			Title:     p.ProjectTitle,
			Actor:     "admin",
			Amount:    p.ProjectTargetAmount,
			Branch:    p.BranchName,
			CreatedAt: p.CreatedAt,
		})
	}
	sort.SliceStable(activities, func(i, j int) bool {
		return activities[i].CreatedAt.After(activities[j].CreatedAt)
	})
	if len(activities) > recentActivityLimit {
		activities = activities[:recentActivityLimit]
	}

	return &dto.DashboardResponse{
		TotalDonations:   total.Total,
		MonthlyDonations: monthly.Total,
		TotalBranches:    branches,
		TotalProjects:    projects,
		RecentActivities: activities,
	}, nil
}
