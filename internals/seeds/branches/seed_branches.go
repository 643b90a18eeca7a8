package branches

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/bytedance/sonic"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	branchModel "churchhub_backend/internals/features/branches/model"
	donationService "churchhub_backend/internals/features/donations/donations/service"
	projectModel "churchhub_backend/internals/features/projects/model"
	helper "churchhub_backend/internals/helpers"
)

type ProjectSeed struct {
	Title        string          `json:"title"`
	Description  *string         `json:"description"`
	TargetAmount decimal.Decimal `json:"target_amount"`
	IsActive     *bool           `json:"is_active"`
}

type BranchSeed struct {
	Name     string        `json:"name"`
	City     *string       `json:"city"`
	Projects []ProjectSeed `json:"projects"`
}

// Result counts what a seed run inserted.
type Result struct {
	Branches int
	Projects int
}

// SeedBranchesFromJSON inserts branches (matched by slug) and their projects
// (matched by title within the branch). Existing rows are left untouched.
func SeedBranchesFromJSON(ctx context.Context, db *gorm.DB, filePath string) (Result, error) {
	zap.L().Info("reading seed file", zap.String("path", filePath))

	file, err := os.ReadFile(filePath)
	if err != nil {
		return Result{}, fmt.Errorf("read seed file: %w", err)
	}
	var seeds []BranchSeed
	if err := sonic.Unmarshal(file, &seeds); err != nil {
		return Result{}, fmt.Errorf("decode seed file: %w", err)
	}
	return SeedBranches(ctx, db, seeds)
}

func SeedBranches(ctx context.Context, db *gorm.DB, seeds []BranchSeed) (Result, error) {
	var res Result
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, s := range seeds {
			slug := helper.Slugify(s.Name, 120)
			if slug == "" {
				return fmt.Errorf("branch %q has no usable name", s.Name)
			}

			var b branchModel.Branch
			err := tx.Where("branch_slug = ?", slug).First(&b).Error
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				b = branchModel.Branch{BranchName: s.Name, BranchSlug: slug, BranchCity: s.City}
				if err := tx.Create(&b).Error; err != nil {
					return fmt.Errorf("create branch %s: %w", slug, err)
				}
				res.Branches++
			case err != nil:
				return fmt.Errorf("load branch %s: %w", slug, err)
			default:
				zap.L().Info("branch exists, skipped", zap.String("slug", slug))
			}

			for _, ps := range s.Projects {
				var n int64
				if err := tx.Model(&projectModel.Project{}).
					Where("project_branch_id = ? AND project_title = ?", b.BranchID, ps.Title).
					Count(&n).Error; err != nil {
					return fmt.Errorf("check project %q: %w", ps.Title, err)
				}
				if n > 0 {
					continue
				}
				p := projectModel.Project{
					ProjectTitle:        ps.Title,
					ProjectDescription:  ps.Description,
					ProjectBranchID:     b.BranchID,
					ProjectTargetAmount: ps.TargetAmount,
					ProjectIsActive:     ps.IsActive == nil || *ps.IsActive,
				}
				if err := tx.Create(&p).Error; err != nil {
					return fmt.Errorf("create project %q: %w", ps.Title, err)
				}
				res.Projects++
			}

			if _, err := donationService.RecomputeBranchTotal(ctx, tx, &b.BranchID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return Result{}, err
	}
	zap.L().Info("seed finished", zap.Int("branches", res.Branches), zap.Int("projects", res.Projects))
	return res, nil
}
