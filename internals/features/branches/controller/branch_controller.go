package controller

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"churchhub_backend/internals/features/branches/dto"
	"churchhub_backend/internals/features/branches/model"
	helper "churchhub_backend/internals/helpers"
)

type BranchController struct {
	DB *gorm.DB
}

func NewBranchController(db *gorm.DB) *BranchController {
	return &BranchController{DB: db}
}

// GET /api/admin/branches
func (h *BranchController) List(c *fiber.Ctx) error {
	var rows []dto.BranchStatsRow
	if err := h.DB.WithContext(c.UserContext()).
		Table("branches AS b").
		Select(`b.*,
			COUNT(d.donation_id) AS donations_count,
			COALESCE(SUM(CASE WHEN d.donation_status = 'SUCCESS' THEN d.donation_amount ELSE 0 END), 0) AS donations_total`).
		Joins("LEFT JOIN donations d ON d.donation_branch_id = b.branch_id").
		Group("b.branch_id").
		Order("b.branch_name ASC").
		Scan(&rows).Error; err != nil {
		return helper.NewInternal("list branches", err)
	}
	return helper.JsonOK(c, "ok", dto.FromStatsRows(rows))
}

// GET /api/public/branches
func (h *BranchController) PublicList(c *fiber.Ctx) error {
	var list []model.Branch
	if err := h.DB.WithContext(c.UserContext()).
		Order("branch_name ASC").
		Find(&list).Error; err != nil {
		return helper.NewInternal("list branches", err)
	}
	return helper.JsonOK(c, "ok", dto.FromModels(list))
}

// POST /api/admin/branches
func (h *BranchController) Create(c *fiber.Ctx) error {
	var req dto.CreateBranchRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.NewValidationError("body", "invalid json body")
	}
	req.Normalize()
	if err := helper.Validate.Struct(req); err != nil {
		return err
	}

	source := req.Name
	if req.Slug != nil {
		source = *req.Slug
	}
	slug, err := h.ensureSlug(c, source, nil)
	if err != nil {
		return err
	}

	b := model.Branch{BranchName: req.Name, BranchSlug: slug, BranchCity: req.City}
	if err := h.DB.WithContext(c.UserContext()).Create(&b).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return helper.NewConflict("branch slug already exists")
		}
		return helper.NewInternal("create branch", err)
	}
	return helper.JsonCreated(c, "branch created", dto.FromModel(&b))
}

// PUT /api/admin/branches/:id
// The slug is regenerated from a new name only when no slug is given.
func (h *BranchController) Update(c *fiber.Ctx) error {
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return err
	}
	var req dto.UpdateBranchRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.NewValidationError("body", "invalid json body")
	}
	req.Normalize()
	if err := helper.Validate.Struct(req); err != nil {
		return err
	}

	var b model.Branch
	if err := h.DB.WithContext(c.UserContext()).First(&b, "branch_id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return helper.NewNotFound("branch not found")
		}
		return helper.NewInternal("load branch", err)
	}

	if req.Name != nil {
		if *req.Name == "" {
			return helper.NewValidationError("name", "is required")
		}
		b.BranchName = *req.Name
	}
	switch {
	case req.Slug != nil:
		if b.BranchSlug, err = h.ensureSlug(c, *req.Slug, &id); err != nil {
			return err
		}
	case req.Name != nil:
		if b.BranchSlug, err = h.ensureSlug(c, *req.Name, &id); err != nil {
			return err
		}
	}
	if req.City != nil {
		if *req.City == "" {
			b.BranchCity = nil
		} else {
			b.BranchCity = req.City
		}
	}

	if err := h.DB.WithContext(c.UserContext()).
		Model(&b).
		Select("branch_name", "branch_slug", "branch_city", "updated_at").
		Updates(&b).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return helper.NewConflict("branch slug already exists")
		}
		return helper.NewInternal("update branch", err)
	}
	return helper.JsonUpdated(c, "branch updated", dto.FromModel(&b))
}

// ensureSlug slugifies source and rejects slugs owned by another branch.
func (h *BranchController) ensureSlug(c *fiber.Ctx, source string, exclude *uuid.UUID) (string, error) {
	slug := helper.Slugify(source, 120)
	if slug == "" {
		return "", helper.NewValidationError("slug", "must contain letters or digits")
	}
	var excludeID any
	if exclude != nil {
		excludeID = *exclude
	}
	taken, err := helper.SlugTaken(c.UserContext(), h.DB, "branches", "branch_slug", slug, "branch_id", excludeID)
	if err != nil {
		return "", helper.NewInternal("check slug", err)
	}
	if taken {
		return "", helper.NewConflict("branch slug already exists")
	}
	return slug, nil
}
