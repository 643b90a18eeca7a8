package controller

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"churchhub_backend/internals/features/donations/donations/dto"
	"churchhub_backend/internals/features/donations/donations/model"
	"churchhub_backend/internals/features/donations/donations/service"
	helper "churchhub_backend/internals/helpers"
)

type DonationAdminController struct {
	DB  *gorm.DB
	Svc *service.DonationService
	Loc *time.Location
}

func NewDonationAdminController(db *gorm.DB, svc *service.DonationService, loc *time.Location) *DonationAdminController {
	return &DonationAdminController{DB: db, Svc: svc, Loc: loc}
}

const donationRowSelect = "d.*, b.branch_name AS branch_name, p.project_title AS project_title"

// joined returns donations with branch name and project title available for filters.
func (h *DonationAdminController) joined(c *fiber.Ctx) *gorm.DB {
	return h.DB.WithContext(c.UserContext()).
		Table("donations AS d").
		Joins("JOIN branches b ON b.branch_id = d.donation_branch_id").
		Joins("LEFT JOIN projects p ON p.project_id = d.donation_project_id")
}

// GET /api/admin/donations?status=&search=&page=&per_page=
func (h *DonationAdminController) List(c *fiber.Ctx) error {
	q := dto.DonationListQuery{Status: c.Query("status"), Search: c.Query("search")}
	q.Normalize()

	db := h.joined(c)
	if q.Status != "" {
		st := model.DonationStatus(q.Status)
		if !st.Valid() {
			return helper.NewValidationError("status", "must be one of [PENDING SUCCESS FAILED]")
		}
		db = db.Where("d.donation_status = ?", st)
	}
	if q.Search != "" {
		s := "%" + strings.ToLower(q.Search) + "%"
		db = db.Where(`
			LOWER(COALESCE(d.donation_donor_name, '')) LIKE ?
			OR LOWER(d.donation_donor_email) LIKE ?
			OR LOWER(d.donation_purpose) LIKE ?
			OR LOWER(b.branch_name) LIKE ?
			OR LOWER(COALESCE(p.project_title, '')) LIKE ?
		`, s, s, s, s, s)
	}
	base := db.Session(&gorm.Session{})

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return helper.NewInternal("count donations", err)
	}

	p := helper.ParseFiber(c, helper.AdminOpts)
	var rows []dto.DonationRow
	if err := base.Select(donationRowSelect).
		Order("d.created_at DESC").
		Limit(p.Limit()).Offset(p.Offset()).
		Scan(&rows).Error; err != nil {
		return helper.NewInternal("list donations", err)
	}
	return helper.JsonList(c, "ok", dto.FromRows(rows), helper.BuildMeta(total, p))
}

// GET /api/admin/donations/:id
func (h *DonationAdminController) Detail(c *fiber.Ctx) error {
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return err
	}
	var row dto.DonationRow
	res := h.joined(c).Select(donationRowSelect).Where("d.donation_id = ?", id).Limit(1).Scan(&row)
	if res.Error != nil {
		return helper.NewInternal("load donation", res.Error)
	}
	if res.RowsAffected == 0 {
		return helper.NewNotFound("donation not found")
	}
	return helper.JsonOK(c, "ok", dto.FromRow(&row))
}

// GET /api/admin/donations/export
func (h *DonationAdminController) Export(c *fiber.Ctx) error {
	var rows []dto.DonationRow
	if err := h.joined(c).Select(donationRowSelect).
		Order("d.created_at DESC").
		Scan(&rows).Error; err != nil {
		return helper.NewInternal("export donations", err)
	}
	c.Set(fiber.HeaderContentDisposition,
		`attachment; filename="donations-`+time.Now().UTC().Format("20060102")+`.json"`)
	return helper.JsonOK(c, "ok", dto.FromRows(rows))
}

// POST /api/admin/donations/verify
// Operator reconciliation. force=true allows SUCCESS -> FAILED.
func (h *DonationAdminController) Verify(c *fiber.Ctx) error {
	var req dto.AdminVerifyRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.NewValidationError("body", "invalid json body")
	}
	req.Reference = strings.TrimSpace(req.Reference)
	if err := helper.Validate.Struct(req); err != nil {
		return err
	}

	actor, _ := helper.CurrentUserID(c)
	h.Svc.Log.Info("admin verify",
		zap.String("reference", req.Reference),
		zap.Bool("force", req.Force),
		zap.String("actor", actor.String()),
		zap.String("request_id", helper.RequestID(c)),
	)

	res, err := h.Svc.Verify(c.UserContext(), req.Reference, req.Force)
	if err != nil {
		return err
	}
	return helper.JsonOK(c, "verification finished", res)
}

// GET /api/admin/dashboard
func (h *DonationAdminController) Dashboard(c *fiber.Ctx) error {
	res, err := service.Dashboard(c.UserContext(), h.DB, time.Now(), h.Loc)
	if err != nil {
		return helper.NewInternal("load dashboard", err)
	}
	return helper.JsonOK(c, "ok", res)
}
