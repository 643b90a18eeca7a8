package controller

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"churchhub_backend/internals/features/projects/dto"
	"churchhub_backend/internals/features/projects/service"
	helper "churchhub_backend/internals/helpers"
)

type ProjectController struct {
	Svc *service.ProjectService
}

func NewProjectController(svc *service.ProjectService) *ProjectController {
	return &ProjectController{Svc: svc}
}

func branchFilter(c *fiber.Ctx) (*uuid.UUID, error) {
	raw := strings.TrimSpace(c.Query("branch_id"))
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, helper.NewValidationError("branch_id", "must be a valid uuid")
	}
	return &id, nil
}

// GET /api/admin/projects?branch_id=
func (h *ProjectController) List(c *fiber.Ctx) error {
	branchID, err := branchFilter(c)
	if err != nil {
		return err
	}
	list, err := h.Svc.List(c.UserContext(), branchID, false)
	if err != nil {
		return err
	}
	return helper.JsonOK(c, "ok", dto.FromModels(list))
}

// GET /api/public/projects?branch_id=
func (h *ProjectController) PublicList(c *fiber.Ctx) error {
	branchID, err := branchFilter(c)
	if err != nil {
		return err
	}
	list, err := h.Svc.List(c.UserContext(), branchID, true)
	if err != nil {
		return err
	}
	return helper.JsonOK(c, "ok", dto.FromModels(list))
}

// POST /api/admin/projects
func (h *ProjectController) Create(c *fiber.Ctx) error {
	var req dto.CreateProjectRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.NewValidationError("body", "invalid json body")
	}
	p, err := h.Svc.Create(c.UserContext(), req)
	if err != nil {
		return err
	}
	return helper.JsonCreated(c, "project created", dto.FromModel(p))
}

// PUT /api/admin/projects/:id
func (h *ProjectController) Update(c *fiber.Ctx) error {
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return err
	}
	var req dto.UpdateProjectRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.NewValidationError("body", "invalid json body")
	}
	p, err := h.Svc.Update(c.UserContext(), id, req)
	if err != nil {
		return err
	}
	return helper.JsonUpdated(c, "project updated", dto.FromModel(p))
}

// DELETE /api/admin/projects/:id
func (h *ProjectController) Delete(c *fiber.Ctx) error {
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return err
	}
	if err := h.Svc.Delete(c.UserContext(), id); err != nil {
		return err
	}
	return helper.JsonDeleted(c, "project deleted", fiber.Map{"project_id": id})
}
