package controller

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"churchhub_backend/internals/features/donations/gateway_events/model"
	helper "churchhub_backend/internals/helpers"
)

type GatewayEventController struct {
	DB *gorm.DB
}

func NewGatewayEventController(db *gorm.DB) *GatewayEventController {
	return &GatewayEventController{DB: db}
}

var validEventStatus = map[model.GatewayEventStatus]struct{}{
	model.GatewayEventReceived:  {},
	model.GatewayEventProcessed: {},
	model.GatewayEventIgnored:   {},
	model.GatewayEventRejected:  {},
	model.GatewayEventFailed:    {},
}

// GET /api/admin/gateway-events?status=&reference=&page=&per_page=
func (h *GatewayEventController) List(c *fiber.Ctx) error {
	db := h.DB.WithContext(c.UserContext()).Model(&model.GatewayEvent{})

	if raw := strings.ToLower(strings.TrimSpace(c.Query("status"))); raw != "" {
		st := model.GatewayEventStatus(raw)
		if _, ok := validEventStatus[st]; !ok {
			return helper.NewValidationError("status", "must be one of [received processed ignored rejected failed]")
		}
		db = db.Where("gateway_event_status = ?", st)
	}
	if ref := strings.TrimSpace(c.Query("reference")); ref != "" {
		db = db.Where("gateway_event_reference = ?", ref)
	}
	base := db.Session(&gorm.Session{})

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return helper.NewInternal("count gateway events", err)
	}

	p := helper.ParseFiber(c, helper.AdminOpts)
	var rows []model.GatewayEvent
	if err := base.Order("gateway_event_received_at DESC").
		Limit(p.Limit()).Offset(p.Offset()).
		Find(&rows).Error; err != nil {
		return helper.NewInternal("list gateway events", err)
	}
	return helper.JsonList(c, "ok", rows, helper.BuildMeta(total, p))
}
