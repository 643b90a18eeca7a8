package controller

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"churchhub_backend/internals/features/donations/donations/dto"
	"churchhub_backend/internals/features/donations/donations/service"
	helper "churchhub_backend/internals/helpers"
)

// PaymentController serves the public donation flow: checkout, webhook, verify.
type PaymentController struct {
	Svc *service.DonationService
}

func NewPaymentController(svc *service.DonationService) *PaymentController {
	return &PaymentController{Svc: svc}
}

// POST /api/payments/checkout
func (h *PaymentController) Checkout(c *fiber.Ctx) error {
	var req dto.CheckoutRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.NewValidationError("body", "invalid json body")
	}
	res, err := h.Svc.Checkout(c.UserContext(), req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(res)
}

// POST /api/payments/webhook
// The body is copied before use: fiber reuses the request buffer after the handler returns.
func (h *PaymentController) Webhook(c *fiber.Ctx) error {
	body := append([]byte(nil), c.Body()...)

	var signature string
	if name := h.Svc.Gateway.SignatureHeader(); name != "" {
		signature = strings.TrimSpace(c.Get(name))
	}

	headers := make(map[string]string)
	c.Request().Header.VisitAll(func(k, v []byte) {
		headers[string(k)] = string(v)
	})
	delete(headers, fiber.HeaderAuthorization)
	delete(headers, fiber.HeaderCookie)

	if err := h.Svc.HandleWebhook(c.UserContext(), service.WebhookDelivery{
		Body:      body,
		Signature: signature,
		Headers:   headers,
	}); err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(dto.WebhookResponse{Received: true})
}

// POST /api/payments/verify
func (h *PaymentController) Verify(c *fiber.Ctx) error {
	var req dto.VerifyRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.NewValidationError("body", "invalid json body")
	}
	req.Reference = strings.TrimSpace(req.Reference)
	if err := helper.Validate.Struct(req); err != nil {
		return err
	}
	res, err := h.Svc.Verify(c.UserContext(), req.Reference, false)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(res)
}
