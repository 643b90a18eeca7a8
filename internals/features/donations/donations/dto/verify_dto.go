package dto

import (
	"churchhub_backend/internals/features/donations/donations/model"
)

// POST /api/payments/verify
type VerifyRequest struct {
	Reference string `json:"reference" validate:"required,max=64"`
}

// POST /api/admin/donations/verify
type AdminVerifyRequest struct {
	Reference string `json:"reference" validate:"required,max=64"`
	Force     bool   `json:"force"`
}

type VerifyData struct {
	Reference     string               `json:"reference"`
	Status        model.DonationStatus `json:"status"`
	GatewayStatus string               `json:"gateway_status"`
	ProviderRef   string               `json:"provider_ref,omitempty"`
	Updated       int                  `json:"updated"`
	// Donations left untouched because the transition needs an operator override.
	Refused int            `json:"refused,omitempty"`
	Gateway map[string]any `json:"gateway,omitempty"`
}

type VerifyResponse struct {
	Verified bool       `json:"verified"`
	Data     VerifyData `json:"data"`
}

type WebhookResponse struct {
	Received bool `json:"received"`
}
