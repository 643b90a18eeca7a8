package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"churchhub_backend/internals/features/donations/donations/model"
	"churchhub_backend/internals/features/donations/gateway"
	eventModel "churchhub_backend/internals/features/donations/gateway_events/model"
	helper "churchhub_backend/internals/helpers"
)

// WebhookDelivery is one inbound gateway callback exactly as received.
type WebhookDelivery struct {
	Body      []byte
	Signature string
	Headers   map[string]string
}

// HandleWebhook authenticates the raw body, then applies PENDING -> SUCCESS at most once.
// A nil error means the delivery must be acknowledged, including duplicates and ignored events.
func (s *DonationService) HandleWebhook(ctx context.Context, in WebhookDelivery) (err error) {
	ev := &eventModel.GatewayEvent{
		GatewayEventProvider: s.Gateway.Provider(),
		GatewayEventStatus:   eventModel.GatewayEventReceived,
	}
	if in.Signature != "" {
		sig := in.Signature
		ev.GatewayEventSignature = &sig
	}
	if len(in.Headers) > 0 {
		if b, mErr := sonic.Marshal(in.Headers); mErr == nil {
			ev.GatewayEventHeaders = datatypes.JSON(b)
		}
	}
	if sonic.Valid(in.Body) {
		ev.GatewayEventPayload = datatypes.JSON(in.Body)
	}
	defer func() { s.recordEvent(ctx, ev, err) }()

	if !s.Gateway.VerifySignature(in.Body, in.Signature) {
		ev.GatewayEventStatus = eventModel.GatewayEventRejected
		s.Log.Warn("webhook signature mismatch", zap.String("provider", s.Gateway.Provider()))
		return helper.NewAuthError("invalid signature")
	}

	parsed, pErr := s.Gateway.ParseEvent(in.Body)
	if pErr != nil {
		ev.GatewayEventStatus = eventModel.GatewayEventRejected
		return &helper.AppError{Kind: helper.KindValidation, Field: "payload", Message: "malformed event payload", Err: pErr}
	}
	if parsed.Type != "" {
		ev.GatewayEventType = &parsed.Type
	}
	if parsed.Reference != "" {
		ev.GatewayEventReference = &parsed.Reference
	}

	if !parsed.Success {
		ev.GatewayEventStatus = eventModel.GatewayEventIgnored
		s.Log.Info("webhook event ignored", zap.String("event", parsed.Type), zap.String("reference", parsed.Reference))
		return nil
	}

	donationID, idErr := uuid.Parse(parsed.DonationID)
	if parsed.DonationID == "" || idErr != nil {
		ev.GatewayEventStatus = eventModel.GatewayEventRejected
		return helper.NewValidationError("metadata.donationId", "event metadata carries no donation id")
	}
	ev.GatewayEventDonationID = &donationID

	applied, cErr := s.confirm(ctx, donationID, parsed, in.Body)
	if cErr != nil {
		if helper.IsKind(cErr, helper.KindNotFound) {
			ev.GatewayEventStatus = eventModel.GatewayEventRejected
		} else {
			ev.GatewayEventStatus = eventModel.GatewayEventFailed
		}
		return cErr
	}
	if !applied {
		ev.GatewayEventStatus = eventModel.GatewayEventIgnored
		s.Log.Info("webhook duplicate, donation already settled", zap.String("donation_id", donationID.String()))
		return nil
	}
	ev.GatewayEventStatus = eventModel.GatewayEventProcessed
	return nil
}

// confirm is the single conditional write of the webhook path. It reports false
// when the donation exists but is no longer PENDING.
func (s *DonationService) confirm(ctx context.Context, donationID uuid.UUID, ev *gateway.Event, raw []byte) (bool, error) {
	applied := false
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]any{
			"donation_status":  model.StatusSuccess,
			"donation_meta":    datatypes.JSON(raw),
			"donation_paid_at": time.Now(),
		}
		if ev.ProviderRef != "" {
			updates["donation_provider_ref"] = ev.ProviderRef
		}
		if ev.AuthorizationCode != "" {
			updates["donation_authorization_code"] = ev.AuthorizationCode
		}

		res := tx.Model(&model.Donation{}).
			Where("donation_id = ? AND donation_status = ?", donationID, model.StatusPending).
			Updates(updates)
		if res.Error != nil {
			return fmt.Errorf("confirm donation: %w", res.Error)
		}

		var d model.Donation
		if err := tx.First(&d, "donation_id = ?", donationID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return helper.NewNotFound("donation not found")
			}
			return fmt.Errorf("load donation: %w", err)
		}
		if res.RowsAffected == 0 {
			return nil
		}
		applied = true
		s.warnOnMismatch(&d, ev)
		return RecomputeForDonation(ctx, tx, &d)
	})
	if err != nil {
		return false, internal("confirm donation", err)
	}
	return applied, nil
}

func (s *DonationService) warnOnMismatch(d *model.Donation, ev *gateway.Event) {
	if ev.Reference != "" && ev.Reference != d.DonationReference {
		s.Log.Warn("webhook reference differs from donation",
			zap.String("donation_id", d.DonationID.String()),
			zap.String("donation_reference", d.DonationReference),
			zap.String("event_reference", ev.Reference),
		)
	}
	if ev.AmountMinor > 0 {
		paid := gateway.FromMinorUnits(ev.AmountMinor, s.Gateway.MinorUnitFactor())
		if !paid.Equal(d.DonationAmount) {
			s.Log.Warn("webhook amount differs from donation",
				zap.String("donation_id", d.DonationID.String()),
				zap.String("expected", d.DonationAmount.String()),
				zap.String("paid", paid.String()),
			)
		}
	}
}

// recordEvent stores the delivery outside the status transaction so audit rows
// survive a rolled-back confirmation.
func (s *DonationService) recordEvent(ctx context.Context, ev *eventModel.GatewayEvent, cause error) {
	if cause != nil {
		msg := cause.Error()
		ev.GatewayEventError = &msg
	}
	if ev.GatewayEventStatus == eventModel.GatewayEventProcessed || ev.GatewayEventStatus == eventModel.GatewayEventIgnored {
		now := time.Now()
		ev.GatewayEventProcessedAt = &now
	}
	if err := s.DB.WithContext(context.WithoutCancel(ctx)).Create(ev).Error; err != nil {
		s.Log.Error("record gateway event failed", zap.Error(err))
	}
}
