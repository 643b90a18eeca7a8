package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"churchhub_backend/internals/features/donations/donations/dto"
	"churchhub_backend/internals/features/donations/donations/model"
	"churchhub_backend/internals/features/donations/gateway"
	helper "churchhub_backend/internals/helpers"
)

// Verify asks the gateway for the outcome of reference and applies it to every
// donation carrying that reference. Regressing SUCCESS to FAILED needs force,
// which only the admin endpoint and the reconcile command pass.
// A gateway still reporting pending leaves the donations untouched.
func (s *DonationService) Verify(ctx context.Context, reference string, force bool) (*dto.VerifyResponse, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, helper.NewValidationError("reference", "reference is required")
	}

	var current model.Donation
	if err := s.DB.WithContext(ctx).
		Select("donation_id", "donation_status").
		Where("donation_reference = ?", reference).
		Take(&current).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, helper.NewNotFound("no donation with this reference")
		}
		return nil, helper.NewInternal("load donation", err)
	}

	v, err, _ := s.verifyGroup.Do(reference, func() (any, error) {
		return s.Gateway.Verify(ctx, reference)
	})
	if err != nil {
		s.Log.Warn("payment verification failed", zap.String("reference", reference), zap.Error(err))
		return nil, helper.NewUpstream("payment verification failed", err)
	}
	res := v.(*gateway.VerifyResult)

	data := dto.VerifyData{
		Reference:     reference,
		Status:        current.DonationStatus,
		GatewayStatus: res.GatewayStatus,
		ProviderRef:   res.ProviderRef,
		Gateway:       res.Raw,
	}

	var target model.DonationStatus
	switch res.Status {
	case gateway.VerifySuccess:
		target = model.StatusSuccess
	case gateway.VerifyFailed:
		target = model.StatusFailed
	default:
		return &dto.VerifyResponse{Verified: false, Data: data}, nil
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ds []model.Donation
		if err := tx.Where("donation_reference = ?", reference).Find(&ds).Error; err != nil {
			return fmt.Errorf("load donations: %w", err)
		}
		now := time.Now()
		for i := range ds {
			d := &ds[i]
			from := d.DonationStatus
			if !model.CanTransition(from, target, force) {
				data.Refused++
				data.Status = from
				s.Log.Warn("verify refused status regression",
					zap.String("reference", reference),
					zap.String("donation_id", d.DonationID.String()),
					zap.String("from", string(from)),
					zap.String("to", string(target)),
				)
				continue
			}

			updates := map[string]any{"donation_status": target}
			if res.ProviderRef != "" {
				updates["donation_provider_ref"] = res.ProviderRef
			}
			if target == model.StatusSuccess && d.DonationPaidAt == nil {
				updates["donation_paid_at"] = now
			}
			if err := tx.Model(&model.Donation{}).
				Where("donation_id = ?", d.DonationID).
				Updates(updates).Error; err != nil {
				return fmt.Errorf("update donation: %w", err)
			}
			if from == model.StatusSuccess && target == model.StatusFailed {
				s.Log.Warn("donation regressed by operator override",
					zap.String("reference", reference),
					zap.String("donation_id", d.DonationID.String()),
				)
			}

			d.DonationStatus = target
			if err := RecomputeForDonation(ctx, tx, d); err != nil {
				return err
			}
			data.Updated++
			data.Status = target
		}
		return nil
	})
	if err != nil {
		return nil, internal("apply verification", err)
	}

	return &dto.VerifyResponse{
		Verified: res.Status == gateway.VerifySuccess,
		Data:     data,
	}, nil
}
