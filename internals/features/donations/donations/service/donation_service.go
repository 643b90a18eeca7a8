package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"

	"churchhub_backend/internals/configs"
	branchModel "churchhub_backend/internals/features/branches/model"
	"churchhub_backend/internals/features/donations/donations/dto"
	"churchhub_backend/internals/features/donations/donations/model"
	"churchhub_backend/internals/features/donations/gateway"
	projectModel "churchhub_backend/internals/features/projects/model"
	helper "churchhub_backend/internals/helpers"
)

const maxReferenceAttempts = 3

// DonationService owns every donation status change: checkout, webhook and verify.
type DonationService struct {
	DB      *gorm.DB
	Gateway gateway.Client
	Cfg     configs.PaymentConfig
	Log     *zap.Logger

	// NewReference is swappable so tests can force collisions.
	NewReference func() string

	verifyGroup singleflight.Group
}

func NewDonationService(db *gorm.DB, gw gateway.Client, cfg configs.PaymentConfig) *DonationService {
	return &DonationService{
		DB:           db,
		Gateway:      gw,
		Cfg:          cfg,
		Log:          zap.L().Named("donations"),
		NewReference: NewReference,
	}
}

// NewReference returns "don_" followed by 32 hex characters of a random UUID.
func NewReference() string {
	return "don_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Checkout persists a PENDING donation and asks the gateway for a payment page.
// A gateway failure leaves the PENDING row in place for later reconciliation.
func (s *DonationService) Checkout(ctx context.Context, req dto.CheckoutRequest) (*dto.CheckoutResponse, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	branchID := req.BranchUUID()
	var branch branchModel.Branch
	if err := s.DB.WithContext(ctx).Select("branch_id").First(&branch, "branch_id = ?", branchID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, helper.NewValidationError("branchId", "branch not found")
		}
		return nil, helper.NewInternal("load branch", err)
	}

	projectID := req.ProjectUUID()
	if projectID != nil {
		var p projectModel.Project
		if err := s.DB.WithContext(ctx).First(&p, "project_id = ?", *projectID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, helper.NewValidationError("projectId", "project not found")
			}
			return nil, helper.NewInternal("load project", err)
		}
		if p.ProjectBranchID != branchID {
			return nil, helper.NewValidationError("projectId", "project does not belong to this branch")
		}
		if !p.ProjectIsActive {
			return nil, helper.NewValidationError("projectId", "project is not accepting donations")
		}
	}

	currency := req.Currency
	if currency == "" {
		currency = s.Cfg.DefaultCurrency
	}

	d := &model.Donation{
		DonationDonorID:    req.DonorUUID(),
		DonationDonorEmail: req.Donor.Email,
		DonationDonorName:  req.Donor.Name,
		DonationDonorPhone: req.Donor.Phone,
		DonationBranchID:   branchID,
		DonationProjectID:  projectID,
		DonationPurpose:    req.Purpose,
		DonationNote:       req.Note,
		DonationAmount:     req.Amount,
		DonationCurrency:   currency,
		DonationStatus:     model.StatusPending,
		DonationProvider:   s.Gateway.Provider(),
	}
	if err := s.createWithUniqueReference(ctx, d); err != nil {
		return nil, err
	}

	meta := gateway.Metadata{
		DonationID: d.DonationID.String(),
		Purpose:    d.DonationPurpose,
		Recurring:  req.Recurring,
	}
	if d.DonationDonorID != nil {
		meta.DonorID = d.DonationDonorID.String()
	}
	var name, phone string
	if d.DonationDonorName != nil {
		name = *d.DonationDonorName
	}
	if d.DonationDonorPhone != nil {
		phone = *d.DonationDonorPhone
	}

	res, err := s.Gateway.Initialize(ctx, gateway.InitializeRequest{
		Reference:   d.DonationReference,
		Email:       d.DonationDonorEmail,
		Name:        name,
		Phone:       phone,
		AmountMinor: gateway.ToMinorUnits(d.DonationAmount, s.Gateway.MinorUnitFactor()),
		Currency:    currency,
		CallbackURL: s.Cfg.CallbackURL,
		Metadata:    meta,
	})
	if err != nil {
		s.Log.Warn("payment initialization failed",
			zap.String("reference", d.DonationReference),
			zap.String("donation_id", d.DonationID.String()),
			zap.Error(err),
		)
		return nil, helper.NewUpstream("payment initialization failed", err)
	}

	s.Log.Info("checkout started",
		zap.String("reference", d.DonationReference),
		zap.String("donation_id", d.DonationID.String()),
		zap.String("amount", d.DonationAmount.String()),
	)
	return &dto.CheckoutResponse{
		AuthorizationURL: res.AuthorizationURL,
		Reference:        d.DonationReference,
		DonationID:       d.DonationID,
	}, nil
}

func (s *DonationService) createWithUniqueReference(ctx context.Context, d *model.Donation) error {
	for attempt := 1; attempt <= maxReferenceAttempts; attempt++ {
		d.DonationReference = s.NewReference()
		err := s.DB.WithContext(ctx).Create(d).Error
		if err == nil {
			return nil
		}
		if errors.Is(err, gorm.ErrForeignKeyViolated) {
			if d.DonationProjectID != nil {
				return helper.NewValidationError("projectId", "project not found")
			}
			return helper.NewValidationError("branchId", "branch not found")
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return helper.NewInternal("create donation", err)
		}
		s.Log.Warn("donation reference collision", zap.Int("attempt", attempt))
	}
	return helper.NewConflict("could not allocate a unique donation reference")
}

// internal wraps anything that is not already an AppError.
func internal(msg string, err error) error {
	var ae *helper.AppError
	if errors.As(err, &ae) {
		return err
	}
	return helper.NewInternal(msg, err)
}
