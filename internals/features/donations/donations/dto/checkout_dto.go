package dto

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	helper "churchhub_backend/internals/helpers"
)

type DonorInput struct {
	ID    *string `json:"id" validate:"omitempty,uuid"`
	Email string  `json:"email" validate:"required,email,max=255"`
	Name  *string `json:"name" validate:"omitempty,max=120"`
	Phone *string `json:"phone" validate:"omitempty,max=40"`
}

// POST /api/payments/checkout
type CheckoutRequest struct {
	Purpose   string          `json:"purpose" validate:"required,max=80"`
	Amount    decimal.Decimal `json:"amount"`
	Donor     DonorInput      `json:"donor"`
	Currency  string          `json:"currency" validate:"omitempty,len=3,alpha"`
	BranchID  string          `json:"branchId" validate:"required,uuid"`
	ProjectID *string         `json:"projectId" validate:"omitempty,uuid"`
	Note      *string         `json:"note" validate:"omitempty,max=1000"`
	Recurring bool            `json:"recurring"`
}

func (r *CheckoutRequest) Normalize() {
	r.Purpose = strings.TrimSpace(r.Purpose)
	r.Donor.Email = strings.ToLower(strings.TrimSpace(r.Donor.Email))
	r.Currency = strings.ToUpper(strings.TrimSpace(r.Currency))
	r.BranchID = strings.TrimSpace(r.BranchID)
	r.Donor.Name = trimPtr(r.Donor.Name)
	r.Donor.Phone = trimPtr(r.Donor.Phone)
	r.Donor.ID = trimPtr(r.Donor.ID)
	r.ProjectID = trimPtr(r.ProjectID)
	r.Note = trimPtr(r.Note)
}

// Validate runs struct tags, then the amount rule the tags cannot express.
func (r *CheckoutRequest) Validate() error {
	if err := helper.Validate.Struct(r); err != nil {
		return err
	}
	if !r.Amount.IsPositive() {
		return helper.NewValidationError("amount", "amount must be greater than 0")
	}
	if !r.Amount.Equal(r.Amount.Round(2)) {
		return helper.NewValidationError("amount", "amount supports at most 2 decimal places")
	}
	return nil
}

func (r *CheckoutRequest) BranchUUID() uuid.UUID {
	id, _ := uuid.Parse(r.BranchID)
	return id
}

func (r *CheckoutRequest) ProjectUUID() *uuid.UUID {
	if r.ProjectID == nil {
		return nil
	}
	id, err := uuid.Parse(*r.ProjectID)
	if err != nil {
		return nil
	}
	return &id
}

func (r *CheckoutRequest) DonorUUID() *uuid.UUID {
	if r.Donor.ID == nil {
		return nil
	}
	id, err := uuid.Parse(*r.Donor.ID)
	if err != nil {
		return nil
	}
	return &id
}

type CheckoutResponse struct {
	AuthorizationURL string    `json:"authorization_url"`
	Reference        string    `json:"reference"`
	DonationID       uuid.UUID `json:"donationId"`
}

func trimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
