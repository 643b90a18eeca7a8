package dto

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"churchhub_backend/internals/features/donations/donations/model"
)

type DonationResponse struct {
	DonationID        uuid.UUID            `json:"donation_id"`
	Reference         string               `json:"reference"`
	DonorID           *uuid.UUID           `json:"donor_id,omitempty"`
	DonorEmail        string               `json:"donor_email"`
	DonorName         *string              `json:"donor_name,omitempty"`
	DonorPhone        *string              `json:"donor_phone,omitempty"`
	BranchID          uuid.UUID            `json:"branch_id"`
	BranchName        string               `json:"branch_name,omitempty"`
	ProjectID         *uuid.UUID           `json:"project_id,omitempty"`
	ProjectTitle      string               `json:"project_title,omitempty"`
	Purpose           string               `json:"purpose"`
	Note              *string              `json:"note,omitempty"`
	Amount            decimal.Decimal      `json:"amount"`
	Currency          string               `json:"currency"`
	Status            model.DonationStatus `json:"status"`
	Provider          string               `json:"provider"`
	ProviderRef       *string              `json:"provider_ref,omitempty"`
	AuthorizationCode *string              `json:"authorization_code,omitempty"`
	Meta              datatypes.JSON       `json:"meta,omitempty"`
	PaidAt            *time.Time           `json:"paid_at,omitempty"`
	CreatedAt         time.Time            `json:"created_at"`
	UpdatedAt         time.Time            `json:"updated_at"`
}

// DonationRow is a donation joined with its branch name and project title.
type DonationRow struct {
	model.Donation
	BranchName   string  `gorm:"column:branch_name"`
	ProjectTitle *string `gorm:"column:project_title"`
}

func FromModel(d *model.Donation) DonationResponse {
	return DonationResponse{
		DonationID:        d.DonationID,
		Reference:         d.DonationReference,
		DonorID:           d.DonationDonorID,
		DonorEmail:        d.DonationDonorEmail,
		DonorName:         d.DonationDonorName,
		DonorPhone:        d.DonationDonorPhone,
		BranchID:          d.DonationBranchID,
		ProjectID:         d.DonationProjectID,
		Purpose:           d.DonationPurpose,
		Note:              d.DonationNote,
		Amount:            d.DonationAmount,
		Currency:          d.DonationCurrency,
		Status:            d.DonationStatus,
		Provider:          d.DonationProvider,
		ProviderRef:       d.DonationProviderRef,
		AuthorizationCode: d.DonationAuthorizationCode,
		Meta:              d.DonationMeta,
		PaidAt:            d.DonationPaidAt,
		CreatedAt:         d.CreatedAt,
		UpdatedAt:         d.UpdatedAt,
	}
}

func FromRow(r *DonationRow) DonationResponse {
	out := FromModel(&r.Donation)
	out.BranchName = r.BranchName
	if r.ProjectTitle != nil {
		out.ProjectTitle = *r.ProjectTitle
	}
	return out
}

func FromRows(rows []DonationRow) []DonationResponse {
	out := make([]DonationResponse, 0, len(rows))
	for i := range rows {
		out = append(out, FromRow(&rows[i]))
	}
	return out
}

// GET /api/admin/donations
type DonationListQuery struct {
	Status string
	Search string
}

func (q *DonationListQuery) Normalize() {
	q.Status = strings.ToUpper(strings.TrimSpace(q.Status))
	q.Search = strings.TrimSpace(q.Search)
}

type DashboardActivity struct {
	Kind      string          `json:"kind"` // donation | project
	Title     string          `json:"title"`
	Actor     string          `json:"actor"`
	Amount    decimal.Decimal `json:"amount"`
	Branch    string          `json:"branch,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

type DashboardResponse struct {
	TotalDonations   decimal.Decimal     `json:"total_donations"`
	MonthlyDonations decimal.Decimal     `json:"monthly_donations"`
	TotalBranches    int64               `json:"total_branches"`
	TotalProjects    int64               `json:"total_projects"`
	RecentActivities []DashboardActivity `json:"recent_activities"`
}
