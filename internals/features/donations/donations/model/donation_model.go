package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	branchModel "churchhub_backend/internals/features/branches/model"
	projectModel "churchhub_backend/internals/features/projects/model"
)

type Donation struct {
	DonationID        uuid.UUID `gorm:"column:donation_id;type:uuid;primaryKey" json:"donation_id"`
	DonationReference string    `gorm:"column:donation_reference;type:varchar(64);not null;uniqueIndex:uq_donations_reference" json:"donation_reference"`

	// Donor (donor_id is a weak reference to users.id)
	DonationDonorID    *uuid.UUID `gorm:"column:donation_donor_id;type:uuid" json:"donation_donor_id,omitempty"`
	DonationDonorEmail string     `gorm:"column:donation_donor_email;type:varchar(255);not null" json:"donation_donor_email"`
	DonationDonorName  *string    `gorm:"column:donation_donor_name;type:varchar(120)" json:"donation_donor_name,omitempty"`
	DonationDonorPhone *string    `gorm:"column:donation_donor_phone;type:varchar(40)" json:"donation_donor_phone,omitempty"`

	// Target
	DonationBranchID  uuid.UUID  `gorm:"column:donation_branch_id;type:uuid;not null;index:idx_donations_branch" json:"donation_branch_id"`
	DonationProjectID *uuid.UUID `gorm:"column:donation_project_id;type:uuid;index:idx_donations_project_status,priority:1" json:"donation_project_id,omitempty"`
	DonationPurpose   string     `gorm:"column:donation_purpose;type:varchar(80);not null" json:"donation_purpose"`
	DonationNote      *string    `gorm:"column:donation_note;type:text" json:"donation_note,omitempty"`

	// Money
	DonationAmount   decimal.Decimal `gorm:"column:donation_amount;type:numeric(14,2);not null" json:"donation_amount"`
	DonationCurrency string          `gorm:"column:donation_currency;type:varchar(8);not null" json:"donation_currency"`

	// Lifecycle
	DonationStatus            DonationStatus `gorm:"column:donation_status;type:varchar(16);not null;index:idx_donations_project_status,priority:2" json:"donation_status"`
	DonationProvider          string         `gorm:"column:donation_provider;type:varchar(20);not null" json:"donation_provider"`
	DonationProviderRef       *string        `gorm:"column:donation_provider_ref;type:varchar(100)" json:"donation_provider_ref,omitempty"`
	DonationAuthorizationCode *string        `gorm:"column:donation_authorization_code;type:varchar(100)" json:"donation_authorization_code,omitempty"`
	DonationMeta              datatypes.JSON `gorm:"column:donation_meta" json:"donation_meta,omitempty"`
	DonationPaidAt            *time.Time     `gorm:"column:donation_paid_at" json:"donation_paid_at,omitempty"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime;index:idx_donations_created" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`

	// Referenced branches and projects cannot be deleted while donations point at them.
	Branch  *branchModel.Branch   `gorm:"foreignKey:DonationBranchID;references:BranchID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
	Project *projectModel.Project `gorm:"foreignKey:DonationProjectID;references:ProjectID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
}

func (Donation) TableName() string {
	return "donations"
}

func (d *Donation) BeforeCreate(tx *gorm.DB) error {
	if d.DonationID == uuid.Nil {
		d.DonationID = uuid.New()
	}
	if d.DonationStatus == "" {
		d.DonationStatus = StatusPending
	}
	return nil
}
