package gateway

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"churchhub_backend/internals/configs"
)

var (
	// ErrNoAuthorizationURL means the gateway accepted the request but returned no redirect.
	ErrNoAuthorizationURL = errors.New("gateway returned no authorization url")
	// ErrUnsupportedProvider is returned by New for an unknown PAYMENT_PROVIDER.
	ErrUnsupportedProvider = errors.New("unsupported payment provider")
)

// Metadata is echoed back by the gateway on webhooks.
type Metadata struct {
	DonationID string `json:"donationId"`
	DonorID    string `json:"donorId,omitempty"`
	Purpose    string `json:"purpose"`
	Recurring  bool   `json:"recurring"`
}

type InitializeRequest struct {
	Reference   string
	Email       string
	Name        string
	Phone       string
	AmountMinor int64
	Currency    string
	CallbackURL string
	Metadata    Metadata
}

type InitializeResult struct {
	AuthorizationURL string
	AccessCode       string
	Reference        string
}

type VerifyStatus string

const (
	VerifySuccess VerifyStatus = "success"
	VerifyFailed  VerifyStatus = "failed"
	VerifyPending VerifyStatus = "pending"
)

type VerifyResult struct {
	Status        VerifyStatus
	GatewayStatus string
	ProviderRef   string
	AmountMinor   int64
	Raw           map[string]any
}

// Event is a decoded webhook delivery. Success is true only for a completed charge.
type Event struct {
	Type              string
	Success           bool
	Reference         string
	DonationID        string
	ProviderRef       string
	AuthorizationCode string
	AmountMinor       int64
}

type Client interface {
	Provider() string
	// MinorUnitFactor is how many minor units make one major unit (100 kobo per naira).
	MinorUnitFactor() int64
	Initialize(ctx context.Context, req InitializeRequest) (*InitializeResult, error)
	Verify(ctx context.Context, reference string) (*VerifyResult, error)
	// VerifySignature checks the raw body against the signature header value.
	VerifySignature(body []byte, header string) bool
	SignatureHeader() string
	ParseEvent(body []byte) (*Event, error)
}

// New builds the client for cfg.Provider.
func New(cfg configs.PaymentConfig) (Client, error) {
	switch strings.ToLower(cfg.Provider) {
	case configs.ProviderPaystack:
		return NewPaystack(cfg.PaystackSecret, cfg.PaystackBaseURL, cfg.Timeout), nil
	case configs.ProviderMidtrans:
		return NewMidtrans(cfg.MidtransServerKey, cfg.MidtransUseProd, cfg.Timeout), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedProvider, cfg.Provider)
	}
}

// ToMinorUnits converts a major-unit amount, rounding half away from zero.
func ToMinorUnits(amount decimal.Decimal, factor int64) int64 {
	if factor <= 0 {
		factor = 1
	}
	return amount.Mul(decimal.NewFromInt(factor)).Round(0).IntPart()
}

// FromMinorUnits is the inverse of ToMinorUnits.
func FromMinorUnits(minor, factor int64) decimal.Decimal {
	if factor <= 0 {
		factor = 1
	}
	return decimal.NewFromInt(minor).Div(decimal.NewFromInt(factor))
}
