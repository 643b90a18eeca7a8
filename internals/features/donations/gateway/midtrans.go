package gateway

import (
	"context"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/bytedance/sonic"
	midtrans "github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/coreapi"
	"github.com/midtrans/midtrans-go/snap"
	"github.com/shopspring/decimal"

	"churchhub_backend/internals/configs"
)

// Midtrans carries the signature inside the notification body, not in a header.
type Midtrans struct {
	serverKey string
	timeout   time.Duration
	snap      snap.Client
	core      coreapi.Client
}

func NewMidtrans(serverKey string, useProduction bool, timeout time.Duration) *Midtrans {
	env := midtrans.Sandbox
	if useProduction {
		env = midtrans.Production
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	m := &Midtrans{serverKey: serverKey, timeout: timeout}
	m.snap.New(serverKey, env)
	m.core.New(serverKey, env)
	return m
}

func (m *Midtrans) Provider() string        { return configs.ProviderMidtrans }
func (m *Midtrans) MinorUnitFactor() int64  { return 1 }
func (m *Midtrans) SignatureHeader() string { return "" }

func (m *Midtrans) Initialize(ctx context.Context, req InitializeRequest) (*InitializeResult, error) {
	sreq := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  req.Reference,
			GrossAmt: req.AmountMinor,
		},
		CustomerDetail: &midtrans.CustomerDetails{
			FName: req.Name,
			Email: req.Email,
			Phone: req.Phone,
		},
		CustomField1: req.Metadata.DonationID,
		CustomField2: truncate(req.Metadata.Purpose, 40),
	}

	resp, err := callWithTimeout(ctx, m.timeout, func() (*snap.Response, error) {
		r, merr := m.snap.CreateTransaction(sreq)
		if merr != nil {
			return nil, merr
		}
		return r, nil
	})
	if err != nil {
		return nil, fmt.Errorf("midtrans create transaction: %w", err)
	}
	if strings.TrimSpace(resp.RedirectURL) == "" {
		return nil, ErrNoAuthorizationURL
	}
	return &InitializeResult{
		AuthorizationURL: resp.RedirectURL,
		AccessCode:       resp.Token,
		Reference:        req.Reference,
	}, nil
}

func (m *Midtrans) Verify(ctx context.Context, reference string) (*VerifyResult, error) {
	resp, err := callWithTimeout(ctx, m.timeout, func() (*coreapi.TransactionStatusResponse, error) {
		r, merr := m.core.CheckTransaction(reference)
		if merr != nil {
			return nil, merr
		}
		return r, nil
	})
	if err != nil {
		return nil, fmt.Errorf("midtrans check transaction: %w", err)
	}

	res := &VerifyResult{
		Status:        midtransStatus(resp.TransactionStatus, resp.FraudStatus),
		GatewayStatus: resp.TransactionStatus,
		ProviderRef:   resp.TransactionID,
		AmountMinor:   grossToMinor(resp.GrossAmount),
	}
	if b, err := sonic.Marshal(resp); err == nil {
		_ = sonic.Unmarshal(b, &res.Raw)
	}
	return res, nil
}

type midtransNotification struct {
	TransactionStatus string `json:"transaction_status"`
	StatusCode        string `json:"status_code"`
	SignatureKey      string `json:"signature_key"`
	OrderID           string `json:"order_id"`
	GrossAmount       string `json:"gross_amount"`
	FraudStatus       string `json:"fraud_status"`
	TransactionID     string `json:"transaction_id"`
	CustomField1      string `json:"custom_field1"`
}

// VerifySignature checks SHA512(order_id + status_code + gross_amount + server_key)
// against signature_key in the body. The header argument is unused.
func (m *Midtrans) VerifySignature(body []byte, _ string) bool {
	if m.serverKey == "" {
		return false
	}
	var n midtransNotification
	if err := sonic.Unmarshal(body, &n); err != nil {
		return false
	}
	want := strings.ToLower(strings.TrimSpace(n.SignatureKey))
	if want == "" {
		return false
	}
	sum := sha512.Sum512([]byte(n.OrderID + n.StatusCode + n.GrossAmount + m.serverKey))
	got := hex.EncodeToString(sum[:])
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}

func (m *Midtrans) ParseEvent(body []byte) (*Event, error) {
	var n midtransNotification
	if err := sonic.Unmarshal(body, &n); err != nil {
		return nil, fmt.Errorf("decode midtrans notification: %w", err)
	}
	return &Event{
		Type:        n.TransactionStatus,
		Success:     midtransStatus(n.TransactionStatus, n.FraudStatus) == VerifySuccess,
		Reference:   n.OrderID,
		DonationID:  strings.TrimSpace(n.CustomField1),
		ProviderRef: n.TransactionID,
		AmountMinor: grossToMinor(n.GrossAmount),
	}, nil
}

func midtransStatus(txStatus, fraud string) VerifyStatus {
	switch txStatus {
	case "settlement":
		return VerifySuccess
	case "capture":
		if fraud == "" || fraud == "accept" {
			return VerifySuccess
		}
		return VerifyPending
	case "pending":
		return VerifyPending
	default:
		return VerifyFailed
	}
}

func grossToMinor(s string) int64 {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return d.Round(0).IntPart()
}

// truncate keeps at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// callWithTimeout bounds SDK calls that take no context.
func callWithTimeout[T any](ctx context.Context, timeout time.Duration, fn func() (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		v   T
		err error
	}
	ch := make(chan result, 1)
	go func() {
		v, err := fn()
		ch <- result{v, err}
	}()

	select {
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	case r := <-ch:
		return r.v, r.err
	}
}
