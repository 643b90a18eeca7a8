package gateway

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"

	"churchhub_backend/internals/configs"
)

const (
	paystackSignatureHeader = "X-Paystack-Signature"
	paystackChargeSuccess   = "charge.success"
	paystackDefaultBaseURL  = "https://api.paystack.co"
)

type Paystack struct {
	secret  string
	baseURL string
	timeout time.Duration
	http    *http.Client
}

func NewPaystack(secret, baseURL string, timeout time.Duration) *Paystack {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = paystackDefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Paystack{
		secret:  secret,
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		http:    &http.Client{Timeout: timeout},
	}
}

func (p *Paystack) Provider() string       { return configs.ProviderPaystack }
func (p *Paystack) MinorUnitFactor() int64 { return 100 }
func (p *Paystack) SignatureHeader() string {
	return paystackSignatureHeader
}

type paystackEnvelope struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
}

type paystackInitBody struct {
	Email       string   `json:"email"`
	Amount      int64    `json:"amount"`
	Reference   string   `json:"reference"`
	Currency    string   `json:"currency,omitempty"`
	CallbackURL string   `json:"callback_url,omitempty"`
	Metadata    Metadata `json:"metadata"`
}

type paystackInitResponse struct {
	paystackEnvelope
	Data struct {
		AuthorizationURL string `json:"authorization_url"`
		AccessCode       string `json:"access_code"`
		Reference        string `json:"reference"`
	} `json:"data"`
}

func (p *Paystack) Initialize(ctx context.Context, req InitializeRequest) (*InitializeResult, error) {
	body := paystackInitBody{
		Email:       req.Email,
		Amount:      req.AmountMinor,
		Reference:   req.Reference,
		Currency:    req.Currency,
		CallbackURL: req.CallbackURL,
		Metadata:    req.Metadata,
	}
	var out paystackInitResponse
	if err := p.do(ctx, http.MethodPost, "/transaction/initialize", body, &out, nil); err != nil {
		return nil, err
	}
	if !out.Status {
		return nil, fmt.Errorf("paystack initialize: %s", out.Message)
	}
	if strings.TrimSpace(out.Data.AuthorizationURL) == "" {
		return nil, ErrNoAuthorizationURL
	}
	ref := out.Data.Reference
	if ref == "" {
		ref = req.Reference
	}
	return &InitializeResult{
		AuthorizationURL: out.Data.AuthorizationURL,
		AccessCode:       out.Data.AccessCode,
		Reference:        ref,
	}, nil
}

type paystackVerifyResponse struct {
	paystackEnvelope
	Data struct {
		ID        int64  `json:"id"`
		Status    string `json:"status"`
		Reference string `json:"reference"`
		Amount    int64  `json:"amount"`
	} `json:"data"`
}

func (p *Paystack) Verify(ctx context.Context, reference string) (*VerifyResult, error) {
	var out paystackVerifyResponse
	var raw struct {
		Data map[string]any `json:"data"`
	}
	path := "/transaction/verify/" + url.PathEscape(reference)
	if err := p.do(ctx, http.MethodGet, path, nil, &out, &raw); err != nil {
		return nil, err
	}
	if !out.Status {
		return nil, fmt.Errorf("paystack verify: %s", out.Message)
	}

	res := &VerifyResult{
		Status:        paystackStatus(out.Data.Status),
		GatewayStatus: out.Data.Status,
		AmountMinor:   out.Data.Amount,
		Raw:           raw.Data,
	}
	if out.Data.ID != 0 {
		res.ProviderRef = strconv.FormatInt(out.Data.ID, 10)
	}
	return res, nil
}

// paystackStatus treats transactions the donor can still complete as pending.
func paystackStatus(s string) VerifyStatus {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "success":
		return VerifySuccess
	case "ongoing", "pending", "processing", "queued", "abandoned":
		return VerifyPending
	default:
		return VerifyFailed
	}
}

// VerifySignature compares HMAC-SHA512(body, secret) in hex against the header in constant time.
func (p *Paystack) VerifySignature(body []byte, header string) bool {
	header = strings.TrimSpace(header)
	if header == "" || p.secret == "" {
		return false
	}
	got, err := hex.DecodeString(strings.ToLower(header))
	if err != nil {
		return false
	}
	mac := hmac.New(sha512.New, []byte(p.secret))
	mac.Write(body)
	return hmac.Equal(mac.Sum(nil), got)
}

type paystackEvent struct {
	Event string `json:"event"`
	Data  struct {
		ID            int64  `json:"id"`
		Reference     string `json:"reference"`
		Status        string `json:"status"`
		Amount        int64  `json:"amount"`
		Metadata      any    `json:"metadata"`
		Authorization struct {
			AuthorizationCode string `json:"authorization_code"`
		} `json:"authorization"`
	} `json:"data"`
}

func (p *Paystack) ParseEvent(body []byte) (*Event, error) {
	var ev paystackEvent
	if err := sonic.Unmarshal(body, &ev); err != nil {
		return nil, fmt.Errorf("decode paystack event: %w", err)
	}
	out := &Event{
		Type:              ev.Event,
		Success:           ev.Event == paystackChargeSuccess,
		Reference:         ev.Data.Reference,
		AuthorizationCode: ev.Data.Authorization.AuthorizationCode,
		AmountMinor:       ev.Data.Amount,
		DonationID:        metadataDonationID(ev.Data.Metadata),
	}
	if ev.Data.ID != 0 {
		out.ProviderRef = strconv.FormatInt(ev.Data.ID, 10)
	}
	return out, nil
}

// metadataDonationID handles metadata sent back as an object or as a JSON string.
func metadataDonationID(v any) string {
	switch m := v.(type) {
	case map[string]any:
		if id, ok := m["donationId"].(string); ok {
			return strings.TrimSpace(id)
		}
	case string:
		if strings.TrimSpace(m) == "" {
			return ""
		}
		var inner map[string]any
		if err := sonic.UnmarshalString(m, &inner); err == nil {
			return metadataDonationID(inner)
		}
	}
	return ""
}

func (p *Paystack) do(ctx context.Context, method, path string, in any, out any, raw any) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	var reqBody io.Reader
	if in != nil {
		b, err := sonic.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode paystack request: %w", err)
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+p.secret)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := p.http.Do(req)
	if err != nil {
		return fmt.Errorf("paystack %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read paystack response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var env paystackEnvelope
		_ = sonic.Unmarshal(b, &env)
		return fmt.Errorf("paystack %s %s: status %d: %s", method, path, resp.StatusCode, env.Message)
	}
	if err := sonic.Unmarshal(b, out); err != nil {
		return fmt.Errorf("decode paystack response: %w", err)
	}
	if raw != nil {
		_ = sonic.Unmarshal(b, raw)
	}
	return nil
}
