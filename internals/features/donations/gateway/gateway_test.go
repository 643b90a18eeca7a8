package gateway

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/bytedance/sonic"
	"github.com/shopspring/decimal"

	"churchhub_backend/internals/configs"
)

func paystackSign(secret string, body []byte) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestToMinorUnits(t *testing.T) {
	tests := []struct {
		amount string
		factor int64
		want   int64
	}{
		{"5000", 100, 500000},
		{"12.345", 100, 1235},
		{"0.01", 100, 1},
		{"150000", 1, 150000},
		{"10", 0, 10},
	}
	for _, tt := range tests {
		got := ToMinorUnits(decimal.RequireFromString(tt.amount), tt.factor)
		if got != tt.want {
			t.Errorf("ToMinorUnits(%s, %d) = %d, want %d", tt.amount, tt.factor, got, tt.want)
		}
	}
	if got := FromMinorUnits(500000, 100); !got.Equal(decimal.NewFromInt(5000)) {
		t.Errorf("FromMinorUnits = %s", got)
	}
}

func TestNewSelectsProvider(t *testing.T) {
	c, err := New(configs.PaymentConfig{Provider: "paystack", PaystackSecret: "sk"})
	if err != nil || c.Provider() != configs.ProviderPaystack {
		t.Fatalf("paystack: %v %v", c, err)
	}
	c, err = New(configs.PaymentConfig{Provider: "MIDTRANS", MidtransServerKey: "sk"})
	if err != nil || c.Provider() != configs.ProviderMidtrans {
		t.Fatalf("midtrans: %v %v", c, err)
	}
	if _, err := New(configs.PaymentConfig{Provider: "stripe"}); !errors.Is(err, ErrUnsupportedProvider) {
		t.Fatalf("expected ErrUnsupportedProvider, got %v", err)
	}
}

func TestPaystackVerifySignature(t *testing.T) {
	p := NewPaystack("sk_test_secret", "", time.Second)
	body := []byte(`{"event":"charge.success","data":{"reference":"don_1"}}`)
	sig := paystackSign("sk_test_secret", body)

	if !p.VerifySignature(body, sig) {
		t.Fatal("valid signature rejected")
	}
	if !p.VerifySignature(body, strings.ToUpper(sig)) {
		t.Fatal("upper-case hex rejected")
	}
	tampered := []byte(strings.Replace(string(body), "don_1", "don_2", 1))
	if p.VerifySignature(tampered, sig) {
		t.Fatal("tampered body accepted")
	}
	if p.VerifySignature(body, "") {
		t.Fatal("missing signature accepted")
	}
	if p.VerifySignature(body, "not-hex") {
		t.Fatal("garbage signature accepted")
	}
	if p.VerifySignature(body, paystackSign("other", body)) {
		t.Fatal("signature with wrong secret accepted")
	}
}

func TestPaystackParseEvent(t *testing.T) {
	p := NewPaystack("sk", "", time.Second)

	body := []byte(`{"event":"charge.success","data":{"id":4099260516,"reference":"don_abc","status":"success","amount":500000,
		"metadata":{"donationId":"d-1","purpose":"tithe"},"authorization":{"authorization_code":"AUTH_x"}}}`)
	ev, err := p.ParseEvent(body)
	if err != nil {
		t.Fatal(err)
	}
	if !ev.Success || ev.DonationID != "d-1" || ev.ProviderRef != "4099260516" || ev.AuthorizationCode != "AUTH_x" || ev.AmountMinor != 500000 {
		t.Fatalf("unexpected event: %+v", ev)
	}

	// metadata may come back as a JSON string
	body = []byte(`{"event":"charge.success","data":{"id":1,"reference":"r","metadata":"{\"donationId\":\"d-2\"}"}}`)
	ev, err = p.ParseEvent(body)
	if err != nil {
		t.Fatal(err)
	}
	if ev.DonationID != "d-2" {
		t.Fatalf("donation id = %q", ev.DonationID)
	}

	ev, err = p.ParseEvent([]byte(`{"event":"transfer.success","data":{"metadata":""}}`))
	if err != nil {
		t.Fatal(err)
	}
	if ev.Success || ev.DonationID != "" {
		t.Fatalf("unexpected event: %+v", ev)
	}

	if _, err := p.ParseEvent([]byte(`{not json`)); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestPaystackInitialize(t *testing.T) {
	var got paystackInitBody
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/transaction/initialize" || r.Method != http.MethodPost {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer sk_test" {
			t.Errorf("authorization header = %q", r.Header.Get("Authorization"))
		}
		b, _ := io.ReadAll(r.Body)
		_ = sonic.Unmarshal(b, &got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":true,"message":"ok","data":{"authorization_url":"https://checkout.paystack.com/x","access_code":"x","reference":"don_1"}}`))
	}))
	defer srv.Close()

	p := NewPaystack("sk_test", srv.URL, time.Second)
	res, err := p.Initialize(context.Background(), InitializeRequest{
		Reference:   "don_1",
		Email:       "a@b.co",
		AmountMinor: 500000,
		Currency:    "NGN",
		Metadata:    Metadata{DonationID: "d-1", Purpose: "tithe"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.AuthorizationURL != "https://checkout.paystack.com/x" || res.Reference != "don_1" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if got.Amount != 500000 || got.Metadata.DonationID != "d-1" || got.Email != "a@b.co" {
		t.Fatalf("unexpected request body: %+v", got)
	}
}

func TestPaystackInitializeFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"http error", http.StatusUnauthorized, `{"status":false,"message":"Invalid key"}`},
		{"status false", http.StatusOK, `{"status":false,"message":"nope"}`},
		{"no url", http.StatusOK, `{"status":true,"data":{"authorization_url":""}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			p := NewPaystack("sk", srv.URL, time.Second)
			if _, err := p.Initialize(context.Background(), InitializeRequest{Reference: "r"}); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestPaystackTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer srv.Close()

	p := NewPaystack("sk", srv.URL, 50*time.Millisecond)
	_, err := p.Verify(context.Background(), "don_1")
	if err == nil {
		t.Fatal("expected timeout")
	}
}

func TestPaystackVerify(t *testing.T) {
	tests := []struct {
		status string
		want   VerifyStatus
	}{
		{"success", VerifySuccess},
		{"failed", VerifyFailed},
		{"reversed", VerifyFailed},
		{"abandoned", VerifyPending},
		{"ongoing", VerifyPending},
		{"pending", VerifyPending},
		{"processing", VerifyPending},
		{"queued", VerifyPending},
	}
	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/transaction/verify/don_1" {
					t.Errorf("path = %s", r.URL.Path)
				}
				_, _ = w.Write([]byte(`{"status":true,"data":{"id":77,"status":"` + tt.status + `","reference":"don_1","amount":1000}}`))
			}))
			defer srv.Close()

			p := NewPaystack("sk", srv.URL, time.Second)
			res, err := p.Verify(context.Background(), "don_1")
			if err != nil {
				t.Fatal(err)
			}
			if res.Status != tt.want || res.ProviderRef != "77" || res.GatewayStatus != tt.status {
				t.Fatalf("unexpected result: %+v", res)
			}
			if res.Raw["reference"] != "don_1" {
				t.Fatalf("raw = %v", res.Raw)
			}
		})
	}
}

func midtransBody(serverKey, orderID, statusCode, gross, txStatus, fraud string) []byte {
	sum := sha512.Sum512([]byte(orderID + statusCode + gross + serverKey))
	b, _ := sonic.Marshal(map[string]string{
		"order_id":           orderID,
		"status_code":        statusCode,
		"gross_amount":       gross,
		"transaction_status": txStatus,
		"fraud_status":       fraud,
		"transaction_id":     "tx-1",
		"custom_field1":      "d-9",
		"signature_key":      hex.EncodeToString(sum[:]),
	})
	return b
}

func TestMidtransSignatureAndEvent(t *testing.T) {
	m := NewMidtrans("SB-server-key", false, time.Second)

	body := midtransBody("SB-server-key", "don_1", "200", "150000.00", "settlement", "")
	if !m.VerifySignature(body, "") {
		t.Fatal("valid signature rejected")
	}
	if m.VerifySignature(midtransBody("other", "don_1", "200", "150000.00", "settlement", ""), "") {
		t.Fatal("wrong key accepted")
	}
	if m.VerifySignature([]byte(`{"order_id":"don_1"}`), "") {
		t.Fatal("missing signature accepted")
	}

	ev, err := m.ParseEvent(body)
	if err != nil {
		t.Fatal(err)
	}
	if !ev.Success || ev.DonationID != "d-9" || ev.Reference != "don_1" || ev.ProviderRef != "tx-1" || ev.AmountMinor != 150000 {
		t.Fatalf("unexpected event: %+v", ev)
	}
}

func TestMidtransStatus(t *testing.T) {
	tests := []struct {
		tx, fraud string
		want      VerifyStatus
	}{
		{"settlement", "", VerifySuccess},
		{"capture", "accept", VerifySuccess},
		{"capture", "challenge", VerifyPending},
		{"pending", "", VerifyPending},
		{"expire", "", VerifyFailed},
		{"deny", "", VerifyFailed},
		{"cancel", "", VerifyFailed},
	}
	for _, tt := range tests {
		if got := midtransStatus(tt.tx, tt.fraud); got != tt.want {
			t.Errorf("midtransStatus(%s, %s) = %s, want %s", tt.tx, tt.fraud, got, tt.want)
		}
	}
}

func TestCallWithTimeout(t *testing.T) {
	_, err := callWithTimeout(context.Background(), 20*time.Millisecond, func() (int, error) {
		time.Sleep(200 * time.Millisecond)
		return 1, nil
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	v, err := callWithTimeout(context.Background(), time.Second, func() (int, error) { return 7, nil })
	if err != nil || v != 7 {
		t.Fatalf("got %d, %v", v, err)
	}
}

func TestTruncateKeepsRunesWhole(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"tithe", 40, "tithe"},
		{"building fund", 8, "building"},
		{"Église", 1, ""},
		{"Église", 2, "É"},
		{"€€€", 4, "€"},
		{"€€€", 0, "€€€"},
	}
	for _, tt := range tests {
		got := truncate(tt.in, tt.n)
		if got != tt.want || !utf8.ValidString(got) {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}
