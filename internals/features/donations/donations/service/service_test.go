package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"churchhub_backend/internals/configs"
	"churchhub_backend/internals/databases/dbtest"
	branchModel "churchhub_backend/internals/features/branches/model"
	"churchhub_backend/internals/features/donations/donations/dto"
	"churchhub_backend/internals/features/donations/donations/model"
	"churchhub_backend/internals/features/donations/gateway"
	eventModel "churchhub_backend/internals/features/donations/gateway_events/model"
	projectModel "churchhub_backend/internals/features/projects/model"
	helper "churchhub_backend/internals/helpers"
)

const testSecret = "sk_test_secret"

// fakeGateway keeps the real Paystack signature and event parsing and scripts the network calls.
type fakeGateway struct {
	*gateway.Paystack

	mu          sync.Mutex
	initErr     error
	initialized []gateway.InitializeRequest
	verifyRes   *gateway.VerifyResult
	verifyErr   error
	verifyCalls atomic.Int32
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{Paystack: gateway.NewPaystack(testSecret, "http://paystack.invalid", time.Second)}
}

func (f *fakeGateway) Initialize(ctx context.Context, req gateway.InitializeRequest) (*gateway.InitializeResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.initialized = append(f.initialized, req)
	if f.initErr != nil {
		return nil, f.initErr
	}
	return &gateway.InitializeResult{
		AuthorizationURL: "https://checkout.paystack.com/" + req.Reference,
		Reference:        req.Reference,
	}, nil
}

func (f *fakeGateway) Verify(ctx context.Context, reference string) (*gateway.VerifyResult, error) {
	f.verifyCalls.Add(1)
	if f.verifyErr != nil {
		return nil, f.verifyErr
	}
	return f.verifyRes, nil
}

type fixture struct {
	db      *gorm.DB
	gw      *fakeGateway
	svc     *DonationService
	branch  branchModel.Branch
	project projectModel.Project
}

func setup(t *testing.T) *fixture {
	t.Helper()
	db := dbtest.Open(t)
	gw := newFakeGateway()
	svc := NewDonationService(db, gw, configs.PaymentConfig{
		Provider:        configs.ProviderPaystack,
		DefaultCurrency: "NGN",
		CallbackURL:     "https://church.example/donate/thanks",
	})

	f := &fixture{db: db, gw: gw, svc: svc}
	f.branch = branchModel.Branch{BranchName: "Lekki", BranchSlug: "lekki"}
	if err := db.Create(&f.branch).Error; err != nil {
		t.Fatalf("seed branch: %v", err)
	}
	f.project = projectModel.Project{
		ProjectTitle:        "New Roof",
		ProjectBranchID:     f.branch.BranchID,
		ProjectTargetAmount: decimal.NewFromInt(100000),
		ProjectIsActive:     true,
	}
	if err := db.Create(&f.project).Error; err != nil {
		t.Fatalf("seed project: %v", err)
	}
	return f
}

func (f *fixture) checkout(t *testing.T, amount int64) *dto.CheckoutResponse {
	t.Helper()
	projectID := f.project.ProjectID.String()
	res, err := f.svc.Checkout(context.Background(), dto.CheckoutRequest{
		Purpose:   "building fund",
		Amount:    decimal.NewFromInt(amount),
		Donor:     dto.DonorInput{Email: "Ada@Example.com"},
		BranchID:  f.branch.BranchID.String(),
		ProjectID: &projectID,
	})
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	return res
}

func (f *fixture) donation(t *testing.T, reference string) model.Donation {
	t.Helper()
	var d model.Donation
	if err := f.db.First(&d, "donation_reference = ?", reference).Error; err != nil {
		t.Fatalf("load donation %s: %v", reference, err)
	}
	return d
}

func (f *fixture) totals(t *testing.T) (project, branch decimal.Decimal) {
	t.Helper()
	var p projectModel.Project
	var b branchModel.Branch
	if err := f.db.First(&p, "project_id = ?", f.project.ProjectID).Error; err != nil {
		t.Fatal(err)
	}
	if err := f.db.First(&b, "branch_id = ?", f.branch.BranchID).Error; err != nil {
		t.Fatal(err)
	}
	return p.ProjectCollectedAmount, b.BranchCollectedAmount
}

func chargeSuccess(donationID, reference string, amountMinor int64, authCode string) []byte {
	return []byte(fmt.Sprintf(`{"event":"charge.success","data":{"id":3051,"reference":%q,"status":"success","amount":%d,"metadata":{"donationId":%q},"authorization":{"authorization_code":%q}}}`,
		reference, amountMinor, donationID, authCode))
}

func sign(body []byte) string {
	mac := hmac.New(sha512.New, []byte(testSecret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func signed(body []byte) WebhookDelivery {
	return WebhookDelivery{Body: body, Signature: sign(body), Headers: map[string]string{"X-Paystack-Signature": sign(body)}}
}

func assertKind(t *testing.T, err error, kind helper.ErrorKind) {
	t.Helper()
	if !helper.IsKind(err, kind) {
		t.Fatalf("expected %s, got %v", kind, err)
	}
}

func TestCheckoutCreatesPendingDonation(t *testing.T) {
	f := setup(t)
	res := f.checkout(t, 5000)

	if len(res.Reference) != len("don_")+32 || res.Reference[:4] != "don_" {
		t.Fatalf("unexpected reference %q", res.Reference)
	}
	if res.AuthorizationURL == "" {
		t.Fatal("missing authorization url")
	}

	d := f.donation(t, res.Reference)
	if d.DonationStatus != model.StatusPending {
		t.Errorf("status = %s, want PENDING", d.DonationStatus)
	}
	if d.DonationID != res.DonationID {
		t.Errorf("donation id mismatch")
	}
	if d.DonationDonorEmail != "ada@example.com" || d.DonationCurrency != "NGN" || d.DonationProvider != configs.ProviderPaystack {
		t.Errorf("unexpected donation: %+v", d)
	}

	if len(f.gw.initialized) != 1 {
		t.Fatalf("initialize calls = %d", len(f.gw.initialized))
	}
	req := f.gw.initialized[0]
	if req.AmountMinor != 500000 {
		t.Errorf("amount minor = %d, want 500000", req.AmountMinor)
	}
	if req.Metadata.DonationID != d.DonationID.String() || req.Reference != res.Reference {
		t.Errorf("unexpected initialize request: %+v", req)
	}
	if req.CallbackURL != "https://church.example/donate/thanks" {
		t.Errorf("callback url = %q", req.CallbackURL)
	}
}

func TestCheckoutReferencesAreUnique(t *testing.T) {
	f := setup(t)
	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		ref := f.checkout(t, 100).Reference
		if seen[ref] {
			t.Fatalf("duplicate reference %s", ref)
		}
		seen[ref] = true
	}
}

func TestCheckoutValidation(t *testing.T) {
	f := setup(t)
	other := branchModel.Branch{BranchName: "Ikeja", BranchSlug: "ikeja"}
	if err := f.db.Create(&other).Error; err != nil {
		t.Fatal(err)
	}
	projectID := f.project.ProjectID.String()
	missing := "7f1a4c8e-51f2-4a55-9a53-8d5c0b8f2e11"

	tests := []struct {
		name  string
		req   dto.CheckoutRequest
		field string
	}{
		{"zero amount", dto.CheckoutRequest{Purpose: "tithe", Donor: dto.DonorInput{Email: "a@b.co"}, BranchID: f.branch.BranchID.String()}, "amount"},
		{"negative amount", dto.CheckoutRequest{Purpose: "tithe", Amount: decimal.NewFromInt(-5), Donor: dto.DonorInput{Email: "a@b.co"}, BranchID: f.branch.BranchID.String()}, "amount"},
		{"fractional kobo", dto.CheckoutRequest{Purpose: "tithe", Amount: decimal.RequireFromString("10.005"), Donor: dto.DonorInput{Email: "a@b.co"}, BranchID: f.branch.BranchID.String()}, "amount"},
		{"missing email", dto.CheckoutRequest{Purpose: "tithe", Amount: decimal.NewFromInt(10), BranchID: f.branch.BranchID.String()}, "donor.email"},
		{"bad email", dto.CheckoutRequest{Purpose: "tithe", Amount: decimal.NewFromInt(10), Donor: dto.DonorInput{Email: "nope"}, BranchID: f.branch.BranchID.String()}, "donor.email"},
		{"missing branch", dto.CheckoutRequest{Purpose: "tithe", Amount: decimal.NewFromInt(10), Donor: dto.DonorInput{Email: "a@b.co"}}, "branchId"},
		{"unknown branch", dto.CheckoutRequest{Purpose: "tithe", Amount: decimal.NewFromInt(10), Donor: dto.DonorInput{Email: "a@b.co"}, BranchID: missing}, "branchId"},
		{"unknown project", dto.CheckoutRequest{Purpose: "tithe", Amount: decimal.NewFromInt(10), Donor: dto.DonorInput{Email: "a@b.co"}, BranchID: f.branch.BranchID.String(), ProjectID: &missing}, "projectId"},
		{"project of other branch", dto.CheckoutRequest{Purpose: "tithe", Amount: decimal.NewFromInt(10), Donor: dto.DonorInput{Email: "a@b.co"}, BranchID: other.BranchID.String(), ProjectID: &projectID}, "projectId"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Checkout(context.Background(), tt.req)
			if err == nil {
				t.Fatal("expected error")
			}
			var ve validator.ValidationErrors
			var ae *helper.AppError
			switch {
			case errors.As(err, &ve):
				fields := helper.ValidationMessages(ve)
				if _, ok := fields[tt.field]; !ok {
					t.Fatalf("expected field %s in %v", tt.field, fields)
				}
			case errors.As(err, &ae):
				if ae.Kind != helper.KindValidation || ae.Field != tt.field {
					t.Fatalf("expected validation on %s, got %+v", tt.field, ae)
				}
			default:
				t.Fatalf("unexpected error type %T: %v", err, err)
			}
		})
	}

	var count int64
	f.db.Model(&model.Donation{}).Count(&count)
	if count != 0 {
		t.Fatalf("validation failures created %d donations", count)
	}
}

func TestCheckoutGatewayFailureKeepsPendingDonation(t *testing.T) {
	f := setup(t)
	f.gw.initErr = gateway.ErrNoAuthorizationURL

	_, err := f.svc.Checkout(context.Background(), dto.CheckoutRequest{
		Purpose:  "offering",
		Amount:   decimal.NewFromInt(2500),
		Donor:    dto.DonorInput{Email: "a@b.co"},
		BranchID: f.branch.BranchID.String(),
	})
	assertKind(t, err, helper.KindUpstream)

	var ds []model.Donation
	f.db.Find(&ds)
	if len(ds) != 1 || ds[0].DonationStatus != model.StatusPending {
		t.Fatalf("expected one PENDING donation, got %+v", ds)
	}
}

func TestCheckoutRetriesReferenceCollision(t *testing.T) {
	f := setup(t)
	existing := f.checkout(t, 100).Reference

	refs := []string{existing, existing, "don_fresh"}
	i := 0
	f.svc.NewReference = func() string {
		r := refs[i]
		i++
		return r
	}

	res := f.checkout(t, 200)
	if res.Reference != "don_fresh" {
		t.Fatalf("reference = %s, want don_fresh", res.Reference)
	}

	f.svc.NewReference = func() string { return existing }
	_, err := f.svc.Checkout(context.Background(), dto.CheckoutRequest{
		Purpose:  "offering",
		Amount:   decimal.NewFromInt(300),
		Donor:    dto.DonorInput{Email: "a@b.co"},
		BranchID: f.branch.BranchID.String(),
	})
	assertKind(t, err, helper.KindConflict)
}

func TestWebhookConfirmsOnceAndRecomputes(t *testing.T) {
	f := setup(t)
	res := f.checkout(t, 5000)
	id := res.DonationID.String()

	first := chargeSuccess(id, res.Reference, 500000, "AUTH_first")
	if err := f.svc.HandleWebhook(context.Background(), signed(first)); err != nil {
		t.Fatalf("first delivery: %v", err)
	}

	d := f.donation(t, res.Reference)
	if d.DonationStatus != model.StatusSuccess {
		t.Fatalf("status = %s, want SUCCESS", d.DonationStatus)
	}
	if d.DonationAuthorizationCode == nil || *d.DonationAuthorizationCode != "AUTH_first" {
		t.Fatalf("authorization code = %v", d.DonationAuthorizationCode)
	}
	if d.DonationProviderRef == nil || *d.DonationProviderRef != "3051" {
		t.Fatalf("provider ref = %v", d.DonationProviderRef)
	}
	if d.DonationPaidAt == nil {
		t.Fatal("paid_at not set")
	}
	project, branch := f.totals(t)
	if !project.Equal(decimal.NewFromInt(5000)) || !branch.Equal(decimal.NewFromInt(5000)) {
		t.Fatalf("totals = %s / %s, want 5000", project, branch)
	}

	// redelivery with a different payload must not change anything
	second := chargeSuccess(id, res.Reference, 500000, "AUTH_second")
	if err := f.svc.HandleWebhook(context.Background(), signed(second)); err != nil {
		t.Fatalf("second delivery: %v", err)
	}
	d = f.donation(t, res.Reference)
	if *d.DonationAuthorizationCode != "AUTH_first" {
		t.Fatalf("authorization code overwritten: %s", *d.DonationAuthorizationCode)
	}
	if string(d.DonationMeta) != string(first) {
		t.Fatalf("meta overwritten: %s", d.DonationMeta)
	}
	project, branch = f.totals(t)
	if !project.Equal(decimal.NewFromInt(5000)) || !branch.Equal(decimal.NewFromInt(5000)) {
		t.Fatalf("totals after redelivery = %s / %s", project, branch)
	}

	var events []eventModel.GatewayEvent
	f.db.Order("gateway_event_received_at").Find(&events)
	if len(events) != 2 {
		t.Fatalf("gateway events = %d, want 2", len(events))
	}
	if events[0].GatewayEventStatus != eventModel.GatewayEventProcessed || events[1].GatewayEventStatus != eventModel.GatewayEventIgnored {
		t.Fatalf("event statuses = %s, %s", events[0].GatewayEventStatus, events[1].GatewayEventStatus)
	}
}

func TestWebhookConcurrentDeliveriesApplyOnce(t *testing.T) {
	f := setup(t)
	res := f.checkout(t, 5000)
	body := chargeSuccess(res.DonationID.String(), res.Reference, 500000, "AUTH_x")

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- f.svc.HandleWebhook(context.Background(), signed(body))
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("delivery failed: %v", err)
		}
	}

	var processed int64
	f.db.Model(&eventModel.GatewayEvent{}).Where("gateway_event_status = ?", eventModel.GatewayEventProcessed).Count(&processed)
	if processed != 1 {
		t.Fatalf("processed deliveries = %d, want 1", processed)
	}
	project, _ := f.totals(t)
	if !project.Equal(decimal.NewFromInt(5000)) {
		t.Fatalf("project total = %s, want 5000", project)
	}
}

func TestWebhookRejectsTamperedBody(t *testing.T) {
	f := setup(t)
	res := f.checkout(t, 5000)

	body := chargeSuccess(res.DonationID.String(), res.Reference, 500000, "AUTH_x")
	sig := sign(body)
	tampered := chargeSuccess(res.DonationID.String(), res.Reference, 900000, "AUTH_x")

	err := f.svc.HandleWebhook(context.Background(), WebhookDelivery{Body: tampered, Signature: sig})
	assertKind(t, err, helper.KindAuthentication)

	err = f.svc.HandleWebhook(context.Background(), WebhookDelivery{Body: body})
	assertKind(t, err, helper.KindAuthentication)

	if d := f.donation(t, res.Reference); d.DonationStatus != model.StatusPending {
		t.Fatalf("status = %s, want PENDING", d.DonationStatus)
	}
	project, branch := f.totals(t)
	if !project.IsZero() || !branch.IsZero() {
		t.Fatalf("totals changed: %s / %s", project, branch)
	}

	var rejected int64
	f.db.Model(&eventModel.GatewayEvent{}).Where("gateway_event_status = ?", eventModel.GatewayEventRejected).Count(&rejected)
	if rejected != 2 {
		t.Fatalf("rejected events = %d, want 2", rejected)
	}
}

func TestWebhookMissingMetadata(t *testing.T) {
	f := setup(t)
	body := []byte(`{"event":"charge.success","data":{"id":1,"reference":"don_x","metadata":{}}}`)
	err := f.svc.HandleWebhook(context.Background(), signed(body))
	assertKind(t, err, helper.KindValidation)

	body = []byte(`{"event":"charge.success","data":{"id":1,"reference":"don_x","metadata":{"donationId":"not-a-uuid"}}}`)
	err = f.svc.HandleWebhook(context.Background(), signed(body))
	assertKind(t, err, helper.KindValidation)
}

func TestWebhookUnknownDonation(t *testing.T) {
	f := setup(t)
	body := chargeSuccess("2b0f7a4e-8f0c-4a57-9d3f-1f5c9b6a7e10", "don_ghost", 100, "")
	err := f.svc.HandleWebhook(context.Background(), signed(body))
	assertKind(t, err, helper.KindNotFound)
}

func TestWebhookIgnoresOtherEvents(t *testing.T) {
	f := setup(t)
	res := f.checkout(t, 5000)
	body := []byte(fmt.Sprintf(`{"event":"charge.failed","data":{"reference":%q,"metadata":{"donationId":%q}}}`, res.Reference, res.DonationID))
	if err := f.svc.HandleWebhook(context.Background(), signed(body)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d := f.donation(t, res.Reference); d.DonationStatus != model.StatusPending {
		t.Fatalf("status = %s, want PENDING", d.DonationStatus)
	}
}

func TestVerifyFailedMarksFailed(t *testing.T) {
	f := setup(t)
	res := f.checkout(t, 5000)
	f.gw.verifyRes = &gateway.VerifyResult{Status: gateway.VerifyFailed, GatewayStatus: "failed", ProviderRef: "991"}

	out, err := f.svc.Verify(context.Background(), res.Reference, false)
	if err != nil {
		t.Fatal(err)
	}
	if out.Verified || out.Data.Status != model.StatusFailed || out.Data.Updated != 1 {
		t.Fatalf("unexpected response: %+v", out)
	}
	d := f.donation(t, res.Reference)
	if d.DonationStatus != model.StatusFailed || d.DonationProviderRef == nil || *d.DonationProviderRef != "991" {
		t.Fatalf("unexpected donation: %+v", d)
	}
	project, branch := f.totals(t)
	if !project.IsZero() || !branch.IsZero() {
		t.Fatalf("FAILED donation counted: %s / %s", project, branch)
	}
}

func TestVerifySuccessThenRegression(t *testing.T) {
	f := setup(t)
	res := f.checkout(t, 5000)

	f.gw.verifyRes = &gateway.VerifyResult{Status: gateway.VerifySuccess, GatewayStatus: "success", ProviderRef: "77"}
	out, err := f.svc.Verify(context.Background(), res.Reference, false)
	if err != nil {
		t.Fatal(err)
	}
	if !out.Verified || out.Data.Status != model.StatusSuccess {
		t.Fatalf("unexpected response: %+v", out)
	}
	if project, _ := f.totals(t); !project.Equal(decimal.NewFromInt(5000)) {
		t.Fatalf("project total = %s", project)
	}

	// public path refuses SUCCESS -> FAILED
	f.gw.verifyRes = &gateway.VerifyResult{Status: gateway.VerifyFailed, GatewayStatus: "reversed", ProviderRef: "77"}
	out, err = f.svc.Verify(context.Background(), res.Reference, false)
	if err != nil {
		t.Fatal(err)
	}
	if out.Verified || out.Data.Refused != 1 || out.Data.Status != model.StatusSuccess {
		t.Fatalf("unexpected response: %+v", out)
	}
	if d := f.donation(t, res.Reference); d.DonationStatus != model.StatusSuccess {
		t.Fatalf("status = %s, want SUCCESS", d.DonationStatus)
	}

	// operator override applies it
	out, err = f.svc.Verify(context.Background(), res.Reference, true)
	if err != nil {
		t.Fatal(err)
	}
	if out.Data.Status != model.StatusFailed || out.Data.Updated != 1 {
		t.Fatalf("unexpected response: %+v", out)
	}
	project, branch := f.totals(t)
	if !project.IsZero() || !branch.IsZero() {
		t.Fatalf("totals after override = %s / %s", project, branch)
	}
}

func TestVerifyKeepsWebhookSideEffects(t *testing.T) {
	f := setup(t)
	res := f.checkout(t, 5000)
	body := chargeSuccess(res.DonationID.String(), res.Reference, 500000, "AUTH_hook")
	if err := f.svc.HandleWebhook(context.Background(), signed(body)); err != nil {
		t.Fatal(err)
	}

	f.gw.verifyRes = &gateway.VerifyResult{Status: gateway.VerifySuccess, GatewayStatus: "success", ProviderRef: "4242"}
	if _, err := f.svc.Verify(context.Background(), res.Reference, false); err != nil {
		t.Fatal(err)
	}

	d := f.donation(t, res.Reference)
	if *d.DonationAuthorizationCode != "AUTH_hook" || string(d.DonationMeta) != string(body) {
		t.Fatalf("verify touched webhook fields: %+v", d)
	}
	if *d.DonationProviderRef != "4242" {
		t.Fatalf("provider ref = %s, want 4242", *d.DonationProviderRef)
	}
	if project, _ := f.totals(t); !project.Equal(decimal.NewFromInt(5000)) {
		t.Fatalf("project total = %s", project)
	}
}

func TestVerifyPendingLeavesDonation(t *testing.T) {
	f := setup(t)
	res := f.checkout(t, 5000)
	f.gw.verifyRes = &gateway.VerifyResult{Status: gateway.VerifyPending, GatewayStatus: "pending"}

	out, err := f.svc.Verify(context.Background(), res.Reference, false)
	if err != nil {
		t.Fatal(err)
	}
	if out.Verified || out.Data.Status != model.StatusPending || out.Data.Updated != 0 {
		t.Fatalf("unexpected response: %+v", out)
	}
}

func TestVerifyErrors(t *testing.T) {
	f := setup(t)

	_, err := f.svc.Verify(context.Background(), "  ", false)
	assertKind(t, err, helper.KindValidation)

	_, err = f.svc.Verify(context.Background(), "don_missing", false)
	assertKind(t, err, helper.KindNotFound)
	if f.gw.verifyCalls.Load() != 0 {
		t.Fatal("gateway called for unknown reference")
	}

	res := f.checkout(t, 5000)
	f.gw.verifyErr = context.DeadlineExceeded
	_, err = f.svc.Verify(context.Background(), res.Reference, false)
	assertKind(t, err, helper.KindUpstream)
	var ae *helper.AppError
	if errors.As(err, &ae) && ae.Status() != 504 {
		t.Fatalf("timeout status = %d, want 504", ae.Status())
	}
	if d := f.donation(t, res.Reference); d.DonationStatus != model.StatusPending {
		t.Fatalf("status = %s, want PENDING", d.DonationStatus)
	}
}
