package service

import (
	"context"
	"testing"
	"time"

	"github.com/fredcarvalho/notafiscal/internal/domain/charge"
	domainErrors "github.com/fredcarvalho/notafiscal/internal/domain/errors"
	"github.com/fredcarvalho/notafiscal/internal/domain/fiscal"
	"github.com/fredcarvalho/notafiscal/internal/gateway/pix"
	"github.com/fredcarvalho/notafiscal/internal/testutil"
	"github.com/fredcarvalho/notafiscal/pkg/brcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Test Helpers ---

func setupChargeService() (*ChargeService, *testutil.MockChargeRepository, *testutil.MockDocumentRepository, *testutil.MockProfileRepository, *testutil.MockPaymentGateway) {
	chargeRepo := testutil.NewMockChargeRepository()
	docRepo := testutil.NewMockDocumentRepository()
	profileRepo := testutil.NewMockProfileRepository()
	gateway := &testutil.MockPaymentGateway{}

	svc := NewChargeService(chargeRepo, docRepo, profileRepo, gateway, 24*time.Hour)
	return svc, chargeRepo, docRepo, profileRepo, gateway
}

func payableDocument(profileRepo *testutil.MockProfileRepository, docRepo *testutil.MockDocumentRepository) *fiscal.Document {
	profile := testutil.NewTestProfile("seller-1")
	profileRepo.AddProfile(profile)
	doc := testutil.NewSubmittedDocument(profile.ID, fiscal.StatusIssued)
	docRepo.AddDocument(doc)
	return doc
}

// --- CreateForDocument Tests ---

func TestCreateForDocument_ProviderCharge(t *testing.T) {
	svc, chargeRepo, docRepo, profileRepo, gateway := setupChargeService()
	ctx := context.Background()

	doc := payableDocument(profileRepo, docRepo)

	gateway.CreateChargeFunc = func(ctx context.Context, req pix.ChargeRequest) (*pix.Charge, error) {
		assert.Equal(t, int64(12500), req.Value)
		assert.Equal(t, int64(86400), req.ExpiresIn)
		assert.Len(t, req.CorrelationID, 25)
		return &pix.Charge{
			CorrelationID: req.CorrelationID,
			Status:        "ACTIVE",
			BRCode:        "00020101provider-code6304ABCD",
			QRCodeImage:   "https://provider.example/qr/abc.png",
		}, nil
	}

	c, err := svc.CreateForDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, charge.StatusPending, c.Status)
	assert.False(t, c.LocalFallback)
	assert.Equal(t, "00020101provider-code6304ABCD", c.BRCode)
	require.NotNil(t, c.QRImageURL)
	assert.Nil(t, c.QRImage)

	stored, err := chargeRepo.GetByCorrelationID(ctx, c.CorrelationID)
	require.NoError(t, err)
	assert.Equal(t, c.ID, stored.ID)
}

func TestCreateForDocument_LocalFallback(t *testing.T) {
	svc, _, docRepo, profileRepo, gateway := setupChargeService()
	ctx := context.Background()

	doc := payableDocument(profileRepo, docRepo)

	gateway.CreateChargeFunc = func(ctx context.Context, req pix.ChargeRequest) (*pix.Charge, error) {
		return nil, domainErrors.ErrGatewayUnavailable
	}

	c, err := svc.CreateForDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.True(t, c.LocalFallback)
	assert.NotEmpty(t, c.BRCode)
	assert.NotEmpty(t, c.QRImage)
	assert.Nil(t, c.QRImageURL)

	// the fallback payload is a valid, checksummed code for the profile key
	payload, err := brcode.Parse(c.BRCode)
	require.NoError(t, err)
	assert.Equal(t, "11999220270", payload.ReceiverKey)
	assert.Equal(t, "125.00", payload.Amount.StringFixed(2))
	assert.Equal(t, c.CorrelationID, payload.TxID)
}

func TestCreateForDocument_FallbackWithoutKeyFails(t *testing.T) {
	svc, chargeRepo, docRepo, profileRepo, gateway := setupChargeService()
	ctx := context.Background()

	profile := testutil.NewTestProfile("seller-1")
	profile.PixKey = ""
	profileRepo.AddProfile(profile)
	doc := testutil.NewSubmittedDocument(profile.ID, fiscal.StatusIssued)
	docRepo.AddDocument(doc)

	gateway.CreateChargeFunc = func(ctx context.Context, req pix.ChargeRequest) (*pix.Charge, error) {
		return nil, domainErrors.ErrGatewayUnavailable
	}

	_, err := svc.CreateForDocument(ctx, doc.ID)
	require.Error(t, err)

	_, err = chargeRepo.GetLatestByDocumentID(ctx, doc.ID)
	assert.ErrorIs(t, err, domainErrors.ErrChargeNotFound)
}

func TestCreateForDocument_NotPayable(t *testing.T) {
	svc, _, docRepo, profileRepo, _ := setupChargeService()
	ctx := context.Background()

	profile := testutil.NewTestProfile("seller-1")
	profileRepo.AddProfile(profile)
	doc := testutil.NewTestDocument(profile.ID, fiscal.StatusProcessing)
	docRepo.AddDocument(doc)

	_, err := svc.CreateForDocument(ctx, doc.ID)
	assert.ErrorIs(t, err, domainErrors.ErrDocumentNotPayable)
}

func TestCreateForDocument_IdempotentWhileActive(t *testing.T) {
	svc, _, docRepo, profileRepo, gateway := setupChargeService()
	ctx := context.Background()

	doc := payableDocument(profileRepo, docRepo)

	calls := 0
	gateway.CreateChargeFunc = func(ctx context.Context, req pix.ChargeRequest) (*pix.Charge, error) {
		calls++
		return &pix.Charge{CorrelationID: req.CorrelationID, Status: "ACTIVE", BRCode: "payload"}, nil
	}

	first, err := svc.CreateForDocument(ctx, doc.ID)
	require.NoError(t, err)
	second, err := svc.CreateForDocument(ctx, doc.ID)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, calls)
}

func TestCreateForDocument_ReplacesExpired(t *testing.T) {
	svc, chargeRepo, docRepo, profileRepo, _ := setupChargeService()
	ctx := context.Background()

	doc := payableDocument(profileRepo, docRepo)

	old := testutil.NewTestCharge(doc.ID, 12500)
	old.Status = charge.StatusExpired
	chargeRepo.AddCharge(old)

	c, err := svc.CreateForDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.NotEqual(t, old.ID, c.ID)
	assert.Equal(t, charge.StatusPending, c.Status)

	// the expired row is retained for audit
	stored, err := chargeRepo.GetByCorrelationID(ctx, old.CorrelationID)
	require.NoError(t, err)
	assert.Equal(t, charge.StatusExpired, stored.Status)
}

// --- CheckStatus Tests ---

func TestCheckStatus_MarksPaid(t *testing.T) {
	svc, chargeRepo, docRepo, profileRepo, gateway := setupChargeService()
	ctx := context.Background()

	doc := payableDocument(profileRepo, docRepo)
	c := testutil.NewTestCharge(doc.ID, 12500)
	chargeRepo.AddCharge(c)

	gateway.GetChargeFunc = func(ctx context.Context, correlationID string) (*pix.Charge, error) {
		return &pix.Charge{CorrelationID: correlationID, Status: "COMPLETED"}, nil
	}

	got, err := svc.CheckStatus(ctx, c.CorrelationID)
	require.NoError(t, err)
	assert.Equal(t, charge.StatusPaid, got.Status)
	assert.NotNil(t, got.PaidAt)
}

func TestCheckStatus_ExpiresLapsedCharge(t *testing.T) {
	svc, chargeRepo, docRepo, profileRepo, gateway := setupChargeService()
	ctx := context.Background()

	doc := payableDocument(profileRepo, docRepo)
	c := testutil.NewTestCharge(doc.ID, 12500)
	c.ExpiresAt = time.Now().Add(-time.Minute)
	chargeRepo.AddCharge(c)

	called := false
	gateway.GetChargeFunc = func(ctx context.Context, correlationID string) (*pix.Charge, error) {
		called = true
		return nil, nil
	}

	got, err := svc.CheckStatus(ctx, c.CorrelationID)
	require.NoError(t, err)
	assert.Equal(t, charge.StatusExpired, got.Status)
	assert.False(t, called)
}

func TestCheckStatus_LocalFallbackNeverReconciled(t *testing.T) {
	svc, chargeRepo, docRepo, profileRepo, gateway := setupChargeService()
	ctx := context.Background()

	doc := payableDocument(profileRepo, docRepo)
	c := testutil.NewTestCharge(doc.ID, 12500)
	c.LocalFallback = true
	chargeRepo.AddCharge(c)

	called := false
	gateway.GetChargeFunc = func(ctx context.Context, correlationID string) (*pix.Charge, error) {
		called = true
		return nil, nil
	}

	got, err := svc.CheckStatus(ctx, c.CorrelationID)
	require.NoError(t, err)
	assert.Equal(t, charge.StatusPending, got.Status)
	assert.False(t, called)
}

func TestCheckStatus_ProviderErrorLeavesChargeAlone(t *testing.T) {
	svc, chargeRepo, docRepo, profileRepo, gateway := setupChargeService()
	ctx := context.Background()

	doc := payableDocument(profileRepo, docRepo)
	c := testutil.NewTestCharge(doc.ID, 12500)
	chargeRepo.AddCharge(c)

	gateway.GetChargeFunc = func(ctx context.Context, correlationID string) (*pix.Charge, error) {
		return nil, domainErrors.ErrGatewayTimeout
	}

	got, err := svc.CheckStatus(ctx, c.CorrelationID)
	assert.ErrorIs(t, err, domainErrors.ErrGatewayTimeout)
	assert.Equal(t, charge.StatusPending, got.Status)
}

// --- MarkPaid Tests ---

func TestMarkPaid_LocalFallbackOnly(t *testing.T) {
	svc, chargeRepo, docRepo, profileRepo, _ := setupChargeService()
	ctx := context.Background()

	doc := payableDocument(profileRepo, docRepo)

	provider := testutil.NewTestCharge(doc.ID, 12500)
	chargeRepo.AddCharge(provider)

	_, err := svc.MarkPaid(ctx, provider.CorrelationID)
	assert.ErrorIs(t, err, domainErrors.ErrNotLocalFallback)

	local := testutil.NewTestCharge(doc.ID, 12500)
	local.LocalFallback = true
	chargeRepo.AddCharge(local)

	got, err := svc.MarkPaid(ctx, local.CorrelationID)
	require.NoError(t, err)
	assert.Equal(t, charge.StatusPaid, got.Status)
	require.NotNil(t, got.PaidAt)

	// settling twice is rejected
	_, err = svc.MarkPaid(ctx, local.CorrelationID)
	assert.ErrorIs(t, err, domainErrors.ErrChargeTerminal)
}
