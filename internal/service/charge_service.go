package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fredcarvalho/notafiscal/internal/domain/charge"
	domainErrors "github.com/fredcarvalho/notafiscal/internal/domain/errors"
	"github.com/fredcarvalho/notafiscal/internal/domain/fiscal"
	"github.com/fredcarvalho/notafiscal/internal/gateway/pix"
	"github.com/fredcarvalho/notafiscal/pkg/brcode"
	"github.com/google/uuid"
)

const qrImageSize = 256

// ChargeService manages payment charges for payable documents. It registers
// the charge with the instant-payment provider when reachable and falls back
// to a locally encoded static code otherwise.
type ChargeService struct {
	chargeRepo  charge.Repository
	docRepo     fiscal.DocumentRepository
	profileRepo fiscal.ProfileRepository
	gateway     PaymentGateway
	expiresIn   time.Duration
}

// NewChargeService creates a new ChargeService.
func NewChargeService(
	chargeRepo charge.Repository,
	docRepo fiscal.DocumentRepository,
	profileRepo fiscal.ProfileRepository,
	gateway PaymentGateway,
	expiresIn time.Duration,
) *ChargeService {
	if expiresIn <= 0 {
		expiresIn = 24 * time.Hour
	}
	return &ChargeService{
		chargeRepo:  chargeRepo,
		docRepo:     docRepo,
		profileRepo: profileRepo,
		gateway:     gateway,
		expiresIn:   expiresIn,
	}
}

// CreateForDocument creates a charge for an issued or approved document. The
// call is idempotent: an existing active or settled charge is returned as-is
// and a new one is only created once the previous one lapsed.
func (s *ChargeService) CreateForDocument(ctx context.Context, documentID uuid.UUID) (*charge.Charge, error) {
	doc, err := s.docRepo.GetByID(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if !doc.Payable() {
		return nil, domainErrors.NewDomainError(
			"not_payable",
			"charges require an issued or approved document, current status is "+string(doc.Status),
			domainErrors.ErrDocumentNotPayable,
		)
	}

	existing, err := s.chargeRepo.GetLatestByDocumentID(ctx, documentID)
	if err != nil && !errors.Is(err, domainErrors.ErrChargeNotFound) {
		return nil, err
	}
	if existing != nil && (existing.Active(time.Now()) || existing.Status == charge.StatusPaid) {
		return existing, nil
	}

	profile, err := s.profileRepo.GetByID(ctx, doc.ProfileID)
	if err != nil {
		return nil, err
	}

	c, err := charge.New(doc.ID, newCorrelationID(), doc.Snapshot.AmountCents, s.expiresIn)
	if err != nil {
		return nil, err
	}

	providerCharge, provErr := s.gateway.CreateCharge(ctx, pix.ChargeRequest{
		CorrelationID: c.CorrelationID,
		Value:         c.AmountCents,
		Comment:       doc.Snapshot.Description,
		Customer: &pix.Customer{
			Name:  doc.Snapshot.Customer.Name,
			Email: doc.Snapshot.Customer.Email,
			Phone: doc.Snapshot.Customer.Phone,
			TaxID: doc.Snapshot.Customer.TaxID,
		},
		ExpiresIn: int64(s.expiresIn / time.Second),
	})
	if provErr == nil {
		c.BRCode = providerCharge.BRCode
		if providerCharge.QRCodeImage != "" {
			c.QRImageURL = &providerCharge.QRCodeImage
		}
		c.ProviderResponse = providerCharge.Raw
	} else {
		if err := s.encodeFallback(c, doc, profile, provErr); err != nil {
			return nil, err
		}
	}

	if err := s.chargeRepo.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create charge: %w", err)
	}
	return c, nil
}

// encodeFallback builds the static local code when the provider call failed.
// The provider error is kept on the row for audit.
func (s *ChargeService) encodeFallback(c *charge.Charge, doc *fiscal.Document, profile *fiscal.Profile, cause error) error {
	if profile.PixKey == "" {
		_ = c.MarkFailed()
		return domainErrors.NewDomainError(
			"charge_failed",
			"provider unreachable and profile has no receiver key for a local code",
			cause,
		)
	}

	payload, err := brcode.Encode(brcode.Request{
		ReceiverKey:  profile.PixKey,
		ReceiverName: profile.LegalName,
		ReceiverCity: profile.Address.City,
		AmountCents:  c.AmountCents,
		TxID:         c.CorrelationID,
	})
	if err != nil {
		_ = c.MarkFailed()
		return domainErrors.NewDomainError("charge_failed", "local payment code encoding failed", err)
	}

	png, err := brcode.QRImage(payload, qrImageSize)
	if err != nil {
		return domainErrors.NewDomainError("charge_failed", "local qr rendering failed", err)
	}

	c.BRCode = payload
	c.QRImage = png
	c.LocalFallback = true
	c.ProviderResponse = []byte(cause.Error())
	return nil
}

// CheckStatus reconciles the charge against the provider. Local fallback
// codes are never reconciled remotely; only expiry moves them.
func (s *ChargeService) CheckStatus(ctx context.Context, correlationID string) (*charge.Charge, error) {
	c, err := s.chargeRepo.GetByCorrelationID(ctx, correlationID)
	if err != nil {
		return nil, err
	}
	if c.IsTerminal() {
		return c, nil
	}

	if !time.Now().Before(c.ExpiresAt) {
		if err := c.MarkExpired(); err != nil {
			return nil, err
		}
		if err := s.chargeRepo.Update(ctx, c); err != nil {
			return nil, fmt.Errorf("persist expiry: %w", err)
		}
		return c, nil
	}

	if c.LocalFallback {
		return c, nil
	}

	providerCharge, err := s.gateway.GetCharge(ctx, c.CorrelationID)
	if err != nil {
		// transient; the next reconciliation pass retries
		return c, domainErrors.NewDomainError("status_check_failed", "could not fetch charge status from provider", err)
	}

	changed := true
	switch normalizeProviderStatus(providerCharge.Status) {
	case "completed", "paid":
		err = c.MarkPaid(time.Now())
	case "expired":
		err = c.MarkExpired()
	case "cancelled", "canceled":
		err = c.MarkCancelled()
	default:
		changed = false
	}
	if err != nil {
		return nil, err
	}
	if !changed {
		return c, nil
	}

	c.ProviderResponse = providerCharge.Raw
	if err := s.chargeRepo.Update(ctx, c); err != nil {
		return nil, fmt.Errorf("persist status: %w", err)
	}
	return c, nil
}

// MarkPaid settles a local fallback charge on an operator's word. Provider
// charges settle through reconciliation only.
func (s *ChargeService) MarkPaid(ctx context.Context, correlationID string) (*charge.Charge, error) {
	c, err := s.chargeRepo.GetByCorrelationID(ctx, correlationID)
	if err != nil {
		return nil, err
	}
	if !c.LocalFallback {
		return nil, domainErrors.NewDomainError(
			"not_local_fallback",
			"only locally encoded charges can be settled manually",
			domainErrors.ErrNotLocalFallback,
		)
	}
	if err := c.MarkPaid(time.Now()); err != nil {
		return nil, err
	}
	if err := s.chargeRepo.Update(ctx, c); err != nil {
		return nil, fmt.Errorf("persist settlement: %w", err)
	}
	return c, nil
}

// Get returns the charge by correlation id.
func (s *ChargeService) Get(ctx context.Context, correlationID string) (*charge.Charge, error) {
	return s.chargeRepo.GetByCorrelationID(ctx, correlationID)
}

// ListPending returns non-terminal charges for the reconciliation worker.
func (s *ChargeService) ListPending(ctx context.Context, limit int) ([]*charge.Charge, error) {
	return s.chargeRepo.ListPending(ctx, limit)
}

// newCorrelationID derives a short alphanumeric id that fits the 25-char
// transaction-id limit of the local payload format.
func newCorrelationID() string {
	id := strings.ReplaceAll(uuid.New().String(), "-", "")
	return id[:25]
}

func normalizeProviderStatus(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
