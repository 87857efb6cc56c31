package charge

import (
	"time"

	"github.com/fredcarvalho/notafiscal/internal/domain/errors"
	"github.com/google/uuid"
)

// Status represents the charge status
type Status string

const (
	StatusPending   Status = "pending"
	StatusPaid      Status = "paid"
	StatusExpired   Status = "expired"
	StatusCancelled Status = "cancelled"
	StatusFailed    Status = "failed"
)

// Charge is an instant-payment charge tied one-to-one to a fiscal document.
// Amount is snapshotted from the document at creation and never changes.
// Expired rows are retained for audit; only the status moves.
type Charge struct {
	ID            uuid.UUID
	DocumentID    uuid.UUID
	CorrelationID string
	AmountCents   int64
	Status        Status
	BRCode        string
	QRImage       []byte  // PNG, set for locally rendered codes
	QRImageURL    *string // provider-hosted image, set for provider charges
	// LocalFallback marks a code encoded locally because the provider was
	// unreachable. It is not a registered charge on the provider side and
	// can only be settled by an explicit operator action.
	LocalFallback    bool
	ExpiresAt        time.Time
	PaidAt           *time.Time
	ProviderResponse []byte
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// New creates a pending charge for a document.
func New(documentID uuid.UUID, correlationID string, amountCents int64, expiresIn time.Duration) (*Charge, error) {
	if documentID == uuid.Nil {
		return nil, errors.NewValidationError("document_id", "cannot be empty")
	}
	if correlationID == "" {
		return nil, errors.NewValidationError("correlation_id", "cannot be empty")
	}
	if amountCents <= 0 {
		return nil, errors.NewValidationError("amount", "must be greater than 0")
	}

	now := time.Now()
	return &Charge{
		ID:            uuid.New(),
		DocumentID:    documentID,
		CorrelationID: correlationID,
		AmountCents:   amountCents,
		Status:        StatusPending,
		ExpiresAt:     now.Add(expiresIn),
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// IsTerminal checks if the charge is in a terminal state.
func (c *Charge) IsTerminal() bool {
	return c.Status == StatusPaid ||
		c.Status == StatusExpired ||
		c.Status == StatusCancelled ||
		c.Status == StatusFailed
}

// Active reports whether the charge can still collect: pending and not past
// its expiry.
func (c *Charge) Active(now time.Time) bool {
	return c.Status == StatusPending && now.Before(c.ExpiresAt)
}

// MarkPaid settles the charge.
func (c *Charge) MarkPaid(at time.Time) error {
	if c.IsTerminal() {
		return errors.ErrChargeTerminal
	}
	c.Status = StatusPaid
	c.PaidAt = &at
	c.UpdatedAt = time.Now()
	return nil
}

// MarkExpired moves a pending charge past its collection window.
func (c *Charge) MarkExpired() error {
	if c.IsTerminal() {
		return errors.ErrChargeTerminal
	}
	c.Status = StatusExpired
	c.UpdatedAt = time.Now()
	return nil
}

// MarkCancelled records a provider-side cancellation.
func (c *Charge) MarkCancelled() error {
	if c.IsTerminal() {
		return errors.ErrChargeTerminal
	}
	c.Status = StatusCancelled
	c.UpdatedAt = time.Now()
	return nil
}

// MarkFailed records a charge that could not be created anywhere.
func (c *Charge) MarkFailed() error {
	if c.IsTerminal() {
		return errors.ErrChargeTerminal
	}
	c.Status = StatusFailed
	c.UpdatedAt = time.Now()
	return nil
}
