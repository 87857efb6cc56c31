package fiscal

import (
	"time"

	"github.com/fredcarvalho/notafiscal/internal/domain/errors"
	"github.com/google/uuid"
)

// Status represents the document status in the state machine
type Status string

const (
	StatusDraft      Status = "draft"
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusIssued     Status = "issued"
	StatusApproved   Status = "approved"
	StatusError      Status = "error"
	StatusCancelled  Status = "cancelled"
)

// Document represents one provisional service invoice (RPS) driven through
// the certification authority's asynchronous lifecycle.
type Document struct {
	ID          uuid.UUID
	ProfileID   uuid.UUID
	Snapshot    Snapshot
	Status      Status
	ExternalID  *string
	Serial      *string
	Number      *int64
	Lot         *int64
	PDFURL      *string
	XMLURL      *string
	LastError   *string
	RawResponse []byte
	// AwaitingSend is set when the gateway reports the document needs an
	// explicit send action before it moves on.
	AwaitingSend  bool
	CancelPending bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
	EmittedAt     *time.Time
}

// NewDocument creates a document in draft holding the resolved snapshot.
func NewDocument(profileID uuid.UUID, snap Snapshot) (*Document, error) {
	if profileID == uuid.Nil {
		return nil, errors.NewValidationError("profile_id", "cannot be empty")
	}
	if snap.AmountCents <= 0 {
		return nil, errors.NewValidationError("amount", "must be greater than 0")
	}

	now := time.Now()
	return &Document{
		ID:        uuid.New(),
		ProfileID: profileID,
		Snapshot:  snap,
		Status:    StatusDraft,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// CanTransitionTo checks if the document can transition to the given status.
// A transition to the current status is always a legal no-op: overlapping
// polls re-apply whatever the gateway last reported.
func (d *Document) CanTransitionTo(newStatus Status) bool {
	if newStatus == d.Status {
		return true
	}

	transitions := map[Status][]Status{
		StatusDraft: {
			StatusPending,
			StatusProcessing,
			StatusError,
		},
		StatusPending: {
			StatusProcessing,
			StatusIssued,
			StatusApproved,
			StatusError,
			StatusCancelled,
		},
		StatusProcessing: {
			StatusIssued,
			StatusApproved,
			StatusError,
			StatusCancelled,
		},
		StatusIssued: {
			StatusApproved,
			StatusProcessing, // cancellation still being processed by the gateway
			StatusCancelled,
		},
		StatusApproved: {
			StatusProcessing, // cancellation still being processed by the gateway
			StatusCancelled,
		},
		StatusError: {
			StatusPending, // explicit retry
		},
		StatusCancelled: {}, // Terminal state
	}

	allowed, exists := transitions[d.Status]
	if !exists {
		return false
	}
	for _, s := range allowed {
		if s == newStatus {
			return true
		}
	}
	return false
}

// TransitionTo transitions the document to a new status.
func (d *Document) TransitionTo(newStatus Status) error {
	if !d.CanTransitionTo(newStatus) {
		return errors.NewDomainError(
			"invalid_transition",
			"cannot transition from "+string(d.Status)+" to "+string(newStatus),
			errors.ErrInvalidStateTransition,
		)
	}

	d.Status = newStatus
	d.UpdatedAt = time.Now()

	if (newStatus == StatusIssued || newStatus == StatusApproved) && d.EmittedAt == nil {
		now := time.Now()
		d.EmittedAt = &now
	}
	return nil
}

// AssignNumber fixes the reserved serial, number and lot on the document.
// The assignment happens exactly once; a document that already holds a
// number keeps it across retries.
func (d *Document) AssignNumber(serial string, number, lot int64) error {
	if d.Number != nil {
		return errors.ErrNumberAlreadyAssigned
	}
	d.Serial = &serial
	d.Number = &number
	d.Lot = &lot
	d.UpdatedAt = time.Now()
	return nil
}

// HasNumber reports whether a fiscal number was already reserved.
func (d *Document) HasNumber() bool {
	return d.Number != nil
}

// MarkSubmitted records the gateway's correlation id after a successful
// issue request and moves into the mapped status.
func (d *Document) MarkSubmitted(externalID string, mapped Mapping) error {
	if err := d.applyMapping(mapped); err != nil {
		return err
	}
	d.ExternalID = &externalID
	return nil
}

// ApplyPoll re-applies the gateway's latest reported status. The gateway is
// the source of truth: a later poll always wins over locally cached state.
func (d *Document) ApplyPoll(mapped Mapping, pdfURL, xmlURL *string) error {
	if err := d.applyMapping(mapped); err != nil {
		return err
	}
	if pdfURL != nil {
		d.PDFURL = pdfURL
	}
	if xmlURL != nil {
		d.XMLURL = xmlURL
	}
	return nil
}

func (d *Document) applyMapping(mapped Mapping) error {
	if err := d.TransitionTo(mapped.Status); err != nil {
		return err
	}
	d.AwaitingSend = mapped.AwaitingSend
	if mapped.Status == StatusError {
		msg := mapped.ErrorText()
		d.LastError = &msg
	} else {
		// success overwrites any previous error text
		d.LastError = nil
	}
	if mapped.Status == StatusCancelled {
		d.CancelPending = false
	}
	return nil
}

// MarkError records a transport or validation failure as the document error.
func (d *Document) MarkError(msg string) error {
	if err := d.TransitionTo(StatusError); err != nil {
		return err
	}
	d.LastError = &msg
	return nil
}

// MarkRetrying re-enters pending from error for an explicit retry.
func (d *Document) MarkRetrying() error {
	if d.Status != StatusError {
		return errors.NewDomainError(
			"invalid_retry",
			"retry is only allowed from error, current status is "+string(d.Status),
			errors.ErrInvalidStateTransition,
		)
	}
	if err := d.TransitionTo(StatusPending); err != nil {
		return err
	}
	d.LastError = nil
	return nil
}

// MarkCancelPending flags that the gateway accepted the cancel request but
// is still processing it. The caller must poll again.
func (d *Document) MarkCancelPending() error {
	if err := d.TransitionTo(StatusProcessing); err != nil {
		return err
	}
	d.CancelPending = true
	return nil
}

// MarkCancelled moves to the cancelled terminal state.
func (d *Document) MarkCancelled() error {
	if err := d.TransitionTo(StatusCancelled); err != nil {
		return err
	}
	d.CancelPending = false
	return nil
}

// IsTerminal checks if the document is in a terminal state.
func (d *Document) IsTerminal() bool {
	return d.Status == StatusApproved || d.Status == StatusCancelled
}

// Payable reports whether a payment charge may be created for the document.
func (d *Document) Payable() bool {
	return d.Status == StatusIssued || d.Status == StatusApproved
}

// Submittable reports whether Submit may run for the document.
func (d *Document) Submittable() bool {
	return d.Status == StatusDraft || d.Status == StatusPending
}
