package fiscal

import (
	"github.com/fredcarvalho/notafiscal/internal/domain/errors"
	"github.com/google/uuid"
)

// SourceKind identifies which record a document draws its amount and
// customer from.
type SourceKind string

const (
	SourceCoursePayment SourceKind = "course_payment"
	SourceOneOffSale    SourceKind = "one_off_sale"
	SourceInline        SourceKind = "inline"
)

// Customer is the service borrower as it appears on the invoice.
type Customer struct {
	Name  string
	Email string
	TaxID string // CPF or CNPJ, digits only
	Phone string
}

// Source is the variant input to document creation. Exactly one of
// CoursePaymentID, SaleID, or Inline must be set.
type Source struct {
	Kind            SourceKind
	CoursePaymentID *uuid.UUID
	SaleID          *uuid.UUID
	Inline          *InlineSource
}

// InlineSource carries customer and amount directly, for documents with no
// backing platform record.
type InlineSource struct {
	Customer    Customer
	AmountCents int64
	Description string
}

// Snapshot is the flat, immutable resolution of a Source, captured once at
// document creation. Later polls never re-derive it from the linked record.
type Snapshot struct {
	Kind        SourceKind
	SourceRef   *uuid.UUID
	Customer    Customer
	AmountCents int64
	Description string
}

// ResolveSource validates the variant and flattens it into a Snapshot. The
// resolver func loads the linked record for the course-payment and sale
// variants; it is not consulted for inline sources.
func ResolveSource(src Source, resolve func(kind SourceKind, id uuid.UUID) (*Snapshot, error)) (*Snapshot, error) {
	set := 0
	if src.CoursePaymentID != nil {
		set++
	}
	if src.SaleID != nil {
		set++
	}
	if src.Inline != nil {
		set++
	}
	if set != 1 {
		return nil, errors.ErrInvalidSource
	}

	var snap *Snapshot
	switch {
	case src.Inline != nil:
		snap = &Snapshot{
			Kind:        SourceInline,
			Customer:    src.Inline.Customer,
			AmountCents: src.Inline.AmountCents,
			Description: src.Inline.Description,
		}
	case src.CoursePaymentID != nil:
		s, err := resolve(SourceCoursePayment, *src.CoursePaymentID)
		if err != nil {
			return nil, err
		}
		snap = s
		snap.Kind = SourceCoursePayment
		snap.SourceRef = src.CoursePaymentID
	case src.SaleID != nil:
		s, err := resolve(SourceOneOffSale, *src.SaleID)
		if err != nil {
			return nil, err
		}
		snap = s
		snap.Kind = SourceOneOffSale
		snap.SourceRef = src.SaleID
	}

	if snap.AmountCents <= 0 {
		return nil, errors.NewValidationError("amount", "must be greater than 0")
	}
	if snap.Customer.Name == "" {
		return nil, errors.NewValidationError("customer.name", "cannot be empty")
	}
	return snap, nil
}
