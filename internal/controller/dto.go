package controller

import (
	"time"

	"github.com/fredcarvalho/notafiscal/internal/domain/charge"
	"github.com/fredcarvalho/notafiscal/internal/domain/fiscal"
	"github.com/google/uuid"
)

// --- Request DTOs ---
// These DTOs handle HTTP/JSON concerns (string IDs, validation tags).
// Controllers convert these to service layer inputs before calling
// business logic. Money travels as integer cents end to end.

// AddressRequest holds a seller's registered address.
type AddressRequest struct {
	Street     string `json:"street"`
	Number     string `json:"number"`
	District   string `json:"district"`
	City       string `json:"city" validate:"required"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
}

// CreateProfileRequest holds the input for registering a fiscal profile.
type CreateProfileRequest struct {
	SellerID              string         `json:"seller_id" validate:"required"`
	TaxID                 string         `json:"tax_id" validate:"required"`
	LegalName             string         `json:"legal_name" validate:"required"`
	MunicipalRegistration string         `json:"municipal_registration,omitempty"`
	ServiceCode           string         `json:"service_code" validate:"required"`
	GatewayCompanyID      string         `json:"gateway_company_id,omitempty"`
	PixKey                string         `json:"pix_key,omitempty"`
	SerialLabel           string         `json:"serial_label,omitempty"`
	StartNumber           int64          `json:"start_number,omitempty" validate:"gte=0"`
	Environment           string         `json:"environment,omitempty" validate:"omitempty,oneof=Development Production"`
	Address               AddressRequest `json:"address"`
}

// UpdateProfileRequest holds partial profile changes. The numbering fields
// are not accepted here; the sequence endpoints own those.
type UpdateProfileRequest struct {
	LegalName             *string         `json:"legal_name,omitempty"`
	MunicipalRegistration *string         `json:"municipal_registration,omitempty"`
	ServiceCode           *string         `json:"service_code,omitempty"`
	GatewayCompanyID      *string         `json:"gateway_company_id,omitempty"`
	PixKey                *string         `json:"pix_key,omitempty"`
	Environment           *string         `json:"environment,omitempty" validate:"omitempty,oneof=Development Production"`
	Address               *AddressRequest `json:"address,omitempty"`
}

// CustomerRequest is the service borrower for inline sources.
type CustomerRequest struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"omitempty,email"`
	TaxID string `json:"tax_id,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// InlineSourceRequest carries customer and amount directly.
type InlineSourceRequest struct {
	Customer    CustomerRequest `json:"customer" validate:"required"`
	AmountCents int64           `json:"amount_cents" validate:"required,gt=0"`
	Description string          `json:"description" validate:"required"`
}

// SubmitInvoiceRequest holds the input for emitting an invoice. Exactly one
// of course_payment_id, sale_id, or inline must be set.
type SubmitInvoiceRequest struct {
	ProfileID       string               `json:"profile_id" validate:"required,uuid"`
	CoursePaymentID *string              `json:"course_payment_id,omitempty" validate:"omitempty,uuid"`
	SaleID          *string              `json:"sale_id,omitempty" validate:"omitempty,uuid"`
	Inline          *InlineSourceRequest `json:"inline,omitempty"`
}

// CancelInvoiceRequest holds the cancellation reason.
type CancelInvoiceRequest struct {
	Reason string `json:"reason" validate:"required"`
}

// --- Response DTOs ---

// ProfileResponse represents a fiscal profile in API responses.
type ProfileResponse struct {
	ID                    string          `json:"id"`
	SellerID              string          `json:"seller_id"`
	TaxID                 string          `json:"tax_id"`
	LegalName             string          `json:"legal_name"`
	MunicipalRegistration string          `json:"municipal_registration,omitempty"`
	ServiceCode           string          `json:"service_code"`
	GatewayCompanyID      string          `json:"gateway_company_id,omitempty"`
	PixKey                string          `json:"pix_key,omitempty"`
	SerialLabel           string          `json:"serial_label"`
	CurrentNumber         int64           `json:"current_number"`
	LotNumber             int64           `json:"lot_number"`
	Environment           string          `json:"environment"`
	Address               AddressResponse `json:"address"`
	CreatedAt             time.Time       `json:"created_at"`
	UpdatedAt             time.Time       `json:"updated_at"`
}

// AddressResponse mirrors AddressRequest on the way out.
type AddressResponse struct {
	Street     string `json:"street,omitempty"`
	Number     string `json:"number,omitempty"`
	District   string `json:"district,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
}

// InvoiceResponse represents a fiscal document in API responses.
type InvoiceResponse struct {
	ID             string     `json:"id"`
	ProfileID      string     `json:"profile_id"`
	Status         string     `json:"status"`
	SourceKind     string     `json:"source_kind"`
	SourceRef      *string    `json:"source_ref,omitempty"`
	CustomerName   string     `json:"customer_name"`
	CustomerEmail  string     `json:"customer_email,omitempty"`
	CustomerTaxID  string     `json:"customer_tax_id,omitempty"`
	AmountCents    int64      `json:"amount_cents"`
	Description    string     `json:"description"`
	ExternalID     *string    `json:"external_id,omitempty"`
	Serial         *string    `json:"serial,omitempty"`
	Number         *int64     `json:"number,omitempty"`
	Lot            *int64     `json:"lot,omitempty"`
	PDFURL         *string    `json:"pdf_url,omitempty"`
	XMLURL         *string    `json:"xml_url,omitempty"`
	LastError      *string    `json:"last_error,omitempty"`
	AwaitingSend   bool       `json:"awaiting_send"`
	CancelPending  bool       `json:"cancel_pending"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	EmittedAt      *time.Time `json:"emitted_at,omitempty"`
}

// ChargeResponse represents a payment charge in API responses. QRImage is
// base64 PNG bytes for locally rendered codes; provider charges carry a
// hosted image URL instead.
type ChargeResponse struct {
	ID            string     `json:"id"`
	DocumentID    string     `json:"document_id"`
	CorrelationID string     `json:"correlation_id"`
	AmountCents   int64      `json:"amount_cents"`
	Status        string     `json:"status"`
	BRCode        string     `json:"brcode"`
	QRImage       []byte     `json:"qr_image,omitempty"`
	QRImageURL    *string    `json:"qr_image_url,omitempty"`
	LocalFallback bool       `json:"local_fallback"`
	ExpiresAt     time.Time  `json:"expires_at"`
	PaidAt        *time.Time `json:"paid_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// LotResponse carries the lot counter after an explicit advance.
type LotResponse struct {
	LotNumber int64 `json:"lot_number"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// --- Conversion helpers ---

// FromProfile converts a fiscal profile to API response.
func FromProfile(p *fiscal.Profile) *ProfileResponse {
	return &ProfileResponse{
		ID:                    p.ID.String(),
		SellerID:              p.SellerID,
		TaxID:                 p.TaxID,
		LegalName:             p.LegalName,
		MunicipalRegistration: p.MunicipalRegistration,
		ServiceCode:           p.ServiceCode,
		GatewayCompanyID:      p.GatewayCompanyID,
		PixKey:                p.PixKey,
		SerialLabel:           p.SerialLabel,
		CurrentNumber:         p.CurrentNumber,
		LotNumber:             p.LotNumber,
		Environment:           string(p.Environment),
		Address: AddressResponse{
			Street:     p.Address.Street,
			Number:     p.Address.Number,
			District:   p.Address.District,
			City:       p.Address.City,
			State:      p.Address.State,
			PostalCode: p.Address.PostalCode,
		},
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

// FromDocument converts a fiscal document to API response.
func FromDocument(d *fiscal.Document) *InvoiceResponse {
	resp := &InvoiceResponse{
		ID:            d.ID.String(),
		ProfileID:     d.ProfileID.String(),
		Status:        string(d.Status),
		SourceKind:    string(d.Snapshot.Kind),
		CustomerName:  d.Snapshot.Customer.Name,
		CustomerEmail: d.Snapshot.Customer.Email,
		CustomerTaxID: d.Snapshot.Customer.TaxID,
		AmountCents:   d.Snapshot.AmountCents,
		Description:   d.Snapshot.Description,
		ExternalID:    d.ExternalID,
		Serial:        d.Serial,
		Number:        d.Number,
		Lot:           d.Lot,
		PDFURL:        d.PDFURL,
		XMLURL:        d.XMLURL,
		LastError:     d.LastError,
		AwaitingSend:  d.AwaitingSend,
		CancelPending: d.CancelPending,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
		EmittedAt:     d.EmittedAt,
	}
	if d.Snapshot.SourceRef != nil {
		ref := d.Snapshot.SourceRef.String()
		resp.SourceRef = &ref
	}
	return resp
}

// FromCharge converts a payment charge to API response.
func FromCharge(c *charge.Charge) *ChargeResponse {
	return &ChargeResponse{
		ID:            c.ID.String(),
		DocumentID:    c.DocumentID.String(),
		CorrelationID: c.CorrelationID,
		AmountCents:   c.AmountCents,
		Status:        string(c.Status),
		BRCode:        c.BRCode,
		QRImage:       c.QRImage,
		QRImageURL:    c.QRImageURL,
		LocalFallback: c.LocalFallback,
		ExpiresAt:     c.ExpiresAt,
		PaidAt:        c.PaidAt,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}

// toAddress converts the request address into the domain value.
func toAddress(a AddressRequest) fiscal.Address {
	return fiscal.Address{
		Street:     a.Street,
		Number:     a.Number,
		District:   a.District,
		City:       a.City,
		State:      a.State,
		PostalCode: a.PostalCode,
	}
}

// parseUUID parses a UUID string, returning nil if invalid.
func parseUUID(s string) *uuid.UUID {
	if s == "" {
		return nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil
	}
	return &id
}
