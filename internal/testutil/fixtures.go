package testutil

import (
	"time"

	"github.com/fredcarvalho/notafiscal/internal/domain/charge"
	"github.com/fredcarvalho/notafiscal/internal/domain/fiscal"
	"github.com/google/uuid"
)

func NewTestProfile(sellerID string) *fiscal.Profile {
	now := time.Now()
	return &fiscal.Profile{
		ID:                    uuid.New(),
		SellerID:              sellerID,
		TaxID:                 "12345678000190",
		LegalName:             "Fred Carvalho Cursos LTDA",
		MunicipalRegistration: "87654321",
		Address: fiscal.Address{
			Street:     "Rua das Laranjeiras",
			Number:     "42",
			District:   "Laranjeiras",
			City:       "Rio de Janeiro",
			State:      "RJ",
			PostalCode: "22240000",
		},
		ServiceCode:      "0802",
		GatewayCompanyID: "company-123",
		PixKey:           "11999220270",
		SerialLabel:      "RPS",
		CurrentNumber:    1,
		LotNumber:        1,
		Environment:      fiscal.EnvironmentDevelopment,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

func NewTestSnapshot(amountCents int64) fiscal.Snapshot {
	return fiscal.Snapshot{
		Kind: fiscal.SourceInline,
		Customer: fiscal.Customer{
			Name:  "Maria Oliveira",
			Email: "maria@example.com",
			TaxID: "12345678901",
		},
		AmountCents: amountCents,
		Description: "Curso de fotografia - turma 12",
	}
}

func NewTestDocument(profileID uuid.UUID, status fiscal.Status) *fiscal.Document {
	now := time.Now()
	return &fiscal.Document{
		ID:        uuid.New(),
		ProfileID: profileID,
		Snapshot:  NewTestSnapshot(12500),
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NewSubmittedDocument returns a document that already went through Submit:
// number assigned and gateway correlation id recorded.
func NewSubmittedDocument(profileID uuid.UUID, status fiscal.Status) *fiscal.Document {
	doc := NewTestDocument(profileID, status)
	serial := "RPS"
	number := int64(7)
	lot := int64(1)
	externalID := "inv-" + doc.ID.String()
	doc.Serial = &serial
	doc.Number = &number
	doc.Lot = &lot
	doc.ExternalID = &externalID
	return doc
}

func NewTestCharge(documentID uuid.UUID, amountCents int64) *charge.Charge {
	now := time.Now()
	return &charge.Charge{
		ID:            uuid.New(),
		DocumentID:    documentID,
		CorrelationID: uuid.New().String()[:25],
		AmountCents:   amountCents,
		Status:        charge.StatusPending,
		BRCode:        "00020101021226330014br.gov.bcb.pix0111testkey",
		ExpiresAt:     now.Add(24 * time.Hour),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func UUIDPtr(id uuid.UUID) *uuid.UUID {
	return &id
}

func StringPtr(s string) *string {
	return &s
}
