package service

import (
	"context"

	"github.com/fredcarvalho/notafiscal/internal/domain/fiscal"
	"github.com/fredcarvalho/notafiscal/internal/gateway/nfse"
	"github.com/fredcarvalho/notafiscal/internal/gateway/pix"
	"github.com/google/uuid"
)

// CertificationGateway is the contract the document state machine depends
// on. The production implementation is gateway/nfse.Client.
type CertificationGateway interface {
	Issue(ctx context.Context, companyID string, req nfse.IssueRequest) (*nfse.Invoice, error)
	Get(ctx context.Context, companyID, invoiceID string) (*nfse.Invoice, error)
	Send(ctx context.Context, companyID, invoiceID string) (*nfse.Invoice, error)
	Cancel(ctx context.Context, companyID, invoiceID, reason string) (*nfse.Invoice, error)
}

// PaymentGateway is the contract the charge lifecycle depends on. The
// production implementation is gateway/pix.Client.
type PaymentGateway interface {
	CreateCharge(ctx context.Context, req pix.ChargeRequest) (*pix.Charge, error)
	GetCharge(ctx context.Context, correlationID string) (*pix.Charge, error)
}

// SourceResolver loads the linked platform record behind a course-payment
// or one-off-sale source reference.
type SourceResolver interface {
	Resolve(ctx context.Context, kind fiscal.SourceKind, id uuid.UUID) (*fiscal.Snapshot, error)
}
