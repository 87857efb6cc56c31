package service

import (
	"context"
	"fmt"
	"strings"

	domainErrors "github.com/fredcarvalho/notafiscal/internal/domain/errors"
	"github.com/fredcarvalho/notafiscal/internal/domain/fiscal"
	"github.com/fredcarvalho/notafiscal/internal/gateway/nfse"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DocumentService drives fiscal documents through the emission lifecycle:
// number reservation, submission to the certification gateway, status
// reconciliation, explicit send and cancellation.
type DocumentService struct {
	docRepo     fiscal.DocumentRepository
	profileRepo fiscal.ProfileRepository
	sequence    *SequenceService
	gateway     CertificationGateway
	resolver    SourceResolver
}

// NewDocumentService creates a new DocumentService.
func NewDocumentService(
	docRepo fiscal.DocumentRepository,
	profileRepo fiscal.ProfileRepository,
	sequence *SequenceService,
	gateway CertificationGateway,
	resolver SourceResolver,
) *DocumentService {
	return &DocumentService{
		docRepo:     docRepo,
		profileRepo: profileRepo,
		sequence:    sequence,
		gateway:     gateway,
		resolver:    resolver,
	}
}

// Create resolves the amount source into an immutable snapshot and persists
// a draft document for the seller's profile.
func (s *DocumentService) Create(ctx context.Context, profileID uuid.UUID, src fiscal.Source) (*fiscal.Document, error) {
	profile, err := s.profileRepo.GetByID(ctx, profileID)
	if err != nil {
		return nil, err
	}

	snap, err := fiscal.ResolveSource(src, func(kind fiscal.SourceKind, id uuid.UUID) (*fiscal.Snapshot, error) {
		return s.resolver.Resolve(ctx, kind, id)
	})
	if err != nil {
		return nil, err
	}

	doc, err := fiscal.NewDocument(profile.ID, *snap)
	if err != nil {
		return nil, err
	}
	if err := s.docRepo.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("create document: %w", err)
	}
	return doc, nil
}

// Submit reserves a fiscal number if the document does not hold one yet and
// issues it to the certification gateway. A gateway failure records the
// error on the document; the reserved number survives for the retry.
func (s *DocumentService) Submit(ctx context.Context, documentID uuid.UUID) (*fiscal.Document, error) {
	doc, err := s.docRepo.GetByID(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if !doc.Submittable() {
		return nil, domainErrors.NewDomainError(
			"invalid_transition",
			"document cannot be submitted from status "+string(doc.Status),
			domainErrors.ErrInvalidStateTransition,
		)
	}

	profile, err := s.profileRepo.GetByID(ctx, doc.ProfileID)
	if err != nil {
		return nil, err
	}
	if !profile.Complete() {
		return nil, domainErrors.NewDomainError(
			"profile_incomplete",
			"fiscal profile for seller "+profile.SellerID+" is missing required fields",
			domainErrors.ErrProfileIncomplete,
		)
	}

	if !doc.HasNumber() {
		res, err := s.sequence.Next(ctx, profile.ID)
		if err != nil {
			return nil, fmt.Errorf("reserve fiscal number: %w", err)
		}
		if err := doc.AssignNumber(res.Serial, res.Number, res.Lot); err != nil {
			return nil, err
		}
		// The assignment is persisted before the gateway call so a crash
		// mid-submit never re-reserves the same number.
		if err := s.docRepo.Update(ctx, doc); err != nil {
			return nil, fmt.Errorf("persist number assignment: %w", err)
		}
	}

	inv, err := s.gateway.Issue(ctx, profile.GatewayCompanyID, s.buildIssueRequest(doc, profile))
	if err != nil {
		if markErr := doc.MarkError(err.Error()); markErr == nil {
			_ = s.docRepo.Update(ctx, doc)
		}
		return doc, domainErrors.NewDomainError("emission_failed", "gateway rejected or failed the emission", err)
	}

	mapped := fiscal.MapGatewayStatus(inv.ReportedStatus())
	if err := doc.MarkSubmitted(inv.ID, mapped); err != nil {
		return nil, err
	}
	doc.RawResponse = inv.Raw
	if err := s.docRepo.Update(ctx, doc); err != nil {
		return nil, fmt.Errorf("persist submission: %w", err)
	}
	return doc, nil
}

// Poll fetches the gateway's current view of the document and re-applies the
// status mapping. Terminal documents are returned untouched.
func (s *DocumentService) Poll(ctx context.Context, documentID uuid.UUID) (*fiscal.Document, error) {
	doc, err := s.docRepo.GetByID(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if doc.IsTerminal() {
		return doc, nil
	}
	if doc.ExternalID == nil {
		return nil, domainErrors.NewDomainError(
			"not_submitted",
			"document has no gateway correlation id yet",
			domainErrors.ErrInvalidStateTransition,
		)
	}

	profile, err := s.profileRepo.GetByID(ctx, doc.ProfileID)
	if err != nil {
		return nil, err
	}

	inv, err := s.gateway.Get(ctx, profile.GatewayCompanyID, *doc.ExternalID)
	if err != nil {
		s.recordGatewayFailure(ctx, doc, err)
		return doc, domainErrors.NewDomainError("poll_failed", "could not fetch document status from gateway", err)
	}

	return s.applyInvoice(ctx, doc, inv)
}

// Send triggers the explicit send action for documents the gateway parked in
// a waiting-send state.
func (s *DocumentService) Send(ctx context.Context, documentID uuid.UUID) (*fiscal.Document, error) {
	doc, err := s.docRepo.GetByID(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if !doc.AwaitingSend || doc.ExternalID == nil {
		return nil, domainErrors.NewDomainError(
			"not_awaiting_send",
			"document is not waiting for an explicit send",
			domainErrors.ErrNotAwaitingSend,
		)
	}

	profile, err := s.profileRepo.GetByID(ctx, doc.ProfileID)
	if err != nil {
		return nil, err
	}

	inv, err := s.gateway.Send(ctx, profile.GatewayCompanyID, *doc.ExternalID)
	if err != nil {
		s.recordGatewayFailure(ctx, doc, err)
		return doc, domainErrors.NewDomainError("send_failed", "gateway send action failed", err)
	}

	return s.applyInvoice(ctx, doc, inv)
}

// Cancel asks the gateway to cancel an issued or approved document. The
// gateway decides whether the cancel completes immediately or stays pending.
func (s *DocumentService) Cancel(ctx context.Context, documentID uuid.UUID, reason string) (*fiscal.Document, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, domainErrors.NewValidationError("reason", "cannot be empty")
	}

	doc, err := s.docRepo.GetByID(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if !doc.Payable() || doc.ExternalID == nil {
		return nil, domainErrors.NewDomainError(
			"invalid_transition",
			"only issued or approved documents can be cancelled, current status is "+string(doc.Status),
			domainErrors.ErrInvalidStateTransition,
		)
	}

	profile, err := s.profileRepo.GetByID(ctx, doc.ProfileID)
	if err != nil {
		return nil, err
	}

	inv, err := s.gateway.Cancel(ctx, profile.GatewayCompanyID, *doc.ExternalID, reason)
	if err != nil {
		return doc, domainErrors.NewDomainError("cancel_failed", "gateway cancel request failed", err)
	}

	mapped := fiscal.MapGatewayStatus(inv.ReportedStatus())
	if mapped.Status == fiscal.StatusCancelled {
		if err := doc.MarkCancelled(); err != nil {
			return nil, err
		}
	} else {
		if err := doc.MarkCancelPending(); err != nil {
			return nil, err
		}
	}
	doc.RawResponse = inv.Raw
	if err := s.docRepo.Update(ctx, doc); err != nil {
		return nil, fmt.Errorf("persist cancellation: %w", err)
	}
	return doc, nil
}

// Retry re-enters the submission path for a document stuck in error. The
// previously reserved number is reused, never re-drawn.
func (s *DocumentService) Retry(ctx context.Context, documentID uuid.UUID) (*fiscal.Document, error) {
	doc, err := s.docRepo.GetByID(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if err := doc.MarkRetrying(); err != nil {
		return nil, err
	}
	if err := s.docRepo.Update(ctx, doc); err != nil {
		return nil, fmt.Errorf("persist retry: %w", err)
	}
	return s.Submit(ctx, documentID)
}

// Get returns the document by id.
func (s *DocumentService) Get(ctx context.Context, documentID uuid.UUID) (*fiscal.Document, error) {
	return s.docRepo.GetByID(ctx, documentID)
}

// List returns documents matching the filter.
func (s *DocumentService) List(ctx context.Context, filter fiscal.ListFilter) ([]*fiscal.Document, error) {
	return s.docRepo.List(ctx, filter)
}

func (s *DocumentService) applyInvoice(ctx context.Context, doc *fiscal.Document, inv *nfse.Invoice) (*fiscal.Document, error) {
	mapped := fiscal.MapGatewayStatus(inv.ReportedStatus())

	var pdfURL, xmlURL *string
	if inv.PDF != nil && inv.PDF.URL != "" {
		pdfURL = &inv.PDF.URL
	}
	if inv.XML != nil && inv.XML.URL != "" {
		xmlURL = &inv.XML.URL
	}

	if err := doc.ApplyPoll(mapped, pdfURL, xmlURL); err != nil {
		return nil, err
	}
	doc.RawResponse = inv.Raw
	if err := s.docRepo.Update(ctx, doc); err != nil {
		return nil, fmt.Errorf("persist poll result: %w", err)
	}
	return doc, nil
}

// recordGatewayFailure attaches the transport error to the document. Statuses
// that do not admit the error state (an already issued document, say) keep
// their status and only carry the error text.
func (s *DocumentService) recordGatewayFailure(ctx context.Context, doc *fiscal.Document, cause error) {
	if doc.CanTransitionTo(fiscal.StatusError) {
		if err := doc.MarkError(cause.Error()); err != nil {
			return
		}
	} else {
		msg := cause.Error()
		doc.LastError = &msg
	}
	_ = s.docRepo.Update(ctx, doc)
}

func (s *DocumentService) buildIssueRequest(doc *fiscal.Document, profile *fiscal.Profile) nfse.IssueRequest {
	borrowerType := "LegalEntity"
	if len(doc.Snapshot.Customer.TaxID) == 11 {
		borrowerType = "NaturalPerson"
	}

	return nfse.IssueRequest{
		Borrower: nfse.Borrower{
			Type:             borrowerType,
			Name:             doc.Snapshot.Customer.Name,
			Email:            doc.Snapshot.Customer.Email,
			FederalTaxNumber: doc.Snapshot.Customer.TaxID,
		},
		CityServiceCode: profile.ServiceCode,
		Description:     doc.Snapshot.Description,
		ServicesAmount:  decimal.New(doc.Snapshot.AmountCents, -2).StringFixed(2),
		Environment:     string(profile.Environment),
		Reference:       doc.ID.String(),
		RPSSerialNumber: derefString(doc.Serial),
		RPSNumber:       derefInt64(doc.Number),
	}
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefInt64(n *int64) int64 {
	if n == nil {
		return 0
	}
	return *n
}
