package testutil

import (
	"context"
	"sort"
	"sync"

	"github.com/fredcarvalho/notafiscal/internal/domain/charge"
	domainErrors "github.com/fredcarvalho/notafiscal/internal/domain/errors"
	"github.com/fredcarvalho/notafiscal/internal/domain/fiscal"
	"github.com/fredcarvalho/notafiscal/internal/gateway/nfse"
	"github.com/fredcarvalho/notafiscal/internal/gateway/pix"
	"github.com/google/uuid"
)

// --- Profile Repository Mock ---

// MockProfileRepository is a mock implementation of fiscal.ProfileRepository.
type MockProfileRepository struct {
	mu       sync.Mutex
	profiles map[uuid.UUID]*fiscal.Profile

	CreateFunc           func(ctx context.Context, profile *fiscal.Profile) error
	GetByIDFunc          func(ctx context.Context, id uuid.UUID) (*fiscal.Profile, error)
	GetBySellerIDFunc    func(ctx context.Context, sellerID string) (*fiscal.Profile, error)
	UpdateFunc           func(ctx context.Context, profile *fiscal.Profile) error
	LockFunc             func(ctx context.Context, id uuid.UUID) (*fiscal.Profile, error)
	SetCurrentNumberFunc func(ctx context.Context, id uuid.UUID, number int64) error
	SetLotNumberFunc     func(ctx context.Context, id uuid.UUID, lot int64) error
}

func NewMockProfileRepository() *MockProfileRepository {
	return &MockProfileRepository{
		profiles: make(map[uuid.UUID]*fiscal.Profile),
	}
}

// AddProfile pre-populates the mock with a profile.
func (m *MockProfileRepository) AddProfile(p *fiscal.Profile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[p.ID] = p
}

func (m *MockProfileRepository) Create(ctx context.Context, profile *fiscal.Profile) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, profile)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[profile.ID] = profile
	return nil
}

func (m *MockProfileRepository) GetByID(ctx context.Context, id uuid.UUID) (*fiscal.Profile, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[id]
	if !ok {
		return nil, domainErrors.ErrProfileNotFound
	}
	return p, nil
}

func (m *MockProfileRepository) GetBySellerID(ctx context.Context, sellerID string) (*fiscal.Profile, error) {
	if m.GetBySellerIDFunc != nil {
		return m.GetBySellerIDFunc(ctx, sellerID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.profiles {
		if p.SellerID == sellerID {
			return p, nil
		}
	}
	return nil, domainErrors.ErrProfileNotFound
}

func (m *MockProfileRepository) Update(ctx context.Context, profile *fiscal.Profile) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, profile)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[profile.ID] = profile
	return nil
}

func (m *MockProfileRepository) Lock(ctx context.Context, id uuid.UUID) (*fiscal.Profile, error) {
	if m.LockFunc != nil {
		return m.LockFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[id]
	if !ok {
		return nil, domainErrors.ErrProfileNotFound
	}
	return p, nil
}

func (m *MockProfileRepository) SetCurrentNumber(ctx context.Context, id uuid.UUID, number int64) error {
	if m.SetCurrentNumberFunc != nil {
		return m.SetCurrentNumberFunc(ctx, id, number)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[id]
	if !ok {
		return domainErrors.ErrProfileNotFound
	}
	p.CurrentNumber = number
	return nil
}

func (m *MockProfileRepository) SetLotNumber(ctx context.Context, id uuid.UUID, lot int64) error {
	if m.SetLotNumberFunc != nil {
		return m.SetLotNumberFunc(ctx, id, lot)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[id]
	if !ok {
		return domainErrors.ErrProfileNotFound
	}
	p.LotNumber = lot
	return nil
}

// --- Document Repository Mock ---

// MockDocumentRepository is a mock implementation of fiscal.DocumentRepository.
type MockDocumentRepository struct {
	mu        sync.Mutex
	documents map[uuid.UUID]*fiscal.Document

	CreateFunc          func(ctx context.Context, doc *fiscal.Document) error
	GetByIDFunc         func(ctx context.Context, id uuid.UUID) (*fiscal.Document, error)
	UpdateFunc          func(ctx context.Context, doc *fiscal.Document) error
	ListFunc            func(ctx context.Context, filter fiscal.ListFilter) ([]*fiscal.Document, error)
	ListNonTerminalFunc func(ctx context.Context, limit int) ([]*fiscal.Document, error)
}

func NewMockDocumentRepository() *MockDocumentRepository {
	return &MockDocumentRepository{
		documents: make(map[uuid.UUID]*fiscal.Document),
	}
}

// AddDocument pre-populates the mock with a document.
func (m *MockDocumentRepository) AddDocument(doc *fiscal.Document) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.documents[doc.ID] = doc
}

func (m *MockDocumentRepository) Create(ctx context.Context, doc *fiscal.Document) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, doc)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.documents[doc.ID] = doc
	return nil
}

func (m *MockDocumentRepository) GetByID(ctx context.Context, id uuid.UUID) (*fiscal.Document, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.documents[id]
	if !ok {
		return nil, domainErrors.ErrDocumentNotFound
	}
	return doc, nil
}

func (m *MockDocumentRepository) Update(ctx context.Context, doc *fiscal.Document) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, doc)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.documents[doc.ID] = doc
	return nil
}

func (m *MockDocumentRepository) List(ctx context.Context, filter fiscal.ListFilter) ([]*fiscal.Document, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, filter)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]*fiscal.Document, 0, len(m.documents))
	for _, doc := range m.documents {
		if filter.ProfileID != nil && doc.ProfileID != *filter.ProfileID {
			continue
		}
		if filter.Status != nil && doc.Status != *filter.Status {
			continue
		}
		result = append(result, doc)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func (m *MockDocumentRepository) ListNonTerminal(ctx context.Context, limit int) ([]*fiscal.Document, error) {
	if m.ListNonTerminalFunc != nil {
		return m.ListNonTerminalFunc(ctx, limit)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]*fiscal.Document, 0)
	for _, doc := range m.documents {
		if doc.IsTerminal() || doc.ExternalID == nil {
			continue
		}
		result = append(result, doc)
		if limit > 0 && len(result) >= limit {
			break
		}
	}
	return result, nil
}

// --- Charge Repository Mock ---

// MockChargeRepository is a mock implementation of charge.Repository.
type MockChargeRepository struct {
	mu      sync.Mutex
	charges map[uuid.UUID]*charge.Charge

	CreateFunc                func(ctx context.Context, c *charge.Charge) error
	GetByCorrelationIDFunc    func(ctx context.Context, correlationID string) (*charge.Charge, error)
	GetLatestByDocumentIDFunc func(ctx context.Context, documentID uuid.UUID) (*charge.Charge, error)
	UpdateFunc                func(ctx context.Context, c *charge.Charge) error
	ListPendingFunc           func(ctx context.Context, limit int) ([]*charge.Charge, error)
}

func NewMockChargeRepository() *MockChargeRepository {
	return &MockChargeRepository{
		charges: make(map[uuid.UUID]*charge.Charge),
	}
}

// AddCharge pre-populates the mock with a charge.
func (m *MockChargeRepository) AddCharge(c *charge.Charge) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.charges[c.ID] = c
}

func (m *MockChargeRepository) Create(ctx context.Context, c *charge.Charge) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, c)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.charges[c.ID] = c
	return nil
}

func (m *MockChargeRepository) GetByCorrelationID(ctx context.Context, correlationID string) (*charge.Charge, error) {
	if m.GetByCorrelationIDFunc != nil {
		return m.GetByCorrelationIDFunc(ctx, correlationID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.charges {
		if c.CorrelationID == correlationID {
			return c, nil
		}
	}
	return nil, domainErrors.ErrChargeNotFound
}

func (m *MockChargeRepository) GetLatestByDocumentID(ctx context.Context, documentID uuid.UUID) (*charge.Charge, error) {
	if m.GetLatestByDocumentIDFunc != nil {
		return m.GetLatestByDocumentIDFunc(ctx, documentID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var latest *charge.Charge
	for _, c := range m.charges {
		if c.DocumentID != documentID {
			continue
		}
		if latest == nil || c.CreatedAt.After(latest.CreatedAt) {
			latest = c
		}
	}
	if latest == nil {
		return nil, domainErrors.ErrChargeNotFound
	}
	return latest, nil
}

func (m *MockChargeRepository) Update(ctx context.Context, c *charge.Charge) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, c)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.charges[c.ID] = c
	return nil
}

func (m *MockChargeRepository) ListPending(ctx context.Context, limit int) ([]*charge.Charge, error) {
	if m.ListPendingFunc != nil {
		return m.ListPendingFunc(ctx, limit)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]*charge.Charge, 0)
	for _, c := range m.charges {
		if c.IsTerminal() {
			continue
		}
		result = append(result, c)
		if limit > 0 && len(result) >= limit {
			break
		}
	}
	return result, nil
}

// --- Transaction Manager Mock ---

// MockTransactionManager is a mock implementation of TransactionManager.
type MockTransactionManager struct {
	WithTransactionFunc func(ctx context.Context, fn func(ctx context.Context) error) error
}

func NewMockTransactionManager() *MockTransactionManager {
	return &MockTransactionManager{}
}

func (m *MockTransactionManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if m.WithTransactionFunc != nil {
		return m.WithTransactionFunc(ctx, fn)
	}
	return fn(ctx)
}

// --- Certification Gateway Mock ---

// MockCertificationGateway is a mock of the NFSe gateway client.
type MockCertificationGateway struct {
	IssueFunc  func(ctx context.Context, companyID string, req nfse.IssueRequest) (*nfse.Invoice, error)
	GetFunc    func(ctx context.Context, companyID, invoiceID string) (*nfse.Invoice, error)
	SendFunc   func(ctx context.Context, companyID, invoiceID string) (*nfse.Invoice, error)
	CancelFunc func(ctx context.Context, companyID, invoiceID, reason string) (*nfse.Invoice, error)

	IssueRequests []nfse.IssueRequest
}

func (m *MockCertificationGateway) Issue(ctx context.Context, companyID string, req nfse.IssueRequest) (*nfse.Invoice, error) {
	m.IssueRequests = append(m.IssueRequests, req)
	if m.IssueFunc != nil {
		return m.IssueFunc(ctx, companyID, req)
	}
	return &nfse.Invoice{ID: "inv-" + req.Reference, FlowStatus: "Processing"}, nil
}

func (m *MockCertificationGateway) Get(ctx context.Context, companyID, invoiceID string) (*nfse.Invoice, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, companyID, invoiceID)
	}
	return &nfse.Invoice{ID: invoiceID, FlowStatus: "Processing"}, nil
}

func (m *MockCertificationGateway) Send(ctx context.Context, companyID, invoiceID string) (*nfse.Invoice, error) {
	if m.SendFunc != nil {
		return m.SendFunc(ctx, companyID, invoiceID)
	}
	return &nfse.Invoice{ID: invoiceID, FlowStatus: "Processing"}, nil
}

func (m *MockCertificationGateway) Cancel(ctx context.Context, companyID, invoiceID, reason string) (*nfse.Invoice, error) {
	if m.CancelFunc != nil {
		return m.CancelFunc(ctx, companyID, invoiceID, reason)
	}
	return &nfse.Invoice{ID: invoiceID, FlowStatus: "Cancelled"}, nil
}

// --- Payment Gateway Mock ---

// MockPaymentGateway is a mock of the instant-payment provider client.
type MockPaymentGateway struct {
	CreateChargeFunc func(ctx context.Context, req pix.ChargeRequest) (*pix.Charge, error)
	GetChargeFunc    func(ctx context.Context, correlationID string) (*pix.Charge, error)
}

func (m *MockPaymentGateway) CreateCharge(ctx context.Context, req pix.ChargeRequest) (*pix.Charge, error) {
	if m.CreateChargeFunc != nil {
		return m.CreateChargeFunc(ctx, req)
	}
	return &pix.Charge{
		CorrelationID: req.CorrelationID,
		Status:        "ACTIVE",
		BRCode:        "00020101021226330014br.gov.bcb.pix0111testkey",
	}, nil
}

func (m *MockPaymentGateway) GetCharge(ctx context.Context, correlationID string) (*pix.Charge, error) {
	if m.GetChargeFunc != nil {
		return m.GetChargeFunc(ctx, correlationID)
	}
	return &pix.Charge{CorrelationID: correlationID, Status: "ACTIVE"}, nil
}

// --- Source Resolver Mock ---

// MockSourceResolver is a mock of the platform record resolver.
type MockSourceResolver struct {
	ResolveFunc func(ctx context.Context, kind fiscal.SourceKind, id uuid.UUID) (*fiscal.Snapshot, error)
}

func (m *MockSourceResolver) Resolve(ctx context.Context, kind fiscal.SourceKind, id uuid.UUID) (*fiscal.Snapshot, error) {
	if m.ResolveFunc != nil {
		return m.ResolveFunc(ctx, kind, id)
	}
	return nil, domainErrors.ErrInvalidSource
}
