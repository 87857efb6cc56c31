package fiscal

import (
	"context"

	"github.com/google/uuid"
)

// ProfileRepository defines the interface for fiscal profile persistence.
type ProfileRepository interface {
	// Create creates a new fiscal profile
	Create(ctx context.Context, profile *Profile) error

	// GetByID retrieves a profile by ID
	GetByID(ctx context.Context, id uuid.UUID) (*Profile, error)

	// GetBySellerID retrieves a profile by seller ID
	GetBySellerID(ctx context.Context, sellerID string) (*Profile, error)

	// Update updates the registration fields of a profile
	Update(ctx context.Context, profile *Profile) error

	// Lock loads a profile holding a row lock for the duration of the
	// surrounding transaction (SELECT FOR UPDATE). Callers must run it
	// inside a transaction context.
	Lock(ctx context.Context, id uuid.UUID) (*Profile, error)

	// SetCurrentNumber writes the counter. Only the sequence service calls
	// this, under the lock taken by Lock.
	SetCurrentNumber(ctx context.Context, id uuid.UUID, number int64) error

	// SetLotNumber advances the lot counter.
	SetLotNumber(ctx context.Context, id uuid.UUID, lot int64) error
}

// DocumentRepository defines the interface for fiscal document persistence.
type DocumentRepository interface {
	// Create creates a new document
	Create(ctx context.Context, doc *Document) error

	// GetByID retrieves a document by ID
	GetByID(ctx context.Context, id uuid.UUID) (*Document, error)

	// Update updates an existing document
	Update(ctx context.Context, doc *Document) error

	// List lists documents with filters
	List(ctx context.Context, filter ListFilter) ([]*Document, error)

	// ListNonTerminal lists documents the reconciler should keep polling.
	ListNonTerminal(ctx context.Context, limit int) ([]*Document, error)
}

// ListFilter defines filters for listing documents.
type ListFilter struct {
	ProfileID *uuid.UUID
	Status    *Status
	Limit     int
	Offset    int
}
