package charge

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the interface for charge persistence.
type Repository interface {
	// Create creates a new charge
	Create(ctx context.Context, c *Charge) error

	// GetByCorrelationID retrieves a charge by its correlation id
	GetByCorrelationID(ctx context.Context, correlationID string) (*Charge, error)

	// GetLatestByDocumentID retrieves the most recent charge for a document
	GetLatestByDocumentID(ctx context.Context, documentID uuid.UUID) (*Charge, error)

	// Update updates an existing charge
	Update(ctx context.Context, c *Charge) error

	// ListPending lists non-fallback pending charges for reconciliation
	ListPending(ctx context.Context, limit int) ([]*Charge, error)
}
