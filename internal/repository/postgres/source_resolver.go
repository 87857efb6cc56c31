package postgres

import (
	"context"
	"fmt"

	domainErrors "github.com/fredcarvalho/notafiscal/internal/domain/errors"
	"github.com/fredcarvalho/notafiscal/internal/domain/fiscal"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SourceResolver resolves course-payment and one-off-sale references against
// the platform tables sharing this database.
type SourceResolver struct {
	pool *pgxpool.Pool
}

// NewSourceResolver creates a new SourceResolver.
func NewSourceResolver(pool *pgxpool.Pool) *SourceResolver {
	return &SourceResolver{pool: pool}
}

func (r *SourceResolver) db(ctx context.Context) DBTX {
	return ConnFromCtx(ctx, r.pool)
}

// Resolve loads the referenced record and flattens it into a snapshot.
func (r *SourceResolver) Resolve(ctx context.Context, kind fiscal.SourceKind, id uuid.UUID) (*fiscal.Snapshot, error) {
	var query string
	switch kind {
	case fiscal.SourceCoursePayment:
		query = `SELECT customer_name, customer_email, customer_tax_id, customer_phone, amount_cents, course_name
			 FROM course_payments WHERE id = $1`
	case fiscal.SourceOneOffSale:
		query = `SELECT customer_name, customer_email, customer_tax_id, customer_phone, amount_cents, description
			 FROM one_off_sales WHERE id = $1`
	default:
		return nil, domainErrors.ErrInvalidSource
	}

	snap := &fiscal.Snapshot{}
	err := r.db(ctx).QueryRow(ctx, query, id).Scan(
		&snap.Customer.Name, &snap.Customer.Email, &snap.Customer.TaxID, &snap.Customer.Phone,
		&snap.AmountCents, &snap.Description,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domainErrors.NewDomainError(
				"source_not_found",
				fmt.Sprintf("%s %s does not exist", kind, id),
				domainErrors.ErrInvalidSource,
			)
		}
		return nil, fmt.Errorf("resolve %s: %w", kind, err)
	}
	return snap, nil
}
