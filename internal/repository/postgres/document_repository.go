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

// DocumentRepository implements fiscal.DocumentRepository using PostgreSQL.
type DocumentRepository struct {
	pool *pgxpool.Pool
}

// NewDocumentRepository creates a new DocumentRepository.
func NewDocumentRepository(pool *pgxpool.Pool) *DocumentRepository {
	return &DocumentRepository{pool: pool}
}

func (r *DocumentRepository) db(ctx context.Context) DBTX {
	return ConnFromCtx(ctx, r.pool)
}

// scanner is satisfied by both pgx.Row and pgx.Rows.
type scanner interface {
	Scan(dest ...any) error
}

const documentColumns = `id, profile_id, status,
	source_kind, source_ref, customer_name, customer_email, customer_tax_id, customer_phone,
	amount_cents, description,
	external_id, serial, number, lot, pdf_url, xml_url, last_error, raw_response,
	awaiting_send, cancel_pending, created_at, updated_at, emitted_at`

// Create inserts a new document.
func (r *DocumentRepository) Create(ctx context.Context, d *fiscal.Document) error {
	_, err := r.db(ctx).Exec(ctx,
		`INSERT INTO fiscal_documents
		 (id, profile_id, status,
		  source_kind, source_ref, customer_name, customer_email, customer_tax_id, customer_phone,
		  amount_cents, description,
		  external_id, serial, number, lot, pdf_url, xml_url, last_error, raw_response,
		  awaiting_send, cancel_pending, created_at, updated_at, emitted_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24)`,
		d.ID, d.ProfileID, string(d.Status),
		string(d.Snapshot.Kind), d.Snapshot.SourceRef, d.Snapshot.Customer.Name, d.Snapshot.Customer.Email,
		d.Snapshot.Customer.TaxID, d.Snapshot.Customer.Phone,
		d.Snapshot.AmountCents, d.Snapshot.Description,
		d.ExternalID, d.Serial, d.Number, d.Lot, d.PDFURL, d.XMLURL, d.LastError, d.RawResponse,
		d.AwaitingSend, d.CancelPending, d.CreatedAt, d.UpdatedAt, d.EmittedAt,
	)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

// GetByID retrieves a document by its ID.
func (r *DocumentRepository) GetByID(ctx context.Context, id uuid.UUID) (*fiscal.Document, error) {
	return r.scanDocument(r.db(ctx).QueryRow(ctx,
		`SELECT `+documentColumns+` FROM fiscal_documents WHERE id = $1`, id))
}

// Update updates an existing document. The snapshot columns are immutable
// after creation and never rewritten.
func (r *DocumentRepository) Update(ctx context.Context, d *fiscal.Document) error {
	tag, err := r.db(ctx).Exec(ctx,
		`UPDATE fiscal_documents SET
		  status=$1, external_id=$2, serial=$3, number=$4, lot=$5,
		  pdf_url=$6, xml_url=$7, last_error=$8, raw_response=$9,
		  awaiting_send=$10, cancel_pending=$11, updated_at=$12, emitted_at=$13
		 WHERE id=$14`,
		string(d.Status), d.ExternalID, d.Serial, d.Number, d.Lot,
		d.PDFURL, d.XMLURL, d.LastError, d.RawResponse,
		d.AwaitingSend, d.CancelPending, d.UpdatedAt, d.EmittedAt, d.ID,
	)
	if err != nil {
		return fmt.Errorf("update document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrDocumentNotFound
	}
	return nil
}

// List lists documents with optional filters.
func (r *DocumentRepository) List(ctx context.Context, f fiscal.ListFilter) ([]*fiscal.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM fiscal_documents WHERE 1=1`
	args := []any{}
	argIdx := 1

	if f.ProfileID != nil {
		query += fmt.Sprintf(" AND profile_id = $%d", argIdx)
		args = append(args, *f.ProfileID)
		argIdx++
	}
	if f.Status != nil {
		query += fmt.Sprintf(" AND status = $%d", argIdx)
		args = append(args, string(*f.Status))
		argIdx++
	}

	query += " ORDER BY created_at DESC"

	limit := f.Limit
	if limit <= 0 {
		limit = 20
	}
	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	args = append(args, limit, f.Offset)

	rows, err := r.db(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var docs []*fiscal.Document
	for rows.Next() {
		d, err := r.scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// ListNonTerminal lists submitted documents the reconciler should keep
// polling, oldest first.
func (r *DocumentRepository) ListNonTerminal(ctx context.Context, limit int) ([]*fiscal.Document, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db(ctx).Query(ctx,
		`SELECT `+documentColumns+`
		 FROM fiscal_documents
		 WHERE status NOT IN ('approved', 'cancelled') AND external_id IS NOT NULL
		 ORDER BY updated_at ASC
		 LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list non-terminal documents: %w", err)
	}
	defer rows.Close()

	var docs []*fiscal.Document
	for rows.Next() {
		d, err := r.scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

func (r *DocumentRepository) scanDocument(s scanner) (*fiscal.Document, error) {
	d := &fiscal.Document{}
	var status, sourceKind string
	err := s.Scan(
		&d.ID, &d.ProfileID, &status,
		&sourceKind, &d.Snapshot.SourceRef, &d.Snapshot.Customer.Name, &d.Snapshot.Customer.Email,
		&d.Snapshot.Customer.TaxID, &d.Snapshot.Customer.Phone,
		&d.Snapshot.AmountCents, &d.Snapshot.Description,
		&d.ExternalID, &d.Serial, &d.Number, &d.Lot, &d.PDFURL, &d.XMLURL, &d.LastError, &d.RawResponse,
		&d.AwaitingSend, &d.CancelPending, &d.CreatedAt, &d.UpdatedAt, &d.EmittedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domainErrors.ErrDocumentNotFound
		}
		return nil, fmt.Errorf("scan document: %w", err)
	}
	d.Status = fiscal.Status(status)
	d.Snapshot.Kind = fiscal.SourceKind(sourceKind)
	return d, nil
}
