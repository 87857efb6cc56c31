package postgres

import (
	"context"
	"fmt"

	"github.com/fredcarvalho/notafiscal/internal/domain/charge"
	domainErrors "github.com/fredcarvalho/notafiscal/internal/domain/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ChargeRepository implements charge.Repository using PostgreSQL.
type ChargeRepository struct {
	pool *pgxpool.Pool
}

// NewChargeRepository creates a new ChargeRepository.
func NewChargeRepository(pool *pgxpool.Pool) *ChargeRepository {
	return &ChargeRepository{pool: pool}
}

func (r *ChargeRepository) db(ctx context.Context) DBTX {
	return ConnFromCtx(ctx, r.pool)
}

const chargeColumns = `id, document_id, correlation_id, amount_cents, status,
	br_code, qr_image, qr_image_url, local_fallback,
	expires_at, paid_at, provider_response, created_at, updated_at`

// Create inserts a new charge.
func (r *ChargeRepository) Create(ctx context.Context, c *charge.Charge) error {
	_, err := r.db(ctx).Exec(ctx,
		`INSERT INTO charges
		 (id, document_id, correlation_id, amount_cents, status,
		  br_code, qr_image, qr_image_url, local_fallback,
		  expires_at, paid_at, provider_response, created_at, updated_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`,
		c.ID, c.DocumentID, c.CorrelationID, c.AmountCents, string(c.Status),
		c.BRCode, c.QRImage, c.QRImageURL, c.LocalFallback,
		c.ExpiresAt, c.PaidAt, c.ProviderResponse, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert charge: %w", err)
	}
	return nil
}

// GetByCorrelationID retrieves a charge by its provider correlation id.
func (r *ChargeRepository) GetByCorrelationID(ctx context.Context, correlationID string) (*charge.Charge, error) {
	return r.scanCharge(r.db(ctx).QueryRow(ctx,
		`SELECT `+chargeColumns+` FROM charges WHERE correlation_id = $1`, correlationID))
}

// GetLatestByDocumentID retrieves the most recent charge for a document.
// Lapsed rows stay behind it in creation order.
func (r *ChargeRepository) GetLatestByDocumentID(ctx context.Context, documentID uuid.UUID) (*charge.Charge, error) {
	return r.scanCharge(r.db(ctx).QueryRow(ctx,
		`SELECT `+chargeColumns+` FROM charges WHERE document_id = $1
		 ORDER BY created_at DESC LIMIT 1`, documentID))
}

// Update updates an existing charge.
func (r *ChargeRepository) Update(ctx context.Context, c *charge.Charge) error {
	tag, err := r.db(ctx).Exec(ctx,
		`UPDATE charges SET
		  status=$1, br_code=$2, qr_image=$3, qr_image_url=$4, local_fallback=$5,
		  paid_at=$6, provider_response=$7, updated_at=$8
		 WHERE id=$9`,
		string(c.Status), c.BRCode, c.QRImage, c.QRImageURL, c.LocalFallback,
		c.PaidAt, c.ProviderResponse, c.UpdatedAt, c.ID,
	)
	if err != nil {
		return fmt.Errorf("update charge: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrChargeNotFound
	}
	return nil
}

// ListPending lists non-terminal charges for the reconciliation worker,
// oldest first.
func (r *ChargeRepository) ListPending(ctx context.Context, limit int) ([]*charge.Charge, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db(ctx).Query(ctx,
		`SELECT `+chargeColumns+` FROM charges
		 WHERE status = 'pending'
		 ORDER BY updated_at ASC
		 LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending charges: %w", err)
	}
	defer rows.Close()

	var charges []*charge.Charge
	for rows.Next() {
		c, err := r.scanCharge(rows)
		if err != nil {
			return nil, err
		}
		charges = append(charges, c)
	}
	return charges, rows.Err()
}

func (r *ChargeRepository) scanCharge(s scanner) (*charge.Charge, error) {
	c := &charge.Charge{}
	var status string
	err := s.Scan(
		&c.ID, &c.DocumentID, &c.CorrelationID, &c.AmountCents, &status,
		&c.BRCode, &c.QRImage, &c.QRImageURL, &c.LocalFallback,
		&c.ExpiresAt, &c.PaidAt, &c.ProviderResponse, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domainErrors.ErrChargeNotFound
		}
		return nil, fmt.Errorf("scan charge: %w", err)
	}
	c.Status = charge.Status(status)
	return c, nil
}
