package postgres

import (
	"context"
	"errors"
	"fmt"

	domainErrors "github.com/fredcarvalho/notafiscal/internal/domain/errors"
	"github.com/fredcarvalho/notafiscal/internal/domain/fiscal"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ProfileRepository implements fiscal.ProfileRepository using PostgreSQL.
type ProfileRepository struct {
	pool *pgxpool.Pool
}

// NewProfileRepository creates a new ProfileRepository.
func NewProfileRepository(pool *pgxpool.Pool) *ProfileRepository {
	return &ProfileRepository{pool: pool}
}

func (r *ProfileRepository) db(ctx context.Context) DBTX {
	return ConnFromCtx(ctx, r.pool)
}

const profileColumns = `id, seller_id, tax_id, legal_name, municipal_registration,
	address_street, address_number, address_district, address_city, address_state, address_postal_code,
	service_code, gateway_company_id, pix_key, serial_label, current_number, lot_number,
	environment, created_at, updated_at`

// Create inserts a new fiscal profile.
func (r *ProfileRepository) Create(ctx context.Context, p *fiscal.Profile) error {
	_, err := r.db(ctx).Exec(ctx,
		`INSERT INTO fiscal_profiles
		 (id, seller_id, tax_id, legal_name, municipal_registration,
		  address_street, address_number, address_district, address_city, address_state, address_postal_code,
		  service_code, gateway_company_id, pix_key, serial_label, current_number, lot_number,
		  environment, created_at, updated_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20)`,
		p.ID, p.SellerID, p.TaxID, p.LegalName, p.MunicipalRegistration,
		p.Address.Street, p.Address.Number, p.Address.District, p.Address.City, p.Address.State, p.Address.PostalCode,
		p.ServiceCode, p.GatewayCompanyID, p.PixKey, p.SerialLabel, p.CurrentNumber, p.LotNumber,
		string(p.Environment), p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domainErrors.ErrProfileExists
		}
		return fmt.Errorf("insert profile: %w", err)
	}
	return nil
}

// GetByID retrieves a profile by its ID.
func (r *ProfileRepository) GetByID(ctx context.Context, id uuid.UUID) (*fiscal.Profile, error) {
	return r.scanProfile(r.db(ctx).QueryRow(ctx,
		`SELECT `+profileColumns+` FROM fiscal_profiles WHERE id = $1`, id))
}

// GetBySellerID retrieves a profile by seller ID.
func (r *ProfileRepository) GetBySellerID(ctx context.Context, sellerID string) (*fiscal.Profile, error) {
	return r.scanProfile(r.db(ctx).QueryRow(ctx,
		`SELECT `+profileColumns+` FROM fiscal_profiles WHERE seller_id = $1`, sellerID))
}

// Update updates the registration fields of a profile. The numbering columns
// are owned by SetCurrentNumber and SetLotNumber and never written here.
func (r *ProfileRepository) Update(ctx context.Context, p *fiscal.Profile) error {
	tag, err := r.db(ctx).Exec(ctx,
		`UPDATE fiscal_profiles SET
		  legal_name=$1, municipal_registration=$2,
		  address_street=$3, address_number=$4, address_district=$5, address_city=$6, address_state=$7, address_postal_code=$8,
		  service_code=$9, gateway_company_id=$10, pix_key=$11, environment=$12, updated_at=$13
		 WHERE id=$14`,
		p.LegalName, p.MunicipalRegistration,
		p.Address.Street, p.Address.Number, p.Address.District, p.Address.City, p.Address.State, p.Address.PostalCode,
		p.ServiceCode, p.GatewayCompanyID, p.PixKey, string(p.Environment), p.UpdatedAt, p.ID,
	)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrProfileNotFound
	}
	return nil
}

// Lock loads a profile with FOR UPDATE, blocking concurrent reservations for
// the same seller until the surrounding transaction ends.
func (r *ProfileRepository) Lock(ctx context.Context, id uuid.UUID) (*fiscal.Profile, error) {
	return r.scanProfile(r.db(ctx).QueryRow(ctx,
		`SELECT `+profileColumns+` FROM fiscal_profiles WHERE id = $1 FOR UPDATE`, id))
}

// SetCurrentNumber writes the RPS counter.
func (r *ProfileRepository) SetCurrentNumber(ctx context.Context, id uuid.UUID, number int64) error {
	tag, err := r.db(ctx).Exec(ctx,
		`UPDATE fiscal_profiles SET current_number=$1, updated_at=NOW() WHERE id=$2`, number, id)
	if err != nil {
		return fmt.Errorf("set current number: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrProfileNotFound
	}
	return nil
}

// SetLotNumber writes the lot counter.
func (r *ProfileRepository) SetLotNumber(ctx context.Context, id uuid.UUID, lot int64) error {
	tag, err := r.db(ctx).Exec(ctx,
		`UPDATE fiscal_profiles SET lot_number=$1, updated_at=NOW() WHERE id=$2`, lot, id)
	if err != nil {
		return fmt.Errorf("set lot number: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrProfileNotFound
	}
	return nil
}

func (r *ProfileRepository) scanProfile(row pgx.Row) (*fiscal.Profile, error) {
	p := &fiscal.Profile{}
	var environment string
	err := row.Scan(
		&p.ID, &p.SellerID, &p.TaxID, &p.LegalName, &p.MunicipalRegistration,
		&p.Address.Street, &p.Address.Number, &p.Address.District, &p.Address.City, &p.Address.State, &p.Address.PostalCode,
		&p.ServiceCode, &p.GatewayCompanyID, &p.PixKey, &p.SerialLabel, &p.CurrentNumber, &p.LotNumber,
		&environment, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domainErrors.ErrProfileNotFound
		}
		return nil, fmt.Errorf("scan profile: %w", err)
	}
	p.Environment = fiscal.Environment(environment)
	return p, nil
}
