package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	domainErrors "github.com/fredcarvalho/notafiscal/internal/domain/errors"
	"github.com/fredcarvalho/notafiscal/internal/domain/fiscal"
)

// ProfileService manages the fiscal identities sellers register when they
// opt into invoice emission.
type ProfileService struct {
	profileRepo fiscal.ProfileRepository
}

// NewProfileService creates a new ProfileService.
func NewProfileService(profileRepo fiscal.ProfileRepository) *ProfileService {
	return &ProfileService{profileRepo: profileRepo}
}

// CreateProfileInput carries the registration fields.
type CreateProfileInput struct {
	SellerID              string
	TaxID                 string
	LegalName             string
	MunicipalRegistration string
	ServiceCode           string
	GatewayCompanyID      string
	PixKey                string
	SerialLabel           string
	StartNumber           int64
	Environment           string
	Address               fiscal.Address
}

// Create registers a fiscal profile for a seller. Each seller holds at most
// one profile.
func (s *ProfileService) Create(ctx context.Context, in CreateProfileInput) (*fiscal.Profile, error) {
	existing, err := s.profileRepo.GetBySellerID(ctx, in.SellerID)
	if err != nil && !errors.Is(err, domainErrors.ErrProfileNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, domainErrors.NewDomainError(
			"profile_exists",
			"seller "+in.SellerID+" already has a fiscal profile",
			domainErrors.ErrProfileExists,
		)
	}

	profile, err := fiscal.NewProfile(in.SellerID, in.TaxID, in.LegalName, in.ServiceCode, in.Address)
	if err != nil {
		return nil, err
	}
	profile.MunicipalRegistration = in.MunicipalRegistration
	profile.GatewayCompanyID = in.GatewayCompanyID
	profile.PixKey = in.PixKey
	if in.SerialLabel != "" {
		profile.SerialLabel = in.SerialLabel
	}
	if in.StartNumber > 0 {
		profile.CurrentNumber = in.StartNumber
	}
	if in.Environment != "" {
		env, err := parseEnvironment(in.Environment)
		if err != nil {
			return nil, err
		}
		profile.Environment = env
	}

	if err := s.profileRepo.Create(ctx, profile); err != nil {
		return nil, fmt.Errorf("create profile: %w", err)
	}
	return profile, nil
}

// GetBySellerID returns the seller's fiscal profile.
func (s *ProfileService) GetBySellerID(ctx context.Context, sellerID string) (*fiscal.Profile, error) {
	return s.profileRepo.GetBySellerID(ctx, sellerID)
}

// UpdateProfileInput carries the mutable registration fields. Nil pointers
// leave the current value untouched.
type UpdateProfileInput struct {
	LegalName             *string
	MunicipalRegistration *string
	ServiceCode           *string
	GatewayCompanyID      *string
	PixKey                *string
	Environment           *string
	Address               *fiscal.Address
}

// Update applies partial changes to a seller's profile. The numbering fields
// are deliberately absent: the sequence service owns those.
func (s *ProfileService) Update(ctx context.Context, sellerID string, in UpdateProfileInput) (*fiscal.Profile, error) {
	profile, err := s.profileRepo.GetBySellerID(ctx, sellerID)
	if err != nil {
		return nil, err
	}

	if in.LegalName != nil {
		profile.LegalName = *in.LegalName
	}
	if in.MunicipalRegistration != nil {
		profile.MunicipalRegistration = *in.MunicipalRegistration
	}
	if in.ServiceCode != nil {
		profile.ServiceCode = *in.ServiceCode
	}
	if in.GatewayCompanyID != nil {
		profile.GatewayCompanyID = *in.GatewayCompanyID
	}
	if in.PixKey != nil {
		profile.PixKey = *in.PixKey
	}
	if in.Environment != nil {
		env, err := parseEnvironment(*in.Environment)
		if err != nil {
			return nil, err
		}
		profile.Environment = env
	}
	if in.Address != nil {
		profile.Address = *in.Address
	}
	profile.UpdatedAt = time.Now()

	if err := s.profileRepo.Update(ctx, profile); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return profile, nil
}

func parseEnvironment(s string) (fiscal.Environment, error) {
	switch fiscal.Environment(s) {
	case fiscal.EnvironmentDevelopment, fiscal.EnvironmentProduction:
		return fiscal.Environment(s), nil
	default:
		return "", domainErrors.NewValidationError("environment", "must be Development or Production")
	}
}
