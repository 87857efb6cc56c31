package service

import (
	"context"
	"testing"

	domainErrors "github.com/fredcarvalho/notafiscal/internal/domain/errors"
	"github.com/fredcarvalho/notafiscal/internal/domain/fiscal"
	"github.com/fredcarvalho/notafiscal/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validProfileInput(sellerID string) CreateProfileInput {
	return CreateProfileInput{
		SellerID:         sellerID,
		TaxID:            "12.345.678/0001-90",
		LegalName:        "Fred Carvalho Cursos LTDA",
		ServiceCode:      "0802",
		GatewayCompanyID: "company-123",
		PixKey:           "11999220270",
		StartNumber:      100,
		Environment:      "Production",
		Address: fiscal.Address{
			City:  "Rio de Janeiro",
			State: "RJ",
		},
	}
}

func TestCreateProfile(t *testing.T) {
	profileRepo := testutil.NewMockProfileRepository()
	svc := NewProfileService(profileRepo)
	ctx := context.Background()

	p, err := svc.Create(ctx, validProfileInput("seller-1"))
	require.NoError(t, err)
	assert.Equal(t, "12345678000190", p.TaxID) // punctuation stripped
	assert.Equal(t, "RPS", p.SerialLabel)
	assert.Equal(t, int64(100), p.CurrentNumber)
	assert.Equal(t, fiscal.EnvironmentProduction, p.Environment)
	assert.True(t, p.Complete())
}

func TestCreateProfile_DuplicateSeller(t *testing.T) {
	profileRepo := testutil.NewMockProfileRepository()
	svc := NewProfileService(profileRepo)
	ctx := context.Background()

	_, err := svc.Create(ctx, validProfileInput("seller-1"))
	require.NoError(t, err)

	_, err = svc.Create(ctx, validProfileInput("seller-1"))
	assert.ErrorIs(t, err, domainErrors.ErrProfileExists)
}

func TestCreateProfile_BadTaxID(t *testing.T) {
	profileRepo := testutil.NewMockProfileRepository()
	svc := NewProfileService(profileRepo)

	in := validProfileInput("seller-1")
	in.TaxID = "12345" // not a CNPJ
	_, err := svc.Create(context.Background(), in)
	var vErr *domainErrors.ValidationError
	assert.ErrorAs(t, err, &vErr)
}

func TestUpdateProfile_PartialFields(t *testing.T) {
	profileRepo := testutil.NewMockProfileRepository()
	svc := NewProfileService(profileRepo)
	ctx := context.Background()

	created, err := svc.Create(ctx, validProfileInput("seller-1"))
	require.NoError(t, err)

	updated, err := svc.Update(ctx, "seller-1", UpdateProfileInput{
		PixKey: testutil.StringPtr("fred@example.com"),
	})
	require.NoError(t, err)
	assert.Equal(t, "fred@example.com", updated.PixKey)
	assert.Equal(t, created.LegalName, updated.LegalName)
}

func TestUpdateProfile_InvalidEnvironment(t *testing.T) {
	profileRepo := testutil.NewMockProfileRepository()
	svc := NewProfileService(profileRepo)
	ctx := context.Background()

	_, err := svc.Create(ctx, validProfileInput("seller-1"))
	require.NoError(t, err)

	_, err = svc.Update(ctx, "seller-1", UpdateProfileInput{
		Environment: testutil.StringPtr("Staging"),
	})
	var vErr *domainErrors.ValidationError
	assert.ErrorAs(t, err, &vErr)
}
