package fiscal

import (
	"strings"
	"time"

	"github.com/fredcarvalho/notafiscal/internal/domain/errors"
	"github.com/google/uuid"
)

// Environment selects the certification authority environment.
type Environment string

const (
	EnvironmentDevelopment Environment = "Development"
	EnvironmentProduction  Environment = "Production"
)

// Address holds the registered address of a seller.
type Address struct {
	Street     string
	Number     string
	District   string
	City       string
	State      string
	PostalCode string
}

// Profile is the fiscal identity of a seller. CurrentNumber is the next
// unissued RPS number for SerialLabel; it is mutated exclusively by the
// sequence service under a row lock.
type Profile struct {
	ID                    uuid.UUID
	SellerID              string
	TaxID                 string // CNPJ, digits only
	LegalName             string
	MunicipalRegistration string
	Address               Address
	ServiceCode           string // default municipal service classification
	// GatewayCompanyID is the certification authority's id for this seller,
	// assigned when the company is registered there.
	GatewayCompanyID      string
	PixKey                string
	SerialLabel           string
	CurrentNumber         int64
	LotNumber             int64
	Environment           Environment
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// NewProfile creates a fiscal profile for a seller opting into emission.
func NewProfile(sellerID, taxID, legalName, serviceCode string, addr Address) (*Profile, error) {
	if sellerID == "" {
		return nil, errors.NewValidationError("seller_id", "cannot be empty")
	}
	taxID = digitsOnly(taxID)
	if len(taxID) != 14 {
		return nil, errors.NewValidationError("tax_id", "must be a 14-digit CNPJ")
	}
	if legalName == "" {
		return nil, errors.NewValidationError("legal_name", "cannot be empty")
	}
	if serviceCode == "" {
		return nil, errors.NewValidationError("service_code", "cannot be empty")
	}

	now := time.Now()
	return &Profile{
		ID:            uuid.New(),
		SellerID:      sellerID,
		TaxID:         taxID,
		LegalName:     legalName,
		Address:       addr,
		ServiceCode:   serviceCode,
		SerialLabel:   "RPS",
		CurrentNumber: 1,
		LotNumber:     1,
		Environment:   EnvironmentDevelopment,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// Complete reports whether the profile carries everything an emission needs.
func (p *Profile) Complete() bool {
	return p.TaxID != "" && p.LegalName != "" && p.ServiceCode != "" &&
		p.SerialLabel != "" && p.GatewayCompanyID != ""
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
