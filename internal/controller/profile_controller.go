package controller

import (
	"net/http"

	"github.com/fredcarvalho/notafiscal/internal/service"
	"github.com/go-chi/chi/v5"
)

// ProfileController handles fiscal profile HTTP requests.
type ProfileController struct {
	profileService  *service.ProfileService
	sequenceService *service.SequenceService
}

// NewProfileController creates a new ProfileController.
func NewProfileController(
	profileService *service.ProfileService,
	sequenceService *service.SequenceService,
) *ProfileController {
	return &ProfileController{
		profileService:  profileService,
		sequenceService: sequenceService,
	}
}

// Create handles POST /api/v1/profiles
func (h *ProfileController) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateProfileRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	profile, err := h.profileService.Create(r.Context(), service.CreateProfileInput{
		SellerID:              req.SellerID,
		TaxID:                 req.TaxID,
		LegalName:             req.LegalName,
		MunicipalRegistration: req.MunicipalRegistration,
		ServiceCode:           req.ServiceCode,
		GatewayCompanyID:      req.GatewayCompanyID,
		PixKey:                req.PixKey,
		SerialLabel:           req.SerialLabel,
		StartNumber:           req.StartNumber,
		Environment:           req.Environment,
		Address:               toAddress(req.Address),
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, FromProfile(profile))
}

// Get handles GET /api/v1/profiles/{sellerID}
func (h *ProfileController) Get(w http.ResponseWriter, r *http.Request) {
	profile, err := h.profileService.GetBySellerID(r.Context(), chi.URLParam(r, "sellerID"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, FromProfile(profile))
}

// Update handles PATCH /api/v1/profiles/{sellerID}
func (h *ProfileController) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateProfileRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	in := service.UpdateProfileInput{
		LegalName:             req.LegalName,
		MunicipalRegistration: req.MunicipalRegistration,
		ServiceCode:           req.ServiceCode,
		GatewayCompanyID:      req.GatewayCompanyID,
		PixKey:                req.PixKey,
		Environment:           req.Environment,
	}
	if req.Address != nil {
		addr := toAddress(*req.Address)
		in.Address = &addr
	}

	profile, err := h.profileService.Update(r.Context(), chi.URLParam(r, "sellerID"), in)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, FromProfile(profile))
}

// AdvanceLot handles POST /api/v1/profiles/{sellerID}/advance-lot
func (h *ProfileController) AdvanceLot(w http.ResponseWriter, r *http.Request) {
	profile, err := h.profileService.GetBySellerID(r.Context(), chi.URLParam(r, "sellerID"))
	if err != nil {
		writeError(w, err)
		return
	}

	lot, err := h.sequenceService.AdvanceLot(r.Context(), profile.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, LotResponse{LotNumber: lot})
}
