package controller

import (
	"errors"
	"net/http"

	domainErrors "github.com/fredcarvalho/notafiscal/internal/domain/errors"
	"github.com/fredcarvalho/notafiscal/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// ChargeController handles payment charge HTTP requests.
type ChargeController struct {
	chargeService *service.ChargeService
}

// NewChargeController creates a new ChargeController.
func NewChargeController(chargeService *service.ChargeService) *ChargeController {
	return &ChargeController{chargeService: chargeService}
}

// Create handles POST /api/v1/invoices/{id}/charge
func (h *ChargeController) Create(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid invoice id", Code: "invalid_id"})
		return
	}

	c, err := h.chargeService.CreateForDocument(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, FromCharge(c))
}

// Get handles GET /api/v1/charges/{correlationID}
//
// The read reconciles against the provider first, so the caller always sees
// the provider's latest word. A provider hiccup degrades to the local state
// instead of failing the read.
func (h *ChargeController) Get(w http.ResponseWriter, r *http.Request) {
	c, err := h.chargeService.CheckStatus(r.Context(), chi.URLParam(r, "correlationID"))
	if err != nil {
		if c == nil || errors.Is(err, domainErrors.ErrChargeNotFound) {
			writeError(w, err)
			return
		}
	}

	writeJSON(w, http.StatusOK, FromCharge(c))
}

// MarkPaid handles POST /api/v1/charges/{correlationID}/mark-paid
func (h *ChargeController) MarkPaid(w http.ResponseWriter, r *http.Request) {
	c, err := h.chargeService.MarkPaid(r.Context(), chi.URLParam(r, "correlationID"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, FromCharge(c))
}
