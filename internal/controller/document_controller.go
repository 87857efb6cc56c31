package controller

import (
	"context"
	"net/http"
	"strconv"

	"github.com/fredcarvalho/notafiscal/internal/domain/fiscal"
	"github.com/fredcarvalho/notafiscal/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// DocumentController handles invoice HTTP requests.
type DocumentController struct {
	documentService *service.DocumentService
}

// NewDocumentController creates a new DocumentController.
func NewDocumentController(documentService *service.DocumentService) *DocumentController {
	return &DocumentController{documentService: documentService}
}

// Submit handles POST /api/v1/invoices
//
// The document is created and pushed to the certification gateway in one
// request. A gateway failure still persists the document: it comes back in
// error status with the failure text attached, ready for a retry.
func (h *DocumentController) Submit(w http.ResponseWriter, r *http.Request) {
	var req SubmitInvoiceRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	profileID := parseUUID(req.ProfileID)
	if profileID == nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid profile_id", Code: "invalid_id"})
		return
	}

	src := fiscal.Source{
		CoursePaymentID: parseUUID(derefOrEmpty(req.CoursePaymentID)),
		SaleID:          parseUUID(derefOrEmpty(req.SaleID)),
	}
	if req.Inline != nil {
		src.Inline = &fiscal.InlineSource{
			Customer: fiscal.Customer{
				Name:  req.Inline.Customer.Name,
				Email: req.Inline.Customer.Email,
				TaxID: req.Inline.Customer.TaxID,
				Phone: req.Inline.Customer.Phone,
			},
			AmountCents: req.Inline.AmountCents,
			Description: req.Inline.Description,
		}
	}

	doc, err := h.documentService.Create(r.Context(), *profileID, src)
	if err != nil {
		writeError(w, err)
		return
	}

	// an emission failure still returns the persisted document; the caller
	// gets it back in error status, ready for an explicit retry
	doc, err = h.documentService.Submit(r.Context(), doc.ID)
	if err != nil && doc == nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, FromDocument(doc))
}

// Get handles GET /api/v1/invoices/{id}
func (h *DocumentController) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid invoice id", Code: "invalid_id"})
		return
	}

	doc, err := h.documentService.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, FromDocument(doc))
}

// List handles GET /api/v1/invoices
func (h *DocumentController) List(w http.ResponseWriter, r *http.Request) {
	filter := fiscal.ListFilter{}

	if s := r.URL.Query().Get("status"); s != "" {
		status := fiscal.Status(s)
		filter.Status = &status
	}
	if s := r.URL.Query().Get("profile_id"); s != "" {
		id, err := uuid.Parse(s)
		if err == nil {
			filter.ProfileID = &id
		}
	}
	filter.Limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	filter.Offset, _ = strconv.Atoi(r.URL.Query().Get("offset"))

	docs, err := h.documentService.List(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := make([]*InvoiceResponse, 0, len(docs))
	for _, d := range docs {
		resp = append(resp, FromDocument(d))
	}
	writeJSON(w, http.StatusOK, resp)
}

// Poll handles POST /api/v1/invoices/{id}/poll
func (h *DocumentController) Poll(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, h.documentService.Poll)
}

// Send handles POST /api/v1/invoices/{id}/send
func (h *DocumentController) Send(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, h.documentService.Send)
}

// Retry handles POST /api/v1/invoices/{id}/retry
func (h *DocumentController) Retry(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, h.documentService.Retry)
}

// Cancel handles POST /api/v1/invoices/{id}/cancel
func (h *DocumentController) Cancel(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid invoice id", Code: "invalid_id"})
		return
	}

	var req CancelInvoiceRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	doc, err := h.documentService.Cancel(r.Context(), id, req.Reason)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, FromDocument(doc))
}

// run dispatches the id-only lifecycle actions sharing the same shape.
func (h *DocumentController) run(
	w http.ResponseWriter,
	r *http.Request,
	action func(ctx context.Context, id uuid.UUID) (*fiscal.Document, error),
) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid invoice id", Code: "invalid_id"})
		return
	}

	doc, err := action(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, FromDocument(doc))
}

func derefOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
