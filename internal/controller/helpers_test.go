package controller

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	domainErrors "github.com/fredcarvalho/notafiscal/internal/domain/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteJSON(t *testing.T) {
	tests := []struct {
		name         string
		status       int
		payload      any
		expectedBody string
	}{
		{
			name:         "simple map",
			status:       http.StatusOK,
			payload:      map[string]string{"message": "hello"},
			expectedBody: `{"message":"hello"}`,
		},
		{
			name:         "struct",
			status:       http.StatusCreated,
			payload:      struct{ ID string }{ID: "123"},
			expectedBody: `{"ID":"123"}`,
		},
		{
			name:         "error response",
			status:       http.StatusBadRequest,
			payload:      ErrorResponse{Error: "bad request", Code: "invalid_input"},
			expectedBody: `{"error":"bad request","code":"invalid_input"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			writeJSON(w, tt.status, tt.payload)

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
			assert.JSONEq(t, tt.expectedBody, w.Body.String())
		})
	}
}

func TestWriteError_ValidationError(t *testing.T) {
	w := httptest.NewRecorder()
	err := domainErrors.NewValidationError("reason", "cannot be empty")

	writeError(w, err)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "validation_error", resp.Code)
}

func TestWriteError_MappedSentinels(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		expectedStatus int
		expectedCode   string
	}{
		{"profile not found", domainErrors.ErrProfileNotFound, http.StatusNotFound, "not_found"},
		{"document not found", domainErrors.ErrDocumentNotFound, http.StatusNotFound, "not_found"},
		{"charge not found", domainErrors.ErrChargeNotFound, http.StatusNotFound, "not_found"},
		{"profile exists", domainErrors.ErrProfileExists, http.StatusConflict, "profile_exists"},
		{"invalid transition", domainErrors.ErrInvalidStateTransition, http.StatusConflict, "invalid_state_transition"},
		{"number already assigned", domainErrors.ErrNumberAlreadyAssigned, http.StatusConflict, "number_already_assigned"},
		{"invalid source", domainErrors.ErrInvalidSource, http.StatusBadRequest, "invalid_source"},
		{"profile incomplete", domainErrors.ErrProfileIncomplete, http.StatusUnprocessableEntity, "profile_incomplete"},
		{"not payable", domainErrors.ErrDocumentNotPayable, http.StatusUnprocessableEntity, "not_payable"},
		{"not awaiting send", domainErrors.ErrNotAwaitingSend, http.StatusUnprocessableEntity, "not_awaiting_send"},
		{"not local fallback", domainErrors.ErrNotLocalFallback, http.StatusUnprocessableEntity, "not_local_fallback"},
		{"charge terminal", domainErrors.ErrChargeTerminal, http.StatusUnprocessableEntity, "charge_terminal"},
		{"gateway timeout", domainErrors.ErrGatewayTimeout, http.StatusServiceUnavailable, "gateway_timeout"},
		{"gateway unavailable", domainErrors.ErrGatewayUnavailable, http.StatusServiceUnavailable, "gateway_unavailable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			writeError(w, tt.err)

			assert.Equal(t, tt.expectedStatus, w.Code)

			var resp ErrorResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
			assert.Equal(t, tt.expectedCode, resp.Code)
		})
	}
}

func TestWriteError_WrappedSentinel(t *testing.T) {
	w := httptest.NewRecorder()
	err := domainErrors.NewDomainError(
		"invalid_transition",
		"cannot transition from approved to pending",
		domainErrors.ErrInvalidStateTransition,
	)

	writeError(w, err)

	// the wrapped sentinel wins over the generic DomainError fallback
	assert.Equal(t, http.StatusConflict, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "invalid_state_transition", resp.Code)
}

func TestWriteError_DomainErrorFallback(t *testing.T) {
	w := httptest.NewRecorder()
	err := domainErrors.NewDomainError("emission_failed", "gateway rejected the emission", errors.New("boom"))

	writeError(w, err)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "emission_failed", resp.Code)
}

func TestWriteError_UnknownError(t *testing.T) {
	w := httptest.NewRecorder()

	writeError(w, errors.New("something exploded"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "internal_error", resp.Code)
	assert.Equal(t, "internal server error", resp.Error)
}

func TestDecodeAndValidate(t *testing.T) {
	t.Run("valid body", func(t *testing.T) {
		body := `{"reason":"customer asked"}`
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))

		var req CancelInvoiceRequest
		require.NoError(t, decodeAndValidate(r, &req))
		assert.Equal(t, "customer asked", req.Reason)
	})

	t.Run("invalid json", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader([]byte("{not json")))

		var req CancelInvoiceRequest
		err := decodeAndValidate(r, &req)

		var validationErr *domainErrors.ValidationError
		require.ErrorAs(t, err, &validationErr)
		assert.Equal(t, "body", validationErr.Field)
	})

	t.Run("missing required field", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`))

		var req CancelInvoiceRequest
		err := decodeAndValidate(r, &req)

		var validationErr *domainErrors.ValidationError
		require.ErrorAs(t, err, &validationErr)
		assert.Equal(t, "Reason", validationErr.Field)
	})
}
