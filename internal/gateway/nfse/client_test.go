package nfse

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	domainErrors "github.com/fredcarvalho/notafiscal/internal/domain/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(url string) *Client {
	return NewClient(Config{
		BaseURL:        url,
		APIKey:         "test-key",
		RequestTimeout: 2 * time.Second,
		MaxRetries:     3,
		RetryDelay:     time.Millisecond,
	})
}

func issueRequest() IssueRequest {
	return IssueRequest{
		Borrower: Borrower{
			Type:             "NaturalPerson",
			Name:             "Joana Lima",
			Email:            "joana@example.com",
			FederalTaxNumber: "15992202706",
		},
		CityServiceCode: "0107",
		Description:     "Curso online",
		ServicesAmount:  "250.00",
		Environment:     "Development",
		Reference:       "doc-1",
		RPSSerialNumber: "RPS",
		RPSNumber:       7,
	}
}

func TestIssue_Success(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody IssueRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":"inv-1","status":"Issued","flowStatus":"WaitingSend"}`))
	}))
	defer srv.Close()

	inv, err := testClient(srv.URL).Issue(context.Background(), "company-1", issueRequest())
	require.NoError(t, err)

	assert.Equal(t, "/v1/companies/company-1/serviceinvoices", gotPath)
	assert.Equal(t, "test-key", gotAuth)
	assert.Equal(t, int64(7), gotBody.RPSNumber)
	assert.Equal(t, "250.00", gotBody.ServicesAmount)
	assert.Equal(t, "inv-1", inv.ID)
	assert.Equal(t, "WaitingSend", inv.ReportedStatus())
	assert.NotEmpty(t, inv.Raw)
}

func TestIssue_Retries5xxThenSucceeds(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"id":"inv-1","status":"Issued"}`))
	}))
	defer srv.Close()

	inv, err := testClient(srv.URL).Issue(context.Background(), "c", issueRequest())
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, "Issued", inv.ReportedStatus())
}

func TestIssue_5xxExhaustsRetries(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Issue(context.Background(), "c", issueRequest())
	assert.ErrorIs(t, err, domainErrors.ErrGatewayUnavailable)
	assert.Equal(t, 3, attempts)
}

func TestIssue_4xxNeverRetries(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"message":"borrower federalTaxNumber is invalid"}`))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Issue(context.Background(), "c", issueRequest())
	assert.ErrorIs(t, err, domainErrors.ErrGatewayRejected)
	assert.Contains(t, err.Error(), "federalTaxNumber is invalid")
	assert.Equal(t, 1, attempts, "4xx indicates a permanent input problem")
}

func TestIssue_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id": nope`))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Issue(context.Background(), "c", issueRequest())
	assert.ErrorIs(t, err, domainErrors.ErrMalformedResponse)
}

func TestIssue_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	c := NewClient(Config{
		BaseURL:        srv.URL,
		RequestTimeout: 20 * time.Millisecond,
		MaxRetries:     2,
		RetryDelay:     time.Millisecond,
	})
	_, err := c.Issue(context.Background(), "c", issueRequest())
	assert.ErrorIs(t, err, domainErrors.ErrGatewayTimeout)
}

func TestGetSendCancel_Paths(t *testing.T) {
	var paths []string
	var methods []string
	var cancelBody CancelRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		methods = append(methods, r.Method)
		if r.Body != nil && r.ContentLength > 0 {
			json.NewDecoder(r.Body).Decode(&cancelBody)
		}
		w.Write([]byte(`{"id":"inv-1","status":"Cancelled"}`))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	ctx := context.Background()

	_, err := c.Get(ctx, "co", "inv-1")
	require.NoError(t, err)
	_, err = c.Send(ctx, "co", "inv-1")
	require.NoError(t, err)
	_, err = c.Cancel(ctx, "co", "inv-1", "duplicate emission")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"/v1/companies/co/serviceinvoices/inv-1",
		"/v1/companies/co/serviceinvoices/inv-1/send",
		"/v1/companies/co/serviceinvoices/inv-1/cancel",
	}, paths)
	assert.Equal(t, []string{"GET", "POST", "POST"}, methods)
	assert.Equal(t, "duplicate emission", cancelBody.Reason)
}
