package fiscal_test

import (
	"testing"

	"github.com/fredcarvalho/notafiscal/internal/domain/fiscal"
	"github.com/stretchr/testify/assert"
)

func TestMapGatewayStatus_Table(t *testing.T) {
	tests := []struct {
		raw          string
		status       fiscal.Status
		awaitingSend bool
		recognized   bool
	}{
		{"Authorized", fiscal.StatusApproved, false, true},
		{"authorized", fiscal.StatusApproved, false, true},
		{"Issued", fiscal.StatusIssued, false, true},
		{"Processing", fiscal.StatusProcessing, false, true},
		{"Pending Calculation", fiscal.StatusProcessing, false, true},
		{"WaitingCalculateTaxes", fiscal.StatusProcessing, false, true},
		{"WaitingDefineRpsNumber", fiscal.StatusProcessing, false, true},
		{"WaitingSend", fiscal.StatusProcessing, true, true},
		{"waiting_send", fiscal.StatusProcessing, true, true},
		{"WaitingSendCancel", fiscal.StatusProcessing, false, true},
		{"WaitingReturn", fiscal.StatusProcessing, false, true},
		{"WaitingDownload", fiscal.StatusProcessing, false, true},
		{"Rejected", fiscal.StatusError, false, true},
		{"IssueFailed", fiscal.StatusError, false, true},
		{"CancelFailed", fiscal.StatusError, false, true},
		{"Cancelled", fiscal.StatusCancelled, false, true},
		{"Canceled", fiscal.StatusCancelled, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			m := fiscal.MapGatewayStatus(tt.raw)
			assert.Equal(t, tt.status, m.Status)
			assert.Equal(t, tt.awaitingSend, m.AwaitingSend)
			assert.Equal(t, tt.recognized, m.Recognized)
			assert.Equal(t, tt.raw, m.Raw)
		})
	}
}

func TestMapGatewayStatus_UnknownIsError(t *testing.T) {
	for _, raw := range []string{"", "Ok", "Done", "SomethingNew", "success"} {
		m := fiscal.MapGatewayStatus(raw)
		assert.Equal(t, fiscal.StatusError, m.Status, "unknown status %q must map to error", raw)
		assert.False(t, m.Recognized)
		assert.Equal(t, raw, m.Raw, "raw value must be preserved for diagnosis")
	}
}

func TestMapping_ErrorText(t *testing.T) {
	unknown := fiscal.MapGatewayStatus("Glitch")
	assert.Contains(t, unknown.ErrorText(), "Glitch")
	assert.Contains(t, unknown.ErrorText(), "unrecognized")

	rejected := fiscal.MapGatewayStatus("Rejected")
	assert.Contains(t, rejected.ErrorText(), "Rejected")
}
