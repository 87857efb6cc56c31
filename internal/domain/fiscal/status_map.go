package fiscal

import "strings"

// Mapping is the local reading of a gateway-reported status.
type Mapping struct {
	Status       Status
	AwaitingSend bool
	// Raw is the gateway's verbatim status string, preserved for diagnosis
	// when the value is unrecognized.
	Raw        string
	Recognized bool
}

// ErrorText builds the error message recorded when a mapping lands on error.
func (m Mapping) ErrorText() string {
	if !m.Recognized {
		return "unrecognized gateway status: " + m.Raw
	}
	return "gateway reported status: " + m.Raw
}

// statusTable maps normalized gateway flow statuses to document statuses.
// Anything absent from the table is an error with the raw value preserved;
// an unknown external status is never coerced to success.
var statusTable = map[string]Mapping{
	"authorized":             {Status: StatusApproved},
	"issued":                 {Status: StatusIssued},
	"processing":             {Status: StatusProcessing},
	"pendingcalculation":     {Status: StatusProcessing},
	"waitingcalculatetaxes":  {Status: StatusProcessing},
	"waitingdefinerpsnumber": {Status: StatusProcessing},
	"waitingsend":            {Status: StatusProcessing, AwaitingSend: true},
	"waitingsendcancel":      {Status: StatusProcessing},
	"waitingreturn":          {Status: StatusProcessing},
	"waitingdownload":        {Status: StatusProcessing},
	"rejected":               {Status: StatusError},
	"issuefailed":            {Status: StatusError},
	"cancelfailed":           {Status: StatusError},
	"cancelled":              {Status: StatusCancelled},
	"canceled":               {Status: StatusCancelled},
}

// MapGatewayStatus resolves a gateway status string through the lookup
// table. The comparison ignores case, spaces and underscores.
func MapGatewayStatus(raw string) Mapping {
	key := strings.ToLower(raw)
	key = strings.ReplaceAll(key, " ", "")
	key = strings.ReplaceAll(key, "_", "")

	if m, ok := statusTable[key]; ok {
		m.Raw = raw
		m.Recognized = true
		return m
	}
	return Mapping{Status: StatusError, Raw: raw, Recognized: false}
}
