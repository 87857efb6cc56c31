package nfse

// Wire shapes for the certification authority's service-invoice API.

// BorrowerAddress is the service borrower's address.
type BorrowerAddress struct {
	Country               string `json:"country,omitempty"`
	PostalCode            string `json:"postalCode,omitempty"`
	Street                string `json:"street,omitempty"`
	Number                string `json:"number,omitempty"`
	District              string `json:"district,omitempty"`
	City                  *City  `json:"city,omitempty"`
	State                 string `json:"state,omitempty"`
	AdditionalInformation string `json:"additionalInformation,omitempty"`
}

// City is an IBGE-coded city reference.
type City struct {
	Code string `json:"code,omitempty"`
	Name string `json:"name,omitempty"`
}

// Borrower identifies the customer the service was rendered to.
type Borrower struct {
	Type             string           `json:"type"` // NaturalPerson or LegalEntity
	Name             string           `json:"name"`
	Email            string           `json:"email,omitempty"`
	FederalTaxNumber string           `json:"federalTaxNumber"`
	Address          *BorrowerAddress `json:"address,omitempty"`
}

// IssueRequest is the body of the issue call.
type IssueRequest struct {
	Borrower        Borrower `json:"borrower"`
	CityServiceCode string   `json:"cityServiceCode"`
	Description     string   `json:"description"`
	ServicesAmount  string   `json:"servicesAmount"`
	Environment     string   `json:"environment"`
	Reference       string   `json:"reference"`
	RPSSerialNumber string   `json:"rpsSerialNumber"`
	RPSNumber       int64    `json:"rpsNumber"`
}

// CancelRequest is the body of the cancel call.
type CancelRequest struct {
	Reason string `json:"reason"`
}

// FileRef points at a generated artifact.
type FileRef struct {
	URL string `json:"url"`
}

// Invoice is the gateway's view of a service invoice. Raw carries the
// verbatim response body, persisted for audit on every round trip.
type Invoice struct {
	ID          string   `json:"id"`
	Status      string   `json:"status"`
	FlowStatus  string   `json:"flowStatus"`
	FlowMessage string   `json:"flowMessage"`
	PDF         *FileRef `json:"pdf"`
	XML         *FileRef `json:"xml"`

	Raw []byte `json:"-"`
}

// ReportedStatus picks the field that drives the local state machine.
// flowStatus is more granular than status and wins when present.
func (i *Invoice) ReportedStatus() string {
	if i.FlowStatus != "" {
		return i.FlowStatus
	}
	return i.Status
}

type errorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}
