// internal/onboarding/record.go
//
// Onboard – record model.
//
// Context
//   A Candidate is whatever the user typed: strings, a checkbox, an optional
//   number.  Schema.Validate (schema.go) turns a Candidate into a Record or a
//   list of FieldErrors.  A Record is immutable once built.  Payload is the
//   wire shape handed to the remote endpoint.
//
// Style
//   Two-space sentence spacing, Oxford comma, concise inline notes.
//
//------------------------------------------------------------------------------

package onboarding

import "time"

// DateLayout is the calendar-date form used by projectStartDate.
const DateLayout = "2006-01-02"

// -----------------------------------------------------------------------------
// Services
// -----------------------------------------------------------------------------

// Service is one of the fixed offerings a client may select.
type Service string

const (
	ServiceUIUX      Service = "UI/UX"
	ServiceBranding  Service = "Branding"
	ServiceWebDev    Service = "Web Dev"
	ServiceMobileApp Service = "Mobile App"
)

// Services lists every allowed Service in canonical order.
var Services = []Service{ServiceUIUX, ServiceBranding, ServiceWebDev, ServiceMobileApp}

// ParseService returns the Service matching s exactly.
func ParseService(s string) (Service, bool) {
	for _, svc := range Services {
		if string(svc) == s {
			return svc, true
		}
	}
	return "", false
}

// -----------------------------------------------------------------------------
// Candidate
// -----------------------------------------------------------------------------

// Candidate is the raw, unvalidated input.  Struct tags drive the validator;
// the json names double as field identifiers in FieldError.
type Candidate struct {
	FullName         string   `json:"fullName"         validate:"min=2,max=80,personname"`
	Email            string   `json:"email"            validate:"required,email"`
	CompanyName      string   `json:"companyName"      validate:"min=2,max=100"`
	Services         []string `json:"services"         validate:"required,min=1,dive,service"`
	BudgetUSD        *float64 `json:"budgetUsd"        validate:"omitempty,wholenumber,min=100,max=1000000"`
	ProjectStartDate string   `json:"projectStartDate" validate:"required,datetime=2006-01-02,notpast"`
	AcceptTerms      bool     `json:"acceptTerms"      validate:"eq=true"`
}

// -----------------------------------------------------------------------------
// Record
// -----------------------------------------------------------------------------

// Record is a validated onboarding submission.  The zero value is not a valid
// record; obtain one from Schema.Validate.
type Record struct {
	fullName    string
	email       string
	companyName string
	services    []Service
	budget      int64
	hasBudget   bool
	startDate   time.Time
	acceptTerms bool
}

func (r Record) FullName() string    { return r.fullName }
func (r Record) Email() string       { return r.email }
func (r Record) CompanyName() string { return r.companyName }
func (r Record) AcceptTerms() bool   { return r.acceptTerms }

// Services returns a copy of the selected services in canonical order.
func (r Record) Services() []Service {
	out := make([]Service, len(r.services))
	copy(out, r.services)
	return out
}

// Budget returns the budget in whole US dollars.  ok is false when the user
// left it blank.
func (r Record) Budget() (usd int64, ok bool) { return r.budget, r.hasBudget }

// ProjectStartDate returns the start date at midnight in the schema clock's
// location.
func (r Record) ProjectStartDate() time.Time { return r.startDate }

// -----------------------------------------------------------------------------
// Payload
// -----------------------------------------------------------------------------

// Payload is the JSON body sent to the remote endpoint.  BudgetUSD is null
// when the budget was not specified.
type Payload struct {
	FullName         string   `json:"fullName"`
	Email            string   `json:"email"`
	CompanyName      string   `json:"companyName"`
	Services         []string `json:"services"`
	BudgetUSD        *int64   `json:"budgetUsd"`
	ProjectStartDate string   `json:"projectStartDate"`
	AcceptTerms      bool     `json:"acceptTerms"`
}

// Payload transforms r for transport.
func (r Record) Payload() Payload {
	p := Payload{
		FullName:         r.fullName,
		Email:            r.email,
		CompanyName:      r.companyName,
		Services:         make([]string, 0, len(r.services)),
		ProjectStartDate: r.startDate.Format(DateLayout),
		AcceptTerms:      r.acceptTerms,
	}
	for _, s := range r.services {
		p.Services = append(p.Services, string(s))
	}
	if r.hasBudget {
		b := r.budget
		p.BudgetUSD = &b
	}
	return p
}
