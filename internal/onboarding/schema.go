// internal/onboarding/schema.go
//
// Onboard – schema validator.
//
// Context
//   Validation rules live on Candidate as go-playground/validator tags.  This
//   file registers the four custom rules the tags reference, runs the
//   validator, and maps each failure to the exact user-facing message for
//   its (field, rule) pair.  The validator reports at most one failing tag
//   per field, in tag order, so the first message per field is stable.
//
// Workflow
//   •  NewSchema builds a validator with json tag names and custom rules.
//   •  Validate returns a Record or the per-field errors, in field order.
//   •  The "today" boundary comes from an injectable clock (WithClock).
//
//------------------------------------------------------------------------------

package onboarding

import (
	"errors"
	"math"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// -----------------------------------------------------------------------------
// Error types
// -----------------------------------------------------------------------------

// FieldError describes a single rule failure.  Field is the JSON name of the
// offending field, e.g. "fullName".
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError wraps []FieldError and satisfies the error interface so
// callers can tell user input errors from system failures via errors.As.
type ValidationError struct{ Fields []FieldError }

func (ve ValidationError) Error() string { return "onboarding record validation failed" }

// IsValidationError reports whether err carries field errors.
func IsValidationError(err error) bool {
	var ve ValidationError
	return errors.As(err, &ve)
}

// -----------------------------------------------------------------------------
// Messages
// -----------------------------------------------------------------------------

// messages maps field → validator tag → user-facing text.
var messages = map[string]map[string]string{
	"fullName": {
		"min":        "Full name must be at least 2 characters",
		"max":        "Full name must be at most 80 characters",
		"personname": "Full name can only contain letters, spaces, apostrophes, and hyphens",
	},
	"email": {
		"required": "Email is required",
		"email":    "Please enter a valid email address",
	},
	"companyName": {
		"min": "Company name must be at least 2 characters",
		"max": "Company name must be at most 100 characters",
	},
	"services": {
		"required": "Please select at least one service",
		"min":      "Please select at least one service",
		"service":  "Please select a valid service",
	},
	"budgetUsd": {
		"wholenumber": "Budget must be a whole number",
		"min":         "Budget must be at least $100",
		"max":         "Budget must be at most $1,000,000",
	},
	"projectStartDate": {
		"required": "Project start date is required",
		"datetime": "Project start date must be a valid date",
		"notpast":  "Project start date must be today or later",
	},
	"acceptTerms": {
		"eq": "You must accept the terms and conditions",
	},
}

func messageFor(field, tag string) string {
	if m, ok := messages[field][tag]; ok {
		return m
	}
	return "Invalid value"
}

// -----------------------------------------------------------------------------
// Schema
// -----------------------------------------------------------------------------

var personName = regexp.MustCompile(`^[A-Za-z' -]+$`)

// Schema validates Candidates.  Safe for concurrent use.
type Schema struct {
	v   *validator.Validate
	now func() time.Time
}

// SchemaOption customizes a Schema.
type SchemaOption func(*Schema)

// WithClock sets the source of "today" for the start-date rule.  The clock's
// location defines local midnight.
func WithClock(now func() time.Time) SchemaOption {
	return func(s *Schema) { s.now = now }
}

// NewSchema returns a Schema with all onboarding rules registered.
func NewSchema(opts ...SchemaOption) *Schema {
	s := &Schema{now: time.Now}
	for _, o := range opts {
		o(s)
	}

	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	// Registration only fails on an empty tag or nil func.
	_ = v.RegisterValidation("personname", func(fl validator.FieldLevel) bool {
		return personName.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("service", func(fl validator.FieldLevel) bool {
		_, ok := ParseService(fl.Field().String())
		return ok
	})
	_ = v.RegisterValidation("wholenumber", wholeNumber)
	_ = v.RegisterValidation("notpast", s.notPast)

	s.v = v
	return s
}

// Validate checks c against every field rule.  On success it returns the
// normalized Record and a nil slice.  On failure the Record is the zero value
// and the slice holds the first error for each failing field, in field order.
func (s *Schema) Validate(c Candidate) (Record, []FieldError) {
	if errs := s.fieldErrors(c); len(errs) > 0 {
		return Record{}, errs
	}
	return s.build(c), nil
}

// fieldErrors runs the validator and reduces its output to one message per
// field.
func (s *Schema) fieldErrors(c Candidate) []FieldError {
	err := s.v.Struct(c)
	if err == nil {
		return nil
	}

	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		// Only reachable with a non-struct argument.
		return []FieldError{{Field: "", Message: err.Error()}}
	}

	var out []FieldError
	seen := make(map[string]bool, len(ves))
	for _, fe := range ves {
		field, _, _ := strings.Cut(fe.Field(), "[") // services[2] → services
		if seen[field] {
			continue
		}
		seen[field] = true
		out = append(out, FieldError{Field: field, Message: messageFor(field, fe.Tag())})
	}
	return out
}

// build converts a Candidate that already passed validation.
func (s *Schema) build(c Candidate) Record {
	loc := s.now().Location()
	start, _ := time.ParseInLocation(DateLayout, c.ProjectStartDate, loc) // pre-validated

	r := Record{
		fullName:    c.FullName,
		email:       c.Email,
		companyName: c.CompanyName,
		services:    normalizeServices(c.Services),
		startDate:   start,
		acceptTerms: c.AcceptTerms,
	}
	if c.BudgetUSD != nil {
		r.budget = int64(*c.BudgetUSD)
		r.hasBudget = true
	}
	return r
}

// normalizeServices collapses duplicates and orders the set canonically.
func normalizeServices(raw []string) []Service {
	picked := make(map[Service]bool, len(raw))
	for _, s := range raw {
		if svc, ok := ParseService(s); ok {
			picked[svc] = true
		}
	}
	out := make([]Service, 0, len(picked))
	for _, svc := range Services {
		if picked[svc] {
			out = append(out, svc)
		}
	}
	return out
}

// -----------------------------------------------------------------------------
// Custom rules
// -----------------------------------------------------------------------------

func wholeNumber(fl validator.FieldLevel) bool {
	f := fl.Field()
	switch f.Kind() {
	case reflect.Float32, reflect.Float64:
		x := f.Float()
		return !math.IsNaN(x) && !math.IsInf(x, 0) && x == math.Trunc(x)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	default:
		return false
	}
}

// notPast accepts dates on or after today at local midnight.  Time of day is
// ignored on both sides.
func (s *Schema) notPast(fl validator.FieldLevel) bool {
	now := s.now()
	d, err := time.ParseInLocation(DateLayout, fl.Field().String(), now.Location())
	if err != nil {
		return false
	}
	y, m, day := now.Date()
	today := time.Date(y, m, day, 0, 0, 0, 0, now.Location())
	return !d.Before(today)
}
