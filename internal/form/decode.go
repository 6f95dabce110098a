// internal/form/decode.go
//
// Onboard – web form: posted-value decoding.
//
// Context
//   The browser posts url-encoded values.  This file turns them into an
//   onboarding.Candidate WITHOUT judging them; the Schema reports every rule
//   violation so messages stay in one place.  Form-level checks (CSRF and
//   the render timestamp) happen here because they concern the page, not
//   the record.
//
//------------------------------------------------------------------------------

package form

import (
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/AdeptTravel/adept-onboard/internal/onboarding"
)

// formExpiry bounds how long a rendered page stays submittable.
const formExpiry = 30 * time.Minute

// DecodeCandidate maps posted values onto a Candidate.
//
// A blank budget decodes to nil.  A budget that is not a number decodes to
// NaN so the Schema rejects it as not a whole number instead of silently
// dropping it.
func DecodeCandidate(v url.Values) onboarding.Candidate {
	c := onboarding.Candidate{
		FullName:         v.Get("fullName"),
		Email:            strings.TrimSpace(v.Get("email")),
		CompanyName:      v.Get("companyName"),
		ProjectStartDate: strings.TrimSpace(v.Get("projectStartDate")),
		AcceptTerms:      parseBool(v.Get("acceptTerms")),
	}
	if svcs := v["services"]; len(svcs) > 0 {
		c.Services = append([]string(nil), svcs...)
	}
	if raw := strings.TrimSpace(v.Get("budgetUsd")); raw != "" {
		x, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			x = math.NaN()
		}
		c.BudgetUSD = &x
	}
	return c
}

// PrefillValues renders p as form values for the first GET.
func PrefillValues(p onboarding.Prefill) url.Values {
	v := url.Values{}
	if p.Email != "" {
		v.Set("email", p.Email)
	}
	if p.CompanyName != "" {
		v.Set("companyName", p.CompanyName)
	}
	for _, s := range p.Services {
		v.Add("services", s)
	}
	return v
}

// checkTiming ensures the form was not submitted suspiciously fast or too
// late.  Returns empty string on success, user-visible message on failure.
func checkTiming(tsRaw string, now time.Time, minFill time.Duration) string {
	if tsRaw == "" {
		return "Timestamp missing.  Please reload the page."
	}
	ts, err := strconv.ParseInt(tsRaw, 10, 64)
	if err != nil {
		return "Bad timestamp.  Please reload the page."
	}
	delta := now.Sub(time.UnixMicro(ts))
	switch {
	case delta < minFill:
		return "Form submitted too quickly.  Please enter the fields manually."
	case delta > formExpiry:
		return "Form expired.  Please reload and submit again."
	default:
		return ""
	}
}

// parseBool accepts the values browsers and scripts send for a ticked box.
func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "on", "true", "1", "yes":
		return true
	default:
		return false
	}
}
