package onboarding

import (
	"net/url"
	"strings"
)

// Prefill holds initial values taken from outside the form, typically the
// landing-page query string.
type Prefill struct {
	Services    []string
	Email       string
	CompanyName string
}

// PrefillFromQuery reads services, email, and companyName from q.  A service
// takes effect only when it names one of the known offerings; anything else
// is dropped without complaint.
func PrefillFromQuery(q url.Values) Prefill {
	var p Prefill
	if svc, ok := ParseService(q.Get("services")); ok {
		p.Services = []string{string(svc)}
	}
	p.Email = strings.TrimSpace(q.Get("email"))
	p.CompanyName = strings.TrimSpace(q.Get("companyName"))
	return p
}

// Empty reports whether p carries nothing to apply.
func (p Prefill) Empty() bool {
	return len(p.Services) == 0 && p.Email == "" && p.CompanyName == ""
}

// Apply seeds c with p, leaving fields the user already filled untouched.
func (p Prefill) Apply(c *Candidate) {
	if len(c.Services) == 0 && len(p.Services) > 0 {
		c.Services = append([]string(nil), p.Services...)
	}
	if c.Email == "" {
		c.Email = p.Email
	}
	if c.CompanyName == "" {
		c.CompanyName = p.CompanyName
	}
}
