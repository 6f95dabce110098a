package onboarding

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedNow is mid-afternoon so time-of-day handling is exercised.
var fixedNow = time.Date(2026, time.October, 18, 15, 30, 0, 0, time.Local)

func newTestSchema() *Schema {
	return NewSchema(WithClock(func() time.Time { return fixedNow }))
}

func ptr(f float64) *float64 { return &f }

func validCandidate() Candidate {
	return Candidate{
		FullName:         "John Doe",
		Email:            "john.doe@example.com",
		CompanyName:      "Acme Corp",
		Services:         []string{"UI/UX", "Web Dev"},
		BudgetUSD:        ptr(50000),
		ProjectStartDate: fixedNow.Format(DateLayout),
		AcceptTerms:      true,
	}
}

// only returns the message for field, failing the test if it is missing.
func only(t *testing.T, errs []FieldError, field string) string {
	t.Helper()
	for _, e := range errs {
		if e.Field == field {
			return e.Message
		}
	}
	t.Fatalf("no error for %q in %#v", field, errs)
	return ""
}

func TestValidate_Valid(t *testing.T) {
	rec, errs := newTestSchema().Validate(validCandidate())
	require.Empty(t, errs)

	assert.Equal(t, "John Doe", rec.FullName())
	assert.Equal(t, "john.doe@example.com", rec.Email())
	assert.Equal(t, "Acme Corp", rec.CompanyName())
	assert.Equal(t, []Service{ServiceUIUX, ServiceWebDev}, rec.Services())
	budget, ok := rec.Budget()
	assert.True(t, ok)
	assert.Equal(t, int64(50000), budget)
	assert.True(t, rec.AcceptTerms())
	assert.Equal(t, "2026-10-18", rec.ProjectStartDate().Format(DateLayout))
}

func TestValidate_Idempotent(t *testing.T) {
	s := newTestSchema()
	bad := validCandidate()
	bad.FullName = "J"
	bad.AcceptTerms = false

	r1, e1 := s.Validate(bad)
	r2, e2 := s.Validate(bad)
	assert.Equal(t, e1, e2)
	assert.Equal(t, r1, r2)

	g1, _ := s.Validate(validCandidate())
	g2, _ := s.Validate(validCandidate())
	assert.Equal(t, g1, g2)
}

func TestValidate_CollectsEveryField(t *testing.T) {
	_, errs := newTestSchema().Validate(Candidate{})
	fields := make([]string, 0, len(errs))
	for _, e := range errs {
		fields = append(fields, e.Field)
	}
	assert.Equal(t, []string{
		"fullName", "email", "companyName", "services", "projectStartDate", "acceptTerms",
	}, fields)
}

func TestValidate_FullName(t *testing.T) {
	cases := []struct {
		name  string
		value string
		want  string
	}{
		{"two chars", "Al", ""},
		{"eighty chars", strings.Repeat("a", 80), ""},
		{"apostrophe and hyphen", "Mary-Jane O'Neil", ""},
		{"empty", "", "Full name must be at least 2 characters"},
		{"one char", "J", "Full name must be at least 2 characters"},
		{"eighty-one chars", strings.Repeat("a", 81), "Full name must be at most 80 characters"},
		{"digit", "John Doe 3rd", "Full name can only contain letters, spaces, apostrophes, and hyphens"},
		{"leading symbol", "@John", "Full name can only contain letters, spaces, apostrophes, and hyphens"},
		{"accented", "José", "Full name can only contain letters, spaces, apostrophes, and hyphens"},
		{"period", "John Q. Public", "Full name can only contain letters, spaces, apostrophes, and hyphens"},
	}
	s := newTestSchema()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := validCandidate()
			c.FullName = tc.value
			_, errs := s.Validate(c)
			if tc.want == "" {
				assert.Empty(t, errs)
				return
			}
			assert.Equal(t, tc.want, only(t, errs, "fullName"))
		})
	}
}

func TestValidate_Email(t *testing.T) {
	s := newTestSchema()

	c := validCandidate()
	c.Email = ""
	_, errs := s.Validate(c)
	assert.Equal(t, "Email is required", only(t, errs, "email"))

	for _, bad := range []string{"john", "john@", "@example.com", "john doe@example.com"} {
		c.Email = bad
		_, errs = s.Validate(c)
		assert.Equal(t, "Please enter a valid email address", only(t, errs, "email"), bad)
	}
}

func TestValidate_CompanyName(t *testing.T) {
	s := newTestSchema()

	c := validCandidate()
	c.CompanyName = "A"
	_, errs := s.Validate(c)
	assert.Equal(t, "Company name must be at least 2 characters", only(t, errs, "companyName"))

	c.CompanyName = strings.Repeat("x", 101)
	_, errs = s.Validate(c)
	assert.Equal(t, "Company name must be at most 100 characters", only(t, errs, "companyName"))

	c.CompanyName = strings.Repeat("x", 100)
	_, errs = s.Validate(c)
	assert.Empty(t, errs)
}

func TestValidate_Services(t *testing.T) {
	s := newTestSchema()

	c := validCandidate()
	c.Services = nil
	_, errs := s.Validate(c)
	assert.Equal(t, "Please select at least one service", only(t, errs, "services"))

	c.Services = []string{}
	_, errs = s.Validate(c)
	assert.Equal(t, "Please select at least one service", only(t, errs, "services"))

	c.Services = []string{"Branding", "SEO", "Hosting"}
	_, errs = s.Validate(c)
	require.Len(t, errs, 1)
	assert.Equal(t, "Please select a valid service", only(t, errs, "services"))

	c.Services = []string{"Mobile App", "Branding", "Mobile App"}
	rec, errs := s.Validate(c)
	require.Empty(t, errs)
	assert.Equal(t, []Service{ServiceBranding, ServiceMobileApp}, rec.Services())
}

func TestValidate_Budget(t *testing.T) {
	cases := []struct {
		value *float64
		want  string
	}{
		{nil, ""},
		{ptr(100), ""},
		{ptr(1_000_000), ""},
		{ptr(99), "Budget must be at least $100"},
		{ptr(0), "Budget must be at least $100"},
		{ptr(-500), "Budget must be at least $100"},
		{ptr(1_000_001), "Budget must be at most $1,000,000"},
		{ptr(150.5), "Budget must be a whole number"},
		{ptr(99.5), "Budget must be a whole number"},
		{ptr(math.NaN()), "Budget must be a whole number"},
		{ptr(math.Inf(1)), "Budget must be a whole number"},
	}
	s := newTestSchema()
	for _, tc := range cases {
		c := validCandidate()
		c.BudgetUSD = tc.value
		rec, errs := s.Validate(c)
		if tc.want == "" {
			require.Empty(t, errs)
			if tc.value == nil {
				_, ok := rec.Budget()
				assert.False(t, ok)
			}
			continue
		}
		assert.Equal(t, tc.want, only(t, errs, "budgetUsd"))
	}
}

func TestValidate_ProjectStartDate(t *testing.T) {
	cases := []struct {
		name  string
		value string
		want  string
	}{
		{"today", "2026-10-18", ""},
		{"tomorrow", "2026-10-19", ""},
		{"next year", "2027-01-01", ""},
		{"yesterday", "2026-10-17", "Project start date must be today or later"},
		{"last year", "2025-12-31", "Project start date must be today or later"},
		{"empty", "", "Project start date is required"},
		{"garbage", "next week", "Project start date must be a valid date"},
		{"impossible day", "2026-02-30", "Project start date must be a valid date"},
	}
	s := newTestSchema()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := validCandidate()
			c.ProjectStartDate = tc.value
			_, errs := s.Validate(c)
			if tc.want == "" {
				assert.Empty(t, errs)
				return
			}
			assert.Equal(t, tc.want, only(t, errs, "projectStartDate"))
		})
	}
}

func TestValidate_TodayAcceptedAtAnyHour(t *testing.T) {
	late := time.Date(2026, time.October, 18, 23, 59, 59, 0, time.Local)
	early := time.Date(2026, time.October, 18, 0, 0, 0, 0, time.Local)
	for _, now := range []time.Time{late, early} {
		s := NewSchema(WithClock(func() time.Time { return now }))
		c := validCandidate()
		c.ProjectStartDate = "2026-10-18"
		_, errs := s.Validate(c)
		assert.Empty(t, errs, now)
	}
}

func TestValidate_AcceptTerms(t *testing.T) {
	c := validCandidate()
	c.AcceptTerms = false
	_, errs := newTestSchema().Validate(c)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Message, "must accept the terms")
}

func TestRecordPayload(t *testing.T) {
	s := newTestSchema()

	rec, errs := s.Validate(validCandidate())
	require.Empty(t, errs)
	p := rec.Payload()
	require.NotNil(t, p.BudgetUSD)
	assert.Equal(t, int64(50000), *p.BudgetUSD)
	assert.Equal(t, []string{"UI/UX", "Web Dev"}, p.Services)
	assert.Equal(t, "2026-10-18", p.ProjectStartDate)

	c := validCandidate()
	c.BudgetUSD = nil
	rec, errs = s.Validate(c)
	require.Empty(t, errs)
	assert.Nil(t, rec.Payload().BudgetUSD)
}

func TestRecordServicesIsCopy(t *testing.T) {
	rec, errs := newTestSchema().Validate(validCandidate())
	require.Empty(t, errs)

	got := rec.Services()
	got[0] = "tampered"
	assert.Equal(t, ServiceUIUX, rec.Services()[0])
}

func TestValidationError(t *testing.T) {
	var err error = ValidationError{Fields: []FieldError{{Field: "email", Message: "Email is required"}}}
	assert.True(t, IsValidationError(err))
	assert.False(t, IsValidationError(assert.AnError))
}
