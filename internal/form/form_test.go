package form

import (
	"encoding/base64"
	"math"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AdeptTravel/adept-onboard/internal/onboarding"
)

func TestDefault_EmbeddedFormParses(t *testing.T) {
	def, err := Default()
	require.NoError(t, err)
	assert.Equal(t, "onboarding", def.ID)

	svc, ok := def.Field("services")
	require.True(t, ok)
	assert.Equal(t, "checkboxes", svc.Type)
	assert.Len(t, svc.Options, len(onboarding.Services))

	for name := range candidateFields() {
		_, ok := def.Field(name)
		assert.True(t, ok, "field %s missing from embedded form", name)
	}
}

func TestParse_StructuralErrors(t *testing.T) {
	cases := map[string]string{
		"missing id": `
fields:
  - {name: email, label: Email, type: email}`,
		"unknown field": `
id: x
fields:
  - {name: phone, label: Phone, type: text}`,
		"duplicate": `
id: x
fields:
  - {name: email, label: Email, type: email}
  - {name: email, label: Email again, type: email}`,
		"bad type": `
id: x
fields:
  - {name: email, label: Email, type: password}`,
		"unknown service": `
id: x
fields:
  - {name: services, label: Services, type: checkboxes, options: [SEO]}`,
		"bad pattern": `
id: x
fields:
  - {name: fullName, label: Name, type: text, pattern: "[a-"}`,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc), name)
			assert.Error(t, err)
		})
	}
}

func TestCSRF_RoundTrip(t *testing.T) {
	key := base64.RawURLEncoding.EncodeToString([]byte(strings.Repeat("k", 32)))
	c, persistent := NewCSRF(key)
	require.True(t, persistent)

	tok := c.Token()
	assert.True(t, c.Verify(tok))
	assert.False(t, c.Verify(""))
	raw, err := base64.RawURLEncoding.DecodeString(tok)
	require.NoError(t, err)
	raw[len(raw)-1] ^= 0xff
	assert.False(t, c.Verify(base64.RawURLEncoding.EncodeToString(raw)))

	other, _ := NewCSRF(base64.RawURLEncoding.EncodeToString([]byte(strings.Repeat("z", 32))))
	assert.False(t, other.Verify(tok))
}

func TestCSRF_Expiry(t *testing.T) {
	c, persistent := NewCSRF("too-short")
	assert.False(t, persistent)

	issued := time.Date(2026, time.October, 18, 9, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return issued }
	tok := c.Token()

	c.now = func() time.Time { return issued.Add(maxAge + time.Second) }
	assert.False(t, c.Verify(tok))
}

func TestDecodeCandidate(t *testing.T) {
	v := url.Values{
		"fullName":         {"John Doe"},
		"email":            {"  john@example.com "},
		"companyName":      {"Acme Corp"},
		"services":         {"Web Dev", "UI/UX"},
		"budgetUsd":        {"50000"},
		"projectStartDate": {"2026-10-18"},
		"acceptTerms":      {"on"},
	}
	c := DecodeCandidate(v)
	assert.Equal(t, "john@example.com", c.Email)
	assert.Equal(t, []string{"Web Dev", "UI/UX"}, c.Services)
	require.NotNil(t, c.BudgetUSD)
	assert.Equal(t, 50000.0, *c.BudgetUSD)
	assert.True(t, c.AcceptTerms)

	v.Set("budgetUsd", "")
	v.Del("acceptTerms")
	c = DecodeCandidate(v)
	assert.Nil(t, c.BudgetUSD)
	assert.False(t, c.AcceptTerms)

	v.Set("budgetUsd", "lots")
	c = DecodeCandidate(v)
	require.NotNil(t, c.BudgetUSD)
	assert.True(t, math.IsNaN(*c.BudgetUSD))
}

func TestCheckTiming(t *testing.T) {
	now := time.Date(2026, time.October, 18, 9, 0, 0, 0, time.UTC)
	stamp := func(d time.Duration) string {
		return strconv.FormatInt(now.Add(-d).UnixMicro(), 10)
	}

	assert.Empty(t, checkTiming(stamp(10*time.Second), now, 2*time.Second))
	assert.Contains(t, checkTiming(stamp(time.Second), now, 2*time.Second), "too quickly")
	assert.Contains(t, checkTiming(stamp(formExpiry+time.Minute), now, 0), "expired")
	assert.Contains(t, checkTiming("", now, 0), "missing")
	assert.Contains(t, checkTiming("abc", now, 0), "Bad timestamp")
}
