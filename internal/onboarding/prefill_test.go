package onboarding

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrefillFromQuery(t *testing.T) {
	q, _ := url.ParseQuery("services=Web+Dev&email=jane%40example.com&companyName=Globex")
	p := PrefillFromQuery(q)
	assert.Equal(t, []string{"Web Dev"}, p.Services)
	assert.Equal(t, "jane@example.com", p.Email)
	assert.Equal(t, "Globex", p.CompanyName)
	assert.False(t, p.Empty())
}

func TestPrefillFromQuery_UnknownServiceIgnored(t *testing.T) {
	for _, raw := range []string{"services=SEO", "services=web+dev", "services="} {
		q, _ := url.ParseQuery(raw)
		p := PrefillFromQuery(q)
		assert.Empty(t, p.Services, raw)
		assert.True(t, p.Empty(), raw)
	}
}

func TestPrefillApply(t *testing.T) {
	p := Prefill{Services: []string{"Branding"}, Email: "a@b.co", CompanyName: "Initech"}

	var blank Candidate
	p.Apply(&blank)
	assert.Equal(t, []string{"Branding"}, blank.Services)
	assert.Equal(t, "a@b.co", blank.Email)
	assert.Equal(t, "Initech", blank.CompanyName)

	typed := Candidate{Services: []string{"UI/UX"}, Email: "me@x.io"}
	p.Apply(&typed)
	assert.Equal(t, []string{"UI/UX"}, typed.Services)
	assert.Equal(t, "me@x.io", typed.Email)
	assert.Equal(t, "Initech", typed.CompanyName)
}

func TestParseService_ExactMatchOnly(t *testing.T) {
	for _, svc := range Services {
		got, ok := ParseService(string(svc))
		assert.True(t, ok)
		assert.Equal(t, svc, got)
	}
	_, ok := ParseService("ui/ux")
	assert.False(t, ok)
}
