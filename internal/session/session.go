// internal/session/session.go
//
// Onboard – browser session id.
//
// Context
//   The hosted form keeps one submission controller per browser so the
//   at-most-one-in-flight rule applies per user.  This helper issues and
//   reads an opaque random id in a cookie named “onboard_session”.  The id
//   carries no user data.
//
//------------------------------------------------------------------------------

package session

import (
	"net/http"
	"time"

	"github.com/google/uuid"
)

const (
	cookieName = "onboard_session"
	lifetime   = 24 * time.Hour
)

// Ensure returns the request's session id, issuing a fresh cookie when the
// request has none or carries a malformed one.
func Ensure(w http.ResponseWriter, r *http.Request) string {
	if id, ok := Current(r); ok {
		return id
	}
	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil, // only send over HTTPS
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(lifetime),
	})
	return id
}

// Current returns the session id on r, if any.
//
// ok == false when the cookie is missing or not a UUID.
func Current(r *http.Request) (id string, ok bool) {
	c, err := r.Cookie(cookieName)
	if err != nil || c.Value == "" {
		return "", false
	}
	if _, err := uuid.Parse(c.Value); err != nil {
		return "", false
	}
	return c.Value, true
}
