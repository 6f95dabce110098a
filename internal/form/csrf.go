// internal/form/csrf.go
//
// Onboard – web form: stateless CSRF token utilities.
//
// Context
//   The page embeds a hidden `csrf_token` input generated at render time.
//   The server verifies it on POST to ensure the request came from a form it
//   rendered.  Tokens are *stateless*:
//
//      base64url( nonce | unixMicro | HMAC_SHA256(secret, nonce+unixMicro) )
//
//   •  nonce – 16 random bytes.
//   •  unixMicro – microseconds since Unix epoch, 8 bytes, big-endian.
//   •  HMAC – keyed with form.csrf_key from config.
//
//   Validation checks the signature and ensures the timestamp is within
//   maxAge.  No server-side state is required, so several instances can
//   share one key.
//
//------------------------------------------------------------------------------

package form

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"time"
)

const (
	nonceBytes = 16
	tokenBytes = nonceBytes + 8 + sha256.Size // nonce + ts + sig
	maxAge     = 2 * time.Hour                // token valid window
	minKeyLen  = 32
)

// CSRF issues and verifies tokens under one secret.
type CSRF struct {
	key []byte
	now func() time.Time
}

// NewCSRF builds a CSRF from a base64url key of at least 32 bytes.
// persistent is false when key is unusable and a random key was generated
// instead; tokens then do not survive a restart.
func NewCSRF(key string) (c *CSRF, persistent bool) {
	if b, err := base64.RawURLEncoding.DecodeString(key); err == nil && len(b) >= minKeyLen {
		return &CSRF{key: b, now: time.Now}, true
	}
	b := make([]byte, minKeyLen)
	_, _ = rand.Read(b) // crypto/rand never fails on supported platforms
	return &CSRF{key: b, now: time.Now}, false
}

// Token creates a new token.  Call once per form render.
func (c *CSRF) Token() string {
	nonce := make([]byte, nonceBytes)
	_, _ = rand.Read(nonce)

	ts := make([]byte, 8)
	binary.BigEndian.PutUint64(ts, uint64(c.now().UnixMicro()))

	buf := make([]byte, 0, tokenBytes)
	buf = append(buf, nonce...)
	buf = append(buf, ts...)
	buf = append(buf, c.sign(nonce, ts)...)

	return base64.RawURLEncoding.EncodeToString(buf)
}

// Verify returns true if tok passes HMAC and age checks.
func (c *CSRF) Verify(tok string) bool {
	raw, err := base64.RawURLEncoding.DecodeString(tok)
	if err != nil || len(raw) != tokenBytes {
		return false
	}

	nonce := raw[:nonceBytes]
	tsBytes := raw[nonceBytes : nonceBytes+8]
	sig := raw[nonceBytes+8:]

	issued := time.UnixMicro(int64(binary.BigEndian.Uint64(tsBytes)))
	now := c.now()
	if now.Sub(issued) > maxAge || issued.Sub(now) > time.Minute {
		// Older than maxAge, or from the future beyond clock skew.
		return false
	}

	return hmac.Equal(sig, c.sign(nonce, tsBytes))
}

func (c *CSRF) sign(nonce, ts []byte) []byte {
	mac := hmac.New(sha256.New, c.key)
	mac.Write(nonce)
	mac.Write(ts)
	return mac.Sum(nil)
}
