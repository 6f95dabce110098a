// internal/endpoint/client.go
//
// Onboard – remote endpoint client.
//
// Context
//   The onboarding record leaves the process exactly once, as a JSON POST to
//   a configured URL.  Send makes one attempt bounded by a timeout and
//   classifies any failure into an *Error so the submission controller can
//   pick the right user message.  There is no retry.
//
// Workflow
//   •  Missing URL → KindConfig, nothing built or sent.
//   •  200 or 201 → success.  Any other status → KindServer, with the
//      server's "message" (or "error") field when the body is JSON.
//   •  No response → KindTimeout when the deadline fired, else KindTransport.
//
//------------------------------------------------------------------------------

package endpoint

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// DefaultTimeout bounds a single delivery attempt.
const DefaultTimeout = 10 * time.Second

// maxBody caps how much of an error response we read for its message.
const maxBody = 64 << 10

// Doer executes HTTP requests.  *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client posts payloads to one endpoint URL.  Safe for concurrent use,
// including Reconfigure while sends are in flight.
type Client struct {
	tgt  atomic.Pointer[target]
	doer Doer
	log  *zap.SugaredLogger

	// option scratch, copied into tgt by New
	url     string
	timeout time.Duration
}

// target is swapped as a unit so one Send never mixes two configs.
type target struct {
	url     string
	timeout time.Duration
}

// Option customizes a Client.
type Option func(*Client)

// WithTimeout overrides DefaultTimeout.  Non-positive values are ignored.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithDoer swaps the underlying HTTP client.
func WithDoer(d Doer) Option {
	return func(c *Client) {
		if d != nil {
			c.doer = d
		}
	}
}

// WithLogger attaches a logger.  The default discards.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// New returns a Client for url.  An empty url is allowed; every Send then
// fails with KindConfig.
func New(url string, opts ...Option) *Client {
	c := &Client{
		url:     strings.TrimSpace(url),
		doer:    &http.Client{},
		timeout: DefaultTimeout,
		log:     zap.NewNop().Sugar(),
	}
	for _, o := range opts {
		o(c)
	}
	c.tgt.Store(&target{url: c.url, timeout: c.timeout})
	return c
}

// Reconfigure points later sends at url with the given deadline.  A
// non-positive timeout keeps the current one.  Sends already running finish
// against the old target.
func (c *Client) Reconfigure(url string, timeout time.Duration) {
	next := *c.tgt.Load()
	next.url = strings.TrimSpace(url)
	if timeout > 0 {
		next.timeout = timeout
	}
	c.tgt.Store(&next)
	c.log.Infow("endpoint reconfigured", "configured", next.url != "", "timeout", next.timeout)
}

// Configured reports whether the client has a URL to post to.
func (c *Client) Configured() bool { return c.tgt.Load().url != "" }

// Timeout returns the per-attempt deadline.
func (c *Client) Timeout() time.Duration { return c.tgt.Load().timeout }

// Send marshals payload and POSTs it once.  It returns nil on 200 or 201 and
// an *Error otherwise.
func (c *Client) Send(ctx context.Context, payload any) error {
	tgt := c.tgt.Load()
	if tgt.url == "" {
		return &Error{Kind: KindConfig, Err: ErrNotConfigured}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("endpoint: encode payload: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, tgt.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tgt.url, bytes.NewReader(body))
	if err != nil {
		// A URL that cannot form a request is a configuration problem.
		return &Error{Kind: KindConfig, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.doer.Do(req)
	if err != nil {
		kind := KindTransport
		if isTimeout(ctx, err) {
			kind = KindTimeout
		}
		c.log.Warnw("endpoint request failed",
			"kind", kind.String(), "elapsed", time.Since(start), "err", err)
		return &Error{Kind: kind, Err: err}
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated:
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBody))
		c.log.Infow("endpoint accepted submission",
			"status", resp.StatusCode, "elapsed", time.Since(start))
		return nil
	}

	raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if readErr != nil && isTimeout(ctx, readErr) {
		return &Error{Kind: KindTimeout, Err: readErr}
	}
	e := &Error{
		Kind:          KindServer,
		Status:        resp.StatusCode,
		ServerMessage: serverMessage(raw),
	}
	c.log.Warnw("endpoint rejected submission",
		"status", e.Status, "server_message", e.ServerMessage, "elapsed", time.Since(start))
	return e
}

// serverMessage pulls a human-readable message out of a JSON error body.
func serverMessage(raw []byte) string {
	if len(raw) == 0 || !gjson.ValidBytes(raw) {
		return ""
	}
	for _, path := range []string{"message", "error.message", "error"} {
		if r := gjson.GetBytes(raw, path); r.Type == gjson.String && r.Str != "" {
			return strings.TrimSpace(r.Str)
		}
	}
	return ""
}

// isTimeout reports whether err came from our deadline rather than a
// connection-level failure.
func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
