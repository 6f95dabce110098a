// internal/form/handler.go
//
// Onboard – web form: HTTP handler.
//
// Context
//   Serves the hosted onboarding page.  Each browser session owns one
//   submit.Controller, so the at-most-one-in-flight rule holds per user
//   while different users submit concurrently.  Controllers live in a
//   bounded LRU; evicting one simply forgets its last feedback.  A
//   controller with a submission in flight is never evicted.
//
// Routes
//   GET  /onboarding   render, applying query pre-fill
//   POST /onboarding   verify, decode, submit, re-render
//
// Status codes
//   200 idle or success, 403 bad token or timing, 409 submission already in
//   flight, 422 invalid input, 502 submission failed.
//
//------------------------------------------------------------------------------

package form

import (
	"bytes"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/AdeptTravel/adept-onboard/internal/cache"
	"github.com/AdeptTravel/adept-onboard/internal/logger"
	"github.com/AdeptTravel/adept-onboard/internal/metrics"
	"github.com/AdeptTravel/adept-onboard/internal/onboarding"
	"github.com/AdeptTravel/adept-onboard/internal/session"
	"github.com/AdeptTravel/adept-onboard/internal/submit"
)

const (
	maxFormBytes   = 64 << 10
	defaultMinFill = 2 * time.Second

	tokenMessage = "Security token invalid.  Please refresh and try again."
	busyMessage  = "Your previous submission is still being sent.  Please wait a moment."
)

// Handler serves the onboarding page.
type Handler struct {
	def      *FormDef
	csrf     *CSRF
	schema   *onboarding.Schema
	sender   submit.Sender
	sessions *cache.LRU[string, *submit.Controller]
	log      *zap.SugaredLogger
	now      func() time.Time
	minFill  time.Duration
}

// Option customises a Handler.
type Option func(*Handler)

// WithLogger sets the base logger.  Request loggers derive from it.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(h *Handler) {
		if l != nil {
			h.log = l
		}
	}
}

// WithClock overrides time.Now for render stamps and timing checks.
func WithClock(now func() time.Time) Option {
	return func(h *Handler) { h.now = now }
}

// WithMinFillTime sets how long a page must be open before it may be
// submitted.  Zero disables the check.
func WithMinFillTime(d time.Duration) Option {
	return func(h *Handler) { h.minFill = d }
}

// NewHandler wires a Handler.  maxSessions bounds the controller cache.
func NewHandler(def *FormDef, csrf *CSRF, schema *onboarding.Schema, sender submit.Sender,
	maxSessions int, opts ...Option) *Handler {

	h := &Handler{
		def:     def,
		csrf:    csrf,
		schema:  schema,
		sender:  sender,
		log:     zap.NewNop().Sugar(),
		now:     time.Now,
		minFill: defaultMinFill,
	}
	for _, o := range opts {
		o(h)
	}
	h.sessions = cache.New(maxSessions,
		func(_ string, _ *submit.Controller) { metrics.FormSessions.Dec() },
		func(_ string, ctl *submit.Controller) bool { return ctl.State() == submit.Submitting })
	return h
}

// Routes mounts the page on r.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		target := "/onboarding"
		if r.URL.RawQuery != "" {
			target += "?" + r.URL.RawQuery
		}
		http.Redirect(w, r, target, http.StatusSeeOther)
	})
	r.Get("/onboarding", h.show)
	r.Post("/onboarding", h.post)
}

// show renders the empty page, seeded from the query string.
func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	sid := session.Ensure(w, r)

	pre := onboarding.PrefillFromQuery(r.URL.Query())
	if !pre.Empty() {
		h.requestLog(r).Debugw("form pre-filled", "services", len(pre.Services),
			"domain", logger.EmailDomain(pre.Email))
	}
	page := h.page(PrefillValues(pre))
	if ctl, ok := h.sessions.Get(sid); ok && ctl.State() == submit.Submitting {
		page.Busy = true
	}
	h.render(w, r, http.StatusOK, page)
}

// post handles one submit trigger.
func (h *Handler) post(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	log := h.requestLog(r)
	posted := r.PostForm

	if !h.csrf.Verify(posted.Get("csrf_token")) {
		log.Infow("rejected form post", "reason", "csrf")
		h.reject(w, r, http.StatusForbidden, posted, tokenMessage)
		return
	}
	if msg := checkTiming(posted.Get("render_ts"), h.now(), h.minFill); msg != "" {
		log.Infow("rejected form post", "reason", "timing")
		h.reject(w, r, http.StatusForbidden, posted, msg)
		return
	}

	ctl := h.controller(w, r)
	ctx := logger.WithContext(r.Context(), log)

	fb, err := ctl.Submit(ctx, DecodeCandidate(posted))
	if errors.Is(err, submit.ErrInFlight) {
		page := h.page(posted)
		page.Busy = true
		page.Feedback = submit.Feedback{Kind: submit.FeedbackFailed, Message: busyMessage}
		h.render(w, r, http.StatusConflict, page)
		return
	}

	switch fb.Kind {
	case submit.FeedbackSuccess:
		page := h.page(nil) // cleared for the next entry
		page.Feedback = fb
		h.render(w, r, http.StatusOK, page)
	case submit.FeedbackInvalid:
		page := h.page(posted)
		page.Feedback = fb
		h.render(w, r, http.StatusUnprocessableEntity, page)
	default:
		page := h.page(posted)
		page.Feedback = fb
		h.render(w, r, http.StatusBadGateway, page)
	}
}

// controller returns the session's controller, creating it on first use.
func (h *Handler) controller(w http.ResponseWriter, r *http.Request) *submit.Controller {
	sid := session.Ensure(w, r)
	ctl, added := h.sessions.GetOrAdd(sid, func() *submit.Controller {
		return submit.New(h.schema, h.sender, submit.WithLogger(h.log))
	})
	if added {
		metrics.FormSessions.Inc()
		h.log.Debugw("form session started", "sessions", h.sessions.Len())
	}
	return ctl
}

func (h *Handler) reject(w http.ResponseWriter, r *http.Request, status int, posted map[string][]string, msg string) {
	page := h.page(posted)
	page.Feedback = submit.Feedback{Kind: submit.FeedbackFailed, Message: msg}
	h.render(w, r, status, page)
}

func (h *Handler) page(values map[string][]string) Page {
	now := h.now()
	return Page{
		Def:    h.def,
		Values: values,
		Token:  h.csrf.Token(),
		Now:    now,
	}
}

// render buffers the page so a template failure still yields a clean 500.
func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, p Page) {
	var buf bytes.Buffer
	if err := RenderPage(&buf, p); err != nil {
		h.requestLog(r).Errorw("render onboarding page", "err", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (h *Handler) requestLog(r *http.Request) *zap.SugaredLogger {
	if id := chimw.GetReqID(r.Context()); id != "" {
		return h.log.With("request_id", id)
	}
	return h.log
}
