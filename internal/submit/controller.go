// internal/submit/controller.go
//
// Onboard – submission controller.
//
// Context
//   One Controller backs one form.  It owns the Idle → Submitting → Idle
//   cycle: validate, transform, send once, and turn the result into
//   Feedback.  A weight-1 semaphore gates Submit so a second trigger while a
//   request is pending is refused with ErrInFlight rather than queued.
//
// Workflow
//   •  Invalid input → FeedbackInvalid, no network call.
//   •  Valid input   → Submitting, one Sender.Send bounded by its timeout.
//   •  Success       → FeedbackSuccess.  Failure → FeedbackFailed with a
//      classified *endpoint.Error.  Either way the state returns to Idle.
//
//------------------------------------------------------------------------------

package submit

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/AdeptTravel/adept-onboard/internal/endpoint"
	"github.com/AdeptTravel/adept-onboard/internal/logger"
	"github.com/AdeptTravel/adept-onboard/internal/metrics"
	"github.com/AdeptTravel/adept-onboard/internal/onboarding"
)

// ErrInFlight is returned when Submit is called while a previous submission
// is still waiting on the endpoint.
var ErrInFlight = errors.New("submit: submission already in progress")

// State is the controller's lifecycle position.
type State int32

const (
	Idle State = iota
	Submitting
)

func (s State) String() string {
	if s == Submitting {
		return "submitting"
	}
	return "idle"
}

// Sender delivers a transformed payload.  *endpoint.Client satisfies it.
type Sender interface {
	Send(ctx context.Context, payload any) error
}

// Controller runs submissions for a single form.  Safe for concurrent use,
// but only one submission is ever in flight.
type Controller struct {
	schema *onboarding.Schema
	sender Sender
	log    *zap.SugaredLogger
	gate   *semaphore.Weighted

	mu    sync.Mutex
	state State
	last  Feedback
}

// Option customizes a Controller.
type Option func(*Controller)

// WithLogger sets the fallback logger.  A logger stored in the Submit context
// via logger.WithContext takes precedence.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(c *Controller) {
		if l != nil {
			c.log = l
		}
	}
}

// New returns an idle Controller.
func New(schema *onboarding.Schema, sender Sender, opts ...Option) *Controller {
	c := &Controller{
		schema: schema,
		sender: sender,
		log:    zap.NewNop().Sugar(),
		gate:   semaphore.NewWeighted(1),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Last returns the feedback from the most recent completed submission.
func (c *Controller) Last() Feedback {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

// Submit validates cand and, when valid, sends it.  The returned error is
// non-nil only for ErrInFlight; every other outcome is described by
// Feedback.
func (c *Controller) Submit(ctx context.Context, cand onboarding.Candidate) (Feedback, error) {
	if !c.gate.TryAcquire(1) {
		metrics.SubmissionsTotal.WithLabelValues(metrics.OutcomeBusy).Inc()
		return Feedback{}, ErrInFlight
	}
	defer c.gate.Release(1)

	log := c.logFor(ctx)

	rec, fieldErrs := c.schema.Validate(cand)
	if len(fieldErrs) > 0 {
		fb := Feedback{
			Kind:    FeedbackInvalid,
			Message: InvalidMessage,
			Fields:  fieldErrs,
			Err:     onboarding.ValidationError{Fields: fieldErrs},
		}
		metrics.SubmissionsTotal.WithLabelValues(metrics.OutcomeInvalid).Inc()
		log.Infow("submission rejected by schema", "fields", len(fieldErrs))
		c.finish(fb)
		return fb, nil
	}

	c.setState(Submitting)
	log.Debugw("submitting onboarding record",
		"domain", logger.EmailDomain(rec.Email()), "services", len(rec.Services()))

	start := time.Now()
	err := c.sender.Send(ctx, rec.Payload())
	if endpoint.KindOf(err) != endpoint.KindConfig {
		metrics.SubmissionDuration.Observe(time.Since(start).Seconds())
	}

	var fb Feedback
	if err == nil {
		fb = Feedback{Kind: FeedbackSuccess, Message: SuccessMessage}
		metrics.SubmissionsTotal.WithLabelValues(metrics.OutcomeSuccess).Inc()
		log.Infow("submission delivered", "domain", logger.EmailDomain(rec.Email()))
	} else {
		fb = Feedback{Kind: FeedbackFailed, Message: Message(err), Err: err}
		metrics.SubmissionsTotal.WithLabelValues(outcome(err)).Inc()
		log.Warnw("submission failed", "kind", endpoint.KindOf(err).String(), "err", err)
	}

	c.finish(fb)
	return fb, nil
}

func (c *Controller) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

func (c *Controller) finish(fb Feedback) {
	c.mu.Lock()
	c.state = Idle
	c.last = fb
	c.mu.Unlock()
}

func (c *Controller) logFor(ctx context.Context) *zap.SugaredLogger {
	if l, ok := logger.Lookup(ctx); ok {
		return l
	}
	return c.log
}
