package submit

import (
	"errors"
	"fmt"

	"github.com/AdeptTravel/adept-onboard/internal/endpoint"
	"github.com/AdeptTravel/adept-onboard/internal/metrics"
	"github.com/AdeptTravel/adept-onboard/internal/onboarding"
)

// FeedbackKind tells the view what to show after a submit trigger.
type FeedbackKind int

const (
	FeedbackNone FeedbackKind = iota
	FeedbackSuccess
	FeedbackInvalid
	FeedbackFailed
)

func (k FeedbackKind) String() string {
	switch k {
	case FeedbackSuccess:
		return "success"
	case FeedbackInvalid:
		return "invalid"
	case FeedbackFailed:
		return "failed"
	default:
		return "none"
	}
}

// Feedback is the user-visible result of one submission.
type Feedback struct {
	Kind    FeedbackKind
	Message string
	// Fields is set for FeedbackInvalid.
	Fields []onboarding.FieldError
	// Err is onboarding.ValidationError for FeedbackInvalid and an
	// *endpoint.Error (or a wrapped encode error) for FeedbackFailed.
	Err error
}

// FieldMessage returns the inline message for field, or "".
func (f Feedback) FieldMessage(field string) string {
	for _, fe := range f.Fields {
		if fe.Field == field {
			return fe.Message
		}
	}
	return ""
}

// SuccessMessage acknowledges an accepted submission.
const SuccessMessage = "Thank you! Your onboarding details were submitted successfully."

// InvalidMessage heads the inline field errors.
const InvalidMessage = "Please correct the highlighted fields and try again."

// Message maps a submission failure to the text shown to the user.
func Message(err error) string {
	var e *endpoint.Error
	if !errors.As(err, &e) {
		return "Something went wrong while submitting. Please try again."
	}
	switch e.Kind {
	case endpoint.KindConfig:
		return "Submissions are not available right now. Please contact support."
	case endpoint.KindServer:
		if e.ServerMessage != "" {
			return fmt.Sprintf("Submission failed (status %d): %s", e.Status, e.ServerMessage)
		}
		return fmt.Sprintf("Submission failed (status %d). Please try again later.", e.Status)
	case endpoint.KindTimeout:
		return "The server took too long to respond. Please try again."
	default:
		return "Unable to reach the server. Please check your network connection and try again."
	}
}

// outcome labels err for metrics.
func outcome(err error) string {
	switch endpoint.KindOf(err) {
	case endpoint.KindConfig:
		return metrics.OutcomeConfig
	case endpoint.KindServer:
		return metrics.OutcomeServer
	case endpoint.KindTimeout:
		return metrics.OutcomeTimeout
	default:
		return metrics.OutcomeTransport
	}
}
