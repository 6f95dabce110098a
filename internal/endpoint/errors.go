package endpoint

import (
	"errors"
	"fmt"
)

// ErrNotConfigured is wrapped by KindConfig errors.
var ErrNotConfigured = errors.New("endpoint: url not configured")

// Kind classifies a failed delivery.
type Kind int

const (
	// KindConfig means no request was attempted because the client is not
	// configured.
	KindConfig Kind = iota + 1
	// KindServer means the endpoint answered with a non-success status.
	KindServer
	// KindTransport means the request produced no response.
	KindTransport
	// KindTimeout means no response arrived within the client timeout.
	KindTimeout
)

func (k Kind) String() string {
	switch k {
	case KindConfig:
		return "config"
	case KindServer:
		return "server"
	case KindTransport:
		return "transport"
	case KindTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// Error is returned by Client.Send for every failed delivery.
type Error struct {
	Kind Kind
	// Status and ServerMessage are set for KindServer only.
	Status        int
	ServerMessage string
	Err           error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindServer:
		if e.ServerMessage != "" {
			return fmt.Sprintf("endpoint: status %d: %s", e.Status, e.ServerMessage)
		}
		return fmt.Sprintf("endpoint: status %d", e.Status)
	default:
		if e.Err != nil {
			return fmt.Sprintf("endpoint: %s: %v", e.Kind, e.Err)
		}
		return "endpoint: " + e.Kind.String()
	}
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the Kind of err, or 0 when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
