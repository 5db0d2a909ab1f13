package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrTransport is matched by every error a Provider returns when the
// generation service could not produce a reply.
var ErrTransport = errors.New("generation service unavailable")

// UnavailableMessage is the body some services return instead of an HTTP
// error when they are overloaded.
const UnavailableMessage = "Service Temporarily Unavailable"

// TransportError describes a failed round trip to a generation service.
type TransportError struct {
	Provider   string
	StatusCode int // zero when no HTTP response was received
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

// Unwrap exposes both the cause and ErrTransport to errors.Is.
func (e *TransportError) Unwrap() []error {
	return []error{ErrTransport, e.Err}
}

// Timeout reports whether the failure was caused by a deadline.
func (e *TransportError) Timeout() bool {
	return errors.Is(e.Err, context.DeadlineExceeded)
}

// NewTransportError wraps err as a transport failure of the named provider.
func NewTransportError(provider string, statusCode int, err error) *TransportError {
	return &TransportError{Provider: provider, StatusCode: statusCode, Err: err}
}

// CheckUnavailable turns the explicit unavailability reply into a transport
// failure. Any other text is returned unchanged.
func CheckUnavailable(provider, text string) (string, error) {
	if strings.TrimSpace(text) == UnavailableMessage {
		return "", NewTransportError(provider, 0, errors.New(UnavailableMessage))
	}
	return text, nil
}
