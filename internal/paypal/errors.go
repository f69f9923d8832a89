package paypal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/sony/gobreaker/v2"
)

// APIError is a non-2xx answer from PayPal.
type APIError struct {
	StatusCode int
	Name       string          `json:"name"`
	Message    string          `json:"message"`
	DebugID    string          `json:"debug_id"`
	Details    []ErrorDetail   `json:"details"`
	OAuthError string          `json:"error"`
	OAuthDesc  string          `json:"error_description"`
	Raw        json.RawMessage `json:"-"`
}

type ErrorDetail struct {
	Field       string `json:"field"`
	Issue       string `json:"issue"`
	Description string `json:"description"`
}

func (e *APIError) Error() string {
	name, msg := e.Name, e.Message
	if name == "" {
		name, msg = e.OAuthError, e.OAuthDesc
	}
	if name == "" {
		name = http.StatusText(e.StatusCode)
	}
	s := fmt.Sprintf("paypal: %d %s", e.StatusCode, name)
	if msg != "" {
		s += ": " + msg
	}
	if e.DebugID != "" {
		s += " (debug_id " + e.DebugID + ")"
	}
	return s
}

func decodeAPIError(status int, body []byte) *APIError {
	e := &APIError{StatusCode: status, Raw: body}
	_ = json.Unmarshal(body, e)
	e.StatusCode = status
	return e
}

// TransportError means PayPal could not be reached or the response could
// not be read.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string { return fmt.Sprintf("paypal %s: %v", e.Op, e.Err) }

func (e *TransportError) Unwrap() error { return e.Err }

// Retryable reports whether a request that failed with err may be repeated.
func Retryable(err error) bool {
	var te *TransportError
	if errors.As(err, &te) {
		return true
	}
	var ae *APIError
	if errors.As(err, &ae) {
		return ae.StatusCode >= 500
	}
	return false
}

// IsTimeout reports whether err came from a deadline rather than a refusal.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// IsUnavailable reports whether the circuit breaker refused the call.
func IsUnavailable(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}
