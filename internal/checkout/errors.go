package checkout

import (
	"errors"
	"fmt"
)

var (
	ErrCanceled = errors.New("checkout canceled")
	ErrBusy     = errors.New("checkout already in progress")
	// ErrNoOrder is returned by OnApprove when no order is awaiting capture.
	ErrNoOrder = errors.New("no order awaiting capture")
)

// TransportError means the order endpoint could not be reached or did not
// answer in time. Quoting retries these.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }

func (e *TransportError) Unwrap() error { return e.Err }

// ProviderError is a failure reported by the order endpoint: the payment
// provider refused, timed out or failed.
type ProviderError struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: %d %s", e.Op, e.StatusCode, e.Message)
}

// RejectedError is a 400 from the order endpoint. Details name the
// offending item and field.
type RejectedError struct {
	Message string
	Details []ItemProblem
}

type ItemProblem struct {
	Index  int    `json:"index"`
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func (e *RejectedError) Error() string {
	if len(e.Details) == 0 {
		return "order rejected: " + e.Message
	}
	d := e.Details[0]
	return fmt.Sprintf("order rejected: item %d %s: %s", d.Index, d.Field, d.Reason)
}
