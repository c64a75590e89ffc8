// Package classify defines the contract with the external lead-classification
// oracle.
package classify

import "context"

// Result is the structured classification for a single lead.
type Result struct {
	// Urgency is one of "High", "Medium" or "Low".
	Urgency string
	// PersonaType is one of "Decision Maker", "Practitioner" or "Other".
	PersonaType string
	// Summary is a one-sentence description of the lead's intent.
	Summary string
}

// Classifier classifies one lead from its job title and free-text comment.
//
// Both inputs are opaque text; empty strings are valid. Implementations make
// one outbound call per invocation and keep no per-lead state, so calls for
// distinct leads are independently retryable.
type Classifier interface {
	Classify(ctx context.Context, jobTitle, comment string) (Result, error)
}

// UnavailableError reports that the oracle could not be reached or refused
// the call: network failure, timeout, rate limit, or auth rejection.
//
// Retryable is true for failures worth retrying with backoff (rate limits,
// server errors, timeouts) and false for ones that will not resolve on their
// own (bad credentials).
type UnavailableError struct {
	Err       error
	Retryable bool
}

func (e *UnavailableError) Error() string {
	if e == nil || e.Err == nil {
		return "classification oracle unavailable"
	}
	return "classification oracle unavailable: " + e.Err.Error()
}

func (e *UnavailableError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Transient reports whether worker pools should retry the call.
func (e *UnavailableError) Transient() bool { return e != nil && e.Retryable }

// ParseError reports that the oracle responded but its payload could not be
// decoded into a Result. Never retried: the same prompt is likely to produce
// the same malformed shape, and the response has already been paid for.
type ParseError struct {
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	msg := "classification response unparseable"
	if e != nil && e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e != nil && e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ParseError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
