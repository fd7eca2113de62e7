package providers

import (
	"context"
	"errors"
	"fmt"
	"net/url"
)

// Failure reason constants. Non-2xx statuses use HTTPReason instead.
const (
	// ReasonNetwork marks transport-level failures: connection refused, DNS,
	// deadline exceeded, cancelled context.
	ReasonNetwork = "network"
	// ReasonEmptyResponse marks a 2xx reply whose completion field was
	// missing or empty. Treated the same as any other failure by the chain.
	ReasonEmptyResponse = "empty_response"
)

// HTTPReason returns the classified reason string for a non-2xx status,
// e.g. "http_429".
func HTTPReason(status int) string {
	return fmt.Sprintf("http_%d", status)
}

// Error is the normalised failure of a single adapter invocation.
// Every adapter converts its vendor-specific failures into one of these so
// the fallback chain can record a uniform reason per attempt.
type Error struct {
	Provider string // adapter name
	Reason   string // "network", "http_<status>", or "empty_response"
	Status   int    // HTTP status when Reason is http_*; 0 otherwise
	Message  string // vendor error detail, best effort
	Err      error  // underlying error, if any
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Provider, e.Message, e.Reason)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v (%s)", e.Provider, e.Err, e.Reason)
	}
	return fmt.Sprintf("%s: request failed (%s)", e.Provider, e.Reason)
}

// Unwrap exposes the underlying error to errors.Is/As.
func (e *Error) Unwrap() error { return e.Err }

// NetworkError wraps a transport-level failure.
func NetworkError(provider string, err error) *Error {
	// url.Error wraps the interesting cause; unwrap it for a cleaner message.
	var uerr *url.Error
	if errors.As(err, &uerr) {
		err = uerr.Err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Provider: provider, Reason: ReasonNetwork, Message: "request timed out", Err: err}
	}
	return &Error{Provider: provider, Reason: ReasonNetwork, Err: err}
}

// StatusError wraps a non-2xx vendor reply.
func StatusError(provider string, status int, detail string) *Error {
	return &Error{Provider: provider, Reason: HTTPReason(status), Status: status, Message: detail}
}

// EmptyResponseError marks a 2xx reply with no usable completion.
func EmptyResponseError(provider string) *Error {
	return &Error{Provider: provider, Reason: ReasonEmptyResponse, Message: "completion field missing or empty"}
}

// ReasonOf extracts the classified reason from err, or "unknown" if err is
// not a *Error.
func ReasonOf(err error) string {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Reason
	}
	return "unknown"
}
