package cmc

import "fmt"

// FetchError describes a failed call against the CMC API: transport error,
// non-2xx status, malformed body or an API-level error code. Retryable marks
// failures (429, 5xx, transport) that a later attempt may clear.
type FetchError struct {
	Endpoint   string
	StatusCode int
	Retryable  bool
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("cmc %s: status %d: %v", e.Endpoint, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("cmc %s: %v", e.Endpoint, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether a later attempt may succeed.
func (e *FetchError) IsRetryable() bool {
	return e.Retryable
}
