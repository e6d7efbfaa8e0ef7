package domain

import (
	"context"
	"errors"
	"fmt"
)

// Fetch failure kinds reported by source fetchers.
var (
	ErrFetchTimeout   = errors.New("fetch timed out")
	ErrFetchNetwork   = errors.New("network error")
	ErrInvalidPayload = errors.New("invalid or empty CSV payload")
)

// HTTPStatusError is returned when a source answers with a non-2xx status.
type HTTPStatusError struct {
	URL        string
	StatusCode int
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("HTTP %d from %s", e.StatusCode, e.URL)
}

// Fetch outcome labels.
const (
	FetchSuccess        = "success"
	FetchTimeout        = "timeout"
	FetchHTTPError      = "http_error"
	FetchNetworkError   = "network_error"
	FetchInvalidPayload = "invalid_payload"
)

// FetchOutcome maps a fetch error to its outcome label. Unclassified errors
// count as network errors.
func FetchOutcome(err error) string {
	var statusErr *HTTPStatusError
	switch {
	case err == nil:
		return FetchSuccess
	case errors.Is(err, ErrFetchTimeout), errors.Is(err, context.DeadlineExceeded):
		return FetchTimeout
	case errors.As(err, &statusErr):
		return FetchHTTPError
	case errors.Is(err, ErrInvalidPayload):
		return FetchInvalidPayload
	default:
		return FetchNetworkError
	}
}
