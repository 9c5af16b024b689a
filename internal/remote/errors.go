// Package remote holds the failure classification shared by the clients of
// the extraction and matching capabilities.
package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"docproc/internal/domain"
)

// MaxErrorBody caps how much of a failed response body is kept as detail.
const MaxErrorBody = 1 << 20

// DefaultRetryAfter is suggested when a throttled response carries no usable hint.
const DefaultRetryAfter = 60 * time.Second

// ParseRetryAfterHeader parses a Retry-After header value into seconds.
// Returns 0 if the value is empty or not a valid integer.
func ParseRetryAfterHeader(val string) int {
	if val == "" {
		return 0
	}
	secs, err := strconv.Atoi(val)
	if err != nil || secs < 0 {
		return 0
	}
	return secs
}

// TransportError classifies a failure to obtain any response at all.
// Timeouts and cancellations count as unavailability, never as a hang.
func TransportError(op string, err error) *domain.Error {
	e := domain.NewError(domain.ErrUpstreamUnavailable, op, err)
	if errors.Is(err, context.DeadlineExceeded) {
		e.Detail = "request timed out"
	} else if errors.Is(err, context.Canceled) {
		e.Detail = "request canceled"
	}
	return e
}

// StatusError classifies a non-success response. 429 and 503 are transient
// and carry a retry hint; every other status is an upstream rejection with
// the body passed through verbatim.
func StatusError(op string, resp *http.Response) *domain.Error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, MaxErrorBody))

	kind := domain.ErrUpstreamError
	var retryAfter time.Duration
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusServiceUnavailable {
		kind = domain.ErrUpstreamUnavailable
		retryAfter = DefaultRetryAfter
		if secs := ParseRetryAfterHeader(resp.Header.Get("Retry-After")); secs > 0 {
			retryAfter = time.Duration(secs) * time.Second
		}
	}

	return &domain.Error{
		Kind:       kind,
		Op:         op,
		StatusCode: resp.StatusCode,
		Detail:     string(body),
		RetryAfter: retryAfter,
	}
}

// MalformedError reports a success response whose payload could not be decoded.
func MalformedError(op string, err error, body []byte) *domain.Error {
	e := domain.NewError(domain.ErrUpstreamError, op, fmt.Errorf("malformed response: %w", err))
	e.Detail = Truncate(string(body), 500)
	return e
}

// Truncate shortens s to at most maxLen bytes.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
