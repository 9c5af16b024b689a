package remote

import (
	"fmt"
	"io"
	"net/http"
)

// MaxResponseBody caps how much of a success response is read.
const MaxResponseBody = 32 << 20

// Do sends req and returns the body of a 2xx response. Failures are returned
// as classified *domain.Error values.
func Do(client *http.Client, req *http.Request, op string) ([]byte, error) {
	resp, err := client.Do(req)
	if err != nil {
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return nil, TransportError(op, fmt.Errorf("%w: %v", ctxErr, err))
		}
		return nil, TransportError(op, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, StatusError(op, resp)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseBody))
	if err != nil {
		return nil, TransportError(op, fmt.Errorf("reading response: %w", err))
	}
	return body, nil
}

// SetAuth adds a bearer token when one is configured.
func SetAuth(req *http.Request, apiKey string) {
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}
}
