// Package matcher is the client of the remote catalog-matching capability.
package matcher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"docproc/internal/config"
	"docproc/internal/domain"
	"docproc/internal/remote"
)

// Client implements port.ProductMatcher over HTTP.
type Client struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

// NewClient creates a matching client from config.
func NewClient(cfg *config.RemoteConfig) *Client {
	return &Client{
		endpoint: cfg.URL,
		apiKey:   cfg.APIKey,
		client:   &http.Client{Timeout: cfg.Timeout()},
	}
}

type matchRequest struct {
	Items []domain.MatchQuery `json:"items"`
}

type matchEntry struct {
	ProductID string `json:"product_id"`
}

type matchResponse struct {
	Matches []*matchEntry `json:"matches"`
}

// Match resolves queries positionally. The result always has the same length
// as queries; a response of any other length is a protocol violation.
func (c *Client) Match(ctx context.Context, queries []domain.MatchQuery) ([]domain.MatchResult, error) {
	const op = "matcher.Match"

	if len(queries) == 0 {
		return nil, domain.NewError(domain.ErrInvalidInput, op, domain.ErrNoItemsToMatch)
	}

	payload, err := json.Marshal(matchRequest{Items: queries})
	if err != nil {
		return nil, fmt.Errorf("%s: encoding request: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%s: creating request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	remote.SetAuth(req, c.apiKey)

	log.Printf("matcher.Match: sending %d queries", len(queries))

	body, err := remote.Do(c.client, req, op)
	if err != nil {
		log.Printf("matcher.Match: request failed: %v", err)
		return nil, err
	}

	var resp matchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, remote.MalformedError(op, err, body)
	}

	if len(resp.Matches) != len(queries) {
		e := domain.NewError(domain.ErrProtocolViolation, op,
			fmt.Errorf("sent %d queries, received %d results", len(queries), len(resp.Matches)))
		e.Detail = remote.Truncate(string(body), 500)
		return nil, e
	}

	results := make([]domain.MatchResult, len(resp.Matches))
	matched := 0
	for i, m := range resp.Matches {
		if m == nil || m.ProductID == "" {
			results[i] = domain.MatchResult{ProductID: domain.NoMatch}
			continue
		}
		results[i] = domain.MatchResult{ProductID: m.ProductID}
		matched++
	}

	log.Printf("matcher.Match: %d of %d queries matched", matched, len(queries))
	return results, nil
}
