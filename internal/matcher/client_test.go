package matcher_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docproc/internal/config"
	"docproc/internal/domain"
	"docproc/internal/matcher"
)

func newTestClient(url string) *matcher.Client {
	return matcher.NewClient(&config.RemoteConfig{URL: url, APIKey: "k", TimeoutSecs: 5})
}

func respondWith(t *testing.T, payload string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(payload))
	}))
}

func TestMatch_SendsDescriptionAndQuantity(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "Bearer k", r.Header.Get("Authorization"))

		var body map[string][]map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Len(t, body["items"], 2)
		assert.Equal(t, "Widget", body["items"][0]["description"])
		assert.Equal(t, 2.0, body["items"][0]["quantity"])
		assert.Len(t, body["items"][0], 2)

		_, _ = w.Write([]byte(`{"matches":[{"product_id":"P1"},{"product_id":"P2"}]}`))
	}))
	defer server.Close()

	results, err := newTestClient(server.URL).Match(context.Background(), []domain.MatchQuery{
		{Description: "Widget", Quantity: 2},
		{Description: "Gadget", Quantity: 1},
	})

	require.NoError(t, err)
	assert.Equal(t, []domain.MatchResult{{ProductID: "P1"}, {ProductID: "P2"}}, results)
}

func TestMatch_SingleMatch(t *testing.T) {
	server := respondWith(t, `{"matches":[{"product_id":"P1"}]}`)
	defer server.Close()

	results, err := newTestClient(server.URL).Match(context.Background(), []domain.MatchQuery{{Description: "Widget"}})

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "P1", results[0].ProductID)
	assert.True(t, results[0].Matched())
}

func TestMatch_NullAndEmptyBecomeNoMatch(t *testing.T) {
	server := respondWith(t, `{"matches":[null,{},{"product_id":""},{"product_id":null}]}`)
	defer server.Close()

	results, err := newTestClient(server.URL).Match(context.Background(), make([]domain.MatchQuery, 4))

	require.NoError(t, err)
	require.Len(t, results, 4)
	for i, r := range results {
		assert.Equal(t, domain.NoMatch, r.ProductID, "position %d", i)
		assert.False(t, r.Matched())
	}
}

func TestMatch_LengthMismatchIsProtocolViolation(t *testing.T) {
	cases := map[string]string{
		"short":           `{"matches":[{"product_id":"P1"}]}`,
		"long":            `{"matches":[{"product_id":"P1"},{"product_id":"P2"},{"product_id":"P3"}]}`,
		"missing matches": `{}`,
		"null matches":    `{"matches":null}`,
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			server := respondWith(t, payload)
			defer server.Close()

			results, err := newTestClient(server.URL).Match(context.Background(), make([]domain.MatchQuery, 2))

			assert.Nil(t, results)
			assert.ErrorIs(t, err, domain.ErrProtocolViolation)
		})
	}
}

func TestMatch_EmptyInputNeverCallsRemote(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Match(context.Background(), nil)

	assert.ErrorIs(t, err, domain.ErrNoItemsToMatch)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestMatch_MalformedResponse(t *testing.T) {
	server := respondWith(t, `not json`)
	defer server.Close()

	_, err := newTestClient(server.URL).Match(context.Background(), make([]domain.MatchQuery, 1))

	assert.ErrorIs(t, err, domain.ErrUpstreamError)
	assert.NotErrorIs(t, err, domain.ErrProtocolViolation)
}

func TestMatch_UpstreamStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`catalog offline for maintenance`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Match(context.Background(), make([]domain.MatchQuery, 1))

	assert.ErrorIs(t, err, domain.ErrUpstreamError)
	assert.Equal(t, "catalog offline for maintenance", domain.DetailOf(err))
}

func TestMatch_RateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "3")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Match(context.Background(), make([]domain.MatchQuery, 1))

	assert.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
	assert.Equal(t, 3*time.Second, domain.RetryAfterOf(err))
}

func TestMatch_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer server.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := newTestClient(server.URL).Match(ctx, make([]domain.MatchQuery, 1))

	assert.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
}
