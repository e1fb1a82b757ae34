package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ijalalfrz/flight-segment-search/internal/app/dto"
	"github.com/ijalalfrz/flight-segment-search/internal/pkg/remotesearch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var query = dto.SearchQuery{
	Segment:    dto.Segment{Origin: "CGK", Destination: "DPS", Date: "2025-12-15"},
	Passengers: dto.Passengers{Adults: 2, Infants: 1},
	Cabin:      dto.CabinBusiness,
	Direct:     true,
}

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...func(*Config)) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := Config{BaseURL: server.URL + "/v2/", Timeout: time.Second}
	for _, opt := range opts {
		opt(&cfg)
	}

	client, err := NewClient(cfg)
	require.NoError(t, err)

	return client
}

func TestClient_SubmitSearch(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v2/searches", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Accept"))

		var body submitRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, newSubmitRequest(query), body)
		assert.Equal(t, "business", body.Cabin)

		_, _ = w.Write([]byte(`{"search_id":"abc-123"}`))
	})

	id, err := client.SubmitSearch(context.Background(), query)
	require.NoError(t, err)
	assert.Equal(t, "abc-123", id)
}

func TestClient_SubmitSearchMissingID(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})

	_, err := client.SubmitSearch(context.Background(), query)
	assert.ErrorIs(t, err, remotesearch.ErrInvalidResponse)
}

func TestClient_FetchResults(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v2/searches/abc-123/results", r.URL.Path)
		assert.Equal(t, "c-1", r.URL.Query().Get("cursor"))

		_, _ = w.Write([]byte(`{
			"completion": 140,
			"results": [{"id": "GA400_Garuda", "stops": 0, "price": {"amount": 1500000}}],
			"cursor": "c-2",
			"status": "ok"
		}`))
	})

	page, err := client.FetchResults(context.Background(), "abc-123", "c-1")
	require.NoError(t, err)

	assert.Equal(t, remotesearch.Percent(100), page.Completion)
	assert.Equal(t, "c-2", page.Cursor)
	require.Len(t, page.Results, 1)
	assert.Equal(t, "GA400_Garuda", page.Results[0].ID)
	assert.NoError(t, page.Validate())
}

func TestClient_FetchResultsBooleanCompletion(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.URL.RawQuery)
		_, _ = w.Write([]byte(`{"completion": true, "results": [], "status": "no_results"}`))
	})

	page, err := client.FetchResults(context.Background(), "abc-123", "")
	require.NoError(t, err)
	assert.Equal(t, 100, page.Completion.Value)
	assert.True(t, page.NoResults())
}

func TestClient_StatusMapping(t *testing.T) {
	statusRequest := func(status int, want error) func(t *testing.T) {
		return func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(status)
			})

			_, err := client.FetchResults(context.Background(), "abc-123", "")
			assert.ErrorIs(t, err, want)

			_, err = client.SubmitSearch(context.Background(), query)
			assert.ErrorIs(t, err, want)
		}
	}

	t.Run("rate_limited", statusRequest(http.StatusTooManyRequests, remotesearch.ErrRateLimited))
	t.Run("not_found", statusRequest(http.StatusNotFound, remotesearch.ErrSearchNotFound))
	t.Run("internal_error", statusRequest(http.StatusInternalServerError, remotesearch.ErrRemoteUnavailable))
	t.Run("bad_gateway", statusRequest(http.StatusBadGateway, remotesearch.ErrRemoteUnavailable))
	t.Run("gateway_timeout", statusRequest(http.StatusGatewayTimeout, remotesearch.ErrConnectionTimeout))
	t.Run("bad_request", statusRequest(http.StatusBadRequest, remotesearch.ErrSearchRejected))
}

func TestClient_Timeout(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(200 * time.Millisecond):
		case <-r.Context().Done():
		}
	}, func(cfg *Config) {
		cfg.Timeout = 20 * time.Millisecond
	})

	_, err := client.FetchResults(context.Background(), "abc-123", "")
	assert.ErrorIs(t, err, remotesearch.ErrConnectionTimeout)
}

func TestClient_InvalidBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"completion": "soon"}`))
	})

	_, err := client.FetchResults(context.Background(), "abc-123", "")
	assert.ErrorIs(t, err, remotesearch.ErrInvalidResponse)
}

type denyAll struct{}

func (denyAll) Allow(context.Context, string) error { return remotesearch.ErrRateLimited }

func TestClient_RateLimited(t *testing.T) {
	var hits atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}, func(cfg *Config) {
		cfg.Limiter = denyAll{}
	})

	_, err := client.SubmitSearch(context.Background(), query)
	assert.ErrorIs(t, err, remotesearch.ErrRateLimited)

	_, err = client.FetchResults(context.Background(), "abc-123", "")
	assert.ErrorIs(t, err, remotesearch.ErrRateLimited)

	assert.Zero(t, hits.Load())
}

func TestNewClient_BaseURL(t *testing.T) {
	for _, raw := range []string{"", "localhost:9000", "ftp://example.com", "http://"} {
		_, err := NewClient(Config{BaseURL: raw})
		assert.ErrorIs(t, err, ErrBaseURL, raw)
	}
}
