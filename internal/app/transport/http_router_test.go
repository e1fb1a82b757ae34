package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ijalalfrz/flight-segment-search/internal/app/config"
	"github.com/ijalalfrz/flight-segment-search/internal/app/dto"
	"github.com/ijalalfrz/flight-segment-search/internal/app/endpoints"
	"github.com/ijalalfrz/flight-segment-search/internal/app/service"
	"github.com/ijalalfrz/flight-segment-search/internal/pkg/metrics"
	"github.com/ijalalfrz/flight-segment-search/internal/pkg/remotesearch"
	"github.com/ijalalfrz/flight-segment-search/internal/pkg/segment"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubRemote completes every search at once with ten flights.
type stubRemote struct{}

func (stubRemote) SubmitSearch(_ context.Context, q dto.SearchQuery) (string, error) {
	return q.Segment.Origin + "-" + q.Segment.Destination, nil
}

func (stubRemote) FetchResults(_ context.Context, searchID, _ string) (remotesearch.Page, error) {
	results := make([]dto.ResultItem, 10)
	for i := range results {
		results[i] = dto.ResultItem{
			ID:    searchID + "-" + string(rune('a'+i)),
			Price: dto.Price{Amount: float64(1000 - i*10)},
		}
	}

	return remotesearch.Page{Completion: remotesearch.Percent(100), Results: results}, nil
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	require.NoError(t, dto.InitValidator())

	reg := prometheus.NewRegistry()
	o, err := segment.NewOrchestrator(context.Background(), stubRemote{},
		segment.WithMetrics(metrics.NewSearchMetrics(reg)),
		segment.WithPollInterval(time.Millisecond))
	require.NoError(t, err)
	t.Cleanup(o.Close)

	endpts := endpoints.Endpoints{
		SearchEndpoint: endpoints.MakeSearchEndpoint(service.NewSearchService(o)),
	}

	return MakeHTTPRouter(&config.Config{HTTP: config.HTTP{Timeout: time.Second}}, endpts, o.BatchID, reg)
}

func serve(router http.Handler, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	return rec
}

func TestRouter_Health(t *testing.T) {
	rec := serve(newTestRouter(t), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRouter_SearchFlow(t *testing.T) {
	router := newTestRouter(t)

	rec := serve(router, http.MethodGet, "/api/v1/searches", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, rec.Header().Get("X-Batch-Id"))

	rec = serve(router, http.MethodPost, "/api/v1/searches", `{
		"segments": [{"origin": "CGK", "destination": "DPS", "date": "2025-12-15"}],
		"passengers": {"adults": 1}
	}`)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))

	var started dto.SegmentsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &started))
	assert.NotEmpty(t, started.BatchID)
	require.Len(t, started.Segments, 1)

	var listed dto.SegmentsResponse
	require.Eventually(t, func() bool {
		rec := serve(router, http.MethodGet, "/api/v1/searches?sort_field=price&sort_order=asc", "")
		if rec.Code != http.StatusOK {
			return false
		}
		listed = dto.SegmentsResponse{}
		return json.Unmarshal(rec.Body.Bytes(), &listed) == nil && listed.Segments[0].Complete
	}, 2*time.Second, 5*time.Millisecond)

	view := listed.Segments[0]
	require.Len(t, view.Results, 4)
	assert.Equal(t, "CGK-DPS-j", view.Results[0].ID, "cheapest first")
	assert.True(t, view.HasMore)

	rec = serve(router, http.MethodPost, "/api/v1/searches/segments/0/reveal", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, started.BatchID, rec.Header().Get("X-Batch-Id"))

	var revealed dto.SegmentView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &revealed))
	assert.Equal(t, 8, revealed.VisibleCount)
	assert.Len(t, revealed.Results, 8)

	rec = serve(router, http.MethodPost, "/api/v1/searches/segments/3/reveal", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(router, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "segment_search_batches_total 1")
}

func TestRouter_BadRequests(t *testing.T) {
	router := newTestRouter(t)

	badRequest := func(method, target, body, wantMsg string) func(t *testing.T) {
		return func(t *testing.T) {
			rec := serve(router, method, target, body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)

			var got dto.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
			assert.Contains(t, got.Error, wantMsg)
		}
	}

	t.Run("no_segments", badRequest(http.MethodPost, "/api/v1/searches",
		`{"passengers": {"adults": 1}}`, "segments is a required field"))
	t.Run("bad_airport", badRequest(http.MethodPost, "/api/v1/searches",
		`{"segments": [{"origin": "C", "destination": "DPS", "date": "2025-12-15"}], "passengers": {"adults": 1}}`,
		"origin must be a 3 or 4 letter airport code"))
	t.Run("malformed_json", badRequest(http.MethodPost, "/api/v1/searches", `{"segments":`, "invalid request body"))
	t.Run("bad_sort", badRequest(http.MethodGet, "/api/v1/searches?sort_field=seats", "", "Invalid sort field"))
	t.Run("bad_index", badRequest(http.MethodPost, "/api/v1/searches/segments/x/reveal", "", "segment index"))
}
