package simulated

import (
	"context"
	"testing"
	"time"

	"github.com/ijalalfrz/flight-segment-search/internal/app/dto"
	"github.com/ijalalfrz/flight-segment-search/internal/pkg/ratelimit"
	"github.com/ijalalfrz/flight-segment-search/internal/pkg/remotesearch"
	"github.com/ijalalfrz/flight-segment-search/internal/pkg/segment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixturePath = "testdata/flights.json"

func cgkToDps() dto.SearchQuery {
	return dto.SearchQuery{
		Segment:    dto.Segment{Origin: "CGK", Destination: "DPS", Date: "2025-12-15"},
		Passengers: dto.Passengers{Adults: 1},
		Cabin:      dto.CabinEconomy,
	}
}

func newTestRemote(opts ...func(*Config)) *Remote {
	cfg := Config{FixturePath: fixturePath}
	for _, opt := range opts {
		opt(&cfg)
	}

	return NewRemote(cfg)
}

// drain polls id until the remote reports completion.
func drain(t *testing.T, r *Remote, id string) []remotesearch.Page {
	t.Helper()

	var (
		pages  []remotesearch.Page
		cursor string
	)

	for i := 0; i < 10; i++ {
		page, err := r.FetchResults(context.Background(), id, cursor)
		require.NoError(t, err)
		require.NoError(t, page.Validate())

		pages = append(pages, page)
		cursor = page.Cursor

		if page.Completion.Value == 100 {
			return pages
		}
	}

	t.Fatalf("search %s never completed", id)

	return nil
}

func TestRemote_RevealsInChunks(t *testing.T) {
	r := newTestRemote()

	id, err := r.SubmitSearch(context.Background(), cgkToDps())
	require.NoError(t, err)

	pages := drain(t, r, id)

	require.Len(t, pages, 3)
	assert.Equal(t, []int{37, 75, 100}, []int{
		pages[0].Completion.Value, pages[1].Completion.Value, pages[2].Completion.Value,
	})
	assert.Len(t, pages[0].Results, 3)
	assert.Len(t, pages[1].Results, 3)
	assert.Len(t, pages[2].Results, 2)

	first := pages[0].Results[0]
	assert.Equal(t, "GA400_Garuda", first.ID)
	assert.Equal(t, "1h 50m", first.Duration.Formatted)
	assert.Equal(t, "Rp1.250.000", first.Price.Formatted)
	assert.Equal(t, "15kg", first.Baggage.Checked)
	assert.Equal(t, "2025-12-15T06:00:00+07:00", first.Departure.Datetime)
}

func TestRemote_ResendsFromStaleCursor(t *testing.T) {
	r := newTestRemote()

	id, err := r.SubmitSearch(context.Background(), cgkToDps())
	require.NoError(t, err)

	_, err = r.FetchResults(context.Background(), id, "")
	require.NoError(t, err)

	page, err := r.FetchResults(context.Background(), id, "")
	require.NoError(t, err)
	assert.Len(t, page.Results, 6, "without a cursor every revealed flight is sent again")
}

func TestRemote_Filters(t *testing.T) {
	filterRequest := func(mutate func(q *dto.SearchQuery), want int) func(t *testing.T) {
		return func(t *testing.T) {
			r := newTestRemote(func(cfg *Config) { cfg.ChunkSize = 20 })

			q := cgkToDps()
			mutate(&q)

			id, err := r.SubmitSearch(context.Background(), q)
			require.NoError(t, err)

			page, err := r.FetchResults(context.Background(), id, "")
			require.NoError(t, err)
			assert.Len(t, page.Results, want)
		}
	}

	t.Run("economy", filterRequest(func(q *dto.SearchQuery) {}, 8))
	t.Run("business", filterRequest(func(q *dto.SearchQuery) { q.Cabin = dto.CabinBusiness }, 2))
	t.Run("direct_only", filterRequest(func(q *dto.SearchQuery) { q.Direct = true }, 6))
	t.Run("seats", filterRequest(func(q *dto.SearchQuery) { q.Passengers.Adults = 7 }, 7))
	t.Run("lowercase_route", filterRequest(func(q *dto.SearchQuery) {
		q.Segment.Origin, q.Segment.Destination = "cgk", "dps"
	}, 8))
	t.Run("return_leg", filterRequest(func(q *dto.SearchQuery) {
		q.Segment = dto.Segment{Origin: "DPS", Destination: "CGK", Date: "2025-12-20"}
	}, 4))
}

func TestRemote_NoResults(t *testing.T) {
	r := newTestRemote()

	q := cgkToDps()
	q.Segment = dto.Segment{Origin: "SUB", Destination: "KNO", Date: "2025-12-15"}

	id, err := r.SubmitSearch(context.Background(), q)
	require.NoError(t, err)

	page, err := r.FetchResults(context.Background(), id, "")
	require.NoError(t, err)
	assert.True(t, page.NoResults())
	assert.Equal(t, 100, page.Completion.Value)
	assert.Empty(t, page.Results)
}

func TestRemote_Errors(t *testing.T) {
	t.Run("unknown_search", func(t *testing.T) {
		_, err := newTestRemote().FetchResults(context.Background(), "missing", "")
		assert.ErrorIs(t, err, remotesearch.ErrSearchNotFound)
	})

	t.Run("missing_fixture", func(t *testing.T) {
		r := newTestRemote(func(cfg *Config) { cfg.FixturePath = "testdata/none.json" })
		_, err := r.SubmitSearch(context.Background(), cgkToDps())
		assert.ErrorIs(t, err, remotesearch.ErrRemoteUnavailable)
	})

	t.Run("always_failing", func(t *testing.T) {
		r := newTestRemote(func(cfg *Config) { cfg.FailureRate = 1 })
		_, err := r.SubmitSearch(context.Background(), cgkToDps())
		assert.ErrorIs(t, err, remotesearch.ErrRemoteUnavailable)
	})

	t.Run("rate_limited", func(t *testing.T) {
		r := newTestRemote(func(cfg *Config) { cfg.Limiter = ratelimit.NewLocalLimiter(1, 1) })

		_, err := r.SubmitSearch(context.Background(), cgkToDps())
		require.NoError(t, err)

		_, err = r.SubmitSearch(context.Background(), cgkToDps())
		assert.ErrorIs(t, err, remotesearch.ErrRateLimited)
	})

	t.Run("latency_exceeds_deadline", func(t *testing.T) {
		r := newTestRemote(func(cfg *Config) { cfg.MinLatency = time.Second })

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()

		_, err := r.SubmitSearch(ctx, cgkToDps())
		assert.ErrorIs(t, err, remotesearch.ErrConnectionTimeout)
	})
}

func TestRemote_WithOrchestrator(t *testing.T) {
	o, err := segment.NewOrchestrator(context.Background(), newTestRemote(),
		segment.WithPollInterval(time.Millisecond))
	require.NoError(t, err)
	defer o.Close()

	req := dto.BatchRequest{
		Segments: []dto.Segment{
			{Origin: "CGK", Destination: "DPS", Date: "2025-12-15"},
			{Origin: "DPS", Destination: "CGK", Date: "2025-12-20"},
			{Origin: "SUB", Destination: "KNO", Date: "2025-12-15"},
		},
		Passengers: dto.Passengers{Adults: 1},
	}
	require.NoError(t, o.StartBatch(context.Background(), req))

	var views []dto.SegmentView
	require.Eventually(t, func() bool {
		views = o.Views()
		for _, v := range views {
			if !v.Complete {
				return false
			}
		}
		return true
	}, 2*time.Second, time.Millisecond)

	assert.Len(t, views[0].Results, 8)
	assert.Equal(t, 100, views[0].Progress)
	assert.True(t, views[0].HasMore)

	assert.Len(t, views[1].Results, 4)
	assert.False(t, views[1].HasMore)

	assert.Empty(t, views[2].Results)
	assert.Equal(t, segment.MsgNoFlights, views[2].Error)
}
