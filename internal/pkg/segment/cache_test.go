package segment

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/ijalalfrz/flight-segment-search/internal/app/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func items(ids ...string) []dto.ResultItem {
	out := make([]dto.ResultItem, len(ids))
	for i, id := range ids {
		out[i] = dto.ResultItem{ID: id, Price: dto.Price{Amount: float64(100 * (i + 1))}}
	}

	return out
}

func ids(results []dto.ResultItem) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.ID
	}

	return out
}

func TestResultCache_Freshness(t *testing.T) {
	now := time.Date(2025, 12, 1, 10, 0, 0, 0, time.UTC)
	cache := NewResultCache(5 * time.Minute)
	cache.now = func() time.Time { return now }

	cache.Put("k", CacheEntry{SearchID: "s-1", Progress: 30})

	entry, ok := cache.GetFresh("k")
	require.True(t, ok)
	assert.Equal(t, "s-1", entry.SearchID)
	assert.Equal(t, now, entry.UpdatedAt)

	now = now.Add(5*time.Minute + time.Second)

	_, ok = cache.GetFresh("k")
	assert.False(t, ok, "entry older than ttl must be ignored")

	_, ok = cache.Get("k")
	assert.True(t, ok, "stale entries are not deleted")

	cache.Clear()
	assert.Equal(t, 0, cache.Len())
}

func TestResultCache_Update(t *testing.T) {
	cache := NewResultCache(0)
	cache.Put("k", CacheEntry{Progress: 10})

	got, written := cache.Update("k", func(prev CacheEntry, found bool) (CacheEntry, bool) {
		assert.True(t, found)
		return prev, false
	})
	assert.False(t, written)
	assert.Equal(t, 10, got.Progress)

	got, written = cache.Update("k", func(prev CacheEntry, _ bool) (CacheEntry, bool) {
		prev.Progress = 40
		return prev, true
	})
	assert.True(t, written)
	assert.Equal(t, 40, got.Progress)

	entry, _ := cache.Get("k")
	assert.Equal(t, 40, entry.Progress)
}

func TestMergeResults(t *testing.T) {
	mergeRequest := func(existing, incoming []dto.ResultItem, wantIDs []string, wantAdded int) func(t *testing.T) {
		return func(t *testing.T) {
			merged, added := MergeResults(existing, incoming)

			if diff := cmp.Diff(wantIDs, ids(merged)); diff != "" {
				t.Fatalf("MergeResults ids mismatch (-want +got):\n%s", diff)
			}
			assert.Equal(t, wantAdded, added)
		}
	}

	t.Run("into_empty", mergeRequest(nil, items("a", "b"), []string{"a", "b"}, 2))
	t.Run("all_new", mergeRequest(items("a"), items("b", "c"), []string{"a", "b", "c"}, 2))
	t.Run("resend_is_not_new", mergeRequest(items("a", "b"), items("b"), []string{"a", "b"}, 0))
	t.Run("duplicates_in_page", mergeRequest(nil, items("a", "a", "b"), []string{"a", "b"}, 2))
	t.Run("empty_page", mergeRequest(items("a"), nil, []string{"a"}, 0))

	t.Run("last_write_wins", func(t *testing.T) {
		existing := []dto.ResultItem{{ID: "a", Price: dto.Price{Amount: 100}}}
		incoming := []dto.ResultItem{{ID: "a", Price: dto.Price{Amount: 80}}}

		merged, added := MergeResults(existing, incoming)
		require.Len(t, merged, 1)
		assert.Equal(t, 0, added)
		assert.Equal(t, 80.0, merged[0].Price.Amount)
		assert.Equal(t, 100.0, existing[0].Price.Amount, "existing slice must not be modified")
	})
}
