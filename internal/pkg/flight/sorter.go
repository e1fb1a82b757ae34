package flight

import (
	"sort"

	"github.com/ijalalfrz/flight-segment-search/internal/app/dto"
)

// sortKeys maps a sort field to the value it orders by. An empty field or
// "best" orders by score.
var sortKeys = map[string]func(dto.ResultItem) float64{
	"price":          func(r dto.ResultItem) float64 { return r.Price.Amount },
	"duration":       func(r dto.ResultItem) float64 { return float64(r.Duration.TotalMinutes) },
	"stops":          func(r dto.ResultItem) float64 { return float64(r.Stops) },
	"departure_time": func(r dto.ResultItem) float64 { return float64(r.Departure.Timestamp) },
	"arrival_time":   func(r dto.ResultItem) float64 { return float64(r.Arrival.Timestamp) },
}

// SortResults returns a sorted copy of results. Ties keep their arrival
// order.
func SortResults(results []dto.ResultItem, sortOption *dto.SortOption) []dto.ResultItem {
	var (
		field = ""
		desc  = false
	)
	if sortOption != nil {
		field = sortOption.Field
		desc = sortOption.Order == "desc"
	}

	key, ok := sortKeys[field]
	if !ok {
		key = func(r dto.ResultItem) float64 { return r.Score }
	}

	sorted := make([]dto.ResultItem, len(results))
	copy(sorted, results)

	sort.SliceStable(sorted, func(i, j int) bool {
		if desc {
			return key(sorted[i]) > key(sorted[j])
		}

		return key(sorted[i]) < key(sorted[j])
	})

	return sorted
}
