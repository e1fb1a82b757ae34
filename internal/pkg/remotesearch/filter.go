package remotesearch

import (
	"strings"

	"github.com/ijalalfrz/flight-segment-search/internal/app/dto"
)

// FilterResults drops results that contradict the query: another route, a
// connecting flight on a direct-only search, or too few seats.
func FilterResults(items []dto.ResultItem, query dto.SearchQuery) []dto.ResultItem {
	results := make([]dto.ResultItem, 0, len(items))
	seats := query.Passengers.Adults + query.Passengers.Children

	for _, item := range items {
		if item.Departure.Airport != "" &&
			!strings.EqualFold(item.Departure.Airport, query.Segment.Origin) {
			continue
		}

		if item.Arrival.Airport != "" &&
			!strings.EqualFold(item.Arrival.Airport, query.Segment.Destination) {
			continue
		}

		if query.Direct && item.Stops > 0 {
			continue
		}

		if item.AvailableSeats > 0 && item.AvailableSeats < seats {
			continue
		}

		results = append(results, item)
	}

	return results
}
