package flight

import (
	"github.com/ijalalfrz/flight-segment-search/internal/app/dto"
)

// weighted scoring using normalization
// ref: https://www.1000minds.com/decision-making/what-is-mcdm-mcda

// weights for each criteria
const (
	WeightPrice             = 0.6
	WeightDurationInMinutes = 0.2
	WeightStops             = 0.15
	WeightAmenities         = 0.05
)

// RankResults returns a scored copy of results. 0 is the best result and 1
// the worst; results are only comparable within one call.
func RankResults(results []dto.ResultItem) []dto.ResultItem {
	ranked := make([]dto.ResultItem, len(results))
	copy(ranked, results)

	if len(ranked) == 0 {
		return ranked
	}

	price := valueRange(ranked, func(r dto.ResultItem) float64 { return r.Price.Amount })
	duration := valueRange(ranked, func(r dto.ResultItem) float64 { return float64(r.Duration.TotalMinutes) })
	stops := valueRange(ranked, func(r dto.ResultItem) float64 { return float64(r.Stops) })
	amenities := valueRange(ranked, func(r dto.ResultItem) float64 { return float64(len(r.Amenities)) })

	for i, r := range ranked {
		// more amenities is better
		amenitiesScore := 1 - amenities.normalize(float64(len(r.Amenities)))

		ranked[i].Score = WeightPrice*price.normalize(r.Price.Amount) +
			WeightDurationInMinutes*duration.normalize(float64(r.Duration.TotalMinutes)) +
			WeightStops*stops.normalize(float64(r.Stops)) +
			WeightAmenities*amenitiesScore
	}

	return ranked
}

type bounds struct {
	min, max float64
}

func valueRange(results []dto.ResultItem, value func(dto.ResultItem) float64) bounds {
	b := bounds{min: value(results[0]), max: value(results[0])}
	for _, r := range results[1:] {
		v := value(r)
		b.min = min(b.min, v)
		b.max = max(b.max, v)
	}

	return b
}

func (b bounds) normalize(value float64) float64 {
	return normalizeValue(value, b.min, b.max)
}

func normalizeValue(value, lo, hi float64) float64 {
	if hi == lo {
		return 0
	}

	return (value - lo) / (hi - lo)
}
