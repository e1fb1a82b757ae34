package segment

import (
	"strconv"
	"strings"
	"time"

	"github.com/ijalalfrz/flight-segment-search/internal/app/dto"
)

const (
	keySeparator = "|"
	dateLayout   = "2006-01-02"
)

var cabinCodes = map[dto.CabinClass]string{
	dto.CabinEconomy:  "ECO",
	dto.CabinPremium:  "PRE",
	dto.CabinBusiness: "BUS",
	dto.CabinFirst:    "FST",
}

// BuildKey derives the cache and dedup identity of a query. Display-only
// fields such as city names do not take part.
func BuildKey(q dto.SearchQuery) string {
	direct := "0"
	if q.Direct {
		direct = "1"
	}

	return strings.Join([]string{
		strings.ToUpper(strings.TrimSpace(q.Segment.Origin)),
		strings.ToUpper(strings.TrimSpace(q.Segment.Destination)),
		normalizeDate(q.Segment.Date),
		cabinCode(q.Cabin),
		direct,
		strconv.Itoa(q.Passengers.Adults),
		strconv.Itoa(q.Passengers.Children),
		strconv.Itoa(q.Passengers.Infants),
	}, keySeparator)
}

func normalizeDate(date string) string {
	date = strings.TrimSpace(date)

	for _, layout := range []string{dateLayout, time.RFC3339} {
		if t, err := time.Parse(layout, date); err == nil {
			return t.Format(dateLayout)
		}
	}

	return date
}

func cabinCode(cabin dto.CabinClass) string {
	if code, ok := cabinCodes[cabin.OrDefault()]; ok {
		return code
	}

	return cabinCodes[dto.CabinEconomy]
}
