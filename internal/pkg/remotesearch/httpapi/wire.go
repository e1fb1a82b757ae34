package httpapi

import (
	"github.com/ijalalfrz/flight-segment-search/internal/app/dto"
)

type leg struct {
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
	Date        string `json:"date"`
}

type submitRequest struct {
	Legs     []leg  `json:"legs"`
	Adults   int    `json:"adults"`
	Children int    `json:"children"`
	Infants  int    `json:"infants"`
	Cabin    string `json:"cabin"`
	Direct   bool   `json:"direct"`
}

type submitResponse struct {
	SearchID string `json:"search_id"`
}

type fetchRequest struct {
	SearchID string
	Cursor   string
}

func newSubmitRequest(q dto.SearchQuery) submitRequest {
	return submitRequest{
		Legs: []leg{{
			Origin:      q.Segment.Origin,
			Destination: q.Segment.Destination,
			Date:        q.Segment.Date,
		}},
		Adults:   q.Passengers.Adults,
		Children: q.Passengers.Children,
		Infants:  q.Passengers.Infants,
		Cabin:    string(q.Cabin.OrDefault()),
		Direct:   q.Direct,
	}
}
