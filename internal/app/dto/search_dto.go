package dto

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/ijalalfrz/flight-segment-search/internal/pkg/exception"
)

type CabinClass string

const (
	CabinEconomy  CabinClass = "economy"
	CabinPremium  CabinClass = "premium"
	CabinBusiness CabinClass = "business"
	CabinFirst    CabinClass = "first"
)

// OrDefault returns economy for an empty cabin.
func (c CabinClass) OrDefault() CabinClass {
	if c == "" {
		return CabinEconomy
	}

	return CabinClass(strings.ToLower(string(c)))
}

// ResultItem is one provider-issued search result. ID is unique per provider
// offer and is the merge identity across polls.
type ResultItem struct {
	ID             string   `json:"id"`
	Provider       string   `json:"provider"`
	Airline        Airline  `json:"airline"`
	FlightNumber   string   `json:"flight_number"`
	Departure      Endpoint `json:"departure"`
	Arrival        Endpoint `json:"arrival"`
	Duration       Duration `json:"duration"`
	Stops          int      `json:"stops"`
	Price          Price    `json:"price"`
	AvailableSeats int      `json:"available_seats"`
	CabinClass     string   `json:"cabin_class"`
	Aircraft       *string  `json:"aircraft,omitempty"`
	Amenities      []string `json:"amenities,omitempty"`
	Baggage        Baggage  `json:"baggage"`
	Score          float64  `json:"score"`
}

type Airline struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

type Endpoint struct {
	Airport   string `json:"airport"`
	City      string `json:"city"`
	Datetime  string `json:"datetime"`
	Timestamp int64  `json:"timestamp"`
}

type Duration struct {
	TotalMinutes int    `json:"total_minutes"`
	Formatted    string `json:"formatted"`
}

type Price struct {
	Amount    float64 `json:"amount"`
	Currency  string  `json:"currency"`
	Formatted string  `json:"formatted"`
}

type Baggage struct {
	CarryOn string `json:"carry_on"`
	Checked string `json:"checked"`
}

// Segment is one origin/destination/date leg of a batch. The *_name fields
// are display only.
type Segment struct {
	Origin          string `json:"origin" validate:"required,airport"`
	OriginName      string `json:"origin_name,omitempty"`
	Destination     string `json:"destination" validate:"required,airport,nefield=Origin"`
	DestinationName string `json:"destination_name,omitempty"`
	Date            string `json:"date" validate:"required,datetime=2006-01-02"`
}

type Passengers struct {
	Adults   int `json:"adults" validate:"min=1,max=9"`
	Children int `json:"children" validate:"min=0,max=9"`
	Infants  int `json:"infants" validate:"min=0,ltefield=Adults"`
}

// SearchQuery is everything the remote search needs for one segment.
type SearchQuery struct {
	Segment    Segment    `json:"segment"`
	Passengers Passengers `json:"passengers"`
	Cabin      CabinClass `json:"cabin"`
	Direct     bool       `json:"direct"`
}

type BatchRequest struct {
	Segments   []Segment  `json:"segments" validate:"required,min=1,max=6,dive"`
	Passengers Passengers `json:"passengers"`
	Cabin      CabinClass `json:"cabin,omitempty" validate:"omitempty,oneof=economy premium business first"`
	Direct     bool       `json:"direct"`
	// Resume re-attaches to cached searches instead of starting afresh.
	Resume bool `json:"resume"`
}

// Queries expands the batch into one query per segment, in request order.
func (b BatchRequest) Queries() []SearchQuery {
	queries := make([]SearchQuery, len(b.Segments))
	for i, seg := range b.Segments {
		queries[i] = SearchQuery{
			Segment:    seg,
			Passengers: b.Passengers,
			Cabin:      b.Cabin.OrDefault(),
			Direct:     b.Direct,
		}
	}

	return queries
}

func (b *BatchRequest) Bind(r *http.Request) error {
	if err := b.Validate(); err != nil {
		return fmt.Errorf("error validate request: %w", err)
	}

	return nil
}

func (b *BatchRequest) Validate() error {
	if err := ValidateSingleError(b); err != nil {
		return exception.ApplicationError{
			StatusCode: http.StatusBadRequest,
			Message:    err.Error(),
		}
	}

	return nil
}

// SegmentView is the consumer-facing state of one requested segment.
// HasMore means more already-fetched results can be revealed; it says
// nothing about whether the remote search is still running.
type SegmentView struct {
	Query        SearchQuery  `json:"query"`
	Key          string       `json:"key"`
	Results      []ResultItem `json:"results"`
	Complete     bool         `json:"complete"`
	HasMore      bool         `json:"has_more"`
	Loading      bool         `json:"loading"`
	Error        string       `json:"error,omitempty"`
	VisibleCount int          `json:"visible_count"`
	Progress     int          `json:"progress"`
	SearchID     string       `json:"search_id,omitempty"`
	Cursor       string       `json:"cursor,omitempty"`
	State        string       `json:"state"`
}

// Visible returns the revealed window of the results.
func (v SegmentView) Visible() []ResultItem {
	if v.VisibleCount >= len(v.Results) {
		return v.Results
	}

	return v.Results[:v.VisibleCount]
}

type SortOption struct {
	Field string `json:"field"`
	Order string `json:"order"`
}

var AllowedSortField = map[string]bool{
	"":               true,
	"best":           true,
	"price":          true,
	"duration":       true,
	"stops":          true,
	"departure_time": true,
	"arrival_time":   true,
}

// ListSegmentsRequest controls how the views are presented.
type ListSegmentsRequest struct {
	Sort *SortOption
}

func (l *ListSegmentsRequest) Bind(r *http.Request) error {
	query := r.URL.Query()
	if field, order := query.Get("sort_field"), query.Get("sort_order"); field != "" || order != "" {
		l.Sort = &SortOption{Field: field, Order: order}
	}

	return l.Validate()
}

func (l *ListSegmentsRequest) Validate() error {
	if l.Sort == nil {
		return nil
	}

	if !AllowedSortField[l.Sort.Field] {
		return exception.ApplicationError{
			StatusCode: http.StatusBadRequest,
			Message:    fmt.Sprintf("Invalid sort field %s", l.Sort.Field),
		}
	}

	if l.Sort.Order != "" && l.Sort.Order != "asc" && l.Sort.Order != "desc" {
		return exception.ApplicationError{
			StatusCode: http.StatusBadRequest,
			Message:    fmt.Sprintf("Invalid sort order %s", l.Sort.Order),
		}
	}

	return nil
}

type RevealMoreRequest struct {
	Index int
}

func (rm *RevealMoreRequest) Bind(r *http.Request) error {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil || index < 0 {
		return exception.ApplicationError{
			StatusCode: http.StatusBadRequest,
			Message:    "segment index must be a non-negative integer",
		}
	}

	rm.Index = index

	return nil
}

// SegmentsResponse is returned by every search endpoint.
type SegmentsResponse struct {
	BatchID  string        `json:"batch_id,omitempty"`
	Segments []SegmentView `json:"segments"`
}
