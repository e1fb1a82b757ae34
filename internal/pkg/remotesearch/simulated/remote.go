// Package simulated is an in-process remote search backed by a fixture file.
// A submitted search reveals its matching flights a few at a time over
// successive polls, the way a slow multi-provider search does.
package simulated

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ijalalfrz/flight-segment-search/internal/app/dto"
	"github.com/ijalalfrz/flight-segment-search/internal/pkg/ratelimit"
	"github.com/ijalalfrz/flight-segment-search/internal/pkg/remotesearch"
	"github.com/ijalalfrz/flight-segment-search/internal/pkg/utils"
)

const (
	DefaultMinLatency = 100 * time.Millisecond
	DefaultMaxLatency = 200 * time.Millisecond
	DefaultChunkSize  = 3
)

const (
	limitKeySubmit = "simulated:submit"
	limitKeyFetch  = "simulated:fetch"
)

type Config struct {
	FixturePath string
	Limiter     ratelimit.Limiter
	// FailureRate is the probability, 0..1, that a call fails as unavailable.
	FailureRate float64
	ChunkSize   int
	MinLatency  time.Duration
	MaxLatency  time.Duration
}

type search struct {
	flights  []dto.ResultItem
	revealed int
}

// Remote implements remotesearch.Client.
type Remote struct {
	cfg Config

	mu       sync.Mutex
	searches map[string]*search
	rand     *rand.Rand
}

var _ remotesearch.Client = (*Remote)(nil)

func NewRemote(cfg Config) *Remote {
	if cfg.Limiter == nil {
		cfg.Limiter = ratelimit.Unlimited{}
	}

	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = DefaultChunkSize
	}

	if cfg.MaxLatency < cfg.MinLatency {
		cfg.MaxLatency = cfg.MinLatency
	}

	return &Remote{
		cfg:      cfg,
		searches: make(map[string]*search),
		rand:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// SubmitSearch registers a search over the fixture flights matching query.
func (r *Remote) SubmitSearch(ctx context.Context, query dto.SearchQuery) (string, error) {
	if err := r.call(ctx, limitKeySubmit); err != nil {
		return "", err
	}

	flights, err := r.loadFlights()
	if err != nil {
		return "", remotesearch.ErrRemoteUnavailable.WithCause(err)
	}

	id := uuid.NewString()

	r.mu.Lock()
	r.searches[id] = &search{flights: filterFlights(flights, query)}
	r.mu.Unlock()

	slog.DebugContext(ctx, "simulated search submitted",
		slog.String("search_id", id),
		slog.String("route", query.Segment.Origin+"-"+query.Segment.Destination))

	return id, nil
}

// FetchResults reveals the next chunk of the search. The cursor is the
// number of flights the caller has already seen.
func (r *Remote) FetchResults(ctx context.Context, searchID, cursor string) (remotesearch.Page, error) {
	if err := r.call(ctx, limitKeyFetch); err != nil {
		return remotesearch.Page{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.searches[searchID]
	if !ok {
		return remotesearch.Page{}, remotesearch.ErrSearchNotFound
	}

	total := len(s.flights)
	if total == 0 {
		return remotesearch.Page{
			Completion: remotesearch.Done(true),
			Results:    []dto.ResultItem{},
			Status:     remotesearch.StatusNoResults,
			Message:    "no flights match the search",
		}, nil
	}

	from, err := strconv.Atoi(cursor)
	if err != nil || from < 0 {
		from = 0
	}

	s.revealed = min(s.revealed+r.cfg.ChunkSize, total)
	from = min(from, s.revealed)

	results := make([]dto.ResultItem, s.revealed-from)
	copy(results, s.flights[from:s.revealed])

	return remotesearch.Page{
		Completion: remotesearch.Percent(s.revealed * 100 / total),
		Results:    results,
		Cursor:     strconv.Itoa(s.revealed),
		Status:     remotesearch.StatusOK,
	}, nil
}

// call simulates latency, rate limiting and random failures of one request.
func (r *Remote) call(ctx context.Context, limitKey string) error {
	if delay := r.latency(); delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()

		select {
		case <-timer.C:
		case <-ctx.Done():
			return remotesearch.ErrConnectionTimeout.WithCause(ctx.Err())
		}
	}

	if err := r.cfg.Limiter.Allow(ctx, limitKey); err != nil {
		return err
	}

	if r.roll() < r.cfg.FailureRate {
		return remotesearch.ErrRemoteUnavailable
	}

	return nil
}

func (r *Remote) latency() time.Duration {
	spread := r.cfg.MaxLatency - r.cfg.MinLatency
	if spread <= 0 {
		return r.cfg.MinLatency
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	return r.cfg.MinLatency + time.Duration(r.rand.Int63n(int64(spread)+1))
}

func (r *Remote) roll() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.rand.Float64()
}

func (r *Remote) loadFlights() ([]dto.ResultItem, error) {
	data, err := os.ReadFile(r.cfg.FixturePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture file: %w", err)
	}

	var f fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to unmarshal fixture file: %w", err)
	}

	return flightsToDTO(f.Flights), nil
}

func flightsToDTO(flights []Flight) []dto.ResultItem {
	results := make([]dto.ResultItem, len(flights))
	for i, flight := range flights {
		aircraft := flight.Aircraft

		results[i] = dto.ResultItem{
			ID:       fmt.Sprintf("%s_%s", flight.FlightID, flight.Provider),
			Provider: flight.Provider,
			Airline: dto.Airline{
				Name: flight.Airline,
				Code: flight.AirlineCode,
			},
			FlightNumber: flight.FlightID,
			Departure: dto.Endpoint{
				Airport:   flight.Departure.Airport,
				City:      flight.Departure.City,
				Datetime:  flight.Departure.Time.Format(time.RFC3339),
				Timestamp: flight.Departure.Time.Unix(),
			},
			Arrival: dto.Endpoint{
				Airport:   flight.Arrival.Airport,
				City:      flight.Arrival.City,
				Datetime:  flight.Arrival.Time.Format(time.RFC3339),
				Timestamp: flight.Arrival.Time.Unix(),
			},
			Duration: dto.Duration{
				TotalMinutes: flight.DurationMinutes,
				Formatted:    utils.ConvertMinutesToDuration(int64(flight.DurationMinutes)),
			},
			Stops: flight.Stops,
			Price: dto.Price{
				Amount:    float64(flight.Price.Amount),
				Currency:  flight.Price.Currency,
				Formatted: utils.FormatRupiah(int64(flight.Price.Amount)),
			},
			AvailableSeats: flight.AvailableSeats,
			CabinClass:     strings.ToLower(flight.FareClass),
			Aircraft:       &aircraft,
			Amenities:      flight.Amenities,
			Baggage: dto.Baggage{
				CarryOn: utils.FormatBaggage(flight.Baggage.CarryOn, utils.CarryOnKg),
				Checked: utils.FormatBaggage(flight.Baggage.Checked, utils.CheckedKg),
			},
		}
	}

	return results
}

// filterFlights keeps the flights a real search for query would return.
func filterFlights(flights []dto.ResultItem, query dto.SearchQuery) []dto.ResultItem {
	results := make([]dto.ResultItem, 0, len(flights))
	cabin := string(query.Cabin.OrDefault())
	seats := query.Passengers.Adults + query.Passengers.Children

	for _, flight := range flights {
		if !strings.EqualFold(flight.Departure.Airport, strings.TrimSpace(query.Segment.Origin)) {
			continue
		}

		if !strings.EqualFold(flight.Arrival.Airport, strings.TrimSpace(query.Segment.Destination)) {
			continue
		}

		departure, err := time.Parse(time.RFC3339, flight.Departure.Datetime)
		if err != nil || departure.Format("2006-01-02") != query.Segment.Date {
			continue
		}

		if flight.CabinClass != cabin {
			continue
		}

		if query.Direct && flight.Stops > 0 {
			continue
		}

		if flight.AvailableSeats < seats {
			continue
		}

		results = append(results, flight)
	}

	return results
}
