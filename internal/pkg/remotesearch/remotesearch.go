// Package remotesearch defines the contract of the remote search API: a
// search is submitted once and its results are polled page by page until
// the remote reports completion.
package remotesearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/ijalalfrz/flight-segment-search/internal/app/dto"
)

const (
	StatusOK        = "ok"
	StatusNoResults = "no_results"
)

// Client is the remote search API.
type Client interface {
	SubmitSearch(ctx context.Context, query dto.SearchQuery) (string, error)
	FetchResults(ctx context.Context, searchID, cursor string) (Page, error)
}

// Page is one incremental poll response. Cursor, when set, requests only
// results after this page on the next call.
type Page struct {
	Completion Completion       `json:"completion"`
	Results    []dto.ResultItem `json:"results"`
	Cursor     string           `json:"cursor,omitempty"`
	Status     string           `json:"status,omitempty"`
	Message    string           `json:"message,omitempty"`
}

// Validate rejects pages the poller cannot interpret.
func (p Page) Validate() error {
	if !p.Completion.Set {
		return ErrInvalidResponse.WithCause(fmt.Errorf("missing completion"))
	}

	switch p.Status {
	case "", StatusOK, StatusNoResults:
	default:
		return ErrInvalidResponse.WithCause(fmt.Errorf("unknown status %q", p.Status))
	}

	for _, item := range p.Results {
		if item.ID == "" {
			return ErrInvalidResponse.WithCause(fmt.Errorf("result without id"))
		}
	}

	return nil
}

// NoResults reports whether the remote explicitly found nothing.
func (p Page) NoResults() bool {
	return p.Status == StatusNoResults
}

// Completion is the remote progress indicator normalised to 0..100. The
// remote may send either a number or a boolean.
type Completion struct {
	Value int
	Set   bool
}

// Percent builds a Completion from a raw percentage, clamped to 0..100.
func Percent(v int) Completion {
	return Completion{Value: clamp(v), Set: true}
}

// Done builds a Completion from a boolean flag.
func Done(done bool) Completion {
	if done {
		return Percent(100)
	}

	return Percent(0)
}

func (c Completion) MarshalJSON() ([]byte, error) {
	if !c.Set {
		return []byte("null"), nil
	}

	return json.Marshal(c.Value)
}

func (c *Completion) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)

	switch {
	case bytes.Equal(data, []byte("null")):
		*c = Completion{}
		return nil
	case bytes.Equal(data, []byte("true")):
		*c = Done(true)
		return nil
	case bytes.Equal(data, []byte("false")):
		*c = Done(false)
		return nil
	}

	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("completion must be a number or boolean: %w", err)
	}

	*c = Percent(int(f))

	return nil
}

func clamp(v int) int {
	if v < 0 {
		return 0
	}

	if v > 100 {
		return 100
	}

	return v
}
