// Package httpapi talks to a remote search API over HTTP using go-kit client
// endpoints.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-kit/kit/endpoint"
	kithttp "github.com/go-kit/kit/transport/http"
	"github.com/ijalalfrz/flight-segment-search/internal/app/dto"
	"github.com/ijalalfrz/flight-segment-search/internal/pkg/ratelimit"
	"github.com/ijalalfrz/flight-segment-search/internal/pkg/remotesearch"
)

const defaultTimeout = 10 * time.Second

// Rate limiter keys, one budget per remote operation.
const (
	limitKeySubmit = "remote_search:submit"
	limitKeyFetch  = "remote_search:fetch"
)

var ErrBaseURL = errors.New("remote search base url must be an absolute http(s) url")

type Config struct {
	BaseURL    string
	Timeout    time.Duration
	Limiter    ratelimit.Limiter
	HTTPClient *http.Client
}

// Client implements remotesearch.Client.
type Client struct {
	submit  endpoint.Endpoint
	fetch   endpoint.Endpoint
	limiter ratelimit.Limiter
	timeout time.Duration
}

var _ remotesearch.Client = (*Client)(nil)

func NewClient(cfg Config) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBaseURL, err)
	}

	if (base.Scheme != "http" && base.Scheme != "https") || base.Host == "" {
		return nil, ErrBaseURL
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	if cfg.Limiter == nil {
		cfg.Limiter = ratelimit.Unlimited{}
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	opts := []kithttp.ClientOption{
		kithttp.SetClient(httpClient),
		kithttp.ClientBefore(kithttp.SetRequestHeader("Accept", "application/json")),
	}

	return &Client{
		submit: kithttp.NewClient(http.MethodPost, base.JoinPath("searches"),
			kithttp.EncodeJSONRequest, decodeSubmitResponse, opts...).Endpoint(),
		fetch: kithttp.NewClient(http.MethodGet, base,
			encodeFetchRequest(base), decodeFetchResponse, opts...).Endpoint(),
		limiter: cfg.Limiter,
		timeout: cfg.Timeout,
	}, nil
}

// SubmitSearch starts a remote search and returns its id.
func (c *Client) SubmitSearch(ctx context.Context, query dto.SearchQuery) (string, error) {
	if err := c.limiter.Allow(ctx, limitKeySubmit); err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.submit(ctx, newSubmitRequest(query))
	if err != nil {
		return "", mapError(ctx, err)
	}

	return resp.(submitResponse).SearchID, nil
}

// FetchResults polls the results of searchID after cursor.
func (c *Client) FetchResults(ctx context.Context, searchID, cursor string) (remotesearch.Page, error) {
	if err := c.limiter.Allow(ctx, limitKeyFetch); err != nil {
		return remotesearch.Page{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.fetch(ctx, fetchRequest{SearchID: searchID, Cursor: cursor})
	if err != nil {
		return remotesearch.Page{}, mapError(ctx, err)
	}

	return resp.(remotesearch.Page), nil
}

func encodeFetchRequest(base *url.URL) kithttp.EncodeRequestFunc {
	return func(_ context.Context, r *http.Request, request interface{}) error {
		req, ok := request.(fetchRequest)
		if !ok {
			return fmt.Errorf("unexpected fetch request type %T", request)
		}

		u := base.JoinPath("searches", req.SearchID, "results")
		if req.Cursor != "" {
			u.RawQuery = url.Values{"cursor": {req.Cursor}}.Encode()
		}

		r.URL = u
		r.Host = u.Host

		return nil
	}
}

func decodeSubmitResponse(_ context.Context, resp *http.Response) (interface{}, error) {
	if err := statusError(resp); err != nil {
		return nil, err
	}

	var body submitResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, remotesearch.ErrInvalidResponse.WithCause(err)
	}

	if body.SearchID == "" {
		return nil, remotesearch.ErrInvalidResponse.WithCause(errors.New("missing search_id"))
	}

	return body, nil
}

func decodeFetchResponse(_ context.Context, resp *http.Response) (interface{}, error) {
	if err := statusError(resp); err != nil {
		return nil, err
	}

	var page remotesearch.Page
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, remotesearch.ErrInvalidResponse.WithCause(err)
	}

	return page, nil
}

func statusError(resp *http.Response) error {
	code := resp.StatusCode

	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusTooManyRequests:
		return remotesearch.ErrRateLimited
	case code == http.StatusNotFound:
		return remotesearch.ErrSearchNotFound
	case code == http.StatusGatewayTimeout:
		return remotesearch.ErrConnectionTimeout
	case code >= 500:
		return remotesearch.ErrRemoteUnavailable.WithCause(fmt.Errorf("status %d", code))
	default:
		return remotesearch.ErrSearchRejected.WithCause(fmt.Errorf("status %d", code))
	}
}

// mapError turns transport failures into remote search errors. Errors that
// are already classified pass through unchanged.
func mapError(ctx context.Context, err error) error {
	var appErr interface{ ErrorCode() int }
	if errors.As(err, &appErr) {
		return err
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return remotesearch.ErrConnectionTimeout.WithCause(err)
	}

	if ctx.Err() != nil {
		return err
	}

	return remotesearch.ErrRemoteUnavailable.WithCause(err)
}
