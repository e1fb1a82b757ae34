package endpoints

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-kit/kit/endpoint"
	"github.com/ijalalfrz/flight-segment-search/internal/app/dto"
)

var ErrInvalidRequestType = errors.New("invalid type")

type SearchService interface {
	StartSearch(ctx context.Context, req dto.BatchRequest) (dto.SegmentsResponse, error)
	ListSegments(ctx context.Context, req dto.ListSegmentsRequest) (dto.SegmentsResponse, error)
	RevealMore(ctx context.Context, req dto.RevealMoreRequest) (dto.SegmentView, error)
}

type SearchEndpoint struct {
	StartSearch  endpoint.Endpoint
	ListSegments endpoint.Endpoint
	RevealMore   endpoint.Endpoint
}

func MakeSearchEndpoint(service SearchService) SearchEndpoint {
	return SearchEndpoint{
		StartSearch:  makeStartSearchEndpoint(service),
		ListSegments: makeListSegmentsEndpoint(service),
		RevealMore:   makeRevealMoreEndpoint(service),
	}
}

func makeStartSearchEndpoint(service SearchService) endpoint.Endpoint {
	return func(ctx context.Context, req interface{}) (interface{}, error) {
		request, ok := req.(*dto.BatchRequest)
		if !ok || request == nil {
			return nil, ErrInvalidRequestType
		}

		resp, err := service.StartSearch(ctx, *request)
		if err != nil {
			return nil, fmt.Errorf("search service: %w", err)
		}

		return resp, nil
	}
}

func makeListSegmentsEndpoint(service SearchService) endpoint.Endpoint {
	return func(ctx context.Context, req interface{}) (interface{}, error) {
		request, ok := req.(*dto.ListSegmentsRequest)
		if !ok || request == nil {
			return nil, ErrInvalidRequestType
		}

		resp, err := service.ListSegments(ctx, *request)
		if err != nil {
			return nil, fmt.Errorf("search service: %w", err)
		}

		return resp, nil
	}
}

func makeRevealMoreEndpoint(service SearchService) endpoint.Endpoint {
	return func(ctx context.Context, req interface{}) (interface{}, error) {
		request, ok := req.(*dto.RevealMoreRequest)
		if !ok || request == nil {
			return nil, ErrInvalidRequestType
		}

		view, err := service.RevealMore(ctx, *request)
		if err != nil {
			return nil, fmt.Errorf("search service: %w", err)
		}

		return view, nil
	}
}
