package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ijalalfrz/flight-segment-search/internal/app/dto"
	"github.com/ijalalfrz/flight-segment-search/internal/pkg/flight"
)

// SegmentOrchestrator owns the segment views of the current batch.
type SegmentOrchestrator interface {
	StartBatch(ctx context.Context, req dto.BatchRequest) error
	Views() []dto.SegmentView
	RevealMore(index int) (dto.SegmentView, error)
	BatchID() string
}

type SearchService struct {
	Orchestrator SegmentOrchestrator
}

func NewSearchService(orchestrator SegmentOrchestrator) *SearchService {
	return &SearchService{
		Orchestrator: orchestrator,
	}
}

// StartSearch godoc
// @Summary      Start a segment search batch
// @Tags         Searches
// @Description  Replaces the current batch and starts (or with resume, re-attaches) one remote search per segment
// @Param        request  body      dto.BatchRequest  true  "Batch"
// @Success      202      {object}  dto.SegmentsResponse
// @Failure      400      {object}  dto.ErrorResponse
// @Failure      503      {object}  dto.ErrorResponse
// @Router       /api/v1/searches [post]
func (s *SearchService) StartSearch(ctx context.Context, req dto.BatchRequest) (dto.SegmentsResponse, error) {
	if err := s.Orchestrator.StartBatch(ctx, req); err != nil {
		return dto.SegmentsResponse{}, fmt.Errorf("start batch: %w", err)
	}

	resp := s.response(s.Orchestrator.Views(), nil)

	slog.InfoContext(ctx, "search batch started",
		slog.String("batch_id", resp.BatchID),
		slog.Int("segments", len(resp.Segments)),
		slog.Bool("resume", req.Resume))

	return resp, nil
}

// ListSegments godoc
// @Summary      List segment views
// @Tags         Searches
// @Description  Current views of the batch, ranked and sorted, windowed to each view's revealed count
// @Param        sort_field  query     string  false  "best, price, duration, stops, departure_time, arrival_time"
// @Param        sort_order  query     string  false  "asc or desc"
// @Success      200         {object}  dto.SegmentsResponse
// @Failure      400         {object}  dto.ErrorResponse
// @Failure      404         {object}  dto.ErrorResponse
// @Router       /api/v1/searches [get]
func (s *SearchService) ListSegments(_ context.Context, req dto.ListSegmentsRequest) (dto.SegmentsResponse, error) {
	views := s.Orchestrator.Views()
	if len(views) == 0 {
		return dto.SegmentsResponse{}, ErrNoActiveSearch
	}

	return s.response(views, req.Sort), nil
}

// RevealMore godoc
// @Summary      Reveal more results of one segment
// @Tags         Searches
// @Param        index  path      int  true  "Segment index"
// @Success      200    {object}  dto.SegmentView
// @Failure      404    {object}  dto.ErrorResponse
// @Router       /api/v1/searches/segments/{index}/reveal [post]
func (s *SearchService) RevealMore(ctx context.Context, req dto.RevealMoreRequest) (dto.SegmentView, error) {
	view, err := s.Orchestrator.RevealMore(req.Index)
	if err != nil {
		return dto.SegmentView{}, fmt.Errorf("reveal more: %w", err)
	}

	slog.DebugContext(ctx, "revealed more results",
		slog.Int("segment", req.Index),
		slog.Int("visible", view.VisibleCount),
		slog.Bool("has_more", view.HasMore))

	return present(view, nil), nil
}

func (s *SearchService) response(views []dto.SegmentView, sort *dto.SortOption) dto.SegmentsResponse {
	segments := make([]dto.SegmentView, len(views))
	for i, view := range views {
		segments[i] = present(view, sort)
	}

	return dto.SegmentsResponse{
		BatchID:  s.Orchestrator.BatchID(),
		Segments: segments,
	}
}

// present ranks and sorts the results of view and cuts them to the
// revealed window. HasMore is kept from the view.
func present(view dto.SegmentView, sort *dto.SortOption) dto.SegmentView {
	results := flight.SortResults(flight.RankResults(view.Results), sort)
	view.Results = dto.SegmentView{Results: results, VisibleCount: view.VisibleCount}.Visible()

	return view
}
