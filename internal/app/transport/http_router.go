package transport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/ijalalfrz/flight-segment-search/internal/app/config"
	"github.com/ijalalfrz/flight-segment-search/internal/app/dto"
	"github.com/ijalalfrz/flight-segment-search/internal/app/endpoints"
	httptransport "github.com/ijalalfrz/flight-segment-search/internal/pkg/transport/http"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MakeHTTPRouter builds the HTTP router with all the service endpoints.
// batchID reports the current batch so request logs can carry it.
func MakeHTTPRouter(
	cfg *config.Config,
	endpts endpoints.Endpoints,
	batchID func() string,
	gatherer prometheus.Gatherer,
) *chi.Mux {
	// Initialize Router
	router := chi.NewRouter()

	router.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	router.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	router.Route("/api/v1/searches", func(router chi.Router) {
		router.Use(
			httptransport.RequestID(),
			httptransport.BatchID(batchID),
			httptransport.CORSMiddleware(),
			httptransport.Recoverer(slog.Default()),
			render.SetContentType(render.ContentTypeJSON),
		)

		if cfg.HTTP.Timeout > 0 {
			router.Use(middleware.Timeout(cfg.HTTP.Timeout))
		}

		router.Post("/", httptransport.MakeHandlerFunc(
			endpts.SearchEndpoint.StartSearch,
			httptransport.DecodeRequest[dto.BatchRequest],
			httptransport.AcceptedResponse,
		))

		router.Get("/", httptransport.MakeHandlerFunc(
			endpts.SearchEndpoint.ListSegments,
			httptransport.DecodeRequest[dto.ListSegmentsRequest],
			httptransport.ResponseWithBody,
		))

		router.Post("/segments/{index}/reveal", httptransport.MakeHandlerFunc(
			endpts.SearchEndpoint.RevealMore,
			httptransport.DecodeRequest[dto.RevealMoreRequest],
			httptransport.ResponseWithBody,
		))
	})

	return router
}
