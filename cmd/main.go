package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/ijalalfrz/flight-segment-search/internal/app/bootstrap"
	"github.com/ijalalfrz/flight-segment-search/internal/app/config"
	"github.com/ijalalfrz/flight-segment-search/internal/app/dto"
	"github.com/ijalalfrz/flight-segment-search/internal/app/endpoints"
	"github.com/ijalalfrz/flight-segment-search/internal/app/service"
	"github.com/ijalalfrz/flight-segment-search/internal/app/transport"
	"github.com/ijalalfrz/flight-segment-search/internal/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const shutdownTimeout = 10 * time.Second

// @title           Flight Segment Search API
// @version         0.1.0
// @description     flight-segment-search
// @host      localhost:8080
// @BasePath  /
// @license.name Rizal Alfarizi
// @license.url https://github.com/ijalalfrz
func main() {
	cfg := config.MustInitConfig(".env")
	logger.InitStructuredLogger(cfg.LogLevel)

	slog.Debug("config loaded successfully", slog.Any("config", cfg))
	runApp(cfg)
}

func runApp(cfg config.Config) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	slog.InfoContext(ctx, "starting...", slog.String("log_level", string(cfg.LogLevel)))

	var waitGroup sync.WaitGroup
	// Starts the server in a go routine
	waitGroup.Add(1)
	go func() {
		defer waitGroup.Done()
		defer cancel()
		startHTTPServer(ctx, cfg)
	}()

	sigChannel := make(chan os.Signal, 1)
	signal.Notify(sigChannel, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)

	select {
	case sig := <-sigChannel:
		cancel()
		slog.InfoContext(ctx, "received OS signal. Exiting...", slog.String("signal", sig.String()))
	case <-ctx.Done():
		slog.ErrorContext(ctx, "HTTP server stopped unexpectedly")
	}

	waitGroup.Wait()
	slog.InfoContext(ctx, "All service closed...")
}

func startHTTPServer(ctx context.Context, cfg config.Config) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	endpts, batchID, cleanup, err := makeEndpoints(ctx, &cfg, registry)
	if err != nil {
		slog.ErrorContext(ctx, "failed to build endpoints", slog.String("error", err.Error()))
		return
	}
	defer cleanup()

	router := transport.MakeHTTPRouter(&cfg, endpts, batchID, registry)
	server := &http.Server{
		Handler:      router,
		Addr:         fmt.Sprintf(":%d", cfg.HTTP.Port),
		WriteTimeout: cfg.HTTP.Timeout,
		ReadTimeout:  cfg.HTTP.Timeout,
	}

	slog.Info("running HTTP server...", slog.Int("port", cfg.HTTP.Port))

	serveErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		slog.ErrorContext(ctx, "failed to start HTTP server", slog.String("error", err.Error()))
		return
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.ErrorContext(ctx, "failed to shutdown HTTP server", slog.String("error", err.Error()))
	}

	slog.InfoContext(ctx, "HTTP server shutdown gracefully")
}

// makeEndpoints wires the search core. The orchestrator lives as long as ctx;
// batchID reports its current batch and cleanup releases the rate limiter's
// connection.
func makeEndpoints(ctx context.Context, cfg *config.Config,
	reg prometheus.Registerer,
) (endpoints.Endpoints, func() string, func(), error) {
	// init validator
	if err := dto.InitValidator(); err != nil {
		return endpoints.Endpoints{}, nil, nil, fmt.Errorf("failed to init validator: %w", err)
	}

	limiter, cleanup := bootstrap.NewLimiter(ctx, cfg)

	remote, err := bootstrap.NewRemoteSearch(cfg, limiter)
	if err != nil {
		cleanup()
		return endpoints.Endpoints{}, nil, nil, err
	}

	orchestrator, err := bootstrap.NewOrchestrator(ctx, cfg, remote, reg)
	if err != nil {
		cleanup()
		return endpoints.Endpoints{}, nil, nil, err
	}

	searchService := service.NewSearchService(orchestrator)

	return endpoints.Endpoints{
		SearchEndpoint: endpoints.MakeSearchEndpoint(searchService),
	}, orchestrator.BatchID, cleanup, nil
}
