// Package bootstrap builds the search core from configuration. It is shared
// by the HTTP service and the command line tool.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-redis/redis_rate/v10"
	"github.com/ijalalfrz/flight-segment-search/internal/app/config"
	"github.com/ijalalfrz/flight-segment-search/internal/pkg/metrics"
	"github.com/ijalalfrz/flight-segment-search/internal/pkg/ratelimit"
	"github.com/ijalalfrz/flight-segment-search/internal/pkg/remotesearch"
	"github.com/ijalalfrz/flight-segment-search/internal/pkg/remotesearch/httpapi"
	"github.com/ijalalfrz/flight-segment-search/internal/pkg/remotesearch/simulated"
	"github.com/ijalalfrz/flight-segment-search/internal/pkg/segment"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

// NewLimiter returns the Redis limiter when Redis is configured and
// reachable, and the in-process limiter otherwise. The returned func
// releases the Redis connection.
func NewLimiter(ctx context.Context, cfg *config.Config) (ratelimit.Limiter, func()) {
	rps := cfg.Remote.RateLimitRPS
	if rps <= 0 {
		return ratelimit.Unlimited{}, func() {}
	}

	if cfg.Redis.Addr == "" {
		slog.InfoContext(ctx, "redis not configured, using local rate limiter", slog.Int("rps", rps))
		return ratelimit.NewLocalLimiter(rps, rps), func() {}
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, cfg.Redis.Timeout)
	defer cancel()

	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		slog.WarnContext(ctx, "redis unreachable, using local rate limiter",
			slog.String("addr", cfg.Redis.Addr),
			slog.String("error", err.Error()))

		_ = redisClient.Close()

		return ratelimit.NewLocalLimiter(rps, rps), func() {}
	}

	closeFn := func() {
		if err := redisClient.Close(); err != nil {
			slog.Error("failed to close redis client", slog.String("error", err.Error()))
		}
	}

	return ratelimit.NewRedisLimiter(redis_rate.NewLimiter(redisClient), rps), closeFn
}

// NewRemoteSearch builds the remote search client of the configured mode.
func NewRemoteSearch(cfg *config.Config, limiter ratelimit.Limiter) (remotesearch.Client, error) {
	switch cfg.Remote.Mode {
	case config.RemoteModeHTTP:
		return httpapi.NewClient(httpapi.Config{
			BaseURL: cfg.Remote.BaseURL,
			Timeout: cfg.Remote.Timeout,
			Limiter: limiter,
		})
	case config.RemoteModeSimulated:
		return simulated.NewRemote(simulated.Config{
			FixturePath: cfg.Remote.FixturePath,
			Limiter:     limiter,
			FailureRate: cfg.Remote.FailureRate,
			MinLatency:  simulated.DefaultMinLatency,
			MaxLatency:  simulated.DefaultMaxLatency,
		}), nil
	default:
		return nil, fmt.Errorf("unknown remote search mode %q", cfg.Remote.Mode)
	}
}

// NewOrchestrator builds an orchestrator bound to ctx with the configured
// search tuning. Metrics are registered with reg.
func NewOrchestrator(ctx context.Context, cfg *config.Config, remote remotesearch.Client,
	reg prometheus.Registerer, opts ...segment.Option,
) (*segment.Orchestrator, error) {
	base := []segment.Option{
		segment.WithCache(segment.NewResultCache(cfg.Search.CacheTTL)),
		segment.WithMetrics(metrics.NewSearchMetrics(reg)),
		segment.WithLogger(slog.Default()),
		segment.WithPollInterval(cfg.Search.PollInterval),
		segment.WithRevealStep(cfg.Search.RevealStep),
		segment.WithWorkerPoolSize(cfg.Search.WorkerPoolSize),
	}

	orchestrator, err := segment.NewOrchestrator(ctx, remote, append(base, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create segment orchestrator: %w", err)
	}

	return orchestrator, nil
}
