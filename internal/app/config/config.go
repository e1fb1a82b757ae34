package config

import (
	"log/slog"
	"time"
)

type LogLeveler string

func (l LogLeveler) Level() slog.Level {
	var level slog.Level

	_ = level.UnmarshalText([]byte(l))

	return level
}

// Remote search modes.
const (
	RemoteModeSimulated = "simulated"
	RemoteModeHTTP      = "http"
)

// Config holds the server configuration.
type Config struct {
	LogLevel LogLeveler   `mapstructure:"LOG_LEVEL"`
	HTTP     HTTP         `mapstructure:",squash"`
	Redis    Redis        `mapstructure:",squash"`
	Search   Search       `mapstructure:",squash"`
	Remote   RemoteSearch `mapstructure:",squash"`
}

type HTTP struct {
	Port    int           `mapstructure:"HTTP_PORT"`
	Timeout time.Duration `mapstructure:"HTTP_TIMEOUT"`
}

// Redis backs the shared rate limiter. An empty address selects the
// in-process limiter instead.
type Redis struct {
	Addr     string        `mapstructure:"REDIS_ADDR"`
	Password string        `mapstructure:"REDIS_PASSWORD"`
	DB       int           `mapstructure:"REDIS_DB"`
	Timeout  time.Duration `mapstructure:"REDIS_TIMEOUT"`
}

// Search tunes the segment orchestrator and its pollers.
type Search struct {
	CacheTTL       time.Duration `mapstructure:"SEARCH_CACHE_TTL"`
	PollInterval   time.Duration `mapstructure:"SEARCH_POLL_INTERVAL"`
	RevealStep     int           `mapstructure:"SEARCH_REVEAL_STEP"`
	WorkerPoolSize int           `mapstructure:"SEARCH_WORKER_POOL_SIZE"`
}

// RemoteSearch holds the remote search API configuration. In simulated mode
// results come from the fixture file instead of BaseURL.
type RemoteSearch struct {
	Mode         string        `mapstructure:"REMOTE_SEARCH_MODE"`
	BaseURL      string        `mapstructure:"REMOTE_SEARCH_BASE_URL"`
	Timeout      time.Duration `mapstructure:"REMOTE_SEARCH_TIMEOUT"`
	RateLimitRPS int           `mapstructure:"REMOTE_SEARCH_RATE_LIMIT"`
	FixturePath  string        `mapstructure:"REMOTE_SEARCH_FIXTURE_PATH"`
	FailureRate  float64       `mapstructure:"REMOTE_SEARCH_FAILURE_RATE"`
}
