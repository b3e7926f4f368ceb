package config

import (
	"os"
	"strconv"
	"time"
)

// Config captures everything the web client tier reads from the environment.
type Config struct {
	Addr string

	// Upstream is the insurance platform REST API this tier fronts.
	UpstreamBaseURL string
	UpstreamTimeout time.Duration

	// ProfileID namespaces shared token storage when several replicas serve
	// the same browser profile.
	ProfileID string

	// TokenStorePath selects the on-disk credential file; empty means the
	// in-memory store. TokenSealKey, when 32 bytes, seals the file at rest.
	TokenStorePath string
	TokenSealKey   string

	Redis RedisConfig

	// FreshnessWindow suppresses repeat reference-data fetches after a
	// successful one.
	FreshnessWindow time.Duration
}

// RedisConfig tunes the optional shared session store.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() Config {
	cfg := Config{
		Addr:            envOr("COVERDESK_ADDR", ":8080"),
		UpstreamBaseURL: envOr("COVERDESK_UPSTREAM_URL", "http://localhost:9090"),
		UpstreamTimeout: envDuration("COVERDESK_UPSTREAM_TIMEOUT", 15*time.Second),
		ProfileID:       envOr("COVERDESK_PROFILE_ID", "default"),
		TokenStorePath:  os.Getenv("COVERDESK_TOKEN_PATH"),
		TokenSealKey:    os.Getenv("COVERDESK_TOKEN_SEAL_KEY"),
		FreshnessWindow: envDuration("COVERDESK_FRESHNESS_WINDOW", 5*time.Minute),
		Redis: RedisConfig{
			URL:          os.Getenv("COVERDESK_REDIS_URL"),
			PoolSize:     envInt("COVERDESK_REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("COVERDESK_REDIS_MIN_IDLE", 2),
			DialTimeout:  envDuration("COVERDESK_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("COVERDESK_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("COVERDESK_REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
