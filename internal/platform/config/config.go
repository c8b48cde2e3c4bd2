package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures everything main needs to wire the service, so main stays
// lean. All values come from the environment with local-dev defaults.
type Config struct {
	Addr string

	Redis    RedisConfig
	Postgres PostgresConfig
	Kafka    KafkaConfig

	// DedupTTL bounds how long processed-event markers live.
	DedupTTL time.Duration
	// RateLimit and RateWindow cap per-user notifications.
	RateLimit  int64
	RateWindow time.Duration
}

// RedisConfig configures the shared Redis client.
type RedisConfig struct {
	// URL in redis://host:port/db form. Empty disables Redis-backed
	// components (memory fallbacks are wired instead).
	URL string
}

// PostgresConfig configures the record store connection.
type PostgresConfig struct {
	// DSN in lib/pq key=value or postgres:// form. Empty disables Postgres.
	DSN          string
	MaxOpenConns int
}

// KafkaConfig configures the durable event transport.
type KafkaConfig struct {
	// Seeds is the broker list. Empty disables Kafka; events then arrive
	// only through the HTTP producer's in-process bus.
	Seeds         []string
	ConsumerGroup string
	EventsTopic   string
	DLQTopic      string
}

// FromEnv builds a Config from environment variables.
func FromEnv() Config {
	return Config{
		Addr: envOr("HERALD_ADDR", ":8080"),
		Redis: RedisConfig{
			URL: os.Getenv("HERALD_REDIS_URL"),
		},
		Postgres: PostgresConfig{
			DSN:          os.Getenv("HERALD_POSTGRES_DSN"),
			MaxOpenConns: envInt("HERALD_POSTGRES_MAX_CONNS", 10),
		},
		Kafka: KafkaConfig{
			Seeds:         splitList(os.Getenv("HERALD_KAFKA_SEEDS")),
			ConsumerGroup: envOr("HERALD_KAFKA_GROUP", "herald"),
			EventsTopic:   envOr("HERALD_KAFKA_EVENTS_TOPIC", "user-events"),
			DLQTopic:      envOr("HERALD_KAFKA_DLQ_TOPIC", "user-events-dlq"),
		},
		DedupTTL:   envDuration("HERALD_DEDUP_TTL", 24*time.Hour),
		RateLimit:  int64(envInt("HERALD_RATE_LIMIT", 5)),
		RateWindow: envDuration("HERALD_RATE_WINDOW", 60*time.Second),
	}
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

func splitList(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
