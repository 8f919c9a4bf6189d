// Package config reads service settings from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const minSecretLen = 32

var (
	ErrSecretTooShort = errors.New("SESSION_SECRET is required and must be at least 32 chars")
	ErrBadBackend     = errors.New("unknown backend")
)

const (
	SlotMemory   = "memory"
	SlotFile     = "file"
	SlotRedis    = "redis"
	SlotPostgres = "postgres"

	EventsNone  = "none"
	EventsNATS  = "nats"
	EventsKafka = "kafka"
)

type Storefront struct {
	Port            string
	CatalogURL      string
	UpstreamTimeout time.Duration

	SlotBackend string
	SlotDir     string
	SlotKey     string
	SlotTTL     time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	DatabaseURL   string

	EventsBackend string
	NATSURL       string
	KafkaBrokers  []string
	KafkaTopic    string

	SessionSecret string
	SessionTTL    time.Duration

	CartIdleTTL  time.Duration
	MaxOpenCarts int

	MetricsToken    string
	LogLevel        string
	RateLimitPerMin int
}

type Catalog struct {
	Port         string
	DatabaseURL  string
	MetricsToken string
	LogLevel     string
}

// LoadStorefront reads the storefront settings. It fails on malformed
// values rather than silently using a default.
func LoadStorefront() (Storefront, error) {
	c := Storefront{
		Port:          getenv("PORT", "8080"),
		CatalogURL:    getenv("CATALOG_URL", "http://localhost:8082"),
		SlotBackend:   strings.ToLower(getenv("SLOT_BACKEND", SlotFile)),
		SlotDir:       getenv("SLOT_DIR", "./data"),
		SlotKey:       getenv("SLOT_KEY", "@RocketShoes:cart"),
		RedisAddr:     getenv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		EventsBackend: strings.ToLower(getenv("EVENTS_BACKEND", EventsNone)),
		NATSURL:       getenv("NATS_URL", "nats://localhost:4222"),
		KafkaBrokers:  splitList(getenv("KAFKA_BROKERS", "localhost:9092")),
		KafkaTopic:    getenv("KAFKA_TOPIC", "cart-updated"),
		SessionSecret: os.Getenv("SESSION_SECRET"),
		MetricsToken:  os.Getenv("METRICS_TOKEN"),
		LogLevel:      getenv("LOG_LEVEL", "info"),
	}

	var err error
	if c.UpstreamTimeout, err = getDuration("UPSTREAM_TIMEOUT", 3*time.Second); err != nil {
		return Storefront{}, err
	}
	if c.SlotTTL, err = getDuration("SLOT_TTL", 0); err != nil {
		return Storefront{}, err
	}
	if c.SessionTTL, err = getDuration("SESSION_TTL", 30*24*time.Hour); err != nil {
		return Storefront{}, err
	}
	if c.CartIdleTTL, err = getDuration("CART_IDLE_TTL", 30*time.Minute); err != nil {
		return Storefront{}, err
	}
	if c.MaxOpenCarts, err = getInt("MAX_OPEN_CARTS", 10000); err != nil {
		return Storefront{}, err
	}
	if c.RedisDB, err = getInt("REDIS_DB", 0); err != nil {
		return Storefront{}, err
	}
	if c.RateLimitPerMin, err = getInt("RATE_LIMIT_PER_MIN", 60); err != nil {
		return Storefront{}, err
	}

	if len(c.SessionSecret) < minSecretLen {
		return Storefront{}, ErrSecretTooShort
	}

	switch c.SlotBackend {
	case SlotMemory, SlotFile, SlotRedis:
	case SlotPostgres:
		if c.DatabaseURL == "" {
			return Storefront{}, errors.New("DATABASE_URL is required for SLOT_BACKEND=postgres")
		}
	default:
		return Storefront{}, fmt.Errorf("%w: SLOT_BACKEND=%q", ErrBadBackend, c.SlotBackend)
	}

	switch c.EventsBackend {
	case EventsNone, EventsNATS:
	case EventsKafka:
		if len(c.KafkaBrokers) == 0 {
			return Storefront{}, errors.New("KAFKA_BROKERS is required for EVENTS_BACKEND=kafka")
		}
	default:
		return Storefront{}, fmt.Errorf("%w: EVENTS_BACKEND=%q", ErrBadBackend, c.EventsBackend)
	}

	return c, nil
}

func LoadCatalog() Catalog {
	return Catalog{
		Port:         getenv("PORT", "8082"),
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		MetricsToken: os.Getenv("METRICS_TOKEN"),
		LogLevel:     getenv("LOG_LEVEL", "info"),
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getDuration(k string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(k)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("%s: bad duration %q", k, v)
	}
	return d, nil
}

func getInt(k string, def int) (int, error) {
	v := os.Getenv(k)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s: bad integer %q", k, v)
	}
	return n, nil
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
