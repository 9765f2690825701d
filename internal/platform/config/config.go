// Package config reads process configuration from the environment and the
// optional YAML policy file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	dErrors "trustrag/pkg/domain-errors"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr          string
	JWTSigningKey string
	// RequestsPerSecond and Burst bound each client IP.
	RequestsPerSecond float64
	Burst             int
}

type Logging struct {
	Level  string
	Format string
}

type Storage struct {
	DataDir     string
	CorpusFile  string
	DatabaseURL string
}

// ViolationsPath and AlertsPath live under DataDir.
func (s Storage) ViolationsPath() string { return filepath.Join(s.DataDir, "violations.json") }
func (s Storage) AlertsPath() string     { return filepath.Join(s.DataDir, "alerts.json") }

// RedisConfig configures the shared rate counter and query cache client.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type Kafka struct {
	Brokers    []string
	AlertTopic string
}

type Moderation struct {
	URL     string
	Timeout time.Duration
}

type Retrieval struct {
	EmbeddingTimeout time.Duration
	EmbeddingDim     int
	CacheTTL         time.Duration
	CacheMaxEntries  int
}

type Guardrails struct {
	RateLimitPerMinute      int
	RateLimitPerUserPerHour int
	PIIExemptRoles          []string
	EnablePIIDetection      bool
	EnableModeration        bool
	EnableRateLimiting      bool
}

type Monitor struct {
	MaxDenialsPerHour int
}

// Config is the full process configuration.
type Config struct {
	Server     Server
	Logging    Logging
	Storage    Storage
	Redis      RedisConfig
	Kafka      Kafka
	Moderation Moderation
	Retrieval  Retrieval
	Guardrails Guardrails
	Monitor    Monitor
	PolicyFile string
}

// FromEnv builds a Config from environment variables, falling back to
// defaults for anything unset. Malformed values are an error.
func FromEnv() (Config, error) {
	return fromLookup(os.LookupEnv)
}

// Default is the configuration with no environment set.
func Default() Config {
	cfg, _ := fromLookup(func(string) (string, bool) { return "", false })
	return cfg
}

func fromLookup(lookup func(string) (string, bool)) (Config, error) {
	e := env{lookup: lookup}
	cfg := Config{
		Server: Server{
			Addr:              e.str("TRUSTRAG_ADDR", ":8080"),
			JWTSigningKey:     e.str("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
			RequestsPerSecond: e.float("HTTP_RATE_PER_SECOND", 20),
			Burst:             e.int("HTTP_RATE_BURST", 40),
		},
		Logging: Logging{
			Level:  e.str("LOG_LEVEL", "info"),
			Format: e.str("LOG_FORMAT", "json"),
		},
		Storage: Storage{
			DataDir:     e.str("TRUSTRAG_DATA_DIR", "./data"),
			CorpusFile:  e.str("TRUSTRAG_CORPUS_FILE", ""),
			DatabaseURL: e.str("DATABASE_URL", ""),
		},
		Redis: RedisConfig{
			URL:          e.str("REDIS_URL", ""),
			PoolSize:     e.int("REDIS_POOL_SIZE", 10),
			MinIdleConns: e.int("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  e.duration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  e.duration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: e.duration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: Kafka{
			Brokers:    e.list("KAFKA_BROKERS", nil),
			AlertTopic: e.str("KAFKA_ALERT_TOPIC", "trustrag.security.alerts"),
		},
		Moderation: Moderation{
			URL:     e.str("MODERATION_URL", ""),
			Timeout: e.duration("MODERATION_TIMEOUT", 3*time.Second),
		},
		Retrieval: Retrieval{
			EmbeddingTimeout: e.duration("EMBEDDING_TIMEOUT", 5*time.Second),
			EmbeddingDim:     e.int("EMBEDDING_DIM", 384),
			CacheTTL:         e.duration("CACHE_TTL", time.Hour),
			CacheMaxEntries:  e.int("CACHE_MAX_ENTRIES", 1000),
		},
		Guardrails: Guardrails{
			RateLimitPerMinute:      e.int("RATE_LIMIT_PER_MINUTE", 60),
			RateLimitPerUserPerHour: e.int("RATE_LIMIT_PER_USER_PER_HOUR", 100),
			PIIExemptRoles:          e.list("PII_EXEMPT_ROLES", []string{"admin", "analyst"}),
			EnablePIIDetection:      e.bool("ENABLE_PII_DETECTION", true),
			EnableModeration:        e.bool("ENABLE_MODERATION", true),
			EnableRateLimiting:      e.bool("ENABLE_RATE_LIMITING", true),
		},
		Monitor: Monitor{
			MaxDenialsPerHour: e.int("MAX_DENIALS_PER_HOUR", 10),
		},
		PolicyFile: e.str("TRUSTRAG_POLICY_FILE", ""),
	}
	if e.err != nil {
		return Config{}, e.err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings no component can run with.
func (c Config) Validate() error {
	switch {
	case c.Server.Addr == "":
		return invalid("TRUSTRAG_ADDR must not be empty")
	case c.Guardrails.RateLimitPerMinute <= 0:
		return invalid("RATE_LIMIT_PER_MINUTE must be positive")
	case c.Guardrails.RateLimitPerUserPerHour <= 0:
		return invalid("RATE_LIMIT_PER_USER_PER_HOUR must be positive")
	case c.Monitor.MaxDenialsPerHour <= 0:
		return invalid("MAX_DENIALS_PER_HOUR must be positive")
	case c.Retrieval.CacheMaxEntries <= 0:
		return invalid("CACHE_MAX_ENTRIES must be positive")
	case c.Retrieval.EmbeddingDim <= 0:
		return invalid("EMBEDDING_DIM must be positive")
	}
	return nil
}

func invalid(msg string) error {
	return dErrors.New(dErrors.CodeInvariantViolation, "configuration: "+msg)
}

// env collects the first parse error so FromEnv can read every key in one
// pass.
type env struct {
	lookup func(string) (string, bool)
	err    error
}

func (e *env) raw(key string) (string, bool) {
	v, ok := e.lookup(key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

func (e *env) fail(key, value string, err error) {
	if e.err == nil {
		e.err = dErrors.Wrap(err, dErrors.CodeInvariantViolation, fmt.Sprintf("configuration: invalid %s=%q", key, value))
	}
}

func (e *env) str(key, def string) string {
	if v, ok := e.raw(key); ok {
		return v
	}
	return def
}

func (e *env) int(key string, def int) int {
	v, ok := e.raw(key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.fail(key, v, err)
		return def
	}
	return n
}

func (e *env) float(key string, def float64) float64 {
	v, ok := e.raw(key)
	if !ok {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		e.fail(key, v, err)
		return def
	}
	return f
}

func (e *env) bool(key string, def bool) bool {
	v, ok := e.raw(key)
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		e.fail(key, v, err)
		return def
	}
	return b
}

// duration accepts Go durations ("30s") or bare seconds ("30").
func (e *env) duration(key string, def time.Duration) time.Duration {
	v, ok := e.raw(key)
	if !ok {
		return def
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.fail(key, v, err)
		return def
	}
	return d
}

func (e *env) list(key string, def []string) []string {
	v, ok := e.raw(key)
	if !ok {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
