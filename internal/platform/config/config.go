// Package config loads service configuration from the environment so main
// stays lean. Every knob has a development-friendly default; production
// deployments override via PHYSIOFLOW_* variables.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config captures the full service configuration.
type Config struct {
	Addr        string
	Environment string

	// Banner behavior
	BannerDisplayDelay time.Duration

	// Anonymous client identity cookie
	ClientCookieName string
	CookieSigningKey string
	ClientCookieTTL  time.Duration
	CookieSecure     bool

	// Storage backends. Postgres wins when both are set; with neither the
	// service falls back to the in-memory store (development only).
	DatabaseURL string
	RedisURL    string

	// Audit delivery
	KafkaBrokers    string
	AuditTopic      string
	AuditBufferSize int

	PrivacyPolicyURL string
}

// FromEnv builds a Config from environment variables.
func FromEnv() Config {
	cfg := Config{
		Addr:               envOr("PHYSIOFLOW_ADDR", ":8080"),
		Environment:        envOr("PHYSIOFLOW_ENV", "development"),
		BannerDisplayDelay: envDuration("PHYSIOFLOW_BANNER_DELAY", time.Second),
		ClientCookieName:   envOr("PHYSIOFLOW_CLIENT_COOKIE", "pf_client"),
		CookieSigningKey:   envOr("PHYSIOFLOW_COOKIE_SIGNING_KEY", "dev-secret-key-change-in-production"),
		ClientCookieTTL:    envDuration("PHYSIOFLOW_CLIENT_COOKIE_TTL", 365*24*time.Hour),
		DatabaseURL:        os.Getenv("PHYSIOFLOW_DATABASE_URL"),
		RedisURL:           os.Getenv("PHYSIOFLOW_REDIS_URL"),
		KafkaBrokers:       os.Getenv("PHYSIOFLOW_KAFKA_BROKERS"),
		AuditTopic:         envOr("PHYSIOFLOW_AUDIT_TOPIC", "physioflow.consent.audit"),
		AuditBufferSize:    envInt("PHYSIOFLOW_AUDIT_BUFFER", 256),
		PrivacyPolicyURL:   envOr("PHYSIOFLOW_PRIVACY_POLICY_URL", "/privacy"),
	}
	cfg.CookieSecure = cfg.Environment != "development"
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
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

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
