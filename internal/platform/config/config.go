package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	strutil "securelife/pkg/platform/strings"
)

// QuoteTTL is the server-enforced validity window for payment quotes. A
// charge presenting a quote older than this is rejected as stale, so the tax
// rate a customer saw can never silently drift from the rate charged.
const DefaultQuoteTTL = 5 * time.Minute

// Server captures HTTP server level configuration.
type Server struct {
	Addr          string
	JWTSigningKey string

	// Webhook secret shared with the payment gateway for HMAC verification.
	GatewayWebhookSecret string

	// QuoteTTL bounds how long an issued quote stays chargeable.
	QuoteTTL time.Duration

	Collaborators Collaborators
	Redis         RedisConfig
	Postgres      PostgresConfig
	Kafka         KafkaConfig
}

// Collaborators holds base URLs for the external services the core consumes.
type Collaborators struct {
	PolicyBaseURL  string
	TaxBaseURL     string
	GatewayBaseURL string
}

// RedisConfig holds Redis connection settings for the quote store.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// PostgresConfig holds the ledger database settings.
type PostgresConfig struct {
	DSN string
}

// KafkaConfig holds the audit sink settings. Empty brokers disable the sink.
type KafkaConfig struct {
	Brokers    []string
	AuditTopic string
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := os.Getenv("SECURELIFE_ADDR")
	if addr == "" {
		addr = ":8081"
	}

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Use a default for development - should be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	webhookSecret := os.Getenv("GATEWAY_WEBHOOK_SECRET")
	if webhookSecret == "" {
		webhookSecret = "dev-webhook-secret"
	}

	quoteTTL := DefaultQuoteTTL
	if raw := os.Getenv("SECURELIFE_QUOTE_TTL"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil && d > 0 {
			quoteTTL = d
		}
	}

	return Server{
		Addr:                 addr,
		JWTSigningKey:        jwtSigningKey,
		GatewayWebhookSecret: webhookSecret,
		QuoteTTL:             quoteTTL,
		Collaborators: Collaborators{
			PolicyBaseURL:  envOr("POLICY_SERVICE_URL", "http://localhost:8082"),
			TaxBaseURL:     envOr("TAX_SERVICE_URL", "http://localhost:8083"),
			GatewayBaseURL: envOr("PAYMENT_GATEWAY_URL", "http://localhost:8084"),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envIntOr("REDIS_POOL_SIZE", 10),
			MinIdleConns: envIntOr("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Postgres: PostgresConfig{
			DSN: os.Getenv("DATABASE_URL"),
		},
		Kafka: KafkaConfig{
			Brokers:    strutil.DedupeAndTrim(strings.Split(os.Getenv("KAFKA_BROKERS"), ",")),
			AuditTopic: envOr("KAFKA_AUDIT_TOPIC", "securelife.payment-audit"),
		},
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
