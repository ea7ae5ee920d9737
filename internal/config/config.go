package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	Scorer       ScorerConfig
	Orchestrator OrchestratorConfig
	Notification NotificationConfig
	SLAPolicy    SLAPolicy
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr       string
	Password   string
	DB         int
	DedupeTTL  time.Duration
	DedupeOff  bool
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level    string
	Encoding string
}

// AuthConfig defines parameters for service-to-service tokens.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
}

// ScorerConfig configures the external prediction endpoint and fallback.
type ScorerConfig struct {
	EndpointURL           string
	TimeoutSeconds        int
	FallbackAfterFailures int
}

// OrchestratorConfig controls lane fan-out, retry behavior, and the
// downstream automation endpoint.
type OrchestratorConfig struct {
	Lanes             int
	LaneBuffer        int
	MaxRetries        int
	BackoffBase       time.Duration
	BackoffMax        time.Duration
	DispatchTimeout   time.Duration
	ActionEndpointURL string
}

// NotificationConfig holds alerting collaborator endpoints.
type NotificationConfig struct {
	WebhookURL  string
	ChannelHint string
}

// Load reads configuration from environment variables and the SLA policy
// file, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	policy, err := LoadSLAPolicy(os.Getenv("SLA_POLICY_PATH"))
	if err != nil {
		return nil, fmt.Errorf("load SLA policy: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "sla-guard"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:      getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password:  os.Getenv("REDIS_PASSWORD"),
			DB:        redisDB,
			DedupeTTL: time.Duration(getEnvAsInt("EVENT_DEDUPE_TTL_SECONDS", 86400)) * time.Second,
			DedupeOff: getEnvAsBool("EVENT_DEDUPE_DISABLED", false),
		},
		Logger: LoggerConfig{
			Level:    getEnv("LOG_LEVEL", "info"),
			Encoding: getEnv("LOG_ENCODING", "json"),
		},
		Auth: AuthConfig{
			JWTSecret:             getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
		},
		Scorer: ScorerConfig{
			EndpointURL:           getEnv("SCORER_ENDPOINT_URL", ""),
			TimeoutSeconds:        getEnvAsInt("SCORER_TIMEOUT_SECONDS", 2),
			FallbackAfterFailures: getEnvAsInt("SCORER_FALLBACK_AFTER_FAILURES", 3),
		},
		Orchestrator: OrchestratorConfig{
			Lanes:             getEnvAsInt("ORCHESTRATOR_LANES", 8),
			LaneBuffer:        getEnvAsInt("ORCHESTRATOR_LANE_BUFFER", 64),
			MaxRetries:        getEnvAsInt("ORCHESTRATOR_MAX_RETRIES", 3),
			BackoffBase:       time.Duration(getEnvAsInt("ORCHESTRATOR_BACKOFF_BASE_MS", 2000)) * time.Millisecond,
			BackoffMax:        time.Duration(getEnvAsInt("ORCHESTRATOR_BACKOFF_MAX_MS", 60000)) * time.Millisecond,
			DispatchTimeout:   time.Duration(getEnvAsInt("ORCHESTRATOR_DISPATCH_TIMEOUT_SECONDS", 5)) * time.Second,
			ActionEndpointURL: getEnv("ACTION_ENDPOINT_URL", ""),
		},
		Notification: NotificationConfig{
			WebhookURL:  getEnv("NOTIFY_WEBHOOK_URL", ""),
			ChannelHint: getEnv("NOTIFY_CHANNEL_HINT", "ops"),
		},
		SLAPolicy: *policy,
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// Timeout returns the scorer latency budget.
func (s ScorerConfig) Timeout() time.Duration {
	if s.TimeoutSeconds <= 0 {
		return 2 * time.Second
	}
	return time.Duration(s.TimeoutSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
