package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// Load reads the .env file specified by TEAMBRAIN_ENV (or .env by default),
// then loads the corresponding .secret file if it exists.
// All config is flat env vars read via os.Getenv after loading.
func Load() error {
	envFile := os.Getenv("TEAMBRAIN_ENV")
	if envFile == "" {
		envFile = ".env"
	}

	// Load main env file (ignore error if file doesn't exist)
	_ = godotenv.Load(envFile)

	// Load secret sidecar if it exists
	_ = godotenv.Load(envFile + ".secret")

	return nil
}

func ServerPort() int {
	port, err := strconv.Atoi(os.Getenv("SERVER_PORT"))
	if err != nil {
		return 8080
	}
	return port
}

func ServerAddr() string {
	return fmt.Sprintf(":%d", ServerPort())
}

func DatabaseURL() string {
	return os.Getenv("DATABASE_URL")
}

const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// StorageBackend selects where data lives. "memory" keeps everything in
// process and needs no DATABASE_URL; data is lost on restart.
func StorageBackend() string {
	if os.Getenv("STORAGE_BACKEND") == StorageMemory {
		return StorageMemory
	}
	return StoragePostgres
}

func MigrationsPath() string {
	p := os.Getenv("MIGRATIONS_PATH")
	if p == "" {
		return "migrations"
	}
	return p
}

// AutoMigrate reports whether the server applies pending migrations on start.
func AutoMigrate() bool {
	v, err := strconv.ParseBool(os.Getenv("AUTO_MIGRATE"))
	return err == nil && v
}

func OpenAIAPIKey() string {
	return os.Getenv("OPENAI_API_KEY")
}

func AnthropicAPIKey() string {
	return os.Getenv("ANTHROPIC_API_KEY")
}

func CerebrasAPIKey() string {
	return os.Getenv("CEREBRAS_API_KEY")
}

// LLMProvider returns the configured LLM provider.
// Defaults to "mock" if not set.
// Valid values: openai, anthropic, cerebras, mock
func LLMProvider() string {
	p := os.Getenv("LLM_PROVIDER")
	if p == "" {
		return "mock"
	}
	return p
}

// LLMAPIKey returns the API key for the configured LLM provider.
func LLMAPIKey() string {
	switch LLMProvider() {
	case "anthropic":
		return AnthropicAPIKey()
	case "cerebras":
		return CerebrasAPIKey()
	case "mock":
		return ""
	default:
		return OpenAIAPIKey()
	}
}

// RateLimitRPS returns requests per second limit.
// Defaults to 100 if not set.
func RateLimitRPS() float64 {
	rps, err := strconv.ParseFloat(os.Getenv("RATE_LIMIT_RPS"), 64)
	if err != nil || rps <= 0 {
		return 100
	}
	return rps
}

// RateLimitBurst returns the burst size for rate limiting.
// Defaults to 20 if not set.
func RateLimitBurst() int {
	burst, err := strconv.Atoi(os.Getenv("RATE_LIMIT_BURST"))
	if err != nil || burst <= 0 {
		return 20
	}
	return burst
}

// LogLevel returns the log level (debug, info, warn, error).
// Defaults to "info" if not set.
func LogLevel() string {
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		return "info"
	}
	return level
}

// OriginHashSecret keys the hash that stands in for an author's id once a
// hypothesis is shared. Empty means a plain digest.
func OriginHashSecret() string {
	return os.Getenv("ORIGIN_HASH_SECRET")
}

// SuggestionTTL is how long a sharing suggestion may stay pending.
// Defaults to 720h; 0 disables expiry.
func SuggestionTTL() time.Duration {
	return durationOr("SUGGESTION_TTL", 720*time.Hour)
}

// SuggestionExpirerInterval defaults to 1h.
func SuggestionExpirerInterval() time.Duration {
	d := durationOr("SUGGESTION_EXPIRER_INTERVAL", time.Hour)
	if d <= 0 {
		return time.Hour
	}
	return d
}

// TracesExporter selects the span exporter: none, stdout or otlp.
// Defaults to none, which leaves the global no-op tracer in place.
func TracesExporter() string {
	v := os.Getenv("OTEL_TRACES_EXPORTER")
	if v == "" {
		return "none"
	}
	return v
}

func OTLPEndpoint() string {
	v := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if v == "" {
		return "localhost:4317"
	}
	return v
}

// Environment is reported as deployment.environment on every span.
func Environment() string {
	v := os.Getenv("TEAMBRAIN_ENVIRONMENT")
	if v == "" {
		return "development"
	}
	return v
}

func durationOr(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		return def
	}
	return d
}

// NewLogger builds the production zap logger at LOG_LEVEL.
func NewLogger() (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(LogLevel())
	if err != nil {
		return nil, fmt.Errorf("parse LOG_LEVEL: %w", err)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = level
	return cfg.Build()
}
