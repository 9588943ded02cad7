package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/xavierca1/ligue-funnels/internal/entity"
)

const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// Config holds everything the API and the relay read from the environment.
type Config struct {
	App      AppConfig
	Storage  string
	DB       DBConfig
	Redis    RedisConfig
	RabbitMQ RabbitMQConfig
	Webhook  WebhookConfig
	Relay    RelayConfig
	License  LicenseConfig
}

type AppConfig struct {
	Env            string
	Port           int
	RequestTimeout time.Duration
	AllowedOrigins []string
}

type DBConfig struct {
	URL string
	// SeedFile is only read by the memory storage.
	SeedFile string
}

type RedisConfig struct {
	Addr     string
	DedupTTL time.Duration
}

type RabbitMQConfig struct {
	URL string
}

type WebhookConfig struct {
	// LegacyStatusCodes keeps 201 for unknown user/funnel, as existing senders expect.
	LegacyStatusCodes bool
	CancelScope       entity.CancelScope
}

type RelayConfig struct {
	Interval  time.Duration
	BatchSize int
}

type LicenseConfig struct {
	Days int
}

// Load reads .env when present, then the process environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	var errs []error
	c := Config{
		App: AppConfig{
			Env:            envOr("APP_ENV", "local"),
			AllowedOrigins: splitList(envOr("CORS_ALLOWED_ORIGINS", "*")),
		},
		Storage: envOr("STORAGE", StoragePostgres),
		DB: DBConfig{
			URL:      strings.TrimSpace(os.Getenv("DATABASE_URL")),
			SeedFile: strings.TrimSpace(os.Getenv("MEMORY_SEED_FILE")),
		},
		Redis:    RedisConfig{Addr: strings.TrimSpace(os.Getenv("REDIS_ADDR"))},
		RabbitMQ: RabbitMQConfig{URL: strings.TrimSpace(os.Getenv("RABBITMQ_URL"))},
		Webhook: WebhookConfig{
			CancelScope: entity.CancelScope(envOr("WORKER_CANCEL_SCOPE", string(entity.CancelByPhone))),
		},
	}

	c.App.Port = intVar("APP_PORT", 8080, &errs)
	c.App.RequestTimeout = durationVar("REQUEST_TIMEOUT", 15*time.Second, &errs)
	c.Redis.DedupTTL = durationVar("DELIVERY_DEDUP_TTL", 10*time.Minute, &errs)
	c.Webhook.LegacyStatusCodes = boolVar("LEGACY_STATUS_CODES", true, &errs)
	c.Relay.Interval = durationVar("RELAY_INTERVAL", 15*time.Second, &errs)
	c.Relay.BatchSize = intVar("RELAY_BATCH_SIZE", 100, &errs)
	c.License.Days = intVar("LICENSE_DAYS", 30, &errs)

	if err := errors.Join(errs...); err != nil {
		return Config{}, err
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c Config) Validate() error {
	var errs []error

	if !isValidEnv(c.App.Env) {
		errs = append(errs, fmt.Errorf("APP_ENV must be one of local, dev, staging, production, got %q", c.App.Env))
	}
	if c.App.Port <= 0 || c.App.Port > 65535 {
		errs = append(errs, fmt.Errorf("APP_PORT must be a valid port, got %d", c.App.Port))
	}
	if c.App.RequestTimeout <= 0 {
		errs = append(errs, errors.New("REQUEST_TIMEOUT must be positive"))
	}

	switch c.Storage {
	case StoragePostgres:
		if c.DB.URL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required when STORAGE=postgres"))
		}
	case StorageMemory:
		if c.IsProduction() {
			errs = append(errs, errors.New("STORAGE=memory is not allowed in production"))
		}
	default:
		errs = append(errs, fmt.Errorf("STORAGE must be postgres or memory, got %q", c.Storage))
	}

	if c.Redis.Addr != "" && c.Redis.DedupTTL <= 0 {
		errs = append(errs, errors.New("DELIVERY_DEDUP_TTL must be positive"))
	}

	switch c.Webhook.CancelScope {
	case entity.CancelByPhone, entity.CancelByFunnel:
	default:
		errs = append(errs, fmt.Errorf("WORKER_CANCEL_SCOPE must be phone or funnel, got %q", c.Webhook.CancelScope))
	}

	if c.Relay.Interval <= 0 {
		errs = append(errs, errors.New("RELAY_INTERVAL must be positive"))
	}
	if c.Relay.BatchSize <= 0 {
		errs = append(errs, errors.New("RELAY_BATCH_SIZE must be positive"))
	}
	if c.License.Days <= 0 {
		errs = append(errs, errors.New("LICENSE_DAYS must be positive"))
	}

	return errors.Join(errs...)
}

// ValidateRelay checks what only cmd/relay needs.
func (c Config) ValidateRelay() error {
	var errs []error
	if c.Storage != StoragePostgres {
		errs = append(errs, errors.New("relay requires STORAGE=postgres"))
	}
	if c.RabbitMQ.URL == "" {
		errs = append(errs, errors.New("RABBITMQ_URL is required"))
	}
	return errors.Join(errs...)
}

func (c Config) IsProduction() bool {
	return c.App.Env == "production"
}

func (c Config) HTTPAddr() string {
	return fmt.Sprintf(":%d", c.App.Port)
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func intVar(key string, def int, errs *[]error) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s must be an integer, got %q", key, v))
		return def
	}
	return n
}

func durationVar(key string, def time.Duration, errs *[]error) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s must be a duration, got %q", key, v))
		return def
	}
	return d
}

func boolVar(key string, def bool, errs *[]error) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s must be a boolean, got %q", key, v))
		return def
	}
	return b
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

func isValidEnv(v string) bool {
	switch v {
	case "local", "dev", "staging", "production":
		return true
	default:
		return false
	}
}
