package app

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/review-digest/internal/data/db"
	"github.com/yungbote/review-digest/internal/modules/reviewdigest/generation"
	"github.com/yungbote/review-digest/internal/observability"
	"github.com/yungbote/review-digest/internal/platform/envutil"
	"github.com/yungbote/review-digest/internal/platform/logger"
)

type OpenAIConfig struct {
	APIKey         string `yaml:"api_key"`
	Model          string `yaml:"model"`
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

type RedisConfig struct {
	Addr    string `yaml:"addr"`
	Channel string `yaml:"channel"`
}

type SweepConfig struct {
	Enabled        bool    `yaml:"enabled"`
	Cron           string  `yaml:"cron"`
	Concurrency    int     `yaml:"concurrency"`
	RatePerSec     float64 `yaml:"rate_per_sec"`
	TimeoutSeconds int     `yaml:"timeout_seconds"`
}

type OtelConfig struct {
	Enabled     bool    `yaml:"enabled"`
	Exporter    string  `yaml:"exporter"`
	Endpoint    string  `yaml:"endpoint"`
	Insecure    bool    `yaml:"insecure"`
	Headers     string  `yaml:"headers"`
	SampleRatio float64 `yaml:"sample_ratio"`
}

type Config struct {
	LogMode        string   `yaml:"log_mode"`
	HTTPAddr       string   `yaml:"http_addr"`
	CORSOrigins    []string `yaml:"cors_origins"`
	ServiceName    string   `yaml:"service_name"`
	ServiceEnv     string   `yaml:"service_env"`
	ServiceVersion string   `yaml:"service_version"`

	Postgres db.PostgresConfig `yaml:"postgres"`
	OpenAI   OpenAIConfig      `yaml:"openai"`
	Redis    RedisConfig       `yaml:"redis"`
	Sweep    SweepConfig       `yaml:"sweep"`
	Otel     OtelConfig        `yaml:"otel"`
}

func defaultConfig() Config {
	return Config{
		LogMode:     "development",
		HTTPAddr:    ":8080",
		ServiceName: "review-digest",
		ServiceEnv:  "local",
		Postgres: db.PostgresConfig{
			Host: "localhost",
			Port: "5432",
			User: "postgres",
			Name: "review_digest",
		},
		OpenAI: OpenAIConfig{
			Model:          generation.DefaultModel,
			BaseURL:        "https://api.openai.com",
			TimeoutSeconds: 60,
		},
		Redis: RedisConfig{Channel: "review-digest"},
		Sweep: SweepConfig{
			Enabled:        true,
			Cron:           "*/30 * * * *",
			Concurrency:    4,
			RatePerSec:     2,
			TimeoutSeconds: 600,
		},
		Otel: OtelConfig{Exporter: "stdout", SampleRatio: 0.1},
	}
}

// LoadConfig layers defaults, the optional YAML file named by
// DIGEST_CONFIG_FILE, then environment variables. Env always wins.
func LoadConfig(log *logger.Logger) (Config, error) {
	cfg := defaultConfig()

	if path := envutil.String("DIGEST_CONFIG_FILE", ""); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
		if log != nil {
			log.Info("config file loaded", "path", path)
		}
	}

	cfg.LogMode = envutil.String("LOG_MODE", cfg.LogMode)
	cfg.HTTPAddr = envutil.String("HTTP_ADDR", cfg.HTTPAddr)
	if raw := envutil.String("CORS_ORIGINS", ""); raw != "" {
		cfg.CORSOrigins = splitList(raw)
	}
	cfg.ServiceName = envutil.String("SERVICE_NAME", cfg.ServiceName)
	cfg.ServiceEnv = envutil.String("SERVICE_ENV", cfg.ServiceEnv)
	cfg.ServiceVersion = envutil.String("SERVICE_VERSION", cfg.ServiceVersion)

	cfg.Postgres.Host = envutil.String("POSTGRES_HOST", cfg.Postgres.Host)
	cfg.Postgres.Port = envutil.String("POSTGRES_PORT", cfg.Postgres.Port)
	cfg.Postgres.User = envutil.String("POSTGRES_USER", cfg.Postgres.User)
	cfg.Postgres.Password = envutil.String("POSTGRES_PASSWORD", cfg.Postgres.Password)
	cfg.Postgres.Name = envutil.String("POSTGRES_NAME", cfg.Postgres.Name)
	cfg.Postgres.SSLMode = envutil.String("POSTGRES_SSLMODE", cfg.Postgres.SSLMode)

	cfg.OpenAI.APIKey = envutil.String("OPENAI_API_KEY", cfg.OpenAI.APIKey)
	cfg.OpenAI.Model = envutil.String("OPENAI_MODEL", cfg.OpenAI.Model)
	cfg.OpenAI.BaseURL = envutil.String("OPENAI_BASE_URL", cfg.OpenAI.BaseURL)
	cfg.OpenAI.TimeoutSeconds = envutil.Int("OPENAI_TIMEOUT_SECONDS", cfg.OpenAI.TimeoutSeconds)

	cfg.Redis.Addr = envutil.String("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Channel = envutil.String("REDIS_CHANNEL", cfg.Redis.Channel)

	cfg.Sweep.Enabled = envutil.Bool("DIGEST_SWEEP_ENABLED", cfg.Sweep.Enabled)
	cfg.Sweep.Cron = envutil.String("DIGEST_SWEEP_CRON", cfg.Sweep.Cron)
	cfg.Sweep.Concurrency = envutil.Int("DIGEST_SWEEP_CONCURRENCY", cfg.Sweep.Concurrency)
	cfg.Sweep.RatePerSec = envutil.Float("DIGEST_SWEEP_RATE_PER_SEC", cfg.Sweep.RatePerSec)
	cfg.Sweep.TimeoutSeconds = envutil.Int("DIGEST_SWEEP_TIMEOUT_SECONDS", cfg.Sweep.TimeoutSeconds)

	cfg.Otel.Enabled = envutil.Bool("OTEL_ENABLED", cfg.Otel.Enabled)
	cfg.Otel.Exporter = envutil.String("OTEL_EXPORTER", cfg.Otel.Exporter)
	cfg.Otel.Endpoint = envutil.String("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.Otel.Endpoint)
	cfg.Otel.Insecure = envutil.Bool("OTEL_EXPORTER_OTLP_INSECURE", cfg.Otel.Insecure)
	cfg.Otel.Headers = envutil.String("OTEL_EXPORTER_OTLP_HEADERS", cfg.Otel.Headers)
	cfg.Otel.SampleRatio = envutil.Float("OTEL_SAMPLE_RATIO", cfg.Otel.SampleRatio)

	if cfg.Sweep.Concurrency < 1 {
		cfg.Sweep.Concurrency = 1
	}
	if cfg.OpenAI.TimeoutSeconds <= 0 {
		cfg.OpenAI.TimeoutSeconds = 60
	}
	return cfg, nil
}

// Credentials returns nil when no API key is configured, which routes every
// stale digest down the deterministic path.
func (c Config) Credentials() *generation.Credentials {
	key := strings.TrimSpace(c.OpenAI.APIKey)
	if key == "" {
		return nil
	}
	return &generation.Credentials{APIKey: key, Model: c.OpenAI.Model}
}

func (c Config) OpenAITimeout() time.Duration {
	return time.Duration(c.OpenAI.TimeoutSeconds) * time.Second
}

func (c Config) SweepTimeout() time.Duration {
	if c.Sweep.TimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(c.Sweep.TimeoutSeconds) * time.Second
}

func (c Config) OtelConfig() observability.OtelConfig {
	return observability.OtelConfig{
		Enabled:     c.Otel.Enabled,
		ServiceName: c.ServiceName,
		Environment: c.ServiceEnv,
		Version:     c.ServiceVersion,
		Exporter:    c.Otel.Exporter,
		Endpoint:    c.Otel.Endpoint,
		Insecure:    c.Otel.Insecure,
		Headers:     observability.ParseHeaders(c.Otel.Headers),
		SampleRatio: c.Otel.SampleRatio,
	}
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
