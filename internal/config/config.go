package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/robfig/cron/v3"
)

const DefaultFeedURL = "https://cbu.uz/uz/arkhiv-kursov-valyut/json/"

// Variant selects how the bot receives Telegram updates.
type Variant string

const (
	VariantPoll    Variant = "poll"
	VariantWebhook Variant = "webhook"
)

type Config struct {
	// Common
	Env      string `yaml:"env" env:"ENV" env-default:"local"`
	LogLevel string `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
	// Telegram
	BotToken  string `yaml:"bot_token" env:"BOT_TOKEN"`
	AdminID   int64  `yaml:"admin_id" env:"ADMIN_ID"`
	PublicURL string `yaml:"public_url" env:"PUBLIC_URL"`
	Port      string `yaml:"port" env:"PORT" env-default:"8080"`
	// Feed
	FeedURL     string        `yaml:"feed_url" env:"FEED_URL" env-default:"https://cbu.uz/uz/arkhiv-kursov-valyut/json/"`
	FeedTimeout time.Duration `yaml:"feed_timeout" env:"FEED_TIMEOUT" env-default:"15s"`
	// Scheduler
	ScheduleInterval time.Duration `yaml:"schedule_interval" env:"SCHEDULE_INTERVAL" env-default:"6h"`
	RunOnStart       bool          `yaml:"run_on_start" env:"RUN_ON_START" env-default:"true"`
	Retention        time.Duration `yaml:"retention" env:"RETENTION" env-default:"2160h"`
	PruneSchedule    string        `yaml:"prune_schedule" env:"PRUNE_SCHEDULE" env-default:"@daily"`
	// Storage
	Storage     string `yaml:"storage" env:"STORAGE" env-default:"bunt"`
	StorePath   string `yaml:"store_path" env:"STORE_PATH" env-default:"ratebot.db"`
	DatabaseURL string `yaml:"database_url" env:"DATABASE_URL"`
	// Observability
	MetricsAddr string `yaml:"metrics_addr" env:"METRICS_ADDR"`
	// Redis (update de-duplication)
	IdempotencyBackend string        `yaml:"idempotency_backend" env:"IDEMPOTENCY_BACKEND" env-default:"none"`
	RedisAddr          string        `yaml:"redis_addr" env:"REDIS_ADDR" env-default:"localhost:6379"`
	RedisPassword      string        `yaml:"redis_password" env:"REDIS_PASSWORD"`
	RedisDB            int           `yaml:"redis_db" env:"REDIS_DB" env-default:"0"`
	RedisTTL           time.Duration `yaml:"idempotency_ttl" env:"IDEMPOTENCY_TTL" env-default:"24h"`
	// Kafka (event stream)
	KafkaBrokers []string `yaml:"kafka_brokers" env:"KAFKA_BROKERS" env-separator:","`
	KafkaTopic   string   `yaml:"kafka_topic" env:"KAFKA_TOPIC" env-default:"ratebot.rates"`
}

// Load reads CONFIG_PATH (YAML) when set, then environment variables, and
// applies defaults.
func Load() (Config, error) {
	var cfg Config
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		return cfg, nil
	}
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("read env: %w", err)
	}
	return cfg, nil
}

// Validate checks the settings required by the given variant.
func (c Config) Validate(v Variant) error {
	var errs []error
	if c.BotToken == "" {
		errs = append(errs, errors.New("BOT_TOKEN is required"))
	}
	if c.ScheduleInterval < time.Second {
		errs = append(errs, fmt.Errorf("SCHEDULE_INTERVAL must be at least 1s, got %s", c.ScheduleInterval))
	}
	if c.Retention > 0 {
		if _, err := cron.ParseStandard(c.PruneSchedule); err != nil {
			errs = append(errs, fmt.Errorf("PRUNE_SCHEDULE %q: %w", c.PruneSchedule, err))
		}
	}
	switch c.Storage {
	case "bunt":
		if c.StorePath == "" {
			errs = append(errs, errors.New("STORE_PATH is required for STORAGE=bunt"))
		}
	case "pg":
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for STORAGE=pg"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported STORAGE=%q", c.Storage))
	}
	if v == VariantWebhook {
		if c.PublicURL == "" {
			errs = append(errs, errors.New("PUBLIC_URL is required for the webhook variant"))
		}
		if c.AdminID == 0 {
			errs = append(errs, errors.New("ADMIN_ID is required for the webhook variant"))
		}
	}
	return errors.Join(errs...)
}
