package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"ratebot-service/internal/application"
	"ratebot-service/internal/config"
	"ratebot-service/internal/domain"
	"ratebot-service/internal/infrastructure/bunt"
	kafkapub "ratebot-service/internal/infrastructure/kafka"
	"ratebot-service/internal/infrastructure/metrics"
	"ratebot-service/internal/infrastructure/pg"
	"ratebot-service/internal/infrastructure/provider"
	redisstore "ratebot-service/internal/infrastructure/redis"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var ErrMissingDBURL = errors.New("DATABASE_URL is required for STORAGE=pg")

// Stores groups the persistence ports and a readiness probe for the chosen
// backend.
type Stores struct {
	Rates       application.RateStore
	Subscribers application.SubscriberStore
	Ping        func(ctx context.Context) error
}

func ProvideStores(ctx context.Context, log *zap.Logger, cfg config.Config) (Stores, func(), error) {
	switch cfg.Storage {
	case "pg":
		db, cleanup, err := ProvideDB(ctx, log, cfg)
		if err != nil {
			return Stores{}, func() {}, err
		}
		return Stores{
			Rates:       pg.NewRateRepo(db),
			Subscribers: pg.NewSubscriberRepo(db),
			Ping:        db.Ping,
		}, cleanup, nil
	case "bunt", "":
		db, err := bunt.Open(cfg.StorePath)
		if err != nil {
			return Stores{}, func() {}, err
		}
		cleanup := func() {
			log.Info("closing buntdb", zap.String("path", cfg.StorePath))
			_ = db.Close()
		}
		return Stores{
			Rates:       bunt.NewRateStore(db),
			Subscribers: bunt.NewSubscriberStore(db),
			Ping:        func(context.Context) error { return db.Ping() },
		}, cleanup, nil
	default:
		return Stores{}, func() {}, fmt.Errorf("unsupported STORAGE=%q", cfg.Storage)
	}
}

func ProvideDB(ctx context.Context, log *zap.Logger, cfg config.Config) (*pg.DB, func(), error) {
	if cfg.DatabaseURL == "" {
		return nil, func() {}, ErrMissingDBURL
	}
	db, err := pg.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, func() {}, err
	}
	if err := pg.RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, func() {}, err
	}
	cleanup := func() {
		log.Info("closing pg")
		db.Close()
	}
	return db, cleanup, nil
}

func ProvideIdempotency(cfg config.Config) (application.IdempotencyStore, func(), error) {
	switch cfg.IdempotencyBackend {
	case "none", "":
		return application.NoopIdempotency{}, func() {}, nil
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		return redisstore.New(client, cfg.RedisTTL), func() { _ = client.Close() }, nil
	default:
		return nil, func() {}, fmt.Errorf("unsupported IDEMPOTENCY_BACKEND=%q", cfg.IdempotencyBackend)
	}
}

func ProvidePublisher(log *zap.Logger, cfg config.Config) (application.EventPublisher, func()) {
	if len(cfg.KafkaBrokers) == 0 {
		return application.NoopPublisher{}, func() {}
	}
	pub := kafkapub.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
	cleanup := func() {
		if err := pub.Close(); err != nil {
			log.Warn("closing kafka writer", zap.Error(err))
		}
	}
	return pub, cleanup
}

// ProvideMetrics registers the bot collectors plus the Go runtime and
// process collectors on a fresh registry.
func ProvideMetrics() (*metrics.Metrics, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return metrics.New(reg), reg
}

func ProvideRateSource(cfg config.Config) application.RateSource {
	return &provider.CBUProvider{
		URL:    cfg.FeedURL,
		Client: &http.Client{Timeout: cfg.FeedTimeout},
	}
}

func ProvidePipeline(cfg config.Config, log *zap.Logger, src application.RateSource, st Stores, sender application.Sender, m application.Metrics, pub application.EventPublisher) *application.Pipeline {
	return application.NewPipeline(src, st.Rates, st.Subscribers,
		application.NewNotifier(sender, m, log),
		application.WithMetrics(m),
		application.WithEvents(pub),
		application.WithLogger(log),
		application.WithFetchTimeout(cfg.FeedTimeout),
	)
}

func ProvideCommands(cfg config.Config, log *zap.Logger, src application.RateSource, st Stores, cycle application.CycleRunner) *application.Commands {
	return application.NewCommands(st.Subscribers, src, cycle, application.CommandsConfig{
		AdminID:      domain.SubscriberID(cfg.AdminID),
		FetchTimeout: cfg.FeedTimeout,
		Log:          log,
	})
}

func ProvideRetention(cfg config.Config, log *zap.Logger, st Stores, m application.Metrics) *application.Retention {
	if cfg.Retention <= 0 {
		return nil
	}
	return &application.Retention{Rates: st.Rates, Keep: cfg.Retention, Metrics: m, Log: log}
}
