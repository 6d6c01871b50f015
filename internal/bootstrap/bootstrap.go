package bootstrap

import (
	"context"
	"fmt"

	"ratebot-service/internal/application"
	"ratebot-service/internal/config"
	httpserver "ratebot-service/internal/infrastructure/http"
	"ratebot-service/internal/infrastructure/logx"
	"ratebot-service/internal/infrastructure/telegram"
	"ratebot-service/internal/infrastructure/worker"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	tb "gopkg.in/tucnak/telebot.v2"
)

// App is a fully wired bot process for one delivery variant.
type App struct {
	Variant   config.Variant
	Config    config.Config
	Log       *zap.Logger
	Bot       *tb.Bot
	Pipeline  *application.Pipeline
	Scheduler *worker.Scheduler
	Server    *httpserver.Server
	Registry  *prometheus.Registry
}

// Build wires the app. ctx bounds store setup and the lifetime of chat
// command handlers. The returned cleanup releases resources in reverse order.
func Build(ctx context.Context, cfg config.Config, variant config.Variant) (*App, func(), error) {
	log := logx.L().With(zap.String("variant", string(variant)))

	var cleanups []func()
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}
	fail := func(err error) (*App, func(), error) {
		cleanup()
		return nil, func() {}, err
	}

	stores, closeStores, err := ProvideStores(ctx, log, cfg)
	if err != nil {
		return fail(fmt.Errorf("init stores: %w", err))
	}
	cleanups = append(cleanups, closeStores)

	idem, closeIdem, err := ProvideIdempotency(cfg)
	if err != nil {
		return fail(fmt.Errorf("init idempotency: %w", err))
	}
	cleanups = append(cleanups, closeIdem)

	pub, closePub := ProvidePublisher(log, cfg)
	cleanups = append(cleanups, closePub)

	m, reg := ProvideMetrics()

	bot, err := telegram.NewBot(telegram.Settings{
		Token:       cfg.BotToken,
		Poll:        variant == config.VariantPoll,
		Synchronous: variant == config.VariantWebhook,
	}, log)
	if err != nil {
		return fail(err)
	}

	src := ProvideRateSource(cfg)
	pipe := ProvidePipeline(cfg, log, src, stores, telegram.NewSender(bot), m, pub)
	cmds := ProvideCommands(cfg, log, src, stores, pipe)
	telegram.NewHandlers(ctx, cmds, bot, log).Register(bot)

	sched := &worker.Scheduler{
		Cycle:      pipe,
		Interval:   cfg.ScheduleInterval,
		RunOnStart: cfg.RunOnStart,
		Retention:  ProvideRetention(cfg, log, stores, m),
		PruneSpec:  cfg.PruneSchedule,
		Log:        log,
	}

	opts := []httpserver.Option{httpserver.WithMetrics(reg, m), httpserver.WithLogger(log)}
	if variant == config.VariantWebhook {
		opts = append(opts, httpserver.WithUpdates(bot, idem))
	}
	srv := httpserver.NewServer(opts...)
	srv.SetReadyCheck(stores.Ping)

	return &App{
		Variant:   variant,
		Config:    cfg,
		Log:       log,
		Bot:       bot,
		Pipeline:  pipe,
		Scheduler: sched,
		Server:    srv,
		Registry:  reg,
	}, cleanup, nil
}
