package bootstrap

import (
	"context"
	"errors"
	"net/http"

	"ratebot-service/internal/config"
	infraconfig "ratebot-service/internal/infrastructure/config"
	httpserver "ratebot-service/internal/infrastructure/http"
	"ratebot-service/internal/infrastructure/telegram"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	tb "gopkg.in/tucnak/telebot.v2"
)

// Run starts the scheduler, the HTTP listener and the update intake, and
// blocks until ctx is canceled or one of them fails.
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.Scheduler.Start(gctx)
		return nil
	})

	if addr := a.httpAddr(); addr != "" {
		g.Go(func() error {
			return serveHTTP(gctx, addr, httpserver.NewRouter(a.Server), a.Log)
		})
	}

	switch a.Variant {
	case config.VariantPoll:
		g.Go(func() error {
			// getUpdates is refused while a webhook is set
			telegram.RemoveWebhook(a.Bot, a.Log)
			a.setCommands()
			return runPoller(gctx, a.Bot, a.Log)
		})
	case config.VariantWebhook:
		g.Go(func() error {
			if err := telegram.RegisterWebhook(gctx, a.Bot, a.Config.PublicURL, a.Log); err != nil {
				return err
			}
			a.setCommands()
			<-gctx.Done()
			telegram.RemoveWebhook(a.Bot, a.Log)
			return nil
		})
	}

	return g.Wait()
}

func (a *App) httpAddr() string {
	if a.Variant == config.VariantWebhook {
		return ":" + a.Config.Port
	}
	return a.Config.MetricsAddr
}

func (a *App) setCommands() {
	if err := a.Bot.SetCommands(telegram.Commands); err != nil {
		a.Log.Warn("telegram.set_commands_failed", zap.Error(err))
	}
}

func runPoller(ctx context.Context, bot *tb.Bot, log *zap.Logger) error {
	done := make(chan struct{})
	go func() {
		defer close(done)
		bot.Start()
	}()
	log.Info("telegram.polling_started")

	<-ctx.Done()
	bot.Stop()
	<-done
	log.Info("telegram.polling_stopped")
	return nil
}

func serveHTTP(ctx context.Context, addr string, h http.Handler, log *zap.Logger) error {
	srv := &http.Server{Addr: addr, Handler: h}
	go func() {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), infraconfig.DefaultShutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutCtx)
	}()

	log.Info("http.listening", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
