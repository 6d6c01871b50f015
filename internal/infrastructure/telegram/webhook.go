package telegram

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	tb "gopkg.in/tucnak/telebot.v2"
)

func registrationBackOff() backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = 500 * time.Millisecond
	exp.MaxInterval = 5 * time.Second
	exp.MaxElapsedTime = 30 * time.Second
	return exp
}

// RegisterWebhook points Telegram at publicURL, retrying transient failures.
func RegisterWebhook(ctx context.Context, bot *tb.Bot, publicURL string, log *zap.Logger) error {
	return registerWebhook(ctx, bot.SetWebhook, WebhookURL(publicURL), registrationBackOff(), log)
}

// RemoveWebhook deregisters any webhook set for the bot.
func RemoveWebhook(bot *tb.Bot, log *zap.Logger) {
	if err := bot.RemoveWebhook(); err != nil {
		log.Warn("telegram.webhook_remove_failed", zap.Error(err))
		return
	}
	log.Info("telegram.webhook_removed")
}

func registerWebhook(ctx context.Context, set func(*tb.Webhook) error, url string, policy backoff.BackOff, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}
	wh := &tb.Webhook{Endpoint: &tb.WebhookEndpoint{PublicURL: url}}
	op := func() error { return set(wh) }
	notify := func(err error, next time.Duration) {
		log.Warn("telegram.webhook_register_retry", zap.Error(err), zap.Duration("next", next))
	}
	if err := backoff.RetryNotify(op, backoff.WithContext(policy, ctx), notify); err != nil {
		return fmt.Errorf("set webhook %s: %w", url, err)
	}
	log.Info("telegram.webhook_registered", zap.String("url", url))
	return nil
}
