package telegram

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ratebot-service/internal/application"
	"ratebot-service/internal/domain"
	infraconfig "ratebot-service/internal/infrastructure/config"

	"go.uber.org/zap"
	tb "gopkg.in/tucnak/telebot.v2"
)

type Settings struct {
	Token string
	// Poll enables the long poller; leave false when updates arrive by webhook.
	Poll        bool
	PollTimeout time.Duration
	// Synchronous runs handlers inline, so a webhook request returns only
	// after its update was handled.
	Synchronous bool
	Offline     bool
}

// NewBot creates the Telegram client with Markdown as the default parse mode.
func NewBot(s Settings, log *zap.Logger) (*tb.Bot, error) {
	if log == nil {
		log = zap.NewNop()
	}
	pref := tb.Settings{
		Token:       s.Token,
		ParseMode:   tb.ModeMarkdown,
		Synchronous: s.Synchronous,
		Offline:     s.Offline,
		Reporter: func(err error) {
			log.Warn("telegram.error", zap.Error(err))
		},
	}
	if s.Poll {
		timeout := s.PollTimeout
		if timeout <= 0 {
			timeout = infraconfig.DefaultPollTimeout
		}
		pref.Poller = &tb.LongPoller{Timeout: timeout}
	}
	bot, err := tb.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	return bot, nil
}

type messenger interface {
	Send(to tb.Recipient, what interface{}, options ...interface{}) (*tb.Message, error)
}

// Sender delivers plain Markdown texts to user chats.
type Sender struct {
	bot messenger
}

var _ application.Sender = (*Sender)(nil)

func NewSender(bot messenger) *Sender { return &Sender{bot: bot} }

func (s *Sender) Send(ctx context.Context, to domain.SubscriberID, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := s.bot.Send(&tb.User{ID: int64(to)}, text, tb.ModeMarkdown); err != nil {
		return fmt.Errorf("send to %d: %w", to, err)
	}
	return nil
}

// WebhookURL is the public address Telegram posts updates to.
func WebhookURL(publicURL string) string {
	return strings.TrimRight(publicURL, "/") + infraconfig.WebhookPath
}
