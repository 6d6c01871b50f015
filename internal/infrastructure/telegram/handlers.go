package telegram

import (
	"context"
	"time"

	"ratebot-service/internal/application"
	"ratebot-service/internal/domain"

	"go.uber.org/zap"
	tb "gopkg.in/tucnak/telebot.v2"
)

const commandTimeout = 30 * time.Second

// Handlers maps chat commands to application.Commands.
type Handlers struct {
	ctx  context.Context
	cmds *application.Commands
	bot  messenger
	log  *zap.Logger
}

// NewHandlers binds handlers to ctx; in-flight commands stop when it ends.
func NewHandlers(ctx context.Context, cmds *application.Commands, bot messenger, log *zap.Logger) *Handlers {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handlers{ctx: ctx, cmds: cmds, bot: bot, log: log}
}

type registrar interface {
	Handle(endpoint interface{}, handler interface{})
}

func (h *Handlers) Register(r registrar) {
	r.Handle("/start", h.OnStart)
	r.Handle("/stop", h.OnStop)
	r.Handle("/kurs", h.OnRates)
	r.Handle("/update", h.OnUpdate)
	r.Handle("/help", h.OnHelp)
}

// Commands is the command menu shown by Telegram clients.
var Commands = []tb.Command{
	{Text: "start", Description: "Obuna bo'lish"},
	{Text: "stop", Description: "Obunani bekor qilish"},
	{Text: "kurs", Description: "Hozirgi kurslar"},
	{Text: "update", Description: "Kurslarni yangilash"},
	{Text: "help", Description: "Yordam"},
}

func (h *Handlers) OnStart(m *tb.Message) {
	h.run(m, "start", func(ctx context.Context, id domain.SubscriberID) (string, error) {
		return h.cmds.Subscribe(ctx, id)
	})
}

func (h *Handlers) OnStop(m *tb.Message) {
	h.run(m, "stop", func(ctx context.Context, id domain.SubscriberID) (string, error) {
		return h.cmds.Unsubscribe(ctx, id)
	})
}

func (h *Handlers) OnRates(m *tb.Message) {
	h.run(m, "kurs", func(ctx context.Context, _ domain.SubscriberID) (string, error) {
		return h.cmds.CurrentRates(ctx)
	})
}

func (h *Handlers) OnUpdate(m *tb.Message) {
	h.run(m, "update", func(ctx context.Context, id domain.SubscriberID) (string, error) {
		return h.cmds.Refresh(ctx, id)
	})
}

func (h *Handlers) OnHelp(m *tb.Message) {
	h.run(m, "help", func(context.Context, domain.SubscriberID) (string, error) {
		return h.cmds.Help(), nil
	})
}

func (h *Handlers) run(m *tb.Message, command string, fn func(context.Context, domain.SubscriberID) (string, error)) {
	if m == nil || m.Sender == nil {
		h.log.Warn("telegram.message_without_sender", zap.String("command", command))
		return
	}
	id := domain.SubscriberID(m.Sender.ID)
	log := h.log.With(zap.String("command", command), zap.Int64("user_id", int64(id)))

	ctx := h.ctx
	if command != "update" {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, commandTimeout)
		defer cancel()
	}

	reply, err := fn(ctx, id)
	if err != nil {
		log.Warn("telegram.command_failed", zap.Error(err))
	} else {
		log.Info("telegram.command_handled")
	}
	if reply == "" {
		return
	}
	if _, err := h.bot.Send(m.Sender, reply, tb.ModeMarkdown); err != nil {
		log.Warn("telegram.reply_failed", zap.Error(err))
	}
}
