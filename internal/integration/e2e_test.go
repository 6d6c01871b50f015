package integration

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"ratebot-service/internal/application"
	"ratebot-service/internal/domain"
	"ratebot-service/internal/infrastructure/bunt"
	infraconfig "ratebot-service/internal/infrastructure/config"
	httpserver "ratebot-service/internal/infrastructure/http"
	"ratebot-service/internal/infrastructure/metrics"
	"ratebot-service/internal/infrastructure/provider"
	"ratebot-service/internal/infrastructure/telegram"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	tb "gopkg.in/tucnak/telebot.v2"
)

const adminID = 1

type sentMessage struct {
	To   string
	Text string
}

// chatLog stands in for the Telegram API on the outbound side.
type chatLog struct {
	mu   sync.Mutex
	sent []sentMessage
}

func (c *chatLog) Send(to tb.Recipient, what interface{}, _ ...interface{}) (*tb.Message, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, sentMessage{To: to.Recipient(), Text: fmt.Sprint(what)})
	return &tb.Message{}, nil
}

func (c *chatLog) to(id int64) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []string
	for _, m := range c.sent {
		if m.To == fmt.Sprint(id) {
			out = append(out, m.Text)
		}
	}
	return out
}

type feed struct {
	usd atomic.Value
	srv *httptest.Server
}

func newFeed(t *testing.T, usd string) *feed {
	f := &feed{}
	f.usd.Store(usd)
	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `[
			{"Ccy":"USD","Rate":"%s","Date":"16.10.2026"},
			{"Ccy":"GBP","Rate":"16890.10","Date":"16.10.2026"},
			{"Ccy":"EUR","Rate":"13720.35","Date":"16.10.2026"}
		]`, f.usd.Load().(string))
	}))
	t.Cleanup(f.srv.Close)
	return f
}

type harness struct {
	chat     *chatLog
	feed     *feed
	pipeline *application.Pipeline
	router   http.Handler
	reg      *prometheus.Registry
	rates    application.RateStore
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	db, err := bunt.FromMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	rates, subs := bunt.NewRateStore(db), bunt.NewSubscriberStore(db)

	f := newFeed(t, "12650.50")
	src := &provider.CBUProvider{URL: f.srv.URL, Client: f.srv.Client()}

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	chat := &chatLog{}

	pipe := application.NewPipeline(src, rates, subs,
		application.NewNotifier(telegram.NewSender(chat), m, nil),
		application.WithMetrics(m),
		application.WithFetchTimeout(5*time.Second),
	)
	cmds := application.NewCommands(subs, src, pipe, application.CommandsConfig{AdminID: adminID})

	bot, err := telegram.NewBot(telegram.Settings{Token: "test", Synchronous: true, Offline: true}, nil)
	require.NoError(t, err)
	telegram.NewHandlers(ctx, cmds, chat, nil).Register(bot)

	srv := httpserver.NewServer(httpserver.WithUpdates(bot, nil), httpserver.WithMetrics(reg, m))
	return &harness{chat: chat, feed: f, pipeline: pipe, router: httpserver.NewRouter(srv), reg: reg, rates: rates}
}

var updateSeq atomic.Int64

func (h *harness) command(t *testing.T, from int64, text string) {
	t.Helper()
	body := fmt.Sprintf(`{"update_id":%d,"message":{"message_id":1,"date":0,"text":%q,"from":{"id":%d,"first_name":"u"},"chat":{"id":%d,"type":"private"}}}`,
		updateSeq.Add(1), text, from, from)
	req := httptest.NewRequest(http.MethodPost, infraconfig.WebhookPath, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func (h *harness) metrics(t *testing.T) string {
	t.Helper()
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	return rec.Body.String()
}

func TestSubscribeRefreshAndAlert(t *testing.T) {
	h := newHarness(t)

	h.command(t, 42, "/start")
	require.Equal(t, []string{application.ReplySubscribed}, h.chat.to(42))

	h.command(t, adminID, "/update")
	require.Equal(t, []string{application.ReplyRefreshed}, h.chat.to(adminID))

	got := h.chat.to(42)
	require.Len(t, got, 2)
	require.Contains(t, got[1], "Kurslar yangilandi (CBU)")
	require.Contains(t, got[1], "*Dollar*: `12 651` UZS")
	require.Contains(t, got[1], "*EURO*: `13 720` UZS")
	require.NotContains(t, got[1], "GBP")

	last, err := h.rates.LastRate(context.Background(), "USD")
	require.NoError(t, err)
	require.Equal(t, "12650.5", last.Decimal.String())

	h.feed.usd.Store("12760.00")
	rep, err := h.pipeline.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, []domain.Code{"USD"}, rep.Alerts)

	got = h.chat.to(42)
	require.Len(t, got, 4)
	require.Contains(t, got[3], "OGOHLANTIRISH")
	require.Contains(t, got[3], "`12 760` UZS")

	out := h.metrics(t)
	require.Contains(t, out, `ratebot_alerts_total{code="USD"} 1`)
	require.Contains(t, out, `ratebot_telegram_updates_total{result="processed"} 2`)
}

func TestCurrentRatesAndAdminOnlyRefresh(t *testing.T) {
	h := newHarness(t)

	h.command(t, 42, "/kurs")
	got := h.chat.to(42)
	require.Len(t, got, 1)
	require.Contains(t, got[0], "Hozirgi kurslar")
	require.Contains(t, got[0], "Sana: 16.10.2026")

	h.command(t, 42, "/update")
	require.Equal(t, application.ReplyForbidden, h.chat.to(42)[1])

	last, err := h.rates.LastRate(context.Background(), "USD")
	require.NoError(t, err)
	require.False(t, last.Valid)
}

func TestUnsubscribedUserGetsNoBroadcast(t *testing.T) {
	h := newHarness(t)

	h.command(t, 42, "/start")
	h.command(t, 42, "/stop")
	require.Equal(t, []string{application.ReplySubscribed, application.ReplyUnsubscribed}, h.chat.to(42))

	rep, err := h.pipeline.Run(context.Background())
	require.NoError(t, err)
	require.Zero(t, rep.Subscribers)
	require.Len(t, h.chat.to(42), 2)
}
