package bootstrap

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"ratebot-service/internal/application"
	"ratebot-service/internal/config"
	"ratebot-service/internal/domain"
	"ratebot-service/internal/infrastructure/provider"

	"github.com/alicebob/miniredis/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestProvideStores_Bunt(t *testing.T) {
	cfg := config.Config{Storage: "bunt", StorePath: filepath.Join(t.TempDir(), "bot.db")}
	st, cleanup, err := ProvideStores(context.Background(), zap.NewNop(), cfg)
	require.NoError(t, err)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, st.Ping(ctx))
	require.NoError(t, st.Subscribers.Add(ctx, 42))
	ids, err := st.Subscribers.List(ctx)
	require.NoError(t, err)
	require.Equal(t, []domain.SubscriberID{42}, ids)

	require.NoError(t, st.Rates.Append(ctx, domain.RateObservation{
		Code:       "USD",
		Rate:       decimal.NewFromInt(12650),
		ObservedAt: time.Now().UTC(),
	}))
	last, err := st.Rates.LastRate(ctx, "USD")
	require.NoError(t, err)
	require.True(t, last.Valid)
}

func TestProvideStores_Errors(t *testing.T) {
	_, _, err := ProvideStores(context.Background(), zap.NewNop(), config.Config{Storage: "pg"})
	require.ErrorIs(t, err, ErrMissingDBURL)

	_, _, err = ProvideStores(context.Background(), zap.NewNop(), config.Config{Storage: "sqlite"})
	require.ErrorContains(t, err, "unsupported STORAGE")
}

func TestProvideIdempotency(t *testing.T) {
	store, cleanup, err := ProvideIdempotency(config.Config{IdempotencyBackend: "none"})
	require.NoError(t, err)
	cleanup()
	require.IsType(t, application.NoopIdempotency{}, store)

	mr := miniredis.RunT(t)
	store, cleanup, err = ProvideIdempotency(config.Config{
		IdempotencyBackend: "redis",
		RedisAddr:          mr.Addr(),
		RedisTTL:           time.Minute,
	})
	require.NoError(t, err)
	defer cleanup()

	ok, err := store.TryReserve(context.Background(), "1")
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = store.TryReserve(context.Background(), "1")
	require.NoError(t, err)
	require.False(t, ok)

	_, _, err = ProvideIdempotency(config.Config{IdempotencyBackend: "memcached"})
	require.Error(t, err)
}

func TestProvidePublisher(t *testing.T) {
	pub, cleanup := ProvidePublisher(zap.NewNop(), config.Config{})
	defer cleanup()
	require.IsType(t, application.NoopPublisher{}, pub)

	pub, cleanup = ProvidePublisher(zap.NewNop(), config.Config{KafkaBrokers: []string{"localhost:9092"}, KafkaTopic: "rates"})
	defer cleanup()
	require.NotNil(t, pub)
}

func TestProvideMetrics(t *testing.T) {
	m, reg := ProvideMetrics()
	m.FetchFailed()

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	require.True(t, names["ratebot_feed_failures_total"])
	require.True(t, names["go_goroutines"])
}

func TestProvideRateSource(t *testing.T) {
	src := ProvideRateSource(config.Config{FeedURL: config.DefaultFeedURL, FeedTimeout: 5 * time.Second})
	cbu, ok := src.(*provider.CBUProvider)
	require.True(t, ok)
	require.Equal(t, config.DefaultFeedURL, cbu.URL)
	require.Equal(t, 5*time.Second, cbu.Client.Timeout)
}

func TestProvideRetention(t *testing.T) {
	require.Nil(t, ProvideRetention(config.Config{}, zap.NewNop(), Stores{}, nil))

	r := ProvideRetention(config.Config{Retention: time.Hour}, zap.NewNop(), Stores{}, nil)
	require.NotNil(t, r)
	require.Equal(t, time.Hour, r.Keep)
}

func TestHTTPAddr(t *testing.T) {
	cfg := config.Config{Port: "8443", MetricsAddr: ":9090"}
	require.Equal(t, ":8443", (&App{Variant: config.VariantWebhook, Config: cfg}).httpAddr())
	require.Equal(t, ":9090", (&App{Variant: config.VariantPoll, Config: cfg}).httpAddr())
	require.Empty(t, (&App{Variant: config.VariantPoll}).httpAddr())
}
