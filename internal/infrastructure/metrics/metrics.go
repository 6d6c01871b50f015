package metrics

import (
	"time"

	"ratebot-service/internal/application"
	"ratebot-service/internal/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics is the Prometheus implementation of application.Metrics.
type Metrics struct {
	CyclesTotal        *prometheus.CounterVec
	CycleDuration      prometheus.Histogram
	FetchFailuresTotal prometheus.Counter
	DeliveriesTotal    *prometheus.CounterVec
	StoreFailuresTotal *prometheus.CounterVec
	AlertsTotal        *prometheus.CounterVec
	EventFailuresTotal prometheus.Counter
	PrunedTotal        prometheus.Counter
	UpdatesTotal       *prometheus.CounterVec
}

var _ application.Metrics = (*Metrics)(nil)

// New registers all collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		CyclesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ratebot_cycles_total",
				Help: "Ingestion cycles by outcome",
			},
			[]string{"outcome"},
		),
		CycleDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "ratebot_cycle_duration_seconds",
				Help:    "Wall time of one ingestion cycle",
				Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
			},
		),
		FetchFailuresTotal: f.NewCounter(
			prometheus.CounterOpts{
				Name: "ratebot_feed_failures_total",
				Help: "Failed feed fetches",
			},
		),
		DeliveriesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ratebot_deliveries_total",
				Help: "Message deliveries by kind and result",
			},
			[]string{"kind", "result"},
		),
		StoreFailuresTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ratebot_store_failures_total",
				Help: "Failed store operations",
			},
			[]string{"op"},
		),
		AlertsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ratebot_alerts_total",
				Help: "Threshold alerts by currency",
			},
			[]string{"code"},
		),
		EventFailuresTotal: f.NewCounter(
			prometheus.CounterOpts{
				Name: "ratebot_event_publish_failures_total",
				Help: "Events that could not be published",
			},
		),
		PrunedTotal: f.NewCounter(
			prometheus.CounterOpts{
				Name: "ratebot_pruned_observations_total",
				Help: "Observations removed by retention",
			},
		),
		UpdatesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ratebot_telegram_updates_total",
				Help: "Inbound webhook updates by result",
			},
			[]string{"result"},
		),
	}
}

func (m *Metrics) CycleFinished(outcome string, took time.Duration) {
	m.CyclesTotal.WithLabelValues(outcome).Inc()
	m.CycleDuration.Observe(took.Seconds())
}

func (m *Metrics) FetchFailed() { m.FetchFailuresTotal.Inc() }

func (m *Metrics) Delivered(kind application.MessageKind, ok bool) {
	result := "ok"
	if !ok {
		result = "failed"
	}
	m.DeliveriesTotal.WithLabelValues(string(kind), result).Inc()
}

func (m *Metrics) StoreFailed(op string)    { m.StoreFailuresTotal.WithLabelValues(op).Inc() }
func (m *Metrics) Alerted(code domain.Code) { m.AlertsTotal.WithLabelValues(string(code)).Inc() }
func (m *Metrics) EventPublishFailed()      { m.EventFailuresTotal.Inc() }
func (m *Metrics) Pruned(n int64)           { m.PrunedTotal.Add(float64(n)) }

// UpdateHandled counts an inbound webhook update.
func (m *Metrics) UpdateHandled(result string) { m.UpdatesTotal.WithLabelValues(result).Inc() }
