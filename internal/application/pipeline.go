package application

import (
	"context"
	"fmt"
	"time"

	"ratebot-service/internal/domain"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// CycleRunner runs one ingestion cycle.
type CycleRunner interface {
	Run(ctx context.Context) (CycleReport, error)
}

// CycleReport summarises one ingestion cycle.
type CycleReport struct {
	Date        string
	Rates       []domain.Rate
	Subscribers int
	Update      BroadcastResult
	Alerts      []domain.Code
	Persisted   int
	WriteErrors int
}

// Pipeline fetches the feed, broadcasts the update, checks every tracked
// currency against its last stored rate and appends the new observation.
type Pipeline struct {
	source   RateSource
	rates    RateStore
	subs     SubscriberStore
	notifier *Notifier

	events       EventPublisher
	metrics      Metrics
	clock        Clock
	log          *zap.Logger
	fetchTimeout time.Duration

	guard singleflight.Group
}

var _ CycleRunner = (*Pipeline)(nil)

type PipelineOption func(*Pipeline)

func WithClock(c Clock) PipelineOption                { return func(p *Pipeline) { p.clock = c } }
func WithEvents(e EventPublisher) PipelineOption      { return func(p *Pipeline) { p.events = e } }
func WithMetrics(m Metrics) PipelineOption            { return func(p *Pipeline) { p.metrics = m } }
func WithLogger(l *zap.Logger) PipelineOption         { return func(p *Pipeline) { p.log = l } }
func WithFetchTimeout(d time.Duration) PipelineOption { return func(p *Pipeline) { p.fetchTimeout = d } }

func NewPipeline(source RateSource, rates RateStore, subs SubscriberStore, notifier *Notifier, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		source:   source,
		rates:    rates,
		subs:     subs,
		notifier: notifier,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.events == nil {
		p.events = NoopPublisher{}
	}
	if p.metrics == nil {
		p.metrics = NoopMetrics{}
	}
	if p.clock == nil {
		p.clock = realClock{}
	}
	if p.log == nil {
		p.log = zap.NewNop()
	}
	return p
}

// Run executes one cycle. A call made while a cycle is in flight waits for
// that cycle and receives its result instead of starting another one.
func (p *Pipeline) Run(ctx context.Context) (CycleReport, error) {
	v, err, shared := p.guard.Do("cycle", func() (any, error) {
		return p.run(ctx)
	})
	if shared {
		p.log.Debug("cycle.coalesced")
	}
	rep, _ := v.(CycleReport)
	return rep, err
}

func (p *Pipeline) run(ctx context.Context) (CycleReport, error) {
	started := time.Now()
	log := p.log

	snap, err := fetch(ctx, p.source, p.fetchTimeout)
	if err != nil {
		p.metrics.FetchFailed()
		p.metrics.CycleFinished("fetch_failed", time.Since(started))
		log.Warn("cycle.fetch_failed", zap.Error(err))
		return CycleReport{}, err
	}

	tracked := snap.Tracked()
	rep := CycleReport{Date: snap.Date, Rates: tracked}

	recipients, err := p.subs.List(ctx)
	if err != nil {
		p.metrics.StoreFailed("list_subscribers")
		p.metrics.CycleFinished("store_failed", time.Since(started))
		log.Error("cycle.list_subscribers_failed", zap.Error(err))
		return rep, fmt.Errorf("list subscribers: %w", err)
	}
	rep.Subscribers = len(recipients)

	// subscribers still get the dated header when the feed has none of our currencies
	rep.Update = p.notifier.Broadcast(ctx, recipients, UpdateMessage(tracked, snap.Date))
	if len(tracked) == 0 {
		p.metrics.CycleFinished("empty", time.Since(started))
		log.Warn("cycle.no_tracked_rates", zap.Int("records", len(snap.Rates)))
		return rep, ErrNoTrackedRates
	}

	now := p.clock.Now()
	for _, r := range tracked {
		prev, err := p.rates.LastRate(ctx, r.Code)
		if err != nil {
			p.metrics.StoreFailed("last_rate")
			log.Error("cycle.last_rate_failed", zap.String("code", string(r.Code)), zap.Error(err))
			prev.Valid = false
		}

		if domain.ShouldAlert(prev, r.Value) {
			rep.Alerts = append(rep.Alerts, r.Code)
			p.metrics.Alerted(r.Code)
			log.Info("cycle.alert",
				zap.String("code", string(r.Code)),
				zap.String("previous", prev.Decimal.String()),
				zap.String("current", r.Value.String()))
			p.notifier.Broadcast(ctx, recipients, AlertMessage(r))
			p.publish(ctx, domain.RateEvent{
				Type:       domain.RateEventAlert,
				Code:       r.Code,
				Rate:       r.Value.String(),
				Previous:   prev.Decimal.String(),
				Base:       domain.BaseCurrency,
				ObservedAt: now,
			})
		}

		obs := domain.RateObservation{Code: r.Code, Rate: r.Value, ObservedAt: now}
		if err := p.rates.Append(ctx, obs); err != nil {
			rep.WriteErrors++
			p.metrics.StoreFailed("append")
			log.Error("cycle.append_failed", zap.String("code", string(r.Code)), zap.Error(err))
			continue
		}
		rep.Persisted++
		p.publish(ctx, domain.RateEvent{
			Type:       domain.RateEventObserved,
			Code:       r.Code,
			Rate:       r.Value.String(),
			Base:       domain.BaseCurrency,
			ObservedAt: now,
		})
	}

	outcome := "ok"
	if rep.WriteErrors > 0 {
		outcome = "partial"
	}
	p.metrics.CycleFinished(outcome, time.Since(started))
	log.Info("cycle.done",
		zap.String("date", rep.Date),
		zap.Int("rates", len(rep.Rates)),
		zap.Int("subscribers", rep.Subscribers),
		zap.Int("alerts", len(rep.Alerts)),
		zap.Int("persisted", rep.Persisted),
		zap.Int("write_errors", rep.WriteErrors))
	return rep, nil
}

func (p *Pipeline) publish(ctx context.Context, ev domain.RateEvent) {
	if err := p.events.Publish(ctx, ev); err != nil {
		p.metrics.EventPublishFailed()
		p.log.Warn("cycle.publish_failed",
			zap.String("type", string(ev.Type)),
			zap.String("code", string(ev.Code)),
			zap.Error(err))
	}
}

func fetch(ctx context.Context, src RateSource, timeout time.Duration) (domain.RateSnapshot, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	snap, err := src.Fetch(ctx)
	if err != nil {
		return domain.RateSnapshot{}, fmt.Errorf("%w: %w", ErrFeedUnavailable, err)
	}
	return snap, nil
}
