package application

import (
	"context"
	"time"

	"ratebot-service/internal/domain"
)

type NoopMetrics struct{}

func (NoopMetrics) CycleFinished(string, time.Duration) {}
func (NoopMetrics) FetchFailed()                        {}
func (NoopMetrics) Delivered(MessageKind, bool)         {}
func (NoopMetrics) StoreFailed(string)                  {}
func (NoopMetrics) Alerted(domain.Code)                 {}
func (NoopMetrics) EventPublishFailed()                 {}
func (NoopMetrics) Pruned(int64)                        {}

// NoopPublisher drops events; used when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, domain.RateEvent) error { return nil }
