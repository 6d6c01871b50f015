package application

import (
	"context"
	"time"

	"ratebot-service/internal/domain"

	"github.com/shopspring/decimal"
)

// RateSource fetches the current feed snapshot. Implementations make a single
// attempt per call.
type RateSource interface {
	Fetch(ctx context.Context) (domain.RateSnapshot, error)
}

type RateStore interface {
	// LastRate returns the most recently appended rate for code, or an
	// invalid NullDecimal when none exists.
	LastRate(ctx context.Context, code domain.Code) (decimal.NullDecimal, error)
	Append(ctx context.Context, obs domain.RateObservation) error
	// Prune deletes observations older than before, keeping the latest one
	// per currency. It returns the number of deleted observations.
	Prune(ctx context.Context, before time.Time) (int64, error)
}

type SubscriberStore interface {
	Add(ctx context.Context, id domain.SubscriberID) error
	Remove(ctx context.Context, id domain.SubscriberID) error
	List(ctx context.Context) ([]domain.SubscriberID, error)
}

// Sender delivers one message to one recipient.
type Sender interface {
	Send(ctx context.Context, to domain.SubscriberID, text string) error
}

type EventPublisher interface {
	Publish(ctx context.Context, ev domain.RateEvent) error
}

type Metrics interface {
	CycleFinished(outcome string, took time.Duration)
	FetchFailed()
	Delivered(kind MessageKind, ok bool)
	StoreFailed(op string)
	Alerted(code domain.Code)
	EventPublishFailed()
	Pruned(n int64)
}

type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now().UTC() }
