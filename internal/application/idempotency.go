package application

import "context"

// IdempotencyStore remembers inbound Telegram update ids for a while, so an
// update Telegram redelivers is handled once.
type IdempotencyStore interface {
	// TryReserve claims key and reports false when it was already claimed.
	TryReserve(ctx context.Context, key string) (bool, error)
}

// NoopIdempotency claims every key; used with IDEMPOTENCY_BACKEND=none.
type NoopIdempotency struct{}

var _ IdempotencyStore = NoopIdempotency{}

func (NoopIdempotency) TryReserve(context.Context, string) (bool, error) { return true, nil }
