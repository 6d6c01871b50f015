package application

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Retention prunes rate history older than Keep. The latest observation of
// every currency survives regardless of age.
type Retention struct {
	Rates   RateStore
	Keep    time.Duration
	Clock   Clock
	Metrics Metrics
	Log     *zap.Logger
}

func (r *Retention) Run(ctx context.Context) (int64, error) {
	if r.Keep <= 0 {
		return 0, nil
	}
	clock := r.Clock
	if clock == nil {
		clock = realClock{}
	}
	log := r.Log
	if log == nil {
		log = zap.NewNop()
	}

	cutoff := clock.Now().Add(-r.Keep)
	n, err := r.Rates.Prune(ctx, cutoff)
	if err != nil {
		if r.Metrics != nil {
			r.Metrics.StoreFailed("prune")
		}
		return 0, fmt.Errorf("prune before %s: %w", cutoff.Format(time.RFC3339), err)
	}
	if r.Metrics != nil {
		r.Metrics.Pruned(n)
	}
	log.Info("retention.pruned", zap.Int64("deleted", n), zap.Time("cutoff", cutoff))
	return n, nil
}
