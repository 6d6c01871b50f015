package application

import (
	"context"

	"ratebot-service/internal/domain"

	"go.uber.org/zap"
)

// BroadcastResult holds one Delivery per recipient, in recipient order.
type BroadcastResult struct {
	Deliveries []domain.Delivery
}

func (r BroadcastResult) Delivered() int {
	n := 0
	for _, d := range r.Deliveries {
		if d.OK() {
			n++
		}
	}
	return n
}

func (r BroadcastResult) Failed() int { return len(r.Deliveries) - r.Delivered() }

type Notifier struct {
	sender  Sender
	metrics Metrics
	log     *zap.Logger
}

func NewNotifier(sender Sender, metrics Metrics, log *zap.Logger) *Notifier {
	if metrics == nil {
		metrics = NoopMetrics{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Notifier{sender: sender, metrics: metrics, log: log}
}

// Broadcast sends msg to every recipient. A failed delivery is recorded in
// the result and never stops delivery to the remaining recipients.
func (n *Notifier) Broadcast(ctx context.Context, recipients []domain.SubscriberID, msg Message) BroadcastResult {
	res := BroadcastResult{Deliveries: make([]domain.Delivery, 0, len(recipients))}
	for _, to := range recipients {
		err := n.sender.Send(ctx, to, msg.Text)
		n.metrics.Delivered(msg.Kind, err == nil)
		if err != nil {
			n.log.Warn("broadcast.delivery_failed",
				zap.String("kind", string(msg.Kind)),
				zap.Int64("recipient", int64(to)),
				zap.Error(err))
		}
		res.Deliveries = append(res.Deliveries, domain.Delivery{Recipient: to, Err: err})
	}
	n.log.Info("broadcast.done",
		zap.String("kind", string(msg.Kind)),
		zap.Int("delivered", res.Delivered()),
		zap.Int("failed", res.Failed()))
	return res
}
