package application

import (
	"context"
	"errors"
	"sync"
	"time"

	"ratebot-service/internal/domain"

	"github.com/shopspring/decimal"
)

var (
	ErrRepo = errors.New("repo error")
	ErrSend = errors.New("send error")
)

var _ RateSource = (*fakeSource)(nil)
var _ RateStore = (*memRates)(nil)
var _ SubscriberStore = (*memSubs)(nil)
var _ Sender = (*fakeSender)(nil)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type fakeSource struct {
	mu    sync.Mutex
	snap  domain.RateSnapshot
	err   error
	calls int
	// gate, when set, blocks Fetch until closed.
	gate chan struct{}
}

func (f *fakeSource) Fetch(ctx context.Context) (domain.RateSnapshot, error) {
	f.mu.Lock()
	f.calls++
	gate := f.gate
	f.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return domain.RateSnapshot{}, ctx.Err()
		}
	}
	return f.snap, f.err
}

func (f *fakeSource) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type memRates struct {
	mu        sync.Mutex
	obs       []domain.RateObservation
	appendErr error
	lastErr   error
	// ops records LastRate/Append calls as "last:USD" / "append:USD".
	ops []string
}

func (m *memRates) LastRate(_ context.Context, code domain.Code) (decimal.NullDecimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ops = append(m.ops, "last:"+string(code))
	if m.lastErr != nil {
		return decimal.NullDecimal{}, m.lastErr
	}
	for i := len(m.obs) - 1; i >= 0; i-- {
		if m.obs[i].Code == code {
			return decimal.NewNullDecimal(m.obs[i].Rate), nil
		}
	}
	return decimal.NullDecimal{}, nil
}

func (m *memRates) Append(_ context.Context, o domain.RateObservation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ops = append(m.ops, "append:"+string(o.Code))
	if m.appendErr != nil {
		return m.appendErr
	}
	if err := o.Validate(); err != nil {
		return err
	}
	m.obs = append(m.obs, o)
	return nil
}

func (m *memRates) Prune(_ context.Context, before time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	latest := map[domain.Code]int{}
	for i, o := range m.obs {
		latest[o.Code] = i
	}
	kept := m.obs[:0]
	var n int64
	for i, o := range m.obs {
		if o.ObservedAt.Before(before) && latest[o.Code] != i {
			n++
			continue
		}
		kept = append(kept, o)
	}
	m.obs = kept
	return n, nil
}

type memSubs struct {
	mu      sync.Mutex
	ids     []domain.SubscriberID
	listErr error
}

func (m *memSubs) Add(_ context.Context, id domain.SubscriberID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range m.ids {
		if v == id {
			return nil
		}
	}
	m.ids = append(m.ids, id)
	return nil
}

func (m *memSubs) Remove(_ context.Context, id domain.SubscriberID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, v := range m.ids {
		if v == id {
			m.ids = append(m.ids[:i], m.ids[i+1:]...)
			return nil
		}
	}
	return nil
}

func (m *memSubs) List(context.Context) ([]domain.SubscriberID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	return append([]domain.SubscriberID(nil), m.ids...), nil
}

type sent struct {
	To   domain.SubscriberID
	Text string
}

type fakeSender struct {
	mu   sync.Mutex
	fail map[domain.SubscriberID]bool
	sent []sent
}

func (f *fakeSender) Send(_ context.Context, to domain.SubscriberID, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail[to] {
		return ErrSend
	}
	f.sent = append(f.sent, sent{To: to, Text: text})
	return nil
}

func (f *fakeSender) To(id domain.SubscriberID) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, s := range f.sent {
		if s.To == id {
			out = append(out, s.Text)
		}
	}
	return out
}

type fakePublisher struct {
	mu     sync.Mutex
	events []domain.RateEvent
	err    error
}

func (f *fakePublisher) Publish(_ context.Context, ev domain.RateEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, ev)
	return nil
}

type countingMetrics struct {
	NoopMetrics
	mu          sync.Mutex
	fetchFailed int
	storeFailed map[string]int
	outcomes    []string
	failedSends int
	publishFail int
}

func (m *countingMetrics) FetchFailed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetchFailed++
}

func (m *countingMetrics) StoreFailed(op string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.storeFailed == nil {
		m.storeFailed = map[string]int{}
	}
	m.storeFailed[op]++
}

func (m *countingMetrics) CycleFinished(outcome string, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomes = append(m.outcomes, outcome)
}

func (m *countingMetrics) Delivered(_ MessageKind, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !ok {
		m.failedSends++
	}
}

func (m *countingMetrics) EventPublishFailed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.publishFail++
}

type fakeClock struct{ t time.Time }

func (f fakeClock) Now() time.Time { return f.t }

var t0 = time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

func snapshot(date string, kv ...string) domain.RateSnapshot {
	s := domain.RateSnapshot{Date: date}
	for i := 0; i+1 < len(kv); i += 2 {
		s.Rates = append(s.Rates, domain.Rate{Code: domain.Code(kv[i]), Value: dec(kv[i+1])})
	}
	return s
}
