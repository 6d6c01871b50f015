package httpserver

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"ratebot-service/internal/application"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	tb "gopkg.in/tucnak/telebot.v2"
)

const maxUpdateBytes = 1 << 20

// UpdateProcessor dispatches one Telegram update to the registered handlers.
type UpdateProcessor interface {
	ProcessUpdate(upd tb.Update)
}

type updateCounter interface {
	UpdateHandled(result string)
}

type Server struct {
	processor UpdateProcessor
	dedup     application.IdempotencyStore
	counter   updateCounter
	gatherer  prometheus.Gatherer
	ping      func(ctx context.Context) error
	log       *zap.Logger
}

type Option func(*Server)

// WithUpdates mounts the webhook endpoint.
func WithUpdates(p UpdateProcessor, dedup application.IdempotencyStore) Option {
	return func(s *Server) { s.processor, s.dedup = p, dedup }
}

func WithMetrics(g prometheus.Gatherer, c updateCounter) Option {
	return func(s *Server) { s.gatherer, s.counter = g, c }
}

func WithLogger(l *zap.Logger) Option { return func(s *Server) { s.log = l } }

func NewServer(opts ...Option) *Server {
	s := &Server{}
	for _, opt := range opts {
		opt(s)
	}
	if s.dedup == nil {
		s.dedup = application.NoopIdempotency{}
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	return s
}

// SetReadyCheck sets the probe behind /readyz.
func (s *Server) SetReadyCheck(fn func(ctx context.Context) error) { s.ping = fn }

// HandleUpdate accepts a Telegram update. Telegram redelivers an update until
// it gets a 2xx, so everything except a malformed body is acknowledged.
func (s *Server) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var upd tb.Update
	if err := json.NewDecoder(io.LimitReader(r.Body, maxUpdateBytes)).Decode(&upd); err != nil {
		s.count("invalid")
		writeError(w, http.StatusBadRequest, "invalid update")
		return
	}
	log := s.log.With(zap.Int("update_id", upd.ID))

	fresh, err := s.dedup.TryReserve(r.Context(), strconv.Itoa(upd.ID))
	if err != nil {
		log.Warn("webhook.dedup_failed", zap.Error(err))
		fresh = true
	}
	if !fresh {
		s.count("duplicate")
		log.Info("webhook.duplicate_update")
		w.WriteHeader(http.StatusOK)
		return
	}

	s.processor.ProcessUpdate(upd)
	s.count("processed")
	w.WriteHeader(http.StatusOK)
}

func (s *Server) count(result string) {
	if s.counter != nil {
		s.counter.UpdateHandled(result)
	}
}

type errorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Code: status, Message: msg})
}
