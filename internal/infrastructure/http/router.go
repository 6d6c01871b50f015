package httpserver

import (
	"context"
	"net/http"
	"time"

	infraconfig "ratebot-service/internal/infrastructure/config"
	"ratebot-service/internal/infrastructure/logx"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type contextKey string

const (
	requestIDKey contextKey = "request_id"
	traceIDKey   contextKey = "trace_id"
)

func NewRouter(s *Server) http.Handler {
	r := chi.NewRouter()

	r.Use(correlation())
	r.Use(recoverer())
	r.Use(accessLog())

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if s.ping != nil {
			if err := s.ping(r.Context()); err != nil {
				writeError(w, http.StatusServiceUnavailable, "store not ready")
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("READY"))
	})

	if s.gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	if s.processor != nil {
		r.Post(infraconfig.WebhookPath, s.HandleUpdate)
	}
	return r
}

func headerOrNew(r *http.Request, header string) string {
	if v := r.Header.Get(header); v != "" {
		return v
	}
	return uuid.NewString()
}

// correlation tags each request with a request id and a trace id, taken from
// the incoming headers when present and echoed back.
func correlation() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rid := headerOrNew(r, "X-Request-ID")
			tid := headerOrNew(r, "X-Trace-Id")
			w.Header().Set("X-Request-ID", rid)
			w.Header().Set("X-Trace-Id", tid)
			ctx := context.WithValue(r.Context(), requestIDKey, rid)
			ctx = context.WithValue(ctx, traceIDKey, tid)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func requestFields(r *http.Request) []zap.Field {
	rid, _ := r.Context().Value(requestIDKey).(string)
	tid, _ := r.Context().Value(traceIDKey).(string)
	return []zap.Field{zap.String("request_id", rid), zap.String("trace_id", tid)}
}

func recoverer() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logx.L().Error("http.panic_recovered", append(requestFields(r), zap.Any("panic", rec))...)
					writeError(w, http.StatusInternalServerError, "internal error")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// recorder captures the status and size a handler wrote, for the access log.
type recorder struct {
	http.ResponseWriter
	status int
	size   int
}

func (rw *recorder) WriteHeader(code int) {
	if rw.status == 0 {
		rw.status = code
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *recorder) Write(b []byte) (int, error) {
	if rw.status == 0 {
		rw.status = http.StatusOK
	}
	n, err := rw.ResponseWriter.Write(b)
	rw.size += n
	return n, err
}

func (rw *recorder) Unwrap() http.ResponseWriter { return rw.ResponseWriter }

// code is the status sent to the client; a handler that wrote nothing
// produced an implicit 200.
func (rw *recorder) code() int {
	if rw.status == 0 {
		return http.StatusOK
	}
	return rw.status
}

// accessLog logs every request except scrapes and probes at info; server
// errors are logged at warn.
func accessLog() func(http.Handler) http.Handler {
	quiet := map[string]bool{"/metrics": true, "/healthz": true, "/readyz": true}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := &recorder{ResponseWriter: w}
			next.ServeHTTP(rw, r)

			fields := append(requestFields(r),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", rw.code()),
				zap.Int("bytes", rw.size),
				zap.Duration("duration", time.Since(start)),
			)
			switch {
			case rw.code() >= http.StatusInternalServerError:
				logx.L().Warn("http.request", fields...)
			case quiet[r.URL.Path]:
				logx.L().Debug("http.request", fields...)
			default:
				logx.L().Info("http.request", fields...)
			}
		})
	}
}
