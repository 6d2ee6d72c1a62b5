package api

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/ericlee/eoss/internal/logger"
	"github.com/ericlee/eoss/pkg/metrics"
)

type ctxKey int

const requestIDKey ctxKey = 0

// ResponseHeaderRequestID carries the opaque request identifier set on
// every response.
const ResponseHeaderRequestID = "X-EOSS-Request-ID"

// RequestID assigns each request an opaque identifier, stores it in the
// request context and stamps it on the response before any handler writes.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()
		w.Header().Set(ResponseHeaderRequestID, id)
		ctx := context.WithValue(r.Context(), requestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestID returns the request identifier assigned by RequestID, or ""
// outside of a request.
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// AccessLog writes one access line per response and feeds the request
// metrics. The metrics may be nil when disabled.
func AccessLog(access *logger.AccessLogger, m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			latencyMS := time.Since(start).Milliseconds()
			access.Log(
				GetRequestID(r.Context()),
				latencyMS,
				clientIP(r),
				r.Method,
				r.URL.Path,
				ww.Status(),
				r.UserAgent(),
			)

			if m != nil {
				m.RequestsTotal.WithLabelValues(r.Method, statusLabel(ww.Status())).Inc()
				m.RequestDuration.WithLabelValues(r.Method).Observe(float64(latencyMS))
			}
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func statusLabel(status int) string {
	if status == 0 {
		status = http.StatusOK
	}
	return strconv.Itoa(status)
}
