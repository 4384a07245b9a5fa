package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/kiranandcode/axiom-profiler-2/pkg/buildinfo"
	"github.com/kiranandcode/axiom-profiler-2/pkg/observability"
)

type contextKey string

const ctxRequestID contextKey = "request_id"

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

// RequestIDFromContext returns the id assigned by the requestID middleware.
func RequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(ctxRequestID).(string); ok {
		return id
	}
	return ""
}

// requestID reuses a well-formed incoming X-Request-ID or assigns a new
// random UUID.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		w.Header().Set("Server", buildinfo.UserAgent())
		ctx := context.WithValue(r.Context(), ctxRequestID, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// instrument logs each request and reports it to the server hooks under
// its route pattern, so /nodes/3 and /nodes/4 share one series.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := time.Since(start)
		observability.Server().OnRequest(r.Context(), r.Method, route, status, elapsed)
		s.logger.Debug("request",
			"id", RequestIDFromContext(r.Context()),
			"method", r.Method,
			"route", route,
			"status", status,
			"elapsed", elapsed,
		)
	})
}
