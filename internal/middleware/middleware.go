package middleware

import (
	"context"
	"net/http"
	"strconv"

	"stormrag/internal/config"
	"stormrag/internal/handlers"
	"stormrag/internal/metrics"
	"stormrag/pkg/applog"

	"github.com/google/uuid"
)

var logger = applog.New("middleware")

// Wrap runs the shared request chain: trace-id injection, per-IP rate
// limiting, and HTTP metrics capture.
func Wrap(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec := &metrics.HttpStatusRecorder{ResponseWriter: w, Status: 200}

		r = injectTrace(r)

		if !allowRequest(r) {
			logger.Warn("rate limit exceeded", "IP", r.RemoteAddr)
			handlers.WriteErrorResponse(rec, http.StatusTooManyRequests, "Rate limit exceeded")
			metrics.HttpRequestsTotal.WithLabelValues(r.URL.Path, strconv.Itoa(rec.Status)).Inc()
			return
		}

		next(rec, r)
		metrics.HttpRequestsTotal.WithLabelValues(r.URL.Path, strconv.Itoa(rec.Status)).Inc()
	}
}

func injectTrace(r *http.Request) *http.Request {
	trace := r.Header.Get("X-Trace-Id")
	if trace == "" {
		trace = uuid.New().String()
	}
	r.Header.Set("X-Trace-Id", trace)
	ctx := context.WithValue(r.Context(), config.TRACE_ID_KEY, trace)
	return r.WithContext(ctx)
}
