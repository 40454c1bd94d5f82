package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/corvid-labs/postboard/internal/api/shared"
	"github.com/corvid-labs/postboard/internal/platform/logger"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// TraceHeader carries the trace ID in requests and responses.
const TraceHeader = "X-Request-ID"

// TraceMiddleware adds a trace ID to the request context and a logger tagged
// with it. It should run early so every later handler sees both. A usable
// client supplied X-Request-ID is kept; otherwise one is generated.
func TraceMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := shared.WithTraceID(r.Context(), r.Header.Get(TraceHeader))
		traceID := shared.GetTraceID(ctx)

		log := logger.FromContext(ctx).With(slog.String("trace_id", traceID))
		ctx = logger.WithLogger(ctx, log)
		w.Header().Set(TraceHeader, traceID)

		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r.WithContext(ctx))

		log.Debug("request completed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", ww.Status()),
			slog.Int("bytes", ww.BytesWritten()),
			slog.Duration("duration", time.Since(start)))
	})
}
