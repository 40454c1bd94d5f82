package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/corvid-labs/postboard/internal/api/middleware"
	"github.com/corvid-labs/postboard/internal/api/shared"
	"github.com/corvid-labs/postboard/internal/platform/logger"
	"github.com/stretchr/testify/assert"
)

func TestTraceMiddleware(t *testing.T) {
	logBuf, log := logger.NewTestLogger(t)

	var traceID string
	handler := middleware.TraceMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID = shared.GetTraceID(r.Context())
		logger.FromContext(r.Context()).Info("inside handler")
		w.WriteHeader(http.StatusTeapot)
	}))

	t.Run("generates an id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req = req.WithContext(logger.WithLogger(req.Context(), log))
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusTeapot, w.Code)
		assert.Len(t, traceID, shared.TraceIDLength)
		assert.Equal(t, traceID, w.Header().Get(middleware.TraceHeader))
		logger.AssertLogContains(t, logBuf, `"trace_id":"`+traceID+`"`)
		logger.AssertLogContains(t, logBuf, "request completed")
	})

	t.Run("keeps a client id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set(middleware.TraceHeader, "client-42")
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		assert.Equal(t, "client-42", traceID)
		assert.Equal(t, "client-42", w.Header().Get(middleware.TraceHeader))
	})
}
