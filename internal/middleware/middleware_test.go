package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/annel0/arena-game/internal/logging"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var buf bytes.Buffer
	reg := prometheus.NewRegistry()
	pm, err := NewPrometheusMiddleware("arena", reg, "/stream")
	require.NoError(t, err)

	r := gin.New()
	r.Use(NewRequestLogger(logging.NewWriterLogger("api", &buf, logging.DEBUG)).Handler(), pm.Handler())
	r.GET("/ok", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(TraceIDKey))
	})
	r.GET("/stream", func(c *gin.Context) {
		c.Status(http.StatusSwitchingProtocols)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))
	require.Equal(t, http.StatusOK, w.Code)
	traceID := w.Header().Get("X-Trace-Id")
	assert.NotEmpty(t, traceID)
	assert.Equal(t, traceID, w.Body.String())
	assert.Contains(t, buf.String(), "GET /ok 200")

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/stream", nil))

	assert.Equal(t, 1.0, testutil.ToFloat64(pm.requests.WithLabelValues("GET", "/ok", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(pm.requests.WithLabelValues("GET", "unmatched", "404")))
	assert.Equal(t, 1.0, testutil.ToFloat64(pm.requests.WithLabelValues("GET", "/stream", "101")))
	assert.Equal(t, 0.0, testutil.ToFloat64(pm.inflight))
	assert.Equal(t, 2, testutil.CollectAndCount(pm.duration), "поток не попадает в гистограмму")

	_, err = NewPrometheusMiddleware("arena", reg)
	assert.Error(t, err)
}
