package monitoring

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetricsIndependentRegistries(t *testing.T) {
	m1 := NewMetrics()
	m2 := NewMetrics()

	m1.RecordCapture("ok", 10*time.Millisecond, 16)

	assert.Equal(t, float64(1), testutil.ToFloat64(m1.CapturesTotal.WithLabelValues("ok")))
	assert.Equal(t, float64(0), testutil.ToFloat64(m2.CapturesTotal.WithLabelValues("ok")))
}

func TestRecordCaptureSnapshot(t *testing.T) {
	m := NewMetrics()

	m.RecordCapture("ok", 100*time.Millisecond, 1024)
	m.RecordCapture("payload_truncated", 300*time.Millisecond, 10)

	s := m.Snapshot()
	assert.Equal(t, int64(2), s.Captures)
	assert.Equal(t, int64(1), s.Failures)
	assert.Equal(t, int64(1034), s.PayloadBytes)
	assert.Equal(t, "payload_truncated", s.LastOutcome)
	assert.InDelta(t, 0.2, s.AverageSeconds, 0.001)
	assert.Equal(t, float64(1034), testutil.ToFloat64(m.PayloadBytes))
}

func TestActiveCaptures(t *testing.T) {
	m := NewMetrics()

	m.IncCapturesActive()
	m.IncCapturesActive()
	m.DecCapturesActive()

	assert.Equal(t, float64(1), testutil.ToFloat64(m.CapturesActive))
	assert.Equal(t, int64(1), m.Snapshot().Active)
}

func TestMiddlewareAndHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewMetrics()

	router := gin.New()
	router.Use(Middleware(m))
	router.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	router.GET("/metrics", gin.WrapH(m.Handler()))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "/ping", "200")))

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "fbbridge_http_requests_total")
	assert.Contains(t, w.Body.String(), "fbbridge_uptime_seconds")
}
