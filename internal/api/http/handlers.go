package http

import (
	"context"
	"io"
	"net/http"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/fbbridge/internal/framebuffer"
	"github.com/GriffinCanCode/fbbridge/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/fbbridge/internal/infrastructure/resilience"
)

// Version is reported by the root endpoint.
const Version = "0.1.0"

// Capturer serves one framebuffer capture into a sink.
type Capturer interface {
	Serve(ctx context.Context, sink io.Writer) (*framebuffer.Report, error)
}

// Handlers contains all HTTP handlers
type Handlers struct {
	capturer Capturer
	breaker  *resilience.Breaker
	limiter  *framebuffer.Limiter
	metrics  *monitoring.Metrics
	logger   *zap.Logger
}

// NewHandlers creates a new handler set. breaker and metrics may be nil.
func NewHandlers(capturer Capturer, breaker *resilience.Breaker, metrics *monitoring.Metrics, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		capturer: capturer,
		breaker:  breaker,
		metrics:  metrics,
		logger:   logger,
	}
}

// WithLimiter reports the capture slot count on /health.
func (h *Handlers) WithLimiter(l *framebuffer.Limiter) *Handlers {
	h.limiter = l
	return h
}

// Root handles the service banner
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "fbbridge",
		"version": Version,
	})
}

// Health reports breaker state and running capture totals
func (h *Handlers) Health(c *gin.Context) {
	status := "healthy"
	breaker := "none"
	if h.breaker != nil {
		state := h.breaker.State()
		breaker = state.String()
		if state == resilience.StateOpen {
			status = "degraded"
		}
	}

	resp := gin.H{
		"status":  status,
		"breaker": breaker,
	}
	if h.limiter != nil {
		resp["max_concurrent"] = h.limiter.Max()
	}
	if h.metrics != nil {
		resp["captures"] = h.metrics.Snapshot()
	}
	c.JSON(http.StatusOK, resp)
}

// Info runs a capture, discards the pixels and returns the capture report
func (h *Handlers) Info(c *gin.Context) {
	report, err := h.capturer.Serve(c.Request.Context(), io.Discard)
	if err != nil {
		h.fail(c, report, err)
		return
	}

	body, err := sonic.Marshal(report)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", body)
}

func (h *Handlers) fail(c *gin.Context, report *framebuffer.Report, err error) {
	resp := gin.H{
		"success": false,
		"error":   err.Error(),
	}
	if report != nil {
		resp["outcome"] = report.Outcome
		resp["capture_id"] = report.CaptureID.String()
	}
	c.JSON(StatusFor(err), resp)
}
