package ws

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/fbbridge/internal/framebuffer"
	"github.com/GriffinCanCode/fbbridge/internal/infrastructure/monitoring"
)

// Message is a client request.
type Message struct {
	Type string `json:"type"`
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Capturer serves one framebuffer capture into a sink.
type Capturer interface {
	Serve(ctx context.Context, sink io.Writer) (*framebuffer.Report, error)
}

// Handler manages WebSocket connections
type Handler struct {
	capturer Capturer
	metrics  *monitoring.Metrics
	logger   *zap.Logger
}

// NewHandler creates a new WebSocket handler. metrics may be nil.
func NewHandler(capturer Capturer, metrics *monitoring.Metrics, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		capturer: capturer,
		metrics:  metrics,
		logger:   logger,
	}
}

// HandleConnection upgrades the request and serves capture requests until
// the client goes away.
func (h *Handler) HandleConnection(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	if h.metrics != nil {
		h.metrics.IncConnections("ws")
		h.metrics.IncWSConnections()
		defer h.metrics.DecWSConnections()
	}

	reqCtx := c.Request.Context()

	h.send(conn, gin.H{
		"type":    "system",
		"message": "connected to fbbridge",
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Debug("websocket read error", zap.Error(err))
			}
			return
		}

		var msg Message
		if err := sonic.Unmarshal(data, &msg); err != nil {
			h.sendError(conn, "malformed message", "")
			continue
		}

		switch msg.Type {
		case "capture":
			if err := h.handleCapture(reqCtx, conn); err != nil {
				return
			}
		case "ping":
			h.send(conn, gin.H{"type": "pong"})
		default:
			h.sendError(conn, "unknown message type", "")
		}
	}
}

// handleCapture streams one capture as binary frames between a
// capture_start and a complete or error message. It returns an error only
// when the connection is no longer usable.
func (h *Handler) handleCapture(ctx context.Context, conn *websocket.Conn) error {
	if err := h.send(conn, gin.H{"type": "capture_start", "timestamp": time.Now().Unix()}); err != nil {
		return err
	}

	sink := &binarySink{conn: conn}
	report, err := h.capturer.Serve(ctx, sink)
	if sink.err != nil {
		return sink.err
	}
	if err != nil {
		outcome := ""
		if report != nil {
			outcome = report.Outcome
		}
		return h.sendError(conn, err.Error(), outcome)
	}

	return h.send(conn, gin.H{
		"type":      "complete",
		"report":    report,
		"timestamp": time.Now().Unix(),
	})
}

func (h *Handler) send(conn *websocket.Conn, data any) error {
	b, err := sonic.Marshal(data)
	if err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, b)
}

func (h *Handler) sendError(conn *websocket.Conn, msg, outcome string) error {
	resp := gin.H{
		"type":      "error",
		"message":   msg,
		"timestamp": time.Now().Unix(),
	}
	if outcome != "" {
		resp["outcome"] = outcome
	}
	return h.send(conn, resp)
}

// binarySink sends every write as one binary message.
type binarySink struct {
	conn *websocket.Conn
	err  error
}

func (s *binarySink) Write(p []byte) (int, error) {
	if err := s.conn.WriteMessage(websocket.BinaryMessage, p); err != nil {
		s.err = err
		return 0, err
	}
	return len(p), nil
}
